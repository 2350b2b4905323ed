package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// SimulatorConfig holds the simulator configuration
type SimulatorConfig struct {
	ServerURL string
	Token     string
	UserID    string
	Language  string
}

// actionFrame mirrors the wire shape broadcast on /ws/events.
type actionFrame struct {
	Event         string                `json:"event"`
	Type          string                `json:"type,omitempty"`
	Payload       *domain.ActionPayload `json:"payload,omitempty"`
	CorrelationID string                `json:"correlation_id,omitempty"`
	Toast         *domain.ToastEvent    `json:"toast,omitempty"`
}

// Simulator plays the role of a host application: it keeps a local UI
// snapshot, pushes it to the bridge, submits transcripts, and applies
// the actions that come back on the WebSocket so the bridge can verify
// them against the next snapshot.
type Simulator struct {
	config *SimulatorConfig
	http   *http.Client
	conn   *websocket.Conn
	log    *zap.Logger

	mu    sync.Mutex
	state domain.UiState

	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSimulator(config *SimulatorConfig, logger *zap.Logger) *Simulator {
	return &Simulator{
		config:   config,
		http:     &http.Client{Timeout: 30 * time.Second},
		log:      logger,
		state:    seedState(),
		stopChan: make(chan struct{}),
	}
}

// seedState is a small but representative host surface.
func seedState() domain.UiState {
	return domain.UiState{
		Route:     "/",
		ActiveTab: "tab-home",
		Tabs: []domain.TabState{
			{ID: "tab-home", Label: "Home", Active: true},
			{ID: "tab-ai-features", Label: "AI Features"},
			{ID: "tab-settings", Label: "Settings"},
		},
		Buttons: []domain.ButtonState{
			{ID: "btn-save", Label: "Save"},
			{ID: "btn-new-course", Label: "New Course"},
		},
		Inputs: []domain.InputState{
			{ID: "input-course-name", Label: "Course Name"},
			{ID: "input-notes", Label: "Notes"},
		},
		Dropdowns: []domain.DropdownState{
			{
				ID:    "dd-difficulty",
				Label: "Difficulty",
				Options: []domain.DropdownOption{
					{Index: 0, Label: "Beginner"},
					{Index: 1, Label: "Intermediate"},
					{Index: 2, Label: "Advanced"},
				},
			},
		},
	}
}

// Connect dials the bridge's event stream and starts applying actions.
func (s *Simulator) Connect() error {
	wsURL, err := url.Parse(s.config.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws/events"
	wsURL.RawQuery = "userId=" + url.QueryEscape(s.config.UserID)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to dial event stream: %w", err)
	}
	s.conn = conn

	s.wg.Add(1)
	go s.readPump()

	s.log.Info("Connected to bridge event stream", zap.String("url", wsURL.String()))
	return nil
}

func (s *Simulator) readPump() {
	defer s.wg.Done()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopChan:
			default:
				s.log.Warn("Event stream closed", zap.Error(err))
			}
			return
		}

		var frame actionFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.log.Warn("Unparseable frame", zap.Error(err))
			continue
		}

		switch frame.Event {
		case "ui.action":
			s.applyAction(frame)
		case "toast":
			if frame.Toast != nil {
				fmt.Printf("\n[toast %s] %s\n> ", frame.Toast.Type, frame.Toast.Message)
			}
		}
	}
}

// applyAction mutates the local snapshot the way a real host would and
// pushes the result back, which lets the bridge verify the effect.
func (s *Simulator) applyAction(frame actionFrame) {
	if frame.Payload == nil {
		return
	}
	p := frame.Payload

	s.mu.Lock()
	switch domain.ActionType(frame.Type) {
	case domain.ActionSwitchTab:
		s.state.ActiveTab = p.VoiceID
		for i := range s.state.Tabs {
			s.state.Tabs[i].Active = s.state.Tabs[i].ID == p.VoiceID
		}
	case domain.ActionFillInput:
		for i := range s.state.Inputs {
			if s.state.Inputs[i].ID != p.VoiceID {
				continue
			}
			if p.Append {
				s.state.Inputs[i].Value += p.Content
			} else {
				s.state.Inputs[i].Value = p.Content
			}
		}
	case domain.ActionSelectDropdown:
		for i := range s.state.Dropdowns {
			if s.state.Dropdowns[i].ID != p.VoiceID {
				continue
			}
			if p.SelectionValue != nil {
				s.state.Dropdowns[i].SelectedValue = *p.SelectionValue
			} else if p.SelectionIndex != nil {
				opts := s.state.Dropdowns[i].Options
				idx := *p.SelectionIndex
				if idx < 0 {
					idx = len(opts) + idx
				}
				if idx >= 0 && idx < len(opts) {
					s.state.Dropdowns[i].SelectedValue = opts[idx].Label
				}
			}
		}
	case domain.ActionNavigate:
		s.state.Route = p.Route
	case domain.ActionClickButton, domain.ActionSubmitForm:
		// A real host would run the handler; flipping the modal field
		// makes the click observable in the next snapshot.
		s.state.Modal = ""
	case domain.ActionScroll:
		// Not represented in the snapshot.
	}
	s.mu.Unlock()

	fmt.Printf("\n[action %s] voiceId=%s correlation=%s\n> ", frame.Type, p.VoiceID, frame.CorrelationID)

	if err := s.PushState(); err != nil {
		s.log.Warn("Failed to push snapshot after action", zap.Error(err))
	}
}

// PushState sends the current snapshot to the bridge.
func (s *Simulator) PushState() error {
	s.mu.Lock()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	_, err := s.post("/api/v1/ui/state", snapshot)
	return err
}

// Say submits one transcript and prints the structured result.
func (s *Simulator) Say(transcript string) {
	body, err := s.post("/api/v1/voice/transcript", map[string]string{
		"transcript": transcript,
		"language":   s.config.Language,
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(body)
}

// Confirm resolves a parked confirmation by correlation ID.
func (s *Simulator) Confirm(correlationID string, accept bool) {
	body, err := s.post("/api/v1/voice/confirm", map[string]interface{}{
		"correlation_id": correlationID,
		"accept":         accept,
	})
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	printResult(body)
}

func printResult(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}

// NotifyRoute simulates a host navigation event.
func (s *Simulator) NotifyRoute(route string) {
	s.mu.Lock()
	s.state.Route = route
	s.mu.Unlock()

	if err := s.PushState(); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	if _, err := s.post("/api/v1/ui/events/route-change", struct{}{}); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

// NotifyVisibility simulates the host tab hiding or showing.
func (s *Simulator) NotifyVisibility(visible bool) {
	if _, err := s.post("/api/v1/ui/events/visibility", map[string]bool{"visible": visible}); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func (s *Simulator) post(path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.config.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// RunInteractive reads commands from stdin until quit/EOF.
func (s *Simulator) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		cmd := parts[0]
		arg := ""
		if len(parts) > 1 {
			arg = strings.TrimSpace(parts[1])
		}

		switch cmd {
		case "say":
			if arg == "" {
				fmt.Println("usage: say <transcript>")
			} else {
				s.Say(arg)
			}
		case "confirm":
			fields := strings.Fields(arg)
			if len(fields) != 2 {
				fmt.Println("usage: confirm <correlation-id> yes|no")
			} else {
				s.Confirm(fields[0], fields[1] == "yes")
			}
		case "show":
			s.mu.Lock()
			data, _ := json.MarshalIndent(s.state, "", "  ")
			s.mu.Unlock()
			fmt.Println(string(data))
		case "route":
			if arg == "" {
				fmt.Println("usage: route <path>")
			} else {
				s.NotifyRoute(arg)
			}
		case "hide":
			s.NotifyVisibility(false)
		case "visible":
			s.NotifyVisibility(true)
		case "push":
			if err := s.PushState(); err != nil {
				fmt.Printf("error: %v\n", err)
			}
		case "quit", "exit":
			s.Stop()
			return
		default:
			fmt.Printf("unknown command: %s\n", cmd)
		}
		fmt.Print("> ")
	}
}

// Stop closes the event stream.
func (s *Simulator) Stop() {
	close(s.stopChan)
	if s.conn != nil {
		s.conn.Close()
	}
	s.wg.Wait()
}
