package executor

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/mocks"
	"github.com/seu-repo/voicebridge/internal/service/resolver"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// fastConfig keeps failing verification loops short.
func fastConfig() Config {
	return Config{
		VerifyPollInterval: 2 * time.Millisecond,
		VerifyTimeout:      20 * time.Millisecond,
	}
}

func hostState() domain.UiState {
	return domain.UiState{
		Route:     "/",
		ActiveTab: "tab-home",
		Tabs: []domain.TabState{
			{ID: "tab-home", Label: "Home", Active: true},
			{ID: "tab-ai-features", Label: "AI Features"},
		},
		Buttons: []domain.ButtonState{
			{ID: "btn-save", Label: "Save"},
		},
		Inputs: []domain.InputState{
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

// testHost wires a provider and dispatcher around one mutable snapshot,
// applying dispatched actions the way a cooperative host would.
type testHost struct {
	state    domain.UiState
	provider *mocks.MockUIStateProvider
	apply    bool
}

func newTestHost(apply bool) *testHost {
	h := &testHost{state: hostState(), apply: apply}
	h.provider = &mocks.MockUIStateProvider{
		CompactUiStateFunc: func() domain.UiState { return h.state.Clone() },
	}
	return h
}

func (h *testHost) Dispatch(action domain.VoiceAction) error {
	if !h.apply {
		return nil
	}
	p := action.Payload
	switch action.Type {
	case domain.ActionSwitchTab:
		h.state.ActiveTab = p.VoiceID
		for i := range h.state.Tabs {
			h.state.Tabs[i].Active = h.state.Tabs[i].ID == p.VoiceID
		}
	case domain.ActionFillInput:
		for i := range h.state.Inputs {
			if h.state.Inputs[i].ID == p.VoiceID {
				if p.Append {
					h.state.Inputs[i].Value += p.Content
				} else {
					h.state.Inputs[i].Value = p.Content
				}
			}
		}
	case domain.ActionSelectDropdown:
		for i := range h.state.Dropdowns {
			if h.state.Dropdowns[i].ID != p.VoiceID {
				continue
			}
			if p.SelectionValue != nil {
				h.state.Dropdowns[i].SelectedValue = *p.SelectionValue
			} else if p.SelectionIndex != nil {
				opts := h.state.Dropdowns[i].Options
				if *p.SelectionIndex >= 0 && *p.SelectionIndex < len(opts) {
					h.state.Dropdowns[i].SelectedValue = opts[*p.SelectionIndex].Label
				}
			}
		}
	case domain.ActionNavigate:
		h.state.Route = p.Route
	case domain.ActionClickButton, domain.ActionSubmitForm:
		h.state.Modal = "save-dialog"
	}
	return nil
}

func newTestExecutor(h *testHost, bus *mocks.MockEventBus) *Executor {
	res := resolver.New(nil, newTestLogger())
	return New(h.provider, h, bus, res, fastConfig(), newTestLogger())
}

func TestExecute_SwitchTabViaAlias(t *testing.T) {
	// Arrange
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)
	action := domain.NewSwitchTabAction("aifeatures", "AI Features")

	// Act
	result := exec.Execute(context.Background(), action)

	// Assert
	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	if result.Target != "tab-ai-features" {
		t.Errorf("expected resolved target 'tab-ai-features', got %q", result.Target)
	}
	if h.state.ActiveTab != "tab-ai-features" {
		t.Errorf("expected host to switch tabs, active is %q", h.state.ActiveTab)
	}

	events := bus.Actions()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast action, got %d", len(events))
	}
	if events[0].Payload.VoiceID != "tab-ai-features" {
		t.Errorf("broadcast should carry the resolved id, got %q", events[0].Payload.VoiceID)
	}
	if events[0].CorrelationID != action.CorrelationID {
		t.Error("broadcast correlation id should match the action")
	}
}

func TestExecute_SwitchTabNoEffect(t *testing.T) {
	h := newTestHost(false) // host ignores dispatches
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewSwitchTabAction("tab-ai-features", ""))

	if result.Outcome != domain.OutcomeNoEffect {
		t.Fatalf("expected no_effect, got %s", result.Outcome)
	}
	if result.Succeeded() {
		t.Error("no_effect must not count as success")
	}

	toasts := bus.Toasts()
	if len(toasts) != 1 || toasts[0].Type != domain.ToastError {
		t.Errorf("expected one error toast, got %+v", toasts)
	}
}

func TestExecute_SwitchTabUnexpected(t *testing.T) {
	h := newTestHost(false)
	bus := &mocks.MockEventBus{}
	res := resolver.New(nil, newTestLogger())
	// A host that lands on the wrong tab regardless of the request.
	rogue := &mocks.MockActionDispatcher{
		DispatchFunc: func(action domain.VoiceAction) error {
			h.state.ActiveTab = "tab-home-wrong"
			return nil
		},
	}
	exec := New(h.provider, rogue, bus, res, fastConfig(), newTestLogger())

	result := exec.Execute(context.Background(), domain.NewSwitchTabAction("tab-ai-features", ""))

	if result.Outcome != domain.OutcomeUnexpected {
		t.Fatalf("expected unexpected, got %s (%s)", result.Outcome, result.Message)
	}
	if result.Observed != "tab-home-wrong" {
		t.Errorf("expected observed 'tab-home-wrong', got %q", result.Observed)
	}
}

func TestExecute_FillInputAppendAccumulates(t *testing.T) {
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)
	ctx := context.Background()

	first := exec.Execute(ctx, domain.NewFillInputAction("input-notes", "Hello ", true))
	second := exec.Execute(ctx, domain.NewFillInputAction("input-notes", "world", true))

	if first.Outcome != domain.OutcomeVerified {
		t.Fatalf("first append: expected verified, got %s (%s)", first.Outcome, first.Message)
	}
	if second.Outcome != domain.OutcomeVerified {
		t.Fatalf("second append: expected verified, got %s (%s)", second.Outcome, second.Message)
	}
	if second.Expected != "Hello world" {
		t.Errorf("expected accumulated value 'Hello world', got %q", second.Expected)
	}

	input, _ := h.state.FindInput("input-notes")
	if input.Value != "Hello world" {
		t.Errorf("host input should hold 'Hello world', got %q", input.Value)
	}
}

func TestExecute_FillInputReplace(t *testing.T) {
	h := newTestHost(true)
	h.state.Inputs[0].Value = "old text"
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewFillInputAction("input-notes", "new text", false))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	input, _ := h.state.FindInput("input-notes")
	if input.Value != "new text" {
		t.Errorf("expected replacement, got %q", input.Value)
	}
}

func TestExecute_SelectDropdownNegativeIndex(t *testing.T) {
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	// Index -1 resolves to the last live option.
	result := exec.Execute(context.Background(), domain.NewSelectDropdownByIndexAction("dd-difficulty", -1))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	if result.Expected != "Advanced" {
		t.Errorf("expected selection 'Advanced', got %q", result.Expected)
	}

	events := bus.Actions()
	if len(events) != 1 {
		t.Fatalf("expected 1 broadcast action, got %d", len(events))
	}
	if events[0].Payload.SelectionIndex == nil || *events[0].Payload.SelectionIndex != 2 {
		t.Errorf("broadcast should carry the normalized index 2, got %v", events[0].Payload.SelectionIndex)
	}
}

func TestExecute_SelectDropdownByValue(t *testing.T) {
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewSelectDropdownByValueAction("dd-difficulty", "Intermediate"))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	dd, _ := h.state.FindDropdown("dd-difficulty")
	if dd.SelectedValue != "Intermediate" {
		t.Errorf("expected 'Intermediate' selected, got %q", dd.SelectedValue)
	}
}

func TestExecute_Navigate(t *testing.T) {
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewNavigateAction("/courses"))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	if h.state.Route != "/courses" {
		t.Errorf("expected route '/courses', got %q", h.state.Route)
	}
}

func TestExecute_ClickButtonAnyChangeVerifies(t *testing.T) {
	h := newTestHost(true)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewClickButtonAction("save", "Save"))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s (%s)", result.Outcome, result.Message)
	}
	if result.Target != "btn-save" {
		t.Errorf("expected resolved target 'btn-save', got %q", result.Target)
	}
}

func TestExecute_ClickButtonNoChange(t *testing.T) {
	h := newTestHost(false)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewClickButtonAction("btn-save", "Save"))

	if result.Outcome != domain.OutcomeNoEffect {
		t.Fatalf("expected no_effect, got %s", result.Outcome)
	}
}

func TestExecute_ScrollAlwaysVerifies(t *testing.T) {
	// Scroll position is not captured in snapshots, so the dispatch is
	// the observable effect even on a host that applies nothing.
	h := newTestHost(false)
	bus := &mocks.MockEventBus{}
	exec := newTestExecutor(h, bus)

	result := exec.Execute(context.Background(), domain.NewScrollAction(domain.ScrollDown))

	if result.Outcome != domain.OutcomeVerified {
		t.Fatalf("expected verified, got %s", result.Outcome)
	}
}
