package action

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// Validator checks raw action payloads from the remote resolver
// against the closed variant set before anything is executed. It is a
// pure transform: a fully typed action on success, nil on any failure,
// and it never panics or partially validates.
type Validator struct {
	routes map[string]struct{}
	log    *zap.Logger
}

// NewValidator builds a validator with the route allowlist used by the
// navigate variant.
func NewValidator(knownRoutes []string, log *zap.Logger) *Validator {
	routes := make(map[string]struct{}, len(knownRoutes))
	for _, r := range knownRoutes {
		routes[r] = struct{}{}
	}
	return &Validator{routes: routes, log: log}
}

// rawEnvelope is the loose wire shape. Payload stays untyped so
// per-variant checks can distinguish absent fields from zero values.
type rawEnvelope struct {
	Type          string                 `json:"type"`
	Payload       map[string]interface{} `json:"payload"`
	CorrelationID string                 `json:"correlation_id"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Validate inspects an arbitrary value, typically deserialized JSON
// from the resolver, and returns the typed action or nil.
func (v *Validator) Validate(candidate interface{}) *domain.VoiceAction {
	if candidate == nil {
		return nil
	}

	// Already-typed actions (from local creators) re-enter through the
	// same wire checks.
	raw, err := json.Marshal(candidate)
	if err != nil {
		return nil
	}
	var env rawEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		v.log.Debug("action envelope is not an object", zap.Error(err))
		return nil
	}

	if env.Payload == nil {
		return nil
	}

	payload, ok := v.validatePayload(domain.ActionType(env.Type), env.Payload)
	if !ok {
		v.log.Debug("action payload rejected", zap.String("type", env.Type))
		return nil
	}

	action := &domain.VoiceAction{
		Type:          domain.ActionType(env.Type),
		Payload:       *payload,
		CorrelationID: env.CorrelationID,
		Timestamp:     env.Timestamp,
	}
	if action.CorrelationID == "" {
		action.CorrelationID = uuid.New().String()
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now().UTC()
	}
	return action
}

func (v *Validator) validatePayload(t domain.ActionType, p map[string]interface{}) (*domain.ActionPayload, bool) {
	switch t {
	case domain.ActionSwitchTab:
		voiceID, ok := getString(p, "voiceId")
		if !ok || voiceID == "" {
			return nil, false
		}
		tabLabel, _ := getString(p, "tabLabel")
		return &domain.ActionPayload{VoiceID: voiceID, TabLabel: tabLabel}, true

	case domain.ActionClickButton:
		voiceID, ok := getString(p, "voiceId")
		if !ok || voiceID == "" {
			return nil, false
		}
		buttonLabel, _ := getString(p, "buttonLabel")
		return &domain.ActionPayload{VoiceID: voiceID, ButtonLabel: buttonLabel}, true

	case domain.ActionFillInput:
		voiceID, ok := getString(p, "voiceId")
		if !ok || voiceID == "" {
			return nil, false
		}
		content, ok := getString(p, "content")
		if !ok {
			return nil, false
		}
		appendFlag, present := getBool(p, "append")
		if !present {
			appendFlag = false
		}
		fieldLabel, _ := getString(p, "fieldLabel")
		return &domain.ActionPayload{
			VoiceID:    voiceID,
			Content:    content,
			Append:     appendFlag,
			FieldLabel: fieldLabel,
		}, true

	case domain.ActionSelectDropdown:
		voiceID, ok := getString(p, "voiceId")
		if !ok || voiceID == "" {
			return nil, false
		}
		_, hasIdx := p["selectionIndex"]
		_, hasVal := p["selectionValue"]
		// Exactly one of index or value. Both or neither is invalid,
		// and a present selector of the wrong type is invalid too, not
		// silently ignored.
		if hasIdx == hasVal {
			return nil, false
		}
		payload := &domain.ActionPayload{VoiceID: voiceID}
		if hasIdx {
			idx, ok := getInt(p, "selectionIndex")
			if !ok {
				return nil, false
			}
			payload.SelectionIndex = &idx
		} else {
			val, ok := getString(p, "selectionValue")
			if !ok {
				return nil, false
			}
			payload.SelectionValue = &val
		}
		return payload, true

	case domain.ActionNavigate:
		route, ok := getString(p, "route")
		if !ok || route == "" {
			return nil, false
		}
		if _, allowed := v.routes[route]; !allowed {
			return nil, false
		}
		return &domain.ActionPayload{Route: route}, true

	case domain.ActionScroll:
		direction, ok := getString(p, "direction")
		if !ok {
			return nil, false
		}
		if direction != domain.ScrollUp && direction != domain.ScrollDown {
			return nil, false
		}
		return &domain.ActionPayload{Direction: direction}, true

	case domain.ActionSubmitForm:
		voiceID, ok := getString(p, "submitButtonVoiceId")
		if !ok || voiceID == "" {
			return nil, false
		}
		return &domain.ActionPayload{SubmitButtonVoiceID: voiceID}, true
	}

	return nil, false
}

func getString(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getBool(m map[string]interface{}, key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// getInt accepts JSON numbers only when they are integral. A
// fractional selectionIndex is malformed, not coerced.
func getInt(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}
