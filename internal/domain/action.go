package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType discriminates the closed set of voice action variants.
type ActionType string

const (
	ActionSwitchTab      ActionType = "ui.switchTab"
	ActionClickButton    ActionType = "ui.clickButton"
	ActionFillInput      ActionType = "ui.fillInput"
	ActionSelectDropdown ActionType = "ui.selectDropdown"
	ActionNavigate       ActionType = "ui.navigate"
	ActionScroll         ActionType = "ui.scroll"
	ActionSubmitForm     ActionType = "ui.submitForm"
)

const (
	ScrollUp   = "up"
	ScrollDown = "down"
)

// ActionPayload carries the variant-specific fields of a VoiceAction.
// Pointer fields distinguish "absent" from zero values where the
// validation contract depends on presence (selectDropdown's
// exactly-one-of rule).
type ActionPayload struct {
	VoiceID             string  `json:"voiceId,omitempty"`
	TabLabel            string  `json:"tabLabel,omitempty"`
	ButtonLabel         string  `json:"buttonLabel,omitempty"`
	Content             string  `json:"content,omitempty"`
	Append              bool    `json:"append,omitempty"`
	FieldLabel          string  `json:"fieldLabel,omitempty"`
	SelectionIndex      *int    `json:"selectionIndex,omitempty"`
	SelectionValue      *string `json:"selectionValue,omitempty"`
	Route               string  `json:"route,omitempty"`
	Direction           string  `json:"direction,omitempty"`
	SubmitButtonVoiceID string  `json:"submitButtonVoiceId,omitempty"`
}

// VoiceAction is one validated instruction against the host UI. It is
// immutable once created and consumed exactly once by the executor.
// CorrelationID links the dispatch to its verification outcome and
// lives for a single round trip.
type VoiceAction struct {
	Type          ActionType    `json:"type"`
	Payload       ActionPayload `json:"payload"`
	CorrelationID string        `json:"correlation_id"`
	Timestamp     time.Time     `json:"timestamp"`
}

func newAction(t ActionType, p ActionPayload) VoiceAction {
	return VoiceAction{
		Type:          t,
		Payload:       p,
		CorrelationID: uuid.New().String(),
		Timestamp:     time.Now().UTC(),
	}
}

func NewSwitchTabAction(voiceID, tabLabel string) VoiceAction {
	return newAction(ActionSwitchTab, ActionPayload{VoiceID: voiceID, TabLabel: tabLabel})
}

func NewClickButtonAction(voiceID, buttonLabel string) VoiceAction {
	return newAction(ActionClickButton, ActionPayload{VoiceID: voiceID, ButtonLabel: buttonLabel})
}

func NewFillInputAction(voiceID, content string, append bool) VoiceAction {
	return newAction(ActionFillInput, ActionPayload{VoiceID: voiceID, Content: content, Append: append})
}

func NewSelectDropdownByIndexAction(voiceID string, index int) VoiceAction {
	return newAction(ActionSelectDropdown, ActionPayload{VoiceID: voiceID, SelectionIndex: &index})
}

func NewSelectDropdownByValueAction(voiceID, value string) VoiceAction {
	return newAction(ActionSelectDropdown, ActionPayload{VoiceID: voiceID, SelectionValue: &value})
}

func NewNavigateAction(route string) VoiceAction {
	return newAction(ActionNavigate, ActionPayload{Route: route})
}

func NewScrollAction(direction string) VoiceAction {
	return newAction(ActionScroll, ActionPayload{Direction: direction})
}

func NewSubmitFormAction(submitButtonVoiceID string) VoiceAction {
	return newAction(ActionSubmitForm, ActionPayload{SubmitButtonVoiceID: submitButtonVoiceID})
}

// ActionEvent is the broadcast form of an executed action, published
// on the event bus under the action's type so independent host
// listeners observe the same dispatch.
type ActionEvent struct {
	Type          ActionType    `json:"type"`
	Payload       ActionPayload `json:"payload"`
	CorrelationID string        `json:"correlation_id"`
}
