package domain

import "time"

// CommandRequest is the payload posted to the remote intent resolver
// for one transcript. The UI snapshot rides along so the resolver can
// ground references against what is actually on screen.
type CommandRequest struct {
	UserID            string  `json:"userId"`
	Transcript        string  `json:"transcript"`
	Language          string  `json:"language"`
	UIState           UiState `json:"uiState"`
	ConversationState string  `json:"conversationState,omitempty"`
	ActiveCourseName  string  `json:"activeCourseName,omitempty"`
	ActiveSessionName string  `json:"activeSessionName,omitempty"`
}

// CommandResponse is the remote resolver's answer. UIAction is raw and
// untrusted until it passes the validator.
type CommandResponse struct {
	Success             bool        `json:"success"`
	SpokenResponse      string      `json:"spokenResponse"`
	UIAction            interface{} `json:"uiAction,omitempty"`
	ToolUsed            string      `json:"toolUsed,omitempty"`
	Confidence          float64     `json:"confidence"`
	NeedsConfirmation   bool        `json:"needsConfirmation"`
	ConfirmationContext string      `json:"confirmationContext,omitempty"`
}

// StateSyncRequest carries a snapshot to the resolver's state-sync
// endpoint. No meaningful response body is expected.
type StateSyncRequest struct {
	UserID  string  `json:"userId"`
	UIState UiState `json:"uiState"`
}

// Outcome classifies a post-execution verification.
type Outcome string

const (
	// OutcomeVerified means the expected field changed as predicted.
	OutcomeVerified Outcome = "verified"
	// OutcomeNoEffect means no relevant field changed. Silent no-ops
	// are first-class failures, not successes.
	OutcomeNoEffect Outcome = "no_effect"
	// OutcomeUnexpected means a relevant field changed to a value
	// other than the one requested.
	OutcomeUnexpected Outcome = "unexpected"
)

// ExecutionResult is what the executor reports back for one action.
type ExecutionResult struct {
	CorrelationID string        `json:"correlation_id"`
	ActionType    ActionType    `json:"action_type"`
	Outcome       Outcome       `json:"outcome"`
	Target        string        `json:"target,omitempty"`
	Expected      string        `json:"expected,omitempty"`
	Observed      string        `json:"observed,omitempty"`
	Message       string        `json:"message"`
	Duration      time.Duration `json:"duration_ns"`
}

// Succeeded reports whether the action's effect was confirmed.
func (r ExecutionResult) Succeeded() bool {
	return r.Outcome == OutcomeVerified
}

// ToastType mirrors the host notification surface's severity levels.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastInfo    ToastType = "info"
)

// ToastEvent is the sole channel by which outcomes reach the user
// without coupling to a specific host widget.
type ToastEvent struct {
	Message  string        `json:"message"`
	Type     ToastType     `json:"type"`
	Duration time.Duration `json:"duration,omitempty"`
}

// PendingConfirmation parks an action that the resolver flagged with
// needsConfirmation. It is stored until the user explicitly accepts
// or rejects; auto-executing past this gate is a correctness bug.
type PendingConfirmation struct {
	UserID              string      `json:"user_id"`
	Action              VoiceAction `json:"action"`
	SpokenResponse      string      `json:"spoken_response"`
	ConfirmationContext string      `json:"confirmation_context"`
	CreatedAt           time.Time   `json:"created_at"`
}
