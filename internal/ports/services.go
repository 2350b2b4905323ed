package ports

import (
	"context"
	"time"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// UIStateProvider yields the freshest compact snapshot of the host's
// interactive inventory. Implementations must be pure reads: repeated
// calls with no intervening UI change return structurally equal
// snapshots.
type UIStateProvider interface {
	CompactUiState() domain.UiState
}

// IntentClient is the boundary to the remote NLU/intent resolver. Both
// calls are bounded by the context; neither is retried here, since a
// sync is superseded by the next cycle and commands are re-issued by
// the user.
type IntentClient interface {
	Interpret(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error)
	SyncState(ctx context.Context, req domain.StateSyncRequest) error
}

// ActionExecutor applies one validated action to the host UI and
// verifies its effect.
type ActionExecutor interface {
	Execute(ctx context.Context, action domain.VoiceAction) domain.ExecutionResult
}

// ActionDispatcher is the direct-callback channel to the host. The
// executor invokes it alongside the event bus broadcast so both
// observe the same action.
type ActionDispatcher interface {
	Dispatch(action domain.VoiceAction) error
}

// EventBus is the typed publish/subscribe channel between the core and
// the host surfaces. Subscriptions return an unsubscribe func so
// listeners registered on mount can be released on unmount.
type EventBus interface {
	PublishAction(event domain.ActionEvent)
	PublishToast(event domain.ToastEvent)
	SubscribeAction(actionType domain.ActionType, handler func(domain.ActionEvent)) (unsubscribe func())
	SubscribeAllActions(handler func(domain.ActionEvent)) (unsubscribe func())
	SubscribeToast(handler func(domain.ToastEvent)) (unsubscribe func())
}

// Cache abstracts the conversation/pending-confirmation store. GetDel
// atomically reads and removes an entry so a parked confirmation can
// be claimed by at most one caller, however many confirms race for it.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	GetDel(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}
