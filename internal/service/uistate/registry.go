package uistate

import (
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// Registry holds the most recent compact snapshot pushed by the host
// rendering layer. The core only ever reads from it; all mutation
// arrives through Update from the host push endpoint.
type Registry struct {
	mu       sync.RWMutex
	state    domain.UiState
	onChange func()
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

// OnChange registers a callback invoked after every snapshot update,
// used by the scheduler as its state-change trigger. Must be set
// before the host starts pushing.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Update replaces the current snapshot.
func (r *Registry) Update(state domain.UiState) {
	r.mu.Lock()
	r.state = state.Clone()
	fn := r.onChange
	r.mu.Unlock()

	r.log.Debug("ui state updated",
		zap.String("route", state.Route),
		zap.String("active_tab", state.ActiveTab),
		zap.Int("tabs", len(state.Tabs)),
	)

	if fn != nil {
		fn()
	}
}

// CompactUiState returns a copy of the latest snapshot. Pure read; two
// calls with no intervening Update yield equal signatures.
func (r *Registry) CompactUiState() domain.UiState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Clone()
}
