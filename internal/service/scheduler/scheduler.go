package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/observability/telemetry"
	"github.com/seu-repo/voicebridge/internal/ports"
	"github.com/seu-repo/voicebridge/internal/service/action"
)

const pendingKeyPrefix = "voicebridge:pending:"

// Config tunes the sync loop.
type Config struct {
	// SyncInterval is the periodic tick between best-effort state syncs.
	SyncInterval time.Duration
	// Debounce is the window within which rapid triggers coalesce into
	// a single sync.
	Debounce time.Duration
	// RequestTimeout bounds each outbound resolver call.
	RequestTimeout time.Duration
	// ConfirmationTTL is how long a pending confirmation stays claimable.
	ConfirmationTTL time.Duration
}

func (c *Config) applyDefaults() {
	if c.SyncInterval <= 0 {
		c.SyncInterval = 15 * time.Second
	}
	if c.Debounce <= 0 {
		c.Debounce = 300 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	if c.ConfirmationTTL <= 0 {
		c.ConfirmationTTL = 2 * time.Minute
	}
}

// TranscriptRequest is one explicit command submission from the host.
type TranscriptRequest struct {
	UserID            string
	Transcript        string
	Language          string
	ConversationState string
	ActiveCourseName  string
	ActiveSessionName string
}

// CommandResult is what the host gets back for a transcript.
type CommandResult struct {
	Success             bool                    `json:"success"`
	SpokenResponse      string                  `json:"spoken_response"`
	ToolUsed            string                  `json:"tool_used,omitempty"`
	Confidence          float64                 `json:"confidence"`
	NeedsConfirmation   bool                    `json:"needs_confirmation"`
	ConfirmationContext string                  `json:"confirmation_context,omitempty"`
	CorrelationID       string                  `json:"correlation_id,omitempty"`
	Execution           *domain.ExecutionResult `json:"execution,omitempty"`
}

// Scheduler owns the sync loop and command processing for one user
// session. Syncs are best-effort and coalesced; command submissions
// are never coalesced, never reordered, and never retried behind the
// user's back. The single Run goroutine is the only writer of the
// last-synced signature, so bursts are serialized by the debounce
// rather than a lock held across awaits.
type Scheduler struct {
	userID    string
	provider  ports.UIStateProvider
	intent    ports.IntentClient
	executor  ports.ActionExecutor
	validator *action.Validator
	store     ports.Cache
	bus       ports.EventBus
	cfg       Config
	log       *zap.Logger

	triggerCh chan struct{}
	lastSig   string

	pendingMu     sync.Mutex
	pendingTimers map[string]*time.Timer
}

func New(
	userID string,
	provider ports.UIStateProvider,
	intent ports.IntentClient,
	executor ports.ActionExecutor,
	validator *action.Validator,
	store ports.Cache,
	bus ports.EventBus,
	cfg Config,
	log *zap.Logger,
) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{
		userID:    userID,
		provider:  provider,
		intent:    intent,
		executor:  executor,
		validator: validator,
		store:     store,
		bus:       bus,
		cfg:       cfg,
		log:       log.With(zap.String("user_id", userID)),
		triggerCh:     make(chan struct{}, 1),
		pendingTimers: make(map[string]*time.Timer),
	}
}

// NotifyStateChanged queues a sync. Called on every host snapshot push.
func (s *Scheduler) NotifyStateChanged() { s.trigger() }

// NotifyRouteChange queues a sync after the host route changed.
func (s *Scheduler) NotifyRouteChange() { s.trigger() }

// NotifyVisible queues a sync when the host tab became visible again.
func (s *Scheduler) NotifyVisible() { s.trigger() }

func (s *Scheduler) trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
		// A sync is already queued; the burst coalesces into it.
	}
}

// Run drives the periodic and trigger-driven sync loop until the
// context is cancelled. Sync failures are logged and swallowed; they
// must never block user interaction.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	s.log.Info("scheduler started",
		zap.Duration("sync_interval", s.cfg.SyncInterval),
		zap.Duration("debounce", s.cfg.Debounce),
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.sync(ctx)
		case <-s.triggerCh:
			s.debounce(ctx)
			s.sync(ctx)
		}
	}
}

// debounce absorbs triggers arriving within the window so a burst of
// rapid state changes produces exactly one transmission.
func (s *Scheduler) debounce(ctx context.Context) {
	timer := time.NewTimer(s.cfg.Debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.triggerCh:
			// Coalesce and keep waiting out the window.
		case <-timer.C:
			return
		}
	}
}

func (s *Scheduler) sync(ctx context.Context) {
	state := s.provider.CompactUiState()
	sig := state.Signature()
	if sig == s.lastSig {
		telemetry.SyncsSuppressedTotal.Inc()
		return
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	err := s.intent.SyncState(reqCtx, domain.StateSyncRequest{
		UserID:  s.userID,
		UIState: state,
	})
	if err != nil {
		telemetry.StateSyncsTotal.WithLabelValues("error").Inc()
		s.log.Warn("state sync failed", zap.Error(err))
		return
	}

	s.lastSig = sig
	telemetry.StateSyncsTotal.WithLabelValues("ok").Inc()
	s.log.Debug("state synced", zap.String("route", state.Route))
}

// SubmitTranscript sends one transcript to the resolver with the
// freshest snapshot attached and runs the returned action through the
// validate/confirm/execute pipeline. Each call produces exactly one
// resolver request.
func (s *Scheduler) SubmitTranscript(ctx context.Context, req TranscriptRequest) (*CommandResult, error) {
	tracer := otel.Tracer("voicebridge/scheduler")
	ctx, span := tracer.Start(ctx, "command.submit")
	span.SetAttributes(attribute.String("language", req.Language))
	defer span.End()

	start := time.Now()
	state := s.provider.CompactUiState()

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	resp, err := s.intent.Interpret(reqCtx, domain.CommandRequest{
		UserID:            req.UserID,
		Transcript:        req.Transcript,
		Language:          req.Language,
		UIState:           state,
		ConversationState: req.ConversationState,
		ActiveCourseName:  req.ActiveCourseName,
		ActiveSessionName: req.ActiveSessionName,
	})
	telemetry.CommandLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.VoiceCommandsTotal.WithLabelValues("transport_error").Inc()
		s.log.Error("command submission failed", zap.Error(err))
		s.bus.PublishToast(domain.ToastEvent{
			Message: "Voice command failed, please try again",
			Type:    domain.ToastError,
		})
		return nil, fmt.Errorf("interpret transcript: %w", err)
	}

	result := &CommandResult{
		Success:        resp.Success,
		SpokenResponse: resp.SpokenResponse,
		ToolUsed:       resp.ToolUsed,
		Confidence:     resp.Confidence,
	}

	if resp.UIAction == nil {
		telemetry.VoiceCommandsTotal.WithLabelValues("no_action").Inc()
		return result, nil
	}

	act := s.validator.Validate(resp.UIAction)
	if act == nil {
		telemetry.ActionsRejectedTotal.Inc()
		telemetry.VoiceCommandsTotal.WithLabelValues("invalid_action").Inc()
		s.log.Warn("resolver returned malformed action",
			zap.Any("ui_action", resp.UIAction),
		)
		result.Success = false
		s.bus.PublishToast(domain.ToastEvent{
			Message: "Could not understand that command",
			Type:    domain.ToastError,
		})
		return result, nil
	}

	if resp.NeedsConfirmation {
		if err := s.parkForConfirmation(ctx, req.UserID, *act, resp); err != nil {
			s.log.Error("failed to store pending confirmation", zap.Error(err))
			result.Success = false
			return result, nil
		}
		telemetry.VoiceCommandsTotal.WithLabelValues("needs_confirmation").Inc()
		result.NeedsConfirmation = true
		result.ConfirmationContext = resp.ConfirmationContext
		result.CorrelationID = act.CorrelationID
		return result, nil
	}

	exec := s.executor.Execute(ctx, *act)
	telemetry.VoiceCommandsTotal.WithLabelValues("executed").Inc()
	result.CorrelationID = act.CorrelationID
	result.Execution = &exec
	result.Success = resp.Success && exec.Succeeded()
	return result, nil
}

// parkForConfirmation stores the action keyed by correlation id until
// the user explicitly confirms. Auto-executing here would skip the
// consent gate.
func (s *Scheduler) parkForConfirmation(ctx context.Context, userID string, act domain.VoiceAction, resp *domain.CommandResponse) error {
	pending := domain.PendingConfirmation{
		UserID:              userID,
		Action:              act,
		SpokenResponse:      resp.SpokenResponse,
		ConfirmationContext: resp.ConfirmationContext,
		CreatedAt:           time.Now().UTC(),
	}
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending confirmation: %w", err)
	}
	if err := s.store.Set(ctx, pendingKeyPrefix+act.CorrelationID, string(data), s.cfg.ConfirmationTTL); err != nil {
		return fmt.Errorf("store pending confirmation: %w", err)
	}
	s.trackPending(act.CorrelationID)
	return nil
}

// trackPending mirrors the store TTL so the pending gauge decrements
// when an unconfirmed entry expires, not only on Confirm.
func (s *Scheduler) trackPending(correlationID string) {
	s.pendingMu.Lock()
	s.pendingTimers[correlationID] = time.AfterFunc(s.cfg.ConfirmationTTL, func() {
		if s.untrackPending(correlationID) {
			telemetry.PendingConfirmations.Dec()
		}
	})
	s.pendingMu.Unlock()
	telemetry.PendingConfirmations.Inc()
}

// untrackPending stops the expiry timer, reporting whether the entry
// was still tracked. Exactly one caller gets true per parked entry, so
// the gauge is decremented once whether consumed or expired.
func (s *Scheduler) untrackPending(correlationID string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	t, ok := s.pendingTimers[correlationID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.pendingTimers, correlationID)
	return true
}

// Confirm resolves a parked action: accept executes it, reject
// discards it. The entry is claimed atomically from the store, so of
// any number of racing confirms for one correlation id exactly one
// consumes the action and the rest fail with unknown-correlation.
func (s *Scheduler) Confirm(ctx context.Context, correlationID string, accept bool) (*CommandResult, error) {
	raw, err := s.store.GetDel(ctx, pendingKeyPrefix+correlationID)
	if err != nil || raw == "" {
		return nil, fmt.Errorf("no pending confirmation for %s", correlationID)
	}

	var pending domain.PendingConfirmation
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, fmt.Errorf("decode pending confirmation: %w", err)
	}

	if s.untrackPending(correlationID) {
		telemetry.PendingConfirmations.Dec()
	}

	if !accept {
		telemetry.VoiceCommandsTotal.WithLabelValues("rejected").Inc()
		s.bus.PublishToast(domain.ToastEvent{
			Message: "Command cancelled",
			Type:    domain.ToastInfo,
		})
		return &CommandResult{Success: true, SpokenResponse: "Okay, cancelled."}, nil
	}

	exec := s.executor.Execute(ctx, pending.Action)
	telemetry.VoiceCommandsTotal.WithLabelValues("confirmed").Inc()
	return &CommandResult{
		Success:        exec.Succeeded(),
		SpokenResponse: pending.SpokenResponse,
		CorrelationID:  pending.Action.CorrelationID,
		Execution:      &exec,
	}, nil
}
