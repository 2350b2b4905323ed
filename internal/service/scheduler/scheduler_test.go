package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
	"github.com/seu-repo/voicebridge/internal/mocks"
	"github.com/seu-repo/voicebridge/internal/observability/telemetry"
	"github.com/seu-repo/voicebridge/internal/service/action"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestValidator() *action.Validator {
	return action.NewValidator([]string{"/", "/courses"}, newTestLogger())
}

// countingIntent wraps the intent mock with a thread-safe sync counter.
type countingIntent struct {
	mocks.MockIntentClient
	mu    sync.Mutex
	syncs int
}

func (c *countingIntent) SyncState(ctx context.Context, req domain.StateSyncRequest) error {
	c.mu.Lock()
	c.syncs++
	c.mu.Unlock()
	if c.SyncStateFunc != nil {
		return c.SyncStateFunc(ctx, req)
	}
	return nil
}

func (c *countingIntent) syncCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncs
}

func testSchedulerConfig() Config {
	return Config{
		SyncInterval:    time.Hour, // keep the ticker out of the way
		Debounce:        10 * time.Millisecond,
		RequestTimeout:  time.Second,
		ConfirmationTTL: time.Minute,
	}
}

func newTestScheduler(intent *countingIntent, exec *mocks.MockActionExecutor, bus *mocks.MockEventBus, store *mocks.MockCache) *Scheduler {
	provider := &mocks.MockUIStateProvider{
		CompactUiStateFunc: func() domain.UiState {
			return domain.UiState{Route: "/", ActiveTab: "tab-home"}
		},
	}
	return New("user-1", provider, intent, exec, newTestValidator(), store, bus, testSchedulerConfig(), newTestLogger())
}

func TestRun_DebounceCoalescesBurst(t *testing.T) {
	// Arrange
	intent := &countingIntent{}
	sched := newTestScheduler(intent, &mocks.MockActionExecutor{}, &mocks.MockEventBus{}, &mocks.MockCache{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	// Act: a burst of rapid state changes within the debounce window.
	for i := 0; i < 5; i++ {
		sched.NotifyStateChanged()
		time.Sleep(time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	// Assert: the burst collapses into a single transmission.
	if got := intent.syncCount(); got != 1 {
		t.Errorf("expected exactly 1 sync for the burst, got %d", got)
	}
}

func TestRun_UnchangedStateSuppressed(t *testing.T) {
	intent := &countingIntent{}
	sched := newTestScheduler(intent, &mocks.MockActionExecutor{}, &mocks.MockEventBus{}, &mocks.MockCache{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.NotifyStateChanged()
	time.Sleep(50 * time.Millisecond)

	// The snapshot has not changed, so a second trigger must not
	// produce a second request.
	sched.NotifyRouteChange()
	time.Sleep(50 * time.Millisecond)

	if got := intent.syncCount(); got != 1 {
		t.Errorf("expected 1 sync with suppression, got %d", got)
	}
}

func TestRun_FailedSyncRetriesOnNextTrigger(t *testing.T) {
	intent := &countingIntent{}
	var fail atomic.Bool
	fail.Store(true)
	intent.SyncStateFunc = func(ctx context.Context, req domain.StateSyncRequest) error {
		if fail.Load() {
			return errors.New("resolver down")
		}
		return nil
	}
	sched := newTestScheduler(intent, &mocks.MockActionExecutor{}, &mocks.MockEventBus{}, &mocks.MockCache{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sched.Run(ctx)

	sched.NotifyStateChanged()
	time.Sleep(50 * time.Millisecond)

	// Failure must not record the signature; the next trigger retries
	// even though the snapshot is unchanged.
	fail.Store(false)
	sched.NotifyVisible()
	time.Sleep(50 * time.Millisecond)

	if got := intent.syncCount(); got != 2 {
		t.Errorf("expected a retry after failure, got %d syncs", got)
	}
}

func TestSubmitTranscript_ExecutesValidAction(t *testing.T) {
	// Arrange
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		if req.Transcript != "switch to settings" {
			t.Errorf("unexpected transcript %q", req.Transcript)
		}
		if req.UIState.Route != "/" {
			t.Error("expected the fresh snapshot attached to the request")
		}
		return &domain.CommandResponse{
			Success:        true,
			SpokenResponse: "Switching to settings",
			Confidence:     0.92,
			UIAction: map[string]interface{}{
				"type":    "ui.switchTab",
				"payload": map[string]interface{}{"voiceId": "tab-settings"},
			},
		}, nil
	}

	var executed []domain.VoiceAction
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			executed = append(executed, act)
			return domain.ExecutionResult{
				CorrelationID: act.CorrelationID,
				ActionType:    act.Type,
				Outcome:       domain.OutcomeVerified,
			}
		},
	}
	sched := newTestScheduler(intent, exec, &mocks.MockEventBus{}, &mocks.MockCache{})

	// Act
	result, err := sched.SubmitTranscript(context.Background(), TranscriptRequest{
		UserID:     "user-1",
		Transcript: "switch to settings",
		Language:   "en",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if len(executed) != 1 {
		t.Fatalf("expected 1 execution, got %d", len(executed))
	}
	if executed[0].Type != domain.ActionSwitchTab {
		t.Errorf("expected switchTab executed, got %q", executed[0].Type)
	}
	if result.Execution == nil || result.Execution.Outcome != domain.OutcomeVerified {
		t.Error("expected the execution result attached")
	}
	if result.CorrelationID == "" {
		t.Error("expected a correlation id")
	}
}

func TestSubmitTranscript_MalformedActionRejected(t *testing.T) {
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success: true,
			UIAction: map[string]interface{}{
				"type":    "ui.navigate",
				"payload": map[string]interface{}{"route": "/not-allowed"},
			},
		}, nil
	}

	execCalled := false
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			execCalled = true
			return domain.ExecutionResult{}
		},
	}
	bus := &mocks.MockEventBus{}
	sched := newTestScheduler(intent, exec, bus, &mocks.MockCache{})

	result, err := sched.SubmitTranscript(context.Background(), TranscriptRequest{
		UserID:     "user-1",
		Transcript: "go somewhere forbidden",
		Language:   "en",
	})

	if err != nil {
		t.Fatalf("expected no transport error, got %v", err)
	}
	if result.Success {
		t.Error("a rejected action must not report success")
	}
	if execCalled {
		t.Error("rejected actions must never reach the executor")
	}
	toasts := bus.Toasts()
	if len(toasts) != 1 || toasts[0].Type != domain.ToastError {
		t.Errorf("expected one error toast, got %+v", toasts)
	}
}

func TestSubmitTranscript_NoActionIsFine(t *testing.T) {
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success:        true,
			SpokenResponse: "The weather is nice today",
		}, nil
	}
	execCalled := false
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			execCalled = true
			return domain.ExecutionResult{}
		},
	}
	sched := newTestScheduler(intent, exec, &mocks.MockEventBus{}, &mocks.MockCache{})

	result, err := sched.SubmitTranscript(context.Background(), TranscriptRequest{
		UserID: "user-1", Transcript: "how is the weather", Language: "en",
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.Success {
		t.Error("a pure spoken response is a success")
	}
	if execCalled {
		t.Error("nothing to execute without an action")
	}
}

func TestSubmitTranscript_TransportErrorSurfaced(t *testing.T) {
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return nil, errors.New("connection refused")
	}
	bus := &mocks.MockEventBus{}
	sched := newTestScheduler(intent, &mocks.MockActionExecutor{}, bus, &mocks.MockCache{})

	result, err := sched.SubmitTranscript(context.Background(), TranscriptRequest{
		UserID: "user-1", Transcript: "anything", Language: "en",
	})

	if err == nil {
		t.Fatal("expected an error")
	}
	if result != nil {
		t.Error("expected nil result on transport failure")
	}
	toasts := bus.Toasts()
	if len(toasts) != 1 || toasts[0].Type != domain.ToastError {
		t.Errorf("expected one error toast, got %+v", toasts)
	}
}

func TestSubmitTranscript_ConfirmationGate(t *testing.T) {
	// Arrange: resolver flags the action as destructive.
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success:             true,
			SpokenResponse:      "This deletes the course. Are you sure?",
			NeedsConfirmation:   true,
			ConfirmationContext: "delete-course",
			UIAction: map[string]interface{}{
				"type":    "ui.clickButton",
				"payload": map[string]interface{}{"voiceId": "btn-delete-course"},
			},
		}, nil
	}

	var executed []domain.VoiceAction
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			executed = append(executed, act)
			return domain.ExecutionResult{
				CorrelationID: act.CorrelationID,
				ActionType:    act.Type,
				Outcome:       domain.OutcomeVerified,
			}
		},
	}
	store := &mocks.MockCache{}
	sched := newTestScheduler(intent, exec, &mocks.MockEventBus{}, store)
	ctx := context.Background()

	// Act: submit, then confirm.
	result, err := sched.SubmitTranscript(ctx, TranscriptRequest{
		UserID: "user-1", Transcript: "delete this course", Language: "en",
	})

	// Assert: parked, not executed.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !result.NeedsConfirmation {
		t.Fatal("expected the confirmation gate to engage")
	}
	if result.CorrelationID == "" {
		t.Fatal("expected a correlation id for the pending action")
	}
	if len(executed) != 0 {
		t.Fatal("a gated action must not execute before confirmation")
	}
	if stored, _ := store.Get(ctx, "voicebridge:pending:"+result.CorrelationID); stored == "" {
		t.Fatal("expected the pending action in the store")
	}

	confirmed, err := sched.Confirm(ctx, result.CorrelationID, true)
	if err != nil {
		t.Fatalf("expected confirm to succeed, got %v", err)
	}
	if !confirmed.Success {
		t.Error("expected confirmed execution to succeed")
	}
	if len(executed) != 1 {
		t.Fatalf("expected exactly 1 execution after confirm, got %d", len(executed))
	}
	if executed[0].Payload.VoiceID != "btn-delete-course" {
		t.Errorf("expected the parked action executed, got %+v", executed[0])
	}

	// The entry is consumed; confirming again fails.
	if _, err := sched.Confirm(ctx, result.CorrelationID, true); err == nil {
		t.Error("expected a second confirm to fail")
	}
}

func TestConfirm_RejectDiscardsAction(t *testing.T) {
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success:           true,
			NeedsConfirmation: true,
			UIAction: map[string]interface{}{
				"type":    "ui.submitForm",
				"payload": map[string]interface{}{"submitButtonVoiceId": "btn-publish"},
			},
		}, nil
	}
	execCalled := false
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			execCalled = true
			return domain.ExecutionResult{}
		},
	}
	bus := &mocks.MockEventBus{}
	sched := newTestScheduler(intent, exec, bus, &mocks.MockCache{})
	ctx := context.Background()

	result, err := sched.SubmitTranscript(ctx, TranscriptRequest{
		UserID: "user-1", Transcript: "publish the course", Language: "en",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	rejected, err := sched.Confirm(ctx, result.CorrelationID, false)
	if err != nil {
		t.Fatalf("expected reject to succeed, got %v", err)
	}
	if !rejected.Success {
		t.Error("a clean cancellation is still a successful outcome")
	}
	if execCalled {
		t.Error("rejected actions must never execute")
	}

	found := false
	for _, toast := range bus.Toasts() {
		if strings.Contains(toast.Message, "cancelled") {
			found = true
		}
	}
	if !found {
		t.Error("expected a cancellation toast")
	}
}

func TestConfirm_UnknownCorrelationID(t *testing.T) {
	sched := newTestScheduler(&countingIntent{}, &mocks.MockActionExecutor{}, &mocks.MockEventBus{}, &mocks.MockCache{})

	if _, err := sched.Confirm(context.Background(), "no-such-id", true); err == nil {
		t.Error("expected an error for an unknown correlation id")
	}
}

func TestConfirm_ConcurrentConfirmsExecuteOnce(t *testing.T) {
	// Arrange: park a gated action.
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success:           true,
			NeedsConfirmation: true,
			UIAction: map[string]interface{}{
				"type":    "ui.clickButton",
				"payload": map[string]interface{}{"voiceId": "btn-delete-course"},
			},
		}, nil
	}

	var executions atomic.Int32
	exec := &mocks.MockActionExecutor{
		ExecuteFunc: func(ctx context.Context, act domain.VoiceAction) domain.ExecutionResult {
			executions.Add(1)
			return domain.ExecutionResult{
				CorrelationID: act.CorrelationID,
				ActionType:    act.Type,
				Outcome:       domain.OutcomeVerified,
			}
		},
	}
	sched := newTestScheduler(intent, exec, &mocks.MockEventBus{}, &mocks.MockCache{})
	ctx := context.Background()

	result, err := sched.SubmitTranscript(ctx, TranscriptRequest{
		UserID: "user-1", Transcript: "delete this course", Language: "en",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Act: a burst of confirms race for the same correlation id.
	const confirms = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for i := 0; i < confirms; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := sched.Confirm(ctx, result.CorrelationID, true); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	// Assert: one consent, one execution, the rest turned away.
	if got := executions.Load(); got != 1 {
		t.Fatalf("expected exactly 1 execution, got %d", got)
	}
	if got := succeeded.Load(); got != 1 {
		t.Errorf("expected exactly 1 successful confirm, got %d", got)
	}
}

func TestConfirm_ExpiredEntryDecrementsGauge(t *testing.T) {
	// Arrange: a TTL short enough to lapse inside the test.
	intent := &countingIntent{}
	intent.InterpretFunc = func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
		return &domain.CommandResponse{
			Success:           true,
			NeedsConfirmation: true,
			UIAction: map[string]interface{}{
				"type":    "ui.clickButton",
				"payload": map[string]interface{}{"voiceId": "btn-delete-course"},
			},
		}, nil
	}
	provider := &mocks.MockUIStateProvider{
		CompactUiStateFunc: func() domain.UiState {
			return domain.UiState{Route: "/", ActiveTab: "tab-home"}
		},
	}
	cfg := testSchedulerConfig()
	cfg.ConfirmationTTL = 20 * time.Millisecond
	sched := New("user-1", provider, intent, &mocks.MockActionExecutor{}, newTestValidator(),
		&mocks.MockCache{}, &mocks.MockEventBus{}, cfg, newTestLogger())
	ctx := context.Background()

	baseline := testutil.ToFloat64(telemetry.PendingConfirmations)

	// Act: park, observe the gauge, then let the entry expire.
	result, err := sched.SubmitTranscript(ctx, TranscriptRequest{
		UserID: "user-1", Transcript: "delete this course", Language: "en",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := testutil.ToFloat64(telemetry.PendingConfirmations); got != baseline+1 {
		t.Fatalf("expected gauge %v after parking, got %v", baseline+1, got)
	}

	deadline := time.Now().Add(time.Second)
	for testutil.ToFloat64(telemetry.PendingConfirmations) != baseline {
		if time.Now().After(deadline) {
			t.Fatalf("gauge never returned to %v after the entry expired", baseline)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Assert: a late confirm must not decrement past the expiry.
	sched.Confirm(ctx, result.CorrelationID, true)
	if got := testutil.ToFloat64(telemetry.PendingConfirmations); got != baseline {
		t.Errorf("expected gauge to stay at %v after a late confirm, got %v", baseline, got)
	}
}
