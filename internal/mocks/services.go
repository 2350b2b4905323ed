package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// MockUIStateProvider is a mock implementation of UIStateProvider interface
type MockUIStateProvider struct {
	CompactUiStateFunc func() domain.UiState
}

func (m *MockUIStateProvider) CompactUiState() domain.UiState {
	if m.CompactUiStateFunc != nil {
		return m.CompactUiStateFunc()
	}
	return domain.UiState{}
}

// MockIntentClient is a mock implementation of IntentClient interface
type MockIntentClient struct {
	InterpretFunc func(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error)
	SyncStateFunc func(ctx context.Context, req domain.StateSyncRequest) error
}

func (m *MockIntentClient) Interpret(ctx context.Context, req domain.CommandRequest) (*domain.CommandResponse, error) {
	if m.InterpretFunc != nil {
		return m.InterpretFunc(ctx, req)
	}
	return &domain.CommandResponse{Success: true}, nil
}

func (m *MockIntentClient) SyncState(ctx context.Context, req domain.StateSyncRequest) error {
	if m.SyncStateFunc != nil {
		return m.SyncStateFunc(ctx, req)
	}
	return nil
}

// MockActionExecutor is a mock implementation of ActionExecutor interface
type MockActionExecutor struct {
	ExecuteFunc func(ctx context.Context, action domain.VoiceAction) domain.ExecutionResult
}

func (m *MockActionExecutor) Execute(ctx context.Context, action domain.VoiceAction) domain.ExecutionResult {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, action)
	}
	return domain.ExecutionResult{
		CorrelationID: action.CorrelationID,
		ActionType:    action.Type,
		Outcome:       domain.OutcomeVerified,
	}
}

// MockActionDispatcher is a mock implementation of ActionDispatcher interface
type MockActionDispatcher struct {
	DispatchFunc func(action domain.VoiceAction) error

	mu         sync.Mutex
	dispatched []domain.VoiceAction
}

func (m *MockActionDispatcher) Dispatch(action domain.VoiceAction) error {
	m.mu.Lock()
	m.dispatched = append(m.dispatched, action)
	m.mu.Unlock()

	if m.DispatchFunc != nil {
		return m.DispatchFunc(action)
	}
	return nil
}

// Dispatched returns the actions seen so far.
func (m *MockActionDispatcher) Dispatched() []domain.VoiceAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.VoiceAction, len(m.dispatched))
	copy(out, m.dispatched)
	return out
}

// MockEventBus is a mock implementation of EventBus interface. It
// records published events; subscriptions are no-ops unless funcs are
// provided.
type MockEventBus struct {
	PublishActionFunc func(event domain.ActionEvent)
	PublishToastFunc  func(event domain.ToastEvent)

	mu      sync.Mutex
	actions []domain.ActionEvent
	toasts  []domain.ToastEvent
}

func (m *MockEventBus) PublishAction(event domain.ActionEvent) {
	m.mu.Lock()
	m.actions = append(m.actions, event)
	m.mu.Unlock()

	if m.PublishActionFunc != nil {
		m.PublishActionFunc(event)
	}
}

func (m *MockEventBus) PublishToast(event domain.ToastEvent) {
	m.mu.Lock()
	m.toasts = append(m.toasts, event)
	m.mu.Unlock()

	if m.PublishToastFunc != nil {
		m.PublishToastFunc(event)
	}
}

func (m *MockEventBus) SubscribeAction(actionType domain.ActionType, handler func(domain.ActionEvent)) func() {
	return func() {}
}

func (m *MockEventBus) SubscribeAllActions(handler func(domain.ActionEvent)) func() {
	return func() {}
}

func (m *MockEventBus) SubscribeToast(handler func(domain.ToastEvent)) func() {
	return func() {}
}

// Actions returns the action events published so far.
func (m *MockEventBus) Actions() []domain.ActionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ActionEvent, len(m.actions))
	copy(out, m.actions)
	return out
}

// Toasts returns the toast events published so far.
func (m *MockEventBus) Toasts() []domain.ToastEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ToastEvent, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// MockCache is an in-memory mock of the Cache interface. Expirations
// are ignored.
type MockCache struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	GetDelFunc func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error

	mu   sync.Mutex
	data map[string]string
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *MockCache) GetDel(ctx context.Context, key string) (string, error) {
	if m.GetDelFunc != nil {
		return m.GetDelFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.data[key]
	delete(m.data, key)
	return v, nil
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string]string)
	}
	switch v := value.(type) {
	case string:
		m.data[key] = v
	case []byte:
		m.data[key] = string(v)
	}
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCache) Ping() error { return nil }

func (m *MockCache) Close() error { return nil }

// MockMessageQueue is a mock implementation of MessageQueue interface
type MockMessageQueue struct {
	PublishFunc   func(subject string, data []byte) error
	SubscribeFunc func(subject string, handler func(msg []byte) error) error

	mu        sync.Mutex
	published map[string][][]byte
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	m.mu.Lock()
	if m.published == nil {
		m.published = make(map[string][][]byte)
	}
	m.published[subject] = append(m.published[subject], data)
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func(msg []byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	return nil
}

func (m *MockMessageQueue) Close() error { return nil }

// Published returns messages published to the given subject.
func (m *MockMessageQueue) Published(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[subject]
}
