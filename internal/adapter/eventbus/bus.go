package eventbus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/voicebridge/internal/domain"
)

// Bus is an in-process typed publish/subscribe channel keyed by action
// type. It replaces an ambient window-scoped event mechanism with an
// explicit emitter owned by the root controller; every subscription
// returns an unsubscribe func so listeners release on unmount.
type Bus struct {
	mu            sync.RWMutex
	nextID        int
	actionSubs    map[domain.ActionType]map[int]func(domain.ActionEvent)
	allActionSubs map[int]func(domain.ActionEvent)
	toastSubs     map[int]func(domain.ToastEvent)
	log           *zap.Logger
}

func New(log *zap.Logger) *Bus {
	return &Bus{
		actionSubs:    make(map[domain.ActionType]map[int]func(domain.ActionEvent)),
		allActionSubs: make(map[int]func(domain.ActionEvent)),
		toastSubs:     make(map[int]func(domain.ToastEvent)),
		log:           log,
	}
}

// PublishAction delivers the event to type-scoped and catch-all
// subscribers. Delivery is synchronous and ordering between handlers
// is not guaranteed; handlers must not block.
func (b *Bus) PublishAction(event domain.ActionEvent) {
	b.mu.RLock()
	typed := make([]func(domain.ActionEvent), 0, len(b.actionSubs[event.Type])+len(b.allActionSubs))
	for _, h := range b.actionSubs[event.Type] {
		typed = append(typed, h)
	}
	for _, h := range b.allActionSubs {
		typed = append(typed, h)
	}
	b.mu.RUnlock()

	for _, h := range typed {
		h(event)
	}
}

func (b *Bus) PublishToast(event domain.ToastEvent) {
	b.mu.RLock()
	handlers := make([]func(domain.ToastEvent), 0, len(b.toastSubs))
	for _, h := range b.toastSubs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

func (b *Bus) SubscribeAction(actionType domain.ActionType, handler func(domain.ActionEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.actionSubs[actionType] == nil {
		b.actionSubs[actionType] = make(map[int]func(domain.ActionEvent))
	}
	b.actionSubs[actionType][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.actionSubs[actionType], id)
	}
}

func (b *Bus) SubscribeAllActions(handler func(domain.ActionEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.allActionSubs[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.allActionSubs, id)
	}
}

func (b *Bus) SubscribeToast(handler func(domain.ToastEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.toastSubs[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.toastSubs, id)
	}
}
