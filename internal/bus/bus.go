package bus

import (
	"sync"

	"go.uber.org/zap"
)

// Handler is a plain event callback. No ordering is guaranteed across
// independently registered handlers for the same event name.
type Handler func(payload any)

// Bus is the shared publish/subscribe channel. On returns a token used to
// detach the handler again; Emit dispatches synchronously.
type Bus interface {
	On(event string, h Handler) (token int)
	Off(event string, token int)
	Emit(event string, payload any)
}

type Memory struct {
	log  *zap.Logger
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler
}

var _ Bus = (*Memory)(nil)

func NewMemory(log *zap.Logger) *Memory {
	return &Memory{
		log:  log,
		subs: make(map[string]map[int]Handler),
	}
}

func (b *Memory) On(event string, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	if b.subs[event] == nil {
		b.subs[event] = make(map[int]Handler)
	}
	b.subs[event][b.next] = h
	return b.next
}

func (b *Memory) Off(event string, token int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.subs[event]
	if hs == nil {
		return
	}
	delete(hs, token)
	if len(hs) == 0 {
		delete(b.subs, event)
	}
}

// Emit calls every handler registered for event. A panicking handler is
// recovered and logged so it cannot take down the other subscribers.
func (b *Memory) Emit(event string, payload any) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.subs[event]))
	for _, h := range b.subs[event] {
		hs = append(hs, h)
	}
	b.mu.RUnlock()

	for _, h := range hs {
		b.dispatch(event, h, payload)
	}
}

func (b *Memory) dispatch(event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event_handler_panic",
				zap.String("event", event),
				zap.Any("panic", r),
			)
		}
	}()
	h(payload)
}

// ListenerCount reports how many handlers are attached to event.
func (b *Memory) ListenerCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[event])
}
