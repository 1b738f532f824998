package forms

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind classifies a submission outcome notification.
type EventKind string

const (
	// EventSuccess signals a completed submission.
	EventSuccess EventKind = "success"
	// EventError signals a failed submission (validation or HTTP).
	EventError EventKind = "error"
)

// Event describes one submission outcome. External UI code subscribes to
// these instead of the binder rendering success and error chrome itself.
type Event struct {
	ID      uuid.UUID
	Action  string
	Kind    EventKind
	Status  int
	Message string
	Fields  []FieldError
}

// Dispatcher broadcasts submission events to subscribers.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers []func(Event)
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a callback for every future event.
func (d *Dispatcher) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

// Dispatch assigns the event an ID and delivers it to every subscriber in
// registration order.
func (d *Dispatcher) Dispatch(event Event) {
	event.ID = uuid.New()

	d.mu.RLock()
	subscribers := append([]func(Event){}, d.subscribers...)
	d.mu.RUnlock()

	for _, fn := range subscribers {
		fn(event)
	}
}
