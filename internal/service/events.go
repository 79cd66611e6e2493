package service

import (
	"sync"
	"time"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

// EventKind names an outbound notification topic.
type EventKind string

const (
	// EventStatusUpdated fires when a repository's cached status changes.
	EventStatusUpdated EventKind = "status-updated"

	// EventRebaseChanged fires when a repository enters or leaves an
	// in-progress rebase.
	EventRebaseChanged EventKind = "rebase-changed"

	// EventProgress carries one output line of a running operation.
	EventProgress EventKind = "operation-progress"

	// EventOperationError reports a failed operation or watcher fault.
	EventOperationError EventKind = "operation-error"
)

// Event is a single notification. RepoID and OpID let a consumer
// correlate events with repositories and operations.
type Event struct {
	Kind   EventKind
	RepoID string
	OpID   string
	Line   string
	Status *gitstatus.RepoStatus
	Rebase *gitstatus.RebaseState
	Err    error
	At     time.Time
}

type subscription struct {
	ch    chan Event
	kinds map[EventKind]bool
}

func (s *subscription) wants(kind EventKind) bool {
	return len(s.kinds) == 0 || s.kinds[kind]
}

// Hub fans events out to subscribers. Delivery is non-blocking: a slow
// subscriber loses events rather than stalling the engine.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscription
	nextID uint64
	closed bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscription)}
}

// Subscribe returns a channel receiving the given event kinds (all kinds
// when none are named) and a function that cancels the subscription and
// closes the channel.
func (h *Hub) Subscribe(kinds ...EventKind) (<-chan Event, func()) {
	sub := &subscription{
		ch:    make(chan Event, 64),
		kinds: make(map[EventKind]bool, len(kinds)),
	}
	for _, kind := range kinds {
		sub.kinds[kind] = true
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Publish delivers an event to every interested subscriber.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, sub := range h.subs {
		if !sub.wants(event.Kind) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}

// Close cancels every subscription. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}
