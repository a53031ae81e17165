package docstore

import (
	"context"
	"sync"
)

// Hub fans store changes out to subscriptions. Each subscription owns one dispatch
// goroutine; a slow listener only delays itself. Pending snapshots coalesce: a listener
// that falls behind skips straight to the newest value, which is safe because every
// delivery replaces the whole value at the path.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*HubSubscription
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*HubSubscription)}
}

// HubSubscription is one listener registered with a Hub.
type HubSubscription struct {
	hub  *Hub
	id   uint64
	path string
	fn   Listener

	mu      sync.Mutex
	pending *Event
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Add registers fn at path and starts its dispatcher. The subscription is released
// when ctx is done or Close is called, whichever comes first.
func (h *Hub) Add(ctx context.Context, path string, fn Listener) *HubSubscription {
	h.mu.Lock()
	h.nextID++
	s := &HubSubscription{
		hub:  h,
		id:   h.nextID,
		path: Clean(path),
		fn:   fn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	h.subs[s.id] = s
	h.mu.Unlock()

	go s.dispatch()
	context.AfterFunc(ctx, s.Close)
	return s
}

// Publish offers a fresh snapshot to every subscription whose path overlaps a changed path.
// read is called at most once per affected subscription.
func (h *Hub) Publish(changed []string, read func(path string) Snapshot) {
	for _, s := range h.snapshot() {
		for _, c := range changed {
			if Overlaps(s.path, c) {
				s.Offer(Event{Snapshot: read(s.path)})
				break
			}
		}
	}
}

// Broadcast delivers ev to every live subscription.
func (h *Hub) Broadcast(ev Event) {
	for _, s := range h.snapshot() {
		s.Offer(ev)
	}
}

// Len reports the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// CloseAll releases every subscription.
func (h *Hub) CloseAll() {
	for _, s := range h.snapshot() {
		s.Close()
	}
}

func (h *Hub) snapshot() []*HubSubscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*HubSubscription, 0, len(h.subs))
	for _, s := range h.subs {
		out = append(out, s)
	}
	return out
}

// Offer queues ev, replacing any undelivered event.
func (s *HubSubscription) Offer(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = &ev
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close unregisters the subscription. A delivery already in progress may still finish;
// nothing is delivered after that.
func (s *HubSubscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.pending = nil
		s.mu.Unlock()

		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
		close(s.done)
	})
}

func (s *HubSubscription) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		ev, closed := s.pending, s.closed
		s.pending = nil
		s.mu.Unlock()

		if closed {
			return
		}
		if ev != nil {
			s.fn(*ev)
		}
	}
}
