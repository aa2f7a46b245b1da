package app

import (
	"context"
	"sync"

	"github.com/novastream/novastream-go/internal/domain"
)

// Subscription is one consumer's ordered view of the event stream.
// Publishing never blocks: a Downloading event replaces a Downloading event
// still waiting at the tail, every other event is appended.
type Subscription struct {
	mu      sync.Mutex
	queue   []domain.ProgressEvent
	ready   chan struct{}
	closed  bool
	onClose func(*Subscription)
}

func newSubscription(onClose func(*Subscription)) *Subscription {
	return &Subscription{
		ready:   make(chan struct{}, 1),
		onClose: onClose,
	}
}

// publish enqueues ev, coalescing consecutive progress updates
func (s *Subscription) publish(ev domain.ProgressEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if n := len(s.queue); n > 0 &&
		ev.Phase == domain.StateDownloading &&
		s.queue[n-1].Phase == domain.StateDownloading &&
		s.queue[n-1].JobID == ev.JobID {
		s.queue[n-1] = ev
	} else {
		s.queue = append(s.queue, ev)
	}
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

// Poll returns the oldest pending event without blocking
func (s *Subscription) Poll() (domain.ProgressEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return domain.ProgressEvent{}, false
	}
	ev := s.queue[0]
	s.queue[0] = domain.ProgressEvent{}
	s.queue = s.queue[1:]
	if len(s.queue) > 0 {
		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
	return ev, true
}

// Ready signals when events may be pending. It never closes.
func (s *Subscription) Ready() <-chan struct{} {
	return s.ready
}

// Next blocks until an event is available or ctx is done
func (s *Subscription) Next(ctx context.Context) (domain.ProgressEvent, error) {
	for {
		if ev, ok := s.Poll(); ok {
			return ev, nil
		}
		select {
		case <-s.ready:
		case <-ctx.Done():
			return domain.ProgressEvent{}, ctx.Err()
		}
	}
}

// Pending returns the number of queued events
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close unsubscribes. Pending events remain readable.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.onClose != nil {
		s.onClose(s)
	}
}

// broadcaster fans events out to every live subscription
type broadcaster struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[*Subscription]struct{})}
}

func (b *broadcaster) subscribe() *Subscription {
	sub := newSubscription(b.unsubscribe)
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *broadcaster) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// publish must be called with the coordinator's lock held so that every
// subscription sees events in the same order.
func (b *broadcaster) publish(ev domain.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		sub.publish(ev)
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
