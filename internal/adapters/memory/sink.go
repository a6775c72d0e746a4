package memory

import (
	"context"
	"sync"

	"github.com/aretw0/leash/pkg/ports"
)

const defaultCapacity = 128

// Sink implements ports.EventSink with a capped in-memory ring. Suitable for
// the debug surface of a single process; events beyond the cap evict the
// oldest.
type Sink struct {
	mu     sync.Mutex
	events []ports.TimeoutEvent
	cap    int
}

// Option configures a Sink.
type Option func(*Sink)

// WithCapacity sets how many events are retained.
func WithCapacity(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.cap = n
		}
	}
}

// NewSink creates an empty in-memory sink.
func NewSink(opts ...Option) *Sink {
	s := &Sink{cap: defaultCapacity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends the event, evicting the oldest when full.
func (s *Sink) Record(_ context.Context, ev ports.TimeoutEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *Sink) Recent(_ context.Context, n int) ([]ports.TimeoutEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	out := make([]ports.TimeoutEvent, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory sink.
func (s *Sink) Close() error {
	return nil
}
