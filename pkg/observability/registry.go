package observability

import (
	"sync"
	"time"
)

// Status describes where a tracked worker is in its lifecycle.
type Status string

const (
	// StatusRunning means the bounded call is still inside its budget.
	StatusRunning Status = "running"
	// StatusLeaked means the deadline expired, the grace period passed, and
	// the worker goroutine is still running. The entry stays in the registry
	// until the straggler finally exits.
	StatusLeaked Status = "leaked"
)

// Entry is a snapshot of one tracked worker.
type Entry struct {
	ID      uint64        `json:"id"`
	Op      string        `json:"op"`
	Timeout time.Duration `json:"timeout"`
	Started time.Time     `json:"started"`
	Status  Status        `json:"status"`
}

// Registry tracks in-flight bounded calls and, more importantly, the ones
// that were abandoned: a worker that ignores its stop signal keeps running
// after the invoker has already received its timeout error, and without a
// registry those goroutines are invisible. Snapshot feeds the debug surface;
// the optional Metrics feed prometheus.
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]*Entry
	nextID  uint64
	metrics *Metrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[uint64]*Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Begin records the start of a bounded call and returns its tracking ID.
func (r *Registry) Begin(op string, timeout time.Duration) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[id] = &Entry{
		ID:      id,
		Op:      op,
		Timeout: timeout,
		Started: time.Now(),
		Status:  StatusRunning,
	}
	if r.metrics != nil {
		r.metrics.InFlight.Inc()
	}
	return id
}

// Finish records natural completion (value or the callable's own error) and
// drops the entry.
func (r *Registry) Finish(id uint64, failed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return
	}
	delete(r.entries, id)
	if r.metrics != nil {
		r.metrics.InFlight.Dec()
		r.metrics.Duration.Observe(time.Since(entry.Started).Seconds())
		if failed {
			r.metrics.Runs.WithLabelValues(ResultFailed).Inc()
		} else {
			r.metrics.Runs.WithLabelValues(ResultCompleted).Inc()
		}
	}
}

// TimedOut records deadline expiry. If leaked is true the worker survived the
// grace period and the entry is kept (status leaked) until Reaped; otherwise
// the worker died during grace and the entry is dropped immediately.
func (r *Registry) TimedOut(id uint64, leaked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return
	}
	if r.metrics != nil {
		r.metrics.InFlight.Dec()
		r.metrics.Duration.Observe(time.Since(entry.Started).Seconds())
		r.metrics.Runs.WithLabelValues(ResultTimedOut).Inc()
	}
	if !leaked {
		delete(r.entries, id)
		return
	}
	entry.Status = StatusLeaked
	if r.metrics != nil {
		r.metrics.Leaked.Inc()
	}
}

// Reaped records that a previously leaked worker finally exited.
func (r *Registry) Reaped(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok || entry.Status != StatusLeaked {
		return
	}
	delete(r.entries, id)
	if r.metrics != nil {
		r.metrics.Leaked.Dec()
	}
}

// Snapshot returns a copy of all tracked entries, running and leaked.
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, *e)
	}
	return out
}

// LeakedCount returns the number of abandoned workers still running.
func (r *Registry) LeakedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Status == StatusLeaked {
			n++
		}
	}
	return n
}
