package ports

import (
	"context"
	"time"
)

// TimeoutEvent is the diagnostic record emitted every time a bounded call
// expires. It exists so operators can answer "what keeps timing out, and did
// the worker ever die" after the fact.
type TimeoutEvent struct {
	// Op identifies the callable that timed out.
	Op string `json:"op"`
	// Timeout is the budget that expired.
	Timeout time.Duration `json:"timeout"`
	// Elapsed is how long the invoker actually waited (timeout + grace).
	Elapsed time.Duration `json:"elapsed"`
	// At is when the expiry was observed.
	At time.Time `json:"at"`
	// Leaked reports whether the worker was still alive after the grace
	// period, i.e. it was abandoned rather than reaped.
	Leaked bool `json:"leaked"`
}

// EventSink persists timeout events for later inspection. Implementations
// must be safe for concurrent use; Record is called from the hot path of a
// timed-out call and should be cheap or internally buffered.
type EventSink interface {
	// Record stores one event.
	Record(ctx context.Context, ev TimeoutEvent) error

	// Recent returns up to n events, newest first.
	Recent(ctx context.Context, n int) ([]TimeoutEvent, error)

	// Close releases any resources held by the sink.
	Close() error
}
