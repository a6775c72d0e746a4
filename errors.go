package leash

import (
	"fmt"
	"time"

	"github.com/aretw0/leash/internal/runtime"
)

// ErrForcedStop is the interruption payload injected into a worker whose
// deadline has expired. It surfaces inside the callable as the cancellation
// cause of its context; it is never returned to the invoker.
var ErrForcedStop = runtime.ErrForcedStop

// PanicError wraps a panic recovered from a callable. It propagates to the
// invoker like any error the callable could have returned itself.
type PanicError = runtime.PanicError

// Sentinel timeouts accepted by TimedOutError.Retry.
const (
	// RetrySameTimeout retries with the duration that originally expired.
	RetrySameTimeout time.Duration = -1
	// RetryNoTimeout retries with no bounding at all; the retry may block
	// forever.
	RetryNoTimeout time.Duration = 0
)

// TimedOutError is returned by Run when the deadline expires before the
// callable finishes. It carries the original call and the expired duration so
// the invoker can decide policy and retry without reconstructing anything.
//
// By the time the invoker holds a TimedOutError the worker goroutine may still
// be running; see the package documentation for the abandonment hazard.
type TimedOutError struct {
	// TimedOutAfter is the timeout that expired.
	TimedOutAfter time.Duration
	// Call is the original invocation request.
	Call Call

	// rerun is supplied by the Supervisor that raised this error, so a retry
	// goes back through the same policy knobs (grace period, registry, sink).
	rerun func(call Call, timeout time.Duration) (any, error)
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("function %s (args=%v) (kwargs=%v) timed out after %s",
		e.Call.Name(), e.Call.Args, e.Call.Kwargs, e.TimedOutAfter)
}

// Retry re-invokes the original call. timeout selects the bounding policy:
// RetrySameTimeout reuses the duration that expired, RetryNoTimeout (or any
// non-positive duration) runs the call unbounded on the invoker's goroutine,
// and a positive duration runs bounded with that duration.
func (e *TimedOutError) Retry(timeout time.Duration) (any, error) {
	if timeout == RetrySameTimeout {
		timeout = e.TimedOutAfter
	}
	if e.rerun != nil {
		return e.rerun(e.Call, timeout)
	}
	return defaultSupervisor.runCall(e.Call, timeout)
}
