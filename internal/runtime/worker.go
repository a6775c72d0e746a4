package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// ErrForcedStop is the payload injected into a worker when its caller gives up
// on it. Callables observe it as the cancellation cause of their context (or on
// the interrupt channel) and should unwind with it. The completion handler
// never captures it as the call's own outcome.
var ErrForcedStop = errors.New("leash: forced stop")

// PanicError wraps a panic recovered from a callable so it can travel back to
// the invoker as a regular error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("callable panicked: %v", e.Value)
}

// Thunk is the unit of work a Worker executes. The bound caller closes over
// the target function and its arguments before handing it here.
type Thunk func(ctx context.Context) (any, error)

// Worker executes a single Thunk on its own goroutine and captures exactly one
// outcome (value or error). It is the victim side of the interruption
// protocol: RequestStop cancels the worker's context with the stop payload as
// cause and also delivers the payload on an interrupt channel, so callables
// that drain and ignore a single delivery can be signalled again.
//
// Lifecycle: NewWorker -> Start (once) -> Join/Alive from the supervising
// goroutine. Outcome must only be read after Alive reports false (or after a
// Join that observed completion): the outcome slot is fully written before the
// done channel closes.
type Worker struct {
	thunk      Thunk
	ctx        context.Context
	cancel     context.CancelCauseFunc
	interrupts chan error
	stopped    *atomic.Bool
	done       chan struct{}

	// Outcome slot. Written only by the worker goroutine, read only after
	// done is closed, so no lock is needed.
	captured bool
	value    any
	err      error
}

// NewWorker binds a thunk to a fresh execution context. The stopped flag is
// shared with the supervising side: once it flips, any error the callable
// raises is suppressed rather than captured, because the call is already
// considered stopped and a secondary error racing with the forced stop must
// not surface as the real outcome.
func NewWorker(parent context.Context, thunk Thunk, stopped *atomic.Bool) *Worker {
	if parent == nil {
		parent = context.Background()
	}
	if stopped == nil {
		stopped = &atomic.Bool{}
	}
	ctx, cancel := context.WithCancelCause(parent)
	w := &Worker{
		thunk:      thunk,
		cancel:     cancel,
		interrupts: make(chan error, 1),
		stopped:    stopped,
		done:       make(chan struct{}),
	}
	w.ctx = WithInterrupts(ctx, w.interrupts)
	return w
}

// Start launches the worker goroutine. Calling Start twice on the same Worker
// is a programming error; the second goroutine would race the first on the
// outcome slot.
func (w *Worker) Start() {
	go w.run()
}

func (w *Worker) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.capture(nil, &PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	v, err := w.thunk(w.ctx)
	w.capture(v, err)
}

// capture implements the completion policy: first write wins, the injected
// stop payload is never an outcome, and once the call is marked stopped no
// error is an outcome either.
func (w *Worker) capture(v any, err error) {
	if w.captured {
		return
	}
	w.captured = true
	switch {
	case err == nil:
		w.value = v
	case errors.Is(err, ErrForcedStop):
		// Injected signal unwinding the callable. Swallow it.
	case w.stopped.Load():
		// Call already stopped; do not let a racing error masquerade as
		// the real outcome.
	default:
		w.err = err
	}
}

// Join blocks the calling goroutine until the worker finishes or d elapses.
// A non-positive d waits indefinitely. Join reports nothing; query Alive
// afterwards to learn whether the wait succeeded.
func (w *Worker) Join(d time.Duration) {
	if d <= 0 {
		<-w.done
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.done:
	case <-t.C:
	}
}

// Alive reports whether the worker goroutine has not yet finished.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// RequestStop delivers cause into the worker's execution context: it cancels
// the worker's context (context-aware callables see ctx.Done with cause) and
// tops up the interrupt channel (callables that drained a previous delivery
// see it again). It never waits for the worker to react. Safe to call
// repeatedly, and a no-op once the worker has finished.
func (w *Worker) RequestStop(cause error) {
	if !w.Alive() {
		return
	}
	w.cancel(cause)
	select {
	case w.interrupts <- cause:
	default:
	}
}

// Outcome returns the captured value or error. Only valid after the worker
// has finished; calling it while Alive is true reads an unsynchronized slot.
func (w *Worker) Outcome() (any, error) {
	return w.value, w.err
}

type interruptsKey struct{}

// WithInterrupts attaches an interrupt delivery channel to ctx.
func WithInterrupts(ctx context.Context, ch <-chan error) context.Context {
	return context.WithValue(ctx, interruptsKey{}, ch)
}

// Interrupts returns the interrupt channel carried by a worker context, or
// nil when ctx does not belong to a worker. Callables normally just honor
// ctx.Done(); the channel exists for code that wants to observe repeated
// deliveries explicitly.
func Interrupts(ctx context.Context) <-chan error {
	ch, _ := ctx.Value(interruptsKey{}).(<-chan error)
	return ch
}
