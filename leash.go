package leash

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/leash/internal/logging"
	"github.com/aretw0/leash/internal/runtime"
	"github.com/aretw0/leash/pkg/observability"
	"github.com/aretw0/leash/pkg/ports"
)

const (
	// DefaultGracePeriod is the best-effort wait after the stop signal is
	// first delivered, before the invoker gets its timeout error back.
	DefaultGracePeriod = 100 * time.Millisecond

	// DefaultRedeliverInterval is how often the stop signal is re-injected
	// into a worker that survived the grace period.
	DefaultRedeliverInterval = 2 * time.Second
)

// Supervisor runs callables with a deadline and classifies the outcome. The
// zero configuration (package-level Run) is fine for most uses; construct one
// explicitly to attach a logger, a worker registry, an event sink, or to tune
// the grace period and redelivery interval.
type Supervisor struct {
	logger    *slog.Logger
	registry  *observability.Registry
	sink      ports.EventSink
	grace     time.Duration
	redeliver time.Duration
}

// Option defines a functional option for configuring a Supervisor.
type Option func(*Supervisor)

// WithLogger sets a custom structured logger. The default discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithRegistry sets the worker registry used for leak tracking. Supplying a
// shared registry lets multiple supervisors feed one debug surface.
func WithRegistry(r *observability.Registry) Option {
	return func(s *Supervisor) {
		s.registry = r
	}
}

// WithEventSink records a TimeoutEvent on every expiry.
func WithEventSink(sink ports.EventSink) Option {
	return func(s *Supervisor) {
		s.sink = sink
	}
}

// WithGracePeriod tunes the short wait between signalling a stop and giving
// up on the worker. A non-positive duration skips the wait entirely.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Supervisor) {
		s.grace = d
	}
}

// WithRedeliverInterval tunes how often the stop signal is re-injected into a
// straggling worker.
func WithRedeliverInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.redeliver = d
	}
}

// New creates a Supervisor.
func New(opts ...Option) *Supervisor {
	s := &Supervisor{
		logger:    logging.NewNop(),
		grace:     DefaultGracePeriod,
		redeliver: DefaultRedeliverInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = observability.NewRegistry()
	}
	return s
}

// Registry exposes the supervisor's worker registry, e.g. to mount it on the
// debug HTTP surface.
func (s *Supervisor) Registry() *observability.Registry {
	return s.registry
}

// Run executes fn with the given arguments, waiting at most timeout for it to
// finish. On natural completion it returns fn's value, or fn's own error
// unchanged. On expiry it returns a *TimedOutError and stops waiting; the
// worker goroutine is signalled to stop and then abandoned if it does not
// comply (see the package documentation).
//
// A non-positive timeout runs fn unbounded on the calling goroutine.
func (s *Supervisor) Run(timeout time.Duration, fn Func, args []any, kwargs map[string]any) (any, error) {
	return s.runCall(NewCall(fn, args, kwargs), timeout)
}

func (s *Supervisor) runCall(call Call, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return call.Fn(context.Background(), call.Args, call.Kwargs)
	}

	stopped := &atomic.Bool{}
	worker := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		return call.Fn(ctx, call.Args, call.Kwargs)
	}, stopped)

	op := call.Name()
	id := s.registry.Begin(op, timeout)
	started := time.Now()

	worker.Start()
	worker.Join(timeout)

	if worker.Alive() {
		// Deadline expired. Mark the call stopped before injecting the
		// signal, so an error racing out of the callable cannot be captured
		// as the real outcome.
		stopped.Store(true)
		worker.RequestStop(ErrForcedStop)
		if s.grace > 0 {
			// Best-effort only: a zero grace period means no extra wait at
			// all, never an unbounded join on a worker that may ignore the
			// stop signal.
			worker.Join(s.grace)
		}

		leaked := worker.Alive()
		s.registry.TimedOut(id, leaked)
		// Off the expiry path: a slow sink must not hold the invoker past
		// timeout + grace.
		go s.recordTimeout(op, timeout, time.Since(started), leaked)
		s.logger.Warn("bounded call timed out",
			"op", op, "timeout", timeout, "leaked", leaked)

		if leaked {
			go s.keepSignalling(worker, id, op)
		}

		return nil, &TimedOutError{
			TimedOutAfter: timeout,
			Call:          call,
			rerun:         s.runCall,
		}
	}

	value, err := worker.Outcome()
	s.registry.Finish(id, err != nil)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// keepSignalling re-injects the stop signal into an abandoned worker until it
// finally exits. It runs detached: the invoker already has its timeout error,
// and a worker that never honors the signal keeps this goroutine (and its
// own) alive indefinitely. That is the documented cost of a callable that
// swallows every stop delivery.
func (s *Supervisor) keepSignalling(worker *runtime.Worker, id uint64, op string) {
	ticker := time.NewTicker(s.redeliver)
	defer ticker.Stop()
	for range ticker.C {
		if !worker.Alive() {
			s.registry.Reaped(id)
			s.logger.Info("leaked worker exited", "op", op)
			return
		}
		worker.RequestStop(ErrForcedStop)
	}
}

func (s *Supervisor) recordTimeout(op string, timeout, elapsed time.Duration, leaked bool) {
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev := ports.TimeoutEvent{
		Op:      op,
		Timeout: timeout,
		Elapsed: elapsed,
		At:      time.Now().UTC(),
		Leaked:  leaked,
	}
	if err := s.sink.Record(ctx, ev); err != nil {
		s.logger.Error("failed to record timeout event", "op", op, "err", err)
	}
}

var defaultSupervisor = New()

// Run executes fn on the package-level default Supervisor. See
// Supervisor.Run.
func Run(timeout time.Duration, fn Func, args []any, kwargs map[string]any) (any, error) {
	return defaultSupervisor.Run(timeout, fn, args, kwargs)
}
