/*
Package leash bounds the execution time of an arbitrary unit of work.

It runs a callable on its own worker goroutine, waits up to a configured
duration for natural completion, and if the deadline elapses it signals the
worker to stop and returns a TimedOutError to the invoker without blocking the
invoker any further. The callable's own return value and errors pass through
unchanged when it finishes in time.

# Interruption model

Cancellation is cooperative at the victim. When the deadline expires the
worker's context is cancelled with ErrForcedStop as the cause, and the same
payload is delivered on an interrupt channel (see Interrupts). Because a
callable may catch and discard a delivery, the signal is re-injected on an
interval for as long as the worker stays alive. The invoker is only ever
blocked for the timeout plus a short grace period.

# The abandonment hazard

Nothing forces the worker goroutine to die. A callable that never checks its
context, or that deliberately swallows every stop delivery, keeps running
after Run has already returned a TimedOutError. This is a documented hazard,
not a bug: making forced interruption synchronous would risk blocking the
invoker forever. Abandoned workers stay visible in the observability registry
until they exit. Be careful of callables shaped like:

	for {
		select {
		case <-leash.Interrupts(ctx):
			continue // swallows every stop delivery; runs forever
		default:
			doSomething()
		}
	}

# Usage

Bound a single call:

	value, err := leash.Run(2*time.Second, fetch, []any{"https://example.com"}, nil)
	var timedOut *leash.TimedOutError
	if errors.As(err, &timedOut) {
		// decide policy: give up, or retry with a bigger budget
		value, err = timedOut.Retry(10 * time.Second)
	}

Or pre-configure a callable with a timeout policy:

	bounded := leash.Wrap(process,
		leash.WithTimeout(5*time.Second),
		leash.WithOverride(),
	)
	// this one call gets a tighter budget
	_, err := bounded.Call(nil, map[string]any{"forceTimeout": time.Second})
*/
package leash
