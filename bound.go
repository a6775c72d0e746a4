package leash

import (
	"fmt"
	"time"
)

// OverrideKwarg is the named argument that overrides a Bound's configured
// timeout for a single invocation, when override is enabled. It is popped
// from kwargs before the callable runs.
const OverrideKwarg = "forceTimeout"

// Bound is a callable pre-configured with a timeout policy: a fixed duration,
// a per-call computed duration, and optionally a call-time override. It is
// the decorator layer over Supervisor.Run; it adds parameter plumbing, no new
// concurrency semantics.
type Bound struct {
	fn            Func
	supervisor    *Supervisor
	timeout       time.Duration
	timeoutFn     func(args []any, kwargs map[string]any) time.Duration
	allowOverride bool
}

// BoundOption defines a functional option for configuring a Bound.
type BoundOption func(*Bound)

// WithTimeout sets the fixed timeout used when no compute function and no
// override apply.
func WithTimeout(d time.Duration) BoundOption {
	return func(b *Bound) {
		b.timeout = d
	}
}

// WithTimeoutFunc computes the timeout fresh for every call from the call's
// own arguments, e.g. scaling the budget with input size.
func WithTimeoutFunc(fn func(args []any, kwargs map[string]any) time.Duration) BoundOption {
	return func(b *Bound) {
		b.timeoutFn = fn
	}
}

// WithOverride lets a single invocation override the configured timeout by
// passing the OverrideKwarg named argument.
func WithOverride() BoundOption {
	return func(b *Bound) {
		b.allowOverride = true
	}
}

// WithSupervisor routes the bound calls through a specific Supervisor instead
// of the package default.
func WithSupervisor(s *Supervisor) BoundOption {
	return func(b *Bound) {
		b.supervisor = s
	}
}

// Wrap binds fn to a timeout policy.
func Wrap(fn Func, opts ...BoundOption) *Bound {
	b := &Bound{
		fn:         fn,
		supervisor: defaultSupervisor,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Call invokes the wrapped callable with the effective timeout for this
// invocation: the override named argument when enabled and present, else the
// computed duration, else the fixed one.
func (b *Bound) Call(args []any, kwargs map[string]any) (any, error) {
	timeout := b.timeout
	if b.timeoutFn != nil {
		timeout = b.timeoutFn(args, kwargs)
	}

	if b.allowOverride {
		if raw, ok := kwargs[OverrideKwarg]; ok {
			forced, err := coerceTimeout(raw)
			if err != nil {
				return nil, err
			}
			timeout = forced
			// Pop the override so the callable never sees it.
			trimmed := make(map[string]any, len(kwargs)-1)
			for k, v := range kwargs {
				if k != OverrideKwarg {
					trimmed[k] = v
				}
			}
			kwargs = trimmed
		}
	}

	return b.supervisor.Run(timeout, b.fn, args, kwargs)
}

// coerceTimeout accepts the handful of shapes an override is likely to arrive
// in: a duration, a parseable duration string, or a number of seconds.
func coerceTimeout(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case string:
		d, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", OverrideKwarg, t, err)
		}
		return d, nil
	case int:
		return time.Duration(t) * time.Second, nil
	case int64:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("invalid %s type %T: want duration, string or seconds", OverrideKwarg, v)
	}
}
