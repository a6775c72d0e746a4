package leash

import (
	"context"
	"fmt"
	"reflect"
	goruntime "runtime"
	"strings"

	"github.com/aretw0/leash/internal/runtime"
	"github.com/mitchellh/mapstructure"
)

// Func is the unit of work this package bounds. The context is the worker's
// interruption context: it is cancelled (with ErrForcedStop as the cause) when
// the deadline expires, and cooperative callables should return promptly once
// it is done. args and kwargs are the positional and named arguments the call
// was constructed with.
type Func func(ctx context.Context, args []any, kwargs map[string]any) (any, error)

// Call is one invocation request: a target function plus its arguments.
// Immutable once constructed; a TimedOutError carries the Call so the invoker
// can retry it later without reassembling anything.
type Call struct {
	Fn     Func
	Args   []any
	Kwargs map[string]any
}

// NewCall copies args and kwargs so later mutation by the caller cannot leak
// into an in-flight (or retried) invocation.
func NewCall(fn Func, args []any, kwargs map[string]any) Call {
	c := Call{Fn: fn}
	if len(args) > 0 {
		c.Args = append([]any(nil), args...)
	}
	if len(kwargs) > 0 {
		c.Kwargs = make(map[string]any, len(kwargs))
		for k, v := range kwargs {
			c.Kwargs[k] = v
		}
	}
	return c
}

// Name derives a human-readable identifier for the target function, used in
// diagnostics (timeout messages, the worker registry, event records).
func (c Call) Name() string {
	if c.Fn == nil {
		return "<nil>"
	}
	pc := reflect.ValueOf(c.Fn).Pointer()
	f := goruntime.FuncForPC(pc)
	if f == nil {
		return "<unknown>"
	}
	name := f.Name()
	// Trim the package path down to the last element for readability.
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// DecodeKwargs decodes a named-argument map onto a typed struct. Sugar for
// callables that prefer a typed view over map lookups.
func DecodeKwargs(kwargs map[string]any, target any) error {
	if err := mapstructure.Decode(kwargs, target); err != nil {
		return fmt.Errorf("failed to decode kwargs: %w", err)
	}
	return nil
}

// Interrupts returns the repeated-delivery interrupt channel carried by a
// worker context, or nil if ctx does not belong to a bounded call. Most
// callables only need ctx.Done(); this exists for code that wants to observe
// (or deliberately swallow) individual stop deliveries.
func Interrupts(ctx context.Context) <-chan error {
	return runtime.Interrupts(ctx)
}
