package runtime_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/leash/internal/runtime"
)

func TestWorker_CapturesValue(t *testing.T) {
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		return 7, nil
	}, nil)

	w.Start()
	w.Join(time.Second)

	if w.Alive() {
		t.Fatal("worker should have finished")
	}
	value, err := w.Outcome()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 7 {
		t.Errorf("expected 7, got %v", value)
	}
}

func TestWorker_CapturesErrorIdentity(t *testing.T) {
	boom := errors.New("boom")
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		return nil, boom
	}, nil)

	w.Start()
	w.Join(time.Second)

	_, err := w.Outcome()
	if !errors.Is(err, boom) {
		t.Errorf("expected the callable's own error, got %v", err)
	}
}

func TestWorker_OutcomeWrittenBeforeLivenessFlips(t *testing.T) {
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		time.Sleep(20 * time.Millisecond)
		return "late", nil
	}, nil)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for w.Alive() {
		if time.Now().After(deadline) {
			t.Fatal("worker never finished")
		}
		time.Sleep(time.Millisecond)
	}

	// The moment Alive reports false, the outcome must already be there.
	value, err := w.Outcome()
	if err != nil || value != "late" {
		t.Errorf("outcome not visible after liveness flip: value=%v err=%v", value, err)
	}
}

func TestWorker_SuppressesForcedStopPayload(t *testing.T) {
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, context.Cause(ctx)
	}, nil)

	w.Start()
	w.RequestStop(runtime.ErrForcedStop)
	w.Join(time.Second)

	if w.Alive() {
		t.Fatal("worker should have unwound")
	}
	value, err := w.Outcome()
	if err != nil {
		t.Errorf("injected stop payload must not become the outcome, got %v", err)
	}
	if value != nil {
		t.Errorf("expected empty outcome, got %v", value)
	}
}

func TestWorker_SuppressesErrorsOnceStopped(t *testing.T) {
	stopped := &atomic.Bool{}
	release := make(chan struct{})
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, errors.New("secondary failure racing the stop")
	}, stopped)

	w.Start()
	stopped.Store(true)
	close(release)
	w.Join(time.Second)

	_, err := w.Outcome()
	if err != nil {
		t.Errorf("errors after the stopped flag is set must be suppressed, got %v", err)
	}
}

func TestWorker_RequestStopAfterFinishIsNoop(t *testing.T) {
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		return "done", nil
	}, nil)
	w.Start()
	w.Join(time.Second)

	// Repeated stops on a dead worker must not panic or disturb the outcome.
	for i := 0; i < 3; i++ {
		w.RequestStop(runtime.ErrForcedStop)
	}
	value, err := w.Outcome()
	if err != nil || value != "done" {
		t.Errorf("outcome disturbed by post-mortem stops: value=%v err=%v", value, err)
	}
}

func TestWorker_InterruptRedelivery(t *testing.T) {
	firstSeen := make(chan struct{})
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		interrupts := runtime.Interrupts(ctx)
		<-interrupts // swallow the first delivery
		close(firstSeen)
		<-interrupts // a redelivered signal must arrive
		return "saw both", nil
	}, nil)
	w.Start()

	w.RequestStop(runtime.ErrForcedStop)
	select {
	case <-firstSeen:
	case <-time.After(2 * time.Second):
		t.Fatal("first delivery never observed")
	}
	w.RequestStop(runtime.ErrForcedStop)
	w.Join(2 * time.Second)

	if w.Alive() {
		t.Fatal("worker should have seen the redelivered signal")
	}
	value, _ := w.Outcome()
	if value != "saw both" {
		t.Errorf("unexpected value: %v", value)
	}
}

func TestWorker_JoinExpiresWhileAlive(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		<-release
		return nil, nil
	}, nil)
	w.Start()

	start := time.Now()
	w.Join(30 * time.Millisecond)
	elapsed := time.Since(start)

	if !w.Alive() {
		t.Fatal("worker should still be running")
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("bounded join blocked too long: %v", elapsed)
	}
}

func TestWorker_RecoversPanic(t *testing.T) {
	w := runtime.NewWorker(context.Background(), func(ctx context.Context) (any, error) {
		panic("kaboom")
	}, nil)
	w.Start()
	w.Join(time.Second)

	_, err := w.Outcome()
	var panicked *runtime.PanicError
	if !errors.As(err, &panicked) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if panicked.Value != "kaboom" {
		t.Errorf("unexpected panic value: %v", panicked.Value)
	}
	if len(panicked.Stack) == 0 {
		t.Error("expected a captured stack")
	}
}
