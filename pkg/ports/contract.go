package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunEventSinkContract runs a suite of tests verifying that an EventSink
// implementation adheres to the interface contract. Adapter packages call it
// from their own tests against a real (or in-memory) backend.
func RunEventSinkContract(t *testing.T, sink EventSink) {
	ctx := context.Background()

	mkEvent := func(op string) TimeoutEvent {
		return TimeoutEvent{
			Op:      op,
			Timeout: 50 * time.Millisecond,
			Elapsed: 150 * time.Millisecond,
			At:      time.Now().UTC().Truncate(time.Millisecond),
			Leaked:  true,
		}
	}

	t.Run("Record and Recent", func(t *testing.T) {
		ev := mkEvent("contract-op")
		require.NoError(t, sink.Record(ctx, ev), "Record should not return error")

		events, err := sink.Recent(ctx, 10)
		require.NoError(t, err, "Recent should not return error")
		require.NotEmpty(t, events)

		got := events[0]
		assert.Equal(t, ev.Op, got.Op)
		assert.Equal(t, ev.Timeout, got.Timeout)
		assert.Equal(t, ev.Leaked, got.Leaked)
	})

	t.Run("Newest First", func(t *testing.T) {
		require.NoError(t, sink.Record(ctx, mkEvent("older")))
		require.NoError(t, sink.Record(ctx, mkEvent("newer")))

		events, err := sink.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "newer", events[0].Op)
		assert.Equal(t, "older", events[1].Op)
	})

	t.Run("Recent Bounded", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, sink.Record(ctx, mkEvent("bounded")))
		}
		events, err := sink.Recent(ctx, 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(events), 3)
	})
}
