package redis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/leash/internal/adapters/redis"
	"github.com/aretw0/leash/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSink(t *testing.T, opts ...redis.Option) *redis.Sink {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...)
}

func TestRedisSink_Contract(t *testing.T) {
	ports.RunEventSinkContract(t, newTestSink(t))
}

func TestRedisSink_TrimsToCapacity(t *testing.T) {
	sink := newTestSink(t, redis.WithCapacity(2))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, sink.Record(ctx, ports.TimeoutEvent{
			Op: fmt.Sprintf("op-%d", i),
		}))
	}

	events, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "op-3", events[0].Op)
	require.Equal(t, "op-2", events[1].Op)
}
