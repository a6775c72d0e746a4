package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/leash/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Sink implements ports.EventSink on Redis, so timeout diagnostics survive
// process restarts and can be aggregated across instances. Events live in a
// capped list: LPUSH newest-first, LTRIM to the cap.
type Sink struct {
	client *backend.Client
	key    string
	cap    int64
}

// Option configures a Sink.
type Option func(*Sink)

// WithKey sets the Redis list key.
func WithKey(key string) Option {
	return func(s *Sink) {
		s.key = key
	}
}

// WithCapacity sets how many events are retained.
func WithCapacity(n int64) Option {
	return func(s *Sink) {
		if n > 0 {
			s.cap = n
		}
	}
}

// New creates a Redis sink with its own client.
func New(address, password string, db int, opts ...Option) *Sink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Sink {
	s := &Sink{
		client: client,
		key:    "leash:timeouts",
		cap:    512,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record pushes the event and trims the list to capacity in one pipeline.
func (s *Sink) Record(ctx context.Context, ev ports.TimeoutEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal timeout event: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, s.cap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record to redis: %w", err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (s *Sink) Recent(ctx context.Context, n int) ([]ports.TimeoutEvent, error) {
	if n <= 0 {
		n = int(s.cap)
	}
	raw, err := s.client.LRange(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	events := make([]ports.TimeoutEvent, 0, len(raw))
	for _, item := range raw {
		var ev ports.TimeoutEvent
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal timeout event: %w", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// Close closes the redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
