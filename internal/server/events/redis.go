package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/tripflow/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// StreamAdder is the subset of *redis.Client used by RedisSink.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisSink appends events to a Redis stream.
type RedisSink struct {
	client StreamAdder
	stream string
	maxLen int64
}

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// NewRedisSink returns a sink writing to stream. A positive maxLen caps the
// stream approximately at that many entries.
func NewRedisSink(client StreamAdder, stream string, maxLen int64) *RedisSink {
	return &RedisSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Write(ctx context.Context, e models.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":       e.Type,
			"flow_token": e.FlowToken,
			"payload":    string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
