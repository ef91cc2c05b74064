// Package events appends activity entries to a Redis stream so other
// processes can follow timeline changes.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rpggio/chronos/internal/domain/activity"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "chronos:activity"

// NewClient creates a Redis client and checks connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// StreamPublisher implements activity.Publisher with XADD.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewStreamPublisher creates a publisher writing to stream. A positive
// maxLen caps the stream length.
func NewStreamPublisher(client *redis.Client, stream string, maxLen int64) *StreamPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

// Publish appends entry to the stream.
func (p *StreamPublisher) Publish(ctx context.Context, entry activity.ActivityEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode activity entry: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      string(entry.ActivityType),
			"record_id": entry.RecordID,
			"data":      string(data),
			"timestamp": entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish activity entry: %w", err)
	}
	return nil
}
