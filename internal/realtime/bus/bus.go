package bus

import (
	"context"
	"time"
)

// Message is one stream entry.
type Message struct {
	ID     string
	Values map[string]any
}

// Stream is an append-only event log with consumer groups.
type Stream interface {
	Publish(ctx context.Context, stream string, values map[string]any) (string, error)
	// EnsureGroup creates the consumer group, and the stream if needed. An
	// existing group is not an error.
	EnsureGroup(ctx context.Context, stream, group string) error
	// Read returns up to count new entries for consumer, waiting at most block.
	// It returns no messages and no error when the wait times out.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)
	// Claim takes over up to count entries that were delivered to any consumer
	// of group and stayed unacked for at least minIdle, and returns them for
	// consumer to process again.
	Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error)
	Ack(ctx context.Context, stream, group string, ids ...string) error
	Close() error
}
