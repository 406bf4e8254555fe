package bus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/scriptgraph/internal/platform/logger"
)

type redisStream struct {
	log *logger.Logger
	rdb goredis.UniversalClient
}

func NewRedisStream(ctx context.Context, log *logger.Logger, addr string) (Stream, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStreamFromClient(log, rdb), nil
}

// NewRedisStreamFromClient wraps an existing client. The stream takes ownership
// and closes it.
func NewRedisStreamFromClient(log *logger.Logger, rdb goredis.UniversalClient) Stream {
	return &redisStream{log: log.With("service", "RedisStream"), rdb: rdb}
}

func (s *redisStream) Publish(ctx context.Context, stream string, values map[string]any) (string, error) {
	if s == nil || s.rdb == nil {
		return "", fmt.Errorf("redis stream not initialized")
	}
	id, err := s.rdb.XAdd(ctx, &goredis.XAddArgs{Stream: stream, Values: values}).Result()
	if err != nil {
		return "", fmt.Errorf("redis xadd %s: %w", stream, err)
	}
	return id, nil
}

func (s *redisStream) EnsureGroup(ctx context.Context, stream, group string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis stream not initialized")
	}
	err := s.rdb.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("redis xgroup create %s/%s: %w", stream, group, err)
	}
	return nil
}

func (s *redisStream) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis stream not initialized")
	}
	res, err := s.rdb.XReadGroup(ctx, &goredis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis xreadgroup %s/%s: %w", stream, group, err)
	}
	var out []Message
	for _, xs := range res {
		for _, m := range xs.Messages {
			out = append(out, Message{ID: m.ID, Values: m.Values})
		}
	}
	return out, nil
}

func (s *redisStream) Claim(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]Message, error) {
	if s == nil || s.rdb == nil {
		return nil, fmt.Errorf("redis stream not initialized")
	}
	var out []Message
	start := "0-0"
	for int64(len(out)) < count {
		msgs, next, err := s.rdb.XAutoClaim(ctx, &goredis.XAutoClaimArgs{
			Stream:   stream,
			Group:    group,
			Consumer: consumer,
			MinIdle:  minIdle,
			Start:    start,
			Count:    count - int64(len(out)),
		}).Result()
		if err != nil {
			return out, fmt.Errorf("redis xautoclaim %s/%s: %w", stream, group, err)
		}
		for _, m := range msgs {
			out = append(out, Message{ID: m.ID, Values: m.Values})
		}
		if next == "" || next == "0-0" {
			break
		}
		start = next
	}
	return out, nil
}

func (s *redisStream) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis stream not initialized")
	}
	if len(ids) == 0 {
		return nil
	}
	return s.rdb.XAck(ctx, stream, group, ids...).Err()
}

func (s *redisStream) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
