package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/raluca-web/ai-bot/internal/logger"
)

const (
	lockTTL           = 2 * time.Minute
	lockRetryInterval = 100 * time.Millisecond
)

// DocumentLocker serializes writes per document id so a delete cannot
// interleave with an in-flight chunk insert for the same document.
type DocumentLocker interface {
	WithLock(ctx context.Context, documentID string, fn func() error) error
}

// RedisLocker implements a per-document advisory lock with SET NX and a TTL
// so a crashed holder cannot wedge the document forever.
type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) WithLock(ctx context.Context, documentID string, fn func() error) error {
	key := "lock:document:" + documentID

	for {
		ok, err := l.rdb.SetNX(ctx, key, "1", lockTTL).Result()
		if err != nil {
			// Fail open: a Redis outage should not block ingestion, it only
			// costs the delete/insert serialization.
			logger.Warn("Document lock unavailable, proceeding without it", "document_id", documentID, "error", err)
			return fn()
		}
		if ok {
			break
		}

		select {
		case <-time.After(lockRetryInterval):
		case <-ctx.Done():
			return fmt.Errorf("waiting for document lock: %v", ctx.Err())
		}
	}

	defer func() {
		if err := l.rdb.Del(context.Background(), key).Err(); err != nil {
			logger.Warn("Failed to release document lock", "document_id", documentID, "error", err)
		}
	}()

	return fn()
}

// NoopLocker is used in tests and single-process deployments without Redis.
type NoopLocker struct{}

func (NoopLocker) WithLock(ctx context.Context, documentID string, fn func() error) error {
	return fn()
}
