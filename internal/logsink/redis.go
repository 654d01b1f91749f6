package logsink

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisWriteTimeout = 2 * time.Second

// RedisWriter appends every log line to a redis list trimmed to the newest maxLen entries.
type RedisWriter struct {
	rdb    *redis.Client
	key    string
	maxLen int64
}

func NewRedisWriter(rdb *redis.Client, key string, maxLen int64) *RedisWriter {
	return &RedisWriter{rdb: rdb, key: key, maxLen: maxLen}
}

func (w *RedisWriter) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisWriteTimeout)
	defer cancel()

	line := string(bytes.TrimRight(p, "\n"))

	pipe := w.rdb.TxPipeline()
	pipe.RPush(ctx, w.key, line)
	if w.maxLen > 0 {
		pipe.LTrim(ctx, w.key, -w.maxLen, -1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis log write: %w", err)
	}

	return len(p), nil
}

func (w *RedisWriter) Close() error {
	return w.rdb.Close()
}
