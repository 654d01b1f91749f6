// Package logsink builds the process logger over one of several writers
// selected at startup: stdout, a size-rotated file, or a capped redis list.
package logsink

import (
	"fmt"
	"io"
	"okxbalance/types"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	SinkStdout = "stdout"
	SinkFile   = "file"
	SinkRedis  = "redis"
)

// NewLogger returns a timestamped zerolog logger writing to w. Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Open returns the writer for the configured sink. Closing it releases the
// file handle or redis connection.
func Open(cfg types.LogConfig) (io.WriteCloser, error) {
	switch strings.ToLower(cfg.Sink) {
	case "", SinkStdout:
		return nopCloser{os.Stdout}, nil
	case SinkFile:
		return NewRotatingFile(cfg), nil
	case SinkRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		return NewRedisWriter(rdb, cfg.RedisKey, cfg.RedisMaxLen), nil
	default:
		return nil, fmt.Errorf("unknown log sink %q", cfg.Sink)
	}
}

// NewRotatingFile rolls the file once it reaches MaxSizeMB and keeps MaxBackups old copies.
func NewRotatingFile(cfg types.LogConfig) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
