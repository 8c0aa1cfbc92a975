package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/harvest"
)

// Ensure LoggingCache implements harvest.Cache.
var _ harvest.Cache = (*LoggingCache)(nil)

// LoggingCache wraps a Cache with debug logging.
type LoggingCache struct {
	next   harvest.Cache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next harvest.Cache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

func (c *LoggingCache) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache get",
			"key", key,
			"hit", ok,
			"bytes", len(value),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Get(ctx, key)
}

func (c *LoggingCache) Put(ctx context.Context, key string, value []byte) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache put",
			"key", key,
			"bytes", len(value),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Put(ctx, key, value)
}

func (c *LoggingCache) Remove(ctx context.Context, key string) (err error) {
	defer func() {
		c.logger.Info("cache remove", "key", key, "err", err)
	}()
	return c.next.Remove(ctx, key)
}

func (c *LoggingCache) RemoveLast(ctx context.Context) (err error) {
	defer func() {
		c.logger.Info("cache remove last", "err", err)
	}()
	return c.next.RemoveLast(ctx)
}

func (c *LoggingCache) Clear(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache clear", "duration", time.Since(begin), "err", err)
	}(time.Now())
	return c.next.Clear(ctx)
}
