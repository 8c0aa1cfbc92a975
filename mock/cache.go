package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var _ harvest.Cache = (*Cache)(nil)

// Cache is a mock implementation of harvest.Cache.
type Cache struct {
	GetFn        func(ctx context.Context, key string) ([]byte, bool, error)
	PutFn        func(ctx context.Context, key string, value []byte) error
	RemoveFn     func(ctx context.Context, key string) error
	RemoveLastFn func(ctx context.Context) error
	ClearFn      func(ctx context.Context) error
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.GetFn(ctx, key)
}

func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	return c.PutFn(ctx, key, value)
}

func (c *Cache) Remove(ctx context.Context, key string) error {
	return c.RemoveFn(ctx, key)
}

func (c *Cache) RemoveLast(ctx context.Context) error {
	return c.RemoveLastFn(ctx)
}

func (c *Cache) Clear(ctx context.Context) error {
	return c.ClearFn(ctx)
}
