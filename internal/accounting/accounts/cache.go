package accounts

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-coa/internal/platform/cache"
)

// ListCache serves the chart tree from Redis. Redis failures degrade to
// direct loads so the cache never blocks a read.
type ListCache struct {
	store  *cache.Versioned
	logger *slog.Logger
}

// NewListCache wraps a versioned cache. A nil store disables caching.
func NewListCache(store *cache.Versioned, logger *slog.Logger) *ListCache {
	return &ListCache{store: store, logger: logger}
}

func (c *ListCache) tree(ctx context.Context, load func(context.Context) ([]Node, error)) ([]Node, error) {
	if c == nil || c.store == nil {
		return load(ctx)
	}
	key, err := c.store.BuildKey(ctx, "accounts", "tree")
	if err != nil {
		c.warn("coa cache key", err)
		return load(ctx)
	}
	var loadErr error
	var out []Node
	err = c.store.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		nodes, err := load(ctx)
		if err != nil {
			loadErr = err
			return nil, err
		}
		return nodes, nil
	})
	if loadErr != nil {
		return nil, loadErr
	}
	if err != nil {
		c.warn("coa cache fetch", err)
		return load(ctx)
	}
	return out, nil
}

func (c *ListCache) invalidate(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Bump(ctx); err != nil {
		c.warn("coa cache bump", err)
	}
}

func (c *ListCache) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.Any("error", err))
	}
}
