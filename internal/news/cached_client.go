package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// ResultCache is the part of the cache service the decorator uses.
type ResultCache interface {
	GetOrSet(ctx context.Context, key string, dest any, ttl time.Duration, fn func() (any, error)) error
}

var errUnavailable = errors.New("news provider unavailable")

// CachedClient serves repeated provider queries from the cache and collapses
// identical concurrent queries into one upstream call. Failed lookups are
// never cached.
type CachedClient struct {
	next   Client
	cache  ResultCache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCachedClient(next Client, cache ResultCache, ttl time.Duration, logger *slog.Logger) *CachedClient {
	return &CachedClient{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *CachedClient) Search(ctx context.Context, query string, page, limit int) (ResultSet, bool) {
	key := fmt.Sprintf("news:everything:%q:%d:%d", query, page, limit)
	return c.lookup(ctx, key, func(ctx context.Context) (ResultSet, bool) {
		return c.next.Search(ctx, query, page, limit)
	})
}

func (c *CachedClient) TopHeadlines(ctx context.Context, country Country, limit int) (ResultSet, bool) {
	key := fmt.Sprintf("news:top:%s:%d", country, limit)
	return c.lookup(ctx, key, func(ctx context.Context) (ResultSet, bool) {
		return c.next.TopHeadlines(ctx, country, limit)
	})
}

func (c *CachedClient) ByCountry(ctx context.Context, country Country) (ResultSet, bool) {
	key := fmt.Sprintf("news:country:%s", country)
	return c.lookup(ctx, key, func(ctx context.Context) (ResultSet, bool) {
		return c.next.ByCountry(ctx, country)
	})
}

func (c *CachedClient) BySource(ctx context.Context, sourceID string) (ResultSet, bool) {
	key := fmt.Sprintf("news:source:%s", NormalizeSourceID(sourceID))
	return c.lookup(ctx, key, func(ctx context.Context) (ResultSet, bool) {
		return c.next.BySource(ctx, sourceID)
	})
}

func (c *CachedClient) lookup(ctx context.Context, key string, fetch func(context.Context) (ResultSet, bool)) (ResultSet, bool) {
	// The shared fetch outlives any single caller; the HTTP client timeout
	// still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		var result ResultSet
		err := c.cache.GetOrSet(fetchCtx, key, &result, c.ttl, func() (any, error) {
			fresh, ok := fetch(fetchCtx)
			if !ok {
				return nil, errUnavailable
			}
			return fresh, nil
		})
		return result, err
	})

	select {
	case <-ctx.Done():
		c.logger.Warn("News query abandoned by caller", slog.String("key", key), slog.String("error", ctx.Err().Error()))
		return ResultSet{}, false
	case res := <-ch:
		if res.Err != nil {
			if !errors.Is(res.Err, errUnavailable) {
				c.logger.Error("News cache lookup failed", slog.String("key", key), slog.String("error", res.Err.Error()))
			}
			return ResultSet{}, false
		}
		if res.Shared {
			c.logger.Debug("News query shared with concurrent caller", slog.String("key", key))
		}
		return res.Val.(ResultSet), true
	}
}
