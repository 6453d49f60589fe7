package sqlite

import (
	"context"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/ports"
	"github.com/ewilliams-labs/moodmusic/internal/logger"
)

// CacheObserver is told about cache hits and misses.
type CacheObserver interface {
	CacheLookup(hit bool)
}

// CachedSearcher serves repeated queries from the cache and falls through to
// the wrapped searcher otherwise. Cache failures are logged, never returned.
type CachedSearcher struct {
	next     ports.MusicSearcher
	cache    ports.SearchCache
	observer CacheObserver
	log      *logger.Logger
}

var _ ports.MusicSearcher = (*CachedSearcher)(nil)

// NewCachedSearcher wraps next with cache. observer may be nil.
func NewCachedSearcher(next ports.MusicSearcher, cache ports.SearchCache, observer CacheObserver) *CachedSearcher {
	return &CachedSearcher{next: next, cache: cache, observer: observer, log: logger.New("search cache")}
}

func (c *CachedSearcher) SearchVideos(ctx context.Context, query string) ([]domain.Video, error) {
	videos, ok, err := c.cache.Get(ctx, query)
	if err != nil {
		c.log.Warnf("lookup %q: %v", query, err)
	}
	if c.observer != nil {
		c.observer.CacheLookup(ok)
	}
	if ok {
		c.log.Debugf("hit for %q (%d videos)", query, len(videos))
		return videos, nil
	}

	videos, err = c.next.SearchVideos(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, query, videos); err != nil {
		c.log.Warnf("store %q: %v", query, err)
	}
	return videos, nil
}
