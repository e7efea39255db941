package usgs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okh2o/stream-dashboard/internal/domain"
	"github.com/okh2o/stream-dashboard/internal/observability"
)

// CachedFetcher wraps a SeriesFetcher with an in-memory LRU cache. Lookback
// requests are keyed by the current date so they expire at midnight.
type CachedFetcher struct {
	inner   domain.SeriesFetcher
	cache   *lruCache
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.SeriesFetcher, maxEntries int, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedFetcher) FetchDailyFlow(ctx context.Context, req domain.SeriesRequest) (domain.FlowSeries, error) {
	key := c.key(req)
	if series, ok := c.cache.get(key); ok {
		c.metrics.SeriesCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.SeriesCache.WithLabelValues("miss").Inc()

	series, err := c.inner.FetchDailyFlow(ctx, req)
	if err != nil {
		return series, err
	}
	c.cache.put(key, series)
	return series, nil
}

func (c *CachedFetcher) key(req domain.SeriesRequest) string {
	if req.Lookback != "" {
		return fmt.Sprintf("%s|%s|%s", req.Site, req.Lookback, c.clock.Now().UTC().Format(time.DateOnly))
	}
	return fmt.Sprintf("%s|%s|%s", req.Site, req.Start.Format(time.DateOnly), req.End.Format(time.DateOnly))
}

// lruCache is a thread-safe LRU cache of flow series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.FlowSeries
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

// get returns a copy of the cached series so callers cannot mutate the entry.
func (c *lruCache) get(key string) (domain.FlowSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.FlowSeries{}, false
	}
	c.moveToFront(e)
	return cloneSeries(e.value), true
}

func (c *lruCache) put(key string, value domain.FlowSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = cloneSeries(value)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries && c.tail != nil {
		delete(c.entries, c.tail.key)
		c.unlink(c.tail)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func cloneSeries(s domain.FlowSeries) domain.FlowSeries {
	points := make([]domain.FlowPoint, len(s.Points))
	copy(points, s.Points)
	return domain.FlowSeries{Site: s.Site, Points: points}
}
