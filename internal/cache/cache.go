package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/patrickmn/go-cache"

	"github.com/brlegal/captura-partes/internal/capture"
)

// PartyCache stores fetched party lists per external case id so a
// re-triggered job does not re-scrape an unchanged case
type PartyCache struct {
	cache   *cache.Cache
	mu      sync.RWMutex
	stats   Stats
	maxSize int
}

type Stats struct {
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Size       int       `json:"size"`
	LastAccess time.Time `json:"last_access"`
}

func NewPartyCache(maxSize int, ttl time.Duration) *PartyCache {
	return &PartyCache{
		cache:   cache.New(ttl, ttl*2),
		maxSize: maxSize,
		stats:   Stats{},
	}
}

func (c *PartyCache) Get(externalCaseID int64) ([]capture.PartyRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.LastAccess = time.Now()

	if data, found := c.cache.Get(cacheKey(externalCaseID)); found {
		c.stats.Hits++
		if parties, ok := data.([]capture.PartyRecord); ok {
			return parties, true
		}
	}

	c.stats.Misses++
	return nil, false
}

func (c *PartyCache) Set(externalCaseID int64, parties []capture.PartyRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache.ItemCount() >= c.maxSize {
		c.removeOldest()
	}

	c.cache.Set(cacheKey(externalCaseID), parties, cache.DefaultExpiration)
}

func (c *PartyCache) Delete(externalCaseID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(cacheKey(externalCaseID))
}

func (c *PartyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Flush()
	c.stats = Stats{}
}

func (c *PartyCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	c.stats.Size = c.cache.ItemCount()
	return c.stats
}

func (c *PartyCache) removeOldest() {
	items := c.cache.Items()
	if len(items) == 0 {
		return
	}

	var oldestKey string
	var oldestTime time.Time

	for key, item := range items {
		if oldestTime.IsZero() || item.Expiration < oldestTime.Unix() {
			oldestKey = key
			oldestTime = time.Unix(item.Expiration, 0)
		}
	}

	if oldestKey != "" {
		c.cache.Delete(oldestKey)
	}
}

func cacheKey(externalCaseID int64) string {
	return fmt.Sprintf("parties:%d", externalCaseID)
}

// CachingFetcher decorates a party fetcher with the cache
type CachingFetcher struct {
	inner capture.PartyFetcher
	cache *PartyCache
}

func NewCachingFetcher(inner capture.PartyFetcher, cache *PartyCache) *CachingFetcher {
	return &CachingFetcher{inner: inner, cache: cache}
}

func (f *CachingFetcher) FetchParties(ctx context.Context, page *rod.Page, externalCaseID int64) ([]capture.PartyRecord, error) {
	if parties, found := f.cache.Get(externalCaseID); found {
		return parties, nil
	}

	parties, err := f.inner.FetchParties(ctx, page, externalCaseID)
	if err != nil {
		return nil, err
	}

	f.cache.Set(externalCaseID, parties)
	return parties, nil
}
