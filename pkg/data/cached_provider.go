package data

import (
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ducminhle1904/sizing-lab/pkg/types"
)

// MemoryCache implements PriceCache using in-memory storage
type MemoryCache struct {
	cache map[string][]types.PriceBar
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string][]types.PriceBar),
	}
}

// Get retrieves bars from cache if available
func (c *MemoryCache) Get(key string) ([]types.PriceBar, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	bars, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	// callers may filter in place
	result := make([]types.PriceBar, len(bars))
	copy(result, bars)
	return result, true
}

// Set stores bars in cache
func (c *MemoryCache) Set(key string, bars []types.PriceBar) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.PriceBar, len(bars))
	copy(cached, bars)
	c.cache[key] = cached
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string][]types.PriceBar)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedProvider wraps another PriceProvider so parameter sweeps read each
// history file once
type CachedProvider struct {
	provider PriceProvider
	cache    PriceCache
}

// NewCachedProvider creates a new cached price provider
func NewCachedProvider(provider PriceProvider) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    NewMemoryCache(),
	}
}

// NewCachedProviderWithCache creates a cached provider with a custom cache
func NewCachedProviderWithCache(provider PriceProvider, cache PriceCache) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
	}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadPrices loads bars, serving repeated paths from the cache
func (p *CachedProvider) LoadPrices(source string) ([]types.PriceBar, error) {
	if bars, ok := p.cache.Get(source); ok {
		return bars, nil
	}

	logrus.Debugf("🔄 Loading price history from %s", filepath.Base(source))
	bars, err := p.provider.LoadPrices(source)
	if err != nil {
		logrus.Warnf("❌ Failed to load prices from %s: %v", filepath.Base(source), err)
		return nil, err
	}

	p.cache.Set(source, bars)
	logrus.Infof("✅ Loaded and cached %s (%d rows)", filepath.Base(source), len(bars))
	return bars, nil
}

// ValidateData validates bars using the underlying provider
func (p *CachedProvider) ValidateData(bars []types.PriceBar) error {
	return p.provider.ValidateData(bars)
}

// ClearCache clears all cached data
func (p *CachedProvider) ClearCache() {
	p.cache.Clear()
}

// GetCacheSize returns the number of cached entries
func (p *CachedProvider) GetCacheSize() int {
	return p.cache.Size()
}
