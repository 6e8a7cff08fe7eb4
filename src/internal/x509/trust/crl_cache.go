// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package trust

import (
	"sync"
	"sync/atomic"
	"time"
)

// crlCacheEntry represents a cached CRL with metadata
type crlCacheEntry struct {
	data       []byte    // Raw DER-encoded CRL
	fetchedAt  time.Time // When this CRL was fetched
	nextUpdate time.Time // When this CRL expires (from the CRL's NextUpdate)
	url        string    // Source URL for debugging
}

// isFresh checks if the cached CRL is still fresh
func (entry *crlCacheEntry) isFresh() bool {
	now := time.Now()
	// A CRL is fresh if NextUpdate is in the future and we fetched it recently
	return entry.nextUpdate.After(now) && entry.fetchedAt.After(now.Add(-24*time.Hour))
}

// isExpired checks if the CRL has expired and should be cleaned up
func (entry *crlCacheEntry) isExpired() bool {
	// Allow a 1 hour grace period past NextUpdate
	return entry.nextUpdate.Before(time.Now().Add(-1 * time.Hour))
}

// CRLCacheConfig holds configuration for the CRL cache
type CRLCacheConfig struct {
	MaxSize         int           // Maximum number of CRLs to cache (0 = unlimited, but not recommended)
	CleanupInterval time.Duration // How often to run cleanup (default: 1 hour)
}

// CRLCacheMetrics tracks cache performance and usage
type CRLCacheMetrics struct {
	Size      int64 // Current number of cached CRLs
	Hits      int64 // Number of cache hits
	Misses    int64 // Number of cache misses
	Evictions int64 // Number of LRU evictions
	Cleanups  int64 // Number of expired CRL cleanups
}

var defaultCRLCacheConfig = CRLCacheConfig{
	MaxSize:         100,
	CleanupInterval: 1 * time.Hour,
}

// The CRL cache is shared by all validators in the process: revocation data
// is keyed by distribution-point URL, not by trust policy, so there is
// nothing validator-specific to isolate.
var (
	crlCache               = make(map[string]*crlCacheEntry)
	crlCacheMutex          sync.RWMutex
	crlCacheOrder          []string     // Maintains access order for LRU eviction
	crlCacheConfig         atomic.Value // Stores *CRLCacheConfig
	crlCacheMetrics        CRLCacheMetrics
	crlCacheCleanupRunning int32 // Atomic flag to ensure only one cleanup goroutine
)

func init() {
	crlCacheConfig.Store(&defaultCRLCacheConfig)
	startCRLCacheCleanup()
}

// SetCRLCacheConfig sets the CRL cache configuration.
// A nil config restores the defaults.
func SetCRLCacheConfig(config *CRLCacheConfig) {
	cfg := defaultCRLCacheConfig

	if config != nil {
		cfg = *config
	}

	if cfg.MaxSize < 0 {
		cfg.MaxSize = 0 // 0 means unlimited, but not recommended
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 1 * time.Hour
	}

	// Store a copy to prevent external mutation
	crlCacheConfig.Store(&cfg)

	pruneCRLCache(cfg.MaxSize)
}

func pruneCRLCache(maxSize int) {
	if maxSize <= 0 {
		return
	}

	crlCacheMutex.Lock()
	defer crlCacheMutex.Unlock()

	removed := int64(0)
	for len(crlCache) > maxSize && len(crlCacheOrder) > 0 {
		lruURL := crlCacheOrder[0]
		delete(crlCache, lruURL)
		crlCacheOrder = crlCacheOrder[1:]
		removed++
	}

	if removed > 0 {
		atomic.AddInt64(&crlCacheMetrics.Evictions, removed)
	}
}

// GetCRLCacheConfig returns the current CRL cache configuration.
func GetCRLCacheConfig() *CRLCacheConfig {
	config := crlCacheConfig.Load().(*CRLCacheConfig)
	// Return a copy to prevent external mutation
	cfg := *config
	return &cfg
}

// GetCRLCacheMetrics returns current cache metrics.
func GetCRLCacheMetrics() CRLCacheMetrics {
	crlCacheMutex.RLock()
	defer crlCacheMutex.RUnlock()

	metrics := crlCacheMetrics
	metrics.Size = int64(len(crlCache))
	return metrics
}

// startCRLCacheCleanup starts the background cleanup goroutine
func startCRLCacheCleanup() {
	if !atomic.CompareAndSwapInt32(&crlCacheCleanupRunning, 0, 1) {
		return
	}

	go func() {
		ticker := time.NewTicker(GetCRLCacheConfig().CleanupInterval)
		defer ticker.Stop()

		for range ticker.C {
			cleanupExpiredCRLs()
			// Update ticker interval in case config changed
			ticker.Reset(GetCRLCacheConfig().CleanupInterval)
		}
	}()
}

// cleanupExpiredCRLs removes CRLs that have expired beyond their NextUpdate time
func cleanupExpiredCRLs() {
	crlCacheMutex.Lock()
	defer crlCacheMutex.Unlock()

	var expiredURLs []string
	for url, entry := range crlCache {
		if entry.isExpired() {
			expiredURLs = append(expiredURLs, url)
		}
	}

	for _, url := range expiredURLs {
		delete(crlCache, url)
		removeFromCacheOrder(url)
	}

	if len(expiredURLs) > 0 {
		atomic.AddInt64(&crlCacheMetrics.Cleanups, int64(len(expiredURLs)))
	}
}

func removeFromCacheOrder(url string) {
	for i, u := range crlCacheOrder {
		if u == url {
			crlCacheOrder = append(crlCacheOrder[:i], crlCacheOrder[i+1:]...)
			break
		}
	}
}

// updateCacheOrder moves url to the most-recently-used position.
func updateCacheOrder(url string) {
	removeFromCacheOrder(url)
	crlCacheOrder = append(crlCacheOrder, url)
}

// getCachedCRL retrieves a fresh CRL from cache and updates access order.
func getCachedCRL(url string) ([]byte, bool) {
	crlCacheMutex.Lock()
	defer crlCacheMutex.Unlock()

	entry, exists := crlCache[url]
	if !exists || !entry.isFresh() {
		atomic.AddInt64(&crlCacheMetrics.Misses, 1)
		return nil, false
	}

	atomic.AddInt64(&crlCacheMetrics.Hits, 1)
	updateCacheOrder(url)

	// Return a copy to prevent external modification
	dataCopy := make([]byte, len(entry.data))
	copy(dataCopy, entry.data)
	return dataCopy, true
}

// setCachedCRL stores a CRL in cache with metadata and applies LRU eviction.
func setCachedCRL(url string, data []byte, nextUpdate time.Time) {
	crlCacheMutex.Lock()
	defer crlCacheMutex.Unlock()

	config := GetCRLCacheConfig()

	for len(crlCache) >= config.MaxSize && config.MaxSize > 0 && len(crlCacheOrder) > 0 {
		lruURL := crlCacheOrder[0]
		delete(crlCache, lruURL)
		crlCacheOrder = crlCacheOrder[1:]
		atomic.AddInt64(&crlCacheMetrics.Evictions, 1)
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	crlCache[url] = &crlCacheEntry{
		data:       dataCopy,
		fetchedAt:  time.Now(),
		nextUpdate: nextUpdate,
		url:        url,
	}

	updateCacheOrder(url)
}

// ClearCRLCache clears all cached CRLs (useful for testing).
func ClearCRLCache() {
	crlCacheMutex.Lock()
	defer crlCacheMutex.Unlock()

	crlCache = make(map[string]*crlCacheEntry)
	crlCacheOrder = nil

	atomic.StoreInt64(&crlCacheMetrics.Hits, 0)
	atomic.StoreInt64(&crlCacheMetrics.Misses, 0)
	atomic.StoreInt64(&crlCacheMetrics.Evictions, 0)
	atomic.StoreInt64(&crlCacheMetrics.Cleanups, 0)
}
