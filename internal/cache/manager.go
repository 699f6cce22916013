package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"parcel-tracking/internal/carriers"
	"parcel-tracking/internal/database"
)

// Default TTL applied when a status has no entry in the duration table
const DefaultTTL = 6 * time.Hour

// ttlByStatus holds the per-status cache lifetimes. Terminal statuses keep
// results around for days; actionable ones expire quickly so callers see
// fresh movement.
var ttlByStatus = map[carriers.TrackingStatus]time.Duration{
	carriers.StatusDelivered:      7 * 24 * time.Hour,
	carriers.StatusFailed:         24 * time.Hour,
	carriers.StatusExpired:        24 * time.Hour,
	carriers.StatusException:      2 * time.Hour,
	carriers.StatusOutForDelivery: 30 * time.Minute,
	carriers.StatusInTransit:      6 * time.Hour,
	carriers.StatusInfoReceived:   12 * time.Hour,
	carriers.StatusPending:        12 * time.Hour,
	carriers.StatusUnknown:        1 * time.Hour,
}

// TTLForStatus returns the cache lifetime for a canonical status
func TTLForStatus(status carriers.TrackingStatus) time.Duration {
	if ttl, ok := ttlByStatus[status]; ok {
		return ttl
	}
	return DefaultTTL
}

// Key builds the cache key for a carrier/tracking-number pair. The tracking
// number is normalized so "1z999..." and " 1Z999... " share one entry.
func Key(carrierID, trackingNumber string) string {
	return fmt.Sprintf("track:%s:%s", carrierID, carriers.Normalize(trackingNumber))
}

// CachedResult is an in-memory cache entry with expiry
type CachedResult struct {
	Result    *carriers.Result
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Manager manages in-memory and persistent caching of tracking results.
// Entries expire based on the status of the cached result. Callers hold a
// Manager instance; there is no package-level shared cache.
type Manager struct {
	store    *database.TrackCacheStore
	memory   sync.Map // map[string]*CachedResult
	disabled bool

	now func() time.Time

	// Cleanup goroutine control
	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager creates a new cache manager. store may be nil, in which case
// entries live in memory only.
func NewManager(store *database.TrackCacheStore, disabled bool) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	manager := &Manager{
		store:    store,
		disabled: disabled,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}

	if !disabled {
		if store != nil {
			if err := manager.loadFromDatabase(); err != nil {
				log.Printf("WARN: Failed to load cache from database: %v", err)
			}
		}

		go manager.cleanupLoop()
	}

	return manager
}

// Get retrieves a cached result, or nil on a miss. Expired entries are
// evicted lazily on read.
func (m *Manager) Get(key string) *carriers.Result {
	if m.disabled {
		return nil
	}

	if value, ok := m.memory.Load(key); ok {
		cached := value.(*CachedResult)
		if m.now().Before(cached.ExpiresAt) {
			return cached.Result
		}
		m.memory.Delete(key)
	}

	if m.store == nil {
		return nil
	}

	result, expiresAt, err := m.store.Get(key)
	if err != nil {
		log.Printf("WARN: Failed to read database cache for %s: %v", key, err)
		return nil
	}
	if result == nil || !m.now().Before(expiresAt) {
		return nil
	}

	m.memory.Store(key, &CachedResult{
		Result:    result,
		StoredAt:  m.now(),
		ExpiresAt: expiresAt,
	})

	return result
}

// Set stores a result under the given key with a TTL derived from the
// result's status.
func (m *Manager) Set(key string, result *carriers.Result) {
	if m.disabled {
		return
	}

	now := m.now()
	expiresAt := now.Add(TTLForStatus(result.Status))

	m.memory.Store(key, &CachedResult{
		Result:    result,
		StoredAt:  now,
		ExpiresAt: expiresAt,
	})

	if m.store != nil {
		if err := m.store.Set(key, result, expiresAt); err != nil {
			log.Printf("WARN: Failed to write database cache for %s: %v", key, err)
		}
	}
}

// Invalidate removes a single cache entry
func (m *Manager) Invalidate(key string) {
	if m.disabled {
		return
	}

	m.memory.Delete(key)

	if m.store != nil {
		if err := m.store.Delete(key); err != nil {
			log.Printf("WARN: Failed to delete database cache for %s: %v", key, err)
		}
	}
}

// InvalidateFor removes the entry for a carrier/tracking-number pair
func (m *Manager) InvalidateFor(carrierID, trackingNumber string) {
	m.Invalidate(Key(carrierID, trackingNumber))
}

// Clear removes every cache entry
func (m *Manager) Clear() {
	if m.disabled {
		return
	}

	m.memory.Range(func(key, _ interface{}) bool {
		m.memory.Delete(key)
		return true
	})

	if m.store != nil {
		if err := m.store.DeleteAll(); err != nil {
			log.Printf("WARN: Failed to clear database cache: %v", err)
		}
	}
}

// CleanExpired removes expired entries and returns how many memory entries
// were evicted.
func (m *Manager) CleanExpired() int {
	if m.disabled {
		return 0
	}

	cleaned := 0
	now := m.now()
	m.memory.Range(func(key, value interface{}) bool {
		cached := value.(*CachedResult)
		if !now.Before(cached.ExpiresAt) {
			m.memory.Delete(key)
			cleaned++
		}
		return true
	})

	if m.store != nil {
		if err := m.store.DeleteExpired(now); err != nil {
			log.Printf("WARN: Failed to clean up expired database cache entries: %v", err)
		}
	}

	return cleaned
}

// IsEnabled returns true if caching is enabled
func (m *Manager) IsEnabled() bool {
	return !m.disabled
}

// Stats represents cache statistics
type Stats struct {
	Disabled      bool     `json:"disabled"`
	Size          int      `json:"size"`
	Keys          []string `json:"keys"`
	DatabaseTotal int      `json:"database_total"`
}

// GetStats returns current cache statistics
func (m *Manager) GetStats() Stats {
	stats := Stats{
		Disabled: m.disabled,
		Keys:     []string{},
	}

	if m.disabled {
		return stats
	}

	m.memory.Range(func(key, _ interface{}) bool {
		stats.Size++
		stats.Keys = append(stats.Keys, key.(string))
		return true
	})

	if m.store != nil {
		total, err := m.store.Count()
		if err != nil {
			log.Printf("WARN: Failed to get database cache stats: %v", err)
		} else {
			stats.DatabaseTotal = total
		}
	}

	return stats
}

// loadFromDatabase warms the memory cache from persisted entries
func (m *Manager) loadFromDatabase() error {
	entries, err := m.store.LoadAll(m.now())
	if err != nil {
		return err
	}

	for key, entry := range entries {
		m.memory.Store(key, &CachedResult{
			Result:    entry.Result,
			StoredAt:  entry.StoredAt,
			ExpiresAt: entry.ExpiresAt,
		})
	}

	if len(entries) > 0 {
		log.Printf("INFO: Loaded %d cache entries from database", len(entries))
	}

	return nil
}

// cleanupLoop runs periodically to clean up expired entries
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.CleanExpired()
		}
	}
}

// Close shuts down the cache manager and cleanup goroutine
func (m *Manager) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}
