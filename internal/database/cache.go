package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"parcel-tracking/internal/carriers"
)

// TrackCacheEntry is a persisted tracking result with its expiry
type TrackCacheEntry struct {
	Result    *carriers.Result
	StoredAt  time.Time
	ExpiresAt time.Time
}

// TrackCacheStore handles database operations for the tracking-result cache
type TrackCacheStore struct {
	db *sql.DB
}

// NewTrackCacheStore creates a new track cache store
func NewTrackCacheStore(db *sql.DB) *TrackCacheStore {
	return &TrackCacheStore{db: db}
}

// Get retrieves a cached result by key. A miss returns a nil result and no
// error. Expiry is the caller's concern; the stored expires_at is returned
// alongside the result.
func (s *TrackCacheStore) Get(key string) (*carriers.Result, time.Time, error) {
	query := `SELECT result_data, expires_at FROM track_cache WHERE cache_key = ?`

	var resultData string
	var expiresAt time.Time

	err := s.db.QueryRow(query, key).Scan(&resultData, &expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, nil // Cache miss
		}
		return nil, time.Time{}, fmt.Errorf("failed to get cached result: %w", err)
	}

	var result carriers.Result
	if err := json.Unmarshal([]byte(resultData), &result); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to deserialize cached result: %w", err)
	}

	return &result, expiresAt, nil
}

// Set stores a result in the cache with the given expiry
func (s *TrackCacheStore) Set(key string, result *carriers.Result, expiresAt time.Time) error {
	resultData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}

	query := `INSERT OR REPLACE INTO track_cache (cache_key, result_data, status, cached_at, expires_at)
			  VALUES (?, ?, ?, CURRENT_TIMESTAMP, ?)`

	_, err = s.db.Exec(query, key, string(resultData), string(result.Status), expiresAt)
	if err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}

	return nil
}

// Delete removes a cached entry
func (s *TrackCacheStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM track_cache WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cached entry: %w", err)
	}

	return nil
}

// DeleteAll removes every cached entry
func (s *TrackCacheStore) DeleteAll() error {
	_, err := s.db.Exec(`DELETE FROM track_cache`)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	return nil
}

// DeleteExpired removes all entries expired as of the given time
func (s *TrackCacheStore) DeleteExpired(now time.Time) error {
	result, err := s.db.Exec(`DELETE FROM track_cache WHERE expires_at <= ?`, now)
	if err != nil {
		return fmt.Errorf("failed to delete expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err == nil && rowsAffected > 0 {
		log.Printf("DEBUG: Cleaned up %d expired cache entries", rowsAffected)
	}

	return nil
}

// LoadAll loads all non-expired cache entries from the database.
// Used for initializing the in-memory cache on startup.
func (s *TrackCacheStore) LoadAll(now time.Time) (map[string]*TrackCacheEntry, error) {
	query := `SELECT cache_key, result_data, cached_at, expires_at FROM track_cache WHERE expires_at > ?`

	rows, err := s.db.Query(query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*TrackCacheEntry)

	for rows.Next() {
		var key, resultData string
		var storedAt, expiresAt time.Time

		if err := rows.Scan(&key, &resultData, &storedAt, &expiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}

		var result carriers.Result
		if err := json.Unmarshal([]byte(resultData), &result); err != nil {
			log.Printf("WARN: Failed to deserialize cached result for %s: %v", key, err)
			continue
		}

		entries[key] = &TrackCacheEntry{
			Result:    &result,
			StoredAt:  storedAt,
			ExpiresAt: expiresAt,
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cache entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of cached entries
func (s *TrackCacheStore) Count() (int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM track_cache`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return total, nil
}
