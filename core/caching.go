package core

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/documetrics/docudash/internal/contract"
)

// currentCacheVersion defines the version of the cached metrics payload
const currentCacheVersion = 1

// metricsCacheKey scopes the cached CSV to the backend it came from.
func metricsCacheKey(baseURL string) string {
	return "metrics:" + baseURL
}

// checkCacheHit returns the cached CSV text and when it was stored.
func checkCacheHit(store contract.CacheStore, key string) (string, time.Time, error) {
	data, version, ts, err := store.Get(key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, fmt.Errorf("no cached metrics for %s", key)
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to read cached metrics: %w", err)
	}
	if version != currentCacheVersion {
		return "", time.Time{}, fmt.Errorf("cached metrics have version %d, expected %d", version, currentCacheVersion)
	}
	return string(data), time.Unix(ts, 0), nil
}

// storeMetrics writes the CSV text to the cache. Failures only warn; the
// dataset is already installed.
func storeMetrics(store contract.CacheStore, key, text string, now time.Time) {
	if store == nil {
		return
	}
	if err := store.Set(key, []byte(text), currentCacheVersion, now.Unix()); err != nil {
		contract.LogWarn("failed to cache metrics", err)
	}
}
