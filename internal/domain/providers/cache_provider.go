package providers

import (
	"context"
	"errors"
	"strconv"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache; ErrCacheMiss when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes values from cache
	Delete(ctx context.Context, keys ...string) error
}

// Cache keys shared by the services that fill them and the invalidation service
const (
	CacheKeyAvailableVolunteers  = "volunteers:available"
	cacheKeyVolunteerStatsPrefix = "volunteers:stats:"
)

// VolunteerStatsKey returns the cache key of a volunteer's stats
func VolunteerStatsKey(volunteerID int64) string {
	return cacheKeyVolunteerStatsPrefix + strconv.FormatInt(volunteerID, 10)
}
