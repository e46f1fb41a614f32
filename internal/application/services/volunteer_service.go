package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
)

// VolunteerService serves the read side of volunteers: who is available and
// how they are rated. Results are cached until a session event invalidates them.
type VolunteerService struct {
	repo     repositories.UserRepository
	cache    providers.CacheProvider
	cacheTTL int
	metrics  *observability.Metrics
}

// NewVolunteerService creates a new volunteer service. cache may be nil.
func NewVolunteerService(repo repositories.UserRepository, cache providers.CacheProvider, cacheTTLSeconds int) *VolunteerService {
	return &VolunteerService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTLSeconds,
	}
}

// SetMetrics sets the instruments used to count cache hits and misses
func (s *VolunteerService) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

// ListAvailable lists volunteers that can take a session, best rated first
func (s *VolunteerService) ListAvailable(ctx context.Context) ([]*entities.User, error) {
	var volunteers []*entities.User
	if s.fromCache(ctx, providers.CacheKeyAvailableVolunteers, "volunteers_available", &volunteers) {
		return volunteers, nil
	}

	volunteers, err := s.repo.ListAvailableVolunteers(ctx)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, providers.CacheKeyAvailableVolunteers, volunteers)
	return volunteers, nil
}

// GetStats returns the derived stats of a volunteer
func (s *VolunteerService) GetStats(ctx context.Context, volunteerID int64) (*entities.VolunteerStats, error) {
	key := providers.VolunteerStatsKey(volunteerID)

	var stats entities.VolunteerStats
	if s.fromCache(ctx, key, "volunteer_stats", &stats) {
		return &stats, nil
	}

	fresh, err := s.repo.GetVolunteerStats(ctx, volunteerID)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, key, fresh)
	return fresh, nil
}

// WarmCache preloads the available volunteer list
func (s *VolunteerService) WarmCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	volunteers, err := s.repo.ListAvailableVolunteers(ctx)
	if err != nil {
		return err
	}
	s.toCache(ctx, providers.CacheKeyAvailableVolunteers, volunteers)

	observability.LoggerFromContext(ctx).Info().
		Int("volunteers", len(volunteers)).
		Msg("Warmed available volunteers cache")
	return nil
}

func (s *VolunteerService) fromCache(ctx context.Context, key, name string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		observability.RecordCacheLookup(ctx, s.metrics, name, false)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Discarding undecodable cache entry")
		observability.RecordCacheLookup(ctx, s.metrics, name, false)
		return false
	}

	observability.RecordCacheLookup(ctx, s.metrics, name, true)
	return true
}

func (s *VolunteerService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
