package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
)

// CacheInvalidationService drops cached volunteer views when session events arrive
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelSessions)
	if err != nil {
		return fmt.Errorf("failed to subscribe to session events: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.SessionEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

// handleEvent drops the stats of the volunteer the event is about and the
// available list, which every session and volunteer event may change.
func (s *CacheInvalidationService) handleEvent(event *entities.SessionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	keys := []string{providers.CacheKeyAvailableVolunteers}
	if event.VolunteerID != 0 {
		keys = append(keys, providers.VolunteerStatsKey(event.VolunteerID))
	}

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).
			Str("event_id", event.ID).
			Int64("volunteer_id", event.VolunteerID).
			Msg("Failed to invalidate volunteer caches")
		return
	}

	log.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Strs("keys", keys).
		Msg("Invalidated volunteer caches")
}

// InvalidateVolunteer drops the cached views of one volunteer
func (s *CacheInvalidationService) InvalidateVolunteer(ctx context.Context, volunteerID int64) error {
	if err := s.cache.Delete(ctx, providers.CacheKeyAvailableVolunteers, providers.VolunteerStatsKey(volunteerID)); err != nil {
		return fmt.Errorf("failed to invalidate volunteer %d: %w", volunteerID, err)
	}
	return nil
}
