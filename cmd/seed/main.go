package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/adapters/database"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	"github.com/IlyaKonFetka/max-social-miniapp/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("volunteer-seed", cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer pgClient.Close()

	if err := database.RunMigration(ctx, pgClient.DB()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE reports, sessions, requests, users CASCADE`)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to reset tables")
		}
	}

	userRepo := database.NewUserAdapter(pgClient)
	requestRepo := database.NewRequestAdapter(pgClient)

	now := time.Now().UTC()

	// 1. Volunteers
	volunteers := []struct {
		id        int64
		name      string
		available bool
		rating    float64
		calls     int
		daysAgo   int
	}{
		{10001, "Анна Петрова", true, 4.8, 25, 30},
		{10002, "Иван Сидоров", true, 4.9, 42, 45},
		{10003, "Мария Иванова", false, 4.7, 18, 20},
		{10004, "Дмитрий Козлов", true, 5.0, 67, 60},
		{10005, "Елена Смирнова", true, 4.6, 31, 35},
	}

	created := 0
	for _, v := range volunteers {
		registered := now.AddDate(0, 0, -v.daysAgo)
		ok, err := userRepo.Create(ctx, &entities.User{
			ID:           v.id,
			Name:         v.name,
			Role:         entities.UserRoleVolunteer,
			IsAvailable:  v.available,
			Rating:       v.rating,
			TotalCalls:   v.calls,
			CreatedAt:    registered,
			UpdatedAt:    registered,
			LastActiveAt: registered,
		})
		if err != nil {
			log.Error().Err(err).Int64("user_id", v.id).Msg("Failed to create volunteer")
			continue
		}
		if ok {
			created++
		}
	}
	log.Info().Int("created", created).Msg("Seeded volunteers")

	// 2. Requesters and their requests
	requests := []struct {
		userID   int64
		kind     entities.RequestType
		status   entities.RequestStatus
		age      time.Duration
		duration time.Duration
	}{
		{20001, entities.RequestTypeRead, entities.RequestStatusCompleted, 2 * time.Hour, 5 * time.Minute},
		{20002, entities.RequestTypeDescribe, entities.RequestStatusCompleted, 5 * time.Hour, 10 * time.Minute},
		{20003, entities.RequestTypeNavigate, entities.RequestStatusPending, 5 * time.Minute, 0},
		{20004, entities.RequestTypeOther, entities.RequestStatusAccepted, 15 * time.Minute, 0},
		{20005, entities.RequestTypeRead, entities.RequestStatusCancelled, time.Hour, 0},
	}

	seeded := 0
	for _, r := range requests {
		createdAt := now.Add(-r.age)
		if _, err := userRepo.Create(ctx, &entities.User{
			ID:           r.userID,
			Name:         fmt.Sprintf("User %d", r.userID),
			Role:         entities.UserRoleUser,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
			LastActiveAt: createdAt,
		}); err != nil {
			log.Error().Err(err).Int64("user_id", r.userID).Msg("Failed to create requester")
			continue
		}

		request := &entities.Request{
			ID:        uuid.New().String(),
			UserID:    r.userID,
			Type:      r.kind,
			Status:    r.status,
			CreatedAt: createdAt,
			UpdatedAt: createdAt.Add(r.duration),
		}
		// requests become active only when a session opens
		if r.status == entities.RequestStatusAccepted {
			volunteerID := int64(10004)
			request.VolunteerID = &volunteerID
		}
		if r.status == entities.RequestStatusCompleted {
			completedAt := createdAt.Add(r.duration)
			request.CompletedAt = &completedAt
		}

		if err := requestRepo.Create(ctx, request); err != nil {
			log.Error().Err(err).Int64("user_id", r.userID).Msg("Failed to create request")
			continue
		}
		seeded++
	}
	log.Info().Int("created", seeded).Msg("Seeded requests")

	log.Info().Msg("Seeding completed")
}
