package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/adapters/cache"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/adapters/database"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/adapters/events"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/handlers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/api/routes"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/providers"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/postgres"
	redisclient "github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/clients/redis"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/infrastructure/observability"
	"github.com/IlyaKonFetka/max-social-miniapp/pkg/config"
)

const connectTimeout = 2 * time.Minute

// redisDeps holds the optional Redis-backed providers. All fields are nil
// when Redis is disabled or unreachable.
type redisDeps struct {
	client *redisclient.Client
	cache  providers.CacheProvider
	bus    providers.EventBus
}

func setupDI(cfg *config.Config, metrics *observability.Metrics) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, metrics)

	registerStorage(injector)
	registerServices(injector)
	registerHTTP(injector)

	return injector
}

func registerStorage(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*postgres.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		log.Info().Msg("PostgreSQL client initialized successfully")

		if cfg.Database.AutoMigrate {
			if err := database.RunMigration(ctx, client.DB()); err != nil {
				client.Close()
				return nil, err
			}
			log.Info().Msg("Database schema is up to date")
		}
		return client, nil
	})

	do.Provide(injector, func(i do.Injector) (*redisDeps, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.Redis.Enabled {
			log.Info().Msg("Redis disabled; running without cache and event bus")
			return &redisDeps{}, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := redisclient.NewClient(ctx, &cfg.Redis)
		if err != nil {
			// The service works without caching
			log.Warn().Err(err).Msg("Failed to initialize Redis client")
			return &redisDeps{}, nil
		}
		log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis client initialized successfully")

		return &redisDeps{
			client: client,
			cache:  cache.NewRedisAdapter(client),
			bus:    events.NewRedisEventBus(client),
		}, nil
	})

	do.Provide(injector, func(i do.Injector) (repositories.UserRepository, error) {
		return database.NewUserAdapter(do.MustInvoke[*postgres.Client](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (repositories.RequestRepository, error) {
		return database.NewRequestAdapter(do.MustInvoke[*postgres.Client](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (repositories.SessionRepository, error) {
		return database.NewSessionAdapter(do.MustInvoke[*postgres.Client](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (repositories.ReportRepository, error) {
		return database.NewReportAdapter(do.MustInvoke[*postgres.Client](i)), nil
	})
}

func registerServices(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*services.UserService, error) {
		svc := services.NewUserService(do.MustInvoke[repositories.UserRepository](i))
		if rd := do.MustInvoke[*redisDeps](i); rd.bus != nil {
			svc.SetEventBus(rd.bus)
		}
		return svc, nil
	})

	do.Provide(injector, func(i do.Injector) (*services.VolunteerService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rd := do.MustInvoke[*redisDeps](i)

		svc := services.NewVolunteerService(
			do.MustInvoke[repositories.UserRepository](i),
			rd.cache,
			cfg.Redis.CacheTTLSeconds,
		)
		svc.SetMetrics(do.MustInvoke[*observability.Metrics](i))
		return svc, nil
	})

	do.Provide(injector, func(i do.Injector) (*services.RequestService, error) {
		return services.NewRequestService(
			do.MustInvoke[repositories.RequestRepository](i),
			do.MustInvoke[repositories.UserRepository](i),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*services.SessionService, error) {
		svc := services.NewSessionService(
			do.MustInvoke[repositories.SessionRepository](i),
			do.MustInvoke[repositories.RequestRepository](i),
			do.MustInvoke[repositories.UserRepository](i),
		)
		if rd := do.MustInvoke[*redisDeps](i); rd.bus != nil {
			svc.SetEventBus(rd.bus)
		}
		svc.SetMetrics(do.MustInvoke[*observability.Metrics](i))
		return svc, nil
	})

	do.Provide(injector, func(i do.Injector) (*services.ReportService, error) {
		return services.NewReportService(
			do.MustInvoke[repositories.ReportRepository](i),
			do.MustInvoke[repositories.UserRepository](i),
			do.MustInvoke[repositories.RequestRepository](i),
			do.MustInvoke[repositories.SessionRepository](i),
		), nil
	})
}

func registerHTTP(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (http.Handler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		userRepo := do.MustInvoke[repositories.UserRepository](i)

		router := routes.NewRouter(routes.Handlers{
			Health:    handlers.NewHealthHandler(do.MustInvoke[*postgres.Client](i), cfg.OTEL.ServiceVersion),
			User:      handlers.NewUserHandler(do.MustInvoke[*services.UserService](i)),
			Volunteer: handlers.NewVolunteerHandler(do.MustInvoke[*services.VolunteerService](i)),
			Request:   handlers.NewRequestHandler(do.MustInvoke[*services.RequestService](i)),
			Session:   handlers.NewSessionHandler(do.MustInvoke[*services.SessionService](i), userRepo),
			Report:    handlers.NewReportHandler(do.MustInvoke[*services.ReportService](i)),
		}, userRepo, do.MustInvoke[*observability.Metrics](i), cfg.CORS.AllowedOrigins)

		return router.SetupRoutes(), nil
	})
}
