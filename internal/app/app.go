package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openbracket/arena/internal/config"
	"github.com/openbracket/arena/internal/domain/competition"
	"github.com/openbracket/arena/internal/infrastructure/auth"
	"github.com/openbracket/arena/internal/infrastructure/notification"
	"github.com/openbracket/arena/internal/infrastructure/repository/cache"
	"github.com/openbracket/arena/internal/infrastructure/repository/memory"
	"github.com/openbracket/arena/internal/infrastructure/repository/postgres"
	platformcache "github.com/openbracket/arena/internal/platform/cache"
	idgen "github.com/openbracket/arena/internal/platform/id"
	"github.com/openbracket/arena/internal/platform/keylock"
	"github.com/openbracket/arena/internal/platform/resilience"
	"github.com/openbracket/arena/internal/usecase"

	"github.com/openbracket/arena/internal/domain/application"
	"github.com/openbracket/arena/internal/domain/request"
	"github.com/openbracket/arena/internal/domain/team"
	"github.com/openbracket/arena/internal/interfaces/httpapi"
)

// NewHTTPServer assembles repositories, services, and the HTTP router from
// configuration. The returned cleanup function drains the webhook dispatcher
// and closes the database pool; call it after the server has shut down.
func NewHTTPServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		competitionRepo competition.Repository
		teamRepo        team.Repository
		requestRepo     request.Repository
		applicationRepo application.Repository
	)

	cleanups := make([]func(), 0, 2)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DBURL == "" {
		logger.InfoContext(ctx, "no DB_URL configured, using in-memory repositories with seed data")
		competitionRepo = memory.NewCompetitionRepository(memory.SeedCompetitions())
		teamRepo = memory.NewTeamRepository(memory.SeedTeams())
		requestRepo = memory.NewRequestRepository()
		applicationRepo = memory.NewApplicationRepository()
	} else {
		db, err := ConnectDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() {
			if closeErr := db.Close(); closeErr != nil {
				logger.Error("close database", "error", closeErr)
			}
		})

		competitionRepo = postgres.NewCompetitionRepository(db)
		teamRepo = postgres.NewTeamRepository(db)
		requestRepo = postgres.NewRequestRepository(db)
		applicationRepo = postgres.NewApplicationRepository(db)
	}

	if cfg.CacheEnabled {
		store := platformcache.NewStore(cfg.CacheTTL)
		competitionRepo = cache.NewCompetitionRepository(competitionRepo, store)
	}

	var notifier usecase.Notifier = usecase.NopNotifier{}
	if cfg.WebhookEnabled {
		dispatcher, err := notification.NewWebhookDispatcher(notification.WebhookConfig{
			URL:          cfg.WebhookURL,
			AuthToken:    cfg.WebhookAuthToken,
			Timeout:      cfg.WebhookTimeout,
			Workers:      cfg.WebhookWorkers,
			MaxAttempts:  cfg.WebhookMaxAttempts,
			RetryBackoff: cfg.WebhookRetryBackoff,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.WebhookCircuitEnabled,
				FailureThreshold: cfg.WebhookCircuitFailureCount,
				OpenTimeout:      cfg.WebhookCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.WebhookCircuitHalfOpenMax,
			},
		}, logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("build webhook dispatcher: %w", err)
		}
		cleanups = append(cleanups, dispatcher.Close)
		notifier = dispatcher
	}

	verifier, err := auth.NewStaticVerifier(cfg.AuthStaticTokens)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build token verifier: %w", err)
	}

	locks := keylock.New()
	idGen := idgen.NewRandomGenerator()

	competitionService := usecase.NewCompetitionService(competitionRepo, logger)
	membershipService := usecase.NewMembershipService(teamRepo, competitionRepo, locks, logger)
	requestService := usecase.NewRequestService(requestRepo, teamRepo, competitionRepo, membershipService, locks, idGen, logger)
	applicationService := usecase.NewApplicationService(applicationRepo, teamRepo, competitionRepo, membershipService, locks, idGen, logger)
	lifecycleService := usecase.NewLifecycleService(membershipService, requestService, applicationService, notifier, idGen, logger)

	handler := httpapi.NewHandler(
		lifecycleService,
		competitionService,
		membershipService,
		requestService,
		applicationService,
		logger,
	)

	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return server, cleanup, nil
}
