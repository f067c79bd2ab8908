package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
	"github.com/wolfman30/dental-booking-ai/internal/api/router"
	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/approval"
	"github.com/wolfman30/dental-booking-ai/internal/availability"
	"github.com/wolfman30/dental-booking-ai/internal/catalog"
	"github.com/wolfman30/dental-booking-ai/internal/chat"
	appconfig "github.com/wolfman30/dental-booking-ai/internal/config"
	"github.com/wolfman30/dental-booking-ai/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/dental-booking-ai/internal/http/middleware"
	"github.com/wolfman30/dental-booking-ai/internal/knowledge"
	"github.com/wolfman30/dental-booking-ai/internal/observability/metrics"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/internal/tools"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// App is the wired API process.
type App struct {
	Handler     http.Handler
	RateLimiter *httpmiddleware.RateLimiter

	closers []func() error
}

// Close releases clients in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires the booking core and its HTTP surface from cfg. Every external
// dependency is optional: without DATABASE_URL the store is in memory, without
// REDIS_ADDR chat history is in memory and the knowledge override is off.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{}
	fail := func(err error) (*App, error) {
		_ = app.Close()
		return nil, err
	}
	loc := cfg.Location()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	bookingMetrics := metrics.NewBookingMetrics(registry)
	checks := map[string]router.HealthCheck{}

	pool, err := BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fail(err)
	}
	var repo store.Store
	if pool != nil {
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		repo = store.NewPostgresStore(pool)
		checks["postgres"] = pool.Ping
	} else {
		logger.Warn("DATABASE_URL not set; using in-memory store")
		repo = store.NewMemoryStore()
	}
	if cfg.SeedCatalog {
		seeded, err := store.Seed(ctx, repo)
		if err != nil {
			return fail(err)
		}
		if seeded {
			logger.Info("seeded staff and service catalog")
		}
	}

	var transcriptDB *sql.DB
	if pool != nil {
		if transcriptDB, err = BuildTranscriptDB(cfg.DatabaseURL); err != nil {
			return fail(err)
		}
		app.closers = append(app.closers, transcriptDB.Close)
	}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, redisClient.Close)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	cal := BuildCalendar(ctx, cfg, bookingMetrics, logger)
	mailer, err := BuildMailer(ctx, cfg, bookingMetrics, logger)
	if err != nil {
		return fail(err)
	}
	owner := BuildOwnerNotifier(cfg, bookingMetrics, logger)

	manager := appointments.NewManager(repo, appointments.Dependencies{
		Calendar: cal,
		Mailer:   mailer,
		Owner:    owner,
		Metrics:  bookingMetrics,
	}, appointments.Config{ClinicName: cfg.ClinicName, ClinicPhone: cfg.ClinicPhone, Location: loc}, logger)

	var kbRepo *knowledge.RedisRepository
	var kbLoader knowledge.Loader
	if redisClient != nil {
		kbRepo = knowledge.NewRedisRepository(redisClient)
		kbLoader = kbRepo
	}
	kb := knowledge.NewService(kbLoader, nil, logger)

	toolbox := tools.NewService(tools.Dependencies{
		Repo:      repo,
		Resolver:  catalog.NewResolver(repo, catalog.DefaultSynonyms),
		Engine:    availability.NewEngine(repo, cal, loc, logger),
		Booker:    manager,
		Knowledge: kb,
		Metrics:   bookingMetrics,
	}, tools.Config{
		ClinicPhone:        cfg.ClinicPhone,
		Location:           loc,
		RequireFutureDates: cfg.RequireFutureDates,
	}, logger)

	model, closeModel, err := BuildModel(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, closeModel)
	assistant := agent.New(model, toolbox, agent.Config{
		ClinicName:  cfg.ClinicName,
		ClinicPhone: cfg.ClinicPhone,
		MaxSteps:    cfg.AgentMaxSteps,
		Location:    loc,
	}, bookingMetrics, logger)

	chatHandler := chat.NewHandler(assistant, buildHistoryStore(redisClient), buildTranscripts(transcriptDB), logger)

	routerCfg := &router.Config{
		Logger:             logger,
		Chat:               chatHandler,
		TelegramWebhook:    approval.NewWebhookHandler(manager, owner, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(manager, logger),
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		HealthChecks:       checks,
	}
	if kbRepo != nil {
		routerCfg.AdminKnowledge = handlers.NewAdminKnowledgeHandler(kbRepo, kb, logger)
	}
	if cfg.RateLimitRPS > 0 {
		app.RateLimiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = app.RateLimiter
	}
	app.Handler = router.New(routerCfg)
	return app, nil
}

func buildHistoryStore(client *redis.Client) chat.HistoryStore {
	if client == nil {
		return chat.NewMemoryHistoryStore()
	}
	return chat.NewRedisHistoryStore(client)
}

func buildTranscripts(db *sql.DB) chat.TranscriptRecorder {
	if db == nil {
		return nil
	}
	return chat.NewTranscriptStore(db)
}

