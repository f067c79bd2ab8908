package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/dental-booking-ai/internal/approval"
	"github.com/wolfman30/dental-booking-ai/internal/chat"
	"github.com/wolfman30/dental-booking-ai/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/dental-booking-ai/internal/http/middleware"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *chat.Handler
	TelegramWebhook    *approval.WebhookHandler
	AdminAppointments  *handlers.AdminAppointmentsHandler
	AdminKnowledge     *handlers.AdminKnowledgeHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
	HealthChecks       map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/api/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.TelegramWebhook != nil {
		r.Method(http.MethodPost, "/api/telegram/webhook", cfg.TelegramWebhook)
	}

	if cfg.Chat != nil {
		// The socket is mounted outside Compress so the connection can be hijacked.
		r.Get("/api/chat/ws", cfg.Chat.HandleWebSocket)
		r.Group(func(chatRoutes chi.Router) {
			chatRoutes.Use(middleware.Compress(5))
			if cfg.RateLimiter != nil {
				chatRoutes.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			chatRoutes.Post("/api/chat", cfg.Chat.HandleChat)
			chatRoutes.Get("/api/chat/trace", cfg.Chat.HandleTrace)
		})
	}

	if cfg.AdminAppointments != nil {
		r.Route("/api/appointments", func(appts chi.Router) {
			appts.Get("/pending", cfg.AdminAppointments.ListPending)
			appts.Post("/{id}/status", cfg.AdminAppointments.UpdateStatus)
		})
	}
	if cfg.AdminKnowledge != nil {
		r.Route("/api/knowledge", func(kb chi.Router) {
			kb.Get("/", cfg.AdminKnowledge.GetKnowledge)
			kb.Put("/", cfg.AdminKnowledge.PutKnowledge)
			kb.Delete("/", cfg.AdminKnowledge.DeleteKnowledge)
		})
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := "ok"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		resp := map[string]any{"status": status, "timestamp": time.Now().UTC().Format(time.RFC3339)}
		if len(deps) > 0 {
			resp["dependencies"] = deps
		}
		writeJSON(w, code, resp)
	}
}
