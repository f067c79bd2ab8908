package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/approval"
	"github.com/wolfman30/dental-booking-ai/internal/chat"
	"github.com/wolfman30/dental-booking-ai/internal/http/handlers"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, _ []agent.Message, text string, _ agent.StepFunc) (*agent.Trace, error) {
	return &agent.Trace{Steps: []agent.Step{}, ToolsUsed: []string{}, FinalResponse: "echo: " + text}, nil
}

func newTestRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	logger := logging.Discard()

	st := store.NewMemoryStore()
	if _, err := store.Seed(context.Background(), st); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mgr := appointments.NewManager(st, appointments.Dependencies{}, appointments.Config{}, logger)

	return New(&Config{
		Logger:             logger,
		Chat:               chat.NewHandler(echoRunner{}, nil, nil, logger),
		TelegramWebhook:    approval.NewWebhookHandler(mgr, nil, logger),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(mgr, logger),
		MetricsHandler:     http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		CORSAllowedOrigins: []string{"*"},
		HealthChecks:       checks,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", resp["status"])
	}
}

func TestRouterHealthReportsFailingDependency(t *testing.T) {
	router := newTestRouter(t, map[string]HealthCheck{
		"redis":    func(context.Context) error { return errors.New("connection refused") },
		"postgres": func(context.Context) error { return nil },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var resp struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Dependencies["redis"] != "connection refused" || resp.Dependencies["postgres"] != "ok" {
		t.Fatalf("unexpected health body %+v", resp)
	}
}

func TestRouterChatEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://widget.example")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://widget.example" {
		t.Fatalf("expected CORS header, got %q", got)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
	if !strings.Contains(rr.Body.String(), `"reply":"echo: hi"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestRouterRoutesRegistered(t *testing.T) {
	router := newTestRouter(t, nil)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/chat/trace?session_id=none", "", http.StatusOK},
		{http.MethodPost, "/api/telegram/webhook", `{"update_id":1}`, http.StatusOK},
		{http.MethodGet, "/api/appointments/pending", "", http.StatusOK},
		{http.MethodPost, "/api/appointments/99/status", `{"status":"CANCELLED"}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		if rr.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

// Knowledge routes are only mounted when a Redis-backed repository exists.
func TestRouterKnowledgeMissingWithoutHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/knowledge", nil))
	if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 404/405 without knowledge handler, got %d", rr.Code)
	}
}
