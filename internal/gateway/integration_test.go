package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

type observation struct {
	integration, outcome string
	attempts             int
}

type fakeObserver struct{ seen []observation }

func (f *fakeObserver) ObserveIntegration(integration, outcome string, attempts int) {
	f.seen = append(f.seen, observation{integration, outcome, attempts})
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestDoSkipsUnconfiguredIntegration(t *testing.T) {
	obs := &fakeObserver{}
	called := false
	_, out := Do(context.Background(), Integration{
		Name:     "email",
		Status:   CheckConfig(MapEnv{}, "SENDGRID_API_KEY"),
		Observer: obs,
		Logger:   logging.Discard(),
	}, func(ctx context.Context) (string, error) {
		called = true
		return "", errors.New("should not run")
	})

	if called {
		t.Fatalf("operation must not run when unconfigured")
	}
	if !out.Success || !out.Skipped || out.Performed() {
		t.Fatalf("expected skipped success, got %+v", out)
	}
	if out.Reason == "" || len(out.MissingKeys) != 1 {
		t.Fatalf("expected reason and missing keys, got %+v", out)
	}
	if len(obs.seen) != 1 || obs.seen[0].outcome != OutcomeSkipped {
		t.Fatalf("unexpected observations %+v", obs.seen)
	}
}

func TestDoReportsFailureWithAttempts(t *testing.T) {
	obs := &fakeObserver{}
	_, out := Do(context.Background(), Integration{
		Name:     "calendar",
		Status:   ConfigStatus{Configured: true},
		Retry:    Options{Sleep: noSleep},
		Observer: obs,
		Logger:   logging.Discard(),
	}, func(ctx context.Context) (string, error) {
		return "", &StatusError{Service: "calendar", StatusCode: http.StatusServiceUnavailable}
	})

	if out.Success || out.Attempts != 3 || !out.Retryable || out.Error == "" {
		t.Fatalf("expected failure after 3 attempts, got %+v", out)
	}
	if obs.seen[0].outcome != OutcomeFailed || obs.seen[0].attempts != 3 {
		t.Fatalf("unexpected observation %+v", obs.seen)
	}
}

func TestDoReturnsData(t *testing.T) {
	id, out := Do(context.Background(), Integration{
		Name:   "calendar",
		Status: ConfigStatus{Configured: true},
		Logger: logging.Discard(),
	}, func(ctx context.Context) (string, error) {
		return "evt_1", nil
	})
	if id != "evt_1" || !out.Performed() || out.Attempts != 1 {
		t.Fatalf("unexpected result %q %+v", id, out)
	}
}
