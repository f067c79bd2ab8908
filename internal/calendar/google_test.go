package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"google.golang.org/api/option"
)

func newTestGoogleAPI(t *testing.T, handler http.HandlerFunc) *GoogleAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	api, err := newGoogleAPI(context.Background(), "Asia/Jerusalem",
		option.WithEndpoint(srv.URL+"/calendar/v3/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("newGoogleAPI: %v", err)
	}
	return api
}

func TestGoogleBusy(t *testing.T) {
	api := newTestGoogleAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/freeBusy") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["timeZone"] != "Asia/Jerusalem" {
			t.Errorf("unexpected timezone %v", req["timeZone"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"calendars":{"clinic":{"busy":[{"start":"2025-03-10T10:00:00Z","end":"2025-03-10T11:00:00Z"}]}}}`))
	})

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	busy, err := api.Busy(context.Background(), "clinic", from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Busy: %v", err)
	}
	if len(busy) != 1 || busy[0].End.Sub(busy[0].Start) != time.Hour {
		t.Fatalf("unexpected busy %+v", busy)
	}
}

func TestGoogleInsertEvent(t *testing.T) {
	api := newTestGoogleAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "/calendars/clinic/events") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var ev map[string]any
		_ = json.NewDecoder(r.Body).Decode(&ev)
		if ev["summary"] != "Root Canal Treatment - Dana" {
			t.Errorf("unexpected summary %v", ev["summary"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc123"}`))
	})

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	id, err := api.InsertEvent(context.Background(), "clinic", Event{
		Summary: "Root Canal Treatment - Dana",
		Start:   start,
		End:     start.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}
	if id != "abc123" {
		t.Fatalf("unexpected id %q", id)
	}
}

func TestGoogleErrorsBecomeStatusErrors(t *testing.T) {
	api := newTestGoogleAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend unavailable"}}`))
	})

	_, err := api.Busy(context.Background(), "clinic", time.Now(), time.Now().Add(time.Hour))
	var statusErr *gateway.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T %v", err, err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || !gateway.IsRetryable(err) {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}
