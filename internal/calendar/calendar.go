// Package calendar syncs appointments with the clinic's external calendar.
// Every call degrades to a skipped success when the integration is not configured.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const (
	KeyServiceAccount = "GOOGLE_SERVICE_ACCOUNT_KEY"
	KeyCalendarID     = "GOOGLE_CALENDAR_ID"
)

var errClientUnavailable = errors.New("calendar: client unavailable")

// TimeRange is a half-open [Start, End) interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether r and o share any instant.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Event is a calendar entry for an approved appointment.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// API is the external calendar surface.
type API interface {
	Busy(ctx context.Context, calendarID string, from, to time.Time) ([]TimeRange, error)
	InsertEvent(ctx context.Context, calendarID string, ev Event) (string, error)
}

// Config wires a Service.
type Config struct {
	ServiceAccountKey string
	CalendarID        string
	Retry             gateway.Options
	Observer          gateway.Observer
	Logger            *logging.Logger
}

// Service wraps API with configuration checks and retries.
type Service struct {
	api        API
	calendarID string
	status     gateway.ConfigStatus
	retry      gateway.Options
	observer   gateway.Observer
	logger     *logging.Logger
}

// NewService builds the calendar integration. api may be nil when the
// client could not be constructed; calls then fail without retrying.
func NewService(api API, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		api:        api,
		calendarID: cfg.CalendarID,
		status: gateway.CheckConfig(gateway.MapEnv{
			KeyServiceAccount: cfg.ServiceAccountKey,
			KeyCalendarID:     cfg.CalendarID,
		}, KeyServiceAccount, KeyCalendarID),
		retry:    cfg.Retry,
		observer: cfg.Observer,
		logger:   cfg.Logger,
	}
}

// Configured reports whether credentials are present.
func (s *Service) Configured() bool {
	return s != nil && s.status.Configured
}

// Availability is the busy set for a window. Checked is false when the
// integration was skipped or failed, in which case callers must not filter.
type Availability struct {
	Checked bool
	Busy    []TimeRange
	Outcome gateway.Outcome
}

// BusyIntervals fetches busy periods in [from, to).
func (s *Service) BusyIntervals(ctx context.Context, from, to time.Time) Availability {
	if s == nil {
		return Availability{Outcome: gateway.Outcome{Success: true, Skipped: true, Reason: "calendar not configured"}}
	}
	busy, out := gateway.Do(ctx, s.integration("calendar_freebusy"), func(ctx context.Context) ([]TimeRange, error) {
		if s.api == nil {
			return nil, errClientUnavailable
		}
		return s.api.Busy(ctx, s.calendarID, from, to)
	})
	return Availability{Checked: out.Performed(), Busy: busy, Outcome: out}
}

// EventResult reports calendar event creation.
type EventResult struct {
	gateway.Outcome
	Created bool   `json:"created"`
	EventID string `json:"eventId,omitempty"`
}

// CreateEvent inserts ev into the clinic calendar.
func (s *Service) CreateEvent(ctx context.Context, ev Event) EventResult {
	if s == nil {
		return EventResult{Outcome: gateway.Outcome{Success: true, Skipped: true, Reason: "calendar not configured"}}
	}
	id, out := gateway.Do(ctx, s.integration("calendar_event"), func(ctx context.Context) (string, error) {
		if s.api == nil {
			return "", errClientUnavailable
		}
		return s.api.InsertEvent(ctx, s.calendarID, ev)
	})
	return EventResult{Outcome: out, Created: out.Performed(), EventID: id}
}

func (s *Service) integration(name string) gateway.Integration {
	return gateway.Integration{
		Name:     name,
		Status:   s.status,
		Retry:    s.retry,
		Observer: s.observer,
		Logger:   s.logger,
	}
}
