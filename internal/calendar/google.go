package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/gateway"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleAPI talks to Google Calendar with a service account.
type GoogleAPI struct {
	svc      *gcal.Service
	timezone string
}

// NewGoogleAPI builds a client from the service account key JSON.
func NewGoogleAPI(ctx context.Context, serviceAccountKey, timezone string) (*GoogleAPI, error) {
	if strings.TrimSpace(serviceAccountKey) == "" {
		return nil, errors.New("calendar: service account key is required")
	}
	return newGoogleAPI(ctx, timezone,
		option.WithCredentialsJSON([]byte(serviceAccountKey)),
		option.WithScopes(gcal.CalendarScope),
	)
}

func newGoogleAPI(ctx context.Context, timezone string, opts ...option.ClientOption) (*GoogleAPI, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google client: %w", err)
	}
	return &GoogleAPI{svc: svc, timezone: timezone}, nil
}

// Busy returns the busy periods of calendarID between from and to.
func (g *GoogleAPI) Busy(ctx context.Context, calendarID string, from, to time.Time) ([]TimeRange, error) {
	resp, err := g.svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin:  from.Format(time.RFC3339),
		TimeMax:  to.Format(time.RFC3339),
		TimeZone: g.timezone,
		Items:    []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}
	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("calendar: freebusy for %s: %s", calendarID, cal.Errors[0].Reason)
	}
	out := make([]TimeRange, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("calendar: parse busy start: %w", err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("calendar: parse busy end: %w", err)
		}
		out = append(out, TimeRange{Start: start, End: end})
	}
	return out, nil
}

// InsertEvent creates an event and returns its id.
func (g *GoogleAPI) InsertEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	created, err := g.svc.Events.Insert(calendarID, &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &gcal.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: g.timezone},
		End:         &gcal.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: g.timezone},
	}).Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	return created.Id, nil
}

// classify maps Google API errors onto gateway.StatusError so the retry
// policy sees the HTTP status.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &gateway.StatusError{Service: "google calendar", StatusCode: gerr.Code, Body: gerr.Message}
	}
	return fmt.Errorf("calendar: %w", err)
}
