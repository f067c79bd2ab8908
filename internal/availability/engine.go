// Package availability computes bookable slots for a staff member on a date
// from working windows, existing appointments and the external calendar.
package availability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/dental-booking-ai/internal/calendar"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

var availabilityTracer = otel.Tracer("dental.internal.availability")

const (
	// SlotStep is the granularity of candidate start times.
	SlotStep = 30 * time.Minute
	// MaxSlots caps the returned list; it never affects Available.
	MaxSlots = 8
	// DefaultDurationMinutes applies when the caller passes no duration.
	DefaultDurationMinutes = 30
	// FallbackDurationMinutes is assumed for existing appointments whose
	// service duration is unknown at read time.
	FallbackDurationMinutes = 60

	DateLayout = "2006-01-02"
)

// Reason explains an unavailable result.
type Reason string

const (
	ReasonStaffNotWorking Reason = "STAFF_NOT_WORKING"
	ReasonNoSlots         Reason = "NO_SLOTS"
)

// Repository is the store surface the engine reads.
type Repository interface {
	GetStaff(ctx context.Context, id int64) (*store.Staff, error)
	ListOccupying(ctx context.Context, staffID int64, from, to time.Time) ([]store.Appointment, error)
}

// BusySource reports external calendar busy periods.
type BusySource interface {
	BusyIntervals(ctx context.Context, from, to time.Time) calendar.Availability
}

// Result is the outcome of a slot computation.
type Result struct {
	Available       bool     `json:"available"`
	Slots           []string `json:"slots"`
	StaffName       string   `json:"staffName"`
	Date            string   `json:"date"`
	Reason          Reason   `json:"reason,omitempty"`
	WorkingDays     []string `json:"workingDays,omitempty"`
	CalendarChecked bool     `json:"calendarChecked"`
}

// Engine is stateless; every call reads the store afresh.
type Engine struct {
	repo   Repository
	busy   BusySource
	loc    *time.Location
	logger *logging.Logger
}

// NewEngine builds an engine. busy may be nil to disable calendar filtering.
func NewEngine(repo Repository, busy BusySource, loc *time.Location, logger *logging.Logger) *Engine {
	if repo == nil {
		panic("availability: repository required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{repo: repo, busy: busy, loc: loc, logger: logger}
}

// Location is the clinic timezone slots are expressed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}

// ComputeSlots returns the free slots for staffID on the calendar day of date
// in the clinic timezone. Past dates are computed like any other.
func (e *Engine) ComputeSlots(ctx context.Context, staffID int64, date time.Time, durationMinutes int) (*Result, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.compute_slots")
	defer span.End()

	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	local := date.In(e.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, e.loc)
	span.SetAttributes(
		attribute.Int64("dental.staff_id", staffID),
		attribute.String("dental.date", day.Format(DateLayout)),
		attribute.Int("dental.duration_minutes", durationMinutes),
	)

	staff, err := e.repo.GetStaff(ctx, staffID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: load staff %d: %w", staffID, err)
	}
	res := &Result{StaffName: staff.Name, Date: day.Format(DateLayout), Slots: []string{}}

	windows, err := staff.WorkingHours.Windows(day.Weekday())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: staff %d: %w", staffID, err)
	}
	if len(windows) == 0 {
		res.Reason = ReasonStaffNotWorking
		res.WorkingDays = staff.WorkingHours.WorkingDays()
		return res, nil
	}

	candidates := candidateSlots(day, windows, durationMinutes)

	dayEnd := day.AddDate(0, 0, 1)
	existing, err := e.repo.ListOccupying(ctx, staffID, day, dayEnd)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("availability: list appointments: %w", err)
	}
	booked := make([]calendar.TimeRange, 0, len(existing))
	for _, appt := range existing {
		if !appt.Status.Occupies() {
			continue
		}
		minutes := appt.DurationMinutes
		if minutes <= 0 {
			minutes = FallbackDurationMinutes
		}
		booked = append(booked, calendar.TimeRange{Start: appt.StartsAt, End: appt.StartsAt.Add(time.Duration(minutes) * time.Minute)})
	}
	candidates = withoutOverlaps(candidates, booked)

	if e.busy != nil && len(candidates) > 0 {
		avail := e.busy.BusyIntervals(ctx, day, dayEnd)
		if avail.Checked {
			res.CalendarChecked = true
			candidates = withoutOverlaps(candidates, avail.Busy)
		} else if !avail.Outcome.Success {
			e.logger.Warn("calendar check skipped after failure", "staff_id", staffID, "date", res.Date, "error", avail.Outcome.Error)
		}
	}

	if len(candidates) == 0 {
		res.Reason = ReasonNoSlots
		return res, nil
	}
	res.Available = true
	for i, c := range candidates {
		if i == MaxSlots {
			break
		}
		res.Slots = append(res.Slots, c.label)
	}
	span.SetAttributes(attribute.Int("dental.slots_free", len(candidates)))
	return res, nil
}

type slot struct {
	label string
	span  calendar.TimeRange
}

func candidateSlots(day time.Time, windows []store.Window, durationMinutes int) []slot {
	step := int(SlotStep / time.Minute)
	var out []slot
	for _, w := range windows {
		for m := w.Start; m+durationMinutes <= w.End; m += step {
			start := time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, day.Location())
			out = append(out, slot{
				label: store.FormatClock(m),
				span:  calendar.TimeRange{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)},
			})
		}
	}
	return out
}

func withoutOverlaps(candidates []slot, busy []calendar.TimeRange) []slot {
	if len(busy) == 0 {
		return candidates
	}
	kept := make([]slot, 0, len(candidates))
	for _, c := range candidates {
		free := true
		for _, b := range busy {
			if c.span.Overlaps(b) {
				free = false
				break
			}
		}
		if free {
			kept = append(kept, c)
		}
	}
	return kept
}
