// Package appointments owns the appointment lifecycle: PENDING creation with
// patient bookkeeping, and approver-driven transitions with their side effects.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/dental-booking-ai/internal/calendar"
	"github.com/wolfman30/dental-booking-ai/internal/notify"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

var appointmentsTracer = otel.Tracer("dental.internal.appointments")

// fallbackEventMinutes sizes calendar events when the service duration is unknown.
const fallbackEventMinutes = 60

// Repository is the store surface the manager uses.
type Repository interface {
	GetStaff(ctx context.Context, id int64) (*store.Staff, error)
	GetService(ctx context.Context, id int64) (*store.Service, error)
	CanPerform(ctx context.Context, staffID, serviceID int64) (bool, error)
	CreateAppointment(ctx context.Context, appt *store.Appointment) error
	GetAppointment(ctx context.Context, id int64) (*store.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status store.Status) (*store.Appointment, error)
	ListAppointmentsByStatus(ctx context.Context, status store.Status) ([]store.Appointment, error)
	UpsertPatient(ctx context.Context, email string, upd store.PatientUpdate) error
	AddInterest(ctx context.Context, email, interest string) error
	MarkConverted(ctx context.Context, email string) error
}

// CalendarSync creates events for approved appointments.
type CalendarSync interface {
	CreateEvent(ctx context.Context, ev calendar.Event) calendar.EventResult
}

// Mailer sends patient emails.
type Mailer interface {
	Send(ctx context.Context, msg notify.EmailMessage) notify.SendResult
}

// OwnerNotifier alerts the human approver.
type OwnerNotifier interface {
	NotifyNewAppointment(ctx context.Context, notice notify.AppointmentNotice) notify.SendResult
}

// TransitionObserver records status changes.
type TransitionObserver interface {
	ObserveTransition(from, to string)
}

// Dependencies are the optional side-effect channels. Nil entries are skipped.
type Dependencies struct {
	Calendar CalendarSync
	Mailer   Mailer
	Owner    OwnerNotifier
	Metrics  TransitionObserver
}

// Config carries clinic details used in patient messages.
type Config struct {
	ClinicName  string
	ClinicPhone string
	Location    *time.Location
}

// Manager drives appointment creation and transitions. It keeps no state.
type Manager struct {
	repo   Repository
	deps   Dependencies
	cfg    Config
	logger *logging.Logger
}

func NewManager(repo Repository, deps Dependencies, cfg Config, logger *logging.Logger) *Manager {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Manager{repo: repo, deps: deps, cfg: cfg, logger: logger}
}

// CreateInput is a booking request from the tool layer.
type CreateInput struct {
	PatientName  string
	PatientEmail string
	PatientPhone string
	ServiceID    int64
	StaffID      int64
	StartsAt     time.Time
	Notes        string
}

func (in CreateInput) validate() error {
	switch {
	case strings.TrimSpace(in.PatientName) == "":
		return fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	case strings.TrimSpace(in.PatientEmail) == "":
		return fmt.Errorf("%w: patient email is required", ErrInvalidInput)
	case in.ServiceID <= 0:
		return fmt.Errorf("%w: service id is required", ErrInvalidInput)
	case in.StaffID <= 0:
		return fmt.Errorf("%w: staff id is required", ErrInvalidInput)
	case in.StartsAt.IsZero():
		return fmt.Errorf("%w: date and time are required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(in.PatientEmail); err != nil || addr.Address != strings.TrimSpace(in.PatientEmail) {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidInput, in.PatientEmail)
	}
	return nil
}

// CreateResult is the persisted appointment plus the owner notification outcome.
type CreateResult struct {
	Appointment  store.Appointment
	StaffName    string
	Notification notify.SendResult
}

// Create persists a PENDING appointment. Availability is not re-checked, so
// two conversations can still book the same slot.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("dental.staff_id", in.StaffID),
		attribute.Int64("dental.service_id", in.ServiceID),
	)

	if err := in.validate(); err != nil {
		return nil, err
	}
	ok, err := m.repo.CanPerform(ctx, in.StaffID, in.ServiceID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: check staff/service pair: %w", err)
	}
	if !ok {
		return nil, ErrInvalidPair
	}
	svc, err := m.repo.GetService(ctx, in.ServiceID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: load service: %w", err)
	}
	staff, err := m.repo.GetStaff(ctx, in.StaffID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: load staff: %w", err)
	}

	appt := &store.Appointment{
		PatientName:  strings.TrimSpace(in.PatientName),
		PatientEmail: store.NormalizeEmail(in.PatientEmail),
		PatientPhone: strings.TrimSpace(in.PatientPhone),
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		StaffID:      staff.ID,
		StartsAt:     in.StartsAt,
		Status:       store.StatusPending,
		Notes:        in.Notes,
	}
	if err := m.repo.CreateAppointment(ctx, appt); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	span.SetAttributes(attribute.Int64("dental.appointment_id", appt.ID))
	m.logger.Info("appointment requested", "appointment_id", appt.ID, "staff_id", staff.ID, "service_id", svc.ID, "starts_at", appt.StartsAt)

	// Separate writes, not a transaction: the appointment stands even if
	// the patient bookkeeping below fails.
	m.recordPatient(ctx, appt)

	res := &CreateResult{Appointment: *appt, StaffName: staff.Name}
	if m.deps.Owner != nil {
		res.Notification = m.deps.Owner.NotifyNewAppointment(ctx, notify.AppointmentNotice{
			AppointmentID: appt.ID,
			PatientName:   appt.PatientName,
			PatientEmail:  appt.PatientEmail,
			PatientPhone:  appt.PatientPhone,
			Service:       appt.ServiceName,
			StaffName:     staff.Name,
			StartsAt:      appt.StartsAt,
		})
	} else {
		res.Notification = skipped("owner notification not wired")
	}
	if !res.Notification.Success {
		m.logger.Warn("owner notification failed", "appointment_id", appt.ID, "error", res.Notification.Error)
	}
	return res, nil
}

func (m *Manager) recordPatient(ctx context.Context, appt *store.Appointment) {
	email := appt.PatientEmail
	if err := m.repo.UpsertPatient(ctx, email, store.PatientUpdate{Name: appt.PatientName, Phone: appt.PatientPhone}); err != nil {
		m.logger.Error("patient upsert failed", "appointment_id", appt.ID, "error", err)
		return
	}
	if err := m.repo.AddInterest(ctx, email, appt.ServiceName); err != nil {
		m.logger.Error("patient interest failed", "appointment_id", appt.ID, "error", err)
	}
	if err := m.repo.MarkConverted(ctx, email); err != nil {
		m.logger.Error("patient conversion failed", "appointment_id", appt.ID, "error", err)
	}
}

// TransitionResult reports the new state and the side effects it triggered.
type TransitionResult struct {
	Appointment store.Appointment     `json:"appointment"`
	Changed     bool                  `json:"changed"`
	Calendar    *calendar.EventResult `json:"calendar,omitempty"`
	Email       *notify.SendResult    `json:"email,omitempty"`
}

// Transition moves an appointment to status. Applying the current status
// again returns Changed=false and triggers nothing.
func (m *Manager) Transition(ctx context.Context, id int64, status store.Status) (*TransitionResult, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.transition")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("dental.appointment_id", id),
		attribute.String("dental.status", string(status)),
	)

	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	current, err := m.repo.GetAppointment(ctx, id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			span.RecordError(err)
		}
		return nil, fmt.Errorf("appointments: load %d: %w", id, err)
	}
	if current.Status == status {
		return &TransitionResult{Appointment: *current}, nil
	}
	if !CanTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
	}

	updated, err := m.repo.UpdateAppointmentStatus(ctx, id, status)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("appointments: update %d: %w", id, err)
	}
	if m.deps.Metrics != nil {
		m.deps.Metrics.ObserveTransition(string(current.Status), string(status))
	}
	m.logger.Info("appointment transitioned", "appointment_id", id, "from", current.Status, "to", status)

	res := &TransitionResult{Appointment: *updated, Changed: true}
	switch status {
	case store.StatusApproved:
		ev := m.createEvent(ctx, updated)
		res.Calendar = &ev
		email := m.sendEmail(ctx, confirmationEmail(updated, m.cfg.ClinicName, m.cfg.Location))
		res.Email = &email
	case store.StatusDeclined:
		email := m.sendEmail(ctx, declineEmail(updated, m.cfg.ClinicName, m.cfg.ClinicPhone, m.cfg.Location))
		res.Email = &email
	}
	return res, nil
}

// ListPending returns requests awaiting approval, earliest first.
func (m *Manager) ListPending(ctx context.Context) ([]store.Appointment, error) {
	out, err := m.repo.ListAppointmentsByStatus(ctx, store.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("appointments: list pending: %w", err)
	}
	return out, nil
}

// Get loads one appointment.
func (m *Manager) Get(ctx context.Context, id int64) (*store.Appointment, error) {
	appt, err := m.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("appointments: load %d: %w", id, err)
	}
	return appt, nil
}

func (m *Manager) createEvent(ctx context.Context, appt *store.Appointment) calendar.EventResult {
	if m.deps.Calendar == nil {
		return calendar.EventResult{Outcome: skipped("calendar not wired").Outcome}
	}
	minutes := appt.DurationMinutes
	if minutes <= 0 {
		minutes = fallbackEventMinutes
	}
	phone := appt.PatientPhone
	if phone == "" {
		phone = "N/A"
	}
	res := m.deps.Calendar.CreateEvent(ctx, calendar.Event{
		Summary:     fmt.Sprintf("%s - %s", appt.ServiceName, appt.PatientName),
		Description: fmt.Sprintf("Patient: %s\nEmail: %s\nPhone: %s", appt.PatientName, appt.PatientEmail, phone),
		Start:       appt.StartsAt,
		End:         appt.StartsAt.Add(time.Duration(minutes) * time.Minute),
	})
	if !res.Success {
		m.logger.Warn("calendar event failed", "appointment_id", appt.ID, "error", res.Error)
	}
	return res
}

func (m *Manager) sendEmail(ctx context.Context, msg notify.EmailMessage) notify.SendResult {
	if m.deps.Mailer == nil {
		return skipped("email not wired")
	}
	res := m.deps.Mailer.Send(ctx, msg)
	if !res.Success {
		m.logger.Warn("patient email failed", "to", msg.To, "error", res.Error)
	}
	return res
}

func skipped(reason string) notify.SendResult {
	res := notify.SendResult{}
	res.Success = true
	res.Skipped = true
	res.Reason = reason
	return res
}
