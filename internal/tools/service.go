package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/availability"
	"github.com/wolfman30/dental-booking-ai/internal/catalog"
	"github.com/wolfman30/dental-booking-ai/internal/knowledge"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const maxActiveAppointments = 5

// Repository is the store surface read directly by the tools.
type Repository interface {
	ListServices(ctx context.Context) ([]store.Service, error)
	ListStaff(ctx context.Context) ([]store.Staff, error)
	GetStaff(ctx context.Context, id int64) (*store.Staff, error)
	StaffForService(ctx context.Context, serviceID int64) ([]store.Staff, error)
	ServicesForStaff(ctx context.Context, staffID int64) ([]store.Service, error)
	TouchPatient(ctx context.Context, email string) (bool, error)
	GetPatient(ctx context.Context, email string) (*store.Patient, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]store.Appointment, error)
	AppendPreference(ctx context.Context, email, preference string) (int, error)
}

// ServiceResolver maps free text to a service and its staff.
type ServiceResolver interface {
	Lookup(ctx context.Context, text string) (*catalog.Match, error)
}

// SlotEngine computes free slots.
type SlotEngine interface {
	ComputeSlots(ctx context.Context, staffID int64, date time.Time, durationMinutes int) (*availability.Result, error)
}

// Booker creates pending appointments.
type Booker interface {
	Create(ctx context.Context, in appointments.CreateInput) (*appointments.CreateResult, error)
}

// KnowledgeSearcher answers general clinic questions.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string) knowledge.Results
}

// CallObserver records tool call outcomes.
type CallObserver interface {
	ObserveToolCall(tool, result string, seconds float64)
}

// Dependencies wires the core components behind the tools.
type Dependencies struct {
	Repo      Repository
	Resolver  ServiceResolver
	Engine    SlotEngine
	Booker    Booker
	Knowledge KnowledgeSearcher
	Metrics   CallObserver
}

// Config controls validation and user-facing fallbacks.
type Config struct {
	ClinicPhone        string
	Location           *time.Location
	RequireFutureDates bool
	Now                func() time.Time
}

// Service implements Toolbox over the booking core.
type Service struct {
	deps   Dependencies
	cfg    Config
	logger *logging.Logger
}

var _ Toolbox = (*Service)(nil)

func NewService(deps Dependencies, cfg Config, logger *logging.Logger) *Service {
	if deps.Repo == nil || deps.Resolver == nil || deps.Engine == nil || deps.Booker == nil || deps.Knowledge == nil {
		panic("tools: repository, resolver, engine, booker and knowledge are required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if strings.TrimSpace(cfg.ClinicPhone) == "" {
		cfg.ClinicPhone = "(555) 123-4567"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{deps: deps, cfg: cfg, logger: logger}
}

func (s *Service) observe(tool string, start time.Time, failure *Failure) {
	result := "success"
	if failure != nil {
		result = string(failure.ErrorType)
		s.logger.Info("tool call failed", "tool", tool, "error_type", failure.ErrorType, "message", failure.Message)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveToolCall(tool, result, time.Since(start).Seconds())
	}
}

func (s *Service) GetServices(ctx context.Context) (res ServicesResult) {
	defer func(start time.Time) { s.observe(NameGetServices, start, res.Error) }(time.Now())

	services, err := s.deps.Repo.ListServices(ctx)
	if err != nil {
		s.logger.Error("list services failed", "error", err)
		return ServicesResult{Error: s.databaseFailure("Unable to fetch services")}
	}
	out := make([]ServiceSummary, 0, len(services))
	for _, svc := range services {
		staff, err := s.deps.Repo.StaffForService(ctx, svc.ID)
		if err != nil {
			s.logger.Error("list staff for service failed", "service_id", svc.ID, "error", err)
			return ServicesResult{Error: s.databaseFailure("Unable to fetch services")}
		}
		names := make([]string, 0, len(staff))
		for _, st := range staff {
			names = append(names, st.Name)
		}
		out = append(out, ServiceSummary{
			ID:              svc.ID,
			Name:            svc.Name,
			Description:     svc.Description,
			DurationMinutes: svc.DurationMinutes,
			Category:        svc.Category,
			Staff:           names,
		})
	}
	return ServicesResult{Success: true, Services: out}
}

func (s *Service) GetStaffForService(ctx context.Context, in StaffForServiceInput) (res StaffForServiceResult) {
	defer func(start time.Time) { s.observe(NameGetStaffForService, start, res.Error) }(time.Now())

	if strings.TrimSpace(in.ServiceName) == "" {
		return StaffForServiceResult{Error: invalid("serviceName is required", "Ask the patient which treatment they need")}
	}
	match, err := s.deps.Resolver.Lookup(ctx, in.ServiceName)
	switch {
	case errors.Is(err, catalog.ErrNoQualifiedStaff):
		return StaffForServiceResult{Error: notFound(
			fmt.Sprintf("No staff members available for %s", in.ServiceName),
			"This service may not be currently offered. Use getServices to find alternative treatments",
		)}
	case errors.Is(err, store.ErrNotFound):
		return StaffForServiceResult{Error: notFound(
			fmt.Sprintf("Service %q not found", in.ServiceName),
			"Ask the patient to clarify which treatment they need, or use getServices to show all available services",
		)}
	case err != nil:
		s.logger.Error("resolve service failed", "query", in.ServiceName, "error", err)
		return StaffForServiceResult{Error: s.databaseFailure("Unable to find staff for this service")}
	}

	staff := make([]StaffSummary, 0, len(match.Staff))
	for _, st := range match.Staff {
		staff = append(staff, StaffSummary{ID: st.ID, Name: st.Name, Role: st.Role, Specialty: st.Specialty})
	}
	return StaffForServiceResult{
		Success: true,
		Service: &ServiceRef{
			ID:              match.Service.ID,
			Name:            match.Service.Name,
			DurationMinutes: match.Service.DurationMinutes,
			Category:        match.Service.Category,
		},
		Staff: staff,
	}
}

func (s *Service) CheckAvailability(ctx context.Context, in CheckAvailabilityInput) (res AvailabilityResult) {
	defer func(start time.Time) { s.observe(NameCheckAvailability, start, res.Error) }(time.Now())

	fail := func(f *Failure) AvailabilityResult {
		return AvailabilityResult{Slots: []string{}, Date: in.Date, StaffID: in.StaffID, Error: f}
	}
	day, err := availability.ParseDate(in.Date, s.cfg.Location)
	if err != nil {
		return fail(invalid(fmt.Sprintf("Invalid date %q", in.Date), "Use the YYYY-MM-DD format"))
	}
	if s.cfg.RequireFutureDates && day.Before(s.today()) {
		return fail(invalid(
			fmt.Sprintf("%s is in the past", in.Date),
			"Ask the patient for a date from today onwards",
		))
	}

	result, err := s.deps.Engine.ComputeSlots(ctx, in.StaffID, day, in.ServiceDuration)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(notFound("Staff member not found", "Use getStaffForService to find valid staff members for the requested service"))
		}
		s.logger.Error("compute slots failed", "staff_id", in.StaffID, "date", in.Date, "error", err)
		return fail(s.databaseFailure("Unable to check availability"))
	}

	res = AvailabilityResult{
		Available:       result.Available,
		Slots:           result.Slots,
		Date:            result.Date,
		StaffID:         in.StaffID,
		StaffName:       result.StaffName,
		WorkingDays:     result.WorkingDays,
		CalendarChecked: result.CalendarChecked,
	}
	switch result.Reason {
	case availability.ReasonStaffNotWorking:
		suggestion := "Try a different staff member using getStaffForService"
		if len(result.WorkingDays) > 0 {
			suggestion = fmt.Sprintf("%s works on: %s. Try one of these days instead.", result.StaffName, strings.Join(result.WorkingDays, ", "))
		}
		res.Error = &Failure{
			ErrorType:  ErrorStaffNotWorking,
			Message:    fmt.Sprintf("%s does not work on %ss", result.StaffName, store.WeekdayName(day.Weekday())),
			Suggestion: suggestion,
		}
	case availability.ReasonNoSlots:
		res.Error = &Failure{
			ErrorType:  ErrorNoSlots,
			Message:    fmt.Sprintf("No available slots for %s on %s", result.StaffName, result.Date),
			Suggestion: "Try a different date, or use getStaffForService to find another staff member who can perform this service",
		}
	}
	return res
}

func (s *Service) GetClinicTeam(ctx context.Context) (res TeamResult) {
	defer func(start time.Time) { s.observe(NameGetClinicTeam, start, res.Error) }(time.Now())

	staff, err := s.deps.Repo.ListStaff(ctx)
	if err != nil {
		s.logger.Error("list staff failed", "error", err)
		return TeamResult{Error: s.databaseFailure("Unable to fetch team information")}
	}
	team := make([]TeamMember, 0, len(staff))
	for _, st := range staff {
		services, err := s.deps.Repo.ServicesForStaff(ctx, st.ID)
		if err != nil {
			s.logger.Error("list services for staff failed", "staff_id", st.ID, "error", err)
			return TeamResult{Error: s.databaseFailure("Unable to fetch team information")}
		}
		names := make([]string, 0, len(services))
		for _, svc := range services {
			names = append(names, svc.Name)
		}
		team = append(team, TeamMember{
			ID:          st.ID,
			Name:        st.Name,
			Role:        st.Role,
			Specialty:   st.Specialty,
			Bio:         st.Bio,
			Services:    names,
			WorkingDays: st.WorkingHours.WorkingDays(),
		})
	}
	return TeamResult{Success: true, Team: team}
}

func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (res CreateAppointmentResult) {
	defer func(start time.Time) { s.observe(NameCreateAppointment, start, res.Error) }(time.Now())

	startsAt, err := ParseDateTime(in.DateTime, s.cfg.Location)
	if err != nil {
		return CreateAppointmentResult{Error: invalid(err.Error(), "Use an ISO date and time such as 2025-03-10T10:00:00")}
	}
	if s.cfg.RequireFutureDates && startsAt.Before(s.cfg.Now()) {
		return CreateAppointmentResult{Error: invalid(
			fmt.Sprintf("%s is in the past", in.DateTime),
			"Check availability for a future date before booking",
		)}
	}

	created, err := s.deps.Booker.Create(ctx, appointments.CreateInput{
		PatientName:  in.PatientName,
		PatientEmail: in.PatientEmail,
		PatientPhone: in.PatientPhone,
		ServiceID:    in.ServiceID,
		StaffID:      in.StaffID,
		StartsAt:     startsAt,
		Notes:        in.Notes,
	})
	switch {
	case errors.Is(err, appointments.ErrInvalidPair):
		return CreateAppointmentResult{Error: notFound(
			"This staff member does not perform the requested service",
			"Use getStaffForService to find valid staff members for the requested service",
		)}
	case err != nil:
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, appointments.ErrInvalidInput) {
			s.logger.Error("create appointment failed", "staff_id", in.StaffID, "service_id", in.ServiceID, "error", err)
		}
		return CreateAppointmentResult{Error: s.classify(err, "Failed to create appointment",
			"Use getStaffForService to find valid staff members for the requested service")}
	}

	appt := created.Appointment
	return CreateAppointmentResult{
		Success:       true,
		AppointmentID: appt.ID,
		Status:        appt.Status,
		StaffName:     created.StaffName,
		Message: fmt.Sprintf(
			"Appointment request created with %s. The clinic will review and confirm shortly. You'll receive an email at %s once approved.",
			created.StaffName, appt.PatientEmail,
		),
		OwnerNotified: created.Notification.Performed(),
	}
}

func (s *Service) GetPatientHistory(ctx context.Context, in PatientHistoryInput) (res PatientHistoryResult) {
	defer func(start time.Time) { s.observe(NameGetPatientHistory, start, res.Error) }(time.Now())

	email := store.NormalizeEmail(in.Email)
	if email == "" {
		return PatientHistoryResult{ActiveAppointments: []store.Appointment{}, Error: invalid("email is required", "Ask the patient for their email address")}
	}
	dbFail := func(err error) PatientHistoryResult {
		s.logger.Error("patient history failed", "error", err)
		return PatientHistoryResult{
			ActiveAppointments: []store.Appointment{},
			Error: &Failure{
				ErrorType:  ErrorDatabase,
				Message:    "Unable to retrieve patient history",
				Suggestion: "Continue with the conversation - treat as a new patient",
				Retryable:  true,
			},
		}
	}

	if _, err := s.deps.Repo.TouchPatient(ctx, email); err != nil {
		return dbFail(err)
	}
	patient, err := s.deps.Repo.GetPatient(ctx, email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return dbFail(err)
	}
	all, err := s.deps.Repo.ListAppointmentsByEmail(ctx, email)
	if err != nil {
		return dbFail(err)
	}

	if patient == nil && len(all) == 0 {
		return PatientHistoryResult{
			IsNewPatient:       true,
			ActiveAppointments: []store.Appointment{},
			Message:            "New patient - no previous history",
			Suggestion:         "Welcome them as a new patient and offer to help them book their first appointment",
		}
	}

	active := []store.Appointment{}
	approved := 0
	for _, appt := range all {
		if appt.Status.Occupies() && len(active) < maxActiveAppointments {
			active = append(active, appt)
		}
		if appt.Status == store.StatusApproved {
			approved++
		}
	}
	return PatientHistoryResult{
		Found:                 true,
		IsNewPatient:          len(all) == 0,
		Patient:               patient,
		ActiveAppointments:    active,
		TotalPastAppointments: approved,
	}
}

func (s *Service) SavePatientPreference(ctx context.Context, in SavePreferenceInput) (res SavePreferenceResult) {
	defer func(start time.Time) { s.observe(NameSavePatientPreference, start, res.Error) }(time.Now())

	email := store.NormalizeEmail(in.Email)
	pref := strings.TrimSpace(in.Preference)
	if email == "" || pref == "" {
		return SavePreferenceResult{Error: invalid("email and preference are required", "Ask the patient for their email address")}
	}
	total, err := s.deps.Repo.AppendPreference(ctx, email, pref)
	if err != nil {
		s.logger.Error("save preference failed", "error", err)
		return SavePreferenceResult{Error: &Failure{
			ErrorType:  ErrorDatabase,
			Message:    "Unable to save preference",
			Suggestion: "The preference was not saved but the conversation can continue",
			Retryable:  true,
		}}
	}
	return SavePreferenceResult{Success: true, Message: "Preference saved", TotalPreferences: total}
}

func (s *Service) SearchKnowledgeBase(ctx context.Context, in KnowledgeInput) (res KnowledgeResult) {
	defer func(start time.Time) { s.observe(NameSearchKnowledgeBase, start, res.Error) }(time.Now())

	if strings.TrimSpace(in.Query) == "" {
		return KnowledgeResult{Error: notFound(
			"No information found for an empty query",
			"Try different keywords or ask the patient to rephrase their question",
		)}
	}
	results := s.deps.Knowledge.Search(ctx, in.Query)
	return KnowledgeResult{Found: true, Results: &results}
}

func (s *Service) today() time.Time {
	now := s.cfg.Now().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseDateTime accepts RFC 3339 or a zone-less ISO timestamp, which is read
// in loc.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date and time %q", raw)
}
