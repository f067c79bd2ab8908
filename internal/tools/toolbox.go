// Package tools exposes the booking core to the conversational agent as a
// fixed set of typed operations. Every operation reports failures in its
// result instead of returning an error.
package tools

import (
	"context"

	"github.com/wolfman30/dental-booking-ai/internal/knowledge"
	"github.com/wolfman30/dental-booking-ai/internal/store"
)

// Tool names as the model sees them.
const (
	NameGetServices           = "getServices"
	NameGetStaffForService    = "getStaffForService"
	NameCheckAvailability     = "checkAvailability"
	NameGetClinicTeam         = "getClinicTeam"
	NameCreateAppointment     = "createAppointment"
	NameGetPatientHistory     = "getPatientHistory"
	NameSavePatientPreference = "savePatientPreference"
	NameSearchKnowledgeBase   = "searchKnowledgeBase"
)

// Toolbox is the complete tool surface. One method per tool keeps every
// input and output statically typed.
type Toolbox interface {
	GetServices(ctx context.Context) ServicesResult
	GetStaffForService(ctx context.Context, in StaffForServiceInput) StaffForServiceResult
	CheckAvailability(ctx context.Context, in CheckAvailabilityInput) AvailabilityResult
	GetClinicTeam(ctx context.Context) TeamResult
	CreateAppointment(ctx context.Context, in CreateAppointmentInput) CreateAppointmentResult
	GetPatientHistory(ctx context.Context, in PatientHistoryInput) PatientHistoryResult
	SavePatientPreference(ctx context.Context, in SavePreferenceInput) SavePreferenceResult
	SearchKnowledgeBase(ctx context.Context, in KnowledgeInput) KnowledgeResult
}

type ServiceSummary struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	DurationMinutes int            `json:"durationMinutes"`
	Category        store.Category `json:"category"`
	Staff           []string       `json:"staff"`
}

type ServicesResult struct {
	Success  bool             `json:"success"`
	Services []ServiceSummary `json:"services,omitempty"`
	Error    *Failure         `json:"error,omitempty"`
}

type StaffForServiceInput struct {
	ServiceName string `json:"serviceName"`
}

type ServiceRef struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	DurationMinutes int            `json:"durationMinutes"`
	Category        store.Category `json:"category"`
}

type StaffSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Specialty string `json:"specialty"`
}

type StaffForServiceResult struct {
	Success bool           `json:"success"`
	Service *ServiceRef    `json:"service,omitempty"`
	Staff   []StaffSummary `json:"staff,omitempty"`
	Error   *Failure       `json:"error,omitempty"`
}

type CheckAvailabilityInput struct {
	StaffID         int64  `json:"staffId"`
	Date            string `json:"date"`
	ServiceDuration int    `json:"serviceDuration,omitempty"`
	ServiceName     string `json:"serviceName,omitempty"`
}

// AvailabilityResult always carries a non-nil Slots list.
type AvailabilityResult struct {
	Available       bool     `json:"available"`
	Slots           []string `json:"slots"`
	Date            string   `json:"date,omitempty"`
	StaffID         int64    `json:"staffId,omitempty"`
	StaffName       string   `json:"staffName,omitempty"`
	WorkingDays     []string `json:"workingDays,omitempty"`
	CalendarChecked bool     `json:"calendarChecked"`
	Error           *Failure `json:"error,omitempty"`
}

type TeamMember struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Specialty   string   `json:"specialty"`
	Bio         string   `json:"bio,omitempty"`
	Services    []string `json:"services"`
	WorkingDays []string `json:"workingDays"`
}

type TeamResult struct {
	Success bool         `json:"success"`
	Team    []TeamMember `json:"team,omitempty"`
	Error   *Failure     `json:"error,omitempty"`
}

type CreateAppointmentInput struct {
	PatientName  string `json:"patientName"`
	PatientEmail string `json:"patientEmail"`
	PatientPhone string `json:"patientPhone,omitempty"`
	ServiceID    int64  `json:"serviceId"`
	Service      string `json:"service"`
	StaffID      int64  `json:"staffId"`
	DateTime     string `json:"dateTime"`
	Notes        string `json:"notes,omitempty"`
}

type CreateAppointmentResult struct {
	Success       bool         `json:"success"`
	AppointmentID int64        `json:"appointmentId,omitempty"`
	Status        store.Status `json:"status,omitempty"`
	StaffName     string       `json:"staffName,omitempty"`
	Message       string       `json:"message,omitempty"`
	// OwnerNotified is false when the approver alert was skipped or failed;
	// the appointment stands either way.
	OwnerNotified bool     `json:"ownerNotified"`
	Error         *Failure `json:"error,omitempty"`
}

type PatientHistoryInput struct {
	Email string `json:"email"`
}

type PatientHistoryResult struct {
	Found                 bool                `json:"found"`
	IsNewPatient          bool                `json:"isNewPatient"`
	Patient               *store.Patient      `json:"patient,omitempty"`
	ActiveAppointments    []store.Appointment `json:"activeAppointments"`
	TotalPastAppointments int                 `json:"totalPastAppointments"`
	Message               string              `json:"message,omitempty"`
	Suggestion            string              `json:"suggestion,omitempty"`
	Error                 *Failure            `json:"error,omitempty"`
}

type SavePreferenceInput struct {
	Email      string `json:"email"`
	Preference string `json:"preference"`
}

type SavePreferenceResult struct {
	Success          bool     `json:"success"`
	Message          string   `json:"message,omitempty"`
	TotalPreferences int      `json:"totalPreferences,omitempty"`
	Error            *Failure `json:"error,omitempty"`
}

type KnowledgeInput struct {
	Query string `json:"query"`
}

type KnowledgeResult struct {
	Found   bool               `json:"found"`
	Results *knowledge.Results `json:"results,omitempty"`
	Error   *Failure           `json:"error,omitempty"`
}
