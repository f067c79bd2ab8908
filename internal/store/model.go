package store

import (
	"strings"
	"time"
)

// Category groups services for presentation.
type Category string

const (
	CategoryPreventive  Category = "Preventive"
	CategoryAesthetic   Category = "Aesthetic"
	CategoryRestorative Category = "Restorative"
	CategoryEndodontics Category = "Endodontics"
	CategorySurgery     Category = "Surgery"
)

// Staff is a bookable clinician.
type Staff struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	Specialty    string       `json:"specialty"`
	Bio          string       `json:"bio,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
	WorkingHours WorkingHours `json:"workingHours"`
	Active       bool         `json:"active"`
}

// Service is a treatment offered by the clinic.
type Service struct {
	ID              int64    `json:"id"`
	Name            string   `json:"name"`
	LocalizedName   string   `json:"localizedName,omitempty"`
	Description     string   `json:"description,omitempty"`
	DurationMinutes int      `json:"durationMinutes"`
	Price           string   `json:"price,omitempty"`
	Category        Category `json:"category"`
	Active          bool     `json:"active"`
}

// Validate checks the service invariants enforced on write.
func (s *Service) Validate() error {
	if s == nil || strings.TrimSpace(s.Name) == "" || s.DurationMinutes <= 0 {
		return ErrInvalidService
	}
	return nil
}

// Status is the appointment state machine position.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDeclined, StatusCancelled:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status blocks its slot.
func (s Status) Occupies() bool {
	return s == StatusPending || s == StatusApproved
}

// Appointment is a booking request. End time is derived from the service
// duration and never stored.
type Appointment struct {
	ID           int64     `json:"id"`
	PatientName  string    `json:"patientName"`
	PatientEmail string    `json:"patientEmail"`
	PatientPhone string    `json:"patientPhone,omitempty"`
	ServiceID    int64     `json:"serviceId,omitempty"`
	ServiceName  string    `json:"serviceName"`
	StaffID      int64     `json:"staffId,omitempty"`
	StartsAt     time.Time `json:"dateTime"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// DurationMinutes is the referenced service's duration at read time; zero when unknown.
	DurationMinutes int `json:"durationMinutes,omitempty"`
}

// Validate checks required fields before insert.
func (a *Appointment) Validate() error {
	if a == nil || strings.TrimSpace(a.PatientName) == "" || strings.TrimSpace(a.PatientEmail) == "" ||
		strings.TrimSpace(a.ServiceName) == "" || a.StartsAt.IsZero() {
		return ErrInvalidAppointment
	}
	return nil
}

// Patient is the long-lived preference and interaction record keyed by email.
type Patient struct {
	Email           string    `json:"email"`
	Name            string    `json:"name,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Preferences     []string  `json:"preferences"`
	Interests       []string  `json:"interests"`
	Converted       bool      `json:"converted"`
	LastInteraction time.Time `json:"lastInteraction"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PatientUpdate carries optional contact fields; empty values keep the stored ones.
type PatientUpdate struct {
	Name  string
	Phone string
}

// NormalizeEmail is the canonical key form for patient records.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
