package store

import (
	"context"
	"time"
)

// StaffRepository reads and writes clinicians and their capability map.
type StaffRepository interface {
	ListStaff(ctx context.Context) ([]Staff, error)
	GetStaff(ctx context.Context, id int64) (*Staff, error)
	CreateStaff(ctx context.Context, staff *Staff) error
	AssignService(ctx context.Context, staffID, serviceID int64) error
	StaffForService(ctx context.Context, serviceID int64) ([]Staff, error)
	ServicesForStaff(ctx context.Context, staffID int64) ([]Service, error)
	CanPerform(ctx context.Context, staffID, serviceID int64) (bool, error)
}

// ServiceRepository reads and writes the treatment catalog.
type ServiceRepository interface {
	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id int64) (*Service, error)
	CreateService(ctx context.Context, svc *Service) error
}

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appt *Appointment) error
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id int64, status Status) (*Appointment, error)
	// ListOccupying returns PENDING and APPROVED appointments for the staff
	// member starting in [from, to).
	ListOccupying(ctx context.Context, staffID int64, from, to time.Time) ([]Appointment, error)
	ListAppointmentsByEmail(ctx context.Context, email string) ([]Appointment, error)
	ListAppointmentsByStatus(ctx context.Context, status Status) ([]Appointment, error)
}

// PatientRepository persists patient preference and interaction records.
type PatientRepository interface {
	// TouchPatient records an interaction, creating the record when absent.
	TouchPatient(ctx context.Context, email string) (created bool, err error)
	GetPatient(ctx context.Context, email string) (*Patient, error)
	UpsertPatient(ctx context.Context, email string, upd PatientUpdate) error
	AppendPreference(ctx context.Context, email, preference string) (int, error)
	AddInterest(ctx context.Context, email, interest string) error
	MarkConverted(ctx context.Context, email string) error
	ListPatientsForReengagement(ctx context.Context, idleSince time.Time) ([]Patient, error)
}

// Store is the full Domain Store.
type Store interface {
	StaffRepository
	ServiceRepository
	AppointmentRepository
	PatientRepository
}
