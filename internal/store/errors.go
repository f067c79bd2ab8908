package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the root of every lookup miss in this package.
	ErrNotFound = errors.New("store: not found")

	ErrStaffNotFound       = fmt.Errorf("staff %w", ErrNotFound)
	ErrServiceNotFound     = fmt.Errorf("service %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
	ErrPatientNotFound     = fmt.Errorf("patient %w", ErrNotFound)

	// ErrInvalidWorkingHours is returned when a staff schedule fails validation on write.
	ErrInvalidWorkingHours = errors.New("store: invalid working hours")

	// ErrInvalidService is returned when a service has no name or a non-positive duration.
	ErrInvalidService = errors.New("store: invalid service")

	// ErrInvalidAppointment is returned when required appointment fields are missing.
	ErrInvalidAppointment = errors.New("store: invalid appointment")
)
