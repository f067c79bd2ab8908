package appointments

import (
	"errors"
	"fmt"

	"github.com/wolfman30/dental-booking-ai/internal/store"
)

var (
	// ErrInvalidPair means the staff member is not mapped to the service.
	ErrInvalidPair = fmt.Errorf("appointments: staff/service pair %w", store.ErrNotFound)

	// ErrInvalidTransition is returned for status changes the lifecycle does not allow.
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrInvalidInput wraps missing or malformed booking fields.
	ErrInvalidInput = errors.New("appointments: invalid input")
)
