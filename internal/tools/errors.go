package tools

import (
	"errors"

	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/store"
)

// ErrorType is the failure taxonomy shared by every tool.
type ErrorType string

const (
	ErrorNotFound        ErrorType = "NOT_FOUND"
	ErrorNoSlots         ErrorType = "NO_SLOTS"
	ErrorStaffNotWorking ErrorType = "STAFF_NOT_WORKING"
	ErrorValidation      ErrorType = "VALIDATION_ERROR"
	ErrorAPI             ErrorType = "API_ERROR"
	ErrorDatabase        ErrorType = "DATABASE_ERROR"
)

// Failure is the error half of a tool result. A nil Failure means the call
// succeeded.
type Failure struct {
	ErrorType  ErrorType `json:"errorType"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	Retryable  bool      `json:"retryable"`
}

func notFound(message, suggestion string) *Failure {
	return &Failure{ErrorType: ErrorNotFound, Message: message, Suggestion: suggestion}
}

func invalid(message, suggestion string) *Failure {
	return &Failure{ErrorType: ErrorValidation, Message: message, Suggestion: suggestion}
}

func (s *Service) databaseFailure(message string) *Failure {
	return &Failure{
		ErrorType:  ErrorDatabase,
		Message:    message,
		Suggestion: s.callClinic(),
		Retryable:  true,
	}
}

func (s *Service) callClinic() string {
	return "Please try again or call the clinic directly at " + s.cfg.ClinicPhone
}

// classify maps domain errors onto the taxonomy. Anything unrecognised is a
// store fault.
func (s *Service) classify(err error, message, notFoundSuggestion string) *Failure {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound(message, notFoundSuggestion)
	case errors.Is(err, appointments.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidAppointment):
		return invalid(err.Error(), "Ask the patient to confirm their details")
	default:
		return s.databaseFailure(message)
	}
}
