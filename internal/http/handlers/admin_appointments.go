package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// AppointmentLifecycle is the manager surface the admin endpoints use.
type AppointmentLifecycle interface {
	Transition(ctx context.Context, id int64, status store.Status) (*appointments.TransitionResult, error)
	ListPending(ctx context.Context) ([]store.Appointment, error)
}

// AdminAppointmentsHandler exposes manual status changes and the pending queue.
type AdminAppointmentsHandler struct {
	appointments AppointmentLifecycle
	logger       *logging.Logger
}

func NewAdminAppointmentsHandler(appts AppointmentLifecycle, logger *logging.Logger) *AdminAppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{appointments: appts, logger: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus handles POST /api/appointments/{id}/status.
func (h *AdminAppointmentsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	status := store.Status(strings.ToUpper(strings.TrimSpace(req.Status)))

	res, err := h.appointments.Transition(r.Context(), id, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "appointment not found", http.StatusNotFound)
		return
	case errors.Is(err, appointments.ErrInvalidTransition):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("failed to update appointment status", "appointment_id", id, "status", status, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListPending handles GET /api/appointments/pending.
func (h *AdminAppointmentsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.appointments.ListPending(r.Context())
	if err != nil {
		h.logger.Error("failed to list pending appointments", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if pending == nil {
		pending = []store.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": pending, "count": len(pending)})
}
