// Package approval turns the clinic owner's Telegram button presses into
// appointment status changes.
package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/dental-booking-ai/internal/appointments"
	"github.com/wolfman30/dental-booking-ai/internal/notify"
	"github.com/wolfman30/dental-booking-ai/internal/store"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

// Transitioner applies lifecycle changes.
type Transitioner interface {
	Transition(ctx context.Context, id int64, status store.Status) (*appointments.TransitionResult, error)
}

// Responder updates the owner's Telegram chat after a decision.
type Responder interface {
	EditMessage(ctx context.Context, chatID string, messageID int64, text string) notify.SendResult
	AnswerCallback(ctx context.Context, callbackID, text string) notify.SendResult
}

// Update is the subset of a Telegram update the webhook reads.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

type CallbackQuery struct {
	ID      string           `json:"id"`
	Data    string           `json:"data"`
	Message *CallbackMessage `json:"message,omitempty"`
}

type CallbackMessage struct {
	MessageID int64 `json:"message_id"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

var errMalformedCallback = errors.New("approval: malformed callback data")

// ParseCallbackData splits "<action>:<appointment id>".
func ParseCallbackData(data string) (store.Status, int64, error) {
	action, rawID, ok := strings.Cut(strings.TrimSpace(data), ":")
	if !ok {
		return "", 0, errMalformedCallback
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("%w: id %q", errMalformedCallback, rawID)
	}
	switch action {
	case notify.ActionApprove:
		return store.StatusApproved, id, nil
	case notify.ActionDecline:
		return store.StatusDeclined, id, nil
	default:
		return "", 0, fmt.Errorf("%w: action %q", errMalformedCallback, action)
	}
}

// WebhookHandler serves POST /api/telegram/webhook.
type WebhookHandler struct {
	appointments Transitioner
	owner        Responder
	logger       *logging.Logger
}

func NewWebhookHandler(appts Transitioner, owner Responder, logger *logging.Logger) *WebhookHandler {
	if appts == nil {
		panic("approval: transitioner required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{appointments: appts, owner: owner, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid update"})
		return
	}
	if update.CallbackQuery == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	if err := h.handleCallback(r.Context(), update.CallbackQuery); err != nil {
		h.logger.Error("telegram webhook failed", "update_id", update.UpdateID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to process webhook"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *WebhookHandler) handleCallback(ctx context.Context, cb *CallbackQuery) error {
	status, id, err := ParseCallbackData(cb.Data)
	if err != nil {
		// Unknown buttons are acknowledged so Telegram stops retrying.
		h.logger.Warn("ignoring callback", "data", cb.Data, "error", err)
		h.answer(ctx, cb, "")
		return nil
	}

	res, err := h.appointments.Transition(ctx, id, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Warn("callback for unknown appointment", "appointment_id", id)
		h.answer(ctx, cb, "Appointment not found")
		return nil
	case errors.Is(err, appointments.ErrInvalidTransition):
		h.logger.Warn("callback rejected", "appointment_id", id, "status", status, "error", err)
		h.answer(ctx, cb, "This appointment was already handled")
		return nil
	case err != nil:
		return fmt.Errorf("approval: transition %d: %w", id, err)
	}

	h.logger.Info("owner decision applied", "appointment_id", id, "status", status, "changed", res.Changed)
	if cb.Message != nil && h.owner != nil {
		chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
		h.owner.EditMessage(ctx, chatID, cb.Message.MessageID, decisionText(status, res.Appointment.PatientName))
	}
	h.answer(ctx, cb, "")
	return nil
}

func (h *WebhookHandler) answer(ctx context.Context, cb *CallbackQuery, text string) {
	if h.owner == nil || cb.ID == "" {
		return
	}
	h.owner.AnswerCallback(ctx, cb.ID, text)
}

func decisionText(status store.Status, patient string) string {
	name := notify.EscapeMarkdown(patient)
	if status == store.StatusApproved {
		return fmt.Sprintf("✅ *Approved*\n\nAppointment for %s has been confirmed.", name)
	}
	return fmt.Sprintf("❌ *Declined*\n\nAppointment for %s has been declined.", name)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
