// Package chat carries patient messages to the agent over HTTP and
// websockets and keeps per-session history and traces.
package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
	"github.com/wolfman30/dental-booking-ai/pkg/logging"
)

const maxMessageLength = 4000

// Runner answers a message given the session history.
type Runner interface {
	Run(ctx context.Context, history []agent.Message, text string, onStep agent.StepFunc) (*agent.Trace, error)
}

// TranscriptRecorder persists exchanges for review. Optional.
type TranscriptRecorder interface {
	Record(ctx context.Context, ex Exchange) error
	LatestTrace(ctx context.Context, sessionID string) (*agent.Trace, error)
}

type Handler struct {
	runner      Runner
	history     HistoryStore
	transcripts TranscriptRecorder
	logger      *logging.Logger
}

// NewHandler builds a chat handler. A nil history store falls back to memory.
func NewHandler(runner Runner, history HistoryStore, transcripts TranscriptRecorder, logger *logging.Logger) *Handler {
	if runner == nil {
		panic("chat: runner required")
	}
	if history == nil {
		history = NewMemoryHistoryStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{runner: runner, history: history, transcripts: transcripts, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string       `json:"session_id"`
	Reply     string       `json:"reply"`
	Trace     *agent.Trace `json:"trace"`
}

// HandleChat answers one message synchronously.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if len(text) > maxMessageLength {
		writeError(w, http.StatusRequestEntityTooLarge, "message is too long")
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	tr, err := h.exchange(r.Context(), sessionID, text, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to process chat request")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Reply: tr.FinalResponse, Trace: tr})
}

// HandleTrace returns the latest trace for a session, or an empty one.
func (h *Handler) HandleTrace(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	tr, err := h.history.LoadTrace(r.Context(), sessionID)
	if err != nil {
		h.logger.Warn("chat: trace lookup failed", "session_id", sessionID, "error", err)
	}
	if tr == nil && h.transcripts != nil {
		if tr, err = h.transcripts.LatestTrace(r.Context(), sessionID); err != nil {
			h.logger.Error("chat: transcript trace lookup failed", "session_id", sessionID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load trace")
			return
		}
	}
	if tr == nil {
		tr = &agent.Trace{Steps: []agent.Step{}, ToolsUsed: []string{}}
	}
	writeJSON(w, http.StatusOK, tr)
}

// exchange runs the agent for one message and persists the outcome.
func (h *Handler) exchange(ctx context.Context, sessionID, text string, onStep agent.StepFunc) (*agent.Trace, error) {
	history, err := h.history.Load(ctx, sessionID)
	if err != nil {
		h.logger.Warn("chat: history unavailable, continuing without it", "session_id", sessionID, "error", err)
		history = nil
	}

	start := time.Now()
	tr, err := h.runner.Run(ctx, history, text, onStep)
	if err != nil {
		h.logger.Error("chat: agent run failed", "session_id", sessionID, "error", err)
		return tr, err
	}
	h.logger.Info("chat: message answered", "session_id", sessionID, "steps", tr.TotalSteps,
		"tools_used", tr.ToolsUsed, "duration_ms", time.Since(start).Milliseconds())

	if err := h.history.Append(ctx, sessionID,
		agent.Message{Role: agent.RoleUser, Content: text},
		agent.Message{Role: agent.RoleModel, Content: tr.FinalResponse},
	); err != nil {
		h.logger.Warn("chat: failed to save history", "session_id", sessionID, "error", err)
	}
	if err := h.history.SaveTrace(ctx, sessionID, tr); err != nil {
		h.logger.Warn("chat: failed to save trace", "session_id", sessionID, "error", err)
	}
	if h.transcripts != nil {
		if err := h.transcripts.Record(ctx, Exchange{SessionID: sessionID, UserText: text, Reply: tr.FinalResponse, Trace: tr}); err != nil {
			h.logger.Error("chat: failed to record transcript", "session_id", sessionID, "error", err)
		}
	}
	return tr, nil
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the widget receives.
type OutboundMessage struct {
	Type      string          `json:"type"` // "session", "typing", "step", "message", "history", "error", "pong"
	SessionID string          `json:"session_id,omitempty"`
	Text      string          `json:"text,omitempty"`
	Step      *agent.Step     `json:"step,omitempty"`
	Trace     *agent.Trace    `json:"trace,omitempty"`
	Messages  []agent.Message `json:"messages,omitempty"`
}

// HandleWebSocket streams trace steps while the agent works, then the reply.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if history, err := h.history.Load(ctx, sessionID); err == nil && len(history) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
	}
	h.logger.Info("chat: websocket opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat: websocket closed", "session_id", sessionID, "error", err)
			return
		}
		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		text := strings.TrimSpace(msg.Text)
		if msg.Type != "message" || text == "" {
			continue
		}
		if len(text) > maxMessageLength {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "message is too long"})
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})
		tr, err := h.exchange(ctx, sessionID, text, func(s agent.Step) {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "step", Step: &s})
		})
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
			continue
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "message", SessionID: sessionID, Text: tr.FinalResponse, Trace: tr})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
