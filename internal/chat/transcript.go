package chat

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
)

// TranscriptStore writes every exchange and its trace to Postgres for
// later review.
type TranscriptStore struct {
	db     *sql.DB
	tracer trace.Tracer
	now    func() time.Time
}

func NewTranscriptStore(db *sql.DB) *TranscriptStore {
	if db == nil {
		panic("chat: database cannot be nil")
	}
	return &TranscriptStore{
		db:     db,
		tracer: otel.Tracer("dental.internal.chat.transcript"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Exchange is one user message with the agent's answer.
type Exchange struct {
	SessionID string
	UserText  string
	Reply     string
	Trace     *agent.Trace
}

func (s *TranscriptStore) Record(ctx context.Context, ex Exchange) error {
	ctx, span := s.tracer.Start(ctx, "chat.transcript.record")
	defer span.End()

	tr := ex.Trace
	if tr == nil {
		tr = &agent.Trace{Steps: []agent.Step{}, ToolsUsed: []string{}}
	}
	steps, err := json.Marshal(tr.Steps)
	if err != nil {
		return fmt.Errorf("chat: marshal trace steps: %w", err)
	}
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: begin transcript tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_sessions (session_id, message_count, started_at, last_message_at)
		VALUES ($1, 2, $2, $2)
		ON CONFLICT (session_id) DO UPDATE
		SET message_count = chat_sessions.message_count + 2, last_message_at = EXCLUDED.last_message_at`,
		ex.SessionID, now); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: upsert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, role, content, created_at)
		VALUES ($1, 'user', $2, $4), ($1, 'assistant', $3, $4)`,
		ex.SessionID, ex.UserText, ex.Reply, now); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: insert messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO agent_traces (session_id, total_steps, tools_used, steps, final_response, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ex.SessionID, tr.TotalSteps, pq.Array(tr.ToolsUsed), steps, tr.FinalResponse, now); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: insert trace: %w", err)
	}
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: commit transcript: %w", err)
	}
	return nil
}

// LatestTrace returns the newest trace for the session, or nil when none exists.
func (s *TranscriptStore) LatestTrace(ctx context.Context, sessionID string) (*agent.Trace, error) {
	ctx, span := s.tracer.Start(ctx, "chat.transcript.latest_trace")
	defer span.End()

	var (
		tr    agent.Trace
		steps []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT total_steps, tools_used, steps, final_response
		FROM agent_traces
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, sessionID).Scan(&tr.TotalSteps, pq.Array(&tr.ToolsUsed), &steps, &tr.FinalResponse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: load latest trace: %w", err)
	}
	if err := json.Unmarshal(steps, &tr.Steps); err != nil {
		return nil, fmt.Errorf("chat: decode trace steps: %w", err)
	}
	if tr.ToolsUsed == nil {
		tr.ToolsUsed = []string{}
	}
	return &tr, nil
}
