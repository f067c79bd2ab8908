package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dental-booking-ai/internal/agent"
)

const (
	sessionTTL = 24 * time.Hour
	// maxHistory bounds the turns replayed to the model.
	maxHistory = 40
)

// HistoryStore keeps per-session chat turns and the latest agent trace.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]agent.Message, error)
	Append(ctx context.Context, sessionID string, msgs ...agent.Message) error
	SaveTrace(ctx context.Context, sessionID string, tr *agent.Trace) error
	// LoadTrace returns nil when the session has no trace yet.
	LoadTrace(ctx context.Context, sessionID string) (*agent.Trace, error)
}

// RedisHistoryStore keeps sessions in Redis with a sliding 24h expiry.
type RedisHistoryStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

func NewRedisHistoryStore(client *redis.Client) *RedisHistoryStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	return &RedisHistoryStore{redis: client, tracer: otel.Tracer("dental.internal.chat.history")}
}

func historyKey(sessionID string) string { return fmt.Sprintf("chat:history:%s", sessionID) }
func traceKey(sessionID string) string   { return fmt.Sprintf("chat:trace:%s", sessionID) }

func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]agent.Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_history")
	defer span.End()

	raw, err := s.redis.LRange(ctx, historyKey(sessionID), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load history: %w", err)
	}
	out := make([]agent.Message, 0, len(raw))
	for _, item := range raw {
		var msg agent.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("chat: failed to decode history: %w", err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, msgs ...agent.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "chat.append_history")
	defer span.End()

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("chat: failed to marshal message: %w", err)
		}
		values = append(values, data)
	}
	key := historyKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -maxHistory, -1)
	pipe.Expire(ctx, key, sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) SaveTrace(ctx context.Context, sessionID string, tr *agent.Trace) error {
	ctx, span := s.tracer.Start(ctx, "chat.save_trace")
	defer span.End()

	data, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("chat: failed to marshal trace: %w", err)
	}
	if err := s.redis.Set(ctx, traceKey(sessionID), data, sessionTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist trace: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) LoadTrace(ctx context.Context, sessionID string) (*agent.Trace, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_trace")
	defer span.End()

	data, err := s.redis.Get(ctx, traceKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load trace: %w", err)
	}
	var tr agent.Trace
	if err := json.Unmarshal(data, &tr); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode trace: %w", err)
	}
	return &tr, nil
}

// MemoryHistoryStore is the in-process fallback used without Redis.
type MemoryHistoryStore struct {
	mu      sync.RWMutex
	history map[string][]agent.Message
	traces  map[string]agent.Trace
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		history: make(map[string][]agent.Message),
		traces:  make(map[string]agent.Trace),
	}
}

func (m *MemoryHistoryStore) Load(_ context.Context, sessionID string) ([]agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]agent.Message{}, m.history[sessionID]...), nil
}

func (m *MemoryHistoryStore) Append(_ context.Context, sessionID string, msgs ...agent.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := append(m.history[sessionID], msgs...)
	if len(h) > maxHistory {
		h = append([]agent.Message(nil), h[len(h)-maxHistory:]...)
	}
	m.history[sessionID] = h
	return nil
}

func (m *MemoryHistoryStore) SaveTrace(_ context.Context, sessionID string, tr *agent.Trace) error {
	if tr == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[sessionID] = *tr
	return nil
}

func (m *MemoryHistoryStore) LoadTrace(_ context.Context, sessionID string) (*agent.Trace, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tr, ok := m.traces[sessionID]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}
