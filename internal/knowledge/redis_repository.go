package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	documentKey = "kb:document"
	versionKey  = "kb:document:ver"
)

// RedisRepository stores an override knowledge document as JSON.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	if client == nil {
		panic("knowledge: redis client cannot be nil")
	}
	return &RedisRepository{client: client}
}

// Load returns nil, nil when no override is stored.
func (r *RedisRepository) Load(ctx context.Context) (*Base, error) {
	raw, err := r.client.Get(ctx, documentKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("knowledge: get document: %w", err)
	}
	var b Base
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("knowledge: decode document: %w", err)
	}
	return &b, nil
}

// Replace stores b and bumps the version, returning the new version.
func (r *RedisRepository) Replace(ctx context.Context, b *Base) (int64, error) {
	if err := b.Validate(); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return 0, fmt.Errorf("knowledge: encode document: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, documentKey, raw, 0)
	ver := pipe.Incr(ctx, versionKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("knowledge: replace document: %w", err)
	}
	return ver.Val(), nil
}

// Reset removes the override so the built-in document applies again.
func (r *RedisRepository) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, documentKey).Err(); err != nil {
		return fmt.Errorf("knowledge: delete document: %w", err)
	}
	return nil
}

// Version returns the override version, zero when never set.
func (r *RedisRepository) Version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, versionKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("knowledge: get version: %w", err)
	}
	return v, nil
}
