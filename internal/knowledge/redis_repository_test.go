package knowledge

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRepo(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client), mr
}

func TestRedisRepository_LoadEmpty(t *testing.T) {
	repo, _ := newTestRepo(t)
	b, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil document, got %+v", b)
	}
	v, err := repo.Version(context.Background())
	if err != nil || v != 0 {
		t.Fatalf("version = %d, err = %v", v, err)
	}
}

func TestRedisRepository_ReplaceAndReset(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	doc := Default()
	doc.Clinic.Phone = "(555) 000-0000"
	v, err := repo.Replace(ctx, doc)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}
	if v, _ = repo.Replace(ctx, doc); v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.Clinic.Phone != "(555) 000-0000" {
		t.Fatalf("loaded = %+v", got)
	}

	if err := repo.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got, _ = repo.Load(ctx); got != nil {
		t.Fatalf("expected override removed, got %+v", got)
	}
}

func TestRedisRepository_RejectsInvalid(t *testing.T) {
	repo, _ := newTestRepo(t)
	if _, err := repo.Replace(context.Background(), &Base{}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRedisRepository_CorruptDocument(t *testing.T) {
	repo, mr := newTestRepo(t)
	if err := mr.Set(documentKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewRedisRepository_PanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewRedisRepository(nil)
}
