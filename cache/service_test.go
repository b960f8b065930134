package cache

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-directory-cache/entity"
)

// fakeCacheService records calls and serves canned values.
type fakeCacheService struct {
	values     map[string]any
	fetchCalls []string
	deleted    []string
	prefixes   []string
	err        error
}

func newFakeCacheService() *fakeCacheService {
	return &fakeCacheService{values: map[string]any{}}
}

func (f *fakeCacheService) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	f.fetchCalls = append(f.fetchCalls, key)
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	f.values[key] = v
	return v, nil
}

func (f *fakeCacheService) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.values, key)
	return nil
}

func (f *fakeCacheService) DeleteByPrefix(ctx context.Context, prefix string) error {
	f.prefixes = append(f.prefixes, prefix)
	for k := range f.values {
		if strings.HasPrefix(k, prefix) {
			delete(f.values, k)
		}
	}
	return nil
}

func TestGetOrFetchTyped(t *testing.T) {
	svc := newFakeCacheService()
	ctx := context.Background()

	want := []entity.Hospital{{ID: 1, Name: "General"}}
	got, err := GetOrFetch(ctx, svc, "Hospitals", func(context.Context) ([]entity.Hospital, error) {
		return want, nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "General" {
		t.Fatalf("unexpected value: %+v", got)
	}

	// second read served from the cache, fetch not invoked
	got, err = GetOrFetch(ctx, svc, "Hospitals", func(context.Context) ([]entity.Hospital, error) {
		t.Fatal("fetch should not run on a warm key")
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected cached value: %+v", got)
	}
	if len(svc.fetchCalls) != 1 {
		t.Fatalf("expected one fetch, got %v", svc.fetchCalls)
	}
}

func TestGetOrFetchPropagatesError(t *testing.T) {
	svc := newFakeCacheService()
	svc.err = errors.New("cache down")

	_, err := GetOrFetch(context.Background(), svc, "Hospitals", func(context.Context) (int, error) {
		return 0, nil
	})
	if !errors.Is(err, svc.err) {
		t.Fatalf("expected cache error, got %v", err)
	}
}

func TestGetOrFetchTypeMismatch(t *testing.T) {
	svc := newFakeCacheService()
	svc.values["Hospitals"] = "not a slice"

	_, err := GetOrFetch(context.Background(), svc, "Hospitals", func(context.Context) ([]entity.Hospital, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.EarlyRefresh == nil {
		t.Fatal("default config should enable early refresh")
	}

	cfg.Capacity = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero capacity")
	}
}

func TestNewCacheService(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService failed: %v", err)
	}
	if svc == nil {
		t.Fatal("expected a cache service")
	}

	if _, err := NewCacheService(Config{}); err == nil {
		t.Fatal("expected error for invalid config")
	}
}
