package directory

import (
	"context"

	"github.com/goliatone/go-directory-cache/cache"
	"github.com/goliatone/go-directory-cache/entity"
)

// Collection cache key prefixes. Writes invalidate by prefix so every
// variant of a collection key is dropped together.
const (
	keyHospitals   = "Hospitals"
	keyDepartments = "Departments"
)

// RefreshHospitals replaces the store's hospitals collection with the flat
// server list, served read-through from the fetcher cache. This path does
// not reconcile patient embeddings; callers interleaving it with patient
// mutations should refresh again afterwards. A failed fetch leaves the store
// unchanged.
func (s *Service) RefreshHospitals(ctx context.Context) ([]entity.Hospital, error) {
	key := s.keys.SerializeKey(keyHospitals)
	hospitals, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) ([]entity.Hospital, error) {
		s.logf("directory: fetching hospitals")
		return s.api.Hospitals(ctx)
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceHospitals(hospitals); err != nil {
		return nil, err
	}
	return hospitals, nil
}

// RefreshDepartments replaces the store's departments collection with the
// flat server list, served read-through from the fetcher cache. Same
// consistency caveat as RefreshHospitals.
func (s *Service) RefreshDepartments(ctx context.Context) ([]entity.Department, error) {
	key := s.keys.SerializeKey(keyDepartments)
	departments, err := cache.GetOrFetch(ctx, s.cache, key, func(ctx context.Context) ([]entity.Department, error) {
		s.logf("directory: fetching departments")
		return s.api.Departments(ctx)
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceDepartments(departments); err != nil {
		return nil, err
	}
	return departments, nil
}
