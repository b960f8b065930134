package directory

import (
	"context"
	"errors"

	"github.com/goliatone/go-directory-cache/cache"
	"github.com/goliatone/go-directory-cache/client"
	"github.com/goliatone/go-directory-cache/entity"
	"github.com/goliatone/go-directory-cache/store"
)

// Service ties the remote API, the relational store, and the fetcher cache
// together: server confirmations flow into store mutators, collection
// refreshes flow through the read-through cache, and local writes invalidate
// the affected cache keys.
type Service struct {
	api   API
	store *store.Store
	cache cache.CacheService
	keys  cache.KeySerializer
	seq   *store.SequenceTracker
	logf  func(format string, args ...any)
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger installs a logging function. Nil disables logging.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(s *Service) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// New wires a Service from its collaborators.
func New(api API, st *store.Store, cacheService cache.CacheService, keys cache.KeySerializer, opts ...Option) *Service {
	s := &Service{
		api:   api,
		store: st,
		cache: cacheService,
		keys:  keys,
		seq:   store.NewSequenceTracker(),
		logf:  func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying relational store for snapshot reads and
// change subscriptions.
func (s *Service) Store() *store.Store { return s.store }

// Snapshot returns the current store snapshot.
func (s *Service) Snapshot() store.Snapshot { return s.store.Snapshot() }

// --- session lifecycle ------------------------------------------------------

// Bootstrap runs the session check and, when a session exists, seeds the
// store from the identity+graph payload in a single replacement with a
// single notification. On any failure the store ends up in the empty,
// unauthenticated state; it is never left partially populated.
func (s *Service) Bootstrap(ctx context.Context) (entity.Session, error) {
	payload, err := s.api.CheckSession(ctx)
	if err != nil {
		s.store.Reset()
		return entity.Session{}, err
	}
	return s.applySession(payload)
}

// Login authenticates and seeds the store from the returned payload.
func (s *Service) Login(ctx context.Context, creds client.Credentials) (entity.Session, error) {
	payload, err := s.api.Login(ctx, creds)
	if err != nil {
		s.store.Reset()
		return entity.Session{}, err
	}
	return s.applySession(payload)
}

// Signup registers a new user and seeds the store from the returned
// (typically empty) payload.
func (s *Service) Signup(ctx context.Context, creds client.Credentials) (entity.Session, error) {
	payload, err := s.api.Signup(ctx, creds)
	if err != nil {
		s.store.Reset()
		return entity.Session{}, err
	}
	return s.applySession(payload)
}

// Logout tears the session down on the server, then resets the store. A
// transport failure leaves the store (and the server session) unchanged so
// the caller can retry.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		var authErr *client.AuthError
		if !errors.As(err, &authErr) {
			return err
		}
		// already signed out server-side; fall through to the local reset
	}
	s.reset(ctx)
	return nil
}

func (s *Service) applySession(payload client.SessionPayload) (entity.Session, error) {
	if err := s.store.Load(payload.Session, payload.Patients, payload.Hospitals, payload.Departments); err != nil {
		s.store.Reset()
		return entity.Session{}, err
	}
	s.seq.Reset()
	s.logf("directory: session %d loaded", payload.Session.ID)
	return payload.Session, nil
}

func (s *Service) reset(ctx context.Context) {
	s.store.Reset()
	s.seq.Reset()
	_ = s.cache.DeleteByPrefix(ctx, keyHospitals)
	_ = s.cache.DeleteByPrefix(ctx, keyDepartments)
}

// --- detail reads -----------------------------------------------------------

// Patient fetches a single patient from the server. Detail reads bypass the
// cache and do not touch the store.
func (s *Service) Patient(ctx context.Context, id int) (entity.Patient, error) {
	return s.api.Patient(ctx, id)
}

// Hospital fetches a single hospital with its server-side patient embedding.
func (s *Service) Hospital(ctx context.Context, id int) (entity.Hospital, error) {
	return s.api.Hospital(ctx, id)
}

// Department fetches a single department with its server-side patient
// embedding.
func (s *Service) Department(ctx context.Context, id int) (entity.Department, error) {
	return s.api.Department(ctx, id)
}

// --- mutations --------------------------------------------------------------

// CreatePatient creates the patient on the server, then feeds the confirmed
// record into the store, which attaches it to (or creates) its hospital and
// department. A failed request leaves the store unchanged.
func (s *Service) CreatePatient(ctx context.Context, req client.PatientRequest) (entity.Patient, error) {
	p, err := s.api.CreatePatient(ctx, req)
	if err != nil {
		return entity.Patient{}, err
	}
	// The id exists only after the server assigns it; claim the first
	// sequence slot so a later update of this patient orders after the
	// create.
	seq := s.seq.Begin(store.KindPatient, p.ID)
	if s.seq.Admit(store.KindPatient, p.ID, seq) {
		if err := s.store.AddPatient(p); err != nil {
			return entity.Patient{}, err
		}
	}
	s.invalidateCollections(ctx)
	return p, nil
}

// UpdatePatient patches the patient on the server and applies the confirmed
// record to the store, unless a later-issued mutation for the same id has
// already been admitted, in which case the stale completion is dropped.
func (s *Service) UpdatePatient(ctx context.Context, id int, req client.PatientRequest) (entity.Patient, error) {
	seq := s.seq.Begin(store.KindPatient, id)
	p, err := s.api.UpdatePatient(ctx, id, req)
	if err != nil {
		return entity.Patient{}, err
	}
	if !s.seq.Admit(store.KindPatient, id, seq) {
		s.logf("directory: dropping superseded update for patient %d", id)
		return p, nil
	}
	if err := s.store.UpdatePatient(p); err != nil {
		return entity.Patient{}, err
	}
	s.invalidateCollections(ctx)
	return p, nil
}

// DeletePatient deletes the patient on the server, then removes it from the
// store, cascading emptied hospitals and departments per the store's policy.
func (s *Service) DeletePatient(ctx context.Context, id int) error {
	seq := s.seq.Begin(store.KindPatient, id)
	if err := s.api.DeletePatient(ctx, id); err != nil {
		return err
	}
	if !s.seq.Admit(store.KindPatient, id, seq) {
		s.logf("directory: dropping superseded delete for patient %d", id)
		return nil
	}
	if err := s.store.RemovePatient(id); err != nil {
		return err
	}
	s.invalidateCollections(ctx)
	return nil
}

// CreateHospital creates the hospital on the server and inserts the
// confirmed record into the store with an empty patient embedding.
func (s *Service) CreateHospital(ctx context.Context, req client.HospitalRequest) (entity.Hospital, error) {
	h, err := s.api.CreateHospital(ctx, req)
	if err != nil {
		return entity.Hospital{}, err
	}
	if err := s.store.AddHospital(h); err != nil {
		return entity.Hospital{}, err
	}
	_ = s.cache.DeleteByPrefix(ctx, keyHospitals)
	return h, nil
}

// CreateDepartment creates the department on the server and inserts the
// confirmed record into the store.
func (s *Service) CreateDepartment(ctx context.Context, req client.DepartmentRequest) (entity.Department, error) {
	d, err := s.api.CreateDepartment(ctx, req)
	if err != nil {
		return entity.Department{}, err
	}
	if err := s.store.AddDepartment(d); err != nil {
		return entity.Department{}, err
	}
	_ = s.cache.DeleteByPrefix(ctx, keyDepartments)
	return d, nil
}

// invalidateCollections drops both collection keys: a patient mutation can
// create, empty, or re-home groups in either collection.
func (s *Service) invalidateCollections(ctx context.Context) {
	_ = s.cache.DeleteByPrefix(ctx, keyHospitals)
	_ = s.cache.DeleteByPrefix(ctx, keyDepartments)
}
