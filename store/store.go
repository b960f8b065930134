package store

import (
	"sync"

	"github.com/goliatone/go-directory-cache/entity"
)

// state is the normalized in-memory representation of the directory graph.
// Patients are stored once, keyed by id; the hospital and department patient
// embeddings exist only as ordered id indexes and are materialized on
// snapshot. This removes the need to keep embedded copies in sync across
// collections.
type state struct {
	session     *entity.Session
	patients    map[int]entity.Patient
	hospitals   map[int]entity.Hospital
	departments map[int]entity.Department

	// insertion order per collection
	patientOrder    []int
	hospitalOrder   []int
	departmentOrder []int

	// group id -> ordered patient ids
	hospitalIndex   map[int][]int
	departmentIndex map[int][]int
}

func newState() state {
	return state{
		patients:        make(map[int]entity.Patient),
		hospitals:       make(map[int]entity.Hospital),
		departments:     make(map[int]entity.Department),
		hospitalIndex:   make(map[int][]int),
		departmentIndex: make(map[int][]int),
	}
}

// Store holds the current user's patients, hospitals, and departments as a
// consistency-preserving mirror of the directory service. It has one writer
// role (the mutator methods) and many reader roles (Snapshot and notified
// subscribers); all mutations are serialized behind a mutex so the store is
// safe for parallel callers.
type Store struct {
	mu  sync.RWMutex
	dmu sync.Mutex // serializes notification delivery across mutations
	cfg Config
	st  state

	subs *subscriberSet
}

// New constructs an empty, unauthenticated store.
func New(cfg Config) *Store {
	return &Store{
		cfg:  cfg,
		st:   newState(),
		subs: newSubscriberSet(),
	}
}

// Snapshot returns an immutable copy of the three collections plus session,
// with hospital and department patient embeddings materialized in insertion
// order.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.snapshot()
}

// commit runs a mutation, materializes the resulting snapshot, and delivers
// it to subscribers. Delivery order follows mutation order: the delivery
// mutex is taken before the state lock is released so a later mutation can
// not overtake an earlier notification.
func (s *Store) commit(fn func(*state) error) error {
	s.mu.Lock()
	if err := fn(&s.st); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.st.snapshot()
	s.dmu.Lock()
	s.mu.Unlock()
	s.subs.deliver(snap)
	s.dmu.Unlock()
	return nil
}

// Load replaces the entire store with a server snapshot: session identity,
// the user's patients, and the hospital/department collections. The new
// state is assembled off to the side and swapped in whole, so a malformed
// payload never leaves the store partially populated. Exactly one
// notification is delivered.
func (s *Store) Load(sess entity.Session, patients []entity.Patient, hospitals []entity.Hospital, departments []entity.Department) error {
	next := newState()
	next.session = &entity.Session{ID: sess.ID, Name: sess.Name}
	if err := ingestHospitals(&next, hospitals); err != nil {
		return err
	}
	if err := ingestDepartments(&next, departments); err != nil {
		return err
	}
	for _, p := range patients {
		if err := p.Validate(); err != nil {
			return contractErr("patient", err)
		}
		addPatient(&next, p)
	}
	sweep(&next)
	s.cfg.logf("store: loaded session %d (%d patients, %d hospitals, %d departments)",
		sess.ID, len(next.patientOrder), len(next.hospitalOrder), len(next.departmentOrder))
	return s.commit(func(st *state) error {
		*st = next
		return nil
	})
}

// ReplaceHospitals swaps the hospitals collection for a flat server-fetched
// list. This is the lower-consistency path: embedded patient lists are taken
// as the server supplied them and are not reconciled against the tracked
// patients collection.
func (s *Store) ReplaceHospitals(hospitals []entity.Hospital) error {
	return s.commit(func(st *state) error {
		staged := *st
		staged.patients = clonePatientMap(st.patients)
		staged.hospitals = make(map[int]entity.Hospital)
		staged.hospitalOrder = nil
		staged.hospitalIndex = make(map[int][]int)
		if err := ingestHospitals(&staged, hospitals); err != nil {
			return err
		}
		sweep(&staged)
		*st = staged
		return nil
	})
}

// ReplaceDepartments swaps the departments collection for a flat
// server-fetched list. Same consistency caveat as ReplaceHospitals.
func (s *Store) ReplaceDepartments(departments []entity.Department) error {
	return s.commit(func(st *state) error {
		staged := *st
		staged.patients = clonePatientMap(st.patients)
		staged.departments = make(map[int]entity.Department)
		staged.departmentOrder = nil
		staged.departmentIndex = make(map[int][]int)
		if err := ingestDepartments(&staged, departments); err != nil {
			return err
		}
		sweep(&staged)
		*st = staged
		return nil
	})
}

// AddPatient inserts a patient into the tracked collection and attaches it to
// its hospital and department, creating either group from the patient's
// embedded reference when absent. Adding an id that is already tracked is a
// no-op on the collections. The operation is idempotent per id and
// order-independent across distinct ids.
func (s *Store) AddPatient(p entity.Patient) error {
	if err := p.Validate(); err != nil {
		return contractErr("patient", err)
	}
	return s.commit(func(st *state) error {
		addPatient(st, p)
		return nil
	})
}

// AddHospital inserts a hospital by id, or ignores it when already present.
// The patient embedding of a new hospital defaults to empty; existing
// embeddings are never touched by this operation.
func (s *Store) AddHospital(h entity.Hospital) error {
	if err := h.Validate(); err != nil {
		return contractErr("hospital", err)
	}
	return s.commit(func(st *state) error {
		if _, ok := st.hospitals[h.ID]; ok {
			return nil
		}
		st.hospitals[h.ID] = entity.Hospital{ID: h.ID, Name: h.Name, PhoneNumber: h.PhoneNumber}
		st.hospitalOrder = append(st.hospitalOrder, h.ID)
		return nil
	})
}

// AddDepartment inserts a department by id, or ignores it when already
// present.
func (s *Store) AddDepartment(d entity.Department) error {
	if err := d.Validate(); err != nil {
		return contractErr("department", err)
	}
	return s.commit(func(st *state) error {
		if _, ok := st.departments[d.ID]; ok {
			return nil
		}
		st.departments[d.ID] = entity.Department{ID: d.ID, Name: d.Name}
		st.departmentOrder = append(st.departmentOrder, d.ID)
		return nil
	})
}

// UpdatePatient replaces a tracked patient's record in place, re-homing it
// across hospital and department embeddings when its references changed. A
// group vacated by the move follows the same cascade policy as RemovePatient.
// Updating an id that is not tracked falls back to AddPatient semantics,
// since the server has confirmed the record exists.
func (s *Store) UpdatePatient(p entity.Patient) error {
	if err := p.Validate(); err != nil {
		return contractErr("patient", err)
	}
	return s.commit(func(st *state) error {
		if !containsID(st.patientOrder, p.ID) {
			addPatient(st, p)
			return nil
		}
		old := st.patients[p.ID]
		st.patients[p.ID] = p

		if old.Hospital.ID != p.Hospital.ID {
			s.detachFromHospital(st, old.Hospital.ID, p.ID)
			attachToHospital(st, p)
		}
		if old.Department.ID != p.Department.ID {
			s.detachFromDepartment(st, old.Department.ID, p.ID)
			attachToDepartment(st, p)
		}
		return nil
	})
}

// RemovePatient removes the patient with the given id from the tracked
// collection and from every group embedding. Under the default cascade
// policy, a hospital or department emptied by the removal is dropped from
// its collection (see Config.RetainEmptyGroups). Removing an unknown id is a
// no-op.
func (s *Store) RemovePatient(id int) error {
	return s.commit(func(st *state) error {
		if !containsID(st.patientOrder, id) {
			return nil
		}
		st.patientOrder = removeID(st.patientOrder, id)
		for hid, ids := range st.hospitalIndex {
			if containsID(ids, id) {
				st.hospitalIndex[hid] = removeID(ids, id)
				s.cascadeHospital(st, hid)
			}
		}
		for did, ids := range st.departmentIndex {
			if containsID(ids, id) {
				st.departmentIndex[did] = removeID(ids, id)
				s.cascadeDepartment(st, did)
			}
		}
		delete(st.patients, id)
		return nil
	})
}

// Reset clears all three collections and the session, returning the store to
// the empty, unauthenticated state. Used on logout and failed session checks.
func (s *Store) Reset() {
	s.cfg.logf("store: reset")
	_ = s.commit(func(st *state) error {
		*st = newState()
		return nil
	})
}

// --- internal mutation helpers ---------------------------------------------

// addPatient implements the insert-or-ignore patient mutation against a state
// value. The caller holds the write lock (or owns the state exclusively).
func addPatient(st *state, p entity.Patient) {
	if containsID(st.patientOrder, p.ID) {
		return
	}
	st.patients[p.ID] = p
	st.patientOrder = append(st.patientOrder, p.ID)
	attachToHospital(st, p)
	attachToDepartment(st, p)
}

func attachToHospital(st *state, p entity.Patient) {
	hid := p.Hospital.ID
	if _, ok := st.hospitals[hid]; !ok {
		st.hospitals[hid] = entity.Hospital{ID: hid, Name: p.Hospital.Name}
		st.hospitalOrder = append(st.hospitalOrder, hid)
	}
	if !containsID(st.hospitalIndex[hid], p.ID) {
		st.hospitalIndex[hid] = append(st.hospitalIndex[hid], p.ID)
	}
}

func attachToDepartment(st *state, p entity.Patient) {
	did := p.Department.ID
	if _, ok := st.departments[did]; !ok {
		st.departments[did] = entity.Department{ID: did, Name: p.Department.Name}
		st.departmentOrder = append(st.departmentOrder, did)
	}
	if !containsID(st.departmentIndex[did], p.ID) {
		st.departmentIndex[did] = append(st.departmentIndex[did], p.ID)
	}
}

func (s *Store) detachFromHospital(st *state, hid, pid int) {
	ids, ok := st.hospitalIndex[hid]
	if !ok || !containsID(ids, pid) {
		return
	}
	st.hospitalIndex[hid] = removeID(ids, pid)
	s.cascadeHospital(st, hid)
}

func (s *Store) detachFromDepartment(st *state, did, pid int) {
	ids, ok := st.departmentIndex[did]
	if !ok || !containsID(ids, pid) {
		return
	}
	st.departmentIndex[did] = removeID(ids, pid)
	s.cascadeDepartment(st, did)
}

func (s *Store) cascadeHospital(st *state, hid int) {
	if s.cfg.RetainEmptyGroups || len(st.hospitalIndex[hid]) > 0 {
		return
	}
	delete(st.hospitals, hid)
	delete(st.hospitalIndex, hid)
	st.hospitalOrder = removeID(st.hospitalOrder, hid)
}

func (s *Store) cascadeDepartment(st *state, did int) {
	if s.cfg.RetainEmptyGroups || len(st.departmentIndex[did]) > 0 {
		return
	}
	delete(st.departments, did)
	delete(st.departmentIndex, did)
	st.departmentOrder = removeID(st.departmentOrder, did)
}

// ingestHospitals seeds the hospitals collection from server records,
// insert-or-ignore by id, keeping each record's embedded patients as the
// group index.
func ingestHospitals(st *state, hospitals []entity.Hospital) error {
	for _, h := range hospitals {
		if err := h.Validate(); err != nil {
			return contractErr("hospital", err)
		}
		if _, ok := st.hospitals[h.ID]; ok {
			continue
		}
		st.hospitals[h.ID] = entity.Hospital{ID: h.ID, Name: h.Name, PhoneNumber: h.PhoneNumber}
		st.hospitalOrder = append(st.hospitalOrder, h.ID)
		for _, p := range h.Patients {
			if err := p.Validate(); err != nil {
				return contractErr("patient", err)
			}
			if _, tracked := st.patients[p.ID]; !tracked {
				st.patients[p.ID] = p
			}
			if !containsID(st.hospitalIndex[h.ID], p.ID) {
				st.hospitalIndex[h.ID] = append(st.hospitalIndex[h.ID], p.ID)
			}
		}
	}
	return nil
}

func ingestDepartments(st *state, departments []entity.Department) error {
	for _, d := range departments {
		if err := d.Validate(); err != nil {
			return contractErr("department", err)
		}
		if _, ok := st.departments[d.ID]; ok {
			continue
		}
		st.departments[d.ID] = entity.Department{ID: d.ID, Name: d.Name}
		st.departmentOrder = append(st.departmentOrder, d.ID)
		for _, p := range d.Patients {
			if err := p.Validate(); err != nil {
				return contractErr("patient", err)
			}
			if _, tracked := st.patients[p.ID]; !tracked {
				st.patients[p.ID] = p
			}
			if !containsID(st.departmentIndex[d.ID], p.ID) {
				st.departmentIndex[d.ID] = append(st.departmentIndex[d.ID], p.ID)
			}
		}
	}
	return nil
}

// sweep drops patient records no longer referenced by the tracked collection
// or any group index. Replacing a collection can orphan records that were
// only known through its previous embeddings.
func sweep(st *state) {
	live := make(map[int]bool, len(st.patientOrder))
	for _, id := range st.patientOrder {
		live[id] = true
	}
	for _, ids := range st.hospitalIndex {
		for _, id := range ids {
			live[id] = true
		}
	}
	for _, ids := range st.departmentIndex {
		for _, id := range ids {
			live[id] = true
		}
	}
	for id := range st.patients {
		if !live[id] {
			delete(st.patients, id)
		}
	}
}

// snapshot materializes the denormalized view: group embeddings are rebuilt
// from the indexes in insertion order, so every embedded copy reflects the
// single normalized record.
func (st *state) snapshot() Snapshot {
	snap := Snapshot{Session: entity.CloneSession(st.session)}
	if len(st.patientOrder) > 0 {
		snap.Patients = make([]entity.Patient, 0, len(st.patientOrder))
		for _, id := range st.patientOrder {
			snap.Patients = append(snap.Patients, entity.ClonePatient(st.patients[id]))
		}
	}
	if len(st.hospitalOrder) > 0 {
		snap.Hospitals = make([]entity.Hospital, 0, len(st.hospitalOrder))
		for _, hid := range st.hospitalOrder {
			h := st.hospitals[hid]
			h.Patients = st.materialize(st.hospitalIndex[hid])
			snap.Hospitals = append(snap.Hospitals, h)
		}
	}
	if len(st.departmentOrder) > 0 {
		snap.Departments = make([]entity.Department, 0, len(st.departmentOrder))
		for _, did := range st.departmentOrder {
			d := st.departments[did]
			d.Patients = st.materialize(st.departmentIndex[did])
			snap.Departments = append(snap.Departments, d)
		}
	}
	return snap
}

func (st *state) materialize(ids []int) []entity.Patient {
	if len(ids) == 0 {
		return nil
	}
	out := make([]entity.Patient, 0, len(ids))
	for _, id := range ids {
		if p, ok := st.patients[id]; ok {
			out = append(out, entity.ClonePatient(p))
		}
	}
	return out
}

func clonePatientMap(in map[int]entity.Patient) map[int]entity.Patient {
	out := make(map[int]entity.Patient, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
