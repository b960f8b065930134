package store

import "github.com/goliatone/go-directory-cache/entity"

// Snapshot is an immutable point-in-time copy of the store's three
// collections plus the session. Snapshots are safe to retain and read from
// any goroutine; they never alias store-internal state.
type Snapshot struct {
	Session     *entity.Session
	Patients    []entity.Patient
	Hospitals   []entity.Hospital
	Departments []entity.Department
}

// Hospital returns the hospital with the given id from the snapshot.
func (s Snapshot) Hospital(id int) (entity.Hospital, bool) {
	for _, h := range s.Hospitals {
		if h.ID == id {
			return h, true
		}
	}
	return entity.Hospital{}, false
}

// Department returns the department with the given id from the snapshot.
func (s Snapshot) Department(id int) (entity.Department, bool) {
	for _, d := range s.Departments {
		if d.ID == id {
			return d, true
		}
	}
	return entity.Department{}, false
}

// Patient returns the tracked patient with the given id from the snapshot.
func (s Snapshot) Patient(id int) (entity.Patient, bool) {
	for _, p := range s.Patients {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Patient{}, false
}
