package entity

// ClonePatient returns a value copy of a patient. Patients carry no reference
// fields beyond the by-value refs, so assignment is sufficient; the function
// exists so callers never hand out aliased records by accident.
func ClonePatient(p Patient) Patient { return p }

// CloneHospital returns a deep copy of a hospital including its patient
// embedding.
func CloneHospital(h Hospital) Hospital {
	cp := h
	if h.Patients != nil {
		cp.Patients = make([]Patient, len(h.Patients))
		copy(cp.Patients, h.Patients)
	}
	return cp
}

// CloneDepartment returns a deep copy of a department including its patient
// embedding.
func CloneDepartment(d Department) Department {
	cp := d
	if d.Patients != nil {
		cp.Patients = make([]Patient, len(d.Patients))
		copy(cp.Patients, d.Patients)
	}
	return cp
}

// CloneSession returns a copy of the session pointer, or nil.
func CloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
