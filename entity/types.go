package entity

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// dateFormat is the wire format the directory service uses for dates.
const dateFormat = "2006-01-02"

// Date is a day-granularity timestamp serialized as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month, and day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// MarshalJSON implements json.Marshaler using the wire date format.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateFormat) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler accepting the wire date format.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("entity: invalid date %s", s)
	}
	t, err := time.Parse(dateFormat, s[1:len(s)-1])
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// String returns the wire representation of the date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateFormat)
}

// HospitalRef is the by-value identifying slice of a hospital embedded in a
// patient record. It is a copy taken when the server last materialized the
// patient, not a live reference into the hospitals collection.
type HospitalRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Validate reports whether the reference carries a usable id.
func (r HospitalRef) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Min(1)),
	)
}

// DepartmentRef is the by-value identifying slice of a department embedded in
// a patient record.
type DepartmentRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Validate reports whether the reference carries a usable id.
func (r DepartmentRef) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required, validation.Min(1)),
	)
}

// Patient is a patient record belonging to the signed-in user.
type Patient struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	DateOfBirth Date          `json:"date_of_birth"`
	Hospital    HospitalRef   `json:"hospital"`
	Department  DepartmentRef `json:"department"`
}

// Validate checks the invariants a patient must satisfy before it may enter
// the store. A patient without an id, or with a dangling hospital or
// department reference, is a contract violation on the caller's side.
func (p Patient) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required, validation.Min(1)),
		validation.Field(&p.Hospital),
		validation.Field(&p.Department),
	)
}

// Hospital is a hospital with the store-maintained embedding of the user's
// patients admitted there. The Patients field is denormalized convenience
// state, not authoritative.
type Hospital struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Patients    []Patient `json:"patients,omitempty"`
}

// Validate reports whether the hospital carries a usable id.
func (h Hospital) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.ID, validation.Required, validation.Min(1)),
	)
}

// Ref returns the by-value reference embedded into patient records.
func (h Hospital) Ref() HospitalRef {
	return HospitalRef{ID: h.ID, Name: h.Name}
}

// Department is a department with the store-maintained embedding of the
// user's patients managed by it.
type Department struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Patients []Patient `json:"patients,omitempty"`
}

// Validate reports whether the department carries a usable id.
func (d Department) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required, validation.Min(1)),
	)
}

// Ref returns the by-value reference embedded into patient records.
func (d Department) Ref() DepartmentRef {
	return DepartmentRef{ID: d.ID, Name: d.Name}
}

// Session identifies the signed-in user. A nil *Session means
// unauthenticated.
type Session struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
