// Package entity defines the record shapes of the hospital/patient directory:
// patients, hospitals, departments, and the signed-in session.
//
// Records cross the wire as JSON in the directory service's format and are
// compared by id throughout the store. Patient records embed by-value
// hospital and department references (HospitalRef, DepartmentRef) captured
// when the server last materialized the record; hospitals and departments
// carry a denormalized, store-maintained embedding of the user's patients.
package entity
