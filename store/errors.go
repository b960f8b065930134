package store

import "fmt"

// ContractError reports a malformed entity reaching a mutator, e.g. a patient
// without an id. It marks a defect in the caller, not a runtime condition the
// store recovers from: the offending mutation is rejected before any
// collection is touched.
type ContractError struct {
	Entity string
	Err    error
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	return fmt.Sprintf("store: contract violation for %s: %v", e.Entity, e.Err)
}

// Unwrap exposes the underlying validation error.
func (e *ContractError) Unwrap() error { return e.Err }

func contractErr(entity string, err error) error {
	if err == nil {
		return nil
	}
	return &ContractError{Entity: entity, Err: err}
}
