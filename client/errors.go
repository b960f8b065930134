package client

import "fmt"

// AuthError reports that the server rejected the session: no cookie, an
// expired cookie, or bad credentials. Callers treat it as "signed out", not
// as a failure of the action itself.
type AuthError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Message == "" {
		return "client: not authorized"
	}
	return "client: not authorized: " + e.Message
}

// APIError reports a request that failed in transit or was rejected by the
// server with a non-auth error. Status is zero when the request never
// completed; otherwise it carries the HTTP status and the server's error
// message.
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("client: %s: %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("client: %s: unexpected status %d", e.Op, e.Status)
	}
}

// Unwrap exposes the underlying transport error, if any.
func (e *APIError) Unwrap() error { return e.Err }
