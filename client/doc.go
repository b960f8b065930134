// Package client implements the typed HTTP client for the remote directory
// service: session check, login/signup/logout, flat collection reads, detail
// reads, and CRUD on patients, hospitals, and departments.
//
// Authentication uses the server's session cookie, held in the underlying
// http.Client's jar. Failures map onto a small taxonomy: *AuthError for
// 401/403 responses and *APIError for transport failures or other rejected
// requests. The client never mutates local state; the directory package
// feeds its responses into the store.
package client
