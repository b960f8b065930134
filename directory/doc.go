// Package directory is the service layer of the directory cache: it drives
// the remote API, feeds confirmed mutations into the relational store, and
// serves collection refreshes through a read-through cache.
//
// # Flow
//
// Bootstrap (or Login/Signup) runs once at session start and seeds the store
// from the server's identity+graph payload. Thereafter each mutation method
// calls its endpoint and, on success, applies the server's confirmed record
// to the store, which updates all collections atomically from the caller's
// point of view and notifies subscribers. A failed request never touches the
// store.
//
// # Read-through collection fetchers
//
// RefreshHospitals and RefreshDepartments pull flat collection lists through
// the cache and replace the corresponding store collection verbatim. Every
// local write invalidates the affected collection keys by prefix, so the
// next refresh is served from the server rather than a stale entry.
//
// # Out-of-order completions
//
// Patient mutations are stamped with a per-id sequence number before the
// request is issued. Because completions resolve in network order, a
// response can arrive after a later-issued mutation for the same patient has
// already been applied; such stale completions are dropped instead of
// overwriting newer state.
package directory
