// Package store implements the client-side relational state cache for the
// hospital/patient directory: the in-memory mirror of the signed-in user's
// patients, hospitals, and departments, plus the mutation operations that
// keep the mirror internally consistent without re-fetching the whole graph
// after every change.
//
// # State model
//
// Internally the store is normalized: each collection is a map keyed by id
// with an insertion-order slice, and the hospital/department patient
// embeddings exist only as derived id indexes. The denormalized view the
// surrounding application consumes is materialized on Snapshot, so an
// embedded patient copy can never drift from its record.
//
// After every mutation the store upholds:
//
//   - every patient in a hospital's embedding references that hospital by id,
//     and symmetrically for departments
//   - no collection contains two entities with the same id
//   - a tracked patient's hospital and department are present in their
//     collections with the patient embedded exactly once
//   - adds are insert-or-ignore by id, so re-applying a mutation is a no-op
//
// # Mutations and notifications
//
// Mutators are serialized behind a mutex, so the store is safe for callers
// completing on arbitrary goroutines. Each mutation delivers one snapshot to
// every subscriber before the mutator returns; delivery order follows
// mutation order.
//
// ReplaceHospitals and ReplaceDepartments are the trust-the-input paths used
// by the collection fetchers: they swap a whole collection for a flat
// server-fetched list without reconciling embeddings.
//
// # Cascade policy
//
// Removing (or re-homing) a patient drops any hospital or department whose
// embedding it leaves empty, because the cache exists to mirror entities
// relevant to the user's patients. A group emptied this way disappears from
// view even though it still exists server-side. Config.RetainEmptyGroups
// turns the cascade off.
//
// # Out-of-order completions
//
// SequenceTracker tags each in-flight mutation with a per-entity monotonic
// sequence number; completions arriving after a later-issued mutation has
// been admitted are rejected rather than applied stale.
package store
