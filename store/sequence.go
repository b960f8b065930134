package store

import (
	"strconv"

	"github.com/puzpuzpuz/xsync/v3"
)

// EntityKind names the entity a sequence number applies to.
type EntityKind string

const (
	KindPatient    EntityKind = "patient"
	KindHospital   EntityKind = "hospital"
	KindDepartment EntityKind = "department"
)

// SequenceTracker assigns a monotonic sequence number to each in-flight
// mutation, scoped per entity id, and admits completions only in issue
// order. Network completions can resolve out of submission order; a
// completion whose id has since been superseded by a later-issued mutation
// is rejected so its stale payload never reaches the store.
type SequenceTracker struct {
	issued   *xsync.MapOf[string, uint64]
	admitted *xsync.MapOf[string, uint64]
}

// NewSequenceTracker constructs an empty tracker.
func NewSequenceTracker() *SequenceTracker {
	return &SequenceTracker{
		issued:   xsync.NewMapOf[string, uint64](),
		admitted: xsync.NewMapOf[string, uint64](),
	}
}

func seqKey(kind EntityKind, id int) string {
	return string(kind) + ":" + strconv.Itoa(id)
}

// Begin reserves the next sequence number for a mutation affecting the given
// entity. Call it before issuing the network request.
func (t *SequenceTracker) Begin(kind EntityKind, id int) uint64 {
	seq, _ := t.issued.Compute(seqKey(kind, id), func(old uint64, _ bool) (uint64, bool) {
		return old + 1, false
	})
	return seq
}

// Admit reports whether the completion carrying seq may still be applied.
// It returns true and records seq when no later-issued completion has been
// admitted for the entity; otherwise the completion is stale and must be
// dropped.
func (t *SequenceTracker) Admit(kind EntityKind, id int, seq uint64) bool {
	ok := false
	t.admitted.Compute(seqKey(kind, id), func(old uint64, _ bool) (uint64, bool) {
		if seq > old {
			ok = true
			return seq, false
		}
		return old, false
	})
	return ok
}

// Reset clears all sequence state, e.g. on logout. Clearing per id is
// deliberately not offered: dropping an entity's admitted high-water mark
// would let a completion issued before a delete slip back in.
func (t *SequenceTracker) Reset() {
	t.issued.Clear()
	t.admitted.Clear()
}
