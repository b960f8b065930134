package store

import (
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Subscriber receives the store snapshot produced by a mutation. Delivery is
// synchronous with the mutation: by the time a mutator returns, every
// registered subscriber has observed the new state. Subscribers must not
// call mutator methods from inside the callback.
type Subscriber func(Snapshot)

// subscriberSet is the registry behind the change notifier.
type subscriberSet struct {
	subs *xsync.MapOf[string, Subscriber]
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{subs: xsync.NewMapOf[string, Subscriber]()}
}

func (r *subscriberSet) deliver(snap Snapshot) {
	r.subs.Range(func(_ string, fn Subscriber) bool {
		fn(snap)
		return true
	})
}

// Subscribe registers fn for change notifications and returns a token for
// Unsubscribe. Every mutation yields its own notification; rapid mutations
// are not coalesced.
func (s *Store) Subscribe(fn Subscriber) string {
	token := uuid.New().String()
	s.subs.subs.Store(token, fn)
	return token
}

// Unsubscribe removes the subscription identified by token. Unknown tokens
// are ignored.
func (s *Store) Unsubscribe(token string) {
	s.subs.subs.Delete(token)
}
