// Package optimistic tags optimistic patches so that only the most recent
// mutation of a field may roll back or reconcile it.
//
// Each mutation calls Begin with a key naming the field and entity it touches
// (for example "bookmark:<activity id>") and receives a ULID tag. When the
// server answers, IsLatest tells whether a newer mutation of the same key has
// started since; if so the answer is stale and must not touch the snapshot.
package optimistic

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Tag identifies one optimistic mutation.
type Tag = ulid.ULID

// Tracker records the latest tag per key. The zero value is not usable; use
// NewTracker.
type Tracker struct {
	mu     sync.Mutex
	latest map[string]Tag
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{latest: make(map[string]Tag)}
}

// Begin starts a mutation of key and returns its tag.
func (t *Tracker) Begin(key string) Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	tag := ulid.Make()
	// ulid.Make is monotonic within a millisecond; guard against clock steps
	// so a later Begin never compares lower.
	if prev, ok := t.latest[key]; ok && tag.Compare(prev) <= 0 {
		if next, err := nextAfter(prev); err == nil {
			tag = next
		}
	}
	t.latest[key] = tag
	return tag
}

// IsLatest reports whether tag is still the newest mutation of key.
func (t *Tracker) IsLatest(key string, tag Tag) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	latest, ok := t.latest[key]
	return ok && latest == tag
}

// Done forgets key if tag is still its newest mutation.
func (t *Tracker) Done(key string, tag Tag) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[key] == tag {
		delete(t.latest, key)
	}
}

// Pending returns the number of keys with a mutation in flight.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.latest)
}

func nextAfter(prev Tag) (Tag, error) {
	next := prev
	for i := len(next) - 1; i >= 6; i-- {
		next[i]++
		if next[i] != 0 {
			return next, nil
		}
	}
	return ulid.ULID{}, ulid.ErrMonotonicOverflow
}
