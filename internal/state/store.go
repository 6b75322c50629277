package state

import (
	"sync"
	"sync/atomic"
)

// Store holds the current snapshot of T and fans changes out to subscribers.
type Store[T any] struct {
	writeMu sync.Mutex

	mu      sync.RWMutex
	current *T
	subs    []*subscription[T]
}

type subscription[T any] struct {
	notify  func(next, prev *T)
	removed atomic.Bool
}

// New returns a Store seeded with initial. A nil initial is replaced with the
// zero value of T so GetState never returns nil.
func New[T any](initial *T) *Store[T] {
	if initial == nil {
		initial = new(T)
	}
	return &Store[T]{current: initial}
}

// GetState returns the current snapshot. The result must not be mutated.
func (s *Store[T]) GetState() *T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Next replaces the snapshot. Passing the snapshot already held is a no-op.
func (s *Store[T]) Next(next *T) {
	if next == nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.commit(next)
}

// PartialNext copies the current snapshot, applies patch to the copy and
// commits it.
func (s *Store[T]) PartialNext(patch func(draft *T)) {
	if patch == nil {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	draft := new(T)
	*draft = *s.GetState()
	patch(draft)
	s.commit(draft)
}

// Reduce runs reducer against the current snapshot while holding the write
// lock. The returned snapshot is committed only when reducer reports a change.
// It reports whether a new snapshot was committed.
func (s *Store[T]) Reduce(reducer func(current *T) (*T, bool)) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.GetState()
	next, changed := reducer(current)
	if !changed || next == nil || next == current {
		return false
	}
	s.commit(next)
	return true
}

// Subscribe registers onChange for every committed snapshot. The returned
// function releases the registration; it is safe to call more than once.
func (s *Store[T]) Subscribe(onChange func(next, prev *T)) (unsubscribe func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.add(onChange)
}

// SubscribeWithSelector evaluates selector against the current snapshot right
// away, then after every committed snapshot. onChange receives the new and the
// previous output whenever they are not ShallowEqual.
func SubscribeWithSelector[T, S any](s *Store[T], selector func(*T) S, onChange func(next, prev S)) (unsubscribe func()) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	last := selector(s.GetState())
	return s.add(func(next, _ *T) {
		selected := selector(next)
		if ShallowEqual(selected, last) {
			return
		}
		prev := last
		last = selected
		onChange(selected, prev)
	})
}

// Select evaluates selector against the current snapshot.
func Select[T, S any](s *Store[T], selector func(*T) S) S {
	return selector(s.GetState())
}

func (s *Store[T]) add(notify func(next, prev *T)) func() {
	sub := &subscription[T]{notify: notify}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return func() {
		if !sub.removed.CompareAndSwap(false, true) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := make([]*subscription[T], 0, len(s.subs))
		for _, existing := range s.subs {
			if existing != sub {
				kept = append(kept, existing)
			}
		}
		s.subs = kept
	}
}

// commit must be called with writeMu held.
func (s *Store[T]) commit(next *T) {
	s.mu.Lock()
	prev := s.current
	if prev == next {
		s.mu.Unlock()
		return
	}
	s.current = next
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.removed.Load() {
			continue
		}
		sub.notify(next, prev)
	}
}
