package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Count int
	Label string
	Items []string
}

func TestStore_NewDefaultsNilToZeroValue(t *testing.T) {
	s := New[counterState](nil)
	require.NotNil(t, s.GetState())
	assert.Equal(t, 0, s.GetState().Count)
}

func TestStore_NextSamePointerIsNoop(t *testing.T) {
	initial := &counterState{Count: 1}
	s := New(initial)

	calls := 0
	s.Subscribe(func(next, prev *counterState) { calls++ })

	s.Next(initial)
	assert.Equal(t, 0, calls)

	s.Next(&counterState{Count: 1})
	assert.Equal(t, 1, calls, "a new pointer is a new snapshot even when the contents match")
}

func TestStore_PartialNextCopiesBeforePatching(t *testing.T) {
	initial := &counterState{Count: 1, Label: "a"}
	s := New(initial)

	s.PartialNext(func(draft *counterState) { draft.Count = 2 })

	got := s.GetState()
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "a", got.Label)
	assert.Equal(t, 1, initial.Count, "the previous snapshot must stay untouched")
}

func TestStore_ReduceSkipsUnchanged(t *testing.T) {
	s := New(&counterState{})
	calls := 0
	s.Subscribe(func(next, prev *counterState) { calls++ })

	committed := s.Reduce(func(cur *counterState) (*counterState, bool) { return nil, false })
	assert.False(t, committed)
	assert.Equal(t, 0, calls)

	committed = s.Reduce(func(cur *counterState) (*counterState, bool) {
		next := *cur
		next.Count++
		return &next, true
	})
	assert.True(t, committed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.GetState().Count)
}

func TestSubscribeWithSelector_FiresOnlyWhenSelectionChanges(t *testing.T) {
	s := New(&counterState{Count: 1, Label: "a"})

	type view struct {
		Count int
	}
	var got []view
	SubscribeWithSelector(s, func(st *counterState) view {
		return view{Count: st.Count}
	}, func(next, prev view) {
		got = append(got, next)
	})

	s.PartialNext(func(d *counterState) { d.Label = "b" })
	assert.Empty(t, got, "label changes are not selected")

	s.PartialNext(func(d *counterState) { d.Count = 2 })
	s.PartialNext(func(d *counterState) { d.Count = 2 })
	s.PartialNext(func(d *counterState) { d.Count = 3 })

	assert.Equal(t, []view{{Count: 2}, {Count: 3}}, got)
}

func TestSubscribeWithSelector_PassesPreviousOutput(t *testing.T) {
	s := New(&counterState{Count: 1})

	var prevs []int
	SubscribeWithSelector(s, func(st *counterState) int { return st.Count }, func(next, prev int) {
		prevs = append(prevs, prev)
	})

	s.PartialNext(func(d *counterState) { d.Count = 5 })
	s.PartialNext(func(d *counterState) { d.Count = 9 })

	assert.Equal(t, []int{1, 5}, prevs)
}

func TestSubscribeWithSelector_SliceIdentity(t *testing.T) {
	items := []string{"a"}
	s := New(&counterState{Items: items})

	calls := 0
	SubscribeWithSelector(s, func(st *counterState) struct{ Items []string } {
		return struct{ Items []string }{st.Items}
	}, func(next, prev struct{ Items []string }) { calls++ })

	s.PartialNext(func(d *counterState) { d.Count++ })
	assert.Equal(t, 0, calls, "same backing array is not a change")

	s.PartialNext(func(d *counterState) { d.Items = append([]string(nil), items...) })
	assert.Equal(t, 1, calls, "a replaced slice is a change")
}

func TestStore_NotifiesInRegistrationOrder(t *testing.T) {
	s := New(&counterState{})

	var order []string
	s.Subscribe(func(next, prev *counterState) { order = append(order, "first") })
	SubscribeWithSelector(s, func(st *counterState) int { return st.Count }, func(next, prev int) {
		order = append(order, "second")
	})
	s.Subscribe(func(next, prev *counterState) { order = append(order, "third") })

	s.PartialNext(func(d *counterState) { d.Count = 1 })

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestStore_UnsubscribeStopsNotifications(t *testing.T) {
	s := New(&counterState{})

	calls := 0
	unsubscribe := SubscribeWithSelector(s, func(st *counterState) int { return st.Count }, func(next, prev int) {
		calls++
	})

	s.PartialNext(func(d *counterState) { d.Count = 1 })
	unsubscribe()
	unsubscribe()
	s.PartialNext(func(d *counterState) { d.Count = 2 })

	assert.Equal(t, 1, calls)
}

func TestStore_CallbackMayReadState(t *testing.T) {
	s := New(&counterState{})

	var seen int
	s.Subscribe(func(next, prev *counterState) {
		seen = s.GetState().Count
	})
	s.PartialNext(func(d *counterState) { d.Count = 7 })

	assert.Equal(t, 7, seen)
}

func TestStore_ConcurrentWritersAreSerialized(t *testing.T) {
	s := New(&counterState{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Reduce(func(cur *counterState) (*counterState, bool) {
				next := *cur
				next.Count++
				return &next, true
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.GetState().Count)
}
