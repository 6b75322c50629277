// Package page tracks the cursor of one paginated list.
//
// A list starts out unknown: nothing fetched, so whether it has a next page
// cannot be answered yet. Every response moves it to loaded and records the
// cursor the response carried; from then on an empty cursor means the list is
// exhausted.
package page

// State is the pagination state of one list.
type State struct {
	Next    string
	Loaded  bool
	Loading bool
}

// HasNext reports whether another page exists and whether that is known yet.
func (s State) HasNext() (has, known bool) {
	if !s.Loaded {
		return false, false
	}
	return s.Next != "", true
}

// CanLoadNext reports whether a next-page request may start now.
func (s State) CanLoadNext() bool {
	return s.Loaded && s.Next != "" && !s.Loading
}

// CanLoad reports whether a request (first or next page) may start now.
func (s State) CanLoad() bool {
	if s.Loading {
		return false
	}
	return !s.Loaded || s.Next != ""
}

// Received returns the state after a page carrying next arrived.
func Received(next string) State {
	return State{Next: next, Loaded: true}
}

// Begin returns s marked as loading.
func (s State) Begin() State {
	s.Loading = true
	return s
}

// Failed returns s with the in-flight marker cleared and the cursor kept so
// the same page can be requested again.
func (s State) Failed() State {
	s.Loading = false
	return s
}
