package poll

import "github.com/five82/feeds/internal/api"

// FieldSet marks which State fields a Patch carries.
type FieldSet uint8

const (
	FieldPoll FieldSet = 1 << iota
	FieldTally
	FieldOwnVotes
	FieldClosed
	FieldDeleted
)

// Patch is a partial State.
type Patch struct {
	Fields   FieldSet
	Poll     api.Poll
	Tally    Tally
	OwnVotes []api.PollVote
	IsClosed bool
	Deleted  bool
}

// Apply copies the set fields onto s.
func (p Patch) Apply(s *State) {
	if p.Fields&FieldPoll != 0 {
		s.Poll = p.Poll
	}
	if p.Fields&FieldTally != 0 {
		s.Tally = p.Tally
	}
	if p.Fields&FieldOwnVotes != 0 {
		s.OwnVotes = p.OwnVotes
	}
	if p.Fields&FieldClosed != 0 {
		s.IsClosed = p.IsClosed
	}
	if p.Fields&FieldDeleted != 0 {
		s.Deleted = p.Deleted
	}
}
