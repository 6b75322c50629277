package poll

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
)

// Reduce maps ev onto a patch of cur. Events for other polls and event kinds
// that never concern a poll yield no change.
func Reduce(cur *State, ev events.Event, userID string) (Patch, bool) {
	switch e := ev.(type) {
	case *events.PollUpdated:
		return pollUpdated(cur, e.Poll)
	case *events.PollClosed:
		p, ok := pollUpdated(cur, e.Poll)
		if !cur.IsClosed {
			p.Fields |= FieldClosed
			p.IsClosed = true
			ok = true
		}
		return p, ok
	case *events.PollDeleted:
		if e.Poll.ID != cur.Poll.ID || cur.Deleted {
			return Patch{}, false
		}
		return Patch{Fields: FieldDeleted, Deleted: true}, true
	case *events.PollVoteCasted:
		return voteEvent(cur, e.Poll, e.PollVote, false, userID)
	case *events.PollVoteChanged:
		return voteEvent(cur, e.Poll, e.PollVote, false, userID)
	case *events.PollVoteRemoved:
		return voteEvent(cur, e.Poll, e.PollVote, true, userID)
	default:
		return Patch{}, false
	}
}

// pollUpdated adopts the server's metadata and tally. Own votes are kept:
// the server serializes the poll for whoever triggered the event.
func pollUpdated(cur *State, incoming api.Poll) (Patch, bool) {
	if incoming.ID != cur.Poll.ID {
		return Patch{}, false
	}
	p := Patch{
		Fields: FieldPoll | FieldTally,
		Poll:   incoming,
		Tally:  tallyOf(incoming),
	}
	if incoming.IsClosed != cur.IsClosed {
		p.Fields |= FieldClosed
		p.IsClosed = incoming.IsClosed
	}
	return p, true
}

func voteEvent(cur *State, incoming api.Poll, vote api.PollVote, removed bool, userID string) (Patch, bool) {
	if incoming.ID != cur.Poll.ID {
		return Patch{}, false
	}
	p, _ := pollUpdated(cur, incoming)
	if userID != "" && voterID(vote) == userID {
		p.OwnVotes = MergeOwnVotes(cur.OwnVotes, vote, removed, cur.Poll.EnforceUniqueVote, userID)
		p.Fields |= FieldOwnVotes
	}
	return p, true
}
