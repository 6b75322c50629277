package poll

import (
	"maps"

	"github.com/five82/feeds/internal/api"
)

// Tally is the vote count part of a poll.
type Tally struct {
	VoteCount           int
	AnswersCount        int
	VoteCountsByOption  map[string]int
	LatestVotesByOption map[string][]api.PollVote
	LatestAnswers       []api.PollVote
}

// State is the snapshot a Poll publishes.
type State struct {
	// Poll holds the poll's metadata. Its tally and own-vote fields are only
	// the values it was created with; read Tally and OwnVotes instead.
	Poll api.Poll
	Tally
	OwnVotes  []api.PollVote
	IsClosed  bool
	Deleted   bool
	LastError error
}

// FromPoll builds the snapshot of p.
func FromPoll(p api.Poll) State {
	return State{
		Poll:     p,
		Tally:    tallyOf(p),
		OwnVotes: p.OwnVotes,
		IsClosed: p.IsClosed,
	}
}

func tallyOf(p api.Poll) Tally {
	return Tally{
		VoteCount:           p.VoteCount,
		AnswersCount:        p.AnswersCount,
		VoteCountsByOption:  p.VoteCountsByOption,
		LatestVotesByOption: p.LatestVotesByOption,
		LatestAnswers:       p.LatestAnswers,
	}
}

// OwnVoteFor returns the current user's vote on optionID.
func (s *State) OwnVoteFor(optionID string) (api.PollVote, bool) {
	for _, v := range s.OwnVotes {
		if !v.IsAnswer && v.OptionID == optionID {
			return v, true
		}
	}
	return api.PollVote{}, false
}

// OwnAnswer returns the current user's free-text answer.
func (s *State) OwnAnswer() (api.PollVote, bool) {
	for _, v := range s.OwnVotes {
		if v.IsAnswer {
			return v, true
		}
	}
	return api.PollVote{}, false
}

// ownOptionVotes counts the current user's option votes.
func (s *State) ownOptionVotes() int {
	n := 0
	for _, v := range s.OwnVotes {
		if !v.IsAnswer {
			n++
		}
	}
	return n
}

// withVote returns t with one vote on optionID added (delta 1) or taken
// away (delta -1). Counts never go below zero.
func (t Tally) withVote(optionID string, delta int) Tally {
	counts := make(map[string]int, len(t.VoteCountsByOption)+1)
	maps.Copy(counts, t.VoteCountsByOption)
	counts[optionID] = max(counts[optionID]+delta, 0)
	if counts[optionID] == 0 {
		delete(counts, optionID)
	}
	t.VoteCountsByOption = counts
	t.VoteCount = max(t.VoteCount+delta, 0)
	return t
}

func (t Tally) withAnswer(delta int) Tally {
	t.AnswersCount = max(t.AnswersCount+delta, 0)
	return t
}

func voteID(v api.PollVote) string { return v.ID }

func voterID(v api.PollVote) string {
	if v.UserID != "" {
		return v.UserID
	}
	if v.User != nil {
		return v.User.ID
	}
	return ""
}
