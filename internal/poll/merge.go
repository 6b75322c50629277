package poll

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/merge"
)

// MergeOwnVotes returns own after a vote event. Votes by other users leave
// own untouched. A user has at most one vote per option and one answer; with
// enforceUnique a new option vote replaces every other option vote.
func MergeOwnVotes(own []api.PollVote, vote api.PollVote, removed, enforceUnique bool, userID string) []api.PollVote {
	if userID == "" || voterID(vote) != userID {
		return own
	}
	if removed {
		out, _ := merge.Remove(own, voteID, vote.ID)
		return out
	}

	out := make([]api.PollVote, 0, len(own)+1)
	for _, v := range own {
		switch {
		case v.ID == vote.ID:
		case vote.IsAnswer && v.IsAnswer:
		case !vote.IsAnswer && !v.IsAnswer && (enforceUnique || v.OptionID == vote.OptionID):
		default:
			out = append(out, v)
		}
	}
	return append(out, vote)
}
