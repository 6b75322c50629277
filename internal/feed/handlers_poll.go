package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/poll"
)

// ownVoteChange updates own votes for a vote event.
type ownVoteChange func(own []api.PollVote, p api.Poll, userID string) []api.PollVote

func voteCasted(v api.PollVote) ownVoteChange {
	return func(own []api.PollVote, p api.Poll, userID string) []api.PollVote {
		return poll.MergeOwnVotes(own, v, false, p.EnforceUniqueVote, userID)
	}
}

func voteRemoved(v api.PollVote) ownVoteChange {
	return func(own []api.PollVote, p api.Poll, userID string) []api.PollVote {
		return poll.MergeOwnVotes(own, v, true, p.EnforceUniqueVote, userID)
	}
}

// activityPollChanged refreshes the poll embedded in every loaded activity
// that carries it.
func activityPollChanged(cur *State, incoming api.Poll, change ownVoteChange, hc HandlerContext) (Patch, bool) {
	fn := func(a api.Activity) api.Activity {
		if a.Poll == nil || a.Poll.ID != incoming.ID {
			return a
		}
		next := incoming
		next.OwnVotes = a.Poll.OwnVotes
		if change != nil {
			next.OwnVotes = change(a.Poll.OwnVotes, incoming, hc.UserID)
		}
		a.Poll = &next
		return a
	}
	return updateActivitiesWithPoll(cur, incoming.ID, fn)
}

func activityPollDeleted(cur *State, e *events.PollDeleted) (Patch, bool) {
	return updateActivitiesWithPoll(cur, e.Poll.ID, func(a api.Activity) api.Activity {
		a.Poll = nil
		return a
	})
}

func updateActivitiesWithPoll(cur *State, pollID string, fn func(api.Activity) api.Activity) (Patch, bool) {
	var p Patch
	hasPoll := func(a api.Activity) bool { return a.Poll != nil && a.Poll.ID == pollID }

	for i, a := range cur.Activities {
		if !hasPoll(a) {
			continue
		}
		if p.Activities == nil {
			p.Activities = append([]api.Activity(nil), cur.Activities...)
			p.Fields |= FieldActivities
		}
		p.Activities[i] = fn(a)
	}
	for i, pin := range cur.PinnedActivities {
		if !hasPoll(pin.Activity) {
			continue
		}
		if p.PinnedActivities == nil {
			p.PinnedActivities = append([]api.ActivityPin(nil), cur.PinnedActivities...)
			p.Fields |= FieldPinnedActivities
		}
		p.PinnedActivities[i].Activity = fn(pin.Activity)
	}
	return p, !p.Empty()
}
