package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
)

// HandlerContext carries what handlers need besides the snapshot and the
// event. Handlers are pure; everything they read comes from these three.
type HandlerContext struct {
	// UserID is the current user. Own reactions, own bookmarks and own
	// follows are only touched for events caused by this user.
	UserID string
}

// Reduce maps ev onto a patch of cur. The second result is false when the
// event does not change the snapshot, including event kinds that never
// concern a feed.
func Reduce(cur *State, ev events.Event, hc HandlerContext) (Patch, bool) {
	switch e := ev.(type) {
	case *events.ActivityAdded:
		return activityAdded(cur, e)
	case *events.ActivityUpdated:
		return activityUpdated(cur, e)
	case *events.ActivityDeleted:
		return activityDeleted(cur, e)
	case *events.ActivityPinned:
		return activityPinned(cur, e)
	case *events.ActivityUnpinned:
		return activityUnpinned(cur, e)
	case *events.ActivityMarked:
		return activityMarked(cur, e)
	case *events.ActivityReactionAdded:
		return activityReactionAdded(cur, e, hc)
	case *events.ActivityReactionDeleted:
		return activityReactionDeleted(cur, e, hc)
	case *events.BookmarkAdded:
		return bookmarkAdded(cur, e, hc)
	case *events.BookmarkUpdated:
		return bookmarkUpdated(cur, e, hc)
	case *events.BookmarkDeleted:
		return bookmarkDeleted(cur, e, hc)
	case *events.CommentAdded:
		return commentAdded(cur, e)
	case *events.CommentUpdated:
		return commentUpdated(cur, e)
	case *events.CommentDeleted:
		return commentDeleted(cur, e)
	case *events.CommentReactionAdded:
		return commentReactionAdded(cur, e, hc)
	case *events.CommentReactionDeleted:
		return commentReactionDeleted(cur, e, hc)
	case *events.FollowCreated:
		return followCreated(cur, e, hc)
	case *events.FollowUpdated:
		return followUpdated(cur, e)
	case *events.FollowDeleted:
		return followDeleted(cur, e, hc)
	case *events.FeedUpdated:
		return feedUpdated(cur, e)
	case *events.FeedDeleted:
		return feedDeleted(cur, e)
	case *events.FeedMemberAdded:
		return memberAdded(cur, e)
	case *events.FeedMemberUpdated:
		return memberUpdated(cur, e)
	case *events.FeedMemberRemoved:
		return memberRemoved(cur, e)
	case *events.NotificationFeedUpdated:
		return notificationFeedUpdated(cur, e)
	case *events.PollUpdated:
		return activityPollChanged(cur, e.Poll, nil, hc)
	case *events.PollClosed:
		return activityPollChanged(cur, e.Poll, nil, hc)
	case *events.PollVoteCasted:
		return activityPollChanged(cur, e.Poll, voteCasted(e.PollVote), hc)
	case *events.PollVoteChanged:
		return activityPollChanged(cur, e.Poll, voteCasted(e.PollVote), hc)
	case *events.PollVoteRemoved:
		return activityPollChanged(cur, e.Poll, voteRemoved(e.PollVote), hc)
	case *events.PollDeleted:
		return activityPollDeleted(cur, e)
	case *events.HealthCheck, *events.Unknown:
		return Patch{}, false
	default:
		return Patch{}, false
	}
}

// updateActivity applies fn to the activity with id in both the activity list
// and the pinned list.
func updateActivity(cur *State, id string, fn func(api.Activity) api.Activity) (Patch, bool) {
	var p Patch
	if acts, ok := merge.Update(cur.Activities, activityID, id, fn); ok {
		p.Activities = acts
		p.Fields |= FieldActivities
	}
	pinFn := func(pin api.ActivityPin) api.ActivityPin {
		pin.Activity = fn(pin.Activity)
		return pin
	}
	if pins, ok := merge.Update(cur.PinnedActivities, pinID, id, pinFn); ok {
		p.PinnedActivities = pins
		p.Fields |= FieldPinnedActivities
	}
	return p, !p.Empty()
}

// keepOwnFields carries the user-specific parts of old over to a server copy
// that was serialized for somebody else.
func keepOwnFields(incoming, old api.Activity) api.Activity {
	incoming.OwnReactions = old.OwnReactions
	incoming.OwnBookmarks = old.OwnBookmarks
	if incoming.Poll != nil && old.Poll != nil && incoming.Poll.ID == old.Poll.ID {
		poll := *incoming.Poll
		poll.OwnVotes = old.Poll.OwnVotes
		incoming.Poll = &poll
	}
	return incoming
}

func isOwn(hc HandlerContext, userID string) bool {
	return hc.UserID != "" && hc.UserID == userID
}
