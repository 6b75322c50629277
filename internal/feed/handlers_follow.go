package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
)

const followAccepted = "accepted"

func isAccepted(f api.Follow) bool {
	return f.Status == "" || f.Status == followAccepted
}

// followCounts takes this feed's counters from whichever end of the follow
// it is.
func followCounts(cur *State, f api.Follow) (*api.FeedData, bool) {
	if cur.Feed == nil {
		return nil, false
	}
	var side api.FeedData
	switch cur.FID {
	case f.TargetFeed.FID:
		side = f.TargetFeed
	case f.SourceFeed.FID:
		side = f.SourceFeed
	default:
		return nil, false
	}
	if side.FollowerCount == cur.Feed.FollowerCount && side.FollowingCount == cur.Feed.FollowingCount {
		return nil, false
	}
	next := *cur.Feed
	next.FollowerCount = side.FollowerCount
	next.FollowingCount = side.FollowingCount
	return &next, true
}

// ownsFollow reports whether the follow starts at a feed the current user
// created, which makes it one of the user's own follows of this feed.
func ownsFollow(cur *State, f api.Follow, hc HandlerContext) bool {
	return f.TargetFeed.FID == cur.FID && isOwn(hc, f.SourceFeed.CreatedBy.ID)
}

func followCreated(cur *State, e *events.FollowCreated, hc HandlerContext) (Patch, bool) {
	f := e.Follow
	var p Patch
	if f.TargetFeed.FID == cur.FID && isAccepted(f) {
		if merge.IndexOf(cur.Followers, followKey, f.Key()) < 0 {
			p.Followers = merge.Prepend(cur.Followers, []api.Follow{f}, followKey)
			p.Fields |= FieldFollowers
		}
	}
	if f.SourceFeed.FID == cur.FID && isAccepted(f) {
		if merge.IndexOf(cur.Following, followKey, f.Key()) < 0 {
			p.Following = merge.Prepend(cur.Following, []api.Follow{f}, followKey)
			p.Fields |= FieldFollowing
		}
	}
	if ownsFollow(cur, f, hc) {
		p.OwnFollows = merge.ReplacePreservingOrder(cur.OwnFollows, []api.Follow{f}, followKey)
		p.Fields |= FieldOwnFollows
	}
	if fd, ok := followCounts(cur, f); ok {
		p.Feed = fd
		p.Fields |= FieldFeed
	}
	return p, !p.Empty()
}

func followUpdated(cur *State, e *events.FollowUpdated) (Patch, bool) {
	f := e.Follow
	var p Patch
	// A pending follow that got accepted enters the lists here.
	if f.TargetFeed.FID == cur.FID {
		if followers, ok := upsertFollow(cur.Followers, f); ok {
			p.Followers = followers
			p.Fields |= FieldFollowers
		}
	}
	if f.SourceFeed.FID == cur.FID {
		if following, ok := upsertFollow(cur.Following, f); ok {
			p.Following = following
			p.Fields |= FieldFollowing
		}
	}
	if merge.IndexOf(cur.OwnFollows, followKey, f.Key()) >= 0 {
		p.OwnFollows = merge.ReplacePreservingOrder(cur.OwnFollows, []api.Follow{f}, followKey)
		p.Fields |= FieldOwnFollows
	}
	if fd, ok := followCounts(cur, f); ok {
		p.Feed = fd
		p.Fields |= FieldFeed
	}
	return p, !p.Empty()
}

func upsertFollow(list []api.Follow, f api.Follow) ([]api.Follow, bool) {
	present := merge.IndexOf(list, followKey, f.Key()) >= 0
	switch {
	case present && isAccepted(f):
		return merge.ReplacePreservingOrder(list, []api.Follow{f}, followKey), true
	case present:
		return merge.Remove(list, followKey, f.Key())
	case isAccepted(f):
		return merge.Prepend(list, []api.Follow{f}, followKey), true
	default:
		return list, false
	}
}

func followDeleted(cur *State, e *events.FollowDeleted, hc HandlerContext) (Patch, bool) {
	f := e.Follow
	var p Patch
	if followers, ok := merge.Remove(cur.Followers, followKey, f.Key()); ok {
		p.Followers = followers
		p.Fields |= FieldFollowers
	}
	if following, ok := merge.Remove(cur.Following, followKey, f.Key()); ok {
		p.Following = following
		p.Fields |= FieldFollowing
	}
	if own, ok := merge.Remove(cur.OwnFollows, followKey, f.Key()); ok {
		p.OwnFollows = own
		p.Fields |= FieldOwnFollows
	}
	if fd, ok := followCounts(cur, f); ok {
		p.Feed = fd
		p.Fields |= FieldFeed
	}
	return p, !p.Empty()
}
