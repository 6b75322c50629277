package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
)

func feedUpdated(cur *State, e *events.FeedUpdated) (Patch, bool) {
	fd := e.Feed
	if cur.Feed != nil && !fd.UpdatedAt.After(cur.Feed.UpdatedAt) && sameFeedData(*cur.Feed, fd) {
		return Patch{}, false
	}
	return Patch{Fields: FieldFeed, Feed: &fd}, true
}

func sameFeedData(a, b api.FeedData) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.Visibility == b.Visibility &&
		a.FollowerCount == b.FollowerCount &&
		a.FollowingCount == b.FollowingCount &&
		a.MemberCount == b.MemberCount &&
		a.PinCount == b.PinCount
}

func feedDeleted(cur *State, _ *events.FeedDeleted) (Patch, bool) {
	if cur.Deleted {
		return Patch{}, false
	}
	return Patch{Fields: FieldDeleted | FieldWatch, Deleted: true, Watch: false}, true
}

func memberCount(cur *State, delta int) (*api.FeedData, bool) {
	if cur.Feed == nil {
		return nil, false
	}
	next := *cur.Feed
	next.MemberCount += delta
	if next.MemberCount < 0 {
		next.MemberCount = 0
	}
	return &next, true
}

func memberAdded(cur *State, e *events.FeedMemberAdded) (Patch, bool) {
	if merge.IndexOf(cur.Members, memberID, e.Member.User.ID) >= 0 {
		return Patch{}, false
	}
	p := Patch{
		Fields:  FieldMembers,
		Members: merge.AppendUnique(cur.Members, []api.FeedMember{e.Member}, memberID),
	}
	if fd, ok := memberCount(cur, 1); ok {
		p.Feed = fd
		p.Fields |= FieldFeed
	}
	return p, true
}

func memberUpdated(cur *State, e *events.FeedMemberUpdated) (Patch, bool) {
	if merge.IndexOf(cur.Members, memberID, e.Member.User.ID) < 0 {
		return Patch{}, false
	}
	return Patch{
		Fields:  FieldMembers,
		Members: merge.ReplacePreservingOrder(cur.Members, []api.FeedMember{e.Member}, memberID),
	}, true
}

func memberRemoved(cur *State, e *events.FeedMemberRemoved) (Patch, bool) {
	members, ok := merge.Remove(cur.Members, memberID, e.MemberID)
	if !ok {
		return Patch{}, false
	}
	p := Patch{Fields: FieldMembers, Members: members}
	if fd, ok := memberCount(cur, -1); ok {
		p.Feed = fd
		p.Fields |= FieldFeed
	}
	return p, true
}

// notificationFeedUpdated only touches what the event carries. Buckets the
// server re-emits replace their old copy in place; new buckets go last.
func notificationFeedUpdated(cur *State, e *events.NotificationFeedUpdated) (Patch, bool) {
	var p Patch
	if e.NotificationStatus != nil {
		status := *e.NotificationStatus
		p.NotificationStatus = &status
		p.Fields |= FieldNotificationStatus
	}
	if e.AggregatedActivities != nil {
		p.AggregatedActivities = merge.ReplacePreservingOrder(cur.AggregatedActivities, e.AggregatedActivities, bucketKey)
		p.Fields |= FieldAggregatedActivities
	}
	return p, !p.Empty()
}
