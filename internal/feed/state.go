package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/page"
)

// State is the snapshot a Feed publishes. Snapshots are immutable once
// committed; every change produces a new State.
type State struct {
	FID  string
	Feed *api.FeedData

	Activities           []api.Activity
	ActivitiesPagination page.State
	PinnedActivities     []api.ActivityPin

	// CommentsByEntityID holds comment pages keyed by the activity id for
	// top-level comments and by the parent comment id for replies.
	CommentsByEntityID map[string]CommentPage

	Followers           []api.Follow
	FollowersPagination page.State
	Following           []api.Follow
	FollowingPagination page.State
	Members             []api.FeedMember
	MembersPagination   page.State

	OwnFollows      []api.Follow
	OwnCapabilities []string

	NotificationStatus   *api.NotificationStatus
	AggregatedActivities []api.AggregatedActivity

	Watch     bool
	Deleted   bool
	LastError error
}

// CommentPage is the loaded part of one comment list.
type CommentPage struct {
	Comments   []api.Comment
	Pagination page.State
}

// HasNextPage reports whether the activity list has another page and whether
// that is known yet.
func (s *State) HasNextPage() (has, known bool) {
	return s.ActivitiesPagination.HasNext()
}

// IsLoading reports whether a first or next page of activities is in flight.
func (s *State) IsLoading() bool {
	return s.ActivitiesPagination.Loading
}

// Comments returns the loaded comments of entityID.
func (s *State) Comments(entityID string) []api.Comment {
	return s.CommentsByEntityID[entityID].Comments
}

// Activity returns the loaded activity with id.
func (s *State) Activity(id string) (api.Activity, bool) {
	for _, a := range s.Activities {
		if a.ID == id {
			return a, true
		}
	}
	return api.Activity{}, false
}

func activityID(a api.Activity) string          { return a.ID }
func pinID(p api.ActivityPin) string            { return p.Activity.ID }
func commentID(c api.Comment) string            { return c.ID }
func followKey(f api.Follow) string             { return f.Key() }
func memberID(m api.FeedMember) string          { return m.User.ID }
func reactionKey(r api.Reaction) string         { return r.Key() }
func bookmarkKey(b api.Bookmark) string         { return b.Key() }
func bucketKey(g api.AggregatedActivity) string { return g.Group }

// withCommentPage returns a copy of pages with entityID set to cp.
func withCommentPage(pages map[string]CommentPage, entityID string, cp CommentPage) map[string]CommentPage {
	next := make(map[string]CommentPage, len(pages)+1)
	for k, v := range pages {
		next[k] = v
	}
	next[entityID] = cp
	return next
}

// withoutCommentPages returns a copy of pages without ids. The second result
// reports whether anything was removed.
func withoutCommentPages(pages map[string]CommentPage, ids ...string) (map[string]CommentPage, bool) {
	removed := false
	for _, id := range ids {
		if _, ok := pages[id]; ok {
			removed = true
			break
		}
	}
	if !removed {
		return pages, false
	}
	next := make(map[string]CommentPage, len(pages))
	for k, v := range pages {
		next[k] = v
	}
	for _, id := range ids {
		delete(next, id)
	}
	return next, true
}
