package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/page"
)

// FieldSet marks which State fields a Patch carries.
type FieldSet uint32

const (
	FieldFeed FieldSet = 1 << iota
	FieldActivities
	FieldActivitiesPagination
	FieldPinnedActivities
	FieldComments
	FieldFollowers
	FieldFollowersPagination
	FieldFollowing
	FieldFollowingPagination
	FieldMembers
	FieldMembersPagination
	FieldOwnFollows
	FieldOwnCapabilities
	FieldNotificationStatus
	FieldAggregatedActivities
	FieldWatch
	FieldDeleted
	FieldLastError
)

// Has reports whether every field in f is set.
func (s FieldSet) Has(f FieldSet) bool { return s&f == f }

// Patch is a partial State. Only the fields named in Fields are applied, so a
// nil slice in a set field clears it while an unset field is left alone.
type Patch struct {
	Fields FieldSet

	Feed                 *api.FeedData
	Activities           []api.Activity
	ActivitiesPagination page.State
	PinnedActivities     []api.ActivityPin
	CommentsByEntityID   map[string]CommentPage
	Followers            []api.Follow
	FollowersPagination  page.State
	Following            []api.Follow
	FollowingPagination  page.State
	Members              []api.FeedMember
	MembersPagination    page.State
	OwnFollows           []api.Follow
	OwnCapabilities      []string
	NotificationStatus   *api.NotificationStatus
	AggregatedActivities []api.AggregatedActivity
	Watch                bool
	Deleted              bool
	LastError            error
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool { return p.Fields == 0 }

// Apply copies the set fields onto s.
func (p Patch) Apply(s *State) {
	f := p.Fields
	if f.Has(FieldFeed) {
		s.Feed = p.Feed
	}
	if f.Has(FieldActivities) {
		s.Activities = p.Activities
	}
	if f.Has(FieldActivitiesPagination) {
		s.ActivitiesPagination = p.ActivitiesPagination
	}
	if f.Has(FieldPinnedActivities) {
		s.PinnedActivities = p.PinnedActivities
	}
	if f.Has(FieldComments) {
		s.CommentsByEntityID = p.CommentsByEntityID
	}
	if f.Has(FieldFollowers) {
		s.Followers = p.Followers
	}
	if f.Has(FieldFollowersPagination) {
		s.FollowersPagination = p.FollowersPagination
	}
	if f.Has(FieldFollowing) {
		s.Following = p.Following
	}
	if f.Has(FieldFollowingPagination) {
		s.FollowingPagination = p.FollowingPagination
	}
	if f.Has(FieldMembers) {
		s.Members = p.Members
	}
	if f.Has(FieldMembersPagination) {
		s.MembersPagination = p.MembersPagination
	}
	if f.Has(FieldOwnFollows) {
		s.OwnFollows = p.OwnFollows
	}
	if f.Has(FieldOwnCapabilities) {
		s.OwnCapabilities = p.OwnCapabilities
	}
	if f.Has(FieldNotificationStatus) {
		s.NotificationStatus = p.NotificationStatus
	}
	if f.Has(FieldAggregatedActivities) {
		s.AggregatedActivities = p.AggregatedActivities
	}
	if f.Has(FieldWatch) {
		s.Watch = p.Watch
	}
	if f.Has(FieldDeleted) {
		s.Deleted = p.Deleted
	}
	if f.Has(FieldLastError) {
		s.LastError = p.LastError
	}
}
