package events

import (
	"time"

	"github.com/five82/feeds/internal/api"
)

// Event type discriminants carried in the "type" field of every envelope.
const (
	TypeActivityAdded           = "feeds.activity.added"
	TypeActivityUpdated         = "feeds.activity.updated"
	TypeActivityDeleted         = "feeds.activity.deleted"
	TypeActivityPinned          = "feeds.activity.pinned"
	TypeActivityUnpinned        = "feeds.activity.unpinned"
	TypeActivityMarked          = "feeds.activity.marked"
	TypeActivityReactionAdded   = "feeds.activity.reaction.added"
	TypeActivityReactionDeleted = "feeds.activity.reaction.deleted"
	TypeBookmarkAdded           = "feeds.bookmark.added"
	TypeBookmarkUpdated         = "feeds.bookmark.updated"
	TypeBookmarkDeleted         = "feeds.bookmark.deleted"
	TypeCommentAdded            = "feeds.comment.added"
	TypeCommentUpdated          = "feeds.comment.updated"
	TypeCommentDeleted          = "feeds.comment.deleted"
	TypeCommentReactionAdded    = "feeds.comment.reaction.added"
	TypeCommentReactionDeleted  = "feeds.comment.reaction.deleted"
	TypeFollowCreated           = "feeds.follow.created"
	TypeFollowUpdated           = "feeds.follow.updated"
	TypeFollowDeleted           = "feeds.follow.deleted"
	TypeFeedUpdated             = "feeds.feed.updated"
	TypeFeedDeleted             = "feeds.feed.deleted"
	TypeFeedMemberAdded         = "feeds.feed_member.added"
	TypeFeedMemberUpdated       = "feeds.feed_member.updated"
	TypeFeedMemberRemoved       = "feeds.feed_member.removed"
	TypeNotificationFeedUpdated = "feeds.notification_feed.updated"
	TypePollUpdated             = "feeds.poll.updated"
	TypePollClosed              = "feeds.poll.closed"
	TypePollDeleted             = "feeds.poll.deleted"
	TypePollVoteCasted          = "feeds.poll.vote_casted"
	TypePollVoteChanged         = "feeds.poll.vote_changed"
	TypePollVoteRemoved         = "feeds.poll.vote_removed"
	TypeHealthCheck             = "health.check"
	TypeConnectionOK            = "connection.ok"
)

// Event is a decoded realtime event. The set of implementations is closed:
// only types in this package satisfy it.
type Event interface {
	Type() string
	Envelope() *Base
	isEvent()
}

// Base holds the envelope fields shared by every event.
type Base struct {
	Kind      string    `json:"type"`
	FID       string    `json:"fid,omitempty"`
	EventID   string    `json:"event_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	User      *api.User `json:"user,omitempty"`
}

// Type returns the discriminant.
func (b *Base) Type() string { return b.Kind }

// Envelope returns the shared envelope fields.
func (b *Base) Envelope() *Base { return b }

func (*Base) isEvent() {}

// ActivityAdded is emitted when an activity lands on a feed.
type ActivityAdded struct {
	Base
	Activity api.Activity `json:"activity"`
}

// ActivityUpdated is emitted when an activity is edited.
type ActivityUpdated struct {
	Base
	Activity api.Activity `json:"activity"`
}

// ActivityDeleted is emitted when an activity is removed.
type ActivityDeleted struct {
	Base
	Activity api.Activity `json:"activity"`
}

// ActivityPinned is emitted when an activity is pinned to a feed.
type ActivityPinned struct {
	Base
	PinnedActivity api.ActivityPin `json:"pinned_activity"`
}

// ActivityUnpinned is emitted when a pin is removed.
type ActivityUnpinned struct {
	Base
	PinnedActivity api.ActivityPin `json:"pinned_activity"`
}

// ActivityMarked is emitted when notification activities are marked read or seen.
type ActivityMarked struct {
	Base
	MarkAllRead bool     `json:"mark_all_read,omitempty"`
	MarkAllSeen bool     `json:"mark_all_seen,omitempty"`
	MarkRead    []string `json:"mark_read,omitempty"`
	MarkSeen    []string `json:"mark_seen,omitempty"`
}

// ActivityReactionAdded carries the reaction and the updated activity.
type ActivityReactionAdded struct {
	Base
	Activity api.Activity `json:"activity"`
	Reaction api.Reaction `json:"reaction"`
}

// ActivityReactionDeleted carries the removed reaction and the updated activity.
type ActivityReactionDeleted struct {
	Base
	Activity api.Activity `json:"activity"`
	Reaction api.Reaction `json:"reaction"`
}

// BookmarkAdded is emitted when a user bookmarks an activity.
type BookmarkAdded struct {
	Base
	Bookmark api.Bookmark `json:"bookmark"`
}

// BookmarkUpdated is emitted when a bookmark moves folder.
type BookmarkUpdated struct {
	Base
	Bookmark api.Bookmark `json:"bookmark"`
}

// BookmarkDeleted is emitted when a bookmark is removed.
type BookmarkDeleted struct {
	Base
	Bookmark api.Bookmark `json:"bookmark"`
}

// CommentAdded is emitted for new comments and replies.
type CommentAdded struct {
	Base
	Comment  api.Comment   `json:"comment"`
	Activity *api.Activity `json:"activity,omitempty"`
}

// CommentUpdated is emitted when a comment is edited.
type CommentUpdated struct {
	Base
	Comment api.Comment `json:"comment"`
}

// CommentDeleted is emitted when a comment is removed.
type CommentDeleted struct {
	Base
	Comment api.Comment `json:"comment"`
}

// CommentReactionAdded carries the reaction and the updated comment.
type CommentReactionAdded struct {
	Base
	Comment  api.Comment  `json:"comment"`
	Reaction api.Reaction `json:"reaction"`
}

// CommentReactionDeleted carries the removed reaction and the updated comment.
type CommentReactionDeleted struct {
	Base
	Comment  api.Comment  `json:"comment"`
	Reaction api.Reaction `json:"reaction"`
}

// FollowCreated is emitted when a follow is created.
type FollowCreated struct {
	Base
	Follow api.Follow `json:"follow"`
}

// FollowUpdated is emitted when a follow changes status.
type FollowUpdated struct {
	Base
	Follow api.Follow `json:"follow"`
}

// FollowDeleted is emitted when a follow is removed.
type FollowDeleted struct {
	Base
	Follow api.Follow `json:"follow"`
}

// FeedUpdated carries new feed metadata.
type FeedUpdated struct {
	Base
	Feed api.FeedData `json:"feed"`
}

// FeedDeleted is emitted when the feed itself is deleted.
type FeedDeleted struct {
	Base
}

// FeedMemberAdded is emitted when a member joins a feed.
type FeedMemberAdded struct {
	Base
	Member api.FeedMember `json:"member"`
}

// FeedMemberUpdated is emitted when a member's role or status changes.
type FeedMemberUpdated struct {
	Base
	Member api.FeedMember `json:"member"`
}

// FeedMemberRemoved is emitted when a member leaves a feed.
type FeedMemberRemoved struct {
	Base
	MemberID string `json:"member_id"`
}

// NotificationFeedUpdated carries a fresh notification status and/or the
// aggregation buckets the server re-emitted. Absent fields stay nil.
type NotificationFeedUpdated struct {
	Base
	NotificationStatus   *api.NotificationStatus  `json:"notification_status,omitempty"`
	AggregatedActivities []api.AggregatedActivity `json:"aggregated_activities,omitempty"`
}

// PollUpdated carries the updated poll.
type PollUpdated struct {
	Base
	Poll api.Poll `json:"poll"`
}

// PollClosed is emitted when a poll stops accepting votes.
type PollClosed struct {
	Base
	Poll api.Poll `json:"poll"`
}

// PollDeleted is emitted when a poll is removed.
type PollDeleted struct {
	Base
	Poll api.Poll `json:"poll"`
}

// PollVoteCasted carries a new vote and the poll tally after it.
type PollVoteCasted struct {
	Base
	Poll     api.Poll     `json:"poll"`
	PollVote api.PollVote `json:"poll_vote"`
}

// PollVoteChanged carries a changed vote and the poll tally after it.
type PollVoteChanged struct {
	Base
	Poll     api.Poll     `json:"poll"`
	PollVote api.PollVote `json:"poll_vote"`
}

// PollVoteRemoved carries a removed vote and the poll tally after it.
type PollVoteRemoved struct {
	Base
	Poll     api.Poll     `json:"poll"`
	PollVote api.PollVote `json:"poll_vote"`
}

// HealthCheck is a heartbeat; connection.ok carries the connection id.
type HealthCheck struct {
	Base
	ConnectionID string `json:"connection_id,omitempty"`
}

// Unknown is any event whose discriminant this package does not know. It is
// kept so callers can log it; controllers ignore it.
type Unknown struct {
	Base
	Raw []byte `json:"-"`
}
