package api

import (
	"time"
)

// User is the public projection of an application user.
type User struct {
	ID    string         `json:"id"`
	Name  string         `json:"name,omitempty"`
	Image string         `json:"image,omitempty"`
	Role  string         `json:"role,omitempty"`
	Extra map[string]any `json:"custom,omitempty"`
}

// FeedData describes a feed and its counters.
type FeedData struct {
	FID            string         `json:"fid"`
	GroupID        string         `json:"group_id"`
	ID             string         `json:"id"`
	Name           string         `json:"name,omitempty"`
	Description    string         `json:"description,omitempty"`
	Visibility     string         `json:"visibility,omitempty"`
	CreatedBy      User           `json:"created_by"`
	FollowerCount  int            `json:"follower_count"`
	FollowingCount int            `json:"following_count"`
	MemberCount    int            `json:"member_count"`
	PinCount       int            `json:"pin_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
	Custom         map[string]any `json:"custom,omitempty"`
}

// Reaction is a reaction on an activity or a comment.
type Reaction struct {
	Type       string    `json:"type"`
	ActivityID string    `json:"activity_id,omitempty"`
	CommentID  string    `json:"comment_id,omitempty"`
	User       User      `json:"user"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key identifies a reaction by author and type.
func (r Reaction) Key() string {
	return r.User.ID + ":" + r.Type
}

// ReactionGroup summarizes reactions of a single type.
type ReactionGroup struct {
	Count           int       `json:"count"`
	FirstReactionAt time.Time `json:"first_reaction_at"`
	LastReactionAt  time.Time `json:"last_reaction_at"`
}

// Bookmark links a user to an activity, optionally inside a folder.
type Bookmark struct {
	ActivityID string          `json:"activity_id"`
	Activity   *Activity       `json:"activity,omitempty"`
	User       User            `json:"user"`
	Folder     *BookmarkFolder `json:"folder,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Key identifies a bookmark by activity and folder.
func (b Bookmark) Key() string {
	folder := ""
	if b.Folder != nil {
		folder = b.Folder.ID
	}
	return b.TargetActivityID() + ":" + folder
}

// TargetActivityID returns the bookmarked activity's id, falling back to the
// embedded activity when the flat field is empty.
func (b Bookmark) TargetActivityID() string {
	if b.ActivityID != "" {
		return b.ActivityID
	}
	if b.Activity != nil {
		return b.Activity.ID
	}
	return ""
}

// BookmarkFolder groups bookmarks.
type BookmarkFolder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment is a comment on an activity or a reply to another comment.
type Comment struct {
	ID              string                   `json:"id"`
	ObjectID        string                   `json:"object_id"`
	ObjectType      string                   `json:"object_type"`
	ParentID        string                   `json:"parent_id,omitempty"`
	Text            string                   `json:"text"`
	User            User                     `json:"user"`
	ReplyCount      int                      `json:"reply_count"`
	ReactionCount   int                      `json:"reaction_count"`
	ReactionGroups  map[string]ReactionGroup `json:"reaction_groups,omitempty"`
	LatestReactions []Reaction               `json:"latest_reactions,omitempty"`
	OwnReactions    []Reaction               `json:"own_reactions,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	DeletedAt       *time.Time               `json:"deleted_at,omitempty"`
}

// EntityID returns the id of the entity this comment hangs from: the parent
// comment for replies, the object otherwise.
func (c Comment) EntityID() string {
	if c.ParentID != "" {
		return c.ParentID
	}
	return c.ObjectID
}

// Activity is a single feed entry.
type Activity struct {
	ID              string                   `json:"id"`
	Type            string                   `json:"type"`
	Text            string                   `json:"text,omitempty"`
	User            User                     `json:"user"`
	Feeds           []string                 `json:"feeds"`
	Visibility      string                   `json:"visibility,omitempty"`
	ReactionCount   int                      `json:"reaction_count"`
	ReactionGroups  map[string]ReactionGroup `json:"reaction_groups,omitempty"`
	LatestReactions []Reaction               `json:"latest_reactions,omitempty"`
	OwnReactions    []Reaction               `json:"own_reactions,omitempty"`
	BookmarkCount   int                      `json:"bookmark_count"`
	OwnBookmarks    []Bookmark               `json:"own_bookmarks,omitempty"`
	CommentCount    int                      `json:"comment_count"`
	Comments        []Comment                `json:"comments,omitempty"`
	Poll            *Poll                    `json:"poll,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
	EditedAt        *time.Time               `json:"edited_at,omitempty"`
	Custom          map[string]any           `json:"custom,omitempty"`
}

// ActivityPin is an activity pinned to the top of a feed.
type ActivityPin struct {
	Activity  Activity  `json:"activity"`
	FID       string    `json:"fid"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is the relationship between a source and a target feed.
type Follow struct {
	SourceFeed FeedData  `json:"source_feed"`
	TargetFeed FeedData  `json:"target_feed"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Key identifies a follow by both of its ends.
func (f Follow) Key() string {
	return f.SourceFeed.FID + "->" + f.TargetFeed.FID
}

// FeedMember is a user with a role on a feed.
type FeedMember struct {
	User      User      `json:"user"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationStatus tracks what the current user has read or seen on a
// notification feed.
type NotificationStatus struct {
	UnreadCount    int        `json:"unread"`
	UnseenCount    int        `json:"unseen"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
	LastSeenAt     *time.Time `json:"last_seen_at,omitempty"`
	ReadActivities []string   `json:"read_activities,omitempty"`
	SeenActivities []string   `json:"seen_activities,omitempty"`
}

// AggregatedActivity is a notification bucket summarizing activities that
// share an aggregation key.
type AggregatedActivity struct {
	Group         string     `json:"group"`
	Activities    []Activity `json:"activities"`
	ActivityCount int        `json:"activity_count"`
	UserCount     int        `json:"user_count"`
	Score         float64    `json:"score"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PollOption is a choice of a poll.
type PollOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PollVote is a vote (or free-text answer) cast on a poll.
type PollVote struct {
	ID         string    `json:"id"`
	PollID     string    `json:"poll_id"`
	OptionID   string    `json:"option_id,omitempty"`
	IsAnswer   bool      `json:"is_answer,omitempty"`
	AnswerText string    `json:"answer_text,omitempty"`
	UserID     string    `json:"user_id"`
	User       *User     `json:"user,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Poll describes a poll attached to an activity.
type Poll struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	Description         string                `json:"description,omitempty"`
	Options             []PollOption          `json:"options"`
	EnforceUniqueVote   bool                  `json:"enforce_unique_vote"`
	MaxVotesAllowed     int                   `json:"max_votes_allowed,omitempty"`
	AllowAnswers        bool                  `json:"allow_answers,omitempty"`
	IsClosed            bool                  `json:"is_closed"`
	VoteCount           int                   `json:"vote_count"`
	AnswersCount        int                   `json:"answers_count"`
	VoteCountsByOption  map[string]int        `json:"vote_counts_by_option"`
	LatestVotesByOption map[string][]PollVote `json:"latest_votes_by_option,omitempty"`
	LatestAnswers       []PollVote            `json:"latest_answers,omitempty"`
	OwnVotes            []PollVote            `json:"own_votes,omitempty"`
	CreatedBy           *User                 `json:"created_by,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
}

// PagerRequest is the pagination part of a request.
type PagerRequest struct {
	Limit int    `json:"limit,omitempty"`
	Next  string `json:"next,omitempty"`
	Prev  string `json:"prev,omitempty"`
}

// SortParam orders query results.
type SortParam struct {
	Field     string `json:"field"`
	Direction int    `json:"direction"`
}

// GetOrCreateFeedRequest mirrors POST /feed_groups/{group}/feeds/{id}.
type GetOrCreateFeedRequest struct {
	Limit               int            `json:"limit,omitempty"`
	Next                string         `json:"next,omitempty"`
	Prev                string         `json:"prev,omitempty"`
	View                string         `json:"view,omitempty"`
	Watch               bool           `json:"watch,omitempty"`
	ConnectionID        string         `json:"connection_id,omitempty"`
	Data                *FeedInput     `json:"data,omitempty"`
	Filter              map[string]any `json:"filter,omitempty"`
	FollowerPagination  *PagerRequest  `json:"followers_pagination,omitempty"`
	FollowingPagination *PagerRequest  `json:"following_pagination,omitempty"`
	MemberPagination    *PagerRequest  `json:"member_pagination,omitempty"`
}

// FeedInput carries data used when the feed is created by GetOrCreate.
type FeedInput struct {
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Visibility  string         `json:"visibility,omitempty"`
	Custom      map[string]any `json:"custom,omitempty"`
}

// GetOrCreateFeedResponse carries the first page and the feed metadata.
type GetOrCreateFeedResponse struct {
	Created              bool                 `json:"created"`
	Feed                 FeedData             `json:"feed"`
	Activities           []Activity           `json:"activities"`
	Next                 string               `json:"next,omitempty"`
	Prev                 string               `json:"prev,omitempty"`
	PinnedActivities     []ActivityPin        `json:"pinned_activities,omitempty"`
	Followers            []Follow             `json:"followers,omitempty"`
	FollowersPagination  *PagerResponse       `json:"followers_pagination,omitempty"`
	Following            []Follow             `json:"following,omitempty"`
	FollowingPagination  *PagerResponse       `json:"following_pagination,omitempty"`
	Members              []FeedMember         `json:"members,omitempty"`
	MemberPagination     *PagerResponse       `json:"member_pagination,omitempty"`
	OwnFollows           []Follow             `json:"own_follows,omitempty"`
	OwnCapabilities      []string             `json:"own_capabilities,omitempty"`
	NotificationStatus   *NotificationStatus  `json:"notification_status,omitempty"`
	AggregatedActivities []AggregatedActivity `json:"aggregated_activities,omitempty"`
}

// PagerResponse carries the cursors of a nested list.
type PagerResponse struct {
	Next string `json:"next,omitempty"`
	Prev string `json:"prev,omitempty"`
}

// QueryActivitiesRequest mirrors POST /activities/query.
type QueryActivitiesRequest struct {
	Filter map[string]any `json:"filter,omitempty"`
	Sort   []SortParam    `json:"sort,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Next   string         `json:"next,omitempty"`
}

// QueryActivitiesResponse is a page of activities.
type QueryActivitiesResponse struct {
	Activities []Activity `json:"activities"`
	Next       string     `json:"next,omitempty"`
}

// QueryFeedsRequest mirrors POST /feeds/query.
type QueryFeedsRequest struct {
	Filter map[string]any `json:"filter,omitempty"`
	Sort   []SortParam    `json:"sort,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Next   string         `json:"next,omitempty"`
	Watch  bool           `json:"watch,omitempty"`
}

// QueryFeedsResponse is a page of feeds.
type QueryFeedsResponse struct {
	Feeds []FeedData `json:"feeds"`
	Next  string     `json:"next,omitempty"`
}

// QueryUsersRequest mirrors POST /users/query.
type QueryUsersRequest struct {
	Filter map[string]any `json:"filter_conditions,omitempty"`
	Sort   []SortParam    `json:"sort,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// QueryUsersResponse is a page of users. The endpoint is offset based.
type QueryUsersResponse struct {
	Users []User `json:"users"`
}

// GetCommentsRequest selects the top-level comments of an object.
type GetCommentsRequest struct {
	ObjectID   string
	ObjectType string
	Sort       string
	Depth      int
	Limit      int
	Next       string
}

// GetCommentRepliesRequest selects the replies of a comment.
type GetCommentRepliesRequest struct {
	CommentID string
	Sort      string
	Limit     int
	Next      string
}

// CommentsResponse is a page of comments.
type CommentsResponse struct {
	Comments []Comment `json:"comments"`
	Next     string    `json:"next,omitempty"`
}

// QueryFollowsRequest mirrors POST /follows/query.
type QueryFollowsRequest struct {
	Filter map[string]any `json:"filter,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Next   string         `json:"next,omitempty"`
}

// QueryFollowsResponse is a page of follows.
type QueryFollowsResponse struct {
	Follows []Follow `json:"follows"`
	Next    string   `json:"next,omitempty"`
}

// QueryFeedMembersRequest mirrors POST /feed_groups/{group}/feeds/{id}/members/query.
type QueryFeedMembersRequest struct {
	FeedGroup string         `json:"-"`
	FeedID    string         `json:"-"`
	Filter    map[string]any `json:"filter,omitempty"`
	Limit     int            `json:"limit,omitempty"`
	Next      string         `json:"next,omitempty"`
}

// QueryFeedMembersResponse is a page of members.
type QueryFeedMembersResponse struct {
	Members []FeedMember `json:"members"`
	Next    string       `json:"next,omitempty"`
}

// AddBookmarkRequest creates a bookmark.
type AddBookmarkRequest struct {
	ActivityID string `json:"-"`
	FolderID   string `json:"folder_id,omitempty"`
}

// BookmarkResponse wraps a created or deleted bookmark.
type BookmarkResponse struct {
	Bookmark Bookmark `json:"bookmark"`
}

// AddReactionRequest reacts to an activity.
type AddReactionRequest struct {
	ActivityID         string         `json:"-"`
	Type               string         `json:"type"`
	EnforceUnique      bool           `json:"enforce_unique,omitempty"`
	CreateNotification bool           `json:"create_notification_activity,omitempty"`
	Custom             map[string]any `json:"custom,omitempty"`
}

// ReactionResponse wraps a reaction and the updated activity.
type ReactionResponse struct {
	Activity Activity `json:"activity"`
	Reaction Reaction `json:"reaction"`
}

// MarkActivityRequest marks notification activities as read or seen.
type MarkActivityRequest struct {
	FeedGroup   string   `json:"-"`
	FeedID      string   `json:"-"`
	MarkAllRead bool     `json:"mark_all_read,omitempty"`
	MarkAllSeen bool     `json:"mark_all_seen,omitempty"`
	MarkRead    []string `json:"mark_read,omitempty"`
	MarkSeen    []string `json:"mark_seen,omitempty"`
}

// FollowRequest follows target from source.
type FollowRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// FollowResponse wraps a follow.
type FollowResponse struct {
	Follow Follow `json:"follow"`
}

// CastPollVoteRequest casts a vote or submits an answer.
type CastPollVoteRequest struct {
	ActivityID string `json:"-"`
	PollID     string `json:"-"`
	OptionID   string `json:"option_id,omitempty"`
	AnswerText string `json:"answer_text,omitempty"`
}

// PollVoteResponse wraps a vote.
type PollVoteResponse struct {
	Vote *PollVote `json:"vote,omitempty"`
	Poll *Poll     `json:"poll,omitempty"`
}

// PollResponse wraps a poll.
type PollResponse struct {
	Poll Poll `json:"poll"`
}
