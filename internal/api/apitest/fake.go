// Package apitest provides a programmable api.FeedsAPI for controller tests.
package apitest

import (
	"context"
	"errors"
	"sync"

	"github.com/five82/feeds/internal/api"
)

// ErrNotStubbed is returned by methods whose func field is nil.
var ErrNotStubbed = errors.New("apitest: method not stubbed")

// Fake implements api.FeedsAPI by delegating to its func fields. It counts
// calls per method.
type Fake struct {
	GetOrCreateFeedFunc   func(ctx context.Context, group, id string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error)
	QueryActivitiesFunc   func(ctx context.Context, req api.QueryActivitiesRequest) (*api.QueryActivitiesResponse, error)
	QueryFeedsFunc        func(ctx context.Context, req api.QueryFeedsRequest) (*api.QueryFeedsResponse, error)
	QueryUsersFunc        func(ctx context.Context, req api.QueryUsersRequest) (*api.QueryUsersResponse, error)
	GetCommentsFunc       func(ctx context.Context, req api.GetCommentsRequest) (*api.CommentsResponse, error)
	GetCommentRepliesFunc func(ctx context.Context, req api.GetCommentRepliesRequest) (*api.CommentsResponse, error)
	QueryFollowsFunc      func(ctx context.Context, req api.QueryFollowsRequest) (*api.QueryFollowsResponse, error)
	QueryFeedMembersFunc  func(ctx context.Context, req api.QueryFeedMembersRequest) (*api.QueryFeedMembersResponse, error)
	AddBookmarkFunc       func(ctx context.Context, req api.AddBookmarkRequest) (*api.BookmarkResponse, error)
	DeleteBookmarkFunc    func(ctx context.Context, activityID, folderID string) (*api.BookmarkResponse, error)
	AddReactionFunc       func(ctx context.Context, req api.AddReactionRequest) (*api.ReactionResponse, error)
	DeleteReactionFunc    func(ctx context.Context, activityID, reactionType string) (*api.ReactionResponse, error)
	MarkActivityFunc      func(ctx context.Context, req api.MarkActivityRequest) error
	FollowFunc            func(ctx context.Context, req api.FollowRequest) (*api.FollowResponse, error)
	UnfollowFunc          func(ctx context.Context, source, target string) (*api.FollowResponse, error)
	CastPollVoteFunc      func(ctx context.Context, req api.CastPollVoteRequest) (*api.PollVoteResponse, error)
	RemovePollVoteFunc    func(ctx context.Context, activityID, pollID, voteID string) (*api.PollVoteResponse, error)
	ClosePollFunc         func(ctx context.Context, pollID string) (*api.PollResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

var _ api.FeedsAPI = (*Fake)(nil)

// Calls returns how often method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[method]++
}

func (f *Fake) GetOrCreateFeed(ctx context.Context, group, id string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
	f.record("GetOrCreateFeed")
	if f.GetOrCreateFeedFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.GetOrCreateFeedFunc(ctx, group, id, req)
}

func (f *Fake) QueryActivities(ctx context.Context, req api.QueryActivitiesRequest) (*api.QueryActivitiesResponse, error) {
	f.record("QueryActivities")
	if f.QueryActivitiesFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.QueryActivitiesFunc(ctx, req)
}

func (f *Fake) QueryFeeds(ctx context.Context, req api.QueryFeedsRequest) (*api.QueryFeedsResponse, error) {
	f.record("QueryFeeds")
	if f.QueryFeedsFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.QueryFeedsFunc(ctx, req)
}

func (f *Fake) QueryUsers(ctx context.Context, req api.QueryUsersRequest) (*api.QueryUsersResponse, error) {
	f.record("QueryUsers")
	if f.QueryUsersFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.QueryUsersFunc(ctx, req)
}

func (f *Fake) GetComments(ctx context.Context, req api.GetCommentsRequest) (*api.CommentsResponse, error) {
	f.record("GetComments")
	if f.GetCommentsFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.GetCommentsFunc(ctx, req)
}

func (f *Fake) GetCommentReplies(ctx context.Context, req api.GetCommentRepliesRequest) (*api.CommentsResponse, error) {
	f.record("GetCommentReplies")
	if f.GetCommentRepliesFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.GetCommentRepliesFunc(ctx, req)
}

func (f *Fake) QueryFollows(ctx context.Context, req api.QueryFollowsRequest) (*api.QueryFollowsResponse, error) {
	f.record("QueryFollows")
	if f.QueryFollowsFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.QueryFollowsFunc(ctx, req)
}

func (f *Fake) QueryFeedMembers(ctx context.Context, req api.QueryFeedMembersRequest) (*api.QueryFeedMembersResponse, error) {
	f.record("QueryFeedMembers")
	if f.QueryFeedMembersFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.QueryFeedMembersFunc(ctx, req)
}

func (f *Fake) AddBookmark(ctx context.Context, req api.AddBookmarkRequest) (*api.BookmarkResponse, error) {
	f.record("AddBookmark")
	if f.AddBookmarkFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.AddBookmarkFunc(ctx, req)
}

func (f *Fake) DeleteBookmark(ctx context.Context, activityID, folderID string) (*api.BookmarkResponse, error) {
	f.record("DeleteBookmark")
	if f.DeleteBookmarkFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.DeleteBookmarkFunc(ctx, activityID, folderID)
}

func (f *Fake) AddReaction(ctx context.Context, req api.AddReactionRequest) (*api.ReactionResponse, error) {
	f.record("AddReaction")
	if f.AddReactionFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.AddReactionFunc(ctx, req)
}

func (f *Fake) DeleteReaction(ctx context.Context, activityID, reactionType string) (*api.ReactionResponse, error) {
	f.record("DeleteReaction")
	if f.DeleteReactionFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.DeleteReactionFunc(ctx, activityID, reactionType)
}

func (f *Fake) MarkActivity(ctx context.Context, req api.MarkActivityRequest) error {
	f.record("MarkActivity")
	if f.MarkActivityFunc == nil {
		return ErrNotStubbed
	}
	return f.MarkActivityFunc(ctx, req)
}

func (f *Fake) Follow(ctx context.Context, req api.FollowRequest) (*api.FollowResponse, error) {
	f.record("Follow")
	if f.FollowFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.FollowFunc(ctx, req)
}

func (f *Fake) Unfollow(ctx context.Context, source, target string) (*api.FollowResponse, error) {
	f.record("Unfollow")
	if f.UnfollowFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.UnfollowFunc(ctx, source, target)
}

func (f *Fake) CastPollVote(ctx context.Context, req api.CastPollVoteRequest) (*api.PollVoteResponse, error) {
	f.record("CastPollVote")
	if f.CastPollVoteFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.CastPollVoteFunc(ctx, req)
}

func (f *Fake) RemovePollVote(ctx context.Context, activityID, pollID, voteID string) (*api.PollVoteResponse, error) {
	f.record("RemovePollVote")
	if f.RemovePollVoteFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.RemovePollVoteFunc(ctx, activityID, pollID, voteID)
}

func (f *Fake) ClosePoll(ctx context.Context, pollID string) (*api.PollResponse, error) {
	f.record("ClosePoll")
	if f.ClosePollFunc == nil {
		return nil, ErrNotStubbed
	}
	return f.ClosePollFunc(ctx, pollID)
}
