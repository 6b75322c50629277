package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/api/apitest"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/state"
)

func activities(idList ...string) []api.Activity {
	out := make([]api.Activity, 0, len(idList))
	for _, id := range idList {
		out = append(out, api.Activity{ID: id})
	}
	return out
}

func newLoadedFeed(t *testing.T, fake *apitest.Fake, first []api.Activity, next string) *Feed {
	t.Helper()
	prev := fake.GetOrCreateFeedFunc
	fake.GetOrCreateFeedFunc = func(_ context.Context, group, id string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		return &api.GetOrCreateFeedResponse{
			Feed:       api.FeedData{FID: group + ":" + id},
			Activities: first,
			Next:       next,
		}, nil
	}
	f := New(fake, Options{Group: "user", ID: "alice", UserID: "me"})
	require.NoError(t, f.GetOrCreate(context.Background(), GetOrCreateRequest{}))
	fake.GetOrCreateFeedFunc = prev
	return f
}

func TestFeed_PaginatesUntilExhausted(t *testing.T) {
	fake := &apitest.Fake{}
	f := New(fake, Options{Group: "user", ID: "alice"})

	has, known := f.State().HasNextPage()
	assert.False(t, has)
	assert.False(t, known, "next page is unknown before the first load")

	// Not loaded yet: no request goes out.
	require.NoError(t, f.GetNextPage(context.Background()))
	assert.Equal(t, 0, fake.Calls("GetOrCreateFeed"))

	fake.GetOrCreateFeedFunc = func(_ context.Context, _, _ string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		switch req.Next {
		case "":
			return &api.GetOrCreateFeedResponse{Activities: activities("a", "b", "c"), Next: "c1"}, nil
		case "c1":
			return &api.GetOrCreateFeedResponse{Activities: activities("c", "d", "e")}, nil
		default:
			return nil, fmt.Errorf("unexpected cursor %q", req.Next)
		}
	}

	require.NoError(t, f.GetOrCreate(context.Background(), GetOrCreateRequest{}))
	has, known = f.State().HasNextPage()
	assert.True(t, has)
	assert.True(t, known)

	require.NoError(t, f.GetNextPage(context.Background()))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(f.State().Activities))
	has, known = f.State().HasNextPage()
	assert.False(t, has)
	assert.True(t, known)

	require.NoError(t, f.GetNextPage(context.Background()))
	assert.Equal(t, 2, fake.Calls("GetOrCreateFeed"), "exhausted feed must not request again")
}

func TestFeed_GetNextPage_SingleInFlight(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "c1")

	release := make(chan struct{})
	started := make(chan struct{}, 4)
	fake.GetOrCreateFeedFunc = func(_ context.Context, _, _ string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		started <- struct{}{}
		<-release
		return &api.GetOrCreateFeedResponse{Activities: activities("b")}, nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.GetNextPage(context.Background())
		}(i)
	}

	<-started
	assert.True(t, f.State().IsLoading())
	// Let every goroutine reach the guard before the request completes.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// One first load plus exactly one next-page request.
	assert.Equal(t, 2, fake.Calls("GetOrCreateFeed"))
	assert.Equal(t, []string{"a", "b"}, ids(f.State().Activities))
	assert.False(t, f.State().IsLoading())
}

func TestFeed_GetNextPage_ErrorKeepsCursor(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "c1")

	boom := errors.New("boom")
	fake.GetOrCreateFeedFunc = func(context.Context, string, string, api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		return nil, boom
	}
	err := f.GetNextPage(context.Background())
	require.ErrorIs(t, err, boom)

	s := f.State()
	assert.ErrorIs(t, s.LastError, boom)
	assert.Equal(t, "c1", s.ActivitiesPagination.Next)
	assert.False(t, s.IsLoading())
	has, _ := s.HasNextPage()
	assert.True(t, has, "failed load can be retried")
}

func TestFeed_CommentPagination_PerParentGuard(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a1", "a2"), "")

	release := make(chan struct{})
	var mu sync.Mutex
	requested := map[string]int{}
	fake.GetCommentsFunc = func(_ context.Context, req api.GetCommentsRequest) (*api.CommentsResponse, error) {
		mu.Lock()
		requested[req.ObjectID+"|"+req.Next]++
		mu.Unlock()
		<-release
		if req.Next == "" {
			return &api.CommentsResponse{
				Comments: []api.Comment{{ID: req.ObjectID + "-c1", ObjectID: req.ObjectID}},
				Next:     "n1",
			}, nil
		}
		return &api.CommentsResponse{Comments: []api.Comment{{ID: req.ObjectID + "-c2", ObjectID: req.ObjectID}}}, nil
	}

	var wg sync.WaitGroup
	for _, id := range []string{"a1", "a1", "a1", "a2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, f.LoadNextPageActivityComments(context.Background(), id, CommentsRequest{}))
		}(id)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, requested["a1|"], "one in-flight load per parent")
	assert.Equal(t, 1, requested["a2|"], "parents load independently")

	require.NoError(t, f.LoadNextPageActivityComments(context.Background(), "a1", CommentsRequest{}))
	assert.Equal(t, 1, requested["a1|n1"])
	assert.Len(t, f.State().Comments("a1"), 2)

	require.NoError(t, f.LoadNextPageActivityComments(context.Background(), "a1", CommentsRequest{}))
	assert.Equal(t, 3, fake.Calls("GetComments"), "exhausted comments must not request again")
}

func TestFeed_CommentReplies(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a1"), "")

	fake.GetCommentRepliesFunc = func(_ context.Context, req api.GetCommentRepliesRequest) (*api.CommentsResponse, error) {
		assert.Equal(t, "c1", req.CommentID)
		assert.Equal(t, 5, req.Limit)
		return &api.CommentsResponse{Comments: []api.Comment{{ID: "r1", ObjectID: "a1", ParentID: "c1"}}}, nil
	}
	require.NoError(t, f.LoadNextPageCommentReplies(context.Background(), "c1", CommentsRequest{Limit: 5}))
	assert.Len(t, f.State().Comments("c1"), 1)
	has, known := f.State().CommentsByEntityID["c1"].Pagination.HasNext()
	assert.False(t, has)
	assert.True(t, known)
}

func TestFeed_AddBookmark_RollbackOnError(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	release := make(chan struct{})
	fake.AddBookmarkFunc = func(context.Context, api.AddBookmarkRequest) (*api.BookmarkResponse, error) {
		<-release
		return nil, &api.APIError{StatusCode: 500, Message: "nope"}
	}

	done := make(chan error)
	go func() { done <- f.AddBookmark(context.Background(), "a", "") }()

	require.Eventually(t, func() bool {
		a, _ := f.State().Activity("a")
		return len(a.OwnBookmarks) == 1
	}, time.Second, time.Millisecond, "optimistic bookmark must show before the server answers")
	a, _ := f.State().Activity("a")
	assert.Equal(t, 1, a.BookmarkCount)

	close(release)
	require.Error(t, <-done)

	a, _ = f.State().Activity("a")
	assert.Empty(t, a.OwnBookmarks)
	assert.Equal(t, 0, a.BookmarkCount)
}

func TestFeed_AddBookmark_ReconcilesWithServer(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	fake.AddBookmarkFunc = func(_ context.Context, req api.AddBookmarkRequest) (*api.BookmarkResponse, error) {
		return &api.BookmarkResponse{Bookmark: api.Bookmark{
			ActivityID: req.ActivityID,
			User:       api.User{ID: "me", Name: "Me"},
			Activity:   &api.Activity{ID: "a", BookmarkCount: 7},
		}}, nil
	}
	require.NoError(t, f.AddBookmark(context.Background(), "a", ""))

	a, _ := f.State().Activity("a")
	require.Len(t, a.OwnBookmarks, 1)
	assert.Equal(t, "Me", a.OwnBookmarks[0].User.Name)
	assert.Equal(t, 7, a.BookmarkCount)
}

func TestFeed_StaleFailureDoesNotRollBackNewerMutation(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	releaseAdd := make(chan struct{})
	fake.AddReactionFunc = func(context.Context, api.AddReactionRequest) (*api.ReactionResponse, error) {
		<-releaseAdd
		return nil, errors.New("timeout")
	}
	fake.DeleteReactionFunc = func(context.Context, string, string) (*api.ReactionResponse, error) {
		return nil, nil
	}

	done := make(chan error)
	go func() { done <- f.AddReaction(context.Background(), "a", "like") }()
	require.Eventually(t, func() bool {
		a, _ := f.State().Activity("a")
		return len(a.OwnReactions) == 1
	}, time.Second, time.Millisecond)

	// A newer mutation of the same field completes first.
	require.NoError(t, f.DeleteReaction(context.Background(), "a", "like"))
	a, _ := f.State().Activity("a")
	assert.Empty(t, a.OwnReactions)

	close(releaseAdd)
	require.Error(t, <-done)

	a, _ = f.State().Activity("a")
	assert.Empty(t, a.OwnReactions, "stale failure must not restore the pre-add state over the delete")
	assert.Equal(t, 0, a.ReactionCount)
}

func TestFeed_RepeatReactionWhileInFlightStillRollsBack(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	release := make(chan struct{})
	fake.AddReactionFunc = func(context.Context, api.AddReactionRequest) (*api.ReactionResponse, error) {
		<-release
		return nil, errors.New("timeout")
	}

	done := make(chan error)
	go func() { done <- f.AddReaction(context.Background(), "a", "like") }()
	require.Eventually(t, func() bool {
		a, _ := f.State().Activity("a")
		return len(a.OwnReactions) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, f.AddReaction(context.Background(), "a", "like"), "same reaction again is a no-op")
	assert.Equal(t, 1, fake.Calls("AddReaction"))

	close(release)
	require.Error(t, <-done)

	a, _ := f.State().Activity("a")
	assert.Empty(t, a.OwnReactions)
	assert.Equal(t, 0, a.ReactionCount)
	assert.Empty(t, a.ReactionGroups)
}

func TestFeed_NoopDeleteWhileInFlightStillRollsBack(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	release := make(chan struct{})
	fake.AddBookmarkFunc = func(context.Context, api.AddBookmarkRequest) (*api.BookmarkResponse, error) {
		<-release
		return nil, &api.APIError{StatusCode: 500, Message: "nope"}
	}

	done := make(chan error)
	go func() { done <- f.AddBookmark(context.Background(), "a", "") }()
	require.Eventually(t, func() bool {
		a, _ := f.State().Activity("a")
		return len(a.OwnBookmarks) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, f.DeleteBookmark(context.Background(), "a", "other-folder"))
	require.NoError(t, f.DeleteReaction(context.Background(), "a", "like"))
	assert.Equal(t, 0, fake.Calls("DeleteBookmark"))
	assert.Equal(t, 0, fake.Calls("DeleteReaction"))

	close(release)
	require.Error(t, <-done)

	a, _ := f.State().Activity("a")
	assert.Empty(t, a.OwnBookmarks)
	assert.Equal(t, 0, a.BookmarkCount)
}

func TestFeed_AddReaction_Optimistic(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	fake.AddReactionFunc = func(_ context.Context, req api.AddReactionRequest) (*api.ReactionResponse, error) {
		return &api.ReactionResponse{
			Activity: api.Activity{ID: "a", ReactionCount: 3, ReactionGroups: map[string]api.ReactionGroup{"like": {Count: 3}}},
			Reaction: api.Reaction{Type: req.Type, ActivityID: "a", User: api.User{ID: "me"}},
		}, nil
	}
	require.NoError(t, f.AddReaction(context.Background(), "a", "like"))

	a, _ := f.State().Activity("a")
	assert.Equal(t, 3, a.ReactionCount)
	assert.Equal(t, 3, a.ReactionGroups["like"].Count)
	require.Len(t, a.OwnReactions, 1)
}

func TestFeed_MarkActivity_Rollback(t *testing.T) {
	fake := &apitest.Fake{}
	fake.GetOrCreateFeedFunc = func(context.Context, string, string, api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		return &api.GetOrCreateFeedResponse{
			NotificationStatus:   &api.NotificationStatus{UnreadCount: 2},
			AggregatedActivities: []api.AggregatedActivity{{Group: "g1"}, {Group: "g2"}},
		}, nil
	}
	f := New(fake, Options{Group: "notification", ID: "me", UserID: "me"})
	require.NoError(t, f.GetOrCreate(context.Background(), GetOrCreateRequest{}))

	fake.MarkActivityFunc = func(_ context.Context, req api.MarkActivityRequest) error {
		assert.True(t, req.MarkAllRead)
		assert.Equal(t, "notification", req.FeedGroup)
		return errors.New("down")
	}
	require.Error(t, f.MarkActivity(context.Background(), MarkRequest{MarkAllRead: true}))
	assert.Equal(t, 2, f.State().NotificationStatus.UnreadCount)

	fake.MarkActivityFunc = func(context.Context, api.MarkActivityRequest) error { return nil }
	require.NoError(t, f.MarkActivity(context.Background(), MarkRequest{MarkAllRead: true}))
	assert.Equal(t, 0, f.State().NotificationStatus.UnreadCount)
	assert.Equal(t, []string{"g1", "g2"}, f.State().NotificationStatus.ReadActivities)
}

func TestFeed_FollowConflictIsBenign(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, nil, "")

	fake.FollowFunc = func(context.Context, api.FollowRequest) (*api.FollowResponse, error) {
		return nil, &api.APIError{StatusCode: 409, Message: "follow already exists"}
	}
	require.NoError(t, f.Follow(context.Background(), "user:bob"))

	fake.FollowFunc = func(_ context.Context, req api.FollowRequest) (*api.FollowResponse, error) {
		return &api.FollowResponse{Follow: api.Follow{
			SourceFeed: api.FeedData{FID: req.Source, FollowingCount: 1},
			TargetFeed: api.FeedData{FID: req.Target},
			Status:     "accepted",
		}}, nil
	}
	require.NoError(t, f.Follow(context.Background(), "user:carol"))
	require.Len(t, f.State().Following, 1)
	assert.Equal(t, 1, f.State().Feed.FollowingCount)

	fake.UnfollowFunc = func(context.Context, string, string) (*api.FollowResponse, error) {
		return &api.FollowResponse{}, nil
	}
	require.NoError(t, f.Unfollow(context.Background(), "user:carol"))
	assert.Empty(t, f.State().Following)
	assert.Equal(t, 0, f.State().Feed.FollowingCount)
}

func TestFeed_FollowersPagination_LoadsFirstPage(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, nil, "")

	fake.QueryFollowsFunc = func(_ context.Context, req api.QueryFollowsRequest) (*api.QueryFollowsResponse, error) {
		assert.Equal(t, "user:alice", req.Filter["target_feed"])
		if req.Next == "" {
			return &api.QueryFollowsResponse{
				Follows: []api.Follow{{SourceFeed: api.FeedData{FID: "timeline:x"}, TargetFeed: api.FeedData{FID: "user:alice"}}},
				Next:    "f2",
			}, nil
		}
		return &api.QueryFollowsResponse{
			Follows: []api.Follow{{SourceFeed: api.FeedData{FID: "timeline:y"}, TargetFeed: api.FeedData{FID: "user:alice"}}},
		}, nil
	}
	require.NoError(t, f.LoadNextPageFollowers(context.Background()))
	require.NoError(t, f.LoadNextPageFollowers(context.Background()))
	require.NoError(t, f.LoadNextPageFollowers(context.Background()))
	assert.Len(t, f.State().Followers, 2)
	assert.Equal(t, 2, fake.Calls("QueryFollows"))
}

func TestFeed_HandleEventNotifiesSelectors(t *testing.T) {
	fake := &apitest.Fake{}
	f := newLoadedFeed(t, fake, activities("a"), "")

	var calls [][]string
	unsubscribe := state.SubscribeWithSelector(f.Store(),
		func(s *State) []api.Activity { return s.Activities },
		func(next, _ []api.Activity) { calls = append(calls, ids(next)) })
	defer unsubscribe()

	assert.True(t, f.HandleEvent(&events.ActivityAdded{Activity: api.Activity{ID: "b"}}))
	assert.False(t, f.HandleEvent(&events.ActivityAdded{Activity: api.Activity{ID: "b"}}))
	// A change to another field leaves the activities selector quiet.
	assert.True(t, f.HandleEvent(&events.FeedDeleted{}))

	assert.Equal(t, [][]string{{"b", "a"}}, calls)
}

func TestFeed_StopWatching(t *testing.T) {
	fake := &apitest.Fake{}
	fake.GetOrCreateFeedFunc = func(_ context.Context, _, _ string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
		assert.True(t, req.Watch)
		assert.Equal(t, "conn-1", req.ConnectionID)
		return &api.GetOrCreateFeedResponse{}, nil
	}
	var stopped []string
	f := New(fake, Options{
		Group:          "user",
		ID:             "alice",
		ConnectionID:   func() string { return "conn-1" },
		OnStopWatching: func(fid string) { stopped = append(stopped, fid) },
	})
	require.NoError(t, f.GetOrCreate(context.Background(), GetOrCreateRequest{Watch: true}))
	assert.True(t, f.State().Watch)

	f.StopWatching()
	f.StopWatching()
	assert.False(t, f.State().Watch)
	assert.Equal(t, []string{"user:alice"}, stopped)
}
