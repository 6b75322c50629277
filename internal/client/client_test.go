package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/api/apitest"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/search"
)

func feedWatch() feed.GetOrCreateRequest {
	return feed.GetOrCreateRequest{Watch: true}
}

func loadedClient(t *testing.T) (*Client, *apitest.Fake, *api.GetOrCreateFeedRequest) {
	t.Helper()
	var got api.GetOrCreateFeedRequest
	fake := &apitest.Fake{
		GetOrCreateFeedFunc: func(_ context.Context, group, id string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
			got = req
			return &api.GetOrCreateFeedResponse{
				Feed:       api.FeedData{FID: group + ":" + id},
				Activities: []api.Activity{{ID: "a1", Poll: &api.Poll{ID: "p1"}}},
			}, nil
		},
	}
	c := New(fake, Options{UserID: "me", PageSize: 7})
	return c, fake, &got
}

func TestClient_FeedIsRegisteredOnce(t *testing.T) {
	c, _, _ := loadedClient(t)

	f1 := c.Feed("user", "alice")
	f2 := c.Feed("user", "alice")
	assert.Same(t, f1, f2)
	assert.Equal(t, "user:alice", f1.FID())
	assert.ElementsMatch(t, []string{"user:alice"}, c.Feeds())
}

func TestClient_WatchSendsConnectionID(t *testing.T) {
	c, _, got := loadedClient(t)
	c.SetConnectionID("conn-9")

	f := c.Feed("user", "alice")
	require.NoError(t, f.GetOrCreate(context.Background(), feedWatch()))
	assert.Equal(t, "conn-9", got.ConnectionID)
	assert.Equal(t, 7, got.Limit)
	assert.True(t, f.State().Watch)
}

func TestClient_RoutesEventsByFID(t *testing.T) {
	c, _, _ := loadedClient(t)
	alice := c.Feed("user", "alice")
	bob := c.Feed("user", "bob")
	require.NoError(t, alice.GetOrCreate(context.Background(), feedWatch()))
	require.NoError(t, bob.GetOrCreate(context.Background(), feedWatch()))

	c.HandleEvent(&events.ActivityAdded{
		Base:     events.Base{Kind: events.TypeActivityAdded, FID: "user:alice"},
		Activity: api.Activity{ID: "a2"},
	})
	c.HandleEvent(&events.ActivityAdded{
		Base:     events.Base{Kind: events.TypeActivityAdded, FID: "user:carol"},
		Activity: api.Activity{ID: "a3"},
	})

	assert.Len(t, alice.State().Activities, 2)
	assert.Equal(t, "a2", alice.State().Activities[0].ID)
	assert.Len(t, bob.State().Activities, 1)
}

func TestClient_StopWatchingUnregisters(t *testing.T) {
	c, _, _ := loadedClient(t)
	f := c.Feed("user", "alice")
	require.NoError(t, f.GetOrCreate(context.Background(), feedWatch()))

	f.StopWatching()
	assert.Empty(t, c.Feeds())

	c.HandleEvent(&events.ActivityAdded{
		Base:     events.Base{Kind: events.TypeActivityAdded, FID: "user:alice"},
		Activity: api.Activity{ID: "a2"},
	})
	assert.Len(t, f.State().Activities, 1)
	assert.NotSame(t, f, c.Feed("user", "alice"))
}

func TestClient_RoutesPollEvents(t *testing.T) {
	c, _, _ := loadedClient(t)
	f := c.Feed("user", "alice")
	require.NoError(t, f.GetOrCreate(context.Background(), feedWatch()))
	p := c.Poll(api.Poll{ID: "p1", Options: []api.PollOption{{ID: "o1"}}}, "a1")
	assert.Same(t, p, c.Poll(api.Poll{ID: "p1"}, "a1"))

	c.HandleEvent(&events.PollVoteCasted{
		Base:     events.Base{Kind: events.TypePollVoteCasted},
		Poll:     api.Poll{ID: "p1", VoteCount: 1, VoteCountsByOption: map[string]int{"o1": 1}},
		PollVote: api.PollVote{ID: "v1", OptionID: "o1", UserID: "me"},
	})

	assert.Equal(t, 1, p.State().VoteCount)
	require.Len(t, p.State().OwnVotes, 1)
	require.NotNil(t, f.State().Activities[0].Poll)
	assert.Equal(t, 1, f.State().Activities[0].Poll.VoteCount)

	c.RemovePoll("p1")
	c.HandleEvent(&events.PollClosed{
		Base: events.Base{Kind: events.TypePollClosed},
		Poll: api.Poll{ID: "p1", IsClosed: true},
	})
	assert.False(t, p.State().IsClosed)
}

func TestClient_NewSearchHasAllSources(t *testing.T) {
	c, _, _ := loadedClient(t)
	ctrl := c.NewSearch(search.ControllerOptions{}, search.SourceOptions{})

	var types []string
	for _, s := range ctrl.Sources() {
		types = append(types, s.Type())
	}
	assert.Equal(t, []string{search.TypeActivity, search.TypeFeed, search.TypeUser}, types)
}
