package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/api/apitest"
	"github.com/five82/feeds/internal/client"
	"github.com/five82/feeds/internal/config"
	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/metrics"
)

func TestResolveFeed(t *testing.T) {
	group, id, err := resolveFeed("user:bob", "timeline:x", "me")
	require.NoError(t, err)
	assert.Equal(t, "user", group)
	assert.Equal(t, "bob", id)

	group, id, err = resolveFeed(" ", "notification:me", "me")
	require.NoError(t, err)
	assert.Equal(t, "notification", group)
	assert.Equal(t, "me", id)

	group, id, err = resolveFeed("", "", "me")
	require.NoError(t, err)
	assert.Equal(t, "timeline", group)
	assert.Equal(t, "me", id)

	_, _, err = resolveFeed("nocolon", "", "me")
	assert.Error(t, err)

	_, _, err = resolveFeed("", "", "")
	assert.Error(t, err)
}

func TestConnectDeliversEventsToWatchedFeed(t *testing.T) {
	loaded := make(chan struct{})
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection.ok","connection_id":"conn-7"}`))
		<-loaded
		frame := `{"type":"feeds.activity.added","fid":"user:alice","event_id":"e1","activity":{"id":"a2","text":"hello"}}`
		ws.WriteMessage(websocket.TextMessage, []byte(frame))
		ws.WriteMessage(websocket.TextMessage, []byte(frame))
		ws.ReadMessage()
	}))
	t.Cleanup(server.Close)

	var watchConn string
	fake := &apitest.Fake{
		GetOrCreateFeedFunc: func(_ context.Context, group, id string, req api.GetOrCreateFeedRequest) (*api.GetOrCreateFeedResponse, error) {
			watchConn = req.ConnectionID
			return &api.GetOrCreateFeedResponse{
				Feed:       api.FeedData{FID: group + ":" + id},
				Activities: []api.Activity{{ID: "a1"}},
			}, nil
		},
	}
	c := client.New(fake, client.Options{UserID: "me"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Default()
	cfg.WSURL = "ws" + strings.TrimPrefix(server.URL, "http")
	done, err := connect(ctx, cfg, c, metrics.New(nil))
	require.NoError(t, err)
	assert.Equal(t, "conn-7", c.ConnectionID())

	f := c.Feed("user", "alice")
	require.NoError(t, f.GetOrCreate(ctx, feed.GetOrCreateRequest{Watch: true}))
	assert.Equal(t, "conn-7", watchConn)
	close(loaded)

	assert.Eventually(t, func() bool {
		return len(f.State().Activities) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "a2", f.State().Activities[0].ID)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("realtime pump did not stop")
	}
}
