package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"
)

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testSettings() *Settings {
	s := DefaultSettings()
	s.HandshakeTimeout = time.Second
	s.ConnectTimeout = time.Second
	s.ReadTimeout = 2 * time.Second
	s.PingTimeout = 50 * time.Millisecond
	return s
}

// serve upgrades every request and hands the connection to script.
func serve(t *testing.T, script func(ws *websocket.Conn, r *http.Request)) *httptest.Server {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer ws.Close()
		script(ws, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConnRunDeliversFramesInOrder(t *testing.T) {
	gotQuery := make(chan string, 1)
	gotPing := make(chan string, 1)
	server := serve(t, func(ws *websocket.Conn, r *http.Request) {
		gotQuery <- r.URL.Query().Get("api_key") + "|" + r.Header.Get("Authorization")
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection.ok","connection_id":"conn-1"}`))
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"feeds.activity.added","event_id":"e1"}`))
		ws.WriteMessage(websocket.TextMessage, []byte{})
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"feeds.activity.deleted","event_id":"e2"}`))
		_, ping, err := ws.ReadMessage()
		if err == nil {
			gotPing <- string(ping)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, wsURL(server), Auth{APIKey: "key", Token: "tok"}, testSettings())
	assert.Equal(t, err, nil)
	assert.Equal(t, conn.ConnectionID(), "conn-1")
	assert.Equal(t, <-gotQuery, "key|tok")

	frames := []string{}
	err = conn.Run(ctx, func(frame []byte) {
		frames = append(frames, string(frame))
	})
	assert.NotEqual(t, err, nil)
	assert.Equal(t, frames, []string{
		`{"type":"feeds.activity.added","event_id":"e1"}`,
		`{"type":"feeds.activity.deleted","event_id":"e2"}`,
	})

	select {
	case ping := <-gotPing:
		assert.Equal(t, ping, `{"type":"health.check","client_id":"conn-1"}`)
	case <-time.After(2 * time.Second):
		t.Fatal("no health check sent")
	}
}

func TestConnRunStopsOnCancel(t *testing.T) {
	release := make(chan struct{})
	server := serve(t, func(ws *websocket.Conn, r *http.Request) {
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection.ok","connection_id":"conn-2"}`))
		<-release
	})
	defer close(release)

	conn, err := Dial(context.Background(), wsURL(server), Auth{}, testSettings())
	assert.Equal(t, err, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err = conn.Run(ctx, func([]byte) {})
	assert.Equal(t, errors.Is(err, context.Canceled), true)

	// Close after Run is a no-op.
	conn.Close()
}

func TestDialRejectsUnexpectedFirstFrame(t *testing.T) {
	server := serve(t, func(ws *websocket.Conn, r *http.Request) {
		ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"feeds.activity.added","activity":{"id":"a1"}}`))
		ws.ReadMessage()
	})

	_, err := Dial(context.Background(), wsURL(server), Auth{}, testSettings())
	assert.Equal(t, errors.Is(err, ErrHandshake), true)

	server = serve(t, func(ws *websocket.Conn, r *http.Request) {
		ws.WriteMessage(websocket.TextMessage, []byte(`not json`))
		ws.ReadMessage()
	})
	_, err = Dial(context.Background(), wsURL(server), Auth{}, testSettings())
	assert.Equal(t, errors.Is(err, ErrHandshake), true)
}
