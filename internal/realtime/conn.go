package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/five82/feeds/internal/events"
)

// Settings tunes a Conn.
type Settings struct {
	HandshakeTimeout time.Duration
	// ConnectTimeout bounds the wait for the connection.ok frame.
	ConnectTimeout time.Duration
	// ReadTimeout is the longest silence tolerated before the connection is
	// considered dead. The server sends health checks well within it.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PingTimeout is the interval between client health checks.
	PingTimeout time.Duration
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout: 10 * time.Second,
		ConnectTimeout:   10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingTimeout:      25 * time.Second,
	}
}

// Auth identifies the client to the realtime endpoint.
type Auth struct {
	APIKey string
	UserID string
	Token  string
}

// ErrHandshake is returned when the server does not confirm the connection.
var ErrHandshake = errors.New("realtime handshake failed")

// Conn is one websocket connection to the realtime endpoint. It does not
// reconnect; when Run returns the connection is gone and a new one must be
// dialed.
type Conn struct {
	ws           *websocket.Conn
	settings     *Settings
	connectionID string

	writeMu sync.Mutex
	close   sync.Once
}

// Dial connects to rawURL and waits for the server's connection.ok frame.
func Dial(ctx context.Context, rawURL string, auth Auth, settings *Settings) (*Conn, error) {
	if settings == nil {
		settings = DefaultSettings()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse realtime url: %w", err)
	}
	q := u.Query()
	if auth.APIKey != "" {
		q.Set("api_key", auth.APIKey)
	}
	q.Set("stream-auth-type", "jwt")
	u.RawQuery = q.Encode()

	header := http.Header{}
	if auth.Token != "" {
		header.Set("Authorization", auth.Token)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: settings.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	success := false
	defer func() {
		if !success {
			ws.Close()
		}
	}()

	ws.SetReadDeadline(time.Now().Add(settings.ConnectTimeout))
	_, message, err := ws.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	ev, err := events.Decode(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	hc, ok := ev.(*events.HealthCheck)
	if !ok || ev.Type() != events.TypeConnectionOK || hc.ConnectionID == "" {
		return nil, fmt.Errorf("%w: unexpected first frame %s", ErrHandshake, ev.Type())
	}

	success = true
	glog.V(1).Infof("[rt]connected %s", hc.ConnectionID)
	return &Conn{ws: ws, settings: settings, connectionID: hc.ConnectionID}, nil
}

// ConnectionID is the id the server assigned; watch requests carry it.
func (c *Conn) ConnectionID() string { return c.connectionID }

// Run delivers every non-empty frame to handle, in receipt order, on the
// calling goroutine. It also sends periodic health checks. Run returns when
// ctx ends, the connection fails, or Close is called.
func (c *Conn) Run(ctx context.Context, handle func(frame []byte)) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.Close()

	go func() {
		<-runCtx.Done()
		c.Close()
	}()

	go func() {
		defer cancel()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-time.After(c.settings.PingTimeout):
				if err := c.ping(); err != nil {
					glog.Infof("[rt]ping error = %s", err)
					return
				}
			}
		}
	}()

	for {
		c.ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Infof("[rt]read error = %s", err)
			return fmt.Errorf("read realtime frame: %w", err)
		}

		switch messageType {
		case websocket.TextMessage, websocket.BinaryMessage:
			if len(message) == 0 {
				glog.V(2).Infof("[rt]ping<-")
				continue
			}
			handle(message)
		default:
			glog.V(2).Infof("[rt]other=%d<-", messageType)
		}
	}
}

type healthCheck struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
}

func (c *Conn) ping() error {
	frame, err := json.Marshal(healthCheck{Type: events.TypeHealthCheck, ClientID: c.connectionID})
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() {
	c.close.Do(func() {
		c.writeMu.Lock()
		c.ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
		_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.ws.Close()
	})
}
