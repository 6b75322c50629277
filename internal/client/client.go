// Package client is the entry point of the SDK. It owns the REST client,
// creates feed, poll and search controllers, and routes realtime events to
// the controllers that are watching.
package client

import (
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/metrics"
	"github.com/five82/feeds/internal/poll"
	"github.com/five82/feeds/internal/search"
)

// Options configures a Client.
type Options struct {
	UserID          string
	PageSize        int
	CommentPageSize int
	Metrics         *metrics.Metrics
}

// Client holds the controllers of one user session.
type Client struct {
	api  api.FeedsAPI
	opts Options

	feeds        *xsync.MapOf[string, *feed.Feed]
	polls        *xsync.MapOf[string, *poll.Poll]
	connectionID atomic.Pointer[string]
}

// New returns a Client backed by c.
func New(c api.FeedsAPI, opts Options) *Client {
	return &Client{
		api:   c,
		opts:  opts,
		feeds: xsync.NewMapOf[string, *feed.Feed](),
		polls: xsync.NewMapOf[string, *poll.Poll](),
	}
}

// API returns the REST client.
func (c *Client) API() api.FeedsAPI { return c.api }

// UserID returns the current user.
func (c *Client) UserID() string { return c.opts.UserID }

// SetConnectionID records the id of the live realtime connection. Feeds
// loaded with watch afterwards subscribe on it.
func (c *Client) SetConnectionID(id string) {
	c.connectionID.Store(&id)
}

// ConnectionID returns the live realtime connection id, or "" when there is
// none.
func (c *Client) ConnectionID() string {
	if id := c.connectionID.Load(); id != nil {
		return *id
	}
	return ""
}

// Feed returns the controller for group:id, creating it on first use. The
// same controller is returned until it stops watching.
func (c *Client) Feed(group, id string) *feed.Feed {
	f, _ := c.feeds.LoadOrCompute(feed.FID(group, id), func() *feed.Feed {
		return feed.New(c.api, feed.Options{
			Group:           group,
			ID:              id,
			UserID:          c.opts.UserID,
			PageSize:        c.opts.PageSize,
			CommentPageSize: c.opts.CommentPageSize,
			ConnectionID:    c.ConnectionID,
			OnStopWatching:  c.removeFeed,
			Metrics:         c.opts.Metrics,
		})
	})
	return f
}

func (c *Client) removeFeed(fid string) {
	c.feeds.Delete(fid)
	glog.V(2).Infof("client: feed %s removed", fid)
}

// Feeds returns the fids of the registered feeds.
func (c *Client) Feeds() []string {
	var fids []string
	c.feeds.Range(func(fid string, _ *feed.Feed) bool {
		fids = append(fids, fid)
		return true
	})
	return fids
}

// Poll returns the controller for p, creating it seeded with p on first use.
func (c *Client) Poll(p api.Poll, activityID string) *poll.Poll {
	ctrl, _ := c.polls.LoadOrCompute(p.ID, func() *poll.Poll {
		return poll.New(c.api, p, poll.Options{
			ActivityID: activityID,
			UserID:     c.opts.UserID,
			Metrics:    c.opts.Metrics,
		})
	})
	return ctrl
}

// RemovePoll stops routing events to the poll.
func (c *Client) RemovePoll(id string) {
	c.polls.Delete(id)
}

// NewSearch returns a search controller over activities, feeds and users.
func (c *Client) NewSearch(opts search.ControllerOptions, sourceOpts search.SourceOptions) *search.Controller {
	return search.NewController([]search.Searcher{
		search.NewActivitySource(c.api, sourceOpts),
		search.NewFeedSource(c.api, sourceOpts),
		search.NewUserSource(c.api, sourceOpts),
	}, opts)
}

// HandleEvent routes ev to the controllers it concerns. Feed events go to the
// feed named by the envelope fid. Poll events go to the poll controller and
// to the feeds embedding the poll. It must be called in the order the events
// were received.
func (c *Client) HandleEvent(ev events.Event) {
	fid := ev.Envelope().FID

	if id, ok := pollID(ev); ok {
		if p, ok := c.polls.Load(id); ok {
			p.HandleEvent(ev)
		}
		if fid == "" {
			c.feeds.Range(func(_ string, f *feed.Feed) bool {
				f.HandleEvent(ev)
				return true
			})
			return
		}
	}

	if fid == "" {
		glog.V(2).Infof("client: %s has no fid", ev.Type())
		return
	}
	f, ok := c.feeds.Load(fid)
	if !ok {
		glog.V(2).Infof("client: %s for unwatched feed %s", ev.Type(), fid)
		return
	}
	f.HandleEvent(ev)
}

func pollID(ev events.Event) (string, bool) {
	switch e := ev.(type) {
	case *events.PollUpdated:
		return e.Poll.ID, true
	case *events.PollClosed:
		return e.Poll.ID, true
	case *events.PollDeleted:
		return e.Poll.ID, true
	case *events.PollVoteCasted:
		return e.Poll.ID, true
	case *events.PollVoteChanged:
		return e.Poll.ID, true
	case *events.PollVoteRemoved:
		return e.Poll.ID, true
	}
	return "", false
}
