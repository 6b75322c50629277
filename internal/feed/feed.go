package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
	"github.com/five82/feeds/internal/metrics"
	"github.com/five82/feeds/internal/optimistic"
	"github.com/five82/feeds/internal/page"
	"github.com/five82/feeds/internal/state"
)

const (
	defaultPageSize        = 20
	defaultCommentPageSize = 10

	keyGetOrCreate = "get_or_create"
	keyActivities  = "activities"
	keyFollowers   = "followers"
	keyFollowing   = "following"
	keyMembers     = "members"
)

// ErrNotLoaded is returned by operations that need the feed's first page.
var ErrNotLoaded = errors.New("feed not loaded")

// Options configures a Feed.
type Options struct {
	Group string
	ID    string
	// UserID is the current user; it decides which reactions, bookmarks and
	// follows are "own".
	UserID          string
	PageSize        int
	CommentPageSize int
	// ConnectionID returns the realtime connection id sent when watching.
	ConnectionID func() string
	// OnStopWatching is called once the feed stops watching.
	OnStopWatching func(fid string)
	Metrics        *metrics.Metrics
}

// Feed is the controller of one feed. It owns the feed's store; every write
// goes through it.
type Feed struct {
	client api.FeedsAPI
	opts   Options
	fid    string
	hc     HandlerContext

	store   *state.Store[State]
	loads   singleflight.Group
	tracker *optimistic.Tracker

	// resets counts GetOrCreate calls so next-page results fetched against
	// an older first page are dropped.
	resets  atomic.Uint64
	stopped atomic.Bool
}

// New returns a Feed for group:id backed by client.
func New(client api.FeedsAPI, opts Options) *Feed {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.CommentPageSize <= 0 {
		opts.CommentPageSize = defaultCommentPageSize
	}
	fid := FID(opts.Group, opts.ID)
	return &Feed{
		client:  client,
		opts:    opts,
		fid:     fid,
		hc:      HandlerContext{UserID: opts.UserID},
		store:   state.New(&State{FID: fid}),
		tracker: optimistic.NewTracker(),
	}
}

// FID joins a feed group and id.
func FID(group, id string) string {
	return group + ":" + id
}

// FID returns the feed id ("group:id").
func (f *Feed) FID() string { return f.fid }

// State returns the current snapshot.
func (f *Feed) State() *State { return f.store.GetState() }

// Store exposes the store for subscriptions.
func (f *Feed) Store() *state.Store[State] { return f.store }

// GetOrCreateRequest selects what the first load fetches.
type GetOrCreateRequest struct {
	Watch  bool
	Limit  int
	View   string
	Filter map[string]any
	Data   *api.FeedInput

	FollowerLimit  int
	FollowingLimit int
	MemberLimit    int
}

// GetOrCreate loads the feed's first page, creating the feed if needed, and
// replaces the snapshot with it. With Watch set the feed starts receiving
// realtime events.
func (f *Feed) GetOrCreate(ctx context.Context, req GetOrCreateRequest) error {
	_, err, _ := f.loads.Do(keyGetOrCreate, func() (any, error) {
		return nil, f.getOrCreate(ctx, req)
	})
	return err
}

func (f *Feed) getOrCreate(ctx context.Context, req GetOrCreateRequest) error {
	f.resets.Add(1)
	f.store.PartialNext(func(d *State) {
		d.ActivitiesPagination = d.ActivitiesPagination.Begin()
		d.LastError = nil
	})

	body := api.GetOrCreateFeedRequest{
		Limit:  req.Limit,
		View:   req.View,
		Watch:  req.Watch,
		Data:   req.Data,
		Filter: req.Filter,
	}
	if body.Limit <= 0 {
		body.Limit = f.opts.PageSize
	}
	if req.Watch && f.opts.ConnectionID != nil {
		body.ConnectionID = f.opts.ConnectionID()
	}
	if req.FollowerLimit > 0 {
		body.FollowerPagination = &api.PagerRequest{Limit: req.FollowerLimit}
	}
	if req.FollowingLimit > 0 {
		body.FollowingPagination = &api.PagerRequest{Limit: req.FollowingLimit}
	}
	if req.MemberLimit > 0 {
		body.MemberPagination = &api.PagerRequest{Limit: req.MemberLimit}
	}

	resp, err := f.client.GetOrCreateFeed(ctx, f.opts.Group, f.opts.ID, body)
	if err != nil {
		err = fmt.Errorf("get or create feed %s: %w", f.fid, err)
		f.store.PartialNext(func(d *State) {
			d.ActivitiesPagination = d.ActivitiesPagination.Failed()
			d.LastError = err
		})
		return err
	}

	fd := resp.Feed
	f.store.PartialNext(func(d *State) {
		d.Feed = &fd
		d.Activities = merge.AppendUnique(nil, resp.Activities, activityID)
		d.ActivitiesPagination = page.Received(resp.Next)
		d.PinnedActivities = merge.AppendUnique(nil, resp.PinnedActivities, pinID)
		d.CommentsByEntityID = nil
		d.Followers = resp.Followers
		d.FollowersPagination = pagerState(resp.FollowersPagination, len(resp.Followers))
		d.Following = resp.Following
		d.FollowingPagination = pagerState(resp.FollowingPagination, len(resp.Following))
		d.Members = resp.Members
		d.MembersPagination = pagerState(resp.MemberPagination, len(resp.Members))
		d.OwnFollows = resp.OwnFollows
		d.OwnCapabilities = resp.OwnCapabilities
		d.NotificationStatus = resp.NotificationStatus
		d.AggregatedActivities = resp.AggregatedActivities
		d.Watch = req.Watch
		d.Deleted = false
		d.LastError = nil
	})
	if req.Watch {
		f.stopped.Store(false)
	}
	glog.V(2).Infof("feed %s loaded: %d activities, next=%q", f.fid, len(resp.Activities), resp.Next)
	return nil
}

// pagerState maps a nested list's cursors. A list the server did not return
// at all stays unknown.
func pagerState(p *api.PagerResponse, n int) page.State {
	if p == nil {
		if n > 0 {
			return page.Received("")
		}
		return page.State{}
	}
	return page.Received(p.Next)
}

// GetNextPage loads the next page of activities. It is a no-op when the first
// page has not been loaded, when there is no next page, or when another load
// is in flight; a caller arriving during an in-flight load gets that load's
// result.
func (f *Feed) GetNextPage(ctx context.Context) error {
	if !f.State().ActivitiesPagination.CanLoadNext() && !f.State().ActivitiesPagination.Loading {
		return nil
	}
	resets := f.resets.Load()
	return f.paginate(ctx, keyActivities, false,
		func(s *State) *page.State { return &s.ActivitiesPagination },
		func(ctx context.Context, cursor string) (func(*State) bool, string, error) {
			resp, err := f.client.GetOrCreateFeed(ctx, f.opts.Group, f.opts.ID, api.GetOrCreateFeedRequest{
				Limit: f.opts.PageSize,
				Next:  cursor,
			})
			if err != nil {
				return nil, "", fmt.Errorf("load next page of %s: %w", f.fid, err)
			}
			return func(d *State) bool {
				if f.resets.Load() != resets {
					return false
				}
				d.Activities = merge.AppendUnique(d.Activities, resp.Activities, activityID)
				return true
			}, resp.Next, nil
		})
}

// LoadNextPageFollowers loads the first or next page of followers.
func (f *Feed) LoadNextPageFollowers(ctx context.Context) error {
	return f.paginate(ctx, keyFollowers, true,
		func(s *State) *page.State { return &s.FollowersPagination },
		func(ctx context.Context, cursor string) (func(*State) bool, string, error) {
			resp, err := f.client.QueryFollows(ctx, api.QueryFollowsRequest{
				Filter: map[string]any{"target_feed": f.fid},
				Limit:  f.opts.PageSize,
				Next:   cursor,
			})
			if err != nil {
				return nil, "", fmt.Errorf("load followers of %s: %w", f.fid, err)
			}
			return func(d *State) bool {
				d.Followers = merge.AppendUnique(d.Followers, resp.Follows, followKey)
				return true
			}, resp.Next, nil
		})
}

// LoadNextPageFollowing loads the first or next page of followed feeds.
func (f *Feed) LoadNextPageFollowing(ctx context.Context) error {
	return f.paginate(ctx, keyFollowing, true,
		func(s *State) *page.State { return &s.FollowingPagination },
		func(ctx context.Context, cursor string) (func(*State) bool, string, error) {
			resp, err := f.client.QueryFollows(ctx, api.QueryFollowsRequest{
				Filter: map[string]any{"source_feed": f.fid},
				Limit:  f.opts.PageSize,
				Next:   cursor,
			})
			if err != nil {
				return nil, "", fmt.Errorf("load following of %s: %w", f.fid, err)
			}
			return func(d *State) bool {
				d.Following = merge.AppendUnique(d.Following, resp.Follows, followKey)
				return true
			}, resp.Next, nil
		})
}

// LoadNextPageMembers loads the first or next page of members.
func (f *Feed) LoadNextPageMembers(ctx context.Context) error {
	return f.paginate(ctx, keyMembers, true,
		func(s *State) *page.State { return &s.MembersPagination },
		func(ctx context.Context, cursor string) (func(*State) bool, string, error) {
			resp, err := f.client.QueryFeedMembers(ctx, api.QueryFeedMembersRequest{
				FeedGroup: f.opts.Group,
				FeedID:    f.opts.ID,
				Limit:     f.opts.PageSize,
				Next:      cursor,
			})
			if err != nil {
				return nil, "", fmt.Errorf("load members of %s: %w", f.fid, err)
			}
			return func(d *State) bool {
				d.Members = merge.AppendUnique(d.Members, resp.Members, memberID)
				return true
			}, resp.Next, nil
		})
}

// pageFetch fetches the page after cursor. apply merges it into a draft and
// reports false when the result is stale and must be dropped.
type pageFetch func(ctx context.Context, cursor string) (apply func(*State) bool, next string, err error)

// paginate runs one page load of the list selected by pageOf. At most one
// load per key is in flight; the claim on the list's pagination state is
// taken atomically so a caller racing past singleflight still cannot start a
// second request. allowFirst permits loading a list that has no page yet.
func (f *Feed) paginate(ctx context.Context, key string, allowFirst bool, pageOf func(*State) *page.State, fetch pageFetch) error {
	_, err, _ := f.loads.Do(key, func() (any, error) {
		var cursor string
		claimed := f.store.Reduce(func(cur *State) (*State, bool) {
			p := *pageOf(cur)
			if !p.CanLoad() || (!p.Loaded && !allowFirst) {
				return nil, false
			}
			cursor = p.Next
			next := *cur
			*pageOf(&next) = p.Begin()
			return &next, true
		})
		if !claimed {
			return nil, nil
		}

		apply, nextCursor, err := fetch(ctx, cursor)
		if err != nil {
			glog.Infof("feed: %v", err)
			f.store.PartialNext(func(d *State) {
				*pageOf(d) = pageOf(d).Failed()
				d.LastError = err
			})
			return nil, err
		}
		f.store.Reduce(func(cur *State) (*State, bool) {
			next := *cur
			if !apply(&next) {
				return nil, false
			}
			*pageOf(&next) = page.Received(nextCursor)
			return &next, true
		})
		return nil, nil
	})
	return err
}

// HandleEvent applies a realtime event to the snapshot. Events must be handed
// over in the order they were received. It reports whether the snapshot
// changed.
func (f *Feed) HandleEvent(ev events.Event) bool {
	changed := f.store.Reduce(func(cur *State) (*State, bool) {
		p, ok := Reduce(cur, ev, f.hc)
		if !ok {
			return nil, false
		}
		next := *cur
		p.Apply(&next)
		return &next, true
	})
	f.opts.Metrics.EventHandled(ev.Type(), changed)
	if glog.V(2) {
		glog.Infof("feed %s: %s changed=%t", f.fid, ev.Type(), changed)
	}
	return changed
}

// StopWatching stops realtime delivery to this feed. The snapshot is kept.
func (f *Feed) StopWatching() {
	if !f.stopped.CompareAndSwap(false, true) {
		return
	}
	f.store.PartialNext(func(d *State) { d.Watch = false })
	if f.opts.OnStopWatching != nil {
		f.opts.OnStopWatching(f.fid)
	}
}

// Follow makes this feed follow target. An existing follow is not an error.
func (f *Feed) Follow(ctx context.Context, target string) error {
	resp, err := f.client.Follow(ctx, api.FollowRequest{Source: f.fid, Target: target})
	if err != nil {
		if api.IsConflict(err) {
			glog.V(2).Infof("%s already follows %s", f.fid, target)
			return nil
		}
		return fmt.Errorf("follow %s from %s: %w", target, f.fid, err)
	}
	f.store.Reduce(func(cur *State) (*State, bool) {
		p, ok := followCreated(cur, &events.FollowCreated{Follow: resp.Follow}, f.hc)
		if !ok {
			return nil, false
		}
		next := *cur
		p.Apply(&next)
		return &next, true
	})
	return nil
}

// Unfollow removes this feed's follow of target.
func (f *Feed) Unfollow(ctx context.Context, target string) error {
	resp, err := f.client.Unfollow(ctx, f.fid, target)
	if err != nil {
		return fmt.Errorf("unfollow %s from %s: %w", target, f.fid, err)
	}
	follow := api.Follow{SourceFeed: api.FeedData{FID: f.fid}, TargetFeed: api.FeedData{FID: target}}
	withCounts := resp != nil && resp.Follow.SourceFeed.FID == f.fid
	if withCounts {
		follow = resp.Follow
	}
	f.store.Reduce(func(cur *State) (*State, bool) {
		var p Patch
		var ok bool
		if withCounts {
			p, ok = followDeleted(cur, &events.FollowDeleted{Follow: follow}, f.hc)
		} else {
			p.Following, ok = merge.Remove(cur.Following, followKey, follow.Key())
			if ok {
				p.Fields |= FieldFollowing
				if cur.Feed != nil && cur.Feed.FollowingCount > 0 {
					fd := *cur.Feed
					fd.FollowingCount--
					p.Feed = &fd
					p.Fields |= FieldFeed
				}
			}
		}
		if !ok {
			return nil, false
		}
		next := *cur
		p.Apply(&next)
		return &next, true
	})
	return nil
}
