package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/merge"
	"github.com/five82/feeds/internal/optimistic"
)

// findActivity looks id up among the activities, then the pinned ones.
func findActivity(cur *State, id string) (api.Activity, bool) {
	if a, ok := cur.Activity(id); ok {
		return a, true
	}
	if idx := merge.IndexOf(cur.PinnedActivities, pinID, id); idx >= 0 {
		return cur.PinnedActivities[idx].Activity, true
	}
	return api.Activity{}, false
}

// patchActivity applies fn to activity id. It reports false when the activity
// is not loaded.
func (f *Feed) patchActivity(id string, fn func(api.Activity) api.Activity) bool {
	return f.store.Reduce(func(cur *State) (*State, bool) {
		p, changed := updateActivity(cur, id, fn)
		if !changed {
			return nil, false
		}
		next := *cur
		p.Apply(&next)
		return &next, true
	})
}

// applyMutation applies m optimistically and tags it as the newest mutation of
// key. found is false when the activity is not loaded; applied is false when
// it is not loaded or m has nothing to do.
func (f *Feed) applyMutation(key string, m mutation) (before api.Activity, tag optimistic.Tag, found, applied bool) {
	f.store.Reduce(func(cur *State) (*State, bool) {
		before, found = findActivity(cur, m.activityID)
		if !found || (m.noop != nil && m.noop(before)) {
			return nil, false
		}
		p, changed := updateActivity(cur, m.activityID, m.apply)
		if !changed {
			return nil, false
		}
		tag = f.tracker.Begin(key)
		applied = true
		next := *cur
		p.Apply(&next)
		return &next, true
	})
	return before, tag, found, applied
}

// mutation runs one optimistic round trip on an activity: apply, call the
// server, then roll back on failure or reconcile on success. Both only happen
// while the mutation is still the newest of its key.
type mutation struct {
	kind       string
	activityID string
	apply      func(api.Activity) api.Activity
	restore    func(current, before api.Activity) api.Activity
	// noop reports whether the activity already is what the mutation asks
	// for; such calls neither patch nor reach the server.
	noop func(api.Activity) bool
	call func(ctx context.Context) (reconcile func(api.Activity) api.Activity, err error)
	// benign reports errors that leave the optimistic state correct.
	benign func(error) bool
}

func (f *Feed) runMutation(ctx context.Context, m mutation) error {
	key := m.kind + ":" + m.activityID
	before, tag, found, applied := f.applyMutation(key, m)
	if found && !applied {
		glog.V(2).Infof("feed %s: %s %s: nothing to do", f.fid, m.kind, m.activityID)
		return nil
	}
	if applied {
		defer f.tracker.Done(key, tag)
	}

	reconcile, err := m.call(ctx)
	if err != nil {
		if m.benign != nil && m.benign(err) {
			glog.V(2).Infof("feed %s: %s %s: %v", f.fid, m.kind, m.activityID, err)
			return nil
		}
		if applied {
			f.rollback(key, tag, m, before)
		}
		return fmt.Errorf("%s %s: %w", m.kind, m.activityID, err)
	}
	if reconcile != nil && (!applied || f.tracker.IsLatest(key, tag)) {
		f.patchActivity(m.activityID, reconcile)
	}
	return nil
}

func (f *Feed) rollback(key string, tag optimistic.Tag, m mutation, before api.Activity) {
	if !f.tracker.IsLatest(key, tag) {
		glog.V(2).Infof("feed %s: %s superseded, no rollback", f.fid, key)
		return
	}
	f.patchActivity(m.activityID, func(current api.Activity) api.Activity {
		return m.restore(current, before)
	})
	f.opts.Metrics.Rollback(m.kind)
	glog.Infof("feed %s: rolled back %s", f.fid, key)
}

func restoreBookmarks(current, before api.Activity) api.Activity {
	current.OwnBookmarks = before.OwnBookmarks
	current.BookmarkCount = before.BookmarkCount
	return current
}

func restoreReactions(current, before api.Activity) api.Activity {
	current.OwnReactions = before.OwnReactions
	current.ReactionCount = before.ReactionCount
	current.ReactionGroups = before.ReactionGroups
	current.LatestReactions = before.LatestReactions
	return current
}

// AddBookmark bookmarks activityID, optionally in folderID. The bookmark
// shows up at once and is rolled back if the server rejects it.
func (f *Feed) AddBookmark(ctx context.Context, activityID, folderID string) error {
	pending := api.Bookmark{
		ActivityID: activityID,
		User:       api.User{ID: f.opts.UserID},
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if folderID != "" {
		pending.Folder = &api.BookmarkFolder{ID: folderID}
	}
	return f.runMutation(ctx, mutation{
		kind:       "bookmark",
		activityID: activityID,
		noop: func(a api.Activity) bool {
			return merge.IndexOf(a.OwnBookmarks, bookmarkKey, pending.Key()) >= 0
		},
		apply: func(a api.Activity) api.Activity {
			if merge.IndexOf(a.OwnBookmarks, bookmarkKey, pending.Key()) < 0 {
				a.BookmarkCount++
			}
			a.OwnBookmarks = merge.ReplacePreservingOrder(a.OwnBookmarks, []api.Bookmark{pending}, bookmarkKey)
			return a
		},
		restore: restoreBookmarks,
		call: func(ctx context.Context) (func(api.Activity) api.Activity, error) {
			resp, err := f.client.AddBookmark(ctx, api.AddBookmarkRequest{ActivityID: activityID, FolderID: folderID})
			if err != nil {
				return nil, err
			}
			return func(a api.Activity) api.Activity {
				server := stripActivity(resp.Bookmark)
				own, _ := merge.Remove(a.OwnBookmarks, bookmarkKey, pending.Key())
				a.OwnBookmarks = merge.ReplacePreservingOrder(own, []api.Bookmark{server}, bookmarkKey)
				a.BookmarkCount = bookmarkCount(resp.Bookmark, a.BookmarkCount)
				return a
			}, nil
		},
		benign: api.IsConflict,
	})
}

// DeleteBookmark removes the bookmark of activityID in folderID.
func (f *Feed) DeleteBookmark(ctx context.Context, activityID, folderID string) error {
	target := api.Bookmark{ActivityID: activityID}
	if folderID != "" {
		target.Folder = &api.BookmarkFolder{ID: folderID}
	}
	return f.runMutation(ctx, mutation{
		kind:       "bookmark",
		activityID: activityID,
		noop: func(a api.Activity) bool {
			return merge.IndexOf(a.OwnBookmarks, bookmarkKey, target.Key()) < 0
		},
		apply: func(a api.Activity) api.Activity {
			own, removed := merge.Remove(a.OwnBookmarks, bookmarkKey, target.Key())
			if removed && a.BookmarkCount > 0 {
				a.BookmarkCount--
			}
			a.OwnBookmarks = own
			return a
		},
		restore: restoreBookmarks,
		call: func(ctx context.Context) (func(api.Activity) api.Activity, error) {
			resp, err := f.client.DeleteBookmark(ctx, activityID, folderID)
			if err != nil {
				return nil, err
			}
			return func(a api.Activity) api.Activity {
				if resp != nil {
					a.BookmarkCount = bookmarkCount(resp.Bookmark, a.BookmarkCount)
				}
				return a
			}, nil
		},
	})
}

// AddReaction adds the current user's reaction of reactionType to activityID.
func (f *Feed) AddReaction(ctx context.Context, activityID, reactionType string) error {
	now := time.Now()
	pending := api.Reaction{
		Type:       reactionType,
		ActivityID: activityID,
		User:       api.User{ID: f.opts.UserID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return f.runMutation(ctx, mutation{
		kind:       "reaction",
		activityID: activityID,
		noop: func(a api.Activity) bool {
			return merge.IndexOf(a.OwnReactions, reactionKey, pending.Key()) >= 0
		},
		apply: func(a api.Activity) api.Activity {
			a.OwnReactions = merge.AppendUnique(a.OwnReactions, []api.Reaction{pending}, reactionKey)
			a.ReactionCount++
			a.ReactionGroups = bumpGroup(a.ReactionGroups, reactionType, 1, now)
			return a
		},
		restore: restoreReactions,
		call: func(ctx context.Context) (func(api.Activity) api.Activity, error) {
			resp, err := f.client.AddReaction(ctx, api.AddReactionRequest{ActivityID: activityID, Type: reactionType})
			if err != nil {
				return nil, err
			}
			return func(a api.Activity) api.Activity {
				a.OwnReactions = merge.ReplacePreservingOrder(a.OwnReactions, []api.Reaction{resp.Reaction}, reactionKey)
				if resp.Activity.ID == a.ID {
					a.ReactionCount = resp.Activity.ReactionCount
					a.ReactionGroups = resp.Activity.ReactionGroups
					a.LatestReactions = resp.Activity.LatestReactions
				}
				return a
			}, nil
		},
		benign: api.IsConflict,
	})
}

// DeleteReaction removes the current user's reaction of reactionType.
func (f *Feed) DeleteReaction(ctx context.Context, activityID, reactionType string) error {
	key := api.Reaction{Type: reactionType, User: api.User{ID: f.opts.UserID}}.Key()
	return f.runMutation(ctx, mutation{
		kind:       "reaction",
		activityID: activityID,
		noop: func(a api.Activity) bool {
			return merge.IndexOf(a.OwnReactions, reactionKey, key) < 0
		},
		apply: func(a api.Activity) api.Activity {
			own, _ := merge.Remove(a.OwnReactions, reactionKey, key)
			a.OwnReactions = own
			if a.ReactionCount > 0 {
				a.ReactionCount--
			}
			a.ReactionGroups = bumpGroup(a.ReactionGroups, reactionType, -1, time.Now())
			return a
		},
		restore: restoreReactions,
		call: func(ctx context.Context) (func(api.Activity) api.Activity, error) {
			resp, err := f.client.DeleteReaction(ctx, activityID, reactionType)
			if err != nil {
				return nil, err
			}
			return func(a api.Activity) api.Activity {
				if resp != nil && resp.Activity.ID == a.ID {
					a.ReactionCount = resp.Activity.ReactionCount
					a.ReactionGroups = resp.Activity.ReactionGroups
					a.LatestReactions = resp.Activity.LatestReactions
				}
				return a
			}, nil
		},
	})
}

// bumpGroup returns a copy of groups with the count of kind moved by delta.
// Groups that drop to zero are removed.
func bumpGroup(groups map[string]api.ReactionGroup, kind string, delta int, at time.Time) map[string]api.ReactionGroup {
	next := make(map[string]api.ReactionGroup, len(groups)+1)
	for k, v := range groups {
		next[k] = v
	}
	g := next[kind]
	g.Count += delta
	if delta > 0 {
		if g.FirstReactionAt.IsZero() {
			g.FirstReactionAt = at
		}
		g.LastReactionAt = at
	}
	if g.Count <= 0 {
		delete(next, kind)
	} else {
		next[kind] = g
	}
	return next
}

// MarkActivity marks notification activities as read or seen. The
// notification status updates at once and is restored if the server
// rejects the request.
func (f *Feed) MarkActivity(ctx context.Context, req MarkRequest) error {
	const key = "notification_status"
	var (
		before *api.NotificationStatus
		tag    optimistic.Tag
	)
	applied := f.store.Reduce(func(cur *State) (*State, bool) {
		status := markStatus(cur, req)
		if status == nil {
			return nil, false
		}
		tag = f.tracker.Begin(key)
		before = cur.NotificationStatus
		next := *cur
		next.NotificationStatus = status
		return &next, true
	})

	err := f.client.MarkActivity(ctx, api.MarkActivityRequest{
		FeedGroup:   f.opts.Group,
		FeedID:      f.opts.ID,
		MarkAllRead: req.MarkAllRead,
		MarkAllSeen: req.MarkAllSeen,
		MarkRead:    req.MarkRead,
		MarkSeen:    req.MarkSeen,
	})
	if applied {
		defer f.tracker.Done(key, tag)
	}
	if err != nil {
		if applied && f.tracker.IsLatest(key, tag) {
			f.store.PartialNext(func(d *State) { d.NotificationStatus = before })
			f.opts.Metrics.Rollback("mark")
			glog.Infof("feed %s: rolled back %s", f.fid, key)
		}
		return fmt.Errorf("mark activities on %s: %w", f.fid, err)
	}
	return nil
}
