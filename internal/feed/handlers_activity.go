package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
)

func activityAdded(cur *State, e *events.ActivityAdded) (Patch, bool) {
	if merge.IndexOf(cur.Activities, activityID, e.Activity.ID) >= 0 {
		return Patch{}, false
	}
	return Patch{
		Fields:     FieldActivities,
		Activities: merge.Prepend(cur.Activities, []api.Activity{e.Activity}, activityID),
	}, true
}

func activityUpdated(cur *State, e *events.ActivityUpdated) (Patch, bool) {
	return updateActivity(cur, e.Activity.ID, func(old api.Activity) api.Activity {
		return keepOwnFields(e.Activity, old)
	})
}

func activityDeleted(cur *State, e *events.ActivityDeleted) (Patch, bool) {
	var p Patch
	if acts, ok := merge.Remove(cur.Activities, activityID, e.Activity.ID); ok {
		p.Activities = acts
		p.Fields |= FieldActivities
	}
	if pins, ok := merge.Remove(cur.PinnedActivities, pinID, e.Activity.ID); ok {
		p.PinnedActivities = pins
		p.Fields |= FieldPinnedActivities
	}
	if comments, ok := withoutCommentPages(cur.CommentsByEntityID, e.Activity.ID); ok {
		p.CommentsByEntityID = comments
		p.Fields |= FieldComments
	}
	return p, !p.Empty()
}

func activityPinned(cur *State, e *events.ActivityPinned) (Patch, bool) {
	pin := e.PinnedActivity
	if idx := merge.IndexOf(cur.PinnedActivities, pinID, pin.Activity.ID); idx >= 0 {
		return Patch{}, false
	}
	if own, ok := cur.Activity(pin.Activity.ID); ok {
		pin.Activity = keepOwnFields(pin.Activity, own)
	}
	return Patch{
		Fields:           FieldPinnedActivities,
		PinnedActivities: merge.Prepend(cur.PinnedActivities, []api.ActivityPin{pin}, pinID),
	}, true
}

func activityUnpinned(cur *State, e *events.ActivityUnpinned) (Patch, bool) {
	pins, ok := merge.Remove(cur.PinnedActivities, pinID, e.PinnedActivity.Activity.ID)
	if !ok {
		return Patch{}, false
	}
	return Patch{Fields: FieldPinnedActivities, PinnedActivities: pins}, true
}

func activityReactionAdded(cur *State, e *events.ActivityReactionAdded, hc HandlerContext) (Patch, bool) {
	own := isOwn(hc, e.Reaction.User.ID)
	return updateActivity(cur, e.Activity.ID, func(old api.Activity) api.Activity {
		next := keepOwnFields(e.Activity, old)
		if own {
			next.OwnReactions = merge.ReplacePreservingOrder(old.OwnReactions, []api.Reaction{e.Reaction}, reactionKey)
		}
		return next
	})
}

func activityReactionDeleted(cur *State, e *events.ActivityReactionDeleted, hc HandlerContext) (Patch, bool) {
	own := isOwn(hc, e.Reaction.User.ID)
	return updateActivity(cur, e.Activity.ID, func(old api.Activity) api.Activity {
		next := keepOwnFields(e.Activity, old)
		if own {
			next.OwnReactions, _ = merge.Remove(old.OwnReactions, reactionKey, e.Reaction.Key())
		}
		return next
	})
}

// bookmarkCount prefers the count the server attached to the bookmark.
func bookmarkCount(b api.Bookmark, fallback int) int {
	if b.Activity != nil {
		return b.Activity.BookmarkCount
	}
	return fallback
}

func bookmarkAdded(cur *State, e *events.BookmarkAdded, hc HandlerContext) (Patch, bool) {
	b := e.Bookmark
	id := b.TargetActivityID()
	own := isOwn(hc, b.User.ID)
	if _, ok := cur.Activity(id); !ok && merge.IndexOf(cur.PinnedActivities, pinID, id) < 0 {
		return Patch{}, false
	}
	changed := false
	p, _ := updateActivity(cur, id, func(old api.Activity) api.Activity {
		next := old
		fallback := old.BookmarkCount
		if own && merge.IndexOf(old.OwnBookmarks, bookmarkKey, b.Key()) < 0 {
			fallback++
		}
		next.BookmarkCount = bookmarkCount(b, fallback)
		if own {
			next.OwnBookmarks = merge.ReplacePreservingOrder(old.OwnBookmarks, []api.Bookmark{stripActivity(b)}, bookmarkKey)
		}
		if next.BookmarkCount != old.BookmarkCount || own {
			changed = true
		}
		return next
	})
	return p, changed
}

func bookmarkUpdated(cur *State, e *events.BookmarkUpdated, hc HandlerContext) (Patch, bool) {
	b := e.Bookmark
	if !isOwn(hc, b.User.ID) {
		return Patch{}, false
	}
	id := b.TargetActivityID()
	return updateActivity(cur, id, func(old api.Activity) api.Activity {
		// A folder move changes the key, so the activity's bookmarks are
		// replaced as a whole.
		next := old
		kept := make([]api.Bookmark, 0, len(old.OwnBookmarks))
		for _, ob := range old.OwnBookmarks {
			if ob.TargetActivityID() != id {
				kept = append(kept, ob)
			}
		}
		next.OwnBookmarks = append(kept, stripActivity(b))
		return next
	})
}

func bookmarkDeleted(cur *State, e *events.BookmarkDeleted, hc HandlerContext) (Patch, bool) {
	b := e.Bookmark
	id := b.TargetActivityID()
	own := isOwn(hc, b.User.ID)
	changed := false
	p, _ := updateActivity(cur, id, func(old api.Activity) api.Activity {
		next := old
		removed := false
		if own {
			next.OwnBookmarks, removed = merge.Remove(old.OwnBookmarks, bookmarkKey, b.Key())
		}
		fallback := old.BookmarkCount
		if removed && fallback > 0 {
			fallback--
		}
		next.BookmarkCount = bookmarkCount(b, fallback)
		if removed || next.BookmarkCount != old.BookmarkCount {
			changed = true
		}
		return next
	})
	return p, changed
}

// stripActivity drops the embedded activity so own bookmarks do not hold a
// second, stale copy of their parent.
func stripActivity(b api.Bookmark) api.Bookmark {
	if b.ActivityID == "" && b.Activity != nil {
		b.ActivityID = b.Activity.ID
	}
	b.Activity = nil
	return b
}

func activityMarked(cur *State, e *events.ActivityMarked) (Patch, bool) {
	status := markStatus(cur, MarkRequest{
		MarkAllRead: e.MarkAllRead,
		MarkAllSeen: e.MarkAllSeen,
		MarkRead:    e.MarkRead,
		MarkSeen:    e.MarkSeen,
	})
	if status == nil {
		return Patch{}, false
	}
	return Patch{Fields: FieldNotificationStatus, NotificationStatus: status}, true
}

// MarkRequest marks notification activities as read or seen.
type MarkRequest struct {
	MarkAllRead bool
	MarkAllSeen bool
	MarkRead    []string
	MarkSeen    []string
}

// markStatus returns the notification status after marking, or nil when
// nothing changes. Ids are aggregation groups on aggregated feeds and
// activity ids otherwise.
func markStatus(cur *State, req MarkRequest) *api.NotificationStatus {
	if cur.NotificationStatus == nil {
		return nil
	}
	old := cur.NotificationStatus
	next := *old
	changed := false

	all := markableIDs(cur)
	if req.MarkAllRead {
		req.MarkRead = all
	}
	if req.MarkAllSeen {
		req.MarkSeen = all
	}

	if len(req.MarkRead) > 0 || req.MarkAllRead {
		read, added := addIDs(old.ReadActivities, req.MarkRead)
		next.ReadActivities = read
		unread := old.UnreadCount - added
		if req.MarkAllRead || unread < 0 {
			unread = 0
		}
		if added > 0 || unread != old.UnreadCount {
			changed = true
		}
		next.UnreadCount = unread
	}
	if len(req.MarkSeen) > 0 || req.MarkAllSeen {
		seen, added := addIDs(old.SeenActivities, req.MarkSeen)
		next.SeenActivities = seen
		unseen := old.UnseenCount - added
		if req.MarkAllSeen || unseen < 0 {
			unseen = 0
		}
		if added > 0 || unseen != old.UnseenCount {
			changed = true
		}
		next.UnseenCount = unseen
	}
	if !changed {
		return nil
	}
	return &next
}

func markableIDs(cur *State) []string {
	if len(cur.AggregatedActivities) > 0 {
		ids := make([]string, 0, len(cur.AggregatedActivities))
		for _, g := range cur.AggregatedActivities {
			ids = append(ids, g.Group)
		}
		return ids
	}
	ids := make([]string, 0, len(cur.Activities))
	for _, a := range cur.Activities {
		ids = append(ids, a.ID)
	}
	return ids
}

// addIDs returns existing plus the ids not yet in it, and how many were new.
func addIDs(existing, ids []string) ([]string, int) {
	identity := func(s string) string { return s }
	out := merge.AppendUnique(existing, ids, identity)
	return out, len(out) - len(merge.AppendUnique(existing, nil, identity))
}
