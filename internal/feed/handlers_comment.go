package feed

import (
	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/merge"
)

// findComment locates comment id among the loaded pages.
func findComment(cur *State, entityID, id string) (api.Comment, bool) {
	cp, ok := cur.CommentsByEntityID[entityID]
	if !ok {
		return api.Comment{}, false
	}
	idx := merge.IndexOf(cp.Comments, commentID, id)
	if idx < 0 {
		return api.Comment{}, false
	}
	return cp.Comments[idx], true
}

// updateParentReplyCount applies delta to the reply count of comment
// parentID wherever it is loaded.
func updateParentReplyCount(pages map[string]CommentPage, parentID string, delta int) (map[string]CommentPage, bool) {
	for entityID, cp := range pages {
		comments, ok := merge.Update(cp.Comments, commentID, parentID, func(c api.Comment) api.Comment {
			c.ReplyCount += delta
			if c.ReplyCount < 0 {
				c.ReplyCount = 0
			}
			return c
		})
		if ok {
			cp.Comments = comments
			return withCommentPage(pages, entityID, cp), true
		}
	}
	return pages, false
}

func commentAdded(cur *State, e *events.CommentAdded) (Patch, bool) {
	c := e.Comment
	entityID := c.EntityID()
	if _, dup := findComment(cur, entityID, c.ID); dup {
		return Patch{}, false
	}

	var p Patch
	pages := cur.CommentsByEntityID
	if cp, loaded := pages[entityID]; loaded {
		cp.Comments = merge.AppendUnique(cp.Comments, []api.Comment{c}, commentID)
		pages = withCommentPage(pages, entityID, cp)
		p.Fields |= FieldComments
	}

	if c.ParentID != "" {
		if next, ok := updateParentReplyCount(pages, c.ParentID, 1); ok {
			pages = next
			p.Fields |= FieldComments
		}
	} else {
		ap, ok := updateActivity(cur, c.ObjectID, func(a api.Activity) api.Activity {
			if e.Activity != nil && e.Activity.ID == a.ID {
				a.CommentCount = e.Activity.CommentCount
			} else {
				a.CommentCount++
			}
			return a
		})
		if ok {
			p.Fields |= ap.Fields
			p.Activities = ap.Activities
			p.PinnedActivities = ap.PinnedActivities
		}
	}
	p.CommentsByEntityID = pages
	return p, !p.Empty()
}

func commentUpdated(cur *State, e *events.CommentUpdated) (Patch, bool) {
	return updateComment(cur, e.Comment, func(old api.Comment) api.Comment {
		next := e.Comment
		next.OwnReactions = old.OwnReactions
		return next
	})
}

func commentDeleted(cur *State, e *events.CommentDeleted) (Patch, bool) {
	c := e.Comment
	entityID := c.EntityID()

	var p Patch
	pages := cur.CommentsByEntityID
	if cp, ok := pages[entityID]; ok {
		if comments, removed := merge.Remove(cp.Comments, commentID, c.ID); removed {
			cp.Comments = comments
			pages = withCommentPage(pages, entityID, cp)
			p.Fields |= FieldComments
		}
	}
	// Replies of the deleted comment go with it.
	if next, ok := withoutCommentPages(pages, c.ID); ok {
		pages = next
		p.Fields |= FieldComments
	}

	if c.ParentID != "" {
		if next, ok := updateParentReplyCount(pages, c.ParentID, -1); ok {
			pages = next
			p.Fields |= FieldComments
		}
	} else {
		ap, ok := updateActivity(cur, c.ObjectID, func(a api.Activity) api.Activity {
			if a.CommentCount > 0 {
				a.CommentCount--
			}
			a.Comments, _ = merge.Remove(a.Comments, commentID, c.ID)
			return a
		})
		if ok {
			p.Fields |= ap.Fields
			p.Activities = ap.Activities
			p.PinnedActivities = ap.PinnedActivities
		}
	}
	p.CommentsByEntityID = pages
	return p, !p.Empty()
}

func commentReactionAdded(cur *State, e *events.CommentReactionAdded, hc HandlerContext) (Patch, bool) {
	own := isOwn(hc, e.Reaction.User.ID)
	return updateComment(cur, e.Comment, func(old api.Comment) api.Comment {
		next := e.Comment
		next.OwnReactions = old.OwnReactions
		if own {
			next.OwnReactions = merge.ReplacePreservingOrder(old.OwnReactions, []api.Reaction{e.Reaction}, reactionKey)
		}
		return next
	})
}

func commentReactionDeleted(cur *State, e *events.CommentReactionDeleted, hc HandlerContext) (Patch, bool) {
	own := isOwn(hc, e.Reaction.User.ID)
	return updateComment(cur, e.Comment, func(old api.Comment) api.Comment {
		next := e.Comment
		next.OwnReactions = old.OwnReactions
		if own {
			next.OwnReactions, _ = merge.Remove(old.OwnReactions, reactionKey, e.Reaction.Key())
		}
		return next
	})
}

func updateComment(cur *State, c api.Comment, fn func(api.Comment) api.Comment) (Patch, bool) {
	entityID := c.EntityID()
	cp, ok := cur.CommentsByEntityID[entityID]
	if !ok {
		return Patch{}, false
	}
	comments, ok := merge.Update(cp.Comments, commentID, c.ID, fn)
	if !ok {
		return Patch{}, false
	}
	cp.Comments = comments
	return Patch{Fields: FieldComments, CommentsByEntityID: withCommentPage(cur.CommentsByEntityID, entityID, cp)}, true
}
