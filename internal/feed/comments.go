package feed

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/merge"
	"github.com/five82/feeds/internal/page"
)

// CommentsRequest tunes a comment page load. Zero values use the feed's
// defaults.
type CommentsRequest struct {
	Limit int
	Sort  string
	// Depth asks for nested replies with top-level comments.
	Depth int
}

// LoadNextPageActivityComments loads the first or next page of top-level
// comments of activityID. It is a no-op while a load for the same activity is
// in flight or when the activity's comments are exhausted.
func (f *Feed) LoadNextPageActivityComments(ctx context.Context, activityID string, req CommentsRequest) error {
	return f.loadComments(ctx, activityID, func(ctx context.Context, cursor string, limit int) (*api.CommentsResponse, error) {
		return f.client.GetComments(ctx, api.GetCommentsRequest{
			ObjectID:   activityID,
			ObjectType: "activity",
			Sort:       req.Sort,
			Depth:      req.Depth,
			Limit:      limit,
			Next:       cursor,
		})
	}, req.Limit)
}

// LoadNextPageCommentReplies loads the first or next page of replies to
// commentID, with the same guard as LoadNextPageActivityComments.
func (f *Feed) LoadNextPageCommentReplies(ctx context.Context, commentID string, req CommentsRequest) error {
	return f.loadComments(ctx, commentID, func(ctx context.Context, cursor string, limit int) (*api.CommentsResponse, error) {
		return f.client.GetCommentReplies(ctx, api.GetCommentRepliesRequest{
			CommentID: commentID,
			Sort:      req.Sort,
			Limit:     limit,
			Next:      cursor,
		})
	}, req.Limit)
}

type commentsFetch func(ctx context.Context, cursor string, limit int) (*api.CommentsResponse, error)

func (f *Feed) loadComments(ctx context.Context, entityID string, fetch commentsFetch, limit int) error {
	if entityID == "" {
		return fmt.Errorf("load comments: empty entity id")
	}
	if limit <= 0 {
		limit = f.opts.CommentPageSize
	}
	_, err, _ := f.loads.Do("comments:"+entityID, func() (any, error) {
		var cursor string
		claimed := f.store.Reduce(func(cur *State) (*State, bool) {
			cp := cur.CommentsByEntityID[entityID]
			if !cp.Pagination.CanLoad() {
				return nil, false
			}
			cursor = cp.Pagination.Next
			cp.Pagination = cp.Pagination.Begin()
			next := *cur
			next.CommentsByEntityID = withCommentPage(cur.CommentsByEntityID, entityID, cp)
			return &next, true
		})
		if !claimed {
			return nil, nil
		}

		resp, err := fetch(ctx, cursor, limit)
		if err != nil {
			err = fmt.Errorf("load comments of %s: %w", entityID, err)
			glog.Infof("feed %s: %v", f.fid, err)
			f.store.PartialNext(func(d *State) {
				cp := d.CommentsByEntityID[entityID]
				cp.Pagination = cp.Pagination.Failed()
				d.CommentsByEntityID = withCommentPage(d.CommentsByEntityID, entityID, cp)
				d.LastError = err
			})
			return nil, err
		}

		f.store.PartialNext(func(d *State) {
			cp := d.CommentsByEntityID[entityID]
			cp.Comments = merge.AppendUnique(cp.Comments, resp.Comments, commentID)
			cp.Pagination = page.Received(resp.Next)
			d.CommentsByEntityID = withCommentPage(d.CommentsByEntityID, entityID, cp)
		})
		return nil, nil
	})
	return err
}
