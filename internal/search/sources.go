package search

import (
	"context"
	"strconv"

	"github.com/five82/feeds/internal/api"
)

// Source kinds.
const (
	TypeActivity = "activity"
	TypeFeed     = "feed"
	TypeUser     = "user"
)

// NewActivitySource searches activity text.
func NewActivitySource(client api.FeedsAPI, opts SourceOptions) *Source[api.Activity] {
	return NewSource(TypeActivity, func(a api.Activity) string { return a.ID },
		func(ctx context.Context, query, cursor string, limit int) ([]api.Activity, string, error) {
			req := api.QueryActivitiesRequest{
				Sort:  []api.SortParam{{Field: "created_at", Direction: -1}},
				Limit: limit,
				Next:  cursor,
			}
			if query != "" {
				req.Filter = map[string]any{"text": map[string]any{"$q": query}}
			}
			resp, err := client.QueryActivities(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return resp.Activities, resp.Next, nil
		}, opts)
}

// NewFeedSource searches feed names.
func NewFeedSource(client api.FeedsAPI, opts SourceOptions) *Source[api.FeedData] {
	return NewSource(TypeFeed, func(f api.FeedData) string { return f.FID },
		func(ctx context.Context, query, cursor string, limit int) ([]api.FeedData, string, error) {
			req := api.QueryFeedsRequest{Limit: limit, Next: cursor}
			if query != "" {
				req.Filter = map[string]any{"name": map[string]any{"$q": query}}
			}
			resp, err := client.QueryFeeds(ctx, req)
			if err != nil {
				return nil, "", err
			}
			return resp.Feeds, resp.Next, nil
		}, opts)
}

// NewUserSource searches users by name. The users endpoint pages by offset,
// so the cursor is the offset of the next page; a short page ends the list.
func NewUserSource(client api.FeedsAPI, opts SourceOptions) *Source[api.User] {
	return NewSource(TypeUser, func(u api.User) string { return u.ID },
		func(ctx context.Context, query, cursor string, limit int) ([]api.User, string, error) {
			offset := 0
			if cursor != "" {
				n, err := strconv.Atoi(cursor)
				if err != nil {
					return nil, "", err
				}
				offset = n
			}
			req := api.QueryUsersRequest{
				Sort:   []api.SortParam{{Field: "name", Direction: 1}},
				Limit:  limit,
				Offset: offset,
			}
			if query != "" {
				req.Filter = map[string]any{"name": map[string]any{"$autocomplete": query}}
			}
			resp, err := client.QueryUsers(ctx, req)
			if err != nil {
				return nil, "", err
			}
			next := ""
			if len(resp.Users) >= limit {
				next = strconv.Itoa(offset + len(resp.Users))
			}
			return resp.Users, next, nil
		}, opts)
}
