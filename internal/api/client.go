package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FeedsAPI is the subset of the REST API the controllers depend on. It is
// implemented by *Client and by fakes in tests.
type FeedsAPI interface {
	GetOrCreateFeed(ctx context.Context, group, id string, req GetOrCreateFeedRequest) (*GetOrCreateFeedResponse, error)
	QueryActivities(ctx context.Context, req QueryActivitiesRequest) (*QueryActivitiesResponse, error)
	QueryFeeds(ctx context.Context, req QueryFeedsRequest) (*QueryFeedsResponse, error)
	QueryUsers(ctx context.Context, req QueryUsersRequest) (*QueryUsersResponse, error)
	GetComments(ctx context.Context, req GetCommentsRequest) (*CommentsResponse, error)
	GetCommentReplies(ctx context.Context, req GetCommentRepliesRequest) (*CommentsResponse, error)
	QueryFollows(ctx context.Context, req QueryFollowsRequest) (*QueryFollowsResponse, error)
	QueryFeedMembers(ctx context.Context, req QueryFeedMembersRequest) (*QueryFeedMembersResponse, error)
	AddBookmark(ctx context.Context, req AddBookmarkRequest) (*BookmarkResponse, error)
	DeleteBookmark(ctx context.Context, activityID, folderID string) (*BookmarkResponse, error)
	AddReaction(ctx context.Context, req AddReactionRequest) (*ReactionResponse, error)
	DeleteReaction(ctx context.Context, activityID, reactionType string) (*ReactionResponse, error)
	MarkActivity(ctx context.Context, req MarkActivityRequest) error
	Follow(ctx context.Context, req FollowRequest) (*FollowResponse, error)
	Unfollow(ctx context.Context, source, target string) (*FollowResponse, error)
	CastPollVote(ctx context.Context, req CastPollVoteRequest) (*PollVoteResponse, error)
	RemovePollVote(ctx context.Context, activityID, pollID, voteID string) (*PollVoteResponse, error)
	ClosePoll(ctx context.Context, pollID string) (*PollResponse, error)
}

// Ensure Client implements FeedsAPI at compile time.
var _ FeedsAPI = (*Client)(nil)

// ErrNilClient is returned when a method is called on a nil *Client.
var ErrNilClient = errors.New("client is nil")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int    `json:"StatusCode"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
	Path       string `json:"-"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

// IsConflict reports whether err is an "already exists" response. Idempotent
// setup calls (follow, bookmark) treat it as success.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusConflict ||
		strings.Contains(strings.ToLower(apiErr.Message), "already exists")
}

// Options configure a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// Client talks to the feeds HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	apiKey    string
	token     string
	userAgent string
}

const (
	defaultBaseURL   = "https://feeds.stream-io-api.com"
	defaultUserAgent = "feeds-go/0.1"
	requestTimeout   = 10 * time.Second
	apiPrefix        = "/api/v2"
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		apiKey:    opts.APIKey,
		token:     opts.Token,
		userAgent: userAgent,
	}, nil
}

// GetOrCreateFeed fetches the feed, creating it server-side when missing.
func (c *Client) GetOrCreateFeed(ctx context.Context, group, id string, req GetOrCreateFeedRequest) (*GetOrCreateFeedResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if group == "" || id == "" {
		return nil, fmt.Errorf("feed group and id required")
	}
	var payload GetOrCreateFeedResponse
	path := "/feeds/feed_groups/" + url.PathEscape(group) + "/feeds/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPost, path, nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QueryActivities searches activities.
func (c *Client) QueryActivities(ctx context.Context, req QueryActivitiesRequest) (*QueryActivitiesResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload QueryActivitiesResponse
	if err := c.do(ctx, http.MethodPost, "/feeds/activities/query", nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QueryFeeds searches feeds.
func (c *Client) QueryFeeds(ctx context.Context, req QueryFeedsRequest) (*QueryFeedsResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload QueryFeedsResponse
	if err := c.do(ctx, http.MethodPost, "/feeds/feeds/query", nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QueryUsers searches users.
func (c *Client) QueryUsers(ctx context.Context, req QueryUsersRequest) (*QueryUsersResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload QueryUsersResponse
	if err := c.do(ctx, http.MethodPost, "/users/query", nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetComments returns a page of top-level comments on an object.
func (c *Client) GetComments(ctx context.Context, req GetCommentsRequest) (*CommentsResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if req.ObjectID == "" {
		return nil, fmt.Errorf("object id required")
	}
	values := url.Values{}
	values.Set("object_id", req.ObjectID)
	objectType := req.ObjectType
	if objectType == "" {
		objectType = "activity"
	}
	values.Set("object_type", objectType)
	setPage(values, req.Limit, req.Next)
	if req.Depth > 0 {
		values.Set("depth", strconv.Itoa(req.Depth))
	}
	if sort := strings.TrimSpace(req.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var payload CommentsResponse
	if err := c.do(ctx, http.MethodGet, "/feeds/comments", values, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetCommentReplies returns a page of replies to a comment.
func (c *Client) GetCommentReplies(ctx context.Context, req GetCommentRepliesRequest) (*CommentsResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if req.CommentID == "" {
		return nil, fmt.Errorf("comment id required")
	}
	values := url.Values{}
	setPage(values, req.Limit, req.Next)
	if sort := strings.TrimSpace(req.Sort); sort != "" {
		values.Set("sort", sort)
	}
	var payload CommentsResponse
	path := "/feeds/comments/" + url.PathEscape(req.CommentID) + "/replies"
	if err := c.do(ctx, http.MethodGet, path, values, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QueryFollows returns a page of follows.
func (c *Client) QueryFollows(ctx context.Context, req QueryFollowsRequest) (*QueryFollowsResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload QueryFollowsResponse
	if err := c.do(ctx, http.MethodPost, "/feeds/follows/query", nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// QueryFeedMembers returns a page of feed members.
func (c *Client) QueryFeedMembers(ctx context.Context, req QueryFeedMembersRequest) (*QueryFeedMembersResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload QueryFeedMembersResponse
	path := "/feeds/feed_groups/" + url.PathEscape(req.FeedGroup) + "/feeds/" + url.PathEscape(req.FeedID) + "/members/query"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AddBookmark bookmarks an activity.
func (c *Client) AddBookmark(ctx context.Context, req AddBookmarkRequest) (*BookmarkResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload BookmarkResponse
	path := "/feeds/activities/" + url.PathEscape(req.ActivityID) + "/bookmarks"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteBookmark removes a bookmark.
func (c *Client) DeleteBookmark(ctx context.Context, activityID, folderID string) (*BookmarkResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	values := url.Values{}
	if folderID != "" {
		values.Set("folder_id", folderID)
	}
	var payload BookmarkResponse
	path := "/feeds/activities/" + url.PathEscape(activityID) + "/bookmarks"
	if err := c.do(ctx, http.MethodDelete, path, values, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// AddReaction reacts to an activity.
func (c *Client) AddReaction(ctx context.Context, req AddReactionRequest) (*ReactionResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload ReactionResponse
	path := "/feeds/activities/" + url.PathEscape(req.ActivityID) + "/reactions"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DeleteReaction removes the current user's reaction of the given type.
func (c *Client) DeleteReaction(ctx context.Context, activityID, reactionType string) (*ReactionResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload ReactionResponse
	path := "/feeds/activities/" + url.PathEscape(activityID) + "/reactions/" + url.PathEscape(reactionType)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MarkActivity marks notification activities as read or seen.
func (c *Client) MarkActivity(ctx context.Context, req MarkActivityRequest) error {
	if c == nil {
		return ErrNilClient
	}
	path := "/feeds/feed_groups/" + url.PathEscape(req.FeedGroup) + "/feeds/" + url.PathEscape(req.FeedID) + "/activities/mark/batch"
	return c.do(ctx, http.MethodPost, path, nil, req, nil)
}

// Follow creates a follow relationship.
func (c *Client) Follow(ctx context.Context, req FollowRequest) (*FollowResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload FollowResponse
	if err := c.do(ctx, http.MethodPost, "/feeds/follows", nil, req, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Unfollow removes a follow relationship.
func (c *Client) Unfollow(ctx context.Context, source, target string) (*FollowResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload FollowResponse
	path := "/feeds/follows/" + url.PathEscape(source) + "/" + url.PathEscape(target)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// CastPollVote votes on a poll option or submits an answer.
func (c *Client) CastPollVote(ctx context.Context, req CastPollVoteRequest) (*PollVoteResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	body := struct {
		Vote CastPollVoteRequest `json:"vote"`
	}{Vote: req}
	var payload PollVoteResponse
	path := "/feeds/activities/" + url.PathEscape(req.ActivityID) + "/polls/" + url.PathEscape(req.PollID) + "/vote"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// RemovePollVote deletes a vote.
func (c *Client) RemovePollVote(ctx context.Context, activityID, pollID, voteID string) (*PollVoteResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	var payload PollVoteResponse
	path := "/feeds/activities/" + url.PathEscape(activityID) + "/polls/" + url.PathEscape(pollID) + "/vote/" + url.PathEscape(voteID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// ClosePoll closes a poll for further voting.
func (c *Client) ClosePoll(ctx context.Context, pollID string) (*PollResponse, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	body := map[string]any{"set": map[string]any{"is_closed": true}}
	var payload PollResponse
	if err := c.do(ctx, http.MethodPatch, "/polls/"+url.PathEscape(pollID), nil, body, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func setPage(values url.Values, limit int, next string) {
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if next != "" {
		values.Set("next", next)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	rel := &url.URL{Path: apiPrefix + path, RawQuery: query.Encode()}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Stream-Auth-Type", "jwt")
	}
	if method != http.MethodGet {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: rel.Path}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, apiErr)
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(baseURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
