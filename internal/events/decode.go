package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed marks an envelope that is missing its discriminant, fails to
// decode, or lacks a field its type requires.
var ErrMalformed = errors.New("malformed event")

var constructors = map[string]func() Event{
	TypeActivityAdded:           func() Event { return &ActivityAdded{} },
	TypeActivityUpdated:         func() Event { return &ActivityUpdated{} },
	TypeActivityDeleted:         func() Event { return &ActivityDeleted{} },
	TypeActivityPinned:          func() Event { return &ActivityPinned{} },
	TypeActivityUnpinned:        func() Event { return &ActivityUnpinned{} },
	TypeActivityMarked:          func() Event { return &ActivityMarked{} },
	TypeActivityReactionAdded:   func() Event { return &ActivityReactionAdded{} },
	TypeActivityReactionDeleted: func() Event { return &ActivityReactionDeleted{} },
	TypeBookmarkAdded:           func() Event { return &BookmarkAdded{} },
	TypeBookmarkUpdated:         func() Event { return &BookmarkUpdated{} },
	TypeBookmarkDeleted:         func() Event { return &BookmarkDeleted{} },
	TypeCommentAdded:            func() Event { return &CommentAdded{} },
	TypeCommentUpdated:          func() Event { return &CommentUpdated{} },
	TypeCommentDeleted:          func() Event { return &CommentDeleted{} },
	TypeCommentReactionAdded:    func() Event { return &CommentReactionAdded{} },
	TypeCommentReactionDeleted:  func() Event { return &CommentReactionDeleted{} },
	TypeFollowCreated:           func() Event { return &FollowCreated{} },
	TypeFollowUpdated:           func() Event { return &FollowUpdated{} },
	TypeFollowDeleted:           func() Event { return &FollowDeleted{} },
	TypeFeedUpdated:             func() Event { return &FeedUpdated{} },
	TypeFeedDeleted:             func() Event { return &FeedDeleted{} },
	TypeFeedMemberAdded:         func() Event { return &FeedMemberAdded{} },
	TypeFeedMemberUpdated:       func() Event { return &FeedMemberUpdated{} },
	TypeFeedMemberRemoved:       func() Event { return &FeedMemberRemoved{} },
	TypeNotificationFeedUpdated: func() Event { return &NotificationFeedUpdated{} },
	TypePollUpdated:             func() Event { return &PollUpdated{} },
	TypePollClosed:              func() Event { return &PollClosed{} },
	TypePollDeleted:             func() Event { return &PollDeleted{} },
	TypePollVoteCasted:          func() Event { return &PollVoteCasted{} },
	TypePollVoteChanged:         func() Event { return &PollVoteChanged{} },
	TypePollVoteRemoved:         func() Event { return &PollVoteRemoved{} },
	TypeHealthCheck:             func() Event { return &HealthCheck{} },
	TypeConnectionOK:            func() Event { return &HealthCheck{} },
}

// Known reports whether eventType has a dedicated Event implementation.
func Known(eventType string) bool {
	_, ok := constructors[eventType]
	return ok
}

// Decode parses a realtime envelope. Unknown discriminants decode to *Unknown
// without error; everything else that cannot be trusted yields ErrMalformed.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	newEvent, ok := constructors[head.Type]
	if !ok {
		unknown := &Unknown{Raw: append([]byte(nil), data...)}
		if err := json.Unmarshal(data, &unknown.Base); err != nil {
			unknown.Base = Base{Kind: head.Type}
		}
		return unknown, nil
	}

	ev := newEvent()
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	if err := validate(ev); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, head.Type, err)
	}
	return ev, nil
}

func validate(ev Event) error {
	switch e := ev.(type) {
	case *ActivityAdded:
		return requireID("activity.id", e.Activity.ID)
	case *ActivityUpdated:
		return requireID("activity.id", e.Activity.ID)
	case *ActivityDeleted:
		return requireID("activity.id", e.Activity.ID)
	case *ActivityPinned:
		return requireID("pinned_activity.activity.id", e.PinnedActivity.Activity.ID)
	case *ActivityUnpinned:
		return requireID("pinned_activity.activity.id", e.PinnedActivity.Activity.ID)
	case *ActivityReactionAdded:
		return requireID("activity.id", e.Activity.ID)
	case *ActivityReactionDeleted:
		return requireID("activity.id", e.Activity.ID)
	case *BookmarkAdded:
		return requireID("bookmark.activity_id", e.Bookmark.TargetActivityID())
	case *BookmarkUpdated:
		return requireID("bookmark.activity_id", e.Bookmark.TargetActivityID())
	case *BookmarkDeleted:
		return requireID("bookmark.activity_id", e.Bookmark.TargetActivityID())
	case *CommentAdded:
		return requireID("comment.id", e.Comment.ID)
	case *CommentUpdated:
		return requireID("comment.id", e.Comment.ID)
	case *CommentDeleted:
		return requireID("comment.id", e.Comment.ID)
	case *CommentReactionAdded:
		return requireID("comment.id", e.Comment.ID)
	case *CommentReactionDeleted:
		return requireID("comment.id", e.Comment.ID)
	case *FollowCreated:
		return requireFollow(e.Follow.SourceFeed.FID, e.Follow.TargetFeed.FID)
	case *FollowUpdated:
		return requireFollow(e.Follow.SourceFeed.FID, e.Follow.TargetFeed.FID)
	case *FollowDeleted:
		return requireFollow(e.Follow.SourceFeed.FID, e.Follow.TargetFeed.FID)
	case *FeedMemberAdded:
		return requireID("member.user.id", e.Member.User.ID)
	case *FeedMemberUpdated:
		return requireID("member.user.id", e.Member.User.ID)
	case *FeedMemberRemoved:
		return requireID("member_id", e.MemberID)
	case *PollUpdated:
		return requireID("poll.id", e.Poll.ID)
	case *PollClosed:
		return requireID("poll.id", e.Poll.ID)
	case *PollDeleted:
		return requireID("poll.id", e.Poll.ID)
	case *PollVoteCasted:
		return requireID("poll.id", e.Poll.ID)
	case *PollVoteChanged:
		return requireID("poll.id", e.Poll.ID)
	case *PollVoteRemoved:
		return requireID("poll.id", e.Poll.ID)
	}
	return nil
}

func requireID(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s required", field)
	}
	return nil
}

func requireFollow(source, target string) error {
	if source == "" || target == "" {
		return fmt.Errorf("follow source and target required")
	}
	return nil
}
