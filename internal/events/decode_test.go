package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_KnownTypes(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"feeds.activity.added","fid":"user:alice","event_id":"e1","activity":{"id":"a1","text":"hi"}}`))
	require.NoError(t, err)

	added, ok := ev.(*ActivityAdded)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, TypeActivityAdded, added.Type())
	assert.Equal(t, "user:alice", added.Envelope().FID)
	assert.Equal(t, "e1", added.EventID)
	assert.Equal(t, "a1", added.Activity.ID)
}

func TestDecode_NotificationFieldsStayAbsent(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"feeds.notification_feed.updated","fid":"notification:me"}`))
	require.NoError(t, err)

	n := ev.(*NotificationFeedUpdated)
	assert.Nil(t, n.NotificationStatus)
	assert.Nil(t, n.AggregatedActivities)

	ev, err = Decode([]byte(`{"type":"feeds.notification_feed.updated","fid":"notification:me","aggregated_activities":[]}`))
	require.NoError(t, err)
	n = ev.(*NotificationFeedUpdated)
	assert.NotNil(t, n.AggregatedActivities, "an explicit empty list is present")
}

func TestDecode_UnknownTypeIsNotAnError(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"feeds.something.new","fid":"user:a","extra":1}`))
	require.NoError(t, err)

	unknown, ok := ev.(*Unknown)
	require.True(t, ok)
	assert.Equal(t, "feeds.something.new", unknown.Type())
	assert.Equal(t, "user:a", unknown.FID)
	assert.NotEmpty(t, unknown.Raw)
	assert.False(t, Known("feeds.something.new"))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{nope`},
		{"missing type", `{"fid":"user:a"}`},
		{"wrong payload shape", `{"type":"feeds.activity.added","activity":"oops"}`},
		{"missing activity id", `{"type":"feeds.activity.updated","activity":{}}`},
		{"missing comment id", `{"type":"feeds.comment.added","comment":{"object_id":"a1"}}`},
		{"missing follow ends", `{"type":"feeds.follow.created","follow":{"source_feed":{"fid":"a:b"}}}`},
		{"missing poll id", `{"type":"feeds.poll.vote_casted","poll":{}}`},
		{"missing member id", `{"type":"feeds.feed_member.removed"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed), "err = %v", err)
		})
	}
}

func TestDecode_HeartbeatsShareOneType(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"connection.ok","connection_id":"c-1"}`))
	require.NoError(t, err)
	hc, ok := ev.(*HealthCheck)
	require.True(t, ok)
	assert.Equal(t, "c-1", hc.ConnectionID)
	assert.Equal(t, TypeConnectionOK, hc.Type())
}

func TestDecode_BookmarkFallsBackToEmbeddedActivity(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"feeds.bookmark.added","bookmark":{"activity":{"id":"a7"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "a7", ev.(*BookmarkAdded).Bookmark.TargetActivityID())
}
