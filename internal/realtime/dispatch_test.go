package realtime

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/metrics"
)

func TestDispatcherOrderAndDrops(t *testing.T) {
	got := []string{}
	m := metrics.New(nil)
	d, err := NewDispatcher(func(ev events.Event) {
		got = append(got, ev.Type()+"/"+ev.Envelope().EventID)
	}, 0, m)
	assert.Equal(t, err, nil)

	frames := []string{
		`{"type":"feeds.activity.added","fid":"user:a","event_id":"e1","activity":{"id":"a1"}}`,
		`{"type":"health.check","connection_id":"c"}`,
		`not json`,
		`{"type":"feeds.something.new","event_id":"e2"}`,
		`{"type":"feeds.activity.deleted","fid":"user:a","event_id":"e3","activity":{"id":"a1"}}`,
		// replayed after a reconnect
		`{"type":"feeds.activity.added","fid":"user:a","event_id":"e1","activity":{"id":"a1"}}`,
		`{"type":"feeds.activity.updated","fid":"user:a","activity":{"id":"a1"}}`,
		`{"type":"feeds.activity.updated","fid":"user:a","activity":{"id":"a1"}}`,
	}
	for _, frame := range frames {
		d.HandleFrame([]byte(frame))
	}

	assert.Equal(t, []string{
		"feeds.activity.added/e1",
		"feeds.activity.deleted/e3",
		"feeds.activity.updated/",
		"feeds.activity.updated/",
	}, got)
}

func TestDispatcherWindowEvicts(t *testing.T) {
	count := 0
	d, err := NewDispatcher(func(events.Event) { count += 1 }, 2, nil)
	assert.Equal(t, err, nil)

	for _, id := range []string{"e1", "e2", "e3", "e1"} {
		d.HandleFrame([]byte(`{"type":"feeds.feed.deleted","fid":"user:a","event_id":"` + id + `"}`))
	}
	// e1 fell out of the two-entry window before it was replayed.
	assert.Equal(t, 4, count)
}

func TestDispatcherMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	d, err := NewDispatcher(func(events.Event) {}, 0, metrics.New(reg))
	assert.Equal(t, err, nil)

	d.HandleFrame([]byte(`{}`))
	d.HandleFrame([]byte(`{"type":"who.knows"}`))
	d.HandleFrame([]byte(`{"type":"feeds.feed.deleted","fid":"user:a","event_id":"x"}`))
	d.HandleFrame([]byte(`{"type":"feeds.feed.deleted","fid":"user:a","event_id":"x"}`))

	dropped, err := testutil.GatherAndCount(reg, "feeds_events_dropped_total")
	assert.Equal(t, err, nil)
	// One series per reason: malformed and unknown.
	assert.Equal(t, 2, dropped)

	expected := `
# HELP feeds_events_duplicate_total Realtime events skipped because their id was already seen.
# TYPE feeds_events_duplicate_total counter
feeds_events_duplicate_total 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "feeds_events_duplicate_total")
	assert.Equal(t, err, nil)
}
