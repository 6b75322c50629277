package realtime

import (
	"fmt"
	"sync"

	"github.com/golang/glog"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/five82/feeds/internal/events"
	"github.com/five82/feeds/internal/metrics"
)

// DefaultDedupeWindow is how many event ids are remembered for
// de-duplication.
const DefaultDedupeWindow = 1024

// Drop reasons reported to metrics.
const (
	DropMalformed = "malformed"
	DropUnknown   = "unknown"
)

// Dispatcher decodes realtime frames and hands the events to sink in the
// order the frames arrived. Malformed frames and unknown event kinds are
// dropped; an event whose id was seen recently is delivered only once.
type Dispatcher struct {
	sink    func(events.Event)
	seen    *lru.Cache[string, struct{}]
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewDispatcher returns a Dispatcher delivering to sink. window bounds the
// de-duplication memory; zero uses DefaultDedupeWindow.
func NewDispatcher(sink func(events.Event), window int, m *metrics.Metrics) (*Dispatcher, error) {
	if window <= 0 {
		window = DefaultDedupeWindow
	}
	seen, err := lru.New[string, struct{}](window)
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}
	return &Dispatcher{sink: sink, seen: seen, metrics: m}, nil
}

// HandleFrame decodes one frame and delivers it. Delivery happens before
// HandleFrame returns, so frames handed over in order are applied in order.
func (d *Dispatcher) HandleFrame(frame []byte) {
	ev, err := events.Decode(frame)
	if err != nil {
		d.metrics.EventDropped(DropMalformed)
		glog.Warningf("[rt]drop malformed frame: %v", err)
		return
	}
	d.Dispatch(ev)
}

// Dispatch delivers an already decoded event.
func (d *Dispatcher) Dispatch(ev events.Event) {
	switch ev.(type) {
	case *events.HealthCheck:
		glog.V(2).Infof("[rt]%s<-", ev.Type())
		return
	case *events.Unknown:
		d.metrics.EventDropped(DropUnknown)
		glog.V(2).Infof("[rt]drop unknown event %s", ev.Type())
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id := ev.Envelope().EventID; id != "" {
		if ok, _ := d.seen.ContainsOrAdd(id, struct{}{}); ok {
			d.metrics.EventDuplicate()
			glog.V(2).Infof("[rt]duplicate %s %s", ev.Type(), id)
			return
		}
	}
	d.sink(ev)
}
