package search

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/five82/feeds/internal/state"
)

// ControllerState is the snapshot of a Controller.
type ControllerState struct {
	Query             string
	IsActive          bool
	ActiveSourceTypes []string
}

// ControllerOptions tunes a Controller.
type ControllerOptions struct {
	// KeepSingleActiveSource makes activating a source deactivate all others.
	KeepSingleActiveSource bool
}

// Controller runs one query across several sources.
type Controller struct {
	sources []Searcher
	opts    ControllerOptions
	store   *state.Store[ControllerState]
}

// NewController returns a Controller over sources. With
// KeepSingleActiveSource only the first source starts active.
func NewController(sources []Searcher, opts ControllerOptions) *Controller {
	for i, src := range sources {
		src.SetActive(!opts.KeepSingleActiveSource || i == 0)
	}
	c := &Controller{
		sources: sources,
		opts:    opts,
	}
	c.store = state.New(&ControllerState{ActiveSourceTypes: c.activeTypes()})
	return c
}

// State returns the current snapshot.
func (c *Controller) State() *ControllerState { return c.store.GetState() }

// Store exposes the store for subscriptions.
func (c *Controller) Store() *state.Store[ControllerState] { return c.store }

// Sources returns every source in registration order.
func (c *Controller) Sources() []Searcher { return c.sources }

// Source returns the source of kind typ.
func (c *Controller) Source(typ string) (Searcher, bool) {
	for _, src := range c.sources {
		if src.Type() == typ {
			return src, true
		}
	}
	return nil, false
}

func (c *Controller) activeTypes() []string {
	var types []string
	for _, src := range c.sources {
		if src.IsActive() {
			types = append(types, src.Type())
		}
	}
	return types
}

func (c *Controller) active() []Searcher {
	var out []Searcher
	for _, src := range c.sources {
		if src.IsActive() {
			out = append(out, src)
		}
	}
	return out
}

// Search runs query on every active source concurrently. It returns the
// first source error; the other sources still complete.
func (c *Controller) Search(ctx context.Context, query string) error {
	c.store.PartialNext(func(d *ControllerState) {
		d.Query = query
		d.IsActive = true
	})
	return each(c.active(), func(src Searcher) error { return src.Search(ctx, query) })
}

// LoadMore loads the next page on every active source.
func (c *Controller) LoadMore(ctx context.Context) error {
	return each(c.active(), func(src Searcher) error { return src.LoadMore(ctx) })
}

// Activate turns the source of kind typ on. If a query is set the source is
// searched with it.
func (c *Controller) Activate(ctx context.Context, typ string) error {
	src, ok := c.Source(typ)
	if !ok {
		return fmt.Errorf("activate search source %q: unknown source", typ)
	}
	if c.opts.KeepSingleActiveSource {
		for _, other := range c.sources {
			if other != src {
				other.SetActive(false)
			}
		}
	}
	wasActive := src.IsActive()
	src.SetActive(true)
	c.syncActiveTypes()

	if query := c.State().Query; !wasActive && c.State().IsActive {
		return src.Search(ctx, query)
	}
	return nil
}

// Deactivate turns the source of kind typ off.
func (c *Controller) Deactivate(typ string) {
	src, ok := c.Source(typ)
	if !ok {
		return
	}
	src.SetActive(false)
	c.syncActiveTypes()
}

// Clear drops the query and every source's results.
func (c *Controller) Clear() {
	for _, src := range c.sources {
		src.ResetState()
	}
	c.store.PartialNext(func(d *ControllerState) {
		d.Query = ""
		d.IsActive = false
	})
}

func (c *Controller) syncActiveTypes() {
	types := c.activeTypes()
	c.store.Reduce(func(cur *ControllerState) (*ControllerState, bool) {
		if slices.Equal(cur.ActiveSourceTypes, types) {
			return nil, false
		}
		next := *cur
		next.ActiveSourceTypes = types
		return &next, true
	})
}

func each(sources []Searcher, fn func(Searcher) error) error {
	var g errgroup.Group
	for _, src := range sources {
		src := src
		g.Go(func() error { return fn(src) })
	}
	return g.Wait()
}
