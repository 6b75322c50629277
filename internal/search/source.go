package search

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/golang/glog"
	"golang.org/x/sync/singleflight"

	"github.com/five82/feeds/internal/merge"
	"github.com/five82/feeds/internal/page"
	"github.com/five82/feeds/internal/state"
)

const defaultPageSize = 10

// SourceState is the snapshot of one source.
type SourceState[T any] struct {
	Items      []T
	IsLoading  bool
	Pagination page.State
	Error      error
	Query      string
	IsActive   bool
}

// HasNext reports whether another page of the current query exists. It is
// false until the first page of a query has arrived.
func (s *SourceState[T]) HasNext() bool {
	has, _ := s.Pagination.HasNext()
	return has
}

// QueryFunc runs one page of a search. cursor is empty for the first page;
// the returned next is empty on the last one.
type QueryFunc[T any] func(ctx context.Context, query, cursor string, limit int) (items []T, next string, err error)

// SourceOptions tunes a Source.
type SourceOptions struct {
	// ResetOnNewSearchQuery clears the previous results as soon as a
	// different query starts instead of when its first page arrives.
	ResetOnNewSearchQuery bool
	// AllowEmptySearchString runs an empty query as "list all" instead of
	// clearing the results.
	AllowEmptySearchString bool
	PageSize               int
}

// Searcher is the part of a source the Controller drives.
type Searcher interface {
	Type() string
	Search(ctx context.Context, query string) error
	LoadMore(ctx context.Context) error
	ResetState()
	IsActive() bool
	SetActive(active bool)
}

// Source searches one kind of entity. It owns its own store.
type Source[T any] struct {
	typ   string
	key   func(T) string
	query QueryFunc[T]
	opts  SourceOptions

	store *state.Store[SourceState[T]]
	loads singleflight.Group
	// generation increases with every Search and ResetState; results of an
	// older generation are dropped.
	generation atomic.Uint64
}

var _ Searcher = (*Source[struct{}])(nil)

// NewSource returns an active Source of kind typ.
func NewSource[T any](typ string, key func(T) string, query QueryFunc[T], opts SourceOptions) *Source[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	return &Source[T]{
		typ:   typ,
		key:   key,
		query: query,
		opts:  opts,
		store: state.New(&SourceState[T]{IsActive: true}),
	}
}

// Type returns the source kind.
func (s *Source[T]) Type() string { return s.typ }

// State returns the current snapshot.
func (s *Source[T]) State() *SourceState[T] { return s.store.GetState() }

// Store exposes the store for subscriptions.
func (s *Source[T]) Store() *state.Store[SourceState[T]] { return s.store }

// IsActive reports whether the controller runs this source.
func (s *Source[T]) IsActive() bool { return s.State().IsActive }

// SetActive marks the source active or inactive.
func (s *Source[T]) SetActive(active bool) {
	s.store.Reduce(func(cur *SourceState[T]) (*SourceState[T], bool) {
		if cur.IsActive == active {
			return nil, false
		}
		next := *cur
		next.IsActive = active
		return &next, true
	})
}

// ResetState drops results, cursor and error. In-flight requests are
// superseded and their results ignored.
func (s *Source[T]) ResetState() {
	s.generation.Add(1)
	s.store.PartialNext(func(d *SourceState[T]) {
		active := d.IsActive
		*d = SourceState[T]{IsActive: active}
	})
}

// Search runs query from its first page. A newer Search supersedes an older
// one still in flight.
func (s *Source[T]) Search(ctx context.Context, query string) error {
	if query == "" && !s.opts.AllowEmptySearchString {
		s.ResetState()
		return nil
	}

	gen := s.generation.Add(1)
	s.store.PartialNext(func(d *SourceState[T]) {
		if s.opts.ResetOnNewSearchQuery && d.Query != query {
			d.Items = nil
		}
		d.Query = query
		d.Pagination = page.State{Loading: true}
		d.IsLoading = true
		d.Error = nil
	})

	items, next, err := s.query(ctx, query, "", s.opts.PageSize)
	if s.generation.Load() != gen {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("search %s for %q: %w", s.typ, query, err)
		glog.Infof("%v", err)
		s.store.PartialNext(func(d *SourceState[T]) {
			d.IsLoading = false
			d.Pagination = d.Pagination.Failed()
			d.Error = err
		})
		return err
	}
	s.store.Reduce(func(cur *SourceState[T]) (*SourceState[T], bool) {
		if s.generation.Load() != gen {
			return nil, false
		}
		d := *cur
		d.Items = merge.AppendUnique(nil, items, s.key)
		d.Pagination = page.Received(next)
		d.IsLoading = false
		return &d, true
	})
	return nil
}

// LoadMore fetches the next page of the current query. It is a no-op when
// nothing has been searched, when the results are exhausted, or while a page
// is loading; concurrent callers share the in-flight load.
func (s *Source[T]) LoadMore(ctx context.Context) error {
	_, err, _ := s.loads.Do("more", func() (any, error) {
		var cursor, query string
		gen := s.generation.Load()
		claimed := s.store.Reduce(func(cur *SourceState[T]) (*SourceState[T], bool) {
			if cur.IsLoading || !cur.Pagination.CanLoadNext() {
				return nil, false
			}
			cursor, query = cur.Pagination.Next, cur.Query
			next := *cur
			next.Pagination = cur.Pagination.Begin()
			next.IsLoading = true
			return &next, true
		})
		if !claimed {
			return nil, nil
		}

		items, next, err := s.query(ctx, query, cursor, s.opts.PageSize)
		if s.generation.Load() != gen {
			return nil, nil
		}
		if err != nil {
			err = fmt.Errorf("load more %s for %q: %w", s.typ, query, err)
			glog.Infof("%v", err)
		}
		s.store.Reduce(func(cur *SourceState[T]) (*SourceState[T], bool) {
			if s.generation.Load() != gen {
				return nil, false
			}
			d := *cur
			d.IsLoading = false
			if err != nil {
				d.Pagination = cur.Pagination.Failed()
				d.Error = err
				return &d, true
			}
			d.Items = merge.AppendUnique(cur.Items, items, s.key)
			d.Pagination = page.Received(next)
			d.Error = nil
			return &d, true
		})
		return nil, err
	})
	return err
}
