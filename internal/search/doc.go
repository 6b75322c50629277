// Package search runs one query across pluggable sources.
//
// A Source searches one kind of entity (activities, feeds, users, or anything
// a QueryFunc can page through) and publishes its results, loading flag,
// cursor and error in its own store. A Controller drives a set of sources
// under a single query string; with KeepSingleActiveSource only one source is
// active at a time.
//
// An empty query clears a source's results unless the source was built with
// AllowEmptySearchString, in which case it lists everything. A new query
// supersedes any request of the previous one still in flight. LoadMore keeps
// at most one page request in flight per source.
package search
