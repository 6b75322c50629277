// Package feed implements the feed controller: one reactive snapshot per feed
// kept current by REST pages, optimistic mutations and realtime events.
//
// # State
//
// State is published through a state.Store. Views read it with GetState or
// subscribe to a projection with state.SubscribeWithSelector; nothing outside
// this package writes to it.
//
// # Events
//
// Reduce maps a realtime event onto a Patch: a partial State with a FieldSet
// naming the fields it carries. Handlers are pure functions of the current
// snapshot, the event and a HandlerContext; they never mutate their inputs,
// and an event that changes nothing yields no snapshot at all. Events for
// entities the feed has not loaded are ignored rather than inserted.
//
// # Pagination
//
// Each list (activities, followers, following, members, and the comments of
// each activity or comment) has its own page.State. Whether a list has a next
// page is unknown until its first page arrives; after that the cursor in the
// latest response decides. At most one load per list is in flight; callers
// that arrive meanwhile share its result.
//
// # Optimistic Mutations
//
// Bookmarks, reactions and notification marks apply to the snapshot before
// the request is sent. Every mutation is tagged per field and entity; when
// the server answers, only the newest mutation of that key may roll back a
// failure or reconcile a success, so a slow stale response never overwrites
// a newer local change.
package feed
