// Package state provides the reactive snapshot store shared by every feed,
// poll and search controller.
//
// # Overview
//
// A Store holds one immutable snapshot of an arbitrary value. Writers replace
// the whole snapshot (Next), shallow-patch a copy of it (PartialNext), or run a
// reducer against it (Reduce). Readers either pull the current snapshot with
// GetState or register a selector with SubscribeWithSelector and get called
// back whenever the selected output changes.
//
//	Producer (controller):          Consumer (UI binding):
//	┌──────────────────────┐        ┌──────────────────────────┐
//	│ REST page / event    │        │ SubscribeWithSelector    │
//	│        ↓             │        │   selector(snapshot)     │
//	│ reducer(old) → new   │        │        ↓                 │
//	│ store.Next(new)      │───────→│ ShallowEqual(next, prev) │
//	└──────────────────────┘        │   false → callback       │
//	                                └──────────────────────────┘
//
// # Update Semantics
//
//   - Next with the pointer already held is a no-op and notifies nobody.
//   - Every accepted write notifies subscribers synchronously, on the writing
//     goroutine, in registration order, before the write returns.
//   - Selectors run on every accepted write; keep them cheap and pure.
//   - A selector's callback fires only when its output is not ShallowEqual to
//     the output it produced for the previous snapshot.
//
// # Concurrency Model
//
// Writes (and the notifications they trigger) are serialized by a write lock,
// so subscribers observe snapshots in the exact order they were committed.
// GetState only takes a read lock and may be called from anywhere, including
// from inside a callback. Callbacks must not write to the store that is
// notifying them.
//
// # Immutability
//
// Snapshots are shared by pointer. Nothing in this module mutates a snapshot
// after it has been committed; consumers must treat them as read-only too.
// PartialNext and Reduce hand out a shallow copy to patch, so slices and maps
// reachable from the old snapshot must be replaced, never written in place.
//
// # Ownership
//
// There are no package-level stores. Every Store is created by the controller
// that owns it and passed explicitly to whoever needs to observe it.
package state
