// Package merge reconciles ordered, keyed collections coming from two sources:
// the state already on screen and an incoming REST page or realtime payload.
//
// None of the functions mutate their inputs; each returns a fresh slice so the
// result can be committed as part of a new snapshot.
package merge

// AppendUnique returns existing followed by the incoming items whose key is not
// already present. Existing items are authoritative. When incoming repeats a
// key, the last occurrence wins but keeps the position of the first.
func AppendUnique[T any, K comparable](existing, incoming []T, key func(T) K) []T {
	out := make([]T, 0, len(existing)+len(incoming))
	out = append(out, existing...)

	seen := make(map[K]struct{}, len(existing))
	for _, item := range existing {
		seen[key(item)] = struct{}{}
	}

	added := make(map[K]int, len(incoming))
	for _, item := range incoming {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		if idx, ok := added[k]; ok {
			out[idx] = item
			continue
		}
		added[k] = len(out)
		out = append(out, item)
	}
	return out
}

// ReplacePreservingOrder updates every existing item whose key appears in
// incoming with the incoming value, keeps the existing order, and appends the
// keys that are new in incoming order. Duplicate incoming keys: last wins.
func ReplacePreservingOrder[T any, K comparable](existing, incoming []T, key func(T) K) []T {
	latest := make(map[K]T, len(incoming))
	order := make([]K, 0, len(incoming))
	for _, item := range incoming {
		k := key(item)
		if _, ok := latest[k]; !ok {
			order = append(order, k)
		}
		latest[k] = item
	}

	out := make([]T, 0, len(existing)+len(incoming))
	present := make(map[K]struct{}, len(existing))
	for _, item := range existing {
		k := key(item)
		present[k] = struct{}{}
		if replacement, ok := latest[k]; ok {
			out = append(out, replacement)
			continue
		}
		out = append(out, item)
	}
	for _, k := range order {
		if _, ok := present[k]; ok {
			continue
		}
		out = append(out, latest[k])
	}
	return out
}

// Prepend places the incoming items whose key is not yet present in front of
// existing, in incoming order. It is used for realtime additions to a ranked
// list where the newest entry belongs at the top.
func Prepend[T any, K comparable](existing, incoming []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(existing)+len(incoming))
	for _, item := range existing {
		seen[key(item)] = struct{}{}
	}

	out := make([]T, 0, len(existing)+len(incoming))
	for _, item := range incoming {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return append(out, existing...)
}

// Remove returns items without the entries whose key equals id. The second
// result reports whether anything was removed.
func Remove[T any, K comparable](items []T, key func(T) K, id K) ([]T, bool) {
	idx := IndexOf(items, key, id)
	if idx < 0 {
		return items, false
	}
	out := make([]T, 0, len(items)-1)
	for _, item := range items {
		if key(item) != id {
			out = append(out, item)
		}
	}
	return out, true
}

// Update replaces the item with the given key using fn. Items are returned
// unchanged, with false, when the key is absent.
func Update[T any, K comparable](items []T, key func(T) K, id K, fn func(T) T) ([]T, bool) {
	idx := IndexOf(items, key, id)
	if idx < 0 {
		return items, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[idx] = fn(items[idx])
	return out, true
}

// IndexOf returns the position of the first item with the given key, or -1.
func IndexOf[T any, K comparable](items []T, key func(T) K, id K) int {
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}
