// Package ui implements the feedwatch terminal viewer with Bubble Tea.
//
// The viewer is a plain consumer of a feed controller. It renders from a
// selection of the feed snapshot and is notified through
// state.SubscribeWithSelector, so it redraws only when the activities,
// comments, loading flags, watch status or error change. Every user action
// (like, bookmark, load more, comments, mark read) runs as a tea.Cmd calling
// the controller; optimistic updates and realtime events reach the screen
// the same way, through the store.
//
// # Keys
//
//	↑/k ↓/j    move; moving past the last row loads the next page
//	n          load the next page
//	l          like or unlike the selected activity
//	b          bookmark or remove the bookmark
//	c          show or hide comments
//	m          mark the selected activity read
//	r          reload the first page
//	T          cycle theme (saved to prefs)
//	q          quit
package ui
