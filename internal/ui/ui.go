package ui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/state"
)

// Options configure the viewer.
type Options struct {
	Context   context.Context
	Feed      *feed.Feed
	ThemeName string
	PrefsPath string
}

// Run shows the feed until the user quits or the context ends.
func Run(opts Options) error {
	if opts.Feed == nil {
		return errors.New("ui: no feed")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	program := tea.NewProgram(newModel(opts), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := state.SubscribeWithSelector(opts.Feed.Store(), selectView, func(next, _ feedView) {
		program.Send(snapshotMsg(next))
	})
	defer unsubscribe()

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
