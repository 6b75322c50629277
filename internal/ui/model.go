package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"

	"github.com/five82/feeds/internal/api"
	"github.com/five82/feeds/internal/feed"
	"github.com/five82/feeds/internal/prefs"
)

// feedView is the part of a feed snapshot the viewer renders.
type feedView struct {
	Feed     *api.FeedData
	Items    []api.Activity
	Comments map[string]feed.CommentPage
	Loading  bool
	HasNext  bool
	Known    bool
	Watch    bool
	Deleted  bool
	Err      error
}

func selectView(s *feed.State) feedView {
	has, known := s.HasNextPage()
	return feedView{
		Feed:     s.Feed,
		Items:    s.Activities,
		Comments: s.CommentsByEntityID,
		Loading:  s.IsLoading(),
		HasNext:  has,
		Known:    known,
		Watch:    s.Watch,
		Deleted:  s.Deleted,
		Err:      s.LastError,
	}
}

// snapshotMsg carries a new selection from the feed store.
type snapshotMsg feedView

// actionDoneMsg reports the result of a command run against the feed.
type actionDoneMsg struct {
	action string
	err    error
}

type themeSavedMsg struct{ err error }

// Model is the Bubble Tea model of the feed viewer.
type Model struct {
	ctx       context.Context
	feed      *feed.Feed
	keys      keyMap
	theme     Theme
	prefsPath string

	spinner spinner.Model
	view    feedView
	cursor  int
	open    string // activity whose comments are shown
	status  string

	width  int
	height int
}

func newModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:       ctx,
		feed:      opts.Feed,
		keys:      defaultKeyMap(),
		theme:     GetTheme(opts.ThemeName),
		prefsPath: opts.PrefsPath,
		spinner:   sp,
		view:      selectView(opts.Feed.State()),
		width:     120,
		height:    30,
	}
}

// Init starts the spinner and takes a fresh snapshot; changes committed
// before the subscription existed are picked up this way.
func (m Model) Init() tea.Cmd {
	f := m.feed
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return snapshotMsg(selectView(f.State()))
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case snapshotMsg:
		m.view = feedView(msg)
		m.clampCursor()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
			glog.Infof("ui: %s", m.status)
		} else {
			m.status = ""
		}
		return m, nil

	case themeSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("save theme: %v", msg.err)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		name, path := m.theme.Name, m.prefsPath
		return m, func() tea.Msg {
			return themeSavedMsg{err: prefs.Update(path, func(p *prefs.Prefs) { p.Theme = name })}
		}

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.view.Items)-1 {
			m.cursor++
			return m, nil
		}
		// At the bottom: fetch more when the server has them.
		if m.view.HasNext && !m.view.Loading {
			return m, m.run("load more", m.feed.GetNextPage)
		}
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		return m, m.run("load more", m.feed.GetNextPage)

	case key.Matches(msg, m.keys.Reload):
		f := m.feed
		return m, m.run("reload", func(ctx context.Context) error {
			return f.GetOrCreate(ctx, feed.GetOrCreateRequest{Watch: true})
		})
	}

	a, ok := m.selected()
	if !ok {
		return m, nil
	}
	f := m.feed

	switch {
	case key.Matches(msg, m.keys.Like):
		if hasOwnReaction(a, "like") {
			return m, m.run("unlike", func(ctx context.Context) error {
				return f.DeleteReaction(ctx, a.ID, "like")
			})
		}
		return m, m.run("like", func(ctx context.Context) error {
			return f.AddReaction(ctx, a.ID, "like")
		})

	case key.Matches(msg, m.keys.Bookmark):
		if len(a.OwnBookmarks) > 0 {
			folder := ""
			if a.OwnBookmarks[0].Folder != nil {
				folder = a.OwnBookmarks[0].Folder.ID
			}
			return m, m.run("remove bookmark", func(ctx context.Context) error {
				return f.DeleteBookmark(ctx, a.ID, folder)
			})
		}
		return m, m.run("bookmark", func(ctx context.Context) error {
			return f.AddBookmark(ctx, a.ID, "")
		})

	case key.Matches(msg, m.keys.Comments):
		if m.open == a.ID {
			m.open = ""
			return m, nil
		}
		m.open = a.ID
		if _, loaded := m.view.Comments[a.ID]; loaded {
			return m, nil
		}
		return m, m.run("load comments", func(ctx context.Context) error {
			return f.LoadNextPageActivityComments(ctx, a.ID, feed.CommentsRequest{})
		})

	case key.Matches(msg, m.keys.MarkRead):
		return m, m.run("mark read", func(ctx context.Context) error {
			return f.MarkActivity(ctx, feed.MarkRequest{MarkRead: []string{a.ID}})
		})
	}
	return m, nil
}

// run executes fn off the update loop. The feed's store delivers the
// resulting state through the subscription; only the error comes back here.
func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) selected() (api.Activity, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Items) {
		return api.Activity{}, false
	}
	return m.view.Items[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.view.Items) {
		m.cursor = len(m.view.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func hasOwnReaction(a api.Activity, reactionType string) bool {
	for _, r := range a.OwnReactions {
		if r.Type == reactionType {
			return true
		}
	}
	return false
}
