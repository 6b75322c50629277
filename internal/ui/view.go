package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the header, the activity list and the footer.
func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, m.renderList(bodyHeight), footer)
}

func (m Model) condition() string {
	switch {
	case m.view.Deleted:
		return "deleted"
	case m.view.Err != nil:
		return "error"
	case m.view.Watch:
		return "live"
	default:
		return "paused"
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	name := m.feed.FID()
	if m.view.Feed != nil && m.view.Feed.Name != "" {
		name = m.view.Feed.Name + " " + styles.MutedText.Render(m.feed.FID())
	}

	parts := []string{
		styles.Logo.Render("feedwatch"),
		styles.Text.Render(name),
		styles.Badge(m.condition()).Render(strings.ToUpper(m.condition())),
		styles.MutedText.Render(fmt.Sprintf("%d activities", len(m.view.Items))),
	}
	if m.view.Feed != nil {
		parts = append(parts, styles.MutedText.Render(fmt.Sprintf("%d followers", m.view.Feed.FollowerCount)))
	}
	switch {
	case m.view.Loading:
		parts = append(parts, m.spinner.View()+styles.InfoText.Render("loading"))
	case m.view.Known && !m.view.HasNext:
		parts = append(parts, styles.FaintText.Render("end of feed"))
	}
	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderList(height int) string {
	styles := m.theme.Styles()
	if len(m.view.Items) == 0 {
		msg := "No activities yet"
		if m.view.Loading {
			msg = "Loading…"
		}
		return lipgloss.NewStyle().Height(height).Render(styles.MutedText.Render(msg))
	}

	var lines []string
	for i, a := range m.view.Items {
		line := m.activityLine(i)
		if i == m.cursor {
			line = styles.Selected.Width(m.width).Render(line)
		}
		lines = append(lines, line)
		if a.ID == m.open {
			lines = append(lines, m.commentLines(a.ID)...)
		}
	}

	// Keep the cursor row on screen.
	start := 0
	if row := m.cursorRow(); row >= height {
		start = row - height + 1
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
	}
	return lipgloss.NewStyle().Height(height).Render(strings.Join(lines[start:end], "\n"))
}

// cursorRow is the line index of the selected activity, counting the
// comment lines of an expanded activity above it.
func (m Model) cursorRow() int {
	row := m.cursor
	for i, a := range m.view.Items {
		if i >= m.cursor {
			break
		}
		if a.ID == m.open {
			row += len(m.commentLines(a.ID))
		}
	}
	return row
}

func (m Model) activityLine(i int) string {
	a := m.view.Items[i]
	author := a.User.Name
	if author == "" {
		author = a.User.ID
	}
	text := a.Text
	if text == "" {
		text = "(" + a.Type + ")"
	}

	heart := "♡"
	if hasOwnReaction(a, "like") {
		heart = "♥"
	}
	marks := fmt.Sprintf("%s %d  ✎ %d", heart, a.ReactionCount, a.CommentCount)
	if len(a.OwnBookmarks) > 0 {
		marks += "  ★"
	}
	if a.Poll != nil {
		marks += fmt.Sprintf("  poll %d votes", a.Poll.VoteCount)
	}
	return truncate(fmt.Sprintf("%-12s %s  %s", author, text, marks), m.width)
}

func (m Model) commentLines(activityID string) []string {
	styles := m.theme.Styles()
	pg, ok := m.view.Comments[activityID]
	if !ok {
		return []string{styles.FaintText.Render("    loading comments…")}
	}
	if len(pg.Comments) == 0 {
		return []string{styles.FaintText.Render("    no comments")}
	}
	lines := make([]string, 0, len(pg.Comments)+1)
	for _, c := range pg.Comments {
		lines = append(lines, styles.MutedText.Render(truncate("    "+c.User.ID+": "+c.Text, m.width)))
	}
	if has, _ := pg.Pagination.HasNext(); has {
		lines = append(lines, styles.FaintText.Render("    …"))
	}
	return lines
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.status != "" {
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(m.status))
	}
	var hints []string
	for _, b := range m.keys.help() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return styles.Footer.Width(m.width).Render(truncate(strings.Join(hints, "  "), m.width))
}

func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
