package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kenny1934/tutordesk/internal/inbox"
	"github.com/kenny1934/tutordesk/internal/message"
)

// chromeLines is the vertical space taken by header, info line and footer.
const chromeLines = 5

var (
	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Underline(true).
			Padding(0, 1)

	cursorRowStyle = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"})

	unreadStyle = lipgloss.NewStyle().Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#777777"})

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0050a0", Dark: "#6ab0f3"})

	urgentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#a00000", Dark: "#ff6b6b"})

	flashStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005500", Dark: "#73d893"})

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2)
)

// headerView renders the title bar and view tabs.
func (m Model) headerView() string {
	title := "tutordesk"
	if m.version != "" {
		title += " " + m.version
	}
	bar := titleBarStyle.Width(m.width).Render(title)

	unread := m.engine.Snapshot().Unread
	var tabs []string
	for _, kind := range viewOrder {
		label := kind.String()
		if kind == inbox.ViewInbox && unread.Total > 0 {
			label = fmt.Sprintf("%s (%d)", label, unread.Total)
		}
		if kind == m.engine.View().Kind {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return bar + "\n" + strings.Join(tabs, " ")
}

// listView renders the visible slice of the active view's threads.
func (m Model) listView() string {
	threads := m.visible()
	if m.err != nil {
		return mutedStyle.Render("error: " + m.err.Error())
	}
	if len(threads) == 0 {
		if m.loading {
			return mutedStyle.Render("loading…")
		}
		return mutedStyle.Render("no conversations")
	}

	end := min(m.scrollOffset+m.pageSize, len(threads))
	var b strings.Builder
	sel := m.engine.Selection()
	for i := m.scrollOffset; i < end; i++ {
		b.WriteString(m.renderThreadRow(threads[i], i == m.cursor, sel.Has(threads[i].ID())))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderThreadRow renders one thread line: selection and read markers,
// sender, subject, category badge, reply count and age.
func (m Model) renderThreadRow(t message.Thread, cursor, selected bool) string {
	marker := " "
	if selected {
		marker = "▪"
	}

	status := " "
	if t.TotalUnread > 0 {
		status = "●"
	}

	pin := " "
	if t.Root.Pinned {
		pin = "★"
	}

	sender := padRight(truncateRunes(t.Root.SenderName, 18), 18)
	if sender == strings.Repeat(" ", 18) {
		sender = padRight(truncateRunes(t.Root.SenderID, 18), 18)
	}

	subject := t.Root.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	if n := len(t.Replies); n > 0 {
		subject = fmt.Sprintf("%s (%d)", subject, n+1)
	}

	badge := ""
	if t.Root.Category != message.CategoryNone {
		badge = " " + badgeStyle.Render("["+t.Root.Category.String()+"]")
	}

	age := formatRelativeTime(t.LastActivity())

	subjectWidth := max(10, m.width-18-len(age)-12)
	subject = truncateRunes(subject, subjectWidth)

	row := fmt.Sprintf("%s%s%s %s %s%s", marker, status, pin, sender, subject, badge)
	pad := m.width - lipgloss.Width(row) - len(age) - 1
	if pad > 0 {
		row += strings.Repeat(" ", pad)
	}
	row += mutedStyle.Render(age)

	switch {
	case cursor:
		return cursorRowStyle.Width(m.width).Render(row)
	case t.TotalUnread > 0:
		return unreadStyle.Render(row)
	case t.Root.Priority == message.PriorityUrgent:
		return urgentStyle.Render(row)
	default:
		return row
	}
}

// detailView renders the open thread's messages.
func (m Model) detailView() string {
	msgs := m.detailMessages()
	if len(msgs) == 0 {
		return mutedStyle.Render("conversation no longer available")
	}

	var b strings.Builder
	for i, msg := range msgs {
		header := fmt.Sprintf("%s · %s", msg.SenderName, formatRelativeTime(msg.CreatedAt))
		if msg.SenderName == "" {
			header = fmt.Sprintf("%s · %s", msg.SenderID, formatRelativeTime(msg.CreatedAt))
		}
		if len(msg.Reactions) > 0 {
			var emojis []string
			for _, r := range msg.Reactions {
				emojis = append(emojis, r.Emoji)
			}
			header += "  " + strings.Join(emojis, " ")
		}
		if n := len(msg.ReadBy); n > 0 && msg.SenderID == m.engine.OwnerID() {
			header += fmt.Sprintf("  ✓%d", n)
		}
		if i == m.detailCursor {
			header = cursorRowStyle.Render("> " + header)
		} else {
			header = mutedStyle.Render("  " + header)
		}
		b.WriteString(header)
		b.WriteString("\n")

		for _, line := range wrapText(stripBody(msg.Body), max(20, m.width-4)) {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	visible := max(1, m.height-chromeLines)
	start := min(m.detailScroll, max(0, len(lines)-visible))
	end := min(start+visible, len(lines))
	return strings.Join(lines[start:end], "\n")
}

// composeView renders the compose/reply surface.
func (m Model) composeView() string {
	var b strings.Builder
	if m.composeReplyTo != 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("Reply to conversation #%d", m.composeReplyTo)))
	} else {
		b.WriteString(mutedStyle.Render("New message (broadcast)"))
	}
	b.WriteString("\n\n")
	b.WriteString("Subject: " + m.composeSubject.View())
	b.WriteString("\n")
	cat := "none"
	if m.composeCategory != message.CategoryNone {
		cat = m.composeCategory.String()
	}
	b.WriteString(mutedStyle.Render("Category (ctrl+t): "+cat) + "\n\n")
	b.WriteString(m.composeBody.View())
	b.WriteString("\n\n")
	b.WriteString(mutedStyle.Render("ctrl+s send · esc save draft & close"))
	return b.String()
}

// footerView renders the info line: flash, search bar, or counts and keys.
func (m Model) footerView() string {
	if m.inlineSearchActive {
		return "/" + m.searchInput.View() + m.spinnerIndicator()
	}
	if m.flashMessage != "" {
		return flashStyle.Render(m.flashMessage)
	}

	v := m.engine.View()
	var info string
	switch m.level {
	case levelCompose:
		info = "compose"
	case levelThreadDetail:
		info = fmt.Sprintf("%d message(s) · esc back · r reply · t react · u unread", len(m.detailMessages()))
	default:
		n := len(m.visible())
		if v.Kind.Paginated() {
			info = fmt.Sprintf("%d of %d conversation(s)", n, v.Total())
			if v.HasMore() {
				info += " · l more"
			}
		} else {
			info = fmt.Sprintf("%d conversation(s)", n)
		}
		if sel := m.engine.Selection(); sel.Count() > 0 {
			info += fmt.Sprintf(" · %d selected", sel.Count())
		}
		if v.Query != "" {
			info += fmt.Sprintf(" · search: %s", v.Query)
		}
		if v.Category != message.CategoryNone {
			info += fmt.Sprintf(" · category: %s", v.Category)
		}
		info += " · ? help"
	}
	return mutedStyle.Render(info) + m.spinnerIndicator()
}

func (m Model) spinnerIndicator() string {
	if m.loading || m.inlineSearchLoading {
		return " " + spinnerFrames[m.spinnerFrame]
	}
	return ""
}

var rawHelpLines = []string{
	"Navigation",
	"  j/k, ↑/↓      move cursor",
	"  g/G           first / last",
	"  enter         open conversation",
	"  tab, 1-4      switch view (inbox/sent/archived/starred)",
	"  l             load more (inbox)",
	"  R             refresh now",
	"",
	"Actions",
	"  space         select / deselect",
	"  a             select all visible",
	"  m / u         mark read / unread",
	"  p / P         pin / unpin",
	"  e             archive (unarchive in archived view)",
	"  x             delete",
	"  r             reply",
	"  n             new message",
	"  t             react (in conversation)",
	"",
	"Search & filter",
	"  /             search (from: to: subject: category: is:unread)",
	"  c             filter by category (inbox)",
	"  esc           clear search / go back",
	"",
	"  q             quit",
}

// Modal rendering

func (m Model) renderDeleteConfirmModal() string {
	return modalStyle.Render(fmt.Sprintf("Delete %s?\n\n[y] delete   [n] cancel", m.pendingLabel))
}

func (m Model) renderCategorySelectorModal() string {
	var b strings.Builder
	b.WriteString("Filter by category\n\n")
	for i, c := range categoryChoices() {
		label := "all"
		if c != message.CategoryNone {
			label = c.String()
		}
		if i == m.modalCursor {
			b.WriteString(cursorRowStyle.Render("> " + label))
		} else {
			b.WriteString("  " + label)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nenter select · esc cancel")
	return modalStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderQuitConfirmModal() string {
	return modalStyle.Render("Quit tutordesk?\n\n[y] quit   [n] cancel")
}

func (m Model) renderHelpModal() string {
	return modalStyle.Render(strings.Join(rawHelpLines, "\n"))
}

// overlayModal centers the open modal over the background view.
func (m Model) overlayModal(background string) string {
	var modal string
	switch m.modal {
	case modalDeleteConfirm:
		modal = m.renderDeleteConfirmModal()
	case modalCategorySelector:
		modal = m.renderCategorySelectorModal()
	case modalQuitConfirm:
		modal = m.renderQuitConfirmModal()
	case modalHelp:
		modal = m.renderHelpModal()
	default:
		return background
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
