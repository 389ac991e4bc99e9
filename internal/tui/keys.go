package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kenny1934/tutordesk/internal/inbox"
	"github.com/kenny1934/tutordesk/internal/message"
)

// viewOrder is the tab-cycling order of the list views.
var viewOrder = []inbox.ViewKind{
	inbox.ViewInbox,
	inbox.ViewSent,
	inbox.ViewArchived,
	inbox.ViewStarred,
}

// handleGlobalKeys handles keys common to all surfaces (quit, help).
// Returns (model, cmd, true) if the key was handled.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		m.modal = modalQuitConfirm
		return m, nil, true
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit, true
	case "?":
		m.modal = modalHelp
		return m, nil, true
	}
	return m, nil, false
}

// handleListKeys handles keys on the thread list.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	threads := m.visible()
	if m.navigateList(msg.String(), len(threads)) {
		return m, nil
	}

	switch msg.String() {
	case "tab", "shift+tab":
		cur := m.engine.View().Kind
		idx := 0
		for i, k := range viewOrder {
			if k == cur {
				idx = i
				break
			}
		}
		if msg.String() == "tab" {
			idx = (idx + 1) % len(viewOrder)
		} else {
			idx = (idx + len(viewOrder) - 1) % len(viewOrder)
		}
		return m, m.switchView(viewOrder[idx])

	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		return m, m.switchView(viewOrder[idx])

	case "c":
		if m.engine.View().Kind.Paginated() {
			m.modal = modalCategorySelector
			m.modalCursor = 0
		}
		return m, nil

	case "/":
		m.inlineSearchActive = true
		m.searchInput.Focus()
		return m, nil

	case "esc":
		if m.engine.View().Query != "" {
			return m, m.clearSearch()
		}
		return m, nil

	case "enter":
		t, ok := m.currentThread()
		if !ok {
			return m, nil
		}
		return m.openDetail(t)

	case " ":
		if t, ok := m.currentThread(); ok {
			m.engine.Selection().Toggle(t.ID())
		}
		return m, nil

	case "a":
		m.engine.Selection().ToggleAll(m.engine.VisibleIDs())
		return m, nil

	case "m":
		ids := m.targetIDs()
		cmds := make([]tea.Cmd, 0, len(ids))
		for _, id := range ids {
			cmds = append(cmds, runCommit(m.engine.MarkThreadRead(id)))
		}
		m.engine.Selection().Clear()
		return m, tea.Batch(cmds...)

	case "u":
		ids := m.targetIDs()
		cmds := make([]tea.Cmd, 0, len(ids))
		for _, id := range ids {
			cmds = append(cmds, runCommit(m.engine.MarkThreadUnread(id)))
		}
		m.engine.Selection().Clear()
		return m, tea.Batch(cmds...)

	case "p":
		ids := m.targetIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.engine.Selection().Clear()
		return m, runCommit(m.engine.Pin(ids...))

	case "P":
		ids := m.targetIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.engine.Selection().Clear()
		return m, runCommit(m.engine.Unpin(ids...))

	case "e":
		ids := m.targetIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.engine.Selection().Clear()
		if m.engine.View().Kind == inbox.ViewArchived {
			return m, runCommit(m.engine.Unarchive(ids...))
		}
		return m, runCommit(m.engine.Archive(ids...))

	case "x", "backspace":
		ids := m.targetIDs()
		if len(ids) == 0 {
			return m, nil
		}
		m.pendingIDs = ids
		if len(ids) == 1 {
			m.pendingLabel = "this conversation"
		} else {
			m.pendingLabel = fmt.Sprintf("%d conversations", len(ids))
		}
		m.modal = modalDeleteConfirm
		return m, nil

	case "r":
		if t, ok := m.currentThread(); ok {
			return m, m.openCompose(t.ID())
		}
		return m, nil

	case "n":
		return m, m.openCompose(0)

	case "l":
		return m, m.loadMore()

	case "R":
		m.loading = true
		return m, tea.Batch(m.startSpinner(), m.revalidate())
	}

	return m, nil
}

// openDetail drills into the thread under the cursor and marks it read.
func (m Model) openDetail(t message.Thread) (tea.Model, tea.Cmd) {
	m.level = levelThreadDetail
	m.detailThread = t
	m.detailCursor = 0
	m.detailScroll = 0
	m.engine.OpenThread(t.ID())

	if t.TotalUnread > 0 {
		return m, runCommit(m.engine.MarkThreadRead(t.ID()))
	}
	return m, nil
}

// handleDetailKeys handles keys in the thread detail view.
func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m2, cmd, handled := m.handleGlobalKeys(msg); handled {
		return m2, cmd
	}

	msgs := m.detailMessages()

	switch msg.String() {
	case "esc", "h":
		m.level = levelThreadList
		m.engine.CloseThread()
		return m, nil

	case "j", "down":
		if m.detailCursor < len(msgs)-1 {
			m.detailCursor++
		}
		return m, nil

	case "k", "up":
		if m.detailCursor > 0 {
			m.detailCursor--
		}
		return m, nil

	case "u":
		id := m.detailThread.ID()
		m.level = levelThreadList
		return m, runCommit(m.engine.MarkThreadUnread(id))

	case "t":
		if m.detailCursor < len(msgs) {
			target := msgs[m.detailCursor]
			return m, runCommit(m.engine.React(m.detailThread.ID(), target.ID, "👍"))
		}
		return m, nil

	case "r":
		return m, m.openCompose(m.detailThread.ID())
	}

	return m, nil
}

// detailMessages returns the open thread's messages, preferring the live
// snapshot copy so optimistic changes show immediately.
func (m Model) detailMessages() []message.Message {
	if t, ok := m.engine.Snapshot().FindThread(m.detailThread.ID()); ok {
		return t.Messages()
	}
	return m.detailThread.Messages()
}

// handleComposeKeys handles keys on the compose/reply surface.
func (m Model) handleComposeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.saveDraft() // keep work before leaving
		m.level = levelThreadList
		return m, nil

	case "ctrl+s":
		return m, m.sendCompose()

	case "tab":
		if m.composeFocus == 0 {
			m.composeFocus = 1
			m.composeSubject.Blur()
			return m, m.composeBody.Focus()
		}
		m.composeFocus = 0
		m.composeBody.Blur()
		m.composeSubject.Focus()
		return m, nil

	case "ctrl+t":
		m.composeCategory = nextCategory(m.composeCategory)
		return m, nil
	}

	var cmd tea.Cmd
	if m.composeFocus == 0 {
		m.composeSubject, cmd = m.composeSubject.Update(msg)
	} else {
		m.composeBody, cmd = m.composeBody.Update(msg)
	}
	return m, tea.Batch(cmd, m.scheduleDraftSave())
}

// nextCategory cycles through the assignable categories.
func nextCategory(c message.Category) message.Category {
	cats := message.Categories()
	for i, cat := range cats {
		if cat == c {
			return cats[(i+1)%len(cats)]
		}
	}
	return cats[0]
}

// handleInlineSearchKeys handles keys while the search bar is active.
func (m Model) handleInlineSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.exitInlineSearch()
		return m, nil

	case "esc":
		return m, m.clearSearch()

	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)

		query := m.searchInput.Value()
		m.inlineSearchDebounce++
		debounceID := m.inlineSearchDebounce

		var spinCmd tea.Cmd
		if query != "" {
			m.inlineSearchLoading = true
			spinCmd = m.startSpinner()
		} else {
			m.inlineSearchLoading = false
		}

		debounceCmd := tea.Tick(inlineSearchDebounceDelay, func(time.Time) tea.Msg {
			return searchDebounceMsg{query: query, debounceID: debounceID}
		})
		return m, tea.Batch(cmd, spinCmd, debounceCmd)
	}
}

// handleModalKeys routes keys to the open modal.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalDeleteConfirm:
		return m.handleDeleteConfirmKeys(msg)
	case modalCategorySelector:
		return m.handleCategorySelectorKeys(msg)
	case modalQuitConfirm:
		return m.handleQuitConfirmKeys(msg)
	case modalHelp:
		switch msg.String() {
		case "esc", "q", "?", "enter":
			m.modal = modalNone
		}
		return m, nil
	}
	m.modal = modalNone
	return m, nil
}

func (m Model) handleDeleteConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		ids := m.pendingIDs
		m.pendingIDs = nil
		m.modal = modalNone
		m.engine.Selection().Clear()
		cmds := make([]tea.Cmd, 0, len(ids))
		for _, id := range ids {
			cmds = append(cmds, runCommit(m.engine.Delete(id)))
		}
		return m, tea.Batch(cmds...)
	case "n", "N", "esc":
		m.pendingIDs = nil
		m.modal = modalNone
	}
	return m, nil
}

// categoryChoices are the selector rows: "all" plus every category.
func categoryChoices() []message.Category {
	return append([]message.Category{message.CategoryNone}, message.Categories()...)
}

func (m Model) handleCategorySelectorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := categoryChoices()
	switch msg.String() {
	case "j", "down":
		if m.modalCursor < len(choices)-1 {
			m.modalCursor++
		}
	case "k", "up":
		if m.modalCursor > 0 {
			m.modalCursor--
		}
	case "enter":
		m.modal = modalNone
		return m, m.setCategory(choices[m.modalCursor])
	case "esc":
		m.modal = modalNone
	}
	return m, nil
}

func (m Model) handleQuitConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "q", "enter":
		m.quitting = true
		return m, tea.Quit
	case "n", "N", "esc":
		m.modal = modalNone
	}
	return m, nil
}
