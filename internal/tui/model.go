// Package tui provides the terminal user interface for the tutordesk inbox.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kenny1934/tutordesk/internal/draft"
	"github.com/kenny1934/tutordesk/internal/inbox"
	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/remote"
)

// viewLevel represents the current navigation depth.
type viewLevel int

const (
	levelThreadList viewLevel = iota
	levelThreadDetail
	levelCompose
)

// modalType represents the type of modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalDeleteConfirm
	modalCategorySelector
	modalQuitConfirm
	modalHelp
)

// Options configuration for the TUI.
type Options struct {
	Version          string
	AutosaveDebounce time.Duration
}

// Model is the main TUI model following the Elm architecture.
type Model struct {
	engine  *inbox.Engine
	version string

	level viewLevel

	// Thread list state
	cursor       int
	scrollOffset int

	// Detail view state
	detailThread message.Thread
	detailCursor int
	detailScroll int

	// Compose state
	composeSubject  textinput.Model
	composeBody     textarea.Model
	composeFocus    int   // 0 = subject, 1 = body
	composeReplyTo  int64 // 0 for a new message
	composeCategory message.Category

	// Pagination config
	pageSize int

	// Modal state
	modal        modalType
	modalCursor  int
	pendingIDs   []int64 // thread ids awaiting delete confirmation
	pendingLabel string  // human description for the confirm prompt

	// Terminal dimensions
	width  int
	height int

	// Loading state
	loading       bool
	err           error
	spinnerFrame  int
	spinnerActive bool

	// Request tracking to ignore stale async results
	loadRequestID uint64

	// Inline search state (vim-like search bar on info line)
	searchInput          textinput.Model
	inlineSearchActive   bool
	inlineSearchDebounce uint64 // increment to cancel pending debounce timers
	inlineSearchLoading  bool

	// Draft autosave debounce
	draftDebounce    uint64
	autosaveDebounce time.Duration

	// Flash message (temporary notification)
	flashMessage   string
	flashExpiresAt time.Time

	// Quit flag
	quitting bool
}

// New creates a new TUI model bound to an inbox engine.
func New(engine *inbox.Engine, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "search (from: to: subject: category:)"
	ti.CharLimit = 200
	ti.Width = 50

	subject := textinput.New()
	subject.Placeholder = "Subject"
	subject.CharLimit = 200
	subject.Width = 60

	body := textarea.New()
	body.Placeholder = "Message…"
	body.CharLimit = 0

	debounce := opts.AutosaveDebounce
	if debounce <= 0 {
		debounce = 800 * time.Millisecond
	}

	return Model{
		engine:           engine,
		version:          opts.Version,
		level:            levelThreadList,
		pageSize:         20,
		loading:          true,
		spinnerActive:    true,
		searchInput:      ti,
		composeSubject:   subject,
		composeBody:      body,
		autosaveDebounce: debounce,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadInitial(), spinnerTick())
}

// loadedMsg is sent when an engine fetch completes.
type loadedMsg struct {
	err       error
	requestID uint64 // to detect stale responses
}

// commitDoneMsg is sent when an optimistic mutation's remote write resolves.
type commitDoneMsg struct {
	err error
}

// sentMsg is sent when a compose/reply send resolves.
type sentMsg struct {
	msg *message.Message
	err error
}

// revalidatedMsg is sent when a background revalidation pass finishes.
type revalidatedMsg struct{}

// draftLoadedMsg carries a restored draft for the compose screen.
type draftLoadedMsg struct {
	d *draft.Draft
}

// draftSaveMsg fires after the autosave quiet period.
type draftSaveMsg struct {
	debounceID uint64
}

// searchDebounceMsg fires after the debounce delay to apply a typed query.
type searchDebounceMsg struct {
	query      string
	debounceID uint64
}

// flashClearMsg clears the flash message after its timeout.
type flashClearMsg struct{}

// spinnerTickMsg advances the loading spinner animation.
type spinnerTickMsg struct{}

// inlineSearchDebounceDelay is the quiet period before a typed query runs.
const inlineSearchDebounceDelay = 250 * time.Millisecond

// spinnerFrames are the Braille dot animation frames for the loading spinner.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinnerActive {
		return nil
	}
	m.spinnerActive = true
	return spinnerTick()
}

// loadInitial performs the first fetch of the inbox window and unread count.
func (m Model) loadInitial() tea.Cmd {
	requestID := m.loadRequestID
	return func() tea.Msg {
		err := m.engine.Load(context.Background())
		return loadedMsg{err: err, requestID: requestID}
	}
}

// switchView asks the engine for the given view and reloads.
func (m *Model) switchView(kind inbox.ViewKind) tea.Cmd {
	m.cursor = 0
	m.scrollOffset = 0
	m.exitInlineSearch()
	m.loading = true
	m.loadRequestID++
	requestID := m.loadRequestID
	spin := m.startSpinner()
	return tea.Batch(spin, func() tea.Msg {
		err := m.engine.SwitchView(context.Background(), kind)
		return loadedMsg{err: err, requestID: requestID}
	})
}

// setCategory applies a category filter to the paginated view.
func (m *Model) setCategory(c message.Category) tea.Cmd {
	m.cursor = 0
	m.scrollOffset = 0
	m.loading = true
	m.loadRequestID++
	requestID := m.loadRequestID
	spin := m.startSpinner()
	return tea.Batch(spin, func() tea.Msg {
		err := m.engine.SetCategory(context.Background(), c)
		return loadedMsg{err: err, requestID: requestID}
	})
}

// applyQuery installs a search query on the active view.
func (m *Model) applyQuery(q string) tea.Cmd {
	m.loadRequestID++
	requestID := m.loadRequestID
	return func() tea.Msg {
		err := m.engine.SetQuery(context.Background(), q)
		return loadedMsg{err: err, requestID: requestID}
	}
}

// loadMore grows the paginated window by one page.
func (m *Model) loadMore() tea.Cmd {
	if !m.engine.View().HasMore() {
		return nil
	}
	m.loading = true
	m.loadRequestID++
	requestID := m.loadRequestID
	spin := m.startSpinner()
	return tea.Batch(spin, func() tea.Msg {
		err := m.engine.LoadMore(context.Background())
		return loadedMsg{err: err, requestID: requestID}
	})
}

// runCommit executes a mutation's remote half off the update loop.
func runCommit(c inbox.Commit) tea.Cmd {
	return func() tea.Msg {
		return commitDoneMsg{err: c(context.Background())}
	}
}

// revalidate triggers a manual refresh pass.
func (m Model) revalidate() tea.Cmd {
	return func() tea.Msg {
		m.engine.Revalidate(context.Background())
		return revalidatedMsg{}
	}
}

// flash shows a temporary notification on the info line.
func (m *Model) flash(text string) tea.Cmd {
	m.flashMessage = text
	m.flashExpiresAt = time.Now().Add(3 * time.Second)
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageSize = max(1, msg.Height-chromeLines)
		m.composeBody.SetWidth(max(20, msg.Width-4))
		m.composeBody.SetHeight(max(3, msg.Height-10))
		return m, nil

	case spinnerTickMsg:
		if !m.spinnerActive {
			return m, nil
		}
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		if m.loading || m.inlineSearchLoading {
			return m, spinnerTick()
		}
		m.spinnerActive = false
		return m, nil

	case loadedMsg:
		if msg.requestID != m.loadRequestID {
			return m, nil // stale response
		}
		m.loading = false
		m.inlineSearchLoading = false
		m.err = msg.err
		m.clampCursor()
		return m, nil

	case commitDoneMsg:
		if msg.err != nil {
			m.clampCursor()
			return m, m.flash(msg.err.Error())
		}
		return m, m.revalidate()

	case sentMsg:
		if msg.err != nil {
			return m, m.flash(msg.err.Error())
		}
		m.level = levelThreadList
		m.resetCompose()
		return m, tea.Batch(m.flash("Message sent"), m.revalidate())

	case revalidatedMsg:
		m.clampCursor()
		return m, nil

	case draftLoadedMsg:
		if msg.d != nil {
			m.composeSubject.SetValue(msg.d.Subject)
			m.composeBody.SetValue(msg.d.Body)
			m.composeCategory = msg.d.Category
			return m, m.flash("Draft restored")
		}
		return m, nil

	case draftSaveMsg:
		if msg.debounceID != m.draftDebounce || m.level != levelCompose {
			return m, nil
		}
		m.saveDraft()
		return m, nil

	case searchDebounceMsg:
		if msg.debounceID != m.inlineSearchDebounce {
			return m, nil // superseded by newer keystrokes
		}
		m.inlineSearchLoading = true
		return m, tea.Batch(m.startSpinner(), m.applyQuery(msg.query))

	case flashClearMsg:
		if time.Now().After(m.flashExpiresAt) {
			m.flashMessage = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes a key press to the active surface.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modal != modalNone {
		return m.handleModalKeys(msg)
	}
	if m.inlineSearchActive {
		return m.handleInlineSearchKeys(msg)
	}
	switch m.level {
	case levelThreadDetail:
		return m.handleDetailKeys(msg)
	case levelCompose:
		return m.handleComposeKeys(msg)
	default:
		return m.handleListKeys(msg)
	}
}

// visible returns the threads the active view shows.
func (m Model) visible() []message.Thread {
	return m.engine.Visible()
}

// currentThread returns the thread under the cursor, if any.
func (m Model) currentThread() (message.Thread, bool) {
	threads := m.visible()
	if m.cursor < 0 || m.cursor >= len(threads) {
		return message.Thread{}, false
	}
	return threads[m.cursor], true
}

// targetIDs returns the ids a batch action applies to: the selection when
// non-empty, otherwise the thread under the cursor.
func (m Model) targetIDs() []int64 {
	if sel := m.engine.Selection(); sel.Count() > 0 {
		return sel.IDs()
	}
	if t, ok := m.currentThread(); ok {
		return []int64{t.ID()}
	}
	return nil
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.scrollOffset = calculateScrollOffset(m.cursor, m.scrollOffset, m.pageSize)
}

// resetCompose clears the compose surface for the next use.
func (m *Model) resetCompose() {
	m.composeSubject.SetValue("")
	m.composeBody.SetValue("")
	m.composeSubject.Blur()
	m.composeBody.Blur()
	m.composeFocus = 0
	m.composeReplyTo = 0
	m.composeCategory = message.CategoryNone
	m.draftDebounce++
}

// openCompose enters the compose surface, restoring any saved draft.
func (m *Model) openCompose(replyTo int64) tea.Cmd {
	m.resetCompose()
	m.level = levelCompose
	m.composeReplyTo = replyTo
	m.composeSubject.Focus()

	store := m.engine.Drafts()
	if store == nil {
		return nil
	}
	key := m.draftKey()
	return func() tea.Msg {
		d, err := store.Load(key)
		if err != nil {
			return draftLoadedMsg{} // storage failure degrades silently
		}
		return draftLoadedMsg{d: d}
	}
}

func (m Model) draftKey() string {
	if m.composeReplyTo == 0 {
		return draft.ComposeKey
	}
	return draft.ReplyKey(m.composeReplyTo)
}

// saveDraft persists the compose surface if it has content. Empty drafts
// are cleared instead so they never block anything later.
func (m *Model) saveDraft() {
	store := m.engine.Drafts()
	if store == nil {
		return
	}
	d := draft.Draft{
		Subject:  m.composeSubject.Value(),
		Body:     m.composeBody.Value(),
		Category: m.composeCategory,
	}
	key := m.draftKey()
	if d.Empty() {
		_ = store.Clear(key)
		return
	}
	_ = store.Save(key, d) // storage failure degrades to no persistence
}

// scheduleDraftSave arms the autosave debounce timer.
func (m *Model) scheduleDraftSave() tea.Cmd {
	m.draftDebounce++
	id := m.draftDebounce
	return tea.Tick(m.autosaveDebounce, func(time.Time) tea.Msg {
		return draftSaveMsg{debounceID: id}
	})
}

// sendCompose resolves recipients and dispatches the message.
func (m *Model) sendCompose() tea.Cmd {
	subject := m.composeSubject.Value()
	body := m.composeBody.Value()
	if body == "" && subject == "" {
		return m.flash("Nothing to send")
	}

	mc := remote.MessageCreate{
		Subject:  subject,
		Body:     body,
		Category: m.composeCategory,
		ReplyTo:  m.composeReplyTo,
	}
	if m.composeReplyTo != 0 {
		if t, ok := m.engine.Snapshot().FindThread(m.composeReplyTo); ok {
			r := message.ResolveReply(t.Root, m.engine.OwnerID())
			mc.To = r.To
			mc.ToMany = r.ToMany
		}
	}

	engine := m.engine
	return func() tea.Msg {
		sent, err := engine.Send(context.Background(), mc)
		return sentMsg{msg: sent, err: err}
	}
}

// exitInlineSearch closes the search bar without clearing the query.
func (m *Model) exitInlineSearch() {
	m.inlineSearchActive = false
	m.inlineSearchLoading = false
	m.searchInput.Blur()
	m.inlineSearchDebounce++
}

// clearSearch drops the query and restores the unfiltered view.
func (m *Model) clearSearch() tea.Cmd {
	m.exitInlineSearch()
	m.searchInput.SetValue("")
	m.cursor = 0
	m.scrollOffset = 0
	return m.applyQuery("")
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "loading…"
	}

	var body string
	switch m.level {
	case levelThreadDetail:
		body = m.detailView()
	case levelCompose:
		body = m.composeView()
	default:
		body = m.listView()
	}

	out := m.headerView() + "\n" + body + "\n" + m.footerView()
	if m.modal != modalNone {
		return m.overlayModal(out)
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
