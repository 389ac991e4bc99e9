// Package inbox implements the message-thread synchronization engine behind
// the staff inbox: a locally cached, optimistically mutated mirror of the
// remote system of record.
//
// The cache is a copy-on-write Snapshot. Every mutation applies its local
// transition synchronously, then returns a Commit that performs the remote
// write; a failed Commit re-applies the inverse transition and surfaces the
// error, a successful one marks the touched partitions for revalidation.
// Revalidation is always authoritative over locally guessed state, so
// out-of-order confirmations cannot clobber newer data.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kenny1934/tutordesk/internal/draft"
	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/notify"
	"github.com/kenny1934/tutordesk/internal/remote"
)

// DefaultPageSize is the paginated view's window growth step.
const DefaultPageSize = 20

// Options configures a new Engine.
type Options struct {
	OwnerID  string
	PageSize int
	Drafts   *draft.Store // nil degrades to no draft persistence
	Sink     notify.Sink  // nil discards notifications
	Logger   *slog.Logger
}

// Engine owns the cached snapshot, the active view strategy, and the
// selection set. Methods are safe for use from one goroutine driving the
// UI plus background goroutines running Commits and revalidation; each
// local transition runs to completion under the engine lock, so two
// mutations never interleave their read-modify-write steps.
type Engine struct {
	remote remote.Client
	drafts *draft.Store
	sink   notify.Sink
	logger *slog.Logger

	ownerID  string
	pageSize int

	mu       sync.Mutex
	snap     Snapshot
	view     View
	sel      Selection
	notifier deltaNotifier
	dirty    map[Partition]bool
	loaded   map[Partition]bool // snapshot partitions fetched at least once

	// openThreadID is the thread currently open in a detail panel, if any.
	// MarkUnread closes it so "mark read on view" cannot immediately undo
	// the operation.
	openThreadID int64
}

// New creates an engine bound to a remote client.
func New(rc remote.Client, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	var sink notify.Sink = notify.Discard{}
	if opts.Sink != nil {
		sink = opts.Sink
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		remote:   rc,
		drafts:   opts.Drafts,
		sink:     sink,
		logger:   logger,
		ownerID:  opts.OwnerID,
		pageSize: opts.PageSize,
		sel:      newSelection(),
		dirty:    make(map[Partition]bool),
		loaded:   make(map[Partition]bool),
	}
}

// Snapshot returns the current cache version. The returned value is
// immutable; renderers may keep reading it while the engine moves on.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// View returns the active view state.
func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Selection exposes the bulk-selection set. Callers must treat it as owned
// by the engine's goroutine.
func (e *Engine) Selection() *Selection {
	return &e.sel
}

// OpenThreadID returns the thread open in a detail panel, or 0.
func (e *Engine) OpenThreadID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openThreadID
}

// OpenThread records that a thread detail panel is showing.
func (e *Engine) OpenThread(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openThreadID = id
}

// CloseThread clears the open panel, cancelling interest in any further
// automatic mark-read side effects for it.
func (e *Engine) CloseThread() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openThreadID = 0
}

// Load performs the initial fetch: the first inbox page and the
// authoritative unread count, in parallel. The first unread observation
// primes the notifier without firing.
func (e *Engine) Load(ctx context.Context) error {
	var page *remote.Page
	var unread int

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = e.remote.FetchMessages(ctx, e.inboxFilter(1))
		return err
	})
	g.Go(func() error {
		var err error
		unread, err = e.remote.FetchUnreadCount(ctx, e.ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Inbox = message.Assemble(page.Messages)
	e.snap.Unread.Total = unread
	e.snap.Unread.ByCategory = e.snap.derivedUnread().ByCategory
	e.view.page = 1
	e.view.total = page.Total
	e.view.hasMore = page.HasMore
	e.loaded[PartInbox] = true
	e.notifier.observe(unread)
	return nil
}

// SwitchView makes kind the active view. Pagination cursors reset, the
// search query and selection clear, and the open panel closes. A snapshot
// view that has never been fetched is fetched now, one-shot.
func (e *Engine) SwitchView(ctx context.Context, kind ViewKind) error {
	e.mu.Lock()
	if e.view.Kind == kind {
		e.mu.Unlock()
		return nil
	}
	e.view = View{Kind: kind}
	e.sel.Clear()
	e.openThreadID = 0
	needFetch := !kind.Paginated() && !e.loaded[kind.partition()]
	needInbox := kind.Paginated() && !e.loaded[PartInbox]
	e.mu.Unlock()

	if needFetch {
		return e.refetchPartition(ctx, kind.partition())
	}
	if needInbox {
		return e.reloadInbox(ctx)
	}
	return nil
}

// SetCategory filters the paginated view by category and reloads its first
// page. It is ignored for snapshot views.
func (e *Engine) SetCategory(ctx context.Context, c message.Category) error {
	e.mu.Lock()
	if !e.view.Kind.Paginated() {
		e.mu.Unlock()
		return nil
	}
	e.view.Category = c
	e.view.page = 0
	e.sel.Clear()
	e.mu.Unlock()

	return e.reloadInbox(ctx)
}

// SetQuery installs a search query. The paginated view reloads from the
// server with the query attached; snapshot views filter locally and need
// no fetch. Debouncing keystrokes is the caller's concern.
func (e *Engine) SetQuery(ctx context.Context, q string) error {
	e.mu.Lock()
	e.view.Query = q
	paginated := e.view.Kind.Paginated()
	if paginated {
		e.view.page = 0
	}
	e.mu.Unlock()

	if paginated {
		return e.reloadInbox(ctx)
	}
	return nil
}

// LoadMore grows the paginated window by one page. It is a no-op for
// snapshot views or when the server has no more results.
func (e *Engine) LoadMore(ctx context.Context) error {
	e.mu.Lock()
	if !e.view.Kind.Paginated() || !e.view.hasMore {
		e.mu.Unlock()
		return nil
	}
	next := e.view.page + 1
	filter := e.inboxFilter(next)
	e.mu.Unlock()

	page, err := e.remote.FetchMessages(ctx, filter)
	if err != nil {
		return fmt.Errorf("load more: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	merged := e.snap.Inbox
	for _, t := range message.Assemble(page.Messages) {
		merged = insertInto(merged, t)
	}
	e.snap.Inbox = merged
	e.snap.Unread.ByCategory = e.snap.derivedUnread().ByCategory
	e.view.page = next
	e.view.total = page.Total
	e.view.hasMore = page.HasMore
	return nil
}

// MarkDirty flags partitions for the next revalidation pass.
func (e *Engine) MarkDirty(parts ...Partition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range parts {
		e.dirty[p] = true
	}
}

// Revalidate refetches every dirty partition plus the unread count from
// the system of record and swaps the results into the cache. The fetched
// state is authoritative: whatever the optimistic transitions guessed is
// replaced wholesale. Fetch failures are silent; the next pass corrects
// any drift.
func (e *Engine) Revalidate(ctx context.Context) {
	e.mu.Lock()
	parts := make([]Partition, 0, len(e.dirty))
	for p := range e.dirty {
		if p != PartUnread {
			parts = append(parts, p)
		}
	}
	e.dirty = make(map[Partition]bool)
	e.mu.Unlock()

	for _, p := range parts {
		var err error
		if p == PartInbox {
			err = e.reloadInbox(ctx)
		} else {
			err = e.refetchPartition(ctx, p)
		}
		if err != nil {
			e.logger.Debug("revalidation failed", "partition", p.String(), "error", err)
			e.MarkDirty(p)
		}
	}

	count, err := e.remote.FetchUnreadCount(ctx, e.ownerID)
	if err != nil {
		e.logger.Debug("unread revalidation failed", "error", err)
		return
	}

	e.mu.Lock()
	e.snap.Unread.Total = count
	e.snap.Unread.ByCategory = e.snap.derivedUnread().ByCategory
	delta, fire := e.notifier.observe(count)
	e.mu.Unlock()

	if fire {
		e.sink.Notify("New messages", fmt.Sprintf("%d new unread message(s)", delta))
	}
}

// reloadInbox refetches the whole currently loaded window in one request so
// the window size survives revalidation.
func (e *Engine) reloadInbox(ctx context.Context) error {
	e.mu.Lock()
	pages := e.view.page
	if pages < 1 {
		pages = 1
	}
	filter := e.inboxFilter(1)
	filter.PageSize = pages * e.pageSize
	e.mu.Unlock()

	page, err := e.remote.FetchMessages(ctx, filter)
	if err != nil {
		return fmt.Errorf("reload inbox: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Inbox = message.Assemble(page.Messages)
	e.snap.Unread.ByCategory = e.snap.derivedUnread().ByCategory
	e.view.page = pages
	e.view.total = page.Total
	e.view.hasMore = page.HasMore
	e.loaded[PartInbox] = true
	return nil
}

// refetchPartition replaces a snapshot partition with a fresh full fetch.
func (e *Engine) refetchPartition(ctx context.Context, p Partition) error {
	var folder remote.Folder
	switch p {
	case PartSent:
		folder = remote.FolderSent
	case PartArchived:
		folder = remote.FolderArchived
	case PartStarred:
		folder = remote.FolderStarred
	default:
		return fmt.Errorf("partition %s is not snapshot-fetched", p)
	}

	page, err := e.remote.FetchMessages(ctx, remote.Filter{OwnerID: e.ownerID, Folder: folder})
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = e.snap.withPartition(p, message.Assemble(page.Messages))
	e.snap.Unread.ByCategory = e.snap.derivedUnread().ByCategory
	e.loaded[p] = true
	return nil
}

func (e *Engine) inboxFilter(page int) remote.Filter {
	return remote.Filter{
		OwnerID:  e.ownerID,
		Folder:   remote.FolderInbox,
		Category: e.view.Category,
		Query:    e.view.Query,
		Page:     page,
		PageSize: e.pageSize,
	}
}

// Drafts returns the draft store, or nil when persistence is unavailable.
func (e *Engine) Drafts() *draft.Store {
	return e.drafts
}

// OwnerID returns the viewing user's id.
func (e *Engine) OwnerID() string {
	return e.ownerID
}

// ResetNotifier clears the unread baseline, e.g. after a reconnect.
func (e *Engine) ResetNotifier() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier.reset()
}
