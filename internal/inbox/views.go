package inbox

import (
	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/remote"
	"github.com/kenny1934/tutordesk/internal/search"
)

// ViewKind identifies one of the mutually exclusive list views. Exactly one
// is active at a time; the engine owns which.
type ViewKind int

const (
	// ViewInbox is the default, category-filterable view. It paginates on
	// the server and delegates text search to it.
	ViewInbox ViewKind = iota

	// The remaining views fetch their whole result set once and do all
	// filtering, including text search, client-side.
	ViewSent
	ViewArchived
	ViewStarred
)

func (v ViewKind) String() string {
	switch v {
	case ViewSent:
		return "Sent"
	case ViewArchived:
		return "Archived"
	case ViewStarred:
		return "Starred"
	default:
		return "Inbox"
	}
}

// Paginated reports whether the view uses the expanding server-side window.
func (v ViewKind) Paginated() bool { return v == ViewInbox }

func (v ViewKind) folder() remote.Folder {
	switch v {
	case ViewSent:
		return remote.FolderSent
	case ViewArchived:
		return remote.FolderArchived
	case ViewStarred:
		return remote.FolderStarred
	default:
		return remote.FolderInbox
	}
}

func (v ViewKind) partition() Partition {
	switch v {
	case ViewSent:
		return PartSent
	case ViewArchived:
		return PartArchived
	case ViewStarred:
		return PartStarred
	default:
		return PartInbox
	}
}

// View is the engine's tagged list-strategy state. The pagination fields
// only carry meaning while Kind is paginated; switching views resets them.
type View struct {
	Kind     ViewKind
	Category message.Category // inbox only; CategoryNone means all
	Query    string

	// Paginated-mode cursor state.
	page    int // highest page loaded, 1-based
	total   int // server-reported thread total
	hasMore bool
}

// Total returns the server-reported total for the paginated view.
func (v View) Total() int { return v.total }

// HasMore reports whether a further page is available.
func (v View) HasMore() bool { return v.hasMore }

// Page returns the highest loaded page.
func (v View) Page() int { return v.page }

// Visible returns the threads the active view should display, applying the
// view's strategy: the paginated window as-is for the inbox (the server
// already applied category and query), or the client-filtered snapshot for
// the other views.
func (e *Engine) Visible() []message.Thread {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visibleLocked()
}

func (e *Engine) visibleLocked() []message.Thread {
	part := e.snap.partition(e.view.Kind.partition())
	if e.view.Kind.Paginated() {
		return part
	}
	return search.FilterThreads(search.Parse(e.view.Query), part)
}

// VisibleIDs returns the ids of the currently visible threads, in order.
func (e *Engine) VisibleIDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	threads := e.visibleLocked()
	ids := make([]int64, len(threads))
	for i, t := range threads {
		ids[i] = t.ID()
	}
	return ids
}
