package inbox

import (
	"github.com/kenny1934/tutordesk/internal/message"
)

// Partition identifies one of the in-memory thread collections backing the
// list views, plus the unread aggregate. Mutations mark partitions dirty;
// revalidation refetches dirty partitions from the system of record.
type Partition int

const (
	PartInbox Partition = iota
	PartSent
	PartArchived
	PartStarred
	PartUnread
)

func (p Partition) String() string {
	switch p {
	case PartInbox:
		return "inbox"
	case PartSent:
		return "sent"
	case PartArchived:
		return "archived"
	case PartStarred:
		return "starred"
	case PartUnread:
		return "unread"
	default:
		return "unknown"
	}
}

// Snapshot is one immutable version of the cached inbox state. Transitions
// never mutate in place: they return a new Snapshot sharing unmodified
// threads with the old one, so a consumer rendering a previous version
// never observes a torn state.
//
// Unread.ByCategory is derived from the locally known threads.
// Unread.Total starts from the server's authoritative count and is adjusted
// by the exact read-state delta of each local transition, so a transition
// that does not actually change a read flag never moves the counter.
type Snapshot struct {
	Inbox    []message.Thread
	Sent     []message.Thread
	Archived []message.Thread
	Starred  []message.Thread
	Unread   message.UnreadCounts
}

// partitions in a fixed traversal order.
func (s Snapshot) partition(p Partition) []message.Thread {
	switch p {
	case PartInbox:
		return s.Inbox
	case PartSent:
		return s.Sent
	case PartArchived:
		return s.Archived
	case PartStarred:
		return s.Starred
	default:
		return nil
	}
}

func (s Snapshot) withPartition(p Partition, threads []message.Thread) Snapshot {
	switch p {
	case PartInbox:
		s.Inbox = threads
	case PartSent:
		s.Sent = threads
	case PartArchived:
		s.Archived = threads
	case PartStarred:
		s.Starred = threads
	}
	return s
}

var threadPartitions = []Partition{PartInbox, PartSent, PartArchived, PartStarred}

// FindThread returns the thread with the given id from whichever partition
// holds it, preferring the inbox copy.
func (s Snapshot) FindThread(id int64) (message.Thread, bool) {
	for _, p := range threadPartitions {
		if idx, ok := indexOf(s.partition(p), id); ok {
			return s.partition(p)[idx], true
		}
	}
	return message.Thread{}, false
}

func indexOf(list []message.Thread, id int64) (int, bool) {
	for i, t := range list {
		if t.ID() == id {
			return i, true
		}
	}
	return -1, false
}

// replaceAt returns a new slice with index i swapped for t.
func replaceAt(list []message.Thread, i int, t message.Thread) []message.Thread {
	out := make([]message.Thread, len(list))
	copy(out, list)
	out[i] = t
	return out
}

// removeFrom returns a new slice without the thread id, plus the removed
// thread and whether it was present.
func removeFrom(list []message.Thread, id int64) ([]message.Thread, message.Thread, bool) {
	idx, ok := indexOf(list, id)
	if !ok {
		return list, message.Thread{}, false
	}
	out := make([]message.Thread, 0, len(list)-1)
	out = append(out, list[:idx]...)
	out = append(out, list[idx+1:]...)
	return out, list[idx], true
}

// insertInto returns a new slice with t added in activity order. An
// existing copy of the same thread is replaced instead.
func insertInto(list []message.Thread, t message.Thread) []message.Thread {
	if idx, ok := indexOf(list, t.ID()); ok {
		return replaceAt(list, idx, t)
	}
	out := make([]message.Thread, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, t)
	message.SortThreads(out)
	return out
}

// updateThread applies fn to the thread wherever it appears, cloning the
// affected copies so prior snapshot versions stay intact. The same thread
// can back several partitions at once (a pinned inbox thread is also in
// starred); every copy must change or a view would show stale state.
func updateThread(s Snapshot, id int64, fn func(message.Thread) message.Thread) Snapshot {
	for _, p := range threadPartitions {
		list := s.partition(p)
		if idx, ok := indexOf(list, id); ok {
			s = s.withPartition(p, replaceAt(list, idx, fn(list[idx].Clone()).Recount()))
		}
	}
	return s
}

// updateMessage applies fn to a single message inside the thread, wherever
// the thread appears.
func updateMessage(s Snapshot, threadID, messageID int64, fn func(message.Message) message.Message) Snapshot {
	return updateThread(s, threadID, func(t message.Thread) message.Thread {
		if t.Root.ID == messageID {
			t.Root = fn(t.Root)
			return t
		}
		for i := range t.Replies {
			if t.Replies[i].ID == messageID {
				t.Replies[i] = fn(t.Replies[i])
				return t
			}
		}
		return t
	})
}

// removeEverywhere drops the thread from every partition, returning the
// removed copies keyed by partition so an inverse transition can restore
// them exactly.
func removeEverywhere(s Snapshot, id int64) (Snapshot, map[Partition]message.Thread) {
	removed := make(map[Partition]message.Thread)
	for _, p := range threadPartitions {
		list, t, ok := removeFrom(s.partition(p), id)
		if ok {
			removed[p] = t
			s = s.withPartition(p, list)
		}
	}
	return s, removed
}

// restoreEverywhere reinserts previously removed copies.
func restoreEverywhere(s Snapshot, removed map[Partition]message.Thread) Snapshot {
	for p, t := range removed {
		s = s.withPartition(p, insertInto(s.partition(p), t))
	}
	return s
}

// derivedUnread recomputes unread aggregates from every known thread,
// deduplicated by id, independent of the active view's filter.
func (s Snapshot) derivedUnread() message.UnreadCounts {
	seen := make(map[int64]bool)
	var all []message.Thread
	for _, p := range threadPartitions {
		for _, t := range s.partition(p) {
			if !seen[t.ID()] {
				seen[t.ID()] = true
				all = append(all, t)
			}
		}
	}
	return message.CountUnread(all)
}

// reconcileUnread recomputes the derived aggregates after a transition and
// moves the authoritative total by the exact local delta. Comparing derived
// totals before and after is what prevents double counting when a
// transition turns out to be a no-op on read state.
func (s Snapshot) reconcileUnread(prev Snapshot) Snapshot {
	before := prev.derivedUnread()
	after := s.derivedUnread()

	s.Unread.ByCategory = after.ByCategory
	s.Unread.Total = prev.Unread.Total + (after.Total - before.Total)
	if s.Unread.Total < 0 {
		s.Unread.Total = 0
	}
	return s
}
