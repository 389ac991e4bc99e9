package inbox

import (
	"context"
	"fmt"
	"time"

	"github.com/kenny1934/tutordesk/internal/draft"
	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/remote"
)

// Commit performs the remote half of an optimistic mutation. The local
// transition has already been applied when Commit is handed out; running
// it issues the remote write, reverts the local change on failure, and
// marks the touched partitions dirty on success. A Commit must be run
// exactly once.
type Commit func(ctx context.Context) error

// optimistic is the generic mutation pipeline: apply computes the new
// snapshot and an inverse transition, call is the remote write, and the
// named partitions get revalidated after a confirmed write. The apply
// step runs under the engine lock and must not block.
func (e *Engine) optimistic(label string, apply func(Snapshot) (Snapshot, func(Snapshot) Snapshot), call func(context.Context) error, dirty ...Partition) Commit {
	e.mu.Lock()
	prev := e.snap
	next, invert := apply(prev)
	e.snap = next.reconcileUnread(prev)
	e.mu.Unlock()

	return func(ctx context.Context) error {
		if err := call(ctx); err != nil {
			e.mu.Lock()
			cur := e.snap
			e.snap = invert(cur).reconcileUnread(cur)
			e.mu.Unlock()
			return fmt.Errorf("%s: action failed, state restored: %w", label, err)
		}
		e.MarkDirty(dirty...)
		return nil
	}
}

// recordReceipt appends the viewer's read receipt unless one is already
// there. Receipts are history: marking unread later does not remove them.
func recordReceipt(m message.Message, viewer string) (message.Message, bool) {
	for _, r := range m.ReadBy {
		if r.TutorID == viewer {
			return m, false
		}
	}
	m.ReadBy = append(m.ReadBy[:len(m.ReadBy):len(m.ReadBy)], message.ReadReceipt{
		TutorID: viewer,
		At:      time.Now(),
	})
	return m, true
}

func dropReceipt(m message.Message, viewer string) message.Message {
	for i, r := range m.ReadBy {
		if r.TutorID == viewer {
			m.ReadBy = append(m.ReadBy[:i:i], m.ReadBy[i+1:]...)
			break
		}
	}
	return m
}

// setMessageRead flips one message's read flag, returning an inverse that
// only undoes the flip if the flag actually changed. The change detection
// is what keeps the derived unread counters from double counting when a
// concurrent transition already moved the flag. Flipping to read also
// records the viewer's receipt; the inverse drops it again.
func setMessageRead(s Snapshot, threadID, messageID int64, read bool, viewer string) (Snapshot, func(Snapshot) Snapshot) {
	changed := false
	receipted := false
	next := updateMessage(s, threadID, messageID, func(m message.Message) message.Message {
		if m.Read != read {
			m.Read = read
			changed = true
			if read {
				m, receipted = recordReceipt(m, viewer)
			}
		}
		return m
	})
	invert := func(s Snapshot) Snapshot {
		if !changed {
			return s
		}
		return updateMessage(s, threadID, messageID, func(m message.Message) message.Message {
			m.Read = !read
			if receipted {
				m = dropReceipt(m, viewer)
			}
			return m
		})
	}
	return next, invert
}

// MarkMessageRead marks a single message read for the viewer.
func (e *Engine) MarkMessageRead(threadID, messageID int64) Commit {
	return e.optimistic("mark read",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return setMessageRead(s, threadID, messageID, true, e.ownerID)
		},
		func(ctx context.Context) error {
			return e.remote.SetReadState(ctx, messageID, true)
		},
		PartInbox, PartStarred)
}

// MarkThreadRead marks every unread message in the thread read. The remote
// write is one SetReadState call per message that actually changed; the
// whole batch reverts together if any call fails.
func (e *Engine) MarkThreadRead(threadID int64) Commit {
	var flipped []int64
	return e.optimistic("mark thread read",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			if t, ok := s.FindThread(threadID); ok {
				for _, m := range t.Messages() {
					if !m.Read {
						flipped = append(flipped, m.ID)
					}
				}
			}
			receipted := make(map[int64]bool, len(flipped))
			next := s
			for _, id := range flipped {
				next = updateMessage(next, threadID, id, func(m message.Message) message.Message {
					m.Read = true
					m, receipted[m.ID] = recordReceipt(m, e.ownerID)
					return m
				})
			}
			invert := func(s Snapshot) Snapshot {
				for _, id := range flipped {
					s = updateMessage(s, threadID, id, func(m message.Message) message.Message {
						m.Read = false
						if receipted[m.ID] {
							m = dropReceipt(m, e.ownerID)
						}
						return m
					})
				}
				return s
			}
			return next, invert
		},
		func(ctx context.Context) error {
			for _, id := range flipped {
				if err := e.remote.SetReadState(ctx, id, true); err != nil {
					return err
				}
			}
			return nil
		},
		PartInbox, PartStarred)
}

// MarkThreadUnread marks the thread's root unread and closes any open
// detail panel showing it, so a mark-read-on-view side effect cannot
// immediately undo the operation.
func (e *Engine) MarkThreadUnread(threadID int64) Commit {
	e.mu.Lock()
	if e.openThreadID == threadID {
		e.openThreadID = 0
	}
	rootID := threadID
	if t, ok := e.snap.FindThread(threadID); ok {
		rootID = t.Root.ID
	}
	e.mu.Unlock()

	return e.optimistic("mark unread",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return setMessageRead(s, threadID, rootID, false, e.ownerID)
		},
		func(ctx context.Context) error {
			return e.remote.SetReadState(ctx, rootID, false)
		},
		PartInbox, PartStarred)
}

// setThreadsPinned flips the pin flag on a batch of threads and keeps the
// starred partition in step: newly pinned threads appear there, newly
// unpinned ones leave. Returns the exact inverse.
func setThreadsPinned(s Snapshot, ids []int64, pinned bool) (Snapshot, func(Snapshot) Snapshot) {
	var changed []int64
	unstarred := make(map[int64]message.Thread)
	for _, id := range ids {
		t, ok := s.FindThread(id)
		if !ok || t.Root.Pinned == pinned {
			continue
		}
		changed = append(changed, id)
		s = updateThread(s, id, func(t message.Thread) message.Thread {
			t.Root.Pinned = pinned
			return t
		})
		if pinned {
			if _, in := indexOf(s.Starred, id); !in {
				t2, _ := s.FindThread(id)
				s = s.withPartition(PartStarred, insertInto(s.Starred, t2))
			}
		} else if list, removed, ok := removeFrom(s.Starred, id); ok {
			unstarred[id] = removed
			s = s.withPartition(PartStarred, list)
		}
	}

	invert := func(s Snapshot) Snapshot {
		// put removed starred copies back before flipping flags so the
		// restored copies pick up the restored pin state too
		for _, t := range unstarred {
			s = s.withPartition(PartStarred, insertInto(s.Starred, t))
		}
		for _, id := range changed {
			s = updateThread(s, id, func(t message.Thread) message.Thread {
				t.Root.Pinned = !pinned
				return t
			})
			if pinned {
				if list, _, ok := removeFrom(s.Starred, id); ok {
					s = s.withPartition(PartStarred, list)
				}
			}
		}
		return s
	}
	return s, invert
}

// Pin pins a batch of threads; the batch is atomic from the client's view.
func (e *Engine) Pin(ids ...int64) Commit {
	return e.optimistic("pin",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return setThreadsPinned(s, ids, true)
		},
		func(ctx context.Context) error { return e.remote.Pin(ctx, ids) },
		PartInbox, PartStarred)
}

// Unpin unpins a batch of threads.
func (e *Engine) Unpin(ids ...int64) Commit {
	return e.optimistic("unpin",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return setThreadsPinned(s, ids, false)
		},
		func(ctx context.Context) error { return e.remote.Unpin(ctx, ids) },
		PartInbox, PartStarred)
}

// moveThreads relocates a batch between two partitions, capturing the
// moved copies so the inverse can put each one back exactly where it was.
func moveThreads(s Snapshot, ids []int64, from, to Partition) (Snapshot, func(Snapshot) Snapshot) {
	moved := make(map[int64]message.Thread)
	for _, id := range ids {
		list, t, ok := removeFrom(s.partition(from), id)
		if !ok {
			continue
		}
		moved[id] = t
		s = s.withPartition(from, list)
		if _, in := indexOf(s.partition(to), id); !in {
			s = s.withPartition(to, insertInto(s.partition(to), t))
		}
	}

	invert := func(s Snapshot) Snapshot {
		for id, t := range moved {
			if list, _, ok := removeFrom(s.partition(to), id); ok {
				s = s.withPartition(to, list)
			}
			s = s.withPartition(from, insertInto(s.partition(from), t))
		}
		return s
	}
	return s, invert
}

// Archive moves a batch of threads from the inbox to the archive. Every
// view-backing partition is updated so no view shows a stale copy.
func (e *Engine) Archive(ids ...int64) Commit {
	return e.optimistic("archive",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return moveThreads(s, ids, PartInbox, PartArchived)
		},
		func(ctx context.Context) error { return e.remote.Archive(ctx, ids) },
		PartInbox, PartArchived)
}

// Unarchive moves a batch of threads back to the inbox.
func (e *Engine) Unarchive(ids ...int64) Commit {
	return e.optimistic("unarchive",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			return moveThreads(s, ids, PartArchived, PartInbox)
		},
		func(ctx context.Context) error { return e.remote.Unarchive(ctx, ids) },
		PartInbox, PartArchived)
}

// React toggles the viewer's emoji reaction on a message: adds it if
// absent, removes it if the same emoji is already there.
func (e *Engine) React(threadID, messageID int64, emoji string) Commit {
	return e.optimistic("react",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			added := false
			next := updateMessage(s, threadID, messageID, func(m message.Message) message.Message {
				for i, r := range m.Reactions {
					if r.TutorID == e.ownerID && r.Emoji == emoji {
						m.Reactions = append(m.Reactions[:i:i], m.Reactions[i+1:]...)
						return m
					}
				}
				added = true
				m.Reactions = append(m.Reactions, message.Reaction{
					TutorID: e.ownerID,
					Emoji:   emoji,
					At:      time.Now(),
				})
				return m
			})
			invert := func(s Snapshot) Snapshot {
				return updateMessage(s, threadID, messageID, func(m message.Message) message.Message {
					if added {
						for i, r := range m.Reactions {
							if r.TutorID == e.ownerID && r.Emoji == emoji {
								m.Reactions = append(m.Reactions[:i:i], m.Reactions[i+1:]...)
								break
							}
						}
					} else {
						m.Reactions = append(m.Reactions, message.Reaction{
							TutorID: e.ownerID,
							Emoji:   emoji,
							At:      time.Now(),
						})
					}
					return m
				})
			}
			return next, invert
		},
		func(ctx context.Context) error {
			return e.remote.React(ctx, messageID, emoji)
		},
		PartInbox, PartStarred)
}

// Delete removes a thread from every partition. The removed copies are
// kept keyed by partition so a failed remote delete restores each one
// exactly where it was.
func (e *Engine) Delete(threadID int64) Commit {
	e.mu.Lock()
	if e.openThreadID == threadID {
		e.openThreadID = 0
	}
	delete(e.sel.ids, threadID)
	e.mu.Unlock()

	return e.optimistic("delete",
		func(s Snapshot) (Snapshot, func(Snapshot) Snapshot) {
			next, removed := removeEverywhere(s, threadID)
			return next, func(s Snapshot) Snapshot {
				return restoreEverywhere(s, removed)
			}
		},
		func(ctx context.Context) error { return e.remote.Delete(ctx, threadID) },
		PartInbox, PartSent, PartArchived, PartStarred)
}

// Send resolves recipients, posts the message, and on success inserts the
// stored record locally, clears the matching draft, and marks the sent
// partition dirty. Send is not optimistic: the remote call is the only
// source of the message id, so nothing is shown until it returns.
func (e *Engine) Send(ctx context.Context, mc remote.MessageCreate) (*message.Message, error) {
	sent, err := e.remote.Send(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	e.mu.Lock()
	key := draftKeyFor(e.snap, mc.ReplyTo)
	if mc.ReplyTo != 0 {
		if t, ok := e.snap.FindThread(threadOf(e.snap, mc.ReplyTo)); ok {
			prev := e.snap
			e.snap = updateThread(prev, t.ID(), func(t message.Thread) message.Thread {
				t.Replies = append(t.Replies, *sent)
				return t
			}).reconcileUnread(prev)
		}
	}
	e.mu.Unlock()

	if e.drafts != nil {
		if err := e.drafts.Clear(key); err != nil {
			e.logger.Debug("draft clear failed", "key", key, "error", err)
		}
	}

	e.MarkDirty(PartSent, PartInbox)
	return sent, nil
}

// threadOf maps a message id to its thread's root id, falling back to the
// id itself when the message is not cached.
func threadOf(s Snapshot, messageID int64) int64 {
	for _, p := range threadPartitions {
		for _, t := range s.partition(p) {
			for _, m := range t.Messages() {
				if m.ID == messageID {
					return t.ID()
				}
			}
		}
	}
	return messageID
}

func draftKeyFor(s Snapshot, replyTo int64) string {
	if replyTo == 0 {
		return draft.ComposeKey
	}
	return draft.ReplyKey(threadOf(s, replyTo))
}
