package message

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func msg(id, replyTo int64, read bool, created int) Message {
	return Message{ID: id, ReplyTo: replyTo, Read: read, CreatedAt: ts(created)}
}

func TestAssembleGroupsByTransitiveRoot(t *testing.T) {
	// 1 <- 2 <- 3 (3 replies to 2, which replies to 1) and 4 standalone.
	msgs := []Message{
		msg(3, 2, false, 20),
		msg(1, 0, true, 0),
		msg(4, 0, false, 5),
		msg(2, 1, false, 10),
	}

	threads := Assemble(msgs)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}

	// Thread rooted at 1 has newest activity (minute 20) so it sorts first.
	if threads[0].ID() != 1 || threads[1].ID() != 4 {
		t.Fatalf("thread order = [%d, %d], want [1, 4]", threads[0].ID(), threads[1].ID())
	}

	got := threads[0]
	if got.Root.ID != 1 {
		t.Errorf("root = %d, want 1", got.Root.ID)
	}
	if len(got.Replies) != 2 || got.Replies[0].ID != 2 || got.Replies[1].ID != 3 {
		t.Errorf("replies not chronological: %v", got.Replies)
	}
	if got.TotalUnread != 2 {
		t.Errorf("TotalUnread = %d, want 2", got.TotalUnread)
	}
}

func TestAssembleOrphanReplyBecomesRoot(t *testing.T) {
	// Reply to a message that is not in the input must not be dropped.
	msgs := []Message{msg(7, 99, false, 0)}

	threads := Assemble(msgs)
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	if threads[0].ID() != 7 || len(threads[0].Replies) != 0 {
		t.Errorf("orphan should be its own root, got %+v", threads[0])
	}
}

func TestAssembleCycleFailsOpen(t *testing.T) {
	// Malformed input where replies form a cycle must still terminate,
	// keep every message, and ground the thread on a real member rather
	// than a synthesized zero-value root.
	msgs := []Message{msg(1, 2, false, 0), msg(2, 1, false, 1)}

	threads := Assemble(msgs)
	if len(threads) != 1 {
		t.Fatalf("got %d threads, want 1", len(threads))
	}
	th := threads[0]
	if th.Len() != 2 {
		t.Errorf("assembled %d messages, want 2 (never drop data)", th.Len())
	}
	if th.Root.ID != 1 {
		t.Errorf("root id = %d, want smallest cycle member 1", th.Root.ID)
	}
	if th.TotalUnread != 2 {
		t.Errorf("total unread = %d, want 2", th.TotalUnread)
	}
}

func TestAssembleCycleWithTail(t *testing.T) {
	// A chain leading into a cycle joins the cycle's thread; the tail
	// message is not a root candidate.
	msgs := []Message{
		msg(4, 0, true, 3),  // unrelated root
		msg(8, 5, false, 2), // tail replying into the cycle
		msg(5, 6, false, 0), // cycle 5 <-> 6
		msg(6, 5, true, 1),
	}

	threads := Assemble(msgs)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	cycle, ok := findThread(threads, 5)
	if !ok {
		t.Fatalf("no thread rooted at 5: %+v", threads)
	}
	if cycle.Len() != 3 || cycle.TotalUnread != 2 {
		t.Errorf("cycle thread len=%d unread=%d, want 3 and 2", cycle.Len(), cycle.TotalUnread)
	}
}

func findThread(threads []Thread, id int64) (Thread, bool) {
	for _, th := range threads {
		if th.ID() == id {
			return th, true
		}
	}
	return Thread{}, false
}

func TestAssembleIdempotent(t *testing.T) {
	msgs := []Message{
		msg(1, 0, false, 0),
		msg(2, 1, true, 10),
		msg(3, 0, false, 5),
		msg(4, 3, false, 7),
		msg(5, 99, true, 2), // orphan
	}

	first := Assemble(msgs)
	second := Assemble(Flatten(first))

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("reassembly changed groupings (-first +second):\n%s", diff)
	}
}

func TestCountUnreadAggregatesByCategory(t *testing.T) {
	reminder := msg(1, 0, false, 0)
	reminder.Category = CategoryReminder
	reminderReply := msg(2, 1, false, 1)

	question := msg(3, 0, true, 2)
	question.Category = CategoryQuestion
	questionReply := msg(4, 3, false, 3)

	uncategorized := msg(5, 0, false, 4)

	threads := Assemble([]Message{reminder, reminderReply, question, questionReply, uncategorized})
	counts := CountUnread(threads)

	if counts.Total != 4 {
		t.Errorf("Total = %d, want 4", counts.Total)
	}
	// A reply's unread count accrues to the root's category.
	if counts.ByCategory[CategoryReminder] != 2 {
		t.Errorf("Reminder = %d, want 2", counts.ByCategory[CategoryReminder])
	}
	if counts.ByCategory[CategoryQuestion] != 1 {
		t.Errorf("Question = %d, want 1", counts.ByCategory[CategoryQuestion])
	}
	if counts.ByCategory[CategoryNone] != 1 {
		t.Errorf("None = %d, want 1", counts.ByCategory[CategoryNone])
	}
}

func TestCountUnreadIgnoresFullyReadThreads(t *testing.T) {
	threads := Assemble([]Message{msg(1, 0, true, 0), msg(2, 1, true, 1)})
	counts := CountUnread(threads)
	if counts.Total != 0 || len(counts.ByCategory) != 0 {
		t.Errorf("expected empty counts, got %+v", counts)
	}
}
