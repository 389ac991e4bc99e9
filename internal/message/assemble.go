package message

// Assemble groups a flat, unordered collection of messages into threads.
//
// A message belongs to the thread rooted at the message it transitively
// replies to; a message with no reply-to reference is itself a root. A reply
// whose root cannot be found in the input (orphan) is promoted to a root
// rather than dropped. Replies are sorted chronologically within each thread
// and threads by most recent activity. TotalUnread is recomputed from
// membership.
//
// Assembly is pure and cannot fail; assembling the flattened output of a
// previous assembly yields the same groupings.
func Assemble(msgs []Message) []Thread {
	byID := make(map[int64]Message, len(msgs))
	for _, m := range msgs {
		byID[m.ID] = m
	}

	// rootOf resolves the transitive root for a message. A missing parent
	// terminates the walk at the last reachable message, which then acts
	// as the root (fail open). A reply cycle canonicalizes to the smallest
	// id in the cycle so every member resolves to the same root; otherwise
	// the cycle's messages would scatter into groups keyed by ids that are
	// not any member's, leaving threads with a synthesized zero root.
	rootOf := func(m Message) int64 {
		seen := map[int64]bool{m.ID: true}
		path := []int64{m.ID}
		cur := m
		for cur.ReplyTo != 0 {
			parent, ok := byID[cur.ReplyTo]
			if !ok {
				return cur.ID
			}
			if seen[parent.ID] {
				root := parent.ID
				for i := len(path) - 1; i >= 0 && path[i] != parent.ID; i-- {
					if path[i] < root {
						root = path[i]
					}
				}
				return root
			}
			seen[parent.ID] = true
			path = append(path, parent.ID)
			cur = parent
		}
		return cur.ID
	}

	groups := make(map[int64][]Message, len(msgs))
	var order []int64
	for _, m := range msgs {
		root := rootOf(m)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], m)
	}

	threads := make([]Thread, 0, len(order))
	for _, rootID := range order {
		members := groups[rootID]
		t := Thread{}
		for _, m := range members {
			if m.ID == rootID {
				t.Root = m
			} else {
				t.Replies = append(t.Replies, m)
			}
		}
		sortReplies(t.Replies)
		threads = append(threads, t.Recount())
	}

	SortThreads(threads)
	return threads
}

// Flatten returns every message of every thread as a flat slice.
func Flatten(threads []Thread) []Message {
	var out []Message
	for _, t := range threads {
		out = append(out, t.Messages()...)
	}
	return out
}

func sortReplies(replies []Message) {
	// Insertion sort keeps this allocation-free; reply counts are small.
	for i := 1; i < len(replies); i++ {
		for j := i; j > 0 && laterReply(replies[j-1], replies[j]); j-- {
			replies[j-1], replies[j] = replies[j], replies[j-1]
		}
	}
}

func laterReply(a, b Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// UnreadCounts holds the derived unread aggregates used for sidebar badges.
// Total is the synthetic "all" bucket.
type UnreadCounts struct {
	Total      int
	ByCategory map[Category]int
}

// CountUnread accumulates per-thread unread counts into per-category buckets.
// It must be fed the unfiltered thread collection so badge counts stay
// independent of whatever filter the list is currently showing.
func CountUnread(threads []Thread) UnreadCounts {
	c := UnreadCounts{ByCategory: make(map[Category]int)}
	for _, t := range threads {
		if t.TotalUnread == 0 {
			continue
		}
		c.Total += t.TotalUnread
		c.ByCategory[t.Root.Category] += t.TotalUnread
	}
	return c
}
