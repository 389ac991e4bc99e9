package search

import (
	"strings"

	"github.com/kenny1934/tutordesk/internal/message"
)

// MatchMessage reports whether a single message satisfies the query.
// All criteria are ANDed; text terms match subject, sender name/id, or the
// markup-stripped body, case-insensitively.
func MatchMessage(q *Query, m message.Message) bool {
	if q == nil || q.IsEmpty() {
		return true
	}

	if q.Category != nil && m.Category != *q.Category {
		return false
	}
	if q.Priority != nil && m.Priority != *q.Priority {
		return false
	}
	if q.HasAttachment != nil && *q.HasAttachment && len(m.Images)+len(m.Files) == 0 {
		return false
	}
	if q.Unread != nil && m.Read == *q.Unread {
		return false
	}
	if q.BeforeDate != nil && !m.CreatedAt.Before(*q.BeforeDate) {
		return false
	}
	if q.AfterDate != nil && m.CreatedAt.Before(*q.AfterDate) {
		return false
	}

	for _, f := range q.FromIDs {
		if !containsFold(m.SenderID, f) && !containsFold(m.SenderName, f) {
			return false
		}
	}
	for _, to := range q.ToIDs {
		if !matchRecipient(m, to) {
			return false
		}
	}
	for _, term := range q.SubjectTerms {
		if !containsFold(m.Subject, term) {
			return false
		}
	}

	if len(q.TextTerms) > 0 {
		haystack := strings.ToLower(
			m.Subject + " " + m.SenderName + " " + m.SenderID + " " + StripMarkup(m.Body))
		for _, term := range q.TextTerms {
			if !strings.Contains(haystack, strings.ToLower(term)) {
				return false
			}
		}
	}

	return true
}

// MatchThread reports whether any message in the thread satisfies the query.
func MatchThread(q *Query, t message.Thread) bool {
	if q == nil || q.IsEmpty() {
		return true
	}
	for _, m := range t.Messages() {
		if MatchMessage(q, m) {
			return true
		}
	}
	return false
}

// FilterThreads returns the threads with at least one matching message,
// preserving order.
func FilterThreads(q *Query, threads []message.Thread) []message.Thread {
	if q == nil || q.IsEmpty() {
		return threads
	}
	out := make([]message.Thread, 0, len(threads))
	for _, t := range threads {
		if MatchThread(q, t) {
			out = append(out, t)
		}
	}
	return out
}

func matchRecipient(m message.Message, needle string) bool {
	if containsFold(m.RecipientID, needle) && m.RecipientID != "" {
		return true
	}
	for _, id := range m.RecipientIDs {
		if containsFold(id, needle) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
