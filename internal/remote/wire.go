package remote

import (
	"time"

	"github.com/kenny1934/tutordesk/internal/message"
)

// messagesResponse matches the API message list response format.
type messagesResponse struct {
	Messages     []messageJSON `json:"messages"`
	TotalThreads int           `json:"total_threads"`
	HasMore      bool          `json:"has_more"`
}

// messageJSON represents a message record in JSON format.
type messageJSON struct {
	ID           int64            `json:"id"`
	SenderID     string           `json:"sender_id"`
	SenderName   string           `json:"sender_name,omitempty"`
	RecipientID  string           `json:"recipient_id,omitempty"`
	RecipientIDs []string         `json:"recipient_ids,omitempty"`
	Subject      string           `json:"subject,omitempty"`
	Body         string           `json:"body"`
	Category     string           `json:"category,omitempty"`
	Priority     string           `json:"priority,omitempty"`
	CreatedAt    string           `json:"created_at"`
	EditedAt     string           `json:"edited_at,omitempty"`
	Read         bool             `json:"read"`
	Pinned       bool             `json:"pinned"`
	Reactions    []reactionJSON   `json:"reactions,omitempty"`
	ReadBy       []readerJSON     `json:"read_by,omitempty"`
	Images       []attachmentJSON `json:"images,omitempty"`
	Files        []attachmentJSON `json:"files,omitempty"`
	ReplyTo      int64            `json:"reply_to,omitempty"`
}

type reactionJSON struct {
	TutorID string `json:"tutor_id"`
	Emoji   string `json:"emoji"`
	At      string `json:"at"`
}

type readerJSON struct {
	TutorID string `json:"tutor_id"`
	At      string `json:"at"`
}

type attachmentJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// messageCreateJSON is the send payload. Exactly one recipient shape is
// populated; a broadcast sends neither.
type messageCreateJSON struct {
	RecipientID  string           `json:"recipient_id,omitempty"`
	RecipientIDs []string         `json:"recipient_ids,omitempty"`
	Subject      string           `json:"subject,omitempty"`
	Body         string           `json:"body"`
	Category     string           `json:"category,omitempty"`
	Priority     string           `json:"priority,omitempty"`
	ReplyTo      int64            `json:"reply_to,omitempty"`
	Images       []attachmentJSON `json:"images,omitempty"`
	Files        []attachmentJSON `json:"files,omitempty"`
}

// parseTime parses an RFC3339 time string, tolerating absence.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parsePriority(s string) message.Priority {
	switch s {
	case "high":
		return message.PriorityHigh
	case "urgent":
		return message.PriorityUrgent
	default:
		return message.PriorityNormal
	}
}

func priorityName(p message.Priority) string {
	switch p {
	case message.PriorityHigh:
		return "high"
	case message.PriorityUrgent:
		return "urgent"
	default:
		return "normal"
	}
}

// toMessage converts a wire record to the domain model.
func toMessage(mj messageJSON) message.Message {
	m := message.Message{
		ID:           mj.ID,
		SenderID:     mj.SenderID,
		SenderName:   mj.SenderName,
		RecipientID:  mj.RecipientID,
		RecipientIDs: mj.RecipientIDs,
		Subject:      mj.Subject,
		Body:         mj.Body,
		Category:     message.ParseCategory(mj.Category),
		Priority:     parsePriority(mj.Priority),
		CreatedAt:    parseTime(mj.CreatedAt),
		EditedAt:     parseTime(mj.EditedAt),
		Read:         mj.Read,
		Pinned:       mj.Pinned,
		ReplyTo:      mj.ReplyTo,
	}
	for _, r := range mj.Reactions {
		m.Reactions = append(m.Reactions, message.Reaction{
			TutorID: r.TutorID, Emoji: r.Emoji, At: parseTime(r.At),
		})
	}
	for _, r := range mj.ReadBy {
		m.ReadBy = append(m.ReadBy, message.ReadReceipt{TutorID: r.TutorID, At: parseTime(r.At)})
	}
	m.Images = toAttachments(mj.Images)
	m.Files = toAttachments(mj.Files)
	return m
}

func toAttachments(ajs []attachmentJSON) []message.Attachment {
	if len(ajs) == 0 {
		return nil
	}
	out := make([]message.Attachment, len(ajs))
	for i, a := range ajs {
		out[i] = message.Attachment{ID: a.ID, Name: a.Name, URL: a.URL, Size: a.Size}
	}
	return out
}

func fromAttachments(atts []message.Attachment) []attachmentJSON {
	if len(atts) == 0 {
		return nil
	}
	out := make([]attachmentJSON, len(atts))
	for i, a := range atts {
		out[i] = attachmentJSON{ID: a.ID, Name: a.Name, URL: a.URL, Size: a.Size}
	}
	return out
}

func toCreateJSON(mc MessageCreate) messageCreateJSON {
	return messageCreateJSON{
		RecipientID:  mc.To,
		RecipientIDs: mc.ToMany,
		Subject:      mc.Subject,
		Body:         mc.Body,
		Category:     mc.Category.APIName(),
		Priority:     priorityName(mc.Priority),
		ReplyTo:      mc.ReplyTo,
		Images:       fromAttachments(mc.Images),
		Files:        fromAttachments(mc.Files),
	}
}
