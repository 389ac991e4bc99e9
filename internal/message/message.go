// Package message defines the staff inbox data model: messages, threads,
// and the pure functions that derive threads and reply recipients from them.
package message

import (
	"sort"
	"time"
)

// Category classifies a message for filtering and badge counts.
type Category int

const (
	CategoryNone Category = iota
	CategoryReminder
	CategoryQuestion
	CategoryAnnouncement
	CategorySchedule
	CategoryChat
	CategoryCourseware
	CategoryMakeupConfirmation
	CategoryFeedback
)

func (c Category) String() string {
	switch c {
	case CategoryReminder:
		return "Reminder"
	case CategoryQuestion:
		return "Question"
	case CategoryAnnouncement:
		return "Announcement"
	case CategorySchedule:
		return "Schedule"
	case CategoryChat:
		return "Chat"
	case CategoryCourseware:
		return "Courseware"
	case CategoryMakeupConfirmation:
		return "Makeup Confirmation"
	case CategoryFeedback:
		return "Feedback"
	default:
		return "None"
	}
}

// Categories lists every real category in display order (excludes CategoryNone).
func Categories() []Category {
	return []Category{
		CategoryReminder,
		CategoryQuestion,
		CategoryAnnouncement,
		CategorySchedule,
		CategoryChat,
		CategoryCourseware,
		CategoryMakeupConfirmation,
		CategoryFeedback,
	}
}

// ParseCategory maps an API category string to a Category.
// Unknown values map to CategoryNone.
func ParseCategory(s string) Category {
	switch s {
	case "reminder":
		return CategoryReminder
	case "question":
		return CategoryQuestion
	case "announcement":
		return CategoryAnnouncement
	case "schedule":
		return CategorySchedule
	case "chat":
		return CategoryChat
	case "courseware":
		return CategoryCourseware
	case "makeup_confirmation":
		return CategoryMakeupConfirmation
	case "feedback":
		return CategoryFeedback
	default:
		return CategoryNone
	}
}

// APIName returns the wire name for a category, or empty for CategoryNone.
func (c Category) APIName() string {
	switch c {
	case CategoryReminder:
		return "reminder"
	case CategoryQuestion:
		return "question"
	case CategoryAnnouncement:
		return "announcement"
	case CategorySchedule:
		return "schedule"
	case CategoryChat:
		return "chat"
	case CategoryCourseware:
		return "courseware"
	case CategoryMakeupConfirmation:
		return "makeup_confirmation"
	case CategoryFeedback:
		return "feedback"
	default:
		return ""
	}
}

// Priority indicates how urgently a message should be surfaced.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return "Normal"
	}
}

// Reaction is an emoji response left on a message by a tutor.
type Reaction struct {
	TutorID string
	Emoji   string
	At      time.Time
}

// ReadReceipt records when a tutor read a message.
type ReadReceipt struct {
	TutorID string
	At      time.Time
}

// Attachment references an uploaded image or file by URL.
type Attachment struct {
	ID   int64
	Name string
	URL  string
	Size int64
}

// Audience describes who a message is addressed to.
type Audience int

const (
	// AudienceBroadcast is a message with no specific recipient,
	// visible to all eligible staff.
	AudienceBroadcast Audience = iota
	AudienceDirect
	AudienceGroup
)

// Message is an immutable-once-sent record as returned by the system of
// record. Read and Pinned are relative to the viewing user. Exactly one of
// {RecipientID, RecipientIDs, neither} is populated; see Audience.
type Message struct {
	ID         int64
	SenderID   string
	SenderName string

	// RecipientID is set for a direct message, RecipientIDs for a group
	// message. Both empty means broadcast.
	RecipientID  string
	RecipientIDs []string

	Subject  string
	Body     string // rich-text markup
	Category Category
	Priority Priority

	CreatedAt time.Time
	EditedAt  time.Time

	Read   bool
	Pinned bool

	Reactions []Reaction
	ReadBy    []ReadReceipt

	Images []Attachment
	Files  []Attachment

	// ReplyTo is the id of the message this replies to, 0 for a root.
	ReplyTo int64
}

// Audience reports whether the message is a broadcast, direct, or group
// message. A direct recipient wins if both fields are (erroneously) set.
func (m Message) Audience() Audience {
	switch {
	case m.RecipientID != "":
		return AudienceDirect
	case len(m.RecipientIDs) > 0:
		return AudienceGroup
	default:
		return AudienceBroadcast
	}
}

// IsRoot reports whether the message starts a thread.
func (m Message) IsRoot() bool { return m.ReplyTo == 0 }

// Clone returns a deep copy. Engine mutations operate copy-on-write, so
// slices must never be shared between snapshot versions.
func (m Message) Clone() Message {
	c := m
	c.RecipientIDs = append([]string(nil), m.RecipientIDs...)
	c.Reactions = append([]Reaction(nil), m.Reactions...)
	c.ReadBy = append([]ReadReceipt(nil), m.ReadBy...)
	c.Images = append([]Attachment(nil), m.Images...)
	c.Files = append([]Attachment(nil), m.Files...)
	return c
}

// Thread is a root message plus its replies in chronological order.
// TotalUnread is derived; callers must recompute it via Recount whenever
// membership or read flags change, never adjust it by hand.
type Thread struct {
	Root        Message
	Replies     []Message
	TotalUnread int
}

// ID returns the thread identity, which is the root message id.
func (t Thread) ID() int64 { return t.Root.ID }

// Messages returns the root followed by the replies.
func (t Thread) Messages() []Message {
	out := make([]Message, 0, 1+len(t.Replies))
	out = append(out, t.Root)
	out = append(out, t.Replies...)
	return out
}

// Len returns the number of messages in the thread, including the root.
func (t Thread) Len() int { return 1 + len(t.Replies) }

// LastActivity returns the newest creation timestamp in the thread.
func (t Thread) LastActivity() time.Time {
	last := t.Root.CreatedAt
	for _, r := range t.Replies {
		if r.CreatedAt.After(last) {
			last = r.CreatedAt
		}
	}
	return last
}

// Recount returns the thread with TotalUnread recomputed from membership.
func (t Thread) Recount() Thread {
	n := 0
	if !t.Root.Read {
		n++
	}
	for _, r := range t.Replies {
		if !r.Read {
			n++
		}
	}
	t.TotalUnread = n
	return t
}

// Clone deep-copies the thread.
func (t Thread) Clone() Thread {
	c := Thread{Root: t.Root.Clone(), TotalUnread: t.TotalUnread}
	if t.Replies != nil {
		c.Replies = make([]Message, len(t.Replies))
		for i, r := range t.Replies {
			c.Replies[i] = r.Clone()
		}
	}
	return c
}

// SortThreads orders threads by most recent activity, newest first.
// Root id breaks ties so the order is deterministic.
func SortThreads(threads []Thread) {
	sort.SliceStable(threads, func(i, j int) bool {
		ai, aj := threads[i].LastActivity(), threads[j].LastActivity()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return threads[i].ID() > threads[j].ID()
	})
}
