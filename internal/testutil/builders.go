package testutil

import (
	"time"

	"github.com/kenny1934/tutordesk/internal/message"
)

// BaseTime is the fixed reference time used by the builders.
var BaseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// MessageBuilder constructs message records with sensible defaults.
type MessageBuilder struct {
	msg message.Message
}

// NewMessage starts a builder for a root message with the given id.
func NewMessage(id int64) *MessageBuilder {
	return &MessageBuilder{msg: message.Message{
		ID:        id,
		SenderID:  "tutor-1",
		Subject:   "Lesson follow-up",
		Body:      "<p>See attached notes.</p>",
		CreatedAt: BaseTime.Add(time.Duration(id) * time.Minute),
		Read:      true,
	}}
}

// ReplyTo marks the message as a reply to the given root id.
func (b *MessageBuilder) ReplyTo(rootID int64) *MessageBuilder {
	b.msg.ReplyTo = rootID
	return b
}

// From sets the sender id.
func (b *MessageBuilder) From(senderID string) *MessageBuilder {
	b.msg.SenderID = senderID
	return b
}

// To sets a single recipient.
func (b *MessageBuilder) To(recipientID string) *MessageBuilder {
	b.msg.RecipientID = recipientID
	return b
}

// ToGroup sets a group recipient set.
func (b *MessageBuilder) ToGroup(ids ...string) *MessageBuilder {
	b.msg.RecipientIDs = ids
	return b
}

// Subject sets the subject line.
func (b *MessageBuilder) Subject(s string) *MessageBuilder {
	b.msg.Subject = s
	return b
}

// Category sets the message category.
func (b *MessageBuilder) Category(c message.Category) *MessageBuilder {
	b.msg.Category = c
	return b
}

// Unread marks the message unread for the viewing user.
func (b *MessageBuilder) Unread() *MessageBuilder {
	b.msg.Read = false
	return b
}

// Pinned marks the message pinned for the viewing user.
func (b *MessageBuilder) Pinned() *MessageBuilder {
	b.msg.Pinned = true
	return b
}

// At sets the creation timestamp as an offset from BaseTime.
func (b *MessageBuilder) At(offset time.Duration) *MessageBuilder {
	b.msg.CreatedAt = BaseTime.Add(offset)
	return b
}

// Build returns the message.
func (b *MessageBuilder) Build() message.Message {
	return b.msg
}

// Thread assembles the given messages and returns the single resulting
// thread. It panics if the messages do not form exactly one thread; tests
// that need that case should call message.Assemble directly.
func Thread(msgs ...message.Message) message.Thread {
	threads := message.Assemble(msgs)
	if len(threads) != 1 {
		panic("testutil.Thread: messages form more than one thread")
	}
	return threads[0]
}
