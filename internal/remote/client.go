// Package remote provides the HTTP client for the tutoring center's message
// API, the system of record for all messages and threads. The inbox engine
// treats every operation here as idempotent on retry except Send.
package remote

import (
	"context"

	"github.com/kenny1934/tutordesk/internal/message"
)

// Folder identifies a server-side message partition.
type Folder string

const (
	FolderInbox    Folder = "inbox"
	FolderSent     Folder = "sent"
	FolderArchived Folder = "archived"
	FolderStarred  Folder = "starred"
)

// Filter selects which messages to fetch. Page 0 requests the entire
// folder unpaginated (snapshot mode); pages are 1-based otherwise.
type Filter struct {
	OwnerID  string
	Folder   Folder
	Category message.Category // CategoryNone means no category filter
	Query    string           // server-side full-text query
	Page     int
	PageSize int
}

// Page is one window of raw message records plus pagination state. Total
// counts threads, not messages, so "N conversations" renders correctly.
type Page struct {
	Messages []message.Message
	Total    int
	HasMore  bool
}

// MessageCreate is the payload for sending a new message or reply.
type MessageCreate struct {
	To       string
	ToMany   []string
	Subject  string
	Body     string
	Category message.Category
	Priority message.Priority
	ReplyTo  int64
	Images   []message.Attachment
	Files    []message.Attachment
}

// Client is the boundary to the message system of record.
type Client interface {
	// FetchMessages returns raw message records for the filter; the caller
	// assembles them into threads.
	FetchMessages(ctx context.Context, f Filter) (*Page, error)

	// FetchUnreadCount returns the viewer's total unread message count.
	FetchUnreadCount(ctx context.Context, ownerID string) (int, error)

	// Send creates a message and returns the stored record.
	Send(ctx context.Context, mc MessageCreate) (*message.Message, error)

	// SetReadState marks a single message read or unread for the viewer.
	SetReadState(ctx context.Context, messageID int64, read bool) error

	// React toggles the viewer's emoji reaction on a message.
	React(ctx context.Context, messageID int64, emoji string) error

	// Archive and friends operate on whole threads, identified by root id.
	// Each accepts a batch and succeeds or fails as a unit.
	Archive(ctx context.Context, threadIDs []int64) error
	Unarchive(ctx context.Context, threadIDs []int64) error
	Pin(ctx context.Context, threadIDs []int64) error
	Unpin(ctx context.Context, threadIDs []int64) error

	// Delete removes a thread root and its replies.
	Delete(ctx context.Context, threadID int64) error

	Close() error
}
