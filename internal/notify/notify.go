// Package notify defines the notification sink the inbox engine emits
// unread-delta events to. It is distinct from in-app flash messages.
package notify

import "log/slog"

// Sink accepts notification events. Implementations may drop events when
// the user has muted notifications.
type Sink interface {
	Notify(title, body string)
}

// Console logs notifications through slog. Used by the CLI where no
// desktop notification channel exists.
type Console struct {
	logger *slog.Logger
	muted  bool
}

// NewConsole creates a console sink. A nil logger falls back to
// slog.Default.
func NewConsole(logger *slog.Logger, muted bool) *Console {
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{logger: logger, muted: muted}
}

// Notify implements Sink.
func (c *Console) Notify(title, body string) {
	if c.muted {
		return
	}
	c.logger.Info("notification", "title", title, "body", body)
}

// Discard is a Sink that drops everything.
type Discard struct{}

// Notify implements Sink.
func (Discard) Notify(string, string) {}
