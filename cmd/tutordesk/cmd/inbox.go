package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kenny1934/tutordesk/internal/inbox"
	"github.com/kenny1934/tutordesk/internal/notify"
	"github.com/kenny1934/tutordesk/internal/scheduler"
	"github.com/kenny1934/tutordesk/internal/tui"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Open the interactive inbox",
	Long: `Open the interactive terminal inbox.

Views (Tab or 1-4 to switch):
  inbox      paginated conversation list, server-side search and categories
  sent       everything you sent, filtered locally
  archived   archived conversations
  starred    pinned conversations

Actions:
  m/u         mark read / unread
  p/P         pin / unpin
  e           archive (unarchive in the archived view)
  x           delete (with confirmation)
  r, n        reply / new message
  Space, a    select / select all for batch actions
  /           search (from: to: subject: category: is:unread ...)

Changes apply immediately and sync in the background; if the server
rejects one, the local state rolls back and an error is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer client.Close()

		drafts := openDrafts()
		if drafts != nil {
			defer drafts.Close()
		}

		engine := inbox.New(client, inbox.Options{
			OwnerID:  cfg.Inbox.OwnerID,
			PageSize: cfg.Inbox.PageSize,
			Drafts:   drafts,
			Sink:     notify.NewConsole(logger, cfg.Notify.Muted),
			Logger:   logger,
		})

		// Background revalidation keeps optimistic state honest.
		sched := scheduler.New(func(ctx context.Context) error {
			engine.Revalidate(ctx)
			return nil
		}).WithLogger(logger)
		if err := sched.SetSchedule(cfg.Inbox.RevalidateSchedule); err != nil {
			return fmt.Errorf("revalidation schedule: %w", err)
		}
		sched.Start()
		defer func() { <-sched.Stop().Done() }()

		model := tui.New(engine, tui.Options{
			Version:          Version,
			AutosaveDebounce: cfg.AutosaveDebounce(),
		})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run inbox: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inboxCmd)
}
