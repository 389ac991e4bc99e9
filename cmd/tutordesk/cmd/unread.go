package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/remote"
)

var unreadByCategory bool

var unreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "Print the unread message count",
	Long: `Print the viewer's total unread message count from the message server.

Useful for shell prompts and status bars:
  tutordesk unread
  tutordesk unread --by-category`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newRemoteClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if !unreadByCategory {
			count, err := client.FetchUnreadCount(cmd.Context(), cfg.Inbox.OwnerID)
			if err != nil {
				return fmt.Errorf("fetch unread count: %w", err)
			}
			fmt.Println(count)
			return nil
		}

		// Categories come from thread membership, so this needs the full
		// inbox snapshot rather than the count endpoint.
		page, err := client.FetchMessages(cmd.Context(), remote.Filter{
			OwnerID: cfg.Inbox.OwnerID,
			Folder:  remote.FolderInbox,
		})
		if err != nil {
			return fmt.Errorf("fetch inbox: %w", err)
		}
		counts := message.CountUnread(message.Assemble(page.Messages))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "total\t%d\n", counts.Total)
		for _, c := range message.Categories() {
			if n := counts.ByCategory[c]; n > 0 {
				fmt.Fprintf(w, "%s\t%d\n", c, n)
			}
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unreadCmd)
	unreadCmd.Flags().BoolVar(&unreadByCategory, "by-category", false, "Break the count down by category")
}
