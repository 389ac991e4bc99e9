package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var draftsPurge bool

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List saved compose drafts",
	Long: `List drafts saved from the compose screen.

Drafts expire after the retention window ([drafts].retention_days,
default 7). Expired drafts are normally dropped when they are next
opened; --purge removes them eagerly instead.

Examples:
  tutordesk drafts
  tutordesk drafts --purge`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := draftStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if draftsPurge {
			n, err := store.PurgeExpired()
			if err != nil {
				return fmt.Errorf("purge drafts: %w", err)
			}
			fmt.Printf("%d expired draft(s) removed\n", n)
			return nil
		}

		keys, err := store.Keys()
		if err != nil {
			return fmt.Errorf("list drafts: %w", err)
		}
		if len(keys) == 0 {
			fmt.Println("No drafts saved.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tSUBJECT\tSAVED")
		for _, key := range keys {
			d, err := store.Load(key)
			if err != nil {
				return fmt.Errorf("load draft %q: %w", key, err)
			}
			if d == nil {
				// Expired between Keys and Load; Load already dropped it.
				continue
			}
			subject := d.Subject
			if subject == "" {
				subject = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", key, subject, d.SavedAt.Local().Format("2006-01-02 15:04"))
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(draftsCmd)
	draftsCmd.Flags().BoolVar(&draftsPurge, "purge", false, "Remove drafts past the retention window")
}
