package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kenny1934/tutordesk/internal/config"
	"github.com/kenny1934/tutordesk/internal/draft"
	"github.com/kenny1934/tutordesk/internal/remote"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tutordesk",
	Short: "Staff inbox for the tutoring center",
	Long: `tutordesk is the staff-side console for the tutoring center's internal
messaging system: threaded conversations, drafts, categories, and
optimistic read/pin/archive state kept in sync with the message server.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		// Set up logging
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if err := os.MkdirAll(cfg.Data.DataDir, 0o700); err != nil {
			return fmt.Errorf("create data directory %s: %w", cfg.Data.DataDir, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.tutordesk/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with a background context.
// Prefer ExecuteContext for signal-aware execution.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with the given context,
// enabling graceful shutdown when the context is cancelled.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newRemoteClient builds the message API client from config.
func newRemoteClient() (*remote.HTTP, error) {
	if cfg.Remote.URL == "" {
		return nil, fmt.Errorf("no message server configured; set [remote] url in %s", cfg.HomeDir+"/config.toml")
	}
	return remote.New(remote.Config{
		URL:           cfg.Remote.URL,
		APIKey:        cfg.Remote.APIKey,
		AllowInsecure: cfg.Remote.AllowInsecure,
		Timeout:       cfg.RemoteTimeout(),
		RateQPS:       cfg.Remote.RateLimitQPS,
	})
}

// draftStore opens the draft store for commands that cannot run without it.
func draftStore() (*draft.Store, error) {
	store, err := draft.Open(cfg.DraftsDBPath())
	if err != nil {
		return nil, fmt.Errorf("open draft store: %w", err)
	}
	if cfg.Drafts.RetentionDays > 0 {
		store.WithRetention(time.Duration(cfg.Drafts.RetentionDays) * 24 * time.Hour)
	}
	return store, nil
}

// openDrafts opens the local draft store, degrading to nil when storage is
// unavailable so compose still works without persistence.
func openDrafts() *draft.Store {
	store, err := draft.Open(cfg.DraftsDBPath())
	if err != nil {
		logger.Warn("draft storage unavailable, continuing without persistence", "error", err)
		return nil
	}
	if cfg.Drafts.RetentionDays > 0 {
		store.WithRetention(time.Duration(cfg.Drafts.RetentionDays) * 24 * time.Hour)
	}
	return store
}
