// Package config handles loading and managing tutordesk configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// RemoteConfig holds the message API connection settings.
type RemoteConfig struct {
	URL            string `toml:"url"`             // message API base URL
	APIKey         string `toml:"api_key"`         // API authentication key
	AllowInsecure  bool   `toml:"allow_insecure"`  // permit plain http (local testing only)
	TimeoutSeconds int    `toml:"timeout_seconds"` // per-request timeout
	RateLimitQPS   int    `toml:"rate_limit_qps"`  // client-side request rate cap
}

// InboxConfig holds list and revalidation behavior.
type InboxConfig struct {
	OwnerID            string `toml:"owner_id"`            // acting staff user id
	PageSize           int    `toml:"page_size"`           // "load more" growth step
	RevalidateSchedule string `toml:"revalidate_schedule"` // cron expression for background refresh
}

// DraftsConfig holds local draft persistence settings.
type DraftsConfig struct {
	RetentionDays      int `toml:"retention_days"`       // drafts older than this are purged on read
	AutosaveDebounceMS int `toml:"autosave_debounce_ms"` // quiet period before an edit is persisted
}

// NotifyConfig holds notification sink settings.
type NotifyConfig struct {
	Muted bool `toml:"muted"` // suppress new-message notifications
}

type Config struct {
	Data   DataConfig   `toml:"data"`
	Remote RemoteConfig `toml:"remote"`
	Inbox  InboxConfig  `toml:"inbox"`
	Drafts DraftsConfig `toml:"drafts"`
	Notify NotifyConfig `toml:"notify"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DataConfig holds local storage configuration.
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// DefaultHome returns the default tutordesk home directory.
// Respects the TUTORDESK_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("TUTORDESK_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tutordesk"
	}
	return filepath.Join(home, ".tutordesk")
}

// Load reads the configuration from the specified file.
// If path is empty, uses the default location (~/.tutordesk/config.toml).
func Load(path string) (*Config, error) {
	homeDir := DefaultHome()

	explicit := path != ""
	if explicit {
		path = expandPath(path)
		homeDir = filepath.Dir(path)
	} else {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := &Config{
		HomeDir: homeDir,
		// Defaults
		Data: DataConfig{
			DataDir: homeDir,
		},
		Remote: RemoteConfig{
			TimeoutSeconds: 30,
			RateLimitQPS:   5,
		},
		Inbox: InboxConfig{
			PageSize:           20,
			RevalidateSchedule: "@every 1m",
		},
		Drafts: DraftsConfig{
			RetentionDays:      7,
			AutosaveDebounceMS: 800,
		},
	}

	// Config file is optional - use defaults if not present
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Expand ~ in paths
	cfg.Data.DataDir = expandPath(cfg.Data.DataDir)

	return cfg, nil
}

// DraftsDBPath returns the path to the local draft database.
func (c *Config) DraftsDBPath() string {
	return filepath.Join(c.Data.DataDir, "drafts.db")
}

// RemoteTimeout returns the per-request timeout as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.Remote.TimeoutSeconds) * time.Second
}

// DraftRetention returns the draft retention window as a duration.
func (c *Config) DraftRetention() time.Duration {
	return time.Duration(c.Drafts.RetentionDays) * 24 * time.Hour
}

// AutosaveDebounce returns the compose autosave quiet period.
func (c *Config) AutosaveDebounce() time.Duration {
	return time.Duration(c.Drafts.AutosaveDebounceMS) * time.Millisecond
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
