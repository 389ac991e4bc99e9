package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TUTORDESK_HOME", tmpDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.Inbox.PageSize != 20 {
		t.Errorf("Inbox.PageSize = %d, want 20", cfg.Inbox.PageSize)
	}
	if cfg.Inbox.RevalidateSchedule != "@every 1m" {
		t.Errorf("Inbox.RevalidateSchedule = %q, want '@every 1m'", cfg.Inbox.RevalidateSchedule)
	}
	if cfg.Drafts.RetentionDays != 7 {
		t.Errorf("Drafts.RetentionDays = %d, want 7", cfg.Drafts.RetentionDays)
	}
	if cfg.Remote.RateLimitQPS != 5 {
		t.Errorf("Remote.RateLimitQPS = %d, want 5", cfg.Remote.RateLimitQPS)
	}
	if cfg.Notify.Muted {
		t.Error("Notify.Muted = true, want false")
	}

	expectedDB := filepath.Join(tmpDir, "drafts.db")
	if cfg.DraftsDBPath() != expectedDB {
		t.Errorf("DraftsDBPath() = %q, want %q", cfg.DraftsDBPath(), expectedDB)
	}
}

func TestLoadWithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TUTORDESK_HOME", tmpDir)

	configContent := `
[remote]
url = "https://messages.example.com"
api_key = "test-secret-key"
timeout_seconds = 10
rate_limit_qps = 2

[inbox]
owner_id = "tutor-7"
page_size = 50

[drafts]
retention_days = 3
autosave_debounce_ms = 400

[notify]
muted = true
`
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Remote.URL != "https://messages.example.com" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Remote.APIKey != "test-secret-key" {
		t.Errorf("Remote.APIKey = %q, want test-secret-key", cfg.Remote.APIKey)
	}
	if cfg.RemoteTimeout() != 10*time.Second {
		t.Errorf("RemoteTimeout() = %v, want 10s", cfg.RemoteTimeout())
	}
	if cfg.Inbox.OwnerID != "tutor-7" {
		t.Errorf("Inbox.OwnerID = %q, want tutor-7", cfg.Inbox.OwnerID)
	}
	if cfg.Inbox.PageSize != 50 {
		t.Errorf("Inbox.PageSize = %d, want 50", cfg.Inbox.PageSize)
	}
	if cfg.DraftRetention() != 3*24*time.Hour {
		t.Errorf("DraftRetention() = %v, want 72h", cfg.DraftRetention())
	}
	if cfg.AutosaveDebounce() != 400*time.Millisecond {
		t.Errorf("AutosaveDebounce() = %v, want 400ms", cfg.AutosaveDebounce())
	}
	if !cfg.Notify.Muted {
		t.Error("Notify.Muted = false, want true")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("TUTORDESK_HOME", tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[remote]\nurl = \"https://x.example.com\"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Inbox.PageSize != 20 {
		t.Errorf("Inbox.PageSize = %d, want default 20", cfg.Inbox.PageSize)
	}
	if cfg.Remote.TimeoutSeconds != 30 {
		t.Errorf("Remote.TimeoutSeconds = %d, want default 30", cfg.Remote.TimeoutSeconds)
	}
}

func TestLoadExplicitPathNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("Load with explicit nonexistent path should return error")
	}
	if got := err.Error(); !strings.Contains(got, "config file not found") {
		t.Errorf("error = %q, want it to contain %q", got, "config file not found")
	}
}

func TestLoadExplicitPathDerivedHomeDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[inbox]\npage_size = 5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", configPath, err)
	}
	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.Data.DataDir != tmpDir {
		t.Errorf("Data.DataDir = %q, want %q", cfg.Data.DataDir, tmpDir)
	}
	if cfg.Inbox.PageSize != 5 {
		t.Errorf("Inbox.PageSize = %d, want 5", cfg.Inbox.PageSize)
	}
}

func TestDefaultHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	t.Setenv("TUTORDESK_HOME", "~/.tutordesk")
	got := DefaultHome()
	expected := filepath.Join(home, ".tutordesk")
	if got != expected {
		t.Errorf("DefaultHome() = %q, want %q", got, expected)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"just tilde", "~", home},
		{"tilde with path", "~/foo", filepath.Join(home, "foo")},
		{"relative path unchanged", "relative/path", "relative/path"},
		{"tilde in middle not expanded", "/home/~user/foo", "/home/~user/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
