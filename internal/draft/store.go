// Package draft persists in-progress compose and reply drafts in a local
// SQLite database. Drafts are owned entirely by the client: they are never
// transmitted until send, and they expire after a fixed retention window,
// checked at read time so no background sweeper is needed.
package draft

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/search"
)

// DefaultRetention is how long a saved draft stays loadable.
const DefaultRetention = 7 * 24 * time.Hour

// ComposeKey is the draft key for a fresh compose (not a reply).
const ComposeKey = "compose:new"

// ReplyKey returns the draft key for a reply to the given thread.
func ReplyKey(threadID int64) string {
	return "reply:" + strconv.FormatInt(threadID, 10)
}

// Draft holds the unsent state of the compose form.
type Draft struct {
	To          string               `json:"to,omitempty"`
	ToMany      []string             `json:"to_many,omitempty"`
	Subject     string               `json:"subject,omitempty"`
	Body        string               `json:"body,omitempty"`
	Priority    message.Priority     `json:"priority,omitempty"`
	Category    message.Category     `json:"category,omitempty"`
	Attachments []message.Attachment `json:"attachments,omitempty"`
	SavedAt     time.Time            `json:"saved_at"`
}

// Empty reports whether the draft has no visible body text and no
// attachments. Empty drafts are not worth persisting and must not trigger
// navigation-away confirmation.
func (d Draft) Empty() bool {
	return search.StripMarkup(d.Body) == "" && len(d.Attachments) == 0
}

// Store is a key-value store for drafts. Values are last-write-wins; there
// is no merging of concurrent edits.
type Store struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS drafts (
	key      TEXT PRIMARY KEY,
	payload  TEXT NOT NULL,
	saved_at INTEGER NOT NULL
);
`

const sqliteParams = "?_journal_mode=WAL&_busy_timeout=5000"

// Open opens or creates the draft database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create draft directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open draft database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping draft database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init draft schema: %w", err)
	}

	return &Store{db: db, retention: DefaultRetention, now: time.Now}, nil
}

// WithRetention overrides the retention window. Zero keeps the default.
func (s *Store) WithRetention(d time.Duration) *Store {
	if d > 0 {
		s.retention = d
	}
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the draft under key, replacing any prior value. SavedAt is
// stamped here so expiry is always measured from the last write.
func (s *Store) Save(key string, d Draft) error {
	d.SavedAt = s.now().UTC()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO drafts (key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		key, string(payload), d.SavedAt.Unix())
	if err != nil {
		return fmt.Errorf("save draft %q: %w", key, err)
	}
	return nil
}

// Load returns the draft stored under key, or nil if there is none or it
// has aged past the retention window. Expired drafts are purged on read.
func (s *Store) Load(key string) (*Draft, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load draft %q: %w", key, err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		// A corrupt row is as good as absent; drop it.
		_ = s.Clear(key)
		return nil, nil
	}

	if s.now().UTC().Sub(d.SavedAt) > s.retention {
		_ = s.Clear(key)
		return nil, nil
	}
	return &d, nil
}

// Clear removes the draft under key. Called on successful send or explicit
// discard; clearing a missing key is not an error.
func (s *Store) Clear(key string) error {
	if _, err := s.db.Exec(`DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("clear draft %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored draft key, expired or not, oldest first.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM drafts ORDER BY saved_at`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan draft key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// PurgeExpired deletes every draft older than the retention window and
// returns how many were removed. Expiry is otherwise enforced lazily at
// read time; this exists for the operator CLI.
func (s *Store) PurgeExpired() (int, error) {
	cutoff := s.now().UTC().Add(-s.retention).Unix()
	res, err := s.db.Exec(`DELETE FROM drafts WHERE saved_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
