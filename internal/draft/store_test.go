package draft

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "drafts.db"))
	testutil.MustNoErr(t, err, "open draft store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	d := Draft{
		To:       "tutor-2",
		Subject:  "Makeup lesson",
		Body:     "<p>Can we move to Friday?</p>",
		Priority: message.PriorityHigh,
		Category: message.CategorySchedule,
	}
	testutil.MustNoErr(t, s.Save(ReplyKey(42), d), "save draft")

	got, err := s.Load(ReplyKey(42))
	testutil.MustNoErr(t, err, "load draft")
	if got == nil {
		t.Fatal("expected a draft, got nil")
	}
	if diff := cmp.Diff(d, *got, cmpopts.IgnoreFields(Draft{}, "SavedAt")); diff != "" {
		t.Errorf("draft round-trip mismatch (-want +got):\n%s", diff)
	}
	if got.SavedAt.IsZero() {
		t.Error("SavedAt should be stamped on save")
	}
}

func TestLoadMissingKey(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Load(ComposeKey)
	testutil.MustNoErr(t, err, "load")
	if got != nil {
		t.Errorf("expected nil for missing key, got %+v", got)
	}
}

func TestSaveOverwritesLastWriteWins(t *testing.T) {
	s := openTestStore(t)
	testutil.MustNoErr(t, s.Save(ComposeKey, Draft{Body: "first"}), "save")
	testutil.MustNoErr(t, s.Save(ComposeKey, Draft{Body: "second"}), "save")

	got, err := s.Load(ComposeKey)
	testutil.MustNoErr(t, err, "load")
	if got == nil || got.Body != "second" {
		t.Errorf("expected last write to win, got %+v", got)
	}
}

func TestLoadExpiredDraftPurges(t *testing.T) {
	s := openTestStore(t)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	testutil.MustNoErr(t, s.Save(ComposeKey, Draft{Body: "stale"}), "save")

	// Just inside the window it still loads.
	s.now = func() time.Time { return now.Add(DefaultRetention) }
	got, err := s.Load(ComposeKey)
	testutil.MustNoErr(t, err, "load at window edge")
	if got == nil {
		t.Fatal("draft at exactly the retention window should still load")
	}

	// Past the window it is gone, and the row is purged.
	s.now = func() time.Time { return now.Add(DefaultRetention + time.Second) }
	got, err = s.Load(ComposeKey)
	testutil.MustNoErr(t, err, "load after expiry")
	if got != nil {
		t.Fatalf("expired draft should not load, got %+v", got)
	}

	keys, err := s.Keys()
	testutil.MustNoErr(t, err, "keys")
	if len(keys) != 0 {
		t.Errorf("expired draft should be purged on read, keys = %v", keys)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	testutil.MustNoErr(t, s.Save(ComposeKey, Draft{Body: "x"}), "save")
	testutil.MustNoErr(t, s.Clear(ComposeKey), "clear")

	got, err := s.Load(ComposeKey)
	testutil.MustNoErr(t, err, "load")
	if got != nil {
		t.Error("cleared draft should not load")
	}

	// Clearing again is not an error.
	testutil.MustNoErr(t, s.Clear(ComposeKey), "clear missing")
}

func TestPurgeExpired(t *testing.T) {
	s := openTestStore(t)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	testutil.MustNoErr(t, s.Save("reply:1", Draft{Body: "old"}), "save")

	s.now = func() time.Time { return now.Add(DefaultRetention + time.Hour) }
	testutil.MustNoErr(t, s.Save("reply:2", Draft{Body: "fresh"}), "save")

	n, err := s.PurgeExpired()
	testutil.MustNoErr(t, err, "purge")
	if n != 1 {
		t.Errorf("purged %d drafts, want 1", n)
	}

	keys, err := s.Keys()
	testutil.MustNoErr(t, err, "keys")
	testutil.AssertStrings(t, keys, "reply:2")
}

func TestDraftEmpty(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
		want  bool
	}{
		{"zero value", Draft{}, true},
		{"markup only", Draft{Body: "<p> </p>"}, true},
		{"visible text", Draft{Body: "<p>hi</p>"}, false},
		{"attachment only", Draft{Attachments: []message.Attachment{{ID: 1}}}, false},
		{"recipient but no content", Draft{To: "tutor-2"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.draft.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReplyKey(t *testing.T) {
	if got := ReplyKey(37); got != "reply:37" {
		t.Errorf("ReplyKey(37) = %q", got)
	}
}
