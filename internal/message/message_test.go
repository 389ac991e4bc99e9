package message

import (
	"testing"
	"time"
)

func ts(min int) time.Time {
	return time.Date(2026, 3, 1, 9, min, 0, 0, time.UTC)
}

func TestAudience(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want Audience
	}{
		{"broadcast", Message{}, AudienceBroadcast},
		{"direct", Message{RecipientID: "t2"}, AudienceDirect},
		{"group", Message{RecipientIDs: []string{"t2", "t3"}}, AudienceGroup},
		{"direct wins when both set", Message{RecipientID: "t2", RecipientIDs: []string{"t3"}}, AudienceDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.msg.Audience(); got != tt.want {
				t.Errorf("Audience() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageCloneIndependence(t *testing.T) {
	m := Message{
		ID:           1,
		RecipientIDs: []string{"a", "b"},
		Reactions:    []Reaction{{TutorID: "a", Emoji: "👍", At: ts(0)}},
		ReadBy:       []ReadReceipt{{TutorID: "a", At: ts(1)}},
		Files:        []Attachment{{ID: 9, Name: "worksheet.pdf"}},
	}

	c := m.Clone()
	c.RecipientIDs[0] = "changed"
	c.Reactions[0].Emoji = "🎉"
	c.ReadBy[0].TutorID = "changed"
	c.Files[0].Name = "changed"

	if m.RecipientIDs[0] != "a" || m.Reactions[0].Emoji != "👍" ||
		m.ReadBy[0].TutorID != "a" || m.Files[0].Name != "worksheet.pdf" {
		t.Error("Clone shares slice storage with the original")
	}
}

func TestThreadRecount(t *testing.T) {
	th := Thread{
		Root: Message{ID: 1, Read: false},
		Replies: []Message{
			{ID: 2, Read: true},
			{ID: 3, Read: false},
		},
	}

	th = th.Recount()
	if th.TotalUnread != 2 {
		t.Errorf("TotalUnread = %d, want 2 (unread root counts)", th.TotalUnread)
	}

	th.Root.Read = true
	th = th.Recount()
	if th.TotalUnread != 1 {
		t.Errorf("TotalUnread after reading root = %d, want 1", th.TotalUnread)
	}
}

func TestThreadLastActivity(t *testing.T) {
	th := Thread{
		Root:    Message{ID: 1, CreatedAt: ts(0)},
		Replies: []Message{{ID: 2, CreatedAt: ts(30)}, {ID: 3, CreatedAt: ts(10)}},
	}
	if got := th.LastActivity(); !got.Equal(ts(30)) {
		t.Errorf("LastActivity() = %v, want %v", got, ts(30))
	}
}

func TestCategoryRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		if got := ParseCategory(c.APIName()); got != c {
			t.Errorf("ParseCategory(%q) = %v, want %v", c.APIName(), got, c)
		}
	}
	if got := ParseCategory("no-such-category"); got != CategoryNone {
		t.Errorf("ParseCategory(unknown) = %v, want CategoryNone", got)
	}
	if CategoryNone.APIName() != "" {
		t.Error("CategoryNone should have no wire name")
	}
}
