package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kenny1934/tutordesk/internal/message"
	"github.com/kenny1934/tutordesk/internal/testutil"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTP {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL, APIKey: "test-key", AllowInsecure: true})
	testutil.MustNoErr(t, err, "create client")
	return c
}

func TestNewRejectsPlainHTTPByDefault(t *testing.T) {
	_, err := New(Config{URL: "http://csm.example.com"})
	if err == nil || !strings.Contains(err.Error(), "HTTPS required") {
		t.Errorf("expected HTTPS enforcement error, got %v", err)
	}
}

func TestNewValidatesURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"bad scheme", "ftp://example.com"},
		{"no host", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Config{URL: tt.url, AllowInsecure: true}); err == nil {
				t.Errorf("New(%q) should fail", tt.url)
			}
		})
	}
}

func TestFetchMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q", got)
		}
		q := r.URL.Query()
		if q.Get("owner") != "tutor-1" || q.Get("folder") != "inbox" ||
			q.Get("category") != "reminder" || q.Get("q") != "exam" ||
			q.Get("page") != "2" || q.Get("page_size") != "15" {
			t.Errorf("unexpected query: %v", q)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"total_threads": 31,
			"has_more":      true,
			"messages": []map[string]any{{
				"id":         7,
				"sender_id":  "tutor-2",
				"subject":    "Mock exam",
				"body":       "<p>Results attached</p>",
				"category":   "reminder",
				"priority":   "urgent",
				"created_at": "2026-03-01T09:00:00Z",
				"read":       false,
				"reply_to":   3,
				"files":      []map[string]any{{"id": 1, "name": "results.pdf", "url": "/f/1"}},
			}},
		})
	})

	page, err := c.FetchMessages(context.Background(), Filter{
		OwnerID:  "tutor-1",
		Folder:   FolderInbox,
		Category: message.CategoryReminder,
		Query:    "exam",
		Page:     2,
		PageSize: 15,
	})
	testutil.MustNoErr(t, err, "fetch messages")

	if page.Total != 31 || !page.HasMore {
		t.Errorf("pagination meta = %+v", page)
	}
	if len(page.Messages) != 1 {
		t.Fatalf("got %d messages", len(page.Messages))
	}
	m := page.Messages[0]
	if m.ID != 7 || m.Category != message.CategoryReminder ||
		m.Priority != message.PriorityUrgent || m.ReplyTo != 3 || m.Read {
		t.Errorf("decoded message = %+v", m)
	}
	if !m.CreatedAt.Equal(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", m.CreatedAt)
	}
	if len(m.Files) != 1 || m.Files[0].Name != "results.pdf" {
		t.Errorf("Files = %v", m.Files)
	}
}

func TestFetchMessagesSnapshotOmitsPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("page") || q.Has("page_size") {
			t.Errorf("snapshot fetch must not send pagination params: %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{"messages": []any{}})
	})

	_, err := c.FetchMessages(context.Background(), Filter{OwnerID: "tutor-1", Folder: FolderSent})
	testutil.MustNoErr(t, err, "fetch snapshot")
}

func TestFetchUnreadCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/unread" || r.URL.Query().Get("owner") != "tutor-1" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]int{"count": 12})
	})

	n, err := c.FetchUnreadCount(context.Background(), "tutor-1")
	testutil.MustNoErr(t, err, "fetch unread")
	if n != 12 {
		t.Errorf("count = %d, want 12", n)
	}
}

func TestSendEncodesRecipientShape(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 99, "sender_id": "tutor-1", "body": "x", "created_at": "2026-03-01T09:00:00Z"})
	})

	sent, err := c.Send(context.Background(), MessageCreate{
		ToMany:   []string{"tutor-2", "tutor-3"},
		Body:     "<p>x</p>",
		Priority: message.PriorityNormal,
		ReplyTo:  4,
	})
	testutil.MustNoErr(t, err, "send")

	if sent.ID != 99 {
		t.Errorf("sent id = %d", sent.ID)
	}
	if _, hasSingle := body["recipient_id"]; hasSingle {
		t.Error("group send must not carry recipient_id")
	}
	ids, _ := body["recipient_ids"].([]any)
	if len(ids) != 2 {
		t.Errorf("recipient_ids = %v", body["recipient_ids"])
	}
	if body["reply_to"] != float64(4) {
		t.Errorf("reply_to = %v", body["reply_to"])
	}
}

func TestAckEndpoints(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	testutil.MustNoErr(t, c.SetReadState(ctx, 5, false), "set read state")
	if gotPath != "/api/v1/messages/5/read" || gotMethod != http.MethodPut || gotBody["read"] != false {
		t.Errorf("SetReadState sent %s %s %v", gotMethod, gotPath, gotBody)
	}

	testutil.MustNoErr(t, c.React(ctx, 5, "🎉"), "react")
	if gotPath != "/api/v1/messages/5/reactions" || gotBody["emoji"] != "🎉" {
		t.Errorf("React sent %s %v", gotPath, gotBody)
	}

	testutil.MustNoErr(t, c.Archive(ctx, []int64{1, 2}), "archive")
	if gotPath != "/api/v1/threads/archive" {
		t.Errorf("Archive path = %s", gotPath)
	}
	if ids, _ := gotBody["ids"].([]any); len(ids) != 2 {
		t.Errorf("Archive ids = %v", gotBody["ids"])
	}

	testutil.MustNoErr(t, c.Unpin(ctx, []int64{3}), "unpin")
	if gotPath != "/api/v1/threads/unpin" {
		t.Errorf("Unpin path = %s", gotPath)
	}

	testutil.MustNoErr(t, c.Delete(ctx, 9), "delete")
	if gotPath != "/api/v1/threads/9" || gotMethod != http.MethodDelete {
		t.Errorf("Delete sent %s %s", gotMethod, gotPath)
	}
}

func TestErrorResponseSurfacesMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "forbidden", "message": "key revoked"})
	})

	_, err := c.FetchUnreadCount(context.Background(), "tutor-1")
	if err == nil || !strings.Contains(err.Error(), "key revoked") {
		t.Errorf("expected API error message, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestRequestHonorsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"count": 0})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchUnreadCount(ctx, "tutor-1"); err == nil {
		t.Error("cancelled context should fail the request")
	}
}
