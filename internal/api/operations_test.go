package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestOperationEndpoints(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var lastPath, lastQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastPath = r.URL.Path
		lastQuery = r.URL.RawQuery
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	ctx := context.Background()

	tests := []struct {
		name      string
		call      func() error
		wantPath  string
		wantQuery string
	}{
		{"me", func() error { _, err := c.Me(ctx); return err }, "/me", ""},
		{"workspaces", func() error { _, err := c.Workspaces(ctx); return err }, "/workspaces", ""},
		{"channels", func() error { _, err := c.Channels(ctx, "ws-1"); return err }, "/workspaces/ws-1/channels", ""},
		{"threads", func() error { _, err := c.Threads(ctx, "ch-9", 10); return err }, "/channels/ch-9/threads", "limit=10"},
		{"threads default limit", func() error { _, err := c.Threads(ctx, "ch-9", 0); return err }, "/channels/ch-9/threads", "limit=25"},
		{"thread", func() error { _, err := c.Thread(ctx, "th-3"); return err }, "/threads/th-3", ""},
		{"comments", func() error { _, err := c.Comments(ctx, "th-3"); return err }, "/threads/th-3/comments", ""},
		{"inbox", func() error { _, err := c.Inbox(ctx, 5); return err }, "/inbox", "limit=5"},
		{"notifications", func() error { _, err := c.Notifications(ctx); return err }, "/notifications", ""},
		{"search", func() error { _, err := c.Search(ctx, "deploy plan", 7); return err }, "/search", "limit=7&q=deploy+plan"},
	}

	for _, tt := range tests {
		if err := tt.call(); err != nil {
			t.Fatalf("%s returned error: %v", tt.name, err)
		}
		mu.Lock()
		gotPath, gotQuery := lastPath, lastQuery
		mu.Unlock()
		if gotPath != tt.wantPath {
			t.Errorf("%s path = %q, want %q", tt.name, gotPath, tt.wantPath)
		}
		if gotQuery != tt.wantQuery {
			t.Errorf("%s query = %q, want %q", tt.name, gotQuery, tt.wantQuery)
		}
	}
}

func TestWorkspacesParsing(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"workspaces":[
			{"id":"ws-1","slug":"acme","name":"Acme Inc","role":"admin","member_count":42},
			{"id":"ws-2","slug":"side","name":"Side Project","role":"member","member_count":3}
		]}`))
	}))
	defer ts.Close()

	workspaces, err := newTestClient(ts).Workspaces(context.Background())
	if err != nil {
		t.Fatalf("Workspaces returned error: %v", err)
	}
	if len(workspaces) != 2 {
		t.Fatalf("got %d workspaces, want 2", len(workspaces))
	}
	if workspaces[0].Slug != "acme" || workspaces[0].Role != "admin" || workspaces[0].Members != 42 {
		t.Errorf("first workspace = %+v, want acme/admin/42", workspaces[0])
	}
	if workspaces[1].Name != "Side Project" {
		t.Errorf("second workspace name = %q, want %q", workspaces[1].Name, "Side Project")
	}
}

func TestCommentsParsingWithReactions(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"comments":[
			{"id":"cm-1","thread_id":"th-1","author":{"id":"u-1","handle":"ada"},
			 "body":"Shipped it.","created_at":"2026-08-20T09:30:00Z","edited":true,
			 "reactions":[{"emoji":"🎉","count":3},{"emoji":"👍","count":1}]}
		]}`))
	}))
	defer ts.Close()

	comments, err := newTestClient(ts).Comments(context.Background(), "th-1")
	if err != nil {
		t.Fatalf("Comments returned error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1", len(comments))
	}
	comment := comments[0]
	if comment.Author.Handle != "ada" {
		t.Errorf("author handle = %q, want %q", comment.Author.Handle, "ada")
	}
	if !comment.Edited {
		t.Error("expected edited flag to be set")
	}
	if comment.CreatedAt.IsZero() {
		t.Error("created_at was not parsed")
	}
	if len(comment.Reactions) != 2 || comment.Reactions[0].Emoji != "🎉" || comment.Reactions[0].Count != 3 {
		t.Errorf("reactions = %+v, want the tallied emoji list", comment.Reactions)
	}
}

func TestAddCommentPostsBody(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		buf, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		if got := gjson.GetBytes(buf, "body").String(); got != "on my way" {
			t.Errorf("posted body = %q, want %q", got, "on my way")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"cm-9","thread_id":"th-1","body":"on my way","author":{"handle":"ada"}}`))
	}))
	defer ts.Close()

	comment, err := newTestClient(ts).AddComment(context.Background(), "th-1", "on my way")
	if err != nil {
		t.Fatalf("AddComment returned error: %v", err)
	}
	if comment.ID != "cm-9" {
		t.Errorf("comment ID = %q, want %q", comment.ID, "cm-9")
	}
	if comment.Body != "on my way" {
		t.Errorf("comment body = %q, want it echoed back", comment.Body)
	}
}

func TestRecentThreadsMergesAndSorts(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/ws-1/channels", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"channels":[
			{"id":"ch-1","name":"general"},
			{"id":"ch-2","name":"deploys"},
			{"id":"ch-3","name":"random"}
		]}`))
	})
	mux.HandleFunc("/channels/ch-1/threads", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threads":[
			{"id":"th-1","channel_name":"general","title":"Standup notes","updated_at":"2026-08-20T10:00:00Z"},
			{"id":"th-2","channel_name":"general","title":"Offsite","updated_at":"2026-08-18T10:00:00Z"}
		]}`))
	})
	mux.HandleFunc("/channels/ch-2/threads", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threads":[
			{"id":"th-3","title":"Release 4.2","updated_at":"2026-08-21T10:00:00Z"}
		]}`))
	})
	mux.HandleFunc("/channels/ch-3/threads", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threads":[
			{"id":"th-4","channel_name":"random","title":"Lunch spots","updated_at":"2026-08-19T10:00:00Z"}
		]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	threads, err := newTestClient(ts).RecentThreads(context.Background(), "ws-1", 10)
	if err != nil {
		t.Fatalf("RecentThreads returned error: %v", err)
	}

	wantOrder := []string{"th-3", "th-1", "th-4", "th-2"}
	if len(threads) != len(wantOrder) {
		t.Fatalf("got %d threads, want %d", len(threads), len(wantOrder))
	}
	for i, want := range wantOrder {
		if threads[i].ID != want {
			t.Errorf("threads[%d] = %q, want %q (newest first)", i, threads[i].ID, want)
		}
	}

	// th-3 carried no channel_name; the fan-out must fill it in.
	if threads[0].ChannelName != "deploys" {
		t.Errorf("filled channel name = %q, want %q", threads[0].ChannelName, "deploys")
	}

	limited, err := newTestClient(ts).RecentThreads(context.Background(), "ws-1", 2)
	if err != nil {
		t.Fatalf("RecentThreads returned error: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "th-3" || limited[1].ID != "th-1" {
		t.Errorf("limited threads = %+v, want the two newest", limited)
	}
}

func TestRecentThreadsPropagatesChannelFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/workspaces/ws-1/channels", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"channels":[{"id":"ch-1","name":"general"},{"id":"ch-2","name":"deploys"}]}`))
	})
	mux.HandleFunc("/channels/ch-1/threads", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"threads":[]}`))
	})
	mux.HandleFunc("/channels/ch-2/threads", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"internal","message":"shard down"}}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	_, err := newTestClient(ts).RecentThreads(context.Background(), "ws-1", 10)
	if err == nil {
		t.Fatal("expected channel failure to propagate")
	}
}

func TestThreadParsesTimestamps(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"th-1","channel_id":"ch-1","title":"Standup notes",
			"author":{"handle":"ada","display_name":"Ada"},
			"created_at":"2026-08-17T08:00:00Z","updated_at":"2026-08-20T10:00:00Z",
			"comment_count":12,"unread_count":2}`))
	}))
	defer ts.Close()

	thread, err := newTestClient(ts).Thread(context.Background(), "th-1")
	if err != nil {
		t.Fatalf("Thread returned error: %v", err)
	}
	wantUpdated := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	if !thread.UpdatedAt.Equal(wantUpdated) {
		t.Errorf("updated_at = %v, want %v", thread.UpdatedAt, wantUpdated)
	}
	if thread.CommentCount != 12 || thread.Unread != 2 {
		t.Errorf("counts = %d/%d, want 12/2", thread.CommentCount, thread.Unread)
	}
	if thread.Author.DisplayName != "Ada" {
		t.Errorf("author = %+v, want display name Ada", thread.Author)
	}
}
