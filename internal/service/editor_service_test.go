package service

import (
	"strings"
	"testing"
	"time"

	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/editorstate"
	"github.com/draftsync/internal/revision"
)

func TestEditorService_NewDraftOffersPublish(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	posts := NewPostService(gdb, nil)
	users := NewUserService(gdb)
	editor := NewEditorService(posts, users, nil, editorstate.NewPolicy(true))
	user := createTestUser(t, gdb, "author", db.RoleAuthor)

	chain, _ := posts.Create(PostInput{Title: "t", Content: "body", UserID: user.ID})

	state, err := editor.State(chain.RootID, user.ID, EditorStateInput{})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if state.State.Action != editorstate.ActionPublish || !state.State.Enabled {
		t.Fatalf("expected enabled publish, got %+v", state.State)
	}
	if len(state.Events) != 1 || state.Events[0].Kind != editorstate.EventActionAllowedChanged {
		t.Fatalf("expected a single enabled transition, got %+v", state.Events)
	}

	future := time.Now().Add(24 * time.Hour)
	state, err = editor.State(chain.RootID, user.ID, EditorStateInput{PublishDate: &future})
	if err != nil {
		t.Fatalf("editor state with date: %v", err)
	}
	if state.State.Action != editorstate.ActionSchedule {
		t.Fatalf("expected schedule, got %s", state.State.Action)
	}
}

func TestEditorService_ContributorSubmitsForReview(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	posts := NewPostService(gdb, nil)
	editor := NewEditorService(posts, NewUserService(gdb), nil, nil)
	user := createTestUser(t, gdb, "guest", db.RoleContributor)

	chain, _ := posts.Create(PostInput{Title: "t", UserID: user.ID})
	state, err := editor.State(chain.RootID, user.ID, EditorStateInput{})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if state.State.Action != editorstate.ActionSubmitForReview {
		t.Fatalf("expected submit for review, got %s", state.State.Action)
	}
}

func TestEditorService_UpdateNeedsChanges(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	posts := NewPostService(gdb, nil)
	editor := NewEditorService(posts, NewUserService(gdb), nil, editorstate.NewPolicy(true))
	user := createTestUser(t, gdb, "editor", db.RoleEditor)

	chain, _ := posts.Create(PostInput{Title: "t", Content: "body", UserID: user.ID})
	publicationID := uint(1)
	if err := gdb.Model(&db.Post{}).Where("id = ?", chain.RootID.String()).Updates(map[string]interface{}{
		"status":                "publish",
		"latest_publication_id": publicationID,
	}).Error; err != nil {
		t.Fatalf("mark remote: %v", err)
	}

	rev, err := posts.CreateRevision(chain.RootID, user.ID)
	if err != nil {
		t.Fatalf("create revision: %v", err)
	}

	state, err := editor.State(chain.RootID, user.ID, EditorStateInput{})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if state.State.Action != editorstate.ActionUpdate || state.State.Enabled {
		t.Fatalf("expected disabled update, got %+v", state.State)
	}
	if state.Events == nil {
		t.Fatalf("events must never be nil")
	}

	if _, err := posts.UpdateRevision(rev.ID, revision.UpdateParameters{Content: strPtr("changed")}); err != nil {
		t.Fatalf("update revision: %v", err)
	}
	state, err = editor.State(chain.RootID, user.ID, EditorStateInput{IsUploadingMedia: true})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if !state.State.Enabled || !state.State.IsUploadingMedia || state.RevisionID != rev.ID {
		t.Fatalf("expected enabled update, got %+v", state)
	}

	if _, err := posts.Submit(chain.RootID, SubmitInput{}, user); err != nil {
		t.Fatalf("submit: %v", err)
	}
	state, err = editor.State(chain.RootID, user.ID, EditorStateInput{})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if state.State.Enabled {
		t.Fatalf("update must wait while a sync is pending")
	}

	next, err := posts.CreateRevision(chain.RootID, user.ID)
	if err != nil {
		t.Fatalf("create revision on top of pending one: %v", err)
	}
	if _, err := posts.UpdateRevision(next.ID, revision.UpdateParameters{Content: strPtr("changed again")}); err != nil {
		t.Fatalf("update revision: %v", err)
	}
	state, err = editor.State(chain.RootID, user.ID, EditorStateInput{})
	if err != nil {
		t.Fatalf("editor state: %v", err)
	}
	if !state.State.Enabled || state.RevisionID != next.ID {
		t.Fatalf("new edits after a pending revision should be updatable, got %+v", state)
	}
}

func TestEditorService_UnknownUser(t *testing.T) {
	gdb := setupPostServiceTestDB(t)
	posts := NewPostService(gdb, nil)
	editor := NewEditorService(posts, NewUserService(gdb), nil, nil)

	chain, _ := posts.Create(PostInput{Title: "t"})
	if _, err := editor.State(chain.RootID, 99, EditorStateInput{}); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRenderer(t *testing.T) {
	r := NewRenderer()

	html, err := r.Render("# 标题\n<script>alert(1)</script>\nhttps://example.com")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script") {
		t.Fatalf("script must be sanitized: %s", html)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, `href="https://example.com"`) {
		t.Fatalf("expected heading and link, got %s", html)
	}

	tests := []struct {
		title, content string
		want           bool
	}{
		{title: "标题", want: true},
		{content: "   \n  ", want: false},
		{content: "<script>alert(1)</script>", want: false},
		{content: "![img](https://example.com/a.png)", want: true},
		{content: "hello", want: true},
	}
	for _, tt := range tests {
		if got := r.HasContent(tt.title, tt.content); got != tt.want {
			t.Fatalf("HasContent(%q, %q) = %v, want %v", tt.title, tt.content, got, tt.want)
		}
	}
}
