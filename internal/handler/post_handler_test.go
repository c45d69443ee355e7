package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/queue"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

type testEnv struct {
	db     *gorm.DB
	api    *API
	engine *gin.Engine
	queue  *queue.MemoryQueue
	user   db.User
}

func setupHandlerTest(t *testing.T, role db.Role) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	user := db.User{Username: "writer", Password: "x", Role: role}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	q := queue.NewMemoryQueue()
	api := NewAPI(gdb, Options{Queue: q})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDContextKey, user.ID)
		c.Next()
	})
	r.GET("/posts", api.ListPosts)
	r.POST("/posts", api.CreatePost)
	r.GET("/posts/:id", api.GetPost)
	r.DELETE("/posts/:id", api.DeletePost)
	r.POST("/posts/:id/revisions", api.CreateRevision)
	r.POST("/posts/:id/submit", api.SubmitPost)
	r.POST("/posts/:id/sync", api.SyncPost)
	r.POST("/posts/:id/editor-state", api.EditorState)
	r.PUT("/revisions/:id", api.UpdateRevision)
	r.GET("/revisions/:id/preview", api.PreviewRevision)

	return &testEnv{db: gdb, api: api, engine: r, queue: q, user: user}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

type postResponse struct {
	Post struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Status     string `json:"status"`
		HasRemote  bool   `json:"has_remote"`
		IsNewDraft bool   `json:"is_new_draft"`
		Revisions  []struct {
			ID         string `json:"id"`
			Title      string `json:"title"`
			SyncNeeded bool   `json:"sync_needed"`
		} `json:"revisions"`
	} `json:"post"`
}

type revisionResponse struct {
	Revision struct {
		ID             string  `json:"id"`
		OriginalID     *string `json:"original_id"`
		Title          string  `json:"title"`
		Status         string  `json:"status"`
		SyncNeeded     bool    `json:"sync_needed"`
		ContentChanged bool    `json:"content_changed"`
	} `json:"revision"`
	Queued bool `json:"queued"`
}

func (e *testEnv) createPost(t *testing.T, title, content string) postResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/posts", map[string]string{"title": title, "content": content})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create post: expected %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}
	var resp postResponse
	decode(t, rr, &resp)
	return resp
}

func TestCreateAndGetPost(t *testing.T) {
	env := setupHandlerTest(t, db.RoleAuthor)
	created := env.createPost(t, "标题", "正文")

	if !created.Post.IsNewDraft || created.Post.Status != "draft" {
		t.Fatalf("unexpected created post: %+v", created.Post)
	}

	rr := env.do(t, http.MethodGet, "/posts/"+created.Post.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get post: expected %d, got %d", http.StatusOK, rr.Code)
	}
	var got postResponse
	decode(t, rr, &got)
	if got.Post.ID != created.Post.ID || got.Post.Title != "标题" || len(got.Post.Revisions) != 0 {
		t.Fatalf("unexpected post: %+v", got.Post)
	}
}

func TestGetPostRejectsBadID(t *testing.T) {
	env := setupHandlerTest(t, db.RoleAuthor)

	if rr := env.do(t, http.MethodGet, "/posts/not-a-uuid", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/posts/7f1c1b8e-3a1d-4d55-9a5e-2a2b0f9b0c11", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRevisionEditSubmitAndSync(t *testing.T) {
	env := setupHandlerTest(t, db.RoleAuthor)
	created := env.createPost(t, "初稿", "内容")
	postID := created.Post.ID

	rr := env.do(t, http.MethodPost, "/posts/"+postID+"/revisions", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("create revision: expected %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var rev revisionResponse
	decode(t, rr, &rev)
	if rev.Revision.OriginalID == nil || *rev.Revision.OriginalID != postID {
		t.Fatalf("revision should link back to root: %+v", rev.Revision)
	}

	rr = env.do(t, http.MethodPut, "/revisions/"+rev.Revision.ID, map[string]string{"title": "修改后", "content": "新内容"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update revision: expected %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	decode(t, rr, &rev)
	if !rev.Revision.ContentChanged {
		t.Fatalf("expected content_changed after edit")
	}

	rr = env.do(t, http.MethodPut, "/revisions/"+postID, map[string]string{"title": "改根"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("editing root: expected %d, got %d", http.StatusConflict, rr.Code)
	}

	rr = env.do(t, http.MethodPost, "/posts/"+postID+"/submit", map[string]string{"status": "publish"})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("submit: expected %d, got %d: %s", http.StatusAccepted, rr.Code, rr.Body.String())
	}
	var submitted revisionResponse
	decode(t, rr, &submitted)
	if !submitted.Queued || !submitted.Revision.SyncNeeded || submitted.Revision.Status != "publish" {
		t.Fatalf("unexpected submit response: %+v", submitted)
	}
	if n, _ := env.queue.Len(context.Background()); n != 1 {
		t.Fatalf("expected one queued post, got %d", n)
	}

	rr = env.do(t, http.MethodPost, "/posts/"+postID+"/sync", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("sync: expected %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	var synced struct {
		Post struct {
			Title     string `json:"title"`
			Status    string `json:"status"`
			HasRemote bool   `json:"has_remote"`
		} `json:"post"`
		Pruned      int `json:"pruned"`
		Publication struct {
			Version int `json:"version"`
		} `json:"publication"`
	}
	decode(t, rr, &synced)
	if synced.Post.Title != "修改后" || synced.Post.Status != "publish" || !synced.Post.HasRemote {
		t.Fatalf("unexpected synced root: %+v", synced.Post)
	}
	if synced.Pruned != 1 || synced.Publication.Version != 1 {
		t.Fatalf("unexpected sync result: %+v", synced)
	}

	rr = env.do(t, http.MethodPost, "/posts/"+postID+"/sync", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("second sync: expected %d, got %d", http.StatusConflict, rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/posts/"+postID, nil)
	var got postResponse
	decode(t, rr, &got)
	if got.Post.IsNewDraft || len(got.Post.Revisions) != 0 {
		t.Fatalf("expected pruned chain, got %+v", got.Post)
	}
}

func TestSubmitRejectsEmptyPost(t *testing.T) {
	env := setupHandlerTest(t, db.RoleAuthor)
	created := env.createPost(t, "", "")

	rr := env.do(t, http.MethodPost, "/posts/"+created.Post.ID+"/submit", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d: %s", http.StatusBadRequest, rr.Code, rr.Body.String())
	}
}

func TestSubmitByContributorIsPending(t *testing.T) {
	env := setupHandlerTest(t, db.RoleContributor)
	created := env.createPost(t, "投稿", "内容")

	rr := env.do(t, http.MethodPost, "/posts/"+created.Post.ID+"/submit", map[string]string{"status": "publish"})
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected %d, got %d: %s", http.StatusAccepted, rr.Code, rr.Body.String())
	}
	var resp revisionResponse
	decode(t, rr, &resp)
	if resp.Revision.Status != "pending" {
		t.Fatalf("expected pending status, got %q", resp.Revision.Status)
	}
}

func TestListAndDeletePosts(t *testing.T) {
	env := setupHandlerTest(t, db.RoleAuthor)
	first := env.createPost(t, "第一篇", "a")
	env.createPost(t, "第二篇", "b")
	env.do(t, http.MethodPost, "/posts/"+first.Post.ID+"/revisions", nil)

	rr := env.do(t, http.MethodGet, "/posts?per_page=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: expected %d, got %d", http.StatusOK, rr.Code)
	}
	var list struct {
		Posts      []map[string]interface{} `json:"posts"`
		Total      int64                    `json:"total"`
		DraftCount int64                    `json:"draft_count"`
		TotalPages int                      `json:"total_pages"`
	}
	decode(t, rr, &list)
	if list.Total != 2 || list.DraftCount != 2 || list.TotalPages != 2 || len(list.Posts) != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}

	if rr := env.do(t, http.MethodDelete, "/posts/"+first.Post.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: expected %d, got %d", http.StatusOK, rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/posts/"+first.Post.ID, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted post: expected %d, got %d", http.StatusNotFound, rr.Code)
	}
	if rr := env.do(t, http.MethodDelete, "/posts/"+first.Post.ID, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected %d, got %d", http.StatusNotFound, rr.Code)
	}
}
