package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/revision"
	"github.com/draftsync/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type revisionView struct {
	ID             string          `json:"id"`
	OriginalID     *string         `json:"original_id,omitempty"`
	RevisionID     *string         `json:"revision_id,omitempty"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Status         revision.Status `json:"status"`
	StatusTitle    string          `json:"status_title"`
	DateCreated    *time.Time      `json:"date_created,omitempty"`
	HasRemote      bool            `json:"has_remote"`
	SyncNeeded     bool            `json:"sync_needed"`
	ContentChanged bool            `json:"content_changed"`
}

type postView struct {
	revisionView
	IsNewDraft bool           `json:"is_new_draft"`
	Revisions  []revisionView `json:"revisions"`
}

func newRevisionView(n revision.Node) revisionView {
	view := revisionView{
		ID:             n.ID.String(),
		Title:          n.Title,
		Content:        n.Content,
		Status:         n.Status,
		StatusTitle:    n.Status.Title(),
		DateCreated:    n.DateCreated,
		HasRemote:      n.HasRemote,
		SyncNeeded:     n.SyncNeeded,
		ContentChanged: n.ContentChanged,
	}
	if !n.IsOriginal() {
		id := n.Original.String()
		view.OriginalID = &id
	}
	if n.HasRevision() {
		id := n.Revision.String()
		view.RevisionID = &id
	}
	return view
}

func newPostView(chain *service.Chain) (postView, error) {
	nodes, err := chain.Nodes()
	if err != nil {
		return postView{}, err
	}
	isNew, err := chain.Arena.IsNewDraft(chain.RootID)
	if err != nil {
		return postView{}, err
	}

	view := postView{
		revisionView: newRevisionView(nodes[0]),
		IsNewDraft:   isNew,
		Revisions:    make([]revisionView, 0, len(nodes)-1),
	}
	for _, n := range nodes[1:] {
		view.Revisions = append(view.Revisions, newRevisionView(n))
	}
	return view, nil
}

func newRowView(p db.Post) revisionView {
	return revisionView{
		ID:             p.ID,
		RevisionID:     p.RevisionID,
		Title:          p.Title,
		Content:        p.Content,
		Status:         revision.Status(p.Status),
		StatusTitle:    revision.Status(p.Status).Title(),
		DateCreated:    p.DateCreated,
		HasRemote:      p.LatestPublicationID != nil,
		SyncNeeded:     p.SyncNeeded,
		ContentChanged: p.ContentChanged,
	}
}

// ListPosts 获取文章列表，仅返回修订链的根节点
func (a *API) ListPosts(c *gin.Context) {
	result, err := a.posts.List(service.PostFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		Status:  strings.TrimSpace(c.Query("status")),
		Page:    parseIntQuery(c, "page", 1),
		PerPage: parseIntQuery(c, "per_page", 10),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	posts := make([]revisionView, 0, len(result.Posts))
	for _, p := range result.Posts {
		posts = append(posts, newRowView(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":           posts,
		"total":           result.Total,
		"published_count": result.PublishedCount,
		"draft_count":     result.DraftCount,
		"page":            result.Page,
		"per_page":        result.PerPage,
		"total_pages":     result.TotalPages,
	})
}

// CreatePost 创建新文章草稿
func (a *API) CreatePost(c *gin.Context) {
	var payload struct {
		Title       string     `json:"title"`
		Content     string     `json:"content"`
		DateCreated *time.Time `json:"date_created"`
	}
	if !bindJSON(c, &payload, "无效的文章数据") {
		return
	}

	chain, err := a.posts.Create(service.PostInput{
		Title:       payload.Title,
		Content:     payload.Content,
		DateCreated: payload.DateCreated,
		UserID:      currentUserID(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	view, err := newPostView(chain)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": view})
}

// GetPost 获取文章及其全部修订，id 可以是任意修订
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	chain, err := a.posts.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	view, err := newPostView(chain)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": view})
}

// DeletePost 删除整条修订链
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	if err := a.posts.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "文章删除成功"})
}

// SubmitPost 将最新修订标记为待同步并加入同步队列
func (a *API) SubmitPost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var payload struct {
		Status      string     `json:"status"`
		DateCreated *time.Time `json:"date_created"`
		ClearDate   bool       `json:"clear_date"`
	}
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload, "无效的发布数据") {
		return
	}

	user, err := a.users.Get(currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	node, err := a.posts.Submit(id, service.SubmitInput{
		Status:      revision.Status(payload.Status),
		DateCreated: payload.DateCreated,
		ClearDate:   payload.ClearDate,
	}, *user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	queued := false
	if a.queue != nil {
		if err := a.queue.Enqueue(c.Request.Context(), id); err != nil {
			// the sweep task picks the post up later
			logrus.WithField("post_id", id).Errorf("enqueue sync failed: %v", err)
		} else {
			queued = true
		}
	}

	c.JSON(http.StatusAccepted, gin.H{"revision": newRevisionView(node), "queued": queued})
}

// SyncPost 立即同步最新的待同步修订
func (a *API) SyncPost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	result, err := a.sync.Sync(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":   newRevisionView(result.Root),
		"synced": result.Synced.ID.String(),
		"pruned": len(result.Removed),
		"publication": gin.H{
			"id":           result.Publication.PublicationID,
			"version":      result.Publication.Version,
			"status":       result.Publication.Status,
			"published_at": result.Publication.PublishedAt,
		},
	})
}
