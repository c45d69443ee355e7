package handler

import (
	"errors"
	"net/http"

	"github.com/draftsync/internal/revision"
	"github.com/draftsync/internal/service"
	"github.com/gin-gonic/gin"
)

// CreateRevision 为文章开启编辑会话
func (a *API) CreateRevision(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	node, err := a.posts.CreateRevision(id, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": newRevisionView(node)})
}

// UpdateRevision 保存编辑中的修订
func (a *API) UpdateRevision(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的修订ID")
		return
	}

	var params revision.UpdateParameters
	if !bindJSON(c, &params, "无效的修订数据") {
		return
	}

	node, err := a.posts.UpdateRevision(id, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revision": newRevisionView(node)})
}

// PreviewRevision 渲染修订的 Markdown 预览
func (a *API) PreviewRevision(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的修订ID")
		return
	}

	chain, err := a.posts.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			err = service.ErrRevisionNotFound
		}
		respondServiceError(c, err)
		return
	}
	node, err := chain.Arena.Node(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	html, err := a.renderer.Render(node.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          node.ID.String(),
		"title":       node.Title,
		"html":        html,
		"has_content": a.renderer.HasContent(node.Title, node.Content),
	})
}

// EditorState 返回编辑器发布按钮的状态
func (a *API) EditorState(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的文章ID")
		return
	}

	var input service.EditorStateInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &input, "无效的编辑器状态") {
		return
	}

	state, err := a.editor.State(id, currentUserID(c), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}
