package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/draftsync/internal/revision"
	"github.com/draftsync/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUUIDParam(c *gin.Context, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", key)
	}
	return id, nil
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// respondServiceError 将业务错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		respondError(c, http.StatusNotFound, "文章不存在")
	case errors.Is(err, service.ErrRevisionNotFound), errors.Is(err, revision.ErrUnknownRevision):
		respondError(c, http.StatusNotFound, "修订不存在")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusUnauthorized, "用户不存在")
	case errors.Is(err, service.ErrRevisionFrozen):
		respondError(c, http.StatusConflict, "该修订不可编辑")
	case errors.Is(err, service.ErrNothingToSync):
		respondError(c, http.StatusConflict, "没有需要同步的修订")
	case errors.Is(err, service.ErrSyncInProgress):
		respondError(c, http.StatusConflict, "文章正在同步中")
	case errors.Is(err, service.ErrStaleSync):
		respondError(c, http.StatusConflict, "同步期间修订已变更")
	case errors.Is(err, revision.ErrNotRoot), errors.Is(err, revision.ErrInvalidBoundary):
		respondError(c, http.StatusConflict, "修订链状态不满足操作条件")
	case errors.Is(err, service.ErrInvalidPublishState):
		respondError(c, http.StatusBadRequest, "标题和内容不能同时为空")
	case errors.Is(err, revision.ErrInvalidStatus):
		respondError(c, http.StatusBadRequest, "无效的文章状态")
	default:
		logrus.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		respondError(c, http.StatusInternalServerError, "服务器内部错误")
	}
}
