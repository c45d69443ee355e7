package service

import (
	"context"
	"time"

	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/revision"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UploadRequest carries the revision snapshot sent to the remote.
type UploadRequest struct {
	PostID   uuid.UUID
	Revision revision.Node
	UserID   uint
}

// UploadResult is what the remote confirmed.
type UploadResult struct {
	Status        revision.Status
	PublicationID uint
	Version       int
	PublishedAt   time.Time
}

// Uploader sends a revision to the remote. It is called without holding the
// chain lock.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// PublicationUploader confirms uploads by writing a PostPublication snapshot.
type PublicationUploader struct {
	db  *gorm.DB
	now func() time.Time
}

// NewPublicationUploader creates a PublicationUploader instance.
func NewPublicationUploader(gdb *gorm.DB) *PublicationUploader {
	return &PublicationUploader{db: gdb, now: time.Now}
}

// Upload 创建发布快照，版本号按文章递增
func (u *PublicationUploader) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := u.now()
	publishTime := now
	if req.Revision.DateCreated != nil && !req.Revision.DateCreated.IsZero() {
		publishTime = *req.Revision.DateCreated
	}

	status := req.Revision.Status
	switch {
	case status == revision.StatusPublish && publishTime.After(now):
		status = revision.StatusScheduled
	case status == revision.StatusScheduled && !publishTime.After(now):
		status = revision.StatusPublish
	}

	publication := db.PostPublication{
		PostID:      req.PostID.String(),
		RevisionID:  req.Revision.ID.String(),
		Title:       req.Revision.Title,
		Content:     req.Revision.Content,
		Status:      string(status),
		PublishedAt: publishTime,
		UserID:      req.UserID,
	}

	if err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.PostPublication{}).Where("post_id = ?", publication.PostID).Count(&count).Error; err != nil {
			return err
		}
		publication.Version = int(count) + 1
		return tx.Omit("User").Create(&publication).Error
	}); err != nil {
		return nil, err
	}

	return &UploadResult{
		Status:        status,
		PublicationID: publication.ID,
		Version:       publication.Version,
		PublishedAt:   publication.PublishedAt,
	}, nil
}
