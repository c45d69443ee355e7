package db

import (
	"time"

	"github.com/draftsync/internal/revision"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post 是修订链中的一个节点。链的根节点 OriginalID 为空，ChainID 指向根节点。
type Post struct {
	ID                  string  `gorm:"primaryKey;size:36"`
	ChainID             string  `gorm:"size:36;index;not null"`
	OriginalID          *string `gorm:"size:36"`
	RevisionID          *string `gorm:"size:36"`
	Title               string
	Content             string `gorm:"type:text"`
	Status              string `gorm:"size:16;index;not null;default:draft"`
	DateCreated         *time.Time
	SyncNeeded          bool
	ContentChanged      bool
	LatestPublicationID *uint
	PublicationCount    int
	UserID              uint
	User                User
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

// IsOriginal reports whether the row is the root of its chain.
func (p Post) IsOriginal() bool {
	return p.OriginalID == nil
}

// Node converts the row into an arena node.
func (p Post) Node() (revision.Node, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return revision.Node{}, err
	}
	original, err := parseLink(p.OriginalID)
	if err != nil {
		return revision.Node{}, err
	}
	next, err := parseLink(p.RevisionID)
	if err != nil {
		return revision.Node{}, err
	}

	return revision.Node{
		ID:             id,
		Title:          p.Title,
		Content:        p.Content,
		Status:         revision.Status(p.Status),
		DateCreated:    p.DateCreated,
		HasRemote:      p.LatestPublicationID != nil,
		SyncNeeded:     p.SyncNeeded,
		ContentChanged: p.ContentChanged,
		Deleted:        p.DeletedAt.Valid,
		Original:       original,
		Revision:       next,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}

// ApplyNode copies the node's content and links onto the row. Remote
// bookkeeping such as LatestPublicationID is left untouched.
func (p *Post) ApplyNode(n revision.Node) {
	p.ID = n.ID.String()
	p.Title = n.Title
	p.Content = n.Content
	p.Status = string(n.Status)
	p.DateCreated = n.DateCreated
	p.SyncNeeded = n.SyncNeeded
	p.ContentChanged = n.ContentChanged
	p.OriginalID = formatLink(n.Original)
	p.RevisionID = formatLink(n.Revision)
}

// PostFromNode builds a new row for the node in the given chain.
func PostFromNode(n revision.Node, chainID uuid.UUID, userID uint) Post {
	p := Post{ChainID: chainID.String(), UserID: userID}
	p.ApplyNode(n)
	return p
}

func parseLink(raw *string) (uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(*raw)
}

func formatLink(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	s := id.String()
	return &s
}
