package service

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/draftsync/internal/revision"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SyncService uploads the newest submitted revision of a chain and folds the
// confirmed result back into the root.
type SyncService struct {
	db       *gorm.DB
	posts    *PostService
	uploader Uploader
	// revisions currently being uploaded
	inflight mapset.Set[uuid.UUID]
}

// SyncResult reports what a sync changed.
type SyncResult struct {
	Root        revision.Node
	Synced      revision.Node
	Removed     []revision.Node
	Publication UploadResult
}

// NewSyncService creates a SyncService sharing the chain locks of posts.
func NewSyncService(gdb *gorm.DB, posts *PostService, uploader Uploader) *SyncService {
	return &SyncService{db: gdb, posts: posts, uploader: uploader, inflight: mapset.NewSet[uuid.UUID]()}
}

// Sync uploads the latest revision needing sync. The chain lock is released
// for the duration of the upload, so revisions created meanwhile stay in
// the chain after the synced ones are pruned.
// The picked revision is claimed until Sync returns; a concurrent call for
// the same revision fails with ErrSyncInProgress without uploading.
func (s *SyncService) Sync(ctx context.Context, postID uuid.UUID) (*SyncResult, error) {
	snapshot, userID, err := s.pickRevision(postID)
	if err != nil {
		return nil, err
	}
	defer s.inflight.Remove(snapshot.ID)

	log := logrus.WithFields(logrus.Fields{"post_id": postID, "revision_id": snapshot.ID})

	confirmed, err := s.uploader.Upload(ctx, UploadRequest{PostID: postID, Revision: snapshot, UserID: userID})
	if err != nil {
		log.WithError(err).Warn("revision upload failed")
		return nil, fmt.Errorf("upload revision %s: %w", snapshot.ID, err)
	}

	unlock := s.posts.locks.Lock(postID)
	defer unlock()

	chain, err := s.posts.loadChain(s.db, postID)
	if err != nil {
		return nil, err
	}
	if _, err := chain.Arena.Node(snapshot.ID); err != nil {
		log.Warn("synced revision left the chain during upload")
		return nil, ErrStaleSync
	}

	root, err := chain.Arena.Update(postID, func(n *revision.Node) {
		n.Title = snapshot.Title
		n.Content = snapshot.Content
		n.Status = confirmed.Status
		n.DateCreated = snapshot.DateCreated
		n.HasRemote = true
		n.SyncNeeded = false
		n.ContentChanged = false
	})
	if err != nil {
		return nil, err
	}

	removed, err := chain.Arena.DeleteSyncedRevisions(postID, snapshot.ID)
	if err != nil {
		return nil, err
	}
	if err := refreshContentChanged(chain); err != nil {
		return nil, err
	}

	row := chain.rows[postID]
	publicationID := confirmed.PublicationID
	row.LatestPublicationID = &publicationID
	row.PublicationCount = confirmed.Version
	chain.rows[postID] = row

	if err := s.posts.save(chain, removed, chain.OwnerID()); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":  confirmed.Status,
		"version": confirmed.Version,
		"pruned":  len(removed),
	}).Info("revision synced")

	return &SyncResult{Root: root, Synced: snapshot, Removed: removed, Publication: *confirmed}, nil
}

func (s *SyncService) pickRevision(postID uuid.UUID) (revision.Node, uint, error) {
	unlock := s.posts.locks.Lock(postID)
	defer unlock()

	chain, err := s.posts.loadChain(s.db, postID)
	if err != nil {
		return revision.Node{}, 0, err
	}
	latest, err := chain.Arena.LatestRevisionNeedingSync(postID)
	if err != nil {
		return revision.Node{}, 0, err
	}
	if latest == nil {
		return revision.Node{}, 0, ErrNothingToSync
	}
	if !s.inflight.Add(latest.ID) {
		return revision.Node{}, 0, ErrSyncInProgress
	}

	userID := chain.OwnerID()
	if row, ok := chain.Row(latest.ID); ok && row.UserID != 0 {
		userID = row.UserID
	}
	return *latest, userID, nil
}
