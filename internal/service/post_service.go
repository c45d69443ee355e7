package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/draftsync/internal/db"
	"github.com/draftsync/internal/revision"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostService wraps revision chain storage.
type PostService struct {
	db    *gorm.DB
	locks *ChainLocks
}

// PostFilter describes filters for listing posts.
type PostFilter struct {
	Search  string
	Status  string
	UserID  uint
	Page    int
	PerPage int
}

// PostListResult aggregates paginated list data and counters.
type PostListResult struct {
	Posts          []db.Post
	Total          int64
	PublishedCount int64
	DraftCount     int64
	TotalPages     int
	Page           int
	PerPage        int
}

// PostInput represents fields accepted when creating a post.
type PostInput struct {
	Title       string
	Content     string
	DateCreated *time.Time
	UserID      uint
}

// SubmitInput is the publishing request attached to a revision.
type SubmitInput struct {
	Status      revision.Status
	DateCreated *time.Time
	ClearDate   bool
}

// Chain is a revision chain loaded from storage.
type Chain struct {
	RootID uuid.UUID
	Arena  *revision.Arena
	rows   map[uuid.UUID]db.Post
}

// Root returns the original node.
func (c *Chain) Root() (revision.Node, error) {
	return c.Arena.Node(c.RootID)
}

// Nodes returns the chain oldest first.
func (c *Chain) Nodes() ([]revision.Node, error) {
	return c.Arena.AllRevisions(c.RootID)
}

// Row returns the stored row of a node.
func (c *Chain) Row(id uuid.UUID) (db.Post, bool) {
	row, ok := c.rows[id]
	return row, ok
}

// OwnerID returns the user that created the post.
func (c *Chain) OwnerID() uint {
	return c.rows[c.RootID].UserID
}

// NewPostService creates a PostService instance. Services that mutate the
// same chains must share locks.
func NewPostService(gdb *gorm.DB, locks *ChainLocks) *PostService {
	if locks == nil {
		locks = NewChainLocks()
	}
	return &PostService{db: gdb, locks: locks}
}

// Create persists a new root draft.
func (s *PostService) Create(input PostInput) (*Chain, error) {
	arena := revision.NewArena()
	root, err := arena.NewOriginal(revision.Node{
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		Status:      revision.StatusDraft,
		DateCreated: input.DateCreated,
	})
	if err != nil {
		return nil, err
	}

	chain := &Chain{RootID: root.ID, Arena: arena, rows: map[uuid.UUID]db.Post{}}
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.persist(tx, chain, nil, input.UserID)
	}); err != nil {
		return nil, err
	}

	logrus.WithField("post_id", root.ID).Info("post created")
	return chain, nil
}

// Get loads the chain containing id, which may be the root or any revision.
func (s *PostService) Get(id uuid.UUID) (*Chain, error) {
	chainID, err := s.chainIDOf(id, ErrPostNotFound)
	if err != nil {
		return nil, err
	}
	chain, err := s.loadChain(s.db, chainID)
	if err != nil {
		return nil, err
	}

	root, err := chain.Arena.Original(id)
	if err != nil {
		return nil, err
	}
	if root.ID != chain.RootID {
		return nil, revision.ErrCorruptChain
	}
	return chain, nil
}

// Chain loads the chain rooted at postID.
func (s *PostService) Chain(postID uuid.UUID) (*Chain, error) {
	return s.loadChain(s.db, postID)
}

// List provides paginated root posts with aggregated counters based on filters.
func (s *PostService) List(filter PostFilter) (*PostListResult, error) {
	result := &PostListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	modelQuery := s.applyFilters(s.db.Model(&db.Post{}), filter, true)
	if err := modelQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var posts []db.Post
	dataQuery := s.applyFilters(s.db.Model(&db.Post{}).Preload("User"), filter, true)
	if err := dataQuery.Order("posts.created_at desc, posts.id").Limit(result.PerPage).Offset(offset).Find(&posts).Error; err != nil {
		return nil, err
	}

	filterWithoutStatus := filter
	filterWithoutStatus.Status = ""

	publishedCounter := s.applyFilters(s.db.Model(&db.Post{}), filterWithoutStatus, false)
	if err := publishedCounter.Where("posts.status IN ?", liveStatuses()).Count(&result.PublishedCount).Error; err != nil {
		return nil, err
	}

	draftCounter := s.applyFilters(s.db.Model(&db.Post{}), filterWithoutStatus, false)
	if err := draftCounter.Where("posts.status = ?", string(revision.StatusDraft)).Count(&result.DraftCount).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Posts = posts
	return result, nil
}

// CreateRevision opens an edit session on the chain. The open tail revision
// is reused; a new one is appended when the tail is the root or was already
// submitted.
func (s *PostService) CreateRevision(postID uuid.UUID, userID uint) (revision.Node, error) {
	unlock := s.locks.Lock(postID)
	defer unlock()

	chain, err := s.loadChain(s.db, postID)
	if err != nil {
		return revision.Node{}, err
	}

	latest, err := chain.Arena.Latest(postID)
	if err != nil {
		return revision.Node{}, err
	}
	if !latest.IsOriginal() && !latest.SyncNeeded {
		return latest, nil
	}

	rev, err := chain.Arena.CreateRevision(latest.ID)
	if err != nil {
		return revision.Node{}, err
	}
	if err := s.save(chain, nil, userID); err != nil {
		return revision.Node{}, err
	}

	logrus.WithFields(logrus.Fields{"post_id": postID, "revision_id": rev.ID}).Info("revision created")
	return chain.Arena.Node(rev.ID)
}

// UpdateRevision applies edits to the open tail revision.
func (s *PostService) UpdateRevision(revisionID uuid.UUID, params revision.UpdateParameters) (revision.Node, error) {
	chainID, err := s.chainIDOf(revisionID, ErrRevisionNotFound)
	if err != nil {
		return revision.Node{}, err
	}

	unlock := s.locks.Lock(chainID)
	defer unlock()

	chain, err := s.loadChain(s.db, chainID)
	if err != nil {
		return revision.Node{}, err
	}

	node, err := chain.Arena.Node(revisionID)
	if err != nil {
		return revision.Node{}, ErrRevisionNotFound
	}
	if node.IsOriginal() || node.HasRevision() || node.SyncNeeded {
		logrus.WithField("revision_id", revisionID).Warn("rejected edit of frozen revision")
		return revision.Node{}, ErrRevisionFrozen
	}
	if params.Status != nil {
		status, err := revision.ParseStatus(string(*params.Status))
		if err != nil {
			return revision.Node{}, err
		}
		params.Status = &status
	}

	if _, err := chain.Arena.Update(revisionID, params.Apply); err != nil {
		return revision.Node{}, err
	}
	if err := refreshContentChanged(chain); err != nil {
		return revision.Node{}, err
	}
	if err := s.save(chain, nil, chain.OwnerID()); err != nil {
		return revision.Node{}, err
	}

	return chain.Arena.Node(revisionID)
}

// Submit marks the newest revision as needing sync with the requested
// status. Users that cannot publish are submitted for review instead.
func (s *PostService) Submit(postID uuid.UUID, input SubmitInput, user db.User) (revision.Node, error) {
	status, err := submitStatus(input.Status, user)
	if err != nil {
		return revision.Node{}, err
	}

	unlock := s.locks.Lock(postID)
	defer unlock()

	chain, err := s.loadChain(s.db, postID)
	if err != nil {
		return revision.Node{}, err
	}

	latest, err := chain.Arena.Latest(postID)
	if err != nil {
		return revision.Node{}, err
	}
	if latest.IsOriginal() || latest.SyncNeeded {
		if latest, err = chain.Arena.CreateRevision(latest.ID); err != nil {
			return revision.Node{}, err
		}
	}
	if strings.TrimSpace(latest.Title) == "" && strings.TrimSpace(latest.Content) == "" {
		return revision.Node{}, ErrInvalidPublishState
	}

	if _, err := chain.Arena.Update(latest.ID, func(n *revision.Node) {
		n.SyncNeeded = true
		n.Status = status
		if input.ClearDate {
			n.DateCreated = nil
		} else if input.DateCreated != nil {
			date := *input.DateCreated
			n.DateCreated = &date
		}
	}); err != nil {
		return revision.Node{}, err
	}
	if err := refreshContentChanged(chain); err != nil {
		return revision.Node{}, err
	}
	if err := s.save(chain, nil, user.ID); err != nil {
		return revision.Node{}, err
	}

	logrus.WithFields(logrus.Fields{
		"post_id":     postID,
		"revision_id": latest.ID,
		"status":      status,
	}).Info("revision submitted for sync")
	return chain.Arena.Node(latest.ID)
}

// Delete soft-deletes every node of the chain.
func (s *PostService) Delete(postID uuid.UUID) error {
	unlock := s.locks.Lock(postID)
	defer unlock()

	res := s.db.Where("chain_id = ?", postID.String()).Delete(&db.Post{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// IsNewDraft reports whether the post has never been uploaded and has
// nothing waiting to sync.
func (s *PostService) IsNewDraft(postID uuid.UUID) (bool, error) {
	chain, err := s.loadChain(s.db, postID)
	if err != nil {
		return false, err
	}
	return chain.Arena.IsNewDraft(postID)
}

// PendingChains returns the ids of chains holding a revision that needs sync.
func (s *PostService) PendingChains() ([]uuid.UUID, error) {
	var raw []string
	if err := s.db.Model(&db.Post{}).
		Where("sync_needed = ? AND original_id IS NOT NULL", true).
		Distinct().
		Pluck("chain_id", &raw).Error; err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("pending chain %q: %w", value, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *PostService) chainIDOf(id uuid.UUID, notFound error) (uuid.UUID, error) {
	var row db.Post
	if err := s.db.Select("id", "chain_id").First(&row, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, notFound
		}
		return uuid.Nil, err
	}
	return uuid.Parse(row.ChainID)
}

func (s *PostService) loadChain(tx *gorm.DB, chainID uuid.UUID) (*Chain, error) {
	var rows []db.Post
	if err := tx.Where("chain_id = ?", chainID.String()).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrPostNotFound
	}

	chain := &Chain{RootID: chainID, Arena: revision.NewArena(), rows: make(map[uuid.UUID]db.Post, len(rows))}
	for _, row := range rows {
		node, err := row.Node()
		if err != nil {
			return nil, fmt.Errorf("load post %s: %w", row.ID, err)
		}
		if err := chain.Arena.Insert(node); err != nil {
			return nil, fmt.Errorf("load post %s: %w", row.ID, err)
		}
		chain.rows[node.ID] = row
	}

	if err := chain.Arena.Verify(chainID); err != nil {
		if errors.Is(err, revision.ErrUnknownRevision) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load chain %s: %w", chainID, err)
	}
	return chain, nil
}

func (s *PostService) save(chain *Chain, removed []revision.Node, userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.persist(tx, chain, removed, userID)
	})
}

// persist writes the chain topology. Nodes without a stored row are
// created for userID.
func (s *PostService) persist(tx *gorm.DB, chain *Chain, removed []revision.Node, userID uint) error {
	for _, n := range removed {
		if err := tx.Delete(&db.Post{}, "id = ?", n.ID.String()).Error; err != nil {
			return err
		}
		delete(chain.rows, n.ID)
	}

	nodes, err := chain.Nodes()
	if err != nil {
		return err
	}
	for _, n := range nodes {
		row, ok := chain.rows[n.ID]
		if !ok {
			row = db.PostFromNode(n, chain.RootID, userID)
			if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
				return err
			}
			chain.rows[n.ID] = row
			continue
		}

		row.ApplyNode(n)
		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			return err
		}
		chain.rows[n.ID] = row
	}
	return nil
}

func (s *PostService) applyFilters(query *gorm.DB, filter PostFilter, includeStatus bool) *gorm.DB {
	query = query.Where("posts.original_id IS NULL")

	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		query = query.Where("(posts.title LIKE ? OR posts.content LIKE ?)", search, search)
	}

	if includeStatus && filter.Status != "" {
		query = query.Where("posts.status = ?", filter.Status)
	}

	if filter.UserID != 0 {
		query = query.Where("posts.user_id = ?", filter.UserID)
	}

	return query
}

// refreshContentChanged recomputes ContentChanged of every revision against
// the root.
func refreshContentChanged(chain *Chain) error {
	nodes, err := chain.Nodes()
	if err != nil {
		return err
	}
	root := nodes[0]
	for _, n := range nodes[1:] {
		changed := revision.ContentDiffers(root, n)
		if changed == n.ContentChanged {
			continue
		}
		if _, err := chain.Arena.Update(n.ID, func(node *revision.Node) {
			node.ContentChanged = changed
		}); err != nil {
			return err
		}
	}
	return nil
}

func submitStatus(requested revision.Status, user db.User) (revision.Status, error) {
	status := requested
	if status == "" {
		status = revision.StatusPublish
	}
	status, err := revision.ParseStatus(string(status))
	if err != nil {
		return "", err
	}

	switch status {
	case revision.StatusTrash, revision.StatusDeleted:
		return "", fmt.Errorf("%w: cannot submit %s", revision.ErrInvalidStatus, status)
	case revision.StatusPublish, revision.StatusScheduled, revision.StatusPrivate:
		if !user.CanPublish() {
			return revision.StatusPending, nil
		}
	}
	return status, nil
}

func liveStatuses() []string {
	return []string{
		string(revision.StatusPublish),
		string(revision.StatusPrivate),
		string(revision.StatusScheduled),
	}
}
