package handler

import (
	"github.com/draftsync/internal/editorstate"
	"github.com/draftsync/internal/queue"
	"github.com/draftsync/internal/service"
	"gorm.io/gorm"
)

// Options configures optional collaborators of the API.
type Options struct {
	// Queue receives submitted posts. Nil leaves syncing to the sync endpoint.
	Queue queue.SyncQueue
	// Uploader defaults to a PublicationUploader on the same database.
	Uploader service.Uploader
	// Policy defaults to the sync publishing policy.
	Policy editorstate.Policy
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	posts    *service.PostService
	users    *service.UserService
	sync     *service.SyncService
	editor   *service.EditorService
	renderer *service.Renderer
	queue    queue.SyncQueue
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	uploader := opts.Uploader
	if uploader == nil {
		uploader = service.NewPublicationUploader(gdb)
	}

	posts := service.NewPostService(gdb, service.NewChainLocks())
	users := service.NewUserService(gdb)
	renderer := service.NewRenderer()

	return &API{
		db:       gdb,
		posts:    posts,
		users:    users,
		sync:     service.NewSyncService(gdb, posts, uploader),
		editor:   service.NewEditorService(posts, users, renderer, opts.Policy),
		renderer: renderer,
		queue:    opts.Queue,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Posts exposes the post service for background jobs.
func (a *API) Posts() *service.PostService {
	return a.posts
}

// Sync exposes the sync service for background jobs.
func (a *API) Sync() *service.SyncService {
	return a.sync
}
