package service

import (
	"time"

	"github.com/draftsync/internal/editorstate"
	"github.com/google/uuid"
)

// EditorStateInput carries the editor facts only the client knows.
type EditorStateInput struct {
	IsUploadingMedia bool       `json:"is_uploading_media"`
	PublishDate      *time.Time `json:"publish_date"`
}

// EditorState is the publish-state snapshot of the revision open in the editor.
type EditorState struct {
	PostID     uuid.UUID            `json:"post_id"`
	RevisionID uuid.UUID            `json:"revision_id"`
	State      editorstate.Snapshot `json:"state"`
	Events     []editorstate.Event  `json:"events"`
}

// EditorService builds publish-state contexts for stored chains.
type EditorService struct {
	posts    *PostService
	users    *UserService
	renderer *Renderer
	policy   editorstate.Policy
}

// NewEditorService creates an EditorService with the given policy.
func NewEditorService(posts *PostService, users *UserService, renderer *Renderer, policy editorstate.Policy) *EditorService {
	if policy == nil {
		policy = editorstate.SyncPublishingPolicy{}
	}
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &EditorService{posts: posts, users: users, renderer: renderer, policy: policy}
}

// State replays the stored revision into a fresh context and returns the
// resulting snapshot together with every transition it caused.
func (s *EditorService) State(postID uuid.UUID, userID uint, input EditorStateInput) (*EditorState, error) {
	user, err := s.users.Get(userID)
	if err != nil {
		return nil, err
	}

	chain, err := s.posts.Chain(postID)
	if err != nil {
		return nil, err
	}
	nodes, err := chain.Nodes()
	if err != nil {
		return nil, err
	}
	root := nodes[0]
	edited := nodes[len(nodes)-1]

	pending, err := chain.Arena.LatestRevisionNeedingSync(postID)
	if err != nil {
		return nil, err
	}

	rec := &editorstate.Recorder{}
	ctx := editorstate.ForPost(root, edited, user.CanPublish(), s.policy, rec)
	if edited.Status != "" {
		ctx.UpdatedPostStatus(edited.Status)
	}
	if input.PublishDate != nil {
		ctx.UpdatedPublishDate(input.PublishDate)
	}

	hasChanges := false
	if !edited.IsOriginal() {
		changes, err := chain.Arena.Changes(edited.ID)
		if err != nil {
			return nil, err
		}
		hasChanges = edited.ContentChanged || !changes.IsEmpty()
	}

	ctx.ApplyFlags(editorstate.Flags{
		HasContent:       s.renderer.HasContent(edited.Title, edited.Content),
		HasChanges:       hasChanges,
		IsBeingPublished: pending != nil && pending.ID == edited.ID,
		IsUploadingMedia: input.IsUploadingMedia,
	})

	events := rec.Events
	if events == nil {
		events = []editorstate.Event{}
	}
	return &EditorState{
		PostID:     postID,
		RevisionID: edited.ID,
		State:      ctx.Snapshot(),
		Events:     events,
	}, nil
}
