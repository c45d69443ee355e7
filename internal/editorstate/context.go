package editorstate

import (
	"time"

	"github.com/draftsync/internal/revision"
)

// Options configure a new Context.
type Options struct {
	// OriginalStatus is the status last confirmed by the server, nil for posts
	// that were never uploaded.
	OriginalStatus *revision.Status
	UserCanPublish bool
	PublishDate    *time.Time
	// Action overrides the initial action derived from the other options.
	Action   *Action
	Policy   Policy
	Observer Observer
	Now      func() time.Time
}

// Context holds the editor publishing state for one edit session. It is
// driven by editor events from a single goroutine and is not safe for
// concurrent use.
type Context struct {
	policy   Policy
	observer Observer
	now      func() time.Time

	originalStatus *revision.Status
	currentStatus  *revision.Status
	publishDate    *time.Time
	userCanPublish bool
	flags          Flags

	action  Action
	allowed bool
}

// NewContext builds a Context. The observer is not notified of the initial
// values.
func NewContext(opts Options) *Context {
	c := &Context{
		policy:         opts.Policy,
		observer:       opts.Observer,
		now:            opts.Now,
		originalStatus: opts.OriginalStatus,
		currentStatus:  opts.OriginalStatus,
		publishDate:    opts.PublishDate,
		userCanPublish: opts.UserCanPublish,
	}
	if c.policy == nil {
		c.policy = SyncPublishingPolicy{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	if c.now == nil {
		c.now = time.Now
	}

	c.action = c.policy.Action(c.state())
	if opts.Action != nil {
		c.action = *opts.Action
	}
	c.allowed = c.policy.ActionAllowed(c.state())
	return c
}

// ForPost builds a Context for editing the chain whose root is original,
// where edited is the revision open in the editor. The original status is
// only trusted once the server has confirmed the post.
func ForPost(original, edited revision.Node, userCanPublish bool, policy Policy, observer Observer) *Context {
	var status *revision.Status
	if original.HasRemote && original.Status != "" {
		s := original.Status
		status = &s
	}

	return NewContext(Options{
		OriginalStatus: status,
		UserCanPublish: userCanPublish,
		PublishDate:    edited.DateCreated,
		Policy:         policy,
		Observer:       observer,
	})
}

// Action returns the current action.
func (c *Context) Action() Action {
	return c.action
}

// SetAction forces the current action, for flows such as homepage editing
// that pick it explicitly.
func (c *Context) SetAction(action Action) {
	c.setAction(action)
}

// UpdatedPostStatus is called when the post status changed due to a remote operation.
func (c *Context) UpdatedPostStatus(status revision.Status) {
	c.currentStatus = &status
	c.setAction(c.policy.Action(c.state()))
}

// UpdatedPublishDate is called when a publish date is picked, or with nil for
// publish immediately.
func (c *Context) UpdatedPublishDate(date *time.Time) {
	c.publishDate = date
	c.setAction(c.policy.Action(c.state()))
}

// UpdatedHasContent is called whenever the title or body becomes empty or non-empty.
func (c *Context) UpdatedHasContent(hasContent bool) {
	c.flags.HasContent = hasContent
	c.refreshAllowed()
}

// UpdatedHasChanges is called whenever the title or body was changed.
func (c *Context) UpdatedHasChanges(hasChanges bool) {
	c.flags.HasChanges = hasChanges
	c.refreshAllowed()
}

// UpdatedIsBeingPublished is called when publishing starts or finishes.
func (c *Context) UpdatedIsBeingPublished(isBeingPublished bool) {
	c.flags.IsBeingPublished = isBeingPublished
	c.refreshAllowed()
}

// UpdatedIsUploadingMedia is called when a media upload starts or stops.
func (c *Context) UpdatedIsUploadingMedia(isUploadingMedia bool) {
	c.flags.IsUploadingMedia = isUploadingMedia
	c.refreshAllowed()
}

// ApplyFlags sets every flag at once, notifying at most once for the
// enabled state.
func (c *Context) ApplyFlags(flags Flags) {
	c.flags = flags
	c.refreshAllowed()
}

// IsPublishButtonEnabled reports whether the current action may run.
func (c *Context) IsPublishButtonEnabled() bool {
	return c.allowed
}

// IsUploadingMedia reports the last media upload state.
func (c *Context) IsUploadingMedia() bool {
	return c.flags.IsUploadingMedia
}

// PublishButtonText returns the label for the current action.
func (c *Context) PublishButtonText() string {
	return c.action.Label()
}

// SecondaryPublishButtonAction returns the secondary action, if the policy shows one.
func (c *Context) SecondaryPublishButtonAction() (Action, bool) {
	return c.policy.SecondaryAction(c.state())
}

// Snapshot is a serialisable view of the context.
type Snapshot struct {
	Action           Action  `json:"action"`
	Label            string  `json:"label"`
	Question         string  `json:"question"`
	Enabled          bool    `json:"enabled"`
	DismissesEditor  bool    `json:"dismisses_editor"`
	SecondaryAction  *Action `json:"secondary_action,omitempty"`
	SecondaryLabel   string  `json:"secondary_label,omitempty"`
	IsUploadingMedia bool    `json:"is_uploading_media"`
}

// Snapshot returns the current state.
func (c *Context) Snapshot() Snapshot {
	snap := Snapshot{
		Action:           c.action,
		Label:            c.action.Label(),
		Question:         c.action.QuestionLabel(),
		Enabled:          c.allowed,
		DismissesEditor:  c.action.DismissesEditor(),
		IsUploadingMedia: c.flags.IsUploadingMedia,
	}
	if secondary, ok := c.SecondaryPublishButtonAction(); ok {
		snap.SecondaryAction = &secondary
		snap.SecondaryLabel = secondary.Label()
	}
	return snap
}

func (c *Context) state() State {
	return State{
		OriginalStatus: c.originalStatus,
		CurrentStatus:  c.currentStatus,
		PublishDate:    c.publishDate,
		UserCanPublish: c.userCanPublish,
		Flags:          c.flags,
		Action:         c.action,
		Now:            c.now(),
	}
}

func (c *Context) setAction(action Action) {
	if action == c.action {
		return
	}
	c.action = action
	c.observer.ActionChanged(action)
	c.refreshAllowed()
}

func (c *Context) refreshAllowed() {
	allowed := c.policy.ActionAllowed(c.state())
	if allowed == c.allowed {
		return
	}
	c.allowed = allowed
	c.observer.ActionAllowedChanged(allowed)
}
