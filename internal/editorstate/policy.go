package editorstate

import (
	"time"

	"github.com/draftsync/internal/revision"
)

// Flags are the editor facts that decide whether the action is allowed.
type Flags struct {
	HasContent       bool `json:"has_content"`
	HasChanges       bool `json:"has_changes"`
	IsBeingPublished bool `json:"is_being_published"`
	IsUploadingMedia bool `json:"is_uploading_media"`
}

// State is the input a Policy derives its decisions from.
type State struct {
	OriginalStatus *revision.Status
	CurrentStatus  *revision.Status
	PublishDate    *time.Time
	UserCanPublish bool
	Flags          Flags
	Action         Action
	Now            time.Time
}

// Policy computes the editor action and whether it may run.
type Policy interface {
	Action(s State) Action
	ActionAllowed(s State) bool
	SecondaryAction(s State) (Action, bool)
}

// NewPolicy returns SyncPublishingPolicy when syncPublishing is set and
// LegacyPolicy otherwise.
func NewPolicy(syncPublishing bool) Policy {
	if syncPublishing {
		return SyncPublishingPolicy{}
	}
	return LegacyPolicy{}
}

// SyncPublishingPolicy derives the action from the status last confirmed
// by the server.
type SyncPublishingPolicy struct{}

func (SyncPublishingPolicy) Action(s State) Action {
	makePublishAction := func() Action {
		if !s.UserCanPublish {
			return ActionSubmitForReview
		}
		if s.PublishDate == nil {
			return ActionPublish
		}
		if s.PublishDate.After(s.Now) {
			return ActionSchedule
		}
		return ActionPublish
	}

	original := revision.StatusDraft
	if s.OriginalStatus != nil {
		original = *s.OriginalStatus
	}

	switch original {
	case revision.StatusDraft:
		return makePublishAction()
	case revision.StatusPending:
		if s.UserCanPublish {
			return makePublishAction()
		}
		// contributor updating their pending post
		return ActionUpdate
	default:
		// live posts are only ever updated; trashed and deleted posts should not be editable
		return ActionUpdate
	}
}

func (SyncPublishingPolicy) ActionAllowed(s State) bool {
	switch s.Action {
	case ActionSchedule, ActionPublish, ActionSubmitForReview:
		return s.Flags.HasContent
	case ActionUpdate:
		return s.Flags.HasContent && s.Flags.HasChanges && !s.Flags.IsBeingPublished
	default:
		return false
	}
}

func (SyncPublishingPolicy) SecondaryAction(State) (Action, bool) {
	return 0, false
}

// LegacyPolicy derives the action from the current local status.
//
// Deprecated: kept for clients that have not moved to sync publishing.
type LegacyPolicy struct{}

func (LegacyPolicy) Action(s State) Action {
	current := revision.StatusDraft
	if s.CurrentStatus != nil {
		current = *s.CurrentStatus
	}
	newOrDraft := s.OriginalStatus == nil || *s.OriginalStatus == revision.StatusDraft

	publishOr := func(fallback Action) Action {
		if !s.UserCanPublish {
			return ActionSubmitForReview
		}
		return fallback
	}

	switch current {
	case revision.StatusDraft:
		if s.OriginalStatus == nil {
			return publishOr(ActionPublish)
		}
		return ActionUpdate
	case revision.StatusPending:
		return ActionSave
	case revision.StatusPublish, revision.StatusPrivate:
		if newOrDraft {
			return publishOr(ActionPublish)
		}
		return ActionUpdate
	case revision.StatusScheduled:
		if newOrDraft {
			return publishOr(ActionSchedule)
		}
		return ActionUpdate
	default:
		return ActionSave
	}
}

func (LegacyPolicy) ActionAllowed(s State) bool {
	f := s.Flags
	return f.HasContent && f.HasChanges && !f.IsBeingPublished && (s.Action.IsAsync() || !f.IsUploadingMedia)
}

func (LegacyPolicy) SecondaryAction(s State) (Action, bool) {
	if !s.Flags.HasContent {
		return 0, false
	}
	if s.OriginalStatus != nil && s.OriginalStatus.IsLive() {
		return 0, false
	}
	// a draft dated in the future cannot be published now
	if s.CurrentStatus != nil && *s.CurrentStatus == revision.StatusDraft && isFutureDated(s.PublishDate, s.Now) {
		return 0, false
	}
	return s.Action.secondary()
}

func isFutureDated(date *time.Time, now time.Time) bool {
	if date == nil {
		return false
	}
	return now.Truncate(time.Minute).Before(date.Truncate(time.Minute))
}
