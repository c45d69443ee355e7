package editorstate

import (
	"testing"
	"time"

	"github.com/draftsync/internal/revision"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func statusPtr(s revision.Status) *revision.Status {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestSyncPublishingPolicy_Action(t *testing.T) {
	future := timePtr(testNow.Add(time.Hour))
	past := timePtr(testNow.Add(-time.Hour))

	tests := []struct {
		name       string
		original   *revision.Status
		date       *time.Time
		canPublish bool
		want       Action
	}{
		{name: "new post", original: nil, canPublish: true, want: ActionPublish},
		{name: "draft without date", original: statusPtr(revision.StatusDraft), canPublish: true, want: ActionPublish},
		{name: "draft dated in the past", original: statusPtr(revision.StatusDraft), date: past, canPublish: true, want: ActionPublish},
		{name: "draft dated now", original: statusPtr(revision.StatusDraft), date: timePtr(testNow), canPublish: true, want: ActionPublish},
		{name: "draft dated in the future", original: statusPtr(revision.StatusDraft), date: future, canPublish: true, want: ActionSchedule},
		{name: "draft by contributor", original: statusPtr(revision.StatusDraft), canPublish: false, want: ActionSubmitForReview},
		{name: "new post by contributor dated in the future", original: nil, date: future, canPublish: false, want: ActionSubmitForReview},
		{name: "pending by publisher", original: statusPtr(revision.StatusPending), canPublish: true, want: ActionPublish},
		{name: "pending by publisher in the future", original: statusPtr(revision.StatusPending), date: future, canPublish: true, want: ActionSchedule},
		{name: "pending by contributor", original: statusPtr(revision.StatusPending), canPublish: false, want: ActionUpdate},
		{name: "published", original: statusPtr(revision.StatusPublish), date: future, canPublish: true, want: ActionUpdate},
		{name: "published by contributor", original: statusPtr(revision.StatusPublish), canPublish: false, want: ActionUpdate},
		{name: "private", original: statusPtr(revision.StatusPrivate), canPublish: true, want: ActionUpdate},
		{name: "scheduled", original: statusPtr(revision.StatusScheduled), date: future, canPublish: true, want: ActionUpdate},
		{name: "trashed", original: statusPtr(revision.StatusTrash), canPublish: true, want: ActionUpdate},
		{name: "deleted", original: statusPtr(revision.StatusDeleted), canPublish: false, want: ActionUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SyncPublishingPolicy{}.Action(State{
				OriginalStatus: tt.original,
				PublishDate:    tt.date,
				UserCanPublish: tt.canPublish,
				Now:            testNow,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSyncPublishingPolicy_ActionAllowed(t *testing.T) {
	p := SyncPublishingPolicy{}

	for _, action := range []Action{ActionPublish, ActionSchedule, ActionSubmitForReview} {
		assert.False(t, p.ActionAllowed(State{Action: action}), action.String())
		assert.True(t, p.ActionAllowed(State{Action: action, Flags: Flags{HasContent: true}}), action.String())
		assert.True(t, p.ActionAllowed(State{Action: action, Flags: Flags{HasContent: true, IsBeingPublished: true}}), action.String())
	}

	assert.False(t, p.ActionAllowed(State{Action: ActionUpdate, Flags: Flags{HasContent: true}}))
	assert.True(t, p.ActionAllowed(State{Action: ActionUpdate, Flags: Flags{HasContent: true, HasChanges: true}}))
	assert.False(t, p.ActionAllowed(State{Action: ActionUpdate, Flags: Flags{HasContent: true, HasChanges: true, IsBeingPublished: true}}))
	assert.True(t, p.ActionAllowed(State{Action: ActionUpdate, Flags: Flags{HasContent: true, HasChanges: true, IsUploadingMedia: true}}))

	_, ok := p.SecondaryAction(State{Action: ActionPublish, Flags: Flags{HasContent: true}})
	assert.False(t, ok)
}

func TestLegacyPolicy_Action(t *testing.T) {
	tests := []struct {
		name       string
		original   *revision.Status
		current    revision.Status
		canPublish bool
		want       Action
	}{
		{name: "new draft", current: revision.StatusDraft, canPublish: true, want: ActionPublish},
		{name: "new draft by contributor", current: revision.StatusDraft, canPublish: false, want: ActionSubmitForReview},
		{name: "existing draft", original: statusPtr(revision.StatusDraft), current: revision.StatusDraft, canPublish: true, want: ActionUpdate},
		{name: "pending", original: statusPtr(revision.StatusDraft), current: revision.StatusPending, canPublish: true, want: ActionSave},
		{name: "publishing a draft", original: statusPtr(revision.StatusDraft), current: revision.StatusPublish, canPublish: true, want: ActionPublish},
		{name: "published", original: statusPtr(revision.StatusPublish), current: revision.StatusPublish, canPublish: true, want: ActionUpdate},
		{name: "private draft", current: revision.StatusPrivate, canPublish: true, want: ActionPublish},
		{name: "private", original: statusPtr(revision.StatusPrivate), current: revision.StatusPrivate, canPublish: true, want: ActionUpdate},
		{name: "scheduling a draft", original: statusPtr(revision.StatusDraft), current: revision.StatusScheduled, canPublish: true, want: ActionSchedule},
		{name: "scheduling by contributor", current: revision.StatusScheduled, canPublish: false, want: ActionSubmitForReview},
		{name: "scheduled", original: statusPtr(revision.StatusScheduled), current: revision.StatusScheduled, canPublish: true, want: ActionUpdate},
		{name: "trashed", original: statusPtr(revision.StatusPublish), current: revision.StatusTrash, canPublish: true, want: ActionSave},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := tt.current
			got := LegacyPolicy{}.Action(State{
				OriginalStatus: tt.original,
				CurrentStatus:  &current,
				UserCanPublish: tt.canPublish,
				Now:            testNow,
			})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLegacyPolicy_ActionAllowedWaitsForMedia(t *testing.T) {
	p := LegacyPolicy{}
	flags := Flags{HasContent: true, HasChanges: true, IsUploadingMedia: true}

	assert.False(t, p.ActionAllowed(State{Action: ActionUpdate, Flags: flags}))
	assert.True(t, p.ActionAllowed(State{Action: ActionPublish, Flags: flags}))
	assert.False(t, p.ActionAllowed(State{Action: ActionPublish, Flags: Flags{HasContent: true}}))
}

func TestLegacyPolicy_SecondaryAction(t *testing.T) {
	p := LegacyPolicy{}
	draft := statusPtr(revision.StatusDraft)

	got, ok := p.SecondaryAction(State{Action: ActionPublish, Flags: Flags{HasContent: true}, Now: testNow})
	assert.True(t, ok)
	assert.Equal(t, ActionSaveAsDraft, got)

	got, ok = p.SecondaryAction(State{Action: ActionUpdate, OriginalStatus: draft, Flags: Flags{HasContent: true}, Now: testNow})
	assert.True(t, ok)
	assert.Equal(t, ActionPublish, got)

	_, ok = p.SecondaryAction(State{Action: ActionPublish, Now: testNow})
	assert.False(t, ok, "hidden without content")

	_, ok = p.SecondaryAction(State{Action: ActionUpdate, OriginalStatus: statusPtr(revision.StatusPublish), Flags: Flags{HasContent: true}, Now: testNow})
	assert.False(t, ok, "hidden for live posts")

	_, ok = p.SecondaryAction(State{
		Action:        ActionUpdate,
		CurrentStatus: draft,
		PublishDate:   timePtr(testNow.Add(2 * time.Minute)),
		Flags:         Flags{HasContent: true},
		Now:           testNow,
	})
	assert.False(t, ok, "hidden for future dated drafts")

	_, ok = p.SecondaryAction(State{
		Action:        ActionUpdate,
		CurrentStatus: draft,
		PublishDate:   timePtr(testNow.Add(30 * time.Second)),
		Flags:         Flags{HasContent: true},
		Now:           testNow,
	})
	assert.True(t, ok, "same minute is not in the future")
}

func TestNewPolicy(t *testing.T) {
	assert.IsType(t, SyncPublishingPolicy{}, NewPolicy(true))
	assert.IsType(t, LegacyPolicy{}, NewPolicy(false))
}
