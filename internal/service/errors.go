package service

import "errors"

var (
	ErrPostNotFound        = errors.New("post not found")
	ErrRevisionNotFound    = errors.New("revision not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPublishState = errors.New("post is missing required fields for publishing")
	// ErrRevisionFrozen is returned when editing a node that is not the open
	// tail revision of its chain, or one already submitted for sync.
	ErrRevisionFrozen = errors.New("revision is not editable")
	ErrNothingToSync  = errors.New("no revision needs sync")
	// ErrStaleSync is returned when the uploaded revision was removed from the
	// chain while the upload was in flight.
	ErrStaleSync = errors.New("revision left the chain during sync")
	// ErrSyncInProgress is returned when the revision picked for sync is
	// already being uploaded by another call.
	ErrSyncInProgress = errors.New("revision sync already in progress")
)
