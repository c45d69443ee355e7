package revision

import (
	"errors"
	"strings"
)

// Status is the lifecycle status of a post revision.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPrivate   Status = "private"
	StatusPublish   Status = "publish"
	StatusScheduled Status = "future"
	StatusTrash     Status = "trash"
	StatusDeleted   Status = "deleted"
)

// ErrInvalidStatus is returned by ParseStatus for values outside the known set.
var ErrInvalidStatus = errors.New("invalid post status")

// ParseStatus converts a raw status string, accepting "scheduled" as an alias of "future".
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusPending, StatusPrivate, StatusPublish, StatusScheduled, StatusTrash, StatusDeleted:
		return s, nil
	case "scheduled":
		return StatusScheduled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Title returns the display name of the status. Unknown statuses are returned as is.
func (s Status) Title() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPending:
		return "Pending review"
	case StatusPrivate:
		return "Private"
	case StatusPublish:
		return "Published"
	case StatusTrash:
		return "Trashed"
	case StatusScheduled:
		return "Scheduled"
	case StatusDeleted:
		return "Deleted"
	default:
		return string(s)
	}
}

// IsLive reports whether the status means the post is visible on the site,
// or will be without further action.
func (s Status) IsLive() bool {
	return s == StatusPublish || s == StatusPrivate || s == StatusScheduled
}
