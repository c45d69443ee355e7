package revision

import (
	"time"

	"github.com/google/uuid"
)

// UpdateParameters lists the fields that differ between a revision and the
// node it was created from. Nil fields are unchanged.
type UpdateParameters struct {
	Title       *string    `json:"title,omitempty"`
	Content     *string    `json:"content,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	DateCreated *time.Time `json:"date_created,omitempty"`
	ClearDate   bool       `json:"clear_date,omitempty"`
}

// IsEmpty reports whether no field changed.
func (p UpdateParameters) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Status == nil && p.DateCreated == nil && !p.ClearDate
}

// Apply writes the set fields onto n.
func (p UpdateParameters) Apply(n *Node) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.ClearDate {
		n.DateCreated = nil
	} else if p.DateCreated != nil {
		date := *p.DateCreated
		n.DateCreated = &date
	}
}

// ContentDiffers reports whether the title or body differ.
func ContentDiffers(a, b Node) bool {
	return a.Title != b.Title || a.Content != b.Content
}

// Diff returns the parameters needed to turn from into to.
func Diff(from, to Node) UpdateParameters {
	var params UpdateParameters
	if from.Title != to.Title {
		title := to.Title
		params.Title = &title
	}
	if from.Content != to.Content {
		content := to.Content
		params.Content = &content
	}
	if from.Status != to.Status {
		status := to.Status
		params.Status = &status
	}

	switch {
	case to.DateCreated == nil && from.DateCreated != nil:
		params.ClearDate = true
	case to.DateCreated != nil && (from.DateCreated == nil || !from.DateCreated.Equal(*to.DateCreated)):
		date := *to.DateCreated
		params.DateCreated = &date
	}
	return params
}

// Changes returns the changes made in the revision compared to the node it
// was created from. A root has no changes.
func (a *Arena) Changes(id uuid.UUID) (UpdateParameters, error) {
	n, ok := a.nodes[id]
	if !ok {
		return UpdateParameters{}, ErrUnknownRevision
	}
	if n.IsOriginal() {
		return UpdateParameters{}, nil
	}
	prev, ok := a.nodes[n.Original]
	if !ok {
		return UpdateParameters{}, ErrCorruptChain
	}
	return Diff(*prev, *n), nil
}
