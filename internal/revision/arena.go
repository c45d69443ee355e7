package revision

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotRoot is returned when a chain operation is called on a node that has an original.
	ErrNotRoot = errors.New("revision: must be called on the original")
	// ErrInvalidBoundary is returned when the prune boundary is not a revision reachable from the original.
	ErrInvalidBoundary = errors.New("revision: boundary is not a revision of the original")
	// ErrUnknownRevision is returned for identifiers the arena does not hold.
	ErrUnknownRevision = errors.New("revision: unknown revision")
	// ErrDuplicateRevision is returned when inserting an identifier that already exists.
	ErrDuplicateRevision = errors.New("revision: duplicate revision")
	// ErrCorruptChain is returned when links point outside the arena or form a cycle.
	ErrCorruptChain = errors.New("revision: chain links are inconsistent")
)

// Node is one version of a post. Original points back to the previous node
// in the chain and Revision forward to the next one; uuid.Nil means none.
type Node struct {
	ID             uuid.UUID
	Title          string
	Content        string
	Status         Status
	DateCreated    *time.Time
	HasRemote      bool
	SyncNeeded     bool
	ContentChanged bool
	Deleted        bool
	Original       uuid.UUID
	Revision       uuid.UUID
	UpdatedAt      time.Time
}

// IsOriginal reports whether the node is the root of its chain.
func (n Node) IsOriginal() bool {
	return n.Original == uuid.Nil
}

// HasRevision reports whether a newer node follows this one.
func (n Node) HasRevision() bool {
	return n.Revision != uuid.Nil
}

// Arena holds revision nodes indexed by ID. The arena owns the chain
// topology: callers receive copies and can only change links through the
// arena's operations. An Arena is not safe for concurrent use.
type Arena struct {
	nodes map[uuid.UUID]*Node
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: make(map[uuid.UUID]*Node)}
}

// Len returns the number of live nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Insert stores a node exactly as given, links included. It is meant for
// rebuilding chains from storage; call Verify once every node is inserted.
func (a *Arena) Insert(n Node) error {
	if n.ID == uuid.Nil {
		return ErrUnknownRevision
	}
	if _, exists := a.nodes[n.ID]; exists {
		return ErrDuplicateRevision
	}
	stored := n
	a.nodes[n.ID] = &stored
	return nil
}

// NewOriginal stores n as the root of a new chain.
func (a *Arena) NewOriginal(n Node) (Node, error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Original = uuid.Nil
	n.Revision = uuid.Nil
	n.Deleted = false
	if err := a.Insert(n); err != nil {
		return Node{}, err
	}
	return n, nil
}

// Node returns a copy of the node with the given id.
func (a *Arena) Node(id uuid.UUID) (Node, error) {
	n, ok := a.nodes[id]
	if !ok {
		return Node{}, ErrUnknownRevision
	}
	return *n, nil
}

// Update applies fn to a copy of the node and stores the result. Identity
// and links are restored after fn runs.
func (a *Arena) Update(id uuid.UUID, fn func(n *Node)) (Node, error) {
	current, ok := a.nodes[id]
	if !ok {
		return Node{}, ErrUnknownRevision
	}

	next := *current
	fn(&next)
	next.ID = current.ID
	next.Original = current.Original
	next.Revision = current.Revision
	next.Deleted = current.Deleted

	*current = next
	return next, nil
}

// CreateRevision appends a copy of the node as its newer revision. If the
// node already has a revision, that revision is returned unchanged.
func (a *Arena) CreateRevision(id uuid.UUID) (Node, error) {
	source, ok := a.nodes[id]
	if !ok {
		return Node{}, ErrUnknownRevision
	}
	if source.HasRevision() {
		return a.Node(source.Revision)
	}

	rev := *source
	rev.ID = uuid.New()
	rev.Original = source.ID
	rev.Revision = uuid.Nil
	rev.SyncNeeded = false
	rev.Deleted = false

	a.nodes[rev.ID] = &rev
	source.Revision = rev.ID
	return rev, nil
}

// Original follows Original links until it reaches the root of the chain.
// Calling it on a root returns the root.
func (a *Arena) Original(id uuid.UUID) (Node, error) {
	current, ok := a.nodes[id]
	if !ok {
		return Node{}, ErrUnknownRevision
	}

	for hops := 0; !current.IsOriginal(); hops++ {
		if hops >= len(a.nodes) {
			return Node{}, ErrCorruptChain
		}
		prev, ok := a.nodes[current.Original]
		if !ok {
			return Node{}, ErrCorruptChain
		}
		current = prev
	}
	return *current, nil
}

// IsNewDraft reports whether the post never reached the remote and has no
// revision waiting to be synced.
func (a *Arena) IsNewDraft(rootID uuid.UUID) (bool, error) {
	root, err := a.root(rootID)
	if err != nil {
		return false, err
	}

	latest, err := a.LatestRevisionNeedingSync(rootID)
	if err != nil {
		return false, err
	}
	return !root.HasRemote && latest == nil, nil
}

// AllRevisions returns the chain starting at the root, oldest first.
func (a *Arena) AllRevisions(rootID uuid.UUID) ([]Node, error) {
	root, err := a.root(rootID)
	if err != nil {
		return nil, err
	}

	chain, err := a.walk(root)
	if err != nil {
		return nil, err
	}

	out := make([]Node, len(chain))
	for i, n := range chain {
		out[i] = *n
	}
	return out, nil
}

// Latest returns the newest node of the chain, which is the root itself
// when there are no revisions.
func (a *Arena) Latest(rootID uuid.UUID) (Node, error) {
	chain, err := a.AllRevisions(rootID)
	if err != nil {
		return Node{}, err
	}
	return chain[len(chain)-1], nil
}

// LatestRevisionNeedingSync returns the newest revision marked as needing
// sync, or nil if there is none. The root itself never qualifies.
func (a *Arena) LatestRevisionNeedingSync(rootID uuid.UUID) (*Node, error) {
	root, err := a.root(rootID)
	if err != nil {
		return nil, err
	}

	chain, err := a.walk(root)
	if err != nil {
		return nil, err
	}

	for i := len(chain) - 1; i >= 0; i-- {
		if !chain[i].SyncNeeded {
			continue
		}
		if i == 0 {
			return nil, nil
		}
		found := *chain[i]
		return &found, nil
	}
	return nil, nil
}

// DeleteSyncedRevisions removes every revision after the root up to and
// including latest, then links the root directly to the revision that
// followed latest. The removed nodes are returned marked as deleted.
// Nothing is modified when an error is returned.
func (a *Arena) DeleteSyncedRevisions(rootID, latestID uuid.UUID) ([]Node, error) {
	root, err := a.root(rootID)
	if err != nil {
		return nil, err
	}

	chain, err := a.walk(root)
	if err != nil {
		return nil, err
	}

	boundary := -1
	for i := 1; i < len(chain); i++ {
		if chain[i].ID == latestID {
			boundary = i
			break
		}
	}
	if boundary < 0 {
		return nil, ErrInvalidBoundary
	}

	tail := chain[boundary].Revision

	removed := make([]Node, 0, boundary)
	for _, n := range chain[1 : boundary+1] {
		n.Deleted = true
		removed = append(removed, *n)
		delete(a.nodes, n.ID)
	}

	root.Revision = tail
	if tail != uuid.Nil {
		a.nodes[tail].Original = root.ID
	}

	return removed, nil
}

// Verify checks that the chain rooted at rootID is acyclic and that every
// forward link is mirrored by the matching back link.
func (a *Arena) Verify(rootID uuid.UUID) error {
	root, err := a.root(rootID)
	if err != nil {
		return err
	}

	chain, err := a.walk(root)
	if err != nil {
		return err
	}

	for i := 1; i < len(chain); i++ {
		if chain[i].Original != chain[i-1].ID {
			return ErrCorruptChain
		}
	}
	return nil
}

func (a *Arena) root(id uuid.UUID) (*Node, error) {
	n, ok := a.nodes[id]
	if !ok {
		return nil, ErrUnknownRevision
	}
	if !n.IsOriginal() {
		return nil, ErrNotRoot
	}
	return n, nil
}

func (a *Arena) walk(root *Node) ([]*Node, error) {
	chain := []*Node{root}
	current := root
	for current.HasRevision() {
		if len(chain) > len(a.nodes) {
			return nil, ErrCorruptChain
		}
		next, ok := a.nodes[current.Revision]
		if !ok {
			return nil, ErrCorruptChain
		}
		chain = append(chain, next)
		current = next
	}
	return chain, nil
}
