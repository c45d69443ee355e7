package queue

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
)

var _ SyncQueue = (*MemoryQueue)(nil)

// MemoryQueue is an in-process SyncQueue used when no redis is configured.
type MemoryQueue struct {
	mu      sync.Mutex
	items   []uuid.UUID
	pending mapset.Set[uuid.UUID]
	ready   chan struct{}
}

// NewMemoryQueue returns an empty queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		pending: mapset.NewThreadUnsafeSet[uuid.UUID](),
		ready:   make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, postID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.pending.Add(postID) {
		return nil
	}
	q.items = append(q.items, postID)

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if id, ok := q.pop(); ok {
			return id, nil
		}

		select {
		case <-q.ready:
		case <-timer.C:
			return uuid.Nil, ErrEmpty
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
}

func (q *MemoryQueue) Len(context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

func (q *MemoryQueue) pop() (uuid.UUID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return uuid.Nil, false
	}
	id := q.items[0]
	q.items = q.items[1:]
	q.pending.Remove(id)

	// wake another waiter if items remain
	if len(q.items) > 0 {
		select {
		case q.ready <- struct{}{}:
		default:
		}
	}
	return id, true
}
