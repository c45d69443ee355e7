// Package queue hands post ids that need syncing to the background worker.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmpty is returned by Dequeue when no id arrived before the timeout.
var ErrEmpty = errors.New("queue: empty")

// SyncQueue is a de-duplicating FIFO of chain ids. An id is enqueued at
// most once until it is dequeued again.
type SyncQueue interface {
	Enqueue(ctx context.Context, postID uuid.UUID) error
	Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, error)
	Len(ctx context.Context) (int64, error)
}
