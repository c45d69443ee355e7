package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/draftsync/internal/queue"
	"github.com/draftsync/internal/service"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Syncer syncs one chain.
type Syncer interface {
	Sync(ctx context.Context, postID uuid.UUID) (*service.SyncResult, error)
}

// SyncWorker drains the sync queue. Failed syncs are logged and not retried;
// the sweep task enqueues chains that still have pending revisions.
type SyncWorker struct {
	queue       queue.SyncQueue
	syncer      Syncer
	pollTimeout time.Duration
	retryDelay  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncWorker creates a worker polling q every pollTimeout.
func NewSyncWorker(q queue.SyncQueue, syncer Syncer, pollTimeout time.Duration) *SyncWorker {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &SyncWorker{queue: q, syncer: syncer, pollTimeout: pollTimeout, retryDelay: time.Second}
}

// Run processes the queue until ctx is cancelled or Stop is called.
func (w *SyncWorker) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	defer close(done)
	defer cancel()

	logrus.Info("sync worker started")
	for {
		if ctx.Err() != nil {
			logrus.Info("sync worker stopped")
			return
		}

		postID, err := w.queue.Dequeue(ctx, w.pollTimeout)
		switch {
		case err == nil:
			w.process(ctx, postID)
		case errors.Is(err, queue.ErrEmpty):
		case ctx.Err() != nil:
		default:
			logrus.Errorf("sync queue dequeue failed: %v", err)
			select {
			case <-time.After(w.retryDelay):
			case <-ctx.Done():
			}
		}
	}
}

// Stop cancels Run and waits for the current sync to finish.
func (w *SyncWorker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *SyncWorker) process(ctx context.Context, postID uuid.UUID) {
	log := logrus.WithField("post_id", postID)

	result, err := w.syncer.Sync(ctx, postID)
	switch {
	case err == nil:
		log.WithField("version", result.Publication.Version).Info("post synced")
	case errors.Is(err, service.ErrNothingToSync), errors.Is(err, service.ErrSyncInProgress):
		log.Debug("nothing to sync")
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrStaleSync):
		log.Warnf("sync skipped: %v", err)
	default:
		log.Errorf("sync failed: %v", err)
	}
}
