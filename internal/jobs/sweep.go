package jobs

import (
	"context"
	"time"

	"github.com/draftsync/internal/queue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PendingLister lists chains holding revisions that need sync.
type PendingLister interface {
	PendingChains() ([]uuid.UUID, error)
}

// SweepTask re-enqueues chains whose sync is still pending, covering failed
// uploads and enqueues lost on restart.
type SweepTask struct {
	posts    PendingLister
	queue    queue.SyncQueue
	schedule string
}

func NewSweepTask(interval time.Duration, posts PendingLister, q queue.SyncQueue) *SweepTask {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweepTask{posts: posts, queue: q, schedule: "@every " + interval.String()}
}

func (s *SweepTask) Name() string {
	return "sync_sweep"
}

func (s *SweepTask) Schedule() string {
	return s.schedule
}

func (s *SweepTask) Run() {
	ids, err := s.posts.PendingChains()
	if err != nil {
		logrus.Errorf("sync sweep: list pending chains: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, id); err != nil {
			logrus.Errorf("sync sweep: enqueue %s: %v", id, err)
			return
		}
	}
	if len(ids) > 0 {
		logrus.Infof("sync sweep enqueued %d posts", len(ids))
	}
}
