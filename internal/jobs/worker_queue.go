package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
	"github.com/vytor/visionize/internal/worker"
)

// ErrBacklogFull is returned when a session has more unwritten activities
// than the queue is willing to hold.
var ErrBacklogFull = errors.New("jobs: activity backlog full")

const (
	defaultBatchSize     = 32
	defaultFlushInterval = 2 * time.Second
)

// WorkerQueue implements JobQueue using a worker pool. Activities are held
// per session and written as one batch when the batch is full, when a
// non-tone entry arrives, when the flush interval elapses or when the
// session closes.
type WorkerQueue struct {
	pool         *worker.Pool
	activityRepo repository.ActivityRepository
	sessionRepo  repository.SessionRepository
	log          *logger.Logger

	batchSize     int
	flushInterval time.Duration

	mu      sync.Mutex
	pending map[string][]models.Activity
	timer   *time.Timer
}

var _ JobQueue = (*WorkerQueue)(nil)

// Option tweaks a WorkerQueue.
type Option func(*WorkerQueue)

func WithBatchSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.batchSize = n
		}
	}
}

func WithFlushInterval(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.flushInterval = d
		}
	}
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	pool *worker.Pool,
	activityRepo repository.ActivityRepository,
	sessionRepo repository.SessionRepository,
	opts ...Option,
) *WorkerQueue {
	q := &WorkerQueue{
		pool:          pool,
		activityRepo:  activityRepo,
		sessionRepo:   sessionRepo,
		log:           logger.Default().WithPrefix("activity-queue"),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
		pending:       make(map[string][]models.Activity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *WorkerQueue) maxPending() int {
	return q.batchSize * 8
}

// EnqueueActivity buffers activity for its session. A pool that is full
// keeps the entries buffered for the next flush; only a stopped pool or an
// overgrown backlog loses them.
func (q *WorkerQueue) EnqueueActivity(activity models.Activity) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	buf := q.pending[activity.SessionID]
	if len(buf) >= q.maxPending() {
		return ErrBacklogFull
	}
	buf = append(buf, activity)
	q.pending[activity.SessionID] = buf

	if len(buf) >= q.batchSize || activity.Kind != models.ActivityTonePlayed {
		if err := q.flushLocked(activity.SessionID); err != nil && !errors.Is(err, worker.ErrQueueFull) {
			return err
		}
		return nil
	}
	q.armLocked()
	return nil
}

func (q *WorkerQueue) EnqueueSessionClosed(id string, lastSeen, closedAt time.Time, reason string) error {
	q.mu.Lock()
	if err := q.flushLocked(id); err != nil {
		q.log.Warn("failed to flush activities of session %s: %v", id, err)
	}
	q.mu.Unlock()

	return q.pool.Submit(&worker.CloseSessionJob{
		Repo:     q.sessionRepo,
		ID:       id,
		LastSeen: lastSeen,
		ClosedAt: closedAt,
		Reason:   reason,
	})
}

// Flush submits every buffered batch now. Call it before stopping the pool.
func (q *WorkerQueue) Flush() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	var errs []error
	for _, id := range q.sessionIDsLocked() {
		if err := q.flushLocked(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many activities are buffered and not yet submitted.
func (q *WorkerQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, buf := range q.pending {
		n += len(buf)
	}
	return n
}

func (q *WorkerQueue) flushLocked(id string) error {
	batch := q.pending[id]
	delete(q.pending, id)
	if len(batch) == 0 {
		return nil
	}

	err := q.pool.Submit(&worker.RecordActivitiesJob{
		Repo:       q.activityRepo,
		Activities: batch,
	})
	if errors.Is(err, worker.ErrQueueFull) {
		q.pending[id] = batch
		q.armLocked()
	}
	return err
}

func (q *WorkerQueue) sessionIDsLocked() []string {
	ids := make([]string, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	return ids
}

func (q *WorkerQueue) armLocked() {
	if q.timer != nil {
		return
	}
	q.timer = time.AfterFunc(q.flushInterval, q.flushDue)
}

func (q *WorkerQueue) flushDue() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.timer = nil
	for _, id := range q.sessionIDsLocked() {
		if err := q.flushLocked(id); err != nil {
			q.log.Warn("failed to flush activities of session %s: %v", id, err)
		}
	}
}
