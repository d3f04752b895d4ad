package jobs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/visionize/internal/jobs"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/testutil/mocks"
	"github.com/vytor/visionize/internal/worker"
)

func TestWorkerQueue_EnqueueActivity(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, activities, sessions)

	a := models.Activity{SessionID: "s1", Kind: models.ActivityQuizReset, CreatedAt: time.Now()}
	activities.On("Insert", mock.Anything, a).Return(int64(1), nil).Once()

	require.NoError(t, q.EnqueueActivity(a))
	pool.Stop()

	activities.AssertExpectations(t)
}

func TestWorkerQueue_EnqueueSessionClosed(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, activities, sessions)

	seen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	closed := seen.Add(time.Hour)
	sessions.On("Touch", mock.Anything, "s1", seen).Return(nil).Once()
	sessions.On("Close", mock.Anything, "s1", closed, "idle").Return(nil).Once()

	require.NoError(t, q.EnqueueSessionClosed("s1", seen, closed, "idle"))
	pool.Stop()

	sessions.AssertExpectations(t)
}

func TestWorkerQueue_StoppedPool(t *testing.T) {
	pool := worker.NewPool(1, 1)
	pool.Start(context.Background())
	pool.Stop()
	q := jobs.NewWorkerQueue(pool, new(mocks.MockActivityRepository), new(mocks.MockSessionRepository))

	assert.ErrorIs(t, q.EnqueueActivity(models.Activity{}), worker.ErrPoolStopped)
}

func tone(session string) models.Activity {
	return models.Activity{SessionID: session, Kind: models.ActivityTonePlayed, Tone: 1, CreatedAt: time.Now()}
}

func batchOf(n int, session string) interface{} {
	return mock.MatchedBy(func(batch []models.Activity) bool {
		if len(batch) != n {
			return false
		}
		for _, a := range batch {
			if a.SessionID != session {
				return false
			}
		}
		return true
	})
}

func TestWorkerQueue_TonesAreBatched(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, activities, new(mocks.MockSessionRepository),
		jobs.WithBatchSize(3), jobs.WithFlushInterval(time.Hour))

	activities.On("InsertBatch", mock.Anything, batchOf(3, "s1")).Return([]int64{1, 2, 3}, nil).Once()

	require.NoError(t, q.EnqueueActivity(tone("s1")))
	require.NoError(t, q.EnqueueActivity(tone("s1")))
	assert.Equal(t, 2, q.Pending())
	require.NoError(t, q.EnqueueActivity(tone("s1")))
	assert.Zero(t, q.Pending())
	pool.Stop()

	activities.AssertExpectations(t)
	activities.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestWorkerQueue_NonToneFlushesInOrder(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, activities, new(mocks.MockSessionRepository),
		jobs.WithBatchSize(32), jobs.WithFlushInterval(time.Hour))

	finished := models.Activity{SessionID: "s1", Kind: models.ActivityLessonFinished, Lesson: "first", CreatedAt: time.Now()}
	activities.On("InsertBatch", mock.Anything, mock.MatchedBy(func(batch []models.Activity) bool {
		return len(batch) == 3 &&
			batch[0].Kind == models.ActivityTonePlayed &&
			batch[1].Kind == models.ActivityTonePlayed &&
			batch[2].Kind == models.ActivityLessonFinished
	})).Return([]int64{1, 2, 3}, nil).Once()

	require.NoError(t, q.EnqueueActivity(tone("s1")))
	require.NoError(t, q.EnqueueActivity(tone("s1")))
	require.NoError(t, q.EnqueueActivity(finished))
	pool.Stop()

	activities.AssertExpectations(t)
}

func TestWorkerQueue_FlushIntervalWritesTones(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	pool := worker.NewPool(1, 4)
	pool.Start(context.Background())
	defer pool.Stop()
	q := jobs.NewWorkerQueue(pool, activities, new(mocks.MockSessionRepository),
		jobs.WithFlushInterval(10*time.Millisecond))

	written := make(chan struct{})
	activities.On("Insert", mock.Anything, mock.AnythingOfType("models.Activity")).
		Return(int64(1), nil).
		Run(func(mock.Arguments) { close(written) }).
		Once()

	require.NoError(t, q.EnqueueActivity(tone("s1")))
	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("buffered tone was never written")
	}
	assert.Zero(t, q.Pending())
}

func TestWorkerQueue_SessionCloseFlushesOnlyThatSession(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	pool := worker.NewPool(1, 8)
	pool.Start(context.Background())
	q := jobs.NewWorkerQueue(pool, activities, sessions, jobs.WithFlushInterval(time.Hour))

	seen := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	activities.On("InsertBatch", mock.Anything, batchOf(2, "s1")).Return([]int64{1, 2}, nil).Once()
	sessions.On("Touch", mock.Anything, "s1", seen).Return(nil).Once()
	sessions.On("Close", mock.Anything, "s1", seen, "deleted").Return(nil).Once()

	require.NoError(t, q.EnqueueActivity(tone("s1")))
	require.NoError(t, q.EnqueueActivity(tone("s1")))
	require.NoError(t, q.EnqueueActivity(tone("s2")))
	require.NoError(t, q.EnqueueSessionClosed("s1", seen, seen, "deleted"))
	assert.Equal(t, 1, q.Pending())

	activities.On("Insert", mock.Anything, mock.MatchedBy(func(a models.Activity) bool {
		return a.SessionID == "s2"
	})).Return(int64(3), nil).Once()
	require.NoError(t, q.Flush())
	pool.Stop()

	activities.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestWorkerQueue_FullPoolKeepsEntries(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	// not started yet: the single slot fills up and stays full
	pool := worker.NewPool(1, 1)
	q := jobs.NewWorkerQueue(pool, activities, new(mocks.MockSessionRepository), jobs.WithFlushInterval(time.Hour))

	first := models.Activity{SessionID: "s1", Kind: models.ActivityQuizReset, CreatedAt: time.Now()}
	second := models.Activity{SessionID: "s2", Kind: models.ActivityLessonFinished, Lesson: "quiz", CreatedAt: time.Now()}
	activities.On("Insert", mock.Anything, first).Return(int64(1), nil).Once()
	activities.On("Insert", mock.Anything, second).Return(int64(2), nil).Once()

	require.NoError(t, q.EnqueueActivity(first))
	require.NoError(t, q.EnqueueActivity(second), "a full pool is not a lost entry")
	assert.Equal(t, 1, q.Pending())

	pool.Start(context.Background())
	require.Eventually(t, func() bool { return pool.QueueSize() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, q.Flush())
	pool.Stop()

	assert.Zero(t, q.Pending())
	activities.AssertExpectations(t)
}

func TestWorkerQueue_BacklogLimit(t *testing.T) {
	pool := worker.NewPool(1, 1)
	q := jobs.NewWorkerQueue(pool, new(mocks.MockActivityRepository), new(mocks.MockSessionRepository),
		jobs.WithBatchSize(1), jobs.WithFlushInterval(time.Hour))

	// the first batch takes the only slot, the rest pile up
	var err error
	for i := 0; i < 20 && err == nil; i++ {
		err = q.EnqueueActivity(tone("s1"))
	}
	assert.ErrorIs(t, err, jobs.ErrBacklogFull)
	assert.Equal(t, 8, q.Pending())
}
