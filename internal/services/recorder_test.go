package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/services"
	"github.com/vytor/visionize/internal/session"
	"github.com/vytor/visionize/internal/testutil/mocks"
	"github.com/vytor/visionize/internal/worker"
)

func TestRecorder_Record(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	rec := services.NewRecorder(queue)

	a := models.Activity{SessionID: "s1", Kind: models.ActivityQuizReset}
	queue.On("EnqueueActivity", a).Return(nil).Once()
	rec.Record(a)

	// a full queue is logged, not propagated
	b := models.Activity{SessionID: "s1", Kind: models.ActivityTonePlayed, Tone: 1105}
	queue.On("EnqueueActivity", b).Return(worker.ErrQueueFull).Once()
	rec.Record(b)

	queue.AssertExpectations(t)
}

func TestRecorder_WithoutTones(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	rec := services.NewRecorder(queue, services.WithoutTones())

	rec.Record(models.Activity{SessionID: "s1", Kind: models.ActivityTonePlayed, Tone: 1105})
	queue.AssertNotCalled(t, "EnqueueActivity", mock.Anything)
}

func TestRecorder_Flush(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	rec := services.NewRecorder(queue)

	queue.On("Flush").Return(nil).Once()
	rec.Flush()
	// a failed flush is logged
	queue.On("Flush").Return(worker.ErrPoolStopped).Once()
	rec.Flush()

	queue.AssertExpectations(t)
}

func TestRecorder_WiredAsManagerHooks(t *testing.T) {
	queue := new(mocks.MockJobQueue)
	rec := services.NewRecorder(queue, services.WithoutTones())
	manager := session.NewManager(provider, session.ManagerConfig{},
		session.WithLogger(logger.Discard()),
		session.WithHooks(session.Hooks{OnActivity: rec.Record, OnClose: rec.SessionClosed}),
	)
	t.Cleanup(manager.CloseAll)

	s, err := manager.Create()
	require.NoError(t, err)

	queue.On("EnqueueActivity", mock.MatchedBy(func(a models.Activity) bool {
		return a.SessionID == s.ID() && a.Kind == models.ActivityLessonFinished && a.Lesson == "introduction"
	})).Return(nil).Once()
	queue.On("EnqueueSessionClosed", s.ID(), mock.Anything, mock.Anything, "deleted").Return(nil).Once()

	_, err = s.FinishLesson(context.Background(), models.LessonIntroduction)
	require.NoError(t, err)
	require.NoError(t, manager.Delete(s.ID()))

	queue.AssertExpectations(t)
}
