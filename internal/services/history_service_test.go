package services_test

import (
	"context"
	"database/sql"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/services"
	"github.com/vytor/visionize/internal/testutil/mocks"
)

func TestHistoryService_History(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := services.NewHistoryService(activities, sessions)
	ctx := context.Background()

	sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)
	want := models.ActivityFilter{SessionID: "s1", Kind: models.ActivityLessonFinished, Limit: 100}
	activities.On("List", mock.Anything, want).Return([]models.Activity{{ID: 1, SessionID: "s1", Kind: models.ActivityLessonFinished}}, nil)
	activities.On("Count", mock.Anything, want).Return(7, nil)

	list, total, err := svc.History(ctx, models.ActivityFilter{SessionID: "s1", Kind: models.ActivityLessonFinished, Limit: 10000, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 7, total)

	activities.AssertExpectations(t)
}

func TestHistoryService_History_EmptyIsNotNil(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := services.NewHistoryService(activities, sessions)

	sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)
	activities.On("List", mock.Anything, mock.Anything).Return(nil, nil)
	activities.On("Count", mock.Anything, mock.Anything).Return(0, nil)

	list, total, err := svc.History(context.Background(), models.ActivityFilter{SessionID: "s1"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Zero(t, total)
}

func TestHistoryService_History_Validation(t *testing.T) {
	svc := services.NewHistoryService(new(mocks.MockActivityRepository), new(mocks.MockSessionRepository))
	ctx := context.Background()

	tests := []struct {
		name   string
		filter models.ActivityFilter
	}{
		{"missing session", models.ActivityFilter{}},
		{"unknown kind", models.ActivityFilter{SessionID: "s1", Kind: "danced"}},
		{"unknown lesson", models.ActivityFilter{SessionID: "s1", Lesson: "fourth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.History(ctx, tt.filter)
			assert.Equal(t, errors.ErrCodeValidation, appErr(t, err).Code)
		})
	}
}

func TestHistoryService_UnknownSession(t *testing.T) {
	sessions := new(mocks.MockSessionRepository)
	svc := services.NewHistoryService(new(mocks.MockActivityRepository), sessions)
	sessions.On("Get", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

	_, _, err := svc.History(context.Background(), models.ActivityFilter{SessionID: "ghost"})
	assert.Equal(t, errors.ErrCodeNotFound, appErr(t, err).Code)

	_, err = svc.Stats(context.Background(), "ghost")
	assert.Equal(t, errors.ErrCodeNotFound, appErr(t, err).Code)
}

func TestHistoryService_Stats(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := services.NewHistoryService(activities, sessions)

	sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)
	activities.On("CountByKind", mock.Anything, "s1").Return([]models.ActivityCount{
		{Kind: models.ActivityAnswerSubmitted, Count: 4},
		{Kind: models.ActivityLessonFinished, Count: 3},
	}, nil)
	activities.On("AnswerStats", mock.Anything, "s1").Return(4, 3, nil)

	stats, err := svc.Stats(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.AnswersTotal)
	assert.Equal(t, 3, stats.AnswersCorrect)
	assert.InDelta(t, 0.75, stats.AnswerAccuracy, 1e-9)
	assert.Equal(t, 3, stats.LessonsFinished)
}

func TestHistoryService_Stats_RepositoryError(t *testing.T) {
	activities := new(mocks.MockActivityRepository)
	sessions := new(mocks.MockSessionRepository)
	svc := services.NewHistoryService(activities, sessions)

	sessions.On("Get", mock.Anything, "s1").Return(&models.SessionRecord{ID: "s1"}, nil)
	activities.On("CountByKind", mock.Anything, "s1").Return(nil, stderrors.New("locked"))
	activities.On("AnswerStats", mock.Anything, "s1").Return(0, 0, nil).Maybe()

	_, err := svc.Stats(context.Background(), "s1")
	assert.Equal(t, errors.ErrCodeInternal, appErr(t, err).Code)
}
