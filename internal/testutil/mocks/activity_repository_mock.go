package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/visionize/internal/models"
)

// MockActivityRepository is a mock implementation of repository.ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Insert(ctx context.Context, activity models.Activity) (int64, error) {
	args := m.Called(ctx, activity)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockActivityRepository) InsertBatch(ctx context.Context, activities []models.Activity) ([]int64, error) {
	args := m.Called(ctx, activities)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Activity), args.Error(1)
}

func (m *MockActivityRepository) Count(ctx context.Context, filter models.ActivityFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockActivityRepository) CountByKind(ctx context.Context, sessionID string) ([]models.ActivityCount, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityCount), args.Error(1)
}

func (m *MockActivityRepository) AnswerStats(ctx context.Context, sessionID string) (int, int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Int(1), args.Error(2)
}
