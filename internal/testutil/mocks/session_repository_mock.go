package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/visionize/internal/models"
)

// MockSessionRepository is a mock implementation of repository.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, record models.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionRecord), args.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSessionRepository) Close(ctx context.Context, id string, at time.Time, reason string) error {
	args := m.Called(ctx, id, at, reason)
	return args.Error(0)
}

func (m *MockSessionRepository) CloseAllOpen(ctx context.Context, at time.Time, reason string) (int64, error) {
	args := m.Called(ctx, at, reason)
	return args.Get(0).(int64), args.Error(1)
}
