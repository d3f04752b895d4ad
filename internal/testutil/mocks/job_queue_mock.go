package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/visionize/internal/models"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) EnqueueActivity(activity models.Activity) error {
	args := m.Called(activity)
	return args.Error(0)
}

func (m *MockJobQueue) EnqueueSessionClosed(id string, lastSeen, closedAt time.Time, reason string) error {
	args := m.Called(id, lastSeen, closedAt, reason)
	return args.Error(0)
}

func (m *MockJobQueue) Flush() error {
	args := m.Called()
	return args.Error(0)
}
