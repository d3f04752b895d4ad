package repository

import (
	"context"
	"time"

	"github.com/vytor/visionize/internal/models"
)

// ActivityRepository handles the append-only session activity log
type ActivityRepository interface {
	Insert(ctx context.Context, activity models.Activity) (int64, error)
	InsertBatch(ctx context.Context, activities []models.Activity) ([]int64, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	Count(ctx context.Context, filter models.ActivityFilter) (int, error)
	CountByKind(ctx context.Context, sessionID string) ([]models.ActivityCount, error)
	AnswerStats(ctx context.Context, sessionID string) (total, correct int, err error)
}

// SessionRepository handles the persisted session envelopes
type SessionRepository interface {
	Create(ctx context.Context, record models.SessionRecord) error
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Close(ctx context.Context, id string, at time.Time, reason string) error
	CloseAllOpen(ctx context.Context, at time.Time, reason string) (int64, error)
}
