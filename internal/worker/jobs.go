package worker

import (
	"context"
	"time"

	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
)

// RecordActivitiesJob appends a batch of activity log entries.
type RecordActivitiesJob struct {
	Repo       repository.ActivityRepository
	Activities []models.Activity
}

func (j *RecordActivitiesJob) Name() string { return "record_activities" }

func (j *RecordActivitiesJob) Run(ctx context.Context) error {
	if len(j.Activities) == 1 {
		_, err := j.Repo.Insert(ctx, j.Activities[0])
		return err
	}
	_, err := j.Repo.InsertBatch(ctx, j.Activities)
	return err
}

// CloseSessionJob stamps the session record with its last activity and
// close time.
type CloseSessionJob struct {
	Repo     repository.SessionRepository
	ID       string
	LastSeen time.Time
	ClosedAt time.Time
	Reason   string
}

func (j *CloseSessionJob) Name() string { return "close_session" }

func (j *CloseSessionJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("session_id", j.ID)
	if err := j.Repo.Touch(ctx, j.ID, j.LastSeen); err != nil {
		log.Warn("failed to update last seen time: %v", err)
	}
	return j.Repo.Close(ctx, j.ID, j.ClosedAt, j.Reason)
}
