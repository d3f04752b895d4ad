package jobs

import (
	"time"

	"github.com/vytor/visionize/internal/models"
)

// JobQueue provides an abstraction for enqueueing background jobs
type JobQueue interface {
	EnqueueActivity(activity models.Activity) error
	EnqueueSessionClosed(id string, lastSeen, closedAt time.Time, reason string) error
	Flush() error
}
