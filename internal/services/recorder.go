package services

import (
	"time"

	"github.com/vytor/visionize/internal/jobs"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/session"
)

// Recorder forwards session activity to the background job queue. Its
// methods never block, so they are safe to use as session hooks.
type Recorder struct {
	queue     jobs.JobQueue
	log       *logger.Logger
	now       func() time.Time
	skipTones bool
}

// RecorderOption tweaks a Recorder.
type RecorderOption func(*Recorder)

// WithoutTones drops tone_played entries before they reach the queue.
func WithoutTones() RecorderOption {
	return func(r *Recorder) { r.skipTones = true }
}

func NewRecorder(queue jobs.JobQueue, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		queue: queue,
		log:   logger.Default().WithPrefix("recorder"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record queues one activity. A full queue drops the entry with a warning.
func (r *Recorder) Record(a models.Activity) {
	if r.skipTones && a.Kind == models.ActivityTonePlayed {
		return
	}
	if err := r.queue.EnqueueActivity(a); err != nil {
		r.log.Warn("dropping %s activity of session %s: %v", a.Kind, a.SessionID, err)
	}
}

// SessionClosed queues the close stamp of a session record.
func (r *Recorder) SessionClosed(s *session.Session, reason session.CloseReason) {
	if err := r.queue.EnqueueSessionClosed(s.ID(), s.LastSeen(), r.now(), string(reason)); err != nil {
		r.log.Warn("failed to queue close of session %s: %v", s.ID(), err)
	}
}

// Flush writes out whatever the queue still buffers. Call it after the last
// session closed and before the worker pool stops.
func (r *Recorder) Flush() {
	if err := r.queue.Flush(); err != nil {
		r.log.Warn("failed to flush buffered activities: %v", err)
	}
}
