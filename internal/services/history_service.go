package services

import (
	"context"
	"database/sql"
	stderrors "errors"

	"golang.org/x/sync/errgroup"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
)

const maxHistoryLimit = 500

// HistoryService reads the persisted activity log of a session. It works for
// closed sessions too.
type HistoryService interface {
	History(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	Stats(ctx context.Context, sessionID string) (*models.SessionStats, error)
}

type historyService struct {
	activityRepo repository.ActivityRepository
	sessionRepo  repository.SessionRepository
	lessonCount  int
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(activityRepo repository.ActivityRepository, sessionRepo repository.SessionRepository) HistoryService {
	return &historyService{
		activityRepo: activityRepo,
		sessionRepo:  sessionRepo,
		lessonCount:  len(models.AllLessons()),
	}
}

func (s *historyService) ensureSession(ctx context.Context, sessionID string) error {
	if _, err := s.sessionRepo.Get(ctx, sessionID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.NewNotFoundError("session", sessionID)
		}
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *historyService) History(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing history: session_id=%s, kind=%s, lesson=%s", filter.SessionID, filter.Kind, filter.Lesson)

	if filter.SessionID == "" {
		return nil, 0, errors.NewValidationError("session_id", "cannot be empty")
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, 0, errors.NewValidationError("kind", "unknown activity kind")
	}
	if filter.Lesson != "" {
		if _, err := models.ParseLesson(filter.Lesson); err != nil {
			return nil, 0, errors.NewValidationError("lesson", "unknown lesson")
		}
	}
	if filter.Limit <= 0 || filter.Limit > maxHistoryLimit {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	if err := s.ensureSession(ctx, filter.SessionID); err != nil {
		return nil, 0, err
	}

	activities, err := s.activityRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list activities: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.activityRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count activities: %v", err)
		return nil, 0, errors.NewInternalError(err)
	}
	if activities == nil {
		activities = []models.Activity{}
	}
	return activities, total, nil
}

func (s *historyService) Stats(ctx context.Context, sessionID string) (*models.SessionStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("computing stats: session_id=%s", sessionID)

	if err := s.ensureSession(ctx, sessionID); err != nil {
		return nil, err
	}

	var (
		counts         []models.ActivityCount
		total, correct int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if counts, err = s.activityRepo.CountByKind(gctx, sessionID); err != nil {
			log.Error("failed to count activities: %v", err)
		}
		return err
	})
	g.Go(func() error {
		var err error
		if total, correct, err = s.activityRepo.AnswerStats(gctx, sessionID); err != nil {
			log.Error("failed to compute answer stats: %v", err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.NewInternalError(err)
	}

	stats := &models.SessionStats{
		SessionID:      sessionID,
		Counts:         counts,
		AnswersTotal:   total,
		AnswersCorrect: correct,
	}
	if stats.Counts == nil {
		stats.Counts = []models.ActivityCount{}
	}
	if total > 0 {
		stats.AnswerAccuracy = float64(correct) / float64(total)
	}
	for _, c := range counts {
		if c.Kind == models.ActivityLessonFinished {
			stats.LessonsFinished = c.Count
		}
	}
	return stats, nil
}
