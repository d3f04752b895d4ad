package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
	"github.com/vytor/visionize/internal/session"
)

// TutorialService drives live tutorial sessions. Every lesson and quiz
// command returns the session state observed right after it.
type TutorialService interface {
	CreateSession(ctx context.Context) (models.SessionState, error)
	GetState(ctx context.Context, sessionID string) (models.SessionState, error)
	DeleteSession(ctx context.Context, sessionID string) error

	SelectLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error)
	FinishLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error)
	ContinueLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error)
	ResetLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error)
	NextLesson(ctx context.Context, sessionID string) (models.SessionState, error)
	PreviousLesson(ctx context.Context, sessionID string) (models.SessionState, error)
	ResetProgress(ctx context.Context, sessionID string) (models.SessionState, error)

	StartTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error)
	StopTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error)
	ResetTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error)
	SetSwitchSeconds(ctx context.Context, sessionID string, seconds int) (models.TimerSnapshot, error)

	SubmitAnswer(ctx context.Context, sessionID, answerID string) (models.AnswerResult, error)
	NextQuestion(ctx context.Context, sessionID string) (models.SessionState, error)
	ResetQuiz(ctx context.Context, sessionID string) (models.SessionState, error)
}

type tutorialService struct {
	manager     *session.Manager
	sessionRepo repository.SessionRepository
}

// NewTutorialService creates a new TutorialService
func NewTutorialService(manager *session.Manager, sessionRepo repository.SessionRepository) TutorialService {
	return &tutorialService{manager: manager, sessionRepo: sessionRepo}
}

func (s *tutorialService) CreateSession(ctx context.Context) (models.SessionState, error) {
	log := logger.FromContext(ctx)

	sess, err := s.manager.Create()
	if err != nil {
		log.Error("failed to create session: %v", err)
		return models.SessionState{}, errors.NewInternalError(err)
	}

	rec := models.SessionRecord{ID: sess.ID(), CreatedAt: sess.CreatedAt(), LastSeenAt: sess.CreatedAt()}
	if err := s.sessionRepo.Create(ctx, rec); err != nil {
		log.Error("failed to persist session %s: %v", sess.ID(), err)
		_ = s.manager.Delete(sess.ID())
		return models.SessionState{}, errors.NewInternalError(err)
	}

	log.Info("session created: id=%s", sess.ID())
	st, err := sess.State(ctx)
	return st, translate(err, sess.ID())
}

func (s *tutorialService) lookup(sessionID string) (*session.Session, error) {
	sess, err := s.manager.Get(sessionID)
	if err != nil {
		return nil, translate(err, sessionID)
	}
	return sess, nil
}

// apply runs op against the session. The state it returns is read in the
// same turn as the command, so no tick or feedback settle lands in between.
func (s *tutorialService) apply(ctx context.Context, sessionID string, op func(*session.Session) (models.SessionState, error)) (models.SessionState, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.SessionState{}, err
	}
	st, err := op(sess)
	if err != nil {
		logger.FromContext(ctx).Debug("session %s rejected command: %v", sessionID, err)
		return models.SessionState{}, translate(err, sessionID)
	}
	return st, nil
}

func (s *tutorialService) GetState(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.State(ctx) })
}

func (s *tutorialService) DeleteSession(ctx context.Context, sessionID string) error {
	logger.FromContext(ctx).Debug("deleting session: id=%s", sessionID)
	return translate(s.manager.Delete(sessionID), sessionID)
}

func parseLesson(lesson string) (models.Lesson, error) {
	l, err := models.ParseLesson(strings.ToLower(strings.TrimSpace(lesson)))
	if err != nil {
		return "", errors.NewNotFoundError("lesson", lesson)
	}
	return l, nil
}

func (s *tutorialService) lessonCommand(ctx context.Context, sessionID, lesson string, op func(context.Context, *session.Session, models.Lesson) (models.SessionState, error)) (models.SessionState, error) {
	l, err := parseLesson(lesson)
	if err != nil {
		return models.SessionState{}, err
	}
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) {
		return op(ctx, sess, l)
	})
}

func (s *tutorialService) SelectLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error) {
	return s.lessonCommand(ctx, sessionID, lesson, func(ctx context.Context, sess *session.Session, l models.Lesson) (models.SessionState, error) {
		return sess.SelectLesson(ctx, l)
	})
}

func (s *tutorialService) FinishLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error) {
	return s.lessonCommand(ctx, sessionID, lesson, func(ctx context.Context, sess *session.Session, l models.Lesson) (models.SessionState, error) {
		return sess.FinishLesson(ctx, l)
	})
}

func (s *tutorialService) ContinueLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error) {
	return s.lessonCommand(ctx, sessionID, lesson, func(ctx context.Context, sess *session.Session, l models.Lesson) (models.SessionState, error) {
		return sess.ContinueLesson(ctx, l)
	})
}

func (s *tutorialService) ResetLesson(ctx context.Context, sessionID, lesson string) (models.SessionState, error) {
	return s.lessonCommand(ctx, sessionID, lesson, func(ctx context.Context, sess *session.Session, l models.Lesson) (models.SessionState, error) {
		return sess.ResetLesson(ctx, l)
	})
}

func (s *tutorialService) NextLesson(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.NextLesson(ctx) })
}

func (s *tutorialService) PreviousLesson(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.PreviousLesson(ctx) })
}

func (s *tutorialService) ResetProgress(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.ResetProgress(ctx) })
}

func parseExercise(exercise string) (models.ExerciseKind, error) {
	kind, err := models.ParseTimedExercise(strings.ToLower(strings.TrimSpace(exercise)))
	if err != nil {
		return "", errors.NewNotFoundError("exercise", exercise)
	}
	return kind, nil
}

func (s *tutorialService) timerCommand(ctx context.Context, sessionID, exercise string, op func(*session.Session, models.ExerciseKind) (models.TimerSnapshot, error)) (models.TimerSnapshot, error) {
	kind, err := parseExercise(exercise)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	snap, err := op(sess, kind)
	if err != nil {
		return models.TimerSnapshot{}, translate(err, sessionID)
	}
	logger.FromContext(ctx).Debug("timer %s is %s at %ds", kind, snap.State, snap.Elapsed)
	return snap, nil
}

func (s *tutorialService) StartTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, sessionID, exercise, func(sess *session.Session, kind models.ExerciseKind) (models.TimerSnapshot, error) {
		return sess.StartTimer(ctx, kind)
	})
}

func (s *tutorialService) StopTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, sessionID, exercise, func(sess *session.Session, kind models.ExerciseKind) (models.TimerSnapshot, error) {
		return sess.StopTimer(ctx, kind)
	})
}

func (s *tutorialService) ResetTimer(ctx context.Context, sessionID, exercise string) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, sessionID, exercise, func(sess *session.Session, kind models.ExerciseKind) (models.TimerSnapshot, error) {
		return sess.ResetTimer(ctx, kind)
	})
}

func (s *tutorialService) SetSwitchSeconds(ctx context.Context, sessionID string, seconds int) (models.TimerSnapshot, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	snap, err := sess.SetSwitchSeconds(ctx, seconds)
	if err != nil {
		return models.TimerSnapshot{}, translate(err, sessionID)
	}
	return snap, nil
}

func (s *tutorialService) SubmitAnswer(ctx context.Context, sessionID, answerID string) (models.AnswerResult, error) {
	log := logger.FromContext(ctx)

	id, err := uuid.Parse(strings.TrimSpace(answerID))
	if err != nil {
		return models.AnswerResult{}, errors.NewValidationError("answer_id", "must be a UUID")
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return models.AnswerResult{}, err
	}
	res, err := sess.SubmitAnswer(ctx, id)
	if err != nil {
		log.Debug("answer rejected: %v", err)
		return models.AnswerResult{}, translate(err, sessionID)
	}
	log.Debug("answer %s judged correct=%v", answerID, res.Correct)
	return res, nil
}

func (s *tutorialService) NextQuestion(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.NextQuestion(ctx) })
}

func (s *tutorialService) ResetQuiz(ctx context.Context, sessionID string) (models.SessionState, error) {
	return s.apply(ctx, sessionID, func(sess *session.Session) (models.SessionState, error) { return sess.ResetQuiz(ctx) })
}
