package services

import (
	"context"
	stderrors "errors"

	"github.com/vytor/visionize/internal/errors"
	"github.com/vytor/visionize/internal/exercise"
	"github.com/vytor/visionize/internal/session"
)

// translate maps domain sentinels to AppErrors. Errors that already are
// AppErrors pass through unchanged.
func translate(err error, sessionID string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return errors.NewNotFoundError("session", sessionID)
	case stderrors.Is(err, session.ErrClosed):
		return errors.NewGoneError("session", sessionID)
	case stderrors.Is(err, session.ErrUnknownLesson):
		return errors.NewNotFoundError("lesson", err.Error())
	case stderrors.Is(err, session.ErrUnknownExercise):
		return errors.NewNotFoundError("exercise", err.Error())
	case stderrors.Is(err, session.ErrUnknownAnswer):
		return errors.NewValidationError("answer_id", "not an answer of the current question")
	case stderrors.Is(err, exercise.ErrInvalidSwitchSeconds):
		return errors.NewValidationError("seconds", "must be between 1 and 3")
	case stderrors.Is(err, exercise.ErrFeedbackPending):
		return errors.NewConflictError("the previous answer is still being shown", err)
	case stderrors.Is(err, exercise.ErrQuizFinished):
		return errors.NewConflictError("the quiz is already finished", err)
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewBadRequestError("request cancelled")
	}
	return errors.NewInternalError(err)
}
