package exercise

import (
	"errors"
	"time"

	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

const (
	CorrectFeedbackDelay = 1500 * time.Millisecond
	WrongFeedbackDelay   = 750 * time.Millisecond
)

var (
	ErrFeedbackPending = errors.New("exercise: previous answer is still being shown")
	ErrQuizFinished    = errors.New("exercise: quiz already finished")
)

// CancelFunc cancels a scheduled task. It reports whether the task was
// stopped before it ran.
type CancelFunc func() bool

// Scheduler runs fn once after d. Implementations decide on which goroutine
// fn runs; the session scheduler routes it through the session queue.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, fn func()) CancelFunc

func (f SchedulerFunc) AfterFunc(d time.Duration, fn func()) CancelFunc { return f(d, fn) }

// Quiz is the part of the quiz store the feedback timer drives.
type Quiz interface {
	IsCurrentQuestionCorrect(answer models.Answer) bool
	NextQuestion()
	IsFinished() bool
}

// QuizFeedback shows the verdict on a submitted answer for a fixed delay,
// then returns to neutral. After a correct answer it also advances the quiz
// and, when that finishes the quiz, calls onFinish.
//
// While a verdict is showing, further submissions are rejected with
// ErrFeedbackPending, so one answer can never advance the quiz twice.
type QuizFeedback struct {
	quiz         Quiz
	scheduler    Scheduler
	notifier     notify.Notifier
	onFinish     func()
	correctDelay time.Duration
	wrongDelay   time.Duration

	state   models.FeedbackState
	cancel  CancelFunc
	pending uint64
}

// FeedbackOption tweaks a QuizFeedback.
type FeedbackOption func(*QuizFeedback)

// WithDelays overrides the correct and wrong answer delays.
func WithDelays(correct, wrong time.Duration) FeedbackOption {
	return func(f *QuizFeedback) {
		if correct > 0 {
			f.correctDelay = correct
		}
		if wrong > 0 {
			f.wrongDelay = wrong
		}
	}
}

func NewQuizFeedback(quiz Quiz, scheduler Scheduler, notifier notify.Notifier, onFinish func(), opts ...FeedbackOption) *QuizFeedback {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	f := &QuizFeedback{
		quiz:         quiz,
		scheduler:    scheduler,
		notifier:     notifier,
		onFinish:     onFinish,
		correctDelay: CorrectFeedbackDelay,
		wrongDelay:   WrongFeedbackDelay,
		state:        models.FeedbackNeutral,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *QuizFeedback) State() models.FeedbackState { return f.state }

// Pending reports whether a verdict is showing.
func (f *QuizFeedback) Pending() bool { return f.state != models.FeedbackNeutral }

// Submit judges answer against the current question and schedules the
// return to neutral. It returns the verdict and the delay until it settles.
func (f *QuizFeedback) Submit(answer models.Answer) (bool, time.Duration, error) {
	if f.Pending() {
		return false, 0, ErrFeedbackPending
	}
	if f.quiz.IsFinished() {
		return false, 0, ErrQuizFinished
	}

	correct := f.quiz.IsCurrentQuestionCorrect(answer)
	delay := f.wrongDelay
	if correct {
		delay = f.correctDelay
		f.state = models.FeedbackSolution
		f.notifier.Play(notify.ToneAnswerCorrect)
	} else {
		f.state = models.FeedbackError
		f.notifier.Play(notify.ToneAnswerWrong)
	}

	f.pending++
	token := f.pending
	f.cancel = f.scheduler.AfterFunc(delay, func() { f.settle(token, correct) })
	return correct, delay, nil
}

func (f *QuizFeedback) settle(token uint64, correct bool) {
	// a cancelled task that was already queued must not fire
	if token != f.pending || !f.Pending() {
		return
	}
	f.state = models.FeedbackNeutral
	f.cancel = nil
	if !correct {
		return
	}
	f.quiz.NextQuestion()
	if f.quiz.IsFinished() && f.onFinish != nil {
		f.onFinish()
	}
}

// Cancel drops a pending verdict without advancing the quiz.
func (f *QuizFeedback) Cancel() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.pending++
	f.state = models.FeedbackNeutral
}
