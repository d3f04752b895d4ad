// Package session hosts one tutorial run: the progress store, the quiz store,
// the exercise timers and the quiz feedback, all driven from a single
// goroutine. User commands, clock ticks and feedback delays are posted to
// that goroutine's queue and applied one at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/visionize/internal/content"
	"github.com/vytor/visionize/internal/exercise"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
	"github.com/vytor/visionize/internal/progress"
	"github.com/vytor/visionize/internal/quiz"
)

var (
	ErrClosed          = errors.New("session: closed")
	ErrUnknownLesson   = errors.New("session: unknown lesson")
	ErrUnknownExercise = errors.New("session: unknown exercise")
	ErrUnknownAnswer   = errors.New("session: answer does not belong to the current question")
)

const queueSize = 64

// Options configures a Session. Content is required.
type Options struct {
	ID            string
	Content       *content.Provider
	Notifier      notify.Notifier
	SwitchSeconds int
	CorrectDelay  time.Duration
	WrongDelay    time.Duration
	Logger        *logger.Logger

	// OnChange receives the full state after every command that changed it.
	// OnActivity receives every activity log entry. Both run on the session
	// goroutine and must not block.
	OnChange   func(models.SessionState)
	OnActivity func(models.Activity)

	Now func() time.Time
}

type command struct {
	fn   func()
	done chan struct{}
}

// Session is safe for concurrent use; every exported method hands its work to
// the session goroutine.
type Session struct {
	id        string
	content   *content.Provider
	log       *logger.Logger
	now       func() time.Time
	createdAt time.Time
	lastSeen  atomic.Int64

	cmds      chan command
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// owned by the session goroutine
	progress   *progress.Store
	quiz       *quiz.Store
	feedback   *exercise.QuizFeedback
	focus      *exercise.FocusShifting
	timers     []exercise.Timer
	onChange   func(models.SessionState)
	onActivity func(models.Activity)
	dirty      bool
}

// New builds a session and starts its goroutine. Close releases it.
func New(opts Options) (*Session, error) {
	if opts.Content == nil {
		return nil, errors.New("session: content provider is required")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.SwitchSeconds == 0 {
		opts.SwitchSeconds = exercise.DefaultSwitchSeconds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	s := &Session{
		id:         opts.ID,
		content:    opts.Content,
		log:        opts.Logger.WithField("session_id", opts.ID),
		now:        opts.Now,
		cmds:       make(chan command, queueSize),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
		onChange:   opts.OnChange,
		onActivity: opts.OnActivity,
	}
	s.createdAt = s.now()
	s.lastSeen.Store(s.createdAt.UnixNano())

	tones := notify.Multi{opts.Notifier, notify.Func(s.tonePlayed)}

	s.progress = progress.NewStore(opts.Content.Lessons(), tones)
	s.progress.Subscribe(func(models.ProgressSnapshot) { s.dirty = true })
	s.quiz = quiz.NewStore(opts.Content)
	s.quiz.Subscribe(func(models.QuizSnapshot) { s.dirty = true })

	focus, err := exercise.NewFocusShifting(opts.SwitchSeconds, tones, s.timerFinished(models.ExerciseFocusShifting))
	if err != nil {
		return nil, err
	}
	s.focus = focus
	s.timers = []exercise.Timer{
		exercise.NewEyeRotation(tones, s.timerFinished(models.ExerciseEyeRotation)),
		focus,
		exercise.NewRapidBlinking(tones, s.timerFinished(models.ExerciseRapidBlinking)),
	}
	s.feedback = exercise.NewQuizFeedback(
		s.quiz,
		exercise.SchedulerFunc(s.afterFunc),
		tones,
		s.quizFinished,
		exercise.WithDelays(opts.CorrectDelay, opts.WrongDelay),
	)

	go s.loop()
	s.log.Debug("session started")
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastSeen is the time of the last user command. Clock ticks do not count.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Done is closed once the session goroutine has exited.
func (s *Session) Done() <-chan struct{} { return s.stopped }

// Close stops the session goroutine. Pending feedback and queued commands
// are dropped. Close is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Session) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.quit:
			s.feedback.Cancel()
			s.log.Debug("session stopped")
			return
		case cmd := <-s.cmds:
			s.run(cmd)
		}
	}
}

func (s *Session) run(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic in session command: %v", r)
		}
		if cmd.done != nil {
			close(cmd.done)
		}
	}()
	prev := s.progress.Current()
	cmd.fn()
	s.leaveLesson(prev)
	s.flush()
}

func (s *Session) flush() {
	if !s.dirty {
		return
	}
	s.dirty = false
	if s.onChange != nil {
		s.onChange(s.state())
	}
}

// do runs fn on the session goroutine and waits for it.
func (s *Session) do(ctx context.Context, fn func()) error {
	select {
	case <-s.quit:
		return ErrClosed
	default:
	}
	s.lastSeen.Store(s.now().UnixNano())
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case s.cmds <- cmd:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-cmd.done:
		return nil
	case <-s.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post queues fn without waiting. It reports false when the session is
// closed, or when the queue is full and wait is false.
func (s *Session) post(fn func(), wait bool) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	cmd := command{fn: fn}
	if !wait {
		select {
		case s.cmds <- cmd:
			return true
		case <-s.quit:
			return false
		default:
			return false
		}
	}
	select {
	case s.cmds <- cmd:
		return true
	case <-s.quit:
		return false
	}
}

// afterFunc schedules fn on the session goroutine after d.
func (s *Session) afterFunc(d time.Duration, fn func()) exercise.CancelFunc {
	t := time.AfterFunc(d, func() {
		s.post(func() {
			fn()
			s.dirty = true
		}, true)
	})
	return t.Stop
}

// Tick advances every running timer by one second. It never blocks; a tick
// that finds the queue full is dropped.
func (s *Session) Tick() bool {
	return s.post(s.tick, false)
}

func (s *Session) tick() {
	for _, t := range s.timers {
		if res := t.Tick(); res.Advanced {
			s.dirty = true
		}
	}
}

// State returns a consistent snapshot of the whole session.
func (s *Session) State(ctx context.Context) (models.SessionState, error) {
	var st models.SessionState
	err := s.do(ctx, func() { st = s.state() })
	return st, err
}

func (s *Session) state() models.SessionState {
	q := s.quiz.Snapshot()
	q.Feedback = s.feedback.State()
	timers := make([]models.TimerSnapshot, 0, len(s.timers))
	for _, t := range s.timers {
		timers = append(timers, t.Snapshot())
	}
	return models.SessionState{
		SessionID: s.id,
		Progress:  s.progress.Snapshot(),
		Quiz:      q,
		Timers:    timers,
		UpdatedAt: s.now(),
	}
}

func (s *Session) checkLesson(l models.Lesson) error {
	if _, err := s.content.Lesson(l); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownLesson, l)
	}
	return nil
}

// exec runs op on the session goroutine and returns the state observed in
// the same turn, after the timers of a lesson left by op were reset. A failed
// op returns a zero state.
func (s *Session) exec(ctx context.Context, op func() error) (models.SessionState, error) {
	var st models.SessionState
	var opErr error
	err := s.do(ctx, func() {
		prev := s.progress.Current()
		if opErr = op(); opErr != nil {
			return
		}
		s.leaveLesson(prev)
		st = s.state()
	})
	if err != nil {
		return models.SessionState{}, err
	}
	if opErr != nil {
		return models.SessionState{}, opErr
	}
	return st, nil
}

// leaveLesson stops and rewinds the timers of prev once it is no longer the
// current lesson. A timer only completes while its lesson is on screen.
func (s *Session) leaveLesson(prev models.Lesson) {
	if s.progress.Current() == prev {
		return
	}
	for _, t := range s.timers {
		if l, ok := s.content.ExerciseLesson(t.Exercise()); ok && l == prev {
			if snap := t.Snapshot(); snap.State == models.TimerRunning || snap.Elapsed > 0 {
				t.Reset()
				s.dirty = true
			}
		}
	}
}

// SelectLesson makes l the current lesson.
func (s *Session) SelectLesson(ctx context.Context, l models.Lesson) (models.SessionState, error) {
	if err := s.checkLesson(l); err != nil {
		return models.SessionState{}, err
	}
	return s.exec(ctx, func() error {
		s.progress.SwitchLesson(l)
		return nil
	})
}

func (s *Session) NextLesson(ctx context.Context) (models.SessionState, error) {
	return s.exec(ctx, func() error {
		s.progress.NextLesson()
		return nil
	})
}

func (s *Session) PreviousLesson(ctx context.Context) (models.SessionState, error) {
	return s.exec(ctx, func() error {
		s.progress.PreviousLesson()
		return nil
	})
}

// FinishLesson marks l finished without moving on.
func (s *Session) FinishLesson(ctx context.Context, l models.Lesson) (models.SessionState, error) {
	if err := s.checkLesson(l); err != nil {
		return models.SessionState{}, err
	}
	return s.exec(ctx, func() error {
		s.finishLesson(l)
		return nil
	})
}

// ContinueLesson is the "press to continue" action: l is marked finished and
// the tutorial moves to the lesson after the current one.
func (s *Session) ContinueLesson(ctx context.Context, l models.Lesson) (models.SessionState, error) {
	if err := s.checkLesson(l); err != nil {
		return models.SessionState{}, err
	}
	return s.exec(ctx, func() error {
		s.finishLesson(l)
		s.progress.NextLesson()
		return nil
	})
}

// ResetLesson removes l from the finished set.
func (s *Session) ResetLesson(ctx context.Context, l models.Lesson) (models.SessionState, error) {
	if err := s.checkLesson(l); err != nil {
		return models.SessionState{}, err
	}
	return s.exec(ctx, func() error {
		s.progress.ResetLesson(l)
		s.record(models.Activity{Kind: models.ActivityLessonReset, Lesson: string(l)})
		return nil
	})
}

// ResetProgress clears every finished lesson, the quiz and the timers.
func (s *Session) ResetProgress(ctx context.Context) (models.SessionState, error) {
	return s.exec(ctx, func() error {
		s.feedback.Cancel()
		s.quiz.Reset()
		for _, t := range s.timers {
			t.Reset()
		}
		s.progress.ResetAll()
		s.record(models.Activity{Kind: models.ActivityProgressReset})
		return nil
	})
}

func (s *Session) finishLesson(l models.Lesson) {
	s.progress.FinishLesson(l)
	s.record(models.Activity{Kind: models.ActivityLessonFinished, Lesson: string(l)})
}

// finishExercise marks l finished after its exercise completed. The tutorial
// moves on only when l is the current lesson, and then to the lesson right
// after l.
func (s *Session) finishExercise(l models.Lesson) {
	s.finishLesson(l)
	if s.progress.Current() == l {
		s.progress.NextLesson()
	}
}

func (s *Session) timerFinished(kind models.ExerciseKind) func() {
	return func() {
		s.dirty = true
		s.record(models.Activity{Kind: models.ActivityTimerFinished, Exercise: string(kind)})
		if l, ok := s.content.ExerciseLesson(kind); ok {
			s.finishExercise(l)
		}
	}
}

func (s *Session) quizFinished() {
	s.record(models.Activity{Kind: models.ActivityQuizFinished})
	if l, ok := s.content.ExerciseLesson(models.ExerciseQuiz); ok {
		s.finishExercise(l)
	}
}

func (s *Session) timer(kind models.ExerciseKind) (exercise.Timer, error) {
	for _, t := range s.timers {
		if t.Exercise() == kind {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, kind)
}

func (s *Session) timerCommand(ctx context.Context, kind models.ExerciseKind, op func(exercise.Timer)) (models.TimerSnapshot, error) {
	t, err := s.timer(kind)
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	var snap models.TimerSnapshot
	err = s.do(ctx, func() {
		op(t)
		s.dirty = true
		snap = t.Snapshot()
	})
	return snap, err
}

func (s *Session) StartTimer(ctx context.Context, kind models.ExerciseKind) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, kind, exercise.Timer.Start)
}

func (s *Session) StopTimer(ctx context.Context, kind models.ExerciseKind) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, kind, exercise.Timer.Stop)
}

func (s *Session) ResetTimer(ctx context.Context, kind models.ExerciseKind) (models.TimerSnapshot, error) {
	return s.timerCommand(ctx, kind, exercise.Timer.Reset)
}

// SetSwitchSeconds changes the focus shifting interval.
func (s *Session) SetSwitchSeconds(ctx context.Context, seconds int) (models.TimerSnapshot, error) {
	var snap models.TimerSnapshot
	var opErr error
	err := s.do(ctx, func() {
		if opErr = s.focus.SetSwitchSeconds(seconds); opErr == nil {
			s.dirty = true
		}
		snap = s.focus.Snapshot()
	})
	if err != nil {
		return models.TimerSnapshot{}, err
	}
	return snap, opErr
}

// SubmitAnswer judges the answer with the given id against the current
// question and starts the feedback delay.
func (s *Session) SubmitAnswer(ctx context.Context, answerID uuid.UUID) (models.AnswerResult, error) {
	var res models.AnswerResult
	var opErr error
	err := s.do(ctx, func() {
		answer, ok := s.quiz.AnswerByID(answerID)
		if !ok {
			opErr = fmt.Errorf("%w: %s", ErrUnknownAnswer, answerID)
			return
		}
		question := s.quiz.Current()
		correct, delay, err := s.feedback.Submit(answer)
		if err != nil {
			opErr = err
			return
		}
		s.dirty = true
		res = models.AnswerResult{
			AnswerID:    answerID.String(),
			Correct:     correct,
			Feedback:    s.feedback.State(),
			SettlesInMS: delay.Milliseconds(),
		}
		if !correct {
			if qc, err := s.quiz.CurrentContent(); err == nil {
				if ca, ok := qc.CorrectAnswer(); ok {
					res.CorrectAnswer = ca.ID.String()
				}
			}
		}
		s.record(models.Activity{
			Kind:     models.ActivityAnswerSubmitted,
			Question: string(question),
			Correct:  &correct,
		})
	})
	if err != nil {
		return models.AnswerResult{}, err
	}
	return res, opErr
}

// NextQuestion skips to the next question. It is refused while an answer
// verdict is showing or once the quiz is finished.
func (s *Session) NextQuestion(ctx context.Context) (models.SessionState, error) {
	return s.exec(ctx, func() error {
		switch {
		case s.feedback.Pending():
			return exercise.ErrFeedbackPending
		case s.quiz.IsFinished():
			return exercise.ErrQuizFinished
		}
		s.quiz.NextQuestion()
		if s.quiz.IsFinished() {
			s.quizFinished()
		}
		return nil
	})
}

// ResetQuiz returns to the first question and drops a pending verdict.
func (s *Session) ResetQuiz(ctx context.Context) (models.SessionState, error) {
	return s.exec(ctx, func() error {
		s.feedback.Cancel()
		s.quiz.Reset()
		s.record(models.Activity{Kind: models.ActivityQuizReset})
		return nil
	})
}

func (s *Session) tonePlayed(t notify.Tone) {
	s.record(models.Activity{Kind: models.ActivityTonePlayed, Tone: int(t)})
}

func (s *Session) record(a models.Activity) {
	if s.onActivity == nil {
		return
	}
	a.SessionID = s.id
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	s.onActivity(a)
}
