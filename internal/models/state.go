package models

import "time"

// ProgressSnapshot is the observable state of the lesson progress store.
type ProgressSnapshot struct {
	CurrentLesson Lesson   `json:"current_lesson"`
	Finished      []Lesson `json:"finished"`
	Progress      float64  `json:"progress"`
}

// FeedbackState is the transient display state after a quiz answer.
type FeedbackState string

const (
	FeedbackNeutral  FeedbackState = "neutral"
	FeedbackSolution FeedbackState = "solution"
	FeedbackError    FeedbackState = "error"
)

// QuizSnapshot is the observable state of the quiz store and its feedback timer.
type QuizSnapshot struct {
	CurrentQuestion Question      `json:"current_question"`
	QuestionNumber  int           `json:"question_number"`
	QuestionCount   int           `json:"question_count"`
	Finished        bool          `json:"finished"`
	Feedback        FeedbackState `json:"feedback"`
}

// TimerState is the externally visible state of an exercise timer.
// Finished is transient: a completing timer reports it on the completing tick only.
type TimerState string

const (
	TimerIdle     TimerState = "idle"
	TimerRunning  TimerState = "running"
	TimerFinished TimerState = "finished"
)

// TimerSnapshot is the (elapsed, phase, active) tuple of one exercise timer.
type TimerSnapshot struct {
	Exercise  ExerciseKind `json:"exercise"`
	State     TimerState   `json:"state"`
	Elapsed   int          `json:"elapsed"`
	Duration  int          `json:"duration"`
	Remaining int          `json:"remaining"`
	Phase     string       `json:"phase"`

	// eye rotation
	Direction int     `json:"direction,omitempty"`
	Angle     float64 `json:"angle,omitempty"`

	// focus shifting
	HighlightedIndex int `json:"highlighted_index"`
	SwitchSeconds    int `json:"switch_seconds,omitempty"`

	// rapid blinking
	Highlighted bool `json:"highlighted"`
}

// Active reports whether the timer is counting.
func (t TimerSnapshot) Active() bool {
	return t.State == TimerRunning
}

// SessionState is everything a front end needs to render one tutorial session.
type SessionState struct {
	SessionID string           `json:"session_id"`
	Progress  ProgressSnapshot `json:"progress"`
	Quiz      QuizSnapshot     `json:"quiz"`
	Timers    []TimerSnapshot  `json:"timers"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Timer returns the snapshot for kind, if present.
func (s SessionState) Timer(kind ExerciseKind) (TimerSnapshot, bool) {
	for _, t := range s.Timers {
		if t.Exercise == kind {
			return t, true
		}
	}
	return TimerSnapshot{}, false
}

// AnswerResult reports how a submitted quiz answer was judged.
type AnswerResult struct {
	AnswerID      string        `json:"answer_id"`
	Correct       bool          `json:"correct"`
	CorrectAnswer string        `json:"correct_answer,omitempty"`
	Feedback      FeedbackState `json:"feedback"`
	SettlesInMS   int64         `json:"settles_in_ms"`
}
