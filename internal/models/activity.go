package models

import "time"

// ActivityKind classifies an entry of the session activity log.
type ActivityKind string

const (
	ActivityLessonFinished  ActivityKind = "lesson_finished"
	ActivityLessonReset     ActivityKind = "lesson_reset"
	ActivityProgressReset   ActivityKind = "progress_reset"
	ActivityAnswerSubmitted ActivityKind = "answer_submitted"
	ActivityQuizFinished    ActivityKind = "quiz_finished"
	ActivityQuizReset       ActivityKind = "quiz_reset"
	ActivityTimerFinished   ActivityKind = "timer_finished"
	ActivityTonePlayed      ActivityKind = "tone_played"
)

func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityLessonFinished, ActivityLessonReset, ActivityProgressReset,
		ActivityAnswerSubmitted, ActivityQuizFinished, ActivityQuizReset,
		ActivityTimerFinished, ActivityTonePlayed:
		return true
	}
	return false
}

// Activity is one append-only record of something that happened in a session.
type Activity struct {
	ID        int64        `json:"id"`
	SessionID string       `json:"session_id"`
	Kind      ActivityKind `json:"kind"`
	Lesson    string       `json:"lesson,omitempty"`
	Question  string       `json:"question,omitempty"`
	Exercise  string       `json:"exercise,omitempty"`
	Tone      int          `json:"tone,omitempty"`
	Correct   *bool        `json:"correct,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type ActivityFilter struct {
	SessionID string
	Kind      ActivityKind
	Lesson    string
	Limit     int
	Offset    int
}

type ActivityCount struct {
	Kind  ActivityKind `json:"kind"`
	Count int          `json:"count"`
}

// SessionRecord is the persisted envelope of a tutorial session.
type SessionRecord struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
	ClosedAt    *time.Time `json:"closed_at"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// SessionStats summarises the activity log of one session.
type SessionStats struct {
	SessionID       string          `json:"session_id"`
	Counts          []ActivityCount `json:"counts"`
	AnswersTotal    int             `json:"answers_total"`
	AnswersCorrect  int             `json:"answers_correct"`
	AnswerAccuracy  float64         `json:"answer_accuracy"`
	LessonsFinished int             `json:"lessons_finished"`
}
