// Package quiz tracks the current quiz question and whether the quiz is done.
package quiz

import (
	"github.com/google/uuid"

	"github.com/vytor/visionize/internal/models"
)

// Questions is the read-only question table the store walks through.
type Questions interface {
	Questions() []models.Question
	Question(q models.Question) (models.QuestionContent, error)
}

// Store holds the current question pointer and the finished flag. It is not
// safe for concurrent use; the owning session serialises access.
type Store struct {
	source    Questions
	order     []models.Question
	current   models.Question
	finished  bool
	listeners []func(models.QuizSnapshot)
}

func NewStore(source Questions) *Store {
	s := &Store{source: source, order: source.Questions()}
	if len(s.order) > 0 {
		s.current = s.order[0]
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every mutation.
func (s *Store) Subscribe(fn func(models.QuizSnapshot)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) changed() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *Store) Current() models.Question {
	return s.current
}

// CurrentContent returns the prompt and answers of the current question.
func (s *Store) CurrentContent() (models.QuestionContent, error) {
	return s.source.Question(s.current)
}

func (s *Store) IsFinished() bool {
	return s.finished
}

// IsCurrentQuestionCorrect reports whether answer's text equals the text of
// the current question's correct answer. Identity is deliberately ignored.
func (s *Store) IsCurrentQuestionCorrect(answer models.Answer) bool {
	qc, err := s.source.Question(s.current)
	if err != nil {
		return false
	}
	correct, ok := qc.CorrectAnswer()
	if !ok {
		return false
	}
	return correct.Text == answer.Text
}

// AnswerByID looks up an answer of the current question.
func (s *Store) AnswerByID(id uuid.UUID) (models.Answer, bool) {
	qc, err := s.source.Question(s.current)
	if err != nil {
		return models.Answer{}, false
	}
	return qc.AnswerByID(id)
}

// NextQuestion advances to the next question. On the last question it sets
// the finished flag instead and leaves the pointer where it is.
func (s *Store) NextQuestion() {
	i := s.indexOf(s.current)
	if i < 0 {
		return
	}
	if i < len(s.order)-1 {
		s.current = s.order[i+1]
	} else {
		s.finished = true
	}
	s.changed()
}

// Reset returns to the first question and clears the finished flag.
func (s *Store) Reset() {
	if len(s.order) > 0 {
		s.current = s.order[0]
	}
	s.finished = false
	s.changed()
}

func (s *Store) Snapshot() models.QuizSnapshot {
	return models.QuizSnapshot{
		CurrentQuestion: s.current,
		QuestionNumber:  s.indexOf(s.current) + 1,
		QuestionCount:   len(s.order),
		Finished:        s.finished,
		Feedback:        models.FeedbackNeutral,
	}
}

func (s *Store) indexOf(q models.Question) int {
	for i, candidate := range s.order {
		if candidate == q {
			return i
		}
	}
	return -1
}
