package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Question identifies one quiz question. The set and its order are fixed.
type Question string

const (
	QuestionFirst  Question = "first"
	QuestionSecond Question = "second"
	QuestionThird  Question = "third"
)

var allQuestions = []Question{QuestionFirst, QuestionSecond, QuestionThird}

// AllQuestions returns the questions in quiz order.
func AllQuestions() []Question {
	out := make([]Question, len(allQuestions))
	copy(out, allQuestions)
	return out
}

func (q Question) Index() int {
	for i, candidate := range allQuestions {
		if candidate == q {
			return i
		}
	}
	return -1
}

func (q Question) Valid() bool {
	return q.Index() >= 0
}

func ParseQuestion(s string) (Question, error) {
	q := Question(s)
	if !q.Valid() {
		return "", fmt.Errorf("unknown question %q", s)
	}
	return q, nil
}

// Answer is one selectable option of a question.
type Answer struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	IsCorrect bool      `json:"-"`
}

// Equal compares answers by identity, not by text.
func (a Answer) Equal(other Answer) bool {
	return a.ID == other.ID
}

// QuestionContent is the static prompt and answers of a question.
type QuestionContent struct {
	ID      Question `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// CorrectAnswer returns the first answer flagged correct.
func (q QuestionContent) CorrectAnswer() (Answer, bool) {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a, true
		}
	}
	return Answer{}, false
}

// AnswerByID finds an answer of q by id.
func (q QuestionContent) AnswerByID(id uuid.UUID) (Answer, bool) {
	for _, a := range q.Answers {
		if a.ID == id {
			return a, true
		}
	}
	return Answer{}, false
}
