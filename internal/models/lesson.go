package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Lesson identifies one unit of the tutorial. The set and its order are fixed.
type Lesson string

const (
	LessonIntroduction Lesson = "introduction"
	LessonFirst        Lesson = "first"
	LessonSecond       Lesson = "second"
	LessonThird        Lesson = "third"
	LessonQuiz         Lesson = "quiz"
)

var allLessons = []Lesson{LessonIntroduction, LessonFirst, LessonSecond, LessonThird, LessonQuiz}

// AllLessons returns the lessons in tutorial order.
func AllLessons() []Lesson {
	out := make([]Lesson, len(allLessons))
	copy(out, allLessons)
	return out
}

// Valid reports whether l is one of the known lessons.
func (l Lesson) Valid() bool {
	return l.Index() >= 0
}

// Index is the position of l in tutorial order, or -1.
func (l Lesson) Index() int {
	for i, candidate := range allLessons {
		if candidate == l {
			return i
		}
	}
	return -1
}

func ParseLesson(s string) (Lesson, error) {
	l := Lesson(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown lesson %q", s)
	}
	return l, nil
}

// ExerciseKind names the interactive activity attached to a lesson.
type ExerciseKind string

const (
	ExerciseContinue      ExerciseKind = "continue"
	ExerciseEyeRotation   ExerciseKind = "eye-rotation"
	ExerciseFocusShifting ExerciseKind = "focus-shifting"
	ExerciseRapidBlinking ExerciseKind = "rapid-blinking"
	ExerciseQuiz          ExerciseKind = "quiz"
)

// TimedExercises are the exercises driven by the one-second clock.
var TimedExercises = []ExerciseKind{ExerciseEyeRotation, ExerciseFocusShifting, ExerciseRapidBlinking}

func ParseTimedExercise(s string) (ExerciseKind, error) {
	for _, k := range TimedExercises {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown timed exercise %q", s)
}

// ExercisePanel describes the exercise area shown next to a lesson.
type ExercisePanel struct {
	Kind        ExerciseKind `json:"kind" yaml:"kind"`
	Emoji       string       `json:"emoji" yaml:"emoji"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
}

// LessonContent is the static metadata of a lesson.
type LessonContent struct {
	ID       Lesson          `json:"id"`
	Symbol   string          `json:"symbol"`
	Title    string          `json:"title"`
	Caption  string          `json:"caption"`
	Color    string          `json:"color"`
	Elements []LessonElement `json:"elements"`
	Exercise ExercisePanel   `json:"exercise"`
}

// ElementKind tags the variant of a LessonElement.
type ElementKind string

const (
	ElementText                ElementKind = "text"
	ElementTitle               ElementKind = "title"
	ElementListItem            ElementKind = "list_item"
	ElementExerciseDescription ElementKind = "exercise_description"
)

// ElementBody is the variant payload of a LessonElement. The set of
// implementations is closed; switch on the concrete type to render one.
type ElementBody interface {
	elementKind() ElementKind
}

type Text struct{ Content string }
type Title struct{ Content string }
type ListItem struct{ Content string }
type ExerciseDescription struct{ Content string }

func (Text) elementKind() ElementKind                { return ElementText }
func (Title) elementKind() ElementKind               { return ElementTitle }
func (ListItem) elementKind() ElementKind            { return ElementListItem }
func (ExerciseDescription) elementKind() ElementKind { return ElementExerciseDescription }

// LessonElement is one content block of a lesson: a shared envelope plus a variant body.
type LessonElement struct {
	ID         uuid.UUID
	PaddingTop bool
	Body       ElementBody
}

// NewElement wraps body in an envelope with a fresh id.
func NewElement(body ElementBody, paddingTop bool) LessonElement {
	return LessonElement{ID: uuid.New(), PaddingTop: paddingTop, Body: body}
}

func (e LessonElement) Kind() ElementKind {
	if e.Body == nil {
		return ""
	}
	return e.Body.elementKind()
}

// Content returns the markdown text carried by the element's variant.
func (e LessonElement) Content() string {
	switch b := e.Body.(type) {
	case Text:
		return b.Content
	case Title:
		return b.Content
	case ListItem:
		return b.Content
	case ExerciseDescription:
		return b.Content
	default:
		return ""
	}
}

type lessonElementJSON struct {
	ID         uuid.UUID   `json:"id"`
	Kind       ElementKind `json:"kind"`
	PaddingTop bool        `json:"padding_top"`
	Content    string      `json:"content"`
}

func (e LessonElement) MarshalJSON() ([]byte, error) {
	return json.Marshal(lessonElementJSON{
		ID:         e.ID,
		Kind:       e.Kind(),
		PaddingTop: e.PaddingTop,
		Content:    e.Content(),
	})
}

// BodyFor builds the variant for kind, or reports an unknown kind.
func BodyFor(kind ElementKind, content string) (ElementBody, error) {
	switch kind {
	case ElementText:
		return Text{Content: content}, nil
	case ElementTitle:
		return Title{Content: content}, nil
	case ElementListItem:
		return ListItem{Content: content}, nil
	case ElementExerciseDescription:
		return ExerciseDescription{Content: content}, nil
	default:
		return nil, fmt.Errorf("unknown element kind %q", kind)
	}
}
