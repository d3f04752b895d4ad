// Package content holds the read-only lesson and quiz tables of the tutorial.
package content

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/vytor/visionize/internal/models"
)

//go:embed content.yaml
var embeddedContent []byte

type yamlDocument struct {
	Lessons   []yamlLesson   `yaml:"lessons"`
	Questions []yamlQuestion `yaml:"questions"`
}

type yamlLesson struct {
	ID       string               `yaml:"id"`
	Symbol   string               `yaml:"symbol"`
	Title    string               `yaml:"title"`
	Caption  string               `yaml:"caption"`
	Color    string               `yaml:"color"`
	Exercise models.ExercisePanel `yaml:"exercise"`
	Elements []yamlElement        `yaml:"elements"`
}

type yamlElement struct {
	Kind       string `yaml:"kind"`
	PaddingTop bool   `yaml:"padding_top"`
	Content    string `yaml:"content"`
}

type yamlQuestion struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Answers []yamlAnswer `yaml:"answers"`
}

type yamlAnswer struct {
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}

// Provider serves the static tables. It is immutable after construction and
// safe for concurrent use.
type Provider struct {
	lessonOrder   []models.Lesson
	lessons       map[models.Lesson]models.LessonContent
	questionOrder []models.Question
	questions     map[models.Question]models.QuestionContent
}

// Load decodes the embedded tables. Element and answer ids are assigned here,
// once, and stay stable for the life of the Provider.
func Load() (*Provider, error) {
	return Parse(embeddedContent)
}

// MustLoad is Load for program start-up.
func MustLoad() *Provider {
	p, err := Load()
	if err != nil {
		panic(fmt.Sprintf("content: %v", err))
	}
	return p
}

// Parse decodes and validates a YAML content document.
func Parse(data []byte) (*Provider, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}

	p := &Provider{
		lessons:   make(map[models.Lesson]models.LessonContent, len(doc.Lessons)),
		questions: make(map[models.Question]models.QuestionContent, len(doc.Questions)),
	}

	for _, yl := range doc.Lessons {
		lc, err := buildLesson(yl)
		if err != nil {
			return nil, err
		}
		if _, dup := p.lessons[lc.ID]; dup {
			return nil, fmt.Errorf("lesson %q defined twice", lc.ID)
		}
		p.lessons[lc.ID] = lc
		p.lessonOrder = append(p.lessonOrder, lc.ID)
	}
	if err := checkOrder(p.lessonOrder, models.AllLessons()); err != nil {
		return nil, fmt.Errorf("lessons: %w", err)
	}

	for _, yq := range doc.Questions {
		qc, err := buildQuestion(yq)
		if err != nil {
			return nil, err
		}
		if _, dup := p.questions[qc.ID]; dup {
			return nil, fmt.Errorf("question %q defined twice", qc.ID)
		}
		p.questions[qc.ID] = qc
		p.questionOrder = append(p.questionOrder, qc.ID)
	}
	if err := checkOrder(p.questionOrder, models.AllQuestions()); err != nil {
		return nil, fmt.Errorf("questions: %w", err)
	}

	return p, nil
}

func buildLesson(yl yamlLesson) (models.LessonContent, error) {
	id, err := models.ParseLesson(yl.ID)
	if err != nil {
		return models.LessonContent{}, err
	}
	lc := models.LessonContent{
		ID:       id,
		Symbol:   yl.Symbol,
		Title:    yl.Title,
		Caption:  yl.Caption,
		Color:    yl.Color,
		Exercise: yl.Exercise,
		Elements: make([]models.LessonElement, 0, len(yl.Elements)),
	}
	for i, ye := range yl.Elements {
		body, err := models.BodyFor(models.ElementKind(ye.Kind), ye.Content)
		if err != nil {
			return models.LessonContent{}, fmt.Errorf("lesson %q element %d: %w", id, i, err)
		}
		lc.Elements = append(lc.Elements, models.NewElement(body, ye.PaddingTop))
	}
	return lc, nil
}

func buildQuestion(yq yamlQuestion) (models.QuestionContent, error) {
	id, err := models.ParseQuestion(yq.ID)
	if err != nil {
		return models.QuestionContent{}, err
	}
	qc := models.QuestionContent{ID: id, Text: yq.Text}
	correct := 0
	for _, ya := range yq.Answers {
		if ya.Correct {
			correct++
		}
		qc.Answers = append(qc.Answers, models.Answer{ID: uuid.New(), Text: ya.Text, IsCorrect: ya.Correct})
	}
	if correct != 1 {
		return models.QuestionContent{}, fmt.Errorf("question %q has %d correct answers, want 1", id, correct)
	}
	return qc, nil
}

func checkOrder[T comparable](got, want []T) error {
	if len(got) != len(want) {
		return fmt.Errorf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("entry %d is %v, want %v", i, got[i], want[i])
		}
	}
	return nil
}

// ErrUnknown is returned by lookups for identifiers outside the tables.
var ErrUnknown = errors.New("content: unknown identifier")

// Lessons enumerates the lessons in fixed order.
func (p *Provider) Lessons() []models.Lesson {
	out := make([]models.Lesson, len(p.lessonOrder))
	copy(out, p.lessonOrder)
	return out
}

// Lesson returns the metadata and element sequence of l.
func (p *Provider) Lesson(l models.Lesson) (models.LessonContent, error) {
	lc, ok := p.lessons[l]
	if !ok {
		return models.LessonContent{}, fmt.Errorf("%w: lesson %q", ErrUnknown, l)
	}
	return lc, nil
}

// AllLessonContent returns every lesson's content in fixed order.
func (p *Provider) AllLessonContent() []models.LessonContent {
	out := make([]models.LessonContent, 0, len(p.lessonOrder))
	for _, l := range p.lessonOrder {
		out = append(out, p.lessons[l])
	}
	return out
}

// Questions enumerates the quiz questions in fixed order.
func (p *Provider) Questions() []models.Question {
	out := make([]models.Question, len(p.questionOrder))
	copy(out, p.questionOrder)
	return out
}

// Question returns the prompt and ordered answers of q.
func (p *Provider) Question(q models.Question) (models.QuestionContent, error) {
	qc, ok := p.questions[q]
	if !ok {
		return models.QuestionContent{}, fmt.Errorf("%w: question %q", ErrUnknown, q)
	}
	return qc, nil
}

// AllQuestionContent returns every question's content in fixed order.
func (p *Provider) AllQuestionContent() []models.QuestionContent {
	out := make([]models.QuestionContent, 0, len(p.questionOrder))
	for _, q := range p.questionOrder {
		out = append(out, p.questions[q])
	}
	return out
}

// ExerciseLesson returns the lesson whose panel runs kind.
func (p *Provider) ExerciseLesson(kind models.ExerciseKind) (models.Lesson, bool) {
	for _, l := range p.lessonOrder {
		if p.lessons[l].Exercise.Kind == kind {
			return l, true
		}
	}
	return "", false
}
