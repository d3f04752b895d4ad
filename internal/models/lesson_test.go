package models_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/visionize/internal/models"
)

func TestLessonOrder(t *testing.T) {
	lessons := models.AllLessons()
	require.Len(t, lessons, 5)
	assert.Equal(t, models.LessonIntroduction, lessons[0])
	assert.Equal(t, models.LessonQuiz, lessons[4])
	assert.Equal(t, 2, models.LessonSecond.Index())
	assert.Equal(t, -1, models.Lesson("fourth").Index())

	// the returned slice is a copy
	lessons[0] = models.LessonQuiz
	assert.Equal(t, models.LessonIntroduction, models.AllLessons()[0])
}

func TestParseLesson(t *testing.T) {
	l, err := models.ParseLesson("third")
	require.NoError(t, err)
	assert.Equal(t, models.LessonThird, l)

	_, err = models.ParseLesson("Third")
	assert.Error(t, err)
}

func TestLessonElement_VariantDispatch(t *testing.T) {
	tests := []struct {
		body models.ElementBody
		kind models.ElementKind
	}{
		{models.Text{Content: "a"}, models.ElementText},
		{models.Title{Content: "b"}, models.ElementTitle},
		{models.ListItem{Content: "c"}, models.ElementListItem},
		{models.ExerciseDescription{Content: "d"}, models.ElementExerciseDescription},
	}

	for _, tt := range tests {
		el := models.NewElement(tt.body, true)
		assert.NotEqual(t, uuid.Nil, el.ID)
		assert.Equal(t, tt.kind, el.Kind())
		assert.True(t, el.PaddingTop)
	}
}

func TestLessonElement_MarshalJSON(t *testing.T) {
	el := models.NewElement(models.ListItem{Content: "Driving your car"}, false)

	raw, err := json.Marshal(el)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, el.ID.String(), decoded["id"])
	assert.Equal(t, "list_item", decoded["kind"])
	assert.Equal(t, false, decoded["padding_top"])
	assert.Equal(t, "Driving your car", decoded["content"])
}

func TestBodyFor_UnknownKind(t *testing.T) {
	_, err := models.BodyFor("quote", "x")
	assert.Error(t, err)

	body, err := models.BodyFor(models.ElementTitle, "Positive Effects")
	require.NoError(t, err)
	assert.Equal(t, models.Title{Content: "Positive Effects"}, body)
}

func TestAnswerEqualityIsByID(t *testing.T) {
	a := models.Answer{ID: uuid.New(), Text: "Eye fatigue", IsCorrect: true}
	b := models.Answer{ID: uuid.New(), Text: "Eye fatigue", IsCorrect: true}

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))
}
