package notify_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/notify"
)

func TestMulti_FansOut(t *testing.T) {
	a, b := &notify.Recorder{}, &notify.Recorder{}
	var seen []notify.Tone
	m := notify.Multi{a, nil, b, notify.Func(func(t notify.Tone) { seen = append(seen, t) })}

	m.Play(notify.ToneAnswerCorrect)
	m.Play(notify.ToneTimerTick)

	assert.Equal(t, []notify.Tone{notify.ToneAnswerCorrect, notify.ToneTimerTick}, a.Tones())
	assert.Equal(t, a.Tones(), b.Tones())
	assert.Equal(t, a.Tones(), seen)
}

func TestRecorder_Count(t *testing.T) {
	r := &notify.Recorder{}
	r.Play(notify.ToneTimerTick)
	r.Play(notify.ToneTimerTick)
	r.Play(notify.TonePhaseFlip)

	assert.Equal(t, 2, r.Count(notify.ToneTimerTick))
	assert.Equal(t, 1, r.Count(notify.TonePhaseFlip))
	assert.Equal(t, 0, r.Count(notify.ToneLessonFinished))

	r.Reset()
	assert.Empty(t, r.Tones())
}

func TestLog_WritesToneName(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DEBUG), logger.WithColors(false))

	notify.Log{Logger: log}.Play(notify.ToneLessonFinished)

	assert.Contains(t, buf.String(), "play tone 1025 (lesson_finished)")
}
