// Package notify carries the fire-and-forget audio cues of the tutorial.
package notify

import (
	"sync"

	"github.com/vytor/visionize/internal/logger"
)

// Tone is a system sound identifier played at a transition point.
type Tone int

const (
	ToneTimerTick      Tone = 1105
	TonePhaseFlip      Tone = 1103
	ToneLessonFinished Tone = 1025
	ToneAnswerCorrect  Tone = 1111
	ToneAnswerWrong    Tone = 1053
)

func (t Tone) String() string {
	switch t {
	case ToneTimerTick:
		return "timer_tick"
	case TonePhaseFlip:
		return "phase_flip"
	case ToneLessonFinished:
		return "lesson_finished"
	case ToneAnswerCorrect:
		return "answer_correct"
	case ToneAnswerWrong:
		return "answer_wrong"
	default:
		return "unknown"
	}
}

// Notifier plays tones. Play must not block and has no failure mode visible to the caller.
type Notifier interface {
	Play(tone Tone)
}

// Func adapts a function to Notifier.
type Func func(Tone)

func (f Func) Play(t Tone) { f(t) }

// Nop discards every tone.
type Nop struct{}

func (Nop) Play(Tone) {}

// Log writes each tone at DEBUG level.
type Log struct {
	Logger *logger.Logger
}

func (n Log) Play(t Tone) {
	log := n.Logger
	if log == nil {
		log = logger.Default()
	}
	log.Debug("play tone %d (%s)", int(t), t)
}

// Multi fans a tone out to several notifiers in order.
type Multi []Notifier

func (m Multi) Play(t Tone) {
	for _, n := range m {
		if n != nil {
			n.Play(t)
		}
	}
}

// Recorder remembers every tone it was asked to play.
type Recorder struct {
	mu    sync.Mutex
	tones []Tone
}

func (r *Recorder) Play(t Tone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = append(r.tones, t)
}

// Tones returns a copy of the recorded tones.
func (r *Recorder) Tones() []Tone {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tone, len(r.tones))
	copy(out, r.tones)
	return out
}

// Count returns how many times t was played.
func (r *Recorder) Count(t Tone) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, played := range r.tones {
		if played == t {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tones = nil
}
