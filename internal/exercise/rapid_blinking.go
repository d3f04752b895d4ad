package exercise

import (
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

const (
	RapidBlinkingDuration = 15
	// BlinkPeriod is the length of one blinking block and of one rest block.
	BlinkPeriod = 5
)

// RapidBlinking alternates five seconds of blinking with five seconds of rest.
// The eye symbol is highlighted for elapsed seconds 1-5 and 11-15.
type RapidBlinking struct {
	countdown
	highlighted bool
}

func NewRapidBlinking(notifier notify.Notifier, onFinish func()) *RapidBlinking {
	return &RapidBlinking{
		countdown: newCountdown(models.ExerciseRapidBlinking, RapidBlinkingDuration, notifier, onFinish),
	}
}

func (t *RapidBlinking) Highlighted() bool { return t.highlighted }

func (t *RapidBlinking) Reset() {
	t.active = false
	t.elapsed = 0
	t.highlighted = false
}

func (t *RapidBlinking) Tick() TickResult {
	if !t.active {
		return TickResult{}
	}
	t.elapsed++
	res := TickResult{Advanced: true}

	if t.elapsed%BlinkPeriod != 0 {
		t.notifier.Play(notify.ToneTimerTick)
	} else if t.elapsed < t.duration {
		// closes a block; the next second starts the other phase
		t.notifier.Play(notify.TonePhaseFlip)
	}

	highlighted := (t.elapsed-1)%(BlinkPeriod*2) < BlinkPeriod
	res.Flipped = t.elapsed > 1 && highlighted != t.highlighted
	t.highlighted = highlighted

	if t.elapsed >= t.duration {
		res.Finished = true
		res.Snapshot = t.snapshot(models.TimerFinished)
		t.Reset()
		t.finish()
		return res
	}
	res.Snapshot = t.Snapshot()
	return res
}

func (t *RapidBlinking) Snapshot() models.TimerSnapshot {
	return t.snapshot(t.state())
}

func (t *RapidBlinking) snapshot(state models.TimerState) models.TimerSnapshot {
	snap := t.base(state)
	snap.Highlighted = t.highlighted
	snap.Phase = "rest"
	if t.highlighted {
		snap.Phase = "blink"
	}
	return snap
}
