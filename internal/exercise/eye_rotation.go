package exercise

import (
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

const (
	EyeRotationDuration = 30
	// RotationPeriod is how many seconds the eyes circle in one direction.
	RotationPeriod = 15
)

// EyeRotation guides 30 seconds of eye circling, reversing direction every
// RotationPeriod seconds.
type EyeRotation struct {
	countdown
	angle     float64
	direction int
}

func NewEyeRotation(notifier notify.Notifier, onFinish func()) *EyeRotation {
	return &EyeRotation{
		countdown: newCountdown(models.ExerciseEyeRotation, EyeRotationDuration, notifier, onFinish),
		direction: 1,
	}
}

// Reset stops the timer and restores elapsed time, angle and direction.
func (t *EyeRotation) Reset() {
	t.active = false
	t.elapsed = 0
	t.angle = 0
	t.direction = 1
}

func (t *EyeRotation) Tick() TickResult {
	if !t.active {
		return TickResult{}
	}
	t.elapsed++
	res := TickResult{Advanced: true}

	if t.elapsed%RotationPeriod != 0 {
		t.notifier.Play(notify.ToneTimerTick)
	}
	if t.elapsed < t.duration && t.elapsed%RotationPeriod == 0 {
		t.direction *= -1
		t.notifier.Play(notify.TonePhaseFlip)
		res.Flipped = true
	}
	t.angle += 360 / float64(RotationPeriod) * float64(t.direction)

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

func (t *EyeRotation) Direction() int { return t.direction }

func (t *EyeRotation) Angle() float64 { return t.angle }

func (t *EyeRotation) Snapshot() models.TimerSnapshot {
	return t.snapshot(t.state())
}

func (t *EyeRotation) snapshot(state models.TimerState) models.TimerSnapshot {
	snap := t.base(state)
	snap.Direction = t.direction
	snap.Angle = t.angle
	snap.Phase = "clockwise"
	if t.elapsed >= RotationPeriod {
		snap.Phase = "counterclockwise"
	}
	return snap
}
