package exercise

import (
	"errors"
	"fmt"

	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

const (
	FocusShiftingDuration = 30

	MinSwitchSeconds     = 1
	DefaultSwitchSeconds = 2
	MaxSwitchSeconds     = 3
)

var ErrInvalidSwitchSeconds = errors.New("exercise: switch interval out of range")

var focusTargets = [2]string{"thumb", "distant object"}

// FocusShifting alternates the focus target between index 0 (thumb) and
// index 1 (distant object) every switchSeconds for 30 seconds.
type FocusShifting struct {
	countdown
	switchSeconds int
	highlighted   int
}

func NewFocusShifting(switchSeconds int, notifier notify.Notifier, onFinish func()) (*FocusShifting, error) {
	t := &FocusShifting{
		countdown: newCountdown(models.ExerciseFocusShifting, FocusShiftingDuration, notifier, onFinish),
	}
	if err := t.SetSwitchSeconds(switchSeconds); err != nil {
		return nil, err
	}
	return t, nil
}

// SetSwitchSeconds changes the interval; it takes effect on the next tick.
func (t *FocusShifting) SetSwitchSeconds(seconds int) error {
	if seconds < MinSwitchSeconds || seconds > MaxSwitchSeconds {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidSwitchSeconds, seconds, MinSwitchSeconds, MaxSwitchSeconds)
	}
	t.switchSeconds = seconds
	return nil
}

func (t *FocusShifting) SwitchSeconds() int { return t.switchSeconds }

func (t *FocusShifting) Highlighted() int { return t.highlighted }

func (t *FocusShifting) Reset() {
	t.active = false
	t.elapsed = 0
	t.highlighted = 0
}

func (t *FocusShifting) Tick() TickResult {
	if !t.active {
		return TickResult{}
	}
	t.elapsed++
	res := TickResult{Advanced: true}

	if t.elapsed%t.switchSeconds != 0 {
		t.notifier.Play(notify.ToneTimerTick)
	}
	if t.elapsed < t.duration && t.elapsed%t.switchSeconds == 0 {
		t.highlighted = (t.highlighted + 1) % len(focusTargets)
		t.notifier.Play(notify.TonePhaseFlip)
		res.Flipped = true
	}

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

func (t *FocusShifting) Snapshot() models.TimerSnapshot {
	return t.snapshot(t.state())
}

func (t *FocusShifting) snapshot(state models.TimerState) models.TimerSnapshot {
	snap := t.base(state)
	snap.HighlightedIndex = t.highlighted
	snap.SwitchSeconds = t.switchSeconds
	snap.Phase = focusTargets[t.highlighted]
	return snap
}
