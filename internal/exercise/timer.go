// Package exercise implements the tick-driven exercise timers and the quiz
// answer feedback delay.
//
// Timers do not own a clock. The caller invokes Tick once per clock pulse;
// ticks that arrive while a timer is idle are ignored. A timer that reaches
// its duration resets itself and then calls its completion callback, exactly
// once and before Tick returns.
package exercise

import (
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

// Timer is the common control surface of the tick-driven exercises.
type Timer interface {
	Exercise() models.ExerciseKind
	Start()
	Stop()
	Reset()
	Tick() TickResult
	Snapshot() models.TimerSnapshot
}

// TickResult describes one accepted or ignored tick.
type TickResult struct {
	// Advanced is false when the tick arrived while the timer was idle.
	Advanced bool
	// Flipped is true when the tick switched the exercise phase.
	Flipped bool
	// Finished is true when the tick completed the exercise.
	Finished bool
	// Snapshot is the state observed at this tick, before a completion reset.
	Snapshot models.TimerSnapshot
}

// countdown is the shared Idle/Running bookkeeping of every timer.
type countdown struct {
	kind     models.ExerciseKind
	duration int
	elapsed  int
	active   bool
	notifier notify.Notifier
	onFinish func()
}

func newCountdown(kind models.ExerciseKind, duration int, notifier notify.Notifier, onFinish func()) countdown {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return countdown{kind: kind, duration: duration, notifier: notifier, onFinish: onFinish}
}

func (c *countdown) Exercise() models.ExerciseKind { return c.kind }

// Start resumes counting from the current elapsed value.
func (c *countdown) Start() { c.active = true }

// Stop pauses counting and keeps the elapsed value.
func (c *countdown) Stop() { c.active = false }

func (c *countdown) Elapsed() int { return c.elapsed }

func (c *countdown) Active() bool { return c.active }

func (c *countdown) base(state models.TimerState) models.TimerSnapshot {
	return models.TimerSnapshot{
		Exercise:  c.kind,
		State:     state,
		Elapsed:   c.elapsed,
		Duration:  c.duration,
		Remaining: c.duration - c.elapsed,
	}
}

func (c *countdown) state() models.TimerState {
	if c.active {
		return models.TimerRunning
	}
	return models.TimerIdle
}

func (c *countdown) finish() {
	if c.onFinish != nil {
		c.onFinish()
	}
}
