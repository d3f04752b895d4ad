// Package progress tracks which lesson is open and which lessons are done.
package progress

import (
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/notify"
)

// Store holds the current lesson pointer and the finished set. It is not
// safe for concurrent use; the owning session serialises access.
type Store struct {
	order     []models.Lesson
	current   models.Lesson
	finished  map[models.Lesson]struct{}
	progress  float64
	notifier  notify.Notifier
	listeners []func(models.ProgressSnapshot)
}

// NewStore starts at the first lesson of order with nothing finished.
func NewStore(order []models.Lesson, notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	s := &Store{
		order:    append([]models.Lesson(nil), order...),
		finished: make(map[models.Lesson]struct{}),
		notifier: notifier,
	}
	if len(s.order) > 0 {
		s.current = s.order[0]
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every mutation.
func (s *Store) Subscribe(fn func(models.ProgressSnapshot)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) changed() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func (s *Store) Current() models.Lesson {
	return s.current
}

// SwitchLesson sets the current lesson without validation.
func (s *Store) SwitchLesson(l models.Lesson) {
	s.current = l
	s.changed()
}

// NextLesson moves one lesson forward; no-op on the last lesson.
func (s *Store) NextLesson() {
	if i := s.indexOf(s.current); i >= 0 && i < len(s.order)-1 {
		s.SwitchLesson(s.order[i+1])
	}
}

// PreviousLesson moves one lesson back; no-op on the first lesson.
func (s *Store) PreviousLesson() {
	if i := s.indexOf(s.current); i > 0 {
		s.SwitchLesson(s.order[i-1])
	}
}

func (s *Store) IsActive(l models.Lesson) bool {
	return s.current == l
}

func (s *Store) IsFinished(l models.Lesson) bool {
	_, ok := s.finished[l]
	return ok
}

// FinishLesson adds l to the finished set and plays the completion tone.
// Finishing twice leaves the set unchanged but still recomputes progress.
func (s *Store) FinishLesson(l models.Lesson) {
	s.finished[l] = struct{}{}
	s.updateProgress()
	s.notifier.Play(notify.ToneLessonFinished)
	s.changed()
}

// ResetLesson removes l from the finished set.
func (s *Store) ResetLesson(l models.Lesson) {
	delete(s.finished, l)
	s.updateProgress()
	s.changed()
}

// ResetAll clears the finished set and returns to the first lesson.
func (s *Store) ResetAll() {
	s.finished = make(map[models.Lesson]struct{})
	if len(s.order) > 0 {
		s.current = s.order[0]
	}
	s.updateProgress()
	s.changed()
}

// Progress is 100 x finished / lessons.
func (s *Store) Progress() float64 {
	return s.progress
}

// Finished lists the finished lessons in tutorial order.
func (s *Store) Finished() []models.Lesson {
	out := make([]models.Lesson, 0, len(s.finished))
	for _, l := range s.order {
		if s.IsFinished(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) Snapshot() models.ProgressSnapshot {
	return models.ProgressSnapshot{
		CurrentLesson: s.current,
		Finished:      s.Finished(),
		Progress:      s.progress,
	}
}

func (s *Store) updateProgress() {
	if len(s.order) == 0 {
		s.progress = 0
		return
	}
	s.progress = float64(len(s.finished)) * 100.0 / float64(len(s.order))
}

func (s *Store) indexOf(l models.Lesson) int {
	for i, candidate := range s.order {
		if candidate == l {
			return i
		}
	}
	return -1
}
