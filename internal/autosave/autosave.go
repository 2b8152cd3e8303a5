// Package autosave debounces content saves the way the editor status line
// expects: typing, then saved once input pauses, then idle again.
package autosave

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Status int

const (
	StatusIdle Status = iota
	StatusTyping
	StatusSaved
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusTyping:
		return "typing"
	case StatusSaved:
		return "saved"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

const (
	DefaultDelay = 900 * time.Millisecond
	DefaultHold  = 900 * time.Millisecond
)

type SaveFunc func(ctx context.Context) error

// Saver is polled from the host loop; it never starts goroutines.
type Saver struct {
	save  SaveFunc
	delay time.Duration
	hold  time.Duration
	log   *zap.Logger

	status  Status
	due     time.Time
	savedAt time.Time
}

func New(save SaveFunc, delay, hold time.Duration, log *zap.Logger) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if hold <= 0 {
		hold = DefaultHold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Saver{save: save, delay: delay, hold: hold, log: log}
}

func (s *Saver) Status() Status { return s.status }

// Dirty reports whether a save is scheduled.
func (s *Saver) Dirty() bool { return !s.due.IsZero() }

// Touch records an edit and pushes the save deadline out.
func (s *Saver) Touch(now time.Time) {
	s.status = StatusTyping
	s.due = now.Add(s.delay)
}

// Poll saves when the deadline has passed and drops the saved status back
// to idle after the hold period. It reports whether a save ran.
func (s *Saver) Poll(ctx context.Context, now time.Time) (bool, error) {
	if !s.due.IsZero() && !now.Before(s.due) {
		return true, s.flush(ctx, now)
	}
	if s.status == StatusSaved && !now.Before(s.savedAt.Add(s.hold)) {
		s.status = StatusIdle
	}
	return false, nil
}

// SaveNow saves immediately, cancelling any scheduled save.
func (s *Saver) SaveNow(ctx context.Context, now time.Time) error {
	return s.flush(ctx, now)
}

// Reset forgets any scheduled save, as after clearing the note.
func (s *Saver) Reset() {
	s.status = StatusIdle
	s.due = time.Time{}
}

func (s *Saver) flush(ctx context.Context, now time.Time) error {
	if err := s.save(ctx); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
		s.status = StatusTyping
		s.due = now.Add(s.delay)
		return err
	}
	s.status = StatusSaved
	s.savedAt = now
	s.due = time.Time{}
	return nil
}
