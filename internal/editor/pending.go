package editor

import (
	"fmt"
	"time"

	"retronote/pkg/notedoc"
)

// PendingStore holds the style to apply to the next characters typed at a
// collapsed caret. A boolean counts as set only while true.
type PendingStore struct {
	style notedoc.Style
}

func (p *PendingStore) Set(attr notedoc.Attribute, v notedoc.Value) {
	p.style = p.style.With(attr, v)
}

// Toggle flips a boolean attribute, starting from false. Value attributes
// are left alone and Toggle reports false.
func (p *PendingStore) Toggle(attr notedoc.Attribute) bool {
	if !attr.IsBoolean() {
		return false
	}
	p.style = p.style.With(attr, notedoc.Bool(!p.style.Get(attr).On))
	return true
}

func (p *PendingStore) ClearAll() { p.style = notedoc.Style{} }

func (p *PendingStore) Style() notedoc.Style { return p.style }

func (p *PendingStore) Empty() bool { return p.style.IsZero() }

// SetPending records a pending value for the next insertion at the caret.
func (s *Session) SetPending(attr notedoc.Attribute, v notedoc.Value) error {
	if err := s.checkPending(attr); err != nil {
		return err
	}
	s.pending.Set(attr, v)
	s.armPending()
	return nil
}

func (s *Session) TogglePending(attr notedoc.Attribute) error {
	if err := s.checkPending(attr); err != nil {
		return err
	}
	if !s.pending.Toggle(attr) {
		return fmt.Errorf("%w: %s cannot be toggled", ErrInvalidArgument, attr)
	}
	s.armPending()
	return nil
}

func (s *Session) checkPending(attr notedoc.Attribute) error {
	if !s.sel.Collapsed() {
		return fmt.Errorf("%w: pending style needs a collapsed caret, have %v", ErrInvalidArgument, s.sel)
	}
	if !attr.Valid() {
		return fmt.Errorf("%w: unknown attribute %d", ErrInvalidArgument, attr)
	}
	return nil
}

func (s *Session) armPending() {
	if s.state == StateIdle {
		s.state = StatePendingArmed
	}
	s.guardUntil = time.Time{}
}
