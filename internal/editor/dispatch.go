package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"retronote/pkg/notedoc"
)

// Event is one notification from the host editing surface.
type Event interface {
	event()
}

// InsertText reports characters entered at At.
type InsertText struct {
	At   int
	Text string
}

// SelectionChange reports the host's caret or selection. While the
// insertion guard is armed, a caret reported inside the typing run behind
// the current caret is a late echo of the keystroke and is ignored; hosts
// moving the caret on the user's behalf call Session.SetSelection.
type SelectionChange struct {
	Selection Selection
}

// FormatToggle is a bold/italic/underline button or shortcut.
type FormatToggle struct {
	Attr notedoc.Attribute
}

// FormatSet picks a font family, size or color.
type FormatSet struct {
	Attr  notedoc.Attribute
	Value notedoc.Value
}

// DeleteText reports a native deletion of [From, To).
type DeleteText struct {
	From int
	To   int
}

func (InsertText) event()      {}
func (SelectionChange) event() {}
func (FormatToggle) event()    {}
func (FormatSet) event()       {}
func (DeleteText) event()      {}

// Dispatch routes ev to the formatter that owns it. Formatting actions go
// to the selection formatter for a range and to the pending layer at a
// caret. Contract violations are logged and returned; the session is left
// unchanged.
func (s *Session) Dispatch(ev Event) error {
	err := s.dispatch(ev)
	if err != nil {
		lvl := s.log.Warn
		if errors.Is(err, ErrInvalidArgument) {
			lvl = s.log.Error
		}
		lvl("editor event rejected", zap.String("event", fmt.Sprintf("%T", ev)), zap.Error(err))
	}
	return err
}

func (s *Session) dispatch(ev Event) error {
	switch ev := ev.(type) {
	case InsertText:
		at := s.sel.Focus
		if !s.sel.Collapsed() {
			at = s.sel.Start()
		}
		if ev.At != at {
			if err := s.SetSelection(Caret(ev.At)); err != nil {
				return err
			}
		}
		return s.InsertText(ev.Text)
	case SelectionChange:
		if s.absorbEcho(ev.Selection) {
			return nil
		}
		return s.SetSelection(ev.Selection)
	case FormatToggle:
		if s.sel.Collapsed() {
			return s.TogglePending(ev.Attr)
		}
		return s.ToggleSelection(s.sel, ev.Attr)
	case FormatSet:
		if s.sel.Collapsed() {
			return s.SetPending(ev.Attr, ev.Value)
		}
		return s.ApplyToSelection(s.sel, ev.Attr, ev.Value)
	case DeleteText:
		return s.DeleteText(ev.From, ev.To)
	case nil:
		return fmt.Errorf("%w: nil event", ErrInvalidArgument)
	}
	return fmt.Errorf("%w: unknown event %T", ErrInvalidArgument, ev)
}
