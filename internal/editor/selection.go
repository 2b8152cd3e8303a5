package editor

import (
	"fmt"
	"strings"

	"retronote/pkg/notedoc"
)

// Selection is a caret (Anchor == Focus) or the half-open range between
// the two ends.
type Selection struct {
	Anchor int
	Focus  int
}

func Caret(pos int) Selection { return Selection{Anchor: pos, Focus: pos} }

func Range(anchor, focus int) Selection { return Selection{Anchor: anchor, Focus: focus} }

func (s Selection) Collapsed() bool { return s.Anchor == s.Focus }

func (s Selection) Start() int { return min(s.Anchor, s.Focus) }

func (s Selection) End() int { return max(s.Anchor, s.Focus) }

func (s Selection) Len() int { return s.End() - s.Start() }

func (s Selection) String() string {
	if s.Collapsed() {
		return fmt.Sprintf("caret(%d)", s.Focus)
	}
	return fmt.Sprintf("[%d,%d)", s.Start(), s.End())
}

// ApplyToSelection sets attr to v on every character of sel and collapses
// the selection at its end. The document is untouched on error.
func (s *Session) ApplyToSelection(sel Selection, attr notedoc.Attribute, v notedoc.Value) error {
	if err := s.checkRange(sel, attr); err != nil {
		return err
	}
	return s.restyle(sel, func(st notedoc.Style) notedoc.Style { return st.With(attr, v) })
}

// ToggleSelection flips a boolean attribute over sel. The new value is the
// inverse of the value held by most selected characters; a tie goes to the
// first selected character.
func (s *Session) ToggleSelection(sel Selection, attr notedoc.Attribute) error {
	if err := s.checkRange(sel, attr); err != nil {
		return err
	}
	if !attr.IsBoolean() {
		return fmt.Errorf("%w: %s cannot be toggled", ErrInvalidArgument, attr)
	}
	on := !s.dominant(sel, attr)
	return s.restyle(sel, func(st notedoc.Style) notedoc.Style { return st.With(attr, notedoc.Bool(on)) })
}

func (s *Session) checkRange(sel Selection, attr notedoc.Attribute) error {
	if sel.Collapsed() {
		return fmt.Errorf("%w: selection %v is collapsed", ErrInvalidArgument, sel)
	}
	if !attr.Valid() {
		return fmt.Errorf("%w: unknown attribute %d", ErrInvalidArgument, attr)
	}
	if err := s.doc.CheckRange(sel.Start(), sel.End()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

func (s *Session) restyle(sel Selection, mut func(notedoc.Style) notedoc.Style) error {
	first, err := s.doc.SplitAt(sel.Start())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	last, err := s.doc.SplitAt(sel.End())
	if err != nil {
		s.doc.Canonicalize()
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	for i := first; i < last; i++ {
		s.doc.SetStyle(i, mut(s.doc.Run(i).Style))
	}
	s.doc.Canonicalize()
	s.sel = Caret(sel.End())
	return nil
}

func (s *Session) dominant(sel Selection, attr notedoc.Attribute) bool {
	segs, err := s.doc.Segments(sel.Start(), sel.End())
	if err != nil || len(segs) == 0 {
		return false
	}
	on, off := 0, 0
	for _, r := range segs {
		if r.Style.Get(attr).On {
			on += r.Len()
		} else {
			off += r.Len()
		}
	}
	if on == off {
		return segs[0].Style.Get(attr).On
	}
	return on > off
}

// SelectedText returns the characters covered by the session selection.
func (s *Session) SelectedText() string {
	if s.sel.Collapsed() {
		return ""
	}
	segs, err := s.doc.Segments(s.sel.Start(), s.sel.End())
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, r := range segs {
		b.WriteString(r.Text)
	}
	return b.String()
}
