package editor

import (
	"fmt"

	"retronote/pkg/notedoc"
)

// EffectiveStyle is what the toolbar shows for sel. At a caret it is the
// style of the preceding character with the pending layer on top. Over a
// range a boolean reads true only if every character has it, and a value
// attribute is reported only when the whole range agrees on it.
func (s *Session) EffectiveStyle(sel Selection) (notedoc.Style, error) {
	if err := s.checkSelection(sel); err != nil {
		return notedoc.Style{}, err
	}
	if sel.Collapsed() {
		return s.doc.StylePreceding(sel.Focus).Overlay(s.pending.Style()), nil
	}
	segs, err := s.doc.Segments(sel.Start(), sel.End())
	if err != nil {
		return notedoc.Style{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return intersect(segs), nil
}

// CurrentStyle evaluates EffectiveStyle at the session selection.
func (s *Session) CurrentStyle() notedoc.Style {
	st, err := s.EffectiveStyle(s.sel)
	if err != nil {
		return notedoc.Style{}
	}
	return st
}

func intersect(segs []notedoc.Run) notedoc.Style {
	if len(segs) == 0 {
		return notedoc.Style{}
	}
	out := segs[0].Style
	for _, r := range segs[1:] {
		st := r.Style
		out.Bold = out.Bold && st.Bold
		out.Italic = out.Italic && st.Italic
		out.Underline = out.Underline && st.Underline
		if out.FontFamily != st.FontFamily {
			out.FontFamily = ""
		}
		if out.FontSize != st.FontSize {
			out.FontSize = 0
		}
		if out.Color != st.Color {
			out.Color = ""
		}
	}
	return out
}
