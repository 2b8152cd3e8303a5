package editor

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"retronote/pkg/notedoc"
)

// typingRun remembers the run created for pending-styled typing. It is only
// trusted while the document version still matches.
type typingRun struct {
	index   int
	version uint64
	end     int
	valid   bool
}

// InsertText inserts text at the caret. With pending style armed the text
// lands in a run carrying it; otherwise the text joins the run before the
// caret. A non-collapsed selection is replaced.
func (s *Session) InsertText(text string) error {
	if text == "" {
		return nil
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidArgument)
	}
	if !s.sel.Collapsed() {
		if err := s.DeleteText(s.sel.Start(), s.sel.End()); err != nil {
			return err
		}
	}
	caret := s.sel.Focus
	n := utf8.RuneCountInString(text)

	var err error
	switch s.state {
	case StateIdle:
		err = s.doc.InsertText(caret, text)
	case StateTypingRunActive:
		if s.canExtend(caret) {
			err = s.extend(text, n)
			break
		}
		err = s.insertFresh(caret, text)
	default:
		err = s.insertFresh(caret, text)
	}
	if err != nil {
		return fmt.Errorf("%w: insert at %d: %w", ErrInvalidArgument, caret, err)
	}
	s.sel = Caret(caret + n)
	return nil
}

func (s *Session) canExtend(caret int) bool {
	if !s.run.valid {
		return false
	}
	if s.run.version != s.doc.Version() || s.run.index >= s.doc.NumRuns() {
		s.log.Debug("typing run reference is stale",
			zap.Int("run", s.run.index),
			zap.Uint64("recorded_version", s.run.version),
			zap.Uint64("document_version", s.doc.Version()))
		s.run = typingRun{}
		return false
	}
	if caret != s.run.end {
		return false
	}
	st := s.doc.Run(s.run.index).Style
	return notedoc.StylesMatch(st, st.Overlay(s.pending.Style()))
}

func (s *Session) extend(text string, n int) error {
	if err := s.doc.AppendToRun(s.run.index, text); err != nil {
		return err
	}
	s.run.version = s.doc.Version()
	s.run.end += n
	s.armGuard()
	return nil
}

func (s *Session) insertFresh(caret int, text string) error {
	st := s.doc.StylePreceding(caret).Overlay(s.pending.Style())
	idx, err := s.doc.InsertRun(caret, notedoc.Run{Text: text, Style: st})
	if err != nil {
		return err
	}
	s.state = StateTypingRunActive
	s.run = typingRun{index: idx, version: s.doc.Version(), end: s.doc.RunEnd(idx), valid: true}
	s.armGuard()
	return nil
}

func (s *Session) armGuard() {
	if s.guard <= 0 {
		s.guardUntil = s.now()
		return
	}
	s.guardUntil = s.now().Add(s.guard)
}

func (s *Session) guardActive() bool {
	return !s.guardUntil.IsZero() && s.now().Before(s.guardUntil)
}

// absorbEcho reports whether a caret report is a late echo of an insertion
// in the current typing run: a collapsed caret inside the run, behind the
// session caret, arriving while the guard is armed. Absorbing it keeps the
// pending style and the run reference for the rest of the keystroke.
func (s *Session) absorbEcho(sel Selection) bool {
	if s.state != StateTypingRunActive || !s.run.valid || !sel.Collapsed() || !s.guardActive() {
		return false
	}
	if s.run.version != s.doc.Version() || s.run.index >= s.doc.NumRuns() {
		return false
	}
	start := s.doc.RunStart(s.run.index)
	if sel.Focus <= start || sel.Focus >= s.sel.Focus {
		return false
	}
	s.log.Debug("absorbed caret echo inside typing run",
		zap.Int("reported", sel.Focus),
		zap.Int("caret", s.sel.Focus))
	return true
}
