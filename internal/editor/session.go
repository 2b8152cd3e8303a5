package editor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"retronote/pkg/notedoc"
)

// ErrInvalidArgument reports a caller contract violation: a collapsed
// selection handed to the selection formatter, an out-of-range position, or
// an attribute that does not fit the action.
var ErrInvalidArgument = errors.New("editor: invalid argument")

const DefaultInsertGuard = 100 * time.Millisecond

type TypingState int

const (
	StateIdle TypingState = iota
	StatePendingArmed
	StateTypingRunActive
)

func (s TypingState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingArmed:
		return "pending-armed"
	case StateTypingRunActive:
		return "typing-run-active"
	}
	return fmt.Sprintf("TypingState(%d)", int(s))
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now for the insertion guard.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithInsertGuard(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.guard = d
		}
	}
}

// Session owns one document and all inline formatting state for it. It is
// driven from a single goroutine.
type Session struct {
	doc     *notedoc.Document
	sel     Selection
	pending PendingStore
	state   TypingState
	run     typingRun

	guard      time.Duration
	guardUntil time.Time
	now        func() time.Time
	log        *zap.Logger
}

func NewSession(doc *notedoc.Document, opts ...Option) *Session {
	if doc == nil {
		doc = notedoc.NewDocument()
	}
	s := &Session{
		doc:   doc,
		sel:   Caret(doc.Len()),
		guard: DefaultInsertGuard,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Document() *notedoc.Document { return s.doc }

func (s *Session) Text() string { return s.doc.Text() }

func (s *Session) Selection() Selection { return s.sel }

func (s *Session) TypingState() TypingState { return s.state }

// Pending returns the pending style layer.
func (s *Session) Pending() notedoc.Style { return s.pending.Style() }

// Focus starts a fresh pending layer, as when the editing surface gains
// focus.
func (s *Session) Focus() {
	s.clearPending()
}

// SetSelection moves the caret or selection. Any actual move discards the
// pending style; re-reporting the current selection is a no-op.
func (s *Session) SetSelection(sel Selection) error {
	if err := s.checkSelection(sel); err != nil {
		return err
	}
	if sel == s.sel {
		return nil
	}
	s.sel = sel
	s.clearPending()
	return nil
}

// Reset swaps in a new document (load, undo, redo) and places the caret.
func (s *Session) Reset(doc *notedoc.Document, sel Selection) {
	if doc == nil {
		doc = notedoc.NewDocument()
	}
	s.doc = doc
	n := doc.Len()
	s.sel = Selection{Anchor: clamp(sel.Anchor, 0, n), Focus: clamp(sel.Focus, 0, n)}
	s.clearPending()
}

// DeleteText removes [from, to) the way the host's native deletion does and
// collapses the caret at from.
func (s *Session) DeleteText(from, to int) error {
	if from > to {
		from, to = to, from
	}
	if err := s.doc.Delete(from, to); err != nil {
		return fmt.Errorf("%w: delete: %w", ErrInvalidArgument, err)
	}
	s.sel = Caret(from)
	s.clearPending()
	return nil
}

func (s *Session) checkSelection(sel Selection) error {
	n := s.doc.Len()
	if sel.Anchor < 0 || sel.Anchor > n || sel.Focus < 0 || sel.Focus > n {
		return fmt.Errorf("%w: selection %v outside document of length %d", ErrInvalidArgument, sel, n)
	}
	return nil
}

func (s *Session) clearPending() {
	s.pending.ClearAll()
	s.state = StateIdle
	s.run = typingRun{}
	s.guardUntil = time.Time{}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
