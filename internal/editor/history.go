package editor

import "retronote/pkg/notedoc"

const DefaultHistoryLimit = 200

type snapshot struct {
	doc *notedoc.Document
	sel Selection
}

// History is a snapshot undo stack over a session's document.
type History struct {
	undo  []snapshot
	redo  []snapshot
	limit int
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

func capture(s *Session) snapshot {
	return snapshot{doc: s.doc.Clone(), sel: s.sel}
}

// Record saves the session's current document before a mutation. It drops
// the redo stack.
func (h *History) Record(s *Session) {
	h.undo = append(h.undo, capture(s))
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = h.redo[:0]
}

func (h *History) Undo(s *Session) bool {
	if len(h.undo) == 0 {
		return false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, capture(s))
	s.Reset(last.doc, last.sel)
	return true
}

func (h *History) Redo(s *Session) bool {
	if len(h.redo) == 0 {
		return false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, capture(s))
	s.Reset(last.doc, last.sel)
	return true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}
