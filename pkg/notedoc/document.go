package notedoc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrOutOfRange   = errors.New("notedoc: position out of range")
	ErrEmptyRun     = errors.New("notedoc: empty run")
	ErrUnmergedRuns = errors.New("notedoc: adjacent runs share a style")
)

// Run is a contiguous span of text sharing one Style. SizeCode is non-zero
// only for imported text that still carries a legacy size marker.
type Run struct {
	Text     string
	Style    Style
	SizeCode int
}

// Len returns the run length in characters.
func (r Run) Len() int {
	return utf8.RuneCountInString(r.Text)
}

func (r Run) mergeable(o Run) bool {
	return r.SizeCode == o.SizeCode && StylesMatch(r.Style, o.Style)
}

// Document is the ordered run sequence holding the note content. Every
// exported mutator leaves the sequence canonical: no empty runs and no two
// adjacent runs with equal styles. Positions are character offsets.
type Document struct {
	runs    []Run
	version uint64
}

func NewDocument(runs ...Run) *Document {
	d := &Document{runs: make([]Run, 0, len(runs))}
	d.runs = append(d.runs, runs...)
	d.canonicalize()
	return d
}

func PlainDocument(text string) *Document {
	return NewDocument(Run{Text: text})
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{runs: make([]Run, len(d.runs)), version: d.version}
	copy(out.runs, d.runs)
	return out
}

// Version increments on every structural mutation.
func (d *Document) Version() uint64 { return d.version }

func (d *Document) NumRuns() int { return len(d.runs) }

func (d *Document) Run(i int) Run {
	if i < 0 || i >= len(d.runs) {
		return Run{}
	}
	return d.runs[i]
}

func (d *Document) Runs() []Run {
	out := make([]Run, len(d.runs))
	copy(out, d.runs)
	return out
}

func (d *Document) Len() int {
	n := 0
	for _, r := range d.runs {
		n += r.Len()
	}
	return n
}

func (d *Document) Text() string {
	var b strings.Builder
	for _, r := range d.runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// RunStart returns the offset of the first character of run i.
func (d *Document) RunStart(i int) int {
	pos := 0
	for j := 0; j < i && j < len(d.runs); j++ {
		pos += d.runs[j].Len()
	}
	return pos
}

func (d *Document) RunEnd(i int) int {
	if i < 0 || i >= len(d.runs) {
		return d.Len()
	}
	return d.RunStart(i) + d.runs[i].Len()
}

// Locate converts pos into (runIndex, intraRunOffset). A position on a run
// boundary resolves to the run that starts there; pos == Len() resolves to
// (NumRuns(), 0).
func (d *Document) Locate(pos int) (int, int, error) {
	if pos < 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrOutOfRange, pos)
	}
	accum := 0
	for i, r := range d.runs {
		n := r.Len()
		if pos < accum+n {
			return i, pos - accum, nil
		}
		accum += n
	}
	if pos == accum {
		return len(d.runs), 0, nil
	}
	return 0, 0, fmt.Errorf("%w: %d > %d", ErrOutOfRange, pos, accum)
}

// CheckRange validates a half-open range against the document bounds.
func (d *Document) CheckRange(from, to int) error {
	n := d.Len()
	if from < 0 || to < 0 || from > n || to > n {
		return fmt.Errorf("%w: [%d, %d) in document of length %d", ErrOutOfRange, from, to, n)
	}
	if from > to {
		return fmt.Errorf("%w: inverted range [%d, %d)", ErrOutOfRange, from, to)
	}
	return nil
}

// StylePreceding returns the style of the character preceding pos, or the
// zero Style when nothing precedes it.
func (d *Document) StylePreceding(pos int) Style {
	if pos <= 0 {
		return Style{}
	}
	return d.StyleBefore(pos)
}

// StyleBefore is the style plain text typed at pos joins: the preceding
// character's, or the first run's at the start of the document. It is the
// zero Style for an empty document.
func (d *Document) StyleBefore(pos int) Style {
	if len(d.runs) == 0 {
		return Style{}
	}
	if pos <= 0 {
		return d.runs[0].Style
	}
	idx, _, err := d.Locate(pos - 1)
	if err != nil || idx >= len(d.runs) {
		return d.runs[len(d.runs)-1].Style
	}
	return d.runs[idx].Style
}

// Segments returns the runs overlapping [from, to) clipped to the range.
func (d *Document) Segments(from, to int) ([]Run, error) {
	if err := d.CheckRange(from, to); err != nil {
		return nil, err
	}
	var out []Run
	start := 0
	for _, r := range d.runs {
		n := r.Len()
		end := start + n
		if end > from && start < to {
			lo := max(from, start) - start
			hi := min(to, end) - start
			out = append(out, Run{Text: runeSlice(r.Text, lo, hi), Style: r.Style, SizeCode: r.SizeCode})
		}
		start = end
		if start >= to {
			break
		}
	}
	return out, nil
}

// SplitAt makes pos a run boundary and returns the index of the run that
// starts at pos (NumRuns() when pos is the end of the document). The
// sequence is left uncanonical until Canonicalize is called.
func (d *Document) SplitAt(pos int) (int, error) {
	idx, off, err := d.Locate(pos)
	if err != nil {
		return 0, err
	}
	if off == 0 {
		return idx, nil
	}
	r := d.runs[idx]
	left, right := splitRunes(r.Text, off)
	d.runs = append(d.runs, Run{})
	copy(d.runs[idx+2:], d.runs[idx+1:])
	d.runs[idx] = Run{Text: left, Style: r.Style, SizeCode: r.SizeCode}
	d.runs[idx+1] = Run{Text: right, Style: r.Style, SizeCode: r.SizeCode}
	d.version++
	return idx + 1, nil
}

// SetStyle replaces the style of run i. Callers restore canonical form
// with Canonicalize.
func (d *Document) SetStyle(i int, s Style) {
	if i < 0 || i >= len(d.runs) {
		return
	}
	d.runs[i].Style = s
	d.version++
}

// Canonicalize drops empty runs and merges adjacent runs whose styles
// match.
func (d *Document) Canonicalize() {
	d.canonicalize()
	d.version++
}

func (d *Document) canonicalize() {
	out := d.runs[:0]
	for _, r := range d.runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].mergeable(r) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	for i := len(out); i < len(d.runs); i++ {
		d.runs[i] = Run{}
	}
	d.runs = out
}

// InsertRun splices r in at pos and returns the index of the run that holds
// its text after canonicalization.
func (d *Document) InsertRun(pos int, r Run) (int, error) {
	if r.Text == "" {
		return 0, ErrEmptyRun
	}
	idx, err := d.SplitAt(pos)
	if err != nil {
		return 0, err
	}
	d.runs = append(d.runs, Run{})
	copy(d.runs[idx+1:], d.runs[idx:])
	d.runs[idx] = r
	d.Canonicalize()
	last, _, _ := d.Locate(pos + r.Len() - 1)
	return last, nil
}

// AppendToRun appends text to the end of run i without changing its style.
func (d *Document) AppendToRun(i int, text string) error {
	if i < 0 || i >= len(d.runs) {
		return fmt.Errorf("%w: run %d of %d", ErrOutOfRange, i, len(d.runs))
	}
	if text == "" {
		return nil
	}
	d.runs[i].Text += text
	d.version++
	return nil
}

// InsertText inserts text at pos into the run preceding pos, the way a
// plain editing surface extends the style at the caret.
func (d *Document) InsertText(pos int, text string) error {
	if text == "" {
		return nil
	}
	if _, _, err := d.Locate(pos); err != nil {
		return err
	}
	if len(d.runs) == 0 {
		d.runs = append(d.runs, Run{Text: text})
		d.version++
		return nil
	}
	idx, off := 0, 0
	if pos > 0 {
		idx, off, _ = d.Locate(pos - 1)
		off++
	}
	r := &d.runs[idx]
	left, right := splitRunes(r.Text, off)
	r.Text = left + text + right
	d.version++
	return nil
}

// Delete removes the characters in [from, to).
func (d *Document) Delete(from, to int) error {
	if err := d.CheckRange(from, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	first, err := d.SplitAt(from)
	if err != nil {
		return err
	}
	last, err := d.SplitAt(to)
	if err != nil {
		return err
	}
	d.runs = append(d.runs[:first], d.runs[last:]...)
	d.Canonicalize()
	return nil
}

// Check verifies the canonical-form invariants.
func (d *Document) Check() error {
	for i, r := range d.runs {
		if r.Text == "" {
			return fmt.Errorf("%w at index %d", ErrEmptyRun, i)
		}
		if !utf8.ValidString(r.Text) {
			return fmt.Errorf("notedoc: run %d is not valid UTF-8", i)
		}
		if i > 0 && d.runs[i-1].mergeable(r) {
			return fmt.Errorf("%w at index %d", ErrUnmergedRuns, i)
		}
	}
	return nil
}

func splitRunes(s string, n int) (string, string) {
	if n <= 0 {
		return "", s
	}
	i := 0
	for b := range s {
		if i == n {
			return s[:b], s[b:]
		}
		i++
	}
	return s, ""
}

func runeSlice(s string, lo, hi int) string {
	_, tail := splitRunes(s, lo)
	head, _ := splitRunes(tail, hi-lo)
	return head
}
