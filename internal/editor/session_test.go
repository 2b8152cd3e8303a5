package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"retronote/pkg/notedoc"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(runs ...notedoc.Run) (*Session, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSession(notedoc.NewDocument(runs...), WithClock(clock.Now))
	return s, clock
}

func mustDispatch(t *testing.T, s *Session, events ...Event) {
	t.Helper()
	for _, ev := range events {
		if err := s.Dispatch(ev); err != nil {
			t.Fatalf("dispatch %#v: %v", ev, err)
		}
	}
}

func expectRuns(t *testing.T, s *Session, want []notedoc.Run) {
	t.Helper()
	if diff := cmp.Diff(want, s.Document().Runs()); diff != "" {
		t.Fatalf("runs mismatch (-want +got):\n%s", diff)
	}
	if err := s.Document().Check(); err != nil {
		t.Fatalf("document not canonical: %v", err)
	}
}

var (
	boldStyle   = notedoc.Style{Bold: true}
	italicStyle = notedoc.Style{Italic: true}
)

func TestTypingContinuity(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "x"})
	mustDispatch(t, s,
		FormatToggle{Attr: notedoc.AttrBold},
		InsertText{At: 1, Text: "A"},
		InsertText{At: 2, Text: "B"},
	)
	expectRuns(t, s, []notedoc.Run{
		{Text: "x"},
		{Text: "AB", Style: boldStyle},
	})
	if got := s.TypingState(); got != StateTypingRunActive {
		t.Fatalf("state = %v, want typing-run-active", got)
	}
	if got := s.Selection(); got != Caret(3) {
		t.Fatalf("caret = %v, want caret(3)", got)
	}
}

func TestTypingContinuityAfterGuardExpires(t *testing.T) {
	s, clock := newTestSession()
	mustDispatch(t, s, FormatToggle{Attr: notedoc.AttrItalic}, InsertText{At: 0, Text: "A"})
	clock.Advance(5 * time.Second)
	mustDispatch(t, s, InsertText{At: 1, Text: "B"})
	expectRuns(t, s, []notedoc.Run{{Text: "AB", Style: italicStyle}})
}

func TestTypingDiscontinuityStillMerges(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "xyz"})
	mustDispatch(t, s,
		SelectionChange{Selection: Caret(1)},
		FormatToggle{Attr: notedoc.AttrBold},
		InsertText{At: 1, Text: "A"},
		SelectionChange{Selection: Caret(4)},
		SelectionChange{Selection: Caret(2)},
		InsertText{At: 2, Text: "B"},
	)
	expectRuns(t, s, []notedoc.Run{
		{Text: "x"},
		{Text: "AB", Style: boldStyle},
		{Text: "yz"},
	})
	if got := s.TypingState(); got != StateIdle {
		t.Fatalf("state = %v, want idle after caret move", got)
	}
}

func TestTypingRunExtendsAtRunEnd(t *testing.T) {
	s, clock := newTestSession(notedoc.Run{Text: "ab"})
	mustDispatch(t, s, SelectionChange{Selection: Caret(1)}, FormatSet{Attr: notedoc.AttrColor, Value: notedoc.Color("#00ff00")})
	mustDispatch(t, s, InsertText{At: 1, Text: "X"})
	clock.Advance(50 * time.Millisecond)
	mustDispatch(t, s, InsertText{At: 2, Text: "Y"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "a"},
		{Text: "XY", Style: notedoc.Style{Color: "#00ff00"}},
		{Text: "b"},
	})
}

func TestTypingDiscontinuityFreshRunMerges(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "xyz"})
	mustDispatch(t, s,
		SelectionChange{Selection: Caret(1)},
		FormatToggle{Attr: notedoc.AttrBold},
		InsertText{At: 1, Text: "A"},
		SelectionChange{Selection: Caret(4)},
		SelectionChange{Selection: Caret(2)},
		FormatToggle{Attr: notedoc.AttrBold},
	)
	if got := s.TypingState(); got != StatePendingArmed {
		t.Fatalf("state = %v, want pending-armed", got)
	}
	mustDispatch(t, s, InsertText{At: 2, Text: "B"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "x"},
		{Text: "AB", Style: boldStyle},
		{Text: "yz"},
	})
	if got := s.TypingState(); got != StateTypingRunActive {
		t.Fatalf("state = %v, want typing-run-active", got)
	}
}

func TestPendingAtDocumentStartIgnoresFollowingRun(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "Hello", Style: boldStyle})
	mustDispatch(t, s,
		SelectionChange{Selection: Caret(0)},
		FormatToggle{Attr: notedoc.AttrItalic},
	)
	got, err := s.EffectiveStyle(Caret(0))
	if err != nil {
		t.Fatalf("EffectiveStyle: %v", err)
	}
	if got != italicStyle {
		t.Fatalf("EffectiveStyle at start = %v, want %v", got, italicStyle)
	}
	mustDispatch(t, s, InsertText{At: 0, Text: "X"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "X", Style: italicStyle},
		{Text: "Hello", Style: boldStyle},
	})
}

func TestIdleInsertAtDocumentStartJoinsFirstRun(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "Hello", Style: boldStyle})
	mustDispatch(t, s, SelectionChange{Selection: Caret(0)}, InsertText{At: 0, Text: "X"})
	expectRuns(t, s, []notedoc.Run{{Text: "XHello", Style: boldStyle}})
}

// typeBoldXY types "XY" in a fresh bold run and reports a late caret at 1.
func typeBoldXY(t *testing.T, s *Session) {
	t.Helper()
	mustDispatch(t, s,
		FormatToggle{Attr: notedoc.AttrBold},
		InsertText{At: 0, Text: "X"},
		InsertText{At: 1, Text: "Y"},
		SelectionChange{Selection: Caret(1)},
	)
}

func TestInsertionGuardAbsorbsCaretEcho(t *testing.T) {
	s, _ := newTestSession()
	typeBoldXY(t, s)
	if got := s.Selection(); got != Caret(2) {
		t.Fatalf("caret = %v, want caret(2)", got)
	}
	if got := s.TypingState(); got != StateTypingRunActive {
		t.Fatalf("state = %v, want typing-run-active", got)
	}
	if got := s.Pending(); got != boldStyle {
		t.Fatalf("pending = %v, want bold", got)
	}
	mustDispatch(t, s, InsertText{At: 2, Text: "Z"})
	expectRuns(t, s, []notedoc.Run{{Text: "XYZ", Style: boldStyle}})
}

func TestCaretEchoMovesCaretWithoutGuard(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewSession(notedoc.NewDocument(), WithClock(clock.Now), WithInsertGuard(0))
	typeBoldXY(t, s)
	if got := s.Selection(); got != Caret(1) {
		t.Fatalf("caret = %v, want caret(1)", got)
	}
	if got := s.TypingState(); got != StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
	if !s.Pending().IsZero() {
		t.Fatalf("pending = %v, want cleared", s.Pending())
	}
}

func TestCaretReportAfterGuardExpiresMoves(t *testing.T) {
	s, clock := newTestSession()
	mustDispatch(t, s,
		FormatToggle{Attr: notedoc.AttrBold},
		InsertText{At: 0, Text: "X"},
		InsertText{At: 1, Text: "Y"},
	)
	clock.Advance(DefaultInsertGuard)
	mustDispatch(t, s, SelectionChange{Selection: Caret(1)})
	if got := s.Selection(); got != Caret(1) {
		t.Fatalf("caret = %v, want caret(1)", got)
	}
	if got := s.TypingState(); got != StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestPendingChangeMidRunStartsNewRun(t *testing.T) {
	s, clock := newTestSession()
	mustDispatch(t, s, FormatToggle{Attr: notedoc.AttrBold}, InsertText{At: 0, Text: "A"})
	clock.Advance(10 * time.Millisecond)
	mustDispatch(t, s, FormatToggle{Attr: notedoc.AttrItalic}, InsertText{At: 1, Text: "B"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "A", Style: boldStyle},
		{Text: "B", Style: notedoc.Style{Bold: true, Italic: true}},
	})
}

func TestIdleInsertJoinsPrecedingRun(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "ab", Style: boldStyle}, notedoc.Run{Text: "cd"})
	mustDispatch(t, s, InsertText{At: 2, Text: "Z"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "abZ", Style: boldStyle},
		{Text: "cd"},
	})
	if got := s.TypingState(); got != StateIdle {
		t.Fatalf("state = %v, want idle", got)
	}
}

func TestInsertReplacesSelection(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "hello", Style: italicStyle}, notedoc.Run{Text: " world"})
	mustDispatch(t, s,
		SelectionChange{Selection: Range(3, 8)},
		InsertText{At: 3, Text: "p"},
	)
	expectRuns(t, s, []notedoc.Run{
		{Text: "help", Style: italicStyle},
		{Text: "rld"},
	})
	if got := s.Selection(); got != Caret(4) {
		t.Fatalf("caret = %v, want caret(4)", got)
	}
}

func TestSelectionWrap(t *testing.T) {
	s2, _ := newTestSession(notedoc.Run{Text: "Hello "}, notedoc.Run{Text: "World", Style: italicStyle})
	if err := s2.ApplyToSelection(Range(2, 8), notedoc.AttrColor, notedoc.Color("#ff0000")); err != nil {
		t.Fatal(err)
	}
	red := notedoc.Style{Color: "#ff0000"}
	expectRuns(t, s2, []notedoc.Run{
		{Text: "He"},
		{Text: "llo ", Style: red},
		{Text: "Wo", Style: notedoc.Style{Italic: true, Color: "#ff0000"}},
		{Text: "rld", Style: italicStyle},
	})
	if got := s2.Selection(); got != Caret(8) {
		t.Fatalf("caret = %v, want caret(8)", got)
	}

	plain, _ := newTestSession(notedoc.Run{Text: "Hello World"})
	if err := plain.ApplyToSelection(Range(8, 2), notedoc.AttrColor, notedoc.Color("#ff0000")); err != nil {
		t.Fatal(err)
	}
	expectRuns(t, plain, []notedoc.Run{
		{Text: "He"},
		{Text: "llo Wo", Style: red},
		{Text: "rld"},
	})
}

func TestApplyToSelectionMergesWithNeighbours(t *testing.T) {
	s, _ := newTestSession(
		notedoc.Run{Text: "aa", Style: boldStyle},
		notedoc.Run{Text: "bb"},
		notedoc.Run{Text: "cc", Style: boldStyle},
	)
	if err := s.ApplyToSelection(Range(2, 4), notedoc.AttrBold, notedoc.Bool(true)); err != nil {
		t.Fatal(err)
	}
	expectRuns(t, s, []notedoc.Run{{Text: "aabbcc", Style: boldStyle}})
}

func TestToggleSelectionUsesDominantValue(t *testing.T) {
	tests := []struct {
		name string
		runs []notedoc.Run
		want []notedoc.Run
	}{
		{
			name: "majority bold turns off",
			runs: []notedoc.Run{{Text: "abc", Style: boldStyle}, {Text: "d"}},
			want: []notedoc.Run{{Text: "abcd"}},
		},
		{
			name: "majority plain turns on",
			runs: []notedoc.Run{{Text: "a", Style: boldStyle}, {Text: "bcd"}},
			want: []notedoc.Run{{Text: "abcd", Style: boldStyle}},
		},
		{
			name: "tie follows first character",
			runs: []notedoc.Run{{Text: "ab"}, {Text: "cd", Style: boldStyle}},
			want: []notedoc.Run{{Text: "abcd", Style: boldStyle}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestSession(tc.runs...)
			mustDispatch(t, s, SelectionChange{Selection: Range(0, 4)}, FormatToggle{Attr: notedoc.AttrBold})
			expectRuns(t, s, tc.want)
			if !s.Pending().IsZero() {
				t.Fatalf("selection toggle touched pending style: %v", s.Pending())
			}
		})
	}
}

func TestToggleSelectionRejectsValueAttribute(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "abc"})
	err := s.ToggleSelection(Range(0, 2), notedoc.AttrColor)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestStrictAndQuery(t *testing.T) {
	s, _ := newTestSession(
		notedoc.Run{Text: "ab", Style: notedoc.Style{Bold: true, FontSize: 16}},
		notedoc.Run{Text: "cd", Style: notedoc.Style{Italic: true, FontSize: 16, Color: "#123456"}},
	)
	got, err := s.EffectiveStyle(Range(1, 3))
	if err != nil {
		t.Fatal(err)
	}
	want := notedoc.Style{FontSize: 16}
	if got != want {
		t.Fatalf("EffectiveStyle = %v, want %v", got, want)
	}
}

func TestPendingOverlayQuery(t *testing.T) {
	base := notedoc.Style{FontFamily: "Courier New", Color: "#abcdef"}
	s, _ := newTestSession(notedoc.Run{Text: "plain", Style: base})
	if err := s.Dispatch(FormatToggle{Attr: notedoc.AttrItalic}); err != nil {
		t.Fatal(err)
	}
	got := s.CurrentStyle()
	want := notedoc.Style{Italic: true, FontFamily: "Courier New", Color: "#abcdef"}
	if got != want {
		t.Fatalf("CurrentStyle = %v, want %v", got, want)
	}
	if s.TypingState() != StatePendingArmed {
		t.Fatalf("state = %v, want pending-armed", s.TypingState())
	}
}

func TestOutOfBoundsLeavesDocumentUnmodified(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "abc", Style: boldStyle}, notedoc.Run{Text: "def"})
	before := s.Document().Runs()
	version := s.Document().Version()

	err := s.ApplyToSelection(Range(2, 10), notedoc.AttrItalic, notedoc.Bool(true))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if !errors.Is(err, notedoc.ErrOutOfRange) {
		t.Fatalf("expected wrapped ErrOutOfRange, got %v", err)
	}
	expectRuns(t, s, before)
	if s.Document().Version() != version {
		t.Fatalf("document version moved on failed apply")
	}

	if err := s.ApplyToSelection(Caret(1), notedoc.AttrBold, notedoc.Bool(true)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("collapsed selection: expected ErrInvalidArgument, got %v", err)
	}
	if err := s.Dispatch(SelectionChange{Selection: Caret(-1)}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative caret: expected ErrInvalidArgument, got %v", err)
	}
	if err := s.Dispatch(InsertText{At: 99, Text: "x"}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("insert past end: expected ErrInvalidArgument, got %v", err)
	}
	expectRuns(t, s, before)
}

func TestSetPendingRequiresCaret(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "abc"})
	mustDispatch(t, s, SelectionChange{Selection: Range(0, 2)})
	if err := s.SetPending(notedoc.AttrBold, notedoc.Bool(true)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFormatSetAtCaretStylesNextInsert(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "ab", Style: boldStyle})
	mustDispatch(t, s,
		FormatSet{Attr: notedoc.AttrFontSize, Value: notedoc.Pixels(22)},
		FormatSet{Attr: notedoc.AttrFontFamily, Value: notedoc.Family("Georgia")},
		InsertText{At: 2, Text: "cd"},
	)
	expectRuns(t, s, []notedoc.Run{
		{Text: "ab", Style: boldStyle},
		{Text: "cd", Style: notedoc.Style{Bold: true, FontFamily: "Georgia", FontSize: 22}},
	})
}

func TestDeleteTextClearsPending(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "abcd"})
	mustDispatch(t, s, FormatToggle{Attr: notedoc.AttrUnderline}, DeleteText{From: 3, To: 4})
	if !s.Pending().IsZero() || s.TypingState() != StateIdle {
		t.Fatalf("delete should clear pending, have %v in %v", s.Pending(), s.TypingState())
	}
	if s.Text() != "abc" || s.Selection() != Caret(3) {
		t.Fatalf("unexpected state after delete: %q %v", s.Text(), s.Selection())
	}
}

func TestStaleTypingRunFallsBackToFreshRun(t *testing.T) {
	s, _ := newTestSession(notedoc.Run{Text: "ab"})
	mustDispatch(t, s, FormatToggle{Attr: notedoc.AttrBold}, InsertText{At: 2, Text: "X"})
	// Mutate the document behind the session's back.
	if err := s.Document().InsertText(0, "_"); err != nil {
		t.Fatal(err)
	}
	s.sel = Caret(4)
	mustDispatch(t, s, InsertText{At: 4, Text: "Y"})
	expectRuns(t, s, []notedoc.Run{
		{Text: "_ab"},
		{Text: "XY", Style: boldStyle},
	})
}

func TestSequenceStaysCanonical(t *testing.T) {
	s, clock := newTestSession(notedoc.Run{Text: "The quick brown fox"})
	events := []Event{
		SelectionChange{Selection: Range(4, 9)},
		FormatToggle{Attr: notedoc.AttrBold},
		SelectionChange{Selection: Range(0, 19)},
		FormatSet{Attr: notedoc.AttrColor, Value: notedoc.Color("#ff00ff")},
		SelectionChange{Selection: Caret(9)},
		FormatToggle{Attr: notedoc.AttrItalic},
		InsertText{At: 9, Text: "!"},
		InsertText{At: 10, Text: "?"},
		SelectionChange{Selection: Range(2, 12)},
		FormatToggle{Attr: notedoc.AttrBold},
		DeleteText{From: 0, To: 3},
		SelectionChange{Selection: Range(0, 5)},
		FormatToggle{Attr: notedoc.AttrBold},
	}
	for i, ev := range events {
		clock.Advance(time.Second)
		if err := s.Dispatch(ev); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
		if err := s.Document().Check(); err != nil {
			t.Fatalf("after event %d: %v", i, err)
		}
	}
	if got := s.Text(); got != " quick!? brown fox" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestMotionHelpers(t *testing.T) {
	text := []rune("one two\nthree")
	if got := NextWordBoundary(text, 0); got != 3 {
		t.Fatalf("NextWordBoundary = %d", got)
	}
	if got := PrevWordBoundary(text, 7); got != 4 {
		t.Fatalf("PrevWordBoundary = %d", got)
	}
	if got := LineStart(text, 10); got != 8 {
		t.Fatalf("LineStart = %d", got)
	}
	if got := LineEnd(text, 2); got != 7 {
		t.Fatalf("LineEnd = %d", got)
	}
	if got := VerticalMove(text, 2, 1); got != 10 {
		t.Fatalf("VerticalMove down = %d", got)
	}
	if got := VerticalMove(text, 13, -1); got != 5 {
		t.Fatalf("VerticalMove up = %d", got)
	}
}
