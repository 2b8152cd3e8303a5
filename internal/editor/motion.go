package editor

import "unicode"

// Caret motion helpers for the host. They work on character offsets into
// the document text and never touch session state; the host reports the
// result as a SelectionChange.

func PrevWordBoundary(text []rune, pos int) int {
	pos = clamp(pos, 0, len(text))
	for pos > 0 && !isWordRune(text[pos-1]) {
		pos--
	}
	for pos > 0 && isWordRune(text[pos-1]) {
		pos--
	}
	return pos
}

func NextWordBoundary(text []rune, pos int) int {
	pos = clamp(pos, 0, len(text))
	for pos < len(text) && !isWordRune(text[pos]) {
		pos++
	}
	for pos < len(text) && isWordRune(text[pos]) {
		pos++
	}
	return pos
}

func LineStart(text []rune, pos int) int {
	pos = clamp(pos, 0, len(text))
	for pos > 0 && text[pos-1] != '\n' {
		pos--
	}
	return pos
}

func LineEnd(text []rune, pos int) int {
	pos = clamp(pos, 0, len(text))
	for pos < len(text) && text[pos] != '\n' {
		pos++
	}
	return pos
}

// LineColumn returns the zero-based line and column of pos.
func LineColumn(text []rune, pos int) (int, int) {
	pos = clamp(pos, 0, len(text))
	line, col := 0, 0
	for _, r := range text[:pos] {
		if r == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col
}

// VerticalMove moves pos delta lines up or down, keeping the column where
// the target line is long enough.
func VerticalMove(text []rune, pos, delta int) int {
	_, col := LineColumn(text, pos)
	start := LineStart(text, pos)
	for ; delta < 0; delta++ {
		if start == 0 {
			return 0
		}
		start = LineStart(text, start-1)
	}
	for ; delta > 0; delta-- {
		end := LineEnd(text, start)
		if end == len(text) {
			return len(text)
		}
		start = end + 1
	}
	return min(start+col, LineEnd(text, start))
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
