// Package markup converts between the run model and the inline-styled HTML
// the note is persisted and exported as.
package markup

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"retronote/pkg/notedoc"
)

// HorizontalRule is the text inserted for a rule and produced for <hr>.
var HorizontalRule = strings.Repeat("─", 32)

// Render writes one <span> per run carrying the run's set attributes as
// inline CSS. Newlines become <br>.
func Render(doc *notedoc.Document) string {
	var b strings.Builder
	for _, r := range doc.Runs() {
		b.WriteString("<span")
		if css := StyleCSS(r.Style); css != "" {
			b.WriteString(` style="`)
			b.WriteString(html.EscapeString(css))
			b.WriteString(`"`)
		}
		b.WriteString(">")
		lines := strings.Split(r.Text, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteString("<br>")
			}
			b.WriteString(html.EscapeString(line))
		}
		b.WriteString("</span>")
	}
	return b.String()
}

// StyleCSS renders the set fields of s as CSS declarations.
func StyleCSS(s notedoc.Style) string {
	var decls []string
	if s.Bold {
		decls = append(decls, "font-weight: bold")
	}
	if s.Italic {
		decls = append(decls, "font-style: italic")
	}
	if s.Underline {
		decls = append(decls, "text-decoration: underline")
	}
	if s.FontFamily != "" {
		decls = append(decls, "font-family: "+cssValue(s.FontFamily))
	}
	if s.FontSize > 0 {
		decls = append(decls, "font-size: "+strconv.Itoa(s.FontSize)+"px")
	}
	if s.Color != "" {
		decls = append(decls, "color: "+cssValue(s.Color))
	}
	return strings.Join(decls, "; ")
}

type frame struct {
	name     string
	style    notedoc.Style
	sizeCode int
}

// Parse reads host markup into a canonical document. Legacy <font size>
// markers are carried on the runs and then normalized to pixel sizes.
func Parse(src string) (*notedoc.Document, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	stack := []frame{{}}
	var runs []notedoc.Run
	skip := 0
	atLineStart := true
	page := false

	emit := func(s string) {
		if s == "" {
			return
		}
		top := stack[len(stack)-1]
		runs = append(runs, notedoc.Run{Text: s, Style: top.style, SizeCode: top.sizeCode})
		atLineStart = strings.HasSuffix(s, "\n")
	}
	breakLine := func() {
		if !atLineStart {
			emit("\n")
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("markup: %w", err)
			}
			doc := notedoc.NewDocument(runs...)
			notedoc.NormalizeLegacySizes(doc)
			return doc, nil
		case html.DoctypeToken:
			page = true
		case html.TextToken:
			if skip > 0 {
				continue
			}
			// whitespace between the page's structural tags is layout, not text
			if page && structural(stack[len(stack)-1].name) && strings.TrimSpace(string(z.Text())) == "" {
				continue
			}
			emit(strings.ReplaceAll(string(z.Text()), "\r\n", "\n"))
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if skipped(tok.DataAtom) {
				if tt == html.StartTagToken {
					skip++
				}
				continue
			}
			if skip > 0 {
				continue
			}
			switch tok.DataAtom {
			case atom.Html, atom.Body:
				page = true
			case atom.Br:
				emit("\n")
				continue
			case atom.Hr:
				breakLine()
				emit(HorizontalRule + "\n")
				continue
			case atom.Img, atom.Input, atom.Meta, atom.Link, atom.Wbr:
				continue
			}
			if block(tok.DataAtom) {
				breakLine()
			}
			if tt == html.SelfClosingTagToken {
				continue
			}
			stack = append(stack, push(stack[len(stack)-1], tok))
		case html.EndTagToken:
			tok := z.Token()
			if skipped(tok.DataAtom) {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip > 0 {
				continue
			}
			if i := find(stack, tok.Data); i > 0 {
				stack = stack[:i]
			}
		}
	}
}

func push(parent frame, tok html.Token) frame {
	f := frame{name: tok.Data, style: parent.style, sizeCode: parent.sizeCode}
	switch tok.DataAtom {
	case atom.B, atom.Strong:
		f.style.Bold = true
	case atom.I, atom.Em:
		f.style.Italic = true
	case atom.U, atom.Ins:
		f.style.Underline = true
	case atom.Font:
		for _, a := range tok.Attr {
			switch strings.ToLower(a.Key) {
			case "size":
				if code, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil {
					f.sizeCode = code
				}
			case "face":
				f.style.FontFamily = strings.TrimSpace(a.Val)
			case "color":
				f.style.Color = normalizeColor(a.Val)
			}
		}
	}
	if tok.DataAtom == atom.Html || tok.DataAtom == atom.Body {
		return f
	}
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, "style") {
			var px int
			f.style, px = applyCSS(f.style, a.Val)
			if px > 0 {
				f.sizeCode = 0
			}
		}
	}
	return f
}

// applyCSS lays inline declarations over s. It also returns the pixel size
// when one was declared, which overrides any legacy size marker.
func applyCSS(s notedoc.Style, css string) (notedoc.Style, int) {
	px := 0
	for _, decl := range splitDecls(css) {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = unquoteCSS(strings.TrimSpace(val))
		lower := strings.ToLower(val)
		switch prop {
		case "font-weight":
			s.Bold = lower == "bold" || lower == "bolder" || weight(lower) >= 600
		case "font-style":
			s.Italic = lower == "italic" || lower == "oblique"
		case "text-decoration", "text-decoration-line":
			s.Underline = strings.Contains(lower, "underline")
		case "font-family":
			s.FontFamily = val
		case "font-size":
			if n := cssPixels(lower); n > 0 {
				s.FontSize = n
				px = n
			}
		case "color":
			s.Color = normalizeColor(val)
		}
	}
	return s, px
}

// cssValue writes v bare when it is plain CSS and as a quoted string
// otherwise, so separators inside names survive a round trip.
func cssValue(v string) string {
	plain := strings.IndexFunc(v, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		return !strings.ContainsRune(" -_,.#()%", r)
	}) < 0
	if plain {
		return v
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// splitDecls splits an inline style on semicolons outside quoted strings.
func splitDecls(css string) []string {
	var out []string
	var quote rune
	escaped := false
	start := 0
	for i, r := range css {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ';':
			out = append(out, css[start:i])
			start = i + 1
		}
	}
	return append(out, css[start:])
}

// unquoteCSS returns the contents of a value that is one quoted string and
// anything else unchanged.
func unquoteCSS(v string) string {
	if len(v) < 2 || (v[0] != '"' && v[0] != '\'') {
		return v
	}
	quote := rune(v[0])
	var b strings.Builder
	escaped := false
	for i, r := range v[1:] {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == quote:
			if i+2 != len(v) {
				return v
			}
			return b.String()
		default:
			b.WriteRune(r)
		}
	}
	return v
}

func weight(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func cssPixels(v string) int {
	switch {
	case strings.HasSuffix(v, "px"):
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "px")), 64)
		if err != nil {
			return 0
		}
		return int(f + 0.5)
	case strings.HasSuffix(v, "pt"):
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "pt")), 64)
		if err != nil {
			return 0
		}
		return int(f*4/3 + 0.5)
	}
	return 0
}

// normalizeColor maps hex, names and rgb() onto the lowercase hex spelling,
// keeping anything it does not understand verbatim.
func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "rgb(") && strings.HasSuffix(lower, ")") {
		parts := strings.Split(lower[4:len(lower)-1], ",")
		if len(parts) == 3 {
			var c [3]int
			for i, p := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil || n < 0 || n > 255 {
					return v
				}
				c[i] = n
			}
			return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
		}
		return v
	}
	if _, hex, err := notedoc.ParseColor(v); err == nil {
		return hex
	}
	return v
}

func find(stack []frame, name string) int {
	for i := len(stack) - 1; i > 0; i-- {
		if strings.EqualFold(stack[i].name, name) {
			return i
		}
	}
	return -1
}

func structural(name string) bool {
	return name == "" || name == "html" || name == "body"
}

func block(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Li, atom.Ul, atom.Ol, atom.Blockquote, atom.Pre,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Section, atom.Article:
		return true
	}
	return false
}

func skipped(a atom.Atom) bool {
	return a == atom.Script || a == atom.Style || a == atom.Head || a == atom.Title
}
