package notedoc

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Attribute names one of the six inline style attributes.
type Attribute uint8

const (
	AttrBold Attribute = iota
	AttrItalic
	AttrUnderline
	AttrFontFamily
	AttrFontSize
	AttrColor
)

var attributeNames = [...]string{
	AttrBold:       "bold",
	AttrItalic:     "italic",
	AttrUnderline:  "underline",
	AttrFontFamily: "fontFamily",
	AttrFontSize:   "fontSize",
	AttrColor:      "color",
}

func (a Attribute) String() string {
	if int(a) < len(attributeNames) {
		return attributeNames[a]
	}
	return fmt.Sprintf("Attribute(%d)", uint8(a))
}

// IsBoolean reports whether a is one of the toggleable attributes.
func (a Attribute) IsBoolean() bool {
	return a == AttrBold || a == AttrItalic || a == AttrUnderline
}

func (a Attribute) Valid() bool {
	return a <= AttrColor
}

// ParseAttribute maps the host's command names (including execCommand
// spellings such as "foreColor") onto an Attribute.
func ParseAttribute(name string) (Attribute, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bold":
		return AttrBold, true
	case "italic":
		return AttrItalic, true
	case "underline":
		return AttrUnderline, true
	case "fontfamily", "fontname", "font-family":
		return AttrFontFamily, true
	case "fontsize", "font-size":
		return AttrFontSize, true
	case "color", "forecolor":
		return AttrColor, true
	}
	return 0, false
}

// Value carries the value of a single attribute. Only the field matching
// the attribute's kind is read.
type Value struct {
	On   bool
	Text string
	Px   int
}

func Bool(on bool) Value       { return Value{On: on} }
func Family(name string) Value { return Value{Text: name} }
func Pixels(px int) Value      { return Value{Px: px} }
func Color(value string) Value { return Value{Text: value} }

func (v Value) IsZero() bool { return v == Value{} }

// Style is the six-attribute style descriptor of a run. The zero value of
// each optional field means unset: inherit the surrounding default.
type Style struct {
	Bold       bool
	Italic     bool
	Underline  bool
	FontFamily string
	FontSize   int
	Color      string
}

// StylesMatch reports whether a and b are equal. An unset optional field
// never matches a set one.
func StylesMatch(a, b Style) bool {
	return a == b
}

func (s Style) Equal(o Style) bool { return StylesMatch(s, o) }

func (s Style) IsZero() bool { return s == Style{} }

// Get reads one attribute.
func (s Style) Get(a Attribute) Value {
	switch a {
	case AttrBold:
		return Bool(s.Bold)
	case AttrItalic:
		return Bool(s.Italic)
	case AttrUnderline:
		return Bool(s.Underline)
	case AttrFontFamily:
		return Family(s.FontFamily)
	case AttrFontSize:
		return Pixels(s.FontSize)
	case AttrColor:
		return Color(s.Color)
	}
	return Value{}
}

// With returns a copy of s with attribute a replaced by v.
func (s Style) With(a Attribute, v Value) Style {
	switch a {
	case AttrBold:
		s.Bold = v.On
	case AttrItalic:
		s.Italic = v.On
	case AttrUnderline:
		s.Underline = v.On
	case AttrFontFamily:
		s.FontFamily = strings.TrimSpace(v.Text)
	case AttrFontSize:
		s.FontSize = max(v.Px, 0)
	case AttrColor:
		s.Color = strings.TrimSpace(v.Text)
	}
	return s
}

// Overlay lays the set fields of p over s. Booleans count as set only when
// true; value fields count as set when non-zero.
func (s Style) Overlay(p Style) Style {
	if p.Bold {
		s.Bold = true
	}
	if p.Italic {
		s.Italic = true
	}
	if p.Underline {
		s.Underline = true
	}
	if p.FontFamily != "" {
		s.FontFamily = p.FontFamily
	}
	if p.FontSize != 0 {
		s.FontSize = p.FontSize
	}
	if p.Color != "" {
		s.Color = p.Color
	}
	return s
}

func (s Style) String() string {
	var parts []string
	if s.Bold {
		parts = append(parts, "bold")
	}
	if s.Italic {
		parts = append(parts, "italic")
	}
	if s.Underline {
		parts = append(parts, "underline")
	}
	if s.FontFamily != "" {
		parts = append(parts, "family="+s.FontFamily)
	}
	if s.FontSize != 0 {
		parts = append(parts, "size="+strconv.Itoa(s.FontSize)+"px")
	}
	if s.Color != "" {
		parts = append(parts, "color="+s.Color)
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and CSS color names and
// returns the color with its canonical lowercase hex spelling.
func ParseColor(value string) (color.RGBA, string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return color.RGBA{}, "", fmt.Errorf("notedoc: empty color")
	}
	if c, ok := colornames.Map[v]; ok {
		return c, hexColor(c), nil
	}
	if !strings.HasPrefix(v, "#") {
		return color.RGBA{}, "", fmt.Errorf("notedoc: unknown color %q", value)
	}
	digits := v[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) == 6 {
		digits += "ff"
	}
	if len(digits) != 8 {
		return color.RGBA{}, "", fmt.Errorf("notedoc: malformed color %q", value)
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.RGBA{}, "", fmt.Errorf("notedoc: malformed color %q: %w", value, err)
	}
	c := color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	return c, hexColor(c), nil
}

func hexColor(c color.RGBA) string {
	if c.A == 0xFF {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
