package ui

import (
	"image/color"
	"slices"
)

type Theme struct {
	Name  string
	Label string

	AppBackground color.RGBA
	TopBar        color.RGBA
	Toolbar       color.RGBA
	Canvas        color.RGBA
	Page          color.RGBA
	Border        color.RGBA
	StatusBar     color.RGBA
	Accent        color.RGBA
	Shadow        color.RGBA
	Text          color.RGBA
	Muted         color.RGBA
	ButtonActive  color.RGBA
	Selection     color.RGBA // blended, keep A < 0xFF
	Caret         color.RGBA
	Dim           color.RGBA // focus mode veil over the chrome

	MenuHeightDp    int
	ToolbarHeightDp int
	StatusHeightDp  int
	PageMarginDp    int
}

const DefaultThemeName = "cyber-purple"

func rgb(v uint32) color.RGBA {
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xFF}
}

func rgba(v uint32, a uint8) color.RGBA {
	c := rgb(v)
	c.A = a
	return c
}

func withMetrics(t Theme) Theme {
	t.MenuHeightDp = 34
	t.ToolbarHeightDp = 42
	t.StatusHeightDp = 28
	t.PageMarginDp = 24
	return t
}

var themes = []Theme{
	withMetrics(Theme{
		Name: "cyber-purple", Label: "Cyber Purple",
		AppBackground: rgb(0x140B24), TopBar: rgb(0x2A1450), Toolbar: rgb(0x1E1038),
		Canvas: rgb(0x180D2C), Page: rgb(0x0E0818), Border: rgb(0x6B3FC4),
		StatusBar: rgb(0x1E1038), Accent: rgb(0xC86BFF), Shadow: rgb(0x07040C),
		Text: rgb(0xE0E0FF), Muted: rgb(0x9A88C8), ButtonActive: rgb(0x5B2E9E),
		Selection: rgba(0xC86BFF, 0x55), Caret: rgb(0xFF6BE8), Dim: rgba(0x000000, 0x99),
	}),
	withMetrics(Theme{
		Name: "amber-terminal", Label: "Amber Terminal",
		AppBackground: rgb(0x100A00), TopBar: rgb(0x2B1A00), Toolbar: rgb(0x1C1200),
		Canvas: rgb(0x140D00), Page: rgb(0x0A0600), Border: rgb(0x8A5A00),
		StatusBar: rgb(0x1C1200), Accent: rgb(0xFFB000), Shadow: rgb(0x050300),
		Text: rgb(0xFFB000), Muted: rgb(0xB07A10), ButtonActive: rgb(0x5C3C00),
		Selection: rgba(0xFFB000, 0x4C), Caret: rgb(0xFFD060), Dim: rgba(0x000000, 0x99),
	}),
	withMetrics(Theme{
		Name: "green-phosphor", Label: "Green Phosphor",
		AppBackground: rgb(0x001004), TopBar: rgb(0x002A0C), Toolbar: rgb(0x001C08),
		Canvas: rgb(0x001406), Page: rgb(0x000A03), Border: rgb(0x0F7A2E),
		StatusBar: rgb(0x001C08), Accent: rgb(0x33FF66), Shadow: rgb(0x000501),
		Text: rgb(0x33FF66), Muted: rgb(0x1FA848), ButtonActive: rgb(0x0A5520),
		Selection: rgba(0x33FF66, 0x44), Caret: rgb(0x9CFFB4), Dim: rgba(0x000000, 0x99),
	}),
	withMetrics(Theme{
		Name: "paper-white", Label: "Paper White",
		AppBackground: rgb(0xF3F5F8), TopBar: rgb(0x2B579A), Toolbar: rgb(0xF7F9FC),
		Canvas: rgb(0xE2E7EF), Page: rgb(0xFFFFFF), Border: rgb(0xB2BFD0),
		StatusBar: rgb(0xEAEFF6), Accent: rgb(0x2B579A), Shadow: rgb(0xC8CFDB),
		Text: rgb(0x202020), Muted: rgb(0x2A3850), ButtonActive: rgb(0xC9DAF2),
		Selection: rgba(0x2B579A, 0x40), Caret: rgb(0x000000), Dim: rgba(0xFFFFFF, 0x99),
	}),
}

func DefaultTheme() Theme {
	t, _ := ThemeByName(DefaultThemeName)
	return t
}

// ThemeByName falls back to the default theme for unknown names.
func ThemeByName(name string) (Theme, bool) {
	i := slices.IndexFunc(themes, func(t Theme) bool { return t.Name == name })
	if i < 0 {
		return themes[0], false
	}
	return themes[i], true
}

func ThemeNames() []string {
	names := make([]string, len(themes))
	for i, t := range themes {
		names[i] = t.Name
	}
	return names
}

func Themes() []Theme { return slices.Clone(themes) }
