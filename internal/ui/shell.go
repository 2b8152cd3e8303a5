package ui

import (
	"image/color"

	"retronote/internal/render"
)

// Layout is the pixel geometry of one frame. The content box is the page
// minus its padding; document lines are laid out inside it.
type Layout struct {
	MenuH     int
	ToolbarH  int
	StatusH   int
	CanvasY   int
	CanvasH   int
	PageX     int
	PageY     int
	PageW     int
	PageH     int
	ContentX  int
	ContentY  int
	ContentW  int
	ContentH  int
	StatusBar int
}

const (
	pageMaxWidthDp   = 820
	pageMinWidthDp   = 320
	pageMinHeightDp  = 200
	contentMinDp     = 100
	contentPaddingDp = 18
	accentHeightDp   = 3
)

type scaler float32

func (s scaler) dp(v int) int { return int(float32(v) * float32(s)) }

// ComputeLayout splits a w×h window into menu, toolbar, page and status bar.
// In focus mode the toolbar band is dropped and the page takes its height.
func ComputeLayout(w, h int, theme Theme, scale float32, focus bool) Layout {
	if scale <= 0 {
		scale = 1
	}
	s := scaler(scale)

	var l Layout
	l.MenuH = s.dp(theme.MenuHeightDp)
	if !focus {
		l.ToolbarH = s.dp(theme.ToolbarHeightDp)
	}
	l.StatusH = s.dp(theme.StatusHeightDp)
	l.StatusBar = h - l.StatusH
	l.CanvasY = l.MenuH + l.ToolbarH
	l.CanvasH = max(l.StatusBar-l.CanvasY, 0)

	margin := s.dp(theme.PageMarginDp)
	l.PageW = min(max(w-2*margin, s.dp(pageMinWidthDp)), s.dp(pageMaxWidthDp))
	l.PageH = max(l.CanvasH-2*margin, s.dp(pageMinHeightDp))
	l.PageX = (w - l.PageW) / 2
	l.PageY = l.CanvasY + margin

	pad := s.dp(contentPaddingDp)
	l.ContentX = l.PageX + pad
	l.ContentY = l.PageY + pad
	l.ContentW = max(l.PageW-2*pad, s.dp(contentMinDp))
	l.ContentH = max(l.PageH-2*pad, s.dp(contentMinDp))
	return l
}

type band struct {
	y, h int
	fill color.RGBA
}

// DrawShell paints the window chrome and the empty page into fb and returns
// the layout it used.
func DrawShell(fb *render.FrameBuffer, theme Theme, scale float32, focus bool) Layout {
	l := ComputeLayout(fb.W, fb.H, theme, scale, focus)
	fb.Clear(theme.AppBackground)

	for _, b := range []band{
		{0, l.MenuH, theme.TopBar},
		{l.MenuH, l.ToolbarH, theme.Toolbar},
		{l.CanvasY, l.CanvasH, theme.Canvas},
		{l.StatusBar, l.StatusH, theme.StatusBar},
	} {
		if b.h > 0 {
			fb.FillRect(0, b.y, fb.W, b.h, b.fill)
		}
	}
	fb.StrokeRect(0, 0, fb.W, l.CanvasY, 1, theme.Border)
	fb.StrokeRect(0, l.StatusBar, fb.W, l.StatusH, 1, theme.Border)

	// drop shadow, sheet, outline, accent strip
	fb.FillRect(l.PageX+2, l.PageY+2, l.PageW, l.PageH, theme.Shadow)
	fb.FillRect(l.PageX, l.PageY, l.PageW, l.PageH, theme.Page)
	fb.StrokeRect(l.PageX, l.PageY, l.PageW, l.PageH, 1, theme.Border)
	fb.FillRect(l.PageX, l.PageY, l.PageW, max(int(accentHeightDp*scale), 1), theme.Accent)

	if focus {
		fb.BlendRect(0, 0, fb.W, l.MenuH, theme.Dim)
		fb.BlendRect(0, l.StatusBar, fb.W, l.StatusH, theme.Dim)
	}
	return l
}
