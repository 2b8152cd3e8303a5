package app

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"retronote/internal/editor"
	"retronote/internal/markup"
	"retronote/internal/render"
	"retronote/internal/ui"
	"retronote/pkg/notedoc"
)

type fontKey struct {
	size   int
	bold   bool
	italic bool
	mono   bool
	scale  int
}

// fontBank holds the parsed Go fonts, [regular, bold, italic, bold italic]
// for the proportional and the monospaced family.
type fontBank struct {
	sans  [4]*opentype.Font
	mono  [4]*opentype.Font
	cache map[fontKey]font.Face
}

func newFontBank() fontBank {
	bank := fontBank{cache: map[fontKey]font.Face{}}
	sans := [][]byte{goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF}
	mono := [][]byte{gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF}
	for i := range 4 {
		f, err := opentype.Parse(sans[i])
		if err != nil {
			return bank
		}
		bank.sans[i] = f
		if f, err = opentype.Parse(mono[i]); err != nil {
			return bank
		}
		bank.mono[i] = f
	}
	return bank
}

// resolvedStyle is a run style with every unset attribute filled from the
// editor defaults.
type resolvedStyle struct {
	bold      bool
	italic    bool
	underline bool
	mono      bool
	px        int
	color     color.RGBA
}

func isMonoFamily(family string) bool {
	f := strings.ToLower(family)
	if f == "" {
		return true
	}
	for _, k := range []string{"mono", "courier", "console", "consol", "terminal"} {
		if strings.Contains(f, k) {
			return true
		}
	}
	return false
}

func (a *App) basePx() int {
	if px, err := strconv.Atoi(strings.TrimSuffix(a.prefs.FontSize, "px")); err == nil && px > 0 {
		return px
	}
	return defaultFontPx
}

func (a *App) resolve(st notedoc.Style) resolvedStyle {
	rs := resolvedStyle{bold: st.Bold, italic: st.Italic, underline: st.Underline, px: st.FontSize, color: a.theme.Text}
	family := st.FontFamily
	if family == "" {
		family = a.prefs.FontFamily
	}
	rs.mono = isMonoFamily(family)
	if rs.px <= 0 {
		rs.px = a.basePx()
	}
	clr := st.Color
	if clr == "" {
		clr = a.prefs.Color
	}
	if clr != "" {
		if c, _, err := notedoc.ParseColor(clr); err == nil {
			rs.color = c
		}
	}
	return rs
}

// measureString returns the advance width of s in pixels.
func (a *App) measureString(face font.Face, s string) int {
	if face == nil || s == "" {
		return 0
	}
	adv := font.MeasureString(face, s)
	return max((int(adv)+32)>>6, 0)
}

func (a *App) uiFace(size int, bold, italic bool) font.Face {
	return a.face(size, bold, italic, false)
}

func (a *App) docFace(rs resolvedStyle) font.Face {
	return a.face(rs.px, rs.bold, rs.italic, rs.mono)
}

// face returns a cached face scaled by the current UI scale.
func (a *App) face(size int, bold, italic, mono bool) font.Face {
	scale := a.uiScales[a.uiScaleIdx]
	key := fontKey{size: size, bold: bold, italic: italic, mono: mono, scale: int(math.Round(float64(scale * 1000)))}
	if f, ok := a.fonts.cache[key]; ok {
		return f
	}
	idx := 0
	if bold {
		idx |= 1
	}
	if italic {
		idx |= 2
	}
	base := a.fonts.sans[idx]
	if mono {
		base = a.fonts.mono[idx]
	}
	if base == nil {
		return basicfont.Face7x13
	}
	opts := &opentype.FaceOptions{Size: float64(size) * float64(scale), DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(base, opts)
	if err != nil {
		return basicfont.Face7x13
	}
	a.fonts.cache[key] = face
	return face
}

func (a *App) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if a.frameBuffer == nil || a.frameBuffer.W != w || a.frameBuffer.H != h {
		a.frameBuffer = render.NewFrameBuffer(w, h)
		a.canvas = ebiten.NewImage(w, h)
	}
	scale := a.uiScales[a.uiScaleIdx]
	layout := ui.DrawShell(a.frameBuffer, a.theme, scale, a.focusMode)
	menuFace := a.uiFace(11, false, false)
	toolbarFace := a.uiFace(11, true, false)
	statusFace := a.uiFace(10, false, false)

	a.layoutTopActions(menuFace, layout)
	a.layoutToolbarControls(toolbarFace, layout)
	a.contentRect = rect{x: layout.ContentX, y: layout.ContentY, w: layout.ContentW, h: layout.ContentH}

	a.layoutDocumentLines()
	a.drawSelection()
	a.drawRules()
	a.drawCaret()
	a.drawScrollbar()

	a.canvas.WritePixels(a.frameBuffer.Pixels)
	screen.DrawImage(a.canvas, nil)

	a.drawButtonLabels(screen, menuFace, a.topActions, a.theme.Text)
	a.drawButtonLabels(screen, toolbarFace, a.toolbarActions, a.theme.Text)
	a.drawDocumentText(screen)
	a.drawStatusBar(screen, statusFace, layout)

	a.drawColorPickerOverlay(screen)
	if a.showThemes {
		a.drawThemeModal(screen, toolbarFace)
	}
	if a.showHelp {
		a.drawHelpOverlay(screen)
	}
}

func (a *App) drawStatusBar(screen *ebiten.Image, face font.Face, layout ui.Layout) {
	chars := a.text()
	sel := a.session.Selection()
	line, col := editor.LineColumn(chars, sel.Focus)
	cur := a.resolve(a.session.CurrentStyle())
	left := fmt.Sprintf("[ Ln %d, Col %d ] [ %d chars ] [ %dpx ]", line+1, col+1, len(chars), cur.px)
	if !sel.Collapsed() {
		left += fmt.Sprintf(" [ %d selected ]", sel.Len())
	}
	mode := ""
	if a.focusMode {
		mode = " [ FOCUS ]"
	}
	right := fmt.Sprintf("[ %s ] [ %s ]%s [ %s ]", a.theme.Label, a.saver.Status(), mode, a.status)
	baseline := layout.StatusBar + layout.StatusH/2 + face.Metrics().Ascent.Round()/2 - 1
	drawText(screen, left, face, 12, baseline, a.theme.Muted)
	drawText(screen, right, face, a.frameBuffer.W-a.measureString(face, right)-12, baseline, a.theme.Muted)
}

func drawText(dst *ebiten.Image, s string, face font.Face, x, y int, clr color.Color) {
	text.Draw(dst, s, face, x, y, clr)
}

func (a *App) addButton(list []actionButton, face font.Face, btn actionButton, x, y, w, h int) ([]actionButton, int) {
	if w <= 0 {
		w = max(a.measureString(face, btn.label)+20, 40)
	}
	r := rect{x: x, y: y, w: w, h: h}
	mx, my := ebiten.CursorPosition()
	bg := a.theme.Toolbar
	if btn.active {
		bg = a.theme.ButtonActive
	}
	a.frameBuffer.FillRect(r.x, r.y, r.w, r.h, bg)
	if r.contains(mx, my) {
		a.frameBuffer.BlendRect(r.x, r.y, r.w, r.h, a.theme.Selection)
	}
	a.frameBuffer.StrokeRect(r.x, r.y, r.w, r.h, 1, a.theme.Border)
	btn.r = r
	return append(list, btn), x + w + 6
}

func (a *App) layoutTopActions(face font.Face, layout ui.Layout) {
	a.topActions = a.topActions[:0]
	x := 10
	y := 4
	h := max(layout.MenuH-8, 20)
	buttons := []actionButton{
		{id: "save", label: "Save"},
		{id: "clear", label: "Clear"},
		{id: "import", label: "Import"},
		{id: "export", label: "Export"},
		{id: "undo", label: "Undo"},
		{id: "redo", label: "Redo"},
		{id: "theme", label: "Theme", active: a.showThemes},
		{id: "focus", label: "Focus", active: a.focusMode},
		{id: "scale_down", label: "A-"},
		{id: "scale_up", label: "A+"},
		{id: "help", label: "Help", active: a.showHelp},
	}
	for _, btn := range buttons {
		a.topActions, x = a.addButton(a.topActions, face, btn, x, y, 0, h)
	}
}

func (a *App) layoutToolbarControls(face font.Face, layout ui.Layout) {
	a.toolbarActions = a.toolbarActions[:0]
	a.colorSwatches = a.colorSwatches[:0]
	a.colorPopupRect = rect{}
	if layout.ToolbarH == 0 {
		return
	}

	cur := a.session.CurrentStyle()
	rs := a.resolve(cur)
	x := 14
	y := layout.MenuH + 8
	h := max(layout.ToolbarH-16, 20)
	add := func(id, label string, w int, active bool) rect {
		a.toolbarActions, x = a.addButton(a.toolbarActions, face, actionButton{id: id, label: label, active: active}, x, y, w, h)
		return a.toolbarActions[len(a.toolbarActions)-1].r
	}

	add("bold", "B", 34, cur.Bold)
	add("italic", "I", 34, cur.Italic)
	add("underline", "U", 34, cur.Underline)
	x += 6
	add("size_down", "-", 28, false)
	add("size", strconv.Itoa(rs.px)+"px", 56, cur.FontSize > 0)
	add("size_up", "+", 28, false)
	x += 6
	family := cur.FontFamily
	if family == "" {
		family = a.prefs.FontFamily
	}
	if family == "" {
		family = "Default"
	}
	add("family", family, 132, cur.FontFamily != "")
	colorRect := add("color_toggle", "Color", 72, a.showColorPicker)
	a.frameBuffer.FillRect(colorRect.x+colorRect.w-14, colorRect.y+6, 8, colorRect.h-12, rs.color)
	a.frameBuffer.StrokeRect(colorRect.x+colorRect.w-14, colorRect.y+6, 8, colorRect.h-12, 1, a.theme.Border)
	x += 6
	add("hr", "Rule", 52, false)

	if a.showColorPicker {
		cols := 6
		size := 22
		gap := 6
		rows := (len(a.colorPalette) + cols - 1) / cols
		px := colorRect.x
		py := colorRect.y + colorRect.h + 4
		a.colorPopupRect = rect{x: px, y: py, w: 16 + cols*(size+gap) - gap, h: 16 + rows*(size+gap) - gap}
		for i, c := range a.colorPalette {
			cx := px + 8 + (i%cols)*(size+gap)
			cy := py + 8 + (i/cols)*(size+gap)
			a.colorSwatches = append(a.colorSwatches, colorSwatch{value: c, r: rect{x: cx, y: cy, w: size, h: size}})
		}
	}
}

func (a *App) drawButtonLabels(screen *ebiten.Image, face font.Face, buttons []actionButton, clr color.RGBA) {
	ascent := face.Metrics().Ascent.Round()
	descent := face.Metrics().Descent.Round()
	for _, btn := range buttons {
		tw := a.measureString(face, btn.label)
		x := btn.r.x + (btn.r.w-tw)/2
		baseline := btn.r.y + (btn.r.h+ascent+descent)/2 - descent
		drawText(screen, btn.label, face, x, baseline, clr)
	}
}

// layoutDocumentLines splits the document at newlines and measures each
// run segment on every line.
func (a *App) layoutDocumentLines() {
	a.lineLayouts = a.lineLayouts[:0]
	if a.contentRect.w <= 0 || a.contentRect.h <= 0 {
		return
	}
	doc := a.session.Document()
	all := a.text()
	scale := a.uiScales[a.uiScaleIdx]
	lineGap := max(int(4*scale), 2)

	type span struct {
		start, end int
		style      resolvedStyle
	}
	spans := make([]span, 0, doc.NumRuns())
	for i := range doc.NumRuns() {
		spans = append(spans, span{start: doc.RunStart(i), end: doc.RunEnd(i), style: a.resolve(doc.Run(i).Style)})
	}

	docY := 4
	maxWidth := 0
	lineStart := 0
	for {
		lineEnd := editor.LineEnd(all, lineStart)
		line := all[lineStart:lineEnd]
		segments := make([]lineSegment, 0, 4)
		width, ascent, descent := 0, 0, 0
		measure := func(rs resolvedStyle, s, e int) {
			face := a.docFace(rs)
			m := face.Metrics()
			ascent = max(ascent, m.Ascent.Round())
			descent = max(descent, m.Descent.Round())
			segText := string(line[s:e])
			segW := a.measureString(face, segText)
			segments = append(segments, lineSegment{start: s, end: e, text: segText, style: rs, face: face, width: segW})
			width += segW
		}
		for _, sp := range spans {
			if sp.end <= lineStart || sp.start >= lineEnd {
				continue
			}
			measure(sp.style, max(sp.start, lineStart)-lineStart, min(sp.end, lineEnd)-lineStart)
		}
		if len(segments) == 0 {
			measure(a.resolve(doc.StyleBefore(lineStart)), 0, 0)
		}

		height := max(ascent+descent+int(6*scale), 18)
		a.lineLayouts = append(a.lineLayouts, lineLayout{
			start:    lineStart,
			text:     line,
			segments: segments,
			docX:     8,
			docY:     docY,
			height:   height,
			ascent:   ascent,
			width:    width,
		})
		maxWidth = max(maxWidth, 8+width)
		docY += height + lineGap
		if lineEnd >= len(all) {
			break
		}
		lineStart = lineEnd + 1
	}

	totalHeight := docY + 6
	if a.focusMode {
		totalHeight += a.contentRect.h / 2
	}
	a.maxY = math.Max(0, float64(totalHeight-a.contentRect.h))
	a.maxX = math.Max(0, float64(maxWidth-(a.contentRect.w-12)))
	a.clampScroll()

	for i := range a.lineLayouts {
		ll := &a.lineLayouts[i]
		ll.y = a.contentRect.y + ll.docY - int(a.scrollY)
		ll.viewX = a.contentRect.x + ll.docX - int(a.scrollX)
		ll.baseline = ll.y + ll.ascent + 1
	}
}

func isRule(line []rune) bool {
	return string(line) == markup.HorizontalRule
}

func (a *App) drawDocumentText(screen *ebiten.Image) {
	if a.contentRect.w <= 0 || a.contentRect.h <= 0 {
		return
	}
	if a.docLayer == nil || a.docLayer.Bounds().Dx() != a.contentRect.w || a.docLayer.Bounds().Dy() != a.contentRect.h {
		a.docLayer = ebiten.NewImage(max(1, a.contentRect.w), max(1, a.contentRect.h))
	}
	a.docLayer.Clear()

	for _, ll := range a.lineLayouts {
		relY := ll.y - a.contentRect.y
		if relY+ll.height < 0 || relY > a.contentRect.h || isRule(ll.text) {
			continue
		}
		x := ll.viewX - a.contentRect.x
		baseline := ll.baseline - a.contentRect.y
		for _, seg := range ll.segments {
			if seg.text != "" {
				drawText(a.docLayer, seg.text, seg.face, x, baseline, seg.style.color)
				if seg.style.underline {
					uy := float64(baseline + max(1, seg.face.Metrics().Descent.Round()/2))
					ebitenutil.DrawLine(a.docLayer, float64(x), uy, float64(x+seg.width), uy, seg.style.color)
				}
			}
			x += seg.width
		}
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(float64(a.contentRect.x), float64(a.contentRect.y))
	screen.DrawImage(a.docLayer, op)
}

// drawRules paints horizontal rule lines as a dashed stroke instead of
// glyphs.
func (a *App) drawRules() {
	for _, ll := range a.lineLayouts {
		if !isRule(ll.text) || ll.y+ll.height < a.contentRect.y || ll.y > a.contentRect.y+a.contentRect.h {
			continue
		}
		clr := a.theme.Accent
		if len(ll.segments) > 0 {
			clr = ll.segments[0].style.color
		}
		x0 := max(ll.viewX, a.contentRect.x)
		w := min(a.contentRect.x+a.contentRect.w-8, ll.viewX+max(ll.width, a.contentRect.w-16)) - x0
		a.frameBuffer.HLine(x0, ll.y+ll.height/2, w, 2, 6, clr)
	}
}

func (a *App) drawSelection() {
	sel := a.session.Selection()
	if sel.Collapsed() {
		return
	}
	start, end := sel.Start(), sel.End()
	for _, ll := range a.lineLayouts {
		lineEnd := ll.start + len(ll.text)
		s := max(start, ll.start)
		e := min(end, lineEnd)
		wraps := end > lineEnd
		if e < s || (e == s && !wraps) {
			continue
		}
		x0 := ll.viewX + a.lineAdvance(ll, s-ll.start)
		x1 := ll.viewX + a.lineAdvance(ll, e-ll.start)
		if wraps {
			x1 += 6
		}
		a.blendRectWithinContent(x0, ll.y+1, x1-x0, ll.height-2, a.theme.Selection)
	}
}

func (a *App) drawCaret() {
	sel := a.session.Selection()
	if !sel.Collapsed() || (a.frameTick/30)%2 == 1 {
		return
	}
	if ll, ok := a.caretLine(); ok {
		x := ll.viewX + a.lineAdvance(ll, sel.Focus-ll.start)
		a.blendRectWithinContent(x, ll.y+2, 2, max(2, ll.height-4), a.theme.Caret)
	}
}

func (a *App) caretLine() (lineLayout, bool) {
	pos := a.session.Selection().Focus
	for _, ll := range a.lineLayouts {
		if pos >= ll.start && pos <= ll.start+len(ll.text) {
			return ll, true
		}
	}
	return lineLayout{}, false
}

func (a *App) drawScrollbar() {
	if a.maxY <= 0 || a.contentRect.h <= 0 {
		return
	}
	trackX := a.contentRect.x + a.contentRect.w - 6
	trackY := a.contentRect.y + 2
	trackH := a.contentRect.h - 8
	a.frameBuffer.BlendRect(trackX, trackY, 4, trackH, a.theme.Selection)
	thumbH := max(24, int(float64(trackH)*float64(a.contentRect.h)/(float64(a.contentRect.h)+a.maxY)))
	thumbY := trackY + int((a.scrollY/a.maxY)*float64(trackH-thumbH))
	a.frameBuffer.FillRect(trackX, thumbY, 4, thumbH, a.theme.Accent)
}

func (a *App) drawFilledRectOnScreen(screen *ebiten.Image, x, y, w, h int, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		ebitenutil.DrawLine(screen, float64(x), float64(yy), float64(x+w), float64(yy), c)
	}
}

func (a *App) strokeRectOnScreen(screen *ebiten.Image, r rect, c color.RGBA) {
	x0, y0, x1, y1 := float64(r.x), float64(r.y), float64(r.x+r.w), float64(r.y+r.h)
	ebitenutil.DrawLine(screen, x0, y0, x1, y0, c)
	ebitenutil.DrawLine(screen, x0, y1, x1, y1, c)
	ebitenutil.DrawLine(screen, x0, y0, x0, y1, c)
	ebitenutil.DrawLine(screen, x1, y0, x1, y1, c)
}

func (a *App) drawColorPickerOverlay(screen *ebiten.Image) {
	if !a.showColorPicker || a.colorPopupRect.w == 0 {
		return
	}
	r := a.colorPopupRect
	a.drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, a.theme.Toolbar)
	a.strokeRectOnScreen(screen, r, a.theme.Border)
	for _, sw := range a.colorSwatches {
		c, _, err := notedoc.ParseColor(sw.value)
		if err != nil {
			continue
		}
		a.drawFilledRectOnScreen(screen, sw.r.x, sw.r.y, sw.r.w, sw.r.h, c)
		a.strokeRectOnScreen(screen, sw.r, a.theme.Border)
	}
}

func (a *App) layoutThemeModal(w, h int) {
	scale := a.uiScales[a.uiScaleIdx]
	rowH := int(40 * scale)
	panelW := int(320 * scale)
	themes := ui.Themes()
	panelH := int(60*scale) + len(themes)*(rowH+8)
	a.themeRect = rect{x: (w - panelW) / 2, y: (h - panelH) / 2, w: panelW, h: panelH}
	a.themeOptions = a.themeOptions[:0]
	y := a.themeRect.y + int(48*scale)
	for _, t := range themes {
		a.themeOptions = append(a.themeOptions, actionButton{
			id:     t.Name,
			label:  t.Label,
			r:      rect{x: a.themeRect.x + 16, y: y, w: panelW - 32, h: rowH},
			active: t.Name == a.theme.Name,
		})
		y += rowH + 8
	}
}

func (a *App) drawThemeModal(screen *ebiten.Image, face font.Face) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	a.layoutThemeModal(w, h)
	a.drawFilledRectOnScreen(screen, 0, 0, w, h, color.RGBA{A: 110})
	r := a.themeRect
	a.drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, a.theme.Toolbar)
	a.strokeRectOnScreen(screen, r, a.theme.Accent)
	drawText(screen, "Choose a theme", a.uiFace(12, true, false), r.x+16, r.y+int(30*a.uiScales[a.uiScaleIdx]), a.theme.Text)
	for _, opt := range a.themeOptions {
		t, _ := ui.ThemeByName(opt.id)
		a.drawFilledRectOnScreen(screen, opt.r.x, opt.r.y, opt.r.w, opt.r.h, t.Page)
		a.drawFilledRectOnScreen(screen, opt.r.x, opt.r.y, 6, opt.r.h, t.Accent)
		border := t.Border
		if opt.active {
			border = a.theme.Caret
		}
		a.strokeRectOnScreen(screen, opt.r, border)
		baseline := opt.r.y + (opt.r.h+face.Metrics().Ascent.Round())/2 - 1
		drawText(screen, opt.label, face, opt.r.x+18, baseline, t.Text)
	}
}

func (a *App) layoutHelpDialogBounds(w, h int) {
	panelW := min(int(float64(w)*0.6), w-40)
	panelH := min(int(float64(h)*0.66), h-40)
	px := (w - panelW) / 2
	py := (h - panelH) / 2
	a.helpRect = rect{x: px, y: py, w: panelW, h: panelH}
	a.helpClose = rect{x: px + panelW - 94, y: py + 12, w: 78, h: 30}
}

func (a *App) drawHelpOverlay(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	a.layoutHelpDialogBounds(w, h)
	r := a.helpRect
	a.drawFilledRectOnScreen(screen, 0, 0, w, h, color.RGBA{A: 110})
	a.drawFilledRectOnScreen(screen, r.x, r.y, r.w, r.h, a.theme.Toolbar)
	a.strokeRectOnScreen(screen, r, a.theme.Accent)

	a.drawFilledRectOnScreen(screen, a.helpClose.x, a.helpClose.y, a.helpClose.w, a.helpClose.h, a.theme.ButtonActive)
	face := a.uiFace(11, false, false)
	drawText(screen, "Close", face, a.helpClose.x+22, a.helpClose.y+20, a.theme.Text)
	drawText(screen, "Help", a.uiFace(12, true, false), r.x+22, r.y+30, a.theme.Text)

	lines := []string{
		"Ctrl+B / Ctrl+I / Ctrl+U: bold, italic, underline",
		"With nothing selected the next typed text gets the style",
		"Ctrl+, / Ctrl+.: smaller / larger text",
		"Ctrl+S: save now | Ctrl+O: import | Ctrl+Shift+S: export",
		"Ctrl+Z / Ctrl+Y: undo / redo",
		"Ctrl+C / Ctrl+X / Ctrl+V: copy, cut, paste",
		"Ctrl+T: themes | Ctrl+Shift+F: focus mode",
		"Ctrl+Backspace / Ctrl+Delete: delete a word",
		"Changes autosave shortly after you stop typing",
		"F1 or Esc closes this dialog",
	}
	y := r.y + 62
	labelFace := a.uiFace(10, false, false)
	for _, l := range lines {
		drawText(screen, l, labelFace, r.x+20, y, a.theme.Muted)
		y += int(24 * a.uiScales[a.uiScaleIdx])
	}
}

// hitTestPosition maps a window point to a character offset.
func (a *App) hitTestPosition(x, y int) int {
	if len(a.lineLayouts) == 0 {
		return a.session.Selection().Focus
	}
	first := a.lineLayouts[0]
	if y <= first.y {
		return first.start + a.runeAtX(first, x-first.viewX)
	}
	for _, ll := range a.lineLayouts {
		if y >= ll.y && y <= ll.y+ll.height {
			return ll.start + a.runeAtX(ll, x-ll.viewX)
		}
	}
	last := a.lineLayouts[len(a.lineLayouts)-1]
	return last.start + a.runeAtX(last, x-last.viewX)
}

func (a *App) lineAdvance(line lineLayout, rel int) int {
	if rel <= 0 {
		return 0
	}
	if rel >= len(line.text) {
		return line.width
	}
	advance := 0
	for _, seg := range line.segments {
		if rel >= seg.end {
			advance += seg.width
			continue
		}
		if rel > seg.start {
			advance += a.measureString(seg.face, string(line.text[seg.start:rel]))
		}
		break
	}
	return advance
}

func (a *App) runeAtX(line lineLayout, relX int) int {
	if relX <= 0 {
		return 0
	}
	x := 0
	for _, seg := range line.segments {
		if relX > x+seg.width {
			x += seg.width
			continue
		}
		for i := seg.start; i < seg.end; i++ {
			rw := a.measureString(seg.face, string(line.text[i]))
			if relX < x+rw/2 {
				return i
			}
			x += rw
		}
		return seg.end
	}
	return len(line.text)
}

func (a *App) clampScroll() {
	a.scrollX = math.Min(math.Max(a.scrollX, 0), a.maxX)
	a.scrollY = math.Min(math.Max(a.scrollY, 0), a.maxY)
}

// ensureCaretVisible scrolls the caret line into view. Focus mode keeps it
// vertically centred instead.
func (a *App) ensureCaretVisible() {
	if a.contentRect.h <= 0 {
		return
	}
	ll, ok := a.caretLine()
	if !ok {
		return
	}
	top := float64(ll.docY)
	bottom := float64(ll.docY + ll.height)
	viewH := float64(a.contentRect.h)
	switch {
	case a.focusMode:
		a.scrollY = top + float64(ll.height)/2 - viewH/2
	case top < a.scrollY:
		a.scrollY = top
	case bottom > a.scrollY+viewH:
		a.scrollY = bottom - viewH
	}

	caretX := float64(ll.docX + a.lineAdvance(ll, a.session.Selection().Focus-ll.start))
	viewW := float64(a.contentRect.w - 12)
	padding := 16.0
	if caretX < a.scrollX+padding {
		a.scrollX = math.Max(0, caretX-padding)
	}
	if caretX > a.scrollX+viewW-padding {
		a.scrollX = caretX - viewW + padding
	}
	a.clampScroll()
}

func (a *App) blendRectWithinContent(x, y, w, h int, c color.RGBA) {
	cx, cy, cw, ch := a.contentRect.x, a.contentRect.y, a.contentRect.w, a.contentRect.h
	x0, y0 := max(x, cx), max(y, cy)
	x1, y1 := min(x+w, cx+cw), min(y+h, cy+ch)
	if x1 <= x0 || y1 <= y0 {
		return
	}
	a.frameBuffer.BlendRect(x0, y0, x1-x0, y1-y0, c)
}
