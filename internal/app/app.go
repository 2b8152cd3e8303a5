package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"retronote/internal/autosave"
	"retronote/internal/config"
	"retronote/internal/editor"
	"retronote/internal/render"
	"retronote/internal/store"
	"retronote/internal/ui"
	"retronote/pkg/notedoc"
)

type rect struct {
	x int
	y int
	w int
	h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && y >= r.y && x < r.x+r.w && y < r.y+r.h
}

type actionButton struct {
	id     string
	label  string
	r      rect
	active bool
}

type colorSwatch struct {
	value string
	r     rect
}

type lineSegment struct {
	start int
	end   int
	text  string
	style resolvedStyle
	face  font.Face
	width int
}

// lineLayout is one visual line. start and the segment bounds are character
// offsets; start is absolute in the document.
type lineLayout struct {
	start    int
	text     []rune
	segments []lineSegment
	docX     int
	docY     int
	viewX    int
	y        int
	baseline int
	height   int
	ascent   int
	width    int
}

// App is the desktop host. It owns the window and translates input into
// editor events; all formatting decisions stay in the session.
type App struct {
	ctx   context.Context
	cfg   *config.Config
	store store.Store
	log   *zap.Logger

	theme     ui.Theme
	session   *editor.Session
	history   *editor.History
	saver     *autosave.Saver
	prefs     store.Preferences
	focusMode bool

	frameBuffer *render.FrameBuffer
	canvas      *ebiten.Image
	docLayer    *ebiten.Image

	fonts fontBank

	uiScales   []float32
	uiScaleIdx int
	filePath   string
	status     string
	frameTick  uint64

	textDoc   *notedoc.Document
	textVer   uint64
	textRunes []rune

	showHelp  bool
	helpRect  rect
	helpClose rect

	showThemes   bool
	themeRect    rect
	themeOptions []actionButton

	topActions      []actionButton
	toolbarActions  []actionButton
	colorSwatches   []colorSwatch
	colorPalette    []string
	colorPopupRect  rect
	contentRect     rect
	lineLayouts     []lineLayout
	showColorPicker bool

	scrollX float64
	scrollY float64
	maxX    float64
	maxY    float64

	dragSelecting bool

	screenW int
	screenH int
}

// New loads the stored note and builds the host around it.
func New(ctx context.Context, cfg *config.Config, st store.Store, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load note: %w", err)
	}
	theme, ok := ui.ThemeByName(snap.Theme)
	if !ok {
		log.Warn("unknown theme, using default", zap.String("theme", snap.Theme))
	}
	a := &App{
		ctx:          ctx,
		cfg:          cfg,
		store:        st,
		log:          log,
		theme:        theme,
		history:      editor.NewHistory(editor.DefaultHistoryLimit),
		prefs:        snap.Preferences,
		focusMode:    snap.FocusMode || cfg.Editor.FocusMode,
		fonts:        newFontBank(),
		uiScales:     []float32{1.0, 1.25, 1.5, 2.0},
		status:       "Ready",
		topActions:   make([]actionButton, 0, 16),
		lineLayouts:  make([]lineLayout, 0, 128),
		colorPalette: []string{"#e0e0ff", "#c86bff", "#ff6be8", "#00e5ff", "#33ff66", "#ffb000", "#ff4d4d", "#ffffff", "#9a88c8", "#202020", "hotpink", "gold"},
	}
	a.session = editor.NewSession(snap.Content,
		editor.WithLogger(log.Named("editor")),
		editor.WithInsertGuard(cfg.Editor.InsertGuard),
	)
	a.saver = autosave.New(a.saveContent, cfg.Editor.AutosaveDelay, cfg.Editor.StatusHold, log.Named("autosave"))
	log.Info("note loaded",
		zap.Int("chars", snap.Content.Len()),
		zap.Int("runs", snap.Content.NumRuns()),
		zap.String("theme", theme.Name),
	)
	return a, nil
}

func (a *App) Run() error {
	ebiten.SetWindowTitle("Retro Notes")
	ebiten.SetWindowSize(1100, 760)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSizeLimits(720, 480, -1, -1)
	a.session.Focus()
	err := ebiten.RunGame(a)
	a.shutdown()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run game loop: %w", err)
	}
	return nil
}

func (a *App) saveContent(ctx context.Context) error {
	return a.store.SaveContent(ctx, a.session.Document())
}

// shutdown flushes a scheduled save so closing the window never loses the
// last keystrokes.
func (a *App) shutdown() {
	if !a.saver.Dirty() {
		return
	}
	if err := a.saver.SaveNow(a.ctx, time.Now()); err != nil {
		a.log.Error("final save failed", zap.Error(err))
	}
}

// text returns the document as characters, cached per document version.
func (a *App) text() []rune {
	doc := a.session.Document()
	if doc != a.textDoc || doc.Version() != a.textVer || a.textRunes == nil {
		a.textDoc = doc
		a.textVer = doc.Version()
		a.textRunes = []rune(doc.Text())
	}
	return a.textRunes
}

func (a *App) dispatch(ev editor.Event) bool {
	if err := a.session.Dispatch(ev); err != nil {
		a.status = "Rejected: " + err.Error()
		return false
	}
	return true
}

// insert types text at the caret, replacing any selection.
func (a *App) insert(text string) {
	if text == "" {
		return
	}
	sel := a.session.Selection()
	a.dispatch(editor.InsertText{At: sel.Start(), Text: text})
}

func (a *App) deleteRange(from, to int) {
	if from == to {
		return
	}
	a.dispatch(editor.DeleteText{From: from, To: to})
}

// moveTo moves the caret for the user; extend keeps the anchor.
func (a *App) moveTo(pos int, extend bool) {
	sel := editor.Caret(pos)
	if extend {
		sel = editor.Range(a.session.Selection().Anchor, pos)
	}
	a.selectRange(sel)
}

// selectRange sets the selection directly. Keyboard and mouse moves are the
// user's own, never echoes of an insertion.
func (a *App) selectRange(sel editor.Selection) {
	if err := a.session.SetSelection(sel); err != nil {
		a.log.Error("selection rejected", zap.Stringer("selection", sel), zap.Error(err))
		a.status = "Rejected: " + err.Error()
	}
}

func (a *App) Update() error {
	a.frameTick++
	now := time.Now()
	doc, ver := a.session.Document(), a.session.Document().Version()
	defer func() {
		if d := a.session.Document(); d != doc || d.Version() != ver {
			a.saver.Touch(now)
		}
		if _, err := a.saver.Poll(a.ctx, now); err != nil {
			a.status = "Autosave failed: " + err.Error()
		}
	}()

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	winW, winH := a.currentViewportSize()
	if a.showHelp {
		a.layoutHelpDialogBounds(winW, winH)
	}
	if a.showThemes {
		a.layoutThemeModal(winW, winH)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		switch {
		case a.showHelp:
			a.showHelp = false
		case a.showThemes:
			a.showThemes = false
		case a.showColorPicker:
			a.showColorPicker = false
		case !a.session.Selection().Collapsed():
			a.moveTo(a.session.Selection().Focus, false)
		default:
			return ebiten.Termination
		}
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		a.showHelp = !a.showHelp
	}
	if a.showHelp {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			if !a.helpRect.contains(x, y) || a.helpClose.contains(x, y) {
				a.showHelp = false
			}
		}
		return nil
	}
	if a.showThemes {
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			x, y := ebiten.CursorPosition()
			a.handleThemeClick(x, y)
		}
		return nil
	}

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 && !a.focusMode {
		a.scrollY -= wheelY * 42
	}
	a.clampScroll()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if id, ok := a.actionAt(x, y); ok {
			a.invokeAction(id)
			return nil
		}
		if a.handleToolbarClick(x, y) {
			return nil
		}
		if a.contentRect.contains(x, y) {
			a.moveTo(a.hitTestPosition(x, y), shift)
			a.dragSelecting = true
		}
	}
	if a.dragSelecting && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		a.moveTo(a.hitTestPosition(x, y), true)
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		a.dragSelecting = false
	}

	if ctrl {
		a.handleShortcuts(shift)
		a.ensureCaretVisible()
		return nil
	}

	a.handleMotion(shift)
	a.handleEditing()
	a.ensureCaretVisible()
	return nil
}

func (a *App) handleShortcuts(shift bool) {
	pressed := inpututil.IsKeyJustPressed
	switch {
	case pressed(ebiten.KeyZ):
		a.invokeAction("undo")
	case pressed(ebiten.KeyY):
		a.invokeAction("redo")
	case pressed(ebiten.KeyO):
		a.invokeAction("import")
	case pressed(ebiten.KeyS) && shift:
		a.invokeAction("export")
	case pressed(ebiten.KeyS):
		a.invokeAction("save")
	case pressed(ebiten.KeyT):
		a.invokeAction("theme")
	case pressed(ebiten.KeyF) && shift:
		a.invokeAction("focus")
	case pressed(ebiten.KeyA):
		a.selectRange(editor.Range(0, len(a.text())))
	case pressed(ebiten.KeyC):
		a.invokeAction("copy")
	case pressed(ebiten.KeyX):
		a.invokeAction("cut")
	case pressed(ebiten.KeyV):
		a.invokeAction("paste")
	case pressed(ebiten.KeyB):
		a.invokeAction("bold")
	case pressed(ebiten.KeyI):
		a.invokeAction("italic")
	case pressed(ebiten.KeyU):
		a.invokeAction("underline")
	case pressed(ebiten.KeyPeriod):
		a.invokeAction("size_up")
	case pressed(ebiten.KeyComma):
		a.invokeAction("size_down")
	case pressed(ebiten.KeyEqual), pressed(ebiten.KeyKPAdd):
		a.invokeAction("scale_up")
	case pressed(ebiten.KeyMinus), pressed(ebiten.KeyKPSubtract):
		a.invokeAction("scale_down")
	case pressed(ebiten.KeyBackspace):
		a.history.Record(a.session)
		text, sel := a.text(), a.session.Selection()
		a.deleteRange(editor.PrevWordBoundary(text, sel.Start()), sel.End())
	case pressed(ebiten.KeyDelete):
		a.history.Record(a.session)
		text, sel := a.text(), a.session.Selection()
		a.deleteRange(sel.Start(), editor.NextWordBoundary(text, sel.End()))
	case pressed(ebiten.KeyArrowLeft):
		a.moveTo(editor.PrevWordBoundary(a.text(), a.session.Selection().Focus), shift)
	case pressed(ebiten.KeyArrowRight):
		a.moveTo(editor.NextWordBoundary(a.text(), a.session.Selection().Focus), shift)
	case pressed(ebiten.KeyHome):
		a.moveTo(0, shift)
	case pressed(ebiten.KeyEnd):
		a.moveTo(len(a.text()), shift)
	}
}

func (a *App) handleMotion(shift bool) {
	text := a.text()
	sel := a.session.Selection()
	pos := sel.Focus
	repeat := func(k ebiten.Key) bool {
		d := inpututil.KeyPressDuration(k)
		return d == 1 || (d > 24 && d%3 == 0)
	}
	switch {
	case repeat(ebiten.KeyArrowLeft):
		if !sel.Collapsed() && !shift {
			a.moveTo(sel.Start(), false)
			return
		}
		a.moveTo(max(pos-1, 0), shift)
	case repeat(ebiten.KeyArrowRight):
		if !sel.Collapsed() && !shift {
			a.moveTo(sel.End(), false)
			return
		}
		a.moveTo(min(pos+1, len(text)), shift)
	case repeat(ebiten.KeyArrowUp):
		a.moveTo(editor.VerticalMove(text, pos, -1), shift)
	case repeat(ebiten.KeyArrowDown):
		a.moveTo(editor.VerticalMove(text, pos, 1), shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		a.moveTo(editor.LineStart(text, pos), shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyEnd):
		a.moveTo(editor.LineEnd(text, pos), shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageUp):
		a.moveTo(editor.VerticalMove(text, pos, -a.pageLines()), shift)
	case inpututil.IsKeyJustPressed(ebiten.KeyPageDown):
		a.moveTo(editor.VerticalMove(text, pos, a.pageLines()), shift)
	}
}

func (a *App) pageLines() int {
	if len(a.lineLayouts) == 0 || a.lineLayouts[0].height <= 0 {
		return 10
	}
	return max(1, a.contentRect.h/a.lineLayouts[0].height-1)
}

func (a *App) handleEditing() {
	recorded := false
	record := func() {
		if !recorded {
			a.history.Record(a.session)
			recorded = true
		}
	}
	repeat := func(k ebiten.Key) bool {
		d := inpututil.KeyPressDuration(k)
		return d == 1 || (d > 24 && d%3 == 0)
	}

	var typed strings.Builder
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x20 || !utf8.ValidRune(r) {
			continue
		}
		typed.WriteRune(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyKPEnter) {
		typed.WriteByte('\n')
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		typed.WriteString("    ")
	}
	if typed.Len() > 0 {
		record()
		a.insert(typed.String())
	}

	sel := a.session.Selection()
	from, to := sel.Start(), sel.End()
	switch {
	case repeat(ebiten.KeyBackspace):
		if sel.Collapsed() {
			from = max(from-1, 0)
		}
	case repeat(ebiten.KeyDelete):
		if sel.Collapsed() {
			to = min(to+1, len(a.text()))
		}
	default:
		return
	}
	if from < to {
		record()
		a.deleteRange(from, to)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	if outsideWidth < 720 {
		outsideWidth = 720
	}
	if outsideHeight < 480 {
		outsideHeight = 480
	}
	a.screenW = outsideWidth
	a.screenH = outsideHeight
	return outsideWidth, outsideHeight
}

func (a *App) currentViewportSize() (int, int) {
	if a.screenW > 0 && a.screenH > 0 {
		return a.screenW, a.screenH
	}
	w, h := ebiten.WindowSize()
	if w <= 0 {
		w = 1100
	}
	if h <= 0 {
		h = 760
	}
	return w, h
}
