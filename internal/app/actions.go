package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"retronote/internal/editor"
	"retronote/internal/markup"
	"retronote/internal/ui"
	"retronote/pkg/notedoc"
)

const defaultFontPx = 16

var fontFamilies = []string{"Courier New", "Lucida Console", "Georgia", "Verdana"}

func (a *App) actionAt(x, y int) (string, bool) {
	for _, btn := range a.topActions {
		if btn.r.contains(x, y) {
			return btn.id, true
		}
	}
	return "", false
}

func (a *App) handleToolbarClick(x, y int) bool {
	for _, sw := range a.colorSwatches {
		if sw.r.contains(x, y) {
			a.applyColor(sw.value)
			a.showColorPicker = false
			return true
		}
	}
	for _, btn := range a.toolbarActions {
		if btn.r.contains(x, y) {
			a.invokeAction(btn.id)
			return true
		}
	}
	if a.showColorPicker && !a.colorPopupRect.contains(x, y) {
		a.showColorPicker = false
		return true
	}
	return false
}

func (a *App) invokeAction(id string) {
	switch id {
	case "save":
		if err := a.saver.SaveNow(a.ctx, time.Now()); err != nil {
			a.status = "Save failed: " + err.Error()
			return
		}
		a.status = "Saved"
	case "clear":
		a.clearNote()
	case "import":
		if err := a.importDialog(); err != nil {
			a.status = "Import failed: " + err.Error()
		}
	case "export":
		if err := a.exportDialog(); err != nil {
			a.status = "Export failed: " + err.Error()
		}
	case "undo":
		if !a.history.Undo(a.session) {
			a.status = "Nothing to undo"
		}
	case "redo":
		if !a.history.Redo(a.session) {
			a.status = "Nothing to redo"
		}
	case "theme":
		a.showThemes = !a.showThemes
	case "focus":
		a.setFocusMode(!a.focusMode)
	case "scale_up":
		a.bumpUIScale(1)
		a.status = fmt.Sprintf("UI scale %.0f%%", a.uiScales[a.uiScaleIdx]*100)
	case "scale_down":
		a.bumpUIScale(-1)
		a.status = fmt.Sprintf("UI scale %.0f%%", a.uiScales[a.uiScaleIdx]*100)
	case "help":
		a.showHelp = !a.showHelp
	case "bold":
		a.toggle(notedoc.AttrBold)
	case "italic":
		a.toggle(notedoc.AttrItalic)
	case "underline":
		a.toggle(notedoc.AttrUnderline)
	case "size_down":
		a.stepSize(-1)
	case "size_up":
		a.stepSize(1)
	case "family":
		a.cycleFamily()
	case "color_toggle":
		a.showColorPicker = !a.showColorPicker
	case "hr":
		a.history.Record(a.session)
		a.insert("\n" + markup.HorizontalRule + "\n")
	case "copy":
		if text := a.session.SelectedText(); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				a.status = "Copy failed: " + err.Error()
			}
		}
	case "cut":
		text := a.session.SelectedText()
		if text == "" {
			return
		}
		if err := clipboard.WriteAll(text); err != nil {
			a.status = "Cut failed: " + err.Error()
			return
		}
		sel := a.session.Selection()
		a.history.Record(a.session)
		a.deleteRange(sel.Start(), sel.End())
	case "paste":
		paste, err := clipboard.ReadAll()
		if err != nil {
			a.status = "Paste failed: " + err.Error()
			return
		}
		paste = strings.ReplaceAll(paste, "\r\n", "\n")
		if paste != "" {
			a.history.Record(a.session)
			a.insert(paste)
		}
	}
}

func (a *App) toggle(attr notedoc.Attribute) {
	sel := a.session.Selection()
	if !sel.Collapsed() {
		a.history.Record(a.session)
	}
	if a.dispatch(editor.FormatToggle{Attr: attr}) {
		on := a.session.CurrentStyle().Get(attr).On
		if !sel.Collapsed() {
			// the selection collapsed; report what the range now holds
			st, err := a.session.EffectiveStyle(sel)
			if err == nil {
				on = st.Get(attr).On
			}
		}
		a.status = fmt.Sprintf("%s %s", attr, onOff(on))
	}
}

// set dispatches a value attribute and remembers it as the editor default.
func (a *App) set(attr notedoc.Attribute, v notedoc.Value) bool {
	if !a.session.Selection().Collapsed() {
		a.history.Record(a.session)
	}
	if !a.dispatch(editor.FormatSet{Attr: attr, Value: v}) {
		return false
	}
	switch attr {
	case notedoc.AttrFontFamily:
		a.prefs.FontFamily = v.Text
	case notedoc.AttrFontSize:
		a.prefs.FontSize = strconv.Itoa(v.Px)
	case notedoc.AttrColor:
		a.prefs.Color = v.Text
	}
	if err := a.store.SavePreferences(a.ctx, a.prefs); err != nil {
		a.status = "Saving preferences failed: " + err.Error()
	}
	return true
}

func (a *App) stepSize(delta int) {
	px := notedoc.StepLegacySize(a.session.CurrentStyle().FontSize, a.basePx(), delta)
	if a.set(notedoc.AttrFontSize, notedoc.Pixels(px)) {
		a.status = fmt.Sprintf("Font size %dpx", px)
	}
}

func (a *App) cycleFamily() {
	cur := a.session.CurrentStyle().FontFamily
	if cur == "" {
		cur = a.prefs.FontFamily
	}
	next := fontFamilies[(slices.Index(fontFamilies, cur)+1)%len(fontFamilies)]
	if a.set(notedoc.AttrFontFamily, notedoc.Family(next)) {
		a.status = "Font " + next
	}
}

func (a *App) applyColor(value string) {
	_, hex, err := notedoc.ParseColor(value)
	if err != nil {
		a.status = "Invalid color: " + err.Error()
		return
	}
	if a.set(notedoc.AttrColor, notedoc.Color(hex)) {
		a.status = "Color " + hex
	}
}

func (a *App) clearNote() {
	ok := dialog.Message("%s", "Clear the note? This cannot be undone.").Title("Retro Notes").YesNo()
	if !ok {
		return
	}
	a.history.Clear()
	a.session.Reset(notedoc.NewDocument(), editor.Caret(0))
	if err := a.store.ClearContent(a.ctx); err != nil {
		a.status = "Clear failed: " + err.Error()
		return
	}
	a.saver.Reset()
	a.scrollX, a.scrollY = 0, 0
	a.status = "Cleared"
}

func (a *App) setTheme(t ui.Theme) {
	a.theme = t
	a.showThemes = false
	if err := a.store.SaveTheme(a.ctx, t.Name); err != nil {
		a.status = "Saving theme failed: " + err.Error()
		return
	}
	a.status = "Theme " + t.Label
}

func (a *App) handleThemeClick(x, y int) {
	for _, opt := range a.themeOptions {
		if opt.r.contains(x, y) {
			t, _ := ui.ThemeByName(opt.id)
			a.setTheme(t)
			return
		}
	}
	if !a.themeRect.contains(x, y) {
		a.showThemes = false
	}
}

func (a *App) setFocusMode(on bool) {
	a.focusMode = on
	a.showColorPicker = false
	if err := a.store.SaveFocusMode(a.ctx, on); err != nil {
		a.status = "Saving focus mode failed: " + err.Error()
		return
	}
	a.status = "Focus mode " + onOff(on)
}

func (a *App) importDialog() error {
	path, err := dialog.File().Title("Import note").Filter("Retro notes", "rnote").Filter("HTML", "html", "htm").Load()
	if errors.Is(err, dialog.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	path = filepath.Clean(path)
	doc, err := a.readNoteFile(path)
	if err != nil {
		return err
	}
	a.history.Record(a.session)
	a.session.Reset(doc, editor.Caret(doc.Len()))
	a.filePath = path
	a.status = "Imported " + filepath.Base(path)
	a.log.Info("imported note", zap.String("path", path), zap.Int("chars", doc.Len()))
	return nil
}

func (a *App) readNoteFile(path string) (*notedoc.Document, error) {
	if isHTML(path) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return markup.Parse(string(src))
	}
	note, err := notedoc.LoadWithOptions(path, notedoc.LoadOptions{Password: a.cfg.Storage.Password})
	if err != nil {
		return nil, err
	}
	if note.Content == nil {
		return notedoc.NewDocument(), nil
	}
	return note.Content, nil
}

func (a *App) exportDialog() error {
	b := dialog.File().Title("Export note").Filter("Retro notes", "rnote").Filter("HTML", "html")
	if a.filePath != "" {
		b = b.SetStartDir(filepath.Dir(a.filePath))
	}
	path, err := b.Save()
	if errors.Is(err, dialog.ErrCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += ".rnote"
	}
	doc := a.session.Document().Clone()
	if isHTML(path) {
		page := markup.Page(doc, markup.PageOptions{
			FontFamily: a.prefs.FontFamily,
			FontSize:   a.prefs.FontSize,
			Color:      a.prefs.Color,
		})
		err = os.WriteFile(path, []byte(page), 0o644)
	} else {
		prefs, perr := a.prefs.Marshal()
		if perr != nil {
			return perr
		}
		note := &notedoc.Note{Content: doc, Preferences: prefs, Theme: a.theme.Name, FocusMode: a.focusMode}
		err = notedoc.SaveWithOptions(path, note, notedoc.SaveOptions{Compression: a.cfg.Storage.Compression})
	}
	if err != nil {
		return err
	}
	a.filePath = path
	a.status = "Exported " + filepath.Base(path)
	return nil
}

func isHTML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

func (a *App) bumpUIScale(delta int) {
	if len(a.uiScales) == 0 {
		return
	}
	prev := a.uiScaleIdx
	a.uiScaleIdx = min(max(a.uiScaleIdx+delta, 0), len(a.uiScales)-1)
	if prev != a.uiScaleIdx {
		a.fonts.cache = map[fontKey]font.Face{}
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
