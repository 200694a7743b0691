//go:build gui

package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/metcalfc/leaf/internal/app"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/settings"
	"github.com/metcalfc/leaf/internal/state"
)

const (
	readingTextSize  fyne.ThemeSizeName  = "leafReadingText"
	readingTextColor fyne.ThemeColorName = "leafReadingText"
)

// readingTheme wraps the default theme and only controls the page text.
type readingTheme struct {
	fyne.Theme
	text     color.Color
	textSize float32
}

func (t *readingTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	if n == readingTextColor {
		if t.text != nil {
			return t.text
		}
		return t.Theme.Color(fynetheme.ColorNameForeground, v)
	}
	return t.Theme.Color(n, v)
}

func (t *readingTheme) Size(n fyne.ThemeSizeName) float32 {
	if n == readingTextSize {
		if t.textSize > 0 {
			return t.textSize
		}
		return t.Theme.Size(fynetheme.SizeNameText)
	}
	return t.Theme.Size(n)
}

// parseHex parses #RRGGBB.
func parseHex(s string) (color.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return nil, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, false
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, true
}

type window struct {
	app    fyne.App
	win    fyne.Window
	rt     *app.Runtime
	geom   settings.Geometry
	snap   state.Snapshot
	theme  *readingTheme
	menuID string

	background *canvas.Rectangle
	page       *widget.RichText
	scroll     *container.Scroll
	status     *widget.Label
}

func newWindow(a fyne.App, rt *app.Runtime) *window {
	w := &window{
		app:   a,
		win:   a.NewWindow("leaf"),
		rt:    rt,
		theme: &readingTheme{Theme: fynetheme.DefaultTheme()},
	}
	w.geom, _ = rt.Window()
	a.Settings().SetTheme(w.theme)

	w.background = canvas.NewRectangle(color.Transparent)
	w.page = widget.NewRichText()
	w.page.Wrapping = fyne.TextWrapWord
	w.scroll = container.NewVScroll(w.page)
	w.status = widget.NewLabel("")

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(fynetheme.FolderOpenIcon(), w.showOpen),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(fynetheme.NavigateBackIcon(), func() { rt.Previous() }),
		widget.NewToolbarAction(fynetheme.NavigateNextIcon(), func() { rt.Next() }),
		widget.NewToolbarAction(fynetheme.SearchIcon(), w.showGoto),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(fynetheme.ViewFullScreenIcon(), func() {
			w.win.SetFullScreen(!w.win.FullScreen())
		}),
	)

	w.win.SetContent(container.NewBorder(
		toolbar,
		w.status,
		nil, nil,
		container.NewStack(w.background, w.scroll),
	))
	w.win.Resize(fyne.NewSize(float32(w.geom.Width), float32(w.geom.Height)))
	w.win.SetFullScreen(w.geom.IsFullscreen)

	w.win.Canvas().SetOnTypedKey(w.typedKey)
	w.win.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		for _, u := range uris {
			if reader.Supported(u.Path()) {
				rt.Open(u.Path(), nil)
				return
			}
		}
		w.status.SetText("unsupported file dropped")
	})
	w.apply(rt.Snapshot())
	return w
}

func (w *window) typedKey(k *fyne.KeyEvent) {
	switch k.Name {
	case fyne.KeyRight, fyne.KeyPageDown, fyne.KeySpace:
		w.rt.Next()
	case fyne.KeyLeft, fyne.KeyPageUp:
		w.rt.Previous()
	case fyne.KeyHome:
		w.rt.Goto(0)
	case fyne.KeyEnd:
		if doc := w.snap.Document; doc != nil {
			w.rt.Goto(doc.NumPages - 1)
		}
	case fyne.KeyF11:
		w.win.SetFullScreen(!w.win.FullScreen())
	}
}

func (w *window) showOpen() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		if !reader.Supported(path) {
			dialog.ShowError(fmt.Errorf("%w: %s", reader.ErrUnsupportedFormat, path), w.win)
			return
		}
		w.rt.Open(path, nil)
	}, w.win)
}

// showGoto asks for a one-based page number.
func (w *window) showGoto() {
	doc := w.snap.Document
	if doc == nil {
		return
	}
	entry := widget.NewEntry()
	entry.SetPlaceHolder(fmt.Sprintf("1-%d", doc.NumPages))
	items := []*widget.FormItem{widget.NewFormItem("Page", entry)}
	dialog.ShowForm("Go to page", "Go", "Cancel", items, func(ok bool) {
		if !ok {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(entry.Text))
		if err != nil || n < 1 || n > doc.NumPages {
			dialog.ShowError(fmt.Errorf("page must be a number from 1 to %d", doc.NumPages), w.win)
			return
		}
		w.rt.Goto(n - 1)
	}, w.win)
}

func (w *window) updateSettings(s settings.Settings) {
	done := w.rt.UpdateSettings(s)
	go func() {
		if err := <-done; err != nil {
			fyne.Do(func() { dialog.ShowError(err, w.win) })
		}
	}()
}

// apply shows a new snapshot. It runs on the fyne goroutine.
func (w *window) apply(snap state.Snapshot) {
	prev := w.snap
	w.snap = snap

	if snap.LastError != nil && !errors.Is(snap.LastError, prev.LastError) {
		dialog.ShowError(snap.LastError, w.win)
	}

	g := snap.Settings.General
	p := paletteFor(g)
	w.theme.text, _ = parseHex(p.Text)
	w.theme.textSize = float32(g.FontSize)
	if bg, ok := parseHex(p.Background); ok {
		w.background.FillColor = bg
	} else {
		w.background.FillColor = color.Transparent
	}
	w.background.Refresh()

	text := "Drop a document here or use the open button."
	doc := snap.Document
	if doc != nil {
		text = doc.Content
		if doc.ContentErr != nil {
			text = fmt.Sprintf("cannot read page: %v", doc.ContentErr)
		}
		w.win.SetTitle("leaf | " + doc.Filename)
	}
	w.page.Segments = []widget.RichTextSegment{&widget.TextSegment{
		Text: text,
		Style: widget.RichTextStyle{
			ColorName: readingTextColor,
			SizeName:  readingTextSize,
		},
	}}
	w.page.Refresh()

	if doc != nil && (prev.Document == nil || prev.Document.Path != doc.Path || prev.Document.Page != doc.Page) {
		w.scroll.ScrollToTop()
	}

	w.status.SetText(w.statusText())
	w.refreshMenu()
}

func (w *window) statusText() string {
	var parts []string
	if doc := w.snap.Document; doc != nil {
		g := w.snap.Settings.General
		if g.ShowPageFile {
			parts = append(parts, doc.Filename)
		}
		if g.ShowPageNum {
			parts = append(parts, fmt.Sprintf("Page %d/%d", doc.Page+1, doc.NumPages))
		}
		if doc.ChapterTitle != "" {
			parts = append(parts, doc.ChapterTitle)
		}
	}
	if w.snap.Loading {
		parts = append(parts, "Opening "+w.snap.LoadingPath+"...")
	}
	return strings.Join(parts, " | ")
}

// refreshMenu rebuilds the main menu when anything it lists has changed.
func (w *window) refreshMenu() {
	s := w.snap
	id := fmt.Sprintf("%s|%d|%s|%s|%g", s.Settings.General.Theme, len(s.Progress), s.Settings.File.OpenPreference, documentPath(s), s.Settings.General.FontSize)
	if id == w.menuID {
		return
	}
	w.menuID = id

	file := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", w.showOpen),
		w.recentMenu(),
	)
	goMenu := fyne.NewMenu("Go",
		fyne.NewMenuItem("Next page", func() { w.rt.Next() }),
		fyne.NewMenuItem("Previous page", func() { w.rt.Previous() }),
		fyne.NewMenuItem("Go to page...", w.showGoto),
		w.chaptersMenu(),
	)
	w.win.SetMainMenu(fyne.NewMainMenu(file, goMenu, w.viewMenu()))
}

func documentPath(s state.Snapshot) string {
	if s.Document == nil {
		return ""
	}
	return s.Document.Path
}

func (w *window) recentMenu() *fyne.MenuItem {
	item := fyne.NewMenuItem("Recent", nil)
	var children []*fyne.MenuItem
	for _, row := range w.snap.Progress {
		file := row.File
		children = append(children, fyne.NewMenuItem(
			fmt.Sprintf("%s | page %d", row.Filename, row.CurrentPage+1),
			func() { w.rt.Open(file, nil) },
		))
	}
	if len(children) == 0 {
		item.Disabled = true
		return item
	}
	item.ChildMenu = fyne.NewMenu("", children...)
	return item
}

func (w *window) chaptersMenu() *fyne.MenuItem {
	item := fyne.NewMenuItem("Chapters", nil)
	doc := w.snap.Document
	if doc == nil || len(doc.Chapters) == 0 {
		item.Disabled = true
		return item
	}
	children := make([]*fyne.MenuItem, 0, len(doc.Chapters))
	for _, ch := range doc.Chapters {
		id := ch.ID
		children = append(children, fyne.NewMenuItem(ch.Title, func() { w.rt.GotoChapter(id) }))
	}
	item.ChildMenu = fyne.NewMenu("", children...)
	return item
}

func (w *window) viewMenu() *fyne.Menu {
	current := w.snap.Settings

	themes := make([]*fyne.MenuItem, 0, len(settings.Themes))
	for _, t := range settings.Themes {
		mi := fyne.NewMenuItem(t.String(), func() {
			s := w.snap.Settings
			s.General.Theme = t
			w.updateSettings(s)
		})
		mi.Checked = current.General.Theme == t
		themes = append(themes, mi)
	}
	themeItem := fyne.NewMenuItem("Theme", nil)
	themeItem.ChildMenu = fyne.NewMenu("", themes...)

	bigger := fyne.NewMenuItem("Larger text", func() {
		s := w.snap.Settings
		s.General.FontSize = min(s.General.FontSize+2, 96)
		w.updateSettings(s)
	})
	smaller := fyne.NewMenuItem("Smaller text", func() {
		s := w.snap.Settings
		s.General.FontSize = max(s.General.FontSize-2, 8)
		w.updateSettings(s)
	})

	resume := fyne.NewMenuItem("Resume at next page", func() {
		s := w.snap.Settings
		s.File.OpenPreference = togglePreference(s.File.OpenPreference)
		w.updateSettings(s)
	})
	resume.Checked = current.File.OpenPreference == settings.OpenNextChapter

	return fyne.NewMenu("View", themeItem, bigger, smaller, fyne.NewMenuItemSeparator(), resume)
}

// geometry reports the window state to persist. fyne exposes neither the
// window position nor the maximized state, so both keep their loaded values.
func (w *window) geometry() settings.Geometry {
	g := w.geom
	size := w.win.Canvas().Size()
	if size.Width > 0 && size.Height > 0 {
		g.Width = int(size.Width)
		g.Height = int(size.Height)
	}
	g.IsFullscreen = w.win.FullScreen()
	return g
}

func runFrontend(ctx context.Context, o frontendOptions) error {
	changed := make(chan struct{}, 1)
	rt, err := app.New(app.Options{
		DataDir: o.DataDir,
		Logger:  o.Logger,
		OnChange: func(state.Snapshot) {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
	})
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- rt.Run(ctx) }()

	a := fyneapp.NewWithID("io.github.metcalfc.leaf")
	w := newWindow(a, rt)

	geom := w.geom
	w.win.SetCloseIntercept(func() {
		geom = w.geometry()
		w.win.Close()
	})

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				fyne.Do(func() {
					geom = w.geometry()
					w.win.Close()
				})
				return
			case <-changed:
				fyne.Do(func() { w.apply(rt.Snapshot()) })
			}
		}
	}()

	if o.File != "" {
		rt.Open(o.File, o.Page)
	}

	w.win.ShowAndRun()
	close(done)

	shutdownErr := rt.Shutdown(geom)
	if err := <-runErr; runtimeFailed(err) {
		o.Logger.Error("runtime stopped with error", "err", err)
	}
	return shutdownErr
}
