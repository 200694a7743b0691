//go:build !gui

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	homedir "github.com/mitchellh/go-homedir"

	"github.com/metcalfc/leaf/internal/app"
	"github.com/metcalfc/leaf/internal/reader"
	"github.com/metcalfc/leaf/internal/settings"
	"github.com/metcalfc/leaf/internal/state"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

const controls = "←/→: page  g: go to  c: chapters  o: open  r: recent  t: theme  P: resume  Q: quit"

// controller is the part of app.Runtime the terminal front end drives.
type controller interface {
	Open(path string, page *int) bool
	Goto(n int) bool
	Next() bool
	Previous() bool
	GotoChapter(id string) bool
	UpdateSettings(next settings.Settings) <-chan error
	Snapshot() state.Snapshot
}

type mode int

const (
	modeRead mode = iota
	modeGoto
	modeOpen
	modeList
)

type listItem struct {
	label  string
	choose func(controller)
}

type model struct {
	ctl     controller
	changed <-chan struct{}
	snap    state.Snapshot

	shownPath string
	shownPage int

	mode      mode
	listTitle string
	items     []listItem
	cursor    int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	status   string
	isError  bool
	width    int
	height   int
	quitting bool
}

type changedMsg struct{}

type settingsSavedMsg struct{ err error }

func newModel(ctl controller, changed <-chan struct{}) model {
	in := textinput.New()
	in.CharLimit = 4096

	m := model{
		ctl:       ctl,
		changed:   changed,
		shownPage: -1,
		input:     in,
		viewport:  viewport.New(80, 22),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:     80,
		height:    24,
	}
	m.apply(ctl.Snapshot())
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changed), m.spinner.Tick)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.apply(m.ctl.Snapshot())
		return m, waitForChange(m.changed)

	case settingsSavedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("settings not saved: %v", msg.err))
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.render()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeGoto, modeOpen:
			return m.updateInput(msg)
		case modeList:
			return m.updateList(msg)
		}
		return m.updateRead(msg)
	}
	return m, nil
}

func (m model) updateRead(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status, m.isError = "", false
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "right", "l", "n", " ", "pgdown":
		m.ctl.Next()

	case "left", "h", "b", "pgup":
		m.ctl.Previous()

	case "home":
		m.ctl.Goto(0)

	case "end":
		if doc := m.snap.Document; doc != nil {
			m.ctl.Goto(doc.NumPages - 1)
		}

	case "g":
		if m.snap.Document == nil {
			m.setError("no document open")
			return m, nil
		}
		return m.prompt(modeGoto, "Go to page: ", fmt.Sprintf("1-%d", m.snap.Document.NumPages))

	case "o":
		return m.prompt(modeOpen, "Open: ", strings.Join(reader.SupportedFormats(), ", "))

	case "r":
		m.showRecent()

	case "c":
		m.showChapters()

	case "t":
		s := m.snap.Settings
		s.General.Theme = nextTheme(s.General.Theme)
		m.status = "theme: " + s.General.Theme.String()
		return m, m.saveSettings(s)

	case "P":
		s := m.snap.Settings
		s.File.OpenPreference = togglePreference(s.File.OpenPreference)
		m.status = "resume at: " + describePreference(s.File.OpenPreference)
		return m, m.saveSettings(s)

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) prompt(md mode, prompt, placeholder string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.Reset()
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	return m, m.input.Focus()
}

func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.closeInput()
		return m, nil

	case "enter":
		value := strings.TrimSpace(m.input.Value())
		md := m.mode
		m.closeInput()
		if md == modeGoto {
			m.gotoPage(value)
		} else {
			m.openPath(value)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) closeInput() {
	m.mode = modeRead
	m.input.Blur()
	m.input.Reset()
}

// gotoPage handles the one-based page number typed by the user.
func (m *model) gotoPage(value string) {
	doc := m.snap.Document
	if doc == nil {
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > doc.NumPages {
		m.setError(fmt.Sprintf("page must be a number from 1 to %d", doc.NumPages))
		return
	}
	m.ctl.Goto(n - 1)
}

func (m *model) openPath(value string) {
	if value == "" {
		return
	}
	path, err := homedir.Expand(value)
	if err != nil {
		m.setError(err.Error())
		return
	}
	if !reader.Supported(path) {
		m.setError(fmt.Sprintf("unsupported file %s", filepath.Base(path)))
		return
	}
	m.ctl.Open(path, nil)
}

func (m *model) showRecent() {
	items := make([]listItem, 0, len(m.snap.Progress))
	for _, row := range m.snap.Progress {
		file := row.File
		items = append(items, listItem{
			label:  fmt.Sprintf("%s | page %d", row.Filename, row.CurrentPage+1),
			choose: func(c controller) { c.Open(file, nil) },
		})
	}
	m.showList("Recent documents", items)
}

func (m *model) showChapters() {
	doc := m.snap.Document
	if doc == nil {
		m.setError("no document open")
		return
	}
	items := make([]listItem, 0, len(doc.Chapters))
	for _, ch := range doc.Chapters {
		id := ch.ID
		items = append(items, listItem{
			label:  ch.Title,
			choose: func(c controller) { c.GotoChapter(id) },
		})
	}
	m.showList("Chapters", items)
	m.cursor = min(doc.Page, max(len(items)-1, 0))
}

func (m *model) showList(title string, items []listItem) {
	if len(items) == 0 {
		m.status, m.isError = strings.ToLower(title)+": none", false
		return
	}
	m.mode = modeList
	m.listTitle = title
	m.items = items
	m.cursor = 0
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.mode = modeRead
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		m.mode = modeRead
		m.items[m.cursor].choose(m.ctl)
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) saveSettings(s settings.Settings) tea.Cmd {
	done := m.ctl.UpdateSettings(s)
	return func() tea.Msg {
		return settingsSavedMsg{err: <-done}
	}
}

func (m *model) setError(msg string) {
	m.status = msg
	m.isError = true
}

// apply takes a new snapshot and re-renders the page. The view scrolls back
// to the top when the page or document changed.
func (m *model) apply(snap state.Snapshot) {
	if snap.LastError != nil && !errors.Is(snap.LastError, m.snap.LastError) {
		m.setError(fmt.Sprintf("cannot open document: %v", snap.LastError))
	}
	m.snap = snap
	m.render()

	path, page := "", -1
	if doc := snap.Document; doc != nil {
		path, page = doc.Path, doc.Page
	}
	if path != m.shownPath || page != m.shownPage {
		m.shownPath, m.shownPage = path, page
		m.viewport.GotoTop()
	}
}

func (m *model) render() {
	doc := m.snap.Document
	if doc == nil {
		m.viewport.SetContent("No document open. Press o to open one.")
		return
	}

	text := doc.Content
	if doc.ContentErr != nil {
		text = errorStyle.Render(fmt.Sprintf("cannot read page: %v", doc.ContentErr))
	}
	p := paletteFor(m.snap.Settings.General)
	style := lipgloss.NewStyle().Width(max(m.viewport.Width-2, 1)).Padding(0, 1)
	if p.Text != "" {
		style = style.Foreground(lipgloss.Color(p.Text))
	}
	if p.Background != "" {
		style = style.Background(lipgloss.Color(p.Background))
	}
	m.viewport.SetContent(style.Render(text))
}

func (m model) statusLine() string {
	var parts []string
	if doc := m.snap.Document; doc != nil {
		g := m.snap.Settings.General
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
	line := statusStyle.Render(strings.Join(parts, " | "))
	if m.snap.Loading {
		line += loadingStyle.Render(fmt.Sprintf(" %s Opening %s", m.spinner.View(), filepath.Base(m.snap.LoadingPath)))
	}
	return line
}

func (m model) footer() string {
	switch {
	case m.mode == modeGoto || m.mode == modeOpen:
		return m.input.View()
	case m.status != "" && m.isError:
		return errorStyle.Render(m.status)
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	return controlsStyle.Render(controls)
}

func (m model) listView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.listTitle))
	sb.WriteString("\n\n")

	// Keep the cursor visible on small terminals.
	rows := max(m.height-4, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.items))
	for i := start; i < end; i++ {
		if i == m.cursor {
			sb.WriteString(cursorStyle.Render("> " + m.items[i].label))
		} else {
			sb.WriteString("  " + m.items[i].label)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.statusLine())
	sb.WriteString("\n")
	if m.mode == modeList {
		sb.WriteString(m.listView())
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.footer())
	return sb.String()
}

func describePreference(p settings.OpenPreference) string {
	if p == settings.OpenNextChapter {
		return "next page"
	}
	return "saved page"
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

	if o.File != "" {
		rt.Open(o.File, o.Page)
	}

	p := tea.NewProgram(newModel(rt, changed), tea.WithAltScreen(), tea.WithContext(ctx))
	_, uiErr := p.Run()
	if errors.Is(uiErr, tea.ErrProgramKilled) && ctx.Err() != nil {
		uiErr = nil
	}

	closeErr := rt.Close()
	if err := <-runErr; runtimeFailed(err) {
		o.Logger.Error("runtime stopped with error", "err", err)
	}
	return errors.Join(uiErr, closeErr)
}
