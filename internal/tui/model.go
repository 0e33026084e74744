package tui

import (
	"context"
	"encoding/json"
	"log"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/readstate"
	"github.com/tinytelemetry/tflog/internal/slot"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

// Section represents the focusable areas of the browser.
type Section int

const (
	SectionHistory Section = iota
	SectionFilters
	SectionLogs
	sectionCount
)

func (s Section) String() string {
	switch s {
	case SectionHistory:
		return "History"
	case SectionFilters:
		return "Filters"
	case SectionLogs:
		return "Logs"
	}
	return ""
}

type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputUpload
)

// InputState holds the single inline text input shared by filter editing
// and the upload prompt.
type InputState struct {
	input      textinput.Model
	inputMode  inputMode
	inputField int
}

// CursorState holds per-section selection.
type CursorState struct {
	activeSection Section
	historyCursor int
	fieldCursor   int
	logCursor     int
}

// opDoneMsg reports the outcome of an engine call run as a command.
type opDoneMsg struct {
	op     string
	status string
	err    error
}

type jsonBodiesMsg struct {
	entry  model.LogEntry
	bodies json.RawMessage
}

type statisticsMsg struct {
	name  string
	stats model.Statistics
}

// BrowserModel is the log browser screen.
type BrowserModel struct {
	ModalStackState
	InputState
	CursorState

	ctx    context.Context
	engine Engine
	keys   KeyMap
	fields []filterField

	reads     *readstate.Tracker
	shownFile string // file the log cursor belongs to
	hideRead  bool

	theme *slot.Slot[bool]

	snap          viewport.Snapshot
	initialUpload string

	status    string
	lastError string

	inlineHandlers []inlineHandlerEntry

	width  int
	height int
}

// Options configures a BrowserModel.
type Options struct {
	Engine Engine
	// Theme persists the dark/light choice. Nil keeps it in memory.
	Theme *slot.Slot[bool]
	// Upload is a file sent right after startup restore.
	Upload string
}

// NewBrowserModel creates the browser. ctx bounds every engine call.
func NewBrowserModel(ctx context.Context, opts Options) *BrowserModel {
	input := textinput.New()
	input.CharLimit = 200

	m := &BrowserModel{
		InputState:    InputState{input: input},
		CursorState:   CursorState{activeSection: SectionHistory},
		ctx:           ctx,
		engine:        opts.Engine,
		keys:          DefaultKeyMap(),
		fields:        defaultFields(),
		reads:         readstate.New(),
		theme:         opts.Theme,
		snap:          opts.Engine.Snapshot(),
		initialUpload: opts.Upload,
	}
	m.shownFile = m.snap.CurrentFileID
	if m.theme != nil {
		if dark, ok := m.theme.Get(); ok {
			SetDarkTheme(dark)
		}
	}

	m.inlineHandlers = []inlineHandlerEntry{
		{isActive: func(m *BrowserModel) bool { return m.inputMode == inputFilter }, handler: filterInputHandler{}},
		{isActive: func(m *BrowserModel) bool { return m.inputMode == inputUpload }, handler: uploadInputHandler{}},
	}
	return m
}

// Init restores the last selection, then runs the startup upload if any.
func (m *BrowserModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.restoreCmd()}
	if m.initialUpload != "" {
		cmds = append(cmds, m.uploadCmd(m.initialUpload))
	}
	return tea.Sequence(cmds...)
}

// applySnapshot adopts new controller state and keeps cursors in range.
// Read marks are kept until unmark-all, even across files.
func (m *BrowserModel) applySnapshot(s viewport.Snapshot) {
	if s.CurrentFileID != m.shownFile {
		m.shownFile = s.CurrentFileID
		m.logCursor = 0
	}
	m.snap = s
	m.clampCursors()
}

func (m *BrowserModel) clampCursors() {
	m.historyCursor = clamp(m.historyCursor, len(m.snap.History))
	m.logCursor = clamp(m.logCursor, len(m.visibleLogs()))
	m.fieldCursor = clamp(m.fieldCursor, len(m.fields))
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// visibleLogs is the current page with read entries removed when hidden.
func (m *BrowserModel) visibleLogs() []model.LogEntry {
	return m.reads.Visible(m.snap.Logs, m.hideRead)
}

func (m *BrowserModel) cursorEntry() (model.LogEntry, bool) {
	logs := m.visibleLogs()
	if m.logCursor < 0 || m.logCursor >= len(logs) {
		return model.LogEntry{}, false
	}
	return logs[m.logCursor], true
}

// currentName is the display name of the selected file.
func (m *BrowserModel) currentName() string {
	for _, h := range m.snap.History {
		if h.FileID == m.snap.CurrentFileID {
			return h.Name
		}
	}
	return m.snap.CurrentFileID
}

func (m *BrowserModel) toggleTheme() {
	dark := !IsDarkTheme()
	SetDarkTheme(dark)
	if m.theme == nil {
		return
	}
	if err := m.theme.Set(dark); err != nil {
		log.Printf("tui: persist theme: %v", err)
	}
}

// BrowserPage adapts BrowserModel to the Page interface.
type BrowserPage struct {
	Model *BrowserModel
}

// NewBrowserPage wraps a BrowserModel as a Page.
func NewBrowserPage(m *BrowserModel) *BrowserPage {
	return &BrowserPage{Model: m}
}

func (p *BrowserPage) ID() string { return "browser" }

func (p *BrowserPage) Init() tea.Cmd { return p.Model.Init() }

func (p *BrowserPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	_, cmd := p.Model.Update(msg)
	return cmd, nil
}

func (p *BrowserPage) View(width, height int) string {
	p.Model.width = width
	p.Model.height = height
	return p.Model.View()
}
