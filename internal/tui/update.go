package tui

import (
	"errors"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

// SpinnerTickMsg triggers a re-render while a fetch is in flight.
type SpinnerTickMsg struct{}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg { return SpinnerTickMsg{} })
}

// Update handles messages.
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKeyPress(msg)

	case tea.MouseMsg:
		if modal := m.TopModal(); modal != nil {
			pop, cmd := modal.Update(msg)
			if pop {
				m.PopModal()
			}
			return m, cmd
		}
		return m, nil

	case SnapshotMsg:
		wasLoading := m.snap.State == viewport.Loading
		m.applySnapshot(viewport.Snapshot(msg))
		if m.snap.State == viewport.Loading && !wasLoading {
			return m, spinnerTick()
		}
		return m, nil

	case SpinnerTickMsg:
		if m.snap.State == viewport.Loading {
			return m, spinnerTick()
		}
		return m, nil

	case NoticeMsg:
		if msg.Err != nil {
			m.PushModal(NewNoticeModal(msg.Err))
		}
		return m, nil

	case opDoneMsg:
		m.applySnapshot(m.engine.Snapshot())
		switch {
		case msg.err == nil:
			if msg.status != "" {
				m.status = msg.status
				m.lastError = ""
			}
		case errors.Is(msg.err, viewport.ErrSuperseded):
		case errors.Is(msg.err, viewport.ErrBackendMutation):
			// Local state already changed; the server copy may linger.
			m.status = msg.status
			m.lastError = "server did not confirm the removal"
		default:
			log.Printf("tui: %s: %v", msg.op, msg.err)
			m.lastError = msg.err.Error()
		}
		return m, nil

	case jsonBodiesMsg:
		m.PushModal(NewJSONBodiesModal(msg.entry, msg.bodies))
		return m, nil

	case statisticsMsg:
		m.PushModal(NewStatsModal(msg.name, msg.stats))
		return m, nil
	}
	return m, nil
}

func (m *BrowserModel) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.ForceQuit) {
		return tea.Quit
	}

	if modal := m.TopModal(); modal != nil {
		pop, cmd := modal.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd
	}

	for _, entry := range m.inlineHandlers {
		if entry.isActive(m) {
			if handled, cmd := entry.handler.HandleKey(m, msg); handled {
				return cmd
			}
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.PushModal(NewHelpModal(m.keys))
		return nil
	case key.Matches(msg, m.keys.NextSection):
		m.activeSection = (m.activeSection + 1) % sectionCount
		return nil
	case key.Matches(msg, m.keys.PrevSection):
		m.activeSection = (m.activeSection + sectionCount - 1) % sectionCount
		return nil
	case key.Matches(msg, m.keys.ToggleTheme):
		m.toggleTheme()
		return nil
	case key.Matches(msg, m.keys.Upload):
		m.openInput(inputUpload, -1, "")
		return nil
	case key.Matches(msg, m.keys.Statistics):
		return m.statisticsCmd()
	case key.Matches(msg, m.keys.Reset):
		m.engine.ResetFilters()
		m.status = "Filters reset"
		return nil
	case key.Matches(msg, m.keys.Delete):
		if m.snap.CurrentFileID == "" {
			return nil
		}
		m.PushModal(NewConfirmModal("Delete "+m.currentName()+" from history and server?", m.deleteCmd))
		return nil
	case key.Matches(msg, m.keys.ClearAll):
		if len(m.snap.History) == 0 {
			return nil
		}
		m.PushModal(NewConfirmModal("Clear all history and server data for this session?", m.clearCmd))
		return nil
	}

	switch m.activeSection {
	case SectionHistory:
		return m.handleHistoryKey(msg)
	case SectionFilters:
		return m.handleFiltersKey(msg)
	case SectionLogs:
		return m.handleLogsKey(msg)
	}
	return nil
}

func (m *BrowserModel) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.historyCursor = clamp(m.historyCursor-1, len(m.snap.History))
	case key.Matches(msg, m.keys.Down):
		m.historyCursor = clamp(m.historyCursor+1, len(m.snap.History))
	case key.Matches(msg, m.keys.Enter):
		if m.historyCursor < len(m.snap.History) {
			m.lastError = ""
			return m.selectCmd(m.snap.History[m.historyCursor].FileID)
		}
	}
	return nil
}

func (m *BrowserModel) handleFiltersKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
		m.fieldCursor = clamp(m.fieldCursor-1, len(m.fields))
	case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
		m.fieldCursor = clamp(m.fieldCursor+1, len(m.fields))
	case key.Matches(msg, m.keys.Enter):
		f := m.fields[m.fieldCursor]
		if f.isChoice() {
			m.setField(f, f.next(f.value(m.snap.Filters)))
			return nil
		}
		m.openInput(inputFilter, m.fieldCursor, f.value(m.snap.Filters))
	case key.Matches(msg, m.keys.Clear):
		m.setField(m.fields[m.fieldCursor], "")
	}
	return nil
}

// setField sends one edit to the engine and mirrors it locally so the bar
// reflects it before the next snapshot.
func (m *BrowserModel) setField(f filterField, value string) {
	var err error
	if f.isTime() {
		err = m.engine.ChangeTimePart(f.bound, f.part, value)
	} else {
		err = m.engine.ChangeFilter(f.name, value)
	}
	if err != nil {
		m.lastError = err.Error()
		return
	}
	m.snap.Filters = m.engine.Snapshot().Filters
}

func (m *BrowserModel) handleLogsKey(msg tea.KeyMsg) tea.Cmd {
	logs := m.visibleLogs()
	pg := m.snap.Pagination

	switch {
	case key.Matches(msg, m.keys.Up):
		m.logCursor = clamp(m.logCursor-1, len(logs))
	case key.Matches(msg, m.keys.Down):
		m.logCursor = clamp(m.logCursor+1, len(logs))
	case key.Matches(msg, m.keys.Enter):
		entry, ok := m.cursorEntry()
		if !ok {
			return nil
		}
		m.reads.MarkRead(entry.ID)
		if entry.HasJSONBodies {
			return m.jsonBodiesCmd(entry)
		}
		m.PushModal(NewEntryModal(entry))
	case key.Matches(msg, m.keys.ToggleRead):
		if entry, ok := m.cursorEntry(); ok {
			m.reads.Toggle(entry.ID)
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.MarkAll):
		m.reads.MarkAllRead(m.snap.Logs)
		m.clampCursors()
	case key.Matches(msg, m.keys.UnmarkAll):
		m.reads.UnmarkAllRead()
	case key.Matches(msg, m.keys.HideRead):
		m.hideRead = !m.hideRead
		m.clampCursors()
	case key.Matches(msg, m.keys.NextPage):
		if pg.Page < pg.TotalPages {
			return m.nextPageCmd()
		}
	case key.Matches(msg, m.keys.PrevPage):
		if pg.Page > 1 {
			return m.prevPageCmd()
		}
	case key.Matches(msg, m.keys.FirstPage):
		if pg.Page > 1 {
			return m.pageCmd(1, 0)
		}
	case key.Matches(msg, m.keys.LastPage):
		if pg.Page < pg.TotalPages {
			return m.pageCmd(pg.TotalPages, 0)
		}
	case key.Matches(msg, m.keys.PageSizeUp):
		if size, ok := stepPageSize(pg.PageSize, 1); ok && m.snap.CurrentFileID != "" {
			return m.pageCmd(1, size)
		}
	case key.Matches(msg, m.keys.PageSizeDown):
		if size, ok := stepPageSize(pg.PageSize, -1); ok && m.snap.CurrentFileID != "" {
			return m.pageCmd(1, size)
		}
	}
	return nil
}

// stepPageSize moves to the neighbouring entry of model.PageSizes.
func stepPageSize(current, dir int) (int, bool) {
	for i, s := range model.PageSizes {
		if s == current {
			j := i + dir
			if j < 0 || j >= len(model.PageSizes) {
				return 0, false
			}
			return model.PageSizes[j], true
		}
	}
	return model.DefaultPageSize, current != model.DefaultPageSize
}

func (m *BrowserModel) openInput(mode inputMode, field int, value string) {
	m.inputMode = mode
	m.inputField = field
	switch mode {
	case inputUpload:
		m.input.Placeholder = "Path to a Terraform log file..."
		m.input.CharLimit = 1024
	case inputFilter:
		f := m.fields[field]
		m.input.Placeholder = f.label
		m.input.CharLimit = f.inputLimit()
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *BrowserModel) closeInput() {
	m.inputMode = inputNone
	m.input.Blur()
	m.input.SetValue("")
}
