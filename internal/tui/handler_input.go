package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/filter"
)

// filterInputHandler edits one free-text or time-part filter. Every
// keystroke is forwarded; the engine debounces the fetch.
type filterInputHandler struct{}

func (filterInputHandler) HandleKey(m *BrowserModel, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "tab":
		m.closeInput()
		return true, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return true, cmd
	}

	f := m.fields[m.inputField]
	value := m.input.Value()
	if f.isTime() {
		value = filter.SanitizePart(f.part, value)
		if value != m.input.Value() {
			m.input.SetValue(value)
			m.input.CursorEnd()
		}
	}
	m.setField(f, value)
	return true, cmd
}

// uploadInputHandler collects a file path and submits it on enter.
type uploadInputHandler struct{}

func (uploadInputHandler) HandleKey(m *BrowserModel, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeInput()
		return true, nil
	case "enter":
		path := m.input.Value()
		m.closeInput()
		if path == "" {
			return true, nil
		}
		m.status = "Uploading..."
		m.lastError = ""
		return true, m.uploadCmd(path)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return true, cmd
}
