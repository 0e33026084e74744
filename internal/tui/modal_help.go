package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// HelpModal lists the key bindings.
type HelpModal struct {
	viewport viewport.Model
	keys     KeyMap
}

// NewHelpModal creates the help overlay.
func NewHelpModal(keys KeyMap) *HelpModal {
	return &HelpModal{viewport: viewport.New(80, 20), keys: keys}
}

func (h *HelpModal) ID() string { return "help" }

func (h *HelpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "?", "q":
			return true, nil
		}
		scrollKeys(&h.viewport, msg)
	case tea.MouseMsg:
		scrollWheel(&h.viewport, msg)
	}
	return false, nil
}

func (h *HelpModal) View(width, height int) string {
	status := []string{"up/down/Wheel: Scroll", "?/ESC: Close"}
	return renderModalFrame(&h.viewport, "Help", h.content(), status, ColorBlue, width, height)
}

func (h *HelpModal) content() string {
	k := h.keys
	groups := []struct {
		title    string
		bindings []key.Binding
	}{
		{"GLOBAL", []key.Binding{k.NextSection, k.PrevSection, k.Upload, k.Statistics, k.Reset, k.Delete, k.ClearAll, k.ToggleTheme, k.Help, k.Quit}},
		{"HISTORY", []key.Binding{k.Up, k.Down, k.Enter}},
		{"FILTERS", []key.Binding{k.Left, k.Right, k.Enter, k.Clear}},
		{"LOGS", []key.Binding{k.Up, k.Down, k.Enter, k.NextPage, k.PrevPage, k.FirstPage, k.LastPage, k.PageSizeUp, k.PageSizeDown, k.ToggleRead, k.MarkAll, k.UnmarkAll, k.HideRead}},
	}

	var b strings.Builder
	b.WriteString("Terraform Log Browser\n\n")
	for _, g := range groups {
		b.WriteString(g.title + ":\n")
		for _, kb := range g.bindings {
			hk := kb.Help()
			fmt.Fprintf(&b, "  %-14s - %s\n", hk.Key, hk.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString(`FILTERS:
  Level, operation and component cycle through their values with enter.
  Req ID and search take free text. Time bounds are edited one part at a
  time (hours, minutes, seconds, milliseconds); only digits are kept.
  Edits are applied shortly after you stop typing.
`)
	return b.String()
}
