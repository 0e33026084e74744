package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NoticeModal is a blocking message closed with enter or esc.
type NoticeModal struct {
	viewport viewport.Model
	title    string
	message  string
}

// NewNoticeModal reports err to the user.
func NewNoticeModal(err error) *NoticeModal {
	return &NoticeModal{viewport: viewport.New(60, 6), title: "Error", message: err.Error()}
}

func (n *NoticeModal) ID() string { return "notice" }

func (n *NoticeModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter", "esc", "q", " ":
			return true, nil
		}
	}
	return false, nil
}

func (n *NoticeModal) View(width, height int) string {
	inner := renderModalFrame(&n.viewport, n.title, n.message, []string{"Enter/ESC: Close"}, ColorRed, min(width, 80), min(height, 14))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, inner)
}

// ConfirmModal asks a yes/no question and runs onYes when confirmed.
type ConfirmModal struct {
	question string
	onYes    func() tea.Cmd
}

// NewConfirmModal creates a confirmation prompt.
func NewConfirmModal(question string, onYes func() tea.Cmd) *ConfirmModal {
	return &ConfirmModal{question: question, onYes: onYes}
}

func (c *ConfirmModal) ID() string { return "confirm" }

func (c *ConfirmModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return false, nil
	}
	switch k.String() {
	case "y", "Y":
		return true, c.onYes()
	case "n", "N", "esc", "q":
		return true, nil
	}
	return false, nil
}

func (c *ConfirmModal) View(width, height int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorOrange).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center,
			c.question,
			"",
			helpStyle.Render("y: Yes | n/ESC: No"),
		))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
