package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	deletedNotice = "The previously selected log is no longer available on the server. Upload it again or pick another file."
	idleNotice    = "Upload a log file (u) or pick one from history."
	emptyNotice   = "No entries match the current filters."
	allReadNotice = "Every entry on this page is read. Press H to show them."
)

// View renders the browser.
func (m *BrowserModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}

	header := m.renderHeader()
	status := m.renderStatusLine()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(status), 6)

	historyWidth := min(max(m.width/4, 24), 40)
	mainWidth := m.width - historyWidth

	history := m.renderHistory(historyWidth, bodyHeight)
	filters := m.renderFilters(mainWidth)
	logsHeight := max(bodyHeight-lipgloss.Height(filters), 4)
	logs := m.renderLogs(mainWidth, logsHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		history,
		lipgloss.JoinVertical(lipgloss.Left, filters, logs),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, status)
}

func (m *BrowserModel) renderHeader() string {
	brand := lipgloss.NewStyle().Foreground(ColorGreen).Bold(true).Render("tflog")
	var parts []string
	parts = append(parts, brand)
	if m.snap.CurrentFileID != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(ColorForeground).Render(m.currentName()))
	}
	if m.snap.SessionID != "" {
		parts = append(parts, helpStyle.Render("session "+truncate(m.snap.SessionID, 12)))
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Background(ColorNavy).
		Padding(0, 1).
		Render(strings.Join(parts, "  "))
}

func (m *BrowserModel) sectionFrame(s Section, width, height int) lipgloss.Style {
	style := sectionStyle
	if m.activeSection == s {
		style = activeSectionStyle
	}
	// Borders take two cells in each direction.
	style = style.Width(max(width-2, 1))
	if height > 0 {
		style = style.Height(max(height-2, 1))
	}
	return style
}

func (m *BrowserModel) renderHistory(width, height int) string {
	inner := max(width-4, 8)
	lines := []string{chartTitleStyle.Render(fmt.Sprintf("History (%d)", len(m.snap.History)))}

	if len(m.snap.History) == 0 {
		lines = append(lines, helpStyle.Render("No uploads yet"))
	}

	// Two lines per item; keep the cursor on screen.
	perPage := max((height-3)/2, 1)
	start := 0
	if m.historyCursor >= perPage {
		start = m.historyCursor - perPage + 1
	}
	for i := start; i < len(m.snap.History) && i < start+perPage; i++ {
		lines = append(lines, m.renderHistoryItem(i, m.snap.History[i], inner)...)
	}
	return m.sectionFrame(SectionHistory, width, height).Render(strings.Join(lines, "\n"))
}

func (m *BrowserModel) renderHistoryItem(i int, h model.HistoryItem, width int) []string {
	marker := "  "
	if h.FileID == m.snap.Selected {
		marker = "● "
	}
	name := truncate(marker+h.Name, width)
	meta := helpStyle.Render(truncate(fmt.Sprintf("  %s · %d", h.Timestamp, h.Count), width))
	if n := h.Statistics.ErrorsCount; n > 0 {
		meta += lipgloss.NewStyle().Foreground(ColorRed).Render(fmt.Sprintf(" · %d err", n))
	}

	nameStyle := lipgloss.NewStyle().Foreground(ColorForeground)
	if i == m.historyCursor && m.activeSection == SectionHistory {
		nameStyle = selectedStyle
	}
	return []string{nameStyle.Render(name), meta}
}

func (m *BrowserModel) renderFilters(width int) string {
	var cells []string
	for i, f := range m.fields {
		value := f.value(m.snap.Filters)
		if m.inputMode == inputFilter && m.inputField == i {
			cells = append(cells, f.label+": "+m.input.View())
			continue
		}
		if value == "" {
			value = "·"
			if f.isChoice() {
				value = "all"
			}
		}
		cell := fmt.Sprintf("%s: %s", f.label, value)
		if i == m.fieldCursor && m.activeSection == SectionFilters {
			cell = selectedStyle.Render(cell)
		} else if f.value(m.snap.Filters) != "" {
			cell = lipgloss.NewStyle().Foreground(ColorBlue).Render(cell)
		}
		cells = append(cells, cell)
	}

	inner := max(width-4, 10)
	var rows []string
	var row string
	for _, c := range cells {
		switch {
		case row == "":
			row = c
		case lipgloss.Width(row)+3+lipgloss.Width(c) > inner:
			rows = append(rows, row)
			row = c
		default:
			row += "   " + c
		}
	}
	if row != "" {
		rows = append(rows, row)
	}
	return m.sectionFrame(SectionFilters, width, 0).Render(strings.Join(rows, "\n"))
}

func (m *BrowserModel) renderLogs(width, height int) string {
	inner := max(width-4, 10)
	frame := m.sectionFrame(SectionLogs, width, height)

	logs := m.visibleLogs()
	read, unread := m.reads.Counts(m.snap.Logs)
	pg := m.snap.Pagination
	title := chartTitleStyle.Render(fmt.Sprintf("Logs  page %d/%d · %d per page · %d total", pg.Page, max(pg.TotalPages, 1), pg.PageSize, pg.TotalCount))
	counts := helpStyle.Render(fmt.Sprintf("read %d · unread %d", read, unread))
	if m.hideRead {
		counts += helpStyle.Render(" · hiding read")
	}
	lines := []string{title + "  " + counts}

	if notice := m.emptyNotice(len(logs)); notice != "" {
		lines = append(lines, "", helpStyle.Render(notice))
		return frame.Render(strings.Join(lines, "\n"))
	}

	visible := max(height-3, 1)
	start := 0
	if m.logCursor >= visible {
		start = m.logCursor - visible + 1
	}
	for i := start; i < len(logs) && i < start+visible; i++ {
		lines = append(lines, m.renderLogLine(logs[i], i == m.logCursor && m.activeSection == SectionLogs, inner))
	}
	return frame.Render(strings.Join(lines, "\n"))
}

func (m *BrowserModel) emptyNotice(visible int) string {
	switch {
	case m.snap.CurrentFileID == "" && m.snap.WasLogDeleted:
		return deletedNotice
	case m.snap.CurrentFileID == "":
		return idleNotice
	case m.snap.State == viewport.Loading && len(m.snap.Logs) == 0:
		return "Loading..."
	case len(m.snap.Logs) == 0:
		return emptyNotice
	case visible == 0:
		return allReadNotice
	}
	return ""
}

func (m *BrowserModel) renderLogLine(e model.LogEntry, selected bool, width int) string {
	mark := "○"
	if m.reads.IsRead(e.ID) {
		mark = "●"
	}
	body := fmt.Sprintf("%s %5d %-12s %-5s %-8s %s", mark, e.LineNumber, e.Timestamp, strings.ToUpper(e.Level), e.Operation, e.Message)
	if e.HasJSONBodies {
		body += " {json}"
	}
	body = truncate(body, width)

	switch {
	case selected:
		return selectedStyle.Render(body)
	case m.reads.IsRead(e.ID):
		return readStyle.Render(body)
	default:
		return lipgloss.NewStyle().Foreground(levelColor(e.Level)).Render(body)
	}
}

// renderStatusLine renders the status/help line at the bottom of the screen.
func (m *BrowserModel) renderStatusLine() string {
	base := lipgloss.NewStyle().Background(ColorNavy).Foreground(ColorForeground)

	left := m.activeSection.String()
	if m.snap.State == viewport.Loading {
		left = spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))] + " " + left
	}

	right := "tab: section | u: upload | ?: help | q: quit"
	if m.width < 80 {
		right = "?: help"
	}
	room := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-6, 0)

	var middle string
	switch {
	case m.inputMode == inputUpload:
		middle = "Upload: " + m.input.View()
	case m.lastError != "":
		middle = base.Foreground(ColorRed).Render(truncate(m.lastError, room))
	case m.status != "":
		middle = truncate(m.status, room)
	}

	space := max(m.width-lipgloss.Width(left)-lipgloss.Width(middle)-lipgloss.Width(right)-4, 1)
	line := " " + left + "  " + middle + strings.Repeat(" ", space) + right + " "
	return base.Width(m.width).Render(line)
}

// truncate shortens plain text to width cells, marking the cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
