package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/model"
)

var detailStatus = []string{"up/down/Wheel: Scroll", "PgUp/PgDn: Page", "ESC: Close"}

// DetailModal shows one log entry, or its HTTP bodies, in a scrollable pane.
type DetailModal struct {
	viewport viewport.Model
	title    string
	content  string
}

// NewEntryModal shows every field of entry, with raw data pretty-printed.
func NewEntryModal(entry model.LogEntry) *DetailModal {
	return &DetailModal{
		viewport: viewport.New(80, 20),
		title:    "Log Details",
		content:  formatEntry(entry),
	}
}

// NewJSONBodiesModal shows the decoded request/response bodies of entry.
func NewJSONBodiesModal(entry model.LogEntry, bodies json.RawMessage) *DetailModal {
	return &DetailModal{
		viewport: viewport.New(80, 20),
		title:    fmt.Sprintf("JSON Bodies: %s", entry.ID),
		content:  prettyJSON(bodies),
	}
}

func (d *DetailModal) ID() string { return "detail" }

func (d *DetailModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" || msg.String() == "q" {
			return true, nil
		}
		if scrollKeys(&d.viewport, msg) {
			return false, nil
		}
		var cmd tea.Cmd
		d.viewport, cmd = d.viewport.Update(msg)
		return false, cmd
	case tea.MouseMsg:
		scrollWheel(&d.viewport, msg)
	}
	return false, nil
}

func (d *DetailModal) View(width, height int) string {
	return renderModalFrame(&d.viewport, d.title, d.content, detailStatus, ColorBlue, width, height)
}

func formatEntry(e model.LogEntry) string {
	var b strings.Builder
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "%-14s %s\n", k+":", v)
		}
	}
	row("ID", e.ID)
	row("Line", fmt.Sprint(e.LineNumber))
	row("Timestamp", e.Timestamp)
	row("Level", e.Level)
	row("Operation", e.Operation)
	row("Component", e.Component)
	row("Type", e.MessageType)
	row("Request ID", e.ReqID)
	row("Resource", e.ResourceType)
	row("RPC", e.RPC)
	if e.HasJSONBodies {
		row("HTTP bodies", "yes (enter on the entry to view)")
	}
	b.WriteString("\nMessage:\n")
	b.WriteString(e.Message)
	b.WriteString("\n")
	if len(e.RawData) > 0 {
		b.WriteString("\nRaw data:\n")
		b.WriteString(prettyJSON(e.RawData))
	}
	return b.String()
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "(empty)"
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return string(raw)
	}
	return out.String()
}
