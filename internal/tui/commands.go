package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

func (m *BrowserModel) restoreCmd() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		err := engine.RestoreOnStartup(ctx)
		if errors.Is(err, viewport.ErrSelectionStale) {
			// Rendered as the deleted-file empty state.
			err = nil
		}
		return opDoneMsg{op: "restore", err: err}
	}
}

func (m *BrowserModel) selectCmd(fileID string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "select", err: engine.SelectFile(ctx, fileID)}
	}
}

func (m *BrowserModel) pageCmd(page, pageSize int) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "page", err: engine.ChangePage(ctx, page, pageSize)}
	}
}

func (m *BrowserModel) nextPageCmd() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "page", err: engine.NextPage(ctx)}
	}
}

func (m *BrowserModel) prevPageCmd() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "page", err: engine.PrevPage(ctx)}
	}
}

func (m *BrowserModel) deleteCmd() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "delete", status: "File removed", err: engine.DeleteCurrent(ctx)}
	}
}

func (m *BrowserModel) clearCmd() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "clear", status: "History cleared", err: engine.ClearHistory(ctx)}
	}
}

func (m *BrowserModel) uploadCmd(path string) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		path = expandHome(strings.TrimSpace(path))
		f, err := os.Open(path)
		if err != nil {
			return NoticeMsg{Err: fmt.Errorf("open %s: %w", path, err)}
		}
		defer f.Close()

		res, err := engine.Upload(ctx, filepath.Base(path), f)
		if err != nil {
			// The engine has already reported it.
			return opDoneMsg{op: "upload"}
		}
		return opDoneMsg{op: "upload", status: fmt.Sprintf("Uploaded %s (%d entries)", res.Filename, res.Count)}
	}
}

func (m *BrowserModel) jsonBodiesCmd(entry model.LogEntry) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		bodies, err := engine.JSONBodies(ctx, entry.ID)
		if err != nil {
			return opDoneMsg{op: "json"}
		}
		return jsonBodiesMsg{entry: entry, bodies: bodies}
	}
}

func (m *BrowserModel) statisticsCmd() tea.Cmd {
	engine, ctx, name := m.engine, m.ctx, m.currentName()
	return func() tea.Msg {
		stats, err := engine.Statistics(ctx)
		if err != nil {
			return opDoneMsg{op: "statistics", err: err}
		}
		return statisticsMsg{name: name, stats: stats}
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
