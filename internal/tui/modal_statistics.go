package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/tflog/internal/model"
)

var levelOrder = []string{"error", "warn", "info", "debug", "trace"}

// StatsModal shows the per-level chart and the breakdowns of one file.
type StatsModal struct {
	viewport viewport.Model
	name     string
	stats    model.Statistics
}

// NewStatsModal creates the statistics overlay for the named file.
func NewStatsModal(name string, stats model.Statistics) *StatsModal {
	return &StatsModal{viewport: viewport.New(80, 20), name: name, stats: stats}
}

func (s *StatsModal) ID() string { return "statistics" }

func (s *StatsModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "i", "q":
			return true, nil
		}
		scrollKeys(&s.viewport, msg)
	case tea.MouseMsg:
		scrollWheel(&s.viewport, msg)
	}
	return false, nil
}

func (s *StatsModal) View(width, height int) string {
	status := []string{"up/down/Wheel: Scroll", "i/ESC: Close"}
	chartWidth := max(width-16, 20)
	return renderModalFrame(&s.viewport, "Statistics: "+s.name, s.content(chartWidth), status, ColorBlue, width, height)
}

func (s *StatsModal) content(width int) string {
	st := s.stats
	var b strings.Builder
	fmt.Fprintf(&b, "Total entries: %d    Errors: %d\n\n", st.TotalEntries, st.ErrorsCount)
	b.WriteString(chartTitleStyle.Render("By level"))
	b.WriteString("\n")
	b.WriteString(renderLevelChart(st.ByLevel, min(width, 60), 8))
	b.WriteString("\n\n")
	b.WriteString(renderBreakdown("By operation", st.ByOperation))
	b.WriteString("\n")
	b.WriteString(renderBreakdown("By component", st.ByComponent))
	return b.String()
}

// renderLevelChart draws one bar per level, in severity order.
func renderLevelChart(byLevel map[string]int, width, height int) string {
	if len(byLevel) == 0 {
		return helpStyle.Render("No data available")
	}

	bc := barchart.New(width, height,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(max(width/len(levelOrder)-2, 1)),
	)
	for _, lvl := range levelOrder {
		color := levelColor(lvl)
		bc.Push(barchart.BarData{
			Label: lvl,
			Values: []barchart.BarValue{{
				Name:  lvl,
				Value: float64(byLevel[lvl]),
				Style: lipgloss.NewStyle().Foreground(color).Background(color),
			}},
		})
	}
	bc.Draw()

	var legend []string
	for _, lvl := range levelOrder {
		legend = append(legend, lipgloss.NewStyle().Foreground(levelColor(lvl)).
			Render(fmt.Sprintf("%s: %d", lvl, byLevel[lvl])))
	}
	return bc.View() + "\n" + strings.Join(legend, "  ")
}

// renderBreakdown lists counts by descending value, ties by name.
func renderBreakdown(title string, counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	var b strings.Builder
	b.WriteString(chartTitleStyle.Render(title))
	b.WriteString("\n")
	if len(keys) == 0 {
		b.WriteString(helpStyle.Render("  none"))
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-14s %6d\n", k, counts[k])
	}
	return b.String()
}
