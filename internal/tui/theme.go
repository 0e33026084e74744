package tui

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors one theme variant uses.
type Palette struct {
	Background lipgloss.Color `yaml:"background"`
	Foreground lipgloss.Color `yaml:"foreground"`
	Accent     lipgloss.Color `yaml:"accent"`
	Muted      lipgloss.Color `yaml:"muted"`
	Success    lipgloss.Color `yaml:"success"`
	Warning    lipgloss.Color `yaml:"warning"`
	Error      lipgloss.Color `yaml:"error"`
	Bar        lipgloss.Color `yaml:"bar"`
	Selection  lipgloss.Color `yaml:"selection"`
}

var defaultDark = Palette{
	Background: "#1B2B34",
	Foreground: "#D8DEE9",
	Accent:     "#6699CC",
	Muted:      "#65737E",
	Success:    "#99C794",
	Warning:    "#F99157",
	Error:      "#EC5f67",
	Bar:        "#0F1D2B",
	Selection:  "#343D46",
}

var defaultLight = Palette{
	Background: "#FAFAFA",
	Foreground: "#2E3440",
	Accent:     "#005CC5",
	Muted:      "#6A737D",
	Success:    "#22863A",
	Warning:    "#B08800",
	Error:      "#CB2431",
	Bar:        "#E1E4E8",
	Selection:  "#D1E3F8",
}

// merge fills unset colors of p from def.
func (p Palette) merge(def Palette) Palette {
	pick := func(v, d lipgloss.Color) lipgloss.Color {
		if v == "" {
			return d
		}
		return v
	}
	return Palette{
		Background: pick(p.Background, def.Background),
		Foreground: pick(p.Foreground, def.Foreground),
		Accent:     pick(p.Accent, def.Accent),
		Muted:      pick(p.Muted, def.Muted),
		Success:    pick(p.Success, def.Success),
		Warning:    pick(p.Warning, def.Warning),
		Error:      pick(p.Error, def.Error),
		Bar:        pick(p.Bar, def.Bar),
		Selection:  pick(p.Selection, def.Selection),
	}
}

// Active colors. They change with the skin and the dark/light toggle.
var (
	ColorBackground lipgloss.Color
	ColorForeground lipgloss.Color
	ColorBlue       lipgloss.Color
	ColorGray       lipgloss.Color
	ColorGreen      lipgloss.Color
	ColorOrange     lipgloss.Color
	ColorRed        lipgloss.Color
	ColorNavy       lipgloss.Color
	ColorSelection  lipgloss.Color
)

var (
	sectionStyle       lipgloss.Style
	activeSectionStyle lipgloss.Style
	chartTitleStyle    lipgloss.Style
	helpStyle          lipgloss.Style
	selectedStyle      lipgloss.Style
	readStyle          lipgloss.Style
)

var (
	currentSkin = builtinSkin()
	darkTheme   = true
)

func init() {
	applyPalette(currentSkin.palette(darkTheme))
}

// SetDarkTheme switches between the dark and light variant of the skin.
func SetDarkTheme(dark bool) {
	darkTheme = dark
	applyPalette(currentSkin.palette(dark))
}

// IsDarkTheme reports whether the dark variant is active.
func IsDarkTheme() bool { return darkTheme }

func applyPalette(p Palette) {
	ColorBackground = p.Background
	ColorForeground = p.Foreground
	ColorBlue = p.Accent
	ColorGray = p.Muted
	ColorGreen = p.Success
	ColorOrange = p.Warning
	ColorRed = p.Error
	ColorNavy = p.Bar
	ColorSelection = p.Selection

	sectionStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorGray).
		Padding(0, 1)
	activeSectionStyle = sectionStyle.BorderForeground(ColorBlue)
	chartTitleStyle = lipgloss.NewStyle().Foreground(ColorBlue).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	selectedStyle = lipgloss.NewStyle().Background(ColorSelection).Foreground(ColorForeground)
	readStyle = lipgloss.NewStyle().Foreground(ColorGray)
}

// levelColor returns the color for a normalized level name.
func levelColor(level string) lipgloss.Color {
	switch level {
	case "error":
		return ColorRed
	case "warn":
		return ColorOrange
	case "info":
		return ColorBlue
	case "debug", "trace":
		return ColorGray
	default:
		return ColorForeground
	}
}
