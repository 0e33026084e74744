package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func TestLoadSkinMergesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ocean.yml")
	data := "dark:\n  accent: \"#112233\"\nlight:\n  error: \"#AA0000\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSkin(path)
	if err != nil {
		t.Fatalf("LoadSkin: %v", err)
	}
	if s.Name != "ocean" {
		t.Errorf("Name = %q, want ocean", s.Name)
	}
	if s.Dark.Accent != lipgloss.Color("#112233") {
		t.Errorf("dark accent = %q", s.Dark.Accent)
	}
	if s.Dark.Error != defaultDark.Error {
		t.Errorf("dark error = %q, want default", s.Dark.Error)
	}
	if s.Light.Error != lipgloss.Color("#AA0000") || s.Light.Accent != defaultLight.Accent {
		t.Errorf("light = %+v", s.Light)
	}
}

func TestInitializeSkin(t *testing.T) {
	defer InitializeSkin("", "")
	defer SetDarkTheme(true)

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "skins"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := "name: night\ndark:\n  accent: \"#010203\"\n"
	if err := os.WriteFile(filepath.Join(dir, "skins", "night.yaml"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	SetDarkTheme(true)
	if err := InitializeSkin("night", dir); err != nil {
		t.Fatalf("InitializeSkin: %v", err)
	}
	if SkinName() != "night" || ColorBlue != lipgloss.Color("#010203") {
		t.Errorf("skin = %q accent = %q", SkinName(), ColorBlue)
	}

	SetDarkTheme(false)
	if ColorBlue != defaultLight.Accent {
		t.Errorf("light accent = %q, want default", ColorBlue)
	}

	if err := InitializeSkin("missing", dir); err == nil {
		t.Error("missing skin loaded without error")
	}
	if SkinName() != "night" {
		t.Errorf("skin changed to %q after a failed load", SkinName())
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 4, "hel…"},
		{"hello", 1, "…"},
		{"hello", 0, ""},
	}
	for _, c := range cases {
		if got := truncate(c.in, c.width); got != c.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", c.in, c.width, got, c.want)
		}
	}
}

func TestFieldNextWraps(t *testing.T) {
	f := filterField{options: []string{"a", "b"}}
	if f.next("") != "a" || f.next("a") != "b" || f.next("b") != "" {
		t.Errorf("next sequence = %q %q %q", f.next(""), f.next("a"), f.next("b"))
	}
}

func TestAppTooSmall(t *testing.T) {
	m, _ := newTestBrowser(t)
	app := NewApp(NewBrowserPage(m))

	app.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if got := app.View(); !strings.Contains(got, "Terminal too small") {
		t.Fatalf("view = %q, want the size warning", got)
	}

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if got := app.View(); strings.Contains(got, "Terminal too small") {
		t.Fatal("size warning shown on a large terminal")
	}
}
