package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/history"
	"github.com/tinytelemetry/tflog/internal/logapi"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/session"
	"github.com/tinytelemetry/tflog/internal/slot"
	"github.com/tinytelemetry/tflog/internal/tui"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var serverURL string
	var stateDir string
	var uploadPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/tflog/config.yml)")
	flag.StringVar(&serverURL, "server", "", "override the tflog service URL")
	flag.StringVar(&stateDir, "state-dir", "", "override the directory holding history and session state")
	flag.StringVar(&uploadPath, "upload", "", "upload this log file after startup")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("tflog CLI - Terraform Log Browser\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if serverURL != "" {
		cfg.ServerURL = strings.TrimRight(serverURL, "/")
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if uploadPath == "" && flag.NArg() > 0 {
		uploadPath = flag.Arg(0)
	}

	if err := runTUI(cfg, uploadPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cfg cliConfig, uploadPath string) error {
	cleanupLogger := configureLogger(cfg.LogFile)
	defer cleanupLogger()

	if err := tui.InitializeSkin(cfg.Skin, cfg.SkinDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load skin '%s': %v (using default)\n", cfg.Skin, err)
	}

	slots, err := slot.OpenFileStore(filepath.Join(cfg.StateDir, "slots"))
	if err != nil {
		return fmt.Errorf("cannot open state dir: %w", err)
	}

	historySlot, err := slot.Open[[]model.HistoryItem](slots, model.SlotHistory)
	if err != nil {
		return err
	}
	sessionSlot, err := slot.Open[string](slots, model.SlotSessionID)
	if err != nil {
		return err
	}
	currentSlot, err := slot.Open[string](slots, model.SlotCurrentFileID)
	if err != nil {
		return err
	}
	themeSlot, err := slot.Open[bool](slots, model.SlotDarkTheme)
	if err != nil {
		return err
	}

	client := logapi.New(cfg.ServerURL, cfg.RequestTimeout)
	log.Printf("tflog-tui: using service at %s", client.BaseURL())

	relay := &tui.Relay{}
	defer relay.Close()
	ctrl := viewport.New(viewport.Options{
		Backend:     client,
		Sessions:    session.NewManager(sessionSlot, client),
		History:     history.New(historySlot),
		CurrentFile: currentSlot,
		Notifier:    relay,
	})
	defer ctrl.Close()
	ctrl.Subscribe(relay.Publish)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	browser := tui.NewBrowserModel(ctx, tui.Options{
		Engine: ctrl,
		Theme:  themeSlot,
		Upload: uploadPath,
	})
	app := tui.NewApp(tui.NewBrowserPage(browser))

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	relay.Attach(p.Send)
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// configureLogger sends log output to path since the TUI owns the terminal.
func configureLogger(path string) func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if path == "" {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}
