package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:8000" {
		t.Fatalf("APIAddr = %q", cfg.APIAddr)
	}
	if want := filepath.Join(home, ".local", "share", "tflog", "tflog.duckdb"); cfg.DBPath != want {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.RetentionHours != defaultRetentionHours {
		t.Fatalf("RetentionHours = %d", cfg.RetentionHours)
	}
	if cfg.QueryTimeout != defaultQueryTimeout {
		t.Fatalf("QueryTimeout = %s", cfg.QueryTimeout)
	}
	if cfg.ConfigPath != "" {
		t.Fatalf("ConfigPath = %q, want empty without a file", cfg.ConfigPath)
	}
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, "api-port: 9100\ndb-path: ~/data/logs.duckdb\nquery-timeout: 5s\nretention-hours: 0\n")
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "127.0.0.1:9100" {
		t.Fatalf("APIAddr = %q", cfg.APIAddr)
	}
	if want := filepath.Join(home, "data", "logs.duckdb"); cfg.DBPath != want {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if cfg.QueryTimeout != 5*time.Second {
		t.Fatalf("QueryTimeout = %s", cfg.QueryTimeout)
	}
	if cfg.RetentionHours != 0 {
		t.Fatalf("RetentionHours = %d", cfg.RetentionHours)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("ConfigPath = %q", cfg.ConfigPath)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TFLOG_API_ADDR", "0.0.0.0:7000")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIAddr != "0.0.0.0:7000" {
		t.Fatalf("APIAddr = %q", cfg.APIAddr)
	}
}

func TestLoadConfigInvalidPort(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := loadConfig(writeConfig(t, "api-port: 70000\n")); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestShortenPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got := shortenPath(filepath.Join(home, "x", "y")); got != "~/x/y" {
		t.Fatalf("shortenPath = %q", got)
	}
	if got := shortenPath("/var/lib/tflog"); got != "/var/lib/tflog" {
		t.Fatalf("shortenPath = %q", got)
	}
}
