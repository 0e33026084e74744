package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/tflog/internal/logapi"
	"github.com/tinytelemetry/tflog/internal/model"
)

const (
	defaultServerURL      = logapi.DefaultServerURL
	defaultRequestTimeout = model.DefaultRequestTimeout
	defaultSkin           = model.DefaultSkin
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	ServerURL      string        `mapstructure:"server-url"`
	StateDir       string        `mapstructure:"state-dir"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	Skin           string        `mapstructure:"skin"`
	SkinDir        string        `mapstructure:"skin-dir"`
	LogFile        string        `mapstructure:"log-file"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	stateDir := filepath.Join(home, ".local", "state", "tflog")

	v := viper.New()
	v.SetEnvPrefix("TFLOG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("server-url", defaultServerURL)
	v.SetDefault("state-dir", stateDir)
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("skin", defaultSkin)
	v.SetDefault("skin-dir", filepath.Join(home, ".config", "tflog"))
	v.SetDefault("log-file", filepath.Join(stateDir, "tflog-tui.log"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "tflog", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	cfg.StateDir = expandHome(cfg.StateDir, home)
	cfg.SkinDir = expandHome(cfg.SkinDir, home)
	cfg.LogFile = expandHome(cfg.LogFile, home)
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	return cfg, nil
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
