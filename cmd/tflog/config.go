package main

import (
	"time"

	"github.com/tinytelemetry/tflog/internal/store"
)

const (
	defaultBindHost       = "127.0.0.1"
	defaultAPIPort        = 8000
	defaultQueryTimeout   = store.DefaultQueryTimeout
	defaultRetentionHours = store.DefaultRetentionHours
	defaultMaxUploadMB    = 512
)

// appConfig is internal runtime configuration.
type appConfig struct {
	Host           string        `mapstructure:"host"`
	APIPort        int           `mapstructure:"api-port"`
	APIAddr        string        `mapstructure:"api-addr"`
	DBPath         string        `mapstructure:"db-path"`
	StorageDir     string        `mapstructure:"storage-dir"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	RetentionHours int           `mapstructure:"retention-hours"` // 0 = disabled
	MaxUploadMB    int           `mapstructure:"max-upload-mb"`   // 0 = unlimited
	ConfigPath     string        `mapstructure:"-"`
}
