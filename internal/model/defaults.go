package model

import "time"

// Shared defaults used by both the service and the TUI client.
const (
	DefaultPageSize       = 50
	DefaultRequestTimeout = 30 * time.Second
	DefaultSkin           = "default"
	MaxHistoryItems       = 1000
	FilterDebounce        = 400 * time.Millisecond
)

// PageSizes lists the page sizes a client may request.
var PageSizes = []int{20, 50, 100, 200}

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Durable slot names. Each value survives restarts under its own name.
const (
	SlotHistory       = "tf_history"
	SlotDarkTheme     = "tf_is_dark_theme"
	SlotSessionID     = "tf_session_id"
	SlotCurrentFileID = "tf_current_file_id"
)
