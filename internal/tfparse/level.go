package tfparse

import "strings"

// Levels are the normalized severity names an entry can carry.
const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelDebug = "debug"
	LevelTrace = "trace"
)

// NormalizeLevel maps an explicit level field to a normalized level.
// ok is false when the value is not a recognizable level.
func NormalizeLevel(level string) (normalized string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error", "err", "erro":
		return LevelError, true
	case "fatal", "panic", "critical", "crit":
		return LevelError, true
	case "warn", "warning", "wrn":
		return LevelWarn, true
	case "info", "information", "inf":
		return LevelInfo, true
	case "debug", "debu", "dbg":
		return LevelDebug, true
	case "trace", "trac", "trc":
		return LevelTrace, true
	}
	return "", false
}

// levelFromText guesses a level from message text. Rules are checked in order.
func levelFromText(lower string, rules []rule) string {
	if v := firstMatch(lower, rules); v != "" {
		return v
	}
	return LevelInfo
}
