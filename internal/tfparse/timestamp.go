package tfparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NoTimestamp marks an entry whose time could not be determined.
const NoTimestamp = "--:--:--"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// formatTimestamp renders an ISO-8601 value as HH:MM:SS.mmm in its own offset.
func formatTimestamp(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05.000"), true
		}
	}
	return "", false
}

var (
	rawDateTime  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ](\d{2}:\d{2}:\d{2})`)
	rawTimeOfDay = regexp.MustCompile(`\d{2}:\d{2}:\d{2}`)
)

// timestampFromRaw finds a time of day in free text, without fractions.
func timestampFromRaw(line string) string {
	if m := rawDateTime.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := rawTimeOfDay.FindString(line); m != "" {
		return m
	}
	return NoTimestamp
}

// TimestampMillis converts "H:M:S[.ms]" to milliseconds since midnight.
// ok is false for values with fewer than three fields or non-numeric parts.
func TimestampMillis(s string) (ms int64, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	sec := strings.Split(parts[2], ".")
	secs, err := strconv.Atoi(strings.TrimSpace(sec[0]))
	if err != nil {
		return 0, false
	}
	var millis int
	if len(sec) > 1 {
		if millis, err = strconv.Atoi(strings.TrimSpace(sec[1])); err != nil {
			return 0, false
		}
	}
	return int64(h)*3_600_000 + int64(m)*60_000 + int64(secs)*1000 + int64(millis), true
}
