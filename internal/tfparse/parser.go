// Package tfparse turns Terraform log files into browsable entries.
//
// Each non-blank line is either a JSON object (TF_LOG_PROVIDER / TF_LOG=json
// output) or free text. Both are classified by level, operation and
// component using ordered keyword rules.
package tfparse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tinytelemetry/tflog/internal/model"
)

// MaxLineSize bounds a single log line.
const MaxLineSize = 16 * 1024 * 1024

// JSONBodyFields are the fields holding HTTP payloads captured by providers.
var JSONBodyFields = []string{"tf_http_req_body", "tf_http_res_body"}

// Entry is a parsed line plus its decoded HTTP payloads, keyed by field.
type Entry struct {
	model.LogEntry
	JSONBodies map[string]any
}

// Result is a parsed file.
type Result struct {
	Entries    []Entry
	Statistics model.Statistics
}

// Count returns the number of parsed entries.
func (r *Result) Count() int { return len(r.Entries) }

// Parse reads every line of r.
func Parse(r io.Reader) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineSize)

	res := &Result{}
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		res.Entries = append(res.Entries, ParseLine(line, lineNum))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tfparse: read line %d: %w", lineNum+1, err)
	}
	res.Statistics = Statistics(res.Entries)
	return res, nil
}

// ParseLine parses one trimmed, non-empty line.
func ParseLine(line string, lineNum int) Entry {
	if data, ok := decodeObject(line); ok {
		return parseJSON(data, lineNum)
	}
	return parseRaw(line, lineNum)
}

func decodeObject(line string) (map[string]any, bool) {
	if !strings.HasPrefix(line, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(line))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil || data == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return data, true
}

func parseJSON(data map[string]any, lineNum int) Entry {
	bodies := decodeBodies(data)
	msg := message(data)
	lower := strings.ToLower(msg)

	e := Entry{
		LogEntry: model.LogEntry{
			ID:           fmt.Sprintf("log_%d", lineNum),
			Timestamp:    timestamp(data),
			Level:        level(data, lower),
			Operation:    operation(data, lower),
			Component:    orDefault(firstMatch(lower, componentRules), ComponentUnknown),
			MessageType:  orDefault(firstMatch(lower, messageTypeRules), "info"),
			Message:      msg,
			LineNumber:   lineNum,
			ReqID:        firstField(data, "@request_id", "tf_req_id", "req_id"),
			ResourceType: firstField(data, "@resource_type", "tf_resource_type", "resource_type"),
			RPC:          firstField(data, "@rpc", "tf_rpc", "rpc"),
		},
	}
	if raw, err := json.Marshal(data); err == nil {
		e.RawData = raw
	}
	if len(bodies) > 0 {
		e.JSONBodies = bodies
		e.HasJSONBodies = true
	}
	return e
}

func parseRaw(line string, lineNum int) Entry {
	lower := strings.ToLower(line)
	raw, _ := json.Marshal(map[string]string{"raw_line": line})
	return Entry{
		LogEntry: model.LogEntry{
			ID:          fmt.Sprintf("raw_%d", lineNum),
			Timestamp:   timestampFromRaw(line),
			Level:       levelFromText(lower, rawLevelRules),
			Operation:   orDefault(firstMatch(lower, rawOperationRules), OperationGeneral),
			Component:   orDefault(firstMatch(lower, rawComponentRules), ComponentUnknown),
			MessageType: MessageTypeRaw,
			Message:     line,
			LineNumber:  lineNum,
			ReqID:       reqIDFromRaw(line),
			RawData:     raw,
		},
	}
}

// decodeBodies replaces string HTTP payloads in data with their decoded JSON
// and returns the non-empty ones.
func decodeBodies(data map[string]any) map[string]any {
	var out map[string]any
	for _, field := range JSONBodyFields {
		v, ok := data[field]
		if !ok || !truthy(v) {
			continue
		}
		if s, isStr := v.(string); isStr {
			if parsed, ok := decodeJSONString(s); ok {
				v = parsed
				data[field] = parsed
			}
		}
		if out == nil {
			out = make(map[string]any, len(JSONBodyFields))
		}
		out[field] = v
	}
	return out
}

// decodeJSONString parses s as JSON, retrying once after unescaping.
func decodeJSONString(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if v, ok := unmarshalAny([]byte(s)); ok {
		return v, true
	}
	unq, err := strconv.Unquote(`"` + s + `"`)
	if err != nil {
		return nil, false
	}
	return unmarshalAny([]byte(unq))
}

func unmarshalAny(b []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return nil, false
	}
	return v, true
}

func message(data map[string]any) string {
	for _, f := range []string{"@message", "message", "msg", "log", "text"} {
		if v, ok := data[f]; ok && truthy(v) {
			return stringify(v)
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(b)
}

func level(data map[string]any, lowerMsg string) string {
	for _, f := range []string{"@level", "level", "log_level", "severity"} {
		if v, ok := data[f]; ok && truthy(v) {
			if lvl, ok := NormalizeLevel(stringify(v)); ok {
				return lvl
			}
		}
	}
	return levelFromText(lowerMsg, levelRules)
}

func operation(data map[string]any, lowerMsg string) string {
	if op := firstMatch(lowerMsg, operationRules); op != "" {
		return op
	}
	if op := firstMatch(strings.ToLower(stringify(data["@module"])), moduleOperationRules); op != "" {
		return op
	}
	if rpc, ok := data["tf_rpc"].(string); ok {
		if op := firstMatch(strings.ToLower(rpc), rpcOperationRules); op != "" {
			return op
		}
	}
	return OperationGeneral
}

func timestamp(data map[string]any) string {
	for _, f := range []string{"@timestamp", "timestamp", "time", "@time"} {
		s, ok := data[f].(string)
		if !ok || s == "" {
			continue
		}
		if ts, ok := formatTimestamp(s); ok {
			return ts
		}
	}
	return NoTimestamp
}

var reqIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)req[_\-]id[=:]?\s*([\w\-]+)`),
	regexp.MustCompile(`(?i)request[_\-]id[=:]?\s*([\w\-]+)`),
	regexp.MustCompile(`(?i)\[req[_\-]id=([\w\-]+)\]`),
}

func reqIDFromRaw(line string) string {
	for _, re := range reqIDPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

func firstField(data map[string]any, fields ...string) string {
	for _, f := range fields {
		if v, ok := data[f]; ok && truthy(v) {
			return stringify(v)
		}
	}
	return ""
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err != nil || f != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
