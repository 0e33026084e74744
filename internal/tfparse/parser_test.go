package tfparse

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"ERROR", "error", true}, {"err", "error", true}, {"fatal", "error", true},
		{"warning", "warn", true}, {"WARN", "warn", true},
		{"info", "info", true}, {" Debug ", "debug", true}, {"TRACE", "trace", true},
		{"", "", false}, {"verbose", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeLevel(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("NormalizeLevel(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseJSONLine(t *testing.T) {
	line := `{"@level":"warning","@message":"Applying changes for provider","@timestamp":"2024-03-01T10:20:30.456789+02:00","@module":"terraform.ui","tf_req_id":"abc-123","tf_resource_type":"aws_instance","tf_rpc":"ApplyResourceChange"}`
	e := ParseLine(line, 7)

	if e.ID != "log_7" || e.LineNumber != 7 {
		t.Fatalf("id/line = %q/%d", e.ID, e.LineNumber)
	}
	if e.Level != "warn" {
		t.Errorf("Level = %q, want warn", e.Level)
	}
	if e.Operation != "apply" {
		t.Errorf("Operation = %q, want apply", e.Operation)
	}
	if e.Component != "provider" {
		t.Errorf("Component = %q, want provider", e.Component)
	}
	if e.Timestamp != "10:20:30.456" {
		t.Errorf("Timestamp = %q", e.Timestamp)
	}
	if e.ReqID != "abc-123" || e.ResourceType != "aws_instance" || e.RPC != "ApplyResourceChange" {
		t.Errorf("tf fields = %q %q %q", e.ReqID, e.ResourceType, e.RPC)
	}
	if e.MessageType != "info" {
		t.Errorf("MessageType = %q", e.MessageType)
	}
	if e.HasJSONBodies {
		t.Error("HasJSONBodies without body fields")
	}
}

func TestParseRawLine(t *testing.T) {
	e := ParseLine("2024-03-01T10:20:30.123Z [ERROR] provider: request failed req_id=r-9", 3)
	if e.ID != "raw_3" || e.MessageType != MessageTypeRaw {
		t.Fatalf("id/type = %q/%q", e.ID, e.MessageType)
	}
	if e.Level != "error" || e.Component != "provider" {
		t.Errorf("level/component = %q/%q", e.Level, e.Component)
	}
	if e.Timestamp != "10:20:30" {
		t.Errorf("Timestamp = %q", e.Timestamp)
	}
	if e.ReqID != "r-9" {
		t.Errorf("ReqID = %q", e.ReqID)
	}
	var raw map[string]string
	if err := json.Unmarshal(e.RawData, &raw); err != nil || raw["raw_line"] == "" {
		t.Errorf("RawData = %s, %v", e.RawData, err)
	}
}

func TestNoTimestamp(t *testing.T) {
	if e := ParseLine("plain text", 1); e.Timestamp != NoTimestamp {
		t.Fatalf("raw Timestamp = %q", e.Timestamp)
	}
	if e := ParseLine(`{"@message":"x","@timestamp":"yesterday"}`, 1); e.Timestamp != NoTimestamp {
		t.Fatalf("json Timestamp = %q", e.Timestamp)
	}
}

func TestJSONBodiesDecoded(t *testing.T) {
	line := `{"@message":"HTTP Request Sent","tf_http_req_body":"{\"name\":\"web\"}","tf_http_res_body":""}`
	e := ParseLine(line, 2)
	if !e.HasJSONBodies {
		t.Fatal("HasJSONBodies = false")
	}
	body, ok := e.JSONBodies["tf_http_req_body"].(map[string]any)
	if !ok || body["name"] != "web" {
		t.Fatalf("req body = %#v", e.JSONBodies["tf_http_req_body"])
	}
	if _, ok := e.JSONBodies["tf_http_res_body"]; ok {
		t.Fatal("empty response body should be skipped")
	}
	if !strings.Contains(string(e.RawData), `"tf_http_req_body":{"name":"web"}`) {
		t.Fatalf("RawData not rewritten: %s", e.RawData)
	}
}

func TestOperationFallbacks(t *testing.T) {
	if e := ParseLine(`{"@message":"starting","@module":"tofu.plan"}`, 1); e.Operation != "plan" {
		t.Errorf("module fallback = %q", e.Operation)
	}
	if e := ParseLine(`{"@message":"xyz","tf_rpc":"PlanResourceChange"}`, 1); e.Operation != "plan" {
		t.Errorf("rpc fallback = %q", e.Operation)
	}
	if e := ParseLine(`{"@message":"xyz"}`, 1); e.Operation != OperationGeneral || e.Component != ComponentUnknown {
		t.Errorf("defaults = %q/%q", e.Operation, e.Component)
	}
}

func TestParseCountsLinesAndStats(t *testing.T) {
	in := strings.Join([]string{
		`{"@level":"error","@message":"Error: creating instance"}`,
		``,
		`[WARN] something deprecated`,
		`{"@level":"info","@message":"done"}`,
		`42`,
	}, "\n")
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Count() != 4 {
		t.Fatalf("Count = %d, want 4", res.Count())
	}
	if res.Entries[1].LineNumber != 3 || res.Entries[3].ID != "raw_5" {
		t.Fatalf("line numbering: %+v / %+v", res.Entries[1].LogEntry, res.Entries[3].LogEntry)
	}
	st := res.Statistics
	if st.TotalEntries != 4 || st.ErrorsCount != 1 || st.ByLevel["warn"] != 1 {
		t.Fatalf("Statistics = %+v", st)
	}
}

func TestTimestampMillis(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1:02:03.456", 3723456, true},
		{"10:30:0.0", 37800000, true},
		{"0:0:5", 5000, true},
		{"--:--:--", 0, false},
		{"12:30", 0, false},
	}
	for _, tt := range tests {
		got, ok := TimestampMillis(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("TimestampMillis(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
