package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tinytelemetry/tflog/internal/tfparse"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

const sampleLog = `{"@level":"info","@message":"Terraform version: 1.6.0","@timestamp":"2024-03-01T10:00:00.000Z"}
{"@level":"debug","@message":"provider: starting plugin","@timestamp":"2024-03-01T10:00:01.500Z","tf_req_id":"req-aaa"}
{"@level":"error","@message":"Error: creating aws_instance","@timestamp":"2024-03-01T10:00:02.000Z","tf_resource_type":"aws_instance","tf_rpc":"ApplyResourceChange","tf_req_id":"req-bbb"}
{"@level":"info","@message":"HTTP Request Sent","@timestamp":"2024-03-01T10:00:03.000Z","tf_http_req_body":"{\"a\":1}"}
plain text without time`

func saveSample(t *testing.T, s *Store, fileID, sessionID string, uploadedAt time.Time) {
	t.Helper()
	res, err := tfparse.Parse(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := FileRecord{
		FileID:     fileID,
		SessionID:  sessionID,
		Filename:   "apply.log",
		Statistics: res.Statistics,
		Count:      res.Count(),
		UploadedAt: uploadedAt,
	}
	if err := s.SaveFile(context.Background(), rec, res.Entries); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	s := newTestStore(t)
	saveSample(t, s, "f1", "s1", time.Now())

	rec, err := s.File(context.Background(), "f1")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if rec.Filename != "apply.log" || rec.Count != 5 || rec.Statistics.TotalEntries != 5 || rec.Statistics.ErrorsCount != 1 {
		t.Fatalf("record = %+v", rec)
	}

	if _, err := s.File(context.Background(), "nope"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("File(nope) = %v", err)
	}
	if _, err := s.OwnedFile(context.Background(), "other", "f1"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("OwnedFile(other) = %v", err)
	}
}

func TestQueryEntriesPaginates(t *testing.T) {
	s := newTestStore(t)
	saveSample(t, s, "f1", "s1", time.Now())

	logs, total, err := s.QueryEntries(context.Background(), "f1", EntryQuery{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("QueryEntries: %v", err)
	}
	if total != 5 || len(logs) != 2 {
		t.Fatalf("total=%d len=%d", total, len(logs))
	}
	if logs[0].LineNumber != 3 || logs[1].LineNumber != 4 {
		t.Fatalf("order = %d,%d", logs[0].LineNumber, logs[1].LineNumber)
	}
	if !logs[1].HasJSONBodies || logs[0].HasJSONBodies {
		t.Fatalf("HasJSONBodies = %v,%v", logs[0].HasJSONBodies, logs[1].HasJSONBodies)
	}
}

func TestQueryEntriesFilters(t *testing.T) {
	s := newTestStore(t)
	saveSample(t, s, "f1", "s1", time.Now())
	ctx := context.Background()

	count := func(q EntryQuery) int {
		t.Helper()
		q.PageSize = 50
		_, total, err := s.QueryEntries(ctx, "f1", q)
		if err != nil {
			t.Fatalf("QueryEntries(%+v): %v", q, err)
		}
		return total
	}

	if n := count(EntryQuery{Level: "error"}); n != 1 {
		t.Errorf("level=error -> %d", n)
	}
	if n := count(EntryQuery{Level: "all"}); n != 5 {
		t.Errorf("level=all -> %d", n)
	}
	if n := count(EntryQuery{ReqID: "req-"}); n != 2 {
		t.Errorf("req_id contains -> %d", n)
	}
	if n := count(EntryQuery{SearchText: "AWS_INSTANCE"}); n != 1 {
		t.Errorf("search_text -> %d", n)
	}
	if n := count(EntryQuery{SearchText: "applyresource"}); n != 1 {
		t.Errorf("search_text over rpc -> %d", n)
	}
	if n := count(EntryQuery{TimeFrom: "10:0:1.0", TimeTo: "10:0:2.0"}); n != 2 {
		t.Errorf("time range -> %d", n)
	}
	// An unparseable bound is ignored, so the untimed line still matches.
	if n := count(EntryQuery{TimeFrom: "garbage"}); n != 5 {
		t.Errorf("bad time bound -> %d", n)
	}
}

func TestJSONBodies(t *testing.T) {
	s := newTestStore(t)
	saveSample(t, s, "f1", "s1", time.Now())

	raw, ok, err := s.JSONBodies(context.Background(), "f1", "log_4")
	if err != nil || !ok {
		t.Fatalf("JSONBodies = %v, %v", ok, err)
	}
	var bodies map[string]map[string]int
	if err := json.Unmarshal(raw, &bodies); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if bodies["tf_http_req_body"]["a"] != 1 {
		t.Fatalf("bodies = %s", raw)
	}
	if _, ok, _ := s.JSONBodies(context.Background(), "f1", "log_1"); ok {
		t.Fatal("log_1 has no bodies")
	}
}

func TestDeleteScopes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	saveSample(t, s, "a", "s1", time.Now())
	saveSample(t, s, "b", "s1", time.Now())
	saveSample(t, s, "c", "s2", time.Now())

	if rec, err := s.DeleteFile(ctx, "s2", "a"); err != nil || rec != nil {
		t.Fatalf("foreign DeleteFile = %+v, %v", rec, err)
	}
	rec, err := s.DeleteFile(ctx, "s1", "a")
	if err != nil || rec == nil || rec.FileID != "a" {
		t.Fatalf("DeleteFile = %+v, %v", rec, err)
	}
	if _, total, _ := s.QueryEntries(ctx, "a", EntryQuery{}); total != 0 {
		t.Fatalf("entries of deleted file remain: %d", total)
	}

	recs, err := s.DeleteSession(ctx, "s1")
	if err != nil || len(recs) != 1 || recs[0].FileID != "b" {
		t.Fatalf("DeleteSession = %+v, %v", recs, err)
	}
	if _, err := s.File(ctx, "c"); err != nil {
		t.Fatalf("other session's file removed: %v", err)
	}
}

func TestRetentionCleaner(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	saveSample(t, s, "old", "s1", now.Add(-48*time.Hour))
	saveSample(t, s, "new", "s1", now.Add(-time.Hour))

	var removed []string
	rc := NewRetentionCleaner(s, RetentionConfig{
		MaxAge:   24 * time.Hour,
		Interval: time.Hour,
		Now:      func() time.Time { return now },
		OnDelete: func(rec FileRecord) { removed = append(removed, rec.FileID) },
	})
	if rc == nil {
		t.Fatal("NewRetentionCleaner returned nil")
	}
	rc.Stop()

	if len(removed) != 1 || removed[0] != "old" {
		t.Fatalf("removed = %v", removed)
	}
	if _, err := s.File(context.Background(), "new"); err != nil {
		t.Fatalf("fresh file removed: %v", err)
	}
	if NewRetentionCleaner(s, RetentionConfig{}) != nil {
		t.Fatal("zero MaxAge should disable retention")
	}
}
