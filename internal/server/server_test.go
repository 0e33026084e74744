package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/tflog/internal/logapi"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const sampleLog = `{"@level":"info","@message":"Terraform version: 1.6.0","@timestamp":"2024-03-01T10:00:00.000Z"}
{"@level":"debug","@message":"provider: starting plugin","@timestamp":"2024-03-01T10:00:01.500Z","tf_req_id":"req-aaa"}
{"@level":"error","@message":"Error: creating aws_instance","@timestamp":"2024-03-01T10:00:02.000Z","tf_req_id":"req-bbb"}
{"@level":"info","@message":"HTTP Request Sent","@timestamp":"2024-03-01T10:00:03.000Z","tf_http_req_body":"{\"a\":1}"}
plain text without time`

type testEnv struct {
	srv    *Server
	store  *store.Store
	client *logapi.Client
	engine http.Handler
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	dir := t.TempDir()
	srv := NewServer(Config{StorageDir: dir}, st)
	engine := srv.Handler()
	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	return &testEnv{
		srv:    srv,
		store:  st,
		client: logapi.New(ts.URL, 0),
		engine: engine,
		dir:    dir,
	}
}

func (e *testEnv) upload(t *testing.T, sessionID string) *model.UploadResult {
	t.Helper()
	res, err := e.client.Upload(context.Background(), sessionID, "apply.log", strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return res
}

// postForm sends a raw multipart action and returns the recorder.
func (e *testEnv) postForm(t *testing.T, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, logapi.Path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}
}

func TestGetSession(t *testing.T) {
	env := newTestEnv(t)

	id, err := env.client.GetSession(context.Background())
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if id == "" {
		t.Error("GetSession returned empty id")
	}
}

func TestUploadAndQuery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.upload(t, "sess-1")
	if res.Status != logapi.StatusSuccess {
		t.Errorf("status = %q, want success", res.Status)
	}
	if res.Count != 5 || res.Statistics.TotalEntries != 5 {
		t.Errorf("count = %d, total = %d, want 5", res.Count, res.Statistics.TotalEntries)
	}
	if res.SessionID != "sess-1" || res.Filename != "apply.log" || res.FileID == "" {
		t.Errorf("unexpected upload result %+v", res)
	}

	page, err := env.client.GetLogs(ctx, model.LogQuery{FileID: res.FileID, SessionID: "sess-1", Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("GetLogs: %v", err)
	}
	if len(page.Logs) != 2 {
		t.Errorf("len(logs) = %d, want 2", len(page.Logs))
	}
	if page.TotalCount != 5 || page.TotalPages != 3 {
		t.Errorf("total = %d pages = %d, want 5 and 3", page.TotalCount, page.TotalPages)
	}
	if page.CurrentFile != "apply.log" {
		t.Errorf("current_file = %q, want apply.log", page.CurrentFile)
	}

	page, err = env.client.GetLogs(ctx, model.LogQuery{
		FileID: res.FileID, SessionID: "sess-1", Page: 1, PageSize: 50,
		Filters: map[string]string{"level": "error"},
	})
	if err != nil {
		t.Fatalf("GetLogs filtered: %v", err)
	}
	if page.TotalCount != 1 || len(page.Logs) != 1 || page.Logs[0].Level != "error" {
		t.Errorf("filtered page = %+v, want one error entry", page)
	}
}

func TestUploadStoredOnDisk(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "sess-1")

	path := filepath.Join(env.dir, res.FileID+"_apply.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored upload: %v", err)
	}
	if string(data) != sampleLog {
		t.Error("stored upload differs from the uploaded content")
	}
}

func TestGetLogsAccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.upload(t, "sess-1")

	_, err := env.client.GetLogs(ctx, model.LogQuery{FileID: "missing", SessionID: "sess-1", Page: 1, PageSize: 50})
	if !logapi.IsNotFound(err) {
		t.Errorf("unknown file error = %v, want 404", err)
	}

	_, err = env.client.GetLogs(ctx, model.LogQuery{FileID: res.FileID, SessionID: "sess-2", Page: 1, PageSize: 50})
	var te *logapi.TransportError
	if !errors.As(err, &te) || te.Status != http.StatusForbidden {
		t.Errorf("foreign session error = %v, want 403", err)
	}
}

func TestGetLogsWithoutFile(t *testing.T) {
	env := newTestEnv(t)
	w := env.postForm(t, map[string]string{"action": logapi.ActionGetLogs})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var out logapi.LogsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Logs == nil || len(out.Logs) != 0 {
		t.Errorf("logs = %v, want empty list", out.Logs)
	}
}

func TestGetLogsBadPage(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "sess-1")

	w := env.postForm(t, map[string]string{
		"action":     logapi.ActionGetLogs,
		"file_id":    res.FileID,
		"session_id": "sess-1",
		"page":       "abc",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestInvalidAction(t *testing.T) {
	env := newTestEnv(t)
	w := env.postForm(t, map[string]string{"action": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var out logapi.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Status != logapi.StatusError || out.Message != "Invalid request" {
		t.Errorf("body = %+v", out)
	}
}

func TestAliasRoutes(t *testing.T) {
	env := newTestEnv(t)
	for _, p := range logapi.Aliases {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		mw.WriteField("action", logapi.ActionGetSession)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, p, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		env.engine.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", p, w.Code)
		}
	}
}

func TestGetJSONBodies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.upload(t, "sess-1")

	bodies, err := env.client.GetJSONBodies(ctx, res.FileID, "sess-1", "log_4")
	if err != nil {
		t.Fatalf("GetJSONBodies: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(bodies, &decoded); err != nil {
		t.Fatalf("unmarshal bodies %s: %v", bodies, err)
	}
	if _, ok := decoded["tf_http_req_body"]; !ok {
		t.Errorf("bodies = %s, want tf_http_req_body", bodies)
	}

	bodies, err = env.client.GetJSONBodies(ctx, res.FileID, "sess-1", "log_1")
	if err != nil {
		t.Fatalf("GetJSONBodies log_1: %v", err)
	}
	if string(bodies) != "[]" {
		t.Errorf("bodies = %s, want []", bodies)
	}
}

func TestGetStatistics(t *testing.T) {
	env := newTestEnv(t)
	res := env.upload(t, "sess-1")

	stats, err := env.client.GetStatistics(context.Background(), res.FileID, "sess-1")
	if err != nil {
		t.Fatalf("GetStatistics: %v", err)
	}
	if stats.TotalEntries != 5 || stats.ErrorsCount != 1 {
		t.Errorf("stats = %+v, want 5 entries and 1 error", stats)
	}
}

func TestClearDataRemovesUpload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.upload(t, "sess-1")
	other := env.upload(t, "sess-2")

	if err := env.client.ClearData(ctx, "sess-1", res.FileID); err != nil {
		t.Fatalf("ClearData: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, res.FileID+"_apply.log")); !os.IsNotExist(err) {
		t.Errorf("stored upload still present: %v", err)
	}
	_, err := env.client.GetLogs(ctx, model.LogQuery{FileID: res.FileID, SessionID: "sess-1", Page: 1, PageSize: 50})
	if !logapi.IsNotFound(err) {
		t.Errorf("GetLogs after clear = %v, want 404", err)
	}

	// Another session's files are untouched by a session-wide clear.
	if err := env.client.ClearData(ctx, "sess-1", ""); err != nil {
		t.Fatalf("ClearData session: %v", err)
	}
	if _, err := env.store.File(ctx, other.FileID); err != nil {
		t.Errorf("other session's file gone: %v", err)
	}
}

func TestReloadFromDisk(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.upload(t, "sess-1")

	// Drop the rows but keep the stored upload.
	if _, err := env.store.DeleteFile(ctx, "sess-1", res.FileID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	page, err := env.client.GetLogs(ctx, model.LogQuery{FileID: res.FileID, SessionID: "sess-1", Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("GetLogs after reload: %v", err)
	}
	if page.TotalCount != 5 {
		t.Errorf("total = %d, want 5", page.TotalCount)
	}
	if page.CurrentFile != "apply.log" {
		t.Errorf("current_file = %q, want apply.log", page.CurrentFile)
	}
}
