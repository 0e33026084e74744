package logapi

import (
	"encoding/json"

	"github.com/tinytelemetry/tflog/internal/model"
)

// Action Reference
//
// All requests are multipart POSTs to Path, multiplexed by the "action" form
// field. An upload carries no action; it is recognized by the log_file part.
//
//   Action            Fields                                              Result
//   ───────────────   ─────────────────────────────────────────────────   ─────────────────────────────
//   get_session       (none)                                              session_id
//   get_logs          file_id, session_id, page, page_size, [filters]     logs, page, page_size,
//                                                                         total_count, total_pages,
//                                                                         current_file
//   get_json_bodies   file_id, session_id, log_id                         json_bodies
//   get_statistics    file_id, session_id                                 statistics
//   clear_data        session_id, [file_id]                               status, message
//   (upload)          log_file, [session_id]                              status, file_id, session_id,
//                                                                         filename, statistics, count
//
// Filters: operation, level, component, req_id, search_text, time_from,
// time_to. Only non-empty filters are sent.
//
// A response is a failure when the HTTP status is not 2xx or when it carries
// a "status" field other than "success".

const (
	ActionGetSession    = "get_session"
	ActionGetLogs       = "get_logs"
	ActionGetJSONBodies = "get_json_bodies"
	ActionGetStatistics = "get_statistics"
	ActionClearData     = "clear_data"
	// ActionUpload is used only for error reporting; uploads send no action field.
	ActionUpload = "upload"
)

// Form field names.
const (
	FieldAction    = "action"
	FieldSessionID = "session_id"
	FieldFileID    = "file_id"
	FieldLogID     = "log_id"
	FieldPage      = "page"
	FieldPageSize  = "page_size"
	FieldLogFile   = "log_file"
)

const (
	// Path is the single multiplexed endpoint.
	Path = "/api/upload/"
	// DefaultServerURL is where the companion service listens by default.
	DefaultServerURL = "http://127.0.0.1:8000"

	StatusSuccess = "success"
	StatusError   = "error"
)

// Aliases are additional routes that accept the same actions as Path.
var Aliases = []string{"/api/logs/", "/api/logs/json-bodies/"}

// Envelope holds the fields every response may carry.
type Envelope struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SessionResponse answers get_session.
type SessionResponse struct {
	Envelope
	SessionID string `json:"session_id"`
}

// LogsResponse answers get_logs.
type LogsResponse struct {
	Envelope
	model.LogPage
}

// JSONBodiesResponse answers get_json_bodies.
type JSONBodiesResponse struct {
	Envelope
	JSONBodies json.RawMessage `json:"json_bodies"`
}

// StatisticsResponse answers get_statistics.
type StatisticsResponse struct {
	Envelope
	FileID     string           `json:"file_id,omitempty"`
	Statistics model.Statistics `json:"statistics"`
}

// UploadResponse answers an upload.
type UploadResponse struct {
	model.UploadResult
	Error string `json:"error,omitempty"`
}
