package model

import "encoding/json"

// LogEntry is one parsed log line as served by get_logs.
// The client treats it as read-only.
type LogEntry struct {
	ID            string          `json:"id"`
	Timestamp     string          `json:"timestamp"`
	Level         string          `json:"level"`
	Operation     string          `json:"operation"`
	Component     string          `json:"component,omitempty"`
	MessageType   string          `json:"message_type"`
	Message       string          `json:"message"`
	LineNumber    int             `json:"line_number"`
	ReqID         string          `json:"tf_req_id,omitempty"`
	ResourceType  string          `json:"tf_resource_type,omitempty"`
	RPC           string          `json:"tf_rpc,omitempty"`
	HasJSONBodies bool            `json:"has_json_bodies"`
	RawData       json.RawMessage `json:"raw_data,omitempty"`
}

// Statistics summarises one uploaded file.
type Statistics struct {
	TotalEntries int            `json:"total_entries"`
	ByLevel      map[string]int `json:"by_level"`
	ByOperation  map[string]int `json:"by_operation"`
	ByComponent  map[string]int `json:"by_component"`
	ErrorsCount  int            `json:"errors_count"`
}

// HistoryItem is one previously uploaded file. ID and FileID are always equal.
type HistoryItem struct {
	ID         string     `json:"id"`
	FileID     string     `json:"fileId"`
	Name       string     `json:"name"`
	Timestamp  string     `json:"timestamp"`
	SessionID  string     `json:"sessionId"`
	Statistics Statistics `json:"statistics"`
	Count      int        `json:"count"`
}

// Pagination describes the page currently materialized in the viewport.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// DefaultPagination is the pagination before any load and after a reset.
func DefaultPagination() Pagination {
	return Pagination{Page: 1, PageSize: DefaultPageSize}
}

// LogQuery is a get_logs request.
type LogQuery struct {
	FileID    string
	SessionID string
	Page      int
	PageSize  int
	// Filters holds only non-empty filter values keyed by wire name.
	Filters map[string]string
}

// LogPage is a get_logs response. Zero numeric fields mean the server omitted them.
type LogPage struct {
	Logs        []LogEntry `json:"logs"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalCount  int        `json:"total_count"`
	TotalPages  int        `json:"total_pages"`
	CurrentFile string     `json:"current_file,omitempty"`
}

// UploadResult is the response to a log_file upload.
type UploadResult struct {
	Status     string     `json:"status"`
	Message    string     `json:"message,omitempty"`
	FileID     string     `json:"file_id"`
	SessionID  string     `json:"session_id"`
	Filename   string     `json:"filename"`
	Statistics Statistics `json:"statistics"`
	Count      int        `json:"count"`
}
