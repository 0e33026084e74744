// Package logapi talks to the log service's action-multiplexed endpoint.
package logapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tinytelemetry/tflog/internal/model"
)

// TransportError is a failed exchange with the service: a network error,
// a non-2xx status, or a response whose status is not "success".
type TransportError struct {
	Action  string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("logapi: ")
	b.WriteString(e.Action)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": http %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == http.StatusNotFound
}

// Client implements model.Backend over HTTP.
type Client struct {
	http *resty.Client
}

var _ model.Backend = (*Client)(nil)

// New returns a Client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if timeout <= 0 {
		timeout = model.DefaultRequestTimeout
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.http.BaseURL }

// post sends one multipart request and decodes a successful body into dest.
func (c *Client) post(ctx context.Context, action string, form map[string]string, file *filePart, dest interface{}) error {
	req := c.http.R().SetContext(ctx)
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		req.SetMultipartField(k, "", "", strings.NewReader(form[k]))
	}
	if file != nil {
		req.SetFileReader(FieldLogFile, file.name, file.r)
	}

	resp, err := req.Post(Path)
	if err != nil {
		return &TransportError{Action: action, Err: err}
	}
	return decode(action, resp.StatusCode(), resp.Body(), file != nil, dest)
}

type filePart struct {
	name string
	r    io.Reader
}

// decode applies the failure rules to a raw response.
func decode(action string, status int, body []byte, requireSuccess bool, dest interface{}) error {
	var env Envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil && status >= 200 && status < 300 {
			return &TransportError{Action: action, Status: status, Err: fmt.Errorf("decode: %w", err)}
		}
	}
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}

	if status < 200 || status > 299 {
		return &TransportError{Action: action, Status: status, Message: msg}
	}
	if env.Status != "" && env.Status != StatusSuccess {
		return &TransportError{Action: action, Status: status, Message: msg}
	}
	if requireSuccess && env.Status != StatusSuccess {
		if msg == "" {
			msg = "missing success status"
		}
		return &TransportError{Action: action, Status: status, Message: msg}
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &TransportError{Action: action, Status: status, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// GetSession asks the service for a new session id.
func (c *Client) GetSession(ctx context.Context) (string, error) {
	var out SessionResponse
	err := c.post(ctx, ActionGetSession, map[string]string{FieldAction: ActionGetSession}, nil, &out)
	if err != nil {
		return "", err
	}
	return out.SessionID, nil
}

// GetLogs fetches one filtered page of a file.
func (c *Client) GetLogs(ctx context.Context, q model.LogQuery) (*model.LogPage, error) {
	form := map[string]string{
		FieldAction:    ActionGetLogs,
		FieldFileID:    q.FileID,
		FieldSessionID: q.SessionID,
		FieldPage:      strconv.Itoa(q.Page),
		FieldPageSize:  strconv.Itoa(q.PageSize),
	}
	for k, v := range q.Filters {
		if v != "" {
			form[k] = v
		}
	}
	var out LogsResponse
	if err := c.post(ctx, ActionGetLogs, form, nil, &out); err != nil {
		return nil, err
	}
	page := out.LogPage
	return &page, nil
}

// GetJSONBodies fetches the request/response bodies attached to one entry.
func (c *Client) GetJSONBodies(ctx context.Context, fileID, sessionID, logID string) (json.RawMessage, error) {
	form := map[string]string{
		FieldAction:    ActionGetJSONBodies,
		FieldFileID:    fileID,
		FieldSessionID: sessionID,
		FieldLogID:     logID,
	}
	var out JSONBodiesResponse
	if err := c.post(ctx, ActionGetJSONBodies, form, nil, &out); err != nil {
		return nil, err
	}
	return out.JSONBodies, nil
}

// GetStatistics fetches the summary of a stored file.
func (c *Client) GetStatistics(ctx context.Context, fileID, sessionID string) (*model.Statistics, error) {
	form := map[string]string{
		FieldAction:    ActionGetStatistics,
		FieldFileID:    fileID,
		FieldSessionID: sessionID,
	}
	var out StatisticsResponse
	if err := c.post(ctx, ActionGetStatistics, form, nil, &out); err != nil {
		return nil, err
	}
	return &out.Statistics, nil
}

// ClearData deletes one file, or every file of the session when fileID is "".
func (c *Client) ClearData(ctx context.Context, sessionID, fileID string) error {
	form := map[string]string{
		FieldAction:    ActionClearData,
		FieldSessionID: sessionID,
	}
	if fileID != "" {
		form[FieldFileID] = fileID
	}
	return c.post(ctx, ActionClearData, form, nil, nil)
}

// Upload sends a log file. The service must answer with status "success".
func (c *Client) Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*model.UploadResult, error) {
	form := map[string]string{}
	if sessionID != "" {
		form[FieldSessionID] = sessionID
	}
	var out UploadResponse
	if err := c.post(ctx, ActionUpload, form, &filePart{name: filename, r: r}, &out); err != nil {
		return nil, err
	}
	if out.Filename == "" {
		out.Filename = filename
	}
	res := out.UploadResult
	return &res, nil
}
