package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/tfparse"
)

// EntryQuery selects a page of one file's entries. Empty filters match
// everything; "all" does too for Level, Operation and Component.
type EntryQuery struct {
	Page       int
	PageSize   int
	Level      string
	Operation  string
	Component  string
	ReqID      string
	SearchText string
	TimeFrom   string
	TimeTo     string
}

// where builds the filter clause for q. The first argument is always the file id.
func (q EntryQuery) where(fileID string) (string, []any) {
	clauses := []string{"file_id = ?"}
	args := []any{fileID}

	exact := func(col, v string) {
		if v != "" && v != "all" {
			clauses = append(clauses, col+" = ?")
			args = append(args, v)
		}
	}
	exact("level", q.Level)
	exact("operation", q.Operation)
	exact("component", q.Component)

	if q.ReqID != "" {
		clauses = append(clauses, "contains(tf_req_id, ?)")
		args = append(args, q.ReqID)
	}
	if q.SearchText != "" {
		needle := strings.ToLower(q.SearchText)
		clauses = append(clauses, "(contains(lower(message), ?) OR contains(lower(tf_resource_type), ?) OR contains(lower(tf_rpc), ?))")
		args = append(args, needle, needle, needle)
	}

	var fromMS, toMS *int64
	if q.TimeFrom != "" {
		if ms, ok := tfparse.TimestampMillis(q.TimeFrom); ok {
			fromMS = &ms
		}
	}
	if q.TimeTo != "" {
		if ms, ok := tfparse.TimestampMillis(q.TimeTo); ok {
			toMS = &ms
		}
	}
	if fromMS != nil || toMS != nil {
		clauses = append(clauses, "ts_ms IS NOT NULL")
	}
	if fromMS != nil {
		clauses = append(clauses, "ts_ms >= ?")
		args = append(args, *fromMS)
	}
	if toMS != nil {
		clauses = append(clauses, "ts_ms <= ?")
		args = append(args, *toMS)
	}

	return strings.Join(clauses, " AND "), args
}

// QueryEntries returns one page of matching entries ordered by line number,
// plus the total number of matches.
func (s *Store) QueryEntries(ctx context.Context, fileID string, q EntryQuery) ([]model.LogEntry, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = model.DefaultPageSize
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	where, args := q.where(fileID)

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count entries: %w", err)
	}

	pageArgs := append(append([]any(nil), args...), q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_id, timestamp, level, operation, component, message_type, message,
		       line_number, tf_req_id, tf_resource_type, tf_rpc, raw_data, json_bodies IS NOT NULL
		FROM entries WHERE `+where+`
		ORDER BY line_number
		LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: query entries: %w", err)
	}
	defer rows.Close()

	logs := make([]model.LogEntry, 0, q.PageSize)
	for rows.Next() {
		var e model.LogEntry
		var raw sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Level, &e.Operation, &e.Component, &e.MessageType, &e.Message,
			&e.LineNumber, &e.ReqID, &e.ResourceType, &e.RPC, &raw, &e.HasJSONBodies); err != nil {
			return nil, 0, fmt.Errorf("store: scan entry: %w", err)
		}
		if raw.Valid && raw.String != "" {
			e.RawData = json.RawMessage(raw.String)
		}
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: iterate entries: %w", err)
	}
	return logs, total, nil
}

// JSONBodies returns the decoded HTTP payloads of one entry. ok is false
// when the entry has none.
func (s *Store) JSONBodies(ctx context.Context, fileID, entryID string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var bodies sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT json_bodies FROM entries WHERE file_id = ? AND entry_id = ?`, fileID, entryID).Scan(&bodies)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: json bodies: %w", err)
	}
	if !bodies.Valid || bodies.String == "" {
		return nil, false, nil
	}
	return json.RawMessage(bodies.String), true, nil
}
