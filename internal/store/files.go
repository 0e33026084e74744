package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/tfparse"
)

// FileRecord describes one uploaded file.
type FileRecord struct {
	FileID     string
	SessionID  string
	Filename   string
	Path       string
	Statistics model.Statistics
	Count      int
	UploadedAt time.Time
}

// SaveFile stores a parsed file and its entries in one transaction,
// replacing any previous data under the same file id.
func (s *Store) SaveFile(ctx context.Context, rec FileRecord, entries []tfparse.Entry) error {
	stats, err := json.Marshal(rec.Statistics)
	if err != nil {
		return fmt.Errorf("store: marshal statistics: %w", err)
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE file_id = ?`, rec.FileID); err != nil {
		return fmt.Errorf("store: clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE file_id = ?`, rec.FileID); err != nil {
		return fmt.Errorf("store: clear file: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO files (file_id, session_id, filename, file_path, statistics, entry_count, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.FileID, rec.SessionID, rec.Filename, rec.Path, string(stats), rec.Count, rec.UploadedAt.UTC(),
	); err != nil {
		return fmt.Errorf("store: insert file: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (file_id, entry_id, line_number, timestamp, ts_ms, level, operation, component, message_type, message, tf_req_id, tf_resource_type, tf_rpc, raw_data, json_bodies) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare entries: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var tsMS any
		if ms, ok := tfparse.TimestampMillis(e.Timestamp); ok {
			tsMS = ms
		}
		var raw any
		if len(e.RawData) > 0 {
			raw = string(e.RawData)
		}
		var bodies any
		if len(e.JSONBodies) > 0 {
			if b, merr := json.Marshal(e.JSONBodies); merr != nil {
				log.Printf("store: drop json bodies of %s: %v", e.ID, merr)
			} else {
				bodies = string(b)
			}
		}
		if _, err := stmt.ExecContext(ctx,
			rec.FileID, e.ID, e.LineNumber, e.Timestamp, tsMS,
			e.Level, e.Operation, e.Component, e.MessageType, e.Message,
			e.ReqID, e.ResourceType, e.RPC, raw, bodies,
		); err != nil {
			return fmt.Errorf("store: insert entry %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	committed = true
	return nil
}

// File returns the record for fileID.
func (s *Store) File(ctx context.Context, fileID string) (*FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`SELECT file_id, session_id, filename, file_path, statistics, entry_count, uploaded_at FROM files WHERE file_id = ?`, fileID)
	rec, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}
	return rec, err
}

// OwnedFile returns the record for fileID if sessionID owns it.
func (s *Store) OwnedFile(ctx context.Context, sessionID, fileID string) (*FileRecord, error) {
	rec, err := s.File(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if rec.SessionID != sessionID {
		return nil, ErrAccessDenied
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*FileRecord, error) {
	var rec FileRecord
	var stats string
	if err := row.Scan(&rec.FileID, &rec.SessionID, &rec.Filename, &rec.Path, &stats, &rec.Count, &rec.UploadedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stats), &rec.Statistics); err != nil {
		log.Printf("store: unreadable statistics for %s: %v", rec.FileID, err)
	}
	return &rec, nil
}

// DeleteFile removes fileID when sessionID owns it. It reports the removed
// record, or nil when nothing matched.
func (s *Store) DeleteFile(ctx context.Context, sessionID, fileID string) (*FileRecord, error) {
	recs, err := s.deleteWhere(ctx, `session_id = ? AND file_id = ?`, sessionID, fileID)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// DeleteSession removes every file owned by sessionID.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) ([]FileRecord, error) {
	return s.deleteWhere(ctx, `session_id = ?`, sessionID)
}

// DeleteBefore removes files uploaded before cutoff.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) ([]FileRecord, error) {
	return s.deleteWhere(ctx, `uploaded_at < ?`, cutoff.UTC())
}

func (s *Store) deleteWhere(ctx context.Context, where string, args ...any) ([]FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, session_id, filename, file_path, statistics, entry_count, uploaded_at FROM files WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("store: select files: %w", err)
	}
	var recs []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(recs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE file_id = ?`, rec.FileID); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("store: delete entries of %s: %w", rec.FileID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM files WHERE file_id = ?`, rec.FileID); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("store: delete file %s: %w", rec.FileID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return recs, nil
}
