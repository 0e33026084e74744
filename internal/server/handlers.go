package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tinytelemetry/tflog/internal/filter"
	"github.com/tinytelemetry/tflog/internal/logapi"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/store"
	"github.com/tinytelemetry/tflog/internal/tfparse"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
	cookieSession   = "session_id"
)

var errBadRequest = errors.New("invalid request")

func newUUID() string { return uuid.New().String() }

func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"status": logapi.StatusError, "message": msg})
}

// sessionID resolves the caller's session from the cookie, then the form,
// and mints a fresh one when neither is present.
func (s *Server) sessionID(c *gin.Context) string {
	if v, err := c.Cookie(cookieSession); err == nil && v != "" {
		return v
	}
	if v := c.PostForm(logapi.FieldSessionID); v != "" {
		return v
	}
	return s.newID()
}

func (s *Server) handleAction(c *gin.Context) {
	if fh, err := c.FormFile(logapi.FieldLogFile); err == nil {
		s.handleUpload(c, fh)
		return
	}

	switch c.PostForm(logapi.FieldAction) {
	case logapi.ActionGetSession:
		c.JSON(http.StatusOK, logapi.SessionResponse{SessionID: s.sessionID(c)})
	case logapi.ActionGetLogs:
		s.handleGetLogs(c)
	case logapi.ActionGetJSONBodies:
		s.handleGetJSONBodies(c)
	case logapi.ActionGetStatistics:
		s.handleGetStatistics(c)
	case logapi.ActionClearData:
		s.handleClearData(c)
	default:
		fail(c, http.StatusBadRequest, "Invalid request")
	}
}

func (s *Server) handleUpload(c *gin.Context, fh *multipart.FileHeader) {
	ctx := c.Request.Context()
	sessionID := s.sessionID(c)
	fileID := s.newID()
	name := filepath.Base(fh.Filename)

	src, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, logapi.UploadResponse{Error: err.Error()})
		return
	}
	defer src.Close()

	var path string
	var r io.Reader = src
	if s.cfg.StorageDir != "" {
		path = filepath.Join(s.cfg.StorageDir, fileID+"_"+name)
		if err := writeUpload(path, src); err != nil {
			log.Printf("server: store upload %s: %v", name, err)
			c.JSON(http.StatusInternalServerError, logapi.UploadResponse{Error: "failed to store upload"})
			return
		}
		f, err := os.Open(path)
		if err != nil {
			c.JSON(http.StatusInternalServerError, logapi.UploadResponse{Error: err.Error()})
			return
		}
		defer f.Close()
		r = f
	}

	res, err := s.ingest(ctx, r, store.FileRecord{
		FileID:    fileID,
		SessionID: sessionID,
		Filename:  name,
		Path:      path,
	})
	if err != nil {
		if path != "" {
			os.Remove(path)
		}
		log.Printf("server: ingest %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, logapi.UploadResponse{Error: err.Error()})
		return
	}

	log.Printf("server: ingested %s as %s (%d entries)", name, fileID, res.Count())
	c.JSON(http.StatusOK, logapi.UploadResponse{UploadResult: model.UploadResult{
		Status:     logapi.StatusSuccess,
		Message:    fmt.Sprintf("File processed. Entries: %d", res.Count()),
		FileID:     fileID,
		SessionID:  sessionID,
		Filename:   name,
		Statistics: res.Statistics,
		Count:      res.Count(),
	}})
}

// ingest parses r and persists it under rec.
func (s *Server) ingest(ctx context.Context, r io.Reader, rec store.FileRecord) (*tfparse.Result, error) {
	res, err := tfparse.Parse(r)
	if err != nil {
		return nil, err
	}
	rec.Statistics = res.Statistics
	rec.Count = res.Count()
	rec.UploadedAt = s.now()
	if err := s.store.SaveFile(ctx, rec, res.Entries); err != nil {
		return nil, err
	}
	return res, nil
}

func writeUpload(path string, src io.Reader) error {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}

// resolveFile loads the caller's file. A file absent from the store but
// still on disk is re-parsed and adopted by the caller's session.
func (s *Server) resolveFile(ctx context.Context, sessionID, fileID string) (*store.FileRecord, error) {
	rec, err := s.store.File(ctx, fileID)
	if errors.Is(err, store.ErrFileNotFound) {
		rec, err = s.reload(ctx, sessionID, fileID)
	}
	if err != nil {
		return nil, err
	}
	if rec.SessionID != sessionID {
		return nil, store.ErrAccessDenied
	}
	return rec, nil
}

func (s *Server) reload(ctx context.Context, sessionID, fileID string) (*store.FileRecord, error) {
	if s.cfg.StorageDir == "" {
		return nil, store.ErrFileNotFound
	}
	if _, err := uuid.Parse(fileID); err != nil {
		return nil, store.ErrFileNotFound
	}
	matches, err := filepath.Glob(filepath.Join(s.cfg.StorageDir, fileID+"_*"))
	if err != nil || len(matches) == 0 {
		return nil, store.ErrFileNotFound
	}
	path := matches[0]
	f, err := os.Open(path)
	if err != nil {
		return nil, store.ErrFileNotFound
	}
	defer f.Close()

	rec := store.FileRecord{
		FileID:    fileID,
		SessionID: sessionID,
		Filename:  strings.TrimPrefix(filepath.Base(path), fileID+"_"),
		Path:      path,
	}
	res, err := s.ingest(ctx, f, rec)
	if err != nil {
		return nil, err
	}
	log.Printf("server: reloaded %s from disk", fileID)
	rec.Statistics = res.Statistics
	rec.Count = res.Count()
	return &rec, nil
}

// fileError writes the response for a resolveFile failure.
func fileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrFileNotFound):
		fail(c, http.StatusNotFound, "File not found")
	case errors.Is(err, store.ErrAccessDenied):
		fail(c, http.StatusForbidden, "Access denied")
	default:
		log.Printf("server: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

func formInt(c *gin.Context, field string, def int) (int, error) {
	raw := c.PostForm(field)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s=%q", errBadRequest, field, raw)
	}
	return n, nil
}

func (s *Server) handleGetLogs(c *gin.Context) {
	fileID := c.PostForm(logapi.FieldFileID)
	if fileID == "" {
		c.JSON(http.StatusOK, logapi.LogsResponse{LogPage: model.LogPage{Logs: []model.LogEntry{}}})
		return
	}

	page, err := formInt(c, logapi.FieldPage, 1)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := formInt(c, logapi.FieldPageSize, defaultPageSize)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pageSize = min(pageSize, maxPageSize)

	ctx := c.Request.Context()
	rec, err := s.resolveFile(ctx, s.sessionID(c), fileID)
	if err != nil {
		fileError(c, err)
		return
	}

	q := store.EntryQuery{
		Page:       page,
		PageSize:   pageSize,
		Level:      c.PostForm(string(filter.Level)),
		Operation:  c.PostForm(string(filter.Operation)),
		Component:  c.PostForm(string(filter.Component)),
		ReqID:      c.PostForm(string(filter.ReqID)),
		SearchText: c.PostForm(string(filter.SearchText)),
		TimeFrom:   c.PostForm(string(filter.TimeFrom)),
		TimeTo:     c.PostForm(string(filter.TimeTo)),
	}
	logs, total, err := s.store.QueryEntries(ctx, fileID, q)
	if err != nil {
		log.Printf("server: query %s: %v", fileID, err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []model.LogEntry{}
	}

	c.JSON(http.StatusOK, logapi.LogsResponse{LogPage: model.LogPage{
		Logs:        logs,
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		CurrentFile: rec.Filename,
	}})
}

func (s *Server) handleGetJSONBodies(c *gin.Context) {
	fileID := c.PostForm(logapi.FieldFileID)
	logID := c.PostForm(logapi.FieldLogID)
	empty := logapi.JSONBodiesResponse{JSONBodies: []byte("[]")}
	if fileID == "" || logID == "" {
		c.JSON(http.StatusOK, empty)
		return
	}

	ctx := c.Request.Context()
	if _, err := s.resolveFile(ctx, s.sessionID(c), fileID); err != nil {
		fileError(c, err)
		return
	}
	bodies, ok, err := s.store.JSONBodies(ctx, fileID, logID)
	if err != nil {
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		c.JSON(http.StatusOK, empty)
		return
	}
	c.JSON(http.StatusOK, logapi.JSONBodiesResponse{JSONBodies: bodies})
}

func (s *Server) handleGetStatistics(c *gin.Context) {
	fileID := c.PostForm(logapi.FieldFileID)
	if fileID == "" {
		fail(c, http.StatusBadRequest, "file_id is required")
		return
	}
	rec, err := s.resolveFile(c.Request.Context(), s.sessionID(c), fileID)
	if err != nil {
		fileError(c, err)
		return
	}
	c.JSON(http.StatusOK, logapi.StatisticsResponse{FileID: rec.FileID, Statistics: rec.Statistics})
}

func (s *Server) handleClearData(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := s.sessionID(c)
	fileID := c.PostForm(logapi.FieldFileID)

	var removed []store.FileRecord
	if fileID != "" {
		rec, err := s.store.DeleteFile(ctx, sessionID, fileID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		if rec != nil {
			removed = append(removed, *rec)
		}
	} else {
		recs, err := s.store.DeleteSession(ctx, sessionID)
		if err != nil {
			fail(c, http.StatusInternalServerError, err.Error())
			return
		}
		removed = recs
	}

	for _, rec := range removed {
		RemoveUpload(rec)
	}
	c.JSON(http.StatusOK, logapi.Envelope{
		Status:  logapi.StatusSuccess,
		Message: fmt.Sprintf("Cleared %d file(s)", len(removed)),
	})
}

// RemoveUpload deletes the on-disk copy of rec, if any.
func RemoveUpload(rec store.FileRecord) {
	if rec.Path == "" {
		return
	}
	if err := os.Remove(rec.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("server: remove %s: %v", rec.Path, err)
	}
}
