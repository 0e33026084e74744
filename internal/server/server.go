// Package server exposes parsed log files over the action-multiplexed HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/tflog/internal/logapi"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/store"
	"github.com/tinytelemetry/tflog/internal/tfparse"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8000"

// FileStore is the narrow store contract required by the HTTP API.
type FileStore interface {
	SaveFile(ctx context.Context, rec store.FileRecord, entries []tfparse.Entry) error
	File(ctx context.Context, fileID string) (*store.FileRecord, error)
	QueryEntries(ctx context.Context, fileID string, q store.EntryQuery) ([]model.LogEntry, int, error)
	JSONBodies(ctx context.Context, fileID, entryID string) (json.RawMessage, bool, error)
	DeleteFile(ctx context.Context, sessionID, fileID string) (*store.FileRecord, error)
	DeleteSession(ctx context.Context, sessionID string) ([]store.FileRecord, error)
	Ping(ctx context.Context) error
}

// Config configures a Server.
type Config struct {
	Addr string
	// StorageDir receives uploaded files as <file_id>_<name>. Empty keeps
	// uploads in memory only.
	StorageDir     string
	MaxUploadBytes int64
}

// Server serves the log API.
type Server struct {
	cfg       Config
	store     FileStore
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	newID     func() string
	now       func() time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(cfg Config, st FileStore) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		store:     st,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
		newID:     newUUID,
		now:       time.Now,
	}
}

// Handler returns the routed gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.MaxUploadBytes > 0 {
		r.Use(limitBody(s.cfg.MaxUploadBytes))
	}

	r.GET("/api/health", s.handleHealth)
	r.POST(logapi.Path, s.handleAction)
	for _, p := range logapi.Aliases {
		r.POST(p, s.handleAction)
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string { return s.cfg.Addr }

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}
