// Package viewport keeps the selected file, its filters and pagination, and
// the page of log entries currently on screen in sync with the log service.
//
// Every fetch takes a sequence number. A response that completes after a
// newer request was issued is dropped with ErrSuperseded, so the viewport
// always reflects the latest request rather than the latest arrival.
package viewport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/tflog/internal/filter"
	"github.com/tinytelemetry/tflog/internal/history"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/slot"
)

// HistoryTimeFormat is the layout of HistoryItem.Timestamp.
const HistoryTimeFormat = "2006-01-02 15:04:05"

// Options configures a Controller.
type Options struct {
	Backend     model.Backend
	Sessions    SessionSource
	History     *history.Store
	CurrentFile *slot.Slot[string]

	Scheduler Scheduler
	Debounce  time.Duration
	Notifier  Notifier
	Now       func() time.Time
}

type origin int

const (
	originCaller origin = iota
	originUser
	originRestore
)

type fetchReq struct {
	fileID   string
	page     int
	pageSize int
	filters  filter.Filters
	origin   origin
}

// Controller is safe for concurrent use. Network calls run with the lock
// released; their effects are applied atomically when they complete.
type Controller struct {
	backend  model.Backend
	sessions SessionSource
	history  *history.Store
	current  *slot.Slot[string]
	sched    Scheduler
	debounce time.Duration
	notifier Notifier
	now      func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu            sync.Mutex
	filters       filter.Filters
	pagination    model.Pagination
	logs          []model.LogEntry
	currentFileID string
	selected      string
	wasDeleted    bool
	state         State
	loading       bool
	seq           uint64
	pending       Timer
	debounceGen   uint64
	listeners     []func(Snapshot)
	closed        bool
}

// New returns a Controller. Backend, Sessions, History and CurrentFile are required.
func New(opts Options) *Controller {
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = model.FilterDebounce
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(err error) {
			log.Printf("viewport: %v", err)
		})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:    opts.Backend,
		sessions:   opts.Sessions,
		history:    opts.History,
		current:    opts.CurrentFile,
		sched:      opts.Scheduler,
		debounce:   opts.Debounce,
		notifier:   opts.Notifier,
		now:        opts.Now,
		baseCtx:    ctx,
		cancel:     cancel,
		pagination: model.DefaultPagination(),
	}
	if id, ok := c.current.Get(); ok {
		c.currentFileID = id
	}
	return c
}

// Close cancels the pending debounce and any fetch it started.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancelDebounceLocked()
	c.mu.Unlock()
	c.cancel()
}

// Subscribe registers fn to be called with a fresh snapshot after every
// state change. fn runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:         c.state,
		SessionID:     c.sessions.ID(),
		CurrentFileID: c.currentFileID,
		Selected:      c.selected,
		WasLogDeleted: c.wasDeleted,
		Filters:       c.filters,
		Pagination:    c.pagination,
		Logs:          append([]model.LogEntry(nil), c.logs...),
		History:       c.history.Items(),
	}
	if c.loading {
		s.State = Loading
	}
	return s
}

func (c *Controller) changed() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	fns := append([]func(Snapshot){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) setCurrentLocked(fileID string) {
	c.currentFileID = fileID
	var err error
	if fileID == "" {
		err = c.current.Clear()
	} else {
		err = c.current.Set(fileID)
	}
	if err != nil {
		log.Printf("viewport: persist current file: %v", err)
	}
}

// resetLocked drops the selection and everything loaded for it.
func (c *Controller) resetLocked() {
	c.cancelDebounceLocked()
	c.seq++
	c.loading = false
	c.logs = nil
	c.selected = ""
	c.setCurrentLocked("")
	c.pagination = model.DefaultPagination()
}

func (c *Controller) cancelDebounceLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.debounceGen++
}

// RestoreOnStartup reloads the file that was selected when the process last
// exited. A file that can no longer be loaded is silently dropped and the
// viewport moves to Deleted; the returned error wraps ErrSelectionStale.
func (c *Controller) RestoreOnStartup(ctx context.Context) error {
	c.sessions.EnsureSession(ctx)

	c.mu.Lock()
	fileID := c.currentFileID
	if fileID == "" {
		c.mu.Unlock()
		return nil
	}
	if _, ok := c.history.Find(fileID); !ok {
		c.setCurrentLocked("")
		c.mu.Unlock()
		c.changed()
		return nil
	}
	req := fetchReq{
		fileID:   fileID,
		page:     1,
		pageSize: c.pagination.PageSize,
		filters:  c.filters,
		origin:   originRestore,
	}
	c.mu.Unlock()

	_, err := c.fetch(ctx, req)
	if err == nil || errors.Is(err, ErrSuperseded) {
		return err
	}

	log.Printf("viewport: restore %s: %v", fileID, err)
	return fmt.Errorf("%w: %s: %v", ErrSelectionStale, fileID, err)
}

// SelectFile makes fileID current and loads its first page with the active
// filters and page size.
func (c *Controller) SelectFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return ErrNoSelection
	}
	c.mu.Lock()
	c.cancelDebounceLocked()
	c.setCurrentLocked(fileID)
	c.selected = fileID
	c.wasDeleted = false
	if c.state == Deleted {
		c.state = Idle
	}
	req := fetchReq{
		fileID:   fileID,
		page:     1,
		pageSize: c.pagination.PageSize,
		filters:  c.filters,
		origin:   originUser,
	}
	c.mu.Unlock()

	_, err := c.fetch(ctx, req)
	return err
}

// ChangeFilter updates one filter and schedules a debounced reload.
func (c *Controller) ChangeFilter(name filter.Name, value string) error {
	c.mu.Lock()
	if err := c.filters.Set(name, value); err != nil {
		c.mu.Unlock()
		return err
	}
	c.armDebounceLocked()
	c.mu.Unlock()
	c.changed()
	return nil
}

// ChangeTimePart edits one sub-field of a time bound and schedules a
// debounced reload.
func (c *Controller) ChangeTimePart(b filter.Bound, part filter.Part, raw string) error {
	c.mu.Lock()
	if err := c.filters.EditTimePart(b, part, raw); err != nil {
		c.mu.Unlock()
		return err
	}
	c.armDebounceLocked()
	c.mu.Unlock()
	c.changed()
	return nil
}

// ResetFilters clears every filter and schedules a debounced reload.
func (c *Controller) ResetFilters() {
	c.mu.Lock()
	c.filters = filter.Filters{}
	c.armDebounceLocked()
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) armDebounceLocked() {
	if c.closed {
		return
	}
	c.cancelDebounceLocked()
	gen := c.debounceGen
	c.pending = c.sched.AfterFunc(c.debounce, func() { c.debounceFired(gen) })
}

func (c *Controller) debounceFired(gen uint64) {
	c.mu.Lock()
	if gen != c.debounceGen || c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	if c.currentFileID == "" {
		c.mu.Unlock()
		return
	}
	req := fetchReq{
		fileID:   c.currentFileID,
		page:     1,
		pageSize: c.pagination.PageSize,
		filters:  c.filters,
		origin:   originUser,
	}
	c.mu.Unlock()

	_, _ = c.fetch(c.baseCtx, req)
}

// ChangePage loads page of the current file. A pageSize of 0 keeps the
// current size. Pages below 1 are clamped.
func (c *Controller) ChangePage(ctx context.Context, page, pageSize int) error {
	if pageSize != 0 && !model.ValidPageSize(pageSize) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}
	if page < 1 {
		page = 1
	}

	c.mu.Lock()
	if c.currentFileID == "" {
		c.mu.Unlock()
		return ErrNoSelection
	}
	if pageSize == 0 {
		pageSize = c.pagination.PageSize
	}
	req := fetchReq{
		fileID:   c.currentFileID,
		page:     page,
		pageSize: pageSize,
		filters:  c.filters,
		origin:   originUser,
	}
	c.mu.Unlock()

	_, err := c.fetch(ctx, req)
	return err
}

// NextPage loads the following page if there is one.
func (c *Controller) NextPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.pagination
	c.mu.Unlock()
	if p.Page >= p.TotalPages {
		return nil
	}
	return c.ChangePage(ctx, p.Page+1, 0)
}

// PrevPage loads the preceding page if there is one.
func (c *Controller) PrevPage(ctx context.Context) error {
	c.mu.Lock()
	p := c.pagination
	c.mu.Unlock()
	if p.Page <= 1 {
		return nil
	}
	return c.ChangePage(ctx, p.Page-1, 0)
}

// FetchPage loads one page and applies it to the viewport. Errors are
// returned to the caller without a notice.
func (c *Controller) FetchPage(ctx context.Context, fileID string, page, pageSize int, filters filter.Filters) (*model.LogPage, error) {
	return c.fetch(ctx, fetchReq{
		fileID:   fileID,
		page:     page,
		pageSize: pageSize,
		filters:  filters,
		origin:   originCaller,
	})
}

func (c *Controller) fetch(ctx context.Context, req fetchReq) (*model.LogPage, error) {
	if req.pageSize <= 0 {
		req.pageSize = model.DefaultPageSize
	}
	if req.page < 1 {
		req.page = 1
	}

	sessionID := c.sessions.EnsureSession(ctx)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()
	c.changed()

	q := model.LogQuery{
		FileID:    req.fileID,
		SessionID: sessionID,
		Page:      req.page,
		PageSize:  req.pageSize,
		Filters:   req.filters.Map(),
	}
	page, err := c.backend.GetLogs(ctx, q)

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	c.loading = false
	if err != nil {
		if req.origin == originRestore {
			// A selection made while the restore was in flight wins.
			if c.currentFileID != req.fileID {
				c.mu.Unlock()
				c.changed()
				return nil, ErrSuperseded
			}
			c.setCurrentLocked("")
			c.selected = ""
			c.wasDeleted = true
			c.state = Deleted
		}
		c.mu.Unlock()
		c.changed()
		err = fmt.Errorf("viewport: load page %d of %s: %w", req.page, req.fileID, err)
		if req.origin == originUser {
			c.notifier.Notify(err)
		}
		return nil, err
	}

	c.logs = append([]model.LogEntry(nil), page.Logs...)
	c.pagination = paginationFrom(page, req)
	c.wasDeleted = false
	if len(c.logs) == 0 {
		c.state = Empty
	} else {
		c.state = Loaded
	}
	if req.origin == originRestore {
		c.selected = req.fileID
	}
	c.mu.Unlock()
	c.changed()
	return page, nil
}

// paginationFrom prefers the server's values and falls back to the request.
func paginationFrom(page *model.LogPage, req fetchReq) model.Pagination {
	p := model.Pagination{
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
	}
	if p.Page <= 0 {
		p.Page = req.page
	}
	if p.PageSize <= 0 {
		p.PageSize = req.pageSize
	}
	if p.TotalCount < 0 {
		p.TotalCount = 0
	}
	if p.TotalPages <= 0 {
		p.TotalPages = 1
	}
	return p
}

// DeleteCurrent removes the current file from the service and from history.
// The local side always happens; a backend failure is logged and returned
// wrapped in ErrBackendMutation.
func (c *Controller) DeleteCurrent(ctx context.Context) error {
	c.mu.Lock()
	fileID := c.currentFileID
	c.mu.Unlock()
	if fileID == "" {
		return ErrNoSelection
	}

	var mutErr error
	if err := c.backend.ClearData(ctx, c.sessions.EnsureSession(ctx), fileID); err != nil {
		log.Printf("viewport: delete backend data for %s: %v", fileID, err)
		mutErr = fmt.Errorf("%w: delete %s: %v", ErrBackendMutation, fileID, err)
	}
	if err := c.history.Remove(fileID); err != nil {
		log.Printf("viewport: %v", err)
	}

	c.mu.Lock()
	c.resetLocked()
	c.wasDeleted = true
	c.state = Deleted
	c.mu.Unlock()
	c.changed()
	return mutErr
}

// ClearHistory removes every file of the session from the service and
// empties history. Like DeleteCurrent, the local side always happens.
func (c *Controller) ClearHistory(ctx context.Context) error {
	var mutErr error
	if err := c.backend.ClearData(ctx, c.sessions.EnsureSession(ctx), ""); err != nil {
		log.Printf("viewport: clear backend data: %v", err)
		mutErr = fmt.Errorf("%w: clear session: %v", ErrBackendMutation, err)
	}
	if err := c.history.Clear(); err != nil {
		log.Printf("viewport: %v", err)
	}

	c.mu.Lock()
	c.resetLocked()
	c.wasDeleted = false
	c.state = Idle
	c.mu.Unlock()
	c.changed()
	return mutErr
}

// Upload sends a file, records it in history and selects it.
func (c *Controller) Upload(ctx context.Context, name string, r io.Reader) (*model.UploadResult, error) {
	sessionID := c.sessions.EnsureSession(ctx)

	res, err := c.backend.Upload(ctx, sessionID, name, r)
	if err != nil {
		err = fmt.Errorf("viewport: upload %s: %w", name, err)
		c.notifier.Notify(err)
		return nil, err
	}

	item := model.HistoryItem{
		ID:         res.FileID,
		FileID:     res.FileID,
		Name:       res.Filename,
		Timestamp:  c.now().Local().Format(HistoryTimeFormat),
		SessionID:  res.SessionID,
		Statistics: res.Statistics,
		Count:      res.Count,
	}
	if item.Name == "" {
		item.Name = name
	}
	if item.SessionID == "" {
		item.SessionID = sessionID
	}
	if err := c.history.Record(item); err != nil {
		log.Printf("viewport: %v", err)
	}

	if err := c.SelectFile(ctx, res.FileID); err != nil && !errors.Is(err, ErrSuperseded) {
		return res, err
	}
	return res, nil
}

// JSONBodies fetches the request and response bodies of one entry of the
// current file.
func (c *Controller) JSONBodies(ctx context.Context, logID string) (json.RawMessage, error) {
	c.mu.Lock()
	fileID := c.currentFileID
	c.mu.Unlock()
	if fileID == "" {
		return nil, ErrNoSelection
	}

	bodies, err := c.backend.GetJSONBodies(ctx, fileID, c.sessions.EnsureSession(ctx), logID)
	if err != nil {
		err = fmt.Errorf("viewport: json bodies of %s: %w", logID, err)
		c.notifier.Notify(err)
		return nil, err
	}
	return bodies, nil
}

// Statistics returns the summary of the current file. When the service
// cannot answer, the statistics recorded at upload time are used.
func (c *Controller) Statistics(ctx context.Context) (model.Statistics, error) {
	c.mu.Lock()
	fileID := c.currentFileID
	c.mu.Unlock()
	if fileID == "" {
		return model.Statistics{}, ErrNoSelection
	}

	stats, err := c.backend.GetStatistics(ctx, fileID, c.sessions.EnsureSession(ctx))
	if err == nil {
		return *stats, nil
	}
	if item, ok := c.history.Find(fileID); ok {
		log.Printf("viewport: statistics of %s from history: %v", fileID, err)
		return item.Statistics, nil
	}
	err = fmt.Errorf("viewport: statistics of %s: %w", fileID, err)
	c.notifier.Notify(err)
	return model.Statistics{}, err
}
