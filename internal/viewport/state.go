package viewport

import (
	"context"
	"errors"
	"time"

	"github.com/tinytelemetry/tflog/internal/filter"
	"github.com/tinytelemetry/tflog/internal/model"
)

var (
	// ErrSelectionStale means the file restored at startup could not be loaded.
	ErrSelectionStale = errors.New("viewport: selected file is no longer available")
	// ErrBackendMutation means a delete or clear request failed. Local state
	// was still updated.
	ErrBackendMutation = errors.New("viewport: backend mutation failed")
	// ErrSuperseded means a newer request was issued before this one completed.
	ErrSuperseded = errors.New("viewport: response superseded")
	// ErrNoSelection means the operation needs a selected file.
	ErrNoSelection = errors.New("viewport: no file selected")
	// ErrInvalidPageSize means the page size is not one of model.PageSizes.
	ErrInvalidPageSize = errors.New("viewport: invalid page size")
)

// State is the viewport lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Empty
	Deleted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Empty:
		return "empty"
	case Deleted:
		return "deleted"
	}
	return "unknown"
}

// Snapshot is a copy of the observable controller state.
type Snapshot struct {
	State         State
	SessionID     string
	CurrentFileID string
	// Selected is the history item highlighted for the current file.
	Selected      string
	WasLogDeleted bool
	Filters       filter.Filters
	Pagination    model.Pagination
	Logs          []model.LogEntry
	History       []model.HistoryItem
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notifier receives failures of user-initiated operations.
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// SessionSource provides the session id attached to every request.
type SessionSource interface {
	EnsureSession(ctx context.Context) string
	ID() string
}
