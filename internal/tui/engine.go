package tui

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/tflog/internal/filter"
	"github.com/tinytelemetry/tflog/internal/model"
	"github.com/tinytelemetry/tflog/internal/viewport"
)

// Engine is the viewport controller surface the browser drives.
type Engine interface {
	Snapshot() viewport.Snapshot
	RestoreOnStartup(ctx context.Context) error
	SelectFile(ctx context.Context, fileID string) error
	ChangeFilter(name filter.Name, value string) error
	ChangeTimePart(b filter.Bound, part filter.Part, raw string) error
	ResetFilters()
	ChangePage(ctx context.Context, page, pageSize int) error
	NextPage(ctx context.Context) error
	PrevPage(ctx context.Context) error
	DeleteCurrent(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	Upload(ctx context.Context, name string, r io.Reader) (*model.UploadResult, error)
	JSONBodies(ctx context.Context, logID string) (json.RawMessage, error)
	Statistics(ctx context.Context) (model.Statistics, error)
}

var _ Engine = (*viewport.Controller)(nil)

// SnapshotMsg carries controller state into the program.
type SnapshotMsg viewport.Snapshot

// NoticeMsg reports a failed user-initiated operation.
type NoticeMsg struct {
	Err error
}

// Relay forwards controller events into a running program. Events that
// arrive before Attach are dropped.
//
// Listeners fire on whatever goroutine changed the controller, including
// the program's own Update loop, so delivery goes through a queue drained
// by a separate goroutine. Events keep their order.
type Relay struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	queue   []tea.Msg
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

// Attach starts delivery to send, usually (*tea.Program).Send.
func (r *Relay) Attach(send func(tea.Msg)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.send != nil {
		return
	}
	r.send = send
	r.wake = make(chan struct{}, 1)
	r.done = make(chan struct{})
	go r.drain(send, r.wake, r.done)
}

// Close stops delivery. Queued events are discarded.
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	r.queue = nil
	if r.done != nil {
		close(r.done)
	}
}

// Notify implements viewport.Notifier.
func (r *Relay) Notify(err error) {
	r.dispatch(NoticeMsg{Err: err})
}

// Publish is a controller listener.
func (r *Relay) Publish(s viewport.Snapshot) {
	r.dispatch(SnapshotMsg(s))
}

// dispatch queues msg and returns without waiting for the program.
func (r *Relay) dispatch(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.send == nil || r.stopped {
		return
	}
	r.queue = append(r.queue, msg)
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Relay) drain(send func(tea.Msg), wake, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-wake:
		}
		for {
			r.mu.Lock()
			if r.stopped || len(r.queue) == 0 {
				r.mu.Unlock()
				break
			}
			msg := r.queue[0]
			r.queue = r.queue[1:]
			r.mu.Unlock()
			send(msg)
		}
	}
}
