// Package term tracks the live terminal windows behind bridged agent
// sessions: one VT screen plus query-responder state per PTY.
package term

import (
	"context"
	"sync"
	"time"

	"github.com/nextlevelbuilder/discode/internal/telemetry"
	"github.com/nextlevelbuilder/discode/internal/vt"
)

// Default window geometry for agent PTYs.
const (
	DefaultCols = 140
	DefaultRows = 40

	// rawBufferCap bounds the retained raw output per window.
	rawBufferCap = 512 * 1024
)

// Status is the window lifecycle state.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusExited   Status = "exited"
	StatusError    Status = "error"
)

// Window is one bridged PTY: the emulated screen, the reverse-path query
// responder, and a bounded raw tail of everything the agent wrote.
type Window struct {
	ID string

	mu        sync.Mutex
	screen    *vt.Screen
	queries   *vt.QueryRecord
	raw       []byte
	status    Status
	updatedAt time.Time
}

// NewWindow creates a window with a blank screen of the given geometry.
// Out-of-range dimensions clamp to the screen's supported bounds.
func NewWindow(id string, cols, rows int) *Window {
	screen := vt.NewScreen(cols, rows)
	return &Window{
		ID:        id,
		screen:    screen,
		queries:   vt.NewQueryRecord(screen),
		status:    StatusIdle,
		updatedAt: time.Now(),
	}
}

// Feed writes a PTY output chunk into the screen and returns the reply bytes
// any embedded terminal probes demand. The caller owns writing the reply back
// to the PTY.
func (w *Window) Feed(ctx context.Context, metrics *telemetry.Metrics, chunk []byte) []byte {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, _ = w.screen.Write(chunk) // parser never fails, it resynchronizes
	reply := w.queries.Respond(chunk)

	w.raw = append(w.raw, chunk...)
	if len(w.raw) > rawBufferCap {
		w.raw = w.raw[len(w.raw)-rawBufferCap:]
	}
	w.updatedAt = time.Now()

	if metrics != nil {
		metrics.VTBytes.Add(ctx, int64(len(chunk)))
	}
	return reply
}

// Resize changes the window geometry, clipping or padding content.
func (w *Window) Resize(cols, rows int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.screen.Resize(cols, rows)
	w.updatedAt = time.Now()
}

// Frame renders the styled snapshot at the window's current geometry.
func (w *Window) Frame() vt.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	cols, rows := w.screen.Size()
	return w.screen.Snapshot(cols, rows)
}

// Text renders the coarse plain-text snapshot.
func (w *Window) Text() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.screen.TextSnapshot()
}

// Raw returns a copy of the retained raw output tail.
func (w *Window) Raw() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]byte(nil), w.raw...)
}

// Status returns the lifecycle state.
func (w *Window) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SetStatus moves the window through its lifecycle.
func (w *Window) SetStatus(s Status) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = s
	w.updatedAt = time.Now()
}

// UpdatedAt reports the last write or status change.
func (w *Window) UpdatedAt() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.updatedAt
}
