package network

import (
	"fmt"
	"sync"
	"time"
)

// Status is one state of the connection lifecycle.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusInitializing Status = "initializing"
	StatusWaiting      Status = "waiting"    // host, listening for the guest
	StatusConnecting   Status = "connecting" // guest, dialing the host
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// legal maps each status to the statuses reachable from it. Error is
// terminal for the attempt; a new attempt starts from initializing.
var legal = map[Status][]Status{
	StatusDisconnected: {StatusInitializing, StatusConnected},
	StatusInitializing: {StatusWaiting, StatusConnecting, StatusError},
	StatusWaiting:      {StatusConnected, StatusError},
	StatusConnecting:   {StatusConnected, StatusError},
	StatusConnected:    {StatusDisconnected, StatusError},
	StatusError:        {StatusInitializing},
}

// Tracker is the connection status machine. It is safe for concurrent
// use: the session's read loop reports losses while the application
// drives handshakes.
type Tracker struct {
	mu             sync.Mutex
	status         Status
	disconnectedAt time.Time
	watchers       []chan Status
}

// NewTracker starts disconnected.
func NewTracker() *Tracker {
	return &Tracker{status: StatusDisconnected}
}

// Status reports the current state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// DisconnectedAt reports when the last connected session was lost; the
// zero time if it never was.
func (t *Tracker) DisconnectedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disconnectedAt
}

// Watch returns a channel receiving every transition. The channel is
// buffered; a watcher that stops draining loses updates, never blocks
// the tracker.
func (t *Tracker) Watch() <-chan Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := make(chan Status, 8)
	t.watchers = append(t.watchers, ch)
	return ch
}

// Transition moves to next, rejecting anything the lifecycle does not
// allow.
func (t *Tracker) Transition(next Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !reachable(t.status, next) {
		return fmt.Errorf("illegal status transition %s -> %s", t.status, next)
	}
	if t.status == StatusConnected && next == StatusDisconnected {
		t.disconnectedAt = time.Now()
	}
	t.status = next
	for _, ch := range t.watchers {
		select {
		case ch <- next:
		default:
		}
	}
	return nil
}

func reachable(from, to Status) bool {
	for _, s := range legal[from] {
		if s == to {
			return true
		}
	}
	return false
}
