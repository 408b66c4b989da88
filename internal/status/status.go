// Package status provides a thread-safe status tracker for the receiver
// daemon. It is read by HTTP handlers and lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/acremote/internal/command"
)

// Config contains daemon configuration for display.
type Config struct {
	Chip        string
	RxLine      int
	TickMs      int64
	IdleMs      int64
	HeartbeatMs int64 // 0 when disabled
	Broker      string
	HTTPAddr    string
}

// Counts tallies what happened to received bursts.
type Counts struct {
	Bursts         int
	Accepted       int
	Malformed      int
	ChecksumFailed int
	UnknownCode    int
}

// Rejection is why a burst did not produce a command.
type Rejection int

const (
	RejectMalformed Rejection = iota
	RejectChecksum
	RejectUnknownCode
)

// LastCommand is the most recent accepted command.
type LastCommand struct {
	ID         string
	ReceivedAt time.Time
	Command    command.Command
	Record     command.Record
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts        Counts
	Last          *LastCommand
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// BurstReceived counts a flushed burst before it is validated.
func (t *Tracker) BurstReceived() {
	t.mu.Lock()
	t.snap.Counts.Bursts++
	t.mu.Unlock()
}

// Rejected counts a burst that was dropped.
func (t *Tracker) Rejected(r Rejection) {
	t.mu.Lock()
	switch r {
	case RejectMalformed:
		t.snap.Counts.Malformed++
	case RejectChecksum:
		t.snap.Counts.ChecksumFailed++
	case RejectUnknownCode:
		t.snap.Counts.UnknownCode++
	}
	t.mu.Unlock()
}

// Accepted records a decoded command as the latest one.
func (t *Tracker) Accepted(last LastCommand) {
	t.mu.Lock()
	t.snap.Counts.Accepted++
	t.snap.Last = &last
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
