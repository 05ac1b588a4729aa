// Package metrics provides lightweight, lock-free counters for tracking
// the runtime statistics of a network target.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one or more targets.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	opensTotal   atomic.Int64
	openFailures atomic.Int64
	reopensTotal atomic.Int64
	closesTotal  atomic.Int64
	openTargets  atomic.Int64
	messagesSent atomic.Int64
	bytesOut     atomic.Int64
	sendFailures atomic.Int64
	errorsTotal  atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	errorsByKey  map[string]int64
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{
		startTime:   time.Now(),
		errorsByKey: make(map[string]int64),
	}
}

// ── Connection metrics ───────────────────────────────────────────────

// Opened records a successful open or reopen.
func (c *Collector) Opened() {
	if c == nil {
		return
	}
	c.opensTotal.Add(1)
	c.openTargets.Add(1)
}

// OpenFailed records an open attempt that left the target closed.
func (c *Collector) OpenFailed() {
	if c == nil {
		return
	}
	c.openFailures.Add(1)
}

// Reopened records a reopen of an open target.
func (c *Collector) Reopened() {
	if c == nil {
		return
	}
	c.reopensTotal.Add(1)
}

// Closed records the release of a descriptor.
func (c *Collector) Closed() {
	if c == nil {
		return
	}
	c.closesTotal.Add(1)
	c.openTargets.Add(-1)
}

// OpenTargets returns the number of descriptors currently held.
func (c *Collector) OpenTargets() int64 {
	if c == nil {
		return 0
	}
	return c.openTargets.Load()
}

// TotalOpens returns the lifetime count of successful opens.
func (c *Collector) TotalOpens() int64 {
	if c == nil {
		return 0
	}
	return c.opensTotal.Load()
}

// TotalReopens returns the lifetime reopen count.
func (c *Collector) TotalReopens() int64 {
	if c == nil {
		return 0
	}
	return c.reopensTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// MessageSent records one successful send of n bytes.
func (c *Collector) MessageSent(n int64) {
	if c == nil {
		return
	}
	c.messagesSent.Add(1)
	c.bytesOut.Add(n)
}

// SendFailed records a send that returned an error.
func (c *Collector) SendFailed() {
	if c == nil {
		return
	}
	c.sendFailures.Add(1)
}

// MessagesSent returns the number of successful sends.
func (c *Collector) MessagesSent() int64 {
	if c == nil {
		return 0
	}
	return c.messagesSent.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// SendFailures returns the number of failed sends.
func (c *Collector) SendFailures() int64 {
	if c == nil {
		return 0
	}
	return c.sendFailures.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter for key and stores the message.
func (c *Collector) RecordError(key, msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.errorsByKey[key]++
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ErrorsFor returns the number of errors recorded under key.
func (c *Collector) ErrorsFor(key string) int64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errorsByKey[key]
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string           `json:"uptime"`
	OpensTotal       int64            `json:"opens_total"`
	OpenFailures     int64            `json:"open_failures"`
	ReopensTotal     int64            `json:"reopens_total"`
	ClosesTotal      int64            `json:"closes_total"`
	OpenTargets      int64            `json:"open_targets"`
	MessagesSent     int64            `json:"messages_sent"`
	BytesOut         int64            `json:"bytes_out"`
	SendFailures     int64            `json:"send_failures"`
	ErrorsTotal      int64            `json:"errors_total"`
	ErrorsByKey      map[string]int64 `json:"errors_by_key,omitempty"`
	LastError        string           `json:"last_error,omitempty"`
	LastErrorMessage string           `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:       time.Since(c.startTime).Truncate(time.Second).String(),
		OpensTotal:   c.opensTotal.Load(),
		OpenFailures: c.openFailures.Load(),
		ReopensTotal: c.reopensTotal.Load(),
		ClosesTotal:  c.closesTotal.Load(),
		OpenTargets:  c.openTargets.Load(),
		MessagesSent: c.messagesSent.Load(),
		BytesOut:     c.bytesOut.Load(),
		SendFailures: c.sendFailures.Load(),
		ErrorsTotal:  c.errorsTotal.Load(),
	}
	if len(c.errorsByKey) > 0 {
		s.ErrorsByKey = make(map[string]int64, len(c.errorsByKey))
		for k, v := range c.errorsByKey {
			s.ErrorsByKey[k] = v
		}
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
