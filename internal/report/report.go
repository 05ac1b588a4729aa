// Package report is the error channel of the socket layer.  Every
// OS-level failure is handed to a Sink exactly once, at the point where
// it is detected, as a (message key, code, code kind) triple.
//
// Sinks are injected per target rather than installed process-wide, so
// tests can substitute a Recorder and assert on reported codes.
package report

import (
	"sync"

	nserr "netsend/internal/errors"
	"netsend/internal/metrics"
	"netsend/util"
)

// Sink receives failure reports.  Implementations must be safe for
// concurrent use: sends on a shared target report from many goroutines.
type Sink interface {
	Report(key nserr.MessageKey, code int, kind nserr.CodeKind)
}

// Func adapts an ordinary function to the Sink interface.
type Func func(key nserr.MessageKey, code int, kind nserr.CodeKind)

// Report calls f.
func (f Func) Report(key nserr.MessageKey, code int, kind nserr.CodeKind) { f(key, code, kind) }

type discard struct{}

func (discard) Report(nserr.MessageKey, int, nserr.CodeKind) {}

// Discard drops every report.
var Discard Sink = discard{}

// ── Logger sink ──────────────────────────────────────────────────────

// LogSink writes each report to a Logger at error level.
type LogSink struct {
	Logger *util.Logger
}

// NewLogSink returns a sink that logs through logger.
func NewLogSink(logger *util.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

// Report logs the failure with its code rendered in the right code space.
func (s *LogSink) Report(key nserr.MessageKey, code int, kind nserr.CodeKind) {
	s.Logger.Error("%s: %s (%s %d)", key.Message(), kind.Describe(code), kind, code)
}

// ── Metrics sink ─────────────────────────────────────────────────────

// MetricsSink counts reports per message key.
type MetricsSink struct {
	Metrics *metrics.Collector
}

// NewMetricsSink returns a sink that records into c.  A nil collector
// turns the sink into a no-op.
func NewMetricsSink(c *metrics.Collector) *MetricsSink {
	return &MetricsSink{Metrics: c}
}

// Report increments the error counter for key.
func (s *MetricsSink) Report(key nserr.MessageKey, code int, kind nserr.CodeKind) {
	s.Metrics.RecordError(string(key), kind.Describe(code))
}

// ── Fan-out ──────────────────────────────────────────────────────────

type multi []Sink

func (m multi) Report(key nserr.MessageKey, code int, kind nserr.CodeKind) {
	for _, s := range m {
		s.Report(key, code, kind)
	}
}

// Multi returns a sink that forwards every report to each non-nil sink
// in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

// ── Recorder ─────────────────────────────────────────────────────────

// Entry is one recorded report.
type Entry struct {
	Key  nserr.MessageKey
	Code int
	Kind nserr.CodeKind
}

// Recorder keeps every report in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Report appends the report.
func (r *Recorder) Report(key nserr.MessageKey, code int, kind nserr.CodeKind) {
	r.mu.Lock()
	r.entries = append(r.entries, Entry{Key: key, Code: code, Kind: kind})
	r.mu.Unlock()
}

// Entries returns a copy of the recorded reports.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many reports were recorded under key.
func (r *Recorder) Count(key nserr.MessageKey) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Key == key {
			n++
		}
	}
	return n
}

// Reset forgets every recorded report.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}
