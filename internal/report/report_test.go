package report

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sys/unix"

	nserr "netsend/internal/errors"
	"netsend/internal/metrics"
	"netsend/util"
)

func TestLogSink_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(0)
	logger.SetOutput(&buf)
	logger.SetTimestamps(false)

	NewLogSink(logger).Report(nserr.KeyConnectFailed, int(unix.ECONNREFUSED), nserr.Errno)

	out := buf.String()
	for _, want := range []string{"[ERR]", "connect failed", "connection refused", "errno"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q missing %q", out, want)
		}
	}
}

func TestLogSink_ResolverStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := util.NewLogger(0)
	logger.SetOutput(&buf)
	logger.SetTimestamps(false)

	NewLogSink(logger).Report(nserr.KeyAddressFailed, nserr.EAINoName, nserr.ResolverStatus)

	if !strings.Contains(buf.String(), "name or service not known (resolver -2)") {
		t.Errorf("log line = %q", buf.String())
	}
}

func TestMetricsSink_Report(t *testing.T) {
	c := metrics.New()
	s := NewMetricsSink(c)

	s.Report(nserr.KeySendFailed, int(unix.EPIPE), nserr.Errno)
	s.Report(nserr.KeySendFailed, int(unix.EPIPE), nserr.Errno)
	s.Report(nserr.KeySocketFailed, int(unix.EMFILE), nserr.Errno)

	if got := c.ErrorsFor("send"); got != 2 {
		t.Errorf("send errors = %d, want 2", got)
	}
	if got := c.ErrorCount(); got != 3 {
		t.Errorf("errors = %d, want 3", got)
	}
}

func TestMetricsSink_NilCollector(t *testing.T) {
	// Should not panic.
	NewMetricsSink(nil).Report(nserr.KeySendFailed, 1, nserr.Errno)
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	s := Multi(&a, nil, &b)

	s.Report(nserr.KeyAddressFailed, nserr.EAIAgain, nserr.ResolverStatus)

	for name, r := range map[string]*Recorder{"a": &a, "b": &b} {
		entries := r.Entries()
		if len(entries) != 1 {
			t.Fatalf("%s: %d entries, want 1", name, len(entries))
		}
		want := Entry{Key: nserr.KeyAddressFailed, Code: nserr.EAIAgain, Kind: nserr.ResolverStatus}
		if entries[0] != want {
			t.Errorf("%s: got %+v, want %+v", name, entries[0], want)
		}
	}
}

func TestMulti_Collapses(t *testing.T) {
	if Multi() != Discard {
		t.Error("empty Multi should be Discard")
	}
	var r Recorder
	if Multi(nil, &r) != Sink(&r) {
		t.Error("single sink should be returned as-is")
	}
}

func TestFunc(t *testing.T) {
	var got nserr.MessageKey
	Func(func(k nserr.MessageKey, _ int, _ nserr.CodeKind) { got = k }).
		Report(nserr.KeySocketFailed, 0, nserr.Errno)
	if got != nserr.KeySocketFailed {
		t.Errorf("got %q", got)
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(nserr.KeySendFailed, int(unix.EPIPE), nserr.Errno)
		}()
	}
	wg.Wait()

	if got := r.Count(nserr.KeySendFailed); got != 50 {
		t.Errorf("count = %d, want 50", got)
	}
	r.Reset()
	if len(r.Entries()) != 0 {
		t.Error("Reset should clear entries")
	}
}
