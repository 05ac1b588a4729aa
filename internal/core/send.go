package core

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"netsend/config"
	nserr "netsend/internal/errors"
	"netsend/internal/metrics"
	"netsend/internal/retry"
	"netsend/target"
	"netsend/util"
)

// SendMode opens a target, sends every input message over it and closes
// it.  With Config.Workers > 1 the messages are sent from that many
// goroutines sharing the one target.
type SendMode struct {
	Target  *target.Target
	Variant target.Variant
	Config  *config.Config
	Logger  *util.Logger
	Metrics *metrics.Collector

	// Backoff paces reopen attempts when Config.Reopen is set.  Nil
	// means retry.DefaultBackoff with Config.ReopenAttempts.
	Backoff *retry.Backoff

	// Stdin defaults to os.Stdin when nil and is only read when
	// Config.Messages is empty.  Stderr receives the --stats snapshot.
	Stdin  io.Reader
	Stderr io.Writer

	sent   atomic.Int64
	failed atomic.Int64

	reopenMu sync.Mutex
	reopens  atomic.Int64 // successful reopens; lets late workers skip
}

func (m *SendMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

// Run sends until the input is exhausted or ctx is cancelled.  A
// cancelled context is a normal stop.  Run fails if the target cannot be
// opened, if the target is lost for good, or if any message failed.
func (m *SendMode) Run(ctx context.Context) (err error) {
	defer func() {
		err = multierr.Append(err, m.Target.Close())
		if m.Config.Stats && m.Stderr != nil {
			fmt.Fprintln(m.Stderr, m.Metrics.JSON())
		}
	}()

	addr := util.FormatAddr(m.Target.Destination(), m.Target.Port())
	m.Logger.Verbose("opening %s (%s)", addr, m.Variant)
	if _, err := m.Target.Open(ctx, m.Variant); err != nil {
		return fmt.Errorf("open %s: %w", addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	msgs := make(chan []byte)
	readErr := make(chan error, 1)
	// The reader is detached: a Read blocked on a terminal cannot be
	// interrupted, so cancellation must not wait for it.
	go func() {
		readErr <- m.read(gctx, msgs)
		close(msgs)
	}()

	workers := m.Config.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}
					if err := m.send(gctx, msg); err != nil {
						return err
					}
				}
			}
		})
	}

	err = g.Wait()
	if err == nil {
		err = <-readErr
	}
	if errors.Is(err, context.Canceled) {
		m.Logger.Verbose("interrupted")
		err = nil
	}
	if err != nil {
		return err
	}

	sent, failed := m.sent.Load(), m.failed.Load()
	m.Logger.Verbose("sent %d message(s), %d failed", sent, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d message(s) failed", failed, sent+failed)
	}
	return nil
}

func (m *SendMode) backoff() *retry.Backoff {
	if m.Backoff != nil {
		return m.Backoff
	}
	b := retry.DefaultBackoff()
	b.MaxAttempts = m.Config.ReopenAttempts
	return b
}

// send delivers one message.  With Config.Reopen a failed send reopens
// the target and, if that worked, sends the message once more.
func (m *SendMode) send(ctx context.Context, msg []byte) error {
	gen := m.reopens.Load()
	n, err := m.Target.Send(msg)
	if err != nil && m.Config.Reopen && !nserr.Is(err, nserr.ErrTargetClosed) {
		m.Logger.Verbose("send failed (%v); reopening", err)
		if rerr := m.reopen(ctx, gen); rerr != nil {
			m.failed.Add(1)
			return rerr
		}
		n, err = m.Target.Send(msg)
	}
	if err != nil {
		m.failed.Add(1)
		if nserr.Is(err, nserr.ErrTargetClosed) {
			return err
		}
		return nil
	}
	if n < len(msg) {
		m.Logger.Warn("short send: %d of %d bytes", n, len(msg))
	}
	m.sent.Add(1)
	return nil
}

// reopen gets the target open again after a failed send.  The first
// attempt replaces the connection with Reopen; once that has left the
// target closed, later attempts Open it.  A worker whose failure was
// already repaired by another worker's reopen returns at once.
func (m *SendMode) reopen(ctx context.Context, gen int64) error {
	m.reopenMu.Lock()
	defer m.reopenMu.Unlock()

	if m.reopens.Load() != gen && m.Target.IsOpen() {
		return nil
	}

	err := m.backoff().Do(ctx, func(attempt int) error {
		if m.Target.IsOpen() {
			if m.Target.Reopen(ctx, m.Variant).IsOpen() {
				return nil
			}
			return nserr.ErrNotOpen
		}
		m.Logger.Verbose("reopen attempt %d", attempt)
		_, err := m.Target.Open(ctx, m.Variant)
		return retry.Classify(err)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("reopen %s: %w: %w", m.Variant, nserr.ErrNotOpen, err)
	}
	m.reopens.Add(1)
	return nil
}

// read splits the input into messages and hands each to out.
func (m *SendMode) read(ctx context.Context, out chan<- []byte) error {
	emit := func(msg []byte) error {
		select {
		case out <- msg:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if len(m.Config.Messages) > 0 {
		return emit([]byte(strings.Join(m.Config.Messages, " ")))
	}

	limit := m.Config.MaxMessageSize
	if limit < 1 {
		limit = config.DefaultMaxMessageSize
	}
	buf := util.GetBuf()
	defer util.PutBuf(buf)

	initial := *buf
	if limit+1 < len(initial) {
		initial = initial[: limit+1 : limit+1]
	}

	sc := bufio.NewScanner(m.stdin())
	sc.Buffer(initial[:0], limit+1)
	sc.Split(splitOn(m.Config.Delimiter))

	for sc.Scan() {
		tok := sc.Bytes()
		if len(tok) == 0 {
			continue
		}
		if err := emit(append([]byte(nil), tok...)); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("message exceeds --max-size %d bytes", limit)
		}
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// splitOn is bufio.ScanLines generalised to any delimiter byte.  With
// the newline delimiter a trailing carriage return is dropped as well.
func splitOn(delim byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.IndexByte(data, delim); i >= 0 {
			return i + 1, trimCR(data[:i], delim), nil
		}
		if atEOF {
			return len(data), trimCR(data, delim), nil
		}
		return 0, nil, nil
	}
}

func trimCR(b []byte, delim byte) []byte {
	if delim == '\n' && len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}
