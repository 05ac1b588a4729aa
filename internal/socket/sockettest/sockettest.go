// Package sockettest provides in-memory fakes of the socket layer's
// collaborators for use in tests.
package sockettest

import (
	"context"
	"net/netip"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"netsend/internal/resolve"
)

// Sys is a fake socket.Sys.  Descriptors are plain counters starting at
// 100; nothing touches the kernel.  Set the *Err fields to make the
// matching call fail.
type Sys struct {
	SocketErr  error
	ConnectErr error
	SendErr    error
	SendLimit  int           // if > 0, Send accepts at most this many bytes
	SendDelay  time.Duration // held inside Send, to widen race windows

	mu        sync.Mutex
	next      int
	open      map[int]bool
	sockets   int
	connects  int
	closes    int
	closed    []int
	sent      [][]byte
	sentOn    []int
	connected []unix.Sockaddr

	inflight atomic.Int32
	overlap  atomic.Bool
}

// NewSys returns a fake with no failures configured.
func NewSys() *Sys {
	return &Sys{next: 100, open: make(map[int]bool)}
}

func (s *Sys) Socket(domain, typ, proto int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sockets++
	if s.SocketErr != nil {
		return -1, s.SocketErr
	}
	fd := s.next
	s.next++
	s.open[fd] = true
	return fd, nil
}

func (s *Sys) Connect(fd int, sa unix.Sockaddr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	s.connected = append(s.connected, sa)
	if !s.open[fd] {
		return unix.EBADF
	}
	return s.ConnectErr
}

// Send records p.  Overlapping calls are remembered and reported by
// Overlapped.
func (s *Sys) Send(fd int, p []byte, flags int) (int, error) {
	if s.inflight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inflight.Add(-1)

	if s.SendDelay > 0 {
		time.Sleep(s.SendDelay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open[fd] {
		return 0, unix.EBADF
	}
	if s.SendErr != nil {
		return 0, s.SendErr
	}
	n := len(p)
	if s.SendLimit > 0 && n > s.SendLimit {
		n = s.SendLimit
	}
	s.sent = append(s.sent, append([]byte(nil), p[:n]...))
	s.sentOn = append(s.sentOn, fd)
	return n, nil
}

func (s *Sys) Close(fd int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	s.closed = append(s.closed, fd)
	if !s.open[fd] {
		return unix.EBADF
	}
	delete(s.open, fd)
	return nil
}

// SetConnectErr changes the connect failure under the fake's lock.
func (s *Sys) SetConnectErr(err error) {
	s.mu.Lock()
	s.ConnectErr = err
	s.mu.Unlock()
}

// SetSendErr changes the send failure under the fake's lock.
func (s *Sys) SetSendErr(err error) {
	s.mu.Lock()
	s.SendErr = err
	s.mu.Unlock()
}

// Counts returns how many times each primitive was called.
func (s *Sys) Counts() (sockets, connects, sends, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sockets, s.connects, len(s.sent), s.closes
}

// Closed returns the descriptors passed to Close, in order.
func (s *Sys) Closed() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.closed...)
}

// Sent returns a copy of every accepted payload, in order.
func (s *Sys) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.sent))
	for i, p := range s.sent {
		out[i] = append([]byte(nil), p...)
	}
	return out
}

// SentOn returns the descriptor used by each accepted send.
func (s *Sys) SentOn() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.sentOn...)
}

// Connected returns the addresses passed to Connect.
func (s *Sys) Connected() []unix.Sockaddr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]unix.Sockaddr(nil), s.connected...)
}

// OpenFDs returns the number of descriptors created and not closed.
func (s *Sys) OpenFDs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

// Overlapped reports whether two Send calls were ever in flight at once.
func (s *Sys) Overlapped() bool { return s.overlap.Load() }

// Resolver is a fake resolve.Resolver.  With Status == 0 it resolves
// every destination to Addr (127.0.0.1 or ::1 by family, if unset) and
// the numeric port; otherwise it fails with Status.
type Resolver struct {
	Status int
	Addr   netip.Addr

	calls atomic.Int32
}

// Resolve implements resolve.Resolver.
func (r *Resolver) Resolve(ctx context.Context, destination, port string, hints resolve.Hints) ([]resolve.Endpoint, error) {
	r.calls.Add(1)
	if r.Status != 0 {
		return nil, &resolve.Error{Status: r.Status, Destination: destination, Port: port}
	}
	addr := r.Addr
	if !addr.IsValid() {
		addr = netip.IPv6Loopback()
		if hints.Family == unix.AF_INET {
			addr = netip.MustParseAddr("127.0.0.1")
		}
	}
	p, _ := strconv.ParseUint(port, 10, 16)
	return []resolve.Endpoint{{Addr: netip.AddrPortFrom(addr, uint16(p))}}, nil
}

// Calls returns how many times Resolve was called.
func (r *Resolver) Calls() int { return int(r.calls.Load()) }
