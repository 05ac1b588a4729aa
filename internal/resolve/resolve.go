// Package resolve turns a destination/port pair into connectable socket
// endpoints.  It is the only place that talks to name resolution; the
// socket layer sees either a list of endpoints or a getaddrinfo-style
// status code.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	nserr "netsend/internal/errors"
)

// Hints pin what the caller is going to do with the result.  There are
// no flags and no canonical-name request.
type Hints struct {
	Family   int // unix.AF_INET, unix.AF_INET6 or unix.AF_UNSPEC
	SockType int // unix.SOCK_STREAM or unix.SOCK_DGRAM
	Protocol int
}

// Endpoint is one resolved candidate.
type Endpoint struct {
	Addr netip.AddrPort
}

// Family returns unix.AF_INET or unix.AF_INET6.
func (e Endpoint) Family() int {
	if e.Addr.Addr().Is4() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// Sockaddr builds the address structure handed to connect.
func (e Endpoint) Sockaddr() unix.Sockaddr {
	a := e.Addr.Addr()
	port := int(e.Addr.Port())
	if a.Is4() {
		return &unix.SockaddrInet4{Port: port, Addr: a.As4()}
	}
	return &unix.SockaddrInet6{Port: port, ZoneId: zoneIndex(a.Zone()), Addr: a.As16()}
}

func (e Endpoint) String() string { return e.Addr.String() }

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if n, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(n)
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	return 0
}

// Error is a resolution failure.  Status is in the resolver code space
// (nserr.EAI*), never an errno.
type Error struct {
	Status      int
	Destination string
	Port        string
	Err         error // underlying cause, may be nil
}

func (e *Error) Error() string {
	s := fmt.Sprintf("resolve %s: %s", net.JoinHostPort(e.Destination, e.Port),
		nserr.ResolverStatus.Describe(e.Status))
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// StatusOf extracts the resolver status from err, or nserr.EAIFail when
// err is not a resolution error.
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return nserr.EAIFail
}

// Resolver resolves a destination and port into candidate endpoints.
// On failure the returned error is an *Error.
type Resolver interface {
	Resolve(ctx context.Context, destination, port string, hints Hints) ([]Endpoint, error)
}

// Func adapts an ordinary function to the Resolver interface.
type Func func(ctx context.Context, destination, port string, hints Hints) ([]Endpoint, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, destination, port string, hints Hints) ([]Endpoint, error) {
	return f(ctx, destination, port, hints)
}

// NetResolver resolves through a *net.Resolver (the system resolver by
// default).
type NetResolver struct {
	Resolver *net.Resolver
	Timeout  time.Duration // 0 = no timeout beyond ctx
}

// New returns a NetResolver backed by net.DefaultResolver.
func New(timeout time.Duration) *NetResolver {
	return &NetResolver{Resolver: net.DefaultResolver, Timeout: timeout}
}

func (r *NetResolver) resolver() *net.Resolver {
	if r.Resolver != nil {
		return r.Resolver
	}
	return net.DefaultResolver
}

// Resolve returns every address of destination that matches hints,
// paired with the numeric port.  Literal addresses are returned without
// a lookup.
func (r *NetResolver) Resolve(ctx context.Context, destination, port string, hints Hints) ([]Endpoint, error) {
	fail := func(status int, err error) ([]Endpoint, error) {
		return nil, &Error{Status: status, Destination: destination, Port: port, Err: err}
	}

	var portNet string
	switch hints.SockType {
	case unix.SOCK_STREAM:
		portNet = "tcp"
	case unix.SOCK_DGRAM:
		portNet = "udp"
	default:
		return fail(nserr.EAISockType, nil)
	}

	var ipNet string
	switch hints.Family {
	case unix.AF_INET:
		ipNet = "ip4"
	case unix.AF_INET6:
		ipNet = "ip6"
	case unix.AF_UNSPEC:
		ipNet = "ip"
	default:
		return fail(nserr.EAIFamily, nil)
	}

	if destination == "" {
		return fail(nserr.EAINoName, nil)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	portNum, err := r.lookupPort(ctx, portNet, port)
	if err != nil {
		return fail(nserr.EAIService, err)
	}

	if addr, perr := netip.ParseAddr(destination); perr == nil {
		if !familyMatches(addr, hints.Family) {
			return fail(nserr.EAIAddrFamily, nil)
		}
		return []Endpoint{{Addr: netip.AddrPortFrom(addr, portNum)}}, nil
	}

	addrs, err := r.resolver().LookupNetIP(ctx, ipNet, destination)
	if err != nil {
		return fail(classify(err), err)
	}

	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		if hints.Family == unix.AF_INET {
			a = a.Unmap()
		}
		if !familyMatches(a, hints.Family) {
			continue
		}
		out = append(out, Endpoint{Addr: netip.AddrPortFrom(a, portNum)})
	}
	if len(out) == 0 {
		return fail(nserr.EAINoName, nil)
	}
	return out, nil
}

func (r *NetResolver) lookupPort(ctx context.Context, network, port string) (uint16, error) {
	if port == "" {
		return 0, fmt.Errorf("empty service")
	}
	if n, err := strconv.ParseUint(port, 10, 16); err == nil {
		return uint16(n), nil
	}
	n, err := r.resolver().LookupPort(ctx, network, port)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}

func familyMatches(a netip.Addr, family int) bool {
	switch family {
	case unix.AF_INET:
		return a.Is4()
	case unix.AF_INET6:
		return a.Is6()
	default:
		return a.IsValid()
	}
}

// classify maps a lookup failure onto a getaddrinfo status.
func classify(err error) int {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nserr.EAIAgain
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return nserr.EAINoName
		case dnsErr.IsTimeout, dnsErr.IsTemporary:
			return nserr.EAIAgain
		}
	}
	return nserr.EAIFail
}
