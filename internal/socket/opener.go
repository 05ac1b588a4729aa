package socket

import (
	"context"

	nserr "netsend/internal/errors"
	"netsend/internal/report"
	"netsend/internal/resolve"
	"netsend/util"
)

// Opener creates connected sockets.  Every failure is reported to Sink
// once and returned as a *nserr.SocketError; nothing created by a failed
// attempt outlives the call.
type Opener struct {
	Sys      Sys
	Resolver resolve.Resolver
	Sink     report.Sink
}

// NewOpener returns an Opener with the given collaborators.  Nil
// arguments fall back to Unix, the system resolver and report.Discard.
func NewOpener(sys Sys, resolver resolve.Resolver, sink report.Sink) *Opener {
	if sys == nil {
		sys = Unix
	}
	if resolver == nil {
		resolver = resolve.New(0)
	}
	if sink == nil {
		sink = report.Discard
	}
	return &Opener{Sys: sys, Resolver: resolver, Sink: sink}
}

// Open creates a socket of the given family/type/protocol, resolves
// destination and port with matching hints, and connects to the first
// candidate.  It returns the connected descriptor, or Invalid and the
// reported error.
func (o *Opener) Open(ctx context.Context, destination, port string, family, socktype, protocol int) (int, error) {
	addr := util.FormatAddr(destination, port)

	fd, err := o.Sys.Socket(family, socktype, protocol)
	if err != nil {
		se := nserr.FromErrno(nserr.KeySocketFailed, addr, err)
		o.Sink.Report(se.Key, se.Code, se.Kind)
		return Invalid, se
	}

	endpoints, err := o.Resolver.Resolve(ctx, destination, port, resolve.Hints{
		Family:   family,
		SockType: socktype,
		Protocol: protocol,
	})
	if err == nil && len(endpoints) == 0 {
		err = &resolve.Error{Status: nserr.EAINoName, Destination: destination, Port: port}
	}
	if err != nil {
		se := &nserr.SocketError{
			Key:  nserr.KeyAddressFailed,
			Code: resolve.StatusOf(err),
			Kind: nserr.ResolverStatus,
			Addr: addr,
			Err:  err,
		}
		o.Sink.Report(se.Key, se.Code, se.Kind)
		o.Sys.Close(fd) //nolint:errcheck
		return Invalid, se
	}

	if err := o.Sys.Connect(fd, endpoints[0].Sockaddr()); err != nil {
		se := nserr.FromErrno(nserr.KeyConnectFailed, addr, err)
		o.Sink.Report(se.Key, se.Code, se.Kind)
		o.Sys.Close(fd) //nolint:errcheck
		return Invalid, se
	}

	return fd, nil
}
