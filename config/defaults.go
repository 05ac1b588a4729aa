package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultProtocol is used when neither -u nor NETSEND_PROTOCOL is given.
	DefaultProtocol = "tcp"

	// DefaultWorkers is the number of goroutines sending concurrently on
	// the shared target.
	DefaultWorkers = 1

	// MaxWorkers caps -j to keep a typo from spawning thousands of
	// goroutines contending for one lock.
	MaxWorkers = 256

	// DefaultReopenAttempts bounds the opens tried after one failed send
	// when reopening is enabled.
	DefaultReopenAttempts = 3

	// MaxUDPPayload is the largest payload of a single IPv4 UDP datagram.
	MaxUDPPayload = 65507

	// DefaultMaxMessageSize is the largest message read from input.  It
	// matches MaxUDPPayload so the default is valid for both protocols.
	DefaultMaxMessageSize = MaxUDPPayload

	// DefaultDelimiter separates messages read from stdin.
	DefaultDelimiter = '\n'

	// DefaultResolveTimeout bounds name resolution; 0 disables the bound.
	DefaultResolveTimeout = 10 * time.Second
)
