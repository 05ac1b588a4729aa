// Package config defines the runtime configuration for netsend and the
// helpers that parse and validate it.
package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/multierr"

	nserr "netsend/internal/errors"
	"netsend/util"
)

// Config holds every tuneable for a single netsend run.
type Config struct {
	// ── Destination ──────────────────────────────────────────────────
	Destination    string
	Port           string // numeric port or service name
	Protocol       string // "tcp" or "udp"
	IPv6           bool
	ResolveTimeout time.Duration

	// ── Sending ──────────────────────────────────────────────────────
	Messages       []string // positional messages; empty means read stdin
	Delimiter      byte
	MaxMessageSize int
	Workers        int
	Reopen         bool // reopen and resend after a failed send
	ReopenAttempts int  // opens tried per failed send with Reopen

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	Stats   bool
	DryRun  bool
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Protocol:       DefaultProtocol,
		ResolveTimeout: DefaultResolveTimeout,
		Delimiter:      DefaultDelimiter,
		MaxMessageSize: DefaultMaxMessageSize,
		Workers:        DefaultWorkers,
		ReopenAttempts: DefaultReopenAttempts,
	}
}

// UDP reports whether the configured protocol is UDP.
func (c *Config) UDP() bool { return strings.EqualFold(c.Protocol, "udp") }

// ── Delimiter parser ─────────────────────────────────────────────────

// ParseDelimiter accepts a single byte or one of the escapes \n, \r,
// \t and \0.
func ParseDelimiter(s string) (byte, error) {
	switch s {
	case `\n`:
		return '\n', nil
	case `\r`:
		return '\r', nil
	case `\t`:
		return '\t', nil
	case `\0`:
		return 0, nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("delimiter %q must be a single byte or one of \\n \\r \\t \\0", s)
	}
	return s[0], nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.  It
// reports every problem at once; use multierr.Errors to list them.
func (c *Config) Validate() error {
	var err error

	if c.Destination == "" {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "host",
			Message: "destination is required",
			Hint:    "netsend <host> <port> [message...]",
		})
	}

	switch {
	case c.Port == "":
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "port",
			Message: "destination port is required",
		})
	case isDigits(c.Port):
		if !util.IsNumericPort(c.Port) {
			err = multierr.Append(err, &nserr.ConfigError{
				Field:   "port",
				Value:   c.Port,
				Message: "out of range 1-65535",
			})
		}
	case strings.ContainsAny(c.Port, " \t/:"):
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "not a port number or service name",
		})
	}

	proto := strings.ToLower(c.Protocol)
	if proto != "tcp" && proto != "udp" {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "protocol",
			Value:   c.Protocol,
			Message: "must be tcp or udp",
			Hint:    "use -u for UDP; TCP is the default",
		})
	}

	if net.ParseIP(c.Destination) != nil {
		isV4 := !util.IsIPv6Literal(c.Destination)
		if c.IPv6 && isV4 {
			err = multierr.Append(err, &nserr.ConfigError{
				Field:   "ipv6",
				Value:   c.Destination,
				Message: "IPv4 address with IPv6 requested",
				Hint:    "drop -6 or use an IPv6 address",
			})
		}
		if !c.IPv6 && !isV4 {
			err = multierr.Append(err, &nserr.ConfigError{
				Field:   "ipv6",
				Value:   c.Destination,
				Message: "IPv6 address without IPv6 requested",
				Hint:    "add -6",
			})
		}
	}

	if c.Workers < 1 || c.Workers > MaxWorkers {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "workers",
			Value:   c.Workers,
			Message: fmt.Sprintf("must be between 1 and %d", MaxWorkers),
		})
	}

	if c.ReopenAttempts < 1 {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "reopen-attempts",
			Value:   c.ReopenAttempts,
			Message: "must be at least 1",
		})
	}

	if c.MaxMessageSize < 1 {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "max-size",
			Value:   c.MaxMessageSize,
			Message: "must be positive",
		})
	} else if c.UDP() && c.MaxMessageSize > MaxUDPPayload {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "max-size",
			Value:   c.MaxMessageSize,
			Message: "larger than a UDP datagram can carry",
			Hint:    fmt.Sprintf("use --max-size %d or less with -u", MaxUDPPayload),
		})
	}

	if c.ResolveTimeout < 0 {
		err = multierr.Append(err, &nserr.ConfigError{
			Field:   "resolve-timeout",
			Value:   c.ResolveTimeout,
			Message: "must not be negative",
		})
	}

	return err
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
