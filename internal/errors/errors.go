// Package errors provides domain-specific error types for netsend.
//
// Socket failures carry the same triple that is handed to the error
// sink (message key, numeric code, code kind) so callers can inspect a
// returned error exactly the way a sink sees the report.
package errors

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTargetClosed = errors.New("target is closed")
	ErrNotOpen      = errors.New("target is not open")
)

// ── Message keys and code kinds ──────────────────────────────────────

// MessageKey identifies which operation failed.
type MessageKey string

const (
	KeySocketFailed  MessageKey = "socket"
	KeyAddressFailed MessageKey = "getaddrinfo"
	KeyConnectFailed MessageKey = "connect"
	KeySendFailed    MessageKey = "send"
)

// Message returns the human-readable text for the key.
func (k MessageKey) Message() string {
	switch k {
	case KeySocketFailed:
		return "socket creation failed"
	case KeyAddressFailed:
		return "address resolution failed"
	case KeyConnectFailed:
		return "connect failed"
	case KeySendFailed:
		return "send failed"
	default:
		return string(k) + " failed"
	}
}

// CodeKind tells which code space a numeric code belongs to.
type CodeKind int

const (
	// Errno codes come from the operating system.
	Errno CodeKind = iota
	// ResolverStatus codes are getaddrinfo-style EAI_* values.
	ResolverStatus
)

func (k CodeKind) String() string {
	switch k {
	case Errno:
		return "errno"
	case ResolverStatus:
		return "resolver"
	default:
		return fmt.Sprintf("CodeKind(%d)", int(k))
	}
}

// Describe renders code in the space named by k.
func (k CodeKind) Describe(code int) string {
	switch k {
	case Errno:
		if code == 0 {
			return "unknown error"
		}
		return unix.Errno(code).Error()
	case ResolverStatus:
		if s, ok := resolverStatusText[code]; ok {
			return s
		}
		return fmt.Sprintf("unknown resolver status %d", code)
	default:
		return fmt.Sprintf("code %d", code)
	}
}

// getaddrinfo status codes, glibc numbering.
const (
	EAIBadFlags   = -1
	EAINoName     = -2
	EAIAgain      = -3
	EAIFail       = -4
	EAIFamily     = -6
	EAISockType   = -7
	EAIService    = -8
	EAIAddrFamily = -9
	EAIMemory     = -10
	EAISystem     = -11
	EAIOverflow   = -12
)

var resolverStatusText = map[int]string{
	EAIBadFlags:   "bad value for ai_flags",
	EAINoName:     "name or service not known",
	EAIAgain:      "temporary failure in name resolution",
	EAIFail:       "non-recoverable failure in name resolution",
	EAIFamily:     "ai_family not supported",
	EAISockType:   "ai_socktype not supported",
	EAIService:    "servname not supported for ai_socktype",
	EAIAddrFamily: "address family for hostname not supported",
	EAIMemory:     "memory allocation failure",
	EAISystem:     "system error",
	EAIOverflow:   "argument buffer overflow",
}

// ── Structured error types ───────────────────────────────────────────

// SocketError is a failure reported by the socket layer.
type SocketError struct {
	Key  MessageKey
	Code int
	Kind CodeKind
	Addr string // destination:port involved, if known
	Err  error  // underlying error (unix.Errno, resolver error, ...)
}

func (e *SocketError) Error() string {
	s := e.Key.Message()
	if e.Addr != "" {
		s += " " + e.Addr
	}
	return fmt.Sprintf("%s: %s (%s %d)", s, e.Kind.Describe(e.Code), e.Kind, e.Code)
}

func (e *SocketError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// FromErrno builds a SocketError for an OS-level failure.  The errno is
// extracted from err; a non-errno error is recorded with code 0.
func FromErrno(key MessageKey, addr string, err error) *SocketError {
	return &SocketError{
		Key:  key,
		Code: ErrnoOf(err),
		Kind: Errno,
		Addr: addr,
		Err:  err,
	}
}

// ErrnoOf returns the errno carried by err, or 0.
func ErrnoOf(err error) int {
	var errno unix.Errno
	if errors.As(err, &errno) {
		return int(errno)
	}
	return 0
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether a caller could reasonably reopen and try
// again.  The core itself never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *SocketError
	if errors.As(err, &se) {
		switch se.Kind {
		case ResolverStatus:
			return se.Code == EAIAgain
		case Errno:
			switch unix.Errno(se.Code) {
			case unix.ECONNREFUSED, unix.ECONNRESET, unix.EPIPE,
				unix.ETIMEDOUT, unix.EHOSTUNREACH, unix.ENETUNREACH,
				unix.ENOTCONN, unix.EAGAIN, unix.EINTR:
				return true
			}
		}
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout()
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
