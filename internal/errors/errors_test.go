package errors

import (
	"fmt"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestSocketError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  SocketError
		want string
	}{
		{
			name: "errno with addr",
			err:  SocketError{Key: KeyConnectFailed, Code: int(unix.ECONNREFUSED), Kind: Errno, Addr: "127.0.0.1:9"},
			want: fmt.Sprintf("connect failed 127.0.0.1:9: connection refused (errno %d)", int(unix.ECONNREFUSED)),
		},
		{
			name: "resolver status",
			err:  SocketError{Key: KeyAddressFailed, Code: EAINoName, Kind: ResolverStatus},
			want: "address resolution failed: name or service not known (resolver -2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSocketError_Unwrap(t *testing.T) {
	err := FromErrno(KeySendFailed, "", unix.EPIPE)
	if !Is(err, unix.EPIPE) {
		t.Error("should unwrap to EPIPE")
	}
	if err.Code != int(unix.EPIPE) || err.Kind != Errno {
		t.Errorf("code/kind = %d/%s", err.Code, err.Kind)
	}
}

func TestFromErrno_Wrapped(t *testing.T) {
	inner := fmt.Errorf("sendmsg: %w", unix.EBADF)
	err := FromErrno(KeySendFailed, "", inner)
	if err.Code != int(unix.EBADF) {
		t.Errorf("code = %d, want %d", err.Code, int(unix.EBADF))
	}
}

func TestErrnoOf_NonErrno(t *testing.T) {
	if got := ErrnoOf(fmt.Errorf("plain")); got != 0 {
		t.Errorf("ErrnoOf(plain) = %d, want 0", got)
	}
}

func TestCodeKind_Describe(t *testing.T) {
	if got := ResolverStatus.Describe(EAIAgain); !strings.Contains(got, "temporary") {
		t.Errorf("EAI_AGAIN described as %q", got)
	}
	if got := ResolverStatus.Describe(-99); !strings.Contains(got, "-99") {
		t.Errorf("unknown status described as %q", got)
	}
	if got := Errno.Describe(0); got != "unknown error" {
		t.Errorf("errno 0 described as %q", got)
	}
}

func TestMessageKey_Message(t *testing.T) {
	keys := map[MessageKey]string{
		KeySocketFailed:  "socket creation failed",
		KeyAddressFailed: "address resolution failed",
		KeyConnectFailed: "connect failed",
		KeySendFailed:    "send failed",
	}
	for k, want := range keys {
		if got := k.Message(); got != want {
			t.Errorf("%s: got %q, want %q", k, got, want)
		}
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err:  ConfigError{Field: "workers", Value: 0, Message: "must be at least 1", Hint: "use -j 1"},
			want: "config: --workers=0: must be at least 1\n  hint: use -j 1",
		},
		{
			name: "nil value",
			err:  ConfigError{Field: "port", Message: "is required"},
			want: "config: --port: is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", FromErrno(KeyConnectFailed, "", unix.ECONNREFUSED), true},
		{"epipe", FromErrno(KeySendFailed, "", unix.EPIPE), true},
		{"ebadf", FromErrno(KeySendFailed, "", unix.EBADF), false},
		{"eai again", &SocketError{Key: KeyAddressFailed, Code: EAIAgain, Kind: ResolverStatus}, true},
		{"eai noname", &SocketError{Key: KeyAddressFailed, Code: EAINoName, Kind: ResolverStatus}, false},
		{"wrapped", fmt.Errorf("open: %w", FromErrno(KeyConnectFailed, "", unix.ETIMEDOUT)), true},
		{"plain", New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable = %v, want %v", got, tt.want)
			}
		})
	}
}
