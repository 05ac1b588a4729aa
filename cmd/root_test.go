package cmd

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out := captureStdout(t)
	if err := Execute(context.Background(), []string{"--version"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "netsend ") {
		t.Errorf("version output = %q", out.String())
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	t.Setenv("NETSEND_HOST", "")
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and prints the plan.
func TestExecute_DryRun(t *testing.T) {
	out := captureStdout(t)
	err := Execute(context.Background(), []string{
		"--dry-run", "-u", "-6", "-j", "3", "-d", `\0`, "::1", "514",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"[::1]:514", "udp6", "stdin", "workers 3", `'\x00'`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("plan %q missing %q", out.String(), want)
		}
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing port", []string{"--dry-run", "localhost"}, "--port"},
		{"zero workers", []string{"--dry-run", "-j", "0", "localhost", "514"}, "--workers=0"},
		{"v4 literal with -6", []string{"--dry-run", "-6", "127.0.0.1", "514"}, "--ipv6"},
		{"udp oversize", []string{"--dry-run", "-u", "--max-size", "70000", "localhost", "514"}, "--max-size"},
		{"zero reopen attempts", []string{"--dry-run", "-r", "--reopen-attempts", "0", "localhost", "514"}, "--reopen-attempts=0"},
		{"bad delimiter", []string{"--dry-run", "-d", "ab", "localhost", "514"}, "delimiter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Execute(context.Background(), tt.args)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_EnvOverlay verifies NETSEND_* variables apply and flags win.
func TestExecute_EnvOverlay(t *testing.T) {
	t.Setenv("NETSEND_HOST", "collector.example.com")
	t.Setenv("NETSEND_PORT", "6000")
	t.Setenv("NETSEND_PROTOCOL", "udp")
	t.Setenv("NETSEND_WORKERS", "2")

	out := captureStdout(t)
	if err := Execute(context.Background(), []string{"--dry-run", "-j", "5"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"collector.example.com:6000", "udp4", "workers 5"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("plan %q missing %q", out.String(), want)
		}
	}

	out.Reset()
	if err := Execute(context.Background(), []string{"--dry-run", "-u=false"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "tcp4") {
		t.Errorf("-u=false should override NETSEND_PROTOCOL: %q", out.String())
	}
}

// TestExecute_SendUDP sends one datagram end to end over loopback.
func TestExecute_SendUDP(t *testing.T) {
	pc, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()
	port := strconv.Itoa(pc.LocalAddr().(*net.UDPAddr).Port)

	err = Execute(context.Background(), []string{"-u", "127.0.0.1", port, "<13>hello", "world"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	buf := make([]byte, 64)
	pc.SetReadDeadline(time.Now().Add(3 * time.Second)) //nolint:errcheck
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(buf[:n]); got != "<13>hello world" {
		t.Errorf("datagram = %q", got)
	}
}

// TestExecute_ConnectRefused verifies an open failure fails the run.
func TestExecute_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	err = Execute(context.Background(), []string{"127.0.0.1", port, "hello"})
	if err == nil {
		t.Fatal("expected connect failure")
	}
	if !strings.Contains(err.Error(), "connect failed") {
		t.Errorf("error = %v", err)
	}
}
