package retry

import (
	"context"
	"testing"

	"golang.org/x/sys/unix"

	nserr "netsend/internal/errors"
)

// BenchmarkBackoff_ImmediateSuccess measures overhead when the first
// reopen succeeds (the common case).
func BenchmarkBackoff_ImmediateSuccess(b *testing.B) {
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(_ int) error { return nil }) //nolint:errcheck
	}
}

// BenchmarkClassify measures the permanent/transient decision.
func BenchmarkClassify(b *testing.B) {
	err := nserr.FromErrno(nserr.KeyConnectFailed, "127.0.0.1:9", unix.ECONNREFUSED)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Classify(err)
	}
}
