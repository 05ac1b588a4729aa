package metrics

import "testing"

// BenchmarkCollector_MessageSent measures the overhead of recording a
// send (atomic operations).
func BenchmarkCollector_MessageSent(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.MessageSent(512)
	}
}

// BenchmarkCollector_RecordError measures the keyed error counter.
func BenchmarkCollector_RecordError(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.RecordError("send", "broken pipe")
	}
}

// BenchmarkCollector_Snapshot measures the cost of taking a snapshot.
func BenchmarkCollector_Snapshot(b *testing.B) {
	c := New()
	c.Opened()
	c.MessageSent(1024)
	c.RecordError("connect", "test")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Snapshot()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Opened()
		c.MessageSent(32768)
		c.RecordError("send", "test")
	}
}
