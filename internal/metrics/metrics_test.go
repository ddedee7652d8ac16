package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAttempt(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordAttempt("groq", "success")
	m.RecordAttempt("groq", "success")
	m.RecordAttempt("gemini", "retryable")

	got := testutil.ToFloat64(m.attempts.WithLabelValues("groq", "success"))
	if got != 2 {
		t.Errorf("groq success = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.attempts.WithLabelValues("gemini", "retryable"))
	if got != 1 {
		t.Errorf("gemini retryable = %v, want 1", got)
	}
}

func TestRecordDispatch(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordDispatch("succeeded", 100*time.Millisecond)
	m.RecordDispatch("exhausted", time.Second)

	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("succeeded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.dispatches.WithLabelValues("exhausted")); got != 1 {
		t.Errorf("exhausted = %v, want 1", got)
	}

	n := testutil.CollectAndCount(m.duration, "relay_dispatch_duration_seconds")
	if n != 1 {
		t.Errorf("histogram series = %d, want 1", n)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordAttempt("groq", "success")
	m.RecordDispatch("succeeded", time.Second)
}
