package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	first := Interaction{
		Provider: "groq",
		Prompt:   "hi",
		Response: "hello",
		Elapsed:  120 * time.Millisecond,
	}
	second := Interaction{
		Provider: "gemini",
		Prompt:   "hi again",
		Response: "hello again",
		Elapsed:  300 * time.Millisecond,
		Cached:   true,
	}

	if err := l.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d rows, want 2", len(got))
	}

	// Newest first.
	if got[0].Provider != "gemini" || got[1].Provider != "groq" {
		t.Errorf("order = [%s, %s], want newest first", got[0].Provider, got[1].Provider)
	}
	if !got[0].Cached || got[1].Cached {
		t.Error("cached flag not round-tripped")
	}
	if got[1].Elapsed != 120*time.Millisecond {
		t.Errorf("elapsed = %v, want 120ms", got[1].Elapsed)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Record(ctx, Interaction{Provider: "groq", Prompt: "p", Response: "r"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := l.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Recent returned %d rows, want 3", len(got))
	}
}

func TestCountSince(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	old := Interaction{
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
		Provider:  "groq", Prompt: "p", Response: "r",
	}
	fresh := Interaction{Provider: "gemini", Prompt: "p", Response: "r"}

	if err := l.Record(ctx, old); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(ctx, fresh); err != nil {
		t.Fatalf("Record: %v", err)
	}

	n, err := l.CountSince(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 1 {
		t.Errorf("CountSince = %d, want 1", n)
	}
}

// Timestamps within the same second must still compare in time order. A
// variable-width fraction would put .5Z after .52Z lexicographically.
func TestSubsecondOrdering(t *testing.T) {
	t.Parallel()

	l := openTestLog(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	early := Interaction{
		CreatedAt: base.Add(500 * time.Millisecond),
		Provider:  "groq", Prompt: "p", Response: "r",
	}
	late := Interaction{
		CreatedAt: base.Add(520 * time.Millisecond),
		Provider:  "gemini", Prompt: "p", Response: "r",
	}

	if err := l.Record(ctx, early); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(ctx, late); err != nil {
		t.Fatalf("Record: %v", err)
	}

	cutoff := base.Add(510 * time.Millisecond)

	n, err := l.CountSince(ctx, cutoff)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 1 {
		t.Errorf("CountSince = %d, want 1 (only the later row)", n)
	}

	pruned, err := l.PruneBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if pruned != 1 {
		t.Errorf("PruneBefore removed %d rows, want 1 (only the earlier row)", pruned)
	}

	got, err := l.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Provider != "gemini" {
		t.Errorf("remaining rows = %+v, want only the later interaction", got)
	}
}
