package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nyxmora/relay/internal/provider"
)

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.APIKey = "hf-test"
	cfg.BaseURL = srv.URL
	if cfg.WarmupDelay == 0 {
		cfg.WarmupDelay = time.Millisecond
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("New with empty key succeeded, want error")
	}
}

func TestModelOrder(t *testing.T) {
	t.Parallel()

	c, err := New(Config{
		APIKey:         "hf-test",
		Model:          "primary",
		FallbackModels: []string{"fb1", "fb2"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	want := []string{"primary", "fb1", "fb2"}
	if len(c.models) != len(want) {
		t.Fatalf("models = %v, want %v", c.models, want)
	}
	for i := range want {
		if c.models[i] != want[i] {
			t.Errorf("models[%d] = %q, want %q", i, c.models[i], want[i])
		}
	}
}

func TestCompleteFlattensPrompt(t *testing.T) {
	t.Parallel()

	var gotReq inferenceRequest
	c := newTestClient(t, Config{Model: "m", FallbackModels: []string{}},
		func(w http.ResponseWriter, r *http.Request) {
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Errorf("decode request: %v", err)
			}
			_, _ = w.Write([]byte(`[{"generated_text":"ok"}]`))
		})

	text, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{
			{Role: provider.MessageRoleSystem, Content: "be brief"},
			{Role: provider.MessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want ok", text)
	}
	if !strings.Contains(gotReq.Inputs, "System: be brief") ||
		!strings.Contains(gotReq.Inputs, "User: ping") {
		t.Errorf("prompt not flattened with role labels: %q", gotReq.Inputs)
	}
	if gotReq.Parameters.ReturnFullText {
		t.Error("return_full_text = true, want false")
	}
}

func TestCompleteFallsBackOnGoneModel(t *testing.T) {
	t.Parallel()

	var models []string
	c := newTestClient(t, Config{Model: "old", FallbackModels: []string{"new"}},
		func(w http.ResponseWriter, r *http.Request) {
			model := strings.TrimPrefix(r.URL.Path, "/")
			models = append(models, model)
			if model == "old" {
				w.WriteHeader(http.StatusGone)
				_, _ = w.Write([]byte(`{"error":"model retired"}`))
				return
			}
			_, _ = w.Write([]byte(`[{"generated_text":"from new"}]`))
		})

	text, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "from new" {
		t.Errorf("text = %q, want from new", text)
	}
	if len(models) != 2 || models[0] != "old" || models[1] != "new" {
		t.Errorf("model order = %v, want [old new]", models)
	}
}

func TestCompleteAllModelsGone(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, Config{Model: "a", FallbackModels: []string{"b"}},
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		})

	_, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if !errors.Is(err, provider.ErrModelsExhausted) {
		t.Fatalf("error = %v, want ErrModelsExhausted", err)
	}
	// The raw typed error stays reachable under the sentinel.
	var pe *provider.Error
	if !errors.As(err, &pe) || pe.Kind != provider.KindModelGone {
		t.Errorf("underlying error = %v, want model_gone provider error", err)
	}
}

func TestCompleteNonGoneErrorStopsModelWalk(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	c := newTestClient(t, Config{Model: "a", FallbackModels: []string{"b"}},
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
		})

	_, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if got := provider.KindOf(err); got != provider.KindRateLimit {
		t.Errorf("KindOf = %s, want rate_limit", got)
	}
	if errors.Is(err, provider.ErrModelsExhausted) {
		t.Error("non-gone failure marked as models exhausted")
	}
	if calls.Load() != 1 {
		t.Errorf("upstream called %d times, want 1 (no fallback on rate limit)", calls.Load())
	}
}

func TestCompleteWarmupRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	c := newTestClient(t, Config{Model: "m", FallbackModels: []string{}},
		func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"Model m is currently loading","estimated_time":20}`))
				return
			}
			_, _ = w.Write([]byte(`[{"generated_text":"warmed up"}]`))
		})

	text, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "warmed up" {
		t.Errorf("text = %q, want warmed up", text)
	}
	if calls.Load() != 2 {
		t.Errorf("upstream called %d times, want 2 (one warm-up retry)", calls.Load())
	}
}

func TestCompleteWarmupRetryOnlyOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	c := newTestClient(t, Config{Model: "m", FallbackModels: []string{}},
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model m is currently loading"}`))
		})

	_, err := c.Complete(context.Background(), provider.Request{
		Messages: []provider.Message{{Role: provider.MessageRoleUser, Content: "hi"}},
	})
	if got := provider.KindOf(err); got != provider.KindUnavailable {
		t.Errorf("KindOf = %s, want unavailable", got)
	}
	if calls.Load() != 2 {
		t.Errorf("upstream called %d times, want exactly 2", calls.Load())
	}
}

func TestParseGeneratedShapes(t *testing.T) {
	t.Parallel()

	text, err := parseGenerated([]byte(`[{"generated_text":"array shape"}]`))
	if err != nil || text != "array shape" {
		t.Errorf("array shape: %q, %v", text, err)
	}

	text, err = parseGenerated([]byte(`{"generated_text":"object shape"}`))
	if err != nil || text != "object shape" {
		t.Errorf("object shape: %q, %v", text, err)
	}

	if _, err = parseGenerated([]byte(`[]`)); err == nil {
		t.Error("empty array parsed without error")
	}

	_, err = parseGenerated([]byte(`{"error":"backend blew up"}`))
	if got := provider.KindOf(err); got != provider.KindUnavailable {
		t.Errorf("in-body error: KindOf = %s, want unavailable", got)
	}
}
