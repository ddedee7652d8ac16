package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/nyxmora/relay/internal/activity"
	"github.com/nyxmora/relay/internal/cache"
	"github.com/nyxmora/relay/internal/dispatch"
	"github.com/nyxmora/relay/internal/provider"
)

// maxRequestSize bounds the chat request body (1 MB).
const maxRequestSize = 1 << 20

// chatResult is the completion outcome shared by the HTTP and WebSocket
// paths and stored in the response cache.
type chatResult struct {
	Text     string        `json:"text"`
	Provider string        `json:"provider"`
	Elapsed  time.Duration `json:"-"`
}

// ChatResponse is the JSON response for POST /v1/chat.
type ChatResponse struct {
	Text      string `json:"text"`
	Provider  string `json:"provider"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Cached    bool   `json:"cached"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error     string   `json:"error"`
	Attempted []string `json:"attempted,omitempty"`
}

// handleChat returns an http.HandlerFunc for POST /v1/chat.
func (g *Gateway) handleChat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dispatch.Request
		body := http.MaxBytesReader(w, r.Body, maxRequestSize)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
		if len(req.Messages) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "messages must not be empty"})
			return
		}

		res, cached, err := g.complete(r.Context(), req)
		if err != nil {
			g.writeDispatchError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ChatResponse{
			Text:      res.Text,
			Provider:  res.Provider,
			ElapsedMS: res.Elapsed.Milliseconds(),
			Cached:    cached,
		})
	}
}

// complete runs one request through the cache and dispatcher and records
// the interaction. Both the HTTP and WebSocket handlers go through here.
func (g *Gateway) complete(ctx context.Context, req dispatch.Request) (chatResult, bool, error) {
	dispatchOnce := func(ctx context.Context) (chatResult, error) {
		res, err := g.completer.Dispatch(ctx, req)
		if err != nil {
			return chatResult{}, err
		}
		return chatResult{Text: res.Text, Provider: res.Provider, Elapsed: res.Elapsed}, nil
	}

	var (
		res    chatResult
		cached bool
		err    error
	)
	if g.cache != nil {
		loaded := false
		res, err = g.cache.Get(ctx, cache.Key(req), func(ctx context.Context) (chatResult, error) {
			loaded = true
			return dispatchOnce(ctx)
		})
		cached = err == nil && !loaded
	} else {
		res, err = dispatchOnce(ctx)
	}
	if err != nil {
		return chatResult{}, false, err
	}

	if g.activity != nil {
		in := activity.Interaction{
			Provider: res.Provider,
			Prompt:   lastUserMessage(req.Messages),
			Response: res.Text,
			Elapsed:  res.Elapsed,
			Cached:   cached,
		}
		if rerr := g.activity.Record(ctx, in); rerr != nil {
			g.logger.Warn("activity record failed", "error", rerr)
		}
	}

	return res, cached, nil
}

// writeDispatchError maps a dispatch failure to an HTTP response.
func (g *Gateway) writeDispatchError(w http.ResponseWriter, err error) {
	var exh *dispatch.ExhaustionError
	if errors.As(err, &exh) {
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:     "all providers failed",
			Attempted: exh.Attempted,
		})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// Client went away; nothing useful to write.
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

// lastUserMessage returns the content of the most recent user message, or
// the last message of any role when none is from the user.
func lastUserMessage(msgs []provider.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == provider.MessageRoleUser {
			return msgs[i].Content
		}
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
