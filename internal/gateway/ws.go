package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/nyxmora/relay/internal/dispatch"
)

// wsError is the JSON error frame sent on a failed completion.
type wsError struct {
	Error     string   `json:"error"`
	Attempted []string `json:"attempted,omitempty"`
}

// handleChatWS returns an http.HandlerFunc for GET /v1/chat/ws. Each text
// frame carries one completion request; the connection stays open for the
// next request after each response.
func (g *Gateway) handleChatWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			g.logger.Warn("websocket accept failed", "error", err)
			return
		}
		defer func() { _ = conn.Close(websocket.StatusInternalError, "unexpected close") }()

		ctx := r.Context()
		for {
			var req dispatch.Request
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				status := websocket.CloseStatus(err)
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					_ = conn.Close(websocket.StatusNormalClosure, "")
					return
				}
				if ctx.Err() != nil {
					return
				}
				g.logger.Debug("websocket read failed", "error", err)
				return
			}
			if len(req.Messages) == 0 {
				if err := wsjson.Write(ctx, conn, wsError{Error: "messages must not be empty"}); err != nil {
					return
				}
				continue
			}

			res, cached, err := g.complete(ctx, req)
			if err != nil {
				if writeErr := wsjson.Write(ctx, conn, wsDispatchError(err)); writeErr != nil {
					return
				}
				continue
			}

			resp := ChatResponse{
				Text:      res.Text,
				Provider:  res.Provider,
				ElapsedMS: res.Elapsed.Milliseconds(),
				Cached:    cached,
			}
			if err := wsjson.Write(ctx, conn, resp); err != nil {
				return
			}
		}
	}
}

// wsDispatchError maps a dispatch failure to a WebSocket error frame.
func wsDispatchError(err error) wsError {
	var exh *dispatch.ExhaustionError
	if errors.As(err, &exh) {
		return wsError{Error: "all providers failed", Attempted: exh.Attempted}
	}
	if errors.Is(err, context.Canceled) {
		return wsError{Error: "request cancelled"}
	}
	return wsError{Error: "internal error"}
}
