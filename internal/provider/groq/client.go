package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nyxmora/relay/internal/provider"
)

// maxResponseSize is the maximum response body size (10 MB).
// Protects against OOM from malformed or huge responses.
const maxResponseSize = 10 * 1024 * 1024

// chatRequest is the OpenAI-compatible request body.
type chatRequest struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
}

// chatResponse is the OpenAI-compatible response body.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// apiError is the OpenAI-compatible error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a chat completion request. Groq supports structured chat
// natively, so messages are passed through unflattened.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	payload := chatRequest{
		Model:       c.config.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("groq: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("groq: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", provider.MapTransportError(Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("groq: read response: %w", err)
	}

	if httpErr := mapHTTPError(resp.StatusCode, respBody); httpErr != nil {
		return "", httpErr
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("groq: unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("groq: response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// mapHTTPError maps an HTTP status code and response body to a typed
// provider error. Returns nil for 2xx status codes.
func mapHTTPError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := string(body)
	var envelope apiError
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}

	return &provider.Error{
		Provider: Name,
		Status:   status,
		Kind:     provider.KindForStatus(status),
		Message:  msg,
	}
}
