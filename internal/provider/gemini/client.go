package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nyxmora/relay/internal/provider"
)

// maxResponseSize is the maximum response body size (10 MB).
const maxResponseSize = 10 * 1024 * 1024

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// generateResponse is the generateContent response body.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// apiError is the Google API error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete flattens the conversation and sends a generateContent request.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	payload := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: provider.FlattenMessages(req.Messages)}}},
		},
	}
	if req.Temperature != nil || req.MaxTokens > 0 {
		payload.GenerationConfig = &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.config.BaseURL, c.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", provider.MapTransportError(Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}

	if httpErr := mapHTTPError(resp.StatusCode, respBody); httpErr != nil {
		return "", httpErr
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("gemini: unmarshal response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini: response contained no candidates")
	}

	var texts []string
	for _, p := range parsed.Candidates[0].Content.Parts {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, ""), nil
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
