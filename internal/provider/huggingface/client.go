package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nyxmora/relay/internal/provider"
)

// maxResponseSize is the maximum response body size (10 MB).
const maxResponseSize = 10 * 1024 * 1024

// inferenceRequest is the Inference API request body.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

// inferenceParameters holds the generation knobs.
type inferenceParameters struct {
	Temperature    *float64 `json:"temperature,omitempty"`
	MaxNewTokens   int      `json:"max_new_tokens,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
}

// generated is one element of the Inference API success response. The API
// returns either a bare object or a single-element array of these.
type generated struct {
	GeneratedText string `json:"generated_text"`
	Error         string `json:"error"`
}

// Complete flattens the conversation into a labeled prompt and walks the
// configured model ids in order. A model that reports gone/not-found
// advances to the next id; any other failure surfaces immediately. When
// every model id has been tried, the aggregate is marked with
// provider.ErrModelsExhausted.
func (c *Client) Complete(ctx context.Context, req provider.Request) (string, error) {
	payload := inferenceRequest{
		Inputs: provider.FlattenMessages(req.Messages),
		Parameters: inferenceParameters{
			Temperature:    req.Temperature,
			MaxNewTokens:   req.MaxTokens,
			ReturnFullText: false,
		},
	}

	text, err := provider.TryEach(ctx, c.models,
		func(ctx context.Context, model string) (string, error) {
			return c.completeModel(ctx, model, payload)
		},
		func(_ string, err error) bool {
			return provider.KindOf(err) == provider.KindModelGone
		},
	)
	if err != nil {
		if provider.KindOf(err) == provider.KindModelGone {
			// Every id in the list was tried and rejected.
			return "", fmt.Errorf("huggingface: %w: %w", provider.ErrModelsExhausted, err)
		}
		return "", err
	}
	return text, nil
}

// completeModel runs one inference call against a single model id,
// retrying exactly once after WarmupDelay when the model is still loading.
func (c *Client) completeModel(ctx context.Context, model string, payload inferenceRequest) (string, error) {
	text, warming, err := c.post(ctx, model, payload)
	if err != nil || !warming {
		return text, err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(c.config.WarmupDelay):
	}

	text, warming, err = c.post(ctx, model, payload)
	if err != nil {
		return "", err
	}
	if warming {
		return "", &provider.Error{
			Provider: Name,
			Kind:     provider.KindUnavailable,
			Message:  fmt.Sprintf("model %s still loading after retry", model),
		}
	}
	return text, nil
}

// post performs a single HTTP call. The warming return is true when the
// model reported it is loading and the caller may retry.
func (c *Client) post(ctx context.Context, model string, payload inferenceRequest) (text string, warming bool, err error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", false, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("huggingface: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", false, provider.MapTransportError(Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", false, fmt.Errorf("huggingface: read response: %w", err)
	}

	if isWarmingUp(resp.StatusCode, respBody) {
		return "", true, nil
	}
	if httpErr := mapHTTPError(resp.StatusCode, model, respBody); httpErr != nil {
		return "", false, httpErr
	}

	text, err = parseGenerated(respBody)
	return text, false, err
}

// parseGenerated extracts the generated text from either response shape.
func parseGenerated(body []byte) (string, error) {
	var list []generated
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", fmt.Errorf("huggingface: empty response")
		}
		return list[0].GeneratedText, nil
	}

	var single generated
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("huggingface: unexpected response format: %w", err)
	}
	if single.Error != "" {
		return "", &provider.Error{
			Provider: Name,
			Kind:     provider.KindUnavailable,
			Message:  single.Error,
		}
	}
	return single.GeneratedText, nil
}

// isWarmingUp reports whether the response is the transient model-loading
// signal: a 503, or a 200 whose body carries a "loading" error.
func isWarmingUp(status int, body []byte) bool {
	var single generated
	if json.Unmarshal(body, &single) != nil || single.Error == "" {
		return false
	}
	loading := strings.Contains(strings.ToLower(single.Error), "loading")
	return loading && (status == http.StatusOK || status == http.StatusServiceUnavailable)
}

// mapHTTPError maps an HTTP status code and response body to a typed
// provider error. Returns nil for 2xx status codes.
func mapHTTPError(status int, model string, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := string(body)
	var single generated
	if json.Unmarshal(body, &single) == nil && single.Error != "" {
		msg = single.Error
	}

	return &provider.Error{
		Provider: Name,
		Status:   status,
		Kind:     provider.KindForStatus(status),
		Message:  fmt.Sprintf("model %s: %s", model, msg),
	}
}
