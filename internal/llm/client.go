// Package llm provides the completion client used for structured extraction
// and answer synthesis.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client produces text completions for a prompt at a given temperature.
type Client interface {
	Complete(ctx context.Context, prompt string, temperature float64) (string, error)
}

// HTTPClient calls an Ollama-style generate endpoint. Both single-object and
// streaming (newline-delimited JSON) responses are handled.
type HTTPClient struct {
	url    string
	model  string
	client *http.Client
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewHTTPClient creates a completion client against the given endpoint.
func NewHTTPClient(url, model string) (*HTTPClient, error) {
	if url == "" {
		return nil, fmt.Errorf("llm url is required")
	}
	return &HTTPClient{url: url, model: model, client: &http.Client{}}, nil
}

// Complete sends the prompt and collects the full response text.
func (c *HTTPClient) Complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm provider returned status %d: %s", resp.StatusCode, string(msg))
	}

	// Streamed responses arrive as newline-delimited JSON objects.
	var out bytes.Buffer
	decoder := json.NewDecoder(resp.Body)
	for {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err == io.EOF {
			break
		} else if err != nil {
			return "", fmt.Errorf("decode completion response: %w", err)
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	return out.String(), nil
}
