package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Transport faults. The invoker never retries these; they surface to the
// caller with enough context to render an actionable message.
var (
	ErrUnreachable   = errors.New("cannot reach Ollama")
	ErrModelNotFound = errors.New("model not found")
)

// Client calls the Ollama /api/generate endpoint with stream=false.
type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.1:8b"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Format  string          `json:"format,omitempty"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

// Generate runs a single completion. jsonMode sets format=json, which newer
// Ollama versions use to constrain output. The response body is normalized
// so callers always get plain model text.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64, jsonMode bool) (string, error) {
	body := generateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: temperature},
	}
	if jsonMode {
		body.Format = "json"
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w at %s (start it with: ollama serve): %v", ErrUnreachable, c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %q (pull it with: ollama pull %s)", ErrModelNotFound, c.model, c.model)
	}
	if resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(slurp)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return parseResponseBody(string(payload)), nil
}

type envelope struct {
	Response *string `json:"response"`
}

// parseResponseBody turns an Ollama response body into model output text.
// Handles a single JSON envelope, NDJSON (streamed lines), or raw text.
func parseResponseBody(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	// Single object: {"response": "...", "done": true, ...}
	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err == nil && env.Response != nil {
		return strings.TrimSpace(*env.Response)
	}

	// NDJSON: one envelope per line; concatenate fragments in order.
	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var frag envelope
		if err := json.Unmarshal([]byte(line), &frag); err == nil && frag.Response != nil {
			parts = append(parts, *frag.Response)
		}
	}
	if len(parts) > 0 {
		return strings.TrimSpace(strings.Join(parts, "\n"))
	}

	// Raw model output with no API envelope.
	return text
}
