package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskmind/taskmind-gateway/internal/logging"
)

// Example is one labeled training example sent with every classify call.
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Client talks to the Cohere REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a Cohere client. An empty apiKey produces a client
// whose calls always fail; callers should check Configured first.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.WithComponent("cohere"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type classifyRequest struct {
	Model    string    `json:"model"`
	Inputs   []string  `json:"inputs"`
	Examples []Example `json:"examples"`
}

type classifyResponse struct {
	Classifications []struct {
		Prediction string  `json:"prediction"`
		Confidence float64 `json:"confidence"`
	} `json:"classifications"`
}

// Classify labels the input against the provided examples and returns the
// predicted label with its confidence.
func (c *Client) Classify(ctx context.Context, input string, examples []Example) (string, float64, error) {
	if !c.Configured() {
		return "", 0, fmt.Errorf("cohere api key not configured")
	}

	body := classifyRequest{
		Model:    "large",
		Inputs:   []string{input},
		Examples: examples,
	}

	var resp classifyResponse
	if err := c.post(ctx, "/classify", body, &resp); err != nil {
		return "", 0, err
	}
	if len(resp.Classifications) == 0 {
		return "", 0, fmt.Errorf("empty classification response")
	}
	return resp.Classifications[0].Prediction, resp.Classifications[0].Confidence, nil
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	P           float64 `json:"p"`
}

type generateResponse struct {
	Generations []struct {
		Text string `json:"text"`
	} `json:"generations"`
}

// Generate produces free text from a prompt.
func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("cohere api key not configured")
	}

	body := generateRequest{
		Model:       "command",
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: 0.7,
		P:           0.9,
	}

	var resp generateResponse
	if err := c.post(ctx, "/generate", body, &resp); err != nil {
		return "", err
	}
	if len(resp.Generations) == 0 {
		return "", fmt.Errorf("empty generation response")
	}
	return resp.Generations[0].Text, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cohere request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Cohere API error", "path", path, "status", resp.StatusCode, "body", string(data))
		return fmt.Errorf("cohere returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
