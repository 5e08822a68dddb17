package recommend

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

	gobreaker "github.com/sony/gobreaker/v2"
)

// AIClientConfig carries connection settings for the completion service.
type AIClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// AIClient calls an OpenAI-compatible completion endpoint. A circuit breaker
// sheds calls while the service is unhealthy so ranking latency stays bounded
// instead of queueing on a dead upstream.
type AIClient struct {
	cfg        AIClientConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewAIClient constructs an AIClient. The breaker opens after a 60% failure
// rate over at least ten requests and probes again after thirty seconds.
func NewAIClient(cfg AIClientConfig) *AIClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "ai-completions",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})

	return &AIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
	}
}

type completionRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens"`
}

type completionResponse struct {
	Text    string `json:"text"`
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// Complete sends the prompt to the completion endpoint and returns the raw
// generated text. Errors include breaker rejections, transport failures,
// non-2xx statuses, and empty completions.
func (c *AIClient) Complete(ctx context.Context, prompt string) (string, error) {
	text, err := c.breaker.Execute(func() (string, error) {
		return c.complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		breakerRejections.Inc()
	}
	return text, err
}

func (c *AIClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:     c.cfg.Model,
		Prompt:    prompt,
		MaxTokens: 256,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion service status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var payload completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}

	if payload.Text != "" {
		return payload.Text, nil
	}
	if len(payload.Choices) > 0 && payload.Choices[0].Text != "" {
		return payload.Choices[0].Text, nil
	}
	return "", errors.New("empty completion")
}
