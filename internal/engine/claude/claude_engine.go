package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"matterdesk/internal/config"
	"matterdesk/internal/domain"
	"matterdesk/internal/engine"
	"matterdesk/internal/port"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

// Engine implements port.ExtractionEngine using the Anthropic Messages API.
type Engine struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewEngine creates a Claude-backed extraction engine from config.
func NewEngine(cfg *config.PrimaryEngineConfig) *Engine {
	return newEngine(cfg, apiURL)
}

// NewEngineWithEndpoint creates an engine pointing at a custom API endpoint
// (for testing).
func NewEngineWithEndpoint(cfg *config.PrimaryEngineConfig, endpoint string) *Engine {
	return newEngine(cfg, endpoint)
}

func newEngine(cfg *config.PrimaryEngineConfig, endpoint string) *Engine {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Engine{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (e *Engine) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	prompt := engine.BuildNarrativePrompt(input.DocumentType)

	reqBody := map[string]interface{}{
		"model":      e.model,
		"max_tokens": 4096,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": prompt + "\n\nText:\n" + input.Text,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("calling anthropic API: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &engine.EngineError{
			Engine: "claude",
			Err:    fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500)),
		}
	}

	return parseResponse(respBody)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (*domain.ExtractionResult, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("unmarshaling response: %w", err)}
	}

	if len(resp.Content) == 0 {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("empty response from API")}
	}
	if resp.StopReason == "max_tokens" {
		return nil, &engine.EngineError{Engine: "claude", Err: fmt.Errorf("output truncated (stop_reason: max_tokens)")}
	}

	raw := []byte(resp.Content[0].Text)
	if err := engine.ValidateOutputJSON(raw); err != nil {
		return nil, &engine.MalformedOutputError{Engine: "claude", Reason: err.Error()}
	}

	var parsed struct {
		Fields map[string]domain.ExtractionField `json:"fields"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &engine.MalformedOutputError{Engine: "claude", Reason: err.Error()}
	}

	result := &domain.ExtractionResult{Fields: parsed.Fields}
	result.RecomputeOverall()
	return result, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
