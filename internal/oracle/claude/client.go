package claude

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"shipdocs/internal/config"
	"shipdocs/internal/domain"
	"shipdocs/internal/oracle"
	"shipdocs/internal/port"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
)

func init() {
	oracle.RegisterProvider("claude", func(cfg *config.OracleConfig) (port.FieldOracle, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.FieldOracle using the Anthropic Messages API.
type Client struct {
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	client    *http.Client
}

// NewClient creates a Claude-backed field oracle from an oracle config.
func NewClient(cfg *config.OracleConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Client{
		apiKey:    cfg.APIKey,
		model:     model,
		endpoint:  endpoint,
		maxTokens: maxTokens,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.OracleConfig, endpoint string) *Client {
	c := NewClient(cfg)
	c.endpoint = endpoint
	return c
}

// ExtractFields issues the single joint extraction call. Temperature is
// pinned to zero so repeated calls over unchanged content converge.
func (c *Client) ExtractFields(ctx context.Context, prompt port.ExtractionPrompt) (domain.FieldSet, error) {
	reqBody := map[string]interface{}{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": 0,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildContentBlocks(prompt),
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: calling anthropic API: %v", domain.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: reading response: %v", domain.ErrOracleUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := oracle.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return domain.FieldSet{}, oracle.NewRateLimitError("claude", retryAfter)
		}
		return domain.FieldSet{}, fmt.Errorf("%w: anthropic API status %d: %s",
			domain.ErrOracleUnavailable, resp.StatusCode, truncate(string(respBody), 500))
	}

	return parseResponse(respBody)
}

// buildContentBlocks serializes the prompt as instruction text followed by
// the ordered base64 page-image attachments.
func buildContentBlocks(prompt port.ExtractionPrompt) []map[string]interface{} {
	blocks := []map[string]interface{}{
		{"type": "text", "text": prompt.Instructions},
	}
	for _, blk := range prompt.Blocks {
		if blk.Type != port.BlockImage {
			continue
		}
		blocks = append(blocks, map[string]interface{}{
			"type": "image",
			"source": map[string]interface{}{
				"type":       "base64",
				"media_type": blk.MediaType,
				"data":       base64.StdEncoding.EncodeToString(blk.Data),
			},
		})
	}
	return blocks
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte) (domain.FieldSet, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrOracleMalformedResponse, err)
	}

	if len(resp.Content) == 0 {
		return domain.FieldSet{}, fmt.Errorf("%w: empty response from API", domain.ErrOracleMalformedResponse)
	}

	if resp.StopReason == "max_tokens" {
		return domain.FieldSet{}, fmt.Errorf("%w: output truncated (stop_reason: max_tokens)", domain.ErrOracleMalformedResponse)
	}

	return oracle.DecodeFieldSet(resp.Content[0].Text)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// ensure Client satisfies the port at compile time
var _ port.FieldOracle = (*Client)(nil)
