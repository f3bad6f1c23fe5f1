package openai

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

const apiURL = "https://api.openai.com/v1/chat/completions"

func init() {
	oracle.RegisterProvider("openai", func(cfg *config.OracleConfig) (port.FieldOracle, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.FieldOracle using the OpenAI Chat Completions API.
type Client struct {
	apiKey    string
	model     string
	endpoint  string
	maxTokens int
	client    *http.Client
}

// NewClient creates an OpenAI-backed field oracle from an oracle config.
func NewClient(cfg *config.OracleConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
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

// ExtractFields issues the single joint extraction call with temperature
// pinned to zero and a JSON-object response format.
func (c *Client) ExtractFields(ctx context.Context, prompt port.ExtractionPrompt) (domain.FieldSet, error) {
	reqBody := map[string]interface{}{
		"model":                 c.model,
		"max_completion_tokens": c.maxTokens,
		"temperature":           0,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildContentBlocks(prompt),
			},
		},
		"response_format": map[string]interface{}{
			"type": "json_object",
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: calling openai API: %v", domain.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: reading response: %v", domain.ErrOracleUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := oracle.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return domain.FieldSet{}, oracle.NewRateLimitError("openai", retryAfter)
		}
		return domain.FieldSet{}, fmt.Errorf("%w: openai API status %d: %s",
			domain.ErrOracleUnavailable, resp.StatusCode, truncate(string(respBody), 500))
	}

	return parseResponse(respBody)
}

// buildContentBlocks serializes the prompt as instruction text followed by
// image_url data-URI parts for the ordered page images.
func buildContentBlocks(prompt port.ExtractionPrompt) []map[string]interface{} {
	blocks := []map[string]interface{}{
		{"type": "text", "text": prompt.Instructions},
	}
	for _, blk := range prompt.Blocks {
		if blk.Type != port.BlockImage {
			continue
		}
		dataURI := fmt.Sprintf("data:%s;base64,%s", blk.MediaType, base64.StdEncoding.EncodeToString(blk.Data))
		blocks = append(blocks, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]interface{}{
				"url": dataURI,
			},
		})
	}
	return blocks
}

// apiResponse models the Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (domain.FieldSet, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.FieldSet{}, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrOracleMalformedResponse, err)
	}

	if len(resp.Choices) == 0 {
		return domain.FieldSet{}, fmt.Errorf("%w: empty response from API", domain.ErrOracleMalformedResponse)
	}

	if resp.Choices[0].FinishReason == "length" {
		return domain.FieldSet{}, fmt.Errorf("%w: output truncated (finish_reason: length)", domain.ErrOracleMalformedResponse)
	}

	return oracle.DecodeFieldSet(resp.Choices[0].Message.Content)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ port.FieldOracle = (*Client)(nil)
