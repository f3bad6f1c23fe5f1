package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdocs/internal/config"
	"shipdocs/internal/domain"
	"shipdocs/internal/oracle"
	"shipdocs/internal/oracle/claude"
	"shipdocs/internal/port"
)

func newTestClient(serverURL string) *claude.Client {
	cfg := &config.OracleConfig{
		Provider:    "claude",
		APIKey:      "test-api-key",
		Model:       "claude-sonnet-4-20250514",
		TimeoutSecs: 30,
	}
	return claude.NewClientWithEndpoint(cfg, serverURL)
}

func textPrompt(text string) port.ExtractionPrompt {
	return port.ExtractionPrompt{Instructions: text}
}

func TestExtractFields_Success(t *testing.T) {
	responseBody := map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": `{"bill_of_lading_number":"ZMLU34110002","container_number":null,"consignee_name":null,"consignee_address":null,"date":"2025-03-01T00:00:00Z","line_items_count":2,"average_gross_weight":"162.38","average_price":null}`,
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)
		assert.Equal(t, "claude-sonnet-4-20250514", reqBody["model"])
		assert.Equal(t, float64(0), reqBody["temperature"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		content := msg["content"].([]interface{})
		require.NotEmpty(t, content)
		textBlock := content[0].(map[string]interface{})
		assert.Equal(t, "text", textBlock["type"])

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(responseBody)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	fs, err := client.ExtractFields(context.Background(), textPrompt("extract"))
	require.NoError(t, err)

	require.NotNil(t, fs.BillOfLadingNumber)
	assert.Equal(t, "ZMLU34110002", *fs.BillOfLadingNumber)
	assert.Nil(t, fs.ContainerNumber)
	require.NotNil(t, fs.LineItemsCount)
	assert.Equal(t, 2, *fs.LineItemsCount)
	require.NotNil(t, fs.AverageGrossWeight)
	assert.Equal(t, 162.38, *fs.AverageGrossWeight)
	assert.Nil(t, fs.AveragePrice)
}

func TestExtractFields_ImageBlocksBase64(t *testing.T) {
	var gotContent []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&reqBody)
		msg := reqBody["messages"].([]interface{})[0].(map[string]interface{})
		gotContent = msg["content"].([]interface{})

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": `{}`}},
		})
	}))
	defer server.Close()

	prompt := port.ExtractionPrompt{
		Instructions: "extract",
		Blocks: []port.ContentBlock{
			{Type: port.BlockImage, MediaType: "image/png", Data: []byte("page-bytes")},
		},
	}

	client := newTestClient(server.URL)
	_, err := client.ExtractFields(context.Background(), prompt)
	require.NoError(t, err)

	require.Len(t, gotContent, 2)
	imgBlock := gotContent[1].(map[string]interface{})
	assert.Equal(t, "image", imgBlock["type"])
	source := imgBlock["source"].(map[string]interface{})
	assert.Equal(t, "base64", source["type"])
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, "cGFnZS1ieXRlcw==", source["data"])
}

func TestExtractFields_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ExtractFields(context.Background(), textPrompt("extract"))
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)
}

func TestExtractFields_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ExtractFields(context.Background(), textPrompt("extract"))
	assert.ErrorIs(t, err, domain.ErrOracleUnavailable)

	var rle *oracle.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "claude", rle.Provider)
	assert.Equal(t, float64(17), rle.RetryAfter.Seconds())
}

func TestExtractFields_MalformedFieldPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": "not json at all"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ExtractFields(context.Background(), textPrompt("extract"))
	assert.ErrorIs(t, err, domain.ErrOracleMalformedResponse)
}

func TestExtractFields_TruncatedOutputIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"bill_of`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.ExtractFields(context.Background(), textPrompt("extract"))
	assert.ErrorIs(t, err, domain.ErrOracleMalformedResponse)
}
