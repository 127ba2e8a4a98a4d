package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClient_SendsAttributionHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"مرحبا"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1,"completion_tokens":2,"total_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "test-model", "https://example.org", "Poster Bot")
	resp, err := c.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: 300,
	})
	require.NoError(t, err)

	assert.Equal(t, "مرحبا", resp.Content)
	assert.Equal(t, 3, resp.TotalTokens)
	assert.Equal(t, "https://example.org", gotHeaders.Get("HTTP-Referer"))
	assert.Equal(t, "Poster Bot", gotHeaders.Get("X-Title"))
	assert.Equal(t, "Bearer key", gotHeaders.Get("Authorization"))
	assert.Equal(t, "test-model", gotBody["model"])
	assert.EqualValues(t, 300, gotBody["max_tokens"])
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "m", "", "")
	_, err := c.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Error(t, err)
}

func TestAttributionHeaders(t *testing.T) {
	assert.Nil(t, attributionHeaders("", ""))
	h := attributionHeaders("", "T")
	assert.Equal(t, "T", h.Get("X-Title"))
	assert.Empty(t, h.Get("HTTP-Referer"))
}
