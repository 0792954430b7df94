package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodscope/foodscope/internal/config"
)

func testEndpoint(t *testing.T, baseURL string, opts ...config.EndpointOption) *config.Endpoint {
	t.Helper()
	base := []config.EndpointOption{
		config.WithBaseURL(baseURL),
		config.WithModel("test-model"),
		config.WithAPIKey("test-key"),
		config.WithMaxRetries(2),
		config.WithInitialDelay(time.Millisecond),
		config.WithBackoffFactor(1.0),
	}
	ep := config.NewEndpointWithOptions(append(base, opts...)...)
	return &ep
}

func chatBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	require.NoError(t, err)
	return body
}

func TestNewOpenAIRequiresModel(t *testing.T) {
	ep := config.NewEndpoint()
	_, err := NewOpenAI(&ep)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewOpenAI(nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatCompletion(t *testing.T) {
	var gotModel string
	var gotTemperature float64
	var gotMaxTokens int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, _ = req["model"].(string)
		gotTemperature, _ = req["temperature"].(float64)
		gotMaxTokens = int(req["max_tokens"].(float64))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatBody(t, "hello there"))
	}))
	defer srv.Close()

	p, err := NewOpenAI(testEndpoint(t, srv.URL,
		config.WithMaxTokens(1024),
		config.WithTemperature(0.2),
	))
	require.NoError(t, err)

	resp, err := p.ChatCompletion(context.Background(), NewChatRequest([]Message{
		SystemMessage("be brief"),
		UserMessage("hi"),
	}))
	require.NoError(t, err)

	assert.Equal(t, "hello there", resp.Content())
	assert.Equal(t, "stop", resp.FinishReason())
	assert.Equal(t, 15, resp.Usage().TotalTokens())
	assert.Equal(t, "test-model", gotModel)
	assert.InDelta(t, 0.2, gotTemperature, 1e-6)
	assert.Equal(t, 1024, gotMaxTokens)
}

func TestChatCompletionRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatBody(t, "recovered"))
	}))
	defer srv.Close()

	p, err := NewOpenAI(testEndpoint(t, srv.URL))
	require.NoError(t, err)

	resp, err := p.ChatCompletion(context.Background(), NewChatRequest([]Message{UserMessage("hi")}))
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content())
	assert.Equal(t, int32(2), calls.Load())
}

func TestChatCompletionWrapsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewOpenAI(testEndpoint(t, srv.URL))
	require.NoError(t, err)

	_, err = p.ChatCompletion(context.Background(), NewChatRequest([]Message{UserMessage("hi")}))
	require.Error(t, err)

	var pErr *ProviderError
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, "chat_completion", pErr.Operation())
	assert.Equal(t, http.StatusUnauthorized, pErr.StatusCode())
}

func TestEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"index": i, "embedding": []float64{float64(i), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":  data,
			"model": "test-model",
			"usage": map[string]int{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAI(testEndpoint(t, srv.URL))
	require.NoError(t, err)

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest([]string{"a", "b"}))
	require.NoError(t, err)

	embeddings := resp.Embeddings()
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float32{0, 1}, embeddings[0])
	assert.Equal(t, []float32{1, 1}, embeddings[1])
	assert.Equal(t, 4, resp.Usage().TotalTokens())
}

func TestEmbedRejectsOversizedBatch(t *testing.T) {
	p, err := NewOpenAI(testEndpoint(t, "http://localhost:0"))
	require.NoError(t, err)

	texts := make([]string, remoteEmbedBatchMax+1)
	_, err = p.Embed(context.Background(), NewEmbeddingRequest(texts))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds capacity")
}

func TestEmbedEmptyRequest(t *testing.T) {
	p, err := NewOpenAI(testEndpoint(t, "http://localhost:0"))
	require.NoError(t, err)

	resp, err := p.Embed(context.Background(), NewEmbeddingRequest(nil))
	require.NoError(t, err)
	assert.Empty(t, resp.Embeddings())
}
