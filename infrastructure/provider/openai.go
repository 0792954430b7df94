package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/foodscope/foodscope/internal/config"
)

// remoteEmbedBatchMax is the maximum number of texts per embedding API call.
const remoteEmbedBatchMax = 64

// errEmbeddingCountMismatch indicates the API returned a different number of
// vectors than requested. Transient upstream issues can produce partial
// responses behind a 200 status, so this is retryable.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// OpenAI talks to an OpenAI-compatible API for chat completion and
// embedding. The endpoint decides the model, credentials, and retry policy;
// the same provider type serves both the generation and the embedding
// endpoint of the configuration.
type OpenAI struct {
	client        *openai.Client
	model         string
	maxTokens     int
	temperature   float64
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64

	// transport is only consulted during construction.
	transport http.RoundTripper
}

// OpenAIOption is a functional option for OpenAI.
type OpenAIOption func(*OpenAI)

// WithHTTPTransport sets the HTTP transport used for API calls.
func WithHTTPTransport(rt http.RoundTripper) OpenAIOption {
	return func(p *OpenAI) { p.transport = rt }
}

// NewOpenAI creates a provider for the given endpoint. The endpoint must
// have a model configured.
func NewOpenAI(ep *config.Endpoint, opts ...OpenAIOption) (*OpenAI, error) {
	if ep == nil || !ep.IsConfigured() {
		return nil, fmt.Errorf("%w: no model configured", ErrNotConfigured)
	}

	p := &OpenAI{
		model:         ep.Model(),
		maxTokens:     ep.MaxTokens(),
		temperature:   ep.Temperature(),
		maxRetries:    ep.MaxRetries(),
		initialDelay:  ep.InitialDelay(),
		backoffFactor: ep.BackoffFactor(),
	}
	for _, opt := range opts {
		opt(p)
	}

	cfg := openai.DefaultConfig(ep.APIKey())
	if ep.BaseURL() != "" {
		cfg.BaseURL = ep.BaseURL()
	}
	httpClient := &http.Client{Timeout: ep.Timeout()}
	if p.transport != nil {
		httpClient.Transport = p.transport
	}
	cfg.HTTPClient = httpClient
	p.client = openai.NewClientWithConfig(cfg)

	return p, nil
}

// ChatCompletion generates a chat completion.
func (p *OpenAI) ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages()))
	for i, m := range req.Messages() {
		messages[i] = openai.ChatCompletionMessage{
			Role:    m.Role(),
			Content: m.Content(),
		}
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   p.maxTokens,
		Temperature: float32(p.temperature),
	}
	if req.MaxTokens() > 0 {
		apiReq.MaxTokens = req.MaxTokens()
	}
	if req.Temperature() > 0 {
		apiReq.Temperature = float32(req.Temperature())
	}

	var resp openai.ChatCompletionResponse
	var err error
	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateChatCompletion(ctx, apiReq)
		return err
	})
	if err != nil {
		return ChatResponse{}, p.wrapError("chat_completion", err)
	}

	if len(resp.Choices) == 0 {
		return ChatResponse{}, NewProviderError("chat_completion", 0, "no choices in response", nil)
	}

	usage := NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	return NewChatResponse(resp.Choices[0].Message.Content, string(resp.Choices[0].FinishReason), usage), nil
}

// Capacity returns the maximum number of texts per Embed call.
func (p *OpenAI) Capacity() int { return remoteEmbedBatchMax }

// Embed generates embeddings for the given texts in a single API call.
func (p *OpenAI) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float32{}, NewUsage(0, 0, 0)), nil
	}
	if len(texts) > remoteEmbedBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), remoteEmbedBatchMax)
	}

	apiReq := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	var err error
	err = p.withRetry(ctx, func() error {
		resp, err = p.client.CreateEmbeddings(ctx, apiReq)
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return EmbeddingResponse{}, p.wrapError("embedding", err)
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		embeddings[i] = make([]float32, len(data.Embedding))
		copy(embeddings[i], data.Embedding)
	}

	usage := NewUsage(resp.Usage.PromptTokens, 0, resp.Usage.TotalTokens)
	return NewEmbeddingResponse(embeddings, usage), nil
}

// Close is a no-op for the remote provider.
func (p *OpenAI) Close() error {
	return nil
}

// withRetry executes the function with exponential backoff.
func (p *OpenAI) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}

		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	// Partial embedding responses can appear under transient upstream load.
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return true
	}

	return false
}

func (p *OpenAI) wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}

	return NewProviderError(operation, 0, err.Error(), err)
}

var (
	_ TextGenerator = (*OpenAI)(nil)
	_ Embedder      = (*OpenAI)(nil)
)
