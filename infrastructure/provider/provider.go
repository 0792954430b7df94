// Package provider implements the model backends: chat completion and
// embedding generation, either remote (OpenAI-compatible APIs) or local
// (ONNX sentence transformers).
package provider

import (
	"context"
	"errors"
)

// Common errors.
var (
	// ErrUnsupportedOperation indicates the provider doesn't support the
	// requested operation.
	ErrUnsupportedOperation = errors.New("operation not supported by this provider")

	// ErrNotConfigured indicates the provider lacks the configuration it
	// needs to serve requests.
	ErrNotConfigured = errors.New("provider not configured")
)

// Message represents a chat message.
type Message struct {
	role    string
	content string
}

// NewMessage creates a new Message.
func NewMessage(role, content string) Message {
	return Message{role: role, content: content}
}

// Role returns the message role ("system", "user", "assistant").
func (m Message) Role() string { return m.role }

// Content returns the message content.
func (m Message) Content() string { return m.content }

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return NewMessage("system", content)
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return NewMessage("user", content)
}

// ChatRequest represents a request for text generation.
type ChatRequest struct {
	messages    []Message
	maxTokens   int
	temperature float64
}

// NewChatRequest creates a new ChatRequest.
func NewChatRequest(messages []Message) ChatRequest {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)
	return ChatRequest{messages: msgs}
}

// WithMaxTokens returns a new request with the specified max tokens.
func (r ChatRequest) WithMaxTokens(n int) ChatRequest {
	r.maxTokens = n
	return r
}

// WithTemperature returns a new request with the specified temperature.
func (r ChatRequest) WithTemperature(t float64) ChatRequest {
	r.temperature = t
	return r
}

// Messages returns the messages.
func (r ChatRequest) Messages() []Message {
	msgs := make([]Message, len(r.messages))
	copy(msgs, r.messages)
	return msgs
}

// MaxTokens returns the max tokens setting, 0 for the provider default.
func (r ChatRequest) MaxTokens() int { return r.maxTokens }

// Temperature returns the temperature setting, 0 for the provider default.
func (r ChatRequest) Temperature() float64 { return r.temperature }

// ChatResponse represents a text generation response.
type ChatResponse struct {
	content      string
	finishReason string
	usage        Usage
}

// NewChatResponse creates a new ChatResponse.
func NewChatResponse(content, finishReason string, usage Usage) ChatResponse {
	return ChatResponse{content: content, finishReason: finishReason, usage: usage}
}

// Content returns the generated content.
func (r ChatResponse) Content() string { return r.content }

// FinishReason returns why generation stopped.
func (r ChatResponse) FinishReason() string { return r.finishReason }

// Usage returns token usage information.
func (r ChatResponse) Usage() Usage { return r.usage }

// Usage represents token usage information.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a new Usage.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{promptTokens: prompt, completionTokens: completion, totalTokens: total}
}

// PromptTokens returns the number of prompt tokens.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the number of completion tokens.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total number of tokens.
func (u Usage) TotalTokens() int { return u.totalTokens }

// EmbeddingRequest represents a request for embeddings.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates a new EmbeddingRequest.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	t := make([]string, len(texts))
	copy(t, texts)
	return EmbeddingRequest{texts: t}
}

// Texts returns the texts to embed.
func (r EmbeddingRequest) Texts() []string {
	t := make([]string, len(r.texts))
	copy(t, r.texts)
	return t
}

// EmbeddingResponse represents an embedding response. Vectors are float32 to
// match the index storage format.
type EmbeddingResponse struct {
	embeddings [][]float32
	usage      Usage
}

// NewEmbeddingResponse creates a new EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float32, usage Usage) EmbeddingResponse {
	embs := make([][]float32, len(embeddings))
	for i, e := range embeddings {
		embs[i] = make([]float32, len(e))
		copy(embs[i], e)
	}
	return EmbeddingResponse{embeddings: embs, usage: usage}
}

// Embeddings returns the embedding vectors.
func (r EmbeddingResponse) Embeddings() [][]float32 {
	embs := make([][]float32, len(r.embeddings))
	for i, e := range r.embeddings {
		embs[i] = make([]float32, len(e))
		copy(embs[i], e)
	}
	return embs
}

// Usage returns token usage information.
func (r EmbeddingResponse) Usage() Usage { return r.usage }

// TextGenerator generates text completions.
type TextGenerator interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Embedder generates embeddings for text.
type Embedder interface {
	// Embed generates one vector per text, in input order.
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)

	// Capacity returns the maximum number of texts per Embed call.
	Capacity() int

	// Close releases any resources held by the embedder.
	Close() error
}

// ProviderError wraps provider errors with the failed operation and, when
// available, the upstream HTTP status.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code if available.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ProviderError) Message() string { return e.message }

// IsRateLimited returns true if the error is due to rate limiting.
func (e *ProviderError) IsRateLimited() bool {
	return e.statusCode == 429
}
