package service

import (
	"context"
	"strings"
)

// CompletionOptions tunes one completion call
type CompletionOptions struct {
	// Model overrides the configured chat model (a deployment name)
	Model       string
	System      string
	Temperature float64
	JSON        bool
}

// Completer turns a prompt into raw model text. The text may not be valid
// JSON even when JSON was requested.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)
}

// StreamingCompleter can deliver a completion chunk by chunk
type StreamingCompleter interface {
	Completer
	CompleteStream(ctx context.Context, prompt string, opts CompletionOptions, callback StreamCallback) (string, error)
}

// Embedder maps text to fixed width vectors
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	Content string

	// Thinking/reasoning content (provider-specific, e.g., DeepSeek)
	ThinkingContent string

	Role string
	Done bool
}

// StreamCallback is called for each chunk in streaming mode
type StreamCallback func(chunk *StreamChunk) error

// TokenSink receives generated text as it is produced
type TokenSink func(thinking, content string) error

type tokenSinkKey struct{}

// WithTokenSink attaches a sink that streaming-capable completions write to
func WithTokenSink(ctx context.Context, sink TokenSink) context.Context {
	return context.WithValue(ctx, tokenSinkKey{}, sink)
}

func tokenSinkFrom(ctx context.Context) TokenSink {
	sink, _ := ctx.Value(tokenSinkKey{}).(TokenSink)
	return sink
}

// complete runs a completion, streaming it into the context's token sink when
// there is one and the completer supports it
func complete(ctx context.Context, c Completer, prompt string, opts CompletionOptions) (string, error) {
	sink := tokenSinkFrom(ctx)
	sc, ok := c.(StreamingCompleter)
	if sink == nil || !ok {
		return c.Complete(ctx, prompt, opts)
	}

	return sc.CompleteStream(ctx, prompt, opts, func(chunk *StreamChunk) error {
		if chunk.ThinkingContent == "" && chunk.Content == "" {
			return nil
		}
		return sink(chunk.ThinkingContent, chunk.Content)
	})
}

// collectStream accumulates streamed content into the full completion text
func collectStream(callback StreamCallback) (StreamCallback, *strings.Builder) {
	var full strings.Builder
	return func(chunk *StreamChunk) error {
		full.WriteString(chunk.Content)
		if callback == nil {
			return nil
		}
		return callback(chunk)
	}, &full
}

var (
	_ StreamingCompleter = (*OpenAIClient)(nil)
	_ Embedder           = (*OpenAIClient)(nil)
	_ StreamingCompleter = (*LangChainProvider)(nil)
	_ Embedder           = (*LangChainProvider)(nil)
)
