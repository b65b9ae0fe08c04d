package service

import (
	"context"
	"fmt"

	"travelagent/internal/config"
	"travelagent/internal/logging"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainProvider serves completions and embeddings through langchaingo
type LangChainProvider struct {
	client   llms.Model
	embedder embeddings.Embedder
	cfg      *config.AIConfig
	logger   zerolog.Logger
}

// NewLangChainProvider creates a provider against an OpenAI-compatible endpoint
func NewLangChainProvider(cfg *config.AIConfig) (*LangChainProvider, error) {
	token := cfg.APIKey
	if token == "" {
		// local OpenAI-compatible servers accept any token
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.APIBase),
		openai.WithToken(token),
		openai.WithModel(cfg.ChatModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(max(cfg.BatchSize, 1)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain embedder: %w", err)
	}

	return newLangChainProvider(client, embedder, cfg), nil
}

func newLangChainProvider(client llms.Model, embedder embeddings.Embedder, cfg *config.AIConfig) *LangChainProvider {
	return &LangChainProvider{
		client:   client,
		embedder: embedder,
		cfg:      cfg,
		logger:   logging.Component("langchain"),
	}
}

func (p *LangChainProvider) messages(prompt string, opts CompletionOptions) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, 2)
	if opts.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(opts.System)},
		})
	}
	return append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})
}

func (p *LangChainProvider) callOptions(opts CompletionOptions) []llms.CallOption {
	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}
	if p.cfg.ChatMaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(p.cfg.ChatMaxTokens))
	}
	if p.cfg.ChatTopP > 0 {
		callOpts = append(callOpts, llms.WithTopP(p.cfg.ChatTopP))
	}
	if opts.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}
	return callOpts
}

func (p *LangChainProvider) generate(ctx context.Context, prompt string, opts CompletionOptions, extra ...llms.CallOption) (string, error) {
	resp, err := p.client.GenerateContent(ctx, p.messages(prompt, opts), append(p.callOptions(opts), extra...)...)
	if err != nil {
		p.logger.Error().Err(err).Str("model", opts.Model).Msg("failed to generate content")
		return "", err
	}
	if len(resp.Choices) < 1 {
		p.logger.Debug().Msg("no choices returned from model")
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// Complete implements Completer
func (p *LangChainProvider) Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	return p.generate(ctx, prompt, opts)
}

// CompleteStream implements StreamingCompleter
func (p *LangChainProvider) CompleteStream(ctx context.Context, prompt string, opts CompletionOptions, callback StreamCallback) (string, error) {
	return p.generate(ctx, prompt, opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if callback == nil || len(chunk) == 0 {
			return nil
		}
		return callback(&StreamChunk{Content: string(chunk)})
	}))
}

// EmbedText implements Embedder
func (p *LangChainProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vec, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to generate embedding")
		return nil, err
	}
	return vec, nil
}

// EmbedTexts implements Embedder
func (p *LangChainProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	p.logger.Debug().Int("count", len(texts)).Msg("generating embeddings")

	vecs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		p.logger.Error().Err(err).Int("count", len(texts)).Msg("failed to generate embeddings")
		return nil, err
	}
	return vecs, nil
}

// NewAIProvider builds the configured completion and embedding backend
func NewAIProvider(cfg *config.AIConfig) (StreamingCompleter, Embedder, error) {
	switch cfg.Provider {
	case "langchain":
		p, err := NewLangChainProvider(cfg)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		c := NewOpenAIClient(cfg)
		return c, c, nil
	}
}
