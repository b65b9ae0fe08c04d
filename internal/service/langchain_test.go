package service

import (
	"context"
	"testing"

	"travelagent/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeLLM struct {
	reply    string
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (m *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	m.opts = llms.CallOptions{}
	for _, o := range options {
		o(&m.opts)
	}
	if m.opts.StreamingFunc != nil {
		for _, part := range []string{m.reply[:4], m.reply[4:]} {
			if err := m.opts.StreamingFunc(ctx, []byte(part)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type fakeLangChainEmbedder struct{}

func (fakeLangChainEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (fakeLangChainEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text))}, nil
}

func TestLangChainProvider_Complete(t *testing.T) {
	llm := &fakeLLM{reply: `{"generation_mode": "itinerary"}`}
	p := newLangChainProvider(llm, fakeLangChainEmbedder{}, &config.AIConfig{ChatMaxTokens: 256})

	out, err := p.Complete(context.Background(), "plan a trip", CompletionOptions{
		Model:  "llama-3.1-8b-instant",
		System: modeClassificationPrompt,
		JSON:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"generation_mode": "itinerary"}`, out)

	require.Len(t, llm.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, llm.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, llm.messages[1].Role)
	assert.Equal(t, "llama-3.1-8b-instant", llm.opts.Model)
	assert.Equal(t, 256, llm.opts.MaxTokens)
	assert.True(t, llm.opts.JSONMode)
	assert.Zero(t, llm.opts.Temperature)
}

func TestLangChainProvider_CompleteStream(t *testing.T) {
	llm := &fakeLLM{reply: "Day 1: Doi Suthep"}
	p := newLangChainProvider(llm, fakeLangChainEmbedder{}, &config.AIConfig{})

	var parts []string
	out, err := p.CompleteStream(context.Background(), "plan", CompletionOptions{}, func(chunk *StreamChunk) error {
		parts = append(parts, chunk.Content)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Doi Suthep", out)
	assert.Equal(t, []string{"Day ", "1: Doi Suthep"}, parts)
	assert.Len(t, llm.messages, 1)
}

func TestLangChainProvider_Embeddings(t *testing.T) {
	p := newLangChainProvider(&fakeLLM{}, fakeLangChainEmbedder{}, &config.AIConfig{})

	vec, err := p.EmbedText(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)

	vecs, err := p.EmbedTexts(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestNewAIProvider(t *testing.T) {
	c, e, err := NewAIProvider(&config.AIConfig{Provider: "openai", APIBase: "http://localhost:1"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
	assert.IsType(t, &OpenAIClient{}, e)

	c, e, err = NewAIProvider(&config.AIConfig{Provider: "langchain", APIBase: "http://localhost:1", ChatModel: "m", EmbeddingModel: "e"})
	require.NoError(t, err)
	assert.IsType(t, &LangChainProvider{}, c)
	assert.IsType(t, &LangChainProvider{}, e)
}
