package service

import "encoding/json"

// StreamChunkParser converts one SSE data payload into a StreamChunk
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

// DeltaChunkParser parses OpenAI-format delta chunks. Reasoning text is read
// from reasoning_content (NVIDIA/DeepSeek) or reasoning (Groq) when present.
type DeltaChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *DeltaChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	var raw struct {
		Choices []struct {
			Delta struct {
				Role             string  `json:"role,omitempty"`
				Content          string  `json:"content,omitempty"`
				ReasoningContent *string `json:"reasoning_content,omitempty"`
				Reasoning        *string `json:"reasoning,omitempty"`
			} `json:"delta"`
			FinishReason *string `json:"finish_reason,omitempty"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) == 0 {
		return chunk, nil
	}

	choice := raw.Choices[0]
	chunk.Role = choice.Delta.Role
	chunk.Content = choice.Delta.Content
	switch {
	case choice.Delta.ReasoningContent != nil:
		chunk.ThinkingContent = *choice.Delta.ReasoningContent
	case choice.Delta.Reasoning != nil:
		chunk.ThinkingContent = *choice.Delta.Reasoning
	}
	chunk.Done = choice.FinishReason != nil && *choice.FinishReason != ""
	return chunk, nil
}
