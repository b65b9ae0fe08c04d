package service

import (
	"context"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// MultiIntentDecomposer splits compound requests into ordered sub-intents
type MultiIntentDecomposer struct {
	completer Completer
	logger    zerolog.Logger
}

// NewMultiIntentDecomposer creates a new decomposer
func NewMultiIntentDecomposer(completer Completer) *MultiIntentDecomposer {
	return &MultiIntentDecomposer{
		completer: completer,
		logger:    logging.Component("decomposer"),
	}
}

type rawDecomposition struct {
	IsMultiIntent bool   `json:"is_multi_intent"`
	PrimaryIntent string `json:"primary_intent"`
	Intents       []struct {
		Mode    string `json:"mode"`
		Entity  string `json:"entity"`
		Details string `json:"details"`
	} `json:"intents"`
	Reasoning string `json:"reasoning"`
}

// Decompose analyses query for independent tasks. Unusable output falls back
// to a single default-mode intent with Fallback set.
func (d *MultiIntentDecomposer) Decompose(ctx context.Context, query string) model.MultiIntentResult {
	query = strings.TrimSpace(query)
	if d.completer == nil || query == "" {
		return fallbackDecomposition(query, "decomposition unavailable")
	}

	raw, err := d.completer.Complete(ctx, query, CompletionOptions{
		System:      decompositionPrompt,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		d.logger.Warn().Err(err).Msg("decomposition failed, treating as single intent")
		return fallbackDecomposition(query, "decomposition failed")
	}

	parsed, ok := utils.DecodeObject(raw, rawDecomposition{})
	if !ok {
		d.logger.Warn().Str("response", truncate(raw, 200)).Msg("could not parse decomposition, treating as single intent")
		return fallbackDecomposition(query, "unparseable decomposition")
	}
	if len(parsed.Intents) == 0 {
		d.logger.Warn().Bool("is_multi_intent", parsed.IsMultiIntent).Msg("decomposition listed no intents, treating as single intent")
		return fallbackDecomposition(query, "no intents listed")
	}

	intents := make([]model.SubIntent, 0, len(parsed.Intents))
	for _, in := range parsed.Intents {
		mode := model.GenerationMode(in.Mode)
		if !mode.IsValid() {
			d.logger.Warn().Str("mode", in.Mode).Msg("unknown sub-intent mode, using default")
			mode = model.DefaultMode
		}
		details := strings.TrimSpace(in.Details)
		entity := strings.TrimSpace(in.Entity)
		if details == "" && entity == "" {
			details = query
		}
		intents = append(intents, model.SubIntent{Mode: mode, Entity: entity, Details: details})
	}

	result := model.MultiIntentResult{
		IsMultiIntent: parsed.IsMultiIntent && len(intents) > 1,
		PrimaryIntent: model.GenerationMode(parsed.PrimaryIntent),
		Intents:       intents,
		Reasoning:     parsed.Reasoning,
	}

	if !result.IsMultiIntent {
		// a single task keeps the whole query so no context is lost
		primary := intents[0]
		if result.PrimaryIntent.IsValid() {
			primary.Mode = result.PrimaryIntent
		}
		primary.Entity = ""
		primary.Details = query
		result.PrimaryIntent = primary.Mode
		result.Intents = []model.SubIntent{primary}
		return result
	}

	if !result.PrimaryIntent.IsValid() {
		result.PrimaryIntent = intents[0].Mode
	}

	d.logger.Info().
		Int("intents", len(intents)).
		Str("reasoning", parsed.Reasoning).
		Msg("compound request detected")
	return result
}

func fallbackDecomposition(query, reason string) model.MultiIntentResult {
	return model.MultiIntentResult{
		IsMultiIntent: false,
		PrimaryIntent: model.DefaultMode,
		Intents:       []model.SubIntent{{Mode: model.DefaultMode, Details: query}},
		Reasoning:     reason,
		Fallback:      true,
	}
}
