package service

import (
	"context"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// ModeClassifier assigns exactly one generation mode to a query
type ModeClassifier struct {
	completer Completer
	logger    zerolog.Logger
}

// NewModeClassifier creates a new mode classifier
func NewModeClassifier(completer Completer) *ModeClassifier {
	return &ModeClassifier{
		completer: completer,
		logger:    logging.Component("classifier"),
	}
}

// Classify returns the query's mode and optional trip length. The mode is
// always a member of model.AllModes.
func (c *ModeClassifier) Classify(ctx context.Context, query string) model.ModeClassification {
	result := model.ModeClassification{Mode: model.DefaultMode}
	if c.completer == nil || strings.TrimSpace(query) == "" {
		return result
	}

	raw, err := c.completer.Complete(ctx, query, CompletionOptions{
		System:      modeClassificationPrompt,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("default", string(model.DefaultMode)).Msg("mode classification failed, using default")
		return result
	}

	fields, ok := utils.DecodeObject[map[string]any](raw, nil)
	if !ok {
		c.logger.Warn().Str("response", truncate(raw, 200)).Msg("could not parse mode classification, using default")
		return result
	}

	name, _ := fields["generation_mode"].(string)
	mode := model.GenerationMode(name)
	if !mode.IsValid() {
		c.logger.Warn().Str("mode", name).Str("default", string(model.DefaultMode)).Msg("unknown generation mode, using default")
		mode = model.DefaultMode
	}

	result.Mode = mode
	result.Days = positiveIntSlot(fields["days"])
	return result
}
