package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// IntentExtractor turns a free-text travel query into structured slots
type IntentExtractor struct {
	completer Completer
	logger    zerolog.Logger
}

// NewIntentExtractor creates a new intent extractor. A nil completer yields
// empty intents.
func NewIntentExtractor(completer Completer) *IntentExtractor {
	return &IntentExtractor{
		completer: completer,
		logger:    logging.Component("intent"),
	}
}

// Extract extracts the six travel slots from query. It never fails: when the
// completion is unavailable or unusable every slot is left unset.
func (e *IntentExtractor) Extract(ctx context.Context, query string) model.Intent {
	query = strings.TrimSpace(query)
	if query == "" || e.completer == nil {
		return model.Intent{}
	}

	raw, err := e.completer.Complete(ctx, fmt.Sprintf(intentExtractionPrompt, query), CompletionOptions{
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		e.logger.Warn().Err(err).Msg("intent completion failed, returning empty intent")
		return model.Intent{}
	}

	slots, ok := utils.DecodeObject[map[string]any](raw, nil)
	if !ok {
		e.logger.Warn().Str("response", truncate(raw, 200)).Msg("could not parse intent, returning empty intent")
		return model.Intent{}
	}

	intent := model.Intent{
		PlaceName:  stringSlot(slots["place_name"]),
		Region:     stringSlot(slots["region"]),
		Country:    stringSlot(slots["country"]),
		Category:   stringSlot(slots["category"]),
		Activities: listSlot(slots["activities"]),
		Days:       positiveIntSlot(slots["days"]),
	}

	e.logger.Debug().Interface("intent", intent).Msg("extracted intent")
	return intent
}

// stringSlot reads an optional text slot. Blank and "null"-like text is unset.
func stringSlot(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a":
		return nil
	}
	return &s
}

// listSlot reads a list of strings. A bare string is a one-element list.
func listSlot(v any) []string {
	switch val := v.(type) {
	case string:
		if s := stringSlot(val); s != nil {
			return []string{*s}
		}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringSlot(item); s != nil {
				out = append(out, *s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// positiveIntSlot reads a positive whole number given as a number or numeric text
func positiveIntSlot(v any) *int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil
	}
	n := int(f)
	return &n
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
