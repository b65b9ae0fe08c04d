package service

import (
	"context"
	"fmt"
	"strings"

	"travelagent/internal/config"
	"travelagent/internal/logging"
	"travelagent/internal/model"

	"github.com/rs/zerolog"
)

// CountryAliasSource maps lowercased country aliases to canonical names
type CountryAliasSource interface {
	CountryAliases(ctx context.Context) (map[string]string, error)
}

// TravelQueryResult is a resolved travel query with its ranked places
type TravelQueryResult struct {
	Intent  model.Intent            `json:"intent"`
	Places  []model.PlaceContext    `json:"places"`
	Ranked  []model.ScoredCandidate `json:"-"`
	Days    *int                    `json:"days"`
	Message string                  `json:"message"`
	Success bool                    `json:"success"`
}

// TravelQueryService resolves a query into catalog places
type TravelQueryService struct {
	extractor *IntentExtractor
	retrieval *RetrievalEngine
	aliases   CountryAliasSource
	cfg       config.RetrievalConfig
	logger    zerolog.Logger
}

// NewTravelQueryService creates a new travel query service
func NewTravelQueryService(extractor *IntentExtractor, retrieval *RetrievalEngine, aliases CountryAliasSource, cfg config.RetrievalConfig) *TravelQueryService {
	return &TravelQueryService{
		extractor: extractor,
		retrieval: retrieval,
		aliases:   aliases,
		cfg:       cfg,
		logger:    logging.Component("travel_query"),
	}
}

// ExtractIntent runs the intent extractor alone
func (s *TravelQueryService) ExtractIntent(ctx context.Context, query string) model.Intent {
	return s.extractor.Extract(ctx, query)
}

// Resolve extracts the intent (unless one is given) and retrieves matching
// places. Finding nothing is reported through Success, not an error.
func (s *TravelQueryService) Resolve(ctx context.Context, query string, intent *model.Intent) (*TravelQueryResult, error) {
	var in model.Intent
	if intent != nil {
		in = *intent
	} else {
		in = s.extractor.Extract(ctx, query)
	}

	in.Country = s.normalizeCountry(ctx, in.Country)

	filters := RetrievalFilters{
		PlaceFilter: model.PlaceFilter{
			PlaceName: in.PlaceName,
			Region:    in.Region,
		},
		Activities: in.Activities,
	}
	// activities are more specific than a category
	if len(in.Activities) == 0 {
		filters.Category = in.Category
	}
	// country filtering over-constrains small catalogs
	if s.cfg.FilterByCountry {
		filters.Country = in.Country
	}

	ranked, err := s.retrieval.Retrieve(ctx, query, filters, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	result := &TravelQueryResult{
		Intent: in,
		Places: BuildPlaceContext(ranked),
		Ranked: ranked,
		Days:   in.Days,
	}

	if len(result.Places) == 0 {
		result.Message = missingSlotsMessage(in)
		return result, nil
	}

	if result.Days == nil {
		days := s.cfg.DefaultTripDays
		result.Days = &days
	}
	result.Success = true
	result.Message = fmt.Sprintf("Found %d places matching your query.", len(result.Places))
	return result, nil
}

// normalizeCountry maps a country through the alias table. Unknown
// countries are cleared.
func (s *TravelQueryService) normalizeCountry(ctx context.Context, country *string) *string {
	if country == nil || s.aliases == nil {
		return nil
	}

	aliases, err := s.aliases.CountryAliases(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load country aliases, ignoring country")
		return nil
	}

	canonical, ok := aliases[strings.ToLower(strings.TrimSpace(*country))]
	if !ok {
		s.logger.Info().Str("country", *country).Msg("country not in catalog, skipping filter")
		return nil
	}
	if canonical != *country {
		s.logger.Debug().Str("from", *country).Str("to", canonical).Msg("country normalized")
	}
	return &canonical
}

func missingSlotsMessage(in model.Intent) string {
	var missing []string
	if in.Region == nil && in.Country == nil {
		missing = append(missing, "location (region or country)")
	}
	if len(in.Activities) == 0 && in.Category == nil {
		missing = append(missing, "activity type or category")
	}

	message := "No places found matching your criteria."
	if len(missing) > 0 {
		message += fmt.Sprintf(" Missing: %s. Please provide more details.", strings.Join(missing, ", "))
	}
	return message
}
