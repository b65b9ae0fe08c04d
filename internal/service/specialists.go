package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"travelagent/internal/model"
)

// SpecialistRequest is one task handed to a specialist
type SpecialistRequest struct {
	Query string
	// Entity is the subject named by the decomposer, empty for whole queries
	Entity string
	// Intent is reused when already extracted for this exact query
	Intent *model.Intent
}

// Specialist answers one kind of travel request. Implementations must be
// safe for concurrent use.
type Specialist interface {
	Name() string
	Mode() model.GenerationMode
	Handle(ctx context.Context, req SpecialistRequest) (string, error)
}

// SpecialistFactory builds the specialist for a mode. chatModel is the
// completion model override, empty for the configured default.
type SpecialistFactory func(chatModel string) (Specialist, error)

// SpecialistDeps are the shared collaborators specialists are built from
type SpecialistDeps struct {
	Queries        *TravelQueryService
	Accommodations *AccommodationService
	Completer      Completer
	Temperature    float64
}

// DefaultFactories returns the factory for every mode
func DefaultFactories(deps SpecialistDeps) map[model.GenerationMode]SpecialistFactory {
	return map[model.GenerationMode]SpecialistFactory{
		model.ModeItinerary: func(chatModel string) (Specialist, error) {
			return &ItinerarySpecialist{queries: deps.Queries, completer: deps.Completer, chatModel: chatModel, temperature: deps.Temperature}, nil
		},
		model.ModeSuggestPlaces: func(string) (Specialist, error) {
			return &PlacesSpecialist{queries: deps.Queries, mode: model.ModeSuggestPlaces}, nil
		},
		model.ModeDescribePlace: func(string) (Specialist, error) {
			return &PlacesSpecialist{queries: deps.Queries, mode: model.ModeDescribePlace}, nil
		},
		model.ModeActivityFocused: func(string) (Specialist, error) {
			return &ActivitySpecialist{queries: deps.Queries}, nil
		},
		model.ModeComparison: func(string) (Specialist, error) {
			return &ComparisonSpecialist{queries: deps.Queries}, nil
		},
		model.ModeFindAccommodation: func(chatModel string) (Specialist, error) {
			if deps.Accommodations == nil {
				return nil, fmt.Errorf("accommodation search is not configured")
			}
			return &AccommodationSpecialist{accommodations: deps.Accommodations, chatModel: chatModel}, nil
		},
	}
}

// ItinerarySpecialist writes day-by-day plans from retrieved places
type ItinerarySpecialist struct {
	queries     *TravelQueryService
	completer   Completer
	chatModel   string
	temperature float64
}

func (s *ItinerarySpecialist) Name() string               { return "itinerary_specialist" }
func (s *ItinerarySpecialist) Mode() model.GenerationMode { return model.ModeItinerary }

// Handle resolves the query and asks the completion service for a plan
func (s *ItinerarySpecialist) Handle(ctx context.Context, req SpecialistRequest) (string, error) {
	res, err := s.queries.Resolve(ctx, req.Query, req.Intent)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "Cannot generate itinerary: " + res.Message, nil
	}
	if s.completer == nil {
		return "", ErrAIDisabled
	}

	return complete(ctx, s.completer, buildItineraryPrompt(req.Query, *res.Days, res.Places), CompletionOptions{
		Model:       s.chatModel,
		System:      itinerarySystemPrompt,
		Temperature: s.temperature,
	})
}

// PlacesSpecialist suggests or describes places
type PlacesSpecialist struct {
	queries *TravelQueryService
	mode    model.GenerationMode
}

func (s *PlacesSpecialist) Name() string               { return "places_specialist" }
func (s *PlacesSpecialist) Mode() model.GenerationMode { return s.mode }

// Handle renders suggestions or a description of the best matching place
func (s *PlacesSpecialist) Handle(ctx context.Context, req SpecialistRequest) (string, error) {
	res, err := s.queries.Resolve(ctx, req.Query, req.Intent)
	if err != nil {
		return "", err
	}

	if s.mode == model.ModeDescribePlace {
		name := req.Entity
		if res.Intent.PlaceName != nil {
			name = *res.Intent.PlaceName
		}
		if name == "" {
			name = req.Query
		}
		return renderDescription(name, res.Places), nil
	}
	return renderSuggestions(res.Places), nil
}

// ActivitySpecialist groups places by the activities they offer
type ActivitySpecialist struct {
	queries *TravelQueryService
}

func (s *ActivitySpecialist) Name() string               { return "activity_specialist" }
func (s *ActivitySpecialist) Mode() model.GenerationMode { return model.ModeActivityFocused }

// Handle renders an activity-focused plan
func (s *ActivitySpecialist) Handle(ctx context.Context, req SpecialistRequest) (string, error) {
	res, err := s.queries.Resolve(ctx, req.Query, req.Intent)
	if err != nil {
		return "", err
	}
	return renderActivityPlan(res.Places, res.Intent.Activities), nil
}

// ComparisonSpecialist compares two or three places
type ComparisonSpecialist struct {
	queries *TravelQueryService
}

func (s *ComparisonSpecialist) Name() string               { return "comparison_specialist" }
func (s *ComparisonSpecialist) Mode() model.GenerationMode { return model.ModeComparison }

// Handle compares the places named in the request. A single place name would
// narrow retrieval to one place, so it is dropped before searching.
func (s *ComparisonSpecialist) Handle(ctx context.Context, req SpecialistRequest) (string, error) {
	intent := req.Intent
	if intent == nil {
		extracted := s.queries.ExtractIntent(ctx, req.Query)
		intent = &extracted
	}
	broad := *intent
	broad.PlaceName = nil

	res, err := s.queries.Resolve(ctx, req.Query, &broad)
	if err != nil {
		return "", err
	}

	subject := req.Entity
	if subject == "" {
		subject = req.Query
	}
	return renderPlaceComparison(res.Places, SplitEntityNames(subject)), nil
}

// AccommodationSpecialist finds places to stay
type AccommodationSpecialist struct {
	accommodations *AccommodationService
	chatModel      string
}

func (s *AccommodationSpecialist) Name() string               { return "accommodation_specialist" }
func (s *AccommodationSpecialist) Mode() model.GenerationMode { return model.ModeFindAccommodation }

var compareWords = regexp.MustCompile(`(?i)\b(compare|comparison|versus|vs\.?)\b`)

// Handle searches near a named place when there is one and by area
// otherwise. Comparison requests compare the named or top two results.
func (s *AccommodationSpecialist) Handle(ctx context.Context, req SpecialistRequest) (string, error) {
	wantsComparison := compareWords.MatchString(req.Query)

	if wantsComparison {
		names := SplitEntityNames(req.Entity)
		if len(names) >= 2 {
			named, err := s.accommodations.FindByName(ctx, names)
			if err != nil {
				return "", err
			}
			if len(named) >= 2 {
				return renderAccommodationComparison(named), nil
			}
		}
	}

	prefs := s.accommodations.ExtractQuery(ctx, req.Query, s.chatModel)

	if prefs.PlaceName != nil {
		resp, err := s.accommodations.Nearby(ctx, *prefs.PlaceName, *prefs.RadiusKm, prefs.Type, prefs.PriceRange, 0)
		if err != nil {
			return "", err
		}
		if wantsComparison && len(resp.Results) >= 2 {
			accs := make([]model.Accommodation, 0, 2)
			for _, n := range resp.Results[:2] {
				accs = append(accs, n.Accommodation)
			}
			return renderAccommodationComparison(accs), nil
		}
		return resp.Message, nil
	}

	accs, err := s.accommodations.Search(ctx, model.AccommodationFilter{
		Location:   prefs.Location,
		Type:       prefs.Type,
		PriceRange: prefs.PriceRange,
		Amenities:  prefs.Amenities,
	})
	if err != nil {
		return "", err
	}
	if wantsComparison && len(accs) >= 2 {
		return renderAccommodationComparison(accs[:2]), nil
	}
	return renderAccommodationList(deref(prefs.Location), accs), nil
}

var entitySeparators = regexp.MustCompile(`(?i)\s*(?:,|;|\bvs\.?|\bversus\b|\band\b|\bor\b|&)\s*`)

// SplitEntityNames splits text like "Doi Suthep vs Doi Inthanon" into names
func SplitEntityNames(text string) []string {
	var out []string
	for _, part := range entitySeparators.Split(text, -1) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
