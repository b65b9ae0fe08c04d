package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travelagent/internal/config"
	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// AccommodationStore is the catalog access accommodation search needs
type AccommodationStore interface {
	SearchAccommodations(ctx context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error)
	AccommodationsWithCoordinates(ctx context.Context, accType, priceRange *string) ([]model.Accommodation, error)
	FindAccommodationsByName(ctx context.Context, names []string) ([]model.Accommodation, error)
	FindPlaceCoordinates(ctx context.Context, name string) (*model.GeoLocation, error)
}

// AccommodationService searches accommodations by attributes or proximity
type AccommodationService struct {
	store     AccommodationStore
	geocoder  Geocoder
	completer Completer
	cfg       config.AccommodationConfig
	logger    zerolog.Logger
}

// NewAccommodationService creates a new accommodation service. geocoder may
// be nil, in which case places are located through the catalog only.
func NewAccommodationService(store AccommodationStore, geocoder Geocoder, completer Completer, cfg config.AccommodationConfig) *AccommodationService {
	return &AccommodationService{
		store:     store,
		geocoder:  geocoder,
		completer: completer,
		cfg:       cfg,
		logger:    logging.Component("accommodation"),
	}
}

// ExtractQuery reads accommodation preferences from free text. It never
// fails; the radius defaults to the configured value.
func (s *AccommodationService) ExtractQuery(ctx context.Context, query, chatModel string) model.AccommodationQuery {
	out := model.AccommodationQuery{Amenities: []string{}}
	defer func() {
		if out.RadiusKm == nil {
			r := s.cfg.DefaultRadiusKm
			out.RadiusKm = &r
		}
	}()

	if s.completer == nil || strings.TrimSpace(query) == "" {
		return out
	}

	raw, err := s.completer.Complete(ctx, fmt.Sprintf(accommodationExtractionPrompt, query), CompletionOptions{
		Model:       chatModel,
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("accommodation extraction failed")
		return out
	}

	fields, ok := utils.DecodeObject[map[string]any](raw, nil)
	if !ok {
		s.logger.Warn().Str("response", truncate(raw, 200)).Msg("could not parse accommodation preferences")
		return out
	}

	out.Location = stringSlot(fields["location"])
	out.PlaceName = stringSlot(fields["place_name"])
	out.Type = stringSlot(fields["type"])
	out.PriceRange = stringSlot(fields["price_range"])
	if amenities := listSlot(fields["amenities"]); amenities != nil {
		out.Amenities = amenities
	}
	if r, ok := fields["radius_km"].(float64); ok && r > 0 {
		out.RadiusKm = &r
	}
	return out
}

// Search returns accommodations matching the filter, best rated first.
// Amenity terms are matched through their aliases.
func (s *AccommodationService) Search(ctx context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error) {
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.Limit
	}

	accs, err := s.store.SearchAccommodations(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(filter.Amenities) == 0 {
		return accs, nil
	}

	out := make([]model.Accommodation, 0, len(accs))
	for _, a := range accs {
		if utils.MatchAllAmenities(filter.Amenities, a.Amenities) {
			out = append(out, a)
		}
	}
	return out, nil
}

// FindByName looks accommodations up by name, keeping the order of names
func (s *AccommodationService) FindByName(ctx context.Context, names []string) ([]model.Accommodation, error) {
	return s.store.FindAccommodationsByName(ctx, names)
}

// Locate places a target on the map, trying the geocoder before the catalog.
// It returns ErrLocationNotFound when neither knows the place.
func (s *AccommodationService) Locate(ctx context.Context, place string) (float64, float64, error) {
	if s.geocoder != nil {
		loc, err := s.geocoder.Geocode(ctx, place, nil, nil)
		if err != nil {
			s.logger.Warn().Err(err).Str("place", place).Msg("geocoding failed, trying catalog")
		} else if loc.HasCoordinates() {
			return *loc.Latitude, *loc.Longitude, nil
		}
	}

	loc, err := s.store.FindPlaceCoordinates(ctx, place)
	if err != nil {
		return 0, 0, err
	}
	if !loc.HasCoordinates() {
		return 0, 0, fmt.Errorf("%q: %w", place, ErrLocationNotFound)
	}
	return *loc.Latitude, *loc.Longitude, nil
}

// Nearby finds accommodations within radiusKm of place, nearest first. An
// unknown place is reported with LocationFound=false rather than an error.
func (s *AccommodationService) Nearby(ctx context.Context, place string, radiusKm float64, accType, priceRange *string, limit int) (*model.NearbyResponse, error) {
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	if limit <= 0 {
		limit = s.cfg.Limit
	}

	resp := &model.NearbyResponse{
		Place:    place,
		RadiusKm: radiusKm,
		Results:  []model.NearbyAccommodation{},
	}

	lat, lon, err := s.Locate(ctx, place)
	if errors.Is(err, ErrLocationNotFound) {
		resp.Message = fmt.Sprintf("Could not find location coordinates for '%s'. Please try a different place name or be more specific.", place)
		return resp, nil
	}
	if err != nil {
		return nil, err
	}
	resp.LocationFound = true
	resp.Latitude = &lat
	resp.Longitude = &lon

	accs, err := s.store.AccommodationsWithCoordinates(ctx, accType, priceRange)
	if err != nil {
		return nil, err
	}

	nearby := utils.FindNearby(lat, lon, accs, radiusKm)
	for _, n := range firstN(nearby, limit) {
		resp.Results = append(resp.Results, model.NearbyAccommodation{
			Accommodation: n.Item,
			DistanceKm:    n.DistanceKm,
		})
	}

	if len(resp.Results) == 0 {
		resp.Message = fmt.Sprintf("No accommodations found within %skm of %s. Try increasing the search radius or check nearby cities.", formatNumber(radiusKm), place)
		return resp, nil
	}
	resp.Message = renderNearby(place, radiusKm, resp.Results)
	return resp, nil
}
