package service

import (
	"context"
	"fmt"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// PlaceWriter is the catalog write access ingestion needs
type PlaceWriter interface {
	CountryIDByName(ctx context.Context, name string) (*int64, error)
	InsertPlace(ctx context.Context, place model.NewPlace) (int64, error)
	DeletePlaceByName(ctx context.Context, name string) (int64, error)
	ClearPlaces(ctx context.Context) (int64, error)
}

// PlaceIngestService adds and removes catalog places
type PlaceIngestService struct {
	store     PlaceWriter
	geocoder  Geocoder
	embedder  Embedder
	dimension int
	logger    zerolog.Logger
}

// NewPlaceIngestService creates a new ingestion service. geocoder may be nil.
func NewPlaceIngestService(store PlaceWriter, geocoder Geocoder, embedder Embedder, dimension int) *PlaceIngestService {
	return &PlaceIngestService{
		store:     store,
		geocoder:  geocoder,
		embedder:  embedder,
		dimension: dimension,
		logger:    logging.Component("ingest"),
	}
}

// Add completes the place's location, embeds its raw text and stores it
// with its activities
func (s *PlaceIngestService) Add(ctx context.Context, in model.PlaceInput) (int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, fmt.Errorf("place name is required")
	}

	place := model.NewPlace{
		Name:       name,
		Category:   nonBlank(in.Category),
		Region:     nonBlank(in.Region),
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Activities: in.Activities,
		RawText:    nonBlank(in.RawText),
	}
	country := nonBlank(in.Country)

	if s.geocoder != nil && (country == nil || place.Region == nil || place.Latitude == nil || place.Longitude == nil) {
		loc, err := s.geocoder.Geocode(ctx, name, place.Region, country)
		if err != nil {
			s.logger.Warn().Err(err).Str("place", name).Msg("geocoding failed, storing known fields only")
		} else {
			if country == nil {
				country = loc.Country
			}
			if place.Region == nil {
				place.Region = loc.Region
			}
			if place.Latitude == nil || place.Longitude == nil {
				place.Latitude, place.Longitude = loc.Latitude, loc.Longitude
			}
		}
	}

	if country != nil {
		id, err := s.store.CountryIDByName(ctx, *country)
		if err != nil {
			return 0, err
		}
		if id == nil {
			s.logger.Warn().Str("country", *country).Msg("country not in catalog, storing without country")
		}
		place.CountryID = id
	}

	if place.RawText != nil {
		vec, err := s.embedder.EmbedText(ctx, *place.RawText)
		if err != nil {
			return 0, fmt.Errorf("failed to embed place text: %w", err)
		}
		if len(vec) != s.dimension {
			return 0, fmt.Errorf("place embedding has %d dimensions, expected %d: %w", len(vec), s.dimension, utils.ErrEmbeddingDimension)
		}
		place.Embedding = utils.EncodeEmbedding(vec)
	}

	id, err := s.store.InsertPlace(ctx, place)
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int64("id", id).Str("name", name).Int("activities", len(place.Activities)).Msg("place inserted")
	return id, nil
}

// Delete removes the places with this name
func (s *PlaceIngestService) Delete(ctx context.Context, name string) (int64, error) {
	n, err := s.store.DeletePlaceByName(ctx, name)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Str("name", name).Int64("deleted", n).Msg("places deleted")
	return n, nil
}

// Clear removes every place
func (s *PlaceIngestService) Clear(ctx context.Context) (int64, error) {
	n, err := s.store.ClearPlaces(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn().Int64("deleted", n).Msg("all places deleted")
	return n, nil
}
