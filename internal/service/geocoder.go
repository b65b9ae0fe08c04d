package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travelagent/internal/config"
	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/repository"

	"github.com/rs/zerolog"
)

// ErrLocationNotFound means a target could not be placed on the map at all
var ErrLocationNotFound = errors.New("location not found")

// Geocoder resolves a place name to a location. Region and country are
// optional hints; known hints are returned unchanged.
type Geocoder interface {
	Geocode(ctx context.Context, name string, region, country *string) (*model.GeoLocation, error)
}

// GeoCache stores geocoding results between requests
type GeoCache interface {
	GetLocation(ctx context.Context, key string) (*model.GeoLocation, bool, error)
	SetLocation(ctx context.Context, key string, loc *model.GeoLocation) error
}

// NominatimGeocoder queries an OpenStreetMap Nominatim endpoint
type NominatimGeocoder struct {
	cfg        config.GeocoderConfig
	httpClient *http.Client
	cache      GeoCache
	logger     zerolog.Logger
}

// NewNominatimGeocoder creates a geocoder. cache may be nil.
func NewNominatimGeocoder(cfg config.GeocoderConfig, cache GeoCache) *NominatimGeocoder {
	return &NominatimGeocoder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		cache:      cache,
		logger:     logging.Component("geocoder"),
	}
}

type nominatimResult struct {
	Lat     string            `json:"lat"`
	Lon     string            `json:"lon"`
	Address map[string]string `json:"address"`
}

// regionKeys are address fields tried in order when looking for a region
var regionKeys = []string{"state", "region", "province", "county", "city", "town"}

func (r nominatimResult) region() string {
	for _, k := range regionKeys {
		if v := r.Address[k]; v != "" {
			return v
		}
	}
	return ""
}

// Geocode looks name up with the hints appended. Zero results is not an
// error: the hints come back with no coordinates.
func (g *NominatimGeocoder) Geocode(ctx context.Context, name string, region, country *string) (*model.GeoLocation, error) {
	loc := &model.GeoLocation{Country: nonBlank(country), Region: nonBlank(region)}

	key := repository.GeocodeKey(name, deref(region), deref(country))
	if g.cache != nil {
		cached, ok, err := g.cache.GetLocation(ctx, key)
		if err != nil {
			g.logger.Warn().Err(err).Str("key", key).Msg("geocode cache read failed")
		} else if ok {
			return mergeLocation(loc, cached), nil
		}
	}

	results, err := g.search(ctx, name, loc.Region, loc.Country)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		g.logger.Debug().Str("place", name).Msg("no geocoding results")
		return loc, nil
	}

	best := pickResult(results, loc.Region, loc.Country)
	found := &model.GeoLocation{}
	if lat, err := strconv.ParseFloat(best.Lat, 64); err == nil {
		found.Latitude = &lat
	}
	if lon, err := strconv.ParseFloat(best.Lon, 64); err == nil {
		found.Longitude = &lon
	}
	if c := best.Address["country"]; c != "" {
		found.Country = &c
	}
	if r := best.region(); r != "" {
		found.Region = &r
	}

	if g.cache != nil && found.HasCoordinates() {
		if err := g.cache.SetLocation(ctx, key, found); err != nil {
			g.logger.Warn().Err(err).Str("key", key).Msg("geocode cache write failed")
		}
	}
	return mergeLocation(loc, found), nil
}

func (g *NominatimGeocoder) search(ctx context.Context, name string, region, country *string) ([]nominatimResult, error) {
	parts := []string{strings.TrimSpace(name)}
	if region != nil {
		parts = append(parts, *region)
	}
	if country != nil {
		parts = append(parts, *country)
	}

	params := url.Values{}
	params.Set("q", strings.Join(parts, ", "))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(max(g.cfg.ResultLimit, 1)))

	endpoint := strings.TrimRight(g.cfg.BaseURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	return results, nil
}

// pickResult prefers a result inside the hinted region, then one in the
// hinted country, then the first
func pickResult(results []nominatimResult, region, country *string) nominatimResult {
	if region != nil {
		want := strings.ToLower(*region)
		for _, r := range results {
			if got := r.region(); got != "" && strings.Contains(strings.ToLower(got), want) {
				return r
			}
		}
	}
	if country != nil {
		want := strings.ToLower(*country)
		for _, r := range results {
			if strings.Contains(strings.ToLower(r.Address["country"]), want) {
				return r
			}
		}
	}
	return results[0]
}

// mergeLocation fills the unknown fields of known from found
func mergeLocation(known, found *model.GeoLocation) *model.GeoLocation {
	out := *known
	if out.Country == nil {
		out.Country = found.Country
	}
	if out.Region == nil {
		out.Region = found.Region
	}
	out.Latitude = found.Latitude
	out.Longitude = found.Longitude
	return &out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
