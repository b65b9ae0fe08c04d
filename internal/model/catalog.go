package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PlaceRow is a place as returned by the catalog's filtered lookup
type PlaceRow struct {
	ID         int64    `db:"id"`
	Name       string   `db:"name"`
	Region     *string  `db:"region"`
	Country    *string  `db:"country"`
	Category   *string  `db:"category"`
	Latitude   *float64 `db:"latitude"`
	Longitude  *float64 `db:"longitude"`
	Activities string   `db:"activities"` // comma-joined activity names
	Embedding  []byte   `db:"embedding"`  // little-endian float32, may be nil
}

// CandidateRecord is a place that survived filtering and carries a decoded
// embedding
type CandidateRecord struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Region     *string   `json:"region,omitempty"`
	Country    *string   `json:"country,omitempty"`
	Category   *string   `json:"category,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Activities []string  `json:"activities"`
	Embedding  []float32 `json:"-"`
}

// ScoredCandidate pairs a candidate with its similarity to the query
type ScoredCandidate struct {
	Score     float64         `json:"score"`
	Candidate CandidateRecord `json:"candidate"`
}

// PlaceContext is the compact place view handed to specialists
type PlaceContext struct {
	Name       string   `json:"name"`
	Activities []string `json:"activities"`
	Relevance  float64  `json:"relevance"`
}

// PlaceFilter holds the structured place filters. Every set field is a
// case-insensitive substring match; fields are combined with AND.
type PlaceFilter struct {
	PlaceName *string `json:"place_name,omitempty"`
	Region    *string `json:"region,omitempty"`
	Country   *string `json:"country,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f PlaceFilter) IsEmpty() bool {
	return f.PlaceName == nil && f.Region == nil && f.Country == nil && f.Category == nil
}

// PlaceInput is a place submitted for ingestion
type PlaceInput struct {
	Name       string   `json:"name" binding:"required"`
	Category   *string  `json:"category,omitempty"`
	Country    *string  `json:"country,omitempty"`
	Region     *string  `json:"region,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Activities []string `json:"activities,omitempty"`
	RawText    *string  `json:"raw_text,omitempty"`
}

// NewPlace is a fully resolved place ready to be written
type NewPlace struct {
	Name       string
	Category   *string
	CountryID  *int64
	Region     *string
	Latitude   *float64
	Longitude  *float64
	Activities []string
	RawText    *string
	Embedding  []byte
}

// GeoLocation is a geocoding result. Any field may be nil.
type GeoLocation struct {
	Country   *string  `json:"country"`
	Region    *string  `json:"region"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HasCoordinates reports whether both coordinates are known
func (g *GeoLocation) HasCoordinates() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

// Accommodation represents a hotel, hostel, resort or similar
type Accommodation struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Type        *string   `json:"type,omitempty" db:"type"`
	Region      *string   `json:"region,omitempty" db:"region"`
	Latitude    *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64  `json:"longitude,omitempty" db:"longitude"`
	PriceRange  *string   `json:"price_range,omitempty" db:"price_range"`
	PriceMin    *float64  `json:"price_min,omitempty" db:"price_min"`
	PriceMax    *float64  `json:"price_max,omitempty" db:"price_max"`
	Currency    *string   `json:"currency,omitempty" db:"currency"`
	Rating      *float64  `json:"rating,omitempty" db:"rating"`
	Amenities   JSONArray `json:"amenities" db:"amenities"`
	Description *string   `json:"description,omitempty" db:"description"`
	Contact     *string   `json:"contact,omitempty" db:"contact_info"`
}

// Coordinates implements utils.Locatable
func (a Accommodation) Coordinates() (float64, float64, bool) {
	if a.Latitude == nil || a.Longitude == nil {
		return 0, 0, false
	}
	return *a.Latitude, *a.Longitude, true
}

// NearbyAccommodation is an accommodation with its distance to a target
type NearbyAccommodation struct {
	Accommodation
	DistanceKm float64 `json:"distance_km"`
}

// AccommodationFilter holds accommodation search filters
type AccommodationFilter struct {
	Location   *string  `json:"location,omitempty"`
	Type       *string  `json:"type,omitempty"`
	PriceRange *string  `json:"price_range,omitempty"`
	MinRating  *float64 `json:"min_rating,omitempty"`
	Amenities  []string `json:"amenities,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// AccommodationQuery is the accommodation preference set extracted from text
type AccommodationQuery struct {
	Location   *string  `json:"location"`
	PlaceName  *string  `json:"place_name"`
	Type       *string  `json:"type"`
	PriceRange *string  `json:"price_range"`
	Amenities  []string `json:"amenities"`
	RadiusKm   *float64 `json:"radius_km"`
}

// JSONArray represents a JSON array column
type JSONArray []string

// Value implements driver.Valuer interface
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner interface
func (j *JSONArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONArray source %T", value)
	}
}
