package model

import "time"

// QueryRequest represents a travel question
type QueryRequest struct {
	Query      string `json:"query" binding:"required"`
	Mode       string `json:"mode,omitempty"`       // optional explicit mode, bypasses classification
	Deployment string `json:"deployment,omitempty"` // optional chat model override
}

// Segment is one specialist's contribution to a response
type Segment struct {
	Index      int            `json:"index"`
	Mode       GenerationMode `json:"mode"`
	Specialist string         `json:"specialist"`
	Query      string         `json:"query"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// QueryResponse represents the answer to a travel question
type QueryResponse struct {
	RequestID string    `json:"request_id"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Mode      string    `json:"mode"`
	Days      *int      `json:"days,omitempty"`
	Intent    *Intent   `json:"intent,omitempty"`
	Segments  []Segment `json:"segments,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Took      int64     `json:"took_ms"`
}

// RetrieveRequest is a direct retrieval call with explicit filters
type RetrieveRequest struct {
	Query      string   `json:"query" binding:"required"`
	PlaceName  *string  `json:"place_name,omitempty"`
	Region     *string  `json:"region,omitempty"`
	Country    *string  `json:"country,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Activities []string `json:"activities,omitempty"`
	TopK       int      `json:"top_k,omitempty"`
}

// RetrieveResponse lists ranked places
type RetrieveResponse struct {
	Results []ScoredCandidate `json:"results"`
	Places  []PlaceContext    `json:"places"`
	Took    int64             `json:"took_ms"`
}

// NearbyResponse is the outcome of a nearby accommodation search.
// LocationFound=false means the target could not be placed at all, which is
// different from an empty Results list.
type NearbyResponse struct {
	Place         string                `json:"place"`
	RadiusKm      float64               `json:"radius_km"`
	LocationFound bool                  `json:"location_found"`
	Latitude      *float64              `json:"latitude,omitempty"`
	Longitude     *float64              `json:"longitude,omitempty"`
	Results       []NearbyAccommodation `json:"results"`
	Message       string                `json:"message"`
}

// PlaceIngestResponse reports the outcome of an ingestion
type PlaceIngestResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// QueryLog is one row of the query audit log
type QueryLog struct {
	ID             string    `db:"id"`
	Query          string    `db:"query"`
	Mode           string    `db:"mode"`
	Intent         []byte    `db:"intent"`
	Success        bool      `db:"success"`
	ResponseTimeMs int64     `db:"response_time_ms"`
	CreatedAt      time.Time `db:"created_at"`
}
