package model

import "strings"

// GenerationMode selects which specialist answers a query
type GenerationMode string

const (
	ModeItinerary         GenerationMode = "itinerary"
	ModeSuggestPlaces     GenerationMode = "suggest_places"
	ModeDescribePlace     GenerationMode = "describe_place"
	ModeActivityFocused   GenerationMode = "activity_focused"
	ModeComparison        GenerationMode = "comparison"
	ModeFindAccommodation GenerationMode = "find_accommodation"

	// DefaultMode is used whenever a mode cannot be determined
	DefaultMode = ModeItinerary
)

// ModeMultiAgent is reported as the mode used for compound requests. It is
// not a GenerationMode and can never be resolved to a specialist.
const ModeMultiAgent = "multi-agent"

// AllModes lists every generation mode in canonical order
var AllModes = []GenerationMode{
	ModeItinerary,
	ModeSuggestPlaces,
	ModeDescribePlace,
	ModeActivityFocused,
	ModeComparison,
	ModeFindAccommodation,
}

// IsValid reports whether m is a member of the closed mode set. The match is
// case-sensitive on the canonical lowercase values.
func (m GenerationMode) IsValid() bool {
	for _, mode := range AllModes {
		if m == mode {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (m GenerationMode) String() string {
	return string(m)
}

// ParseMode converts user supplied text to a mode, ignoring case and
// surrounding whitespace
func ParseMode(s string) (GenerationMode, bool) {
	mode := GenerationMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.IsValid() {
		return "", false
	}
	return mode, true
}

// ModeOrDefault returns mode when it is valid and DefaultMode otherwise
func ModeOrDefault(mode GenerationMode) GenerationMode {
	if mode.IsValid() {
		return mode
	}
	return DefaultMode
}

// ModeInfo describes a mode for mode listings
type ModeInfo struct {
	Mode        GenerationMode `json:"value"`
	Name        string         `json:"mode"`
	Description string         `json:"description"`
	Tools       []string       `json:"tools"`
	MaxSteps    int            `json:"max_steps"`
}
