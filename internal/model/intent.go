package model

import "strings"

// Intent is the structured slot set extracted from a travel query. A nil
// field means the query does not constrain it.
type Intent struct {
	PlaceName  *string  `json:"place_name"`
	Region     *string  `json:"region"`
	Country    *string  `json:"country"`
	Category   *string  `json:"category"`
	Activities []string `json:"activities"`
	Days       *int     `json:"days"`
}

// IsEmpty reports whether no slot is set
func (i Intent) IsEmpty() bool {
	return i.PlaceName == nil && i.Region == nil && i.Country == nil &&
		i.Category == nil && len(i.Activities) == 0 && i.Days == nil
}

// ModeClassification is the result of classifying a query into one mode
type ModeClassification struct {
	Mode GenerationMode `json:"generation_mode"`
	Days *int           `json:"days,omitempty"`
}

// SubIntent is one independent task inside a compound request
type SubIntent struct {
	Mode    GenerationMode `json:"mode"`
	Entity  string         `json:"entity"`
	Details string         `json:"details"`
}

// Query renders the sub-intent back into text a specialist can answer
func (s SubIntent) Query() string {
	details := strings.TrimSpace(s.Details)
	entity := strings.TrimSpace(s.Entity)
	switch {
	case details == "":
		return entity
	case entity == "" || strings.Contains(strings.ToLower(details), strings.ToLower(entity)):
		return details
	default:
		return details + " " + entity
	}
}

// MultiIntentResult describes whether a query holds several tasks. When
// IsMultiIntent is false, Intents has at most one element and PrimaryIntent
// governs routing.
type MultiIntentResult struct {
	IsMultiIntent bool           `json:"is_multi_intent"`
	PrimaryIntent GenerationMode `json:"primary_intent"`
	Intents       []SubIntent    `json:"intents"`
	Reasoning     string         `json:"reasoning"`
	// Fallback is set when the result was substituted for unusable output
	Fallback bool `json:"fallback,omitempty"`
}
