package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// amenityAliases maps a search keyword to the spellings accommodations use for it
var amenityAliases = map[string][]string{
	"wifi":       {"wifi", "wi-fi", "wireless internet", "internet"},
	"pool":       {"swimming pool", "pool", "infinity pool"},
	"gym":        {"gym", "fitness", "fitness center"},
	"spa":        {"spa", "massage", "wellness"},
	"aircon":     {"air conditioning", "air conditioner", "aircon", "a/c"},
	"parking":    {"parking", "car park", "free parking"},
	"breakfast":  {"breakfast", "breakfast included", "free breakfast"},
	"restaurant": {"restaurant", "dining", "bar & restaurant"},
	"shuttle":    {"airport shuttle", "shuttle", "airport transfer"},
	"laundry":    {"laundry", "laundry service", "washing machine"},
	"kitchen":    {"kitchen", "kitchenette", "shared kitchen"},
	"beach":      {"beachfront", "beach access", "private beach"},
	"pet":        {"pet friendly", "pets allowed"},
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FuzzyMatchAmenity reports whether an accommodation amenity satisfies a search term
func FuzzyMatchAmenity(searchTerm, amenity string) bool {
	searchLower := strings.ToLower(strings.TrimSpace(searchTerm))
	amenityLower := strings.ToLower(strings.TrimSpace(amenity))
	if searchLower == "" {
		return false
	}

	if searchLower == amenityLower || strings.Contains(amenityLower, searchLower) {
		return true
	}

	for key, values := range amenityAliases {
		if !strings.Contains(searchLower, key) && !containsAny(searchLower, values) {
			continue
		}
		if containsAny(amenityLower, values) {
			return true
		}
	}
	return false
}

// MatchAllAmenities reports whether every search term is matched by at least
// one accommodation amenity
func MatchAllAmenities(terms, amenities []string) bool {
	for _, term := range terms {
		found := false
		for _, amenity := range amenities {
			if FuzzyMatchAmenity(term, amenity) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// AmenityPatterns returns the ILIKE patterns that should match a search term
// in the amenities column
func AmenityPatterns(term string) []string {
	termLower := strings.ToLower(strings.TrimSpace(term))
	if termLower == "" {
		return nil
	}
	for key, values := range amenityAliases {
		if strings.Contains(termLower, key) || containsAny(termLower, values) {
			patterns := make([]string, 0, len(values))
			for _, v := range values {
				patterns = append(patterns, "%"+v+"%")
			}
			return patterns
		}
	}
	return []string{"%" + EscapeLike(termLower) + "%"}
}

// TitleCase upper-cases the first letter of every word. A Caser is stateful
// and must not be shared between goroutines.
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
