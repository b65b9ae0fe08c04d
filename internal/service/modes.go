package service

import (
	"strings"

	"travelagent/internal/model"
)

// modeTable describes each generation mode for listings
var modeTable = map[model.GenerationMode]model.ModeInfo{
	model.ModeItinerary: {
		Description: "Creates day-by-day travel itineraries",
		Tools:       []string{"extract_travel_query", "generate_travel_itinerary"},
		MaxSteps:    8,
	},
	model.ModeSuggestPlaces: {
		Description: "Suggests travel destinations based on preferences",
		Tools:       []string{"extract_travel_query", "suggest_places"},
		MaxSteps:    6,
	},
	model.ModeDescribePlace: {
		Description: "Provides detailed information about specific places",
		Tools:       []string{"extract_travel_query", "describe_place"},
		MaxSteps:    6,
	},
	model.ModeActivityFocused: {
		Description: "Plans trips around specific activities",
		Tools:       []string{"extract_travel_query", "plan_activity_focused_trip"},
		MaxSteps:    8,
	},
	model.ModeComparison: {
		Description: "Compares multiple destinations side-by-side",
		Tools:       []string{"extract_travel_query", "compare_places"},
		MaxSteps:    6,
	},
	model.ModeFindAccommodation: {
		Description: "Finds hotels, hostels and resorts in an area or near a landmark",
		Tools: []string{
			"extract_accommodation_query",
			"search_accommodations",
			"find_accommodation_near_place",
			"compare_accommodations",
		},
		MaxSteps: 8,
	},
}

// ListModes describes every mode in canonical order
func ListModes() []model.ModeInfo {
	out := make([]model.ModeInfo, 0, len(model.AllModes))
	for _, mode := range model.AllModes {
		info := modeTable[mode]
		info.Mode = mode
		info.Name = strings.ToUpper(string(mode))
		out = append(out, info)
	}
	return out
}
