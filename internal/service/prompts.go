package service

import (
	"encoding/json"
	"fmt"

	"travelagent/internal/model"
)

// itinerarySystemPrompt constrains itinerary generation to retrieved places
const itinerarySystemPrompt = `You are a travel itinerary planning agent.

You MUST follow these rules strictly:

1. You ONLY use the provided places data.
2. DO NOT invent places, activities, or facts.
3. DO NOT assume missing information.
4. If data is insufficient, say so clearly.
5. Organize results into a day-by-day itinerary.
6. Keep activities relevant to the user's intent.
7. Prefer logical geographic flow.
8. Use concise but helpful descriptions.
9. Output in clear Markdown format.
10. If duration > available places, reuse days as free/exploration days.`

const intentExtractionPrompt = `You are an intent extraction system for travel queries.

Extract the following information from the user's query:
- place_name: specific place name if mentioned (e.g., "Doi Suthep", "Grand Canyon")
- region: region/city/area (e.g., "Chiang Mai", "Rakhine", "California")
- country: country name if mentioned
- category: type of destination (e.g., "beach", "mountain", "city", "temple")
- activities: list of activities mentioned (e.g., ["hiking", "swimming", "sightseeing"])
- days: number of days for the trip (extract from phrases like "3 day trip", "week long", etc.)

Query: %q

Return ONLY valid JSON in this exact format:
{
  "place_name": null,
  "region": "Chiang Mai",
  "country": "Thailand",
  "category": "mountain",
  "activities": ["hiking"],
  "days": 3
}

Use null for missing values. Do not add any markdown formatting.`

const modeClassificationPrompt = `You are an intent classifier.
Classify the user's request into one generation_mode.

generation_mode options:
- itinerary: for generating a day-by-day travel itinerary.
- suggest_places: for suggesting places to visit.
- describe_place: for describing a specific place.
- activity_focused: for planning around specific activities.
- comparison: for comparing multiple places or options.
- find_accommodation: for finding hotels, hostels, resorts or other places to stay.

If the user mentions a trip length, include it as "days".

Return JSON Only.
Example:
{
"generation_mode": "itinerary",
"days": 5
}`

const decompositionPrompt = `You are a request analyzer for a travel assistant.
Decide whether the user's request contains several INDEPENDENT tasks that
need different kinds of answers.

Task kinds:
- itinerary: a day-by-day travel plan
- suggest_places: suggestions of places to visit
- describe_place: information about one specific place
- activity_focused: a plan built around specific activities
- comparison: a comparison of two or more places
- find_accommodation: hotels, hostels, resorts or other places to stay

Rules:
- Most requests are a single task. Only split when the user clearly asks
  for two or more different things.
- Details of one task (days, budget, activities) are NOT separate tasks.
- Keep tasks in the order the user asked for them.
- entity is the place or subject of the task, details restates the task.

Return ONLY valid JSON in this exact format:
{
  "is_multi_intent": true,
  "primary_intent": "describe_place",
  "intents": [
    {"mode": "describe_place", "entity": "Doi Suthep", "details": "tell me about Doi Suthep"},
    {"mode": "find_accommodation", "entity": "Doi Suthep", "details": "find a hotel near Doi Suthep"}
  ],
  "reasoning": "the user asks for a description and for accommodation"
}

For a single task set "is_multi_intent" to false and list one intent.`

const accommodationExtractionPrompt = `Extract accommodation preferences from this query.

User query: %q

Return ONLY valid JSON in this exact format:
{
  "location": "Chiang Mai",
  "place_name": "Doi Kham",
  "type": "hotel",
  "price_range": "mid-range",
  "amenities": ["wifi", "pool"],
  "radius_km": 10
}

Fields:
- location: City/region (e.g., "Chiang Mai", "Bangkok")
- place_name: Specific place to be near (e.g., "Doi Suthep", "Old City") or null
- type: hotel, hostel, resort, guesthouse, villa, or null for any
- price_range: budget, mid-range, luxury, or null for any
- amenities: List of desired amenities or empty array
- radius_km: Distance from place in km (default 10)

Use null for missing values. Do not add markdown formatting.`

// buildItineraryPrompt renders the itinerary request around the place context
func buildItineraryPrompt(query string, days int, places []model.PlaceContext) string {
	if places == nil {
		places = []model.PlaceContext{}
	}
	placesJSON, err := json.MarshalIndent(places, "", "  ")
	if err != nil {
		placesJSON = []byte("[]")
	}

	return fmt.Sprintf(`User request:
"%s"

Trip duration:
%d days

Available places (RAG context):
%s

Task:
Create a %d-day itinerary.
Use ONLY the places above.
Group places logically by day.`, query, days, placesJSON, days)
}
