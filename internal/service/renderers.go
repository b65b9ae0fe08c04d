package service

import (
	"fmt"
	"sort"
	"strings"

	"travelagent/internal/model"
	"travelagent/internal/utils"
)

// renderSuggestions renders a numbered list of suggested places
func renderSuggestions(places []model.PlaceContext) string {
	if len(places) == 0 {
		return "I couldn't find any places to suggest. Please provide more details about your preferences."
	}

	lines := []string{"Based on your query, here are some suggested places to visit:\n"}
	for i, p := range places {
		lines = append(lines, fmt.Sprintf("%d. **%s** (relevance: %.2f)\n   Activities: %s",
			i+1, p.Name, p.Relevance, strings.Join(firstN(p.Activities, 5), ", ")))
	}
	return strings.Join(lines, "\n")
}

// renderDescription describes the place matching name, or the most relevant
// place when none matches
func renderDescription(name string, places []model.PlaceContext) string {
	if len(places) == 0 {
		return fmt.Sprintf("I couldn't find information about '%s' in the database.", name)
	}

	target := places[0]
	if idx := matchPlace(name, places); idx >= 0 {
		target = places[idx]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", target.Name)
	fmt.Fprintf(&b, "%s is a wonderful destination ", target.Name)
	if len(target.Activities) > 0 {
		fmt.Fprintf(&b, "known for activities such as %s. ", strings.Join(target.Activities, ", "))
	}
	b.WriteString("\n\nThis location offers a variety of experiences that make it a great choice for travelers")
	switch len(target.Activities) {
	case 0:
		b.WriteString(" interested in exploration and adventure.")
	case 1:
		fmt.Fprintf(&b, " interested in %s.", target.Activities[0])
	default:
		fmt.Fprintf(&b, " interested in %s and %s.", target.Activities[0], target.Activities[1])
	}
	return b.String()
}

// renderActivityPlan groups places by activity, most widely available first.
// When activities are requested only activities containing one of them are
// listed.
func renderActivityPlan(places []model.PlaceContext, requested []string) string {
	if len(places) == 0 {
		return "No places found for the requested activities."
	}

	var order []string
	byActivity := make(map[string][]string)
	for _, p := range places {
		for _, a := range p.Activities {
			a = strings.ToLower(a)
			if _, seen := byActivity[a]; !seen {
				order = append(order, a)
				byActivity[a] = nil
			}
		}
	}

	var relevant []string
	for _, a := range order {
		if len(requested) == 0 || containsAnyFold(a, requested) {
			relevant = append(relevant, a)
		}
	}

	for _, p := range places {
		for _, a := range relevant {
			if hasActivityFold(p.Activities, a) {
				byActivity[a] = append(byActivity[a], p.Name)
			}
		}
	}

	sort.SliceStable(relevant, func(i, j int) bool {
		return len(byActivity[relevant[i]]) > len(byActivity[relevant[j]])
	})

	lines := []string{
		"**Activity-Focused Trip Plan**\n",
		"Based on your interests, here are activities you can enjoy:\n",
	}
	for _, a := range relevant {
		if names := byActivity[a]; len(names) > 0 {
			lines = append(lines,
				fmt.Sprintf("\n**%s**", utils.TitleCase(a)),
				"Available at: "+strings.Join(firstN(names, 3), ", "))
		}
	}
	return strings.Join(lines, "\n")
}

// renderPlaceComparison compares up to three places. When at least two names
// match retrieved places those are compared instead of the top results.
func renderPlaceComparison(places []model.PlaceContext, names []string) string {
	if len(places) < 2 {
		return "I need at least 2 places to make a comparison."
	}

	if len(names) >= 2 {
		var filtered []model.PlaceContext
		for _, n := range firstN(names, 3) {
			if idx := matchPlace(n, places); idx >= 0 {
				filtered = append(filtered, places[idx])
			}
		}
		if len(filtered) >= 2 {
			places = filtered
		}
	}
	compared := firstN(places, 3)

	lines := []string{"**Place Comparison**\n"}
	for i, p := range compared {
		lines = append(lines,
			fmt.Sprintf("\n**%d. %s** (relevance: %.2f)", i+1, p.Name, p.Relevance),
			"Activities: "+strings.Join(firstN(p.Activities, 6), ", "))
	}

	p1, p2 := compared[0], compared[1]
	a1, a2 := lowerAll(p1.Activities), lowerAll(p2.Activities)
	shared := intersect(a1, a2)
	unique1 := difference(a1, a2)
	unique2 := difference(a2, a1)

	lines = append(lines, "\n**Summary:**")
	if len(shared) > 0 {
		lines = append(lines, "- Shared: "+strings.Join(firstN(shared, 3), ", "))
	}
	if len(unique1) > 0 {
		lines = append(lines, fmt.Sprintf("- Unique to %s: %s", p1.Name, strings.Join(firstN(unique1, 3), ", ")))
	}
	if len(unique2) > 0 {
		lines = append(lines, fmt.Sprintf("- Unique to %s: %s", p2.Name, strings.Join(firstN(unique2, 3), ", ")))
	}
	return strings.Join(lines, "\n")
}

// renderNearby renders accommodations found around a place
func renderNearby(place string, radiusKm float64, nearby []model.NearbyAccommodation) string {
	lines := []string{fmt.Sprintf("**Accommodations near %s** (within %skm):\n", place, formatNumber(radiusKm))}
	for i, n := range nearby {
		lines = append(lines, fmt.Sprintf("\n%d. **%s** (%s)\n   📍 %skm from %s\n   💰 %s (%s)\n   %s\n   🏨 %s\n   %s...",
			i+1, n.Name, utils.TitleCase(strOr(n.Type, "accommodation")),
			formatNumber(n.DistanceKm), place,
			priceString(n.Accommodation, "Price varies"), strOr(n.PriceRange, "N/A"),
			ratingString(n.Rating),
			amenitiesString(n.Amenities, 5),
			clip(strOr(n.Description, ""), 150)))
	}
	return strings.Join(lines, "\n")
}

// renderAccommodationList renders the result of a filtered search
func renderAccommodationList(location string, accs []model.Accommodation) string {
	if len(accs) == 0 {
		return fmt.Sprintf("No accommodations found in %s.", orDefault(location, "the area"))
	}

	header := "**Accommodations found**"
	if location != "" {
		header = fmt.Sprintf("**Accommodations in %s**", location)
	}
	lines := []string{header + "\n"}
	for i, a := range accs {
		lines = append(lines, fmt.Sprintf("\n%d. **%s** (%s)\n   📍 %s\n   💰 %s (%s)\n   %s\n   🏨 %s",
			i+1, a.Name, utils.TitleCase(strOr(a.Type, "accommodation")),
			strOr(a.Region, "N/A"),
			priceString(a, "Price varies"), strOr(a.PriceRange, "N/A"),
			ratingString(a.Rating),
			amenitiesString(a.Amenities, 5)))
	}
	return strings.Join(lines, "\n")
}

// renderAccommodationComparison compares up to three accommodations, with a
// summary when exactly two are compared
func renderAccommodationComparison(accs []model.Accommodation) string {
	if len(accs) < 2 {
		return "Need at least 2 accommodations to compare. Please search for accommodations first."
	}
	compared := firstN(accs, 3)

	lines := []string{"**Accommodation Comparison**\n"}
	for i, a := range compared {
		rating := "N/A"
		if a.Rating != nil {
			rating = formatNumber(*a.Rating)
		}
		lines = append(lines, fmt.Sprintf("\n**%d. %s** (%s)\nRegion: %s\nPrice: %s (%s)\nRating: ⭐ %s/5.0\nAmenities: %s\nDescription: %s...",
			i+1, a.Name, utils.TitleCase(strOr(a.Type, "accommodation")),
			strOr(a.Region, "N/A"),
			priceString(a, "$?-?"), strOr(a.PriceRange, "N/A"),
			rating,
			amenitiesString(a.Amenities, 6),
			clip(strOr(a.Description, "No description"), 120)))
	}

	if len(compared) != 2 {
		return strings.Join(lines, "\n")
	}

	a1, a2 := compared[0], compared[1]
	lines = append(lines, "\n**Comparison Summary:**")
	if a1.PriceMin != nil && a2.PriceMin != nil {
		switch {
		case *a1.PriceMin < *a2.PriceMin:
			lines = append(lines, fmt.Sprintf("- **More affordable**: %s", a1.Name))
		case *a2.PriceMin < *a1.PriceMin:
			lines = append(lines, fmt.Sprintf("- **More affordable**: %s", a2.Name))
		default:
			lines = append(lines, "- **Similar pricing**")
		}
	}
	if a1.Rating != nil && a2.Rating != nil {
		r1, r2 := formatNumber(*a1.Rating), formatNumber(*a2.Rating)
		switch {
		case *a1.Rating > *a2.Rating:
			lines = append(lines, fmt.Sprintf("- **Higher rated**: %s (%s vs %s)", a1.Name, r1, r2))
		case *a2.Rating > *a1.Rating:
			lines = append(lines, fmt.Sprintf("- **Higher rated**: %s (%s vs %s)", a2.Name, r2, r1))
		default:
			lines = append(lines, fmt.Sprintf("- **Same rating**: %s/5.0", r1))
		}
	}
	if u := difference(a1.Amenities, a2.Amenities); len(u) > 0 {
		lines = append(lines, fmt.Sprintf("- **Unique to %s**: %s", a1.Name, strings.Join(firstN(u, 3), ", ")))
	}
	if u := difference(a2.Amenities, a1.Amenities); len(u) > 0 {
		lines = append(lines, fmt.Sprintf("- **Unique to %s**: %s", a2.Name, strings.Join(firstN(u, 3), ", ")))
	}
	return strings.Join(lines, "\n")
}

// matchPlace finds the first place whose name contains name or is contained
// in it, ignoring case
func matchPlace(name string, places []model.PlaceContext) int {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return -1
	}
	for i, p := range places {
		got := strings.ToLower(p.Name)
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return i
		}
	}
	return -1
}

func priceString(a model.Accommodation, fallback string) string {
	if a.PriceMin == nil {
		return fallback
	}
	upper := "?"
	if a.PriceMax != nil {
		upper = formatNumber(*a.PriceMax)
	}
	return fmt.Sprintf("$%s-%s", formatNumber(*a.PriceMin), upper)
}

func ratingString(rating *float64) string {
	if rating == nil {
		return "Not rated"
	}
	return fmt.Sprintf("⭐ %s/5.0", formatNumber(*rating))
}

func amenitiesString(amenities []string, n int) string {
	if len(amenities) == 0 {
		return "Basic amenities"
	}
	return strings.Join(firstN(amenities, n), ", ")
}

// formatNumber prints v without trailing zeros
func formatNumber(v float64) string {
	return fmt.Sprintf("%g", v)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func strOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstN[T any](items []T, n int) []T {
	if n < 0 || len(items) <= n {
		return items
	}
	return items[:n]
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}

// intersect returns the items of a also in b, in a's order
func intersect(a, b []string) []string {
	set := toSet(b)
	var out []string
	for _, s := range a {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// difference returns the items of a not in b, in a's order
func difference(a, b []string) []string {
	set := toSet(b)
	var out []string
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

func containsAnyFold(s string, subs []string) bool {
	s = strings.ToLower(s)
	for _, sub := range subs {
		if sub = strings.ToLower(strings.TrimSpace(sub)); sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasActivityFold(activities []string, want string) bool {
	for _, a := range activities {
		if strings.EqualFold(a, want) {
			return true
		}
	}
	return false
}
