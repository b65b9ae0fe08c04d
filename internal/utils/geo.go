package utils

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// Locatable is anything that may carry a coordinate pair
type Locatable interface {
	Coordinates() (lat, lon float64, ok bool)
}

// Nearby is an item with its distance to a search target
type Nearby[T Locatable] struct {
	Item       T
	DistanceKm float64
}

// DistanceKm returns the haversine distance between two points in kilometers,
// rounded to two decimals
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return Round(EarthRadiusKm*c, 2)
}

// FindNearby keeps the items within radiusKm of the target, nearest first.
// Items without coordinates are skipped.
func FindNearby[T Locatable](lat, lon float64, items []T, radiusKm float64) []Nearby[T] {
	out := make([]Nearby[T], 0)
	for _, item := range items {
		itemLat, itemLon, ok := item.Coordinates()
		if !ok {
			continue
		}
		d := DistanceKm(lat, lon, itemLat, itemLon)
		if d <= radiusKm {
			out = append(out, Nearby[T]{Item: item, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Round rounds v to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
