package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	name     string
	lat, lon *float64
}

func (p point) Coordinates() (float64, float64, bool) {
	if p.lat == nil || p.lon == nil {
		return 0, 0, false
	}
	return *p.lat, *p.lon, true
}

func at(name string, lat, lon float64) point {
	return point{name: name, lat: &lat, lon: &lon}
}

func TestDistanceKm(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(18.79, 98.98, 18.79, 98.98))

	d := DistanceKm(18.79, 98.98, 18.80, 98.965)
	assert.InDelta(t, 1.93, d, 0.02)

	// one degree of latitude
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.01)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{18.79, 98.98, 18.80, 98.92},
		{13.7563, 100.5018, 7.8804, 98.3923},
		{-33.8688, 151.2093, 51.5074, -0.1278},
		{0, 179.5, 0, -179.5},
	}
	for _, p := range pairs {
		assert.Equal(t, DistanceKm(p[0], p[1], p[2], p[3]), DistanceKm(p[2], p[3], p[0], p[1]))
	}
}

func TestDistanceKm_Antipodal(t *testing.T) {
	halfCircumference := math.Pi * EarthRadiusKm
	for lat := -89.5; lat <= 89.5; lat += 0.73 {
		for lon := -180.0; lon <= 180; lon += 2.5 {
			d := DistanceKm(lat, lon, -lat, lon+180)
			require.False(t, math.IsNaN(d), "distance from (%v, %v) to its antipode", lat, lon)
			assert.InDelta(t, halfCircumference, d, 0.01)
			assert.Equal(t, d, DistanceKm(-lat, lon+180, lat, lon))
		}
	}

	got := FindNearby(-86.78, -180, []point{at("antipode", 86.78, 0)}, 20020)
	require.Len(t, got, 1)
	assert.Equal(t, "antipode", got[0].Item.name)
}

func TestDistanceKm_RoundsToTwoDecimals(t *testing.T) {
	d := DistanceKm(18.79, 98.98, 18.80, 98.92)
	assert.Equal(t, Round(d, 2), d)
	assert.InDelta(t, 6.41, d, 0.02)
}

func TestFindNearby(t *testing.T) {
	items := []point{
		at("far", 18.80, 98.92),
		at("near", 18.80, 98.965),
		{name: "unplaced"},
		at("nearest", 18.791, 98.981),
	}

	got := FindNearby(18.79, 98.98, items, 5)

	require.Len(t, got, 2)
	assert.Equal(t, "nearest", got[0].Item.name)
	assert.Equal(t, "near", got[1].Item.name)
	for i, n := range got {
		assert.LessOrEqual(t, n.DistanceKm, 5.0)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].DistanceKm, n.DistanceKm)
		}
	}
}

func TestFindNearby_SingleWithinRadius(t *testing.T) {
	got := FindNearby(18.79, 98.98, []point{at("doi suthep", 18.80, 98.965)}, 5)

	require.Len(t, got, 1)
	assert.GreaterOrEqual(t, got[0].DistanceKm, 1.9)
	assert.LessOrEqual(t, got[0].DistanceKm, 2.2)
}

func TestFindNearby_Empty(t *testing.T) {
	got := FindNearby[point](18.79, 98.98, nil, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
