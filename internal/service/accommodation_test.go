package service

import (
	"context"
	"testing"

	"travelagent/internal/config"
	"travelagent/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccommodationStore struct {
	accs    []model.Accommodation
	places  map[string]*model.GeoLocation
	filters []model.AccommodationFilter
	byName  []string
}

func (s *fakeAccommodationStore) SearchAccommodations(_ context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error) {
	s.filters = append(s.filters, filter)
	var out []model.Accommodation
	for _, a := range s.accs {
		if matches(a.Region, filter.Location) && matches(a.Type, filter.Type) {
			out = append(out, a)
		}
	}
	return firstN(out, filter.Limit), nil
}

func (s *fakeAccommodationStore) AccommodationsWithCoordinates(_ context.Context, accType, _ *string) ([]model.Accommodation, error) {
	var out []model.Accommodation
	for _, a := range s.accs {
		if _, _, ok := a.Coordinates(); ok && matches(a.Type, accType) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAccommodationStore) FindAccommodationsByName(_ context.Context, names []string) ([]model.Accommodation, error) {
	s.byName = names
	var out []model.Accommodation
	for _, n := range names {
		for _, a := range s.accs {
			if matches(&a.Name, &n) {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeAccommodationStore) FindPlaceCoordinates(_ context.Context, name string) (*model.GeoLocation, error) {
	if loc, ok := s.places[name]; ok {
		return loc, nil
	}
	return &model.GeoLocation{}, nil
}

type fakeGeocoder struct {
	locations map[string]*model.GeoLocation
	err       error
	calls     int
}

func (g *fakeGeocoder) Geocode(_ context.Context, name string, region, country *string) (*model.GeoLocation, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if loc, ok := g.locations[name]; ok {
		return loc, nil
	}
	return &model.GeoLocation{Region: region, Country: country}, nil
}

func chiangMaiHotels() []model.Accommodation {
	return []model.Accommodation{
		{
			ID: 1, Name: "Suthep Hill Resort", Type: strPtr("resort"), Region: strPtr("Chiang Mai"),
			Latitude: floatPtr(18.80), Longitude: floatPtr(98.965),
			PriceMin: floatPtr(60), PriceMax: floatPtr(120), Currency: strPtr("USD"),
			Rating: floatPtr(4.6), Amenities: model.JSONArray{"Free WiFi", "Swimming Pool", "Spa"},
		},
		{
			ID: 2, Name: "Old City Hostel", Type: strPtr("hostel"), Region: strPtr("Chiang Mai"),
			Latitude: floatPtr(18.788), Longitude: floatPtr(98.985),
			PriceMin: floatPtr(8), PriceMax: floatPtr(15), Currency: strPtr("USD"),
			Rating: floatPtr(4.2), Amenities: model.JSONArray{"WiFi", "Shared Kitchen"},
		},
		{
			ID: 3, Name: "Railay Bay Bungalows", Type: strPtr("resort"), Region: strPtr("Krabi"),
			Latitude: floatPtr(8.01), Longitude: floatPtr(98.84),
			Rating: floatPtr(4.0), Amenities: model.JSONArray{"Beach Access"},
		},
	}
}

var testAccommodationConfig = config.AccommodationConfig{DefaultRadiusKm: 5, Limit: 10}

func TestAccommodationService_NearbyFindsWithinRadius(t *testing.T) {
	store := &fakeAccommodationStore{accs: chiangMaiHotels()}
	geo := &fakeGeocoder{locations: map[string]*model.GeoLocation{
		"Doi Suthep": {Latitude: floatPtr(18.79), Longitude: floatPtr(98.98)},
	}}
	svc := NewAccommodationService(store, geo, nil, testAccommodationConfig)

	resp, err := svc.Nearby(context.Background(), "Doi Suthep", 5, nil, nil, 0)
	require.NoError(t, err)

	assert.True(t, resp.LocationFound)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Old City Hostel", resp.Results[0].Name, "nearest first")
	assert.Equal(t, "Suthep Hill Resort", resp.Results[1].Name)
	assert.InDelta(t, 1.93, resp.Results[1].DistanceKm, 0.1)
	assert.Contains(t, resp.Message, "**Accommodations near Doi Suthep** (within 5km)")
}

func TestAccommodationService_NearbyFallsBackToCatalog(t *testing.T) {
	store := &fakeAccommodationStore{
		accs: chiangMaiHotels(),
		places: map[string]*model.GeoLocation{
			"Nimman Road": {Latitude: floatPtr(18.799), Longitude: floatPtr(98.967)},
		},
	}
	svc := NewAccommodationService(store, &fakeGeocoder{}, nil, testAccommodationConfig)

	resp, err := svc.Nearby(context.Background(), "Nimman Road", 1, strPtr("resort"), nil, 0)
	require.NoError(t, err)
	assert.True(t, resp.LocationFound)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Suthep Hill Resort", resp.Results[0].Name)
}

func TestAccommodationService_NearbyUnknownPlace(t *testing.T) {
	svc := NewAccommodationService(&fakeAccommodationStore{accs: chiangMaiHotels()}, &fakeGeocoder{}, nil, testAccommodationConfig)

	resp, err := svc.Nearby(context.Background(), "Atlantis", 5, nil, nil, 0)
	require.NoError(t, err)

	assert.False(t, resp.LocationFound)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "Could not find location coordinates for 'Atlantis'. Please try a different place name or be more specific.", resp.Message)
}

func TestAccommodationService_NearbyNothingInRadius(t *testing.T) {
	geo := &fakeGeocoder{locations: map[string]*model.GeoLocation{
		"Bangkok": {Latitude: floatPtr(13.75), Longitude: floatPtr(100.5)},
	}}
	svc := NewAccommodationService(&fakeAccommodationStore{accs: chiangMaiHotels()}, geo, nil, testAccommodationConfig)

	resp, err := svc.Nearby(context.Background(), "Bangkok", 0, nil, nil, 0)
	require.NoError(t, err)

	assert.True(t, resp.LocationFound, "the place was found, only the list is empty")
	assert.Empty(t, resp.Results)
	assert.Equal(t, 5.0, resp.RadiusKm)
	assert.Equal(t, "No accommodations found within 5km of Bangkok. Try increasing the search radius or check nearby cities.", resp.Message)
}

func TestAccommodationService_SearchMatchesAmenityAliases(t *testing.T) {
	store := &fakeAccommodationStore{accs: chiangMaiHotels()}
	svc := NewAccommodationService(store, nil, nil, testAccommodationConfig)

	accs, err := svc.Search(context.Background(), model.AccommodationFilter{
		Location:  strPtr("chiang mai"),
		Amenities: []string{"pool", "wifi"},
	})
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, "Suthep Hill Resort", accs[0].Name)
	assert.Equal(t, testAccommodationConfig.Limit, store.filters[0].Limit)
}

func TestAccommodationService_ExtractQuery(t *testing.T) {
	c := &scriptedCompleter{accommodation: `{"location": "Chiang Mai", "place_name": null, "type": "hostel",
		"price_range": "budget", "amenities": ["wifi"], "radius_km": null}`}
	svc := NewAccommodationService(&fakeAccommodationStore{}, nil, c, testAccommodationConfig)

	q := svc.ExtractQuery(context.Background(), "cheap hostel in Chiang Mai with wifi", "")
	require.NotNil(t, q.Location)
	assert.Equal(t, "Chiang Mai", *q.Location)
	assert.Nil(t, q.PlaceName)
	assert.Equal(t, "hostel", *q.Type)
	assert.Equal(t, []string{"wifi"}, q.Amenities)
	require.NotNil(t, q.RadiusKm)
	assert.Equal(t, 5.0, *q.RadiusKm)

	empty := NewAccommodationService(&fakeAccommodationStore{}, nil, nil, testAccommodationConfig).
		ExtractQuery(context.Background(), "hotels", "")
	assert.NotNil(t, empty.Amenities)
	assert.Equal(t, 5.0, *empty.RadiusKm)
}
