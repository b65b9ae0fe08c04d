package service

import (
	"context"
	"testing"

	"travelagent/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTravelQueryService_Resolve(t *testing.T) {
	c := &scriptedCompleter{intent: `{"region": "Chiang Mai", "country": "siam", "activities": ["hiking"]}`}
	queries, store, _ := newTestQueries(c, chiangMaiCatalog())

	res, err := queries.Resolve(context.Background(), "hiking around Chiang Mai", nil)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Found 2 places matching your query.", res.Message)
	require.NotNil(t, res.Days)
	assert.Equal(t, testRetrievalConfig.DefaultTripDays, *res.Days)
	require.NotNil(t, res.Intent.Country)
	assert.Equal(t, "Thailand", *res.Intent.Country)

	// country filtering is off by default
	require.Len(t, store.filters, 1)
	assert.Nil(t, store.filters[0].Country)
	assert.Equal(t, "Chiang Mai", *store.filters[0].Region)
}

func TestTravelQueryService_CategoryOnlyWithoutActivities(t *testing.T) {
	queries, store, _ := newTestQueries(nil, chiangMaiCatalog())

	_, err := queries.Resolve(context.Background(), "q", &model.Intent{
		Category:   strPtr("temple"),
		Activities: []string{"hiking"},
	})
	require.NoError(t, err)
	assert.Nil(t, store.filters[0].Category)

	_, err = queries.Resolve(context.Background(), "q", &model.Intent{Category: strPtr("temple")})
	require.NoError(t, err)
	require.NotNil(t, store.filters[1].Category)
	assert.Equal(t, "temple", *store.filters[1].Category)
}

func TestTravelQueryService_CountryFilter(t *testing.T) {
	store := &fakePlaceStore{rows: chiangMaiCatalog()}
	cfg := testRetrievalConfig
	cfg.FilterByCountry = true
	engine := NewRetrievalEngine(store, &fakeEmbedder{def: []float32{1, 0, 0}}, NewRanker(testDim))
	queries := NewTravelQueryService(NewIntentExtractor(nil), engine, staticAliases{"thailand": "Thailand"}, cfg)

	_, err := queries.Resolve(context.Background(), "q", &model.Intent{Country: strPtr("THAILAND")})
	require.NoError(t, err)
	require.NotNil(t, store.filters[0].Country)
	assert.Equal(t, "Thailand", *store.filters[0].Country)

	res, err := queries.Resolve(context.Background(), "q", &model.Intent{Country: strPtr("Atlantis")})
	require.NoError(t, err)
	assert.Nil(t, store.filters[1].Country, "unknown countries are not filtered on")
	assert.Nil(t, res.Intent.Country)
}

func TestTravelQueryService_KeepsExplicitDays(t *testing.T) {
	queries, _, _ := newTestQueries(nil, chiangMaiCatalog())

	res, err := queries.Resolve(context.Background(), "q", &model.Intent{Days: intPtr(7)})
	require.NoError(t, err)
	require.NotNil(t, res.Days)
	assert.Equal(t, 7, *res.Days)
}

func TestTravelQueryService_NothingFound(t *testing.T) {
	tests := []struct {
		name   string
		intent model.Intent
		want   string
	}{
		{
			name:   "missing location",
			intent: model.Intent{Activities: []string{"skiing"}},
			want:   "No places found matching your criteria. Missing: location (region or country). Please provide more details.",
		},
		{
			name:   "missing activity",
			intent: model.Intent{Region: strPtr("Nowhere")},
			want:   "No places found matching your criteria. Missing: activity type or category. Please provide more details.",
		},
		{
			name:   "nothing missing",
			intent: model.Intent{Region: strPtr("Chiang Mai"), Activities: []string{"skiing"}},
			want:   "No places found matching your criteria.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queries, _, _ := newTestQueries(nil, chiangMaiCatalog())
			intent := tt.intent

			res, err := queries.Resolve(context.Background(), "q", &intent)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Empty(t, res.Places)
			assert.Nil(t, res.Days)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}
