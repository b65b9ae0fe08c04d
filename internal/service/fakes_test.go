package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"travelagent/internal/config"
	"travelagent/internal/model"
	"travelagent/internal/utils"
)

// scriptedCompleter answers each prompt kind with canned text
type scriptedCompleter struct {
	mu sync.Mutex

	intent         string
	classification string
	decomposition  string
	accommodation  string
	itinerary      string
	itineraryErr   error
	err            error

	calls []CompletionOptions
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string, opts CompletionOptions) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, opts)
	c.mu.Unlock()

	if c.err != nil {
		return "", c.err
	}
	switch {
	case opts.System == decompositionPrompt:
		return c.decomposition, nil
	case opts.System == modeClassificationPrompt:
		return c.classification, nil
	case opts.System == itinerarySystemPrompt:
		return c.itinerary, c.itineraryErr
	case strings.HasPrefix(prompt, "You are an intent extraction system"):
		return c.intent, nil
	case strings.HasPrefix(prompt, "Extract accommodation preferences"):
		return c.accommodation, nil
	}
	return "", errors.New("unexpected prompt")
}

func (c *scriptedCompleter) countSystem(system string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, o := range c.calls {
		if o.System == system {
			n++
		}
	}
	return n
}

// streamingScriptedCompleter streams the itinerary word by word
type streamingScriptedCompleter struct {
	*scriptedCompleter
}

func (c streamingScriptedCompleter) CompleteStream(ctx context.Context, prompt string, opts CompletionOptions, callback StreamCallback) (string, error) {
	text, err := c.Complete(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	for _, word := range strings.SplitAfter(text, " ") {
		if err := callback(&StreamChunk{Content: word}); err != nil {
			return "", err
		}
	}
	return text, nil
}

// fakeEmbedder returns the vector registered for a text, or def
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	def     []float32
	err     error
	calls   int
}

func (e *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return e.def, nil
}

func (e *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := e.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// fakePlaceStore filters rows in memory the way the catalog query does
type fakePlaceStore struct {
	mu      sync.Mutex
	rows    []model.PlaceRow
	err     error
	filters []model.PlaceFilter
}

func (s *fakePlaceStore) FindPlaces(_ context.Context, filter model.PlaceFilter) ([]model.PlaceRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return nil, s.err
	}

	var out []model.PlaceRow
	for _, r := range s.rows {
		if matches(&r.Name, filter.PlaceName) && matches(r.Region, filter.Region) &&
			matches(r.Country, filter.Country) && matches(r.Category, filter.Category) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matches(value, pattern *string) bool {
	if pattern == nil {
		return true
	}
	if value == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*value), strings.ToLower(*pattern))
}

type staticAliases map[string]string

func (a staticAliases) CountryAliases(context.Context) (map[string]string, error) {
	return a, nil
}

func strPtr(s string) *string      { return &s }
func intPtr(n int) *int            { return &n }
func floatPtr(f float64) *float64 { return &f }

const testDim = 3

func placeRow(id int64, name, region, country, category, activities string, vec ...float32) model.PlaceRow {
	row := model.PlaceRow{
		ID:         id,
		Name:       name,
		Activities: activities,
	}
	if region != "" {
		row.Region = &region
	}
	if country != "" {
		row.Country = &country
	}
	if category != "" {
		row.Category = &category
	}
	if vec != nil {
		row.Embedding = utils.EncodeEmbedding(vec)
	}
	return row
}

// chiangMaiCatalog is a small catalog used across tests
func chiangMaiCatalog() []model.PlaceRow {
	return []model.PlaceRow{
		placeRow(1, "Doi Suthep", "Chiang Mai", "Thailand", "temple", "Hiking,Sightseeing", 1, 0, 0),
		placeRow(2, "Doi Inthanon", "Chiang Mai", "Thailand", "mountain", "hiking,camping", 0.8, 0.2, 0),
		placeRow(3, "Nimman Road", "Chiang Mai", "Thailand", "shopping", "shopping,cafes", 0, 1, 0),
		placeRow(4, "Railay Beach", "Krabi", "Thailand", "beach", "swimming,climbing", 0, 0, 1),
	}
}

var testRetrievalConfig = config.RetrievalConfig{
	TopK:               5,
	EmbeddingDimension: testDim,
	DefaultTripDays:    3,
}

// newTestQueries wires a travel query service over the given catalog
func newTestQueries(c Completer, rows []model.PlaceRow) (*TravelQueryService, *fakePlaceStore, *fakeEmbedder) {
	store := &fakePlaceStore{rows: rows}
	emb := &fakeEmbedder{def: []float32{1, 0, 0}}
	engine := NewRetrievalEngine(store, emb, NewRanker(testDim))
	queries := NewTravelQueryService(NewIntentExtractor(c), engine, staticAliases{"thailand": "Thailand", "siam": "Thailand"}, testRetrievalConfig)
	return queries, store, emb
}
