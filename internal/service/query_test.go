package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"travelagent/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryQueryLog struct {
	mu      sync.Mutex
	entries []model.QueryLog
}

func (l *memoryQueryLog) LogQuery(_ context.Context, entry model.QueryLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func newTestQueryService(t *testing.T, c Completer, factories map[model.GenerationMode]SpecialistFactory, logs QueryLogger) *QueryService {
	t.Helper()
	r := newTestRouter(t, c, factories, RouterOptions{})
	engine := NewRetrievalEngine(&fakePlaceStore{rows: chiangMaiCatalog()}, &fakeEmbedder{def: []float32{1, 0, 0}}, NewRanker(testDim))
	return NewQueryService(r, engine, logs, 2)
}

func TestQueryService_Query(t *testing.T) {
	logs := &memoryQueryLog{}
	c := &scriptedCompleter{
		intent:         `{"region": "Krabi"}`,
		classification: `{"generation_mode": "suggest_places"}`,
	}
	svc := newTestQueryService(t, c, newFakeFactories().table(), logs)

	resp, err := svc.Query(context.Background(), &model.QueryRequest{Query: "beaches in Krabi"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.RequestID)
	assert.True(t, resp.Success)
	assert.Equal(t, "suggest_places", resp.Mode)
	assert.Equal(t, "answer from suggest_places", resp.Response)
	assert.Equal(t, "Krabi", *resp.Intent.Region)
	assert.Empty(t, resp.Error)

	svc.Flush()
	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, resp.RequestID, entry.ID)
	assert.Equal(t, "beaches in Krabi", entry.Query)
	assert.Equal(t, "suggest_places", entry.Mode)
	assert.True(t, entry.Success)

	var intent model.Intent
	require.NoError(t, json.Unmarshal(entry.Intent, &intent))
	assert.Equal(t, "Krabi", *intent.Region)
}

func TestQueryService_QueryReportsSpecialistFailure(t *testing.T) {
	f := newFakeFactories()
	f.errs[model.ModeItinerary] = errors.New("model overloaded")
	svc := newTestQueryService(t, nil, f.table(), nil)

	resp, err := svc.Query(context.Background(), &model.QueryRequest{Query: "plan a trip"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "model overloaded")
}

func TestQueryService_QueryRejectsBadRequests(t *testing.T) {
	svc := newTestQueryService(t, nil, newFakeFactories().table(), nil)

	_, err := svc.Query(context.Background(), &model.QueryRequest{Query: "hi", Mode: "poetry"})
	require.Error(t, err)
	assert.True(t, IsRequestError(err))
}

func TestQueryService_QueryStream(t *testing.T) {
	c := streamingScriptedCompleter{&scriptedCompleter{
		intent:    `{"region": "Chiang Mai"}`,
		itinerary: "Day 1: Doi Suthep",
	}}
	queries, _, _ := newTestQueries(c, chiangMaiCatalog())
	svc := newTestQueryService(t, c, DefaultFactories(SpecialistDeps{Queries: queries, Completer: c}), nil)

	var events []string
	var content string
	resp, err := svc.QueryStream(context.Background(), &model.QueryRequest{Query: "3 days in Chiang Mai", Mode: "itinerary"},
		func(event string, data any) error {
			events = append(events, event)
			if event == "token" {
				content += data.(map[string]any)["content"].(string)
			}
			return nil
		})
	require.NoError(t, err)

	assert.Equal(t, "Day 1: Doi Suthep", resp.Response)
	assert.Equal(t, "Day 1: Doi Suthep", content)
	assert.Equal(t, "intent", events[0])
	assert.Equal(t, "mode", events[1])
	assert.Equal(t, "token", events[2])
	assert.Equal(t, "segment", events[len(events)-1])
}

func TestQueryService_QueryStreamStopsOnCallbackError(t *testing.T) {
	c := streamingScriptedCompleter{&scriptedCompleter{itinerary: "Day 1: Doi Suthep"}}
	queries, _, _ := newTestQueries(c, chiangMaiCatalog())
	svc := newTestQueryService(t, c, DefaultFactories(SpecialistDeps{Queries: queries, Completer: c}), nil)

	gone := errors.New("client went away")
	_, err := svc.QueryStream(context.Background(), &model.QueryRequest{Query: "plan", Mode: "itinerary"},
		func(event string, _ any) error {
			if event == "token" {
				return gone
			}
			return nil
		})
	assert.ErrorIs(t, err, gone)
}

func TestQueryService_Retrieve(t *testing.T) {
	svc := newTestQueryService(t, nil, newFakeFactories().table(), nil)

	resp, err := svc.Retrieve(context.Background(), &model.RetrieveRequest{Query: "mountains", Region: strPtr("Chiang Mai")})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2, "default top k applies")
	assert.Equal(t, "Doi Suthep", resp.Places[0].Name)

	resp, err = svc.Retrieve(context.Background(), &model.RetrieveRequest{Query: "any", TopK: 10})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 4)
}
