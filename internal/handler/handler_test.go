package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"travelagent/internal/model"
	"travelagent/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueryService struct {
	response *model.QueryResponse
	err      error
	events   []string
	cleared  bool
	lastReq  *model.QueryRequest
}

func (f *fakeQueryService) Query(_ context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	f.lastReq = req
	return f.response, f.err
}

func (f *fakeQueryService) QueryStream(_ context.Context, req *model.QueryRequest, callback service.QueryEventCallback) (*model.QueryResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.events {
		if err := callback(e, map[string]any{"event": e}); err != nil {
			return f.response, err
		}
	}
	return f.response, nil
}

func (f *fakeQueryService) ListModes() []model.ModeInfo { return service.ListModes() }
func (f *fakeQueryService) ClearRouter()                { f.cleared = true }

func (f *fakeQueryService) Retrieve(_ context.Context, req *model.RetrieveRequest) (*model.RetrieveResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.RetrieveResponse{
		Results: []model.ScoredCandidate{},
		Places:  []model.PlaceContext{{Name: req.Query, Relevance: 0.5}},
	}, nil
}

type fakeIngester struct {
	added   []model.PlaceInput
	deleted int64
	err     error
}

func (f *fakeIngester) Add(_ context.Context, in model.PlaceInput) (int64, error) {
	f.added = append(f.added, in)
	return 42, f.err
}

func (f *fakeIngester) Delete(context.Context, string) (int64, error) { return f.deleted, f.err }
func (f *fakeIngester) Clear(context.Context) (int64, error)          { return 12, f.err }

type fakeAccommodations struct {
	filter   model.AccommodationFilter
	place    string
	radiusKm float64
	accType  *string
	limit    int
	nearby   *model.NearbyResponse
}

func (f *fakeAccommodations) Search(_ context.Context, filter model.AccommodationFilter) ([]model.Accommodation, error) {
	f.filter = filter
	return []model.Accommodation{{ID: 1, Name: "Old City Hostel"}}, nil
}

func (f *fakeAccommodations) Nearby(_ context.Context, place string, radiusKm float64, accType, _ *string, limit int) (*model.NearbyResponse, error) {
	f.place, f.radiusKm, f.accType, f.limit = place, radiusKm, accType, limit
	return f.nearby, nil
}

func setupRouter(q *fakeQueryService, ing *fakeIngester, acc *fakeAccommodations) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router, NewQueryHandler(q), NewPlaceHandler(q, ing), NewAccommodationHandler(acc, 20))
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestQueryHandler_Query(t *testing.T) {
	q := &fakeQueryService{response: &model.QueryResponse{RequestID: "abc", Response: "Day 1", Mode: "itinerary", Success: true}}
	router := setupRouter(q, &fakeIngester{}, &fakeAccommodations{})

	w := doJSON(router, http.MethodPost, "/api/v1/query", `{"query": "plan a 3-day trip to Chiang Mai", "mode": "itinerary", "deployment": "fast"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc", resp.RequestID)
	assert.Equal(t, "itinerary", resp.Mode)
	assert.Equal(t, "fast", q.lastReq.Deployment)
}

func TestQueryHandler_QueryErrors(t *testing.T) {
	router := setupRouter(&fakeQueryService{}, &fakeIngester{}, &fakeAccommodations{})
	w := doJSON(router, http.MethodPost, "/api/v1/query", `{"mode": "itinerary"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request")

	bad := setupRouter(&fakeQueryService{err: fmt.Errorf("%w: %q", service.ErrUnknownMode, "poetry")}, &fakeIngester{}, &fakeAccommodations{})
	w = doJSON(bad, http.MethodPost, "/api/v1/query", `{"query": "hi", "mode": "poetry"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	broken := setupRouter(&fakeQueryService{err: errors.New("db down")}, &fakeIngester{}, &fakeAccommodations{})
	w = doJSON(broken, http.MethodPost, "/api/v1/query", `{"query": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestQueryHandler_QueryStream(t *testing.T) {
	q := &fakeQueryService{
		response: &model.QueryResponse{Response: "Day 1", Mode: "itinerary", Success: true},
		events:   []string{"intent", "mode", "token", "segment"},
	}
	router := setupRouter(q, &fakeIngester{}, &fakeAccommodations{})

	w := doJSON(router, http.MethodPost, "/api/v1/query/stream", `{"query": "plan a trip"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	var events []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
	}
	assert.Equal(t, []string{"start", "intent", "mode", "token", "segment", "result", "done"}, events)
	assert.Contains(t, w.Body.String(), `"response":"Day 1"`)
}

func TestQueryHandler_QueryStreamError(t *testing.T) {
	router := setupRouter(&fakeQueryService{err: errors.New("boom")}, &fakeIngester{}, &fakeAccommodations{})

	w := doJSON(router, http.MethodPost, "/api/v1/query/stream", `{"query": "plan a trip"}`)
	body := w.Body.String()
	assert.Contains(t, body, "event: start")
	assert.Contains(t, body, "event: error\ndata: {\"error\":\"boom\"}")
	assert.NotContains(t, body, "event: done")
}

func TestQueryHandler_ModesAndClear(t *testing.T) {
	q := &fakeQueryService{}
	router := setupRouter(q, &fakeIngester{}, &fakeAccommodations{})

	w := doJSON(router, http.MethodGet, "/api/v1/modes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Modes []model.ModeInfo `json:"modes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Modes, len(model.AllModes))
	assert.Equal(t, model.ModeItinerary, resp.Modes[0].Mode)
	assert.Equal(t, "ITINERARY", resp.Modes[0].Name)

	w = doJSON(router, http.MethodPost, "/api/v1/router/clear", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, q.cleared)
}

func TestPlaceHandler(t *testing.T) {
	ing := &fakeIngester{deleted: 1}
	router := setupRouter(&fakeQueryService{}, ing, &fakeAccommodations{})

	w := doJSON(router, http.MethodPost, "/api/v1/places/search", `{"query": "temples", "region": "Chiang Mai", "top_k": 3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"temples"`)

	w = doJSON(router, http.MethodPost, "/api/v1/places", `{"name": "Doi Suthep", "activities": ["hiking"], "raw_text": "Temple"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":42`)
	require.Len(t, ing.added, 1)
	assert.Equal(t, []string{"hiking"}, ing.added[0].Activities)

	w = doJSON(router, http.MethodPost, "/api/v1/places", `{"activities": ["hiking"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/places/Doi%20Suthep", "")
	assert.Equal(t, http.StatusOK, w.Code)

	ing.deleted = 0
	w = doJSON(router, http.MethodDelete, "/api/v1/places/Atlantis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/places", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":12`)
}

func TestAccommodationHandler_Search(t *testing.T) {
	acc := &fakeAccommodations{}
	router := setupRouter(&fakeQueryService{}, &fakeIngester{}, acc)

	w := doJSON(router, http.MethodPost, "/api/v1/accommodations/search", `{"location": "Chiang Mai", "amenities": ["wifi"], "limit": 500}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Equal(t, 20, acc.filter.Limit, "limit is capped")
	assert.Equal(t, []string{"wifi"}, acc.filter.Amenities)
}

func TestAccommodationHandler_Nearby(t *testing.T) {
	acc := &fakeAccommodations{nearby: &model.NearbyResponse{Place: "Doi Suthep", LocationFound: true, Results: []model.NearbyAccommodation{}}}
	router := setupRouter(&fakeQueryService{}, &fakeIngester{}, acc)

	w := doJSON(router, http.MethodGet, "/api/v1/accommodations/nearby?place=Doi+Suthep&radius_km=2.5&type=hostel&limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Doi Suthep", acc.place)
	assert.Equal(t, 2.5, acc.radiusKm)
	require.NotNil(t, acc.accType)
	assert.Equal(t, "hostel", *acc.accType)
	assert.Equal(t, 3, acc.limit)
	assert.Contains(t, w.Body.String(), `"location_found":true`)

	w = doJSON(router, http.MethodGet, "/api/v1/accommodations/nearby", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/accommodations/nearby?place=Pai&radius_km=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoRoute(t *testing.T) {
	router := setupRouter(&fakeQueryService{}, &fakeIngester{}, &fakeAccommodations{})
	w := doJSON(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "API endpoint not found")
}
