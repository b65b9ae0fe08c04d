package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"travelagent/internal/logging"
	"travelagent/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QueryLogger records answered queries
type QueryLogger interface {
	LogQuery(ctx context.Context, entry model.QueryLog) error
}

// QueryEventCallback is called for streaming query events
type QueryEventCallback func(event string, data any) error

// QueryService answers travel questions and serves direct retrieval
type QueryService struct {
	router    *Router
	retrieval *RetrievalEngine
	logs      QueryLogger
	topK      int
	pending   sync.WaitGroup
	logger    zerolog.Logger
}

// NewQueryService creates a new query service. logs may be nil.
func NewQueryService(router *Router, retrieval *RetrievalEngine, logs QueryLogger, topK int) *QueryService {
	return &QueryService{
		router:    router,
		retrieval: retrieval,
		logs:      logs,
		topK:      topK,
		logger:    logging.Component("query"),
	}
}

// IsRequestError reports whether err was caused by the request itself
func IsRequestError(err error) bool {
	return errors.Is(err, ErrUnknownMode) || errors.Is(err, ErrDeploymentNotAllowed) || errors.Is(err, errEmptyQuery)
}

// Query routes a question and returns the answer. Specialist failures are
// reported inside the response; only invalid requests return an error.
func (s *QueryService) Query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	return s.query(ctx, req)
}

// QueryStream routes a question while reporting progress. Generated answer
// text is delivered as "token" events.
func (s *QueryService) QueryStream(ctx context.Context, req *model.QueryRequest, callback QueryEventCallback) (*model.QueryResponse, error) {
	var streamErr error
	var mu sync.Mutex
	emit := func(event string, data any) {
		mu.Lock()
		defer mu.Unlock()
		if streamErr == nil {
			streamErr = callback(event, data)
		}
	}

	ctx = WithRouteObserver(ctx, emit)
	ctx = WithTokenSink(ctx, func(thinking, content string) error {
		emit("token", map[string]any{"thinking": thinking, "content": content})
		mu.Lock()
		defer mu.Unlock()
		return streamErr
	})

	resp, err := s.query(ctx, req)
	if err != nil {
		return nil, err
	}
	if streamErr != nil {
		return resp, streamErr
	}
	return resp, nil
}

func (s *QueryService) query(ctx context.Context, req *model.QueryRequest) (*model.QueryResponse, error) {
	startTime := time.Now()
	requestID := uuid.NewString()

	result, err := s.router.Route(ctx, *req)
	if result == nil {
		return nil, err
	}

	resp := &model.QueryResponse{
		RequestID: requestID,
		Query:     req.Query,
		Response:  result.Response,
		Mode:      result.ModeUsed,
		Days:      result.Days,
		Intent:    &result.Intent,
		Segments:  result.Segments,
		Success:   err == nil,
		Took:      time.Since(startTime).Milliseconds(),
	}
	if err != nil {
		resp.Error = err.Error()
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("query completed with failures")
	}

	s.logQuery(requestID, req.Query, resp)
	return resp, nil
}

// logQuery writes the audit entry in the background
func (s *QueryService) logQuery(id, query string, resp *model.QueryResponse) {
	if s.logs == nil {
		return
	}

	intentJSON, err := json.Marshal(resp.Intent)
	if err != nil {
		intentJSON = []byte("{}")
	}
	entry := model.QueryLog{
		ID:             id,
		Query:          query,
		Mode:           resp.Mode,
		Intent:         intentJSON,
		Success:        resp.Success,
		ResponseTimeMs: resp.Took,
		CreatedAt:      time.Now().UTC(),
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.logs.LogQuery(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("request_id", id).Msg("failed to log query")
		}
	}()
}

// Flush waits for background query logging to finish
func (s *QueryService) Flush() {
	s.pending.Wait()
}

// Retrieve ranks places for a query with explicit filters
func (s *QueryService) Retrieve(ctx context.Context, req *model.RetrieveRequest) (*model.RetrieveResponse, error) {
	startTime := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, err := s.retrieval.Retrieve(ctx, req.Query, RetrievalFilters{
		PlaceFilter: model.PlaceFilter{
			PlaceName: req.PlaceName,
			Region:    req.Region,
			Country:   req.Country,
			Category:  req.Category,
		},
		Activities: req.Activities,
	}, topK)
	if err != nil {
		return nil, err
	}

	return &model.RetrieveResponse{
		Results: results,
		Places:  BuildPlaceContext(results),
		Took:    time.Since(startTime).Milliseconds(),
	}, nil
}

// ListModes describes every generation mode
func (s *QueryService) ListModes() []model.ModeInfo {
	return s.router.ListModes()
}

// ClearRouter drops every cached specialist
func (s *QueryService) ClearRouter() {
	s.router.Clear()
}
