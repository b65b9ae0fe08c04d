package service

import (
	"context"
	"fmt"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// PlaceStore is the catalog lookup the retrieval engine needs
type PlaceStore interface {
	FindPlaces(ctx context.Context, filter model.PlaceFilter) ([]model.PlaceRow, error)
}

// RetrievalFilters narrows retrieval. Attribute filters are substring
// matches; Activities is a hard gate.
type RetrievalFilters struct {
	model.PlaceFilter
	Activities []string
}

// RetrievalEngine combines attribute filtering with embedding similarity
type RetrievalEngine struct {
	store    PlaceStore
	embedder Embedder
	ranker   *Ranker
	logger   zerolog.Logger
}

// NewRetrievalEngine creates a new retrieval engine
func NewRetrievalEngine(store PlaceStore, embedder Embedder, ranker *Ranker) *RetrievalEngine {
	return &RetrievalEngine{
		store:    store,
		embedder: embedder,
		ranker:   ranker,
		logger:   logging.Component("retrieval"),
	}
}

// Retrieve returns up to topK places ranked by similarity to query. An empty
// result is not an error.
func (e *RetrievalEngine) Retrieve(ctx context.Context, query string, filters RetrievalFilters, topK int) ([]model.ScoredCandidate, error) {
	rows, err := e.store.FindPlaces(ctx, normalizeFilter(filters.PlaceFilter))
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}

	candidates := e.ranker.BuildCandidates(rows, filters.Activities)
	e.logger.Debug().
		Int("rows", len(rows)).
		Int("candidates", len(candidates)).
		Strs("activities", filters.Activities).
		Msg("catalog filtered")

	if len(candidates) == 0 {
		return []model.ScoredCandidate{}, nil
	}

	queryVec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := e.ranker.Rank(queryVec, candidates, topK)
	if err != nil {
		return nil, err
	}
	return scored, nil
}

// normalizeFilter drops blank filter values so they do not match everything
// through an empty substring pattern
func normalizeFilter(f model.PlaceFilter) model.PlaceFilter {
	return model.PlaceFilter{
		PlaceName: nonBlank(f.PlaceName),
		Region:    nonBlank(f.Region),
		Country:   nonBlank(f.Country),
		Category:  nonBlank(f.Category),
	}
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

// BuildPlaceContext converts ranked results into the compact view handed to
// specialists, with relevance rounded to three decimals
func BuildPlaceContext(results []model.ScoredCandidate) []model.PlaceContext {
	out := make([]model.PlaceContext, 0, len(results))
	for _, r := range results {
		acts := r.Candidate.Activities
		if acts == nil {
			acts = []string{}
		}
		out = append(out, model.PlaceContext{
			Name:       r.Candidate.Name,
			Activities: acts,
			Relevance:  utils.Round(r.Score, 3),
		})
	}
	return out
}
