package service

import (
	"fmt"
	"sort"
	"strings"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/rs/zerolog"
)

// Ranker turns catalog rows into candidates and orders them by similarity
type Ranker struct {
	dimension int
	logger    zerolog.Logger
}

// NewRanker creates a new ranker for embeddings of the given width
func NewRanker(dimension int) *Ranker {
	return &Ranker{
		dimension: dimension,
		logger:    logging.Component("ranker"),
	}
}

// Dimension returns the embedding width the ranker expects
func (r *Ranker) Dimension() int {
	return r.dimension
}

// BuildCandidates applies the activity gate and decodes embeddings. Rows
// missing any requested activity, or whose embedding is absent or has the
// wrong width, are dropped. Catalog order is preserved.
func (r *Ranker) BuildCandidates(rows []model.PlaceRow, activities []string) []model.CandidateRecord {
	required := normalizeActivities(activities)
	candidates := make([]model.CandidateRecord, 0, len(rows))

	for _, row := range rows {
		acts := splitActivities(row.Activities)
		if !hasAllActivities(acts, required) {
			continue
		}

		vec, err := utils.DecodeEmbedding(row.Embedding, r.dimension)
		if err != nil {
			r.logger.Debug().Int64("place_id", row.ID).Str("name", row.Name).Err(err).Msg("skipping candidate")
			continue
		}

		candidates = append(candidates, model.CandidateRecord{
			ID:         row.ID,
			Name:       row.Name,
			Region:     row.Region,
			Country:    row.Country,
			Category:   row.Category,
			Latitude:   row.Latitude,
			Longitude:  row.Longitude,
			Activities: acts,
			Embedding:  vec,
		})
	}
	return candidates
}

// Rank scores candidates by raw dot product with the query vector and returns
// the best topK, highest first. Equal scores keep their input order. A topK
// of zero or less keeps everything.
func (r *Ranker) Rank(queryVec []float32, candidates []model.CandidateRecord, topK int) ([]model.ScoredCandidate, error) {
	if len(queryVec) != r.dimension {
		return nil, fmt.Errorf("query embedding has %d dimensions, expected %d: %w", len(queryVec), r.dimension, utils.ErrEmbeddingDimension)
	}

	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, model.ScoredCandidate{
			Score:     utils.Dot(queryVec, c.Embedding),
			Candidate: c,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// splitActivities parses a comma-joined activity list into lowercase names
func splitActivities(joined string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(joined, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeActivities(activities []string) []string {
	out := make([]string, 0, len(activities))
	for _, a := range activities {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// hasAllActivities reports whether every required activity is present. Both
// sides are already lowercase.
func hasAllActivities(have, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(have))
	for _, a := range have {
		set[a] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}
