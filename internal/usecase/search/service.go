// Package search ranks documents by vector similarity and merges that ranking
// with keyword matches.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/domain/vector"
	"github.com/paperbase/semsearch/internal/metrics"
)

// DefaultMinSimilarity is the similarity threshold applied when the config
// leaves it unset.
const DefaultMinSimilarity = 0.6

// Service implements semantic and hybrid document search.
type Service struct {
	store DocumentStore
	embed domain.Embedder

	minSimilarity float64
	results       ResultCache
	resultTTL     time.Duration
	logger        *zap.Logger
}

// New creates a search service. minSimilarity <= 0 selects the default.
func New(store DocumentStore, embed domain.Embedder, minSimilarity float64, logger *zap.Logger) *Service {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &Service{store: store, embed: embed, minSimilarity: minSimilarity, logger: logger}
}

// Search ranks the scope's embedded documents against the query.
//
// A query-embedding failure aborts with an error wrapping
// domain.ErrSearchUnavailable: callers must be able to tell "engine down"
// from "no relevant documents". Per-candidate decode and dimension problems
// degrade that candidate to similarity 0 and are logged, never raised.
func (s *Service) Search(ctx context.Context, query, ownerID string, limit int) ([]domain.ScoredDocument, error) {
	queryVec, err := s.embed.Embed(ctx, query)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("semantic", "error").Inc()
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrSearchUnavailable, err)
	}

	candidates, err := s.store.FindGenerated(ctx, ownerID)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("semantic", "error").Inc()
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	results := make([]domain.ScoredDocument, 0, len(candidates))
	for i := range candidates {
		score := s.scoreCandidate(queryVec, &candidates[i])
		if score < s.minSimilarity {
			continue
		}
		results = append(results, domain.ScoredDocument{
			Document: candidates[i],
			Score:    score,
			Source:   domain.SourceSemantic,
		})
	}

	// Stable: equal scores keep candidate order, so identical inputs rank
	// identically on every call.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	metrics.SearchRequestsTotal.WithLabelValues("semantic", "success").Inc()
	return results, nil
}

// scoreCandidate decodes the stored vector and computes cosine similarity.
// Malformed vectors and dimension mismatches score 0: they come from provider
// migrations and must degrade, not crash, but they are data-quality signals
// worth logging for re-embedding.
func (s *Service) scoreCandidate(queryVec []float32, doc *domain.Document) float64 {
	docVec, err := vector.Decode(doc.Embedding)
	if err != nil {
		s.logger.Warn("Stored embedding undecodable, needs re-embedding",
			zap.String("doc_id", doc.ID),
			zap.Error(err),
		)
		return 0
	}

	score, err := vector.Cosine(queryVec, docVec)
	if err != nil {
		metrics.SearchDimensionMismatchTotal.Inc()
		s.logger.Warn("Embedding dimension mismatch, needs re-embedding",
			zap.String("doc_id", doc.ID),
			zap.Int("query_dim", len(queryVec)),
			zap.Int("doc_dim", len(docVec)),
		)
		return 0
	}
	return score
}
