package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
	"github.com/paperbase/semsearch/internal/repository/cache"
)

// Hybrid merge constants.
const (
	// HybridBoost multiplies the semantic score of documents the keyword
	// path also found.
	HybridBoost = 1.2
	// KeywordScore is the default score for keyword-only matches.
	KeywordScore = 0.5
)

// DefaultResultTTL is how long a cached search response stays valid.
const DefaultResultTTL = 2 * time.Minute

// WithResultCache attaches a query-signature result cache to the hybrid path.
func (s *Service) WithResultCache(c ResultCache, ttl time.Duration) *Service {
	s.results = c
	if ttl > 0 {
		s.resultTTL = ttl
	} else {
		s.resultTTL = DefaultResultTTL
	}
	return s
}

// HybridSearch runs the semantic and keyword paths concurrently and merges
// their results. Semantic unavailability degrades to keyword-only results and
// vice versa; only both paths failing is an error. Identical requests are
// served from the result cache while the entry lives.
func (s *Service) HybridSearch(ctx context.Context, query, ownerID string, limit int) ([]domain.ScoredDocument, error) {
	cacheKey := cache.SearchResultsKey(ownerID, query, limit)
	if s.results != nil {
		var cached []domain.ScoredDocument
		if s.results.Get(ctx, "search", cacheKey, &cached) {
			return cached, nil
		}
	}

	var (
		wg          sync.WaitGroup
		semantic    []domain.ScoredDocument
		semanticErr error
		keyword     []domain.Document
		keywordErr  error
	)

	// Both branches are side-effect-free reads; only their joint completion
	// matters.
	wg.Add(2)
	go func() {
		defer wg.Done()
		semantic, semanticErr = s.Search(ctx, query, ownerID, limit)
	}()
	go func() {
		defer wg.Done()
		keyword, keywordErr = s.store.SearchByName(ctx, ownerID, query)
	}()
	wg.Wait()

	if semanticErr != nil {
		s.logger.Warn("Semantic branch failed, serving keyword results",
			zap.String("owner_id", ownerID),
			zap.Error(semanticErr),
		)
	}
	if keywordErr != nil {
		s.logger.Warn("Keyword branch failed, serving semantic results",
			zap.String("owner_id", ownerID),
			zap.Error(keywordErr),
		)
	}
	if semanticErr != nil && keywordErr != nil {
		metrics.SearchRequestsTotal.WithLabelValues("hybrid", "error").Inc()
		return nil, fmt.Errorf("both search paths failed: %w", semanticErr)
	}

	merged := mergeResults(semantic, keyword, limit)
	metrics.SearchRequestsTotal.WithLabelValues("hybrid", "success").Inc()

	if s.results != nil {
		s.results.Set(ctx, cacheKey, merged, s.resultTTL)
	}
	return merged, nil
}

// mergeResults unions the two result sets by document id: semantic results
// first, then keyword results either boost an existing entry or join with the
// default keyword score. Deterministic two-pass merge, stable order.
func mergeResults(semantic []domain.ScoredDocument, keyword []domain.Document, limit int) []domain.ScoredDocument {
	byID := make(map[string]int, len(semantic))
	merged := make([]domain.ScoredDocument, 0, len(semantic)+len(keyword))

	for _, r := range semantic {
		byID[r.Document.ID] = len(merged)
		merged = append(merged, r)
	}

	for _, doc := range keyword {
		if i, ok := byID[doc.ID]; ok {
			merged[i].Score *= HybridBoost
			merged[i].Source = domain.SourceHybrid
			continue
		}
		byID[doc.ID] = len(merged)
		merged = append(merged, domain.ScoredDocument{
			Document: doc,
			Score:    KeywordScore,
			Source:   domain.SourceKeyword,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
