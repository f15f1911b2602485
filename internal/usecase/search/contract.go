package search

import (
	"context"
	"time"

	"github.com/paperbase/semsearch/internal/domain"
)

// DocumentStore is the consumer interface for search candidates (ISP).
type DocumentStore interface {
	// FindGenerated returns the scope's documents carrying a generated
	// embedding.
	FindGenerated(ctx context.Context, ownerID string) ([]domain.Document, error)
	// SearchByName returns the scope's documents whose name contains the
	// query, case-insensitive.
	SearchByName(ctx context.Context, ownerID, query string) ([]domain.Document, error)
}

// ResultCache is the consumer interface for query-signature result caching.
// Implementations degrade failures to misses.
type ResultCache interface {
	Get(ctx context.Context, namespace, key string, v any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration)
}
