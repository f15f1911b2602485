package pipeline

import (
	"context"

	"github.com/paperbase/semsearch/internal/domain"
)

// DocumentStore is the consumer interface for pipeline candidates (ISP).
type DocumentStore interface {
	FindMissingEmbeddings(ctx context.Context, ownerID string) ([]domain.Document, error)
	FindAll(ctx context.Context, ownerID string) ([]domain.Document, error)
	Save(ctx context.Context, doc *domain.Document) error
}

// Invalidator evicts cache entries staled by a document write. May be nil.
type Invalidator interface {
	InvalidateDocument(ctx context.Context, docID, ownerID string)
}
