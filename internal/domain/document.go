package domain

// Document is the slice of the document-management entity this subsystem
// reads and writes. The wider CRUD surface owns the rest of the record; the
// embedding fields are owned here.
//
// Invariant: EmbeddingGenerated is true if and only if Embedding holds a
// decodable vector. Save is the single write path and always persists both
// fields together, so no failure can leave them inconsistent.
type Document struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Category    string
	DocType     string

	// Embedding is the encoded vector text (see internal/domain/vector).
	// Empty when EmbeddingGenerated is false.
	Embedding          string
	EmbeddingGenerated bool
}

// Source tags where a search result came from.
type Source string

const (
	// SourceSemantic marks results found by vector similarity only.
	SourceSemantic Source = "semantic"
	// SourceKeyword marks results found by keyword match only.
	SourceKeyword Source = "keyword"
	// SourceHybrid marks results found by both paths.
	SourceHybrid Source = "hybrid"
)

// ScoredDocument pairs a document with its similarity score for one request.
type ScoredDocument struct {
	Document Document
	Score    float64
	Source   Source
}
