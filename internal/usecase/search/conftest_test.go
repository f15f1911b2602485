package search

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/domain/vector"
)

// mockStore implements DocumentStore for tests.
type mockStore struct {
	generated   []domain.Document
	generatedEr error
	keyword     []domain.Document
	keywordErr  error
}

func (m *mockStore) FindGenerated(_ context.Context, _ string) ([]domain.Document, error) {
	return m.generated, m.generatedEr
}

func (m *mockStore) SearchByName(_ context.Context, _, _ string) ([]domain.Document, error) {
	return m.keyword, m.keywordErr
}

// mockEmbedder returns a fixed query vector.
type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return m.vec, m.err
}

// mockResultCache is an in-memory ResultCache.
type mockResultCache struct {
	entries map[string][]byte
	hits    int
	sets    int
}

func newMockResultCache() *mockResultCache {
	return &mockResultCache{entries: make(map[string][]byte)}
}

func (m *mockResultCache) Get(_ context.Context, _, key string, v any) bool {
	data, ok := m.entries[key]
	if !ok {
		return false
	}
	m.hits++
	if s, ok := v.(*[]domain.ScoredDocument); ok {
		*s = decodeScored(data)
	}
	return true
}

func (m *mockResultCache) Set(_ context.Context, key string, v any, _ time.Duration) {
	m.sets++
	if s, ok := v.([]domain.ScoredDocument); ok {
		m.entries[key] = encodeScored(s)
	}
}

// encodeScored/decodeScored keep the mock free of serialization concerns by
// storing the document IDs only.
func encodeScored(s []domain.ScoredDocument) []byte {
	var out []byte
	for _, r := range s {
		out = append(out, []byte(r.Document.ID)...)
		out = append(out, ',')
	}
	return out
}

func decodeScored(data []byte) []domain.ScoredDocument {
	var out []domain.ScoredDocument
	start := 0
	for i, b := range data {
		if b == ',' {
			out = append(out, domain.ScoredDocument{
				Document: domain.Document{ID: string(data[start:i])},
			})
			start = i + 1
		}
	}
	return out
}

// embeddedDoc builds a document whose stored vector is enc(vec).
func embeddedDoc(t *testing.T, id string, vec []float32) domain.Document {
	t.Helper()
	enc, err := vector.Encode(vec)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return domain.Document{
		ID:                 id,
		OwnerID:            "u1",
		Name:               id + ".pdf",
		Embedding:          enc,
		EmbeddingGenerated: true,
	}
}

func newTestService(t *testing.T, ms *mockStore, emb domain.Embedder, threshold float64) *Service {
	t.Helper()
	return New(ms, emb, threshold, zap.NewNop())
}
