package pipeline

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
)

// mockStore implements DocumentStore with an in-memory document list.
type mockStore struct {
	docs    []domain.Document
	saved   []domain.Document
	findErr error
	saveErr error
}

func (m *mockStore) FindMissingEmbeddings(_ context.Context, _ string) ([]domain.Document, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []domain.Document
	for _, d := range m.docs {
		if !d.EmbeddingGenerated {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) FindAll(_ context.Context, _ string) ([]domain.Document, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return append([]domain.Document(nil), m.docs...), nil
}

func (m *mockStore) Save(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *doc)
	for i := range m.docs {
		if m.docs[i].ID == doc.ID {
			m.docs[i] = *doc
		}
	}
	return nil
}

func (m *mockStore) byID(t *testing.T, id string) domain.Document {
	t.Helper()
	for _, d := range m.docs {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("document %s not found", id)
	return domain.Document{}
}

// scriptedEmbedder returns a canned outcome per call, in call order.
type scriptedEmbedder struct {
	outcomes []embedOutcome
	calls    int
	texts    []string
}

type embedOutcome struct {
	vec []float32
	err error
}

func (s *scriptedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.texts = append(s.texts, text)
	i := s.calls
	s.calls++
	if i >= len(s.outcomes) {
		return []float32{0.1, 0.2}, nil
	}
	return s.outcomes[i].vec, s.outcomes[i].err
}

// mockInvalidator records invalidation calls.
type mockInvalidator struct {
	docIDs []string
}

func (m *mockInvalidator) InvalidateDocument(_ context.Context, docID, _ string) {
	m.docIDs = append(m.docIDs, docID)
}

func newTestService(t *testing.T, ms *mockStore, emb domain.Embedder) *Service {
	t.Helper()
	// Zero delays keep tests fast; defaults are exercised separately.
	cfg := Config{
		FillGapsDelay:   time.Nanosecond,
		RegenerateDelay: time.Nanosecond,
		ProviderTimeout: time.Second,
	}
	return New(ms, emb, nil, cfg, zap.NewNop())
}
