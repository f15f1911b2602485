// Package orchestrator implements priority-ordered failover across embedding
// providers.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
)

// Compile-time check: Service implements domain.Embedder.
var _ domain.Embedder = (*Service)(nil)

// Service tries providers in priority order and returns the first success.
// The provider list is sorted once at construction and read-only afterwards,
// so the service is safe for concurrent callers.
type Service struct {
	providers []domain.Provider
	logger    *zap.Logger

	// diagOnce logs the provider table on first use, one-shot per lifecycle.
	diagOnce sync.Once
}

// New creates an orchestrator over the given providers. Sorting by priority is
// stable: equal priorities keep their registration order.
func New(providers []domain.Provider, logger *zap.Logger) *Service {
	sorted := make([]domain.Provider, len(providers))
	copy(sorted, providers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	return &Service{providers: sorted, logger: logger}
}

// Embed generates a vector for text via the first provider that succeeds.
//
// Unavailable providers are skipped without recording a failure. A provider
// that fails with an auth-class error is never retried within the call, but
// lower-priority providers with independent credentials still get their
// attempt. When every provider was skipped or failed, the returned error
// wraps the last concrete failure; with no providers configured at all the
// distinguishable domain.ErrNoProviders is returned.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(s.providers) == 0 {
		return nil, domain.ErrNoProviders
	}

	s.diagOnce.Do(s.logProviderTable)

	var lastErr error
	var lastProvider string

	for _, p := range s.providers {
		if !p.Available(ctx) {
			continue
		}

		vec, err := p.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}

		class := domain.ClassOf(err)
		metrics.EmbeddingFailoverTotal.WithLabelValues(p.Name(), string(class)).Inc()
		s.logger.Warn("Embedding provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("class", string(class)),
			zap.Error(err),
		)

		lastErr = err
		lastProvider = p.Name()
	}

	if lastErr == nil {
		// Providers exist but none was available to attempt.
		return nil, fmt.Errorf("all providers unavailable: %w", domain.ErrNoProviders)
	}
	return nil, fmt.Errorf("all providers failed, last was %s: %w", lastProvider, lastErr)
}

// Status reports a snapshot of every configured provider in priority order.
func (s *Service) Status(ctx context.Context) []domain.ProviderStatus {
	statuses := make([]domain.ProviderStatus, 0, len(s.providers))
	for _, p := range s.providers {
		statuses = append(statuses, domain.ProviderStatus{
			Name:       p.Name(),
			Priority:   p.Priority(),
			Dimensions: p.Dimensions(),
			Available:  p.Available(ctx),
		})
	}
	return statuses
}

// AvailableCount returns how many providers currently report available.
func (s *Service) AvailableCount(ctx context.Context) int {
	n := 0
	for _, p := range s.providers {
		if p.Available(ctx) {
			n++
		}
	}
	return n
}

func (s *Service) logProviderTable() {
	for _, p := range s.providers {
		s.logger.Info("Embedding provider registered",
			zap.String("provider", p.Name()),
			zap.Int("priority", p.Priority()),
			zap.Int("dimensions", p.Dimensions()),
		)
	}
}
