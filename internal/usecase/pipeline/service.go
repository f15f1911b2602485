// Package pipeline implements the embedding batch job: it finds documents
// needing vectors, embeds their enriched text, and persists the result.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/domain/vector"
	"github.com/paperbase/semsearch/internal/metrics"
)

// Mode selects the candidate set and pacing of a pipeline run.
type Mode string

const (
	// ModeFillGaps embeds only documents without a generated vector.
	ModeFillGaps Mode = "fill_gaps"
	// ModeRegenerate re-embeds every document in scope.
	ModeRegenerate Mode = "regenerate"
)

// Default pacing and timeout values, overridable via the Config.
const (
	DefaultFillGapsDelay   = 1 * time.Second
	DefaultRegenerateDelay = 3 * time.Second
	DefaultProviderTimeout = 30 * time.Second
)

// Report summarizes one pipeline run. Per-document failures are counted, not
// raised.
type Report struct {
	Succeeded int
	Failed    int
	// Aborted is true when an auth-class provider failure stopped the batch
	// before the candidate list was exhausted.
	Aborted bool
}

// Config tunes pacing and the per-document provider timeout.
type Config struct {
	FillGapsDelay   time.Duration
	RegenerateDelay time.Duration
	ProviderTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.FillGapsDelay <= 0 {
		c.FillGapsDelay = DefaultFillGapsDelay
	}
	if c.RegenerateDelay <= 0 {
		c.RegenerateDelay = DefaultRegenerateDelay
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = DefaultProviderTimeout
	}
}

// Service runs embedding batches. Each run is strictly sequential: rate
// pacing and the auth-abort rule need per-document ordering. Runs for
// different owners may execute concurrently; the document Save is the
// serialization point.
type Service struct {
	store DocumentStore
	embed domain.Embedder
	inval Invalidator
	cfg   Config

	logger *zap.Logger
}

// New creates a pipeline service. inval may be nil.
func New(store DocumentStore, embed domain.Embedder, inval Invalidator, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	return &Service{store: store, embed: embed, inval: inval, cfg: cfg, logger: logger}
}

// FillGaps embeds the owner's documents that have no vector yet.
func (s *Service) FillGaps(ctx context.Context, ownerID string) (Report, error) {
	docs, err := s.store.FindMissingEmbeddings(ctx, ownerID)
	if err != nil {
		return Report{}, fmt.Errorf("find candidates: %w", err)
	}
	return s.run(ctx, ModeFillGaps, docs, s.cfg.FillGapsDelay), nil
}

// Regenerate re-embeds every document of the owner regardless of state. The
// longer inter-call delay reflects the larger candidate set.
func (s *Service) Regenerate(ctx context.Context, ownerID string) (Report, error) {
	docs, err := s.store.FindAll(ctx, ownerID)
	if err != nil {
		return Report{}, fmt.Errorf("find candidates: %w", err)
	}
	return s.run(ctx, ModeRegenerate, docs, s.cfg.RegenerateDelay), nil
}

func (s *Service) run(ctx context.Context, mode Mode, docs []domain.Document, delay time.Duration) Report {
	var report Report

	for i := range docs {
		if ctx.Err() != nil {
			s.logger.Info("Pipeline cancelled",
				zap.String("mode", string(mode)),
				zap.Int("remaining", len(docs)-i),
			)
			break
		}

		doc := &docs[i]
		if err := s.processOne(ctx, doc); err != nil {
			report.Failed++
			metrics.PipelineDocumentsTotal.WithLabelValues(string(mode), "failure").Inc()

			class := domain.ClassOf(err)
			s.logger.Warn("Embedding generation failed",
				zap.String("doc_id", doc.ID),
				zap.String("class", string(class)),
				zap.Error(err),
			)

			if class == domain.ClassAuth {
				// A dead credential fails identically for every remaining
				// document; stop instead of hammering it.
				report.Aborted = true
				s.logger.Error("Aborting batch on auth failure",
					zap.String("mode", string(mode)),
					zap.Int("remaining", len(docs)-i-1),
				)
				break
			}
			continue
		}

		report.Succeeded++
		metrics.PipelineDocumentsTotal.WithLabelValues(string(mode), "success").Inc()

		// Pace successful provider calls only; interruptible so shutdown
		// stops the batch between documents.
		if !sleepCtx(ctx, delay) {
			break
		}
	}

	s.logger.Info("Pipeline run finished",
		zap.String("mode", string(mode)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Bool("aborted", report.Aborted),
	)
	return report
}

func (s *Service) processOne(ctx context.Context, doc *domain.Document) error {
	text := BuildEmbeddingText(doc)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
	defer cancel()

	vec, err := s.embed.Embed(callCtx, text)
	if err != nil {
		return err
	}

	encoded, err := vector.Encode(vec)
	if err != nil {
		return err
	}

	doc.Embedding = encoded
	doc.EmbeddingGenerated = true

	if err := s.store.Save(ctx, doc); err != nil {
		// Keep the in-memory copy consistent with the store.
		doc.Embedding = ""
		doc.EmbeddingGenerated = false
		return fmt.Errorf("persist embedding: %w", err)
	}

	if s.inval != nil {
		s.inval.InvalidateDocument(ctx, doc.ID, doc.OwnerID)
	}
	return nil
}

// sleepCtx pauses for d, returning false when ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
