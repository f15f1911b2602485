// Package semsearch assembles the embedding-backed document search subsystem
// for in-process use: provider failover, the embedding pipeline, semantic and
// hybrid search over a Redis document store.
package semsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/config"
	"github.com/paperbase/semsearch/internal/db"
	dbRedis "github.com/paperbase/semsearch/internal/db/redis"
	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
	"github.com/paperbase/semsearch/internal/provider/ollama"
	"github.com/paperbase/semsearch/internal/provider/openai"
	cacherepo "github.com/paperbase/semsearch/internal/repository/cache"
	documentrepo "github.com/paperbase/semsearch/internal/repository/document"
	"github.com/paperbase/semsearch/internal/repository/embcache"
	healthuc "github.com/paperbase/semsearch/internal/usecase/health"
	"github.com/paperbase/semsearch/internal/usecase/orchestrator"
	pipelineuc "github.com/paperbase/semsearch/internal/usecase/pipeline"
	searchuc "github.com/paperbase/semsearch/internal/usecase/search"
)

// Public aliases for the domain types callers exchange with the subsystem.
type (
	// Document is a searchable document record.
	Document = domain.Document
	// ScoredDocument is a search hit with its relevance score and source tag.
	ScoredDocument = domain.ScoredDocument
	// ProviderStatus describes one provider of the failover chain.
	ProviderStatus = domain.ProviderStatus
	// PipelineReport summarizes one embedding batch run.
	PipelineReport = pipelineuc.Report
	// HealthReport aggregates component health check results.
	HealthReport = healthuc.Report
	// Config is the subsystem configuration.
	Config = config.Config
	// ProviderConfig is one embedding provider entry.
	ProviderConfig = config.ProviderConfig
)

// Re-exported sentinel errors for callers that branch on failure kind.
var (
	// ErrNoProviders means no embedding provider was available.
	ErrNoProviders = domain.ErrNoProviders
	// ErrSearchUnavailable means semantic search could not embed the query.
	ErrSearchUnavailable = domain.ErrSearchUnavailable
	// ErrDocumentNotFound means the requested document does not exist.
	ErrDocumentNotFound = domain.ErrDocumentNotFound
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the semsearch library entry point.
type Client struct {
	store    db.Store
	docs     *documentrepo.Repo
	cache    *cacherepo.Cache
	search   *searchuc.Service
	pipeline *pipelineuc.Service
	orch     *orchestrator.Service
	health   *healthuc.Service
}

// New creates a Client and connects to the database. logger may be nil.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()

	if len(cfg.Database.Addrs) == 0 {
		return nil, errors.New("semsearch: database address required")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("semsearch: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("semsearch: database not ready: %w", err)
	}

	metrics.Register()

	providers := make([]domain.Provider, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := buildProvider(pc, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
		providers = append(providers, p)
	}
	orch := orchestrator.New(providers, logger)

	embedder := embcache.New(
		orch,
		store,
		time.Duration(cfg.Cache.EmbeddingTTLSec)*time.Second,
		metrics.EmbeddingCacheTotal,
		logger,
	)

	docs := documentrepo.New(store)
	resultCache := cacherepo.New(store, logger)

	search := searchuc.New(docs, embedder, cfg.Search.MinSimilarity, logger).
		WithResultCache(resultCache, time.Duration(cfg.Search.ResultTTLSec)*time.Second)

	pipeline := pipelineuc.New(docs, embedder, resultCache, pipelineuc.Config{
		FillGapsDelay:   time.Duration(cfg.Pipeline.FillGapsDelaySec) * time.Second,
		RegenerateDelay: time.Duration(cfg.Pipeline.RegenerateDelaySec) * time.Second,
		ProviderTimeout: time.Duration(cfg.Pipeline.ProviderTimeoutSec) * time.Second,
	}, logger)

	return &Client{
		store:    store,
		docs:     docs,
		cache:    resultCache,
		search:   search,
		pipeline: pipeline,
		orch:     orch,
		health:   healthuc.New(store, orch, resultCache),
	}, nil
}

func buildProvider(pc ProviderConfig, logger *zap.Logger) (domain.Provider, error) {
	switch pc.Type {
	case "openai":
		return openai.New(openai.Config{
			Name:       pc.Name,
			Priority:   pc.Priority,
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Logger:     logger,
		}), nil
	case "ollama":
		return ollama.New(ollama.Config{
			Name:       pc.Name,
			Priority:   pc.Priority,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("semsearch: unknown provider type %q", pc.Type)
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SaveDocument persists a document and evicts cache entries it stales.
func (c *Client) SaveDocument(ctx context.Context, doc *Document) error {
	if err := c.docs.Save(ctx, doc); err != nil {
		return err
	}
	c.cache.InvalidateDocument(ctx, doc.ID, doc.OwnerID)
	return nil
}

// GetDocument returns a document by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (Document, error) {
	return c.docs.Get(ctx, id)
}

// DeleteDocument removes a document and evicts cache entries it stales.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	doc, err := c.docs.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := c.docs.Delete(ctx, id); err != nil {
		return err
	}
	c.cache.InvalidateDocument(ctx, doc.ID, doc.OwnerID)
	return nil
}

// Search runs pure semantic search over the owner's embedded documents.
func (c *Client) Search(ctx context.Context, query, ownerID string, limit int) ([]ScoredDocument, error) {
	return c.search.Search(ctx, query, ownerID, limit)
}

// HybridSearch fuses semantic and keyword matches, degrading to one path
// when the other is unavailable.
func (c *Client) HybridSearch(ctx context.Context, query, ownerID string, limit int) ([]ScoredDocument, error) {
	return c.search.HybridSearch(ctx, query, ownerID, limit)
}

// RunPipeline embeds the owner's documents: only the gaps by default, every
// document when force is set.
func (c *Client) RunPipeline(ctx context.Context, ownerID string, force bool) (PipelineReport, error) {
	if force {
		return c.pipeline.Regenerate(ctx, ownerID)
	}
	return c.pipeline.FillGaps(ctx, ownerID)
}

// Status reports the provider failover chain in priority order.
func (c *Client) Status(ctx context.Context) []ProviderStatus {
	return c.orch.Status(ctx)
}

// Health aggregates component health.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.health.Check(ctx)
}
