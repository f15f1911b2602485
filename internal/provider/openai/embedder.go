// Package openai implements an embedding provider over any OpenAI-compatible
// API (OpenAI itself, Azure, Nebius, and similar gateways).
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
)

// Compile-time check: Provider implements domain.Provider.
var _ domain.Provider = (*Provider)(nil)

// Provider is an OpenAI-compatible embedding backend.
type Provider struct {
	client     *openai.Client
	name       string
	priority   int
	model      openai.EmbeddingModel
	dimensions int
	apiKey     string
	logger     *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	Name       string
	Priority   int
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// New creates an OpenAI-compatible embedding provider.
func New(cfg Config) *Provider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		client:     openai.NewClientWithConfig(clientCfg),
		name:       cfg.Name,
		priority:   cfg.Priority,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		apiKey:     cfg.APIKey,
		logger:     cfg.Logger,
	}
}

// Name identifies the provider.
func (p *Provider) Name() string { return p.name }

// Priority orders failover attempts, lower first.
func (p *Provider) Priority() int { return p.priority }

// Dimensions is the vector length this provider produces.
func (p *Provider) Dimensions() int { return p.dimensions }

// Available reports whether the provider has a credential to try with.
func (p *Provider) Available(_ context.Context) bool {
	return p.apiKey != ""
}

// Embed implements domain.Embedder with transport-level metrics.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          p.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if p.dimensions > 0 {
		req.Dimensions = p.dimensions
	}

	start := time.Now()

	resp, err := p.client.CreateEmbeddings(ctx, req)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return nil, p.classify(err)
	}

	if len(resp.Data) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return nil, domain.NewProviderError(
			p.name, domain.ClassOther, 0, errors.New("empty embedding response"),
		)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(p.name).Observe(duration.Seconds())

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.name),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Data[0].Embedding, nil
}

// classify maps API errors to the domain taxonomy by HTTP status.
func (p *Provider) classify(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return domain.NewProviderError(
			p.name, domain.ClassifyStatus(reqErr.HTTPStatusCode), reqErr.HTTPStatusCode,
			fmt.Errorf("embedding API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body)),
		)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewProviderError(
			p.name, domain.ClassifyStatus(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode,
			fmt.Errorf("embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message),
		)
	}

	return domain.NewProviderError(p.name, domain.ClassOther, 0,
		fmt.Errorf("embedding request failed: %w", err))
}
