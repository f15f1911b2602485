// Package ollama implements an embedding provider over a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	"github.com/paperbase/semsearch/internal/metrics"
)

// Compile-time check: Provider implements domain.Provider.
var _ domain.Provider = (*Provider)(nil)

// Provider is a local Ollama embedding backend (POST /api/embeddings).
type Provider struct {
	httpClient *http.Client
	name       string
	priority   int
	baseURL    string
	model      string
	dimensions int
	logger     *zap.Logger
}

// Config holds the provider settings.
type Config struct {
	Name       string
	Priority   int
	BaseURL    string // e.g. http://localhost:11434
	Model      string // e.g. nomic-embed-text
	Dimensions int
	Logger     *zap.Logger
}

// New creates an Ollama embedding provider.
func New(cfg Config) *Provider {
	return &Provider{
		httpClient: &http.Client{},
		name:       cfg.Name,
		priority:   cfg.Priority,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     cfg.Logger,
	}
}

// Name identifies the provider.
func (p *Provider) Name() string { return p.name }

// Priority orders failover attempts, lower first.
func (p *Provider) Priority() int { return p.priority }

// Dimensions is the vector length this provider produces.
func (p *Provider) Dimensions() int { return p.dimensions }

// Available reports whether the provider is configured with an endpoint.
func (p *Provider) Available(_ context.Context) bool {
	return p.baseURL != "" && p.model != ""
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed implements domain.Embedder.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Prompt: text})
	if err != nil {
		return nil, domain.NewProviderError(p.name, domain.ClassOther, 0,
			fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(body),
	)
	if err != nil {
		return nil, domain.NewProviderError(p.name, domain.ClassOther, 0,
			fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := p.httpClient.Do(req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return nil, domain.NewProviderError(p.name, domain.ClassOther, 0,
			fmt.Errorf("embedding request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, domain.NewProviderError(
			p.name, domain.ClassifyStatus(resp.StatusCode), resp.StatusCode,
			fmt.Errorf("embedding API error %d: %s", resp.StatusCode, string(detail)),
		)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return nil, domain.NewProviderError(p.name, domain.ClassOther, 0,
			fmt.Errorf("decode response: %w", err))
	}
	if len(parsed.Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "error").Inc()
		return nil, domain.NewProviderError(p.name, domain.ClassOther, 0,
			fmt.Errorf("empty embedding response"))
	}

	duration := time.Since(start)
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.name, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(p.name).Observe(duration.Seconds())

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.name),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(parsed.Embedding)),
	)

	return parsed.Embedding, nil
}
