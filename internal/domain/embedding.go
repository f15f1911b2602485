package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is one configured embedding backend. Implementations are opaque
// beyond this contract; credentials and endpoints come from configuration.
type Provider interface {
	Embedder

	// Name identifies the provider in logs, metrics, and status reports.
	Name() string
	// Priority orders failover attempts, lower first. Ties keep configuration
	// order.
	Priority() int
	// Dimensions is the vector length this provider produces.
	Dimensions() int
	// Available reports whether the provider is worth attempting right now.
	// Evaluated on every call, never cached across providers.
	Available(ctx context.Context) bool
}

// ProviderStatus is a point-in-time snapshot of one provider for observability.
type ProviderStatus struct {
	Name       string `json:"name"`
	Priority   int    `json:"priority"`
	Dimensions int    `json:"dimensions"`
	Available  bool   `json:"available"`
}
