package health

import "context"

// StorePinger checks document store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ProviderPool reports how many embedding providers are reachable.
type ProviderPool interface {
	AvailableCount(ctx context.Context) int
}

// CacheChecker checks the result cache backend.
type CacheChecker interface {
	Healthy(ctx context.Context) bool
}
