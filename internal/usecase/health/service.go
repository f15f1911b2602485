package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure: searches may still be served.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	providers ProviderPool
	cache     CacheChecker
}

// New creates a Service. providers and cache can be nil.
func New(store StorePinger, providers ProviderPool, cache CacheChecker) *Service {
	return &Service{store: store, providers: providers, cache: cache}
}

// Check runs health checks against all components. The store is the only
// hard dependency: without it the service cannot answer anything, so a
// store failure reports Unhealthy while provider or cache failures only
// degrade the status.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	storeDown := false
	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
		storeDown = true
	} else {
		checks["store"] = CheckOK
	}

	if s.providers != nil {
		if s.providers.AvailableCount(ctx) == 0 {
			checks["providers"] = CheckError
		} else {
			checks["providers"] = CheckOK
		}
	}

	if s.cache != nil {
		if s.cache.Healthy(ctx) {
			checks["cache"] = CheckOK
		} else {
			checks["cache"] = CheckError
		}
	}

	if storeDown {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
