package orchestrator

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
)

// fakeProvider implements domain.Provider for tests.
type fakeProvider struct {
	name      string
	priority  int
	dims      int
	available bool
	vec       []float32
	err       error
	calls     int
}

func (f *fakeProvider) Name() string                     { return f.name }
func (f *fakeProvider) Priority() int                    { return f.priority }
func (f *fakeProvider) Dimensions() int                  { return f.dims }
func (f *fakeProvider) Available(_ context.Context) bool { return f.available }

func (f *fakeProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func authErr(name string) error {
	return domain.NewProviderError(name, domain.ClassAuth, 401, errors.New("invalid api key"))
}

func rateLimitErr(name string) error {
	return domain.NewProviderError(name, domain.ClassRateLimit, 429, errors.New("rate limit exceeded"))
}

func TestEmbedNoProviders(t *testing.T) {
	svc := New(nil, zap.NewNop())

	_, err := svc.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders, got %v", err)
	}
}

func TestEmbedFailoverAfterAuthError(t *testing.T) {
	p1 := &fakeProvider{name: "p1", priority: 1, available: true, err: authErr("p1")}
	p2 := &fakeProvider{name: "p2", priority: 2, available: true, vec: []float32{1, 2, 3}}
	svc := New([]domain.Provider{p1, p2}, zap.NewNop())

	vec, err := svc.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected p2's vector, got %v", vec)
	}
	if p1.calls != 1 {
		t.Errorf("p1 should be attempted exactly once, got %d", p1.calls)
	}
	if p2.calls != 1 {
		t.Errorf("p2 should be attempted exactly once, got %d", p2.calls)
	}
}

func TestEmbedFirstSuccessWins(t *testing.T) {
	p1 := &fakeProvider{name: "p1", priority: 1, available: true, vec: []float32{1}}
	p2 := &fakeProvider{name: "p2", priority: 2, available: true, vec: []float32{2}}
	svc := New([]domain.Provider{p2, p1}, zap.NewNop())

	vec, err := svc.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec[0] != 1 {
		t.Errorf("expected the priority-1 provider result, got %v", vec)
	}
	if p2.calls != 0 {
		t.Errorf("lower-priority provider must not be consulted after a success, calls=%d", p2.calls)
	}
}

func TestEmbedSkipsUnavailable(t *testing.T) {
	p1 := &fakeProvider{name: "p1", priority: 1, available: false, vec: []float32{1}}
	p2 := &fakeProvider{name: "p2", priority: 2, available: true, vec: []float32{2}}
	svc := New([]domain.Provider{p1, p2}, zap.NewNop())

	vec, err := svc.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec[0] != 2 {
		t.Errorf("expected the available provider result, got %v", vec)
	}
	if p1.calls != 0 {
		t.Errorf("unavailable provider must not be attempted, calls=%d", p1.calls)
	}
}

func TestEmbedAggregateFailure(t *testing.T) {
	p1 := &fakeProvider{name: "p1", priority: 1, available: true, err: rateLimitErr("p1")}
	p2 := &fakeProvider{name: "p2", priority: 2, available: true, err: rateLimitErr("p2")}
	svc := New([]domain.Provider{p1, p2}, zap.NewNop())

	_, err := svc.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected an aggregate error")
	}
	if errors.Is(err, domain.ErrNoProviders) {
		t.Error("a request failure must be distinguishable from no-providers")
	}

	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("aggregate error should wrap the last provider failure: %v", err)
	}
	if pe.Provider != "p2" {
		t.Errorf("expected last failure from p2, got %q", pe.Provider)
	}
}

func TestEmbedAllUnavailable(t *testing.T) {
	p1 := &fakeProvider{name: "p1", priority: 1, available: false}
	svc := New([]domain.Provider{p1}, zap.NewNop())

	_, err := svc.Embed(context.Background(), "text")
	if !errors.Is(err, domain.ErrNoProviders) {
		t.Fatalf("expected ErrNoProviders when nothing is available, got %v", err)
	}
}

func TestStatusStablePriorityOrder(t *testing.T) {
	// Two priority-2 providers: registration order breaks the tie.
	pa := &fakeProvider{name: "a", priority: 2, available: true}
	pb := &fakeProvider{name: "b", priority: 2, available: false}
	p0 := &fakeProvider{name: "first", priority: 1, available: true}
	svc := New([]domain.Provider{pa, pb, p0}, zap.NewNop())

	statuses := svc.Status(context.Background())
	want := []string{"first", "a", "b"}
	for i, s := range statuses {
		if s.Name != want[i] {
			t.Errorf("status[%d] = %q, want %q", i, s.Name, want[i])
		}
	}

	if got := svc.AvailableCount(context.Background()); got != 2 {
		t.Errorf("AvailableCount = %d, want 2", got)
	}
}
