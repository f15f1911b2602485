package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/domain"
	healthuc "github.com/paperbase/semsearch/internal/usecase/health"
	"github.com/paperbase/semsearch/internal/usecase/pipeline"
)

// --- Mocks ---

type mockPipeline struct {
	fillGapsOwner   string
	regenerateOwner string
	report          pipeline.Report
	err             error
}

func (m *mockPipeline) FillGaps(_ context.Context, ownerID string) (pipeline.Report, error) {
	m.fillGapsOwner = ownerID
	return m.report, m.err
}

func (m *mockPipeline) Regenerate(_ context.Context, ownerID string) (pipeline.Report, error) {
	m.regenerateOwner = ownerID
	return m.report, m.err
}

type mockDirectory struct {
	statuses []domain.ProviderStatus
}

func (m *mockDirectory) Status(_ context.Context) []domain.ProviderStatus { return m.statuses }

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestServer(p PipelineRunner, d ProviderDirectory, h HealthChecker) *Server {
	return NewServer(p, d, h, zap.NewNop())
}

// --- Tests ---

func TestHealthCheck_OK(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{
		report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"store": healthuc.CheckOK},
		},
	})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	srv.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp healthuc.Report
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != healthuc.Healthy {
		t.Errorf("body status: got %q, want %q", resp.Status, healthuc.Healthy)
	}
}

func TestHealthCheck_Unhealthy_503(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{
		report: healthuc.Report{Status: healthuc.Unhealthy},
	})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	srv.HealthCheck(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestHealthCheck_Degraded_200(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{
		report: healthuc.Report{Status: healthuc.Degraded},
	})

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	srv.HealthCheck(rr, req)

	// Degraded still serves searches, so readiness stays green.
	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestProviders_ListsChain(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{statuses: []domain.ProviderStatus{
		{Name: "openai", Priority: 1, Dimensions: 1536, Available: true},
		{Name: "ollama", Priority: 2, Dimensions: 768, Available: false},
	}}, &mockHealth{})

	req := httptest.NewRequest("GET", "/providers", http.NoBody)
	rr := httptest.NewRecorder()
	srv.Providers(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp struct {
		Providers []domain.ProviderStatus `json:"providers"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Providers) != 2 || resp.Providers[0].Name != "openai" {
		t.Errorf("unexpected providers payload: %+v", resp.Providers)
	}
}

func TestRunPipeline_FillGaps(t *testing.T) {
	mp := &mockPipeline{report: pipeline.Report{Succeeded: 3, Failed: 1}}
	srv := newTestServer(mp, &mockDirectory{}, &mockHealth{})

	body := strings.NewReader(`{"owner_id":"u1"}`)
	req := httptest.NewRequest("POST", "/pipeline/run", body)
	rr := httptest.NewRecorder()
	srv.RunPipeline(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if mp.fillGapsOwner != "u1" {
		t.Errorf("fill-gaps owner: got %q, want u1", mp.fillGapsOwner)
	}
	if mp.regenerateOwner != "" {
		t.Error("regenerate must not run without force")
	}

	var resp runPipelineResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Mode != string(pipeline.ModeFillGaps) || resp.Succeeded != 3 || resp.Failed != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestRunPipeline_Force_Regenerates(t *testing.T) {
	mp := &mockPipeline{report: pipeline.Report{Succeeded: 5}}
	srv := newTestServer(mp, &mockDirectory{}, &mockHealth{})

	body := strings.NewReader(`{"owner_id":"u1","force":true}`)
	req := httptest.NewRequest("POST", "/pipeline/run", body)
	rr := httptest.NewRecorder()
	srv.RunPipeline(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if mp.regenerateOwner != "u1" {
		t.Errorf("regenerate owner: got %q, want u1", mp.regenerateOwner)
	}
	if mp.fillGapsOwner != "" {
		t.Error("fill-gaps must not run with force")
	}
}

func TestRunPipeline_MissingOwner_400(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{})

	body := strings.NewReader(`{"force":true}`)
	req := httptest.NewRequest("POST", "/pipeline/run", body)
	rr := httptest.NewRecorder()
	srv.RunPipeline(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRunPipeline_InvalidBody_400(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{})

	body := strings.NewReader(`{not json`)
	req := httptest.NewRequest("POST", "/pipeline/run", body)
	rr := httptest.NewRecorder()
	srv.RunPipeline(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRunPipeline_ServiceError_500(t *testing.T) {
	mp := &mockPipeline{err: errors.New("store unreachable")}
	srv := newTestServer(mp, &mockDirectory{}, &mockHealth{})

	body := strings.NewReader(`{"owner_id":"u1"}`)
	req := httptest.NewRequest("POST", "/pipeline/run", body)
	rr := httptest.NewRecorder()
	srv.RunPipeline(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeInternalError {
		t.Errorf("error code: got %s, want %s", errResp.Code, codeInternalError)
	}
}

func TestRouter_RoutesWired(t *testing.T) {
	srv := newTestServer(&mockPipeline{}, &mockDirectory{}, &mockHealth{
		report: healthuc.Report{Status: healthuc.Healthy},
	})
	handler := srv.Router(nil)

	req := httptest.NewRequest("GET", "/healthz", http.NoBody)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("GET /healthz via router: got %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header from middleware stack")
	}
}
