// test/e2e/e2e_test.go

// End-to-end run of the orchestrator with the real HTTP adapters against
// a fake analysis backend. The adapter unit tests cover each handler in
// isolation; this exercises the whole chain including validation gates
// and domain selection.
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-pipeline/internal/common/config"
	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/pipeline"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
	"research-pipeline/internal/stages/companyresearch"
	"research-pipeline/internal/stages/competitivelandscape"
	"research-pipeline/internal/stages/gapanalysis"
	"research-pipeline/internal/stages/industryanalysis"
	"research-pipeline/internal/stages/marketdata"
	"research-pipeline/internal/stages/opportunity"
	"research-pipeline/internal/stages/reportsynthesis"
)

// fakeBackend serves every agent endpoint with canned Acme Robotics
// responses. failPath, when set, answers that endpoint with a 500.
func fakeBackend(t *testing.T, failPath string) *httptest.Server {
	t.Helper()

	respond := func(w http.ResponseWriter, data interface{}) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/agents/company-research", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]interface{}{
			"name":         "Acme Robotics",
			"industry":     "robotics",
			"description":  "Industrial automation vendor",
			"products":     []string{"arms", "controllers"},
			"headquarters": "Austin, TX",
			"sources":      []string{"https://acme.example"},
		})
	})
	mux.HandleFunc("/api/agents/industry-analysis", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []map[string]interface{}{
			{"domain": "agritech", "score": 0.6, "rationale": "adjacent"},
			{"domain": "warehouse automation", "score": 0.9, "rationale": "direct fit"},
		})
	})
	mux.HandleFunc("/api/agents/market-data", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Domain string `json:"domain"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "warehouse automation", req.Domain)
		respond(w, map[string]interface{}{
			"market_size_usd": 4.2e9,
			"CAGR":            0.12,
			"key_drivers":     []string{"labor shortage"},
		})
	})
	mux.HandleFunc("/api/agents/competitive-landscape", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []map[string]interface{}{
			{"competitor": "RoboCorp", "product": "PalletBot", "market_share": 0.3, "note": "incumbent"},
		})
	})
	mux.HandleFunc("/api/agents/market-gap", func(w http.ResponseWriter, r *http.Request) {
		// The backend reports capitalized impact levels; the validation
		// gate normalizes them.
		respond(w, []map[string]interface{}{
			{"gap": "no SMB offering", "impact": "High", "evidence": "enterprise-only field"},
		})
	})
	mux.HandleFunc("/api/agents/opportunity", func(w http.ResponseWriter, r *http.Request) {
		respond(w, []map[string]interface{}{
			{"title": "SMB automation kit", "priority": "high", "description": "entry-level line"},
		})
	})

	handler := http.Handler(mux)
	if failPath != "" {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == failPath {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			mux.ServeHTTP(w, r)
		})
	}
	return httptest.NewServer(handler)
}

func buildOrchestrator(t *testing.T, baseURL string) *pipeline.Orchestrator {
	t.Helper()

	cfg := &config.Config{
		Backends: config.BackendsConfig{AgentsBaseURL: baseURL, Timeout: 5000},
	}
	log := logger.NewTestLogger(t)

	adapters := []stage.Adapter{
		companyresearch.NewHandler(companyresearch.ConfigFrom(cfg), log),
		industryanalysis.NewHandler(industryanalysis.ConfigFrom(cfg), log),
		marketdata.NewHandler(marketdata.ConfigFrom(cfg), log),
		competitivelandscape.NewHandler(competitivelandscape.ConfigFrom(cfg), log),
		gapanalysis.NewHandler(gapanalysis.ConfigFrom(cfg), log),
		opportunity.NewHandler(opportunity.ConfigFrom(cfg), log),
		reportsynthesis.NewHandler(reportsynthesis.ConfigFrom(cfg), log),
	}

	orch, err := pipeline.New(schema.MustNewRegistry(), adapters, log)
	require.NoError(t, err)
	return orch
}

func TestFullRun(t *testing.T) {
	backend := fakeBackend(t, "")
	defer backend.Close()

	orch := buildOrchestrator(t, backend.URL)
	res := orch.Run(context.Background(), "Acme Robotics", "")

	require.True(t, res.Completed, "run should complete: %v", res.Err)
	assert.Equal(t, "warehouse automation", res.Domain)
	assert.Equal(t, 0.9, res.DomainScore)
	assert.Len(t, res.Trail, 7)

	require.NotNil(t, res.Report)
	assert.True(t, res.Report.Placeholder)
	assert.Contains(t, res.Report.Content, "Acme Robotics")
	assert.Contains(t, res.Report.Content, "RoboCorp")
	assert.Equal(t, stage.GapAnalysis, res.Trail[4].Stage)
}

func TestFullRun_DomainOverride(t *testing.T) {
	backend := fakeBackend(t, "/api/agents/market-data")
	defer backend.Close()

	// With the market-data endpoint broken the run cannot pass stage 3,
	// but the override must still be committed before the failure.
	orch := buildOrchestrator(t, backend.URL)
	res := orch.Run(context.Background(), "Acme Robotics", "agritech")

	require.False(t, res.Completed)
	assert.Equal(t, "agritech", res.Domain)
	assert.Equal(t, 0.6, res.DomainScore)
	assert.Equal(t, stage.MarketData, res.FailedStage)
}

func TestRunFailsFastWhenBackendBreaks(t *testing.T) {
	backend := fakeBackend(t, "/api/agents/market-data")
	defer backend.Close()

	orch := buildOrchestrator(t, backend.URL)
	res := orch.Run(context.Background(), "Acme Robotics", "")

	require.False(t, res.Completed)
	assert.Equal(t, stage.MarketData, res.FailedStage)
	assert.Len(t, res.Trail, 3)
}
