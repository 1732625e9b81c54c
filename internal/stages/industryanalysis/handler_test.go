// internal/stages/industryanalysis/handler_test.go
package industryanalysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/entity"
	"research-pipeline/internal/stage"
)

func testProfile() *entity.CompanyProfile {
	return &entity.CompanyProfile{
		Name:     "Acme Robotics",
		Industry: "robotics",
		Sources:  []string{"https://acme.example"},
	}
}

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPath, r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.CompanyProfile)
		assert.Equal(t, "Acme Robotics", req.CompanyProfile.Name)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"domain": "warehouse automation", "score": 0.9, "rationale": "strong fit", "sources": []string{"s1"}},
				{"domain": "agritech", "score": 0.6, "rationale": "adjacent", "sources": []string{"s2"}},
			},
		})
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second, MaxRetries: 1}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Profile: testProfile()})

	require.True(t, res.Success, res.Error)
	items, ok := res.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestExecute_MissingProfile(t *testing.T) {
	h := NewHandler(&Config{BaseURL: "http://localhost:0", Timeout: time.Second}, logger.NewTestLogger(t))

	res := h.Execute(context.Background(), stage.Input{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "company_profile is required")
}

func TestExecute_EmptyDomainListStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{},
		})
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Profile: testProfile()})

	// An empty candidate list is a valid adapter response. Deciding that
	// no domains were found is the orchestrator's call.
	require.True(t, res.Success, res.Error)
	items, ok := res.Data.([]interface{})
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestExecute_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second, MaxRetries: 1}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Profile: testProfile()})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "status 502")
}
