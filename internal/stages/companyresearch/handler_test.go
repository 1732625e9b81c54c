// internal/stages/companyresearch/handler_test.go
package companyresearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/stage"
)

func testConfig(baseURL string) *Config {
	return &Config{
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxRetries: 2,
	}
}

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPath, r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme Robotics", req.CompanyName)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"name":         "Acme Robotics",
				"industry":     "robotics",
				"description":  "Industrial automation vendor",
				"products":     []string{"arms", "controllers"},
				"headquarters": "Austin, TX",
				"sources":      []string{"https://acme.example"},
			},
		})
	}))
	defer server.Close()

	h := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{CompanyName: "Acme Robotics"})

	require.True(t, res.Success, res.Error)
	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Acme Robotics", data["name"])
}

func TestExecute_BlankCompanyName(t *testing.T) {
	h := NewHandler(testConfig("http://localhost:0"), logger.NewTestLogger(t))

	res := h.Execute(context.Background(), stage.Input{CompanyName: "   "})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "company_name is required")
}

func TestExecute_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	h := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{CompanyName: "Acme"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "status 500")
}

func TestExecute_RetriesThenSucceeds(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"name": "Acme"},
		})
	}))
	defer server.Close()

	h := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{CompanyName: "Acme"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestExecute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond
	h := NewHandler(cfg, logger.NewTestLogger(t))

	res := h.Execute(context.Background(), stage.Input{CompanyName: "Acme"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "BACKEND_TIMEOUT")
}

func TestExecute_BackendReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "research agent unavailable",
		})
	}))
	defer server.Close()

	h := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{CompanyName: "Acme"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "research agent unavailable")
}
