// internal/stages/competitivelandscape/handler_test.go
package competitivelandscape

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
	"research-pipeline/internal/stage"
)

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPath, r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "warehouse automation", req.Domain)
		assert.Equal(t, 0.9, req.Score)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"competitor": "RoboCorp", "product": "PalletBot", "market_share": 0.3, "note": "incumbent", "sources": []string{"s1"}},
			},
		})
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second, MaxRetries: 1}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Domain: "warehouse automation", DomainScore: 0.9})

	require.True(t, res.Success, res.Error)
	items, ok := res.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestExecute_MissingDomain(t *testing.T) {
	h := NewHandler(&Config{BaseURL: "http://localhost:0", Timeout: time.Second}, logger.NewTestLogger(t))

	res := h.Execute(context.Background(), stage.Input{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "domain is required")
}

func TestExecute_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second, MaxRetries: 1}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Domain: "agritech"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "status 500")
}
