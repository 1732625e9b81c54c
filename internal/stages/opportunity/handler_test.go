// internal/stages/opportunity/handler_test.go
package opportunity

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

func TestExecute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, endpointPath, r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.MarketGaps, 1)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"title": "SMB automation kit", "priority": "high", "description": "entry-level product line", "sources": []string{"s1"}},
			},
		})
	}))
	defer server.Close()

	gaps := []entity.MarketGap{{Gap: "no SMB offering", Impact: entity.LevelHigh, Evidence: "enterprise-only field"}}

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second, MaxRetries: 1}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Gaps: gaps})

	require.True(t, res.Success, res.Error)
	items, ok := res.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 1)
}

func TestExecute_MissingGaps(t *testing.T) {
	h := NewHandler(&Config{BaseURL: "http://localhost:0", Timeout: time.Second}, logger.NewTestLogger(t))

	res := h.Execute(context.Background(), stage.Input{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "market_gaps is required")
}

func TestExecute_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "ranking model overloaded",
		})
	}))
	defer server.Close()

	h := NewHandler(&Config{BaseURL: server.URL, Timeout: 2 * time.Second}, logger.NewTestLogger(t))
	res := h.Execute(context.Background(), stage.Input{Gaps: []entity.MarketGap{{Gap: "g", Impact: entity.LevelLow}}})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "ranking model overloaded")
}
