// internal/stage/result_test.go
package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         map[string]interface{}
		wantSuccess bool
		wantData    interface{}
		wantErr     string
	}{
		{
			name:        "data key",
			raw:         map[string]interface{}{"success": true, "data": map[string]interface{}{"name": "Acme"}},
			wantSuccess: true,
			wantData:    map[string]interface{}{"name": "Acme"},
		},
		{
			name:        "result key",
			raw:         map[string]interface{}{"result": []interface{}{"a", "b"}},
			wantSuccess: true,
			wantData:    []interface{}{"a", "b"},
		},
		{
			name:        "raw response only",
			raw:         map[string]interface{}{"raw_response": `{"domain":"robotics","score":0.8}`},
			wantSuccess: true,
			wantData:    map[string]interface{}{"domain": "robotics", "score": 0.8},
		},
		{
			name:        "explicit failure",
			raw:         map[string]interface{}{"success": false, "error": "timeout"},
			wantSuccess: false,
			wantErr:     "timeout",
		},
		{
			name:        "failure without message",
			raw:         map[string]interface{}{"success": false},
			wantSuccess: false,
			wantErr:     "backend reported failure without a message",
		},
		{
			name:        "raw response not JSON",
			raw:         map[string]interface{}{"raw_response": "sorry, I could not comply"},
			wantSuccess: false,
		},
		{
			name:        "empty shape",
			raw:         map[string]interface{}{},
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.raw)
			assert.Equal(t, tt.wantSuccess, res.Success)
			if tt.wantSuccess {
				assert.Equal(t, tt.wantData, res.Data)
				assert.Empty(t, res.Error)
			} else {
				assert.NotEmpty(t, res.Error)
				if tt.wantErr != "" {
					assert.Equal(t, tt.wantErr, res.Error)
				}
				assert.Nil(t, res.Data)
			}
		})
	}
}

func TestNormalize_PreservesRawResponse(t *testing.T) {
	res := Normalize(map[string]interface{}{
		"data":         map[string]interface{}{"name": "Acme"},
		"raw_response": "verbatim model output",
	})
	require.True(t, res.Success)
	assert.Equal(t, "verbatim model output", res.RawResponse)
}

func TestNameIndex(t *testing.T) {
	assert.Equal(t, 0, CompanyResearch.Index())
	assert.Equal(t, 6, ReportSynthesis.Index())
	assert.Equal(t, -1, Name("Nope").Index())
	assert.Len(t, Order, 7)
}
