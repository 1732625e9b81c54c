// internal/pipeline/domain_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-pipeline/internal/entity"
)

func TestSelectDomain(t *testing.T) {
	candidates := []entity.IndustryOpportunity{
		{Domain: "A", Score: 0.5},
		{Domain: "B", Score: 0.7},
		{Domain: "C", Score: 0.7},
	}

	tests := []struct {
		name       string
		candidates []entity.IndustryOpportunity
		override   string
		wantDomain string
		wantScore  float64
		wantOK     bool
	}{
		{"highest score wins", candidates, "", "B", 0.7, true},
		{"tie keeps first occurrence", candidates, "", "B", 0.7, true},
		{"override is verbatim", candidates, "A", "A", 0.5, true},
		{"override outside candidates", candidates, "Z", "Z", 0, true},
		{"empty list", nil, "", "", 0, false},
		{"empty list with override", nil, "Z", "Z", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, score, ok := SelectDomain(tt.candidates, tt.override)
			require.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantDomain, domain)
			assert.Equal(t, tt.wantScore, score)
		})
	}
}

func TestSelectDomain_SingleCandidate(t *testing.T) {
	domain, score, ok := SelectDomain([]entity.IndustryOpportunity{{Domain: "solo", Score: 0.1}}, "")
	require.True(t, ok)
	assert.Equal(t, "solo", domain)
	assert.Equal(t, 0.1, score)
}
