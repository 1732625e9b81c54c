// internal/pipeline/domain.go
package pipeline

import "research-pipeline/internal/entity"

// SelectDomain picks the expansion domain the rest of the run commits
// to. An explicit override is honored verbatim; otherwise the
// highest-scoring candidate wins, with ties resolved in favor of the
// earliest occurrence.
func SelectDomain(candidates []entity.IndustryOpportunity, override string) (string, float64, bool) {
	if override != "" {
		score := 0.0
		for _, c := range candidates {
			if c.Domain == override {
				score = c.Score
				break
			}
		}
		return override, score, true
	}

	if len(candidates) == 0 {
		return "", 0, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.Domain, best.Score, true
}
