// internal/stages/gapanalysis/models.go
package gapanalysis

import "research-pipeline/internal/entity"

// Request is the payload sent to the gap analysis backend. It carries
// the three upstream artifacts the gap agent cross-references.
type Request struct {
	CompanyProfile *entity.CompanyProfile             `json:"company_profile"`
	CompetitorList []entity.CompetitiveLandscapeEntry `json:"competitor_list"`
	MarketStats    *entity.MarketData                 `json:"market_stats"`
}
