// internal/stages/reportsynthesis/models.go
package reportsynthesis

import "research-pipeline/internal/entity"

// Request is the payload sent to an external report renderer. It bundles
// the full validated trail of the run.
type Request struct {
	CompanyProfile *entity.CompanyProfile             `json:"company_profile"`
	Domain         string                             `json:"domain"`
	MarketStats    *entity.MarketData                 `json:"market_stats"`
	CompetitorList []entity.CompetitiveLandscapeEntry `json:"competitor_list"`
	MarketGaps     []entity.MarketGap                 `json:"market_gaps"`
	Opportunities  []entity.Opportunity               `json:"growth_opportunities"`
	Author         string                             `json:"author,omitempty"`
}
