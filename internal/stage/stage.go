// internal/stage/stage.go
package stage

import (
	"context"

	"research-pipeline/internal/entity"
)

// Name identifies one analysis stage in the research pipeline.
type Name string

const (
	CompanyResearch      Name = "CompanyResearch"
	IndustryAnalysis     Name = "IndustryAnalysis"
	MarketData           Name = "MarketData"
	CompetitiveLandscape Name = "CompetitiveLandscape"
	GapAnalysis          Name = "GapAnalysis"
	OpportunityAnalysis  Name = "OpportunityAnalysis"
	ReportSynthesis      Name = "ReportSynthesis"
)

// Order is the fixed execution order of the pipeline. Domain selection
// happens between IndustryAnalysis and MarketData.
var Order = []Name{
	CompanyResearch,
	IndustryAnalysis,
	MarketData,
	CompetitiveLandscape,
	GapAnalysis,
	OpportunityAnalysis,
	ReportSynthesis,
}

// Index returns the position of the stage in Order, or -1 if unknown.
func (n Name) Index() int {
	for i, s := range Order {
		if s == n {
			return i
		}
	}
	return -1
}

func (n Name) String() string { return string(n) }

// Input carries everything an adapter may need. Each field is populated
// only once its producing stage has passed validation; adapters read the
// fields relevant to them and ignore the rest.
type Input struct {
	CompanyName   string                             `json:"company_name,omitempty"`
	Domain        string                             `json:"domain,omitempty"`
	DomainScore   float64                            `json:"domain_score,omitempty"`
	Profile       *entity.CompanyProfile             `json:"company_profile,omitempty"`
	Opportunities []entity.IndustryOpportunity       `json:"opportunities,omitempty"`
	Market        *entity.MarketData                 `json:"market_stats,omitempty"`
	Competitors   []entity.CompetitiveLandscapeEntry `json:"competitor_list,omitempty"`
	Gaps          []entity.MarketGap                 `json:"market_gaps,omitempty"`
	Growth        []entity.Opportunity               `json:"growth_opportunities,omitempty"`
}

// Adapter is the uniform call contract for one analysis capability.
// Execute never panics and never returns a Go error: every underlying
// fault is captured into the Result.
type Adapter interface {
	Name() Name
	Execute(ctx context.Context, in Input) Result
}
