// internal/entity/entity.go
package entity

import "time"

// Impact and priority levels shared by MarketGap and Opportunity.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// Levels lists the accepted impact/priority values in rank order.
var Levels = []string{LevelHigh, LevelMedium, LevelLow}

// CompanyProfile is the stage 1 output: a structured profile of the
// company under research.
type CompanyProfile struct {
	Name         string   `json:"name"`
	Industry     string   `json:"industry"`
	Description  string   `json:"description"`
	Products     []string `json:"products"`
	Headquarters string   `json:"headquarters"`
	Sources      []string `json:"sources"`
}

// IndustryOpportunity is one ranked expansion domain produced by stage 2.
type IndustryOpportunity struct {
	Domain    string   `json:"domain"`
	Score     float64  `json:"score"`
	Rationale string   `json:"rationale"`
	Sources   []string `json:"sources"`
}

// MarketData summarizes market statistics for the selected domain.
type MarketData struct {
	MarketSizeUSD float64  `json:"market_size_usd"`
	CAGR          float64  `json:"CAGR"`
	KeyDrivers    []string `json:"key_drivers"`
	Sources       []string `json:"sources"`
}

// CompetitiveLandscapeEntry is one competitor mapped by stage 4.
type CompetitiveLandscapeEntry struct {
	Competitor  string   `json:"competitor"`
	Product     string   `json:"product"`
	MarketShare float64  `json:"market_share"`
	Note        string   `json:"note"`
	Sources     []string `json:"sources"`
}

// MarketGap is one unmet market need identified by stage 5. Impact is one
// of the Level constants.
type MarketGap struct {
	Gap      string   `json:"gap"`
	Impact   string   `json:"impact"`
	Evidence string   `json:"evidence"`
	Sources  []string `json:"sources"`
}

// Opportunity is one validated growth opportunity produced by stage 6.
// Priority is one of the Level constants.
type Opportunity struct {
	Title       string   `json:"title"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
	Sources     []string `json:"sources"`
}

// FinalReport is the stage 7 output. Placeholder is true when no
// production renderer was configured and the content is a locally
// synthesized summary.
type FinalReport struct {
	ReportTitle string    `json:"report_title"`
	GeneratedAt time.Time `json:"generated_at"`
	Content     string    `json:"content"`
	Placeholder bool      `json:"placeholder"`
}
