// internal/schema/contracts.go
package schema

import "research-pipeline/internal/stage"

// Contract identifies one data contract in the registry.
type Contract string

const (
	ContractCompany                  Contract = "Company"
	ContractIndustryOpportunityList  Contract = "IndustryOpportunityList"
	ContractMarketData               Contract = "MarketData"
	ContractCompetitiveLandscapeList Contract = "CompetitiveLandscapeList"
	ContractMarketGapList            Contract = "MarketGapList"
	ContractOpportunityList          Contract = "OpportunityList"
	ContractFinalReport              Contract = "FinalReport"

	// Input-side contracts, published for external request validators.
	ContractCompanyResearchRequest Contract = "CompanyResearchRequest"
	ContractMarketDataRequest      Contract = "MarketDataRequest"
	ContractGapAnalysisRequest     Contract = "GapAnalysisRequest"
	ContractOpportunityRequest     Contract = "OpportunityRequest"
	ContractReportRequest          Contract = "ReportRequest"
)

// listContracts validate sequences of records rather than a single record.
var listContracts = map[Contract]bool{
	ContractIndustryOpportunityList:  true,
	ContractCompetitiveLandscapeList: true,
	ContractMarketGapList:            true,
	ContractOpportunityList:          true,
}

var impactLevels = []interface{}{"high", "medium", "low"}

func sourcesProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}
}

// descriptors holds the JSON-Schema descriptor for every contract. Built
// once at process start, read-only afterwards.
func descriptors() map[Contract]map[string]interface{} {
	companyProperties := map[string]interface{}{
		"name":         map[string]interface{}{"type": "string", "minLength": 1},
		"industry":     map[string]interface{}{"type": "string", "minLength": 1},
		"description":  map[string]interface{}{"type": "string"},
		"products":     sourcesProperty(),
		"headquarters": map[string]interface{}{"type": "string"},
		"sources":      sourcesProperty(),
	}

	opportunityItem := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"domain":    map[string]interface{}{"type": "string", "minLength": 1},
			"score":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			"rationale": map[string]interface{}{"type": "string"},
			"sources":   sourcesProperty(),
		},
		"required": []interface{}{"domain", "score"},
	}

	competitorItem := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"competitor":   map[string]interface{}{"type": "string", "minLength": 1},
			"product":      map[string]interface{}{"type": "string"},
			"market_share": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			"note":         map[string]interface{}{"type": "string"},
			"sources":      sourcesProperty(),
		},
		"required": []interface{}{"competitor", "market_share"},
	}

	gapItem := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"gap":      map[string]interface{}{"type": "string", "minLength": 1},
			"impact":   map[string]interface{}{"type": "string", "enum": impactLevels},
			"evidence": map[string]interface{}{"type": "string"},
			"sources":  sourcesProperty(),
		},
		"required": []interface{}{"gap", "impact"},
	}

	growthItem := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title":       map[string]interface{}{"type": "string", "minLength": 1},
			"priority":    map[string]interface{}{"type": "string", "enum": impactLevels},
			"description": map[string]interface{}{"type": "string"},
			"sources":     sourcesProperty(),
		},
		"required": []interface{}{"title", "priority"},
	}

	marketDataProperties := map[string]interface{}{
		"market_size_usd": map[string]interface{}{"type": "number", "minimum": 0},
		"CAGR":            map[string]interface{}{"type": "number"},
		"key_drivers":     sourcesProperty(),
		"sources":         sourcesProperty(),
	}

	reportProperties := map[string]interface{}{
		"report_title": map[string]interface{}{"type": "string", "minLength": 1},
		"generated_at": map[string]interface{}{"type": "string"},
		"content":      map[string]interface{}{"type": "string"},
		"placeholder":  map[string]interface{}{"type": "boolean"},
	}

	return map[Contract]map[string]interface{}{
		ContractCompany: {
			"type":       "object",
			"properties": companyProperties,
			"required":   []interface{}{"name", "industry"},
		},
		ContractIndustryOpportunityList: {
			"type":  "array",
			"items": opportunityItem,
		},
		ContractMarketData: {
			"type":       "object",
			"properties": marketDataProperties,
			"required":   []interface{}{"market_size_usd"},
		},
		ContractCompetitiveLandscapeList: {
			"type":  "array",
			"items": competitorItem,
		},
		ContractMarketGapList: {
			"type":  "array",
			"items": gapItem,
		},
		ContractOpportunityList: {
			"type":  "array",
			"items": growthItem,
		},
		ContractFinalReport: {
			"type":       "object",
			"properties": reportProperties,
			"required":   []interface{}{"report_title"},
		},

		ContractCompanyResearchRequest: {
			"type": "object",
			"properties": map[string]interface{}{
				"company_name": map[string]interface{}{"type": "string", "minLength": 1},
			},
			"required": []interface{}{"company_name"},
		},
		ContractMarketDataRequest: {
			"type": "object",
			"properties": map[string]interface{}{
				"domain": map[string]interface{}{"type": "string", "minLength": 1},
			},
			"required": []interface{}{"domain"},
		},
		ContractGapAnalysisRequest: {
			"type": "object",
			"properties": map[string]interface{}{
				"company_profile": map[string]interface{}{"type": "object"},
				"competitor_list": map[string]interface{}{"type": "array"},
				"market_stats":    map[string]interface{}{"type": "object"},
			},
			"required": []interface{}{"company_profile", "competitor_list", "market_stats"},
		},
		ContractOpportunityRequest: {
			"type": "object",
			"properties": map[string]interface{}{
				"market_gaps": map[string]interface{}{"type": "array"},
			},
			"required": []interface{}{"market_gaps"},
		},
		ContractReportRequest: {
			"type": "object",
			"properties": map[string]interface{}{
				"company_profile":      map[string]interface{}{"type": "object"},
				"opportunities":        map[string]interface{}{"type": "array"},
				"domain":               map[string]interface{}{"type": "string"},
				"market_stats":         map[string]interface{}{"type": "object"},
				"competitor_list":      map[string]interface{}{"type": "array"},
				"market_gaps":          map[string]interface{}{"type": "array"},
				"growth_opportunities": map[string]interface{}{"type": "array"},
			},
			"required": []interface{}{"company_profile"},
		},
	}
}

// stageInputContracts maps each stage to the contract its input must
// satisfy, for schema publication.
var stageInputContracts = map[stage.Name]Contract{
	stage.CompanyResearch:      ContractCompanyResearchRequest,
	stage.IndustryAnalysis:     ContractCompany,
	stage.MarketData:           ContractMarketDataRequest,
	stage.CompetitiveLandscape: ContractMarketDataRequest,
	stage.GapAnalysis:          ContractGapAnalysisRequest,
	stage.OpportunityAnalysis:  ContractOpportunityRequest,
	stage.ReportSynthesis:      ContractReportRequest,
}

// stageOutputContracts maps each stage to the contract its output is
// gated on before it may be forwarded downstream.
var stageOutputContracts = map[stage.Name]Contract{
	stage.CompanyResearch:      ContractCompany,
	stage.IndustryAnalysis:     ContractIndustryOpportunityList,
	stage.MarketData:           ContractMarketData,
	stage.CompetitiveLandscape: ContractCompetitiveLandscapeList,
	stage.GapAnalysis:          ContractMarketGapList,
	stage.OpportunityAnalysis:  ContractOpportunityList,
	stage.ReportSynthesis:      ContractFinalReport,
}
