// pkg/catalog/catalog.go

// Package catalog describes the analysis stages in machine-readable
// form: display metadata, the contract each stage's input and output
// must satisfy, and the error codes it may surface. Tooling consumes
// this to publish schemas without importing the pipeline internals.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
)

type Entry struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Position     int                    `json:"position"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema"`
	ErrorCodes   []string               `json:"errorCodes"`
}

type Catalog struct {
	Version string  `json:"version"`
	Stages  []Entry `json:"stages"`
}

var displayNames = map[stage.Name]string{
	stage.CompanyResearch:      "Company Research",
	stage.IndustryAnalysis:     "Industry Analysis",
	stage.MarketData:           "Market Data",
	stage.CompetitiveLandscape: "Competitive Landscape",
	stage.GapAnalysis:          "Gap Analysis",
	stage.OpportunityAnalysis:  "Opportunity Analysis",
	stage.ReportSynthesis:      "Report Synthesis",
}

var descriptions = map[stage.Name]string{
	stage.CompanyResearch:      "Builds a structured profile of the company under research.",
	stage.IndustryAnalysis:     "Scores candidate expansion domains for the profiled company.",
	stage.MarketData:           "Collects market size, growth rate, and key drivers for the selected domain.",
	stage.CompetitiveLandscape: "Surveys competitors active in the selected domain.",
	stage.GapAnalysis:          "Cross-references profile, competitors, and market figures to surface unmet needs.",
	stage.OpportunityAnalysis:  "Ranks identified gaps into prioritized growth opportunities.",
	stage.ReportSynthesis:      "Assembles the validated trail into a final report.",
}

var errorCodes = map[stage.Name][]string{
	stage.CompanyResearch:      {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED"},
	stage.IndustryAnalysis:     {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "NO_DOMAINS_FOUND"},
	stage.MarketData:           {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "MISSING_UPSTREAM_DATA"},
	stage.CompetitiveLandscape: {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "MISSING_UPSTREAM_DATA"},
	stage.GapAnalysis:          {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "MISSING_UPSTREAM_DATA"},
	stage.OpportunityAnalysis:  {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "MISSING_UPSTREAM_DATA"},
	stage.ReportSynthesis:      {"ADAPTER_FAILED", "BACKEND_TIMEOUT", "MALFORMED_RESPONSE", "SCHEMA_VALIDATION_FAILED", "MISSING_UPSTREAM_DATA"},
}

// Build assembles the catalog from the live schema registry so published
// schemas can never drift from the ones the validation gates enforce.
func Build(version string, registry *schema.Registry) (*Catalog, error) {
	c := &Catalog{Version: version}
	for i, name := range stage.Order {
		input, err := registry.InputSchema(name)
		if err != nil {
			return nil, fmt.Errorf("input schema for %s: %w", name, err)
		}
		output, err := registry.OutputSchema(name)
		if err != nil {
			return nil, fmt.Errorf("output schema for %s: %w", name, err)
		}
		c.Stages = append(c.Stages, Entry{
			ID:           string(name),
			DisplayName:  displayNames[name],
			Description:  descriptions[name],
			Position:     i + 1,
			InputSchema:  input,
			OutputSchema: output,
			ErrorCodes:   errorCodes[name],
		})
	}
	return c, nil
}

// Lookup returns the entry for one stage.
func (c *Catalog) Lookup(name stage.Name) (Entry, bool) {
	for _, e := range c.Stages {
		if e.ID == string(name) {
			return e, true
		}
	}
	return Entry{}, false
}

// WriteFile serializes the catalog as indented JSON.
func (c *Catalog) WriteFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads a previously written catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
