// Package schema is the registry of data contracts exchanged between
// pipeline stages. Contracts are compiled once at construction and the
// registry is read-only afterwards, so a single instance may be shared by
// any number of concurrent pipeline runs.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"research-pipeline/internal/entity"
	"research-pipeline/internal/stage"
)

// Violation describes one violated field of a contract.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Failure enumerates every violation found during one validation, not
// just the first, so callers can report complete diagnostics.
type Failure struct {
	Contract   Contract    `json:"contract"`
	Violations []Violation `json:"violations"`
}

func (f *Failure) Error() string {
	msgs := make([]string, len(f.Violations))
	for i, v := range f.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return fmt.Sprintf("contract %s violated: %s", f.Contract, strings.Join(msgs, "; "))
}

// Fields returns the violated field paths.
func (f *Failure) Fields() []string {
	fields := make([]string, len(f.Violations))
	for i, v := range f.Violations {
		fields[i] = v.Field
	}
	return fields
}

// Registry holds the compiled contract definitions.
type Registry struct {
	compiled map[Contract]*gojsonschema.Schema
	raw      map[Contract]map[string]interface{}
}

// NewRegistry compiles every contract descriptor. The resulting registry
// performs no further mutation and is safe for concurrent use.
func NewRegistry() (*Registry, error) {
	raw := descriptors()
	compiled := make(map[Contract]*gojsonschema.Schema, len(raw))
	for contract, descriptor := range raw {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(descriptor))
		if err != nil {
			return nil, fmt.Errorf("compile contract %s: %w", contract, err)
		}
		compiled[contract] = s
	}
	return &Registry{compiled: compiled, raw: raw}, nil
}

// MustNewRegistry is NewRegistry for process boot paths where a broken
// descriptor is a programming error.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Validate checks raw against the named contract. On success it returns
// the normalized, strongly-typed entity with extraneous fields dropped; on
// failure it returns a Failure enumerating every violated field.
func (r *Registry) Validate(contract Contract, raw interface{}) (interface{}, *Failure) {
	compiled, ok := r.compiled[contract]
	if !ok {
		return nil, &Failure{Contract: contract, Violations: []Violation{{
			Field:   "(root)",
			Message: fmt.Sprintf("unknown contract %q", contract),
			Code:    "UNKNOWN_CONTRACT",
		}}}
	}

	doc, err := toDocument(raw)
	if err != nil {
		return nil, &Failure{Contract: contract, Violations: []Violation{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "INVALID_DOCUMENT",
		}}}
	}

	if fail := checkShape(contract, doc); fail != nil {
		return nil, fail
	}
	doc = normalizeLevels(doc)

	result, err := compiled.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, &Failure{Contract: contract, Violations: []Violation{{
			Field:   "(root)",
			Message: err.Error(),
			Code:    "VALIDATION_ERROR",
		}}}
	}
	if !result.Valid() {
		fail := &Failure{Contract: contract}
		for _, desc := range result.Errors() {
			fail.Violations = append(fail.Violations, toViolation(desc))
		}
		return nil, fail
	}

	normalized, err := r.decode(contract, doc)
	if err != nil {
		return nil, &Failure{Contract: contract, Violations: []Violation{{
			Field:   "(root)",
			Message: fmt.Sprintf("normalize: %v", err),
			Code:    "DECODE_ERROR",
		}}}
	}
	return normalized, nil
}

// Descriptor returns a deep copy of the JSON-Schema descriptor for the
// contract, for publication to external callers.
func (r *Registry) Descriptor(contract Contract) (map[string]interface{}, error) {
	descriptor, ok := r.raw[contract]
	if !ok {
		return nil, fmt.Errorf("unknown contract %q", contract)
	}
	data, err := json.Marshal(descriptor)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InputSchema returns the descriptor the stage's input must satisfy.
func (r *Registry) InputSchema(name stage.Name) (map[string]interface{}, error) {
	contract, ok := stageInputContracts[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", name)
	}
	return r.Descriptor(contract)
}

// OutputSchema returns the descriptor the stage's output is gated on.
func (r *Registry) OutputSchema(name stage.Name) (map[string]interface{}, error) {
	contract, ok := stageOutputContracts[name]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", name)
	}
	return r.Descriptor(contract)
}

// OutputContract maps a stage to its gating contract.
func OutputContract(name stage.Name) (Contract, bool) {
	c, ok := stageOutputContracts[name]
	return c, ok
}

// toDocument turns any raw value (decoded JSON or a typed entity) into a
// plain JSON document tree.
func toDocument(raw interface{}) (interface{}, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON-representable: %v", err)
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkShape enforces the record / sequence-of-records constraint before
// schema evaluation, so shape errors read clearly.
func checkShape(contract Contract, doc interface{}) *Failure {
	if listContracts[contract] {
		seq, ok := doc.([]interface{})
		if !ok {
			return &Failure{Contract: contract, Violations: []Violation{{
				Field:   "(root)",
				Message: "contract expects a sequence of records",
				Code:    "INVALID_SHAPE",
			}}}
		}
		for i, item := range seq {
			if _, ok := item.(map[string]interface{}); !ok {
				return &Failure{Contract: contract, Violations: []Violation{{
					Field:   fmt.Sprintf("%d", i),
					Message: "sequence item is not a record",
					Code:    "INVALID_SHAPE",
				}}}
			}
		}
		return nil
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return &Failure{Contract: contract, Violations: []Violation{{
			Field:   "(root)",
			Message: "contract expects a record",
			Code:    "INVALID_SHAPE",
		}}}
	}
	return nil
}

// normalizeLevels lowercases impact/priority values so the enum check is
// case-insensitive; the upstream services report them capitalized.
func normalizeLevels(doc interface{}) interface{} {
	switch v := doc.(type) {
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeLevels(item)
		}
	case map[string]interface{}:
		for _, key := range []string{"impact", "priority"} {
			if s, ok := v[key].(string); ok {
				v[key] = strings.ToLower(s)
			}
		}
	}
	return doc
}

func toViolation(desc gojsonschema.ResultError) Violation {
	field := desc.Field()
	if desc.Type() == "required" {
		if prop, ok := desc.Details()["property"].(string); ok {
			if field == "(root)" || field == "" {
				field = prop
			} else {
				field = field + "." + prop
			}
		}
	}
	return Violation{
		Field:   field,
		Message: desc.Description(),
		Code:    strings.ToUpper(desc.Type()),
	}
}

// decode maps a schema-valid document into its strongly-typed entity.
// Extraneous fields are dropped here; entity-level normalization (source
// de-duplication) is applied where the contract mandates it.
func (r *Registry) decode(contract Contract, doc interface{}) (interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	switch contract {
	case ContractCompany:
		var v entity.CompanyProfile
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		v.Sources = dedupe(v.Sources)
		return v, nil
	case ContractIndustryOpportunityList:
		var v []entity.IndustryOpportunity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContractMarketData:
		var v entity.MarketData
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContractCompetitiveLandscapeList:
		var v []entity.CompetitiveLandscapeEntry
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContractMarketGapList:
		var v []entity.MarketGap
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContractOpportunityList:
		var v []entity.Opportunity
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ContractFinalReport:
		var v entity.FinalReport
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		// Request-side contracts are published but not normalized into
		// entities; return the cleaned document.
		var v map[string]interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
