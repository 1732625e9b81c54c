// internal/runner/runner.go

// Package runner drives stages one at a time for interactive sessions.
// Unlike the orchestrator it keeps every stage output addressable, lets
// the operator re-run or override individual stages, and resolves each
// stage's input from whatever upstream outputs currently exist.
package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"research-pipeline/internal/common/errors"
	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/entity"
	"research-pipeline/internal/pipeline"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
	"research-pipeline/internal/store"
)

// Tab identifies which facet of the current stage a session is looking
// at.
type Tab int

const (
	TabInput Tab = iota
	TabOutput
	TabDescription
	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabInput:
		return "Input"
	case TabOutput:
		return "Output"
	default:
		return "Description"
	}
}

// Runner holds the state of one interactive session.
type Runner struct {
	registry *schema.Registry
	adapters map[stage.Name]stage.Adapter
	logger   logger.Logger
	cache    *store.StageCache

	runID       string
	companyName string
	cursor      int
	tab         Tab

	domain       string
	domainScore  float64
	domainPicked bool

	results map[stage.Name]stage.Result
	outputs map[stage.Name]interface{}
	manual  map[stage.Name]stage.Input
}

func New(registry *schema.Registry, adapters []stage.Adapter, log logger.Logger) (*Runner, error) {
	byName := make(map[stage.Name]stage.Adapter, len(adapters))
	for _, a := range adapters {
		if _, dup := byName[a.Name()]; dup {
			return nil, fmt.Errorf("duplicate adapter for stage %s", a.Name())
		}
		byName[a.Name()] = a
	}
	for _, name := range stage.Order {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("no adapter registered for stage %s", name)
		}
	}
	return &Runner{
		registry: registry,
		adapters: byName,
		logger:   log.With(map[string]interface{}{"component": "runner"}),
		runID:    uuid.NewString(),
		results:  make(map[stage.Name]stage.Result),
		outputs:  make(map[stage.Name]interface{}),
		manual:   make(map[stage.Name]stage.Input),
	}, nil
}

// WithCache attaches a stage-output cache so session state survives the
// process.
func (r *Runner) WithCache(cache *store.StageCache) *Runner {
	r.cache = cache
	return r
}

func (r *Runner) RunID() string { return r.runID }

// SetCompany names the company the session researches.
func (r *Runner) SetCompany(name string) {
	r.companyName = name
}

func (r *Runner) Company() string { return r.companyName }

// Current returns the stage the cursor points at.
func (r *Runner) Current() stage.Name {
	return stage.Order[r.cursor]
}

// Advance moves the cursor one stage forward, stopping at the last stage.
func (r *Runner) Advance() stage.Name {
	if r.cursor < len(stage.Order)-1 {
		r.cursor++
	}
	return r.Current()
}

// Retreat moves the cursor one stage back, stopping at the first stage.
func (r *Runner) Retreat() stage.Name {
	if r.cursor > 0 {
		r.cursor--
	}
	return r.Current()
}

// Select jumps the cursor to the named stage.
func (r *Runner) Select(name stage.Name) {
	if idx := name.Index(); idx >= 0 {
		r.cursor = idx
	}
}

// CurrentTab returns the facet the session is looking at.
func (r *Runner) CurrentTab() Tab {
	return r.tab
}

// SwitchTab cycles the active tab by delta, wrapping in both directions.
func (r *Runner) SwitchTab(delta int) Tab {
	n := int(tabCount)
	r.tab = Tab(((int(r.tab)+delta)%n + n) % n)
	return r.tab
}

// SetManualInput pins an operator-supplied input for one stage. It takes
// precedence over inputs resolved from upstream outputs.
func (r *Runner) SetManualInput(name stage.Name, in stage.Input) {
	r.manual[name] = in
}

// ClearManualInput removes a pinned input.
func (r *Runner) ClearManualInput(name stage.Name) {
	delete(r.manual, name)
}

// Output returns the validated output of a stage, if it has one.
func (r *Runner) Output(name stage.Name) (interface{}, bool) {
	v, ok := r.outputs[name]
	return v, ok
}

// ResultFor returns the raw result of the stage's last execution.
func (r *Runner) ResultFor(name stage.Name) (stage.Result, bool) {
	v, ok := r.results[name]
	return v, ok
}

// Domain returns the selected domain, when one has been picked.
func (r *Runner) Domain() (string, float64, bool) {
	return r.domain, r.domainScore, r.domainPicked
}

// PickDomain commits the session to an expansion domain. Without an
// override the highest-scoring candidate from the industry analysis
// output wins.
func (r *Runner) PickDomain(override string) *errors.StageError {
	candidates, _ := r.outputs[stage.IndustryAnalysis].([]entity.IndustryOpportunity)
	if candidates == nil && override == "" {
		return errors.NewMissingUpstreamDataError(string(stage.MarketData), string(stage.IndustryAnalysis))
	}

	domain, score, ok := pipeline.SelectDomain(candidates, override)
	if !ok {
		return errors.NewNoDomainsFoundError(string(stage.IndustryAnalysis))
	}

	r.domain = domain
	r.domainScore = score
	r.domainPicked = true
	r.logger.Info("domain picked", map[string]interface{}{
		"runId":  r.runID,
		"domain": domain,
		"score":  score,
	})
	return nil
}

// RunStage executes one stage using its resolved input, gates the output
// on the stage's schema contract, and records both.
func (r *Runner) RunStage(ctx context.Context, name stage.Name) (stage.Result, *errors.StageError) {
	adapter, ok := r.adapters[name]
	if !ok {
		return stage.Result{}, errors.NewUnexpectedFaultError(string(name), "unknown stage")
	}

	in, serr := r.resolveInput(name)
	if serr != nil {
		return stage.Result{}, serr
	}

	result := adapter.Execute(ctx, in)
	r.results[name] = result
	if r.cache != nil {
		if err := r.cache.Put(ctx, r.runID, name, result); err != nil {
			r.logger.Warn("stage result not cached", map[string]interface{}{
				"runId": r.runID,
				"stage": string(name),
				"error": err.Error(),
			})
		}
	}

	if !result.Success {
		return result, pipeline.ClassifyFailure(name, result.Error)
	}

	contract, ok := schema.OutputContract(name)
	if !ok {
		return result, errors.NewUnexpectedFaultError(string(name), "no output contract registered")
	}
	validated, failure := r.registry.Validate(contract, result.Data)
	if failure != nil {
		return result, errors.NewValidationError(string(name), failure.Fields(), failure.Error())
	}

	// Invalidate downstream state: outputs derived from the previous
	// value of this stage are stale now.
	for _, downstream := range stage.Order[name.Index()+1:] {
		delete(r.outputs, downstream)
		delete(r.results, downstream)
	}
	if name.Index() <= stage.IndustryAnalysis.Index() {
		r.domainPicked = false
	}

	r.outputs[name] = validated
	return result, nil
}

// RunChain executes stages in order starting at the cursor, stopping at
// the first failure. It returns the last stage attempted.
func (r *Runner) RunChain(ctx context.Context) (stage.Name, *errors.StageError) {
	for idx := r.cursor; idx < len(stage.Order); idx++ {
		name := stage.Order[idx]
		r.cursor = idx
		if _, serr := r.RunStage(ctx, name); serr != nil {
			return name, serr
		}
		if name == stage.IndustryAnalysis && !r.domainPicked {
			if serr := r.PickDomain(""); serr != nil {
				return name, serr
			}
		}
	}
	return stage.Order[len(stage.Order)-1], nil
}

// Reset discards all session state and starts a fresh run.
func (r *Runner) Reset(ctx context.Context) {
	if r.cache != nil {
		if err := r.cache.Clear(ctx, r.runID); err != nil {
			r.logger.Warn("stage cache not cleared", map[string]interface{}{
				"runId": r.runID,
				"error": err.Error(),
			})
		}
	}
	r.runID = uuid.NewString()
	r.cursor = 0
	r.domain = ""
	r.domainScore = 0
	r.domainPicked = false
	r.results = make(map[stage.Name]stage.Result)
	r.outputs = make(map[stage.Name]interface{})
	r.manual = make(map[stage.Name]stage.Input)
}

// resolveInput assembles a stage's input: a pinned manual input wins,
// otherwise the input is derived from validated upstream outputs. A
// stage whose upstream data is absent requires manual input.
func (r *Runner) resolveInput(name stage.Name) (stage.Input, *errors.StageError) {
	if in, ok := r.manual[name]; ok {
		return in, nil
	}

	in := stage.Input{CompanyName: r.companyName}

	if profile, ok := r.outputs[stage.CompanyResearch].(entity.CompanyProfile); ok {
		in.Profile = &profile
	}
	if candidates, ok := r.outputs[stage.IndustryAnalysis].([]entity.IndustryOpportunity); ok {
		in.Opportunities = candidates
	}
	if market, ok := r.outputs[stage.MarketData].(entity.MarketData); ok {
		in.Market = &market
	}
	if competitors, ok := r.outputs[stage.CompetitiveLandscape].([]entity.CompetitiveLandscapeEntry); ok {
		in.Competitors = competitors
	}
	if gaps, ok := r.outputs[stage.GapAnalysis].([]entity.MarketGap); ok {
		in.Gaps = gaps
	}
	if growth, ok := r.outputs[stage.OpportunityAnalysis].([]entity.Opportunity); ok {
		in.Growth = growth
	}
	if r.domainPicked {
		in.Domain = r.domain
		in.DomainScore = r.domainScore
	}

	missing := func(needs string) (stage.Input, *errors.StageError) {
		return stage.Input{}, errors.NewMissingUpstreamDataError(string(name), needs)
	}

	switch name {
	case stage.CompanyResearch:
		if in.CompanyName == "" {
			return missing("company_name")
		}
	case stage.IndustryAnalysis:
		if in.Profile == nil {
			return missing(string(stage.CompanyResearch))
		}
	case stage.MarketData, stage.CompetitiveLandscape:
		if !r.domainPicked {
			return missing("domain selection")
		}
	case stage.GapAnalysis:
		if in.Profile == nil {
			return missing(string(stage.CompanyResearch))
		}
		if in.Competitors == nil {
			return missing(string(stage.CompetitiveLandscape))
		}
		if in.Market == nil {
			return missing(string(stage.MarketData))
		}
	case stage.OpportunityAnalysis:
		if in.Gaps == nil {
			return missing(string(stage.GapAnalysis))
		}
	case stage.ReportSynthesis:
		if in.Profile == nil {
			return missing(string(stage.CompanyResearch))
		}
	}
	return in, nil
}
