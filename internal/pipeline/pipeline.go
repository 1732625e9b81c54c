// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"research-pipeline/internal/common/errors"
	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/common/metrics"
	"research-pipeline/internal/common/observability"
	"research-pipeline/internal/entity"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
)

// StageRecord captures one completed stage in a run's trail: the raw
// adapter result plus the schema-validated output derived from it.
type StageRecord struct {
	Stage   stage.Name    `json:"stage"`
	Result  stage.Result  `json:"result"`
	Output  interface{}   `json:"output,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// RunResult is the full outcome of one pipeline run. On failure,
// FailedStage and Err identify where and why the run stopped; Trail
// holds every stage that completed before the stop.
type RunResult struct {
	RunID       string              `json:"run_id"`
	CompanyName string              `json:"company_name"`
	Domain      string              `json:"domain,omitempty"`
	DomainScore float64             `json:"domain_score,omitempty"`
	Completed   bool                `json:"completed"`
	FailedStage stage.Name          `json:"failed_stage,omitempty"`
	Err         *errors.StageError  `json:"error,omitempty"`
	Report      *entity.FinalReport `json:"report,omitempty"`
	Trail       []StageRecord       `json:"trail"`
	StartedAt   time.Time           `json:"started_at"`
	FinishedAt  time.Time           `json:"finished_at"`
}

// Orchestrator drives the seven analysis stages in order, gating each
// hand-off on schema validation and stopping the run at the first fault.
type Orchestrator struct {
	registry *schema.Registry
	adapters map[stage.Name]stage.Adapter
	logger   logger.Logger
	obs      *observability.Observability
	now      func() time.Time
}

func New(registry *schema.Registry, adapters []stage.Adapter, log logger.Logger) (*Orchestrator, error) {
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
	return &Orchestrator{
		registry: registry,
		adapters: byName,
		logger:   log.With(map[string]interface{}{"component": "orchestrator"}),
		now:      time.Now,
	}, nil
}

// WithObservability attaches run-level OpenTelemetry recording.
func (o *Orchestrator) WithObservability(obs *observability.Observability) *Orchestrator {
	o.obs = obs
	return o
}

// WithClock overrides the timestamp source. Used in tests.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes a full research run for the named company. domainOverride,
// when non-empty, skips automatic domain selection after stage 2.
func (o *Orchestrator) Run(ctx context.Context, companyName, domainOverride string) *RunResult {
	res := &RunResult{
		RunID:       uuid.NewString(),
		CompanyName: companyName,
		StartedAt:   o.now(),
	}
	log := o.logger.With(map[string]interface{}{
		"runId":   res.RunID,
		"company": companyName,
	})
	log.Info("run started", map[string]interface{}{"domainOverride": domainOverride})

	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()
	defer func() {
		res.FinishedAt = o.now()
		outcome := "completed"
		switch {
		case res.Completed:
		case res.Err != nil && res.Err.Code == errors.ErrCodeRunAborted:
			outcome = "aborted"
		default:
			outcome = "failed"
		}
		metrics.RunsTotal.WithLabelValues(outcome).Inc()
		if o.obs != nil {
			o.obs.RecordRun(ctx, outcome, res.FinishedAt.Sub(res.StartedAt))
		}
	}()

	in := stage.Input{CompanyName: companyName}

	// Stage 1: company research.
	profile, serr := runStage[entity.CompanyProfile](o, ctx, log, res, stage.CompanyResearch, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Profile = &profile

	// Stage 2: industry analysis and domain selection.
	candidates, serr := runStage[[]entity.IndustryOpportunity](o, ctx, log, res, stage.IndustryAnalysis, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Opportunities = candidates

	domain, score, ok := SelectDomain(candidates, domainOverride)
	if !ok {
		return o.fail(log, res, errors.NewNoDomainsFoundError(string(stage.IndustryAnalysis)))
	}
	res.Domain = domain
	res.DomainScore = score
	in.Domain = domain
	in.DomainScore = score
	log.Info("domain selected", map[string]interface{}{
		"domain":   domain,
		"score":    score,
		"override": domainOverride != "",
	})

	// Stage 3: market data.
	market, serr := runStage[entity.MarketData](o, ctx, log, res, stage.MarketData, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Market = &market

	// Stage 4: competitive landscape.
	competitors, serr := runStage[[]entity.CompetitiveLandscapeEntry](o, ctx, log, res, stage.CompetitiveLandscape, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Competitors = competitors

	// Stage 5: gap analysis.
	gaps, serr := runStage[[]entity.MarketGap](o, ctx, log, res, stage.GapAnalysis, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Gaps = gaps

	// Stage 6: opportunity ranking.
	growth, serr := runStage[[]entity.Opportunity](o, ctx, log, res, stage.OpportunityAnalysis, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	in.Growth = growth

	// Stage 7: report synthesis.
	report, serr := runStage[entity.FinalReport](o, ctx, log, res, stage.ReportSynthesis, in)
	if serr != nil {
		return o.fail(log, res, serr)
	}
	res.Report = &report

	res.Completed = true
	log.Info("run completed", map[string]interface{}{
		"domain": res.Domain,
		"stages": len(res.Trail),
	})
	return res
}

func (o *Orchestrator) fail(log logger.Logger, res *RunResult, serr *errors.StageError) *RunResult {
	res.Completed = false
	res.FailedStage = stage.Name(serr.Stage)
	res.Err = serr
	log.Error("run failed", map[string]interface{}{
		"stage":    serr.Stage,
		"code":     string(serr.Code),
		"category": errors.Category(serr.Code),
		"details":  serr.Details,
	})
	return res
}

// runStage executes one adapter, validates its output against the
// stage's contract, and appends the record to the trail. The T parameter
// is the entity type the contract decodes into.
func runStage[T any](o *Orchestrator, ctx context.Context, log logger.Logger, res *RunResult, name stage.Name, in stage.Input) (T, *errors.StageError) {
	var zero T

	// Cancellation is honored at stage boundaries only; a stage that has
	// started runs to its own timeout.
	if ctx.Err() != nil {
		return zero, errors.NewRunAbortedError(string(name))
	}

	adapter := o.adapters[name]
	started := o.now()

	result := func() (r stage.Result) {
		defer func() {
			if p := recover(); p != nil {
				r = stage.Fail("UNEXPECTED_FAULT: %v", p)
			}
		}()
		return adapter.Execute(ctx, in)
	}()

	elapsed := o.now().Sub(started)
	metrics.StageDuration.WithLabelValues(string(name)).Observe(elapsed.Seconds())

	record := StageRecord{Stage: name, Result: result, Elapsed: elapsed}

	if !result.Success {
		serr := ClassifyFailure(name, result.Error)
		metrics.StagesFailed.WithLabelValues(string(name), string(serr.Code)).Inc()
		res.Trail = append(res.Trail, record)
		return zero, serr
	}

	contract, ok := schema.OutputContract(name)
	if !ok {
		serr := errors.NewUnexpectedFaultError(string(name), "no output contract registered")
		metrics.StagesFailed.WithLabelValues(string(name), string(serr.Code)).Inc()
		res.Trail = append(res.Trail, record)
		return zero, serr
	}

	validated, failure := o.registry.Validate(contract, result.Data)
	if failure != nil {
		serr := errors.NewValidationError(string(name), failure.Fields(), failure.Error())
		metrics.StagesFailed.WithLabelValues(string(name), string(serr.Code)).Inc()
		res.Trail = append(res.Trail, record)
		return zero, serr
	}

	typed, ok := validated.(T)
	if !ok {
		serr := errors.NewMalformedResponseError(string(name), fmt.Sprintf("contract %s decoded to unexpected type %T", contract, validated))
		metrics.StagesFailed.WithLabelValues(string(name), string(serr.Code)).Inc()
		res.Trail = append(res.Trail, record)
		return zero, serr
	}

	record.Output = typed
	res.Trail = append(res.Trail, record)
	metrics.StagesCompleted.WithLabelValues(string(name)).Inc()
	log.Info("stage completed", map[string]interface{}{
		"stage":   string(name),
		"elapsed": elapsed.String(),
	})
	return typed, nil
}

// ClassifyFailure maps an adapter's failure message onto the error
// taxonomy. Adapters surface timeouts with a BACKEND_TIMEOUT marker and
// panics with an UNEXPECTED_FAULT marker; everything else is a plain
// adapter failure. The interactive runner shares this classification so
// both execution paths report identical codes.
func ClassifyFailure(name stage.Name, message string) *errors.StageError {
	switch {
	case strings.Contains(message, string(errors.ErrCodeBackendTimeout)):
		return errors.NewBackendTimeoutError(string(name))
	case strings.Contains(message, string(errors.ErrCodeUnexpectedFault)) || strings.Contains(message, "panicked"):
		return errors.NewUnexpectedFaultError(string(name), message)
	default:
		return errors.NewAdapterError(string(name), message)
	}
}
