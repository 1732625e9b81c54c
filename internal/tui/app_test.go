// internal/tui/app_test.go
package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/runner"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/stage"
	"research-pipeline/pkg/catalog"
)

type fakeAdapter struct {
	name stage.Name
	fn   func(stage.Input) stage.Result
}

func (f *fakeAdapter) Name() stage.Name { return f.name }

func (f *fakeAdapter) Execute(_ context.Context, in stage.Input) stage.Result {
	return f.fn(in)
}

func stagePayloads() map[stage.Name]interface{} {
	return map[stage.Name]interface{}{
		stage.CompanyResearch: map[string]interface{}{"name": "Acme Robotics", "industry": "robotics"},
		stage.IndustryAnalysis: []interface{}{
			map[string]interface{}{"domain": "warehouse automation", "score": 0.9},
			map[string]interface{}{"domain": "agritech", "score": 0.5},
		},
		stage.MarketData: map[string]interface{}{"market_size_usd": 4.2e9},
		stage.CompetitiveLandscape: []interface{}{
			map[string]interface{}{"competitor": "RoboCorp", "market_share": 0.3},
		},
		stage.GapAnalysis: []interface{}{
			map[string]interface{}{"gap": "no SMB offering", "impact": "high"},
		},
		stage.OpportunityAnalysis: []interface{}{
			map[string]interface{}{"title": "SMB kit", "priority": "high"},
		},
		stage.ReportSynthesis: map[string]interface{}{"report_title": "Report", "placeholder": true},
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	payloads := stagePayloads()
	adapters := make([]stage.Adapter, 0, len(stage.Order))
	for _, name := range stage.Order {
		payload := payloads[name]
		adapters = append(adapters, &fakeAdapter{name: name, fn: func(stage.Input) stage.Result {
			return stage.OK(payload, "")
		}})
	}
	reg := schema.MustNewRegistry()
	r, err := runner.New(reg, adapters, logger.NewTestLogger(t))
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	cat, err := catalog.Build("test", reg)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	app := NewApp(r, cat, logger.NewTestLogger(t))
	model, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(*App)
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabSwitchingCycles(t *testing.T) {
	app := newTestApp(t)
	if got := app.runner.CurrentTab(); got != runner.TabInput {
		t.Fatalf("expected initial tab to be Input, got %v", got)
	}

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(*App)
	if got := app.runner.CurrentTab(); got != runner.TabOutput {
		t.Fatalf("expected Output tab after one switch, got %v", got)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(*App)
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(*App)
	if got := app.runner.CurrentTab(); got != runner.TabInput {
		t.Fatalf("expected tab cycle back to Input, got %v", got)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = model.(*App)
	if got := app.runner.CurrentTab(); got != runner.TabDescription {
		t.Fatalf("expected Description tab after backward switch, got %v", got)
	}
}

func TestCompanyEntryFlow(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.Update(keyMsg("n"))
	app = model.(*App)
	if !app.entering {
		t.Fatalf("expected company entry mode")
	}

	for _, r := range "Acme Robotics" {
		model, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = model.(*App)
	}
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	if app.entering {
		t.Fatalf("expected entry mode to close on enter")
	}
	if got := app.runner.Company(); got != "Acme Robotics" {
		t.Fatalf("expected company to be set, got %q", got)
	}
}

func TestStageFinishedUpdatesStatus(t *testing.T) {
	app := newTestApp(t)
	app.runner.SetCompany("Acme Robotics")

	if _, serr := app.runner.RunStage(context.Background(), stage.CompanyResearch); serr != nil {
		t.Fatalf("run stage: %v", serr)
	}

	model, _ := app.Update(stageFinishedMsg{name: stage.CompanyResearch})
	app = model.(*App)
	if !strings.Contains(app.status, "completed") {
		t.Fatalf("expected completed status, got %q", app.status)
	}
}

func TestOutputPaneShowsValidatedOutput(t *testing.T) {
	app := newTestApp(t)
	app.runner.SetCompany("Acme Robotics")

	if _, serr := app.runner.RunStage(context.Background(), stage.CompanyResearch); serr != nil {
		t.Fatalf("run stage: %v", serr)
	}

	app.runner.SwitchTab(1)
	content := app.paneContent()
	if !strings.Contains(content, "Acme") {
		t.Fatalf("expected output pane to show validated output, got %q", content)
	}
}

func TestOutputPaneBeforeRun(t *testing.T) {
	app := newTestApp(t)
	app.runner.SwitchTab(1)
	if got := app.paneContent(); got != "not run yet" {
		t.Fatalf("expected placeholder for unrun stage, got %q", got)
	}
}

func TestDescriptionPaneUsesCatalog(t *testing.T) {
	app := newTestApp(t)
	app.runner.SwitchTab(-1)
	content := app.paneContent()
	if !strings.Contains(content, "Company Research") {
		t.Fatalf("expected catalog description, got %q", content)
	}
	if !strings.Contains(content, "Output contract") {
		t.Fatalf("expected output contract in description pane, got %q", content)
	}
}

func TestDomainPickBeforeIndustryAnalysis(t *testing.T) {
	app := newTestApp(t)

	model, _ := app.Update(keyMsg("d"))
	app = model.(*App)
	if app.picking {
		t.Fatalf("expected pick mode to stay closed without industry output")
	}
	if !strings.Contains(app.status, "IndustryAnalysis") {
		t.Fatalf("expected status to name the missing stage, got %q", app.status)
	}
}

func TestDomainPickFlow(t *testing.T) {
	app := newTestApp(t)
	app.runner.SetCompany("Acme Robotics")

	if _, serr := app.runner.RunStage(context.Background(), stage.CompanyResearch); serr != nil {
		t.Fatalf("run company research: %v", serr)
	}
	if _, serr := app.runner.RunStage(context.Background(), stage.IndustryAnalysis); serr != nil {
		t.Fatalf("run industry analysis: %v", serr)
	}
	if _, _, picked := app.runner.Domain(); picked {
		t.Fatalf("expected no domain before the operator picks one")
	}

	model, _ := app.Update(keyMsg("d"))
	app = model.(*App)
	if !app.picking {
		t.Fatalf("expected pick mode after d")
	}
	if view := app.View(); !strings.Contains(view, "warehouse automation") || !strings.Contains(view, "agritech") {
		t.Fatalf("expected ranked candidates in pick view, got %q", view)
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyDown})
	app = model.(*App)
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)

	if app.picking {
		t.Fatalf("expected pick mode to close on enter")
	}
	domain, score, picked := app.runner.Domain()
	if !picked || domain != "agritech" || score != 0.5 {
		t.Fatalf("expected operator pick agritech (0.5), got %q (%.2f) picked=%v", domain, score, picked)
	}

	// The pick unblocks the domain-dependent stages in single-stage mode.
	if _, serr := app.runner.RunStage(context.Background(), stage.MarketData); serr != nil {
		t.Fatalf("run market data after pick: %v", serr)
	}
}

func TestDomainPickCancel(t *testing.T) {
	app := newTestApp(t)
	app.runner.SetCompany("Acme Robotics")

	if _, serr := app.runner.RunStage(context.Background(), stage.CompanyResearch); serr != nil {
		t.Fatalf("run company research: %v", serr)
	}
	if _, serr := app.runner.RunStage(context.Background(), stage.IndustryAnalysis); serr != nil {
		t.Fatalf("run industry analysis: %v", serr)
	}

	model, _ := app.Update(keyMsg("d"))
	app = model.(*App)
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(*App)

	if app.picking {
		t.Fatalf("expected esc to leave pick mode")
	}
	if _, _, picked := app.runner.Domain(); picked {
		t.Fatalf("expected cancel to leave the domain unpicked")
	}
}

func TestQuitKey(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if msg := cmd(); msg == nil {
		t.Fatalf("expected quit message")
	}
}
