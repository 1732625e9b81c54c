// internal/tui/app.go
//
// Terminal UI for interactive research sessions. Built on bubbletea's
// Elm-style loop: App is the state, Update folds messages into it, View
// renders it. The left pane lists the seven stages; the right pane shows
// the selected stage's resolved input, produced output, or description,
// switchable with tabs.

package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"research-pipeline/internal/common/errors"
	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/entity"
	"research-pipeline/internal/runner"
	"research-pipeline/internal/stage"
	"research-pipeline/pkg/catalog"
)

var paneTabs = []runner.Tab{runner.TabInput, runner.TabOutput, runner.TabDescription}

type stageItem struct {
	name stage.Name
	desc string
}

func (i stageItem) Title() string       { return string(i.name) }
func (i stageItem) Description() string { return i.desc }
func (i stageItem) FilterValue() string { return string(i.name) }

type stageFinishedMsg struct {
	name stage.Name
	err  *errors.StageError
}

type chainFinishedMsg struct {
	last stage.Name
	err  *errors.StageError
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	activeTab   = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("212"))
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	paneBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// App is the bubbletea model for one interactive session.
type App struct {
	runner  *runner.Runner
	catalog *catalog.Catalog
	logger  logger.Logger

	stageList    list.Model
	viewport     viewport.Model
	companyInput textinput.Model

	entering  bool
	picking   bool
	pickIndex int
	running   bool
	status    string
	lastErr   *errors.StageError

	width  int
	height int
	ready  bool
}

func NewApp(r *runner.Runner, cat *catalog.Catalog, log logger.Logger) *App {
	items := make([]list.Item, 0, len(stage.Order))
	for _, name := range stage.Order {
		desc := ""
		if e, ok := cat.Lookup(name); ok {
			desc = e.Description
		}
		items = append(items, stageItem{name: name, desc: desc})
	}

	delegate := list.NewDefaultDelegate()
	stageList := list.New(items, delegate, 0, 0)
	stageList.Title = "Stages"
	stageList.SetShowHelp(false)
	stageList.SetFilteringEnabled(false)
	stageList.SetShowStatusBar(false)

	input := textinput.New()
	input.Placeholder = "company name"
	input.CharLimit = 120

	return &App{
		runner:       r,
		catalog:      cat,
		logger:       log.With(map[string]interface{}{"component": "tui"}),
		stageList:    stageList,
		companyInput: input,
		status:       "press n to name a company",
	}
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) selectedStage() stage.Name {
	if item, ok := a.stageList.SelectedItem().(stageItem); ok {
		return item.name
	}
	return stage.CompanyResearch
}

func (a *App) runStageCmd(name stage.Name) tea.Cmd {
	return func() tea.Msg {
		_, serr := a.runner.RunStage(context.Background(), name)
		return stageFinishedMsg{name: name, err: serr}
	}
}

func (a *App) runChainCmd() tea.Cmd {
	return func() tea.Msg {
		last, serr := a.runner.RunChain(context.Background())
		return chainFinishedMsg{last: last, err: serr}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.stageList.SetSize(msg.Width/3, msg.Height-6)
		if !a.ready {
			a.viewport = viewport.New(msg.Width-msg.Width/3-6, msg.Height-8)
			a.ready = true
		} else {
			a.viewport.Width = msg.Width - msg.Width/3 - 6
			a.viewport.Height = msg.Height - 8
		}
		a.refreshPane()
		return a, nil

	case tea.KeyMsg:
		if a.entering {
			return a.updateCompanyEntry(msg)
		}
		if a.picking {
			return a.updateDomainPick(msg)
		}
		return a.updateKeys(msg)

	case stageFinishedMsg:
		a.running = false
		a.lastErr = msg.err
		if msg.err != nil {
			a.status = fmt.Sprintf("%s failed: %s", msg.name, msg.err.Code)
		} else {
			a.status = fmt.Sprintf("%s completed", msg.name)
			if msg.name == stage.IndustryAnalysis {
				a.status = fmt.Sprintf("%s completed, press d to pick a domain", msg.name)
			}
			a.runner.Select(msg.name)
			a.runner.Advance()
		}
		a.refreshPane()
		return a, nil

	case chainFinishedMsg:
		a.running = false
		a.lastErr = msg.err
		if msg.err != nil {
			a.status = fmt.Sprintf("chain stopped at %s: %s", msg.last, msg.err.Code)
		} else {
			a.status = "run complete"
		}
		a.refreshPane()
		return a, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *App) updateCompanyEntry(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(a.companyInput.Value())
		if name != "" {
			a.runner.Reset(context.Background())
			a.runner.SetCompany(name)
			a.status = fmt.Sprintf("researching %s", name)
		}
		a.entering = false
		a.companyInput.Blur()
		a.refreshPane()
		return a, nil
	case tea.KeyEsc:
		a.entering = false
		a.companyInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.companyInput, cmd = a.companyInput.Update(msg)
	return a, cmd
}

func (a *App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "n":
		a.entering = true
		a.companyInput.SetValue("")
		return a, a.companyInput.Focus()

	case "tab":
		a.runner.SwitchTab(1)
		a.refreshPane()
		return a, nil

	case "shift+tab":
		a.runner.SwitchTab(-1)
		a.refreshPane()
		return a, nil

	case "enter":
		if a.running {
			return a, nil
		}
		name := a.selectedStage()
		a.running = true
		a.status = fmt.Sprintf("running %s...", name)
		a.runner.Select(name)
		return a, a.runStageCmd(name)

	case "c":
		if a.running {
			return a, nil
		}
		a.running = true
		a.status = "running chain..."
		a.runner.Select(a.selectedStage())
		return a, a.runChainCmd()

	case "d":
		if len(a.domainCandidates()) == 0 {
			a.status = "run IndustryAnalysis before picking a domain"
			return a, nil
		}
		a.picking = true
		a.pickIndex = 0
		return a, nil

	case "r":
		a.runner.Reset(context.Background())
		a.lastErr = nil
		a.status = "session reset"
		a.refreshPane()
		return a, nil
	}

	var cmd tea.Cmd
	a.stageList, cmd = a.stageList.Update(msg)
	a.refreshPane()
	return a, cmd
}

// domainCandidates returns the ranked opportunity list from the last
// validated industry analysis output, if one exists.
func (a *App) domainCandidates() []entity.IndustryOpportunity {
	out, ok := a.runner.Output(stage.IndustryAnalysis)
	if !ok {
		return nil
	}
	candidates, _ := out.([]entity.IndustryOpportunity)
	return candidates
}

func (a *App) updateDomainPick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := a.domainCandidates()

	switch msg.String() {
	case "up", "k":
		if a.pickIndex > 0 {
			a.pickIndex--
		}
	case "down", "j":
		if a.pickIndex < len(candidates)-1 {
			a.pickIndex++
		}
	case "enter":
		a.picking = false
		picked := candidates[a.pickIndex]
		if serr := a.runner.PickDomain(picked.Domain); serr != nil {
			a.lastErr = serr
			a.status = fmt.Sprintf("domain pick failed: %s", serr.Code)
		} else {
			a.lastErr = nil
			a.status = fmt.Sprintf("domain picked: %s", picked.Domain)
		}
		a.refreshPane()
	case "esc", "q":
		a.picking = false
	}
	return a, nil
}

// refreshPane rebuilds the right pane content for the selected stage and
// active tab.
func (a *App) refreshPane() {
	if !a.ready {
		return
	}
	a.viewport.SetContent(a.paneContent())
	a.viewport.GotoTop()
}

func (a *App) paneContent() string {
	name := a.selectedStage()

	switch a.runner.CurrentTab() {
	case runner.TabDescription:
		if e, ok := a.catalog.Lookup(name); ok {
			schemaJSON, _ := json.MarshalIndent(e.OutputSchema, "", "  ")
			return fmt.Sprintf("%s\n\n%s\n\nOutput contract:\n%s", e.DisplayName, e.Description, schemaJSON)
		}
		return "no catalog entry"

	case runner.TabOutput:
		if res, ok := a.runner.ResultFor(name); ok {
			if out, ok := a.runner.Output(name); ok {
				data, _ := json.MarshalIndent(out, "", "  ")
				return string(data)
			}
			if !res.Success {
				return "stage failed:\n" + res.Error
			}
			return "output rejected by validation; raw result:\n" + res.RawResponse
		}
		return "not run yet"

	default: // TabInput
		var parts []string
		if a.runner.Company() != "" {
			parts = append(parts, "company: "+a.runner.Company())
		}
		if domain, score, ok := a.runner.Domain(); ok {
			parts = append(parts, fmt.Sprintf("domain: %s (%.2f)", domain, score))
		}
		for _, upstream := range stage.Order {
			if upstream.Index() >= name.Index() {
				break
			}
			if out, ok := a.runner.Output(upstream); ok {
				data, _ := json.Marshal(out)
				parts = append(parts, fmt.Sprintf("%s: %s", upstream, truncate(string(data), 200)))
			}
		}
		if len(parts) == 0 {
			return "no inputs resolved yet"
		}
		return strings.Join(parts, "\n\n")
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (a *App) tabBar() string {
	var tabs []string
	for _, t := range paneTabs {
		if t == a.runner.CurrentTab() {
			tabs = append(tabs, activeTab.Render(t.String()))
		} else {
			tabs = append(tabs, inactiveTab.Render(t.String()))
		}
	}
	return strings.Join(tabs, "  ")
}

func (a *App) domainPickView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick an expansion domain"))
	b.WriteString("\n\n")
	for i, c := range a.domainCandidates() {
		line := fmt.Sprintf("%s (%.2f)", c.Domain, c.Score)
		if i == a.pickIndex {
			b.WriteString(activeTab.Render("> " + line))
		} else {
			b.WriteString(inactiveTab.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) View() string {
	if !a.ready {
		return "loading..."
	}

	header := titleStyle.Render("Research Pipeline") + "  " + statusStyle.Render(a.status)
	if a.lastErr != nil {
		header += "  " + errorStyle.Render(a.lastErr.Message)
	}

	if a.entering {
		return header + "\n\n" + a.companyInput.View() + "\n\n" + footerStyle.Render("enter: confirm  esc: cancel")
	}

	if a.picking {
		return header + "\n\n" + a.domainPickView() + "\n\n" + footerStyle.Render("up/down: move  enter: pick  esc: cancel")
	}

	right := a.tabBar() + "\n" + paneBorder.Render(a.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, a.stageList.View(), right)
	footer := footerStyle.Render("enter: run stage  c: run chain  d: pick domain  tab: switch pane  n: new company  r: reset  q: quit")

	return header + "\n" + body + "\n" + footer
}
