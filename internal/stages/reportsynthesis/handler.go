// internal/stages/reportsynthesis/handler.go
package reportsynthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/entity"
	"research-pipeline/internal/stage"
)

const (
	StageName = stage.ReportSynthesis

	endpointPath = "/api/agents/report-synthesis"
)

var (
	ErrBackendTimeout  = errors.New("BACKEND_TIMEOUT")
	ErrSynthesisFailed = errors.New("REPORT_SYNTHESIS_FAILED")
)

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"stage": string(StageName),
		}),
		now: time.Now,
	}
}

// WithClock overrides the timestamp source. Used in tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

func (h *Handler) Name() stage.Name {
	return StageName
}

// Execute assembles the final report from the run's validated trail.
// Without a configured renderer it emits a local placeholder report so
// the pipeline always ends with a publishable artifact.
func (h *Handler) Execute(ctx context.Context, in stage.Input) (res stage.Result) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic during report synthesis", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			res = stage.Fail("report synthesis panicked: %v", r)
		}
	}()

	if in.Profile == nil {
		return stage.Fail("company_profile is required")
	}

	if h.config.RendererURL == "" {
		report := h.placeholderReport(in)
		h.logger.Info("placeholder report synthesized", map[string]interface{}{
			"company": in.Profile.Name,
			"domain":  in.Domain,
		})
		raw, _ := json.Marshal(report)
		return stage.OK(report, string(raw))
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.call(ctx, Request{
		CompanyProfile: in.Profile,
		Domain:         in.Domain,
		MarketStats:    in.Market,
		CompetitorList: in.Competitors,
		MarketGaps:     in.Gaps,
		Opportunities:  in.Growth,
		Author:         h.config.Author,
	})
	if err != nil {
		h.logger.Error("report synthesis failed", map[string]interface{}{
			"company": in.Profile.Name,
			"error":   err.Error(),
		})
		return stage.Fail("%v", err)
	}

	h.logger.Info("report synthesized", map[string]interface{}{
		"company": in.Profile.Name,
	})
	return stage.Normalize(raw)
}

// placeholderReport summarizes the trail into a markdown document.
func (h *Handler) placeholderReport(in stage.Input) *entity.FinalReport {
	var b strings.Builder

	title := fmt.Sprintf("Market Research Report: %s", in.Profile.Name)

	fmt.Fprintf(&b, "# %s\n\n", title)
	if in.Domain != "" {
		fmt.Fprintf(&b, "Selected domain: %s\n\n", in.Domain)
	}
	if in.Market != nil {
		fmt.Fprintf(&b, "## Market\n\nSize: $%.0f, CAGR: %.1f%%\n\n", in.Market.MarketSizeUSD, in.Market.CAGR*100)
	}
	if len(in.Competitors) > 0 {
		b.WriteString("## Competitors\n\n")
		for _, c := range in.Competitors {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Competitor, c.Product)
		}
		b.WriteString("\n")
	}
	if len(in.Gaps) > 0 {
		b.WriteString("## Market Gaps\n\n")
		for _, g := range in.Gaps {
			fmt.Fprintf(&b, "- [%s] %s\n", g.Impact, g.Gap)
		}
		b.WriteString("\n")
	}
	if len(in.Growth) > 0 {
		b.WriteString("## Growth Opportunities\n\n")
		for _, o := range in.Growth {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", o.Priority, o.Title, o.Description)
		}
		b.WriteString("\n")
	}
	if h.config.Author != "" {
		fmt.Fprintf(&b, "Prepared by %s\n", h.config.Author)
	}

	return &entity.FinalReport{
		ReportTitle: title,
		GeneratedAt: h.now().UTC(),
		Content:     b.String(),
		Placeholder: true,
	}
}

func (h *Handler) call(ctx context.Context, request Request) (map[string]interface{}, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrBackendTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", h.config.RendererURL+endpointPath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if h.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
		}

		resp, lastErr = h.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrBackendTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrBackendTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrSynthesisFailed)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrSynthesisFailed, err)
	}
	return raw, nil
}
