// internal/stages/gapanalysis/handler.go
package gapanalysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/stage"
)

const (
	StageName = stage.GapAnalysis

	endpointPath = "/api/agents/market-gap"
)

var (
	ErrBackendTimeout    = errors.New("BACKEND_TIMEOUT")
	ErrGapAnalysisFailed = errors.New("GAP_ANALYSIS_FAILED")
)

type Handler struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"stage": string(StageName),
		}),
	}
}

func (h *Handler) Name() stage.Name {
	return StageName
}

// Execute cross-references the company profile against competitors and
// market figures to surface unserved gaps. All three upstream artifacts
// must be present.
func (h *Handler) Execute(ctx context.Context, in stage.Input) (res stage.Result) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic during gap analysis", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			res = stage.Fail("gap analysis panicked: %v", r)
		}
	}()

	if in.Profile == nil {
		return stage.Fail("company_profile is required")
	}
	if in.Competitors == nil {
		return stage.Fail("competitor_list is required")
	}
	if in.Market == nil {
		return stage.Fail("market_stats is required")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.call(ctx, Request{
		CompanyProfile: in.Profile,
		CompetitorList: in.Competitors,
		MarketStats:    in.Market,
	})
	if err != nil {
		h.logger.Error("gap analysis failed", map[string]interface{}{
			"company": in.Profile.Name,
			"error":   err.Error(),
		})
		return stage.Fail("%v", err)
	}

	h.logger.Info("gap analysis completed", map[string]interface{}{
		"company":     in.Profile.Name,
		"competitors": len(in.Competitors),
	})
	return stage.Normalize(raw)
}

func (h *Handler) call(ctx context.Context, request Request) (map[string]interface{}, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGapAnalysisFailed, err)
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

		req, err := http.NewRequestWithContext(ctx, "POST", h.config.BaseURL+endpointPath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGapAnalysisFailed, err)
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
		return nil, fmt.Errorf("%w: %v", ErrGapAnalysisFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrGapAnalysisFailed)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrGapAnalysisFailed, err)
	}
	return raw, nil
}
