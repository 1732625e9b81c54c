// internal/stages/companyresearch/handler.go
package companyresearch

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
	"research-pipeline/internal/stage"
)

const (
	StageName = stage.CompanyResearch

	endpointPath = "/api/agents/company-research"
)

var (
	ErrBackendTimeout = errors.New("BACKEND_TIMEOUT")
	ErrResearchFailed = errors.New("COMPANY_RESEARCH_FAILED")
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

// Execute profiles the company named in the input. A blank company name
// is rejected before any backend call is made.
func (h *Handler) Execute(ctx context.Context, in stage.Input) (res stage.Result) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic during company research", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			res = stage.Fail("company research panicked: %v", r)
		}
	}()

	if strings.TrimSpace(in.CompanyName) == "" {
		return stage.Fail("company_name is required")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.call(ctx, Request{CompanyName: in.CompanyName})
	if err != nil {
		h.logger.Error("company research failed", map[string]interface{}{
			"company": in.CompanyName,
			"error":   err.Error(),
		})
		return stage.Fail("%v", err)
	}

	h.logger.Info("company research completed", map[string]interface{}{
		"company": in.CompanyName,
	})
	return stage.Normalize(raw)
}

func (h *Handler) call(ctx context.Context, request Request) (map[string]interface{}, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResearchFailed, err)
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
			return nil, fmt.Errorf("%w: %v", ErrResearchFailed, err)
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
		return nil, fmt.Errorf("%w: %v", ErrResearchFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrResearchFailed)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrResearchFailed, err)
	}
	return raw, nil
}
