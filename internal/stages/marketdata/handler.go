// internal/stages/marketdata/handler.go
package marketdata

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
	StageName = stage.MarketData

	endpointPath = "/api/agents/market-data"
)

var (
	ErrBackendTimeout  = errors.New("BACKEND_TIMEOUT")
	ErrMarketDataFault = errors.New("MARKET_DATA_FAILED")
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

// Execute fetches market sizing figures for the selected domain.
func (h *Handler) Execute(ctx context.Context, in stage.Input) (res stage.Result) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic during market data fetch", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
			res = stage.Fail("market data fetch panicked: %v", r)
		}
	}()

	if strings.TrimSpace(in.Domain) == "" {
		return stage.Fail("domain is required")
	}

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	raw, err := h.call(ctx, Request{Domain: in.Domain})
	if err != nil {
		h.logger.Error("market data fetch failed", map[string]interface{}{
			"domain": in.Domain,
			"error":  err.Error(),
		})
		return stage.Fail("%v", err)
	}

	h.logger.Info("market data fetched", map[string]interface{}{
		"domain": in.Domain,
	})
	return stage.Normalize(raw)
}

func (h *Handler) call(ctx context.Context, request Request) (map[string]interface{}, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarketDataFault, err)
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
			return nil, fmt.Errorf("%w: %v", ErrMarketDataFault, err)
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
		return nil, fmt.Errorf("%w: %v", ErrMarketDataFault, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrMarketDataFault)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrMarketDataFault, err)
	}
	return raw, nil
}
