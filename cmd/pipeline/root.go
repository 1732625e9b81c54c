// cmd/pipeline/root.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-pipeline/internal/common/config"
	"research-pipeline/internal/common/logger"
	"research-pipeline/internal/stage"
	"research-pipeline/internal/stages/companyresearch"
	"research-pipeline/internal/stages/competitivelandscape"
	"research-pipeline/internal/stages/gapanalysis"
	"research-pipeline/internal/stages/industryanalysis"
	"research-pipeline/internal/stages/marketdata"
	"research-pipeline/internal/stages/opportunity"
	"research-pipeline/internal/stages/reportsynthesis"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Staged market research pipeline",
	Long: `pipeline runs a seven-stage market research flow for a company:
profile, industry analysis, market data, competitive landscape, gap
analysis, opportunity ranking, and report synthesis. Every stage output
is gated on a schema contract before the next stage may consume it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pipeline %s\n", version)
	},
}

// bootstrap loads config and builds the shared logger pair.
func bootstrap() (*config.Config, *zap.Logger, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, zapLog, logger.NewZapAdapter(zapLog), nil
}

// buildAdapters wires all seven stage adapters from config.
func buildAdapters(cfg *config.Config, log logger.Logger) []stage.Adapter {
	return []stage.Adapter{
		companyresearch.NewHandler(companyresearch.ConfigFrom(cfg), log),
		industryanalysis.NewHandler(industryanalysis.ConfigFrom(cfg), log),
		marketdata.NewHandler(marketdata.ConfigFrom(cfg), log),
		competitivelandscape.NewHandler(competitivelandscape.ConfigFrom(cfg), log),
		gapanalysis.NewHandler(gapanalysis.ConfigFrom(cfg), log),
		opportunity.NewHandler(opportunity.ConfigFrom(cfg), log),
		reportsynthesis.NewHandler(reportsynthesis.ConfigFrom(cfg), log),
	}
}

// serveMetrics exposes the Prometheus endpoint when enabled.
func serveMetrics(cfg *config.Config, zapLog *zap.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		zapLog.Info("metrics endpoint up", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
}

// retryWithBackoff retries infrastructure connections during startup.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, zapLog *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if i < maxRetries-1 {
			zapLog.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
