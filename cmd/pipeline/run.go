// cmd/pipeline/run.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-pipeline/internal/common/database"
	"research-pipeline/internal/common/observability"
	"research-pipeline/internal/pipeline"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/store"
)

var (
	runDomain string
	runOutput string
	runFormat string
)

var runCmd = &cobra.Command{
	Use:   "run <company name>",
	Short: "Run the full research pipeline for a company",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runDomain, "domain", "", "skip domain selection and use this domain")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the report to this file instead of stdout")
	runCmd.Flags().StringVar(&runFormat, "format", "markdown", "output format: markdown or json")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	companyName := args[0]

	cfg, zapLog, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLog.Sync()

	if runFormat != "markdown" && runFormat != "json" {
		return fmt.Errorf("unknown format %q", runFormat)
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()
	serveMetrics(cfg, zapLog)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry, err := schema.NewRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}

	orch, err := pipeline.New(registry, buildAdapters(cfg, log), log)
	if err != nil {
		return err
	}
	orch.WithObservability(obs)

	// The report archive is optional; runs work without a database.
	var reports *store.ReportStore
	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Warn("report archive unavailable", zap.Error(err))
		} else {
			defer pg.Close()
			reports = store.NewReportStore(pg)
			if err := reports.Migrate(ctx); err != nil {
				zapLog.Warn("report archive migration failed", zap.Error(err))
				reports = nil
			}
		}
	}

	res := orch.Run(ctx, companyName, runDomain)

	if !res.Completed {
		zapLog.Error("run failed",
			zap.String("stage", string(res.FailedStage)),
			zap.String("code", string(res.Err.Code)),
			zap.String("details", res.Err.Details),
		)
		return fmt.Errorf("run failed at %s: %s", res.FailedStage, res.Err.Message)
	}

	if reports != nil {
		trail, _ := json.Marshal(res.Trail)
		if err := reports.Save(ctx, res.RunID, res.CompanyName, res.Domain, res.Report, trail); err != nil {
			zapLog.Warn("report not archived", zap.Error(err))
		}
	}

	return emitReport(res)
}

func emitReport(res *pipeline.RunResult) error {
	var out []byte
	switch runFormat {
	case "json":
		var err error
		out, err = json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		out = append(out, '\n')
	default:
		out = []byte(res.Report.Content)
	}

	if runOutput == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(runOutput, out, 0o644)
}
