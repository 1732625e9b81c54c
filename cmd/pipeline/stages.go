// cmd/pipeline/stages.go
package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"research-pipeline/internal/common/database"
	"research-pipeline/internal/runner"
	"research-pipeline/internal/schema"
	"research-pipeline/internal/store"
	"research-pipeline/internal/tui"
	"research-pipeline/pkg/catalog"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Open the interactive stage runner",
	Long: `stages opens a terminal session where stages run one at a time:
inspect each stage's resolved input and validated output, re-run stages,
pick the expansion domain, or let the remaining chain run to the end.`,
	RunE: runStages,
}

func runStages(cmd *cobra.Command, args []string) error {
	cfg, zapLog, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLog.Sync()

	registry, err := schema.NewRegistry()
	if err != nil {
		return fmt.Errorf("build schema registry: %w", err)
	}

	r, err := runner.New(registry, buildAdapters(cfg, log), log)
	if err != nil {
		return err
	}

	// Session state survives restarts when Redis is configured.
	if cfg.Database.Redis.Address != "" {
		redis, err := database.NewRedis(cfg.Database.Redis)
		if err == nil && redis.Ping(cmd.Context()) == nil {
			defer redis.Close()
			ttl := time.Duration(cfg.Database.Redis.TTL) * time.Second
			r.WithCache(store.NewStageCache(redis, ttl))
		} else {
			zapLog.Warn("stage cache unavailable", zap.String("address", cfg.Database.Redis.Address))
		}
	}

	cat, err := catalog.Build(version, registry)
	if err != nil {
		return fmt.Errorf("build stage catalog: %w", err)
	}

	app := tui.NewApp(r, cat, log)
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
