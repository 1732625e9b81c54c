// internal/stages/reportsynthesis/config.go
package reportsynthesis

import (
	"time"

	"research-pipeline/internal/common/config"
)

type Config struct {
	// RendererURL points at an external report rendering service. When
	// empty the handler synthesizes a local placeholder report instead.
	RendererURL string
	Author      string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
}

func ConfigFrom(cfg *config.Config) *Config {
	sc := config.GetStageConfig(cfg, string(StageName))
	return &Config{
		RendererURL: cfg.Report.RendererURL,
		Author:      cfg.Report.Author,
		APIKey:      cfg.Backends.APIKey,
		Timeout:     config.GetDuration(sc.Timeout),
		MaxRetries:  sc.MaxRetries,
	}
}
