// internal/stages/gapanalysis/config.go
package gapanalysis

import (
	"time"

	"research-pipeline/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFrom(cfg *config.Config) *Config {
	sc := config.GetStageConfig(cfg, string(StageName))
	return &Config{
		BaseURL:    sc.BaseURL,
		APIKey:     cfg.Backends.APIKey,
		Timeout:    config.GetDuration(sc.Timeout),
		MaxRetries: sc.MaxRetries,
	}
}
