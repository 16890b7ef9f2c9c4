package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

type EngineConfig struct {
	// MaxWorkers bounds the pool computing (period, validator) units in
	// parallel within one recompute job.
	MaxWorkers int `mapstructure:"max-workers"`
	// SweepSchedule is a cron expression for the automatic recompute sweep
	// over recently finalized periods. Empty disables the sweep.
	SweepSchedule string `mapstructure:"sweep-schedule"`
	// SweepLookbackPeriods is how many finalized periods behind the tip the
	// sweep re-checks for late data corrections.
	SweepLookbackPeriods uint64 `mapstructure:"sweep-lookback-periods"`
}

func (cfg *EngineConfig) Validate() error {
	if cfg.MaxWorkers <= 0 {
		return fmt.Errorf("max-workers must be positive")
	}
	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			return fmt.Errorf("invalid sweep-schedule %q: %w", cfg.SweepSchedule, err)
		}
		if cfg.SweepLookbackPeriods == 0 {
			return fmt.Errorf("sweep-lookback-periods must be positive when sweep is enabled")
		}
	}

	return nil
}
