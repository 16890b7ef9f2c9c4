package config

import (
	"fmt"
	"time"
)

type QueueConfig struct {
	URL               string        `mapstructure:"url"`
	RevenueFactQueue  string        `mapstructure:"revenue-fact-queue"`
	StakeEventQueue   string        `mapstructure:"stake-event-queue"`
	PrefetchCount     int           `mapstructure:"prefetch-count"`
	ReconnectInterval time.Duration `mapstructure:"reconnect-interval"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("queue url is required")
	}
	if cfg.RevenueFactQueue == "" {
		return fmt.Errorf("revenue-fact-queue name is required")
	}
	if cfg.StakeEventQueue == "" {
		return fmt.Errorf("stake-event-queue name is required")
	}
	if cfg.PrefetchCount <= 0 {
		return fmt.Errorf("prefetch-count must be positive")
	}
	if cfg.ReconnectInterval <= 0 {
		return fmt.Errorf("reconnect-interval must be positive")
	}

	return nil
}
