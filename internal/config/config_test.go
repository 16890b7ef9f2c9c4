package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	cfg, err := New("testdata/config-test.yml")
	require.NoError(t, err)

	assert.Equal(t, "commission-engine", cfg.Db.DbName)
	assert.Equal(t, 4, cfg.Engine.MaxWorkers)
	assert.Equal(t, "*/15 * * * *", cfg.Engine.SweepSchedule)
	assert.Equal(t, uint64(3), cfg.Engine.SweepLookbackPeriods)
	assert.Equal(t, "revenue_facts", cfg.Queue.RevenueFactQueue)
	assert.Equal(t, 5*time.Second, cfg.Queue.ReconnectInterval)
	assert.Equal(t, 2112, cfg.Metrics.GetMetricsPort())
	assert.Equal(t, time.Minute, cfg.Poller.StatsPollingInterval)
}

func TestNewConfigMissingFile(t *testing.T) {
	_, err := New("testdata/does-not-exist.yml")
	assert.Error(t, err)
}

func TestEngineConfigValidate(t *testing.T) {
	t.Run("workers must be positive", func(t *testing.T) {
		cfg := EngineConfig{MaxWorkers: 0}
		assert.Error(t, cfg.Validate())
	})
	t.Run("empty schedule disables the sweep", func(t *testing.T) {
		cfg := EngineConfig{MaxWorkers: 1}
		assert.NoError(t, cfg.Validate())
	})
	t.Run("bad cron expression", func(t *testing.T) {
		cfg := EngineConfig{MaxWorkers: 1, SweepSchedule: "every other tuesday", SweepLookbackPeriods: 1}
		assert.Error(t, cfg.Validate())
	})
	t.Run("sweep needs a lookback", func(t *testing.T) {
		cfg := EngineConfig{MaxWorkers: 1, SweepSchedule: "@hourly"}
		assert.Error(t, cfg.Validate())
	})
}
