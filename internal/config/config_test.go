package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithNoConfigFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.MetricsAddr)
	assert.Equal(t, "paper", cfg.Executor)
	assert.Equal(t, "0", cfg.Strategy.MinEdge)
	assert.Equal(t, "10", cfg.Strategy.Size)
	assert.True(t, cfg.Polymarket.Enabled)
	assert.False(t, cfg.Kalshi.Enabled)
	assert.Equal(t, 10, cfg.Polymarket.SeedConcurrency)
}
