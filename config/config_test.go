package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDSN(t *testing.T) {
	os.Unsetenv("AIRDROPINDEXER_DB_DSN")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	os.Setenv("AIRDROPINDEXER_DB_DSN", "user:pass@tcp(127.0.0.1:3306)/airdrop")
	defer os.Unsetenv("AIRDROPINDEXER_DB_DSN")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DB.MaxOpenConns)
	assert.Equal(t, 1, cfg.DB.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLife)

	assert.Equal(t, 15*time.Second, cfg.Scanners.NetworkInterval)
	assert.Equal(t, 5*time.Second, cfg.Scanners.BlockInterval)
	assert.Equal(t, 30*time.Second, cfg.Scanners.TokenInterval)
	assert.Equal(t, 50, cfg.Scanners.BatchSize)
	assert.False(t, cfg.Scanners.APIParallelMode)

	assert.Contains(t, cfg.Analyzer.Keywords, "airdrop")
	assert.Contains(t, cfg.Analyzer.Keywords, "merkle")

	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "airdrop.discovered", cfg.Kafka.Topic)
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("AIRDROPINDEXER_DB_DSN", "user:pass@tcp(127.0.0.1:3306)/airdrop")
	os.Setenv("AIRDROPINDEXER_SCANNERS_API_PARALLEL_MODE", "true")
	defer func() {
		os.Unsetenv("AIRDROPINDEXER_DB_DSN")
		os.Unsetenv("AIRDROPINDEXER_SCANNERS_API_PARALLEL_MODE")
	}()

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Scanners.APIParallelMode)
}
