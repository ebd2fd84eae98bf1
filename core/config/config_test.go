package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), cfg.Range)
	assert.Equal(t, uint64(10000), cfg.Step)
	assert.Equal(t, uint64(500), cfg.MinRange)
	assert.True(t, cfg.SplitOnErrors)
	assert.Equal(t, int64(-1), cfg.FromBlock)
	assert.Equal(t, int64(-1), cfg.ToBlock)

	assert.Equal(t, 5, cfg.RPC.ConnectTimeoutSeconds)
	assert.Equal(t, 120, cfg.RPC.ReadTimeoutSeconds)
	assert.Equal(t, 5, cfg.RPC.RetryMax)
	assert.Equal(t, 800, cfg.RPC.BackoffMillis)

	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PROVIDER", "https://rpc.example.org")
	t.Setenv("RANGE", "250")
	t.Setenv("MIN_RANGE", "50")
	t.Setenv("SPLIT_ON_ERRORS", "false")
	t.Setenv("DATABASE_HOST", "db.local")
	t.Setenv("DATABASE_NAME", "rpc_checks")
	t.Setenv("RPC_RETRY_MAX", "2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://rpc.example.org", cfg.Provider)
	assert.Equal(t, uint64(250), cfg.Range)
	assert.Equal(t, uint64(50), cfg.MinRange)
	assert.False(t, cfg.SplitOnErrors)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "rpc_checks", cfg.Database.Name)
	assert.Equal(t, 2, cfg.RPC.RetryMax)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestOptionalBlock(t *testing.T) {
	assert.Nil(t, OptionalBlock(-1))

	b := OptionalBlock(0)
	require.NotNil(t, b)
	assert.Equal(t, uint64(0), *b)

	b = OptionalBlock(6306357)
	require.NotNil(t, b)
	assert.Equal(t, uint64(6306357), *b)
}
