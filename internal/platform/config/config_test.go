package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("AUTHORITY_MODE", "http")
	t.Setenv("AUTHORITY_URL", "")
	t.Setenv("SUBMISSION_BACKOFF_BASE", "not-a-duration")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, AuthorityModeSandbox, cfg.AuthorityMode, "http mode without URL falls back to sandbox")
	assert.Equal(t, time.Minute, cfg.SubmissionBackoffBase)
	assert.Equal(t, 5, cfg.SubmissionMaxAttempts)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 5, cfg.RegisterMaxRetries)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, 5*time.Second, cfg.DBConnectTimeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	viper.Reset()
	t.Setenv("STORAGE_DRIVER", "Postgres")
	t.Setenv("PGSQL_URL", "postgres://localhost/registry")
	t.Setenv("SUBMISSION_MAX_ATTEMPTS", "0")
	t.Setenv("SUBMISSION_SWEEP_WORKERS", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, https://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.SubmissionMaxAttempts)
	assert.Equal(t, 8, cfg.SubmissionSweepWorkers)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadConfig_ClampsNegativeLimits(t *testing.T) {
	viper.Reset()
	t.Setenv("REGISTER_MAX_RETRIES", "-3")
	t.Setenv("PGSQL_MAX_CONNS", "0")
	t.Setenv("PGSQL_MIN_CONNS", "-1")
	t.Setenv("PGSQL_MAX_CONN_IDLE_TIME", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.RegisterMaxRetries)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.Equal(t, int32(0), cfg.DBMinConns)
	assert.Equal(t, 2*time.Minute, cfg.DBMaxConnIdleTime)
}
