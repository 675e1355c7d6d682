package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REDIS_TTL", "not-a-duration")
	t.Setenv("THREADS_PAGE_SIZE", "0")

	cfg := LoadConfig()

	assert.Equal(t, 5*time.Minute, cfg.RedisTTL)
	assert.Equal(t, 15, cfg.ThreadsPageSize)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("THREADS_PAGE_SIZE", "30")
	t.Setenv("REDIS_TTL", "90s")
	t.Setenv("ENV", "production")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_SECRET", "s3cr3t-from-vault")

	cfg := LoadConfig()

	assert.Equal(t, 30, cfg.ThreadsPageSize)
	assert.Equal(t, 90*time.Second, cfg.RedisTTL)
	assert.True(t, cfg.IsProduction())
	assert.Contains(t, cfg.PostgresDSN(), "host=db.internal")
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "prod")

	for _, secret := range []string{"", DefaultJWTSecret} {
		t.Setenv("JWT_SECRET", secret)
		cfg := LoadConfig()
		require.True(t, cfg.IsProduction())
		assert.ErrorIs(t, cfg.Validate(), ErrInsecureJWTSecret, "secret %q", secret)
	}
}
