package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("HMAC_SECRET_KEY", "c2VjcmV0LWtleQ==")
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"15m": 15 * time.Minute,
		"7d":  7 * 24 * time.Hour,
		"1h":  time.Hour,
		"30s": 30 * time.Second,
	}
	for raw, want := range cases {
		got, err := ParseDuration(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "xd", "abc"} {
		_, err := ParseDuration(raw)
		assert.Error(t, err, raw)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "taskflow", cfg.AppName)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, 7, cfg.Auth.RefreshTokenDaysValid)
	assert.Equal(t, 7, cfg.Auth.InvitationTokenDaysValid)
	assert.Equal(t, "argon2id", cfg.Auth.PasswordHashAlgorithm)
	assert.False(t, cfg.AuthCookieSecure)
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AuthCookieSecure)
	assert.True(t, cfg.IsProduction())
}

func TestValidateRequiresSecrets(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("REFRESH_TOKEN_SECRET", "")
	t.Setenv("HMAC_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "HMAC_SECRET_KEY")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRES_IN", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestRateLimitHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "limits.yml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  rate: 2.5\n  burst: 4\n"), 0o600))

	cfg := Config{RateLimit: RateLimitConfig{AuthRate: 1, AuthBurst: 10, ConfigPath: path}}
	holder, err := NewRateLimitHolder(cfg, zap.NewNop())
	require.NoError(t, err)

	limits := holder.Get()
	assert.Equal(t, 2.5, limits.Rate)
	assert.Equal(t, 4, limits.Burst)
}

func TestRateLimitHolderDefaultsWithoutFile(t *testing.T) {
	cfg := Config{RateLimit: RateLimitConfig{AuthRate: 1, AuthBurst: 10}}
	holder, err := NewRateLimitHolder(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, AuthLimits{Rate: 1, Burst: 10}, holder.Get())

	_, err = NewRateLimitHolder(Config{}, zap.NewNop())
	assert.Error(t, err)
}
