package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, int64(102400), cfg.Uploads.MaxPhotoBytes)
	assert.Equal(t, int64(51200), cfg.Uploads.MaxSignBytes)
	assert.Equal(t, int64(5242880), cfg.Uploads.MaxPDFBytes)
	assert.Equal(t, "2025-12-22", cfg.Recruitment.ClosingDate)
	assert.Equal(t, 500, cfg.Recruitment.FeeAmount)
	assert.Equal(t, NotifierLog, cfg.Notifier.Driver)
	assert.True(t, cfg.Recruitment.OneActivePerPost)
	assert.Equal(t, 15*time.Minute, cfg.Uploads.SignedURLTTL)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CLOSING_DATE", "2026-01-31")
	t.Setenv("APPLICATION_FEE", "750")
	t.Setenv("NOTIFIER_DRIVER", "SES")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ANALYTICS_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2026-01-31", cfg.Recruitment.ClosingDate)
	assert.Equal(t, 750, cfg.Recruitment.FeeAmount)
	assert.Equal(t, NotifierSES, cfg.Notifier.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Analytics.CacheTTL)
}
