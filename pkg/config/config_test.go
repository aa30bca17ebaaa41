package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.False(t, cfg.ReportCards.KeepVersionHistory)
	assert.Equal(t, ZeroMaxPolicyZero, cfg.ReportCards.ZeroMaxScorePolicy)
	assert.Equal(t, 5, cfg.ReportCards.ReportCodeRetries)
	assert.Equal(t, 5*time.Minute, cfg.ReportCards.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Exports.SignedURLTTL)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REPORT_CARDS_KEEP_HISTORY", true)
	v.Set("REPORT_CARDS_ZERO_MAX_POLICY", " Propagate ")
	v.Set("REPORT_CARDS_CODE_RETRIES", 0)
	v.Set("REPORT_CARDS_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := fromViper(v)

	assert.True(t, cfg.ReportCards.KeepVersionHistory)
	assert.Equal(t, ZeroMaxPolicyPropagate, cfg.ReportCards.ZeroMaxScorePolicy)
	assert.Equal(t, 5, cfg.ReportCards.ReportCodeRetries)
	assert.Equal(t, 5*time.Minute, cfg.ReportCards.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestNormalizePolicy(t *testing.T) {
	assert.Equal(t, ZeroMaxPolicyError, normalizePolicy("ERROR"))
	assert.Equal(t, ZeroMaxPolicyZero, normalizePolicy("whatever"))
}
