package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.ErpLookupTimeoutMs)
	assert.Equal(t, 60000, cfg.ErpSubmitTimeoutMs)
	assert.Equal(t, 40, cfg.ErpCacheSize)
	assert.Equal(t, 0.9, cfg.MatchThreshold)
	assert.Equal(t, 120, cfg.WatchIntervalSec)
	assert.False(t, cfg.EnableErpSubmit)
	assert.True(t, cfg.EnableProvisionEnrichment)
	assert.True(t, cfg.EnableEmailNotification)
	assert.NotEmpty(t, cfg.StagingDir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ERP_PRIMARY_URL", "http://erp.local/hs/interaction")
	t.Setenv("ERP_LOOKUP_TIMEOUT_MS", "5000")
	t.Setenv("MATCH_THRESHOLD", "0.85")
	t.Setenv("ENABLE_ERP_SUBMIT", "true")
	t.Setenv("NOTIFICATION_EMAILS", "a@example.com, b@example.com;c@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://erp.local/hs/interaction", cfg.ErpPrimaryURL)
	assert.Equal(t, 5000, cfg.ErpLookupTimeoutMs)
	assert.Equal(t, 0.85, cfg.MatchThreshold)
	assert.True(t, cfg.EnableErpSubmit)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, cfg.NotificationEmails)
}

func TestLoadIgnoresGarbageValues(t *testing.T) {
	t.Setenv("ERP_LOOKUP_TIMEOUT_MS", "soon")
	t.Setenv("MATCH_THRESHOLD", "high")
	t.Setenv("ENABLE_ERP_SUBMIT", "probably")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30000, cfg.ErpLookupTimeoutMs)
	assert.Equal(t, 0.9, cfg.MatchThreshold)
	assert.False(t, cfg.EnableErpSubmit)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Require("ERP_LOGIN", ""))
	assert.Error(t, cfg.Require("ERP_LOGIN", "   "))
	assert.NoError(t, cfg.Require("ERP_LOGIN", "svc"))
}
