package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/points")
	t.Setenv("SERVICE_TOKEN", "token")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5200", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.AuditInterval)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.R2.Enabled())

	rules := cfg.Rules()
	assert.Equal(t, int64(1), rules.CoinRate)
	assert.Equal(t, int64(200), rules.JoiningBonus)
	assert.Equal(t, int64(500), rules.ReferredBonus)
	assert.Equal(t, int64(200), rules.ReferrerBonus)
	assert.Equal(t, int64(90), rules.PayoutPercent)
	assert.Equal(t, []string{"youtu"}, rules.VideoLinkMarkers)
}

func TestFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("COIN_RATE", "100")
	t.Setenv("ADMIN_IDS", "111, 222,,333")
	t.Setenv("VIDEO_LINK_MARKERS", "youtu, vimeo.com")
	t.Setenv("AUDIT_INTERVAL", "90s")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acc")
	t.Setenv("R2_BUCKET_NAME", "proofs")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 90*time.Second, cfg.AuditInterval)
	assert.True(t, cfg.R2.Enabled())
	assert.Equal(t, "https://a.example,https://b.example", cfg.Origins())

	admins, err := cfg.Admins()
	require.NoError(t, err)
	assert.Equal(t, []int64{111, 222, 333}, admins)
	assert.Equal(t, int64(100), cfg.Rules().CoinRate)
	assert.Equal(t, []string{"youtu", "vimeo.com"}, cfg.Rules().VideoLinkMarkers)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_IDS", "12,boss")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "ADMIN_IDS")

	t.Setenv("ADMIN_IDS", "")
	t.Setenv("PAYOUT_PERCENT", "120")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "payout percent")
}

func TestFromEnvRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVICE_TOKEN", "token")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestAdminsReportsBadIDs(t *testing.T) {
	cfg := &Config{AdminIDs: "12,0x1f"}
	admins, err := cfg.Admins()
	assert.ErrorContains(t, err, `invalid id "0x1f"`)
	assert.Nil(t, admins)
}
