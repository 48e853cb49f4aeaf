package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IA_JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "admin", cfg.CPTrigger)
	assert.Equal(t, "/actions/instant-analytics", cfg.ActionBase)
	assert.Equal(t, "https://www.google-analytics.com/collect", cfg.CollectURL)
	assert.Equal(t, 5*time.Second, cfg.SendTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.ClickHouse.Enabled())
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDev())
}

func TestLoad_PrefixedAndFallbackNames(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "from-unprefixed")
	t.Setenv("IA_PORT", "9090")
	t.Setenv("IA_APP_ENV", "dev")
	t.Setenv("IA_CP_TRIGGER", "/cms/")
	t.Setenv("IA_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("IA_CLICKHOUSE_HOST", "ch")
	t.Setenv("IA_CLICKHOUSE_NATIVE_PORT", "9440")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-unprefixed", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "cms", cfg.CPTrigger)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.ClickHouse.Enabled())
	assert.Equal(t, "ch:9440", cfg.ClickHouse.Addr())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("IA_JWT_SECRET_KEY", "")
	t.Setenv("JWT_SECRET_KEY", "")
	os.Unsetenv("IA_JWT_SECRET_KEY")
	os.Unsetenv("JWT_SECRET_KEY")

	_, err := Load()
	assert.Error(t, err)
}

func TestAnalyticsSettings_AppliesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instantanalytics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("googleAnalyticsTracking: UA-FILE-1\n"), 0o600))

	cfg := &Config{Env: AppEnvDev, SettingsPath: path}
	s, err := cfg.AnalyticsSettings()
	require.NoError(t, err)
	assert.Equal(t, "UA-FILE-1", s.GoogleAnalyticsTracking)
	assert.True(t, s.DevMode)

	cfg.TrackingID = "UA-ENV-2"
	cfg.Env = "production"
	s, err = cfg.AnalyticsSettings()
	require.NoError(t, err)
	assert.Equal(t, "UA-ENV-2", s.GoogleAnalyticsTracking)
	assert.False(t, s.DevMode)
}

func TestActionRoute(t *testing.T) {
	assert.Equal(t, "/actions/instant-analytics", (&Config{ActionBase: "/actions/instant-analytics/"}).ActionRoute())
	assert.Equal(t, "/actions/ia", (&Config{ActionBase: "https://shop.example.com/actions/ia"}).ActionRoute())
	assert.Empty(t, (&Config{ActionBase: "https://shop.example.com"}).ActionRoute())
}
