package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/config"
	"github.com/warp/wage-engine/wage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "wage.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL())
	assert.Equal(t, wage.DefaultPolicy(), cfg.Policy)
	assert.Equal(t, 4, cfg.Summary.Workers)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	sh, err := cfg.ShabbatDefaults()
	require.NoError(t, err)
	assert.Equal(t, 16*60, sh.Enter)
	assert.Equal(t, 22*60, sh.Exit)
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	// GIVEN: a partial config with an env placeholder
	t.Setenv("WAGE_DB_PATH", "/var/lib/wage/prod.db")
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: ${WAGE_DB_PATH}
log:
  level: debug
policy:
  standby_cancel_percent: 80
shabbat:
  enter: "15:30"
`)

	// WHEN: loaded
	cfg, err := config.Load(path)
	require.NoError(t, err)

	// THEN: placeholders are expanded and unset fields default
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "/var/lib/wage/prod.db", cfg.Database.Path)
	assert.Equal(t, 80, cfg.Policy.StandbyCancelPercent)
	assert.Equal(t, 1, cfg.Policy.BreakThreshold)
	assert.Equal(t, []int{0, 50, 50, 100}, cfg.Policy.SickPercents)

	sh, err := cfg.ShabbatDefaults()
	require.NoError(t, err)
	assert.Equal(t, 15*60+30, sh.Enter)
	assert.Equal(t, 22*60, sh.Exit)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"bad yaml":      "server: [",
		"bad level":     "log: {level: loud}",
		"bad clock":     `shabbat: {enter: "sunset"}`,
		"bad port":      "server: {port: 70000}",
		"cancel > 100%": "policy: {standby_cancel_percent: 120}",
	}
	for name, body := range cases {
		_, err := config.Load(writeConfig(t, body))
		assert.Error(t, err, name)
	}

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
