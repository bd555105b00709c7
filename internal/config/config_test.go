package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func chtmp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chtmp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "kensho.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "10-Q", cfg.EDGAR.Form)
	assert.Equal(t, "us-gaap", cfg.EDGAR.Taxonomy)
	assert.Equal(t, 30, cfg.EDGAR.TimeoutSecs)
	assert.Equal(t, 3, cfg.EDGAR.MaxRetries)
	assert.Contains(t, cfg.EDGAR.UserAgent, "@", "EDGAR requires a contact address in the User-Agent")
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
	assert.Equal(t, 40, cfg.Translate.BatchSize)
	assert.Equal(t, 90, cfg.Translate.CacheTTLDays)
	assert.Equal(t, "reports", cfg.Report.OutputDir)
	assert.Equal(t, 0, cfg.Report.MinImportance)
}

func TestLoadFromYAML(t *testing.T) {
	chtmp(t)
	dir, _ := os.Getwd()

	content := `
store:
  driver: postgres
  database_url: postgres://localhost/kensho
log:
  level: debug
  format: console
server:
  port: 9090
report:
  min_importance: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Report.MinImportance)
	// Defaults still apply for unset values
	assert.Equal(t, "10-Q", cfg.EDGAR.Form)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtmp(t)
	dir, _ := os.Getwd()

	content := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	t.Setenv("KENSHO_STORE_DRIVER", "postgres")
	t.Setenv("KENSHO_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestConfigYAMLRoundTrip(t *testing.T) {
	cfg := validDefaults()
	cfg.EDGAR.Form = "10-Q"
	cfg.Report.MinImportance = 3

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_importance: 3")

	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, cfg.Store.Driver, got.Store.Driver)
	assert.Equal(t, cfg.EDGAR.Form, got.EDGAR.Form)
	assert.Equal(t, 3, got.Report.MinImportance)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtmp(t)

	t.Setenv("KENSHO_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config populated like the shipped defaults.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "kensho.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateRun_TranslationNeedsKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_TranslationDisabled(t *testing.T) {
	cfg := validDefaults()
	cfg.Translate.Disabled = true

	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateAsk_NeedsKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("ask")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Translate.Disabled = true
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
}

func TestValidateMinImportanceBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Translate.Disabled = true

	cfg.Report.MinImportance = 6
	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_importance")

	cfg.Report.MinImportance = 3
	assert.NoError(t, cfg.Validate("run"))
}
