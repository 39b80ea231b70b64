package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
shopify:
  store_domain: testograph.myshopify.com
  access_token: shpat_test123
  api_version: "2024-10"
speedy:
  endpoint: https://api.speedy.bg/v1
  api_key: speedy-key
storage:
  database_path: /tmp/test.db
reconcile:
  pacing_ms: 250
  delivered_phrases:
    - "доставена"
    - "delivered"
observability:
  logging:
    level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testograph.myshopify.com", cfg.Shopify.StoreDomain)
	assert.Equal(t, "shpat_test123", cfg.Shopify.AccessToken)
	assert.Equal(t, "speedy-key", cfg.Speedy.APIKey)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 250, cfg.Reconcile.PacingMS)
	assert.Len(t, cfg.Reconcile.DeliveredPhrases, 2)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_SHOPIFY_TOKEN", "shpat_from_env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
shopify:
  store_domain: testograph.myshopify.com
  access_token: ${TEST_SHOPIFY_TOKEN}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shpat_from_env", cfg.Shopify.AccessToken)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg := LoadFromEnv()

	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
	assert.NotEmpty(t, cfg.Storage.DatabasePath)
	assert.Equal(t, 600, cfg.Reconcile.PacingMS)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shopify")
}

func TestPacingInterval(t *testing.T) {
	assert.Equal(t, "250ms", ReconcileConfig{PacingMS: 250}.PacingInterval().String())
	assert.Equal(t, "600ms", ReconcileConfig{}.PacingInterval().String(), "zero falls back to default")
}

func TestLoadOrEnvWithPath_FallsBack(t *testing.T) {
	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NotNil(t, cfg)
	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
}
