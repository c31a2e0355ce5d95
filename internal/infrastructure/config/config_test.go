package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ParsesYAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_ERP_PASSWORD", "s3cret")

	path := writeConfig(t, `
erp:
  base_url: https://erp.example.com
  username: svc-user
  password: ${TEST_ERP_PASSWORD}
  max_retries: 5
openai:
  api_key: sk-test
  model: gpt-4o-mini
server:
  port: 9090
  allowed_origins:
    - https://app.example.com
rules:
  min_score: 80
  ambiguity_delta: 3
goods_receipt:
  strategy: weighted
  movement_type: "105"
  min_score: 60
observability:
  logging:
    level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://erp.example.com", cfg.ERP.BaseURL)
	assert.Equal(t, "s3cret", cfg.ERP.Password)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)

	clientCfg := cfg.ERPClientConfig()
	assert.Equal(t, "svc-user", clientCfg.Username)
	assert.Equal(t, 5, clientCfg.MaxRetries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestEngineRules_OverridesOnlyNonZeroValues(t *testing.T) {
	path := writeConfig(t, `
rules:
  min_score: 80
  ambiguity_delta: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	rules := cfg.EngineRules()
	assert.Equal(t, 80.0, rules.MinScore)
	assert.Equal(t, 3.0, rules.AmbiguityDelta)
	assert.Equal(t, 0.02, rules.PriceTolerance)
	assert.Equal(t, 0.15, rules.AmountOverTolerance)
	assert.Equal(t, 0.30, rules.QuantityWeight)
}

func TestGoodsReceiptRules_Overrides(t *testing.T) {
	path := writeConfig(t, `
goods_receipt:
  strategy: weighted
  movement_type: "105"
  min_score: 60
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	rules := cfg.GoodsReceiptRules()
	assert.Equal(t, "105", rules.MovementType)
	assert.Equal(t, 60.0, rules.MinScore)
	assert.Equal(t, goodsreceipt.StrategyWeighted, cfg.Strategy())
}

func TestStrategy_DefaultsToExact(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, goodsreceipt.StrategyExact, cfg.Strategy())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ERP_BASE_URL", "https://erp.example.com")
	t.Setenv("PORT", "9191")
	t.Setenv("GR_STRATEGY", "weighted")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadFromEnv()

	assert.Equal(t, "https://erp.example.com", cfg.ERP.BaseURL)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, goodsreceipt.StrategyWeighted, cfg.Strategy())
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, 3, cfg.ERP.MaxRetries)
}

func TestLoadOrEnv_FallsBackToEnv(t *testing.T) {
	t.Setenv("ERP_BASE_URL", "https://env.example.com")

	cfg := LoadOrEnv(filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Equal(t, "https://env.example.com", cfg.ERP.BaseURL)
}
