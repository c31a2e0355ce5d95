// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback)
//
// Business thresholds live under `rules:` / `goods_receipt:`; unset values
// fall back to the engine defaults so a minimal config stays valid.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/invopost/reconciler/internal/adapters/erp"
	"github.com/invopost/reconciler/internal/domain/goodsreceipt"
	"github.com/invopost/reconciler/internal/domain/reconciler"
)

// Config represents the entire application configuration.
type Config struct {
	ERP           ERPConfig           `yaml:"erp"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Server        ServerConfig        `yaml:"server"`
	Rules         RulesConfig         `yaml:"rules"`
	GoodsReceipt  GoodsReceiptConfig  `yaml:"goods_receipt"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ERPConfig holds the OData gateway connection settings.
type ERPConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// OpenAIConfig holds the optional semantic-similarity backend settings.
// An empty APIKey disables the backend; the deterministic comparer is used.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RulesConfig overrides engine thresholds. Zero values keep the defaults.
type RulesConfig struct {
	MinScore            float64 `yaml:"min_score"`
	AmbiguityDelta      float64 `yaml:"ambiguity_delta"`
	PriceTolerance      float64 `yaml:"price_tolerance"`
	AmountOverTolerance float64 `yaml:"amount_over_tolerance"`
}

// GoodsReceiptConfig overrides verification thresholds and picks the
// default strategy.
type GoodsReceiptConfig struct {
	Strategy     string  `yaml:"strategy"`
	MovementType string  `yaml:"movement_type"`
	MinScore     float64 `yaml:"min_score"`
}

// ObservabilityConfig holds observability settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads and parses the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ERP_PASSWORD}).
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() *Config {
	return &Config{
		ERP: ERPConfig{
			BaseURL:    os.Getenv("ERP_BASE_URL"),
			Username:   os.Getenv("ERP_USERNAME"),
			Password:   os.Getenv("ERP_PASSWORD"),
			MaxRetries: getEnvInt("ERP_MAX_RETRIES", 3),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		GoodsReceipt: GoodsReceiptConfig{
			Strategy: getEnv("GR_STRATEGY", string(goodsreceipt.StrategyExact)),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level: getEnv("LOG_LEVEL", "info"),
			},
		},
	}
}

// LoadOrEnv tries to load from the given path, falling back to environment
// variables when the file is absent.
func LoadOrEnv(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// EngineRules builds the immutable engine rule set: defaults overridden by
// any non-zero config values.
func (c *Config) EngineRules() reconciler.Rules {
	rules := reconciler.DefaultRules()
	if c.Rules.MinScore > 0 {
		rules.MinScore = c.Rules.MinScore
	}
	if c.Rules.AmbiguityDelta > 0 {
		rules.AmbiguityDelta = c.Rules.AmbiguityDelta
	}
	if c.Rules.PriceTolerance > 0 {
		rules.PriceTolerance = c.Rules.PriceTolerance
	}
	if c.Rules.AmountOverTolerance > 0 {
		rules.AmountOverTolerance = c.Rules.AmountOverTolerance
	}
	return rules
}

// GoodsReceiptRules builds the verifier rule set from defaults plus
// overrides.
func (c *Config) GoodsReceiptRules() goodsreceipt.Rules {
	rules := goodsreceipt.DefaultRules()
	if c.GoodsReceipt.MovementType != "" {
		rules.MovementType = c.GoodsReceipt.MovementType
	}
	if c.GoodsReceipt.MinScore > 0 {
		rules.MinScore = c.GoodsReceipt.MinScore
	}
	return rules
}

// Strategy returns the configured verification strategy, defaulting to the
// exact header-text match.
func (c *Config) Strategy() goodsreceipt.Strategy {
	if c.GoodsReceipt.Strategy == "" {
		return goodsreceipt.StrategyExact
	}
	return goodsreceipt.Strategy(c.GoodsReceipt.Strategy)
}

// ERPClientConfig maps the config section onto the gateway settings.
func (c *Config) ERPClientConfig() erp.Config {
	return erp.Config{
		BaseURL:    c.ERP.BaseURL,
		Username:   c.ERP.Username,
		Password:   c.ERP.Password,
		Timeout:    c.ERP.Timeout,
		MaxRetries: c.ERP.MaxRetries,
	}
}

// getEnv retrieves an environment variable with a fallback default.
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback
// default.
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
