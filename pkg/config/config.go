// Package config loads askdb-engine configuration from an optional YAML
// file with environment variable overrides. Secrets come from the
// environment only.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askdb-engine.
// Environment variables always override YAML values.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // set at load time via ldflags

	Database DatabaseConfig `yaml:"database"`
	Policy   PolicyConfig   `yaml:"policy"`
	LLM      LLMConfig      `yaml:"llm"`
	Audit    AuditConfig    `yaml:"audit"`
	Filters  FilterConfig   `yaml:"filters"`
}

// DatabaseConfig points at the target database that questions run against.
type DatabaseConfig struct {
	// URL is the full connection string. Secret - env only.
	URL            string `yaml:"-" env:"DATABASE_URL"`
	MaxConnections int32  `yaml:"max_connections" env:"DATABASE_MAX_CONNECTIONS" env-default:"10"`
	// QueryTimeoutSeconds bounds a single read-only execution.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"DATABASE_QUERY_TIMEOUT_SECONDS" env-default:"15"`
}

// PolicyConfig carries the access policy values consumed at process start.
type PolicyConfig struct {
	// AllowedTablesStr is a comma-separated allow-list; empty means all.
	AllowedTablesStr string `yaml:"allowed_tables" env:"DATABASE_ALLOWED_TABLES" env-default:""`
	// RestrictedTablesStr is a comma-separated deny-list; restriction wins.
	RestrictedTablesStr string `yaml:"restricted_tables" env:"DATABASE_RESTRICTED_TABLES" env-default:""`
	// ExcludedColumnsStr is a comma-separated list of columns hidden from
	// the generator, rejected in SQL, and redacted from results.
	ExcludedColumnsStr string `yaml:"excluded_columns" env:"DATABASE_EXCLUDED_COLUMNS" env-default:""`
	MaxRows            int    `yaml:"max_rows" env:"QUERY_MAX_ROWS" env-default:"100"`
	MaxRetries         int    `yaml:"max_retries" env:"LLM_MAX_RETRIES" env-default:"3"`
	SoftDeleteColumn   string `yaml:"soft_delete_column" env:"SOFT_DELETE_COLUMN" env-default:"deleted_at"`
	// SoftDeletePredicatesStr lists accepted soft-delete filter shapes,
	// separated by "|", e.g. "IS NULL|= false".
	SoftDeletePredicatesStr string `yaml:"soft_delete_predicates" env:"SOFT_DELETE_PREDICATES" env-default:"IS NULL"`
	ResponseMaxWords        int    `yaml:"response_max_words" env:"RESPONSE_MAX_WORDS" env-default:"30"`
	CurrencySymbol          string `yaml:"currency_symbol" env:"CURRENCY_SYMBOL" env-default:"$"`
}

// LLMConfig configures the generator backend.
type LLMConfig struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:""`
	// APIKey is secret - env only.
	APIKey string `yaml:"-" env:"LLM_API_KEY"`
	// TimeoutSeconds bounds a single generator call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"30"`
}

// AuditConfig configures the audit sink.
type AuditConfig struct {
	// DBPath is the SQLite file holding query records, separate from the
	// target database.
	DBPath string `yaml:"db_path" env:"AUDIT_DB_PATH" env-default:"data/audit.db"`
}

// FilterConfig toggles the inbound pre-filters.
type FilterConfig struct {
	SmallTalkEnabled bool `yaml:"smalltalk_enabled" env:"SMALLTALK_ENABLED" env-default:"true"`
	ProfanityEnabled bool `yaml:"profanity_enabled" env:"PROFANITY_FILTER_ENABLED" env-default:"true"`
}

// Load reads config.yaml if present, then applies environment overrides,
// then validates.
func Load(version string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that must hold at startup.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("LLM_PROVIDER must be \"openai\" or \"anthropic\", got %q", c.LLM.Provider)
	}
	if c.Policy.MaxRows <= 0 {
		return fmt.Errorf("QUERY_MAX_ROWS must be positive, got %d", c.Policy.MaxRows)
	}
	if c.Policy.MaxRetries <= 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must be positive, got %d", c.Policy.MaxRetries)
	}
	return nil
}

// AllowedTables returns the parsed allow-list.
func (p *PolicyConfig) AllowedTables() []string {
	return splitCSV(p.AllowedTablesStr)
}

// RestrictedTables returns the parsed deny-list.
func (p *PolicyConfig) RestrictedTables() []string {
	return splitCSV(p.RestrictedTablesStr)
}

// ExcludedColumns returns the parsed excluded column list.
func (p *PolicyConfig) ExcludedColumns() []string {
	return splitCSV(p.ExcludedColumnsStr)
}

// SoftDeletePredicates returns the accepted soft-delete filter shapes.
func (p *PolicyConfig) SoftDeletePredicates() []string {
	var out []string
	for _, part := range strings.Split(p.SoftDeletePredicatesStr, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
