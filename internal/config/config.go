// Package config loads application configuration from config.yaml and
// KENSHO_-prefixed environment variables, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Translate TranslateConfig `yaml:"translate" mapstructure:"translate"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// EDGARConfig configures SEC EDGAR access. The SEC requires a User-Agent
// identifying the requester with a contact address.
type EDGARConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	Form        string `yaml:"form" mapstructure:"form"`
	Taxonomy    string `yaml:"taxonomy" mapstructure:"taxonomy"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	HaikuModel  string `yaml:"haiku_model" mapstructure:"haiku_model"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
}

// TranslateConfig configures Korean translation of report labels.
type TranslateConfig struct {
	BatchSize    int  `yaml:"batch_size" mapstructure:"batch_size"`
	CacheTTLDays int  `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	Disabled     bool `yaml:"disabled" mapstructure:"disabled"`
}

// ReportConfig configures report rendering.
type ReportConfig struct {
	OutputDir      string `yaml:"output_dir" mapstructure:"output_dir"`
	MinImportance  int    `yaml:"min_importance" mapstructure:"min_importance"`
	StatementsOnly bool   `yaml:"statements_only" mapstructure:"statements_only"`
}

// ServerConfig configures the HTTP report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KENSHO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "kensho.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("edgar.user_agent", "kensho-cli/1.0 (research@dimi-labs.com)")
	v.SetDefault("edgar.form", "10-Q")
	v.SetDefault("edgar.taxonomy", "us-gaap")
	v.SetDefault("edgar.timeout_secs", 30)
	v.SetDefault("edgar.max_retries", 3)
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("translate.batch_size", 40)
	v.SetDefault("translate.cache_ttl_days", 90)
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.min_importance", 0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration required for the given mode is
// present. Modes: "run" (scrape pipeline), "ask" (QA session), "serve"
// (HTTP server).
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		if !c.Translate.Disabled && c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required unless translate.disabled is set")
		}
	case "ask":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Report.MinImportance < 0 || c.Report.MinImportance > 5 {
		problems = append(problems, "report.min_importance must be between 0 and 5")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
