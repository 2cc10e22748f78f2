// Package config loads application configuration from file and
// environment, with sensible defaults for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lingualoop/lingualoop/internal/llm"
	"github.com/lingualoop/lingualoop/internal/store"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the sqlite file path (":memory:" for in-memory).
	Path string `mapstructure:"path"`
}

// StoreConfig converts to the store's connection config.
func (c DatabaseConfig) StoreConfig() store.Config {
	if c.Driver == "sqlite" {
		return store.Config{Driver: "sqlite", DSN: c.Path}
	}
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
	return store.Config{Driver: "postgres", DSN: dsn}
}

// AuthConfig holds token verification configuration. The service only
// verifies bearer tokens; user management lives elsewhere.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig holds evaluation gateway configuration.
type LLMConfig struct {
	Provider         string        `mapstructure:"provider"`
	AnthropicAPIKey  string        `mapstructure:"anthropic_api_key"`
	AnthropicModel   string        `mapstructure:"anthropic_model"`
	OpenAIAPIKey     string        `mapstructure:"openai_api_key"`
	OpenAIModel      string        `mapstructure:"openai_model"`
	OpenAIBaseURL    string        `mapstructure:"openai_base_url"`
	GeminiAPIKey     string        `mapstructure:"gemini_api_key"`
	GeminiModel      string        `mapstructure:"gemini_model"`
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`
	Timeout          time.Duration `mapstructure:"timeout"`
}

// GatewayConfig converts to the llm package's config, keeping its
// defaults for anything unset.
func (c LLMConfig) GatewayConfig() llm.Config {
	cfg := llm.DefaultConfig()
	if c.Provider != "" {
		cfg.Provider = c.Provider
	}
	cfg.Anthropic.APIKey = c.AnthropicAPIKey
	if c.AnthropicModel != "" {
		cfg.Anthropic.Model = c.AnthropicModel
	}
	cfg.OpenAI.APIKey = c.OpenAIAPIKey
	cfg.OpenAI.BaseURL = c.OpenAIBaseURL
	if c.OpenAIModel != "" {
		cfg.OpenAI.Model = c.OpenAIModel
	}
	cfg.Gemini.APIKey = c.GeminiAPIKey
	if c.GeminiModel != "" {
		cfg.Gemini.Model = c.GeminiModel
	}
	if c.RetryMaxAttempts > 0 {
		cfg.Retry.MaxAttempts = c.RetryMaxAttempts
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	return cfg
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// Environment variables use the LINGUALOOP_ prefix with underscores,
// e.g. LINGUALOOP_SERVER_PORT or LINGUALOOP_LLM_OPENAI_API_KEY.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("lingualoop")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvPrefix("LINGUALOOP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "lingualoop")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "lingualoop.db")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.retry_max_attempts", 3)
	v.SetDefault("llm.timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}
