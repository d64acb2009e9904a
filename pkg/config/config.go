package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

const (
	BackendGenAI      = "genai"
	BackendLangChain  = "langchaingo"
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

var (
	ErrMissingAPIKey  = errors.New("GOOGLE_API_KEY is required")
	ErrInvalidBackend = errors.New("invalid suggestion backend")
)

type Config struct {
	GoogleApiKey      string   `mapstructure:"google_api_key"`
	TextModel         string   `mapstructure:"text_model"`
	ImageModel        string   `mapstructure:"image_model"`
	SuggestionBackend string   `mapstructure:"suggestion_backend"`
	Port              string   `mapstructure:"port"`
	Environment       string   `mapstructure:"environment"`
	AllowedOrigins    []string `mapstructure:"allowed_origins"`
	LogLevel          string   `mapstructure:"log_level"`
	MaxBuyingOptions  int      `mapstructure:"max_buying_options"`
	ProviderRateLimit float64  `mapstructure:"provider_rate_limit"`
	ProviderBurst     int      `mapstructure:"provider_burst"`
}

type LogConfig struct {
	Level       string
	Environment string
}

func (c *Config) Log() LogConfig {
	return LogConfig{Level: c.LogLevel, Environment: c.Environment}
}

// Load reads config.yaml (optional) and the environment, then validates the result.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	// the key may come under any of the names the Gemini tooling uses
	if err := v.BindEnv("google_api_key", "GOOGLE_API_KEY", "GEMINI_API_KEY", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key: %w", err)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("google_api_key", "")
	v.SetDefault("text_model", DefaultTextModel)
	v.SetDefault("image_model", DefaultImageModel)
	v.SetDefault("suggestion_backend", BackendGenAI)
	v.SetDefault("port", "8080")
	v.SetDefault("environment", "development")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("max_buying_options", 3)
	v.SetDefault("provider_rate_limit", 0)
	v.SetDefault("provider_burst", 4)
}

func (c *Config) Validate() error {
	if c.GoogleApiKey == "" {
		return ErrMissingAPIKey
	}

	switch c.SuggestionBackend {
	case BackendGenAI, BackendLangChain:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.SuggestionBackend)
	}

	if c.MaxBuyingOptions <= 0 {
		return fmt.Errorf("max_buying_options must be positive, got %d", c.MaxBuyingOptions)
	}

	if c.ProviderRateLimit < 0 {
		return fmt.Errorf("provider_rate_limit must not be negative, got %v", c.ProviderRateLimit)
	}

	return nil
}
