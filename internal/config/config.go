// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port            string `mapstructure:"PORT"`
	Env             string `mapstructure:"APP_ENV"`
	AllowedOrigins  string `mapstructure:"ALLOWED_ORIGINS"`
	UploadDir       string `mapstructure:"UPLOAD_DIR"`
	UploadURLPrefix string `mapstructure:"UPLOAD_URL_PREFIX"`
	MaxUploadSizeMB int    `mapstructure:"MAX_UPLOAD_SIZE_MB"`
	MaxFilesPerPost int    `mapstructure:"MAX_FILES_PER_POST"`
	DefaultUser     string `mapstructure:"DEFAULT_USER"`
	PreviewsEnabled bool   `mapstructure:"PREVIEWS_ENABLED"`
	PreviewMaxPx    int    `mapstructure:"PREVIEW_MAX_PX"`

	SalesMockDelay time.Duration `mapstructure:"SALES_MOCK_DELAY"`

	RedisURL        string        `mapstructure:"REDIS_URL"`
	PostRateLimit   int           `mapstructure:"POST_RATE_LIMIT"`
	PostRateWindow  time.Duration `mapstructure:"POST_RATE_WINDOW"`
	ReadTimeout     time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"WRITE_TIMEOUT"`
	TracingEnabled  bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string        `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64       `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults(viper.GetViper())

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("UPLOAD_DIR", "public/uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("MAX_UPLOAD_SIZE_MB", 50)
	v.SetDefault("MAX_FILES_PER_POST", 10)
	v.SetDefault("DEFAULT_USER", "DemoUser")
	v.SetDefault("PREVIEWS_ENABLED", true)
	v.SetDefault("PREVIEW_MAX_PX", 320)
	v.SetDefault("SALES_MOCK_DELAY", "500ms")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("POST_RATE_LIMIT", 30)
	v.SetDefault("POST_RATE_WINDOW", "1m")
	v.SetDefault("READ_TIMEOUT", "30s")
	v.SetDefault("WRITE_TIMEOUT", "30s")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

func (c *Config) normalize() {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.UploadURLPrefix = "/" + strings.Trim(strings.TrimSpace(c.UploadURLPrefix), "/")
	c.TracingExporter = strings.ToLower(strings.TrimSpace(c.TracingExporter))
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// MaxUploadSizeBytes is the request body limit derived from MaxUploadSizeMB.
func (c *Config) MaxUploadSizeBytes() int {
	return c.MaxUploadSizeMB * 1024 * 1024
}

// Validate ensures that required configuration values are present and sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("UPLOAD_DIR is required")
	}
	if c.UploadURLPrefix == "/" {
		return errors.New("UPLOAD_URL_PREFIX must not be the site root")
	}
	if c.MaxUploadSizeMB <= 0 {
		return errors.New("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.MaxFilesPerPost <= 0 {
		return errors.New("MAX_FILES_PER_POST must be positive")
	}
	if strings.TrimSpace(c.DefaultUser) == "" {
		return errors.New("DEFAULT_USER is required")
	}
	if c.SalesMockDelay < 0 {
		return errors.New("SALES_MOCK_DELAY must not be negative")
	}
	if c.PreviewsEnabled && c.PreviewMaxPx <= 0 {
		return errors.New("PREVIEW_MAX_PX must be positive when previews are enabled")
	}
	switch c.TracingExporter {
	case "", "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported TRACING_EXPORTER %q", c.TracingExporter)
	}

	if c.IsProduction() && c.AllowedOrigins == "*" {
		log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
	}

	return nil
}
