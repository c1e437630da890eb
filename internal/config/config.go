// Package config loads planner settings from a YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the public ArtifactsMMO API.
const DefaultAPIURL = "https://api.artifactsmmo.com"

// Config holds the planner configuration.
type Config struct {
	APIURL      string        `yaml:"api_url" validate:"required,url"`
	APIToken    string        `yaml:"api_token"`
	APITimeout  time.Duration `yaml:"api_timeout" validate:"gt=0"`
	CacheSize   int           `yaml:"cache_size" validate:"gte=0"`
	CacheTTL    time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	DBPath      string        `yaml:"db_path" validate:"required"`
	HTTPAddr    string        `yaml:"http_addr" validate:"required"`
	LogLevel    string        `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string        `yaml:"log_format" validate:"oneof=text json"`
	Environment string        `yaml:"environment"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		APIURL:      DefaultAPIURL,
		APITimeout:  10 * time.Second,
		CacheSize:   1024,
		CacheTTL:    5 * time.Minute,
		DBPath:      "artifacts_knowledge.db",
		HTTPAddr:    ":8080",
		LogLevel:    "info",
		LogFormat:   "text",
		Environment: "dev",
	}
}

// Load reads the YAML file at path (if non-empty), then a .env file in the
// working directory (if present), then environment variables, and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// A missing .env is normal; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	c.APIURL = getEnv("ARTIFACTS_API_URL", c.APIURL)
	c.APIToken = getEnv("ARTIFACTS_TOKEN", c.APIToken)
	c.DBPath = getEnv("CRAFTING_DB", c.DBPath)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", c.LogFormat))
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	if v, ok := os.LookupEnv("API_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid API_CACHE_SIZE value: %w", err)
		}
		c.CacheSize = n
	}
	if v, ok := os.LookupEnv("API_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_CACHE_TTL value: %w", err)
		}
		c.CacheTTL = d
	}
	if v, ok := os.LookupEnv("API_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT value: %w", err)
		}
		c.APITimeout = d
	}

	return nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, e := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", e.Field(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
