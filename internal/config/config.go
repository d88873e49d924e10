package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Providers accepted for categorizer.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// DefaultCategories is the fixed list transactions are sorted into.
var DefaultCategories = []string{
	"Food & Beverage",
	"Health & Wellness",
	"Travel (Taxi / Uber / Lyft / Revel)",
	"Travel (Subway / MTA)",
	"Gas & Fuel",
	"Travel (Flights / Trains)",
	"Hotel",
	"Groceries",
	"Entertainment / Leisure Activities",
	"Shopping",
	"Income / Refunds",
	"Utilities (Electricity, Telecom, Internet)",
	"Other (Miscellaneous)",
}

// Config represents the service configuration file.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	Payment     PaymentConfig     `yaml:"payment"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
}

// CategorizerConfig selects and tunes the model used to categorize
// transactions. API keys only come from the environment.
type CategorizerConfig struct {
	Provider     string        `yaml:"provider"` // "openai" or "gemini"
	OpenAIAPIKey string        `yaml:"-"`
	OpenAIModel  string        `yaml:"openai_model"`
	GeminiAPIKey string        `yaml:"-"`
	GeminiModel  string        `yaml:"gemini_model"`
	MaxTokens    int           `yaml:"max_tokens"`
	Temperature  float32       `yaml:"temperature"`
	Categories   []string      `yaml:"categories"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	RatePerSec   float64       `yaml:"rate_per_second"`
	Burst        int           `yaml:"burst"`
}

// PaymentConfig prices statement processing.
type PaymentConfig struct {
	StripeSecretKey       string `yaml:"-"`
	PricePerDocumentCents int64  `yaml:"price_per_document_cents"`
	Currency              string `yaml:"currency"`
}

// Default returns a Config with the service's standard settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			LogLevel:    "info",
			BodyLimitMB: 32,
		},
		Categorizer: CategorizerConfig{
			Provider:    ProviderOpenAI,
			OpenAIModel: "gpt-4.1-mini",
			GeminiModel: "gemini-2.5-flash",
			MaxTokens:   200,
			Temperature: 0.3,
			Categories:  append([]string(nil), DefaultCategories...),
			CacheTTL:    time.Hour,
			RatePerSec:  5,
			Burst:       5,
		},
		Payment: PaymentConfig{
			PricePerDocumentCents: 200,
			Currency:              "usd",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is not empty), then a .env file in the working directory, then the
// process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// A missing .env is normal; the environment is used as is.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file. API keys are never written.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the settings can be used to start the service.
func (c *Config) Validate() error {
	switch c.Categorizer.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown categorizer provider %q", c.Categorizer.Provider)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is empty")
	}
	if c.Payment.PricePerDocumentCents <= 0 {
		return fmt.Errorf("price per document must be positive, got %d", c.Payment.PricePerDocumentCents)
	}
	if len(c.Categorizer.Categories) == 0 {
		return fmt.Errorf("no categories configured")
	}
	return nil
}

// BodyLimit returns the request body limit in bytes.
func (c *Config) BodyLimit() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.LogLevel, "LOG_LEVEL")
	setString(&c.Categorizer.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Categorizer.OpenAIModel, "OPENAI_MODEL")
	setString(&c.Categorizer.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Categorizer.GeminiModel, "GEMINI_MODEL")
	setString(&c.Payment.StripeSecretKey, "STRIPE_SECRET_KEY")

	if v, ok := lookup("CATEGORIZER_PROVIDER"); ok {
		c.Categorizer.Provider = strings.ToLower(v)
	}
	if v, ok := lookup("PRICE_PER_PDF_CENTS"); ok {
		cents, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PRICE_PER_PDF_CENTS: %w", err)
		}
		c.Payment.PricePerDocumentCents = cents
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}
