// Package config loads and validates the typed application configuration.
// Configuration is read once at pipeline start and treated as immutable for
// the run.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"newslens/internal/core"
)

// Config holds all application configuration.
type Config struct {
	App        App        `mapstructure:"app"`
	Search     Search     `mapstructure:"search"`
	Selection  Selection  `mapstructure:"selection"`
	Extraction Extraction `mapstructure:"extraction"`
	Analysis   Analysis   `mapstructure:"analysis"`
	Cache      Cache      `mapstructure:"cache"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	DataDir  string `mapstructure:"data_dir"`
}

// Search holds news-search configuration.
type Search struct {
	Countries     []core.CountrySpec `mapstructure:"countries"` // Empty means the built-in catalog
	TimeoutMs     int                `mapstructure:"timeout_ms"`
	RetryAttempts int                `mapstructure:"retry_attempts"`
	UserAgent     string             `mapstructure:"user_agent"`
}

// Timeout returns the per-country search timeout as a duration.
func (s Search) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Selection holds article-selection configuration.
type Selection struct {
	PerCountry       map[string]int `mapstructure:"per_country"`
	BufferPerCountry int            `mapstructure:"buffer_per_country"`
	MaxForAnalysis   int            `mapstructure:"max_for_analysis"`
	AllowFallback    bool           `mapstructure:"allow_fallback"`
}

// Targets converts the selection config to the pipeline's SelectionTargets.
func (s Selection) Targets() core.SelectionTargets {
	perCountry := make(map[string]int, len(s.PerCountry))
	for code, n := range s.PerCountry {
		perCountry[strings.ToUpper(code)] = n
	}
	return core.SelectionTargets{
		PerCountry:       perCountry,
		BufferPerCountry: s.BufferPerCountry,
		MaxForAnalysis:   s.MaxForAnalysis,
		AllowFallback:    s.AllowFallback,
	}
}

// QualityThresholds gate extracted content before analysis.
type QualityThresholds struct {
	MinContentLength int     `mapstructure:"min_content_length"`
	MaxContentLength int     `mapstructure:"max_content_length"`
	MinWordCount     int     `mapstructure:"min_word_count"`
	MaxHTMLRatio     float64 `mapstructure:"max_html_ratio"`
	MinQualityScore  float64 `mapstructure:"min_quality_score"`
}

// Extraction holds content-extraction configuration.
type Extraction struct {
	Timeout         string            `mapstructure:"timeout"`
	BatchSize       int               `mapstructure:"batch_size"`
	RetryLowQuality bool              `mapstructure:"retry_low_quality"`
	Quality         QualityThresholds `mapstructure:"quality"`
}

// TimeoutDuration parses the per-item extraction timeout, defaulting to 15s.
func (e Extraction) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// ModelParams are per-model generation knobs passed through to the backend.
type ModelParams struct {
	Temperature    float32 `mapstructure:"temperature"`
	TopK           int     `mapstructure:"top_k"`
	TopP           float32 `mapstructure:"top_p"`
	ThinkingBudget int     `mapstructure:"thinking_budget"`
}

// Analysis holds model-invocation configuration.
type Analysis struct {
	ModelProvider    string                 `mapstructure:"model_provider"`    // Primary backend tag
	PreferredModels  []string               `mapstructure:"preferred_models"`  // Ordered fallback chain
	Models           map[string]ModelParams `mapstructure:"models"`            // Per-model knobs
	CompressionLevel string                 `mapstructure:"compression_level"` // short | medium | long
	MaxRetries       int                    `mapstructure:"max_retries"`
	RetryBaseDelay   string                 `mapstructure:"retry_base_delay"`
	GeminiAPIKey     string                 `mapstructure:"gemini_api_key"`
	GeminiModel      string                 `mapstructure:"gemini_model"`
	OllamaBaseURL    string                 `mapstructure:"ollama_base_url"`
	OllamaModel      string                 `mapstructure:"ollama_model"`
}

// RetryBase parses the retry backoff base delay, defaulting to 1s.
func (a Analysis) RetryBase() time.Duration {
	d, err := time.ParseDuration(a.RetryBaseDelay)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// Cache holds result-cache configuration.
type Cache struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	TTL       string `mapstructure:"ttl"`
}

// TTLDuration parses the cache TTL, defaulting to 1h.
func (c Cache) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads configuration from the config file, environment, and defaults.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if present
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".newslens")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	viper.SetEnvPrefix("NEWSLENS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// API keys may also come from bare env vars for compatibility with the
	// usual GEMINI_API_KEY convention.
	if cfg.Analysis.GeminiAPIKey == "" {
		cfg.Analysis.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if issues := cfg.Validate(); len(issues) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n  - %s", strings.Join(issues, "\n  - "))
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it if necessary.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return cfg
	}
	return globalConfig
}

// Reset clears the cached global config. Intended for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// Countries returns the configured country catalog, falling back to the
// built-in one when the config names none.
func (c *Config) Countries() []core.CountrySpec {
	if len(c.Search.Countries) > 0 {
		return c.Search.Countries
	}
	return core.DefaultCountries
}

// Validate checks the configuration and returns a list of issues.
// An empty slice means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	catalog := core.NewCountryCatalog(c.Countries())
	for code, n := range c.Selection.PerCountry {
		if _, ok := catalog.Lookup(strings.ToUpper(code)); !ok {
			issues = append(issues, fmt.Sprintf("selection.per_country: unknown country code %q", code))
		}
		if n < 0 {
			issues = append(issues, fmt.Sprintf("selection.per_country.%s: count must be >= 0", code))
		}
	}
	if c.Selection.BufferPerCountry < 0 {
		issues = append(issues, "selection.buffer_per_country must be >= 0")
	}
	if c.Selection.MaxForAnalysis < 1 {
		issues = append(issues, "selection.max_for_analysis must be >= 1")
	}
	if c.Search.TimeoutMs <= 0 {
		issues = append(issues, "search.timeout_ms must be > 0")
	}
	if c.Search.RetryAttempts < 0 {
		issues = append(issues, "search.retry_attempts must be >= 0")
	}
	if c.Extraction.BatchSize < 1 {
		issues = append(issues, "extraction.batch_size must be >= 1")
	}
	if d, err := time.ParseDuration(c.Extraction.Timeout); err != nil || d <= 0 {
		issues = append(issues, "extraction.timeout must be a positive duration")
	}
	if len(c.Analysis.PreferredModels) == 0 {
		issues = append(issues, "analysis.preferred_models must name at least one backend")
	}
	switch c.Analysis.CompressionLevel {
	case "", "short", "medium", "long":
	default:
		issues = append(issues, fmt.Sprintf("analysis.compression_level: unknown level %q", c.Analysis.CompressionLevel))
	}

	return issues
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.data_dir", ".newslens-cache")

	viper.SetDefault("search.timeout_ms", 10000)
	viper.SetDefault("search.retry_attempts", 2)
	viper.SetDefault("search.user_agent", "newslens/1.0")

	viper.SetDefault("selection.per_country", map[string]int{"US": 2, "GB": 2, "BR": 2, "DE": 2, "IN": 2})
	viper.SetDefault("selection.buffer_per_country", 2)
	viper.SetDefault("selection.max_for_analysis", 10)
	viper.SetDefault("selection.allow_fallback", true)

	viper.SetDefault("extraction.timeout", "15s")
	viper.SetDefault("extraction.batch_size", 5)
	viper.SetDefault("extraction.retry_low_quality", true)
	viper.SetDefault("extraction.quality.min_content_length", 300)
	viper.SetDefault("extraction.quality.max_content_length", 50000)
	viper.SetDefault("extraction.quality.min_word_count", 60)
	viper.SetDefault("extraction.quality.max_html_ratio", 0.1)
	viper.SetDefault("extraction.quality.min_quality_score", 60)

	viper.SetDefault("analysis.model_provider", "gemini")
	viper.SetDefault("analysis.preferred_models", []string{"gemini", "ollama"})
	viper.SetDefault("analysis.compression_level", "medium")
	viper.SetDefault("analysis.max_retries", 2)
	viper.SetDefault("analysis.retry_base_delay", "1s")
	viper.SetDefault("analysis.gemini_model", "gemini-flash-lite-latest")
	viper.SetDefault("analysis.ollama_base_url", "http://localhost:11434")
	viper.SetDefault("analysis.ollama_model", "llama3.2:3b")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.directory", ".newslens-cache")
	viper.SetDefault("cache.ttl", "1h")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}
