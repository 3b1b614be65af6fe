// Package config holds the run configuration shared by every command.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matsen/paperrank/internal/compose"
)

// ErrInvalidConfig indicates a configuration value outside its allowed range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the effective configuration for a run. It is built once by Load
// and passed to each component's constructor.
type Config struct {
	Rank        RankConfig        `yaml:"rank" mapstructure:"rank"`
	Embedding   EmbeddingConfig   `yaml:"embedding" mapstructure:"embedding"`
	Arxiv       ArxivConfig       `yaml:"arxiv" mapstructure:"arxiv"`
	HuggingFace HuggingFaceConfig `yaml:"huggingface" mapstructure:"huggingface"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// RankConfig holds the similarity ranking parameters.
type RankConfig struct {
	TopK           int     `yaml:"top_k" mapstructure:"top_k"`
	TFIDFThreshold float64 `yaml:"tfidf_threshold" mapstructure:"tfidf_threshold"`
	SBERTThreshold float64 `yaml:"sbert_threshold" mapstructure:"sbert_threshold"`
	TextField      string  `yaml:"text_field" mapstructure:"text_field"`
	MaxFeatures    int     `yaml:"max_features" mapstructure:"max_features"`
	// MaxMatrixCells caps rows*columns of a dense similarity matrix.
	MaxMatrixCells int64 `yaml:"max_matrix_cells" mapstructure:"max_matrix_cells"`
}

// EmbeddingConfig selects the sentence-embedding model server. An empty
// BaseURL or Model and a zero Dimensions take the provider's own defaults.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // ollama or openai
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	Model      string        `yaml:"model" mapstructure:"model"`
	Dimensions int           `yaml:"dimensions" mapstructure:"dimensions"`
	BatchSize  int           `yaml:"batch_size" mapstructure:"batch_size"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	APIKey     string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
}

// ArxivConfig configures the arXiv export API client.
type ArxivConfig struct {
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HuggingFaceConfig configures the Hugging Face hub and datasets-server clients.
type HuggingFaceConfig struct {
	HubURL            string        `yaml:"hub_url" mapstructure:"hub_url"`
	DatasetsServerURL string        `yaml:"datasets_server_url" mapstructure:"datasets_server_url"`
	PageSize          int           `yaml:"page_size" mapstructure:"page_size"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Token             string        `yaml:"token,omitempty" mapstructure:"token"`
}

// CacheConfig selects where fetched datasets are cached.
type CacheConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"` // file, sqlite or none
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures the run logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// Embedding providers.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Cache backends.
const (
	CacheFile   = "file"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// Log formats.
const (
	LogJSON = "json"
	LogText = "text"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rank: RankConfig{
			TopK:           10,
			TFIDFThreshold: 0.3,
			SBERTThreshold: 0.5,
			TextField:      string(compose.DefaultMode),
			MaxFeatures:    10000,
			MaxMatrixCells: 1 << 28,
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderOllama,
			BatchSize: 64,
			Timeout:   60 * time.Second,
		},
		Arxiv: ArxivConfig{
			BaseURL:  "https://export.arxiv.org/api/query",
			Interval: time.Second,
			Timeout:  30 * time.Second,
		},
		HuggingFace: HuggingFaceConfig{
			HubURL:            "https://huggingface.co",
			DatasetsServerURL: "https://datasets-server.huggingface.co",
			PageSize:          100,
			Timeout:           60 * time.Second,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
			Dir:     ".paperrank/cache",
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogText,
		},
	}
}

// Validate checks every field that has a constrained range.
func (c *Config) Validate() error {
	if c.Rank.TopK <= 0 {
		return fmt.Errorf("%w: rank.top_k must be positive, got %d", ErrInvalidConfig, c.Rank.TopK)
	}
	if err := validateThreshold("rank.tfidf_threshold", c.Rank.TFIDFThreshold); err != nil {
		return err
	}
	if err := validateThreshold("rank.sbert_threshold", c.Rank.SBERTThreshold); err != nil {
		return err
	}
	if _, err := compose.ParseMode(c.Rank.TextField); err != nil {
		return fmt.Errorf("%w: rank.text_field: %w", ErrInvalidConfig, err)
	}
	if c.Rank.MaxFeatures <= 0 {
		return fmt.Errorf("%w: rank.max_features must be positive", ErrInvalidConfig)
	}
	if c.Rank.MaxMatrixCells <= 0 {
		return fmt.Errorf("%w: rank.max_matrix_cells must be positive", ErrInvalidConfig)
	}

	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: embedding.provider %q (valid: ollama, openai)", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrInvalidConfig)
	}

	if c.HuggingFace.PageSize <= 0 || c.HuggingFace.PageSize > 100 {
		return fmt.Errorf("%w: huggingface.page_size must be in 1..100", ErrInvalidConfig)
	}

	switch c.Cache.Backend {
	case CacheFile, CacheSQLite, CacheNone:
	default:
		return fmt.Errorf("%w: cache.backend %q (valid: file, sqlite, none)", ErrInvalidConfig, c.Cache.Backend)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	switch c.Log.Format {
	case LogJSON, LogText:
	default:
		return fmt.Errorf("%w: log.format %q (valid: json, text)", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

func validateThreshold(name string, v float64) error {
	if v < -1 || v > 1 {
		return fmt.Errorf("%w: %s must be in [-1, 1], got %g", ErrInvalidConfig, name, v)
	}
	return nil
}

// YAML renders the configuration with secrets redacted.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	if redacted.Embedding.APIKey != "" {
		redacted.Embedding.APIKey = redactedValue
	}
	if redacted.HuggingFace.Token != "" {
		redacted.HuggingFace.Token = redactedValue
	}
	return yaml.Marshal(&redacted)
}

const redactedValue = "<redacted>"
