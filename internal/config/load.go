package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. PAPERRANK_RANK_TOP_K.
	EnvPrefix = "PAPERRANK"

	// LocalConfigFile is looked up in the working directory.
	LocalConfigFile = "paperrank.yaml"

	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "paperrank"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"

	// EnvHFToken and EnvEmbeddingAPIKey supply secrets when the config file does not.
	EnvHFToken         = "HF_TOKEN"
	EnvEmbeddingAPIKey = "EMBEDDING_API_KEY"
)

// GlobalConfigPath returns the path to the per-user config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/paperrank/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// NewViper returns a viper instance with defaults, env binding, and the
// config file read. An explicit path must exist; otherwise ./paperrank.yaml
// and then the global config file are tried, and neither is required.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return v, nil
}

func findConfigFile() string {
	for _, candidate := range []string{LocalConfigFile, GlobalConfigPath()} {
		if candidate == "" {
			continue
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]any{
		"rank.top_k":                      d.Rank.TopK,
		"rank.tfidf_threshold":            d.Rank.TFIDFThreshold,
		"rank.sbert_threshold":            d.Rank.SBERTThreshold,
		"rank.text_field":                 d.Rank.TextField,
		"rank.max_features":               d.Rank.MaxFeatures,
		"rank.max_matrix_cells":           d.Rank.MaxMatrixCells,
		"embedding.provider":              d.Embedding.Provider,
		"embedding.base_url":              d.Embedding.BaseURL,
		"embedding.model":                 d.Embedding.Model,
		"embedding.dimensions":            d.Embedding.Dimensions,
		"embedding.batch_size":            d.Embedding.BatchSize,
		"embedding.timeout":               d.Embedding.Timeout,
		"embedding.api_key":               d.Embedding.APIKey,
		"arxiv.base_url":                  d.Arxiv.BaseURL,
		"arxiv.interval":                  d.Arxiv.Interval,
		"arxiv.timeout":                   d.Arxiv.Timeout,
		"huggingface.hub_url":             d.HuggingFace.HubURL,
		"huggingface.datasets_server_url": d.HuggingFace.DatasetsServerURL,
		"huggingface.page_size":           d.HuggingFace.PageSize,
		"huggingface.timeout":             d.HuggingFace.Timeout,
		"huggingface.token":               d.HuggingFace.Token,
		"cache.backend":                   d.Cache.Backend,
		"cache.dir":                       d.Cache.Dir,
		"log.level":                       d.Log.Level,
		"log.format":                      d.Log.Format,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load decodes and validates the configuration held by v. Secrets missing
// from the file fall back to HF_TOKEN and EMBEDDING_API_KEY.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.HuggingFace.Token == "" {
		cfg.HuggingFace.Token = os.Getenv(EnvHFToken)
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv(EnvEmbeddingAPIKey)
	}
	cfg.Cache.Dir = ExpandPath(cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFile loads KEY=value pairs from path into the process environment.
// Variables already set are kept. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
