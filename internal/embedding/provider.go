package embedding

import (
	"context"
	"fmt"

	"github.com/matsen/paperrank/internal/config"
)

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates one embedding per text, in input order.
	Embed(ctx context.Context, texts []string) ([]Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions, or 0 if unknown.
	Dimensions() int
}

// Checker is implemented by providers that can verify the model server is
// reachable before any text is sent.
type Checker interface {
	IsAvailable(ctx context.Context) error
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(cfg config.EmbeddingConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		opts := []OllamaOption{WithModel(cfg.Model)}
		// A custom model without configured dimensions is checked only for count.
		if cfg.Dimensions > 0 || (cfg.Model != "" && cfg.Model != DefaultModel) {
			opts = append(opts, WithDimensions(cfg.Dimensions))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		return NewOllamaProvider(opts...), nil
	case config.ProviderOpenAI:
		opts := []OpenAIOption{WithOpenAIModel(cfg.Model), WithOpenAIDimensions(cfg.Dimensions)}
		if cfg.BaseURL != "" {
			opts = append(opts, WithOpenAIBaseURL(cfg.BaseURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, WithOpenAITimeout(cfg.Timeout))
		}
		return NewOpenAIProvider(cfg.APIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// checkCount verifies a response carries one vector per input with the
// expected dimensions.
func checkCount(got []Embedding, texts []string, dims int) error {
	if len(got) != len(texts) {
		return fmt.Errorf("got %d embeddings for %d texts", len(got), len(texts))
	}
	if dims <= 0 {
		return nil
	}
	for i, e := range got {
		if e.Dimensions() != dims {
			return fmt.Errorf("unexpected embedding dimensions for text %d: got %d, want %d", i, e.Dimensions(), dims)
		}
	}
	return nil
}
