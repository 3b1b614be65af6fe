package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/matsen/paperrank/internal/fetch"
	"github.com/matsen/paperrank/internal/fileutil"
)

// SummaryFile is written to the output directory by BatchFetch.
const SummaryFile = "summary.json"

// Batch statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// SummaryEntry records the outcome of one key of a batch.
type SummaryEntry struct {
	Status     string `json:"status"`
	URL        string `json:"url"`
	OutputFile string `json:"output_file,omitempty"`
	Count      int    `json:"count"`
	Error      string `json:"error,omitempty"`
}

// Summary maps each key of the URL list to its outcome.
type Summary map[string]SummaryEntry

// Succeeded returns the number of successful keys.
func (s Summary) Succeeded() int {
	n := 0
	for _, e := range s {
		if e.Status == StatusSuccess {
			n++
		}
	}
	return n
}

// LoadURLs reads a YAML mapping of key to Hugging Face URL.
func LoadURLs(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading URL list: %w", err)
	}

	urls := make(map[string]string)
	if err := yaml.Unmarshal(data, &urls); err != nil {
		return nil, fmt.Errorf("parsing URL list %s: %w", path, err)
	}
	return urls, nil
}

// BatchFetch fetches every URL into <outDir>/<key>.json and writes
// summary.json. Keys are processed in sorted order; a failed key is logged
// and recorded, and only context cancellation aborts the batch.
func (c *Client) BatchFetch(ctx context.Context, urls map[string]string, outDir, split string, logger *slog.Logger) (Summary, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	keys := make([]string, 0, len(urls))
	for k := range urls {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	summary := make(Summary, len(urls))
	for _, key := range keys {
		rawURL := urls[key]
		logger.Info("fetching", "key", key, "url", rawURL)

		result, err := c.FetchURL(ctx, rawURL, split)
		if err == nil {
			outFile := filepath.Join(outDir, key+".json")
			if err = writeJSON(outFile, result); err == nil {
				summary[key] = SummaryEntry{Status: StatusSuccess, URL: rawURL, OutputFile: outFile, Count: result.Count}
				logger.Info("fetched", "key", key, "count", result.Count)
				continue
			}
		}

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		logger.Warn("fetch failed", "key", key, "url", rawURL, "status", fetch.StatusCode(err), "error", err)
		summary[key] = SummaryEntry{Status: StatusError, URL: rawURL, Error: err.Error()}
	}

	if err := writeJSON(filepath.Join(outDir, SummaryFile), summary); err != nil {
		return summary, err
	}
	logger.Info("batch complete", "succeeded", summary.Succeeded(), "failed", len(summary)-summary.Succeeded())
	return summary, nil
}

func writeJSON(path string, v any) error {
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}
