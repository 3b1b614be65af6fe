package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matsen/paperrank/internal/cache"
	"github.com/matsen/paperrank/internal/huggingface"
	"github.com/matsen/paperrank/internal/paper"
)

// Fetcher fetches the rows of one dataset split.
type Fetcher interface {
	FetchDataset(ctx context.Context, name, split string) (*huggingface.Dataset, error)
}

// Collector fetches conference datasets through a cache and normalizes them.
type Collector struct {
	fetcher Fetcher
	store   cache.Store
	logger  *slog.Logger
}

// NewCollector creates a collector.
func NewCollector(fetcher Fetcher, store cache.Store, logger *slog.Logger) *Collector {
	return &Collector{fetcher: fetcher, store: store, logger: logger}
}

// Collect fetches (or loads from cache) every dataset in infos, normalizes
// each, and concatenates them in manifest order. The first failure aborts.
func (c *Collector) Collect(ctx context.Context, infos []Info, forceReload bool) (*paper.Table, error) {
	tables := make([]*paper.Table, 0, len(infos))
	for _, info := range infos {
		logger := c.logger.With("dataset", info.HFName, "conf_info", info.ConfInfo())

		ds, err := cache.FetchOrLoad(ctx, c.store, info.CacheKey(), forceReload, logger,
			func(ctx context.Context) (*huggingface.Dataset, error) {
				logger.Info("fetching dataset")
				return c.fetcher.FetchDataset(ctx, info.HFName, info.Split)
			})
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", info.HFName, err)
		}

		t, err := Normalize(ds.Table(), info)
		if err != nil {
			return nil, err
		}
		logger.Info("normalized dataset", "papers", t.Len())
		tables = append(tables, t)
	}
	return Concat(tables...), nil
}
