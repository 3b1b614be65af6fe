// Package cache stores fetched remote data so later runs can skip the
// remote call.
package cache

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/matsen/paperrank/internal/config"
)

// ErrMiss is returned by Store.Get when nothing is cached under a key.
var ErrMiss = errors.New("cache miss")

// ErrCorrupt indicates cached data that does not match its recorded hash.
var ErrCorrupt = errors.New("cache entry corrupt")

// Store holds opaque blobs by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Hash returns the hex blake2b-256 digest of data.
func Hash(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Key derives a fixed-length storage key from a human-readable name.
func Key(name string) string {
	return Hash([]byte(name))[:32]
}

// SQLiteFile is the database file name inside the cache directory.
const SQLiteFile = "cache.db"

// Open returns the store selected by cfg.Backend.
func Open(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case config.CacheFile:
		return NewFileStore(cfg.Dir), nil
	case config.CacheSQLite:
		store, err := OpenSQLite(filepath.Join(cfg.Dir, SQLiteFile))
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// FetchOrLoad returns the value cached under key, or calls fetch and caches
// its result. forceReload skips the lookup but still stores the fresh value.
// A corrupt or undecodable entry is treated as a miss.
func FetchOrLoad[T any](ctx context.Context, store Store, key string, forceReload bool, logger *slog.Logger, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	if !forceReload {
		data, err := store.Get(ctx, key)
		switch {
		case err == nil:
			var v T
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			if err := dec.Decode(&v); err == nil {
				logger.Info("loaded from cache", "key", key)
				return v, nil
			}
			logger.Warn("discarding undecodable cache entry", "key", key)
		case errors.Is(err, ErrMiss):
		case errors.Is(err, ErrCorrupt):
			logger.Warn("discarding corrupt cache entry", "key", key)
		default:
			return zero, fmt.Errorf("reading cache %s: %w", key, err)
		}
	} else {
		logger.Info("force reload, bypassing cache", "key", key)
	}

	v, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("encoding cache entry %s: %w", key, err)
	}
	if err := store.Put(ctx, key, data); err != nil {
		return zero, fmt.Errorf("writing cache %s: %w", key, err)
	}
	return v, nil
}

// NopStore caches nothing.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }
func (NopStore) Put(context.Context, string, []byte) error   { return nil }
func (NopStore) Delete(context.Context, string) error        { return nil }
func (NopStore) Close() error                                { return nil }
