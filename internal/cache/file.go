package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/matsen/paperrank/internal/fileutil"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileStore keeps one JSON file per key in a directory, with the blake2b
// hash of the content in a sidecar file.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the data file used for key.
func (s *FileStore) Path(key string) string {
	name := unsafeFileChars.ReplaceAllString(key, "_")
	if name != key {
		// Distinct keys may sanitize to the same name.
		name += "-" + Key(key)[:8]
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	want, err := os.ReadFile(path + ".b2sum")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: missing checksum", ErrCorrupt, key)
	}
	if string(bytes.TrimSpace(want)) != Hash(data) {
		return nil, fmt.Errorf("%w: %s: checksum mismatch", ErrCorrupt, key)
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path := s.Path(key)
	if err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	return fileutil.WriteAtomic(path+".b2sum", func(w io.Writer) error {
		_, err := io.WriteString(w, Hash(data)+"\n")
		return err
	})
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	path := s.Path(key)
	for _, p := range []string{path, path + ".b2sum"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}
