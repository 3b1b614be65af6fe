package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/paperrank/internal/cache"
	"github.com/matsen/paperrank/internal/huggingface"
	"github.com/matsen/paperrank/internal/paper"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadManifest_YAML(t *testing.T) {
	path := writeFile(t, "datasets.yaml", `datasets:
  - hf_name: org/icml-2023
    conference: ICML
    year: 2023
  - hf_name: org/neurips-2022
    conference: neurips
    year: 2022
    split: validation
`)
	infos, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, Info{HFName: "org/icml-2023", Conference: "icml", Year: 2023, Split: DefaultSplit}, infos[0])
	assert.Equal(t, "validation", infos[1].Split)
	assert.Equal(t, "neurips-2022", infos[1].CacheKey())
}

func TestLoadManifest_CSV(t *testing.T) {
	path := writeFile(t, "datasets.csv", " hf_name , conference ,year\norg/iclr,iclr, 2024\n")
	infos, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, Info{HFName: "org/iclr", Conference: "iclr", Year: 2024, Split: "train"}, infos[0])
}

func TestLoadManifest_SplitColumn(t *testing.T) {
	path := writeFile(t, "datasets.tsv", "hf_name\tconference\tyear\tsplit\norg/a\ticml\t2023\ttest\norg/b\ticml\t2024\t\n")
	infos, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "test", infos[0].Split)
	assert.Equal(t, DefaultSplit, infos[1].Split, "empty split cell falls back to train")
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"bad year", "m.csv", "hf_name,conference,year\norg/a,icml,soon\n"},
		{"missing column", "m.csv", "hf_name,year\norg/a,2023\n"},
		{"missing conference", "m.yaml", "datasets:\n  - hf_name: org/a\n    year: 2023\n"},
		{"invalid yaml", "m.yml", "datasets: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	raw := &paper.Table{
		Header: []string{"title", "authors", "abstract", "embedding", "Download PDF", "venue"},
		Rows: [][]string{
			{"A", "Ann; Bo", "abs a", "[0.1]", "http://pdf/a", "x"},
			{"B", "", "abs b", "[0.2]", "", "y"},
		},
	}
	info := Info{HFName: "org/icml", Conference: "icml", Year: 2023}

	got, err := Normalize(raw, info)
	require.NoError(t, err)
	assert.Equal(t, OutputColumns, got.Header)
	assert.Equal(t, [][]string{
		{"icml-2023-0", "A", "Ann; Bo", "abs a", "icml-2023", "http://pdf/a"},
		{"icml-2023-1", "B", "", "abs b", "icml-2023", ""},
	}, got.Rows)
}

func TestNormalize_KeepsExistingIDs(t *testing.T) {
	raw := &paper.Table{
		Header: []string{"id", "title", "Paper"},
		Rows:   [][]string{{"p1", "A", "http://pdf"}},
	}
	got, err := Normalize(raw, Info{HFName: "org/n", Conference: "neurips", Year: 2022})
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Value(0, paper.ColumnID))
	assert.Equal(t, "", got.Value(0, paper.ColumnAbstract))
	assert.Equal(t, "http://pdf", got.Value(0, ColumnPDF))
	assert.Equal(t, "neurips-2022", got.Value(0, paper.ColumnConfInfo))
}

func TestNormalize_MissingTitle(t *testing.T) {
	raw := &paper.Table{Header: []string{"abstract"}, Rows: [][]string{{"x"}}}
	_, err := Normalize(raw, Info{HFName: "org/x", Conference: "icml", Year: 2023})
	assert.ErrorIs(t, err, paper.ErrMissingColumn)
}

type fakeFetcher struct {
	datasets map[string]*huggingface.Dataset
	calls    []string
	splits   []string
}

func (f *fakeFetcher) FetchDataset(_ context.Context, name, split string) (*huggingface.Dataset, error) {
	f.calls = append(f.calls, name)
	f.splits = append(f.splits, split)
	ds, ok := f.datasets[name]
	if !ok {
		return nil, errors.New("no such dataset")
	}
	return ds, nil
}

func testDataset(name, title string) *huggingface.Dataset {
	return &huggingface.Dataset{
		Name:    name,
		Split:   "train",
		Columns: []string{"title", "abstract", "year"},
		Rows: []huggingface.Row{
			{"title": title, "abstract": "about " + title, "year": json.Number("2023")},
		},
	}
}

func TestCollector_Collect(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.NewFileStore(t.TempDir())
	fetcher := &fakeFetcher{datasets: map[string]*huggingface.Dataset{
		"org/icml": testDataset("org/icml", "Alpha"),
		"org/iclr": testDataset("org/iclr", "Beta"),
	}}
	infos := []Info{
		{HFName: "org/icml", Conference: "icml", Year: 2023, Split: DefaultSplit},
		{HFName: "org/iclr", Conference: "iclr", Year: 2024, Split: "test"},
	}
	c := NewCollector(fetcher, store, logger)

	got, err := c.Collect(ctx, infos, false)
	require.NoError(t, err)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "Alpha", got.Value(0, paper.ColumnTitle))
	assert.Equal(t, "iclr-2024-0", got.Value(1, paper.ColumnID))
	assert.Equal(t, []string{"org/icml", "org/iclr"}, fetcher.calls)
	assert.Equal(t, []string{"train", "test"}, fetcher.splits)

	again, err := c.Collect(ctx, infos, false)
	require.NoError(t, err)
	assert.Equal(t, got.Rows, again.Rows)
	assert.Len(t, fetcher.calls, 2, "second run is served from cache")

	_, err = c.Collect(ctx, infos, true)
	require.NoError(t, err)
	assert.Len(t, fetcher.calls, 4, "force reload bypasses the cache")
}

func TestCollector_FetchError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewCollector(&fakeFetcher{}, cache.NopStore{}, logger)
	_, err := c.Collect(context.Background(), []Info{{HFName: "org/missing", Conference: "icml", Year: 2023}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "org/missing")
}
