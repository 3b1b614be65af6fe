// Package dataset turns conference paper datasets hosted on Hugging Face
// into a single paper table.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matsen/paperrank/internal/paper"
)

// DefaultSplit is the dataset split fetched when a manifest entry names none.
const DefaultSplit = "train"

// Info describes one conference dataset.
type Info struct {
	HFName     string `yaml:"hf_name"`
	Conference string `yaml:"conference"`
	Year       int    `yaml:"year"`
	Split      string `yaml:"split,omitempty"`
}

// ConfInfo returns "<conference>-<year>", e.g. "icml-2023".
func (i Info) ConfInfo() string {
	return fmt.Sprintf("%s-%d", i.Conference, i.Year)
}

// CacheKey is the fetch cache key of the dataset.
func (i Info) CacheKey() string {
	return i.ConfInfo()
}

func (i Info) validate() error {
	if i.HFName == "" {
		return fmt.Errorf("hf_name is required")
	}
	if i.Conference == "" {
		return fmt.Errorf("conference is required for %s", i.HFName)
	}
	if i.Year <= 0 {
		return fmt.Errorf("year is required for %s", i.HFName)
	}
	return nil
}

type manifestFile struct {
	Datasets []Info `yaml:"datasets"`
}

// LoadManifest reads dataset infos from a YAML file (a "datasets" list) or
// a CSV/TSV table with hf_name, conference and year columns. Conference
// names are lower-cased and a missing split becomes DefaultSplit.
func LoadManifest(path string) ([]Info, error) {
	var infos []Info
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		infos, err = loadYAML(path)
	default:
		infos, err = loadTable(path)
	}
	if err != nil {
		return nil, err
	}

	for i := range infos {
		infos[i].Conference = strings.ToLower(strings.TrimSpace(infos[i].Conference))
		infos[i].HFName = strings.TrimSpace(infos[i].HFName)
		if infos[i].Split = strings.TrimSpace(infos[i].Split); infos[i].Split == "" {
			infos[i].Split = DefaultSplit
		}
		if err := infos[i].validate(); err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i+1, err)
		}
	}
	return infos, nil
}

func loadYAML(path string) ([]Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m manifestFile
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m.Datasets, nil
}

func loadTable(path string) ([]Info, error) {
	t, err := paper.ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	for _, col := range []string{"hf_name", "conference", "year"} {
		if t.Index(col) < 0 {
			return nil, fmt.Errorf("manifest %s: %w: %q", path, paper.ErrMissingColumn, col)
		}
	}

	infos := make([]Info, t.Len())
	for i := range t.Rows {
		yearCell := strings.TrimSpace(t.Value(i, "year"))
		year, err := strconv.Atoi(yearCell)
		if err != nil {
			return nil, fmt.Errorf("manifest row %d: invalid year %q", i+1, yearCell)
		}
		infos[i] = Info{
			HFName:     t.Value(i, "hf_name"),
			Conference: t.Value(i, "conference"),
			Year:       year,
			Split:      strings.TrimSpace(t.Value(i, "split")),
		}
	}
	return infos, nil
}
