package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/matsen/paperrank/internal/fetch"
	"github.com/matsen/paperrank/internal/paper"
)

// Split identifies one config/split pair of a dataset.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// Row is one dataset record as decoded from JSON. Numbers are json.Number.
type Row map[string]any

// Dataset holds every row of one split.
type Dataset struct {
	Name    string   `json:"name"`
	Config  string   `json:"config"`
	Split   string   `json:"split"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

type splitsResponse struct {
	Splits []Split `json:"splits"`
}

type rowsResponse struct {
	Features []struct {
		Name string `json:"name"`
	} `json:"features"`
	Rows []struct {
		RowIdx int `json:"row_idx"`
		Row    Row `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// Splits lists the splits of a dataset.
func (c *Client) Splits(ctx context.Context, name string) ([]Split, error) {
	var resp splitsResponse
	if err := c.getJSON(ctx, c.serverURL, "/splits", url.Values{"dataset": {name}}, &resp); err != nil {
		return nil, fmt.Errorf("listing splits of %s: %w", name, err)
	}
	return resp.Splits, nil
}

// Rows fetches every row of one split, page by page.
func (c *Client) Rows(ctx context.Context, s Split) (*Dataset, error) {
	ds := &Dataset{Name: s.Dataset, Config: s.Config, Split: s.Split}

	for offset := 0; ; {
		query := url.Values{
			"dataset": {s.Dataset},
			"config":  {s.Config},
			"split":   {s.Split},
			"offset":  {strconv.Itoa(offset)},
			"length":  {strconv.Itoa(c.pageSize)},
		}
		var resp rowsResponse
		if err := c.getJSON(ctx, c.serverURL, "/rows", query, &resp); err != nil {
			return nil, fmt.Errorf("fetching rows of %s/%s at offset %d: %w", s.Dataset, s.Split, offset, err)
		}

		if ds.Columns == nil {
			for _, f := range resp.Features {
				ds.Columns = append(ds.Columns, f.Name)
			}
		}
		for _, r := range resp.Rows {
			ds.Rows = append(ds.Rows, r.Row)
		}

		offset += len(resp.Rows)
		if len(resp.Rows) == 0 || offset >= resp.NumRowsTotal {
			break
		}
	}
	return ds, nil
}

// FetchDataset fetches the named split, or the first split when split is "".
func (c *Client) FetchDataset(ctx context.Context, name, split string) (*Dataset, error) {
	splits, err := c.Splits(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, fmt.Errorf("dataset %s has no splits: %w", name, fetch.ErrNotFound)
	}

	chosen := splits[0]
	if split != "" {
		found := false
		available := make([]string, 0, len(splits))
		for _, s := range splits {
			available = append(available, s.Split)
			if s.Split == split && !found {
				chosen, found = s, true
			}
		}
		if !found {
			return nil, fmt.Errorf("split %q of %s: %w (available: %s)",
				split, name, fetch.ErrNotFound, strings.Join(available, ", "))
		}
	}

	return c.Rows(ctx, chosen)
}

// Table converts the dataset into a table. Columns follow the dataset
// features, then any keys only present in rows, sorted.
func (d *Dataset) Table() *paper.Table {
	columns := append([]string(nil), d.Columns...)
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var extra []string
	for _, r := range d.Rows {
		for k := range r {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	columns = append(columns, extra...)

	t := &paper.Table{Header: columns, Rows: make([][]string, len(d.Rows))}
	for i, r := range d.Rows {
		row := make([]string, len(columns))
		for j, col := range columns {
			row[j] = CellString(r[col])
		}
		t.Rows[i] = row
	}
	return t
}

// CellString renders a decoded JSON value as a table cell. Lists of strings
// are joined with paper.AuthorSeparator.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return compactJSON(val)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, paper.AuthorSeparator)
	default:
		return compactJSON(val)
	}
}
