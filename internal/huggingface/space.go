package huggingface

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SpaceInfo is the hub metadata of a space. Only the fields used here are
// typed; everything is kept in Raw.
type SpaceInfo struct {
	ID       string
	Datasets []string
	Raw      map[string]any
}

// Space fetches the metadata of a space ("owner/name").
func (c *Client) Space(ctx context.Context, name string) (*SpaceInfo, error) {
	raw := make(map[string]any)
	path := "/api/spaces/" + escapeRepo(name)
	if err := c.getJSON(ctx, c.hubURL, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("fetching space %s: %w", name, err)
	}

	info := &SpaceInfo{Raw: raw}
	info.ID, _ = raw["id"].(string)
	if list, ok := raw["datasets"].([]any); ok {
		for _, d := range list {
			if s, ok := d.(string); ok && s != "" {
				info.Datasets = append(info.Datasets, s)
			}
		}
	}
	return info, nil
}

// escapeRepo escapes each segment of "owner/name".
func escapeRepo(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// Result is the JSON document written for one fetched URL.
type Result struct {
	Type              Kind           `json:"type"`
	Name              string         `json:"name"`
	URL               string         `json:"url"`
	Split             string         `json:"split,omitempty"`
	Columns           []string       `json:"columns,omitempty"`
	Data              []Row          `json:"data,omitempty"`
	Count             int            `json:"count"`
	SpaceInfo         map[string]any `json:"space_info,omitempty"`
	AssociatedDataset string         `json:"associated_dataset,omitempty"`
	Error             string         `json:"error,omitempty"`
	Note              string         `json:"note,omitempty"`
}

// FetchURL fetches a dataset URL (rows of one split) or a space URL (its
// metadata, plus the rows of its first associated dataset when it has one).
// A failure fetching the associated dataset is recorded in Result.Error.
func (c *Client) FetchURL(ctx context.Context, rawURL, split string) (*Result, error) {
	kind, name, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	result := &Result{Type: kind, Name: name, URL: rawURL}
	switch kind {
	case KindDataset:
		ds, err := c.FetchDataset(ctx, name, split)
		if err != nil {
			return nil, err
		}
		result.fill(ds)

	case KindSpace:
		info, err := c.Space(ctx, name)
		if err != nil {
			return nil, err
		}
		result.SpaceInfo = info.Raw
		if len(info.Datasets) == 0 {
			result.Note = "space has no associated dataset; only its metadata was fetched"
			return result, nil
		}

		result.AssociatedDataset = info.Datasets[0]
		ds, err := c.FetchDataset(ctx, info.Datasets[0], "")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			result.Error = fmt.Sprintf("fetching associated dataset: %v", err)
			return result, nil
		}
		result.fill(ds)
	}
	return result, nil
}

func (r *Result) fill(ds *Dataset) {
	r.Split = ds.Split
	r.Columns = ds.Columns
	r.Data = ds.Rows
	r.Count = len(ds.Rows)
}
