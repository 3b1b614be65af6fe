package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/paperrank/internal/fetch"
)

const totalRows = 5

// fakeHub serves a dataset "conf/papers" with splits train and test, a space
// "conf/explorer" backed by that dataset, and a space "conf/bare" without one.
type fakeHub struct {
	rowRequests int
	tokens      []string
}

func (h *fakeHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.tokens = append(h.tokens, r.Header.Get("Authorization"))
	q := r.URL.Query()

	switch r.URL.Path {
	case "/splits":
		if q.Get("dataset") != "conf/papers" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"The dataset does not exist."}`))
			return
		}
		w.Write([]byte(`{"splits":[
			{"dataset":"conf/papers","config":"default","split":"train"},
			{"dataset":"conf/papers","config":"default","split":"test"}]}`))

	case "/rows":
		h.rowRequests++
		offset, _ := strconv.Atoi(q.Get("offset"))
		length, _ := strconv.Atoi(q.Get("length"))
		type row struct {
			RowIdx int            `json:"row_idx"`
			Row    map[string]any `json:"row"`
		}
		resp := struct {
			Features []map[string]any `json:"features"`
			Rows     []row            `json:"rows"`
			Total    int              `json:"num_rows_total"`
		}{
			Features: []map[string]any{{"name": "title"}, {"name": "authors"}, {"name": "abstract"}},
			Total:    totalRows,
		}
		for i := offset; i < min(offset+length, totalRows); i++ {
			resp.Rows = append(resp.Rows, row{RowIdx: i, Row: map[string]any{
				"title":    fmt.Sprintf("%s paper %d", q.Get("split"), i),
				"authors":  []string{"A", "B"},
				"abstract": "text",
				"year":     2024,
			}})
		}
		json.NewEncoder(w).Encode(resp)

	case "/api/spaces/conf/explorer":
		w.Write([]byte(`{"id":"conf/explorer","sdk":"gradio","datasets":["conf/papers"]}`))
	case "/api/spaces/conf/broken":
		w.Write([]byte(`{"id":"conf/broken","datasets":["conf/missing"]}`))
	case "/api/spaces/conf/bare":
		w.Write([]byte(`{"id":"conf/bare"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, opts ...ClientOption) (*Client, *fakeHub) {
	t.Helper()
	hub := &fakeHub{}
	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	base := []ClientOption{
		WithHubURL(server.URL),
		WithDatasetsServerURL(server.URL),
		WithRateLimit(0),
	}
	return NewClient(append(base, opts...)...), hub
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url      string
		wantKind Kind
		wantName string
		wantErr  bool
	}{
		{"https://huggingface.co/datasets/DeepNLP/NIPS-2022-Accepted-Papers", KindDataset, "DeepNLP/NIPS-2022-Accepted-Papers", false},
		{"https://huggingface.co/spaces/ICML2022/ICML2022_papers", KindSpace, "ICML2022/ICML2022_papers", false},
		{"https://huggingface.co/datasets/owner/name/tree/main", KindDataset, "owner/name", false},
		{"https://huggingface.co/datasets/owner/name?row=3", KindDataset, "owner/name", false},
		{"https://huggingface.co/owner/model", "", "", true},
		{"https://example.com/datasets/a/b", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			kind, name, err := ParseURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, kind)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestFetchDataset_Paging(t *testing.T) {
	client, hub := newTestClient(t, WithPageSize(2), WithToken("hf_test"))

	ds, err := client.FetchDataset(context.Background(), "conf/papers", "")
	require.NoError(t, err)

	assert.Equal(t, "train", ds.Split, "first split by default")
	assert.Equal(t, []string{"title", "authors", "abstract"}, ds.Columns)
	require.Len(t, ds.Rows, totalRows)
	assert.Equal(t, 3, hub.rowRequests, "5 rows in pages of 2")
	assert.Equal(t, "train paper 4", ds.Rows[4]["title"])
	for _, tok := range hub.tokens {
		assert.Equal(t, "Bearer hf_test", tok)
	}
}

func TestFetchDataset_Split(t *testing.T) {
	client, _ := newTestClient(t)

	ds, err := client.FetchDataset(context.Background(), "conf/papers", "test")
	require.NoError(t, err)
	assert.Equal(t, "test paper 0", ds.Rows[0]["title"])

	_, err = client.FetchDataset(context.Background(), "conf/papers", "validation")
	require.ErrorIs(t, err, fetch.ErrNotFound)
	assert.Contains(t, err.Error(), "train, test")
}

func TestFetchDataset_NotFound(t *testing.T) {
	client, _ := newTestClient(t)

	_, err := client.FetchDataset(context.Background(), "conf/missing", "")
	require.ErrorIs(t, err, fetch.ErrRemoteFetch)
	assert.True(t, fetch.IsNotFound(err))
}

func TestDataset_Table(t *testing.T) {
	client, _ := newTestClient(t)
	ds, err := client.FetchDataset(context.Background(), "conf/papers", "")
	require.NoError(t, err)

	table := ds.Table()
	assert.Equal(t, []string{"title", "authors", "abstract", "year"}, table.Header)
	assert.Equal(t, "A; B", table.Value(0, "authors"))
	assert.Equal(t, "2024", table.Value(0, "year"))
}

func TestCellString(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"number", json.Number("3.5"), "3.5"},
		{"bool", true, "true"},
		{"string list", []any{"a", "b"}, "a; b"},
		{"mixed list", []any{"a", json.Number("1")}, `["a",1]`},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellString(tt.in))
		})
	}
}

func TestFetchURL_Space(t *testing.T) {
	client, _ := newTestClient(t)

	result, err := client.FetchURL(context.Background(), "https://huggingface.co/spaces/conf/explorer", "")
	require.NoError(t, err)
	assert.Equal(t, KindSpace, result.Type)
	assert.Equal(t, "conf/papers", result.AssociatedDataset)
	assert.Equal(t, totalRows, result.Count)
	assert.Equal(t, "gradio", result.SpaceInfo["sdk"])

	result, err = client.FetchURL(context.Background(), "https://huggingface.co/spaces/conf/bare", "")
	require.NoError(t, err)
	assert.Zero(t, result.Count)
	assert.NotEmpty(t, result.Note)

	result, err = client.FetchURL(context.Background(), "https://huggingface.co/spaces/conf/broken", "")
	require.NoError(t, err)
	assert.Equal(t, "conf/missing", result.AssociatedDataset)
	assert.Contains(t, result.Error, "associated dataset")
}

func TestBatchFetch(t *testing.T) {
	client, _ := newTestClient(t)
	outDir := filepath.Join(t.TempDir(), "output")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	urls := map[string]string{
		"papers":  "https://huggingface.co/datasets/conf/papers",
		"missing": "https://huggingface.co/datasets/conf/missing",
		"bad":     "https://example.com/nothing",
	}

	summary, err := client.BatchFetch(context.Background(), urls, outDir, "", logger)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded())
	assert.Equal(t, StatusError, summary["missing"].Status)
	assert.Equal(t, StatusError, summary["bad"].Status)
	assert.Equal(t, totalRows, summary["papers"].Count)

	var result Result
	data, err := os.ReadFile(filepath.Join(outDir, "papers.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, totalRows, result.Count)
	assert.Len(t, result.Data, totalRows)

	var onDisk Summary
	data, err = os.ReadFile(filepath.Join(outDir, SummaryFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, summary, onDisk)

	_, err = os.Stat(filepath.Join(outDir, "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadURLs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nips2022: https://huggingface.co/datasets/DeepNLP/NIPS-2022-Accepted-Papers\n"), 0644))

	urls, err := LoadURLs(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"nips2022": "https://huggingface.co/datasets/DeepNLP/NIPS-2022-Accepted-Papers"}, urls)
}

func TestBatchFetch_SummaryDetails(t *testing.T) {
	client, _ := newTestClient(t)
	outDir := filepath.Join(t.TempDir(), "output")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	urls := map[string]string{
		"bare":    "https://huggingface.co/spaces/conf/bare",
		"missing": "https://huggingface.co/datasets/conf/missing",
	}

	summary, err := client.BatchFetch(context.Background(), urls, outDir, "", logger)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, summary["bare"].Status)
	assert.Zero(t, summary["bare"].Count)
	assert.Contains(t, logs.String(), "status=404")

	data, err := os.ReadFile(filepath.Join(outDir, SummaryFile))
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw["bare"], "count", "zero counts are recorded")
	assert.EqualValues(t, 0, raw["bare"]["count"])
}
