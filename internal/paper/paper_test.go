package paper

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoad_Delimited(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "csv",
			file:    "papers.csv",
			content: "id,title,abstract,authors\n1,Deep Nets,We study nets.,Ada Lovelace; Alan Turing\n2,Shallow Nets,,\n",
		},
		{
			name:    "tsv",
			file:    "papers.tsv",
			content: "id\ttitle\tabstract\tauthors\n1\tDeep Nets\tWe study nets.\tAda Lovelace; Alan Turing\n2\tShallow Nets\t\t\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			papers, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(papers) != 2 {
				t.Fatalf("Load() returned %d papers, want 2", len(papers))
			}

			want := Paper{
				ID:       "1",
				Title:    "Deep Nets",
				Abstract: "We study nets.",
				Authors:  []string{"Ada Lovelace", "Alan Turing"},
			}
			if !reflect.DeepEqual(papers[0], want) {
				t.Errorf("papers[0] = %+v, want %+v", papers[0], want)
			}
			if papers[1].Abstract != "" {
				t.Errorf("papers[1].Abstract = %q, want empty", papers[1].Abstract)
			}
			if papers[1].Authors != nil {
				t.Errorf("papers[1].Authors = %v, want nil", papers[1].Authors)
			}
		})
	}
}

func TestLoad_JSONL(t *testing.T) {
	content := `{"id":"a","title":"First","abstract":"Alpha","authors":["X One","Y Two"],"year":2024}
{"id":"b","title":"Second","abstract":null,"authors":"Z Three; W Four"}

{"id":3,"title":"Third","abstract":"Gamma","authors":null,"extra":{"k":1}}
`
	for _, name := range []string{"papers.jsonl", "papers.json"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), name, content)

			papers, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if len(papers) != 3 {
				t.Fatalf("Load() returned %d papers, want 3", len(papers))
			}
			if got := papers[0].Authors; !reflect.DeepEqual(got, []string{"X One", "Y Two"}) {
				t.Errorf("papers[0].Authors = %v", got)
			}
			if got := papers[1].Authors; !reflect.DeepEqual(got, []string{"Z Three", "W Four"}) {
				t.Errorf("papers[1].Authors = %v", got)
			}
			if papers[1].Abstract != "" {
				t.Errorf("papers[1].Abstract = %q, want empty", papers[1].Abstract)
			}
			if papers[2].ID != "3" {
				t.Errorf("papers[2].ID = %q, want 3", papers[2].ID)
			}
			if papers[2].Authors != nil {
				t.Errorf("papers[2].Authors = %v, want nil", papers[2].Authors)
			}
		})
	}
}

func TestReadTable_JSONLColumnUnion(t *testing.T) {
	content := `{"id":"a","title":"T"}
{"abstract":"A","id":"b","year":"2020"}
`
	path := writeFile(t, t.TempDir(), "t.jsonl", content)

	table, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}

	wantHeader := []string{"id", "title", "abstract", "year"}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Errorf("Header = %v, want %v", table.Header, wantHeader)
	}
	wantRows := [][]string{
		{"a", "T", "", ""},
		{"b", "", "A", "2020"},
	}
	if !reflect.DeepEqual(table.Rows, wantRows) {
		t.Errorf("Rows = %v, want %v", table.Rows, wantRows)
	}
}

func TestReadTable_InvalidJSONL(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.jsonl", "{\"id\":\"a\"}\n[1,2]\n")

	if _, err := ReadTable(path); err == nil {
		t.Error("ReadTable() expected error for non-object line")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	// The file does not exist: the extension check must fail first.
	_, err := Load(filepath.Join(t.TempDir(), "papers.txt"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoad_MissingColumn(t *testing.T) {
	path := writeFile(t, t.TempDir(), "papers.csv", "id,title\n1,Only Title\n")

	_, err := Load(path)
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("Load() error = %v, want ErrMissingColumn", err)
	}
	if got := err.Error(); got != `missing required column: "abstract"` {
		t.Errorf("error message = %q", got)
	}
}

func TestLoad_TrimsHeaders(t *testing.T) {
	path := writeFile(t, t.TempDir(), "papers.csv", "\ufeff id , title ,abstract \n1,T,A\n")

	papers, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if papers[0].ID != "1" || papers[0].Title != "T" || papers[0].Abstract != "A" {
		t.Errorf("papers[0] = %+v", papers[0])
	}
}

func TestLoad_RaggedRows(t *testing.T) {
	path := writeFile(t, t.TempDir(), "papers.csv", "id,title,abstract\n1,T\n2,U,B,extra\n")

	papers, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if papers[0].Abstract != "" {
		t.Errorf("papers[0].Abstract = %q, want empty", papers[0].Abstract)
	}
	if papers[1].Abstract != "B" {
		t.Errorf("papers[1].Abstract = %q, want B", papers[1].Abstract)
	}
}

func TestWriteLoad_RoundTrip(t *testing.T) {
	papers := []Paper{
		{ID: "icml-2023-0", Title: "A, with comma", Abstract: "Line one\nline two", Authors: []string{"A B", "C D"}, ConfInfo: "icml-2023"},
		{ID: "icml-2023-1", Title: "Quote \"here\"", Abstract: "", ConfInfo: "icml-2023"},
	}

	for _, name := range []string{"out.csv", "out.tsv", "out.jsonl", "out.xlsx"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			if err := WriteTable(path, FromPapers(papers)); err != nil {
				t.Fatalf("WriteTable() error = %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !reflect.DeepEqual(got, papers) {
				t.Errorf("round trip = %+v, want %+v", got, papers)
			}
		})
	}
}

func TestWriteTable_PreservesExtraColumns(t *testing.T) {
	table := &Table{
		Header: []string{"id", "title", "abstract", "venue"},
		Rows:   [][]string{{"1", "T", "A", "NeurIPS"}},
	}
	table.Set(0, "mean_similarity", "0.5")

	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := WriteTable(path, table); err != nil {
		t.Fatalf("WriteTable() error = %v", err)
	}

	got, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	wantHeader := []string{"id", "title", "abstract", "venue", "mean_similarity"}
	if !reflect.DeepEqual(got.Header, wantHeader) {
		t.Errorf("Header = %v, want %v", got.Header, wantHeader)
	}
	if got.Value(0, "mean_similarity") != "0.5" {
		t.Errorf("mean_similarity = %q, want 0.5", got.Value(0, "mean_similarity"))
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.csv", FormatCSV, false},
		{"a.CSV", FormatCSV, false},
		{"a.tsv", FormatTSV, false},
		{"a.jsonl", FormatJSONL, false},
		{"a.json", FormatJSONL, false},
		{"a.xlsx", FormatXLSX, false},
		{"a.txt", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatOf() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitAuthors(t *testing.T) {
	tests := []struct {
		cell string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"Solo", []string{"Solo"}},
		{"A; B;C ;", []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		got := SplitAuthors(tt.cell)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitAuthors(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}
