package paper

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/matsen/paperrank/internal/fileutil"
)

// Format identifies a supported table file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSONL Format = "jsonl"
	FormatXLSX  Format = "xlsx"
)

// extensionFormats maps lower-cased file extensions to formats.
// ".json" is read as line-delimited JSON, one object per line.
var extensionFormats = map[string]Format{
	".csv":   FormatCSV,
	".tsv":   FormatTSV,
	".jsonl": FormatJSONL,
	".json":  FormatJSONL,
	".xlsx":  FormatXLSX,
}

// FormatOf returns the table format for path based on its extension.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensionFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q (supported: .csv, .tsv, .jsonl, .json, .xlsx)", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Table is an in-memory view of a tabular file. Every row has exactly
// len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row for column name, or "" if the column is absent.
func (t *Table) Value(row int, name string) string {
	i := t.Index(name)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// AddColumn appends an empty column and returns its index. If the column
// already exists its index is returned unchanged.
func (t *Table) AddColumn(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], "")
	}
	return len(t.Header) - 1
}

// Set stores value at row for column name, adding the column if needed.
func (t *Table) Set(row int, name, value string) {
	i := t.AddColumn(name)
	t.Rows[row][i] = value
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// normalize trims header names and pads or truncates rows to the header width.
func (t *Table) normalize() {
	for i, h := range t.Header {
		t.Header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	width := len(t.Header)
	for i, row := range t.Rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			t.Rows[i] = padded
		case len(row) > width:
			t.Rows[i] = row[:width]
		}
	}
}

// ReadTable reads a table from path. The extension is checked before the
// file is opened, so an unsupported format never reads any data.
func ReadTable(path string) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	var t *Table
	switch format {
	case FormatCSV:
		t, err = readDelimited(path, ',')
	case FormatTSV:
		t, err = readDelimited(path, '\t')
	case FormatJSONL:
		t, err = readJSONL(path)
	case FormatXLSX:
		t, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}

	t.normalize()
	return t, nil
}

// WriteTable writes t to path in the format given by its extension,
// replacing any existing file.
func WriteTable(path string, t *Table) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		switch format {
		case FormatCSV:
			return writeDelimited(w, t, ',')
		case FormatTSV:
			return writeDelimited(w, t, '\t')
		case FormatJSONL:
			return writeJSONL(w, t)
		default:
			return writeXLSX(w, t)
		}
	})
}
