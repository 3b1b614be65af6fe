// Package paper defines paper records and the tabular files they are loaded from.
package paper

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned when loading paper tables.
var (
	// ErrUnsupportedFormat indicates a file extension with no reader.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMissingColumn indicates a table without one of the required columns.
	ErrMissingColumn = errors.New("missing required column")
)

// Column names with a fixed meaning.
const (
	ColumnID       = "id"
	ColumnTitle    = "title"
	ColumnAbstract = "abstract"
	ColumnAuthors  = "authors"
	ColumnConfInfo = "conf_info"
)

// RequiredColumns must be present in every paper table.
var RequiredColumns = []string{ColumnID, ColumnTitle, ColumnAbstract}

// AuthorSeparator joins authors in a single delimited cell.
const AuthorSeparator = "; "

// Paper is one record of a paper table. Absent values are empty strings.
type Paper struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors,omitempty"`
	ConfInfo string   `json:"conf_info,omitempty"`
}

// Load reads papers from path. The format is chosen by extension.
func Load(path string) ([]Paper, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return t.Papers()
}

// Papers converts the table rows into paper records.
// Returns ErrMissingColumn if a required column is absent.
func (t *Table) Papers() ([]Paper, error) {
	for _, col := range RequiredColumns {
		if t.Index(col) < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	papers := make([]Paper, len(t.Rows))
	for i := range t.Rows {
		papers[i] = Paper{
			ID:       t.Value(i, ColumnID),
			Title:    t.Value(i, ColumnTitle),
			Abstract: t.Value(i, ColumnAbstract),
			Authors:  SplitAuthors(t.Value(i, ColumnAuthors)),
			ConfInfo: t.Value(i, ColumnConfInfo),
		}
	}
	return papers, nil
}

// FromPapers builds a table with the standard paper columns.
func FromPapers(papers []Paper) *Table {
	t := &Table{
		Header: []string{ColumnID, ColumnTitle, ColumnAuthors, ColumnAbstract, ColumnConfInfo},
		Rows:   make([][]string, len(papers)),
	}
	for i, p := range papers {
		t.Rows[i] = []string{p.ID, p.Title, JoinAuthors(p.Authors), p.Abstract, p.ConfInfo}
	}
	return t
}

// SplitAuthors splits a delimited author cell ("A; B; C").
func SplitAuthors(cell string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	var authors []string
	for _, part := range strings.Split(cell, ";") {
		if name := strings.TrimSpace(part); name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// JoinAuthors is the inverse of SplitAuthors.
func JoinAuthors(authors []string) string {
	return strings.Join(authors, AuthorSeparator)
}
