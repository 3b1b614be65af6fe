package dataset

import (
	"fmt"
	"strconv"

	"github.com/matsen/paperrank/internal/paper"
)

// ColumnPDF holds the link to the paper PDF when the dataset has one.
const ColumnPDF = "pdf"

// OutputColumns is the header of a normalized table.
var OutputColumns = []string{
	paper.ColumnID, paper.ColumnTitle, paper.ColumnAuthors,
	paper.ColumnAbstract, paper.ColumnConfInfo, ColumnPDF,
}

// droppedColumns are removed before anything else.
var droppedColumns = map[string]bool{"embedding": true}

// pdfColumns maps a conference to the column that holds its PDF link.
var pdfColumns = map[string]string{
	"icml":    "Download PDF",
	"neurips": "Paper",
}

// Normalize maps a raw dataset table onto OutputColumns. conf_info is set
// to "<conference>-<year>"; rows get "<conf_info>-<row>" as id when the
// dataset has no id column. The title column is required.
func Normalize(raw *paper.Table, info Info) (*paper.Table, error) {
	src := make(map[string]int, len(raw.Header))
	for i, h := range raw.Header {
		if !droppedColumns[h] {
			src[h] = i
		}
	}
	if col, ok := pdfColumns[info.Conference]; ok {
		if i, ok := src[col]; ok {
			src[ColumnPDF] = i
		}
	}
	if _, ok := src[paper.ColumnTitle]; !ok {
		return nil, fmt.Errorf("dataset %s: %w: %q", info.HFName, paper.ErrMissingColumn, paper.ColumnTitle)
	}

	confInfo := info.ConfInfo()
	out := &paper.Table{
		Header: append([]string(nil), OutputColumns...),
		Rows:   make([][]string, raw.Len()),
	}
	for r, rawRow := range raw.Rows {
		row := make([]string, len(OutputColumns))
		for c, col := range OutputColumns {
			if i, ok := src[col]; ok {
				row[c] = rawRow[i]
			}
		}
		if row[0] == "" {
			row[0] = confInfo + "-" + strconv.Itoa(r)
		}
		row[4] = confInfo
		out.Rows[r] = row
	}
	return out, nil
}

// Concat appends the rows of tables that share a header.
func Concat(tables ...*paper.Table) *paper.Table {
	out := &paper.Table{Header: append([]string(nil), OutputColumns...)}
	for _, t := range tables {
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}
