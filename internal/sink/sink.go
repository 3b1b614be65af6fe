// Package sink writes ranking and scoring results to files.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matsen/paperrank/internal/fileutil"
	"github.com/matsen/paperrank/internal/paper"
	"github.com/matsen/paperrank/internal/similarity"
)

// ScoreColumn is appended to scored tables.
const ScoreColumn = "mean_similarity"

// WritePairs writes pairs as an indented JSON array, replacing path.
// A nil slice is written as [].
func WritePairs(path string, pairs []similarity.Pair) error {
	if pairs == nil {
		pairs = []similarity.Pair{}
	}
	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(pairs); err != nil {
			return fmt.Errorf("encoding pairs: %w", err)
		}
		return nil
	})
}

// ReadPairs reads a file written by WritePairs.
func ReadPairs(path string) ([]similarity.Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pairs: %w", err)
	}

	var pairs []similarity.Pair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parsing pairs: %w", err)
	}
	return pairs, nil
}

// WriteScores writes table with one mean_similarity value per row appended,
// replacing path. The format follows the extension of path. table is not
// modified.
func WriteScores(path string, table *paper.Table, scores []float64) error {
	if len(scores) != table.Len() {
		return fmt.Errorf("got %d scores for %d rows", len(scores), table.Len())
	}

	out := &paper.Table{
		Header: append([]string(nil), table.Header...),
		Rows:   make([][]string, table.Len()),
	}
	for i, row := range table.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	for i, s := range scores {
		out.Set(i, ScoreColumn, strconv.FormatFloat(s, 'g', -1, 64))
	}

	return paper.WriteTable(path, out)
}
