package similarity

import (
	"sort"

	"github.com/matsen/paperrank/internal/paper"
)

// excludedSimilarity is written on the diagonal in self mode. It is below
// every valid cosine value.
const excludedSimilarity = -1

// Pair is one ranked match of a query paper against a candidate paper.
type Pair struct {
	ID1        string  `json:"id1"`
	ID2        string  `json:"id2"`
	Title1     string  `json:"title1"`
	Title2     string  `json:"title2"`
	Similarity float64 `json:"similarity"`
	Method     Method  `json:"method"`
}

// Options controls ranking.
type Options struct {
	TopK      int
	Threshold float64
	Method    Method
	// ExcludeSelf marks the matrix as queries x queries; the diagonal is
	// never returned.
	ExcludeSelf bool
}

// Rank emits, for each query row, up to TopK candidates in descending
// similarity order with similarity >= Threshold. In self mode the diagonal
// of m is overwritten with -1.
func Rank(m Matrix, queries, candidates []paper.Paper, opts Options) []Pair {
	var pairs []Pair
	order := make([]int, len(candidates))

	for i, row := range m {
		if opts.ExcludeSelf && i < len(row) {
			row[i] = excludedSimilarity
		}

		for j := range order {
			order[j] = j
		}
		sort.SliceStable(order, func(a, b int) bool {
			return row[order[a]] > row[order[b]]
		})

		top := order
		if opts.TopK > 0 && len(top) > opts.TopK {
			top = top[:opts.TopK]
		}

		for _, j := range top {
			if opts.ExcludeSelf && j == i {
				continue
			}
			if row[j] < opts.Threshold {
				break // sorted descending: nothing further can pass
			}
			pairs = append(pairs, Pair{
				ID1:        queries[i].ID,
				ID2:        candidates[j].ID,
				Title1:     queries[i].Title,
				Title2:     candidates[j].Title,
				Similarity: row[j],
				Method:     opts.Method,
			})
		}
	}
	return pairs
}

// MeanSimilarity returns the arithmetic mean of each row.
func MeanSimilarity(m Matrix) []float64 {
	means := make([]float64, len(m))
	for i, row := range m {
		if len(row) == 0 {
			continue
		}
		var sum float64
		for _, v := range row {
			sum += v
		}
		means[i] = sum / float64(len(row))
	}
	return means
}
