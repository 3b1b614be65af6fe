package similarity

import "fmt"

// Matrix is a dense similarity matrix. Rows are queries and columns are
// candidates.
type Matrix [][]float64

// NewMatrix allocates a rows x cols matrix of zeros in one backing array.
func NewMatrix(rows, cols int) Matrix {
	backing := make([]float64, rows*cols)
	m := make(Matrix, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// Rows returns the number of query rows.
func (m Matrix) Rows() int {
	return len(m)
}

// Cols returns the number of candidate columns.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// CheckSize returns ErrMatrixTooLarge if a rows x cols matrix exceeds maxCells.
// A maxCells of zero or less disables the check.
func CheckSize(rows, cols int, maxCells int64) error {
	if maxCells <= 0 {
		return nil
	}
	cells := int64(rows) * int64(cols)
	if cells > maxCells {
		return fmt.Errorf("%w: %d x %d = %d cells exceeds limit of %d (%d MiB of float64)",
			ErrMatrixTooLarge, rows, cols, cells, maxCells, maxCells*8>>20)
	}
	return nil
}
