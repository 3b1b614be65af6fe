package arxiv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matsen/paperrank/internal/fetch"
	"github.com/matsen/paperrank/internal/paper"
)

// ColumnArxivID holds the arXiv identifier in a source table.
const ColumnArxivID = "arxiv_id"

// FillResult summarizes a FillTable run.
type FillResult struct {
	Total   int      `json:"total"`
	Filled  int      `json:"filled"`
	Skipped int      `json:"skipped"`
	Failed  []string `json:"failed,omitempty"`
}

// FillTable looks up every row's arxiv_id and stores title, abstract and
// authors in the row. Rows whose id column is empty get the arXiv id. A
// failed lookup is logged and the row is left unchanged; only context
// cancellation stops the loop early.
func (c *Client) FillTable(ctx context.Context, t *paper.Table, logger *slog.Logger) (*FillResult, error) {
	if t.Index(ColumnArxivID) < 0 {
		return nil, fmt.Errorf("%w: %q", paper.ErrMissingColumn, ColumnArxivID)
	}
	for _, col := range []string{paper.ColumnID, paper.ColumnTitle, paper.ColumnAuthors, paper.ColumnAbstract} {
		t.AddColumn(col)
	}

	result := &FillResult{Total: t.Len()}
	for i := 0; i < t.Len(); i++ {
		id := t.Value(i, ColumnArxivID)
		if id == "" {
			result.Skipped++
			continue
		}

		p, err := c.GetPaper(ctx, id)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Warn("arxiv lookup failed", "arxiv_id", id, "row", i+1, "status", fetch.StatusCode(err), "error", err)
			result.Failed = append(result.Failed, id)
			continue
		}

		t.Set(i, paper.ColumnTitle, p.Title)
		t.Set(i, paper.ColumnAbstract, p.Abstract)
		t.Set(i, paper.ColumnAuthors, paper.JoinAuthors(p.Authors))
		if t.Value(i, paper.ColumnID) == "" {
			t.Set(i, paper.ColumnID, id)
		}
		result.Filled++
		logger.Debug("fetched arxiv paper", "arxiv_id", id, "title", p.Title)
	}

	logger.Info("filled papers from arxiv",
		"total", result.Total,
		"filled", result.Filled,
		"failed", len(result.Failed))
	return result, nil
}
