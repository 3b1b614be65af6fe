// Package similarity computes pairwise text similarity between paper corpora
// and ranks the results.
package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matsen/paperrank/internal/compose"
	"github.com/matsen/paperrank/internal/paper"
)

// Strategy computes a dense similarity matrix between two text corpora.
type Strategy interface {
	Method() Method
	Matrix(ctx context.Context, queries, candidates []string) (Matrix, error)
}

// DefaultMaxMatrixCells is 2 GiB of float64 cells.
const DefaultMaxMatrixCells int64 = 1 << 28

// Engine composes paper text, computes similarities with a Strategy, and
// ranks or averages the result.
type Engine struct {
	strategy Strategy
	maxCells int64
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxCells sets the dense matrix cell limit.
func WithMaxCells(n int64) EngineOption {
	return func(e *Engine) {
		e.maxCells = n
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine around strategy.
func NewEngine(strategy Strategy, opts ...EngineOption) *Engine {
	e := &Engine{
		strategy: strategy,
		maxCells: DefaultMaxMatrixCells,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Method returns the strategy's method.
func (e *Engine) Method() Method {
	return e.strategy.Method()
}

// RankSelf ranks every paper against every other paper of the same corpus.
func (e *Engine) RankSelf(ctx context.Context, papers []paper.Paper, mode compose.Mode, opts Options) ([]Pair, error) {
	m, err := e.matrix(ctx, papers, papers, mode)
	if err != nil {
		return nil, err
	}

	opts.ExcludeSelf = true
	opts.Method = e.strategy.Method()
	pairs := Rank(m, papers, papers, opts)

	e.logger.Info("ranked papers",
		"method", opts.Method,
		"papers", len(papers),
		"pairs", len(pairs),
		"top_k", opts.TopK,
		"threshold", opts.Threshold)
	return pairs, nil
}

// ScoreAgainst returns, for each target, its mean similarity to all sources.
func (e *Engine) ScoreAgainst(ctx context.Context, sources, targets []paper.Paper, mode compose.Mode) ([]float64, error) {
	m, err := e.matrix(ctx, targets, sources, mode)
	if err != nil {
		return nil, err
	}

	scores := MeanSimilarity(m)
	e.logger.Info("scored targets",
		"method", e.strategy.Method(),
		"sources", len(sources),
		"targets", len(targets))
	return scores, nil
}

// matrix validates sizes before composing or vectorizing anything.
func (e *Engine) matrix(ctx context.Context, queries, candidates []paper.Paper, mode compose.Mode) (Matrix, error) {
	if len(queries) == 0 || len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %d queries, %d candidates", ErrEmptyCorpus, len(queries), len(candidates))
	}
	if err := CheckSize(len(queries), len(candidates), e.maxCells); err != nil {
		return nil, err
	}

	q, err := compose.Compose(queries, mode)
	if err != nil {
		return nil, err
	}
	c := q
	if !samePapers(queries, candidates) {
		if c, err = compose.Compose(candidates, mode); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	m, err := e.strategy.Matrix(ctx, q, c)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("computed similarity matrix",
		"method", e.strategy.Method(),
		"rows", m.Rows(),
		"cols", m.Cols(),
		"duration_ms", time.Since(start).Milliseconds())
	return m, nil
}

// samePapers reports whether a and b share the same backing array.
func samePapers(a, b []paper.Paper) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}
