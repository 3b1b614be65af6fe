package similarity

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/matsen/paperrank/internal/embedding"
)

// DefaultBatchSize is the number of texts sent per embedding request.
const DefaultBatchSize = 64

// Semantic is the sentence-embedding strategy.
type Semantic struct {
	provider  embedding.Provider
	batchSize int
}

// NewSemantic creates an embedding strategy. A batchSize of zero or less
// uses DefaultBatchSize.
func NewSemantic(provider embedding.Provider, batchSize int) *Semantic {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Semantic{provider: provider, batchSize: batchSize}
}

// Method returns MethodSBERT.
func (s *Semantic) Method() Method {
	return MethodSBERT
}

// Matrix encodes both corpora and returns their cosine similarities.
// Provider failures are wrapped in ErrModelUnavailable.
func (s *Semantic) Matrix(ctx context.Context, queries, candidates []string) (Matrix, error) {
	if len(queries) == 0 || len(candidates) == 0 {
		return nil, ErrEmptyCorpus
	}

	if checker, ok := s.provider.(embedding.Checker); ok {
		if err := checker.IsAvailable(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
		}
	}

	q, err := s.encode(ctx, queries)
	if err != nil {
		return nil, err
	}
	c := q
	if !slices.Equal(queries, candidates) {
		if c, err = s.encode(ctx, candidates); err != nil {
			return nil, err
		}
	}

	qNorms := norms(q)
	cNorms := norms(c)
	m := NewMatrix(len(q), len(c))
	for i := range q {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range c {
			if qNorms[i] == 0 || cNorms[j] == 0 {
				continue
			}
			m[i][j] = dot(q[i].Vector, c[j].Vector) / (qNorms[i] * cNorms[j])
		}
	}
	return m, nil
}

// encode embeds texts in batches.
func (s *Semantic) encode(ctx context.Context, texts []string) ([]embedding.Embedding, error) {
	out := make([]embedding.Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.provider.Embed(ctx, texts[start:end])
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, s.provider.ModelName(), err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("%w: %s returned %d embeddings for %d texts",
				ErrModelUnavailable, s.provider.ModelName(), len(batch), end-start)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func norms(es []embedding.Embedding) []float64 {
	n := make([]float64, len(es))
	for i, e := range es {
		n[i] = e.Norm()
	}
	return n
}

func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
