package similarity

import "errors"

// Errors returned by the similarity engine.
var (
	// ErrEmptyCorpus indicates a query or candidate corpus with no papers.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrModelUnavailable indicates the embedding model could not be reached
	// or failed to encode. It is never retried.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrMatrixTooLarge indicates a dense similarity matrix above the
	// configured cell limit.
	ErrMatrixTooLarge = errors.New("similarity matrix too large")
)
