package main

import (
	"context"
	"errors"

	"github.com/matsen/paperrank/internal/compose"
	"github.com/matsen/paperrank/internal/config"
	"github.com/matsen/paperrank/internal/fetch"
	"github.com/matsen/paperrank/internal/paper"
	"github.com/matsen/paperrank/internal/similarity"
)

// Exit codes
const (
	ExitSuccess          = 0   // Success
	ExitError            = 1   // General error (invalid arguments, runtime failure)
	ExitConfigError      = 2   // Configuration error (bad config file, invalid values)
	ExitDataError        = 3   // Data error (unsupported format, missing column, empty corpus)
	ExitModelUnavailable = 4   // Embedding model server unreachable or failing
	ExitRemoteError      = 5   // Remote API returned an error or could not be reached
	ExitNotFound         = 6   // Remote resource does not exist
	ExitInterrupted      = 130 // Cancelled by SIGINT/SIGTERM
)

// exitCodeFor maps an error onto an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, paper.ErrUnsupportedFormat),
		errors.Is(err, paper.ErrMissingColumn),
		errors.Is(err, compose.ErrInvalidMode),
		errors.Is(err, similarity.ErrEmptyCorpus),
		errors.Is(err, similarity.ErrMatrixTooLarge):
		return ExitDataError
	case errors.Is(err, similarity.ErrModelUnavailable):
		return ExitModelUnavailable
	case fetch.IsNotFound(err):
		return ExitNotFound
	case errors.Is(err, fetch.ErrRemoteFetch):
		return ExitRemoteError
	default:
		return ExitError
	}
}
