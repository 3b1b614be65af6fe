// Package fetch holds the error types shared by the remote metadata clients.
package fetch

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Common errors returned by remote clients.
var (
	// ErrRemoteFetch indicates a network failure or non-2xx response.
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrNotFound indicates the requested paper or dataset does not exist.
	ErrNotFound = errors.New("not found")
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// RemoteError represents a failed call to a remote service.
type RemoteError struct {
	Source     string // e.g. "arxiv", "huggingface"
	URL        string
	StatusCode int // 0 for network failures
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %s: %v", e.Source, e.URL, e.Err)
	}
	return fmt.Sprintf("%s returned status %d for %s: %s", e.Source, e.StatusCode, e.URL, e.Message)
}

// Is makes every RemoteError match ErrRemoteFetch, and 404s match ErrNotFound.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteFetch:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a transport failure.
func NetworkError(source, url string, err error) error {
	return &RemoteError{Source: source, URL: url, Err: err}
}

// CheckResponse returns a *RemoteError for non-2xx responses and nil otherwise.
// The body is read (bounded) for the message but not closed.
func CheckResponse(source string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &RemoteError{
		Source:     source,
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Message:    msg,
	}
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.StatusCode
	}
	return 0
}
