// Package remote implements the opaque document store used for best-effort
// progress sync: create a document, fetch it by handle, replace it.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/abhisek/studyplan/internal/progress"
)

// ErrNotFound is returned when a handle names no document.
var ErrNotFound = errors.New("remote: document not found")

// Client is the three-verb contract of a remote document store.
type Client interface {
	// Create stores doc as a new document and returns its handle.
	Create(ctx context.Context, doc progress.Snapshot) (string, error)

	// Get fetches the document stored under handle.
	Get(ctx context.Context, handle string) (progress.Snapshot, error)

	// Put replaces the document stored under handle.
	Put(ctx context.Context, handle string, doc progress.Snapshot) error
}

// StatusError is a non-success HTTP response from the remote service.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote %s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote %s: HTTP %d", e.Op, e.StatusCode)
}

// Retryable reports whether the request may succeed if repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
