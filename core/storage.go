package core

import (
	"context"
	"io"
)

// FileStorage is any service that can persist uploaded files
// and address them by URL.
type FileStorage interface {
	// Upload stores the content under key and returns its public URL.
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
}
