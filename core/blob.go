package core

import (
	"context"
	"io"
)

// BlobStore stores uploaded files.
type BlobStore interface {
	// Put stores the content of r under key and returns the location it can be retrieved from.
	Put(ctx context.Context, key string, r io.Reader) (string, error)
}
