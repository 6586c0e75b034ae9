// Package storage abstracts the S3-compatible bucket the worker reads
// originals from and writes thumbnails to.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("object not found")

// ObjectInfo is the subset of object metadata the worker relies on.
type ObjectInfo struct {
	Key         string
	ContentType string
	Size        int64
}

// Store is implemented by every storage backend.
//
// Put must consume body until EOF or until it returns an error, since callers
// stream into it through a pipe.
type Store interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	SignedURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
