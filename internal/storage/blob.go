// Package storage keeps binary media (proctoring video chunks and the
// assembled recordings) in a filesystem directory or a MinIO bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
)

// Info describes a stored object.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Object is an open blob; Seek makes byte-range reads possible.
type Object interface {
	io.ReadSeekCloser
}

type BlobStore interface {
	// Put stores r under key and returns the canonical key. size may be -1
	// when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Open(ctx context.Context, key string) (Object, Info, error)
	// List returns keys under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

func checkKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("storage: invalid key %q: %w", key, apperr.ErrValidation)
	}
	return nil
}

func notFound(key string) error {
	return fmt.Errorf("storage: %s: %w", key, apperr.ErrNotFound)
}
