// Package objectstore abstracts the staged object store the pipeline reads
// from and relocates files within. Keys are case-sensitive, `/`-delimited
// paths. The production backend is S3; tests use the in-memory Memory
// implementation.
package objectstore

import (
	"context"
	"errors"
	"time"

	"conversionloader/internal/tags"
)

// ErrNotFound is returned when a bucket/key pair does not resolve to an
// object. Reprocessing an already-relocated file surfaces this.
var ErrNotFound = errors.New("object not found")

// Store is the full collaborator surface the pipeline needs. Every call
// may block on the network; callers impose deadlines via ctx.
type Store interface {
	// Get returns an object's full content.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put writes an object and attaches the given tag set.
	Put(ctx context.Context, bucket, key string, body []byte, tagSet tags.Set) error
	// Copy duplicates an object within the bucket, tags included.
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error
	// Delete removes an object.
	Delete(ctx context.Context, bucket, key string) error
	// LastModified returns the store-reported modification time.
	LastModified(ctx context.Context, bucket, key string) (time.Time, error)
	// GetTags returns the object's current tag set.
	GetTags(ctx context.Context, bucket, key string) (tags.Set, error)
	// PutTags replaces the object's tag set.
	PutTags(ctx context.Context, bucket, key string, tagSet tags.Set) error
	// List returns the keys under prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
	// Presign returns a time-limited download URL for an object.
	Presign(bucket, key string, expiry time.Duration) (string, error)
}
