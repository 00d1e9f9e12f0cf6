// Package notify delivers file-processed notifications. Delivery is
// fire-and-forget by contract: a failed send is logged by the caller and
// never escalated into the pipeline's failure taxonomy.
package notify

import (
	"context"

	"conversionloader/internal/tags"
)

// Notifier announces that a file has been processed and relocated.
type Notifier interface {
	FileProcessed(ctx context.Context, bucket, key, link string, fileTags tags.Set) error
}

// Noop is used when notifications are disabled.
type Noop struct{}

func (Noop) FileProcessed(context.Context, string, string, string, tags.Set) error { return nil }
