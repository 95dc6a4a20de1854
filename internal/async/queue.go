// Package async runs file jobs on a fixed pool of workers.
package async

import (
	"context"
	"time"
)

// Job is one file to process.
type Job struct {
	Path        string
	Force       bool // process even if the content was seen before
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes one job. Errors are logged by the queue.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
