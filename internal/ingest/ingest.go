// Package ingest discovers, watches and processes invoice text files.
package ingest

import (
	"context"
)

// FileResult is the per-file outcome.
type FileResult struct {
	Path         string   `json:"path"`
	HashHex      string   `json:"sha256"`
	Deduplicated bool     `json:"deduplicated,omitempty"`
	Method       string   `json:"method,omitempty"`
	Confidence   float64  `json:"confidence"`
	Missing      []string `json:"missing,omitempty"`
	Outputs      []string `json:"outputs,omitempty"`
	Err          string   `json:"error,omitempty"`
}

// Processor is the behavior the daemon and the batch CLI depend on.
type Processor interface {
	ProcessFile(ctx context.Context, path string, force bool) (FileResult, error)
}
