// Package extract turns source files into document text.
package extract

import (
	"context"
	"time"
)

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Bytes      int
	SourceType string // "TEXT"
	Method     string // "text-file"
	Duration   time.Duration
	Warnings   []string
}
