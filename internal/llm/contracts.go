package llm

import (
	"context"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// ExtractRequest is what the pipeline hands to a model-backed extractor.
type ExtractRequest struct {
	Text string
	// Missing lists the critical fields the local strategies left empty.
	Missing []string
	// Failed lists validation checks that did not pass.
	Failed          []string
	DefaultCurrency string
	Source          string
}

// FieldExtractor is the interface the pipeline depends on. The returned
// record carries normalized values only; raw is the model's JSON after
// coercion, kept for logging and debugging.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (rec invoice.Record, raw []byte, err error)
}
