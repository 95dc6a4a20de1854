// Package heuristic extracts invoice fields without a layout template, using
// label proximity and whole-document inference.
package heuristic

import (
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Options tune the amount ranking and the payment lookups.
type Options struct {
	// Amount candidates on one line are ranked by
	// DecimalBonus + GroupedBonus + MagnitudeWeight*min(log10(v), MagnitudeCap).
	DecimalBonus    float64
	GroupedBonus    float64
	MagnitudeWeight float64
	MagnitudeCap    float64

	// InferBankName fills bank_name from the bank code of a local account number.
	InferBankName bool
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		DecimalBonus:    3,
		GroupedBonus:    2,
		MagnitudeWeight: 0.25,
		MagnitudeCap:    7,
		InferBankName:   true,
	}
}

// Extractor is stateless and safe for concurrent use.
type Extractor struct {
	opts Options
}

// New builds an Extractor. Zero ranking weights fall back to the defaults.
func New(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.DecimalBonus == 0 && opts.GroupedBonus == 0 && opts.MagnitudeWeight == 0 {
		opts.DecimalBonus, opts.GroupedBonus, opts.MagnitudeWeight = def.DecimalBonus, def.GroupedBonus, def.MagnitudeWeight
	}
	if opts.MagnitudeCap <= 0 {
		opts.MagnitudeCap = def.MagnitudeCap
	}
	return &Extractor{opts: opts}
}

// Extract builds a record from doc. Empty documents yield an empty record.
func (e *Extractor) Extract(doc ocr.Document) invoice.Record {
	rec := invoice.Record{Method: invoice.MethodHeuristic}
	if doc.Empty() {
		rec.Method = invoice.MethodNone
		return rec
	}
	l := locate.Prepare(doc.Lines)

	rec.VariableSymbol = invoice.Str(findReference(l, doc.Text))
	rec.IssueDate = invoice.Str(findDate(l, doc.Text, issueDate))
	rec.DueDate = invoice.Str(findDate(l, doc.Text, dueDate))
	rec.TaxPointDate = invoice.Str(findDate(l, doc.Text, taxPointDate))

	e.findAmounts(l, &rec)
	rec.Currency = invoice.Str(findCurrency(doc.Text))

	rec.Supplier = findSupplier(l)

	pay := e.findPayment(l, doc.Text)
	rec.AccountNumber = invoice.Str(pay.account)
	rec.BankName = invoice.Str(pay.bank)
	rec.PaymentMethod = invoice.Str(pay.method)

	invoice.DeriveTriplet(&rec)
	return rec
}
