// Package reconcile merges the records of several extraction strategies into one.
package reconcile

import (
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Origin says which strategy produced a candidate.
type Origin int

const (
	OriginTemplate Origin = iota
	OriginHeuristic
	OriginExternal
)

func (o Origin) String() string {
	switch o {
	case OriginTemplate:
		return "template"
	case OriginHeuristic:
		return "heuristic"
	case OriginExternal:
		return "external"
	}
	return "unknown"
}

// Candidate is one strategy's record. Template candidates are only produced
// for layouts whose required keywords were all present.
type Candidate struct {
	Origin Origin
	Record invoice.Record
}

// Source is the document text external strings are checked against.
type Source struct {
	Raw  string
	Text string
}

// Result is the merged record and what happened to external values.
type Result struct {
	Record   invoice.Record
	Method   invoice.Method
	Adopted  []string
	Rejected []string
}

// groundedFields must literally occur in the source before an external value
// is adopted. Dates, amounts and currency are normalized values and skip it.
var groundedFields = map[string]bool{
	invoice.FieldVariableSymbol:  true,
	invoice.FieldSupplierName:    true,
	invoice.FieldSupplierTaxID:   true,
	invoice.FieldSupplierVATID:   true,
	invoice.FieldSupplierAddress: true,
	invoice.FieldPaymentMethod:   true,
	invoice.FieldBankName:        true,
	invoice.FieldAccountNumber:   true,
}

// Merge walks candidates in order. The first template candidate wins outright.
// Otherwise the first heuristic candidate is the base and external candidates
// only fill its empty slots.
func Merge(src Source, candidates ...Candidate) Result {
	for _, c := range candidates {
		if c.Origin == OriginTemplate {
			rec := c.Record.Clone()
			rec.Method = invoice.MethodTemplate
			return Result{Record: rec, Method: invoice.MethodTemplate}
		}
	}

	res := Result{Method: invoice.MethodNone}
	base := -1
	for i, c := range candidates {
		if c.Origin == OriginHeuristic {
			base = i
			res.Record = c.Record.Clone()
			res.Method = c.Record.Method
			break
		}
	}
	if base < 0 {
		res.Method = invoice.MethodHeuristic
	}

	g := newGround(src)
	for _, c := range candidates {
		if c.Origin != OriginExternal {
			continue
		}
		adopted, rejected := fill(&res.Record, c.Record, g)
		res.Adopted = append(res.Adopted, adopted...)
		res.Rejected = append(res.Rejected, rejected...)
	}
	if len(res.Adopted) > 0 {
		res.Method = invoice.MethodHeuristicLLM
	}
	if res.Method == "" {
		res.Method = invoice.MethodHeuristic
	}
	res.Record.Method = res.Method

	invoice.DeriveTriplet(&res.Record)
	return res
}

func fill(dst *invoice.Record, ext invoice.Record, g ground) (adopted, rejected []string) {
	for _, f := range invoice.Fields {
		if a := ext.AmountSlot(f); a != nil {
			if *a != nil && *dst.AmountSlot(f) == nil {
				v := **a
				*dst.AmountSlot(f) = &v
				adopted = append(adopted, f)
			}
			continue
		}
		p := ext.StringSlot(f)
		if p == nil || *p == nil {
			continue
		}
		val := **p
		slot := dst.StringSlot(f)

		if f == invoice.FieldCurrency {
			if !normalize.IsKnownCurrency(val) {
				rejected = append(rejected, f)
				continue
			}
			if *slot == nil || !normalize.IsKnownCurrency(**slot) {
				*slot = invoice.Str(val)
				adopted = append(adopted, f)
			}
			continue
		}
		if *slot != nil {
			continue
		}
		if groundedFields[f] && !g.contains(val) {
			rejected = append(rejected, f)
			continue
		}
		*slot = invoice.Str(val)
		adopted = append(adopted, f)
	}
	return adopted, rejected
}

type ground struct {
	raw, text, collapsed string
}

func newGround(src Source) ground {
	return ground{
		raw:       strings.ToLower(src.Raw),
		text:      strings.ToLower(src.Text),
		collapsed: strings.ToLower(ocr.Collapse(src.Raw)),
	}
}

// contains is a case-insensitive literal substring test against the raw,
// normalized and whitespace-collapsed source.
func (g ground) contains(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	if strings.Contains(g.raw, v) || strings.Contains(g.text, v) {
		return true
	}
	return strings.Contains(g.collapsed, strings.ToLower(ocr.Collapse(v)))
}
