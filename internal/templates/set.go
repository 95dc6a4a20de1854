package templates

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

const (
	requiredWeight = 3
	optionalWeight = 1
)

var dateFields = []string{invoice.FieldIssueDate, invoice.FieldDueDate, invoice.FieldTaxPointDate}

type compiled struct {
	def      Definition
	required []string
	optional []string
	fields   map[string]*regexp.Regexp
}

// Set is an immutable collection of compiled templates, safe for concurrent use.
type Set struct {
	items []compiled
}

// Result is the outcome of a successful match.
type Result struct {
	Name   string
	Score  int
	Record invoice.Record
	Tied   []string // other templates with the same score, in name order
}

// Ambiguous reports a tie as common.ErrAmbiguousValue, or nil.
func (r Result) Ambiguous() error {
	if len(r.Tied) == 0 {
		return nil
	}
	return fmt.Errorf("%w: template %q tied with %s at score %d",
		common.ErrAmbiguousValue, r.Name, strings.Join(r.Tied, ", "), r.Score)
}

// Compile validates and compiles defs. Definitions are ordered by name so
// equal scores resolve the same way on every start.
func Compile(defs []Definition) (*Set, error) {
	var errs []error
	seen := map[string]bool{}
	items := make([]compiled, 0, len(defs))
	for _, def := range defs {
		c, err := compile(def)
		if err == nil && seen[def.Name] {
			err = fmt.Errorf("duplicate name")
		}
		if err != nil {
			errs = append(errs, common.NewAppError("TEMPLATE_ERROR", def.Name, errors.Join(common.ErrInvalidTemplate, err)))
			continue
		}
		seen[def.Name] = true
		items = append(items, c)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].def.Name < items[j].def.Name })
	return &Set{items: items}, nil
}

func compile(def Definition) (compiled, error) {
	if strings.TrimSpace(def.Name) == "" {
		return compiled{}, fmt.Errorf("missing name")
	}
	c := compiled{def: def, fields: map[string]*regexp.Regexp{}}
	for _, kw := range def.RequiredKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			c.required = append(c.required, ocr.Fold(kw))
		}
	}
	if len(c.required) == 0 {
		return compiled{}, fmt.Errorf("at least one required keyword is needed")
	}
	for _, kw := range def.OptionalKeywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			c.optional = append(c.optional, ocr.Fold(kw))
		}
	}
	for name, pattern := range def.Fields {
		if !slices.Contains(invoice.Fields, name) {
			return compiled{}, fmt.Errorf("unknown field %q", name)
		}
		re, err := regexp.Compile(`(?ims)` + pattern)
		if err != nil {
			return compiled{}, fmt.Errorf("field %s: %w", name, err)
		}
		c.fields[name] = re
	}
	return c, nil
}

// Len reports the number of templates.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Names lists template names in match order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.items))
	for i, c := range s.items {
		out[i] = c.def.Name
	}
	return out
}

// score is -1 when a required keyword is missing.
func (c compiled) score(folded string) int {
	sc := 0
	for _, kw := range c.required {
		if !strings.Contains(folded, kw) {
			return -1
		}
		sc += requiredWeight
	}
	for _, kw := range c.optional {
		if strings.Contains(folded, kw) {
			sc += optionalWeight
		}
	}
	return sc
}

// Match picks the highest scoring template whose required keywords are all
// present and extracts its fields. Ties keep name order.
func (s *Set) Match(doc ocr.Document) (Result, bool) {
	if s.Len() == 0 || doc.Empty() {
		return Result{}, false
	}
	folded := ocr.Fold(doc.Text)
	best, bestScore := -1, -1
	var tied []string
	for i, c := range s.items {
		sc := c.score(folded)
		switch {
		case sc < 0:
		case sc > bestScore:
			best, bestScore, tied = i, sc, nil
		case sc == bestScore:
			tied = append(tied, c.def.Name)
		}
	}
	if best < 0 {
		return Result{}, false
	}
	c := s.items[best]
	return Result{Name: c.def.Name, Score: bestScore, Record: c.extract(doc), Tied: tied}, true
}

func (c compiled) extract(doc ocr.Document) invoice.Record {
	rec := invoice.Record{Method: invoice.MethodTemplate, Template: c.def.Name}
	for name, re := range c.fields {
		v, ok := capture(re, doc.Text)
		if !ok {
			continue
		}
		switch {
		case slices.Contains(dateFields, name):
			if iso, ok := normalize.Date(v); ok {
				*rec.StringSlot(name) = invoice.Str(iso)
			}
		case rec.AmountSlot(name) != nil:
			if amt, ok := normalize.Amount(v); ok {
				*rec.AmountSlot(name) = invoice.Dec(amt)
			}
		case name == invoice.FieldCurrency:
			if code, ok := normalize.Currency(v); ok {
				rec.Currency = invoice.Str(code)
			}
		default:
			*rec.StringSlot(name) = invoice.Str(ocr.Collapse(v))
		}
	}

	sd := c.def.SupplierDefaults
	fill := func(slot **string, def string) {
		if *slot == nil {
			*slot = invoice.Str(def)
		}
	}
	fill(&rec.Supplier.Name, sd.Name)
	fill(&rec.Supplier.TaxID, sd.TaxID)
	fill(&rec.Supplier.VATID, sd.VATID)
	fill(&rec.Supplier.Address, sd.Address)

	if rec.Currency == nil {
		if code, ok := normalize.VoteCurrency(doc.Text); ok {
			rec.Currency = invoice.Str(code)
		}
	}
	invoice.DeriveTriplet(&rec)
	return rec
}

// capture returns the first group, or the whole match when the pattern has none.
func capture(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	v := m[0]
	if len(m) > 1 {
		v = m[1]
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
