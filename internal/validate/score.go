package validate

import (
	"math"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Weights of the confidence score.
type Weights struct {
	Base        float64
	PerCheck    float64
	PerField    float64
	Placeholder float64
	FailedID    float64
}

func DefaultWeights() Weights {
	return Weights{
		Base:        0.30,
		PerCheck:    0.10,
		PerField:    0.06,
		Placeholder: 0.15,
		FailedID:    0.10,
	}
}

const maxConfidence = 0.99

var rePlaceholder = regexp.MustCompile(`^(?:n/?a|null|nil|none|unknown|tbd|x{3,}|-{3,}|lorem\b.*|0{4,}|123456\d*)$`)

var identifierChecks = []string{invoice.CheckTaxID, invoice.CheckVATID, invoice.CheckVariableSymbol}

// Score folds validations and field coverage into [0, 0.99], rounded to two
// decimals. Records of empty documents score 0.
func Score(rec invoice.Record, v invoice.Validations, w Weights) float64 {
	if rec.Method == invoice.MethodNone {
		return 0
	}
	s := w.Base
	for name := range v {
		if v.Passed(name) {
			s += w.PerCheck
		}
	}
	for _, f := range invoice.CriticalFields {
		if rec.Has(f) {
			s += w.PerField
		}
	}
	s -= w.Placeholder * float64(Placeholders(rec))
	for _, name := range identifierChecks {
		if v.Failed(name) {
			s -= w.FailedID
		}
	}
	s = math.Max(0, math.Min(maxConfidence, s))
	return math.Round(s*100) / 100
}

// Placeholders counts string fields holding a filler value such as "N/A".
func Placeholders(rec invoice.Record) int {
	n := 0
	for _, f := range invoice.Fields {
		p := rec.StringSlot(f)
		if p == nil || *p == nil {
			continue
		}
		if IsPlaceholder(**p) {
			n++
		}
	}
	return n
}

func IsPlaceholder(s string) bool {
	return rePlaceholder.MatchString(strings.ToLower(strings.TrimSpace(s)))
}
