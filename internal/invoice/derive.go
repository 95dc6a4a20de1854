package invoice

import "github.com/shopspring/decimal"

// RoundingNoise is the largest negative difference treated as zero when a
// triplet member is derived.
var RoundingNoise = decimal.RequireFromString("0.03")

// DeriveTriplet fills the one missing member of excl/tax/incl when the other
// two are known, and flags it in r.Derived. excl == incl with no tax is a
// VAT-exempt invoice and is left alone. Members that would come out
// negative beyond RoundingNoise are not derived.
func DeriveTriplet(r *Record) {
	excl, tax, incl := r.AmountExclTax, r.TaxAmount, r.AmountInclTax
	switch {
	case excl != nil && incl != nil && tax == nil:
		if excl.Equal(*incl) {
			return
		}
		if v, ok := clampNoise(incl.Sub(*excl)); ok {
			r.TaxAmount = Dec(v)
			r.Derived.TaxAmount = true
		}
	case tax != nil && incl != nil && excl == nil:
		if v, ok := clampNoise(incl.Sub(*tax)); ok {
			r.AmountExclTax = Dec(v)
			r.Derived.AmountExclTax = true
		}
	case excl != nil && tax != nil && incl == nil:
		if v, ok := clampNoise(excl.Add(*tax)); ok {
			r.AmountInclTax = Dec(v)
			r.Derived.AmountInclTax = true
		}
	}
}

func clampNoise(v decimal.Decimal) (decimal.Decimal, bool) {
	v = v.Round(2)
	if !v.IsNegative() {
		return v, true
	}
	if v.Abs().LessThanOrEqual(RoundingNoise) {
		return decimal.Zero, true
	}
	return decimal.Decimal{}, false
}

// Known counts how many triplet members are present.
func (r *Record) Known() int {
	n := 0
	for _, p := range []*decimal.Decimal{r.AmountExclTax, r.TaxAmount, r.AmountInclTax} {
		if p != nil {
			n++
		}
	}
	return n
}
