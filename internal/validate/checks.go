// Package validate runs the structural checks on an extracted record and
// turns their outcome into a confidence score.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Rules parameterize the checks.
type Rules struct {
	// DomesticVATPrefix is the country whose VAT ids must be 8-10 digits.
	DomesticVATPrefix string
	// SumTolerance bounds |excl + tax - incl|.
	SumTolerance decimal.Decimal
}

// DefaultRules returns the Czech defaults.
func DefaultRules() Rules {
	return Rules{
		DomesticVATPrefix: "CZ",
		SumTolerance:      decimal.RequireFromString("0.03"),
	}
}

var (
	reVSPrefix = regexp.MustCompile(`(?i)^(?:variabiln[ií]\s+symbol|var\.?\s*symbol|variable\s+symbol|v\.?s\.?)\s*[:.#]?\s*`)
	reVSBody   = regexp.MustCompile(`^[A-Za-z0-9-]{2,12}$`)
	reTaxID    = regexp.MustCompile(`^\d{8}$`)
	reVATID    = regexp.MustCompile(`^[A-Z]{2}[0-9A-Z]{8,12}$`)
	reDigits   = regexp.MustCompile(`^\d{8,10}$`)
)

// Run evaluates every check against rec. Checks whose field is absent are
// recorded as not applicable.
func Run(rec invoice.Record, source string, rules Rules) invoice.Validations {
	v := invoice.Validations{}

	if rec.VariableSymbol == nil {
		v.NotApplicable(invoice.CheckVariableSymbol)
	} else {
		v.Set(invoice.CheckVariableSymbol, VariableSymbol(*rec.VariableSymbol))
	}

	if rec.Supplier.TaxID == nil {
		v.NotApplicable(invoice.CheckTaxID)
	} else {
		v.Set(invoice.CheckTaxID, TaxID(*rec.Supplier.TaxID))
	}

	if rec.Supplier.VATID == nil {
		v.NotApplicable(invoice.CheckVATID)
	} else {
		v.Set(invoice.CheckVATID, VATID(*rec.Supplier.VATID, source, rules.DomesticVATPrefix))
	}

	if ok, applicable := SumCheck(rec, rules.SumTolerance); applicable {
		v.Set(invoice.CheckSumCheck, ok)
	} else {
		v.NotApplicable(invoice.CheckSumCheck)
	}
	return v
}

// Err wraps common.ErrValidation with the names of the failed checks, or
// returns nil when nothing failed.
func Err(v invoice.Validations) error {
	failed := v.FailedNames()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(failed, ", "))
}

// VariableSymbol accepts 2-12 alphanumerics or dashes once a label prefix is stripped.
func VariableSymbol(s string) bool {
	s = reVSPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	return reVSBody.MatchString(s)
}

// TaxID runs the Czech IČO mod-11 checksum over an 8-digit id.
func TaxID(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if !reTaxID.MatchString(s) {
		return false
	}
	sum := 0
	for i := range 7 {
		sum += int(s[i]-'0') * (8 - i)
	}
	var check int
	switch r := sum % 11; r {
	case 0, 10:
		check = 1
	case 1:
		check = 0
	default:
		check = 11 - r
	}
	return int(s[7]-'0') == check
}

// VATID checks the shape of a VAT id and that it occurs in source.
func VATID(s, source, domestic string) bool {
	id := compact(s)
	if !reVATID.MatchString(id) {
		return false
	}
	if domestic != "" && strings.HasPrefix(id, strings.ToUpper(domestic)) && !reDigits.MatchString(id[2:]) {
		return false
	}
	return strings.Contains(compact(source), id)
}

func compact(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// SumCheck compares excl + tax with incl. With fewer than two known members
// it passes vacuously; with exactly two it is not applicable.
func SumCheck(rec invoice.Record, tolerance decimal.Decimal) (ok, applicable bool) {
	switch rec.Known() {
	case 0, 1:
		return true, true
	case 2:
		return false, false
	}
	diff := rec.AmountExclTax.Add(*rec.TaxAmount).Sub(*rec.AmountInclTax).Abs()
	return diff.LessThanOrEqual(tolerance), true
}
