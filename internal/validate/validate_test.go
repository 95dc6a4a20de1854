package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestTaxID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"25596641", true},
		{"27082440", true},
		{"00006947", true},
		{"255 96 641", true},
		{"25596642", false},
		{"25956641", false}, // adjacent digits swapped
		{"12345678", false},
		{"2559664", false},
		{"2559664a", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TaxID(tc.in), tc.in)
	}
}

// weightedRemainder is the mod-11 remainder over the first seven digits.
func weightedRemainder(id string) int {
	sum := 0
	for i := range 7 {
		sum += int(id[i]-'0') * (8 - i)
	}
	return sum % 11
}

func swapped(id string, i, j int) string {
	b := []byte(id)
	b[i], b[j] = b[j], b[i]
	return string(b)
}

func TestTaxIDRejectsTranspositions(t *testing.T) {
	for _, id := range []string{"27082440", "00006947", "45274649", "26168685", "60193336"} {
		require.True(t, TaxID(id), id)
		for i := 0; i < len(id); i++ {
			for j := i + 1; j < len(id); j++ {
				if id[i] == id[j] {
					continue
				}
				s := swapped(id, i, j)
				assert.False(t, TaxID(s), "%s -> %s", id, s)
			}
		}
	}
}

func TestTaxIDTranspositionOnlyPassesOnSharedCheckDigit(t *testing.T) {
	// Remainders 0 and 10 both map to check digit 1, the one blind spot of the rule.
	assert.True(t, TaxID("83120211"))
	assert.True(t, TaxID("83210211"))

	for _, id := range []string{"25596641", "27082440", "83120211", "00006947", "45274649"} {
		for i := 0; i < 7; i++ {
			for j := i + 1; j < 7; j++ {
				if id[i] == id[j] {
					continue
				}
				s := swapped(id, i, j)
				before, after := weightedRemainder(id), weightedRemainder(s)
				assert.NotEqual(t, before, after, "%s -> %s", id, s)
				if TaxID(s) {
					assert.ElementsMatch(t, []int{0, 10}, []int{before, after}, "%s -> %s", id, s)
				}
			}
		}
	}
}

func TestVATID(t *testing.T) {
	src := "Dodavatel ACME\nDIČ: CZ25596641\nUSt-IdNr.: DE 123456789"
	assert.True(t, VATID("CZ25596641", src, "CZ"))
	assert.True(t, VATID("cz 25596641", src, "CZ"))
	assert.True(t, VATID("DE123456789", src, "CZ"))
	assert.False(t, VATID("CZ25596641", "no id here", "CZ"), "must occur in the source")
	assert.False(t, VATID("CZ2559664A", "CZ2559664A", "CZ"), "domestic ids are digits only")
	assert.True(t, VATID("CZ2559664A", "CZ2559664A", "SK"))
	assert.False(t, VATID("C25596641", src, "CZ"))
}

func TestErr(t *testing.T) {
	v := invoice.Validations{}
	v.Set(invoice.CheckSumCheck, true)
	v.NotApplicable(invoice.CheckVATID)
	assert.NoError(t, Err(v))

	v.Set(invoice.CheckTaxID, false)
	v.Set(invoice.CheckVariableSymbol, false)
	err := Err(v)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "tax_id, variable_symbol")
}

func TestVariableSymbol(t *testing.T) {
	assert.True(t, VariableSymbol("2024001234"))
	assert.True(t, VariableSymbol("VS: 2024001234"))
	assert.True(t, VariableSymbol("FV-2024-17"))
	assert.False(t, VariableSymbol("1"))
	assert.False(t, VariableSymbol("2024 001 234"))
	assert.False(t, VariableSymbol("1234567890123"))
}

func TestSumCheck(t *testing.T) {
	tol := DefaultRules().SumTolerance

	ok, applicable := SumCheck(invoice.Record{AmountExclTax: dec("10000"), TaxAmount: dec("2100"), AmountInclTax: dec("12100")}, tol)
	assert.True(t, applicable)
	assert.True(t, ok)

	ok, _ = SumCheck(invoice.Record{AmountExclTax: dec("10000"), TaxAmount: dec("2100"), AmountInclTax: dec("12100.03")}, tol)
	assert.True(t, ok, "within tolerance")

	ok, _ = SumCheck(invoice.Record{AmountExclTax: dec("10000"), TaxAmount: dec("2100"), AmountInclTax: dec("12100.04")}, tol)
	assert.False(t, ok, "perturbed beyond tolerance")

	_, applicable = SumCheck(invoice.Record{AmountExclTax: dec("100"), AmountInclTax: dec("100")}, tol)
	assert.False(t, applicable)

	ok, applicable = SumCheck(invoice.Record{AmountInclTax: dec("100")}, tol)
	assert.True(t, applicable)
	assert.True(t, ok)
}

func TestRun(t *testing.T) {
	rec := invoice.Record{
		VariableSymbol: invoice.Str("2024001234"),
		Supplier: invoice.Supplier{
			TaxID: invoice.Str("25596642"),
			VATID: invoice.Str("CZ25596641"),
		},
		AmountExclTax: dec("100"),
		AmountInclTax: dec("100"),
	}
	v := Run(rec, "DIČ: CZ25596641", DefaultRules())

	assert.True(t, v.Passed(invoice.CheckVariableSymbol))
	assert.True(t, v.Failed(invoice.CheckTaxID))
	assert.True(t, v.Passed(invoice.CheckVATID))
	require.Contains(t, v, invoice.CheckSumCheck)
	assert.Nil(t, v[invoice.CheckSumCheck])

	empty := Run(invoice.Record{}, "", DefaultRules())
	assert.Nil(t, empty[invoice.CheckTaxID])
	assert.Nil(t, empty[invoice.CheckVATID])
	assert.Nil(t, empty[invoice.CheckVariableSymbol])
	assert.True(t, empty.Passed(invoice.CheckSumCheck))
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	full := invoice.Record{
		Method:         invoice.MethodHeuristic,
		VariableSymbol: invoice.Str("2024001234"),
		IssueDate:      invoice.Str("2025-06-12"),
		DueDate:        invoice.Str("2025-06-26"),
		AmountInclTax:  dec("12100"),
		Currency:       invoice.Str("CZK"),
	}
	v := invoice.Validations{}
	v.Set(invoice.CheckVariableSymbol, true)
	v.Set(invoice.CheckSumCheck, true)
	v.NotApplicable(invoice.CheckTaxID)
	v.NotApplicable(invoice.CheckVATID)

	// 0.30 + 2*0.10 + 5*0.06
	assert.Equal(t, 0.8, Score(full, v, w))

	v.Set(invoice.CheckTaxID, true)
	v.Set(invoice.CheckVATID, true)
	assert.Equal(t, 0.99, Score(full, v, w), "clamped")

	bad := invoice.Record{Method: invoice.MethodHeuristic, BankName: invoice.Str("N/A"), AccountNumber: invoice.Str("0000000")}
	bv := invoice.Validations{}
	bv.Set(invoice.CheckTaxID, false)
	assert.Equal(t, 0.0, Score(bad, bv, w))

	assert.Equal(t, 0.0, Score(invoice.Record{Method: invoice.MethodNone}, invoice.Validations{}, w))
}

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"N/A", "na", "null", "None", "unknown", "TBD", "xxxx", "---", "Lorem ipsum", "0000", "1234567"} {
		assert.True(t, IsPlaceholder(s), s)
	}
	for _, s := range []string{"ACME s.r.o.", "2024001234", "Fio banka", "xx"} {
		assert.False(t, IsPlaceholder(s), s)
	}
}
