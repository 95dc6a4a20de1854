package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

var src = Source{
	Raw:  "Dodavatel:   ACME   s.r.o.\nVS: 2024001234\nCelkem 2500,00 EUR",
	Text: "Dodavatel: ACME s.r.o.\nVS: 2024001234\nCelkem 2500,00 EUR",
}

func TestTemplateIsAuthoritative(t *testing.T) {
	tpl := invoice.Record{VariableSymbol: invoice.Str("111111"), Template: "acme"}
	heu := invoice.Record{Method: invoice.MethodHeuristic, VariableSymbol: invoice.Str("2024001234"), DueDate: invoice.Str("2025-01-31")}

	res := Merge(src,
		Candidate{Origin: OriginTemplate, Record: tpl},
		Candidate{Origin: OriginHeuristic, Record: heu},
	)
	assert.Equal(t, invoice.MethodTemplate, res.Method)
	assert.Equal(t, "111111", invoice.Value(res.Record.VariableSymbol))
	assert.Nil(t, res.Record.DueDate, "heuristic never overrides a template")
	assert.Equal(t, "acme", res.Record.Template)
}

func TestExternalFillsOnlyEmptySlots(t *testing.T) {
	heu := invoice.Record{
		Method:         invoice.MethodHeuristic,
		VariableSymbol: invoice.Str("2024001234"),
		AmountInclTax:  dec("2500"),
	}
	ext := invoice.Record{
		VariableSymbol: invoice.Str("999999"),
		DueDate:        invoice.Str("2025-01-31"),
		AmountInclTax:  dec("1"),
		AmountExclTax:  dec("2066.12"),
		Currency:       invoice.Str("EUR"),
	}
	res := Merge(src,
		Candidate{Origin: OriginHeuristic, Record: heu},
		Candidate{Origin: OriginExternal, Record: ext},
	)

	assert.Equal(t, invoice.MethodHeuristicLLM, res.Method)
	assert.Equal(t, invoice.MethodHeuristicLLM, res.Record.Method)
	assert.Equal(t, "2024001234", invoice.Value(res.Record.VariableSymbol))
	assert.Equal(t, "2500.00", res.Record.AmountInclTax.StringFixed(2))
	assert.Equal(t, "2025-01-31", invoice.Value(res.Record.DueDate))
	assert.Equal(t, "EUR", invoice.Value(res.Record.Currency))
	require.NotNil(t, res.Record.TaxAmount)
	assert.Equal(t, "433.88", res.Record.TaxAmount.StringFixed(2))
	assert.True(t, res.Record.Derived.TaxAmount)
	assert.ElementsMatch(t, []string{invoice.FieldDueDate, invoice.FieldAmountExclTax, invoice.FieldCurrency}, res.Adopted)
}

func TestExternalStringsMustOccurInSource(t *testing.T) {
	heu := invoice.Record{Method: invoice.MethodHeuristic}
	ext := invoice.Record{
		Supplier:      invoice.Supplier{Name: invoice.Str("acme s.r.o."), Address: invoice.Str("Hlavní 1, Praha")},
		BankName:      invoice.Str("Fio banka"),
		AccountNumber: invoice.Str("2024001234"),
	}
	res := Merge(src,
		Candidate{Origin: OriginHeuristic, Record: heu},
		Candidate{Origin: OriginExternal, Record: ext},
	)

	assert.Equal(t, "acme s.r.o.", invoice.Value(res.Record.Supplier.Name), "case-insensitive match on collapsed text")
	assert.Nil(t, res.Record.Supplier.Address)
	assert.Nil(t, res.Record.BankName)
	assert.Equal(t, "2024001234", invoice.Value(res.Record.AccountNumber))
	assert.ElementsMatch(t, []string{invoice.FieldSupplierAddress, invoice.FieldBankName}, res.Rejected)
}

func TestCurrencyReplacesUnrecognized(t *testing.T) {
	heu := invoice.Record{Method: invoice.MethodHeuristic, Currency: invoice.Str("KČS")}
	res := Merge(src,
		Candidate{Origin: OriginHeuristic, Record: heu},
		Candidate{Origin: OriginExternal, Record: invoice.Record{Currency: invoice.Str("EUR")}},
	)
	assert.Equal(t, "EUR", invoice.Value(res.Record.Currency))

	heu.Currency = invoice.Str("CZK")
	res = Merge(src,
		Candidate{Origin: OriginHeuristic, Record: heu},
		Candidate{Origin: OriginExternal, Record: invoice.Record{Currency: invoice.Str("EUR")}},
	)
	assert.Equal(t, "CZK", invoice.Value(res.Record.Currency))
	assert.Equal(t, invoice.MethodHeuristic, res.Method)
}

func TestMergeDoesNotAliasCandidates(t *testing.T) {
	heu := invoice.Record{Method: invoice.MethodHeuristic, AmountExclTax: dec("100")}
	res := Merge(src, Candidate{Origin: OriginHeuristic, Record: heu})
	*res.Record.AmountExclTax = decimal.NewFromInt(5)
	assert.Equal(t, "100", heu.AmountExclTax.String())
}
