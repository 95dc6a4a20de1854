package invoice

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestDeriveTriplet(t *testing.T) {
	t.Run("tax from excl and incl", func(t *testing.T) {
		r := Record{AmountExclTax: d("2500.00"), AmountInclTax: d("3025.00")}
		DeriveTriplet(&r)
		require.NotNil(t, r.TaxAmount)
		assert.Equal(t, "525.00", r.TaxAmount.StringFixed(2))
		assert.True(t, r.Derived.TaxAmount)
		assert.False(t, r.Derived.AmountInclTax)
	})
	t.Run("excl from tax and incl", func(t *testing.T) {
		r := Record{TaxAmount: d("2100"), AmountInclTax: d("12100")}
		DeriveTriplet(&r)
		require.NotNil(t, r.AmountExclTax)
		assert.Equal(t, "10000.00", r.AmountExclTax.StringFixed(2))
		assert.True(t, r.Derived.AmountExclTax)
	})
	t.Run("incl from excl and tax", func(t *testing.T) {
		r := Record{AmountExclTax: d("100.10"), TaxAmount: d("21.02")}
		DeriveTriplet(&r)
		require.NotNil(t, r.AmountInclTax)
		assert.Equal(t, "121.12", r.AmountInclTax.StringFixed(2))
		assert.True(t, r.Derived.Any())
	})
	t.Run("vat exempt stays empty", func(t *testing.T) {
		r := Record{AmountExclTax: d("500"), AmountInclTax: d("500")}
		DeriveTriplet(&r)
		assert.Nil(t, r.TaxAmount)
		assert.False(t, r.Derived.Any())
	})
	t.Run("negative noise clamps to zero", func(t *testing.T) {
		r := Record{AmountExclTax: d("100.02"), AmountInclTax: d("100.00")}
		DeriveTriplet(&r)
		require.NotNil(t, r.TaxAmount)
		assert.True(t, r.TaxAmount.IsZero())
	})
	t.Run("implausible negative is not derived", func(t *testing.T) {
		r := Record{AmountExclTax: d("150"), AmountInclTax: d("100")}
		DeriveTriplet(&r)
		assert.Nil(t, r.TaxAmount)
	})
	t.Run("complete triplet untouched", func(t *testing.T) {
		r := Record{AmountExclTax: d("1"), TaxAmount: d("1"), AmountInclTax: d("5")}
		DeriveTriplet(&r)
		assert.Equal(t, "5", r.AmountInclTax.String())
		assert.False(t, r.Derived.Any())
	})
}

func TestRecordJSON(t *testing.T) {
	r := Record{
		VariableSymbol: Str("2024001234"),
		AmountInclTax:  d("12100"),
		Method:         MethodHeuristic,
		Validations:    Validations{},
	}
	r.Validations.Set(CheckSumCheck, true)
	r.Validations.NotApplicable(CheckTaxID)

	b, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "2024001234", m["variable_symbol"])
	assert.Equal(t, "12100.00", m["amount_incl_tax"])
	assert.Nil(t, m["tax_amount"])
	assert.Equal(t, "heuristic", m["method"])
	v := m["validations"].(map[string]any)
	assert.Equal(t, true, v["sum_check"])
	assert.Contains(t, v, "tax_id")
	assert.Nil(t, v["tax_id"])
	assert.Contains(t, m, "supplier")
}

func TestCloneDoesNotAlias(t *testing.T) {
	r := Record{Supplier: Supplier{Name: Str("ACME s.r.o.")}, AmountInclTax: d("10"), Validations: Validations{}}
	c := r.Clone()
	*c.Supplier.Name = "other"
	*c.AmountInclTax = decimal.NewFromInt(99)
	c.Validations.Set(CheckTaxID, false)

	assert.Equal(t, "ACME s.r.o.", *r.Supplier.Name)
	assert.Equal(t, "10", r.AmountInclTax.String())
	assert.Empty(t, r.Validations)
}

func TestMissingAndSlots(t *testing.T) {
	r := Record{IssueDate: Str("2025-06-12"), AmountInclTax: d("1")}
	assert.Equal(t, []string{FieldVariableSymbol, FieldDueDate, FieldCurrency}, r.Missing())

	*r.StringSlot(FieldSupplierName) = Str("ACME")
	assert.True(t, r.Has(FieldSupplierName))
	assert.Nil(t, r.StringSlot("nope"))
	assert.Nil(t, r.AmountSlot(FieldCurrency))
	assert.Equal(t, 1, r.Known())
}

func TestValidations(t *testing.T) {
	v := Validations{}
	v.Set("a", true)
	v.Set("b", false)
	v.NotApplicable("c")

	assert.True(t, v.Passed("a"))
	assert.True(t, v.Failed("b"))
	assert.False(t, v.Passed("c"))
	assert.False(t, v.Failed("c"))
	assert.True(t, v.AnyFailed())

	v.Set("a2", false)
	assert.Equal(t, []string{"a2", "b"}, v.FailedNames())
	assert.Empty(t, Validations{"x": nil}.FailedNames())
}
