package templates

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

const acmeJSON = `{
  "name": "acme",
  "required_keywords": ["ACME Energie", "Faktura"],
  "optional_keywords": ["Odběrné místo"],
  "fields": {
    "variable_symbol": "Variabilní symbol:\\s*(\\d+)",
    "datum_vystaveni": "Vystaveno:\\s*([0-9.]+)",
    "amount_incl_tax": "K úhradě:\\s*([0-9 ,.]+)",
    "amount_excl_tax": "Základ:\\s*([0-9 ,.]+)"
  },
  "supplier_defaults": {"nazev": "ACME Energie a.s.", "ico": "25596641"}
}`

const genericJSON = `{
  "name": "generic-faktura",
  "required_keywords": ["Faktura"],
  "fields": {"variable_symbol": "VS\\s*(\\d+)"}
}`

const acmeText = "ACME Energie\nFAKTURA - daňový doklad\nVariabilní symbol: 7788990011\nVystaveno: 3.2.2025\nZáklad: 1 000,00\nK úhradě: 1 210,00 Kč\n"

func loadSet(t *testing.T, files map[string]string) *Set {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	defs, err := LoadDir(fsys)
	require.NoError(t, err)
	set, err := Compile(defs)
	require.NoError(t, err)
	return set
}

func TestMatchExtractsFields(t *testing.T) {
	set := loadSet(t, map[string]string{"acme.json": acmeJSON, "generic.json": genericJSON, "README.md": "x"})
	require.Equal(t, []string{"acme", "generic-faktura"}, set.Names())

	res, ok := set.Match(ocr.Normalize(acmeText))
	require.True(t, ok)
	assert.Equal(t, "acme", res.Name)
	assert.Equal(t, 6, res.Score)

	rec := res.Record
	assert.Equal(t, invoice.MethodTemplate, rec.Method)
	assert.Equal(t, "acme", rec.Template)
	assert.Equal(t, "7788990011", invoice.Value(rec.VariableSymbol))
	assert.Equal(t, "2025-02-03", invoice.Value(rec.IssueDate))
	assert.Equal(t, "1210.00", rec.AmountInclTax.StringFixed(2))
	assert.Equal(t, "1000.00", rec.AmountExclTax.StringFixed(2))
	assert.Equal(t, "210.00", rec.TaxAmount.StringFixed(2))
	assert.True(t, rec.Derived.TaxAmount)
	assert.Equal(t, "CZK", invoice.Value(rec.Currency))
	assert.Equal(t, "ACME Energie a.s.", invoice.Value(rec.Supplier.Name))
	assert.Equal(t, "25596641", invoice.Value(rec.Supplier.TaxID))
	assert.Nil(t, rec.Supplier.VATID)
}

func TestMatchRequiresAllKeywords(t *testing.T) {
	set := loadSet(t, map[string]string{"acme.json": acmeJSON})
	_, ok := set.Match(ocr.Normalize("Faktura\nsomething else"))
	assert.False(t, ok)
}

func TestMatchFallsBackToWeakerTemplate(t *testing.T) {
	set := loadSet(t, map[string]string{"acme.json": acmeJSON, "generic.json": genericJSON})
	res, ok := set.Match(ocr.Normalize("Faktura 12\nVS 556677"))
	require.True(t, ok)
	assert.Equal(t, "generic-faktura", res.Name)
	assert.Equal(t, "556677", invoice.Value(res.Record.VariableSymbol))
}

func TestMatchTieKeepsNameOrder(t *testing.T) {
	b := `{"name": "b-layout", "required_keywords": ["invoice"], "fields": {}}`
	a := `{"name": "a-layout", "required_keywords": ["invoice"], "fields": {}}`
	set := loadSet(t, map[string]string{"b.json": b, "a.json": a})
	res, ok := set.Match(ocr.Normalize("Invoice"))
	require.True(t, ok)
	assert.Equal(t, "a-layout", res.Name)
	assert.Equal(t, []string{"b-layout"}, res.Tied)
	assert.True(t, errors.Is(res.Ambiguous(), common.ErrAmbiguousValue))
}

func TestCompileRejectsBadDefinitions(t *testing.T) {
	_, err := Compile([]Definition{
		{Name: "bad-regex", RequiredKeywords: []string{"x"}, Fields: map[string]string{"due_date": "("}},
		{Name: "no-required", Fields: map[string]string{}},
		{Name: "unknown-field", RequiredKeywords: []string{"x"}, Fields: map[string]string{"merchant": "x"}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidTemplate))
	assert.Contains(t, err.Error(), "bad-regex")
	assert.Contains(t, err.Error(), "no-required")
	assert.Contains(t, err.Error(), "unknown-field")
}

func TestCompileRejectsDuplicates(t *testing.T) {
	def := Definition{Name: "dup", RequiredKeywords: []string{"x"}}
	_, err := Compile([]Definition{def, def})
	require.Error(t, err)
}

func TestParseNameFallback(t *testing.T) {
	def, err := Parse([]byte(`{"required_keywords": ["x"]}`), "file-name")
	require.NoError(t, err)
	assert.Equal(t, "file-name", def.Name)

	_, err = Parse([]byte(`{`), "broken")
	require.Error(t, err)
}

func TestEmptySet(t *testing.T) {
	var s *Set
	_, ok := s.Match(ocr.Normalize("Faktura"))
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}
