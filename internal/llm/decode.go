package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
)

// ExtractJSONObject returns the outermost JSON object embedded in content,
// tolerating code fences and prose around it.
func ExtractJSONObject(content []byte) ([]byte, error) {
	start := bytes.IndexByte(content, '{')
	end := bytes.LastIndexByte(content, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no json object in model output", common.ErrExternalExtractor)
	}
	return content[start : end+1], nil
}

// Decode turns model output into a normalized record. Values that do not
// normalize (unparseable dates, amounts, unknown currencies) are left empty.
func Decode(content []byte, logger *slog.Logger) (invoice.Record, []byte, error) {
	obj, err := ExtractJSONObject(content)
	if err != nil {
		return invoice.Record{}, nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(obj, &m); err != nil {
		return invoice.Record{}, obj, fmt.Errorf("%w: decode: %v", common.ErrExternalExtractor, err)
	}
	m, _ = Coerce(m, logger)
	raw, err := json.Marshal(m)
	if err != nil {
		return invoice.Record{}, obj, fmt.Errorf("%w: encode: %v", common.ErrExternalExtractor, err)
	}
	if err := ValidateObject(m); err != nil {
		return invoice.Record{}, raw, fmt.Errorf("%w: %v", common.ErrExternalExtractor, err)
	}
	return ToRecord(m), raw, nil
}

// ToRecord maps a coerced object onto a record.
func ToRecord(m map[string]any) invoice.Record {
	var rec invoice.Record
	for _, f := range []string{invoice.FieldIssueDate, invoice.FieldDueDate, invoice.FieldTaxPointDate} {
		if s, ok := m[f].(string); ok {
			if iso, ok := normalize.Date(s); ok {
				*rec.StringSlot(f) = invoice.Str(iso)
			}
		}
	}
	for _, f := range []string{invoice.FieldAmountExclTax, invoice.FieldTaxAmount, invoice.FieldAmountInclTax} {
		if d, ok := amount(m[f]); ok {
			*rec.AmountSlot(f) = invoice.Dec(d)
		}
	}
	if s, ok := m[invoice.FieldCurrency].(string); ok {
		if code, ok := normalize.Currency(s); ok {
			rec.Currency = invoice.Str(code)
		}
	}
	for _, f := range []string{invoice.FieldVariableSymbol, invoice.FieldPaymentMethod, invoice.FieldBankName, invoice.FieldAccountNumber} {
		if s, ok := m[f].(string); ok {
			*rec.StringSlot(f) = invoice.Str(s)
		}
	}
	if sup, ok := m["supplier"].(map[string]any); ok {
		for key, f := range map[string]string{
			"name":    invoice.FieldSupplierName,
			"tax_id":  invoice.FieldSupplierTaxID,
			"vat_id":  invoice.FieldSupplierVATID,
			"address": invoice.FieldSupplierAddress,
		} {
			if s, ok := sup[key].(string); ok {
				*rec.StringSlot(f) = invoice.Str(s)
			}
		}
	}
	return rec
}

func amount(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t).Round(2), true
	case string:
		d, ok := normalize.Amount(t)
		if !ok {
			return decimal.Decimal{}, false
		}
		return d.Round(2), true
	}
	return decimal.Decimal{}, false
}
