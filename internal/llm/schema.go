package llm

import "github.com/joseph-ayodele/invoice-extractor/internal/invoice"

// BuildInvoiceJSONSchema returns the JSON-Schema (draft 2020-12 subset) the
// model output must satisfy after coercion. Every field is nullable.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{
		invoice.FieldVariableSymbol: stringProp(),
		invoice.FieldIssueDate:      stringProp(),
		invoice.FieldDueDate:        stringProp(),
		invoice.FieldTaxPointDate:   stringProp(),
		invoice.FieldAmountExclTax:  amountProp(),
		invoice.FieldTaxAmount:      amountProp(),
		invoice.FieldAmountInclTax:  amountProp(),
		invoice.FieldCurrency:       map[string]any{"type": []string{"string", "null"}, "maxLength": 8},
		"supplier": map[string]any{
			"type":                 []string{"object", "null"},
			"additionalProperties": false,
			"properties": map[string]any{
				"name":    stringProp(),
				"tax_id":  stringProp(),
				"vat_id":  stringProp(),
				"address": stringProp(),
			},
		},
		invoice.FieldPaymentMethod: stringProp(),
		invoice.FieldBankName:      stringProp(),
		invoice.FieldAccountNumber: stringProp(),
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

func stringProp() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func amountProp() map[string]any {
	return map[string]any{"type": []string{"string", "number", "null"}}
}
