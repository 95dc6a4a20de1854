package llm

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
)

type slotKind int

const (
	kindString slotKind = iota
	kindDate
	kindAmount
	kindCurrency
)

var topLevel = map[string]slotKind{
	invoice.FieldVariableSymbol: kindString,
	invoice.FieldIssueDate:      kindDate,
	invoice.FieldDueDate:        kindDate,
	invoice.FieldTaxPointDate:   kindDate,
	invoice.FieldAmountExclTax:  kindAmount,
	invoice.FieldTaxAmount:      kindAmount,
	invoice.FieldAmountInclTax:  kindAmount,
	invoice.FieldCurrency:       kindCurrency,
	invoice.FieldPaymentMethod:  kindString,
	invoice.FieldBankName:       kindString,
	invoice.FieldAccountNumber:  kindString,
}

var supplierKeys = []string{"name", "tax_id", "vat_id", "address"}

// Coerce rewrites a decoded model object so it fits the schema:
//   - scalars in string slots become strings, objects and arrays become their JSON text
//   - objects, arrays and booleans in date or amount slots become null
//   - a currency becomes its code, or null when no code can be read from it
//   - a supplier that is not an object becomes {name: <string or null>}
//   - unknown keys are dropped
//
// The result always satisfies BuildInvoiceJSONSchema. The returned list
// names every key that was dropped or changed.
func Coerce(m map[string]any, logger *slog.Logger) (map[string]any, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	out := make(map[string]any, len(m))
	var touched []string

	for k, v := range m {
		if k == "supplier" {
			s, changed := coerceSupplier(v)
			out[k] = s
			if changed {
				touched = append(touched, k+"(shape)")
			}
			continue
		}
		kind, ok := topLevel[k]
		if !ok {
			touched = append(touched, k+"(unknown)")
			continue
		}
		if kind == kindCurrency {
			c, changed := coerceCurrency(v)
			out[k] = c
			if changed {
				touched = append(touched, k+"(value)")
			}
			continue
		}
		c, changed := coerceLeaf(kind, v)
		out[k] = c
		if changed {
			touched = append(touched, k+"(type)")
		}
	}

	if len(touched) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "touched", touched)
	}
	return out, touched
}

func coerceSupplier(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		s := make(map[string]any, len(supplierKeys))
		changed := false
		for k, sv := range t {
			if !isSupplierKey(k) {
				changed = true
				continue
			}
			c, ch := coerceLeaf(kindString, sv)
			s[k] = c
			changed = changed || ch
		}
		return s, changed
	case string:
		name, _ := coerceLeaf(kindString, t)
		return map[string]any{"name": name}, true
	default:
		return map[string]any{"name": nil}, true
	}
}

func isSupplierKey(k string) bool {
	for _, s := range supplierKeys {
		if s == k {
			return true
		}
	}
	return false
}

// coerceCurrency maps a currency leaf to a known code. Verbose values such
// as "Czech koruna (CZK)" resolve to the first code token they contain.
func coerceCurrency(v any) (any, bool) {
	c, changed := coerceLeaf(kindString, v)
	s, ok := c.(string)
	if !ok {
		return c, changed
	}
	if code, ok := normalize.Currency(s); ok {
		return code, changed || code != s
	}
	if found := normalize.FindCurrencies(s); len(found) > 0 {
		return found[0].Code, true
	}
	return nil, true
}

// coerceLeaf reports the coerced value and whether its type changed.
func coerceLeaf(kind slotKind, v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			return nil, false
		}
		return s, false
	case float64:
		switch kind {
		case kindAmount:
			return t, false
		case kindString:
			return strconv.FormatFloat(t, 'f', -1, 64), true
		}
		return nil, true
	case bool:
		if kind == kindString {
			return strconv.FormatBool(t), true
		}
		return nil, true
	default:
		if kind == kindString {
			b, err := json.Marshal(t)
			if err != nil {
				return nil, true
			}
			return string(b), true
		}
		return nil, true
	}
}
