// Package templates matches declarative invoice layouts and extracts fields
// with per-layout patterns.
package templates

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Definition is the on-disk / in-database form of a template.
type Definition struct {
	Name             string            `json:"name"`
	RequiredKeywords []string          `json:"required_keywords"`
	OptionalKeywords []string          `json:"optional_keywords,omitempty"`
	Fields           map[string]string `json:"fields"`
	SupplierDefaults SupplierDefaults  `json:"supplier_defaults,omitempty"`
}

// SupplierDefaults fill supplier slots the patterns leave empty.
type SupplierDefaults struct {
	Name    string `json:"name,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
	VATID   string `json:"vat_id,omitempty"`
	Address string `json:"address,omitempty"`
}

// fieldAliases accepts the Czech keys used by older template files.
var fieldAliases = map[string]string{
	"variabilni_symbol": invoice.FieldVariableSymbol,
	"datum_vystaveni":   invoice.FieldIssueDate,
	"datum_splatnosti":  invoice.FieldDueDate,
	"duzp":              invoice.FieldTaxPointDate,
	"castka_bez_dph":    invoice.FieldAmountExclTax,
	"dph":               invoice.FieldTaxAmount,
	"castka_s_dph":      invoice.FieldAmountInclTax,
	"mena":              invoice.FieldCurrency,
	"dodavatel_nazev":   invoice.FieldSupplierName,
	"dodavatel_ico":     invoice.FieldSupplierTaxID,
	"dodavatel_dic":     invoice.FieldSupplierVATID,
	"dodavatel_adresa":  invoice.FieldSupplierAddress,
	"platba_zpusob":     invoice.FieldPaymentMethod,
	"banka_prijemce":    invoice.FieldBankName,
	"ucet_prijemce":     invoice.FieldAccountNumber,
}

// UnmarshalJSON also accepts the legacy supplier default keys.
func (s *SupplierDefaults) UnmarshalJSON(b []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	pick := func(keys ...string) string {
		for _, k := range keys {
			if v := raw[k]; v != nil {
				return *v
			}
		}
		return ""
	}
	s.Name = pick("name", "nazev")
	s.TaxID = pick("tax_id", "ico")
	s.VATID = pick("vat_id", "dic")
	s.Address = pick("address", "adresa")
	return nil
}

// Parse decodes one definition. name is used when the document has none.
func Parse(data []byte, name string) (Definition, error) {
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return Definition{}, common.NewAppError("TEMPLATE_ERROR", fmt.Sprintf("decode %s", name), err)
	}
	if strings.TrimSpace(def.Name) == "" {
		def.Name = name
	}
	fields := make(map[string]string, len(def.Fields))
	for k, v := range def.Fields {
		if alias, ok := fieldAliases[k]; ok {
			k = alias
		}
		fields[k] = v
	}
	def.Fields = fields
	return def, nil
}

// LoadDir reads every *.json file at the root of fsys.
func LoadDir(fsys fs.FS) ([]Definition, error) {
	matches, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	defs := make([]Definition, 0, len(matches))
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", m, err)
		}
		def, err := Parse(data, strings.TrimSuffix(path.Base(m), ".json"))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}
