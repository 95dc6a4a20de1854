// Package invoice holds the extracted invoice record and its arithmetic.
package invoice

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Method tags which strategy produced a record.
type Method string

const (
	MethodNone         Method = "none"
	MethodTemplate     Method = "template"
	MethodHeuristic    Method = "heuristic"
	MethodHeuristicLLM Method = "heuristic+llm"
)

// Field names shared by templates, the model schema, merging and export.
const (
	FieldVariableSymbol  = "variable_symbol"
	FieldIssueDate       = "issue_date"
	FieldDueDate         = "due_date"
	FieldTaxPointDate    = "tax_point_date"
	FieldAmountExclTax   = "amount_excl_tax"
	FieldTaxAmount       = "tax_amount"
	FieldAmountInclTax   = "amount_incl_tax"
	FieldCurrency        = "currency"
	FieldSupplierName    = "supplier_name"
	FieldSupplierTaxID   = "supplier_tax_id"
	FieldSupplierVATID   = "supplier_vat_id"
	FieldSupplierAddress = "supplier_address"
	FieldPaymentMethod   = "payment_method"
	FieldBankName        = "bank_name"
	FieldAccountNumber   = "account_number"
)

// CriticalFields decide whether a record is under-determined.
var CriticalFields = []string{
	FieldVariableSymbol,
	FieldIssueDate,
	FieldDueDate,
	FieldAmountInclTax,
	FieldCurrency,
}

// Supplier identifies the issuing party.
type Supplier struct {
	Name    *string `json:"name"`
	TaxID   *string `json:"tax_id"`
	VATID   *string `json:"vat_id"`
	Address *string `json:"address"`
}

// Derived marks triplet members that were computed instead of read.
type Derived struct {
	AmountExclTax bool `json:"amount_excl_tax,omitempty"`
	TaxAmount     bool `json:"tax_amount,omitempty"`
	AmountInclTax bool `json:"amount_incl_tax,omitempty"`
}

// Any reports whether at least one member was derived.
func (d Derived) Any() bool { return d.AmountExclTax || d.TaxAmount || d.AmountInclTax }

// Record is the structured result for one document. Nil pointers are absent values.
type Record struct {
	VariableSymbol *string          `json:"variable_symbol"`
	IssueDate      *string          `json:"issue_date"`
	DueDate        *string          `json:"due_date"`
	TaxPointDate   *string          `json:"tax_point_date"`
	AmountExclTax  *decimal.Decimal `json:"amount_excl_tax"`
	TaxAmount      *decimal.Decimal `json:"tax_amount"`
	AmountInclTax  *decimal.Decimal `json:"amount_incl_tax"`
	Currency       *string          `json:"currency"`
	Supplier       Supplier         `json:"supplier"`
	PaymentMethod  *string          `json:"payment_method"`
	BankName       *string          `json:"bank_name"`
	AccountNumber  *string          `json:"account_number"`

	Confidence  float64     `json:"confidence"`
	Method      Method      `json:"method"`
	Template    string      `json:"template,omitempty"`
	Validations Validations `json:"validations"`
	Derived     Derived     `json:"derived"`
}

// MarshalJSON renders amounts with two fraction digits.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	return json.Marshal(struct {
		plain
		AmountExclTax *string `json:"amount_excl_tax"`
		TaxAmount     *string `json:"tax_amount"`
		AmountInclTax *string `json:"amount_incl_tax"`
	}{
		plain:         plain(r),
		AmountExclTax: fixed(r.AmountExclTax),
		TaxAmount:     fixed(r.TaxAmount),
		AmountInclTax: fixed(r.AmountInclTax),
	})
}

func fixed(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

// Str returns a pointer to a trimmed copy of s, or nil when s is blank.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Dec returns a pointer to d.
func Dec(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Value returns *p or "".
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Clone returns a deep copy so later stages cannot alias the source.
func (r Record) Clone() Record {
	out := r
	out.VariableSymbol = cloneStr(r.VariableSymbol)
	out.IssueDate = cloneStr(r.IssueDate)
	out.DueDate = cloneStr(r.DueDate)
	out.TaxPointDate = cloneStr(r.TaxPointDate)
	out.AmountExclTax = cloneDec(r.AmountExclTax)
	out.TaxAmount = cloneDec(r.TaxAmount)
	out.AmountInclTax = cloneDec(r.AmountInclTax)
	out.Currency = cloneStr(r.Currency)
	out.Supplier = Supplier{
		Name:    cloneStr(r.Supplier.Name),
		TaxID:   cloneStr(r.Supplier.TaxID),
		VATID:   cloneStr(r.Supplier.VATID),
		Address: cloneStr(r.Supplier.Address),
	}
	out.PaymentMethod = cloneStr(r.PaymentMethod)
	out.BankName = cloneStr(r.BankName)
	out.AccountNumber = cloneStr(r.AccountNumber)
	if r.Validations != nil {
		out.Validations = make(Validations, len(r.Validations))
		for k, v := range r.Validations {
			out.Validations[k] = v
		}
	}
	return out
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}

func cloneDec(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	d := *p
	return &d
}

// StringSlot returns a pointer to the string field named name, or nil for
// unknown names and non-string fields.
func (r *Record) StringSlot(name string) **string {
	switch name {
	case FieldVariableSymbol:
		return &r.VariableSymbol
	case FieldIssueDate:
		return &r.IssueDate
	case FieldDueDate:
		return &r.DueDate
	case FieldTaxPointDate:
		return &r.TaxPointDate
	case FieldCurrency:
		return &r.Currency
	case FieldSupplierName:
		return &r.Supplier.Name
	case FieldSupplierTaxID:
		return &r.Supplier.TaxID
	case FieldSupplierVATID:
		return &r.Supplier.VATID
	case FieldSupplierAddress:
		return &r.Supplier.Address
	case FieldPaymentMethod:
		return &r.PaymentMethod
	case FieldBankName:
		return &r.BankName
	case FieldAccountNumber:
		return &r.AccountNumber
	}
	return nil
}

// AmountSlot returns a pointer to the amount field named name, or nil.
func (r *Record) AmountSlot(name string) **decimal.Decimal {
	switch name {
	case FieldAmountExclTax:
		return &r.AmountExclTax
	case FieldTaxAmount:
		return &r.TaxAmount
	case FieldAmountInclTax:
		return &r.AmountInclTax
	}
	return nil
}

// Has reports whether field name carries a value.
func (r *Record) Has(name string) bool {
	if s := r.StringSlot(name); s != nil {
		return *s != nil
	}
	if a := r.AmountSlot(name); a != nil {
		return *a != nil
	}
	return false
}

// Missing lists the critical fields without a value.
func (r *Record) Missing() []string {
	var out []string
	for _, f := range CriticalFields {
		if !r.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Fields lists every extractable field name in output order.
var Fields = []string{
	FieldVariableSymbol,
	FieldIssueDate,
	FieldDueDate,
	FieldTaxPointDate,
	FieldAmountExclTax,
	FieldTaxAmount,
	FieldAmountInclTax,
	FieldCurrency,
	FieldSupplierName,
	FieldSupplierTaxID,
	FieldSupplierVATID,
	FieldSupplierAddress,
	FieldPaymentMethod,
	FieldBankName,
	FieldAccountNumber,
}
