package invoice

import "sort"

// Check names reported in Validations.
const (
	CheckVariableSymbol = "variable_symbol"
	CheckTaxID          = "tax_id"
	CheckVATID          = "vat_id"
	CheckSumCheck       = "sum_check"
)

// Validations maps a check name to its outcome. A nil entry means the check
// was not applicable because its field is absent; it encodes as JSON null.
type Validations map[string]*bool

// Set records a pass or fail.
func (v Validations) Set(name string, ok bool) {
	v[name] = &ok
}

// NotApplicable records that name could not be evaluated.
func (v Validations) NotApplicable(name string) {
	v[name] = nil
}

// Passed reports whether name ran and passed.
func (v Validations) Passed(name string) bool {
	p, ok := v[name]
	return ok && p != nil && *p
}

// Failed reports whether name ran and failed.
func (v Validations) Failed(name string) bool {
	p, ok := v[name]
	return ok && p != nil && !*p
}

// AnyFailed reports whether at least one check failed.
func (v Validations) AnyFailed() bool {
	for name := range v {
		if v.Failed(name) {
			return true
		}
	}
	return false
}

// FailedNames lists the failed checks in name order.
func (v Validations) FailedNames() []string {
	var out []string
	for name := range v {
		if v.Failed(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
