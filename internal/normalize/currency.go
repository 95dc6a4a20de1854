package normalize

import (
	"regexp"
	"slices"
	"strings"
)

// Known ISO-4217 codes the extractor reports.
var knownCodes = []string{"CZK", "EUR", "USD", "GBP", "PLN", "HUF", "CHF", "SEK", "NOK", "DKK", "JPY", "CNY", "AUD", "CAD"}

// symbols maps non-code spellings to a code. Keys are compared exactly,
// except for the lowercase-insensitive ones in foldedSymbols.
var symbols = map[string]string{
	"€":  "EUR",
	"$":  "USD",
	"£":  "GBP",
	"¥":  "JPY",
	"Ft": "HUF",
}

var foldedSymbols = map[string]string{
	"kč":   "CZK",
	"kc":   "CZK",
	"zł":   "PLN",
	"euro": "EUR",
	"eura": "EUR",
}

var reCurrencyToken = regexp.MustCompile(`\p{L}+|[€$£¥]`)

// CurrencyMatch is one currency token found in a text.
type CurrencyMatch struct {
	Code  string
	Start int // byte offset of the token
}

// IsKnownCurrency reports whether code is one of the recognized codes.
func IsKnownCurrency(code string) bool {
	return slices.Contains(knownCodes, code)
}

// Currency maps a single token ("Kč", "eur", "€") to its code.
func Currency(tok string) (string, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return "", false
	}
	if c, ok := symbols[tok]; ok {
		return c, true
	}
	low := strings.ToLower(tok)
	if c, ok := foldedSymbols[low]; ok {
		return c, true
	}
	up := strings.ToUpper(tok)
	if IsKnownCurrency(up) {
		return up, true
	}
	return "", false
}

// FindCurrencies lists every currency token of text in document order.
// Bare "kr" is skipped: it is shared by SEK, NOK and DKK.
func FindCurrencies(text string) []CurrencyMatch {
	var out []CurrencyMatch
	for _, loc := range reCurrencyToken.FindAllStringIndex(text, -1) {
		if code, ok := Currency(text[loc[0]:loc[1]]); ok {
			out = append(out, CurrencyMatch{Code: code, Start: loc[0]})
		}
	}
	return out
}

// VoteCurrency returns the most frequent currency of text. Ties go to the
// code seen first.
func VoteCurrency(text string) (string, bool) {
	matches := FindCurrencies(text)
	if len(matches) == 0 {
		return "", false
	}
	counts := map[string]int{}
	order := []string{}
	for _, m := range matches {
		if counts[m.Code] == 0 {
			order = append(order, m.Code)
		}
		counts[m.Code]++
	}
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best, true
}
