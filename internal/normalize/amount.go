package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	reCurrencyWords = regexp.MustCompile(`(?i)kč|kc\b|czk|eur|€|usd|\$|gbp|£|pln|zł|huf|ft\b|chf|sek|nok|dkk|jpy|¥|cny|aud|cad`)
	reNumToken      = regexp.MustCompile(`[-−]?\d(?:[\d.,]*\d)?`)
	reBareDigits    = regexp.MustCompile(`^\d{7,}$`)
)

// Amount parses a locale-ambiguous money string.
//
// The decimal separator is whichever of ',' and '.' occurs last; the other one
// groups thousands and is dropped. A single separator followed by exactly three
// digits after a 1-3 digit group ("1,500", "12.000") groups thousands too.
// Spaces, NBSP and apostrophes are grouping only. A bare run of seven or more
// digits is an identifier, not an amount.
func Amount(s string) (decimal.Decimal, bool) {
	s = reCurrencyWords.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' || r == '’' {
			return -1
		}
		return r
	}, s)
	tok := reNumToken.FindString(s)
	if tok == "" {
		return decimal.Decimal{}, false
	}
	neg := false
	if strings.HasPrefix(tok, "-") || strings.HasPrefix(tok, "−") {
		neg = true
		tok = strings.TrimLeft(tok, "-−")
	}
	if reBareDigits.MatchString(tok) {
		return decimal.Decimal{}, false
	}

	num := canonicalNumber(tok)
	if num == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// canonicalNumber rewrites tok (digits, ',' and '.') into "1234.56" form.
func canonicalNumber(tok string) string {
	lastComma := strings.LastIndex(tok, ",")
	lastDot := strings.LastIndex(tok, ".")
	switch {
	case lastComma < 0 && lastDot < 0:
		return tok
	case lastComma >= 0 && lastDot >= 0:
		dec, group := ",", "."
		if lastDot > lastComma {
			dec, group = ".", ","
		}
		tok = strings.ReplaceAll(tok, group, "")
		if strings.Count(tok, dec) > 1 {
			return ""
		}
		return strings.Replace(tok, dec, ".", 1)
	}

	sep := ","
	if lastDot >= 0 {
		sep = "."
	}
	parts := strings.Split(tok, sep)
	if len(parts) > 2 {
		// 1.234.567 or 1,234,567
		for _, p := range parts[1:] {
			if len(p) != 3 {
				return ""
			}
		}
		return strings.Join(parts, "")
	}
	head, tail := parts[0], parts[1]
	if len(tail) == 3 && len(head) >= 1 && len(head) <= 3 && head[0] != '0' {
		return head + tail
	}
	return head + "." + tail
}

// HasDecimals reports whether s carries a one or two digit fraction ("12,50", "3.5").
func HasDecimals(s string) bool {
	return reFraction.MatchString(strings.TrimSpace(reCurrencyWords.ReplaceAllString(s, "")))
}

var reFraction = regexp.MustCompile(`\d[.,]\d{1,2}(?:\D*)$`)

// Format renders an amount with two fraction digits.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
