package heuristic

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

var (
	referenceQuery = locate.Query{
		Labels: locate.Labels(
			`variabiln\w*\s+symbol`,
			`\bvar\.?\s*symbol`,
			`variable\s+symbol`,
			`\bv\.?s\.?\s*:`,
			`\bvs\b`,
			`payment\s+reference`,
			`\breference\b`,
			`\bref\.?\s*(?:no|number|c)?\.?\s*:`,
		),
		Stop:  idLineLabels,
		Value: regexp.MustCompile(`(?:^|[^\d/-])(\d{6,12})(?:$|[^\d/])`),
		Class: locate.ClassText,
	}

	reVSInline    = regexp.MustCompile(`\bvs[:\s]+(\d{6,12})\b`)
	reFreeDigits  = regexp.MustCompile(`\d+`)
	reAccountLeft = regexp.MustCompile(`ucet|account|iban|\bico\b|\bic\b|\bdic\b|\bvat\b|tax\s*id|\btel|phone|mobil|\breg|spis|company`)
)

// idLineLabels mark lines that carry identifiers or bank details.
var idLineLabels = locate.Labels(`\bico\b`, `\bic\b`, `\bdic\b`, `\biban\b`, `\bucet\b`, `cislo\s+uctu`, `account`, `\btel\b`, `phone`)

// findReference resolves the payment reference: a labelled 6-12 digit
// token, then an inline "VS: <digits>", then the first free-standing 8-10
// digit token that does not look like an account or identifier.
func findReference(l *locate.Lines, text string) string {
	if m, ok := l.Find(referenceQuery); ok {
		return m.Value
	}
	folded := ocr.Fold(text)
	if m := reVSInline.FindStringSubmatch(folded); m != nil {
		return m[1]
	}
	for _, loc := range reFreeDigits.FindAllStringIndex(text, -1) {
		s, e := loc[0], loc[1]
		if n := e - s; n < 8 || n > 10 {
			continue
		}
		if s > 0 && strings.ContainsRune("-/.,+", rune(text[s-1])) {
			continue
		}
		if e < len(text) && strings.ContainsRune("/.,", rune(text[e])) {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(text[e:], " "), "/") {
			continue
		}
		from := s - 20
		if from < 0 {
			from = 0
		}
		if reAccountLeft.MatchString(ocr.Fold(text[snapBack(text, from):s])) {
			continue
		}
		return text[s:e]
	}
	return ""
}
