package ocr

import (
	"regexp"
	"strings"
)

var (
	reQDate   = regexp.MustCompile(`\b\d{1,2}[./-]\s?\d{1,2}[./-]\s?\d{2,4}\b|\b20\d{2}-\d{2}-\d{2}\b`)
	reQCurr   = regexp.MustCompile(`(?i)\b(czk|eur|usd|gbp|pln|huf|chf)\b|kč|[$£€]`)
	reQAmount = regexp.MustCompile(`\d{1,3}(?:[ .,]\d{3})*[.,]\d{2}\b`)

	qualityIndicators = []string{"celkem", "total", "dph", "vat", "datum", "date", "faktura", "invoice"}
)

// Quality is a rough 0..1 score of how invoice-like and readable a text is.
// It only looks at surface features and is meant for logging and triage.
func Quality(d Document) float64 {
	if d.Empty() {
		return 0
	}
	folded := Fold(d.Text)
	score := 0.1
	if reQDate.MatchString(d.Text) {
		score += 0.2
	}
	if reQCurr.MatchString(strings.ToLower(d.Text)) {
		score += 0.15
	}
	if reQAmount.MatchString(d.Text) {
		score += 0.15
	}
	hits := 0
	for _, ind := range qualityIndicators {
		if strings.Contains(folded, ind) {
			hits++
		}
	}
	score += min(float64(hits)*0.05, 0.2)
	if len(d.Lines) > 5 {
		score += 0.1
	}
	score += min(float64(len(d.Text))/1000, 0.1)
	return min(score, 1.0)
}
