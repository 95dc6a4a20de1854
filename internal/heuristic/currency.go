package heuristic

import (
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// currencyLabels are tried in order; the first with a currency token within
// currencyReach bytes after it wins.
var currencyLabels = locate.Labels(
	`amount\s+due`,
	`grand\s+total`,
	`total\s+due`,
	`\btotal\b`,
	`celkem\s+k\s+uhrade`,
	`k\s+uhrade`,
	`celkem`,
	`subtotal`,
	`bez\s+dph`,
	`\bdph\b`,
	`\bvat\b`,
)

const currencyReach = 40

func findCurrency(text string) string {
	folded, idx := ocr.FoldMap(text)
	for _, lab := range currencyLabels {
		for _, loc := range lab.FindAllStringIndex(folded, -1) {
			from := idx[loc[1]]
			to := snapBack(text, min(from+currencyReach, len(text)))
			if m := normalize.FindCurrencies(text[from:to]); len(m) > 0 {
				return m[0].Code
			}
		}
	}
	code, _ := normalize.VoteCurrency(text)
	return code
}

// snapBack moves off back to the start of a rune.
func snapBack(s string, off int) int {
	if off >= len(s) {
		return len(s)
	}
	for off > 0 && !utf8.RuneStart(s[off]) {
		off--
	}
	return off
}
