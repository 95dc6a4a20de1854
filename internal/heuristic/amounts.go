package heuristic

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
)

var (
	reAmountShape  = regexp.MustCompile(`[-−]?\d{1,3}(?:[ .,']\d{3})+(?:[.,]\d{1,2})?|[-−]?\d+(?:[.,]\d{1,2})?`)
	reGroupedShape = regexp.MustCompile(`^[-−]?\d{1,3}(?:[ .,']\d{3})+(?:[.,]\d{1,2})?$`)
	reLineDate     = regexp.MustCompile(`\d{1,2}\s?\.\s?\d{1,2}\s?\.\s?\d{2,4}|\d{1,2}/\d{1,2}/\d{2,4}|\d{4}-\d{1,2}-\d{1,2}`)

	maxPlausibleAmount = decimal.NewFromInt(10_000_000)
)

var (
	inclLabels = locate.Labels(
		`celkem\s+k\s+uhrade`,
		`k\s+uhrade`,
		`celkem\s+(?:vcetne|vc\.?|s)\s+dph`,
		`total\s+due`,
		`amount\s+due`,
		`balance\s+due`,
		`grand\s+total`,
		`total\s+(?:incl|including|inc\.|with)`,
		`\btotal\b`,
		`celkem`,
	)
	inclExclude = locate.Labels(
		`bez\s+dph`,
		`zaklad`,
		`subtotal`,
		`sub-total`,
		`total\s+(?:excl|excluding|net|without|vat|tax)`,
		`celkem\s+dph`,
	)
	exclLabels = locate.Labels(
		`zaklad\s+dane`,
		`celkem\s+bez\s+dph`,
		`bez\s+dph`,
		`subtotal`,
		`sub-total`,
		`total\s+(?:excl|excluding|net|without)`,
		`net\s+amount`,
		`\bnet\b`,
		`zaklad`,
	)
	taxLabels = locate.Labels(
		`castka\s+dph`,
		`dph\s+celkem`,
		`celkem\s+dph`,
		`vat\s+amount`,
		`total\s+(?:vat|tax)`,
		`\bdph\b`,
		`\bvat\b`,
		`\btax\b`,
	)
	taxExclude = locate.Labels(
		`bez\s+dph`,
		`\bs\s+dph`,
		`vcetne\s+dph`,
		`\bdic\b`,
		`vat\s*(?:id|no\b|number|reg)`,
		`tax\s*(?:id|point|date|no\b|number)`,
		`\bincl`,
		`\bexcl`,
		`zaklad`,
		`plateb`,
		`neplat`,
	)
)

// rank is the composite score used for same-line amount candidates.
func (e *Extractor) rank(tok string) float64 {
	var score float64
	if normalize.HasDecimals(tok) {
		score += e.opts.DecimalBonus
	}
	if reGroupedShape.MatchString(strings.TrimSpace(tok)) {
		score += e.opts.GroupedBonus
	}
	if v, ok := normalize.Amount(tok); ok {
		f, _ := v.Abs().Float64()
		if f >= 1 {
			score += e.opts.MagnitudeWeight * math.Min(math.Log10(f), e.opts.MagnitudeCap)
		}
	}
	return score
}

// acceptAmount rejects percentages, date fragments, identifiers and account
// numbers that happen to look like amounts.
func acceptAmount(line string, s, e int) bool {
	if s > 0 {
		r, _ := utf8.DecodeLastRuneInString(line[:s])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '/' || r == '-' || r == '.' || r == ',' {
			return false
		}
	}
	rest := line[e:]
	if strings.HasPrefix(strings.TrimLeft(rest, " "), "%") {
		return false
	}
	if strings.HasPrefix(rest, "/") || (strings.HasPrefix(rest, "-") && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9') {
		return false
	}
	if len(rest) > 0 {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsDigit(r) {
			return false
		}
	}
	for _, d := range reLineDate.FindAllStringIndex(line, -1) {
		if s < d[1] && e > d[0] {
			return false
		}
	}
	v, ok := normalize.Amount(line[s:e])
	return ok && v.Abs().LessThanOrEqual(maxPlausibleAmount)
}

func (e *Extractor) amountQuery(labels, exclude []*regexp.Regexp) locate.Query {
	return locate.Query{
		Labels:  labels,
		Exclude: exclude,
		Value:   reAmountShape,
		Accept:  acceptAmount,
		Rank:    e.rank,
		Class:   locate.ClassAmount,
	}
}

func (e *Extractor) findAmount(l *locate.Lines, labels, exclude []*regexp.Regexp) *decimal.Decimal {
	m, ok := l.Find(e.amountQuery(labels, exclude))
	if !ok {
		return nil
	}
	v, ok := normalize.Amount(m.Value)
	if !ok {
		return nil
	}
	return invoice.Dec(v)
}

// findAmounts fills the excl/tax/incl triplet. When the labelled search
// leaves the total empty, the largest plausible decimal amount of the whole
// document becomes the total.
func (e *Extractor) findAmounts(l *locate.Lines, rec *invoice.Record) {
	rec.AmountInclTax = e.findAmount(l, inclLabels, inclExclude)
	rec.AmountExclTax = e.findAmount(l, exclLabels, nil)
	rec.TaxAmount = e.findAmount(l, taxLabels, taxExclude)

	if rec.AmountInclTax == nil {
		rec.AmountInclTax = largestAmount(l)
	}
	// A tax equal to the total is a mislabelled total.
	if rec.TaxAmount != nil && rec.AmountInclTax != nil && rec.TaxAmount.Equal(*rec.AmountInclTax) && rec.AmountExclTax != nil {
		rec.TaxAmount = nil
	}
}

func largestAmount(l *locate.Lines) *decimal.Decimal {
	var best *decimal.Decimal
	for i := 0; i < l.Len(); i++ {
		line := l.Line(i)
		for _, loc := range reAmountShape.FindAllStringIndex(line, -1) {
			tok := line[loc[0]:loc[1]]
			if !normalize.HasDecimals(tok) || !acceptAmount(line, loc[0], loc[1]) {
				continue
			}
			v, ok := normalize.Amount(tok)
			if !ok || !v.IsPositive() {
				continue
			}
			if best == nil || v.GreaterThan(*best) {
				best = invoice.Dec(v)
			}
		}
	}
	return best
}
