package heuristic

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

var (
	supplierHeadings = locate.Labels(
		`dodavatel`,
		`prodavajici`,
		`poskytovatel`,
		`zhotovitel`,
		`\bsupplier\b`,
		`\bvendor\b`,
		`\bseller\b`,
		`issued\s+by`,
		`\bfrom\s*:`,
	)
	customerHeadings = locate.Labels(
		`odberatel`,
		`kupujici`,
		`objednatel`,
		`zakaznik`,
		`\bcustomer\b`,
		`\bbuyer\b`,
		`\bclient\b`,
		`bill(?:ed)?\s+to`,
		`invoice\s+to`,
		`ship\s+to`,
	)
	addressLabels = locate.Labels(`adresa`, `\bsidlo\b`, `\baddress\b`, `registered\s+office`)

	reTaxIDLabel = regexp.MustCompile(`\bico\b|\bic\b|company\s+(?:id|no|number|reg)|\breg(?:istration)?\.?\s*(?:no|number)`)
	reVATLabel   = regexp.MustCompile(`\bdic\b|\bvat\s*(?:id|no\b|number|reg)|\btax\s*id\b|\bic\s*dph\b`)
	reTaxIDValue = regexp.MustCompile(`(?:\bico|\bic|company\s+(?:id|no|number|reg)\w*|\breg(?:istration)?\.?\s*(?:no|number))\.?\s*:?\s*(\d{8})\b`)
	reVATValue   = regexp.MustCompile(`\b(AT|BE|BG|CY|CZ|DE|DK|EE|EL|ES|FI|FR|GB|HR|HU|IE|IT|LT|LU|LV|MT|NL|PL|PT|RO|SE|SI|SK|XI|CH|NO)\s?([0-9][0-9A-Z]{7,11})\b`)

	reLegalForm = regexp.MustCompile(`\bs\.\s?r\.\s?o\b|\bspol\.|\ba\.\s?s\.|\bk\.\s?s\.|\bv\.\s?o\.\s?s\b|\bz\.\s?s\.|\bsp\.\s?z\s?o\.\s?o\b|\bs\.\s?a\.|(?:^|\s)(?:gmbh|ltd|limited|inc|llc|plc|ag|kft|bv|nv|oy|ab)\.?(?:$|[\s,])`)
	rePostal    = regexp.MustCompile(`(?:^|[\s,])(?:\d{3}\s\d{2}|\d{5})\s+\p{L}`)
	reStreet    = regexp.MustCompile(`\p{L}{3,}\.?\s+\d{1,5}(?:/\d{1,5})?[a-zA-Z]?\s*(?:,|$)`)
)

const (
	headingReach  = 6
	blockTail     = 3
	supplierScore = 3
	customerScore = -4
	vatBonus      = 2
)

type block struct {
	anchor, start, end int
	heading            int // line of the supplier heading, or -1
	score              int
}

// findSupplier scores every identifier line by its nearest heading and picks
// the best block. Blocks that lean towards the customer are never used.
func findSupplier(l *locate.Lines) invoice.Supplier {
	var best *block
	for i := 0; i < l.Len(); i++ {
		if !isIDLine(l, i) {
			continue
		}
		b := scoreBlock(l, i)
		if b.score < 0 {
			continue
		}
		if best == nil || b.score > best.score {
			best = &b
		}
	}
	if best == nil {
		return invoice.Supplier{}
	}
	return invoice.Supplier{
		Name:    invoice.Str(supplierName(l, *best)),
		TaxID:   invoice.Str(blockTaxID(l, *best)),
		VATID:   invoice.Str(blockVATID(l, *best)),
		Address: invoice.Str(supplierAddress(l, *best)),
	}
}

func isIDLine(l *locate.Lines, i int) bool {
	f := l.Folded(i)
	return reTaxIDLabel.MatchString(f) || reVATLabel.MatchString(f) || reVATValue.MatchString(l.Line(i))
}

func scoreBlock(l *locate.Lines, i int) block {
	b := block{anchor: i, start: max(0, i-headingReach), end: i, heading: -1}
	for j := i; j >= 0 && j >= i-headingReach; j-- {
		sup, cust := l.Matches(j, supplierHeadings), l.Matches(j, customerHeadings)
		if !sup && !cust {
			continue
		}
		b.start = j
		if sup {
			b.score += supplierScore
			b.heading = j
		}
		if cust {
			b.score += customerScore
		}
		break
	}
	for j := i + 1; j < l.Len() && j <= i+blockTail; j++ {
		if l.Matches(j, supplierHeadings) || l.Matches(j, customerHeadings) {
			break
		}
		b.end = j
	}
	for j := max(b.start, i-1); j <= b.end; j++ {
		if reVATValue.MatchString(l.Line(j)) {
			b.score += vatBonus
			break
		}
	}
	return b
}

func blockTaxID(l *locate.Lines, b block) string {
	for j := b.start; j <= b.end; j++ {
		if m := reTaxIDValue.FindStringSubmatch(l.Folded(j)); m != nil {
			return m[1]
		}
	}
	return ""
}

// blockVATID prefers a VAT number on a labelled line.
func blockVATID(l *locate.Lines, b block) string {
	first := ""
	for j := b.start; j <= b.end; j++ {
		m := reVATValue.FindStringSubmatch(l.Line(j))
		if m == nil {
			continue
		}
		id := strings.ToUpper(m[1] + m[2])
		if reVATLabel.MatchString(l.Folded(j)) {
			return id
		}
		if first == "" {
			first = id
		}
	}
	return first
}

func supplierName(l *locate.Lines, b block) string {
	if b.heading >= 0 {
		if name := headingName(l, b.heading); name != "" {
			return name
		}
	}
	if head := beforeID(l, b.anchor); reLegalForm.MatchString(ocr.Fold(head)) {
		return head
	}
	for j := b.anchor - 1; j >= b.start; j-- {
		if j == b.heading && headingName(l, j) == "" {
			continue
		}
		if reLegalForm.MatchString(l.Folded(j)) {
			return cleanName(l.Line(j), l, j)
		}
	}
	for j := b.anchor + 1; j <= b.end; j++ {
		if reLegalForm.MatchString(l.Folded(j)) && !isIDLine(l, j) {
			return cleanName(l.Line(j), l, j)
		}
	}
	for j := b.anchor - 1; j >= b.start; j-- {
		if j == b.heading || isIDLine(l, j) {
			continue
		}
		if looksLikeName(l.Line(j)) {
			return l.Line(j)
		}
	}
	if b.anchor == b.heading {
		return ""
	}
	return beforeID(l, b.anchor)
}

// remainder is the text after the first matching label on line i, without
// the separating colon.
func remainder(l *locate.Lines, i int, labels []*regexp.Regexp) string {
	for _, re := range labels {
		if _, e, ok := l.Span(i, re); ok {
			return strings.Trim(l.Line(i)[e:], " :-,\t")
		}
	}
	return ""
}

// headingName is the text between a supplier heading and any identifier
// sharing its line.
func headingName(l *locate.Lines, i int) string {
	for _, re := range supplierHeadings {
		if _, e, ok := l.Span(i, re); ok {
			if cut := idCut(l, i); cut > e {
				return strings.Trim(l.Line(i)[e:cut], " :-,\t")
			}
			return ""
		}
	}
	return ""
}

// beforeID is the part of an identifier line before its first label.
func beforeID(l *locate.Lines, i int) string {
	return strings.Trim(l.Line(i)[:idCut(l, i)], " :-,\t")
}

func idCut(l *locate.Lines, i int) int {
	line := l.Line(i)
	cut := len(line)
	for _, re := range []*regexp.Regexp{reTaxIDLabel, reVATLabel} {
		if s, _, ok := l.Span(i, re); ok && s < cut {
			cut = s
		}
	}
	if loc := reVATValue.FindStringIndex(line); loc != nil && loc[0] < cut {
		cut = loc[0]
	}
	return cut
}

// cleanName trims identifiers that share the name's line.
func cleanName(line string, l *locate.Lines, i int) string {
	if isIDLine(l, i) {
		return beforeID(l, i)
	}
	return strings.Trim(line, " :-,\t")
}

func looksLikeName(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	if !unicode.IsUpper(r) || strings.Contains(line, ":") {
		return false
	}
	if len(strings.Fields(line)) > 6 || rePostal.MatchString(line) || reStreet.MatchString(line) {
		return false
	}
	var letters, digits int
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	return letters > 2*digits
}

func supplierAddress(l *locate.Lines, b block) string {
	for j := b.start; j <= b.end; j++ {
		if addr := remainder(l, j, addressLabels); addr != "" {
			return addr
		}
	}
	for j := b.start; j <= b.end; j++ {
		if j == b.heading || isIDLine(l, j) || l.Matches(j, idLineLabels) {
			continue
		}
		line := l.Line(j)
		if reLegalForm.MatchString(l.Folded(j)) && !rePostal.MatchString(line) {
			continue
		}
		switch {
		case rePostal.MatchString(line):
			return strings.Trim(line, " ,")
		case reStreet.MatchString(line):
			if j+1 <= b.end && rePostal.MatchString(l.Line(j+1)) && !isIDLine(l, j+1) {
				return strings.Trim(line, " ,") + ", " + strings.Trim(l.Line(j+1), " ,")
			}
			return strings.Trim(line, " ,")
		}
	}
	return ""
}
