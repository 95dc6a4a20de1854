package heuristic

import (
	"regexp"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/normalize"
)

var reDateShape = regexp.MustCompile(`\d{1,2}\s?[./-]\s?\d{1,2}\s?[./-]\s?\d{2,4}|\d{4}-\d{1,2}-\d{1,2}|\d{1,2}\.?\s+\p{L}{3,}\s+\d{4}|\p{L}{3,}\.?\s+\d{1,2},\s*\d{4}`)

type dateRole struct {
	query    locate.Query
	keywords []*regexp.Regexp
}

var (
	issueLabels = []string{
		`datum\s+vystaveni`,
		`dat(?:um)?\.?\s*vyst`,
		`vystaven[ao]?\b`,
		`date\s+of\s+issue`,
		`issue\s+date`,
		`invoice\s+date`,
		`\bissued\b`,
	}
	dueLabels = []string{
		`datum\s+splatnosti`,
		`splatnost`,
		`splatne\s+do`,
		`due\s+date`,
		`payment\s+due`,
		`date\s+due`,
		`\bdue\b`,
	}
	taxPointLabels = []string{
		`\bduzp\b`,
		`datum\s+(?:uskut(?:ecneni)?\.?\s+)?zdanitelneho\s+plneni`,
		`zdanitelne(?:ho)?\s+plneni`,
		`datum\s+uskutecneni`,
		`tax\s+point`,
		`date\s+of\s+(?:taxable\s+)?supply`,
	}

	issueDate = dateRole{
		query: locate.Query{
			Labels: locate.Labels(issueLabels...),
			Stop:   locate.Labels(append(append([]string{}, dueLabels...), taxPointLabels...)...),
			Value:  reDateShape,
			Accept: acceptDate,
			Class:  locate.ClassDate,
		},
		keywords: locate.Labels(`vyst`, `issue`),
	}
	dueDate = dateRole{
		query: locate.Query{
			Labels:  locate.Labels(dueLabels...),
			Exclude: locate.Labels(`(?:total|amount|balance)\s+due`),
			Stop:    locate.Labels(append(append([]string{}, issueLabels...), taxPointLabels...)...),
			Value:   reDateShape,
			Accept:  acceptDate,
			Class:   locate.ClassDate,
		},
		keywords: locate.Labels(`splatn`, `\bdue\b`),
	}
	taxPointDate = dateRole{
		query: locate.Query{
			Labels: locate.Labels(taxPointLabels...),
			Stop:   locate.Labels(append(append([]string{}, issueLabels...), dueLabels...)...),
			Value:  reDateShape,
			Accept: acceptDate,
			Class:  locate.ClassDate,
		},
		keywords: locate.Labels(`duzp`, `tax\s+point`),
	}
)

const nearbySpan = 200

func acceptDate(line string, s, e int) bool {
	if s > 0 {
		if r, _ := utf8.DecodeLastRuneInString(line[:s]); r >= '0' && r <= '9' {
			return false
		}
	}
	_, ok := normalize.Date(line[s:e])
	return ok
}

// findDate returns the ISO date for role, or "".
func findDate(l *locate.Lines, text string, role dateRole) string {
	if m, ok := l.Find(role.query); ok {
		if iso, ok := normalize.Date(m.Value); ok {
			return iso
		}
	}
	v, ok := locate.Nearby(text, role.keywords, reDateShape, nearbySpan, func(s string) bool {
		_, ok := normalize.Date(s)
		return ok
	})
	if !ok {
		return ""
	}
	iso, _ := normalize.Date(v)
	return iso
}
