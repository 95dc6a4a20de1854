// Package locate finds values of a given shape next to label phrases.
//
// Labels are matched against the folded (lowercase, diacritics stripped) form
// of each line; values are cut from the original line so callers always see
// the document's own spelling.
package locate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Class changes how the search treats a field.
type Class int

const (
	ClassText Class = iota
	ClassDate
	ClassAmount
)

const (
	DefaultWindow = 3
	WideWindow    = 60
)

// Query describes one field lookup.
type Query struct {
	// Labels in order of preference. Patterns are written against folded text.
	Labels []*regexp.Regexp
	// Exclude drops a label hit when the folded line also matches one of these.
	Exclude []*regexp.Regexp
	// Stop lines are skipped while scanning neighbours: they anchor another field.
	Stop []*regexp.Regexp
	// Value is the candidate shape, applied to original lines.
	Value *regexp.Regexp
	// Accept filters a candidate given its line and byte span. Optional.
	Accept func(line string, start, end int) bool
	// Rank scores amount candidates sharing one line. Optional.
	Rank   func(tok string) float64
	Window int
	Class  Class
}

// Match is a located value.
type Match struct {
	Value string
	Line  int
	Start int // byte offset within the line
	Label int // index of the label that anchored it
}

// Labels compiles folded label patterns case-insensitively.
func Labels(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

// Lines is a document prepared for label search.
type Lines struct {
	orig   []string
	folded []string
	idx    [][]int
}

// Prepare folds every line once.
func Prepare(lines []string) *Lines {
	l := &Lines{
		orig:   lines,
		folded: make([]string, len(lines)),
		idx:    make([][]int, len(lines)),
	}
	for i, line := range lines {
		l.folded[i], l.idx[i] = ocr.FoldMap(line)
	}
	return l
}

// Len is the number of lines.
func (l *Lines) Len() int { return len(l.orig) }

// Line returns the original line i.
func (l *Lines) Line(i int) string { return l.orig[i] }

// Folded returns the folded line i.
func (l *Lines) Folded(i int) string { return l.folded[i] }

// Span reports the original byte span of the first match of re on folded line i.
func (l *Lines) Span(i int, re *regexp.Regexp) (int, int, bool) {
	loc := re.FindStringIndex(l.folded[i])
	if loc == nil {
		return 0, 0, false
	}
	return l.idx[i][loc[0]], l.idx[i][loc[1]], true
}

// Matches reports whether any of res matches folded line i.
func (l *Lines) Matches(i int, res []*regexp.Regexp) bool {
	for _, re := range res {
		if re.MatchString(l.folded[i]) {
			return true
		}
	}
	return false
}

// Find runs q and reports the first value found. Amounts that are not found
// within the window are retried once with WideWindow.
func (l *Lines) Find(q Query) (Match, bool) {
	w := q.Window
	if w <= 0 {
		w = DefaultWindow
	}
	if m, ok := l.find(q, w); ok {
		return m, true
	}
	if q.Class == ClassAmount && w < WideWindow {
		return l.find(q, WideWindow)
	}
	return Match{}, false
}

// Anchors lists the lines where label li is present, in document order.
func (l *Lines) Anchors(q Query, li int) []int {
	var out []int
	for i := range l.folded {
		if _, ok := l.anchor(q, li, i); ok {
			out = append(out, i)
		}
	}
	return out
}

func (l *Lines) find(q Query, w int) (Match, bool) {
	for li := range q.Labels {
		for i := range l.folded {
			span, ok := l.anchor(q, li, i)
			if !ok {
				continue
			}
			if m, ok := l.searchAround(q, i, span, w); ok {
				m.Label = li
				return m, true
			}
		}
	}
	return Match{}, false
}

// anchor reports the original byte span of label li on line i.
func (l *Lines) anchor(q Query, li, i int) ([2]int, bool) {
	f := l.folded[i]
	loc := q.Labels[li].FindStringIndex(f)
	if loc == nil {
		return [2]int{}, false
	}
	for _, ex := range q.Exclude {
		if ex.MatchString(f) {
			return [2]int{}, false
		}
	}
	idx := l.idx[i]
	return [2]int{idx[loc[0]], idx[loc[1]]}, true
}

// searchAround scans the anchor line after the label, the lines below, the
// lines above and finally the anchor line before the label.
func (l *Lines) searchAround(q Query, i int, span [2]int, w int) (Match, bool) {
	line := l.orig[i]
	if m, ok := l.pick(q, i, span[1], len(line), -1); ok {
		return m, true
	}
	col := utf8.RuneCountInString(line[:span[0]])
	for d := 1; d <= w && i+d < len(l.orig); d++ {
		if l.stopped(q, i+d) {
			break
		}
		if m, ok := l.pick(q, i+d, 0, len(l.orig[i+d]), col); ok {
			return m, true
		}
	}
	for d := 1; d <= w && i-d >= 0; d++ {
		if l.stopped(q, i-d) {
			break
		}
		if m, ok := l.pick(q, i-d, 0, len(l.orig[i-d]), col); ok {
			return m, true
		}
	}
	return l.pick(q, i, 0, span[0], -1)
}

func (l *Lines) stopped(q Query, i int) bool {
	return l.Matches(i, q.Stop)
}

type candidate struct {
	start, end int
	tok        string
}

// pick chooses one candidate from line i within [from, to). With col >= 0 the
// candidate nearest to that rune column wins; amounts with a Rank use the
// ranking instead. Ties keep document order.
func (l *Lines) pick(q Query, i, from, to, col int) (Match, bool) {
	line := l.orig[i]
	if from >= to {
		return Match{}, false
	}
	seg := line[from:to]
	var cands []candidate
	for _, loc := range q.Value.FindAllStringSubmatchIndex(seg, -1) {
		s, e := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			s, e = loc[2], loc[3]
		}
		s += from
		e += from
		if q.Accept != nil && !q.Accept(line, s, e) {
			continue
		}
		cands = append(cands, candidate{start: s, end: e, tok: strings.TrimSpace(line[s:e])})
	}
	if len(cands) == 0 {
		return Match{}, false
	}

	best := 0
	switch {
	case q.Class == ClassAmount && q.Rank != nil:
		bestScore := q.Rank(cands[0].tok)
		for j := 1; j < len(cands); j++ {
			if sc := q.Rank(cands[j].tok); sc > bestScore {
				best, bestScore = j, sc
			}
		}
	case col >= 0:
		bestDist := distance(line, cands[0].start, col)
		for j := 1; j < len(cands); j++ {
			if d := distance(line, cands[j].start, col); d < bestDist {
				best, bestDist = j, d
			}
		}
	}
	c := cands[best]
	return Match{Value: c.tok, Line: i, Start: c.start}, true
}

func distance(line string, off, col int) int {
	d := utf8.RuneCountInString(line[:off]) - col
	if d < 0 {
		return -d
	}
	return d
}

// Nearby is the unanchored fallback: the value nearest to a keyword
// occurrence within span/2 bytes on either side. Keywords are tried in order,
// occurrences in document order; equal distances keep the earlier value.
func Nearby(text string, keywords []*regexp.Regexp, value *regexp.Regexp, span int, accept func(string) bool) (string, bool) {
	folded, idx := ocr.FoldMap(text)
	half := span / 2
	for _, kw := range keywords {
		for _, loc := range kw.FindAllStringIndex(folded, -1) {
			ks, ke := idx[loc[0]], idx[loc[1]]
			start := snap(text, ks-half)
			end := snap(text, ke+half)
			best, bestDist := "", -1
			for _, vl := range value.FindAllStringIndex(text[start:end], -1) {
				vs, ve := vl[0]+start, vl[1]+start
				vm := strings.TrimSpace(text[vs:ve])
				if accept != nil && !accept(vm) {
					continue
				}
				dist := 0
				switch {
				case vs >= ke:
					dist = vs - ke
				case ve <= ks:
					dist = ks - ve
				}
				if bestDist < 0 || dist < bestDist {
					best, bestDist = vm, dist
				}
			}
			if bestDist >= 0 {
				return best, true
			}
		}
	}
	return "", false
}

// snap clamps off into text and moves it back to a rune start.
func snap(text string, off int) int {
	if off <= 0 {
		return 0
	}
	if off >= len(text) {
		return len(text)
	}
	for off > 0 && !utf8.RuneStart(text[off]) {
		off--
	}
	return off
}
