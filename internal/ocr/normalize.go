package ocr

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
)

// Document is a normalized view of one invoice text.
type Document struct {
	Raw   string   // input as received, used for substring checks
	Lines []string // trimmed, whitespace-collapsed, non-empty
	Text  string   // Lines joined with "\n"
}

// Empty reports whether the document carries no usable text.
func (d Document) Empty() bool { return len(d.Lines) == 0 }

// Normalize collapses whitespace variants (tabs, NBSP, thin spaces, CR) into
// single spaces and drops blank lines. It never changes non-space characters.
func Normalize(raw string) Document {
	doc := Document{Raw: raw}
	if strings.TrimSpace(raw) == "" {
		return doc
	}
	s := reCRLF.ReplaceAllString(raw, "\n")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\u200b' || r == '\ufeff':
			return -1
		case unicode.IsSpace(r):
			return ' '
		}
		return r
	}, s)

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(reMultiSpace.ReplaceAllString(line, " "))
		if line != "" {
			doc.Lines = append(doc.Lines, line)
		}
	}
	doc.Text = strings.Join(doc.Lines, "\n")
	return doc
}

// Collapse joins all whitespace runs into single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Fold lowercases s and strips diacritics ("Účet" -> "ucet").
func Fold(s string) string {
	f, _ := FoldMap(s)
	return f
}

// FoldMap folds s like Fold and also returns, for every byte of the folded
// string, the byte offset of the rune it came from in s. The slice has one
// extra trailing entry equal to len(s).
func FoldMap(s string) (string, []int) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	var b strings.Builder
	b.Grow(len(s))
	idx := make([]int, 0, len(s)+1)
	for i, r := range s {
		var f string
		if r < utf8.RuneSelf {
			f = string(unicode.ToLower(r))
		} else {
			out, _, err := transform.String(t, string(r))
			if err != nil {
				out = string(r)
			}
			f = strings.ToLower(out)
		}
		for range len(f) {
			idx = append(idx, i)
		}
		b.WriteString(f)
	}
	idx = append(idx, len(s))
	return b.String(), idx
}
