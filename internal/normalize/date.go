package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

const isoLayout = "2006-01-02"

var (
	reISODate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDMY      = regexp.MustCompile(`(?:^|\D)(\d{1,2})\s?[./-]\s?(\d{1,2})\s?[./-]\s?(\d{4}|\d{2})(?:\D|$)`)
	reDayMonth = regexp.MustCompile(`(\d{1,2})\.?\s+(\p{L}+)\.?,?\s+(\d{4})`)
	reMonthDay = regexp.MustCompile(`(\p{L}+)\.?\s+(\d{1,2}),?\s+(\d{4})`)
)

// monthNames maps folded Czech (nominative and genitive) and English month
// names to their number. dateparse only knows English.
var monthNames = map[string]time.Month{
	"leden": 1, "ledna": 1, "january": 1, "jan": 1,
	"unor": 2, "unora": 2, "february": 2, "feb": 2,
	"brezen": 3, "brezna": 3, "march": 3, "mar": 3,
	"duben": 4, "dubna": 4, "april": 4, "apr": 4,
	"kveten": 5, "kvetna": 5, "may": 5,
	"cerven": 6, "cervna": 6, "june": 6, "jun": 6,
	"cervenec": 7, "cervence": 7, "july": 7, "jul": 7,
	"srpen": 8, "srpna": 8, "august": 8, "aug": 8,
	"zari": 9, "september": 9, "sep": 9, "sept": 9,
	"rijen": 10, "rijna": 10, "october": 10, "oct": 10,
	"listopad": 11, "listopadu": 11, "november": 11, "nov": 11,
	"prosinec": 12, "prosince": 12, "december": 12, "dec": 12,
}

// Date converts a date string to ISO-8601 (YYYY-MM-DD).
//
// Numeric day/month/year triples are read day-first with two-digit years
// placed in the 2000s. Month names (Czech or English) are looked up next and
// anything else goes through dateparse. ISO input is returned unchanged.
func Date(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if reISODate.MatchString(s) {
		if _, err := time.Parse(isoLayout, s); err == nil {
			return s, true
		}
		return "", false
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		return civil(m[3], m[2], m[1])
	}
	folded := ocr.Fold(s)
	if m := reDayMonth.FindStringSubmatch(folded); m != nil {
		if mon, ok := monthNames[m[2]]; ok {
			return civil(m[3], strconv.Itoa(int(mon)), m[1])
		}
	}
	if m := reMonthDay.FindStringSubmatch(folded); m != nil {
		if mon, ok := monthNames[m[1]]; ok {
			return civil(m[3], strconv.Itoa(int(mon)), m[2])
		}
	}
	if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil {
		return t.Format(isoLayout), true
	}
	return "", false
}

// civil validates a y/m/d triple, expanding two-digit years to 20yy.
func civil(y, m, d string) (string, bool) {
	if len(y) == 2 {
		y = "20" + y
	}
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	day, err3 := strconv.Atoi(d)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return "", false
	}
	return t.Format(isoLayout), true
}
