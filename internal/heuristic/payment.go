package heuristic

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/locate"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
)

// Canonical payment methods.
const (
	PaymentBankTransfer   = "bank_transfer"
	PaymentCash           = "cash"
	PaymentCard           = "card"
	PaymentCashOnDelivery = "cash_on_delivery"
)

var (
	accountLabels = locate.Labels(
		`cislo\s+uctu`,
		`bankovni\s+ucet`,
		`\bucet\b`,
		`bank\s+account`,
		`account\s*(?:no|number)?`,
		`\biban\b`,
	)
	bicLabels      = locate.Labels(`\bbic\b`, `\bswift\b`)
	bankNameLabels = locate.Labels(`nazev\s+banky`, `bank\s+name`, `\bbanka\s*:`, `\bbank\s*:`)
	methodLabels   = locate.Labels(
		`forma\s+uhrady`,
		`zpusob\s+(?:platby|uhrady)`,
		`platebni\s+metoda`,
		`payment\s+(?:method|type)`,
		`method\s+of\s+payment`,
		`paid\s+by`,
	)

	reLocalAccount = regexp.MustCompile(`(?:\d{1,6}-)?\d{2,10}/\d{4}\b`)
	reIBAN         = regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){2,7}(?: ?[A-Z0-9]{1,3})?\b`)
	reBIC          = regexp.MustCompile(`\b[A-Z]{6}[A-Z0-9]{2}(?:[A-Z0-9]{3})?\b`)
	reBankCode     = regexp.MustCompile(`/(\d{4})$`)
	reBankNameCut  = regexp.MustCompile(`(?i)\s*(?:,\s*)?\b(?:iban|bic|swift|ucet|cislo\s+uctu|account)\b`)

	methodKeywords = []struct {
		re     *regexp.Regexp
		method string
	}{
		{regexp.MustCompile(`dobirk|cash\s+on\s+delivery|\bcod\b`), PaymentCashOnDelivery},
		{regexp.MustCompile(`platebni\s+kart|\bkartou\b|credit\s+card|debit\s+card|card\s+payment|paid\s+by\s+card`), PaymentCard},
		{regexp.MustCompile(`\bprevodem\b|prevodni\s+prikaz|bank\s+transfer|wire\s+transfer`), PaymentBankTransfer},
		{regexp.MustCompile(`\bhotove\b|v\s+hotovosti|paid\s+in\s+cash`), PaymentCash},
	}
)

type payment struct {
	account string
	bank    string
	method  string
}

func (e *Extractor) findPayment(l *locate.Lines, text string) payment {
	p := payment{
		account: findAccount(l, text),
		bank:    remainderOf(l, bankNameLabels),
		method:  findMethod(l, text),
	}
	if p.bank != "" {
		folded, idx := ocr.FoldMap(p.bank)
		if loc := reBankNameCut.FindStringIndex(folded); loc != nil {
			p.bank = strings.TrimSpace(p.bank[:idx[loc[0]]])
		}
	}
	if p.bank == "" && e.opts.InferBankName {
		p.bank = bankFromAccount(p.account)
	}
	return p
}

func acceptAccount(line string, s, e int) bool {
	if s > 0 && strings.ContainsRune("0123456789/-.", rune(line[s-1])) {
		return false
	}
	return e >= len(line) || !strings.ContainsRune("0123456789/", rune(line[e]))
}

// findAccount prefers a labelled local account, then a labelled IBAN, then a
// labelled BIC. Without labels the first local account or checksum-valid IBAN
// in the text is used.
func findAccount(l *locate.Lines, text string) string {
	local := locate.Query{Labels: accountLabels, Stop: bicLabels, Value: reLocalAccount, Accept: acceptAccount, Window: 2}
	if m, ok := l.Find(local); ok {
		return m.Value
	}
	iban := locate.Query{Labels: accountLabels, Value: reIBAN, Window: 2}
	if m, ok := l.Find(iban); ok {
		return trimIBAN(m.Value, true)
	}
	bic := locate.Query{Labels: bicLabels, Value: reBIC, Window: 1}
	if m, ok := l.Find(bic); ok {
		return m.Value
	}
	for _, loc := range reLocalAccount.FindAllStringIndex(text, -1) {
		if acceptAccount(text, loc[0], loc[1]) {
			return text[loc[0]:loc[1]]
		}
	}
	for _, m := range reIBAN.FindAllString(text, -1) {
		if v := trimIBAN(m, false); v != "" {
			return v
		}
	}
	return ""
}

// trimIBAN removes spaces and drops trailing characters until the checksum
// holds. A labelled candidate that never validates is kept whole.
func trimIBAN(s string, labelled bool) string {
	compact := strings.ReplaceAll(s, " ", "")
	for n := len(compact); n >= 15; n-- {
		if ValidIBAN(compact[:n]) {
			return compact[:n]
		}
	}
	if labelled {
		return compact
	}
	return ""
}

// ValidIBAN runs the ISO 13616 mod-97 check on a compact IBAN.
func ValidIBAN(s string) bool {
	if len(s) < 15 || len(s) > 34 {
		return false
	}
	var b strings.Builder
	for _, r := range s[4:] + s[:4] {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteString(strconv.Itoa(int(r - 'A' + 10)))
		default:
			return false
		}
	}
	n, ok := new(big.Int).SetString(b.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func remainderOf(l *locate.Lines, labels []*regexp.Regexp) string {
	for _, re := range labels {
		for i := 0; i < l.Len(); i++ {
			if _, e, ok := l.Span(i, re); ok {
				if v := strings.Trim(l.Line(i)[e:], " :-,\t"); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

func findMethod(l *locate.Lines, text string) string {
	if v := remainderOf(l, methodLabels); v != "" {
		return CanonicalMethod(v)
	}
	folded := ocr.Fold(text)
	for _, k := range methodKeywords {
		if k.re.MatchString(folded) {
			return k.method
		}
	}
	return ""
}

// CanonicalMethod maps a payment method phrase to its canonical name; unknown
// phrasings are kept verbatim.
func CanonicalMethod(s string) string {
	f := ocr.Fold(s)
	for _, k := range methodKeywords {
		if k.re.MatchString(f) {
			return k.method
		}
	}
	switch {
	case strings.Contains(f, "prevod") || strings.Contains(f, "transfer"):
		return PaymentBankTransfer
	case strings.Contains(f, "hotov") || strings.Contains(f, "cash"):
		return PaymentCash
	case strings.Contains(f, "kart") || strings.Contains(f, "card"):
		return PaymentCard
	}
	return s
}

func bankFromAccount(account string) string {
	m := reBankCode.FindStringSubmatch(account)
	if m == nil {
		return ""
	}
	return czechBanks[m[1]]
}
