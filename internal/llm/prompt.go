package llm

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// maxPromptBytes bounds the document text sent to the model.
const maxPromptBytes = 6000

// BuildSystemPrompt composes the system message: output contract, formats and
// the fields the local strategies could not find.
func BuildSystemPrompt(req ExtractRequest) string {
	defCur := strings.TrimSpace(req.DefaultCurrency)
	if defCur == "" {
		defCur = "CZK"
	}

	parts := []string{
		"You are an invoice parser. Return ONLY one JSON object that matches the provided JSON Schema.",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"Write amounts as plain decimal numbers without currency or thousands separators.",
		"Currency must be a 3-letter ISO 4217 code (Kč is CZK); when several currencies appear, prefer " + defCur + ".",
		"'variable_symbol' is the numeric payment reference (variabilní symbol), not the invoice title.",
		"'supplier' is the issuing party (dodavatel), never the customer (odběratel).",
		"Copy names, identifiers and account numbers exactly as printed.",
		"Use null for anything that is not present in the text. Never guess.",
	}
	if len(req.Missing) > 0 {
		parts = append(parts, "Pay special attention to: "+strings.Join(req.Missing, ", ")+".")
	}
	if len(req.Failed) > 0 {
		parts = append(parts, "These checks failed on the local reading and may need a second look: "+strings.Join(req.Failed, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the document text, cut at maxPromptBytes on a rune boundary.
func BuildUserPrompt(req ExtractRequest) string {
	text := strings.TrimSpace(req.Text)

	var b strings.Builder
	if src := strings.TrimSpace(req.Source); src != "" {
		b.WriteString("Source: ")
		b.WriteString(src)
		b.WriteString("\n")
	}
	b.WriteString("\nInvoice text:\n")
	if len(text) > maxPromptBytes {
		cut := maxPromptBytes
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		b.WriteString(text[:cut])
		b.WriteString("\n…(truncated)")
	} else {
		b.WriteString(text)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

// SchemaPrompt renders the schema for a system message.
func SchemaPrompt() string {
	b, _ := json.MarshalIndent(BuildInvoiceJSONSchema(), "", "  ")
	return "JSON Schema:\n" + string(b)
}
