package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"space grouped comma decimal", "44 413,00", "44413", true},
		{"comma grouped dot decimal", "44,413.00", "44413", true},
		{"dot grouped comma decimal", "1.234,56", "1234.56", true},
		{"nbsp grouped with currency", "12 100,00 Kč", "12100", true},
		{"currency prefix", "EUR 3 025.00", "3025", true},
		{"plain integer", "2500", "2500", true},
		{"single decimal digit", "12,5", "12.5", true},
		{"thousands only comma", "1,500", "1500", true},
		{"thousands only dot", "12.000", "12000", true},
		{"leading zero keeps fraction", "0,500", "0.5", true},
		{"multiple dot groups", "1.234.567", "1234567", true},
		{"czech dash suffix", "100,-", "100", true},
		{"negative", "-15,20", "-15.2", true},
		{"apostrophe grouping", "1'234.50 CHF", "1234.5", true},
		{"long id is not an amount", "2024001234", "", false},
		{"no digits", "Kč", "", false},
		{"empty", "", "", false},
		{"broken grouping", "1.23.4", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Amount(tt.in)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

// A lone separator before exactly three digits groups thousands, even when
// it is the last separator of the token.
func TestAmountLoneSeparatorBeforeThreeDigits(t *testing.T) {
	for in, want := range map[string]string{
		"12.000":   "12000",
		"12,000":   "12000",
		"999.999":  "999999",
		"0.500":    "0.5",
		"1234.000": "1234",
		"12.0000":  "12",
		"12.00":    "12",
		"12,000.5": "12000.5",
	} {
		got, ok := Amount(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestHasDecimals(t *testing.T) {
	assert.True(t, HasDecimals("2 100,00 Kč"))
	assert.True(t, HasDecimals("12.5"))
	assert.False(t, HasDecimals("1,500"))
	assert.False(t, HasDecimals("2500"))
}

func TestDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"21.4.2023", "2023-04-21", true},
		{"12.06.2025", "2025-06-12", true},
		{"12. 06. 2025", "2025-06-12", true},
		{"01/02/24", "2024-02-01", true},
		{"5-11-2025", "2025-11-05", true},
		{"2025-06-26", "2025-06-26", true},
		{"12. června 2025", "2025-06-12", true},
		{"3 leden 2024", "2024-01-03", true},
		{"31.02.2025", "", false},
		{"", "", false},
		{"2025-13-40", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Date(tt.in)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateIdempotent(t *testing.T) {
	for _, in := range []string{"21.4.2023", "26.06.2025", "1/2/25", "12. června 2025"} {
		first, ok := Date(in)
		require.True(t, ok, in)
		second, ok := Date(first)
		require.True(t, ok, first)
		assert.Equal(t, first, second)
	}
}

func TestCurrency(t *testing.T) {
	for tok, want := range map[string]string{
		"Kč": "CZK", "kc": "CZK", "czk": "CZK", "€": "EUR", "EUR": "EUR",
		"$": "USD", "£": "GBP", "zł": "PLN", "Ft": "HUF", "chf": "CHF",
	} {
		got, ok := Currency(tok)
		require.True(t, ok, tok)
		assert.Equal(t, want, got, tok)
	}
	_, ok := Currency("kr")
	assert.False(t, ok)
	_, ok = Currency("ft")
	assert.False(t, ok)
}

func TestVoteCurrency(t *testing.T) {
	got, ok := VoteCurrency("Cena 100 EUR\nSleva 5 Kč\nCelkem 95 Kč")
	require.True(t, ok)
	assert.Equal(t, "CZK", got)

	got, ok = VoteCurrency("paid 10 € or 10 $")
	require.True(t, ok)
	assert.Equal(t, "EUR", got, "ties go to first occurrence")

	_, ok = VoteCurrency("nothing here 100 kr")
	assert.False(t, ok)
}

func TestFindCurrenciesOffsets(t *testing.T) {
	text := "Total 12 100,00 Kč"
	m := FindCurrencies(text)
	require.Len(t, m, 1)
	assert.Equal(t, "CZK", m[0].Code)
	assert.Equal(t, "Kč", text[m[0].Start:m[0].Start+len("Kč")])
}
