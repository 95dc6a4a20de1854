// Package export renders an extracted record as json, txt, csv or xlsx.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const sheet = "Invoice"

// ParseFormat accepts a format name case-insensitively; "" means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatTXT, FormatCSV, FormatXLSX:
		return f, nil
	}
	return "", common.NewAppError("INVALID_FORMAT", fmt.Sprintf("unknown export format %q", s), common.ErrInvalidInput)
}

// Ext is the file extension for f, including the dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatTXT:
		return "text/plain; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Pair is one flattened key/value.
type Pair struct {
	Key   string
	Value string
}

var nestedKeys = map[string]string{
	invoice.FieldSupplierName:    "supplier.name",
	invoice.FieldSupplierTaxID:   "supplier.tax_id",
	invoice.FieldSupplierVATID:   "supplier.vat_id",
	invoice.FieldSupplierAddress: "supplier.address",
}

// Flatten lists the record in output order with dotted keys for nested
// values. Absent values are empty strings.
func Flatten(rec invoice.Record) []Pair {
	out := make([]Pair, 0, len(invoice.Fields)+12)
	for _, f := range invoice.Fields {
		key := f
		if k, ok := nestedKeys[f]; ok {
			key = k
		}
		var v string
		if s := rec.StringSlot(f); s != nil {
			v = invoice.Value(*s)
		} else if a := rec.AmountSlot(f); a != nil && *a != nil {
			v = (*a).StringFixed(2)
		}
		out = append(out, Pair{Key: key, Value: v})
	}
	out = append(out,
		Pair{Key: "confidence", Value: strconv.FormatFloat(rec.Confidence, 'f', 2, 64)},
		Pair{Key: "method", Value: string(rec.Method)},
		Pair{Key: "template", Value: rec.Template},
	)

	names := make([]string, 0, len(rec.Validations))
	for name := range rec.Validations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := ""
		if p := rec.Validations[name]; p != nil {
			v = strconv.FormatBool(*p)
		}
		out = append(out, Pair{Key: "validations." + name, Value: v})
	}

	for _, d := range []struct {
		name string
		on   bool
	}{
		{invoice.FieldAmountExclTax, rec.Derived.AmountExclTax},
		{invoice.FieldTaxAmount, rec.Derived.TaxAmount},
		{invoice.FieldAmountInclTax, rec.Derived.AmountInclTax},
	} {
		if d.on {
			out = append(out, Pair{Key: "derived." + d.name, Value: "true"})
		}
	}
	return out
}

// Service renders records.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Export returns rec encoded as f.
func (s *Service) Export(ctx context.Context, rec invoice.Record, f Format) ([]byte, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		out []byte
		err error
	)
	switch f {
	case FormatJSON, "":
		out, err = json.MarshalIndent(rec, "", "  ")
	case FormatTXT:
		out = renderTXT(Flatten(rec))
	case FormatCSV:
		out, err = renderCSV(Flatten(rec))
	case FormatXLSX:
		out, err = renderXLSX(Flatten(rec))
	default:
		_, err = ParseFormat(string(f))
	}
	if err != nil {
		s.logger.Error("export.failed", "format", f, "error", err)
		return nil, err
	}

	s.logger.Debug("export.ok",
		"format", f,
		"bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func renderTXT(pairs []Pair) []byte {
	var b bytes.Buffer
	for _, p := range pairs {
		b.WriteString(p.Key)
		b.WriteString(": ")
		b.WriteString(p.Value)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

func renderCSV(pairs []Pair) ([]byte, error) {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"Key", "Value"})
	for _, p := range pairs {
		_ = w.Write([]string{p.Key, p.Value})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	return b.Bytes(), nil
}

func renderXLSX(pairs []Pair) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	widths := [2]int{len("Key"), len("Value")}
	write := func(col, row int, v string) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
		if n := utf8.RuneCountInString(v); n > widths[col-1] {
			widths[col-1] = n
		}
	}
	write(1, 1, "Key")
	write(2, 1, "Value")
	for i, p := range pairs {
		write(1, i+2, p.Key)
		write(2, i+2, p.Value)
	}

	_ = f.SetColWidth(sheet, "A", "A", colWidth(widths[0]))
	_ = f.SetColWidth(sheet, "B", "B", colWidth(widths[1]))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func colWidth(runes int) float64 {
	w := float64(runes) + 2
	if w > 80 {
		w = 80
	}
	return w
}
