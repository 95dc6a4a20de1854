package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// maxTextBytes bounds a single text dump.
const maxTextBytes = 8 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextFile reads UTF-8 text dumps produced by an upstream OCR or PDF step.
type TextFile struct {
	logger *slog.Logger
}

func NewTextFile(logger *slog.Logger) *TextFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextFile{logger: logger}
}

func (t *TextFile) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	start := time.Now()
	res := TextExtractionResult{SourceType: "TEXT", Method: "text-file"}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".txt" && ext != ".text" {
		return res, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported extension %q", ext), common.ErrInvalidInput)
	}
	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > maxTextBytes {
		return res, common.NewAppError("FILE_TOO_LARGE", fmt.Sprintf("%s is %d bytes", path, info.Size()), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	res.Bytes = len(data)
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, nil)
		res.Warnings = append(res.Warnings, "invalid utf-8 dropped")
	}
	res.Text = string(data)
	res.Duration = time.Since(start)

	t.logger.Debug("extract.text.ok",
		"path", path,
		"bytes", res.Bytes,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
