package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// Runner runs one document through the extraction pipeline.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) pipeline.Output
}

type InboxConfig struct {
	OutDir  string // empty: results are only logged
	Formats []export.Format
	Method  pipeline.Method
}

// Inbox reads text files, extracts them and writes the exports next to
// each other in OutDir. Files with content already processed by this Inbox
// are skipped unless forced.
type Inbox struct {
	reader   extract.TextExtractor
	pipe     Runner
	exporter *export.Service
	cfg      InboxConfig
	logger   *slog.Logger

	mu   sync.Mutex
	seen map[string]string // sha256 -> first path
}

func NewInbox(reader extract.TextExtractor, pipe Runner, exporter *export.Service, cfg InboxConfig, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []export.Format{export.FormatJSON}
	}
	return &Inbox{
		reader:   reader,
		pipe:     pipe,
		exporter: exporter,
		cfg:      cfg,
		logger:   logger,
		seen:     map[string]string{},
	}
}

func (i *Inbox) ProcessFile(ctx context.Context, path string, force bool) (FileResult, error) {
	start := time.Now()
	res := FileResult{Path: path}

	tr, err := i.reader.Extract(ctx, path)
	if err != nil {
		res.Err = err.Error()
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	sum := sha256.Sum256([]byte(tr.Text))
	res.HashHex = hex.EncodeToString(sum[:])

	if first, dup := i.claim(res.HashHex, path); dup && !force {
		res.Deduplicated = true
		i.logger.Info("inbox.file.deduplicated", "path", path, "first", first, "sha256", res.HashHex)
		return res, nil
	}

	ctx = common.WithSource(ctx, path)
	out := i.pipe.Run(ctx, pipeline.Input{Text: tr.Text, Method: i.cfg.Method, Source: path})
	res.Method = string(out.Record.Method)
	res.Confidence = out.Record.Confidence
	res.Missing = out.Report.Missing

	if i.cfg.OutDir != "" {
		for _, f := range i.cfg.Formats {
			dst, err := i.write(ctx, path, f, out)
			if err != nil {
				i.release(res.HashHex, path)
				res.Err = err.Error()
				return res, err
			}
			res.Outputs = append(res.Outputs, dst)
		}
	}

	i.logger.Info("inbox.file.ok",
		"path", path,
		"req_id", out.Report.RequestID,
		"method", res.Method,
		"confidence", res.Confidence,
		"missing", len(res.Missing),
		"outputs", len(res.Outputs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// claim records hash for path and reports the earlier path when the
// content was seen before.
func (i *Inbox) claim(hash, path string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if first, ok := i.seen[hash]; ok {
		return first, true
	}
	i.seen[hash] = path
	return "", false
}

func (i *Inbox) release(hash, path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.seen[hash] == path {
		delete(i.seen, hash)
	}
}

func (i *Inbox) write(ctx context.Context, src string, f export.Format, out pipeline.Output) (string, error) {
	data, err := i.exporter.Export(ctx, out.Record, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(i.cfg.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create out dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(i.cfg.OutDir, base+f.Ext())

	tmp, err := os.CreateTemp(i.cfg.OutDir, "."+base+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("rename %s: %w", dst, err)
	}
	return dst, nil
}
