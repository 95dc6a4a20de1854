package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/invoice-extractor/internal/app"
	"github.com/joseph-ayodele/invoice-extractor/internal/batch"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		in      = flag.String("in", "-", "text file, directory of text files, or - for stdin")
		method  = flag.String("method", "auto", "auto | template | heuristic | llm")
		format  = flag.String("format", "json", "json | txt | csv | xlsx")
		out     = flag.String("out", "", "output file (single input) or directory (directory input)")
		workers = flag.Int("workers", 0, "parallel documents for directory input (default EXTRACT_WORKERS)")
		report  = flag.Bool("report", false, "print the extraction report to stderr")
	)
	flag.Parse()

	m, err := pipeline.ParseMethod(*method)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	f, err := export.ParseFormat(*format)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stderr, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe, err := app.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	exporter := export.NewService(logger)

	if info, err := os.Stat(*in); err == nil && info.IsDir() {
		n := *workers
		if n <= 0 {
			n = cfg.Extract.Workers
		}
		inbox := ingest.NewInbox(extract.NewTextFile(logger), pipe, exporter, ingest.InboxConfig{
			OutDir:  *out,
			Formats: []export.Format{f},
			Method:  m,
		}, logger)
		os.Exit(runDir(ctx, inbox, *in, n))
	}

	text, err := readInput(ctx, *in, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	res := pipe.Run(ctx, pipeline.Input{Text: text, Method: m, Source: *in})
	if *report {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res.Report)
	}

	data, err := exporter.Export(ctx, res.Record, f)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		_, _ = os.Stdout.Write(data)
		if f != export.FormatXLSX {
			fmt.Println()
		}
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		printError("Error: write %s: %v\n", *out, err)
		os.Exit(1)
	}
}

func readInput(ctx context.Context, in string, logger *slog.Logger) (string, error) {
	if in == "-" {
		b, err := io.ReadAll(os.Stdin)
		return string(b), err
	}
	res, err := extract.NewTextFile(logger).Extract(ctx, in)
	if err != nil {
		return "", err
	}
	for _, w := range res.Warnings {
		logger.Debug("input warning", "path", in, "warning", w)
	}
	return res.Text, nil
}

func runDir(ctx context.Context, inbox *ingest.Inbox, dir string, workers int) int {
	paths, stats, err := ingest.Discover(dir, ingest.DefaultExts, true)
	if err != nil {
		printError("Error: %v\n", err)
		return 1
	}
	results, err := batch.Run(ctx, paths, workers, func(ctx context.Context, p string) (ingest.FileResult, error) {
		return inbox.ProcessFile(ctx, p, false)
	})

	summary := struct {
		Scanned uint32              `json:"scanned"`
		Matched uint32              `json:"matched"`
		Failed  int                 `json:"failed"`
		Files   []ingest.FileResult `json:"files"`
	}{Scanned: stats.Scanned, Matched: stats.Matched, Failed: batch.Failed(results)}
	for _, r := range results {
		fr := r.Value
		fr.Path = r.Input
		if r.Err != nil && fr.Err == "" {
			fr.Err = r.Err.Error()
		}
		summary.Files = append(summary.Files, fr)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)

	if err != nil || summary.Failed > 0 {
		return 1
	}
	return 0
}
