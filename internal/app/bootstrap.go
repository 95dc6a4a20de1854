// Package app wires configuration into a ready extraction pipeline.
package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/heuristic"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
	"github.com/joseph-ayodele/invoice-extractor/internal/validate"
)

// LoadTemplates reads definitions from the SQL store when a DSN is set,
// otherwise from the directory. A missing directory yields an empty set.
func LoadTemplates(ctx context.Context, cfg common.TemplatesConfig, logger *slog.Logger) (*templates.Set, error) {
	start := time.Now()
	var (
		defs   []templates.Definition
		err    error
		source string
	)
	switch {
	case cfg.DSN != "":
		source = repository.DialectOf(cfg.DSN)
		defs, err = loadFromDB(ctx, cfg.DSN, logger)
	case cfg.Dir != "":
		source = cfg.Dir
		if _, statErr := os.Stat(cfg.Dir); errors.Is(statErr, fs.ErrNotExist) {
			logger.Warn("templates.dir.missing", "dir", cfg.Dir)
			break
		}
		defs, err = templates.LoadDir(os.DirFS(cfg.Dir))
	}
	if err != nil {
		logger.Error("templates.load.failed", "source", source, "error", err)
		return nil, err
	}

	set, err := templates.Compile(defs)
	if err != nil {
		logger.Error("templates.compile.failed", "source", source, "error", err)
		return nil, err
	}
	logger.Info("templates.load.ok",
		"source", source,
		"count", set.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return set, nil
}

func loadFromDB(ctx context.Context, dsn string, logger *slog.Logger) ([]templates.Definition, error) {
	db, err := repository.Open(ctx, repository.Config{DSN: dsn, DialTimeout: 5 * time.Second}, logger)
	if err != nil {
		return nil, err
	}
	defer db.Close(logger)

	repo := repository.NewTemplateRepository(db, logger)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo.List(ctx)
}

// HeuristicOptions maps the extraction config onto heuristic options.
func HeuristicOptions(cfg common.ExtractConfig) heuristic.Options {
	opts := heuristic.DefaultOptions()
	if cfg.AmountDecimalBonus > 0 {
		opts.DecimalBonus = cfg.AmountDecimalBonus
	}
	if cfg.AmountGroupedBonus > 0 {
		opts.GroupedBonus = cfg.AmountGroupedBonus
	}
	if cfg.AmountMagnitudeWeight > 0 {
		opts.MagnitudeWeight = cfg.AmountMagnitudeWeight
	}
	if cfg.AmountMagnitudeCap > 0 {
		opts.MagnitudeCap = cfg.AmountMagnitudeCap
	}
	return opts
}

// PipelineConfig maps the loaded config onto pipeline thresholds.
func PipelineConfig(cfg *common.Config) pipeline.Config {
	rules := validate.DefaultRules()
	if cfg.Extract.DomesticVATPrefix != "" {
		rules.DomesticVATPrefix = cfg.Extract.DomesticVATPrefix
	}
	if cfg.Extract.SumTolerance > 0 {
		rules.SumTolerance = decimal.NewFromFloat(cfg.Extract.SumTolerance)
	}
	return pipeline.Config{
		Rules:               rules,
		Weights:             validate.DefaultWeights(),
		ExternalTimeout:     cfg.LLM.Timeout,
		LowQualityThreshold: cfg.Extract.LowQualityThreshold,
		DefaultCurrency:     cfg.Extract.DefaultCurrency,
	}
}

// NewExternal returns the model-backed extractor, or nil when no API key is configured.
func NewExternal(cfg common.LLMConfig, logger *slog.Logger) llm.FieldExtractor {
	if !cfg.Enabled() {
		logger.Info("llm.disabled", "reason", "OPENAI_API_KEY not set")
		return nil
	}
	return openai.NewClient(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}, logger)
}

// NewPipeline loads templates and builds the pipeline described by cfg.
func NewPipeline(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	set, err := LoadTemplates(ctx, cfg.Templates, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(logger,
		PipelineConfig(cfg),
		set,
		heuristic.New(HeuristicOptions(cfg.Extract)),
		NewExternal(cfg.LLM, logger),
	), nil
}
