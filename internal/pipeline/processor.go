// Package pipeline runs the extraction strategies over one document and
// reconciles, validates and scores their output.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/heuristic"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
	"github.com/joseph-ayodele/invoice-extractor/internal/ocr"
	"github.com/joseph-ayodele/invoice-extractor/internal/reconcile"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
	"github.com/joseph-ayodele/invoice-extractor/internal/validate"
)

// Config holds the thresholds of a pipeline.
type Config struct {
	Rules               validate.Rules
	Weights             validate.Weights
	ExternalTimeout     time.Duration // default 20s
	LowQualityThreshold float64       // text quality below this is logged
	DefaultCurrency     string
}

// Input is one document. Text is the normalized text when the caller has
// one; Raw is the text as received and is used for grounding checks.
type Input struct {
	Text   string
	Raw    string
	Method Method
	Source string
}

// Report describes how a record was produced.
type Report struct {
	RequestID     string   `json:"request_id"`
	Strategies    []string `json:"strategies"`
	Template      string   `json:"template,omitempty"`
	External      string   `json:"external"`
	ExternalError string   `json:"external_error,omitempty"`
	Adopted       []string `json:"adopted,omitempty"`
	Rejected      []string `json:"rejected,omitempty"`
	Missing       []string `json:"missing,omitempty"`
	TextQuality   float64  `json:"text_quality"`
	ElapsedMS     int64    `json:"elapsed_ms"`
}

// Output is the result of a run.
type Output struct {
	Record invoice.Record `json:"record"`
	Report Report         `json:"report"`
}

// Pipeline is immutable after New and safe for concurrent use.
type Pipeline struct {
	log       *slog.Logger
	cfg       Config
	template  Strategy
	heuristic Strategy
	external  Strategy
}

// New wires a pipeline. set may be nil (no templates) and ext may be nil
// (no external extractor).
func New(logger *slog.Logger, cfg Config, set *templates.Set, h *heuristic.Extractor, ext llm.FieldExtractor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExternalTimeout <= 0 {
		cfg.ExternalTimeout = 20 * time.Second
	}
	if cfg.Rules.DomesticVATPrefix == "" && cfg.Rules.SumTolerance.IsZero() {
		cfg.Rules = validate.DefaultRules()
	}
	if cfg.Weights == (validate.Weights{}) {
		cfg.Weights = validate.DefaultWeights()
	}
	if h == nil {
		h = heuristic.New(heuristic.DefaultOptions())
	}
	p := &Pipeline{
		log:       logger,
		cfg:       cfg,
		heuristic: heuristicStrategy{ex: h},
		external: externalStrategy{
			ext:     ext,
			timeout: cfg.ExternalTimeout,
			rules:   cfg.Rules,
			defCur:  cfg.DefaultCurrency,
			log:     logger,
		},
	}
	if set != nil && set.Len() > 0 {
		p.template = templateStrategy{set: set, log: logger}
	}
	return p
}

// Strategies lists the ordered strategies for m.
func (p *Pipeline) Strategies(m Method) []Strategy {
	var out []Strategy
	add := func(s Strategy) {
		if s != nil {
			out = append(out, s)
		}
	}
	switch m {
	case MethodTemplate:
		add(p.template)
		add(p.heuristic)
	case MethodHeuristic:
		add(p.heuristic)
	case MethodLLM:
		add(p.heuristic)
		add(p.external)
	default:
		add(p.template)
		add(p.heuristic)
		add(p.external)
	}
	return out
}

// Run extracts one document. Extraction problems never surface as errors:
// they are logged and reflected in the record and report.
func (p *Pipeline) Run(ctx context.Context, in Input) Output {
	start := time.Now()
	ctx, rid := common.EnsureRequestID(ctx)

	text := in.Text
	if text == "" {
		text = in.Raw
	}
	raw := in.Raw
	if raw == "" {
		raw = in.Text
	}
	if in.Source == "" {
		in.Source = common.SourceFromContext(ctx)
	}
	doc := ocr.Normalize(text)
	rep := Report{RequestID: rid, External: ExternalSkipped}

	if doc.Empty() {
		p.log.Warn("pipeline.input.empty", "req_id", rid, "source", in.Source, "error", common.ErrMalformedInput)
		rec := invoice.Record{Method: invoice.MethodNone, Validations: validate.Run(invoice.Record{}, "", p.cfg.Rules)}
		rep.Missing = rec.Missing()
		rep.ElapsedMS = time.Since(start).Milliseconds()
		return Output{Record: rec, Report: rep}
	}

	rep.TextQuality = ocr.Quality(doc)
	if rep.TextQuality < p.cfg.LowQualityThreshold {
		p.log.Warn("pipeline.text.low_quality", "req_id", rid, "source", in.Source, "quality", rep.TextQuality)
	}

	job := &Job{Doc: doc, Raw: raw, Source: in.Source, Forced: in.Method == MethodLLM, Report: &rep}
	for _, s := range p.Strategies(in.Method) {
		c, ok, err := s.Extract(ctx, job)
		if err != nil && !errors.Is(err, common.ErrExternalExtractor) {
			p.log.Error("pipeline.strategy.failed", "req_id", rid, "strategy", s.Name(), "error", err)
		}
		if !ok {
			continue
		}
		rep.Strategies = append(rep.Strategies, s.Name())
		job.Candidates = append(job.Candidates, c)
	}

	merged := reconcile.Merge(reconcile.Source{Raw: raw, Text: doc.Text}, job.Candidates...)
	rec := merged.Record
	rec.Validations = validate.Run(rec, raw, p.cfg.Rules)
	rec.Confidence = validate.Score(rec, rec.Validations, p.cfg.Weights)
	if err := validate.Err(rec.Validations); err != nil {
		p.log.Debug("pipeline.validation.failed", "req_id", rid, "source", in.Source, "error", err)
	}

	rep.Adopted = merged.Adopted
	rep.Rejected = merged.Rejected
	rep.Missing = rec.Missing()
	rep.ElapsedMS = time.Since(start).Milliseconds()

	p.log.Info("pipeline.run.ok",
		"req_id", rid,
		"source", in.Source,
		"method", rec.Method,
		"template", rec.Template,
		"external", rep.External,
		"missing", len(rep.Missing),
		"confidence", rec.Confidence,
		"elapsed_ms", rep.ElapsedMS,
	)
	return Output{Record: rec, Report: rep}
}
