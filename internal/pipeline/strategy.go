package pipeline

import (
	"context"
	"errors"
	"fmt"
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

// Job is the per-run state strategies read and extend.
type Job struct {
	Doc        ocr.Document
	Raw        string
	Source     string
	Forced     bool
	Candidates []reconcile.Candidate
	Report     *Report
}

func (j *Job) has(o reconcile.Origin) (reconcile.Candidate, bool) {
	for _, c := range j.Candidates {
		if c.Origin == o {
			return c, true
		}
	}
	return reconcile.Candidate{}, false
}

// Strategy is one extraction step. ok is false when it produced nothing;
// an error never aborts the run.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, job *Job) (c reconcile.Candidate, ok bool, err error)
}

type templateStrategy struct {
	set *templates.Set
	log *slog.Logger
}

func (templateStrategy) Name() string { return "template" }

func (s templateStrategy) Extract(_ context.Context, job *Job) (reconcile.Candidate, bool, error) {
	res, ok := s.set.Match(job.Doc)
	if !ok {
		return reconcile.Candidate{}, false, nil
	}
	if err := res.Ambiguous(); err != nil {
		s.log.Debug("pipeline.template.tie", "source", job.Source, "error", err)
	}
	job.Report.Template = res.Name
	return reconcile.Candidate{Origin: reconcile.OriginTemplate, Record: res.Record}, true, nil
}

type heuristicStrategy struct {
	ex *heuristic.Extractor
}

func (heuristicStrategy) Name() string { return "heuristic" }

func (s heuristicStrategy) Extract(_ context.Context, job *Job) (reconcile.Candidate, bool, error) {
	if _, ok := job.has(reconcile.OriginTemplate); ok {
		return reconcile.Candidate{}, false, nil
	}
	return reconcile.Candidate{Origin: reconcile.OriginHeuristic, Record: s.ex.Extract(job.Doc)}, true, nil
}

// External call outcomes reported in Report.External.
const (
	ExternalSkipped       = "skipped"
	ExternalNotConfigured = "not_configured"
	ExternalNotNeeded     = "not_needed"
	ExternalOK            = "ok"
	ExternalFailed        = "failed"
	ExternalTimeout       = "timeout"
)

type externalStrategy struct {
	ext     llm.FieldExtractor
	timeout time.Duration
	rules   validate.Rules
	defCur  string
	log     *slog.Logger
}

func (externalStrategy) Name() string { return "external" }

func (s externalStrategy) Extract(ctx context.Context, job *Job) (reconcile.Candidate, bool, error) {
	if _, ok := job.has(reconcile.OriginTemplate); ok {
		return reconcile.Candidate{}, false, nil
	}
	base, _ := job.has(reconcile.OriginHeuristic)
	missing := base.Record.Missing()
	failed := failedChecks(validate.Run(base.Record, job.Raw, s.rules))

	if s.ext == nil {
		job.Report.External = ExternalNotConfigured
		return reconcile.Candidate{}, false, nil
	}
	if !job.Forced && !UnderDetermined(len(missing), len(failed)) {
		job.Report.External = ExternalNotNeeded
		return reconcile.Candidate{}, false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rec, _, err := s.ext.ExtractFields(ctx, llm.ExtractRequest{
		Text:            job.Doc.Text,
		Missing:         missing,
		Failed:          failed,
		DefaultCurrency: s.defCur,
		Source:          job.Source,
	})
	if err != nil {
		job.Report.External = ExternalFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			job.Report.External = ExternalTimeout
		}
		job.Report.ExternalError = err.Error()
		s.log.Warn("pipeline.llm.failed",
			"req_id", job.Report.RequestID,
			"outcome", job.Report.External,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if !errors.Is(err, common.ErrExternalExtractor) {
			err = fmt.Errorf("%w: %v", common.ErrExternalExtractor, err)
		}
		return reconcile.Candidate{}, false, err
	}
	job.Report.External = ExternalOK
	return reconcile.Candidate{Origin: reconcile.OriginExternal, Record: rec}, true, nil
}

// UnderDetermined is the external call policy: two or more critical fields
// missing, or one missing together with a failed check.
func UnderDetermined(missing, failed int) bool {
	return missing >= 2 || (missing >= 1 && failed >= 1)
}

func failedChecks(v invoice.Validations) []string {
	var out []string
	for _, name := range []string{invoice.CheckVariableSymbol, invoice.CheckTaxID, invoice.CheckVATID, invoice.CheckSumCheck} {
		if v.Failed(name) {
			out = append(out, name)
		}
	}
	return out
}
