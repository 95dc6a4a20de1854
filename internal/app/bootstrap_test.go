package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const acmeJSON = `{
  "name": "acme",
  "required_keywords": ["ACME Energie"],
  "fields": {"variabilni_symbol": "Variabilní symbol:\\s*(\\d+)"}
}`

func TestLoadTemplatesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.json"), []byte(acmeJSON), 0o600))

	set, err := LoadTemplates(t.Context(), common.TemplatesConfig{Dir: dir}, quiet)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, set.Names())
}

func TestLoadTemplatesMissingDir(t *testing.T) {
	set, err := LoadTemplates(t.Context(), common.TemplatesConfig{Dir: filepath.Join(t.TempDir(), "none")}, quiet)
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestLoadTemplatesInvalidDefinition(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"name":"bad","required_keywords":["x"],"fields":{"variable_symbol":"("}}`), 0o600))

	_, err := LoadTemplates(t.Context(), common.TemplatesConfig{Dir: dir}, quiet)
	assert.Error(t, err)
}

func TestLoadTemplatesFromSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "templates.db")

	db, err := repository.Open(t.Context(), repository.Config{DSN: dsn}, quiet)
	require.NoError(t, err)
	repo := repository.NewTemplateRepository(db, quiet)
	require.NoError(t, repo.Migrate(t.Context()))
	def, err := templates.Parse([]byte(acmeJSON), "acme")
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(t.Context(), def))
	db.Close(quiet)

	set, err := LoadTemplates(t.Context(), common.TemplatesConfig{DSN: dsn, Dir: "ignored"}, quiet)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, set.Names())
}

func TestNewPipelineFromConfig(t *testing.T) {
	cfg := &common.Config{
		Templates: common.TemplatesConfig{Dir: t.TempDir()},
		LLM:       common.LLMConfig{Timeout: time.Second},
		Extract:   common.ExtractConfig{DomesticVATPrefix: "SK", SumTolerance: 0.05, DefaultCurrency: "EUR"},
	}
	pc := PipelineConfig(cfg)
	assert.Equal(t, "SK", pc.Rules.DomesticVATPrefix)
	assert.Equal(t, "0.05", pc.Rules.SumTolerance.String())
	assert.Equal(t, "EUR", pc.DefaultCurrency)
	assert.Nil(t, NewExternal(cfg.LLM, quiet))

	p, err := NewPipeline(t.Context(), cfg, quiet)
	require.NoError(t, err)
	out := p.Run(t.Context(), pipeline.Input{Text: "Celkem k úhradě: 1 210,00 Kč\n"})
	assert.Equal(t, invoice.MethodHeuristic, out.Record.Method)
	assert.Equal(t, pipeline.ExternalNotConfigured, out.Report.External)
}

func TestHeuristicOptionsOverrides(t *testing.T) {
	opts := HeuristicOptions(common.ExtractConfig{AmountDecimalBonus: 5})
	assert.Equal(t, 5.0, opts.DecimalBonus)
	assert.NotZero(t, opts.GroupedBonus)
}
