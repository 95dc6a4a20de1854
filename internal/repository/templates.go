package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/templates"
)

const schemaTemplates = `CREATE TABLE IF NOT EXISTS invoice_templates (
	name       TEXT PRIMARY KEY,
	definition TEXT NOT NULL
)`

type TemplateRepository interface {
	Migrate(ctx context.Context) error
	List(ctx context.Context) ([]templates.Definition, error)
	Get(ctx context.Context, name string) (templates.Definition, error)
	Upsert(ctx context.Context, def templates.Definition) error
	Delete(ctx context.Context, name string) (bool, error)
}

type templateRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewTemplateRepository(db *DB, logger *slog.Logger) TemplateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &templateRepository{db: db, logger: logger}
}

func (r *templateRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.SQL.ExecContext(ctx, schemaTemplates); err != nil {
		r.logger.Error("failed to create invoice_templates", "error", err)
		return common.NewAppError("DB_MIGRATE", "create invoice_templates", errors.Join(common.ErrDatabase, err))
	}
	return nil
}

// List returns every stored definition ordered by name. Rows that fail to
// decode are reported together after the readable ones are collected.
func (r *templateRepository) List(ctx context.Context) ([]templates.Definition, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT name, definition FROM invoice_templates ORDER BY name`)
	if err != nil {
		r.logger.Error("failed to list templates", "error", err)
		return nil, fmt.Errorf("%w: list templates: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var (
		defs []templates.Definition
		errs []error
	)
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, fmt.Errorf("%w: scan template: %v", common.ErrDatabase, err)
		}
		def, err := templates.Parse([]byte(body), name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list templates: %v", common.ErrDatabase, err)
	}
	if len(errs) > 0 {
		r.logger.Warn("templates.list.decode_failed", "count", len(errs))
		return defs, errors.Join(errs...)
	}
	return defs, nil
}

func (r *templateRepository) Get(ctx context.Context, name string) (templates.Definition, error) {
	q := `SELECT definition FROM invoice_templates WHERE name = ` + r.db.placeholder(1)
	var body string
	err := r.db.SQL.QueryRowContext(ctx, q, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return templates.Definition{}, common.NewAppError("NOT_FOUND", fmt.Sprintf("template %q", name), common.ErrInvalidInput)
	}
	if err != nil {
		return templates.Definition{}, fmt.Errorf("%w: get template: %v", common.ErrDatabase, err)
	}
	return templates.Parse([]byte(body), name)
}

func (r *templateRepository) Upsert(ctx context.Context, def templates.Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return common.NewAppError("INVALID_TEMPLATE", "template name is required", common.ErrInvalidTemplate)
	}
	def.Name = name
	body, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encode template %s: %w", name, err)
	}
	q := fmt.Sprintf(`INSERT INTO invoice_templates (name, definition) VALUES (%s, %s)
ON CONFLICT (name) DO UPDATE SET definition = excluded.definition`, r.db.placeholder(1), r.db.placeholder(2))
	if _, err := r.db.SQL.ExecContext(ctx, q, name, string(body)); err != nil {
		r.logger.Error("failed to upsert template", "name", name, "error", err)
		return fmt.Errorf("%w: upsert template: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, name string) (bool, error) {
	q := `DELETE FROM invoice_templates WHERE name = ` + r.db.placeholder(1)
	res, err := r.db.SQL.ExecContext(ctx, q, name)
	if err != nil {
		r.logger.Error("failed to delete template", "name", name, "error", err)
		return false, fmt.Errorf("%w: delete template: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: delete template: %v", common.ErrDatabase, err)
	}
	return n > 0, nil
}
