package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
)

type templateRepository struct {
	pool *pgxpool.Pool
}

// NewTemplateRepository creates a new repository for template data.
func NewTemplateRepository(pool *pgxpool.Pool) portsrepo.TemplateRepositoryFacade {
	return &templateRepository{pool: pool}
}

const templateColumns = `template_id, name, version, currency_code, default_total_minor, active,
		created_at, created_by, last_updated_at, last_updated_by`

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var tpl domain.Template
	var defaultTotalMinor *int64
	err := row.Scan(
		&tpl.TemplateID,
		&tpl.Name,
		&tpl.Version,
		&tpl.CurrencyCode,
		&defaultTotalMinor,
		&tpl.Active,
		&tpl.CreatedAt,
		&tpl.CreatedBy,
		&tpl.LastUpdatedAt,
		&tpl.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if defaultTotalMinor != nil {
		total := money.FromMinorUnits(*defaultTotalMinor, tpl.CurrencyCode)
		tpl.DefaultTotal = &total
	}
	return &tpl, nil
}

// loadLines fetches the lines of one template ordered by display position.
func (r *templateRepository) loadLines(ctx context.Context, templateID string) ([]domain.TemplateLine, error) {
	query := `
		SELECT line_id, template_id, account_path, description, amount_type, amount_value, fraction, tax_relevant, display_order
		FROM template_lines
		WHERE template_id = $1
		ORDER BY display_order, line_id;
	`
	rows, err := r.pool.Query(ctx, query, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for template %s: %w", templateID, err)
	}
	defer rows.Close()

	lines := []domain.TemplateLine{}
	for rows.Next() {
		var line domain.TemplateLine
		if err := rows.Scan(
			&line.LineID,
			&line.TemplateID,
			&line.AccountPath,
			&line.Description,
			&line.AmountType,
			&line.AmountValue,
			&line.Fraction,
			&line.TaxRelevant,
			&line.Position,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line row for template %s: %w", templateID, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for template %s: %w", templateID, err)
	}
	return lines, nil
}

// FindTemplate retrieves a template identified by (name, version), lines included.
func (r *templateRepository) FindTemplate(ctx context.Context, name string, version int) (*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE name = $1 AND version = $2;`

	tpl, err := scanTemplate(r.pool.QueryRow(ctx, query, name, version))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find template %q version %d: %w", name, version, err)
	}

	tpl.Lines, err = r.loadLines(ctx, tpl.TemplateID)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// FindLatestTemplateVersion retrieves the highest-versioned template for a name.
func (r *templateRepository) FindLatestTemplateVersion(ctx context.Context, name string) (*domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE name = $1 ORDER BY version DESC LIMIT 1;`

	tpl, err := scanTemplate(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find latest version of template %q: %w", name, err)
	}

	tpl.Lines, err = r.loadLines(ctx, tpl.TemplateID)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// ListTemplates retrieves all templates, optionally only active versions,
// ordered by name and version. Lines are not loaded for listings.
func (r *templateRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name, version;`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.Template{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, *tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}
	return templates, nil
}

// SaveTemplate persists a new template version together with its lines within
// a DB transaction. Existing (name, version) rows are never modified.
func (r *templateRepository) SaveTemplate(ctx context.Context, template domain.Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var defaultTotalMinor *int64
	if template.DefaultTotal != nil {
		minor := template.DefaultTotal.MinorUnits()
		defaultTotalMinor = &minor
	}

	templateQuery := `
		INSERT INTO templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err = tx.Exec(ctx, templateQuery,
		template.TemplateID,
		template.Name,
		template.Version,
		template.CurrencyCode,
		defaultTotalMinor,
		template.Active,
		template.CreatedAt,
		template.CreatedBy,
		template.LastUpdatedAt,
		template.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("template %q version %d: %w", template.Name, template.Version, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert template %s: %w", template.TemplateID, err)
	}

	batch := &pgx.Batch{}
	lineQuery := `
		INSERT INTO template_lines (line_id, template_id, account_path, description, amount_type, amount_value, fraction, tax_relevant, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	for _, line := range template.Lines {
		batch.Queue(lineQuery,
			line.LineID,
			line.TemplateID,
			line.AccountPath,
			line.Description,
			line.AmountType,
			line.AmountValue,
			line.Fraction,
			line.TaxRelevant,
			line.Position,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to execute line batch for template %s: %w", template.TemplateID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for template %s: %w", template.TemplateID, err)
	}
	return nil
}

// SetTemplateActive toggles the active flag of an existing version.
func (r *templateRepository) SetTemplateActive(ctx context.Context, name string, version int, active bool, userID string, now time.Time) error {
	query := `
		UPDATE templates
		SET active = $3, last_updated_at = $4, last_updated_by = $5
		WHERE name = $1 AND version = $2;
	`
	tag, err := r.pool.Exec(ctx, query, name, version, active, now, userID)
	if err != nil {
		return fmt.Errorf("failed to set active flag on template %q version %d: %w", name, version, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
