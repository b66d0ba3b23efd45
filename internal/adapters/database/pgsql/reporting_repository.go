package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
)

type reportingRepository struct {
	pool *pgxpool.Pool
}

// NewReportingRepository creates a new repository for balance reporting queries.
func NewReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{pool: pool}
}

// PostedPositionsForAccountAsOf returns the positions of posted entries dated
// on or before asOf that reference the given account path.
func (r *reportingRepository) PostedPositionsForAccountAsOf(ctx context.Context, accountPath string, asOf time.Time) ([]domain.Position, error) {
	query := `
		SELECT p.position_id, p.entry_id, p.account_path, p.amount_minor, p.currency_code, p.description, p.tax_relevant, p.display_order
		FROM positions p
		JOIN entries e ON e.entry_id = p.entry_id
		WHERE e.status = 'POSTED' AND e.entry_date <= $1 AND p.account_path = $2
		ORDER BY e.entry_date, e.created_at;
	`
	rows, err := r.pool.Query(ctx, query, asOf, accountPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted positions for account %q: %w", accountPath, err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row for account %q: %w", accountPath, err)
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows for account %q: %w", accountPath, err)
	}
	return positions, nil
}

// PostedPositionsAsOf returns all positions of posted entries dated on or
// before asOf.
func (r *reportingRepository) PostedPositionsAsOf(ctx context.Context, asOf time.Time) ([]domain.Position, error) {
	query := `
		SELECT p.position_id, p.entry_id, p.account_path, p.amount_minor, p.currency_code, p.description, p.tax_relevant, p.display_order
		FROM positions p
		JOIN entries e ON e.entry_id = p.entry_id
		WHERE e.status = 'POSTED' AND e.entry_date <= $1
		ORDER BY p.account_path, e.entry_date;
	`
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query posted positions: %w", err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return positions, nil
}
