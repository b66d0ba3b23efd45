package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	"github.com/fibukit/fibu_backend/internal/utils/pagination"
)

type entryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new repository for entry and position data.
func NewEntryRepository(pool *pgxpool.Pool) portsrepo.EntryRepositoryFacade {
	return &entryRepository{pool: pool}
}

const entryColumns = `entry_id, entry_date, description, reference, status,
		posted_by, posted_at, voided_by, voided_at, void_reason,
		reversal_entry_id, original_entry_id, version,
		created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var entry domain.Entry
	err := row.Scan(
		&entry.EntryID,
		&entry.EntryDate,
		&entry.Description,
		&entry.Reference,
		&entry.Status,
		&entry.PostedBy,
		&entry.PostedAt,
		&entry.VoidedBy,
		&entry.VoidedAt,
		&entry.VoidReason,
		&entry.ReversalEntryID,
		&entry.OriginalEntryID,
		&entry.Version,
		&entry.CreatedAt,
		&entry.CreatedBy,
		&entry.LastUpdatedAt,
		&entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindEntryByID retrieves an entry by its ID, positions not included.
func (r *entryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE entry_id = $1;`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}
	return entry, nil
}

// ListEntries retrieves a page of entries ordered by entry date and creation
// time, newest first, using token-based pagination.
func (r *entryRepository) ListEntries(ctx context.Context, limit int, nextToken *string, includeVoided bool) ([]domain.Entry, *string, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE 1=1`
	args := []any{}

	if !includeVoided {
		query += ` AND status != 'VOID'`
	}
	if nextToken != nil && *nextToken != "" {
		tokenDate, tokenCreated, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		args = append(args, tokenDate, tokenCreated)
		query += fmt.Sprintf(` AND (entry_date, created_at) < ($%d, $%d)`, len(args)-1, len(args))
	}

	// Fetch one extra row to know whether another page exists.
	args = append(args, limit+1)
	query += fmt.Sprintf(` ORDER BY entry_date DESC, created_at DESC LIMIT $%d;`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating entry rows: %w", err)
	}

	var newNextToken *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
	}
	return entries, newNextToken, nil
}

const positionColumns = `position_id, entry_id, account_path, amount_minor, currency_code, description, tax_relevant, display_order`

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var pos domain.Position
	var amountMinor int64
	var currency string
	err := row.Scan(
		&pos.PositionID,
		&pos.EntryID,
		&pos.AccountPath,
		&amountMinor,
		&currency,
		&pos.Description,
		&pos.TaxRelevant,
		&pos.Order,
	)
	if err != nil {
		return nil, err
	}
	pos.Amount = money.FromMinorUnits(amountMinor, currency)
	return &pos, nil
}

// FindPositionsByEntryID retrieves all positions owned by a single entry.
func (r *entryRepository) FindPositionsByEntryID(ctx context.Context, entryID string) ([]domain.Position, error) {
	query := `SELECT ` + positionColumns + ` FROM positions WHERE entry_id = $1 ORDER BY display_order, position_id;`

	rows, err := r.pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row for entry %s: %w", entryID, err)
		}
		positions = append(positions, *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows for entry %s: %w", entryID, err)
	}
	return positions, nil
}

// FindPositionsByEntryIDs retrieves positions for multiple entries, grouped by entry ID.
func (r *entryRepository) FindPositionsByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.Position, error) {
	if len(entryIDs) == 0 {
		return map[string][]domain.Position{}, nil
	}

	query := `SELECT ` + positionColumns + ` FROM positions WHERE entry_id = ANY($1) ORDER BY entry_id, display_order, position_id;`
	rows, err := r.pool.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions for entries: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]domain.Position, len(entryIDs))
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position row: %w", err)
		}
		grouped[pos.EntryID] = append(grouped[pos.EntryID], *pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position rows: %w", err)
	}
	return grouped, nil
}

// queuePositionInserts adds one insert per position to the batch.
func queuePositionInserts(batch *pgx.Batch, positions []domain.Position) {
	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, pos := range positions {
		batch.Queue(query,
			pos.PositionID,
			pos.EntryID,
			pos.AccountPath,
			pos.Amount.MinorUnits(),
			pos.Amount.Currency(),
			pos.Description,
			pos.TaxRelevant,
			pos.Order,
		)
	}
}

// insertEntry writes the entry row inside the given transaction.
func insertEntry(ctx context.Context, tx pgx.Tx, entry domain.Entry) error {
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := tx.Exec(ctx, query,
		entry.EntryID,
		entry.EntryDate,
		entry.Description,
		entry.Reference,
		entry.Status,
		entry.PostedBy,
		entry.PostedAt,
		entry.VoidedBy,
		entry.VoidedAt,
		entry.VoidReason,
		entry.ReversalEntryID,
		entry.OriginalEntryID,
		entry.Version,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	return err
}

// SaveEntry saves an entry and its positions within a DB transaction.
func (r *entryRepository) SaveEntry(ctx context.Context, entry domain.Entry, positions []domain.Position) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Ignore rollback error
	}()

	if err := insertEntry(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", entry.EntryID, err)
	}

	batch := &pgx.Batch{}
	queuePositionInserts(batch, positions)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to execute position batch for entry %s: %w", entry.EntryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// versionConflictError distinguishes a missing entry from a stale version
// after a guarded UPDATE or DELETE touched zero rows.
func versionConflictError(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, entryID string) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entries WHERE entry_id = $1);`, entryID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check entry %s existence: %w", entryID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("entry %s: %w", entryID, apperrors.ErrConcurrentModification)
}

// UpdateEntry replaces a draft entry's fields and positions in one transaction.
// The stored version must match expectedVersion.
func (r *entryRepository) UpdateEntry(ctx context.Context, entry domain.Entry, positions []domain.Position, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		UPDATE entries
		SET entry_date = $3, description = $4, reference = $5,
			last_updated_at = $6, last_updated_by = $7, version = version + 1
		WHERE entry_id = $1 AND version = $2;
	`
	tag, err := tx.Exec(ctx, query,
		entry.EntryID,
		expectedVersion,
		entry.EntryDate,
		entry.Description,
		entry.Reference,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry %s: %w", entry.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflictError(ctx, tx, entry.EntryID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE entry_id = $1;`, entry.EntryID); err != nil {
		return fmt.Errorf("failed to delete positions for entry %s: %w", entry.EntryID, err)
	}

	batch := &pgx.Batch{}
	queuePositionInserts(batch, positions)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to execute position batch for entry %s: %w", entry.EntryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// DeleteEntry removes a draft entry and its positions.
func (r *entryRepository) DeleteEntry(ctx context.Context, entryID string, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete positions for entry %s: %w", entryID, err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM entries WHERE entry_id = $1 AND version = $2;`, entryID, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflictError(ctx, tx, entryID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction for entry %s: %w", entryID, err)
	}
	return nil
}

// MarkEntryPosted transitions an entry to POSTED and stamps the audit fields.
func (r *entryRepository) MarkEntryPosted(ctx context.Context, entryID string, expectedVersion int64, postedBy string, postedAt time.Time) error {
	query := `
		UPDATE entries
		SET status = 'POSTED', posted_by = $3, posted_at = $4,
			last_updated_at = $4, last_updated_by = $3, version = version + 1
		WHERE entry_id = $1 AND version = $2 AND status = 'DRAFT';
	`
	tag, err := r.pool.Exec(ctx, query, entryID, expectedVersion, postedBy, postedAt)
	if err != nil {
		return fmt.Errorf("failed to mark entry %s posted: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflictError(ctx, r.pool, entryID)
	}
	return nil
}

// VoidEntryAndSaveReversal applies the void fields of the original entry and
// persists the already-posted reversal with its positions in one transaction.
func (r *entryRepository) VoidEntryAndSaveReversal(ctx context.Context, original domain.Entry, expectedVersion int64, reversal domain.Entry, reversalPositions []domain.Position) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	voidQuery := `
		UPDATE entries
		SET status = 'VOID', voided_by = $3, voided_at = $4, void_reason = $5,
			reversal_entry_id = $6, last_updated_at = $7, last_updated_by = $8,
			version = version + 1
		WHERE entry_id = $1 AND version = $2 AND status = 'POSTED';
	`
	tag, err := tx.Exec(ctx, voidQuery,
		original.EntryID,
		expectedVersion,
		original.VoidedBy,
		original.VoidedAt,
		original.VoidReason,
		original.ReversalEntryID,
		original.LastUpdatedAt,
		original.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to void entry %s: %w", original.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return versionConflictError(ctx, tx, original.EntryID)
	}

	if err := insertEntry(ctx, tx, reversal); err != nil {
		return fmt.Errorf("failed to insert reversal entry %s: %w", reversal.EntryID, err)
	}

	batch := &pgx.Batch{}
	queuePositionInserts(batch, reversalPositions)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to execute position batch for reversal %s: %w", reversal.EntryID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit void of entry %s: %w", original.EntryID, err)
	}
	return nil
}
