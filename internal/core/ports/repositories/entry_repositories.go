package repositories

import (
	"context"
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
)

// EntryReader defines read operations for entry data
type EntryReader interface {
	// FindEntryByID retrieves a specific entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)

	// ListEntries retrieves a paginated list of entries using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, limit int, nextToken *string, includeVoided bool) ([]domain.Entry, *string, error)

	// FindPositionsByEntryID retrieves all positions owned by a single entry.
	FindPositionsByEntryID(ctx context.Context, entryID string) ([]domain.Position, error)

	// FindPositionsByEntryIDs retrieves positions for multiple entries, grouped by entry ID.
	FindPositionsByEntryIDs(ctx context.Context, entryIDs []string) (map[string][]domain.Position, error)
}

// EntryWriter defines write operations for entry data. Every compound
// operation is atomic: implementations run it inside a single database
// transaction. Operations that carry an expectedVersion return
// apperrors.ErrConcurrentModification when the stored version differs.
type EntryWriter interface {
	// SaveEntry persists a new entry together with its positions.
	SaveEntry(ctx context.Context, entry domain.Entry, positions []domain.Position) error

	// UpdateEntry replaces a draft entry's fields and positions.
	UpdateEntry(ctx context.Context, entry domain.Entry, positions []domain.Position, expectedVersion int64) error

	// DeleteEntry removes a draft entry and its positions.
	DeleteEntry(ctx context.Context, entryID string, expectedVersion int64) error

	// MarkEntryPosted transitions an entry to POSTED and stamps the audit fields.
	MarkEntryPosted(ctx context.Context, entryID string, expectedVersion int64, postedBy string, postedAt time.Time) error

	// VoidEntryAndSaveReversal applies the void fields of the original entry and
	// persists the already-posted reversal with its positions in one transaction.
	// If any step fails, neither the void nor the reversal is committed.
	VoidEntryAndSaveReversal(ctx context.Context, original domain.Entry, expectedVersion int64, reversal domain.Entry, reversalPositions []domain.Position) error
}

// EntryRepositoryFacade combines all entry-related repository interfaces
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}
