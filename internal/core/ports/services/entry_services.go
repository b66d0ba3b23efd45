package services

import (
	"context"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/dto"
)

// EntryReaderSvc defines read operations for entry data
type EntryReaderSvc interface {
	// GetEntryByID retrieves a specific entry with its positions.
	GetEntryByID(ctx context.Context, entryID string) (*domain.Entry, error)

	// ListEntries retrieves a paginated list of entries.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// EntryWriterSvc defines the entry lifecycle operations. Drafts may be
// mutated and deleted; posting is terminal for edits; voiding a posted entry
// atomically spawns and posts a reversal.
type EntryWriterSvc interface {
	// CreateEntry validates and persists a new draft entry with its positions.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.Entry, error)

	// UpdateEntry mutates a draft entry, re-running the create validations.
	UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.Entry, error)

	// DeleteEntry removes a draft entry.
	DeleteEntry(ctx context.Context, entryID string, userID string) error

	// PostEntry transitions a draft entry to POSTED.
	PostEntry(ctx context.Context, entryID string, actingUserID string) (*domain.Entry, error)

	// VoidEntry voids a posted entry and returns the automatically created and
	// posted reversal entry.
	VoidEntry(ctx context.Context, entryID string, actingUserID string, reason string) (*domain.Entry, error)
}

// EntrySvcFacade combines all entry-related service interfaces
type EntrySvcFacade interface {
	EntryReaderSvc
	EntryWriterSvc
}
