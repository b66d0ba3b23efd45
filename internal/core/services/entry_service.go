package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/middleware"
	"github.com/fibukit/fibu_backend/internal/platform/config"
	"github.com/fibukit/fibu_backend/internal/utils/accounting"
)

var (
	ErrEntryNotBalanced           = errors.New("entry positions do not balance to zero")
	ErrInsufficientPositions      = errors.New("entry must have at least two positions")
	ErrTooManyPositions           = errors.New("entry exceeds the maximum number of positions")
	ErrAccountsNotFoundOrInactive = errors.New("accounts not found or inactive")
	ErrAccountsInactive           = errors.New("accounts are no longer active")
	ErrEntryNotEditable           = errors.New("entry can only be edited while in draft")
	ErrEntryNotDeletable          = errors.New("entry can only be deleted while in draft")
	ErrAlreadyPosted              = errors.New("entry is not in draft status")
	ErrNotPosted                  = errors.New("entry must be posted to be voided")
	ErrVoidReasonRequired         = errors.New("void reason is required")
	ErrInvalidDate                = errors.New("entry date is invalid")
	ErrPeriodClosed               = errors.New("entry date falls outside the open period")
	ErrDescriptionMissing         = errors.New("entry description is required")
)

// voidDescriptionPrefix marks reversal entries spawned by voiding.
const voidDescriptionPrefix = "Storno: "

// entryService provides the entry lifecycle operations.
type entryService struct {
	accountSvc portssvc.AccountReaderSvc
	entryRepo  portsrepo.EntryRepositoryFacade
	ledgerCfg  config.LedgerConfig
}

// NewEntryService creates a new EntryService.
func NewEntryService(entryRepo portsrepo.EntryRepositoryFacade, accountSvc portssvc.AccountReaderSvc, ledgerCfg config.LedgerConfig) portssvc.EntrySvcFacade {
	return &entryService{
		accountSvc: accountSvc,
		entryRepo:  entryRepo,
		ledgerCfg:  ledgerCfg,
	}
}

// Ensure entryService implements the portssvc.EntrySvcFacade interface
var _ portssvc.EntrySvcFacade = (*entryService)(nil)

// buildPositions converts position requests into domain positions, validating
// account paths against the configured depth and parsing monetary strings.
func (s *entryService) buildPositions(entryID string, reqs []dto.CreatePositionRequest) ([]domain.Position, error) {
	positions := make([]domain.Position, len(reqs))
	for i, req := range reqs {
		if err := accountpath.Validate(req.AccountPath, s.ledgerCfg.MaxAccountDepth); err != nil {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}

		currency := req.Currency
		if currency == "" {
			currency = s.ledgerCfg.DefaultCurrency
		}
		amount, err := money.Parse(req.Amount, currency)
		if err != nil {
			return nil, fmt.Errorf("%w: position %d", err, i)
		}

		order := req.Order
		if order == 0 {
			order = i
		}

		positions[i] = domain.Position{
			PositionID:  uuid.NewString(),
			EntryID:     entryID,
			AccountPath: accountpath.Normalize(req.AccountPath),
			Amount:      amount,
			Description: req.Description,
			TaxRelevant: req.TaxRelevant,
			Order:       order,
		}
	}
	return positions, nil
}

// validatePositionCount enforces the minimum of two positions and the
// configured maximum per entry.
func (s *entryService) validatePositionCount(count int) error {
	if count < 2 {
		return ErrInsufficientPositions
	}
	if max := s.ledgerCfg.MaxPositionsPerEntry; max > 0 && count > max {
		return fmt.Errorf("%w: %d positions, maximum is %d", ErrTooManyPositions, count, max)
	}
	return nil
}

// checkAccounts resolves every referenced path and reports the ones that are
// missing or inactive with the given sentinel.
func (s *entryService) checkAccounts(ctx context.Context, positions []domain.Position, sentinel error) error {
	paths := make([]string, 0, len(positions))
	for _, pos := range positions {
		paths = append(paths, pos.AccountPath)
	}
	paths = uniqueStrings(paths)

	found, missing, err := s.accountSvc.ResolveAccounts(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to resolve accounts: %w", err)
	}

	var rejected []string
	rejected = append(rejected, missing...)
	for path, account := range found {
		if !account.IsActive {
			rejected = append(rejected, path)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return fmt.Errorf("%w: %s", sentinel, strings.Join(rejected, ", "))
	}
	return nil
}

// validateEntryDate applies the backdate policy. Future dates are invalid;
// past dates are only accepted inside the configured backdate window.
func (s *entryService) validateEntryDate(date time.Time) error {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	entryDay := date.UTC().Truncate(24 * time.Hour)

	if entryDay.After(today) {
		return fmt.Errorf("%w: %s is in the future", ErrInvalidDate, entryDay.Format("2006-01-02"))
	}
	if entryDay.Before(today) {
		if !s.ledgerCfg.AllowBackdated {
			return fmt.Errorf("%w: backdated entries are not allowed", ErrPeriodClosed)
		}
		earliest := today.AddDate(0, 0, -s.ledgerCfg.MaxBackdateDays)
		if entryDay.Before(earliest) {
			return fmt.Errorf("%w: %s is before %s", ErrPeriodClosed, entryDay.Format("2006-01-02"), earliest.Format("2006-01-02"))
		}
	}
	return nil
}

// validateBalance checks that the positions sum to zero per currency.
func validateBalance(positions []domain.Position) error {
	if unbalanced := accounting.UnbalancedCurrencies(positions); len(unbalanced) > 0 {
		return fmt.Errorf("%w: %s", ErrEntryNotBalanced, strings.Join(unbalanced, ", "))
	}
	return nil
}

// CreateEntry validates and persists a new draft entry with its positions.
// Implements portssvc.EntrySvcFacade
func (s *entryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionMissing
	}
	if err := s.validatePositionCount(len(req.Positions)); err != nil {
		return nil, err
	}

	entryID := uuid.NewString()
	positions, err := s.buildPositions(entryID, req.Positions)
	if err != nil {
		return nil, err
	}

	// Validation order: account existence/activity, then date policy, then balance.
	if err := s.checkAccounts(ctx, positions, ErrAccountsNotFoundOrInactive); err != nil {
		return nil, err
	}
	if err := s.validateEntryDate(req.Date); err != nil {
		return nil, err
	}
	if err := validateBalance(positions); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := domain.Entry{
		EntryID:     entryID,
		EntryDate:   req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      domain.Draft,
		Version:     1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.entryRepo.SaveEntry(ctx, entry, positions); err != nil {
		logger.Error("Failed to save entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	logger.Info("Entry created", slog.String("entry_id", entry.EntryID), slog.Int("positions", len(positions)))
	entry.Positions = positions
	return &entry, nil
}

// GetEntryByID retrieves a specific entry with its positions.
// Implements portssvc.EntrySvcFacade
func (s *entryService) GetEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find entry by ID", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, fmt.Errorf("failed to find entry %s: %w", entryID, err)
	}

	positions, err := s.entryRepo.FindPositionsByEntryID(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch positions for entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to retrieve positions for entry %s: %w", entryID, apperrors.ErrInternal)
	}
	entry.Positions = positions

	return entry, nil
}

// ListEntries retrieves a paginated list of entries.
// Implements portssvc.EntrySvcFacade
func (s *entryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20 // Default limit
	}

	entries, nextToken, err := s.entryRepo.ListEntries(ctx, limit, params.NextToken, params.IncludeVoided)
	if err != nil {
		logger.Error("Failed to list entries from repository", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	// If positions are requested, fetch them in a batch for all entries
	var positionsMap map[string][]domain.Position
	if params.IncludePositions && len(entries) > 0 {
		entryIDs := make([]string, len(entries))
		for i, entry := range entries {
			entryIDs[i] = entry.EntryID
		}
		positionsMap, err = s.entryRepo.FindPositionsByEntryIDs(ctx, entryIDs)
		if err != nil {
			logger.Warn("Failed to fetch positions for entries", slog.String("error", err.Error()))
			// Continue without positions rather than failing the whole request
		}
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i, entry := range entries {
		if positionsMap != nil {
			entry.Positions = positionsMap[entry.EntryID]
		}
		responses[i] = dto.ToEntryResponse(&entry)
	}

	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}

// UpdateEntry mutates a draft entry, re-running the create validations.
// Implements portssvc.EntrySvcFacade
func (s *entryService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.IsEditable() {
		return nil, fmt.Errorf("%w: status is %s", ErrEntryNotEditable, entry.Status)
	}

	if req.Date != nil {
		entry.EntryDate = *req.Date
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.Reference != nil {
		entry.Reference = *req.Reference
	}

	var positions []domain.Position
	if req.Positions != nil {
		positions, err = s.buildPositions(entryID, req.Positions)
		if err != nil {
			return nil, err
		}
	} else {
		positions, err = s.entryRepo.FindPositionsByEntryID(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve positions for entry %s: %w", entryID, err)
		}
	}

	// Same validations as create, in the same order.
	if strings.TrimSpace(entry.Description) == "" {
		return nil, ErrDescriptionMissing
	}
	if err := s.validatePositionCount(len(positions)); err != nil {
		return nil, err
	}
	if err := s.checkAccounts(ctx, positions, ErrAccountsNotFoundOrInactive); err != nil {
		return nil, err
	}
	if err := s.validateEntryDate(entry.EntryDate); err != nil {
		return nil, err
	}
	if err := validateBalance(positions); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	if err := s.entryRepo.UpdateEntry(ctx, *entry, positions, entry.Version); err != nil {
		logger.Error("Failed to save entry update", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Entry updated", slog.String("entry_id", entryID))
	entry.Version++
	entry.Positions = positions
	return entry, nil
}

// DeleteEntry removes a draft entry.
// Implements portssvc.EntrySvcFacade
func (s *entryService) DeleteEntry(ctx context.Context, entryID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status != domain.Draft {
		return fmt.Errorf("%w: status is %s", ErrEntryNotDeletable, entry.Status)
	}

	if err := s.entryRepo.DeleteEntry(ctx, entryID, entry.Version); err != nil {
		logger.Error("Failed to delete entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return err
	}

	logger.Info("Entry deleted", slog.String("entry_id", entryID), slog.String("user_id", userID))
	return nil
}

// PostEntry transitions a draft entry to POSTED. Accounts may have been
// deactivated since the draft was created, so activity is re-checked.
// Implements portssvc.EntrySvcFacade
func (s *entryService) PostEntry(ctx context.Context, entryID string, actingUserID string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("%w: status is %s", ErrAlreadyPosted, entry.Status)
	}

	positions, err := s.entryRepo.FindPositionsByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve positions for entry %s: %w", entryID, err)
	}

	if err := s.checkAccounts(ctx, positions, ErrAccountsInactive); err != nil {
		return nil, err
	}
	if err := s.validateEntryDate(entry.EntryDate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.entryRepo.MarkEntryPosted(ctx, entryID, entry.Version, actingUserID, now); err != nil {
		logger.Error("Failed to mark entry posted", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("posted_by", actingUserID))
	entry.Status = domain.Posted
	entry.PostedBy = &actingUserID
	entry.PostedAt = &now
	entry.Version++
	entry.Positions = positions
	return entry, nil
}

// buildReversal constructs the already-posted reversal entry for a voided
// original: today's date, "Storno: " description, same reference, and one
// negated position per original position.
func buildReversal(original *domain.Entry, positions []domain.Position, actingUserID string, now time.Time) (domain.Entry, []domain.Position) {
	reversalID := uuid.NewString()

	reversal := domain.Entry{
		EntryID:         reversalID,
		EntryDate:       now.Truncate(24 * time.Hour),
		Description:     voidDescriptionPrefix + original.Description,
		Reference:       original.Reference,
		Status:          domain.Posted,
		Version:         1,
		PostedBy:        &actingUserID,
		PostedAt:        &now,
		OriginalEntryID: &original.EntryID,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actingUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actingUserID,
		},
	}

	reversalPositions := make([]domain.Position, len(positions))
	for i, pos := range positions {
		negated := pos.Negated()
		negated.PositionID = uuid.NewString()
		negated.EntryID = reversalID
		reversalPositions[i] = negated
	}
	return reversal, reversalPositions
}

// VoidEntry voids a posted entry and atomically creates and posts its
// reversal. If building or persisting the reversal fails, the void is not
// committed either.
// Implements portssvc.EntrySvcFacade
func (s *entryService) VoidEntry(ctx context.Context, entryID string, actingUserID string, reason string) (*domain.Entry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, ErrVoidReasonRequired
	}

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Posted {
		return nil, fmt.Errorf("%w: status is %s", ErrNotPosted, entry.Status)
	}

	positions, err := s.entryRepo.FindPositionsByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve positions for entry %s: %w", entryID, err)
	}

	now := time.Now().UTC()
	reversal, reversalPositions := buildReversal(entry, positions, actingUserID, now)

	// The reversal passes through the same create+post validations as any
	// other entry before anything is committed.
	if err := s.checkAccounts(ctx, reversalPositions, ErrAccountsNotFoundOrInactive); err != nil {
		return nil, err
	}
	if err := validateBalance(reversalPositions); err != nil {
		return nil, err
	}

	expectedVersion := entry.Version
	entry.Status = domain.Void
	entry.VoidedBy = &actingUserID
	entry.VoidedAt = &now
	entry.VoidReason = &reason
	entry.ReversalEntryID = &reversal.EntryID
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actingUserID

	if err := s.entryRepo.VoidEntryAndSaveReversal(ctx, *entry, expectedVersion, reversal, reversalPositions); err != nil {
		logger.Error("Failed to void entry with reversal", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, err
	}

	logger.Info("Entry voided", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	reversal.Positions = reversalPositions
	return &reversal, nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
