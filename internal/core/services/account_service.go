package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/middleware"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

var ErrAccountAlreadyInactive = errors.New("account is already inactive")

// accountService provides account management operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	ledgerCfg   config.LedgerConfig
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, ledgerCfg config.LedgerConfig) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		ledgerCfg:   ledgerCfg,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// GetAccountByID retrieves a specific account by its unique identifier.
// Implements portssvc.AccountSvcFacade
func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

// GetAccountByPath retrieves an account by its path. The input is normalized
// before the lookup so callers may pass unnormalized paths.
// Implements portssvc.AccountSvcFacade
func (s *accountService) GetAccountByPath(ctx context.Context, path string) (*domain.Account, error) {
	if err := accountpath.Validate(path, s.ledgerCfg.MaxAccountDepth); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	normalized := accountpath.Normalize(path)

	account, err := s.accountRepo.FindAccountByPath(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %q: %w", normalized, err)
	}
	return account, nil
}

// ResolveAccounts partitions the given paths into found accounts (keyed by
// normalized path) and missing paths.
// Implements portssvc.AccountSvcFacade
func (s *accountService) ResolveAccounts(ctx context.Context, paths []string) (map[string]domain.Account, []string, error) {
	normalized := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if err := accountpath.Validate(path, s.ledgerCfg.MaxAccountDepth); err != nil {
			return nil, nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
		}
		norm := accountpath.Normalize(path)
		if _, ok := seen[norm]; !ok {
			seen[norm] = struct{}{}
			normalized = append(normalized, norm)
		}
	}

	found, err := s.accountRepo.FindAccountsByPaths(ctx, normalized)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve account paths: %w", err)
	}

	var missing []string
	for _, path := range normalized {
		if _, ok := found[path]; !ok {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return found, missing, nil
}

// ListAccounts retrieves a paginated list of accounts ordered by path.
// Implements portssvc.AccountSvcFacade
func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}
	return s.accountRepo.ListAccounts(ctx, limit, offset)
}

// CreateAccount persists a new account under its normalized path.
// Implements portssvc.AccountSvcFacade
func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := accountpath.Validate(req.Path, s.ledgerCfg.MaxAccountDepth); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	normalized := accountpath.Normalize(req.Path)

	existing, err := s.accountRepo.FindAccountByPath(ctx, normalized)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing account: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: account path %q", apperrors.ErrDuplicate, normalized)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		Path:        normalized,
		Description: req.Description,
		IsActive:    true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("path", normalized))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("path", normalized))
	return &account, nil
}

// UpdateAccount updates an existing account's description. The path itself is
// immutable since posted positions reference it.
// Implements portssvc.AccountSvcFacade
func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		account.Description = *req.Description
	}
	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return account, nil
}

// DeactivateAccount marks an account as inactive. Posted history is kept; only
// new positions are rejected.
// Implements portssvc.AccountSvcFacade
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInactive, account.Path)
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to deactivate account: %w", err)
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID), slog.String("path", account.Path))
	return nil
}
