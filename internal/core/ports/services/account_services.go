package services

import (
	"context"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByPath retrieves an account by its (possibly unnormalized) path.
	GetAccountByPath(ctx context.Context, path string) (*domain.Account, error)

	// ResolveAccounts partitions the given paths into found accounts (keyed by
	// normalized path) and missing paths.
	ResolveAccounts(ctx context.Context, paths []string) (map[string]domain.Account, []string, error)

	// ListAccounts retrieves a paginated list of accounts ordered by path.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	// CreateAccount persists a new account under its normalized path.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)

	// UpdateAccount updates an existing account's description.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeactivateAccount marks an account as inactive. Inactive accounts reject
	// new positions but keep their posted history.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
