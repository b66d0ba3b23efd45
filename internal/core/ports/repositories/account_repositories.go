package repositories

import (
	"context"
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByPath retrieves an account by its normalized path.
	FindAccountByPath(ctx context.Context, path string) (*domain.Account, error)

	// FindAccountsByPaths retrieves multiple accounts keyed by their normalized paths.
	// Paths without a matching account are simply absent from the result.
	FindAccountsByPaths(ctx context.Context, paths []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts ordered by path.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's details.
	UpdateAccount(ctx context.Context, account domain.Account) error

	// DeactivateAccount marks an account as inactive.
	DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
}
