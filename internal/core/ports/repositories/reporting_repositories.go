package repositories

import (
	"context"
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
)

// ReportingRepository defines read operations for balance and trial-balance
// reporting. Only positions of POSTED entries are considered.
type ReportingRepository interface {
	// PostedPositionsForAccountAsOf returns the positions of posted entries
	// dated on or before asOf that reference the given account path.
	PostedPositionsForAccountAsOf(ctx context.Context, accountPath string, asOf time.Time) ([]domain.Position, error)

	// PostedPositionsAsOf returns all positions of posted entries dated on or
	// before asOf.
	PostedPositionsAsOf(ctx context.Context, asOf time.Time) ([]domain.Position, error)
}
