package services

import (
	"context"
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// ReportingSvcFacade defines balance and trial-balance queries over posted entries.
type ReportingSvcFacade interface {
	// BalanceAsOf sums the posted positions of one account dated on or before
	// asOf. An account without positions yields a zero amount.
	BalanceAsOf(ctx context.Context, accountPath string, asOf time.Time) (money.Money, error)

	// TrialBalance reports the non-zero net balances of all accounts as of a
	// date, sorted by account path.
	TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)
}
