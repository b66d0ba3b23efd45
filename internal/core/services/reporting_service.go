package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/middleware"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// reportingService answers balance queries over posted positions.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
	ledgerCfg     config.LedgerConfig
}

// NewReportingService creates a new ReportingService.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, ledgerCfg config.LedgerConfig) portssvc.ReportingSvcFacade {
	return &reportingService{
		reportingRepo: reportingRepo,
		ledgerCfg:     ledgerCfg,
	}
}

// Ensure reportingService implements the portssvc.ReportingSvcFacade interface
var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// BalanceAsOf sums the posted positions of one account dated on or before
// asOf. An account without positions yields a zero amount rather than an error.
// Implements portssvc.ReportingSvcFacade
func (s *reportingService) BalanceAsOf(ctx context.Context, accountPath string, asOf time.Time) (money.Money, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := accountpath.Validate(accountPath, s.ledgerCfg.MaxAccountDepth); err != nil {
		return money.Money{}, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	normalized := accountpath.Normalize(accountPath)

	positions, err := s.reportingRepo.PostedPositionsForAccountAsOf(ctx, normalized, asOf)
	if err != nil {
		logger.Error("Failed to load posted positions", slog.String("error", err.Error()), slog.String("path", normalized))
		return money.Money{}, fmt.Errorf("failed to compute balance for %q: %w", normalized, err)
	}

	amounts := make([]money.Money, len(positions))
	for i, pos := range positions {
		amounts[i] = pos.Amount
	}
	return money.Sum(amounts, s.ledgerCfg.DefaultCurrency)
}

// TrialBalance reports the non-zero net balances of all accounts as of a date,
// sorted by account path. Debit collects positive positions, Credit the
// absolute value of the negative ones.
// Implements portssvc.ReportingSvcFacade
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	positions, err := s.reportingRepo.PostedPositionsAsOf(ctx, asOf)
	if err != nil {
		logger.Error("Failed to load posted positions", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}

	type bucket struct {
		currency string
		debit    int64
		credit   int64
	}
	buckets := make(map[string]*bucket)
	for _, pos := range positions {
		b, ok := buckets[pos.AccountPath]
		if !ok {
			b = &bucket{currency: pos.Amount.Currency()}
			buckets[pos.AccountPath] = b
		}
		if b.currency != pos.Amount.Currency() {
			return nil, fmt.Errorf("%w: account %q mixes currencies %s and %s",
				money.ErrCurrencyMismatch, pos.AccountPath, b.currency, pos.Amount.Currency())
		}
		units := pos.Amount.MinorUnits()
		if units >= 0 {
			b.debit += units
		} else {
			b.credit -= units
		}
	}

	paths := make([]string, 0, len(buckets))
	for path := range buckets {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	rows := make([]domain.TrialBalanceRow, 0, len(buckets))
	for _, path := range paths {
		b := buckets[path]
		balance := b.debit - b.credit
		if balance == 0 {
			continue
		}
		rows = append(rows, domain.TrialBalanceRow{
			AccountPath: path,
			Debit:       money.FromMinorUnits(b.debit, b.currency),
			Credit:      money.FromMinorUnits(b.credit, b.currency),
			Balance:     money.FromMinorUnits(balance, b.currency),
		})
	}
	return rows, nil
}
