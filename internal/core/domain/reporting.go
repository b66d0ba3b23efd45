package domain

import (
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// TrialBalanceRow represents a single account row in a trial balance report.
// Debit collects the positive posted positions, Credit the absolute value of
// the negative ones; Balance is Debit minus Credit. Accounts with a zero
// balance are omitted from the report.
type TrialBalanceRow struct {
	AccountPath string      `json:"accountPath"`
	Debit       money.Money `json:"debit"`
	Credit      money.Money `json:"credit"`
	Balance     money.Money `json:"balance"`
}
