package dto

import (
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// BalanceResponse is the result of a balance-as-of query for one account.
type BalanceResponse struct {
	AccountPath string      `json:"accountPath"`
	AsOf        time.Time   `json:"asOf"`
	Balance     money.Money `json:"balance"`
}

// TrialBalanceRowResponse is one account row of a trial balance report.
type TrialBalanceRowResponse struct {
	AccountPath string      `json:"accountPath"`
	Debit       money.Money `json:"debit"`
	Credit      money.Money `json:"credit"`
	Balance     money.Money `json:"balance"`
}

// TrialBalanceResponse is a trial balance report as of a date.
type TrialBalanceResponse struct {
	AsOf time.Time                 `json:"asOf"`
	Rows []TrialBalanceRowResponse `json:"rows"`
}

// ToTrialBalanceResponse converts trial balance rows to the report DTO.
func ToTrialBalanceResponse(asOf time.Time, rows []domain.TrialBalanceRow) TrialBalanceResponse {
	resp := TrialBalanceResponse{AsOf: asOf, Rows: make([]TrialBalanceRowResponse, len(rows))}
	for i, row := range rows {
		resp.Rows[i] = TrialBalanceRowResponse{
			AccountPath: row.AccountPath,
			Debit:       row.Debit,
			Credit:      row.Credit,
			Balance:     row.Balance,
		}
	}
	return resp
}
