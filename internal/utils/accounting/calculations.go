package accounting

import (
	"sort"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// SumByCurrency sums position amounts grouped by currency code.
// Addition within a group is exact since all amounts share the currency.
func SumByCurrency(positions []domain.Position) map[string]money.Money {
	sums := make(map[string]money.Money)
	for _, pos := range positions {
		currency := pos.Amount.Currency()
		if existing, ok := sums[currency]; ok {
			total, _ := existing.Add(pos.Amount)
			sums[currency] = total
		} else {
			sums[currency] = pos.Amount
		}
	}
	return sums
}

// UnbalancedCurrencies returns the currencies whose positions do not sum to
// zero, sorted for deterministic error messages. An empty result means the
// position set is balanced.
func UnbalancedCurrencies(positions []domain.Position) []string {
	var unbalanced []string
	for currency, sum := range SumByCurrency(positions) {
		if !sum.IsZero() {
			unbalanced = append(unbalanced, currency)
		}
	}
	sort.Strings(unbalanced)
	return unbalanced
}

// LargestAbsoluteIndex returns the index of the amount with the largest
// absolute value, first occurrence winning on ties. It returns -1 for an
// empty slice.
func LargestAbsoluteIndex(amounts []money.Money) int {
	if len(amounts) == 0 {
		return -1
	}
	largest := 0
	for i := 1; i < len(amounts); i++ {
		if amounts[i].Abs().MinorUnits() > amounts[largest].Abs().MinorUnits() {
			largest = i
		}
	}
	return largest
}
