package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch indicates an operation on two amounts of different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
	// ErrInvalidFormat indicates a string that could not be parsed as a monetary amount.
	ErrInvalidFormat = errors.New("invalid amount format")
)

// minorUnitScale is the number of decimal places per minor unit (cents).
const minorUnitScale = 2

// Money is an immutable monetary amount stored as an integer count of minor
// units (cents) together with its currency code. Arithmetic never produces
// fractional minor units: every operation either stays exact or rounds
// half-to-even before the result is constructed.
type Money struct {
	minorUnits int64
	currency   string
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{minorUnits: 0, currency: currency}
}

// FromMinorUnits constructs an amount from an integer count of minor units.
func FromMinorUnits(n int64, currency string) Money {
	return Money{minorUnits: n, currency: currency}
}

// FromDecimal constructs an amount from an arbitrary-precision decimal,
// rounding half-to-even to the nearest minor unit.
func FromDecimal(d decimal.Decimal, currency string) Money {
	return Money{
		minorUnits: d.Shift(minorUnitScale).RoundBank(0).IntPart(),
		currency:   currency,
	}
}

// germanDecimalRe matches strings that end in a comma followed by exactly two digits.
var germanDecimalRe = regexp.MustCompile(`,\d{2}$`)

// germanThousandsRe matches a dot-separated thousands group followed by a comma or space.
var germanThousandsRe = regexp.MustCompile(`\d\.\d{3}[,\s]`)

// Parse parses a monetary string into an amount of the given currency.
// It auto-detects German formatting ("1.234,56") versus international
// formatting ("1234.56") and normalizes accordingly before parsing.
func Parse(s string, currency string) (Money, error) {
	if strings.TrimSpace(s) == "" {
		return Money{}, fmt.Errorf("%w: empty string", ErrInvalidFormat)
	}

	// Locale detection runs before whitespace is stripped: a thousands group
	// followed by a space ("1.234 ") is a German rendering.
	cleaned := s
	if germanThousandsRe.MatchString(s) || germanDecimalRe.MatchString(strings.TrimSpace(s)) {
		// German locale: "." separates thousands, "," separates decimals.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}
	cleaned = strings.Join(strings.Fields(cleaned), "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return FromDecimal(d, currency), nil
}

// MinorUnits returns the amount as an integer count of minor units.
func (m Money) MinorUnits() int64 {
	return m.minorUnits
}

// Currency returns the currency code.
func (m Money) Currency() string {
	return m.currency
}

// Decimal returns the amount as an arbitrary-precision decimal in major units.
// The conversion is lossless.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.minorUnits).Shift(-minorUnitScale)
}

// Add returns the sum of two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{minorUnits: m.minorUnits + other.minorUnits, currency: m.currency}, nil
}

// Sub returns the difference of two amounts of the same currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return Money{minorUnits: m.minorUnits - other.minorUnits, currency: m.currency}, nil
}

// Mul multiplies the amount by an arbitrary-precision factor, rounding the
// result half-to-even to the nearest minor unit.
func (m Money) Mul(factor decimal.Decimal) Money {
	product := decimal.NewFromInt(m.minorUnits).Mul(factor)
	return Money{minorUnits: product.RoundBank(0).IntPart(), currency: m.currency}
}

// Div divides the amount by an arbitrary-precision divisor, rounding the
// result half-to-even to the nearest minor unit.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: division by zero", ErrInvalidFormat)
	}
	quotient := decimal.NewFromInt(m.minorUnits).Div(divisor)
	return Money{minorUnits: quotient.RoundBank(0).IntPart(), currency: m.currency}, nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{minorUnits: -m.minorUnits, currency: m.currency}
}

// Abs returns the absolute value of the amount.
func (m Money) Abs() Money {
	if m.minorUnits < 0 {
		return m.Neg()
	}
	return m
}

// Cmp compares two amounts of the same currency. It returns -1 if m is less
// than other, 0 if equal, and +1 if greater.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	switch {
	case m.minorUnits < other.minorUnits:
		return -1, nil
	case m.minorUnits > other.minorUnits:
		return 1, nil
	default:
		return 0, nil
	}
}

// Equal reports whether two amounts have the same currency and value.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.minorUnits == other.minorUnits
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.minorUnits == 0
}

// IsPositive reports whether the amount is strictly positive.
func (m Money) IsPositive() bool {
	return m.minorUnits > 0
}

// IsNegative reports whether the amount is strictly negative.
func (m Money) IsNegative() bool {
	return m.minorUnits < 0
}

// Distribute splits the amount into n parts that sum exactly to the original.
// The remainder of the Euclidean division is spread one minor unit at a time
// over the leading parts, so the first parts may be one unit larger.
func (m Money) Distribute(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("distribution count must be positive, got %d", n)
	}

	// Euclidean division: the remainder is non-negative even for negative amounts.
	base := m.minorUnits / int64(n)
	remainder := m.minorUnits % int64(n)
	if remainder < 0 {
		remainder += int64(n)
		base--
	}

	parts := make([]Money, n)
	for i := range parts {
		units := base
		if int64(i) < remainder {
			units++
		}
		parts[i] = Money{minorUnits: units, currency: m.currency}
	}
	return parts, nil
}

// DistributeByRatio splits the amount proportionally to the given ratios so
// that the parts sum exactly to the original. Ratios are normalized to sum to
// one; each part is rounded half-to-even and any rounding imbalance is added
// to the part with the largest original ratio (first occurrence on ties).
func (m Money) DistributeByRatio(ratios []decimal.Decimal) ([]Money, error) {
	if len(ratios) == 0 {
		return nil, fmt.Errorf("at least one ratio is required")
	}

	total := decimal.Zero
	for _, r := range ratios {
		total = total.Add(r)
	}
	if total.IsZero() {
		return nil, fmt.Errorf("ratios must not sum to zero")
	}

	parts := make([]Money, len(ratios))
	var allocated int64
	largestIdx := 0
	for i, r := range ratios {
		normalized := r.Div(total)
		units := decimal.NewFromInt(m.minorUnits).Mul(normalized).RoundBank(0).IntPart()
		parts[i] = Money{minorUnits: units, currency: m.currency}
		allocated += units
		if r.GreaterThan(ratios[largestIdx]) {
			largestIdx = i
		}
	}

	imbalance := m.minorUnits - allocated
	if imbalance != 0 {
		parts[largestIdx] = Money{
			minorUnits: parts[largestIdx].minorUnits + imbalance,
			currency:   m.currency,
		}
	}
	return parts, nil
}

// Sum adds up a list of amounts. An empty list yields zero in the default
// currency; a non-empty list requires a uniform currency across all elements.
func Sum(amounts []Money, defaultCurrency string) (Money, error) {
	if len(amounts) == 0 {
		return Zero(defaultCurrency), nil
	}
	total := amounts[0]
	for _, a := range amounts[1:] {
		var err error
		total, err = total.Add(a)
		if err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// currencySymbols maps currency codes to their display symbols. Codes without
// an entry are rendered as-is.
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

// String renders the amount in German locale formatting: "." as thousands
// separator, "," as decimal separator, trailing currency symbol and a leading
// sign for negative values, e.g. "-1.234,56 €".
func (m Money) String() string {
	units := m.minorUnits
	sign := ""
	if units < 0 {
		sign = "-"
		units = -units
	}

	major := units / 100
	cents := units % 100

	majorStr := fmt.Sprintf("%d", major)
	var groups []string
	for len(majorStr) > 3 {
		groups = append([]string{majorStr[len(majorStr)-3:]}, groups...)
		majorStr = majorStr[:len(majorStr)-3]
	}
	groups = append([]string{majorStr}, groups...)

	symbol, ok := currencySymbols[m.currency]
	if !ok {
		symbol = m.currency
	}
	return fmt.Sprintf("%s%s,%02d %s", sign, strings.Join(groups, "."), cents, symbol)
}

type moneyJSON struct {
	MinorUnits int64  `json:"minorUnits"`
	Currency   string `json:"currency"`
	Formatted  string `json:"formatted,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		MinorUnits: m.minorUnits,
		Currency:   m.currency,
		Formatted:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.minorUnits = raw.MinorUnits
	m.currency = raw.Currency
	return nil
}
