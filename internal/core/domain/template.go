package domain

import (
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	"github.com/shopspring/decimal"
)

// AmountType indicates how a template line's amount is computed on application.
type AmountType string

const (
	Fixed      AmountType = "FIXED"
	Percentage AmountType = "PERCENTAGE"
)

// Template is a reusable, immutable pattern of position definitions.
// Identity is (Name, Version); a revision is a new row with Version+1.
// No field of an existing version may change, only Active may be toggled.
type Template struct {
	TemplateID   string         `json:"templateID"` // Primary Key (UUID)
	Name         string         `json:"name"`
	Version      int            `json:"version"` // >= 1, unique per Name
	CurrencyCode string         `json:"currencyCode"`
	Lines        []TemplateLine `json:"lines,omitempty"`
	DefaultTotal *money.Money   `json:"defaultTotal,omitempty"`
	Active       bool           `json:"active"`
	AuditFields
}

// TemplateLine defines one position pattern within a template. Fixed lines
// carry an absolute amount, percentage lines a percentage of the applied
// total. Fraction is an optional weight used by fraction-based application
// and may be negative (typically the balancing leg).
type TemplateLine struct {
	LineID      string           `json:"lineID"`     // Primary Key (UUID)
	TemplateID  string           `json:"templateID"` // FK -> Template.templateID (Not Null)
	AccountPath string           `json:"accountPath"`
	Description string           `json:"description"`
	AmountType  AmountType       `json:"amountType"`
	AmountValue decimal.Decimal  `json:"amountValue"` // Major units (FIXED) or percent (PERCENTAGE)
	Fraction    *decimal.Decimal `json:"fraction,omitempty"`
	TaxRelevant bool             `json:"taxRelevant"`
	Position    int              `json:"position"` // Display order within the template
}
