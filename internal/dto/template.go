package dto

import (
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	"github.com/shopspring/decimal"
)

// TemplateLineRequest defines one line of a template payload. AmountValue is
// an absolute amount in major units for FIXED lines and a percentage for
// PERCENTAGE lines. Fraction is the optional weight used by fraction-based
// application and may be negative.
type TemplateLineRequest struct {
	AccountPath string           `json:"accountPath" binding:"required,accountpath"`
	Description string           `json:"description"`
	AmountType  string           `json:"amountType" binding:"required,oneof=FIXED PERCENTAGE"`
	AmountValue decimal.Decimal  `json:"amountValue"`
	Fraction    *decimal.Decimal `json:"fraction"`
	TaxRelevant bool             `json:"taxRelevant"`
	Position    int              `json:"position"`
}

// CreateTemplateRequest defines the payload for creating a template or a new
// version of one. Lines are never inherited: every version carries a full set.
type CreateTemplateRequest struct {
	Name         string                `json:"name" binding:"required"`
	CurrencyCode string                `json:"currencyCode"`
	DefaultTotal *string               `json:"defaultTotal"` // Monetary string, e.g. "1.000,00"
	Lines        []TemplateLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// SetTemplateActiveRequest toggles the only mutable field of a stored template version.
type SetTemplateActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ApplyTemplateRequest defines the payload for expanding a template into
// entry-creation input. Total overrides the template's default total.
type ApplyTemplateRequest struct {
	Total       *string   `json:"total"` // Monetary string
	Date        time.Time `json:"date" binding:"required"`
	Description string    `json:"description" binding:"required"`
	Reference   string    `json:"reference"`
}

// TemplateLineResponse defines the data returned for a template line.
type TemplateLineResponse struct {
	LineID      string           `json:"lineID"`
	AccountPath string           `json:"accountPath"`
	Description string           `json:"description,omitempty"`
	AmountType  string           `json:"amountType"`
	AmountValue decimal.Decimal  `json:"amountValue"`
	Fraction    *decimal.Decimal `json:"fraction,omitempty"`
	TaxRelevant bool             `json:"taxRelevant"`
	Position    int              `json:"position"`
}

// TemplateResponse defines the data returned for a template version.
type TemplateResponse struct {
	TemplateID   string                 `json:"templateID"`
	Name         string                 `json:"name"`
	Version      int                    `json:"version"`
	CurrencyCode string                 `json:"currencyCode"`
	DefaultTotal *money.Money           `json:"defaultTotal,omitempty"`
	Active       bool                   `json:"active"`
	Lines        []TemplateLineResponse `json:"lines,omitempty"`
}

// ToTemplateResponse converts a domain.Template to TemplateResponse DTO.
func ToTemplateResponse(t *domain.Template) TemplateResponse {
	resp := TemplateResponse{
		TemplateID:   t.TemplateID,
		Name:         t.Name,
		Version:      t.Version,
		CurrencyCode: t.CurrencyCode,
		DefaultTotal: t.DefaultTotal,
		Active:       t.Active,
	}
	for _, line := range t.Lines {
		resp.Lines = append(resp.Lines, TemplateLineResponse{
			LineID:      line.LineID,
			AccountPath: line.AccountPath,
			Description: line.Description,
			AmountType:  string(line.AmountType),
			AmountValue: line.AmountValue,
			Fraction:    line.Fraction,
			TaxRelevant: line.TaxRelevant,
			Position:    line.Position,
		})
	}
	return resp
}

// ToTemplateResponses converts a slice of domain.Template to []TemplateResponse.
func ToTemplateResponses(templates []domain.Template) []TemplateResponse {
	responses := make([]TemplateResponse, len(templates))
	for i, t := range templates {
		responses[i] = ToTemplateResponse(&t)
	}
	return responses
}
