package dto

import (
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// CreatePositionRequest defines one position line within an entry payload.
// Amount is a signed monetary string; both German ("1.234,56") and
// international ("1234.56") renderings are accepted. Currency falls back to
// the configured default when empty.
type CreatePositionRequest struct {
	AccountPath string `json:"accountPath" binding:"required,accountpath"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	TaxRelevant bool   `json:"taxRelevant"`
	Order       int    `json:"order"`
}

// CreateEntryRequest defines the payload for creating a draft entry.
type CreateEntryRequest struct {
	Date        time.Time               `json:"date" binding:"required"`
	Description string                  `json:"description" binding:"required"`
	Reference   string                  `json:"reference"`
	Positions   []CreatePositionRequest `json:"positions" binding:"required,min=2,dive"`
}

// UpdateEntryRequest defines the payload for updating a draft entry.
// Nil fields are left unchanged; a non-nil Positions slice replaces the
// entry's positions wholesale.
type UpdateEntryRequest struct {
	Date        *time.Time              `json:"date"`
	Description *string                 `json:"description"`
	Reference   *string                 `json:"reference"`
	Positions   []CreatePositionRequest `json:"positions" binding:"omitempty,min=2,dive"`
}

// VoidEntryRequest defines the payload for voiding a posted entry.
type VoidEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// PositionResponse defines the data returned for a position.
type PositionResponse struct {
	PositionID  string      `json:"positionID"`
	AccountPath string      `json:"accountPath"`
	Amount      money.Money `json:"amount"`
	Description string      `json:"description,omitempty"`
	TaxRelevant bool        `json:"taxRelevant"`
	Order       int         `json:"order"`
}

// EntryResponse defines the data returned for an entry.
type EntryResponse struct {
	EntryID         string             `json:"entryID"`
	Date            time.Time          `json:"date"`
	Description     string             `json:"description"`
	Reference       string             `json:"reference,omitempty"`
	Status          domain.EntryStatus `json:"status"`
	Positions       []PositionResponse `json:"positions,omitempty"`
	PostedBy        *string            `json:"postedBy,omitempty"`
	PostedAt        *time.Time         `json:"postedAt,omitempty"`
	VoidedBy        *string            `json:"voidedBy,omitempty"`
	VoidedAt        *time.Time         `json:"voidedAt,omitempty"`
	VoidReason      *string            `json:"voidReason,omitempty"`
	ReversalEntryID *string            `json:"reversalEntryID,omitempty"`
	OriginalEntryID *string            `json:"originalEntryID,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"`
}

// ListEntriesParams holds parameters for listing entries.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeVoided    bool    `form:"includeVoided"`
	IncludePositions bool    `form:"includePositions"`
}

// ListEntriesResponse is the paginated response for entry listings.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToPositionResponse converts a domain.Position to PositionResponse DTO.
func ToPositionResponse(p *domain.Position) PositionResponse {
	return PositionResponse{
		PositionID:  p.PositionID,
		AccountPath: p.AccountPath,
		Amount:      p.Amount,
		Description: p.Description,
		TaxRelevant: p.TaxRelevant,
		Order:       p.Order,
	}
}

// ToPositionResponses converts a slice of domain.Position to []PositionResponse.
func ToPositionResponses(positions []domain.Position) []PositionResponse {
	responses := make([]PositionResponse, len(positions))
	for i, p := range positions {
		responses[i] = ToPositionResponse(&p)
	}
	return responses
}

// ToEntryResponse converts a domain.Entry to EntryResponse DTO.
func ToEntryResponse(e *domain.Entry) EntryResponse {
	resp := EntryResponse{
		EntryID:         e.EntryID,
		Date:            e.EntryDate,
		Description:     e.Description,
		Reference:       e.Reference,
		Status:          e.Status,
		PostedBy:        e.PostedBy,
		PostedAt:        e.PostedAt,
		VoidedBy:        e.VoidedBy,
		VoidedAt:        e.VoidedAt,
		VoidReason:      e.VoidReason,
		ReversalEntryID: e.ReversalEntryID,
		OriginalEntryID: e.OriginalEntryID,
		CreatedAt:       e.CreatedAt,
		CreatedBy:       e.CreatedBy,
	}
	if len(e.Positions) > 0 {
		resp.Positions = ToPositionResponses(e.Positions)
	}
	return resp
}
