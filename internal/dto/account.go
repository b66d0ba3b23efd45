package dto

import (
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
)

// CreateAccountRequest defines the payload for creating an account.
// The path is validated with the custom "accountpath" binding rule.
type CreateAccountRequest struct {
	Path        string `json:"path" binding:"required,accountpath"`
	Description string `json:"description"`
}

// UpdateAccountRequest defines the payload for updating an account.
// The path itself is immutable; only the description may change.
type UpdateAccountRequest struct {
	Description *string `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID   string `json:"accountID"`
	Path        string `json:"path"`
	Leaf        string `json:"leaf"`
	Depth       int    `json:"depth"`
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"`
}

// ResolveAccountsRequest defines the payload for bulk path resolution.
type ResolveAccountsRequest struct {
	Paths []string `json:"paths" binding:"required,min=1"`
}

// ResolveAccountsResponse partitions the requested paths into found accounts
// and missing paths.
type ResolveAccountsResponse struct {
	Found   []AccountResponse `json:"found"`
	Missing []string          `json:"missing"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:   a.AccountID,
		Path:        a.Path,
		Leaf:        accountpath.Leaf(a.Path),
		Depth:       accountpath.Depth(a.Path),
		Description: a.Description,
		IsActive:    a.IsActive,
	}
}

// ToAccountResponses converts a slice of domain.Account to []AccountResponse.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i, a := range accounts {
		responses[i] = ToAccountResponse(&a)
	}
	return responses
}
