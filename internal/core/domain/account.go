package domain

// Account represents a financial account within the ledger, identified by its
// hierarchical path (e.g. "Ausgaben : Büro : Material"). Accounts carry no
// chart-of-accounts type; hierarchy is the only structure.
type Account struct {
	AccountID   string `json:"accountID"` // Primary Key (UUID)
	Path        string `json:"path"`      // Normalized account path, unique
	Description string `json:"description"`
	IsActive    bool   `json:"isActive"` // Deactivated accounts reject new positions
	AuditFields
}
