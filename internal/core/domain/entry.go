package domain

import (
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain/money"
)

// EntryStatus indicates the lifecycle state of a ledger entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// Entry represents a single, balanced financial record composed of multiple positions.
// Entries are editable only while in DRAFT; POSTED entries are immutable except
// for the void fields set at the moment of voiding.
type Entry struct {
	EntryID     string      `json:"entryID"`     // Primary Key (UUID)
	EntryDate   time.Time   `json:"entryDate"`   // Date the event occurred
	Description string      `json:"description"` // User description (required)
	Reference   string      `json:"reference"`   // Nullable external reference (invoice no. etc.)
	Status      EntryStatus `json:"status"`
	Positions   []Position  `json:"positions,omitempty"` // Often loaded separately

	PostedBy   *string    `json:"postedBy,omitempty"`
	PostedAt   *time.Time `json:"postedAt,omitempty"`
	VoidedBy   *string    `json:"voidedBy,omitempty"`
	VoidedAt   *time.Time `json:"voidedAt,omitempty"`
	VoidReason *string    `json:"voidReason,omitempty"`

	// ReversalEntryID links a voided entry to the reversal it spawned;
	// OriginalEntryID is the back-link carried by the reversal itself.
	ReversalEntryID *string `json:"reversalEntryID,omitempty"`
	OriginalEntryID *string `json:"originalEntryID,omitempty"`

	// Version guards post/void against concurrent modification.
	Version int64 `json:"version"`
	AuditFields
}

// IsEditable reports whether the entry may still be mutated or deleted.
func (e *Entry) IsEditable() bool {
	return e.Status == Draft
}

// Position represents a single account/amount line within an entry.
// A position never exists independently of its owning entry.
type Position struct {
	PositionID  string      `json:"positionID"` // Primary Key (UUID)
	EntryID     string      `json:"entryID"`    // FK -> Entry.entryID (Not Null)
	AccountPath string      `json:"accountPath"`
	Amount      money.Money `json:"amount"` // Signed; positions of an entry sum to zero per currency
	Description string      `json:"description"`
	TaxRelevant bool        `json:"taxRelevant"`
	Order       int         `json:"order"` // Display order within the entry
}

// Negated returns a copy of the position with its amount sign-flipped,
// used when building reversal entries.
func (p Position) Negated() Position {
	p.PositionID = ""
	p.EntryID = ""
	p.Amount = p.Amount.Neg()
	return p
}
