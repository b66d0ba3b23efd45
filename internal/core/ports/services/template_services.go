package services

import (
	"context"

	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/dto"
)

// TemplateReaderSvc defines read operations for template data
type TemplateReaderSvc interface {
	// GetTemplate retrieves a template identified by (name, version).
	GetTemplate(ctx context.Context, name string, version int) (*domain.Template, error)

	// GetLatestTemplate retrieves the highest-versioned template for a name.
	GetLatestTemplate(ctx context.Context, name string) (*domain.Template, error)

	// ListTemplates retrieves templates, optionally only active versions.
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error)
}

// TemplateWriterSvc defines write operations for template data. Stored
// versions are immutable apart from the active flag.
type TemplateWriterSvc interface {
	// CreateTemplate persists version 1 of a new template name.
	CreateTemplate(ctx context.Context, req dto.CreateTemplateRequest, userID string) (*domain.Template, error)

	// CreateTemplateVersion persists the next version of an existing name with
	// a full new set of lines.
	CreateTemplateVersion(ctx context.Context, name string, req dto.CreateTemplateRequest, userID string) (*domain.Template, error)

	// SetTemplateActive toggles the active flag of a stored version.
	SetTemplateActive(ctx context.Context, name string, version int, active bool, userID string) error
}

// TemplateApplierSvc expands templates into entry-creation input. Application
// never posts the resulting entry.
type TemplateApplierSvc interface {
	// ApplyTemplate computes position amounts from FIXED and PERCENTAGE lines.
	// version <= 0 selects the latest version.
	ApplyTemplate(ctx context.Context, name string, version int, req dto.ApplyTemplateRequest) (*dto.CreateEntryRequest, error)

	// ApplyTemplateWithFractions computes position amounts from line fractions
	// of a required total.
	ApplyTemplateWithFractions(ctx context.Context, name string, version int, req dto.ApplyTemplateRequest) (*dto.CreateEntryRequest, error)
}

// TemplateSvcFacade combines all template-related service interfaces
type TemplateSvcFacade interface {
	TemplateReaderSvc
	TemplateWriterSvc
	TemplateApplierSvc
}
