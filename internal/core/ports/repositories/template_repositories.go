package repositories

import (
	"context"
	"time"

	"github.com/fibukit/fibu_backend/internal/core/domain"
)

// TemplateReader defines read operations for template data. Template rows are
// append-only: the latest version is always a derived query, never a pointer.
type TemplateReader interface {
	// FindTemplate retrieves a template identified by (name, version), lines included.
	FindTemplate(ctx context.Context, name string, version int) (*domain.Template, error)

	// FindLatestTemplateVersion retrieves the highest-versioned template for a name.
	FindLatestTemplateVersion(ctx context.Context, name string) (*domain.Template, error)

	// ListTemplates retrieves all templates, optionally only active versions,
	// ordered by name and version.
	ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error)
}

// TemplateWriter defines write operations for template data
type TemplateWriter interface {
	// SaveTemplate persists a new template version together with its lines.
	// Existing (name, version) rows are never modified.
	SaveTemplate(ctx context.Context, template domain.Template) error

	// SetTemplateActive toggles the active flag of an existing version. This is
	// the only mutation permitted on a stored template.
	SetTemplateActive(ctx context.Context, name string, version int, active bool, userID string, now time.Time) error
}

// TemplateRepositoryFacade combines all template-related repository interfaces
type TemplateRepositoryFacade interface {
	TemplateReader
	TemplateWriter
}
