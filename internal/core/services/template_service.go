package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/accountpath"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/middleware"
	"github.com/fibukit/fibu_backend/internal/platform/config"
	"github.com/fibukit/fibu_backend/internal/utils/accounting"
)

var (
	ErrTemplateNameExists  = errors.New("template name already exists")
	ErrTemplateNotActive   = errors.New("template version is not active")
	ErrTemplateTotalNeeded = errors.New("template application requires a total")
	ErrLineFractionMissing = errors.New("every template line needs a fraction")
)

var percentDivisor = decimal.NewFromInt(100)

// templateService provides template management and application operations.
type templateService struct {
	templateRepo portsrepo.TemplateRepositoryFacade
	ledgerCfg    config.LedgerConfig
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(templateRepo portsrepo.TemplateRepositoryFacade, ledgerCfg config.LedgerConfig) portssvc.TemplateSvcFacade {
	return &templateService{
		templateRepo: templateRepo,
		ledgerCfg:    ledgerCfg,
	}
}

// Ensure templateService implements the portssvc.TemplateSvcFacade interface
var _ portssvc.TemplateSvcFacade = (*templateService)(nil)

// GetTemplate retrieves a template identified by (name, version).
// Implements portssvc.TemplateSvcFacade
func (s *templateService) GetTemplate(ctx context.Context, name string, version int) (*domain.Template, error) {
	template, err := s.templateRepo.FindTemplate(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("failed to find template %q version %d: %w", name, version, err)
	}
	return template, nil
}

// GetLatestTemplate retrieves the highest-versioned template for a name.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) GetLatestTemplate(ctx context.Context, name string) (*domain.Template, error) {
	template, err := s.templateRepo.FindLatestTemplateVersion(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest version of template %q: %w", name, err)
	}
	return template, nil
}

// ListTemplates retrieves templates, optionally only active versions.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	return s.templateRepo.ListTemplates(ctx, activeOnly)
}

// buildTemplate assembles a domain template from a creation request, validating
// account paths and parsing the optional default total.
func (s *templateService) buildTemplate(name string, version int, req dto.CreateTemplateRequest, userID string) (domain.Template, error) {
	currency := req.CurrencyCode
	if currency == "" {
		currency = s.ledgerCfg.DefaultCurrency
	}

	var defaultTotal *money.Money
	if req.DefaultTotal != nil {
		parsed, err := money.Parse(*req.DefaultTotal, currency)
		if err != nil {
			return domain.Template{}, fmt.Errorf("%w: default total", err)
		}
		defaultTotal = &parsed
	}

	now := time.Now().UTC()
	template := domain.Template{
		TemplateID:   uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Version:      version,
		CurrencyCode: currency,
		DefaultTotal: defaultTotal,
		Active:       true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	template.Lines = make([]domain.TemplateLine, len(req.Lines))
	for i, line := range req.Lines {
		if err := accountpath.Validate(line.AccountPath, s.ledgerCfg.MaxAccountDepth); err != nil {
			return domain.Template{}, fmt.Errorf("%w: line %d: %s", apperrors.ErrValidation, i, err.Error())
		}
		position := line.Position
		if position == 0 {
			position = i
		}
		template.Lines[i] = domain.TemplateLine{
			LineID:      uuid.NewString(),
			TemplateID:  template.TemplateID,
			AccountPath: accountpath.Normalize(line.AccountPath),
			Description: line.Description,
			AmountType:  domain.AmountType(line.AmountType),
			AmountValue: line.AmountValue,
			Fraction:    line.Fraction,
			TaxRelevant: line.TaxRelevant,
			Position:    position,
		}
	}
	return template, nil
}

// CreateTemplate persists version 1 of a new template name.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) CreateTemplate(ctx context.Context, req dto.CreateTemplateRequest, userID string) (*domain.Template, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	name := strings.TrimSpace(req.Name)
	existing, err := s.templateRepo.FindLatestTemplateVersion(ctx, name)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing template: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q is at version %d", ErrTemplateNameExists, name, existing.Version)
	}

	template, err := s.buildTemplate(name, 1, req, userID)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.SaveTemplate(ctx, template); err != nil {
		logger.Error("Failed to save template", slog.String("error", err.Error()), slog.String("name", name))
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	logger.Info("Template created", slog.String("name", name), slog.Int("version", 1))
	return &template, nil
}

// CreateTemplateVersion persists the next version of an existing name. The
// request carries a full set of lines; nothing is inherited from the previous
// version.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) CreateTemplateVersion(ctx context.Context, name string, req dto.CreateTemplateRequest, userID string) (*domain.Template, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	latest, err := s.templateRepo.FindLatestTemplateVersion(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find template %q: %w", name, err)
	}

	template, err := s.buildTemplate(name, latest.Version+1, req, userID)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.SaveTemplate(ctx, template); err != nil {
		logger.Error("Failed to save template version", slog.String("error", err.Error()), slog.String("name", name))
		return nil, fmt.Errorf("failed to save template version: %w", err)
	}

	logger.Info("Template version created", slog.String("name", name), slog.Int("version", template.Version))
	return &template, nil
}

// SetTemplateActive toggles the active flag of a stored version.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) SetTemplateActive(ctx context.Context, name string, version int, active bool, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.templateRepo.SetTemplateActive(ctx, name, version, active, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to toggle template active flag", slog.String("error", err.Error()), slog.String("name", name), slog.Int("version", version))
		return err
	}

	logger.Info("Template active flag set", slog.String("name", name), slog.Int("version", version), slog.Bool("active", active))
	return nil
}

// fetchApplicable loads the requested template version (latest when version <=
// 0) and verifies it is active.
func (s *templateService) fetchApplicable(ctx context.Context, name string, version int) (*domain.Template, error) {
	var template *domain.Template
	var err error
	if version <= 0 {
		template, err = s.templateRepo.FindLatestTemplateVersion(ctx, name)
	} else {
		template, err = s.templateRepo.FindTemplate(ctx, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find template %q: %w", name, err)
	}
	if !template.Active {
		return nil, fmt.Errorf("%w: %q version %d", ErrTemplateNotActive, template.Name, template.Version)
	}
	return template, nil
}

// resolveTotal picks the applied total: the request override if present,
// otherwise the template's default.
func (s *templateService) resolveTotal(template *domain.Template, req dto.ApplyTemplateRequest) (*money.Money, error) {
	if req.Total != nil {
		total, err := money.Parse(*req.Total, template.CurrencyCode)
		if err != nil {
			return nil, fmt.Errorf("%w: total", err)
		}
		return &total, nil
	}
	return template.DefaultTotal, nil
}

// autoBalance folds any rounding imbalance into the position with the largest
// absolute amount so the resulting entry balances exactly.
func autoBalance(amounts []money.Money) {
	if len(amounts) == 0 {
		return
	}
	currency := amounts[0].Currency()
	sum := int64(0)
	for _, amount := range amounts {
		sum += amount.MinorUnits()
	}
	if sum == 0 {
		return
	}
	idx := accounting.LargestAbsoluteIndex(amounts)
	amounts[idx] = money.FromMinorUnits(amounts[idx].MinorUnits()-sum, currency)
}

// toEntryRequest renders computed amounts into entry-creation input. Amounts
// are emitted as plain decimal strings so they re-parse without locale
// ambiguity.
func toEntryRequest(template *domain.Template, amounts []money.Money, req dto.ApplyTemplateRequest) *dto.CreateEntryRequest {
	positions := make([]dto.CreatePositionRequest, len(template.Lines))
	for i, line := range template.Lines {
		positions[i] = dto.CreatePositionRequest{
			AccountPath: line.AccountPath,
			Amount:      amounts[i].Decimal().String(),
			Currency:    amounts[i].Currency(),
			Description: line.Description,
			TaxRelevant: line.TaxRelevant,
			Order:       line.Position,
		}
	}
	return &dto.CreateEntryRequest{
		Date:        req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Positions:   positions,
	}
}

// ApplyTemplate computes position amounts from FIXED and PERCENTAGE lines.
// A total is only required when at least one PERCENTAGE line is present.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) ApplyTemplate(ctx context.Context, name string, version int, req dto.ApplyTemplateRequest) (*dto.CreateEntryRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	template, err := s.fetchApplicable(ctx, name, version)
	if err != nil {
		return nil, err
	}

	total, err := s.resolveTotal(template, req)
	if err != nil {
		return nil, err
	}

	amounts := make([]money.Money, len(template.Lines))
	for i, line := range template.Lines {
		switch line.AmountType {
		case domain.Percentage:
			if total == nil {
				return nil, fmt.Errorf("%w: template %q has percentage lines", ErrTemplateTotalNeeded, template.Name)
			}
			amounts[i] = total.Mul(line.AmountValue.Div(percentDivisor))
		default:
			amounts[i] = money.FromDecimal(line.AmountValue, template.CurrencyCode)
		}
	}
	autoBalance(amounts)

	logger.Info("Template applied", slog.String("name", template.Name), slog.Int("version", template.Version))
	return toEntryRequest(template, amounts, req), nil
}

// ApplyTemplateWithFractions computes each amount as total times the line's
// fraction. Rounding happens per line; the residual lands on the largest
// position so the sum of fractions keeps its meaning exactly.
// Implements portssvc.TemplateSvcFacade
func (s *templateService) ApplyTemplateWithFractions(ctx context.Context, name string, version int, req dto.ApplyTemplateRequest) (*dto.CreateEntryRequest, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	template, err := s.fetchApplicable(ctx, name, version)
	if err != nil {
		return nil, err
	}

	total, err := s.resolveTotal(template, req)
	if err != nil {
		return nil, err
	}
	if total == nil {
		return nil, fmt.Errorf("%w: fraction-based application", ErrTemplateTotalNeeded)
	}

	amounts := make([]money.Money, len(template.Lines))
	for i, line := range template.Lines {
		if line.Fraction == nil {
			return nil, fmt.Errorf("%w: line %d of template %q", ErrLineFractionMissing, i, template.Name)
		}
		amounts[i] = total.Mul(*line.Fraction)
	}
	autoBalance(amounts)

	logger.Info("Template applied with fractions", slog.String("name", template.Name), slog.Int("version", template.Version))
	return toEntryRequest(template, amounts, req), nil
}
