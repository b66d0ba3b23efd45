package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	"github.com/fibukit/fibu_backend/internal/core/domain/money"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/core/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// --- Mock TemplateRepository ---
type MockTemplateRepository struct {
	mock.Mock
}

var _ portsrepo.TemplateRepositoryFacade = (*MockTemplateRepository)(nil)

func (m *MockTemplateRepository) FindTemplate(ctx context.Context, name string, version int) (*domain.Template, error) {
	args := m.Called(ctx, name, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) FindLatestTemplateVersion(ctx context.Context, name string) (*domain.Template, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) ListTemplates(ctx context.Context, activeOnly bool) ([]domain.Template, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) SaveTemplate(ctx context.Context, template domain.Template) error {
	args := m.Called(ctx, template)
	return args.Error(0)
}

func (m *MockTemplateRepository) SetTemplateActive(ctx context.Context, name string, version int, active bool, userID string, now time.Time) error {
	args := m.Called(ctx, name, version, active, userID, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type TemplateServiceTestSuite struct {
	suite.Suite
	mockTemplateRepo *MockTemplateRepository
	service          portssvc.TemplateSvcFacade
	userID           string
}

func (suite *TemplateServiceTestSuite) SetupTest() {
	suite.mockTemplateRepo = new(MockTemplateRepository)
	suite.service = services.NewTemplateService(suite.mockTemplateRepo, config.LedgerConfig{
		MaxAccountDepth:      6,
		MaxPositionsPerEntry: 50,
		AllowBackdated:       true,
		MaxBackdateDays:      365,
		DefaultCurrency:      "EUR",
	})
	suite.userID = uuid.NewString()
}

// grossSplitTemplate models a purchase where the applied total is the net
// amount: expense 100%, VAT 19%, bank -119%.
func (suite *TemplateServiceTestSuite) grossSplitTemplate() *domain.Template {
	templateID := uuid.NewString()
	return &domain.Template{
		TemplateID:   templateID,
		Name:         "Einkauf mit USt",
		Version:      1,
		CurrencyCode: "EUR",
		Active:       true,
		Lines: []domain.TemplateLine{
			{LineID: uuid.NewString(), TemplateID: templateID, AccountPath: "Ausgaben : Büro", AmountType: domain.Percentage, AmountValue: decimal.NewFromInt(100), Position: 0},
			{LineID: uuid.NewString(), TemplateID: templateID, AccountPath: "Vermögen : Vorsteuer", AmountType: domain.Percentage, AmountValue: decimal.NewFromInt(19), TaxRelevant: true, Position: 1},
			{LineID: uuid.NewString(), TemplateID: templateID, AccountPath: "Vermögen : Bank", AmountType: domain.Percentage, AmountValue: decimal.NewFromInt(-119), Position: 2},
		},
	}
}

func (suite *TemplateServiceTestSuite) applyRequest(total string) dto.ApplyTemplateRequest {
	return dto.ApplyTemplateRequest{
		Total:       &total,
		Date:        time.Now().UTC(),
		Description: "Monatlicher Einkauf",
	}
}

// --- Create ---

func (suite *TemplateServiceTestSuite) TestCreateTemplate_Success() {
	ctx := context.Background()
	req := dto.CreateTemplateRequest{
		Name:         "Miete",
		CurrencyCode: "EUR",
		Lines: []dto.TemplateLineRequest{
			{AccountPath: "Ausgaben : Miete", AmountType: "FIXED", AmountValue: decimal.NewFromInt(1200)},
			{AccountPath: "Vermögen : Bank", AmountType: "FIXED", AmountValue: decimal.NewFromInt(-1200)},
		},
	}

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, "Miete").Return(nil, apperrors.ErrNotFound).Once()

	var saved domain.Template
	suite.mockTemplateRepo.On("SaveTemplate", ctx, mock.AnythingOfType("domain.Template")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Template) }).
		Return(nil).Once()

	template, err := suite.service.CreateTemplate(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(1, template.Version)
	suite.True(template.Active)
	suite.Len(saved.Lines, 2)
	suite.Equal("Ausgaben : Miete", saved.Lines[0].AccountPath)
	suite.mockTemplateRepo.AssertExpectations(suite.T())
}

func (suite *TemplateServiceTestSuite) TestCreateTemplate_NameExists() {
	ctx := context.Background()
	existing := suite.grossSplitTemplate()

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, existing.Name).Return(existing, nil).Once()

	_, err := suite.service.CreateTemplate(ctx, dto.CreateTemplateRequest{
		Name:  existing.Name,
		Lines: []dto.TemplateLineRequest{{AccountPath: "Ausgaben : Büro", AmountType: "FIXED"}},
	}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrTemplateNameExists)
	suite.mockTemplateRepo.AssertNotCalled(suite.T(), "SaveTemplate", mock.Anything, mock.Anything)
}

func (suite *TemplateServiceTestSuite) TestCreateTemplateVersion_Increments() {
	ctx := context.Background()
	existing := suite.grossSplitTemplate()
	existing.Version = 3

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, existing.Name).Return(existing, nil).Once()

	var saved domain.Template
	suite.mockTemplateRepo.On("SaveTemplate", ctx, mock.AnythingOfType("domain.Template")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Template) }).
		Return(nil).Once()

	template, err := suite.service.CreateTemplateVersion(ctx, existing.Name, dto.CreateTemplateRequest{
		Name:         existing.Name,
		CurrencyCode: "EUR",
		Lines: []dto.TemplateLineRequest{
			{AccountPath: "Ausgaben : Büro", AmountType: "FIXED", AmountValue: decimal.NewFromInt(50)},
			{AccountPath: "Vermögen : Bank", AmountType: "FIXED", AmountValue: decimal.NewFromInt(-50)},
		},
	}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(4, template.Version)
	suite.Equal(4, saved.Version)
	suite.NotEqual(existing.TemplateID, saved.TemplateID)
	suite.mockTemplateRepo.AssertExpectations(suite.T())
}

// --- Apply ---

func (suite *TemplateServiceTestSuite) TestApplyTemplate_PercentageSplit() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	entryReq, err := suite.service.ApplyTemplate(ctx, template.Name, 0, suite.applyRequest("100,00"))

	suite.Require().NoError(err)
	suite.Require().Len(entryReq.Positions, 3)
	suite.Equal("100", entryReq.Positions[0].Amount)
	suite.Equal("19", entryReq.Positions[1].Amount)
	suite.Equal("-119", entryReq.Positions[2].Amount)
	suite.Equal("Monatlicher Einkauf", entryReq.Description)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplate_SpecificVersion() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()
	template.Version = 2

	suite.mockTemplateRepo.On("FindTemplate", ctx, template.Name, 2).Return(template, nil).Once()

	_, err := suite.service.ApplyTemplate(ctx, template.Name, 2, suite.applyRequest("50,00"))

	suite.Require().NoError(err)
	suite.mockTemplateRepo.AssertExpectations(suite.T())
}

func (suite *TemplateServiceTestSuite) TestApplyTemplate_RoundingResidualBalances() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()
	template.Lines[0].AmountValue = decimal.NewFromInt(33)
	template.Lines[1].AmountValue = decimal.NewFromInt(33)
	template.Lines[2].AmountValue = decimal.NewFromInt(-66)

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	entryReq, err := suite.service.ApplyTemplate(ctx, template.Name, 0, suite.applyRequest("0,10"))

	suite.Require().NoError(err)
	var sum int64
	for _, pos := range entryReq.Positions {
		amount, perr := money.Parse(pos.Amount, pos.Currency)
		suite.Require().NoError(perr)
		sum += amount.MinorUnits()
	}
	suite.Equal(int64(0), sum)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplate_InactiveVersion() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()
	template.Active = false

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	_, err := suite.service.ApplyTemplate(ctx, template.Name, 0, suite.applyRequest("100,00"))

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrTemplateNotActive)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplate_PercentageWithoutTotal() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	req := dto.ApplyTemplateRequest{Date: time.Now().UTC(), Description: "Ohne Summe"}
	_, err := suite.service.ApplyTemplate(ctx, template.Name, 0, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrTemplateTotalNeeded)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplate_DefaultTotalFallback() {
	ctx := context.Background()
	template := suite.grossSplitTemplate()
	defaultTotal := money.FromMinorUnits(20000, "EUR")
	template.DefaultTotal = &defaultTotal

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	req := dto.ApplyTemplateRequest{Date: time.Now().UTC(), Description: "Mit Standardsumme"}
	entryReq, err := suite.service.ApplyTemplate(ctx, template.Name, 0, req)

	suite.Require().NoError(err)
	suite.Equal("200", entryReq.Positions[0].Amount)
	suite.Equal("38", entryReq.Positions[1].Amount)
	suite.Equal("-238", entryReq.Positions[2].Amount)
}

// --- Apply with fractions ---

func (suite *TemplateServiceTestSuite) fractionTemplate() *domain.Template {
	template := suite.grossSplitTemplate()
	half := decimal.RequireFromString("0.5")
	minusOne := decimal.NewFromInt(-1)
	template.Lines[0].Fraction = &half
	template.Lines[1].Fraction = &half
	template.Lines[2].Fraction = &minusOne
	return template
}

func (suite *TemplateServiceTestSuite) TestApplyTemplateWithFractions_Success() {
	ctx := context.Background()
	template := suite.fractionTemplate()

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	entryReq, err := suite.service.ApplyTemplateWithFractions(ctx, template.Name, 0, suite.applyRequest("100,00"))

	suite.Require().NoError(err)
	suite.Require().Len(entryReq.Positions, 3)
	suite.Equal("50", entryReq.Positions[0].Amount)
	suite.Equal("50", entryReq.Positions[1].Amount)
	suite.Equal("-100", entryReq.Positions[2].Amount)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplateWithFractions_MissingFraction() {
	ctx := context.Background()
	template := suite.fractionTemplate()
	template.Lines[1].Fraction = nil

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	_, err := suite.service.ApplyTemplateWithFractions(ctx, template.Name, 0, suite.applyRequest("100,00"))

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrLineFractionMissing)
}

func (suite *TemplateServiceTestSuite) TestApplyTemplateWithFractions_TotalRequired() {
	ctx := context.Background()
	template := suite.fractionTemplate()

	suite.mockTemplateRepo.On("FindLatestTemplateVersion", ctx, template.Name).Return(template, nil).Once()

	req := dto.ApplyTemplateRequest{Date: time.Now().UTC(), Description: "Ohne Summe"}
	_, err := suite.service.ApplyTemplateWithFractions(ctx, template.Name, 0, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrTemplateTotalNeeded)
}

// --- Toggle active ---

func (suite *TemplateServiceTestSuite) TestSetTemplateActive() {
	ctx := context.Background()

	suite.mockTemplateRepo.On("SetTemplateActive", ctx, "Miete", 2, false, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.SetTemplateActive(ctx, "Miete", 2, false, suite.userID)

	suite.Require().NoError(err)
	suite.mockTemplateRepo.AssertExpectations(suite.T())
}

func TestTemplateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TemplateServiceTestSuite))
}
