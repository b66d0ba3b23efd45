package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	portsrepo "github.com/fibukit/fibu_backend/internal/core/ports/repositories"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/core/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByPath(ctx context.Context, path string) (*domain.Account, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByPaths(ctx context.Context, paths []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

// --- Test Suite Setup ---
type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo *MockAccountRepository
	service         portssvc.AccountSvcFacade
	userID          string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo, config.LedgerConfig{
		MaxAccountDepth: 6,
		DefaultCurrency: "EUR",
	})
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_NormalizesPath() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{Path: "Ausgaben:Büro:  Material", Description: "Verbrauchsmaterial"}

	suite.mockAccountRepo.On("FindAccountByPath", ctx, "Ausgaben : Büro : Material").Return(nil, apperrors.ErrNotFound).Once()

	var saved domain.Account
	suite.mockAccountRepo.On("SaveAccount", ctx, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Account) }).
		Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, req, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("Ausgaben : Büro : Material", account.Path)
	suite.Equal("Ausgaben : Büro : Material", saved.Path)
	suite.True(saved.IsActive)
	suite.Equal(suite.userID, saved.CreatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_DuplicatePath() {
	ctx := context.Background()
	existing := &domain.Account{AccountID: uuid.NewString(), Path: "Ausgaben : Büro", IsActive: true}

	suite.mockAccountRepo.On("FindAccountByPath", ctx, "Ausgaben : Büro").Return(existing, nil).Once()

	_, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Path: "Ausgaben : Büro"}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_EmptySegment() {
	ctx := context.Background()

	_, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Path: "Ausgaben::Büro"}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestCreateAccount_TooDeep() {
	ctx := context.Background()

	_, err := suite.service.CreateAccount(ctx, dto.CreateAccountRequest{Path: "a : b : c : d : e : f : g"}, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestGetAccountByPath_Normalizes() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), Path: "Vermögen : Bank", IsActive: true}

	suite.mockAccountRepo.On("FindAccountByPath", ctx, "Vermögen : Bank").Return(account, nil).Once()

	got, err := suite.service.GetAccountByPath(ctx, "Vermögen:Bank")

	suite.Require().NoError(err)
	suite.Equal(account.AccountID, got.AccountID)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestResolveAccounts_PartitionsAndDedupes() {
	ctx := context.Background()
	bank := domain.Account{AccountID: uuid.NewString(), Path: "Vermögen : Bank", IsActive: true}

	suite.mockAccountRepo.On("FindAccountsByPaths", ctx, []string{"Vermögen : Bank", "Ausgaben : Reisen"}).
		Return(map[string]domain.Account{bank.Path: bank}, nil).Once()

	found, missing, err := suite.service.ResolveAccounts(ctx, []string{"Vermögen:Bank", "Vermögen : Bank", "Ausgaben : Reisen"})

	suite.Require().NoError(err)
	suite.Len(found, 1)
	suite.Contains(found, bank.Path)
	suite.Equal([]string{"Ausgaben : Reisen"}, missing)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_AlreadyInactive() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), Path: "Ausgaben : Alt", IsActive: false}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	err := suite.service.DeactivateAccount(ctx, account.AccountID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAccountAlreadyInactive)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "DeactivateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestDeactivateAccount_Success() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), Path: "Ausgaben : Alt", IsActive: true}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockAccountRepo.On("DeactivateAccount", ctx, account.AccountID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.DeactivateAccount(ctx, account.AccountID, suite.userID)

	suite.Require().NoError(err)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_DescriptionOnly() {
	ctx := context.Background()
	account := &domain.Account{AccountID: uuid.NewString(), Path: "Vermögen : Bank", Description: "alt", IsActive: true}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	var updated domain.Account
	suite.mockAccountRepo.On("UpdateAccount", ctx, mock.AnythingOfType("domain.Account")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(domain.Account) }).
		Return(nil).Once()

	newDesc := "Hausbank Girokonto"
	got, err := suite.service.UpdateAccount(ctx, account.AccountID, dto.UpdateAccountRequest{Description: &newDesc}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal(newDesc, got.Description)
	suite.Equal("Vermögen : Bank", updated.Path)
	suite.Equal(suite.userID, updated.LastUpdatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
