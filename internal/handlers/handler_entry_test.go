package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fibukit/fibu_backend/internal/apperrors"
	"github.com/fibukit/fibu_backend/internal/core/domain"
	portssvc "github.com/fibukit/fibu_backend/internal/core/ports/services"
	"github.com/fibukit/fibu_backend/internal/core/services"
	"github.com/fibukit/fibu_backend/internal/dto"
	"github.com/fibukit/fibu_backend/internal/handlers"
	"github.com/fibukit/fibu_backend/internal/middleware"
	"github.com/fibukit/fibu_backend/internal/platform/config"
)

// --- Mock EntryService ---
type MockEntryService struct {
	mock.Mock
}

var _ portssvc.EntrySvcFacade = (*MockEntryService)(nil)

func (m *MockEntryService) GetEntryByID(ctx context.Context, entryID string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}

func (m *MockEntryService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.Entry, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryService) UpdateEntry(ctx context.Context, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryService) DeleteEntry(ctx context.Context, entryID string, userID string) error {
	args := m.Called(ctx, entryID, userID)
	return args.Error(0)
}

func (m *MockEntryService) PostEntry(ctx context.Context, entryID string, actingUserID string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

func (m *MockEntryService) VoidEntry(ctx context.Context, entryID string, actingUserID string, reason string) (*domain.Entry, error) {
	args := m.Called(ctx, entryID, actingUserID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Entry), args.Error(1)
}

// --- Test Suite Setup ---
type EntryHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockEntrySvc *MockEntryService
}

func (suite *EntryHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockEntrySvc = new(MockEntryService)

	cfg := &config.Config{Ledger: config.LedgerConfig{MaxAccountDepth: 6, DefaultCurrency: "EUR"}}
	suite.router = gin.New()
	suite.router.Use(middleware.IdentityMiddleware())
	handlers.RegisterRoutes(suite.router, cfg, &portssvc.ServiceContainer{Entry: suite.mockEntrySvc})
}

func (suite *EntryHandlerTestSuite) jsonRequest(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Acting-User", "tester")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func validCreateRequest() dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		Date:        time.Now().UTC(),
		Description: "Büromaterial eingekauft",
		Positions: []dto.CreatePositionRequest{
			{AccountPath: "Ausgaben : Büro", Amount: "119,00", Currency: "EUR"},
			{AccountPath: "Vermögen : Bank", Amount: "-119,00", Currency: "EUR"},
		},
	}
}

func (suite *EntryHandlerTestSuite) TestCreateEntry_Success() {
	entry := &domain.Entry{EntryID: uuid.NewString(), Status: domain.Draft, Version: 1}
	suite.mockEntrySvc.On("CreateEntry", mock.Anything, mock.AnythingOfType("dto.CreateEntryRequest"), mock.AnythingOfType("string")).Return(entry, nil).Once()

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries", validCreateRequest())

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(entry.EntryID, resp.EntryID)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestCreateEntry_InvalidAccountPathRejectedByBinding() {
	req := validCreateRequest()
	req.Positions[0].AccountPath = "Ausgaben::Büro"

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestCreateEntry_SinglePositionRejectedByBinding() {
	req := validCreateRequest()
	req.Positions = req.Positions[:1]

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries", req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "CreateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestGetEntry_NotFound() {
	entryID := uuid.NewString()
	suite.mockEntrySvc.On("GetEntryByID", mock.Anything, entryID).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.jsonRequest(http.MethodGet, "/api/v1/entries/"+entryID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *EntryHandlerTestSuite) TestPostEntry_AlreadyPostedConflict() {
	entryID := uuid.NewString()
	suite.mockEntrySvc.On("PostEntry", mock.Anything, entryID, "tester").
		Return(nil, fmt.Errorf("%w: status is POSTED", services.ErrAlreadyPosted)).Once()

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries/"+entryID+"/post", nil)

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *EntryHandlerTestSuite) TestVoidEntry_Success() {
	entryID := uuid.NewString()
	reversal := &domain.Entry{EntryID: uuid.NewString(), Status: domain.Posted, Description: "Storno: Büromaterial eingekauft"}
	suite.mockEntrySvc.On("VoidEntry", mock.Anything, entryID, "tester", "Falsche Buchung").Return(reversal, nil).Once()

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries/"+entryID+"/void", dto.VoidEntryRequest{Reason: "Falsche Buchung"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.EntryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(reversal.EntryID, resp.EntryID)
	suite.mockEntrySvc.AssertExpectations(suite.T())
}

func (suite *EntryHandlerTestSuite) TestVoidEntry_MissingReason() {
	entryID := uuid.NewString()

	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries/"+entryID+"/void", map[string]string{})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockEntrySvc.AssertNotCalled(suite.T(), "VoidEntry", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *EntryHandlerTestSuite) TestUnbalancedEntryRejected() {
	suite.mockEntrySvc.On("CreateEntry", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: EUR", services.ErrEntryNotBalanced)).Once()

	req := validCreateRequest()
	req.Positions[1].Amount = "-100,00"
	w := suite.jsonRequest(http.MethodPost, "/api/v1/entries", req)

	suite.Equal(http.StatusBadRequest, w.Code)
}

func TestEntryHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(EntryHandlerTestSuite))
}
