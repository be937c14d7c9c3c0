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

	"github.com/SscSPs/invoice_registry/internal/apperrors"
	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/dto"
	"github.com/SscSPs/invoice_registry/internal/handlers"
	"github.com/SscSPs/invoice_registry/internal/middleware"
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock SeriesService ---
type MockSeriesService struct {
	mock.Mock
}

func (m *MockSeriesService) GetSeries(ctx context.Context, key domain.SeriesKey) (*domain.SeriesCounter, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeriesCounter), args.Error(1)
}
func (m *MockSeriesService) ListSeries(ctx context.Context, params dto.ListSeriesParams) ([]domain.SeriesCounter, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SeriesCounter), args.Error(1)
}
func (m *MockSeriesService) Preview(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}
func (m *MockSeriesService) ResolveKey(ctx context.Context, prefix string, seriesType domain.SeriesType, ownerScope string, issueDate time.Time) (domain.SeriesKey, error) {
	args := m.Called(ctx, prefix, seriesType, ownerScope, issueDate)
	return args.Get(0).(domain.SeriesKey), args.Error(1)
}
func (m *MockSeriesService) CreateSeries(ctx context.Context, req dto.CreateSeriesRequest, creatorUserID string) (*domain.SeriesCounter, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeriesCounter), args.Error(1)
}
func (m *MockSeriesService) DeactivateSeries(ctx context.Context, key domain.SeriesKey, userID string) error {
	args := m.Called(ctx, key, userID)
	return args.Error(0)
}
func (m *MockSeriesService) Allocate(ctx context.Context, key domain.SeriesKey) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSeriesService) AllocateFiscalNumber(ctx context.Context, key domain.SeriesKey) (*domain.Allocation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.SeriesSvcFacade = (*MockSeriesService)(nil)

// --- Mock InvoiceService ---
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) CreateDraft(ctx context.Context, req dto.CreateInvoiceRequest, creatorUserID string) (*domain.Invoice, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) UpdateDraft(ctx context.Context, invoiceID string, req dto.UpdateInvoiceRequest, userID string) (*domain.Invoice, error) {
	args := m.Called(ctx, invoiceID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
func (m *MockInvoiceService) Finalize(ctx context.Context, invoiceID string, userID string) (*domain.Invoice, *domain.RegistryEntry, error) {
	args := m.Called(ctx, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Invoice), args.Get(1).(*domain.RegistryEntry), args.Error(2)
}

var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)

// --- Mock RegistryService ---
type MockRegistryService struct {
	mock.Mock
}

func (m *MockRegistryService) GetEntry(ctx context.Context, entryID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}
func (m *MockRegistryService) GetEntryByInvoice(ctx context.Context, invoiceID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}
func (m *MockRegistryService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListEntriesResponse), args.Error(1)
}
func (m *MockRegistryService) VerifyChain(ctx context.Context, scope string) (*domain.VerificationResult, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationResult), args.Error(1)
}
func (m *MockRegistryService) Register(ctx context.Context, invoiceID string, userID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, invoiceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}
func (m *MockRegistryService) Cancel(ctx context.Context, invoiceID string, reason string, userID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, invoiceID, reason, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}

var _ portssvc.RegistrySvcFacade = (*MockRegistryService)(nil)

// --- Mock SubmissionService ---
type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, entryID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}
func (m *MockSubmissionService) IsRetryable(entry domain.RegistryEntry) bool {
	return m.Called(entry).Bool(0)
}
func (m *MockSubmissionService) NextAttemptAt(entry domain.RegistryEntry) time.Time {
	return m.Called(entry).Get(0).(time.Time)
}
func (m *MockSubmissionService) ReleaseForRetry(ctx context.Context, entryID string, userID string) (*domain.RegistryEntry, error) {
	args := m.Called(ctx, entryID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegistryEntry), args.Error(1)
}
func (m *MockSubmissionService) SubmitDue(ctx context.Context, limit int) (domain.SweepReport, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).(domain.SweepReport), args.Error(1)
}
func (m *MockSubmissionService) RecoverStale(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

var _ portssvc.SubmissionSvcFacade = (*MockSubmissionService)(nil)

const testPayload = "version=v1&kind=REGISTRATION&issuer=B12345674&number=F2025-000001&issued=15-01-2025&operated=" +
	"&type=INVOICE&recipient=&recipientName=&lines=&totalTax=0.00&total=121.00&ref=&registered=2025-01-15T10%3A30%3A00Z"

// --- Test Suite ---
type RegistryHandlersTestSuite struct {
	suite.Suite
	router         *gin.Engine
	mockSeries     *MockSeriesService
	mockInvoice    *MockInvoiceService
	mockRegistry   *MockRegistryService
	mockSubmission *MockSubmissionService
	jwtSecret      string
	userID         string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *RegistryHandlersTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "registry-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (suite *RegistryHandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()

	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.userID = uuid.NewString()
	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))

	suite.mockSeries = new(MockSeriesService)
	suite.mockInvoice = new(MockInvoiceService)
	suite.mockRegistry = new(MockRegistryService)
	suite.mockSubmission = new(MockSubmissionService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterSeriesRoutes(v1, suite.mockSeries)
	handlers.RegisterInvoiceRoutes(v1, suite.mockInvoice, suite.mockRegistry)
	handlers.RegisterRegistryRoutes(v1, suite.mockRegistry, suite.mockSubmission, handlers.RegistryRouteConfig{
		QRBaseURL:  "https://validate.example.test/qr",
		SweepBatch: 50,
		StaleAfter: 10 * time.Minute,
	})
}

func (suite *RegistryHandlersTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(suite.userID))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RegistryHandlersTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body["code"]
}

func sampleEntry() *domain.RegistryEntry {
	return &domain.RegistryEntry{
		EntryID:          uuid.NewString(),
		ChainScope:       "B12345674",
		RegistryNumber:   1,
		Kind:             domain.EntryRegistration,
		InvoiceID:        uuid.NewString(),
		FiscalNumber:     "F2025-000001",
		RegistryDate:     time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Hash:             "ABC",
		PreviousHash:     "0000",
		CanonicalPayload: []byte(testPayload),
		ChainVersion:     "v1",
		Submission:       domain.SubmissionState{Status: domain.SubmissionPending},
	}
}

// --- Test Cases ---

func (suite *RegistryHandlersTestSuite) TestRequestWithoutToken_Unauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/series", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *RegistryHandlersTestSuite) TestCreateSeries_Success() {
	req := dto.CreateSeriesRequest{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025}
	key := domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025}
	counter, err := domain.NewSeriesCounter(key, 1, "", true, suite.userID, time.Now())
	suite.Require().NoError(err)

	suite.mockSeries.On("CreateSeries", mock.Anything, req, suite.userID).Return(&counter, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/series", req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.SeriesResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("F", resp.Prefix)
	suite.Equal(int64(0), resp.LastNumber)
	suite.mockSeries.AssertExpectations(suite.T())
}

func (suite *RegistryHandlersTestSuite) TestCreateSeries_BindingError() {
	w := suite.do(http.MethodPost, "/api/v1/series", map[string]any{"prefix": "F"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockSeries.AssertNotCalled(suite.T(), "CreateSeries")
}

func (suite *RegistryHandlersTestSuite) TestAllocate_ExhaustedIsConflict() {
	key := domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025}
	suite.mockSeries.On("AllocateFiscalNumber", mock.Anything, key).
		Return(nil, apperrors.Newf(apperrors.ErrSeriesExhausted, "F/INVOICE/2025/ reached 999999")).Once()

	w := suite.do(http.MethodPost, "/api/v1/series/allocate", dto.SeriesKeyQuery{Prefix: "F", SeriesType: "INVOICE", FiscalYear: 2025})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("SERIES_EXHAUSTED", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestPreview_SeriesNotFound() {
	key := domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2026}
	suite.mockSeries.On("Preview", mock.Anything, key).Return(nil, apperrors.ErrSeriesNotFound).Once()

	w := suite.do(http.MethodGet, "/api/v1/series/preview?prefix=F&seriesType=INVOICE&fiscalYear=2026", nil)

	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("SERIES_NOT_FOUND", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestCreateInvoice_RejectsInvalidTaxID() {
	body := map[string]any{
		"prefix":      "F",
		"seriesType":  "INVOICE",
		"issuerTaxId": "B12345670",
		"issuerName":  "Acme SL",
		"issueDate":   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	w := suite.do(http.MethodPost, "/api/v1/invoices", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockInvoice.AssertNotCalled(suite.T(), "CreateDraft")
}

func (suite *RegistryHandlersTestSuite) TestCreateInvoice_RejectsSubCentAmounts() {
	body := map[string]any{
		"prefix":      "F",
		"seriesType":  "INVOICE",
		"issuerTaxId": "B12345674",
		"issuerName":  "Acme SL",
		"issueDate":   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		"taxLines": []map[string]string{
			{"rate": "21", "base": "100.001", "quota": "21"},
		},
		"totalTax":    "21",
		"totalAmount": "121.001",
	}
	w := suite.do(http.MethodPost, "/api/v1/invoices", body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockInvoice.AssertNotCalled(suite.T(), "CreateDraft")
}

func (suite *RegistryHandlersTestSuite) TestUpdateInvoice_ImmutableIsConflict() {
	invoiceID := uuid.NewString()
	suite.mockInvoice.On("UpdateDraft", mock.Anything, invoiceID, mock.Anything, suite.userID).
		Return(nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrImmutableInvoice)).Once()

	w := suite.do(http.MethodPut, "/api/v1/invoices/"+invoiceID, map[string]any{
		"issuerName":  "Acme SL",
		"issueDate":   time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		"totalAmount": decimal.NewFromInt(121),
	})

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("IMMUTABLE_INVOICE", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestFinalizeInvoice_Success() {
	entry := sampleEntry()
	num := int64(1)
	inv := &domain.Invoice{
		InvoiceID:    entry.InvoiceID,
		Series:       domain.SeriesKey{Prefix: "F", SeriesType: domain.SeriesInvoice, FiscalYear: 2025},
		Number:       num,
		FiscalNumber: "F2025-000001",
		Status:       domain.InvoiceIssued,
		IssuerTaxID:  "B12345674",
		IsImmutable:  true,
	}
	suite.mockInvoice.On("Finalize", mock.Anything, entry.InvoiceID, suite.userID).Return(inv, entry, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/invoices/"+entry.InvoiceID+"/finalize", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.FinalizeInvoiceResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.Invoice.IsImmutable)
	suite.Equal(entry.EntryID, resp.Entry.EntryID)
	suite.Equal("PENDING", resp.Entry.SubmissionStatus)
}

func (suite *RegistryHandlersTestSuite) TestFinalizeInvoice_TailConflictAsksForRetry() {
	invoiceID := uuid.NewString()
	suite.mockInvoice.On("Finalize", mock.Anything, invoiceID, suite.userID).
		Return(nil, nil, apperrors.ErrConcurrentTailConflict).Once()

	w := suite.do(http.MethodPost, "/api/v1/invoices/"+invoiceID+"/finalize", nil)

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	suite.Equal("1", w.Header().Get("Retry-After"))
	suite.Equal("CONCURRENT_TAIL_CONFLICT", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestRegisterInvoice_DraftIsNotFinal() {
	invoiceID := uuid.NewString()
	suite.mockRegistry.On("Register", mock.Anything, invoiceID, suite.userID).
		Return(nil, apperrors.ErrInvoiceNotFinal).Once()

	w := suite.do(http.MethodPost, "/api/v1/invoices/"+invoiceID+"/register", nil)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
	suite.Equal("INVOICE_NOT_FINAL", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestGetRegistration() {
	entry := sampleEntry()
	suite.mockRegistry.On("GetEntryByInvoice", mock.Anything, entry.InvoiceID).Return(entry, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/invoices/"+entry.InvoiceID+"/registration", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.RegistryEntryResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(entry.Hash, resp.Hash)
	suite.Equal(entry.RegistryNumber, resp.RegistryNumber)
}

func (suite *RegistryHandlersTestSuite) TestCancelInvoice_PassesReason() {
	entry := sampleEntry()
	entry.Kind = domain.EntryCancellation
	suite.mockRegistry.On("Cancel", mock.Anything, entry.InvoiceID, "duplicated by mistake", suite.userID).Return(entry, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/invoices/"+entry.InvoiceID+"/cancel", dto.CancelInvoiceRequest{Reason: "duplicated by mistake"})

	suite.Equal(http.StatusCreated, w.Code)
	suite.mockRegistry.AssertExpectations(suite.T())
}

func (suite *RegistryHandlersTestSuite) TestGetEntry_UnknownErrorIsHidden() {
	entryID := uuid.NewString()
	suite.mockRegistry.On("GetEntry", mock.Anything, entryID).Return(nil, errors.New("connection reset by peer")).Once()

	w := suite.do(http.MethodGet, "/api/v1/registry/entries/"+entryID, nil)

	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.NotContains(w.Body.String(), "connection reset")
}

func (suite *RegistryHandlersTestSuite) TestGetEntryQR_ReturnsPNG() {
	entry := sampleEntry()
	suite.mockRegistry.On("GetEntry", mock.Anything, entry.EntryID).Return(entry, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/registry/entries/"+entry.EntryID+"/qr", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("image/png", w.Header().Get("Content-Type"))
	suite.True(bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	suite.Contains(w.Header().Get("X-Validation-URL"), "nif=B12345674")
}

func (suite *RegistryHandlersTestSuite) TestGetEntryQR_InvalidSize() {
	w := suite.do(http.MethodGet, "/api/v1/registry/entries/"+uuid.NewString()+"/qr?size=10", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRegistry.AssertNotCalled(suite.T(), "GetEntry")
}

func (suite *RegistryHandlersTestSuite) TestVerifyChain_ReportsBreak() {
	suite.mockRegistry.On("VerifyChain", mock.Anything, "B12345674").Return(&domain.VerificationResult{
		ChainScope:           "B12345674",
		OK:                   false,
		EntriesChecked:       3,
		BrokenRegistryNumber: 2,
		Reason:               "hash mismatch",
	}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/registry/verify?scope=B12345674", nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.VerificationResponse
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.False(resp.OK)
	suite.Equal(int64(2), resp.BrokenRegistryNumber)
}

func (suite *RegistryHandlersTestSuite) TestVerifyChain_ScopeRequired() {
	w := suite.do(http.MethodGet, "/api/v1/registry/verify", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *RegistryHandlersTestSuite) TestSubmitEntry_InFlight() {
	entryID := uuid.NewString()
	suite.mockSubmission.On("Submit", mock.Anything, entryID).Return(nil, apperrors.ErrSubmissionInFlight).Once()

	w := suite.do(http.MethodPost, "/api/v1/registry/entries/"+entryID+"/submit", nil)

	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("SUBMISSION_IN_FLIGHT", suite.errorCode(w))
}

func (suite *RegistryHandlersTestSuite) TestReleaseEntry_Success() {
	entry := sampleEntry()
	entry.Submission = domain.SubmissionState{Status: domain.SubmissionError, Attempts: 5}
	suite.mockSubmission.On("ReleaseForRetry", mock.Anything, entry.EntryID, suite.userID).Return(entry, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/registry/entries/"+entry.EntryID+"/release", nil)

	suite.Equal(http.StatusOK, w.Code)
	suite.mockSubmission.AssertExpectations(suite.T())
}

func (suite *RegistryHandlersTestSuite) TestSweep_RecoversThenSubmits() {
	suite.mockSubmission.On("RecoverStale", mock.Anything, 10*time.Minute).Return(2, nil).Once()
	suite.mockSubmission.On("SubmitDue", mock.Anything, 50).Return(domain.SweepReport{Picked: 3, Accepted: 3}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/registry/submissions/sweep", nil)

	suite.Equal(http.StatusOK, w.Code)
	var report domain.SweepReport
	suite.NoError(json.Unmarshal(w.Body.Bytes(), &report))
	suite.Equal(2, report.Recovered)
	suite.Equal(3, report.Accepted)
}

// --- Run Test Suite ---
func TestRegistryHandlers(t *testing.T) {
	suite.Run(t, new(RegistryHandlersTestSuite))
}
