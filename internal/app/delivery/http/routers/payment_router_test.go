package routers

import (
	"bytes"
	"context"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/delivery/http/controllers"
	"maternity-service/internal/app/delivery/http/middlewares"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/dto/responses"
	"maternity-service/internal/pkg/exceptions"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPaymentUsecase struct {
	mock.Mock
}

func (m *MockPaymentUsecase) StartPayment(ctx context.Context, request *requests.StartPayment) (models.WorkflowHandle, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(models.WorkflowHandle), args.Error(1)
}

func (m *MockPaymentUsecase) OnSettled(handle models.WorkflowHandle, callback func(models.SettlementOutcome)) error {
	args := m.Called(handle, callback)
	return args.Error(0)
}

func (m *MockPaymentUsecase) Cancel(ctx context.Context, handle models.WorkflowHandle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func (m *MockPaymentUsecase) GetPaymentStatus(ctx context.Context, intentID string) (*responses.PaymentStatus, error) {
	args := m.Called(ctx, intentID)
	status, _ := args.Get(0).(*responses.PaymentStatus)
	return status, args.Error(1)
}

func (m *MockPaymentUsecase) ListPaymentRecords(ctx context.Context, request *requests.ListPaymentRecords) ([]responses.PaymentRecord, error) {
	args := m.Called(ctx, request)
	records, _ := args.Get(0).([]responses.PaymentRecord)
	return records, args.Error(1)
}

func (m *MockPaymentUsecase) FindPaymentRecordByReceipt(ctx context.Context, receiptNumber string) (*responses.PaymentRecord, error) {
	args := m.Called(ctx, receiptNumber)
	record, _ := args.Get(0).(*responses.PaymentRecord)
	return record, args.Error(1)
}

func (m *MockPaymentUsecase) HasLiveWorkflow(intentID string) bool {
	return m.Called(intentID).Bool(0)
}

func (m *MockPaymentUsecase) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newPaymentTestRouter(usecase *MockPaymentUsecase) *chi.Mux {
	logger := zap.NewNop()
	middlewareInstance := &middlewares.Middlewares{
		Log: logger,
		InternalConfig: &config.InternalConfig{
			App: config.App{RequestBodyLimitInMegabyte: 1},
		},
	}
	paymentController := controllers.NewPaymentController(logger, usecase)

	router := chi.NewRouter()
	router.Use(middlewareInstance.RequestIDMiddleware)
	attachPaymentRoutes(router, middlewareInstance, paymentController)
	return router
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestPaymentRouter_StartPayment(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newPaymentTestRouter(usecase)

		usecase.On("StartPayment", mock.Anything, mock.MatchedBy(func(r *requests.StartPayment) bool {
			return r.Purpose == "registration" && r.Amount.Equal(decimal.NewFromInt(5))
		})).Return(models.WorkflowHandle{IntentID: "intent-1", State: models.WorkflowStateIdle}, nil)

		body := []byte(`{"amount":"5.00","msisdn":"0771234567","purpose":"registration","subject_id":"patient-a"}`)
		req := httptest.NewRequest("POST", "/", bytes.NewBuffer(body))
		req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		data := decodeBody(t, rr)["data"].(map[string]interface{})
		assert.Equal(t, "intent-1", data["intent_id"])
		usecase.AssertExpectations(t)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newPaymentTestRouter(usecase)

		req := httptest.NewRequest("POST", "/", bytes.NewBufferString("{not json"))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		usecase.AssertNotCalled(t, "StartPayment", mock.Anything, mock.Anything)
	})

	t.Run("Already In Progress", func(t *testing.T) {
		usecase := new(MockPaymentUsecase)
		router := newPaymentTestRouter(usecase)

		usecase.On("StartPayment", mock.Anything, mock.Anything).
			Return(models.WorkflowHandle{}, exceptions.ErrPaymentAlreadyInProgress("registration:patient-a"))

		body := []byte(`{"amount":"5.00","msisdn":"0771234567","purpose":"registration","subject_id":"patient-a"}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, false, decodeBody(t, rr)["success"])
	})
}

func TestPaymentRouter_StatusAndCancel(t *testing.T) {
	usecase := new(MockPaymentUsecase)
	router := newPaymentTestRouter(usecase)

	usecase.On("GetPaymentStatus", mock.Anything, "intent-1").Return(&responses.PaymentStatus{
		IntentID: "intent-1",
		State:    string(models.WorkflowStateAwaitingConfirmation),
		Polls:    3,
	}, nil)
	usecase.On("GetPaymentStatus", mock.Anything, "missing").Return(nil, exceptions.ErrPaymentNotFound("missing"))
	usecase.On("Cancel", mock.Anything, models.WorkflowHandle{IntentID: "intent-1"}).Return(nil)
	usecase.On("Cancel", mock.Anything, models.WorkflowHandle{IntentID: "intent-2"}).Return(exceptions.ErrPaymentAlreadySettled("intent-2"))

	t.Run("Status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/intent-1", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeBody(t, rr)["data"].(map[string]interface{})
		assert.Equal(t, float64(3), data["polls"])
	})

	t.Run("Status Not Found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/missing", nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/intent-1/cancel", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Cancel Settled", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("POST", "/intent-2/cancel", nil))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	usecase.AssertExpectations(t)
}

func TestPaymentRouter_Records(t *testing.T) {
	usecase := new(MockPaymentUsecase)
	router := newPaymentTestRouter(usecase)

	record := responses.PaymentRecord{ID: "pay-1", PatientID: "patient-a", ReceiptNumber: "MTRN-20240310-ABC"}
	usecase.On("ListPaymentRecords", mock.Anything, &requests.ListPaymentRecords{PatientID: "patient-a"}).
		Return([]responses.PaymentRecord{record}, nil)
	usecase.On("FindPaymentRecordByReceipt", mock.Anything, "MTRN-20240310-ABC").Return(&record, nil)

	t.Run("List By Patient", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/records?patient_id=patient-a", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeBody(t, rr)["data"], 1)
	})

	t.Run("By Receipt", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", "/records/MTRN-20240310-ABC", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		data := decodeBody(t, rr)["data"].(map[string]interface{})
		assert.Equal(t, "pay-1", data["id"])
	})

	usecase.AssertExpectations(t)
}
