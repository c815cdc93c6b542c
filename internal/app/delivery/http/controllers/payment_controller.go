package controllers

import (
	"context"
	"errors"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/dto/requests"
	"maternity-service/internal/pkg/dto/responses"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const paymentRequestTimeout = 10 * time.Second

type PaymentController struct {
	Log            *zap.Logger
	PaymentUsecase contracts.PaymentUsecase
}

func NewPaymentController(logger *zap.Logger, paymentUsecase contracts.PaymentUsecase) *PaymentController {
	return &PaymentController{
		Log:            logger,
		PaymentUsecase: paymentUsecase,
	}
}

// StartPayment pushes an EcoCash prompt to the payer. The response only
// acknowledges the start; the outcome is read from GetPaymentStatus.
func (ctrl *PaymentController) StartPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID, ok := ctrl.requestID(w, r)
	if !ok {
		return
	}

	request := new(requests.StartPayment)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		ctrl.Log.Error("PaymentController.StartPayment error parsing request body",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorTypeKey, "JSON parsing"),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentRequestTimeout)
	defer cancel()

	handle, err := ctrl.PaymentUsecase.StartPayment(ctx, request)
	if err != nil {
		ctrl.Log.Error("PaymentController.StartPayment error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
			zap.Error(err),
		)
		ctrl.buildErrorResponse(w, err)
		return
	}

	ctrl.Log.Info("PaymentController.StartPayment succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, handle.IntentID),
		zap.Duration(constvars.LoggingDurationKey, time.Since(start)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusAccepted, constvars.PaymentStartedSuccessfully, responses.StartPayment{
		IntentID: handle.IntentID,
		State:    string(handle.State),
	})
}

func (ctrl *PaymentController) GetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requestID(w, r)
	if !ok {
		return
	}
	intentID := chi.URLParam(r, constvars.URLParamIntentID)

	ctx, cancel := context.WithTimeout(r.Context(), paymentRequestTimeout)
	defer cancel()

	status, err := ctrl.PaymentUsecase.GetPaymentStatus(ctx, intentID)
	if err != nil {
		ctrl.Log.Error("PaymentController.GetPaymentStatus error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingIntentIDKey, intentID),
			zap.Error(err),
		)
		ctrl.buildErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentStatusFetchedSuccessfully, status)
}

func (ctrl *PaymentController) CancelPayment(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requestID(w, r)
	if !ok {
		return
	}
	intentID := chi.URLParam(r, constvars.URLParamIntentID)

	ctx, cancel := context.WithTimeout(r.Context(), paymentRequestTimeout)
	defer cancel()

	if err := ctrl.PaymentUsecase.Cancel(ctx, models.WorkflowHandle{IntentID: intentID}); err != nil {
		ctrl.Log.Error("PaymentController.CancelPayment error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingIntentIDKey, intentID),
			zap.Error(err),
		)
		ctrl.buildErrorResponse(w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "payment_cancelled_by_caller", requestID,
		zap.String(constvars.LoggingIntentIDKey, intentID),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentCancelledSuccessfully, responses.StartPayment{
		IntentID: intentID,
		State:    string(models.WorkflowStateCancelled),
	})
}

func (ctrl *PaymentController) ListPaymentRecords(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requestID(w, r)
	if !ok {
		return
	}
	request := &requests.ListPaymentRecords{
		PatientID: r.URL.Query().Get(constvars.QueryParamPatientID),
	}

	ctx, cancel := context.WithTimeout(r.Context(), paymentRequestTimeout)
	defer cancel()

	records, err := ctrl.PaymentUsecase.ListPaymentRecords(ctx, request)
	if err != nil {
		ctrl.Log.Error("PaymentController.ListPaymentRecords error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		ctrl.buildErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentRecordsFetchedSuccessfully, records)
}

func (ctrl *PaymentController) GetPaymentRecord(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requestID(w, r)
	if !ok {
		return
	}
	receiptNumber := chi.URLParam(r, constvars.URLParamReceiptNumber)

	ctx, cancel := context.WithTimeout(r.Context(), paymentRequestTimeout)
	defer cancel()

	record, err := ctrl.PaymentUsecase.FindPaymentRecordByReceipt(ctx, receiptNumber)
	if err != nil {
		ctrl.Log.Error("PaymentController.GetPaymentRecord error from usecase",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingReceiptNumberKey, receiptNumber),
			zap.Error(err),
		)
		ctrl.buildErrorResponse(w, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.PaymentRecordFetchedSuccessfully, record)
}

func (ctrl *PaymentController) requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID := utils.GetRequestID(r.Context())
	if requestID == "" {
		ctrl.Log.Error("Request ID missing from context",
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
			zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return "", false
	}
	return requestID, true
}

func (ctrl *PaymentController) buildErrorResponse(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	utils.BuildErrorResponse(ctrl.Log, w, err)
}
