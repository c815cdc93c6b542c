package payment_gateway

import (
	"context"
	"fmt"
	"io"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/contracts"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/shared/metrics"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	operationInitiate = "initiate"
	operationPoll     = "poll"

	resultOk          = "ok"
	resultUnavailable = "unavailable"
	resultRejected    = "rejected"
	resultIntegrity   = "integrity"
	resultUnknown     = "unknown"

	maxResponseBytes = 64 << 10
)

type paynowService struct {
	IntegrationID  string
	IntegrationKey string
	InitiateURL    string
	ReturnURL      string
	ResultURL      string
	AuthEmail      string
	Method         string
	HTTPClient     *http.Client
	PollLimiter    *rate.Limiter
	Log            *zap.Logger
}

func NewPaynowService(paynowConfig config.AppPaynow, httpClient *http.Client, logger *zap.Logger) contracts.PaymentGatewayService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: paynowConfig.RequestTimeout}
	}
	limit := rate.Inf
	if paynowConfig.PollRequestsPerSecond > 0 {
		limit = rate.Limit(paynowConfig.PollRequestsPerSecond)
	}
	burst := paynowConfig.PollBurst
	if burst <= 0 {
		burst = 1
	}
	method := paynowConfig.Method
	if method == "" {
		method = constvars.PaynowDefaultMethod
	}
	return &paynowService{
		IntegrationID:  paynowConfig.IntegrationID,
		IntegrationKey: paynowConfig.IntegrationKey,
		InitiateURL:    paynowConfig.InitiateURL,
		ReturnURL:      paynowConfig.ReturnURL,
		ResultURL:      paynowConfig.ResultURL,
		AuthEmail:      paynowConfig.AuthEmail,
		Method:         method,
		HTTPClient:     httpClient,
		PollLimiter:    rate.NewLimiter(limit, burst),
		Log:            logger,
	}
}

func (s *paynowService) Initiate(ctx context.Context, amount decimal.Decimal, payerMsisdn, referenceLabel string) (models.PollHandle, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Info("paynowService.Initiate called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaynowReferenceKey, referenceLabel),
		zap.String(constvars.LoggingAmountKey, amount.StringFixed(2)),
	)

	if !utils.IsChargeableAmount(amount) {
		return models.PollHandle{}, exceptions.ErrPaymentValidation(fmt.Errorf("amount must be positive with at most 2 decimal places, got %s", amount.String()))
	}
	phone, err := utils.ToLocalMsisdn(payerMsisdn)
	if err != nil {
		return models.PollHandle{}, exceptions.ErrPaymentValidation(err)
	}
	if strings.TrimSpace(referenceLabel) == "" {
		return models.PollHandle{}, exceptions.ErrPaymentValidation(fmt.Errorf("reference is required"))
	}

	message := paynowMessage{
		{Key: constvars.PaynowFieldID, Value: s.IntegrationID},
		{Key: constvars.PaynowFieldReference, Value: referenceLabel},
		{Key: constvars.PaynowFieldAmount, Value: amount.StringFixed(2)},
		{Key: constvars.PaynowFieldAdditionalInfo, Value: referenceLabel},
		{Key: constvars.PaynowFieldReturnURL, Value: s.ReturnURL},
		{Key: constvars.PaynowFieldResultURL, Value: s.ResultURL},
		{Key: constvars.PaynowFieldAuthEmail, Value: s.AuthEmail},
		{Key: constvars.PaynowFieldPhone, Value: phone},
		{Key: constvars.PaynowFieldMethod, Value: s.Method},
		{Key: constvars.PaynowFieldStatus, Value: constvars.PaynowMessageStatus},
	}.Signed(s.IntegrationKey)

	start := time.Now()
	response, err := s.send(ctx, s.InitiateURL, message.Encode())
	if err != nil {
		s.observe(operationInitiate, resultUnavailable, start)
		s.Log.Error("paynowService.Initiate error calling paynow",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return models.PollHandle{}, exceptions.ErrPaymentGatewayUnavailable(err)
	}

	switch strings.ToLower(response.Get(constvars.PaynowFieldStatus)) {
	case constvars.PaynowResponseStatusOk:
	case constvars.PaynowResponseStatusError:
		s.observe(operationInitiate, resultRejected, start)
		reason := response.Get(constvars.PaynowFieldError)
		s.Log.Warn("paynowService.Initiate rejected by paynow",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingErrorMessageKey, reason),
		)
		return models.PollHandle{}, exceptions.ErrPaymentGatewayRejected(fmt.Errorf("%s", reason))
	default:
		s.observe(operationInitiate, resultRejected, start)
		return models.PollHandle{}, exceptions.ErrPaymentGatewayRejected(fmt.Errorf("unexpected status %q", response.Get(constvars.PaynowFieldStatus)))
	}

	if err := response.VerifyHash(s.IntegrationKey); err != nil {
		s.observe(operationInitiate, resultIntegrity, start)
		s.Log.Error("paynowService.Initiate response failed hash verification",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return models.PollHandle{}, exceptions.ErrPaymentGatewayIntegrity(err)
	}

	pollURL := response.Get(constvars.PaynowFieldPollURL)
	if pollURL == "" {
		s.observe(operationInitiate, resultRejected, start)
		return models.PollHandle{}, exceptions.ErrPaymentGatewayRejected(fmt.Errorf("paynow returned no poll url"))
	}

	s.observe(operationInitiate, resultOk, start)
	handle := models.PollHandle{
		PollURL:         pollURL,
		PaynowReference: response.Get(constvars.PaynowFieldPaynowRef),
	}
	s.Log.Info("paynowService.Initiate succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPollURLKey, handle.PollURL),
	)
	return handle, nil
}

// Poll never retries. Transport problems come back as GatewayUnavailable and
// responses it cannot read as TransactionUnknown, so the caller keeps polling.
func (s *paynowService) Poll(ctx context.Context, handle models.PollHandle) (models.TransactionStatus, error) {
	requestID := utils.GetRequestID(ctx)
	s.Log.Debug("paynowService.Poll called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPollURLKey, handle.PollURL),
	)

	if handle.IsZero() {
		return models.TransactionUnknown, exceptions.ErrPaymentValidation(fmt.Errorf("poll handle is empty"))
	}

	if err := s.PollLimiter.Wait(ctx); err != nil {
		return models.TransactionUnknown, exceptions.ErrPaymentGatewayUnavailable(err)
	}

	start := time.Now()
	response, err := s.send(ctx, handle.PollURL, "")
	if err != nil {
		s.observe(operationPoll, resultUnavailable, start)
		s.Log.Warn("paynowService.Poll error calling paynow",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return models.TransactionUnknown, exceptions.ErrPaymentGatewayUnavailable(err)
	}

	if !response.Has(constvars.PaynowFieldStatus) {
		s.observe(operationPoll, resultUnknown, start)
		return models.TransactionUnknown, nil
	}

	if strings.EqualFold(response.Get(constvars.PaynowFieldStatus), constvars.PaynowResponseStatusError) {
		s.observe(operationPoll, resultRejected, start)
		return models.TransactionUnknown, exceptions.ErrPaymentGatewayRejected(fmt.Errorf("%s", response.Get(constvars.PaynowFieldError)))
	}

	if err := response.VerifyHash(s.IntegrationKey); err != nil {
		s.observe(operationPoll, resultIntegrity, start)
		s.Log.Error("paynowService.Poll response failed hash verification",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return models.TransactionUnknown, exceptions.ErrPaymentGatewayIntegrity(err)
	}

	status := mapPaynowStatus(response.Get(constvars.PaynowFieldStatus))
	s.observe(operationPoll, string(status), start)
	s.Log.Debug("paynowService.Poll succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingPaynowStatusKey, response.Get(constvars.PaynowFieldStatus)),
		zap.String(constvars.LoggingTransactionStatusKey, string(status)),
	)
	return status, nil
}

func (s *paynowService) send(ctx context.Context, endpoint, body string) (paynowMessage, error) {
	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationForm)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paynow responded with http status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	message, err := parsePaynowMessage(string(raw))
	if err != nil {
		// an unreadable body is treated like a response without a status
		return paynowMessage{}, nil
	}
	return message, nil
}

func (s *paynowService) observe(operation, result string, start time.Time) {
	metrics.ObserveGatewayRequest(operation, result, time.Since(start).Seconds())
}

func mapPaynowStatus(status string) models.TransactionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constvars.PaynowStatusPaid, constvars.PaynowStatusAwaitingDelivery, constvars.PaynowStatusDelivered:
		return models.TransactionPaid
	case constvars.PaynowStatusSent:
		return models.TransactionSent
	case constvars.PaynowStatusCreated:
		return models.TransactionPending
	case constvars.PaynowStatusCancelled:
		return models.TransactionCancelled
	case constvars.PaynowStatusFailed, constvars.PaynowStatusDisputed, constvars.PaynowStatusRefunded:
		return models.TransactionFailed
	}
	return models.TransactionUnknown
}
